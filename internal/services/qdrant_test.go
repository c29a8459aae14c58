package services

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnwrapQdrantValue(t *testing.T) {
	payload := qdrant.NewValueMap(map[string]interface{}{
		"title":  "Go Engineer",
		"remote": true,
		"max":    int64(2000000),
		"rating": 4.5,
		"tags":   []interface{}{"go", "grpc"},
		"salary": map[string]interface{}{"currency": "INR"},
	})

	got := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		got[k] = unwrapQdrantValue(v)
	}

	assert.Equal(t, "Go Engineer", got["title"])
	assert.Equal(t, true, got["remote"])
	assert.Equal(t, int64(2000000), got["max"])
	assert.Equal(t, 4.5, got["rating"])
	assert.Equal(t, []interface{}{"go", "grpc"}, got["tags"])
	assert.Equal(t, map[string]interface{}{"currency": "INR"}, got["salary"])

	assert.Nil(t, unwrapQdrantValue(qdrant.NewValueNull()))
	assert.Nil(t, unwrapQdrantValue(&qdrant.Value{}))
}

func TestQdrantFilter(t *testing.T) {
	assert.Nil(t, qdrantFilter(nil))

	f := qdrantFilter([]Filter{
		{Field: "status", Value: "active"},
		{Field: "remote", Value: true},
		{Field: "openings", Value: float64(3)},
	})
	require.NotNil(t, f)
	require.Len(t, f.Must, 3)

	first := f.Must[0].GetField()
	assert.Equal(t, "status", first.GetKey())
	assert.Equal(t, "active", first.GetMatch().GetKeyword())
	assert.True(t, f.Must[1].GetField().GetMatch().GetBoolean())
	assert.Equal(t, int64(3), f.Must[2].GetField().GetMatch().GetInteger())
}

func TestQdrantFilter_FractionalNumber(t *testing.T) {
	f := qdrantFilter([]Filter{{Field: "rating", Value: 4.5}})
	require.NotNil(t, f)
	require.Len(t, f.Must, 1)

	field := f.Must[0].GetField()
	assert.Equal(t, "rating", field.GetKey())
	assert.Nil(t, field.GetMatch())

	r := field.GetRange()
	require.NotNil(t, r)
	assert.Equal(t, 4.5, r.GetGte())
	assert.Equal(t, 4.5, r.GetLte())
}

func TestScoreFields_QdrantPoint(t *testing.T) {
	data := map[string]interface{}{
		"title":     "Go Engineer",
		"embedding": []float32{0, 1},
	}

	got := scoreFields("5c0e6e2c-8d54-4b8e-9a55-4f3d0c7e1f10", data, []float32{0, 1})

	assert.Equal(t, 100, got["matchScore"])
	assert.Equal(t, "5c0e6e2c-8d54-4b8e-9a55-4f3d0c7e1f10", got["id"])
	assert.NotContains(t, got, "embedding")
}

func TestPointID(t *testing.T) {
	assert.Equal(t, "abc", pointID(qdrant.NewIDUUID("abc")))
	assert.Equal(t, "42", pointID(qdrant.NewIDNum(42)))
}
