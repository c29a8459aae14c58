package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"alfredoptarigan/hirematch/internal/models"
)

const scoreSchema = `{
	"type": "object",
	"required": ["score", "summary"],
	"properties": {
		"score":   {"type": "integer", "minimum": 0, "maximum": 100},
		"summary": {"type": "string"}
	}
}`

func TestGenerateStructured(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		schema  string
		want    string
		wantErr error
	}{
		{
			name:   "valid output against schema",
			output: `{"score": 82, "summary": "Strong Go background"}`,
			schema: scoreSchema,
			want:   `{"score": 82, "summary": "Strong Go background"}`,
		},
		{
			name:   "fenced output",
			output: "```json\n{\"score\": 40, \"summary\": \"Junior\"}\n```",
			schema: scoreSchema,
			want:   `{"score": 40, "summary": "Junior"}`,
		},
		{
			name:   "no schema returns any JSON",
			output: `["Tell me about a hard bug", "How do you test Go code?"]`,
			want:   `["Tell me about a hard bug", "How do you test Go code?"]`,
		},
		{
			name:    "output violates schema",
			output:  `{"score": "high"}`,
			schema:  scoreSchema,
			wantErr: ErrSchemaMismatch,
		},
		{
			name:    "output is not JSON",
			output:  `I cannot help with that.`,
			wantErr: ErrSchemaMismatch,
		},
		{
			name:    "schema does not compile",
			output:  `{}`,
			schema:  `{"type": "nonsense"}`,
			wantErr: ErrInvalidSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{text: tt.output}
			svc := NewAIService(gen, zap.NewNop())

			req := models.StructuredRequest{Prompt: "Evaluate this candidate."}
			if tt.schema != "" {
				req.Schema = json.RawMessage(tt.schema)
			}

			got, err := svc.GenerateStructured(context.Background(), "resume-analysis", req)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), err.Error())
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestGenerateStructured_InvalidSchemaSkipsModel(t *testing.T) {
	gen := &fakeGenerator{text: `{}`}
	svc := NewAIService(gen, zap.NewNop())

	_, err := svc.GenerateStructured(context.Background(), "assessment", models.StructuredRequest{
		Prompt: "x",
		Schema: json.RawMessage(`{not json`),
	})

	assert.True(t, errors.Is(err, ErrInvalidSchema))
	assert.Empty(t, gen.prompts)
}

func TestJobAssist(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n{\"tips\": [\"State the salary range\", \"Shorten the requirements list\"]}\n```"}
	svc := NewAIService(gen, zap.NewNop())

	tips, err := svc.JobAssist(context.Background(), models.JobAssistRequest{Title: "Go Engineer", Description: "We need a rockstar."})

	require.NoError(t, err)
	assert.Equal(t, []string{"State the salary range", "Shorten the requirements list"}, tips)
	assert.Contains(t, gen.prompts[0], "We need a rockstar.")
}

func TestGenerateJobDescription(t *testing.T) {
	gen := &fakeGenerator{text: "\n About the role\n- Build APIs \n"}
	svc := NewAIService(gen, zap.NewNop())

	got, err := svc.GenerateJobDescription(context.Background(), models.JobDescriptionRequest{
		Title:  "Go Engineer",
		Skills: []string{"Go", "PostgreSQL"},
	})

	require.NoError(t, err)
	assert.Equal(t, "About the role\n- Build APIs", got)
	assert.Contains(t, gen.prompts[0], "Go, PostgreSQL")
	assert.Contains(t, gen.prompts[0], "COMPANY: Not specified")
}

func TestGenerateJobDescription_ProviderError(t *testing.T) {
	svc := NewAIService(&fakeGenerator{err: ErrEmptyGeneration}, zap.NewNop())

	_, err := svc.GenerateJobDescription(context.Background(), models.JobDescriptionRequest{Title: "x"})
	assert.True(t, errors.Is(err, ErrEmptyGeneration))
}
