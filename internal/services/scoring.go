package services

import "math"

// Dot returns the inner product over the shared prefix of a and b. For
// unit-length vectors this equals cosine similarity.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// MatchScore maps the similarity of a stored and a query vector onto an
// integer in [0, 100].
func MatchScore(stored, query []float32) int {
	if len(stored) == 0 || len(query) == 0 {
		return 0
	}

	score := Dot(stored, query) * 100
	if math.IsNaN(score) {
		return 0
	}
	score = math.Max(0, math.Min(100, score))
	return int(math.Round(score))
}

// vectorFromField reads a stored embedding out of an unwrapped document
// field. Both a plain numeric array and the {"value": [...]} vector map
// are accepted; anything else yields nil.
func vectorFromField(field interface{}) []float32 {
	switch v := field.(type) {
	case []float32:
		return v
	case []interface{}:
		return numbersToVector(v)
	case map[string]interface{}:
		if inner, ok := v["value"]; ok {
			return vectorFromField(inner)
		}
	}
	return nil
}

func numbersToVector(items []interface{}) []float32 {
	out := make([]float32, 0, len(items))
	for _, item := range items {
		switch n := item.(type) {
		case float64:
			out = append(out, float32(n))
		case float32:
			out = append(out, n)
		case int64:
			out = append(out, float32(n))
		case int:
			out = append(out, float32(n))
		default:
			return nil
		}
	}
	return out
}
