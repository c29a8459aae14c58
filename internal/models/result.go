package models

import "encoding/json"

type SearchRequest struct {
	Query   string                 `json:"query"`
	Filters map[string]interface{} `json:"filters"`
	Limit   int                    `json:"limit"`
}

type SearchResponse struct {
	Query         string                   `json:"query"`
	ExpandedQuery string                   `json:"expanded_query"`
	Results       []map[string]interface{} `json:"results"`
	Count         int                      `json:"count"`
}

type EmbeddingRequest struct {
	Text string `json:"text"`
}

type EmbeddingResponse struct {
	Embedding  []float32 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
}

type JobDescriptionRequest struct {
	Title      string   `json:"title"`
	Company    string   `json:"company"`
	Skills     []string `json:"skills"`
	Experience string   `json:"experience"`
	Location   string   `json:"location"`
	WorkMode   string   `json:"work_mode"`
}

type JobDescriptionResponse struct {
	Description string `json:"description"`
}

type JobAssistRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type JobAssistResponse struct {
	Tips []string `json:"tips"`
}

// StructuredRequest is the body of the AI proxy family: a caller-built
// prompt and an optional JSON schema the output must satisfy.
type StructuredRequest struct {
	Prompt string          `json:"prompt"`
	Schema json.RawMessage `json:"schema,omitempty"`
}

type ResumeParseResponse struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
}

type RedeemRequest struct {
	Amount   int64                  `json:"amount"`
	Reason   string                 `json:"reason"`
	Metadata map[string]interface{} `json:"metadata"`
}

type AdjustRequest struct {
	UserID   string                 `json:"user_id"`
	Delta    int64                  `json:"delta"`
	Type     string                 `json:"type"`
	Metadata map[string]interface{} `json:"metadata"`
}

type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

type SalaryResponse struct {
	Title     string         `json:"title"`
	Location  string         `json:"location"`
	Histogram map[string]int `json:"histogram"`
}
