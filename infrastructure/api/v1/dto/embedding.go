// Package dto defines the JSON wire types for the v1 API.
package dto

// EmbedRequest is the body of POST /v1/embeddings.
type EmbedRequest struct {
	Model     string            `json:"model,omitempty"`
	Texts     []string          `json:"texts"`
	Normalize *bool             `json:"normalize,omitempty"`
	Truncate  *bool             `json:"truncate,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// UsageSchema reports batch accounting for a successful response.
type UsageSchema struct {
	Texts int   `json:"texts"`
	Chars int   `json:"chars"`
	MS    int64 `json:"ms"`
}

// EmbedResponse is the success body of POST /v1/embeddings.
type EmbedResponse struct {
	Model      string      `json:"model"`
	Dim        int         `json:"dim"`
	Embeddings [][]float64 `json:"embeddings"`
	Usage      UsageSchema `json:"usage"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the error envelope used by every endpoint.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the body of GET /ready.
type ReadyResponse struct {
	Ready       bool   `json:"ready"`
	ModelLoaded bool   `json:"model_loaded"`
	ConfigValid bool   `json:"config_valid"`
	Details     string `json:"details,omitempty"`
}
