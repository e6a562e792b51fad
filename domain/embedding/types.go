// Package embedding defines the core types for batch embedding:
// requests, responses, usage accounting, admission limits and the
// Engine contract implemented by the provider layer.
package embedding

import "unicode/utf8"

// Request is one inbound batch of texts to encode.
//
// The model, normalize and truncate fields are optional; unset values
// resolve against configured defaults at orchestration time. Metadata is
// an opaque string map carried for logging and correlation only; it is
// never inspected by an engine.
type Request struct {
	texts     []string
	model     string
	normalize *bool
	truncate  *bool
	metadata  map[string]string
}

// RequestOption is a functional option for Request.
type RequestOption func(*Request)

// WithModel sets a caller-requested model identifier, overriding the
// configured default when override is permitted.
func WithModel(model string) RequestOption {
	return func(r *Request) { r.model = model }
}

// WithNormalize sets the normalize flag explicitly.
func WithNormalize(v bool) RequestOption {
	return func(r *Request) { r.normalize = &v }
}

// WithTruncate sets the truncate flag explicitly.
func WithTruncate(v bool) RequestOption {
	return func(r *Request) { r.truncate = &v }
}

// WithRequestMetadata attaches opaque correlation metadata.
func WithRequestMetadata(md map[string]string) RequestOption {
	return func(r *Request) {
		if md == nil {
			return
		}
		r.metadata = make(map[string]string, len(md))
		for k, v := range md {
			r.metadata[k] = v
		}
	}
}

// NewRequest creates a Request for the given texts.
func NewRequest(texts []string, opts ...RequestOption) Request {
	r := Request{texts: texts}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Texts returns the ordered input texts.
func (r Request) Texts() []string { return r.texts }

// Model returns the requested model identifier, or "" for the default.
func (r Request) Model() string { return r.model }

// Normalize resolves the normalize flag against the given default.
func (r Request) Normalize(def bool) bool {
	if r.normalize == nil {
		return def
	}
	return *r.normalize
}

// Truncate resolves the truncate flag against the given default.
func (r Request) Truncate(def bool) bool {
	if r.truncate == nil {
		return def
	}
	return *r.truncate
}

// Metadata returns a copy of the correlation metadata.
func (r Request) Metadata() map[string]string {
	if r.metadata == nil {
		return nil
	}
	out := make(map[string]string, len(r.metadata))
	for k, v := range r.metadata {
		out[k] = v
	}
	return out
}

// Chars returns the total character count across all texts. Characters
// are Unicode code points, not bytes.
func (r Request) Chars() int {
	total := 0
	for _, t := range r.texts {
		total += utf8.RuneCountInString(t)
	}
	return total
}

// Usage records per-request accounting: text count, total input
// characters and encode wall time in milliseconds.
type Usage struct {
	texts int
	chars int
	ms    int64
}

// NewUsage creates a Usage record.
func NewUsage(texts, chars int, ms int64) Usage {
	return Usage{texts: texts, chars: chars, ms: ms}
}

// Texts returns the number of input texts.
func (u Usage) Texts() int { return u.texts }

// Chars returns the total input characters.
func (u Usage) Chars() int { return u.chars }

// Ms returns the encode wall time in milliseconds.
func (u Usage) Ms() int64 { return u.ms }

// Response is the result of one batch encode: the resolved model, its
// fixed output dimension, one vector per input text in input order, and
// usage accounting.
type Response struct {
	model      string
	dim        int
	embeddings [][]float64
	usage      Usage
}

// NewResponse creates a Response.
func NewResponse(model string, dim int, embeddings [][]float64, usage Usage) Response {
	return Response{model: model, dim: dim, embeddings: embeddings, usage: usage}
}

// Model returns the resolved model identifier.
func (r Response) Model() string { return r.model }

// Dim returns the vector dimension, constant per loaded model.
func (r Response) Dim() int { return r.dim }

// Embeddings returns the output vectors, one per input text.
func (r Response) Embeddings() [][]float64 { return r.embeddings }

// Usage returns the usage accounting for this request.
func (r Response) Usage() Usage { return r.usage }
