package embedding

import "context"

// EncodeOptions controls a single encode call.
type EncodeOptions struct {
	// Normalize scales every output vector to unit Euclidean norm.
	Normalize bool

	// Truncate requests clamping of over-long inputs to the model's
	// maximum sequence length. Inputs beyond that length are clamped at
	// the tokenizer layer regardless of this flag, so encoding never
	// fails on input length; Truncate only records the caller's intent.
	Truncate bool
}

// Engine encodes batches of text with one loaded model.
//
// Implementations return one vector per input text, preserving order.
// They may sub-batch internally for memory reasons; callers observe a
// single aggregate result or a single aggregate error, never a partial
// sequence. Encode calls are read-only over the loaded weights.
type Engine interface {
	// Encode converts texts to vectors. It must not be called with an
	// empty batch; admission validation rejects those earlier.
	Encode(ctx context.Context, texts []string, opts EncodeOptions) ([][]float64, error)

	// ModelID returns the identifier the model was loaded under.
	ModelID() string

	// Dim returns the output vector dimension, fixed once loaded.
	Dim() int
}
