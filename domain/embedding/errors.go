package embedding

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the embedding error taxonomy. Typed errors below
// match these with errors.Is so callers can classify without knowing the
// concrete type.
var (
	// ErrValidation marks caller errors: the batch violated a configured
	// limit or policy. Not retryable by the service.
	ErrValidation = errors.New("validation rejected")

	// ErrModelLoad marks a failed model load. A server-side condition,
	// never attributable to the caller.
	ErrModelLoad = errors.New("model load failed")

	// ErrEncode marks an inference failure after a successful load. The
	// batch fails as a whole; no partial results exist.
	ErrEncode = errors.New("encoding failed")

	// ErrTimeout marks an orchestration wait that exceeded the configured
	// request timeout. Distinct from ErrEncode so callers can tell "too
	// slow" from "broken".
	ErrTimeout = errors.New("encode timeout exceeded")
)

// RejectionCode identifies the specific validation failure on the wire.
type RejectionCode string

// Rejection codes surfaced verbatim to callers.
const (
	CodeEmptyBatch            RejectionCode = "EMPTY_BATCH"
	CodeBatchTooLarge         RejectionCode = "BATCH_TOO_LARGE"
	CodeTextTooLong           RejectionCode = "TEXT_TOO_LONG"
	CodeModelOverrideDisabled RejectionCode = "MODEL_OVERRIDE_DISABLED"
)

// ValidationError is a rejected batch. It carries the violated limit and
// the actual value so the transport layer can surface both.
type ValidationError struct {
	code    RejectionCode
	message string
	limit   int
	actual  int
	index   int
}

// NewEmptyBatchError reports a batch with no texts.
func NewEmptyBatchError() *ValidationError {
	return &ValidationError{
		code:    CodeEmptyBatch,
		message: "texts list cannot be empty",
		index:   -1,
	}
}

// NewBatchTooLargeError reports a batch over the configured size limit.
func NewBatchTooLargeError(limit, actual int) *ValidationError {
	return &ValidationError{
		code:    CodeBatchTooLarge,
		message: fmt.Sprintf("batch size %d exceeds maximum %d", actual, limit),
		limit:   limit,
		actual:  actual,
		index:   -1,
	}
}

// NewTextTooLongError reports a single text over the character limit.
func NewTextTooLongError(index, limit, actual int) *ValidationError {
	return &ValidationError{
		code:    CodeTextTooLong,
		message: fmt.Sprintf("text at index %d has %d characters, exceeds maximum %d", index, actual, limit),
		limit:   limit,
		actual:  actual,
		index:   index,
	}
}

// NewModelOverrideDisabledError reports a model override attempt while
// override is disallowed by configuration.
func NewModelOverrideDisabledError() *ValidationError {
	return &ValidationError{
		code:    CodeModelOverrideDisabled,
		message: "model override is not allowed",
		index:   -1,
	}
}

// Code returns the rejection code.
func (e *ValidationError) Code() RejectionCode { return e.code }

// Limit returns the violated limit, or 0 when not applicable.
func (e *ValidationError) Limit() int { return e.limit }

// Actual returns the offending value, or 0 when not applicable.
func (e *ValidationError) Actual() int { return e.actual }

// Index returns the offending text index, or -1 when not applicable.
func (e *ValidationError) Index() int { return e.index }

// Message returns the human-readable rejection message.
func (e *ValidationError) Message() string { return e.message }

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// LoadError is a failed model load.
type LoadError struct {
	model  string
	reason string
	cause  error
}

// NewLoadError creates a LoadError for the given model.
func NewLoadError(model, reason string, cause error) *LoadError {
	return &LoadError{model: model, reason: reason, cause: cause}
}

// Model returns the model identifier that failed to load.
func (e *LoadError) Model() string { return e.model }

// Reason returns the load failure description.
func (e *LoadError) Reason() string { return e.reason }

func (e *LoadError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("load model %q: %s: %v", e.model, e.reason, e.cause)
	}
	return fmt.Sprintf("load model %q: %s", e.model, e.reason)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.cause }

// Is matches ErrModelLoad.
func (e *LoadError) Is(target error) bool { return target == ErrModelLoad }

// EncodeError is an inference failure for a loaded model.
type EncodeError struct {
	model string
	cause error
}

// NewEncodeError creates an EncodeError for the given model.
func NewEncodeError(model string, cause error) *EncodeError {
	return &EncodeError{model: model, cause: cause}
}

// Model returns the model identifier the encode ran against.
func (e *EncodeError) Model() string { return e.model }

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode with model %q: %v", e.model, e.cause)
}

// Unwrap returns the underlying cause.
func (e *EncodeError) Unwrap() error { return e.cause }

// Is matches ErrEncode.
func (e *EncodeError) Is(target error) bool { return target == ErrEncode }

// TimeoutError is an orchestration wait that expired. The underlying
// computation keeps running; the timeout is advisory, not preemptive.
type TimeoutError struct {
	model string
	limit time.Duration
}

// NewTimeoutError creates a TimeoutError for the given model and limit.
func NewTimeoutError(model string, limit time.Duration) *TimeoutError {
	return &TimeoutError{model: model, limit: limit}
}

// Model returns the model identifier the encode ran against.
func (e *TimeoutError) Model() string { return e.model }

// Limit returns the configured wait bound.
func (e *TimeoutError) Limit() time.Duration { return e.limit }

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("encode with model %q exceeded %s timeout", e.model, e.limit)
}

// Is matches ErrTimeout.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }
