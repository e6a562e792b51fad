package embedding

import "unicode/utf8"

// Limits is an immutable snapshot of the configured admission limits.
type Limits struct {
	maxTexts      int
	maxChars      int
	allowOverride bool
}

// NewLimits creates a Limits snapshot.
func NewLimits(maxTexts, maxChars int, allowOverride bool) Limits {
	return Limits{
		maxTexts:      maxTexts,
		maxChars:      maxChars,
		allowOverride: allowOverride,
	}
}

// MaxTexts returns the maximum batch size.
func (l Limits) MaxTexts() int { return l.maxTexts }

// MaxChars returns the maximum character length per text.
func (l Limits) MaxChars() int { return l.maxChars }

// AllowOverride returns whether callers may name a non-default model.
func (l Limits) AllowOverride() bool { return l.allowOverride }

// Validate checks a request against the limits, short-circuiting on the
// first failure. It is pure: no side effects, deterministic for a given
// request and snapshot.
//
// Check order: empty batch, batch size, per-text length, override policy.
func (l Limits) Validate(req Request) error {
	texts := req.Texts()

	if len(texts) == 0 {
		return NewEmptyBatchError()
	}

	if len(texts) > l.maxTexts {
		return NewBatchTooLargeError(l.maxTexts, len(texts))
	}

	for i, text := range texts {
		// Limits are defined over characters, not bytes.
		if n := utf8.RuneCountInString(text); n > l.maxChars {
			return NewTextTooLongError(i, l.maxChars, n)
		}
	}

	if req.Model() != "" && !l.allowOverride {
		return NewModelOverrideDisabledError()
	}

	return nil
}
