package engine

import (
	"errors"
	"fmt"
	"strings"
)

// #region kinds

// Kind classifies an engine failure. The sidecar reports it explicitly;
// ClassifyKind falls back to message matching for sidecars that predate
// the kind field.
type Kind string

const (
	// KindTransient failures are retryable in place.
	KindTransient Kind = "transient"
	// KindNonMonotonicTime is the unrecoverable interpolation failure.
	// Not retryable in place; the caller must run split recovery or
	// checkpoint and abort.
	KindNonMonotonicTime Kind = "non_monotonic_time"
	// KindEmptyAudio marks a structurally valid response with no samples.
	KindEmptyAudio Kind = "empty_audio"
)

// #endregion kinds

// #region error

// Error is a structured synthesis failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine %s: %s", e.Kind, e.Message)
}

// ClassifyKind resolves the failure kind from the sidecar's explicit kind
// field, falling back to known fatal message fragments.
func ClassifyKind(kind, message string) Kind {
	switch Kind(kind) {
	case KindNonMonotonicTime, KindEmptyAudio, KindTransient:
		return Kind(kind)
	}
	lower := strings.ToLower(message)
	if strings.Contains(lower, "strictly increasing or decreasing") ||
		strings.Contains(lower, "non-monotonic") {
		return KindNonMonotonicTime
	}
	return KindTransient
}

// IsFatal reports whether err is the unrecoverable interpolation failure.
func IsFatal(err error) bool {
	var ee *Error
	return errors.As(err, &ee) && ee.Kind == KindNonMonotonicTime
}

// #endregion error
