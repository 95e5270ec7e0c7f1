package engine

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Match with errors.Is; use errors.As on
// *ConfigError, *FetchError or *ModelCallError for details.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrFetch         = errors.New("transcript fetch failed")
	ErrModelCall     = errors.New("model call failed")
)

// ConfigError reports an invalid analyzer or template setting.
type ConfigError struct {
	Field  string
	Reason string
}

// Configf builds a *ConfigError for field with a formatted reason.
func Configf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// FetchError reports that no transcript could be obtained for Ref.
type FetchError struct {
	Ref string
	Err error
}

// NewFetchError wraps err as a *FetchError unless it already is one.
func NewFetchError(ref string, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Ref: ref, Err: err}
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch transcript %q: %v", e.Ref, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// ModelCallError reports a failed or unusable generation request.
// Chunk is the zero-based map chunk index, or -1 outside the map phase.
type ModelCallError struct {
	Stage string
	Chunk int
	Err   error
}

func (e *ModelCallError) Error() string {
	if e.Chunk >= 0 {
		return fmt.Sprintf("model call (%s, chunk %d): %v", e.Stage, e.Chunk, e.Err)
	}
	return fmt.Sprintf("model call (%s): %v", e.Stage, e.Err)
}

func (e *ModelCallError) Unwrap() error { return e.Err }

func (e *ModelCallError) Is(target error) bool { return target == ErrModelCall }
