package generator

import "fmt"

// ProviderError is a failed exchange with the provider: a transport failure
// (StatusCode 0), a non-2xx status, or a 2xx body that could not be parsed.
type ProviderError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("provider request failed: %v", e.Err)
	case e.Err != nil:
		return fmt.Sprintf("provider returned %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("provider returned %d: %s", e.StatusCode, e.Body)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// EmptyResultError means the provider answered successfully but produced no
// usable text.
type EmptyResultError struct {
	// BlockReason is the provider's prompt feedback, if it gave one.
	BlockReason string
}

func (e *EmptyResultError) Error() string {
	if e.BlockReason != "" {
		return "no content generated: prompt blocked (" + e.BlockReason + ")"
	}
	return "no content generated"
}
