package bankdata

import "fmt"

// ProviderError reports a transport, credential, or non-success failure from
// the generative model gateway. It is never retried by the pipeline.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ValidationError reports a safety-validator rejection. The offending query
// is never executed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("generated SQL failed safety validation: %s", e.Reason)
}

// QueryError reports a database execution failure, distinct from a
// validation rejection so callers can tell "unsafe query" apart from "safe
// query that failed to run".
type QueryError struct {
	Timeout bool
	Err     error
}

func (e *QueryError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("query execution timeout exceeded: %v", e.Err)
	}
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
