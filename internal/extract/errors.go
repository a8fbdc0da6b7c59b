package extract

import "fmt"

// ParseError means the MRF document itself is malformed (truncated
// download, corrupt file). Fatal to that one hospital, never the run.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed MRF document: %s", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
