package parser

import "fmt"

// UnrecoverableFormatError indicates that every repair stage was exhausted
// without producing a parseable JSON value. TextLen is the length of the
// cleaned text, kept for diagnostics.
type UnrecoverableFormatError struct {
	TextLen int
}

func (e *UnrecoverableFormatError) Error() string {
	return fmt.Sprintf("unrecoverable model output format (cleaned text length %d)", e.TextLen)
}
