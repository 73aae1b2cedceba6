package engine

import (
	"fmt"

	"github.com/pkg/errors"
)

// Password error codes.
const (
	// NeedPassword means the document is encrypted and no password was given.
	NeedPassword = 1
	// IncorrectPassword means the given password does not open the document.
	IncorrectPassword = 2
)

// ErrNotParsed is returned when document accessors are used before Parse succeeded.
var ErrNotParsed = errors.New("document not parsed")

// InvalidPDFError reports data that is not a PDF at all.
type InvalidPDFError struct {
	Reason string
}

// Error implements the error interface.
func (e *InvalidPDFError) Error() string {
	return "invalid PDF structure: " + e.Reason
}

// ErrorFields exposes the failure for error serialization.
func (e *InvalidPDFError) ErrorFields() map[string]any {
	return map[string]any{"reason": e.Reason}
}

// XRefParseError reports a broken cross-reference table or object structure.
// Session bootstrap retries parsing once in recovery mode on this error.
type XRefParseError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *XRefParseError) Error() string {
	return fmt.Sprintf("xref: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *XRefParseError) Unwrap() error {
	return e.Err
}

// ErrorFields exposes the failure for error serialization.
func (e *XRefParseError) ErrorFields() map[string]any {
	return map[string]any{"op": e.Op}
}

// PasswordError reports a missing or wrong password.
type PasswordError struct {
	Code int
	Err  error
}

// Error implements the error interface.
func (e *PasswordError) Error() string {
	if e.Code == NeedPassword {
		return "no password given"
	}
	return "incorrect password"
}

// Unwrap returns the underlying error.
func (e *PasswordError) Unwrap() error {
	return e.Err
}

// ErrorFields exposes the failure for error serialization.
func (e *PasswordError) ErrorFields() map[string]any {
	return map[string]any{"code": e.Code}
}

// ContentError reports a failure while interpreting a page's content stream.
type ContentError struct {
	Page  int
	Cause string
}

// Error implements the error interface.
func (e *ContentError) Error() string {
	return fmt.Sprintf("page %d: bad content stream: %s", e.Page+1, e.Cause)
}

// ErrorFields exposes the failure for error serialization.
func (e *ContentError) ErrorFields() map[string]any {
	return map[string]any{"pageIndex": e.Page}
}

// PageRangeError reports a page index outside the document.
type PageRangeError struct {
	Index    int
	NumPages int
}

// Error implements the error interface.
func (e *PageRangeError) Error() string {
	return fmt.Sprintf("page index %d out of range [0, %d)", e.Index, e.NumPages)
}

// ErrorFields exposes the failure for error serialization.
func (e *PageRangeError) ErrorFields() map[string]any {
	return map[string]any{"pageIndex": e.Index, "numPages": e.NumPages}
}
