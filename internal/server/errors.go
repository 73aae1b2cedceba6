package server

import (
	"errors"
	"fmt"
	"reflect"

	pkgerrors "github.com/pkg/errors"
)

// UnknownActionError is returned for a request naming no known operation.
type UnknownActionError struct {
	Action string
}

// Error implements the error interface.
func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Action)
}

// ErrorFields exposes the failure for error serialization.
func (e *UnknownActionError) ErrorFields() map[string]any {
	return map[string]any{"action": e.Action}
}

// RequestError is returned when a request payload cannot be decoded.
type RequestError struct {
	Action string
	Err    error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid %s request: %v", e.Action, e.Err)
}

// Unwrap returns the decoding error.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// ErrorFields exposes the failure for error serialization.
func (e *RequestError) ErrorFields() map[string]any {
	return map[string]any{"action": e.Action}
}

type fielder interface {
	ErrorFields() map[string]any
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// errorObject flattens err into the wire error object: name, message, the
// first stack trace found in the chain, and the fields of every error in
// the chain. Outer errors win on key conflicts.
func errorObject(err error) map[string]any {
	obj := make(map[string]any)
	var (
		name  string
		stack string
	)
	walk(err, func(e error) {
		if f, ok := e.(fielder); ok {
			if name == "" {
				name = typeName(e)
			}
			for k, v := range f.ErrorFields() {
				if _, exists := obj[k]; !exists {
					obj[k] = v
				}
			}
		}
		if st, ok := e.(stackTracer); ok && stack == "" {
			stack = fmt.Sprintf("%+v", st.StackTrace())
		}
	})

	if name == "" {
		name = "Error"
	}
	obj["name"] = name
	obj["message"] = err.Error()
	if stack != "" {
		obj["stack"] = stack
	}
	return obj
}

// walk visits err and everything it wraps, depth first.
func walk(err error, fn func(error)) {
	if err == nil {
		return
	}
	fn(err)
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			walk(e, fn)
		}
	default:
		walk(errors.Unwrap(err), fn)
	}
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
