package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryRouting    Category = "routing"
	CategoryLifecycle  Category = "lifecycle"
	CategoryRender     Category = "render"
	CategoryProtocol   Category = "protocol"
	CategoryValidation Category = "validation"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
)

// WpmError is a structured error with a registered code, detail and a hint on
// how to fix it.
type WpmError struct {
	// Code is a unique error identifier (e.g., "W001").
	Code string

	// Category is the error type (routing, lifecycle, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Path is the route path or URI the error refers to, if any.
	Path string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *WpmError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *WpmError) Unwrap() error {
	return e.Wrapped
}

// WithPath records the route path or URI the error refers to.
func (e *WpmError) WithPath(p string) *WpmError {
	e.Path = p
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *WpmError) WithSuggestion(s string) *WpmError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *WpmError) WithDetail(d string) *WpmError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *WpmError) Wrap(err error) *WpmError {
	e.Wrapped = err
	return e
}

// New creates a WpmError from a registered error code.
func New(code string) *WpmError {
	template, ok := registry[code]
	if !ok {
		return &WpmError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &WpmError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new WpmError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *WpmError {
	return &WpmError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a WpmError.
func FromError(err error, code string) *WpmError {
	if err == nil {
		return nil
	}
	if we, ok := err.(*WpmError); ok {
		return we
	}
	return New(code).Wrap(err)
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code string) bool {
	for err != nil {
		if we, ok := err.(*WpmError); ok && we.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
