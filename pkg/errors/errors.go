// Package errors provides a structured error system for GeoBench with error
// codes, categories, and context.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents a structured error code for GeoBench operations.
type ErrorCode string

// Error code constants organized by category.
const (
	// Input Errors
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Capability Errors
	ErrCodeUnsupportedCapability ErrorCode = "UNSUPPORTED_CAPABILITY"

	// Output Errors
	ErrCodeOutputExists   ErrorCode = "OUTPUT_EXISTS"
	ErrCodeOutputTooLarge ErrorCode = "OUTPUT_TOO_LARGE"

	// Conversion Errors
	ErrCodeConversionFailed ErrorCode = "CONVERSION_FAILED"
	ErrCodeExternalTool     ErrorCode = "EXTERNAL_TOOL"

	// Configuration Errors
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrCodeConfigLoad    ErrorCode = "CONFIG_LOAD"

	// Operation Errors
	ErrCodeOperationCanceled ErrorCode = "OPERATION_CANCELED"
	ErrCodeInternalError     ErrorCode = "INTERNAL_ERROR"
)

// ErrorCategory represents the general category of an error.
type ErrorCategory string

const (
	CategoryInput         ErrorCategory = "input"
	CategoryCapability    ErrorCategory = "capability"
	CategoryOutput        ErrorCategory = "output"
	CategoryConversion    ErrorCategory = "conversion"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryOperation     ErrorCategory = "operation"
	CategoryInternal      ErrorCategory = "internal"
)

// Error represents a structured error with context and metadata.
type Error struct {
	// Core error information
	Code     ErrorCode     `json:"code"`
	Category ErrorCategory `json:"category"`
	Message  string        `json:"message"`

	// Contextual information
	Context   map[string]string `json:"context,omitempty"`
	Cause     error             `json:"-"` // Not serialized to avoid circular refs
	Timestamp time.Time         `json:"timestamp"`

	// Operational metadata
	Component string `json:"component,omitempty"`
	Operation string `json:"operation,omitempty"`

	// Setup reports whether the error indicates a request-construction
	// problem (bad input path, unsupported combination) rather than a
	// failure of the conversion attempt itself. Setup errors are surfaced
	// immediately; attempt failures become failed results inside a matrix.
	Setup bool `json:"setup"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Component != "" {
		if e.Operation != "" {
			return fmt.Sprintf("[%s:%s] %s: %s", e.Component, e.Operation, e.Code, e.Message)
		}
		return fmt.Sprintf("[%s] %s: %s", e.Component, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error wrapping compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error (for errors.Is compatibility).
func (e *Error) Is(target error) bool {
	if other, ok := target.(*Error); ok {
		return e.Code == other.Code
	}
	return false
}

// String returns a detailed string representation for logging.
func (e *Error) String() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Code=%s", e.Code))
	parts = append(parts, fmt.Sprintf("Category=%s", e.Category))
	parts = append(parts, fmt.Sprintf("Message=%q", e.Message))

	if e.Component != "" {
		parts = append(parts, fmt.Sprintf("Component=%s", e.Component))
	}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("Operation=%s", e.Operation))
	}
	if len(e.Context) > 0 {
		ctx, _ := json.Marshal(e.Context)
		parts = append(parts, fmt.Sprintf("Context=%s", ctx))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause=%q", e.Cause.Error()))
	}

	return fmt.Sprintf("GeoBenchError{%s}", strings.Join(parts, ", "))
}

// New creates a new structured error with default values.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:      code,
		Category:  GetCategory(code),
		Message:   message,
		Timestamp: time.Now(),
		Setup:     IsSetupByDefault(code),
	}
}

// Newf creates a new structured error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// GetCategory determines the category based on the error code.
func GetCategory(code ErrorCode) ErrorCategory {
	switch code {
	case ErrCodeInvalidInput:
		return CategoryInput
	case ErrCodeUnsupportedCapability:
		return CategoryCapability
	case ErrCodeOutputExists, ErrCodeOutputTooLarge:
		return CategoryOutput
	case ErrCodeConversionFailed, ErrCodeExternalTool:
		return CategoryConversion
	case ErrCodeInvalidConfig, ErrCodeConfigLoad:
		return CategoryConfiguration
	case ErrCodeOperationCanceled:
		return CategoryOperation
	default:
		return CategoryInternal
	}
}

// IsSetupByDefault determines if an error code indicates a
// request-construction problem rather than a conversion attempt failure.
func IsSetupByDefault(code ErrorCode) bool {
	setupCodes := map[ErrorCode]bool{
		ErrCodeInvalidInput:          true,
		ErrCodeUnsupportedCapability: true,
		ErrCodeOutputExists:          true,
		ErrCodeInvalidConfig:         true,
		ErrCodeConfigLoad:            true,
	}
	return setupCodes[code]
}

// WithContext adds contextual information to an error.
func (e *Error) WithContext(key, value string) *Error {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithComponent sets the component for an error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// WithOperation sets the operation for an error.
func (e *Error) WithOperation(operation string) *Error {
	e.Operation = operation
	return e
}

// WithCause sets the underlying cause.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// CodeOf extracts the structured code from err, walking the wrap chain.
// Errors without a structured code report ErrCodeInternalError.
func CodeOf(err error) ErrorCode {
	for err != nil {
		if ge, ok := err.(*Error); ok {
			return ge.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ErrCodeInternalError
}

// IsSetup reports whether err is a request-construction problem. Unknown
// errors count as attempt failures, not setup problems.
func IsSetup(err error) bool {
	for err != nil {
		if ge, ok := err.(*Error); ok {
			return ge.Setup
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return false
}
