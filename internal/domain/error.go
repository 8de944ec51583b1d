package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Application error codes.
// Callers map these to transport status codes and user-facing messages.
const (
	EINTERNAL   = "internal"    // Unexpected failure (hide details)
	EINVALID    = "invalid"     // Validation error (bad input)
	ENOTFOUND   = "not_found"   // Resource not found (e.g. no admin settings snapshot)
	EUNKNOWNKEY = "unknown_key" // Input value absent from a closed lookup table
)

// Error represents an application error with a code and message.
// It implements the error interface and supports error wrapping.
type Error struct {
	// Code is a machine-readable error code (e.g., EINVALID, ENOTFOUND).
	Code string

	// Message is a human-readable error message safe to show to users.
	Message string

	// Op is the operation where the error occurred (e.g., "quote.calculate").
	// Used for debugging and logging, not shown to users.
	Op string

	// Err is the underlying error, if any. Used for error wrapping.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the error code from an error.
// Returns EINTERNAL for nil or non-domain errors.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	var ve ValidationErrors
	if errors.As(err, &ve) {
		return EINVALID
	}

	var le *LookupError
	if errors.As(err, &le) {
		return EUNKNOWNKEY
	}

	return EINTERNAL
}

// ErrorMessage extracts a user-facing message from an error.
// For internal errors, returns a generic message to avoid leaking details.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		if e.Code == EINTERNAL {
			return "An internal error occurred. Please try again later."
		}
		return e.Message
	}

	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve.Error()
	}

	var le *LookupError
	if errors.As(err, &le) {
		return le.Error()
	}

	return "An internal error occurred. Please try again later."
}

// ErrorOp extracts the operation from an error (for logging).
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}

	return ""
}

// Errorf creates a new domain error with formatted message.
// Example: domain.Errorf(domain.EINVALID, "quote.decode", "unknown field: %s", name)
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with a domain error code and operation.
// Returns nil if err is nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// IsCode returns true if err has the given error code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// NotFound creates a not found error for a resource.
// Example: domain.NotFound("settings.snapshot", "admin settings", orgID.String())
func NotFound(op, resource, identifier string) error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
	}
}

// Internal creates an internal error (wraps underlying error).
// The message shown to users will be generic; the underlying error is for logging.
func Internal(err error, op, message string) error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// =============================================================================
// Validation Errors (collected, never short-circuited)
// =============================================================================

// QuoteLevel is the Item index used for violations that concern the quote
// as a whole rather than a single line item.
const QuoteLevel = -1

// FieldError is a single violated rule.
type FieldError struct {
	// Item is the zero-based line item index, or QuoteLevel.
	Item int `json:"item"`

	// SKU identifies the item in messages when present.
	SKU string `json:"sku,omitempty"`

	// Field is the logical input field name (e.g. "markup").
	Field string `json:"field"`

	// Message is the user-facing description of the violation.
	Message string `json:"message"`
}

func (e FieldError) String() string {
	switch {
	case e.Item == QuoteLevel:
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	case e.SKU != "":
		return fmt.Sprintf("item %d (%s): %s: %s", e.Item+1, e.SKU, e.Field, e.Message)
	default:
		return fmt.Sprintf("item %d: %s: %s", e.Item+1, e.Field, e.Message)
	}
}

// ValidationErrors is the full set of violations found for one calculation.
// A calculation that produces any is rejected as a whole.
type ValidationErrors []FieldError

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	if len(ve) == 1 {
		return ve[0].String()
	}
	msgs := make([]string, len(ve))
	for i, fe := range ve {
		msgs[i] = fe.String()
	}
	return fmt.Sprintf("validation failed with %d errors: %s", len(ve), strings.Join(msgs, "; "))
}

// Fields returns the distinct field names that failed, in first-seen order.
func (ve ValidationErrors) Fields() []string {
	seen := make(map[string]bool, len(ve))
	var fields []string
	for _, fe := range ve {
		if !seen[fe.Field] {
			seen[fe.Field] = true
			fields = append(fields, fe.Field)
		}
	}
	return fields
}

// IsValidationError returns true if err is a ValidationErrors.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// GetValidationErrors extracts the violation list from err.
// Returns nil if err is not a ValidationErrors.
func GetValidationErrors(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// =============================================================================
// Lookup errors
// =============================================================================

// LookupError reports an input value missing from a closed derived-lookup
// table. It is fatal for the whole quote because derived values feed every
// downstream phase.
type LookupError struct {
	Field string
	Value string
	Item  int
}

func (e *LookupError) Error() string {
	if e.Item == QuoteLevel {
		return fmt.Sprintf("unknown %s: %q", e.Field, e.Value)
	}
	return fmt.Sprintf("item %d: unknown %s: %q", e.Item+1, e.Field, e.Value)
}

// UnknownKey creates a LookupError for a quote-level field.
func UnknownKey(field, value string) error {
	return &LookupError{Field: field, Value: value, Item: QuoteLevel}
}

// IsLookupError returns true if err is a LookupError.
func IsLookupError(err error) bool {
	var le *LookupError
	return errors.As(err, &le)
}
