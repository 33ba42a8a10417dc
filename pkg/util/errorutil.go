package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes for the lifecycle/approval taxonomy.
const (
	CodeIllegalTransition   = "ILLEGAL_TRANSITION"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeNoApproverAvailable = "NO_APPROVER_AVAILABLE"
	CodeInvalidChainState   = "INVALID_CHAIN_STATE"
	CodeNoEstimationPending = "NO_ESTIMATION_PENDING"
	CodeVersionConflict     = "VERSION_CONFLICT"
	CodeConflict            = "CONFLICT"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewUnauthenticated signals a missing or invalid credential.
func NewUnauthenticated(message string) error {
	return NewDomainError("UNAUTHENTICATED", message, http.StatusUnauthorized, nil)
}

// NewUnauthorized signals that the actor is not the current owner or lacks
// the role required for the attempted action.
func NewUnauthorized(message string, details map[string]any) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusForbidden, details)
}

// NewIllegalTransition signals an action that is not valid from the record's
// current state.
func NewIllegalTransition(from, attempted string) error {
	return NewDomainError(CodeIllegalTransition,
		fmt.Sprintf("action %s is not allowed from state %s", attempted, from),
		http.StatusConflict,
		map[string]any{"from": from, "attempted": attempted})
}

// NewInvalidAmount signals a non-positive or malformed monetary amount.
func NewInvalidAmount(message string) error {
	return NewDomainError(CodeInvalidAmount, message, http.StatusBadRequest, nil)
}

// NewNoApproverAvailable signals that no active user holds the required role
// within the ticket's scope. The chain blocks rather than skipping the role.
func NewNoApproverAvailable(role string) error {
	return NewDomainError(CodeNoApproverAvailable,
		fmt.Sprintf("no active user holds role %s for this ticket", role),
		http.StatusConflict,
		map[string]any{"role": role})
}

// NewInvalidChainState signals an internal inconsistency between the recorded
// approver and the amount-derived chain. Treated as a defect.
func NewInvalidChainState(message string) error {
	return NewDomainError(CodeInvalidChainState, message, http.StatusInternalServerError, nil)
}

// NewNoEstimationPending signals an approval decision on a ticket that has no
// active cost estimation.
func NewNoEstimationPending() error {
	return NewDomainError(CodeNoEstimationPending,
		"ticket has no cost estimation awaiting approval",
		http.StatusConflict, nil)
}

// NewVersionConflict signals a lost optimistic-lock race; the caller should
// re-read and retry with fresh state.
func NewVersionConflict(resource string) error {
	return NewDomainError(CodeVersionConflict,
		fmt.Sprintf("%s was modified concurrently", resource),
		http.StatusConflict, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code == code
}
