package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeAlreadyExists      = "ALREADY_EXISTS"
	ErrCodeHasRelatedRecords  = "HAS_RELATED_RECORDS"
	ErrCodeInvalidReference   = "INVALID_REFERENCE"
	ErrCodeInvalidUser        = "INVALID_USER"
	ErrCodeEmptyCart          = "EMPTY_CART"
	ErrCodeProductUnavailable = "PRODUCT_UNAVAILABLE"
	ErrCodeInsufficientStock  = "INSUFFICIENT_STOCK"
	ErrCodeAdminOnly          = "ADMIN_ONLY"
	ErrCodeOrderCancelled     = "ORDER_CANCELLED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeLockedOut          = "LOCKED_OUT"
	ErrCodeNotConfirmed       = "NOT_CONFIRMED"
	ErrCodeInvalidToken       = "INVALID_TOKEN"
	ErrCodeMailFailed         = "MAIL_FAILED"
	ErrCodeUnauthorised       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so that sentinels compare equal to
// errors built with the same code and a more specific message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NotFound builds a NOT_FOUND error for the named entity.
func NotFound(entity string) *DomainError {
	return NewDomainError(ErrCodeNotFound, fmt.Sprintf("%s does not exist", entity))
}

// ValidationFailed builds a VALIDATION_FAILED error.
func ValidationFailed(message string) *DomainError {
	return NewDomainError(ErrCodeValidationFailed, message)
}

// AsDomainError unwraps err into a *DomainError if there is one in its chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Common domain errors
var (
	ErrRecordNotFound     = NewDomainError(ErrCodeNotFound, "record not found")
	ErrAlreadyExists      = NewDomainError(ErrCodeAlreadyExists, "a record with the same name already exists")
	ErrHasRelatedRecords  = NewDomainError(ErrCodeHasRelatedRecords, "the record cannot be deleted because it has related records")
	ErrInvalidReference   = NewDomainError(ErrCodeInvalidReference, "referenced record does not exist")
	ErrInvalidUser        = NewDomainError(ErrCodeInvalidUser, "invalid user")
	ErrEmptyCart          = NewDomainError(ErrCodeEmptyCart, "there are no items in the order")
	ErrInvalidQuantity    = NewDomainError(ErrCodeValidationFailed, "quantity must be greater than zero")
	ErrAdminOnly          = NewDomainError(ErrCodeAdminOnly, "only allowed for administrators")
	ErrOrderCancelled     = NewDomainError(ErrCodeOrderCancelled, "the order is already cancelled")
	ErrInvalidCredentials = NewDomainError(ErrCodeInvalidCredentials, "incorrect email or password")
	ErrLockedOut          = NewDomainError(ErrCodeLockedOut, "you have exceeded the maximum number of attempts; your account is locked, try again in 5 minutes")
	ErrNotConfirmed       = NewDomainError(ErrCodeNotConfirmed, "the user has not been enabled; follow the instructions in the email we sent you")
	ErrInvalidToken       = NewDomainError(ErrCodeInvalidToken, "invalid or expired token")
	ErrPasswordMismatch   = NewDomainError(ErrCodeValidationFailed, "password and confirmation do not match")
	ErrUnauthorised       = NewDomainError(ErrCodeUnauthorised, "authentication required")
)

// ProductUnavailable reports a cart line whose product no longer exists.
func ProductUnavailable(productID int) *DomainError {
	return NewDomainError(ErrCodeProductUnavailable, fmt.Sprintf("product %d is no longer available", productID))
}

// InsufficientStock reports a cart line asking for more than is in stock.
func InsufficientStock(productName string) *DomainError {
	return NewDomainError(ErrCodeInsufficientStock,
		fmt.Sprintf("sorry, we do not have enough stock of %s; take a smaller quantity", productName))
}
