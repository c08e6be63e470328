package util

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
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

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// Scan workflow error kinds. Each maps one engine failure mode onto a stable
// code the presentation layer translates into a user-visible message.

func NewDuplicateOrderCode(code string) error {
	return NewDomainError("DUPLICATE_ORDER_CODE", "order code already exists", http.StatusConflict, map[string]any{"code": code})
}

func NewDuplicateBoardInOrder(orderID, boardCode string) error {
	return NewDomainError("DUPLICATE_BOARD_IN_ORDER", "board code already exists in order", http.StatusConflict, map[string]any{"order_id": orderID, "board_code": boardCode})
}

func NewDuplicateBoardScan(boardCode string) error {
	return NewDomainError("DUPLICATE_BOARD_SCAN", "board already has a recorded status", http.StatusConflict, map[string]any{"board_code": boardCode})
}

func NewUnknownBoard(orderID, boardCode string) error {
	return NewDomainError("UNKNOWN_BOARD", "scanned code does not match a board in this order", http.StatusNotFound, map[string]any{"order_id": orderID, "board_code": boardCode})
}

func NewUnexpectedStatusScan(message string) error {
	return NewDomainError("UNEXPECTED_STATUS_SCAN", message, http.StatusConflict, nil)
}

func NewOrderClosed(orderID string) error {
	return NewDomainError("ORDER_CLOSED", "order is closed", http.StatusConflict, map[string]any{"order_id": orderID})
}

func NewConcurrentModification(resource string) error {
	return NewDomainError("CONCURRENT_MODIFICATION", fmt.Sprintf("%s was modified concurrently", resource), http.StatusConflict, nil)
}

func NewEmptyComment() error {
	return NewDomainError("EMPTY_COMMENT", "comment body must not be blank", http.StatusBadRequest, nil)
}

// NewStorageUnavailable marks persistence-layer outages. The only error kind
// a caller may legitimately retry.
func NewStorageUnavailable(err error) error {
	return &DomainError{
		Code:       "STORAGE_UNAVAILABLE",
		Message:    "storage temporarily unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
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
	if errors.Is(err, sql.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		if de, ok := NewStorageUnavailable(err).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
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
