package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidationError rejects a request before any write happens.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError covers missing orders, order items and products.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InsufficientStockError names the product so the boundary layer can
// tell the customer what exactly ran out.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// ConflictError signals a locking/serialization conflict; the caller may
// retry the whole mutation with the same input.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// InternalError wraps an unexpected persistence failure. The transaction
// it came from has been rolled back wholesale.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error in %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }
