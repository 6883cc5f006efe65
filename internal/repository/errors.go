// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values let the handler layer distinguish
// failure scenarios without inspecting SQL errors: ErrForbidden maps to 403,
// ErrConflict to 409, the *NotFound values to 404 and so on.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as deleting a book that still has pending or
// approved requests, or a status transition the lifecycle does not allow.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registration collides with an existing
// account.
var ErrEmailExists = errors.New("email already exists")

// ErrBookNotFound is returned when a book id resolves to no row.
var ErrBookNotFound = errors.New("book not found")

// ErrRequestNotFound is returned when a request id resolves to no row.
var ErrRequestNotFound = errors.New("request not found")

// ErrUserNotFound is returned when an email resolves to no account.
var ErrUserNotFound = errors.New("user not found")

// ErrOutOfStock is returned when an approval would allocate a copy of a
// book whose available count is already zero.
var ErrOutOfStock = errors.New("book is out of stock")

// ErrDuplicateRequest is returned when a user already has a pending request
// for the same book.
var ErrDuplicateRequest = errors.New("pending request for this book already exists")
