// Package repository implements the data access layer on top of
// database/sql. Sentinel errors let handlers map failure scenarios to HTTP
// statuses without inspecting driver error strings.
package repository

import "errors"

// ErrInvalidPassword is returned by UpdatePassword when the supplied
// current password does not match the stored hash.
var ErrInvalidPassword = errors.New("invalid password")
