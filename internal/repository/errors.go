// Package repository contains the data access layer, separated from HTTP
// handlers. Sentinel errors let handlers map failures to status codes
// without inspecting driver-specific error strings.
package repository

import "errors"

// ErrEmailExists is returned when a registration collides with the unique
// email index. Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already registered")

// ErrUserNotFound is returned when no user matches the given email or id.
var ErrUserNotFound = errors.New("user not found")

// ErrMapNotFound is returned when a mind map does not exist or belongs to a
// different user. The two cases are indistinguishable on purpose: a caller
// probing foreign ids learns nothing about other users' maps.
var ErrMapNotFound = errors.New("map not found")
