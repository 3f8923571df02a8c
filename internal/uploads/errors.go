package uploads

import "errors"

// ErrInvalidPath is returned when a path is malformed or outside the managed
// upload namespace.
var ErrInvalidPath = errors.New("invalid object path")

// ErrNotRegistered is returned when no policy and no pending grant exist for
// the object, so there is nothing to authorize against.
var ErrNotRegistered = errors.New("upload not registered")

// ErrNotOwner is returned when a policy or grant exists but belongs to a
// different user.
var ErrNotOwner = errors.New("not the upload owner")

// ErrExpired is returned when the pending grant's deadline has passed.
var ErrExpired = errors.New("upload grant expired")

// ErrNotFound is returned when the object is absent in the backing store.
var ErrNotFound = errors.New("object not found")

// ErrAccessDenied is returned when the caller may not read the object.
var ErrAccessDenied = errors.New("access denied")
