package idgen

import "github.com/google/uuid"

// NewFunc generates a new globally unique identifier. It is a variable so
// tests can stub it.
var NewFunc = func() string { return uuid.New().String() }

// New returns a new correlation identifier as string.
func New() string { return NewFunc() }
