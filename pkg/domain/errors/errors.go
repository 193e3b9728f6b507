package errors

import "errors"

// requested entity is not found in the store.
var ErrMissing = errors.New("missing")

// requested entity is found more times than expected.
var ErrTooMuch = errors.New("too much")
