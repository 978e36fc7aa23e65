package errors

import "errors"

// ErrMissing: requested record does not exist.
var ErrMissing = errors.New("missing data")

// ErrTooMuch: a query expecting at most N rows found more.
var ErrTooMuch = errors.New("too much data")

// ErrConflict: the write collides with an existing record
// (unique key, duplicated follow, doubled meal plan slot).
var ErrConflict = errors.New("conflicting data")

// ErrForbidden: the record exists but does not belong to the
// requesting user.
var ErrForbidden = errors.New("forbidden")
