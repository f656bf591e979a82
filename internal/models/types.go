package models

import "errors"

// ErrNotFound is returned when no episode satisfies a query
var ErrNotFound = errors.New("episode not found")

// ErrNotSupported is returned by store operations the underlying
// engine cannot perform natively (see Database.SupportsDistinctYears)
var ErrNotSupported = errors.New("operation not supported by store engine")

// ErrOverlap is returned when an ingested episode overlaps an existing one
var ErrOverlap = errors.New("episode overlaps an existing episode")
