// Package repository defines the persistence contracts used by the service
// layer and the storage-neutral errors every implementation returns.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a write violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

// ErrConditionFailed is returned when a conditional write matched no row
// because the guarded state changed concurrently.
var ErrConditionFailed = errors.New("condition failed")
