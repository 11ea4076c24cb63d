// Package repository wraps the record store behind narrow per-entity
// interfaces. The engines depend on these interfaces only; gorm-backed
// implementations live alongside them and an in-memory implementation
// backs the tests.
package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness
	// constraint. Callers treat it as "someone else already created it".
	ErrDuplicate = errors.New("duplicate record")
)
