package store

import "errors"

var (
	ErrConflict  = errors.New("conflict")
	ErrNotFound  = errors.New("not found")
	ErrEmptyName = errors.New("empty name")
)
