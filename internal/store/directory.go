package store

import "context"

// DirectoryRepository resolves patient and doctor names to their storage ids,
// creating the row on first use. Names are trimmed before lookup; lookups are
// exact and case-sensitive. An empty name fails with ErrEmptyName.
type DirectoryRepository interface {
	GetOrCreatePatient(ctx context.Context, name string) (int64, error)
	GetOrCreateDoctor(ctx context.Context, name string) (int64, error)
}
