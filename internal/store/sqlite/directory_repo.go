package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/uptrace/bun"

	"clinicdesk/backend/internal/domain"
	"clinicdesk/backend/internal/store"
)

type DirectoryRepo struct {
	db *bun.DB
}

func NewDirectoryRepo(db *bun.DB) *DirectoryRepo {
	return &DirectoryRepo{db: db}
}

func (r *DirectoryRepo) GetOrCreatePatient(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, store.ErrEmptyName
	}

	var existing domain.Patient
	err := r.db.NewSelect().
		Model(&existing).
		Where("name = ?", name).
		Scan(ctx)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	res, err := r.db.NewInsert().
		Model(&domain.Patient{Name: name}).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a create race; the row exists now.
			return r.lookupPatient(ctx, name)
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (r *DirectoryRepo) GetOrCreateDoctor(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, store.ErrEmptyName
	}

	var existing domain.Doctor
	err := r.db.NewSelect().
		Model(&existing).
		Where("name = ?", name).
		Scan(ctx)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	res, err := r.db.NewInsert().
		Model(&domain.Doctor{Name: name}).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return r.lookupDoctor(ctx, name)
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (r *DirectoryRepo) lookupPatient(ctx context.Context, name string) (int64, error) {
	var p domain.Patient
	if err := r.db.NewSelect().Model(&p).Where("name = ?", name).Scan(ctx); err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (r *DirectoryRepo) lookupDoctor(ctx context.Context, name string) (int64, error) {
	var d domain.Doctor
	if err := r.db.NewSelect().Model(&d).Where("name = ?", name).Scan(ctx); err != nil {
		return 0, err
	}
	return d.ID, nil
}
