package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"clinicdesk/backend/internal/domain"
	"clinicdesk/backend/internal/store"
)

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

func (r *AppointmentRepo) AddAppointment(ctx context.Context, in store.AddAppointmentInput) (int64, error) {
	m := domain.Appointment{
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		SlotStart: in.SlotStart,
		Status:    domain.AppointmentStatusBooked,
	}

	res, err := r.db.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, store.ErrConflict
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (r *AppointmentRepo) HasConflict(ctx context.Context, doctorID int64, slotStart string) (bool, error) {
	return r.db.NewSelect().
		Model((*domain.Appointment)(nil)).
		Where("a.doctor_id = ?", doctorID).
		Where("a.slot_start = ?", slotStart).
		Where("a.status = ?", domain.AppointmentStatusBooked).
		Exists(ctx)
}

func (r *AppointmentRepo) ListAppointments(ctx context.Context, f store.ListFilter) ([]store.AppointmentRecord, error) {
	var rows []domain.Appointment
	q := r.db.NewSelect().
		Model(&rows).
		Relation("Patient").
		Relation("Doctor").
		Where("a.status = ?", domain.AppointmentStatusBooked).
		OrderExpr("a.slot_start ASC, a.id ASC")

	if f.DoctorName != "" {
		var doc domain.Doctor
		err := r.db.NewSelect().
			Model(&doc).
			Where("name = ?", f.DoctorName).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return []store.AppointmentRecord{}, nil
		}
		if err != nil {
			return nil, err
		}
		q = q.Where("a.doctor_id = ?", doc.ID)
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	out := make([]store.AppointmentRecord, 0, len(rows))
	for _, a := range rows {
		rec := store.AppointmentRecord{
			ID:        a.ID,
			SlotStart: a.SlotStart,
			Status:    a.Status,
			CreatedAt: a.CreatedAt,
		}
		if a.Patient != nil {
			rec.PatientName = a.Patient.Name
		}
		if a.Doctor != nil {
			rec.DoctorName = a.Doctor.Name
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *AppointmentRepo) BookedSlots(ctx context.Context, doctorName, day string) ([]string, error) {
	// slot_start text sorts chronologically, so a day is a plain text range.
	var slots []string
	err := r.db.NewSelect().
		Model((*domain.Appointment)(nil)).
		Column("a.slot_start").
		Join("JOIN doctors AS d ON d.id = a.doctor_id").
		Where("d.name = ?", doctorName).
		Where("a.status = ?", domain.AppointmentStatusBooked).
		Where("a.slot_start >= ?", day+"T00:00:00").
		Where("a.slot_start <= ?", day+"T23:59:59").
		OrderExpr("a.slot_start ASC").
		Scan(ctx, &slots)
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *AppointmentRepo) RescheduleAppointment(ctx context.Context, id int64, newSlotStart string) error {
	res, err := r.db.NewUpdate().
		Model((*domain.Appointment)(nil)).
		Set("slot_start = ?", newSlotStart).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *AppointmentRepo) CancelAppointment(ctx context.Context, id int64) error {
	res, err := r.db.NewUpdate().
		Model((*domain.Appointment)(nil)).
		Set("status = ?", domain.AppointmentStatusCancelled).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
