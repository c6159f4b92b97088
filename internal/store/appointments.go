package store

import (
	"context"
	"time"

	"clinicdesk/backend/internal/domain"
)

type AddAppointmentInput struct {
	PatientID int64
	DoctorID  int64
	SlotStart string
}

type ListFilter struct {
	Limit      int    // zero or negative means no cap
	DoctorName string // exact-match filter when non-empty
}

// AppointmentRecord is a stored appointment joined with the patient and
// doctor names.
type AppointmentRecord struct {
	ID          int64
	PatientName string
	DoctorName  string
	SlotStart   string
	Status      domain.AppointmentStatus
	CreatedAt   time.Time
}

type AppointmentRepository interface {
	// AddAppointment fails with ErrConflict when the doctor already holds
	// a booked appointment at the slot; the check is atomic with the
	// insert, not a prior read.
	AddAppointment(ctx context.Context, in AddAppointmentInput) (int64, error)

	HasConflict(ctx context.Context, doctorID int64, slotStart string) (bool, error)

	ListAppointments(ctx context.Context, f ListFilter) ([]AppointmentRecord, error)

	// BookedSlots returns the booked slot starts for the named doctor on
	// the calendar day given as 2006-01-02, ascending.
	BookedSlots(ctx context.Context, doctorName, day string) ([]string, error)

	RescheduleAppointment(ctx context.Context, id int64, newSlotStart string) error

	// CancelAppointment fails with ErrNotFound for an unknown id;
	// cancelling an already-cancelled appointment succeeds.
	CancelAppointment(ctx context.Context, id int64) error
}
