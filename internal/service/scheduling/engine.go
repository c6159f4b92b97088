package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinicdesk/backend/internal/domain"
	"clinicdesk/backend/internal/store"
)

// DefaultListLimit caps Appointments when the caller passes no limit.
const DefaultListLimit = 100

// BusinessHours is the daily booking window [OpenHour, CloseHour). With the
// half-hour grid the last bookable start is CloseHour-1:30.
type BusinessHours struct {
	OpenHour  int
	CloseHour int
}

// Engine is the business-rule authority. It validates raw user input,
// resolves names to storage ids and translates every store failure into one
// of *ValidationError, *ConflictError or *StorageError; no raw store error
// ever leaves this package.
//
// The engine holds no locks. The conflict pre-check is advisory; the storage
// layer's unique index is what actually closes booking races.
type Engine struct {
	directory    store.DirectoryRepository
	appointments store.AppointmentRepository
	hours        BusinessHours
	now          func() time.Time
}

type Option func(*Engine)

// WithClock replaces the wall clock used for the past-slot check. Tests pin
// a fixed time through this.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func WithBusinessHours(hours BusinessHours) Option {
	return func(e *Engine) {
		e.hours = hours
	}
}

func NewEngine(directory store.DirectoryRepository, appointments store.AppointmentRepository, opts ...Option) *Engine {
	e := &Engine{
		directory:    directory,
		appointments: appointments,
		hours:        BusinessHours{OpenHour: 9, CloseHour: 17},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type BookInput struct {
	Patient string
	Doctor  string
	Date    string
	Time    string
}

// AppointmentView is the engine-level shape of a stored appointment,
// decoupling callers from the store's row layout.
type AppointmentView struct {
	ID          int64
	PatientName string
	DoctorName  string
	SlotStart   time.Time
	Status      string
	CreatedAt   time.Time
}

// Book validates the request, lazily creates the patient and doctor rows and
// inserts the appointment. Returns the new appointment id.
func (e *Engine) Book(ctx context.Context, in BookInput) (int64, error) {
	patient := strings.TrimSpace(in.Patient)
	doctor := strings.TrimSpace(in.Doctor)
	if patient == "" || doctor == "" {
		return 0, validationError("Patient and Doctor names must be provided.")
	}

	slot, err := e.validateSlot(in.Date, in.Time)
	if err != nil {
		return 0, err
	}

	patientID, err := e.directory.GetOrCreatePatient(ctx, patient)
	if err != nil {
		if errors.Is(err, store.ErrEmptyName) {
			return 0, validationError("Patient and Doctor names must be provided.")
		}
		return 0, storageError("resolve patient", err)
	}
	doctorID, err := e.directory.GetOrCreateDoctor(ctx, doctor)
	if err != nil {
		if errors.Is(err, store.ErrEmptyName) {
			return 0, validationError("Patient and Doctor names must be provided.")
		}
		return 0, storageError("resolve doctor", err)
	}

	slotText := domain.FormatSlot(slot)

	// Advisory pre-check for the friendlier fast path; a concurrent booking
	// can still land between here and the insert, so the insert's constraint
	// stays authoritative.
	conflict, err := e.appointments.HasConflict(ctx, doctorID, slotText)
	if err != nil {
		return 0, storageError("check conflict", err)
	}
	if conflict {
		return 0, conflictError("Doctor already booked at that time.")
	}

	id, err := e.appointments.AddAppointment(ctx, store.AddAppointmentInput{
		PatientID: patientID,
		DoctorID:  doctorID,
		SlotStart: slotText,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return 0, conflictError("Doctor already booked at that time.")
		}
		return 0, storageError("add appointment", err)
	}
	return id, nil
}

// Appointments returns booked appointments ascending by slot start. A limit
// of zero or less falls back to DefaultListLimit.
func (e *Engine) Appointments(ctx context.Context, limit int, doctorFilter string) ([]AppointmentView, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	records, err := e.appointments.ListAppointments(ctx, store.ListFilter{
		Limit:      limit,
		DoctorName: strings.TrimSpace(doctorFilter),
	})
	if err != nil {
		return nil, storageError("list appointments", err)
	}

	out := make([]AppointmentView, 0, len(records))
	for _, rec := range records {
		slot, err := domain.ParseSlot(rec.SlotStart)
		if err != nil {
			return nil, storageError("decode slot", fmt.Errorf("appointment %d: %w", rec.ID, err))
		}
		out = append(out, AppointmentView{
			ID:          rec.ID,
			PatientName: rec.PatientName,
			DoctorName:  rec.DoctorName,
			SlotStart:   slot,
			Status:      string(rec.Status),
			CreatedAt:   rec.CreatedAt,
		})
	}
	return out, nil
}

// Reschedule moves an existing appointment to a new slot after running the
// same validation as Book against the target.
func (e *Engine) Reschedule(ctx context.Context, id int64, date, timeOfDay string) error {
	slot, err := e.validateSlot(date, timeOfDay)
	if err != nil {
		return err
	}

	err = e.appointments.RescheduleAppointment(ctx, id, domain.FormatSlot(slot))
	switch {
	case errors.Is(err, store.ErrConflict):
		return conflictError("Doctor already booked at that time.")
	case errors.Is(err, store.ErrNotFound):
		return validationError("Appointment not found.")
	case err != nil:
		return storageError("reschedule appointment", err)
	}
	return nil
}

// Cancel marks the appointment cancelled. Cancelling an unknown or
// already-cancelled id is a no-op: the desk tool treats "make sure this is
// gone" as already satisfied.
func (e *Engine) Cancel(ctx context.Context, id int64) error {
	err := e.appointments.CancelAppointment(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return storageError("cancel appointment", err)
	}
	return nil
}

// AvailableSlots returns the free half-hour starts ("HH:MM", ascending) for
// the doctor on the given day: the business-window grid minus booked slots
// minus anything not strictly in the future. A doctor with no bookings gets
// the full remaining grid.
func (e *Engine) AvailableSlots(ctx context.Context, doctor, date string) ([]string, error) {
	doctor = strings.TrimSpace(doctor)
	if doctor == "" {
		return nil, validationError("Doctor name must be provided.")
	}
	day, err := time.ParseInLocation(domain.DayLayout, strings.TrimSpace(date), time.Local)
	if err != nil {
		return nil, validationError("Invalid date format. Use YYYY-MM-DD.")
	}

	booked, err := e.appointments.BookedSlots(ctx, doctor, day.Format(domain.DayLayout))
	if err != nil {
		return nil, storageError("list booked slots", err)
	}
	taken := make(map[string]struct{}, len(booked))
	for _, s := range booked {
		taken[s] = struct{}{}
	}

	now := e.now()
	slots := domain.DaySlots(day, e.hours.OpenHour, e.hours.CloseHour)
	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		if !slot.After(now) {
			continue
		}
		if _, ok := taken[domain.FormatSlot(slot)]; ok {
			continue
		}
		out = append(out, slot.Format(domain.TimeLayout))
	}
	return out, nil
}

// validateSlot turns user-entered date and time text into a slot start,
// enforcing the half-hour grid, the business window and the no-past rule.
// Inputs parse in time.Local: the clinic runs on local wall-clock time.
func (e *Engine) validateSlot(date, timeOfDay string) (time.Time, error) {
	slot, err := time.ParseInLocation(
		domain.DayLayout+"T"+domain.TimeLayout,
		strings.TrimSpace(date)+"T"+strings.TrimSpace(timeOfDay),
		time.Local,
	)
	if err != nil {
		return time.Time{}, validationError("Invalid date or time format. Use YYYY-MM-DD and HH:MM.")
	}

	if slot.Minute() != 0 && slot.Minute() != 30 {
		return time.Time{}, validationError("Appointments must be on 30-minute boundaries (0 or 30).")
	}
	if slot.Hour() < e.hours.OpenHour || slot.Hour() >= e.hours.CloseHour {
		return time.Time{}, validationError(fmt.Sprintf(
			"Appointment must be during working hours (%d:00-%d:00).", e.hours.OpenHour, e.hours.CloseHour,
		))
	}
	if !slot.After(e.now()) {
		return time.Time{}, validationError("Cannot book an appointment in the past. Please select a future date and time.")
	}
	return slot, nil
}
