package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	AppointmentStatusBooked    AppointmentStatus = "booked"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

type Patient struct {
	bun.BaseModel `bun:"table:patients,alias:p"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
}

type Doctor struct {
	bun.BaseModel `bun:"table:doctors,alias:d"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
}

type Appointment struct {
	bun.BaseModel `bun:"table:appointments,alias:a"`

	ID        int64             `bun:"id,pk,autoincrement"`
	PatientID int64             `bun:"patient_id,notnull"`
	DoctorID  int64             `bun:"doctor_id,notnull"`
	SlotStart string            `bun:"slot_start,notnull"`
	Status    AppointmentStatus `bun:"status,notnull"`
	CreatedAt time.Time         `bun:"created_at,notnull"`

	Patient *Patient `bun:"rel:belongs-to,join:patient_id=id"`
	Doctor  *Doctor  `bun:"rel:belongs-to,join:doctor_id=id"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if a.Status == "" {
			a.Status = AppointmentStatusBooked
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}
