package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicdesk/backend/internal/service/scheduling"
)

type fakeEngine struct {
	bookFn           func(ctx context.Context, in scheduling.BookInput) (int64, error)
	appointmentsFn   func(ctx context.Context, limit int, doctorFilter string) ([]scheduling.AppointmentView, error)
	rescheduleFn     func(ctx context.Context, id int64, date, timeOfDay string) error
	cancelFn         func(ctx context.Context, id int64) error
	availableSlotsFn func(ctx context.Context, doctor, date string) ([]string, error)
}

func (f *fakeEngine) Book(ctx context.Context, in scheduling.BookInput) (int64, error) {
	if f.bookFn == nil {
		panic("unexpected Book call")
	}
	return f.bookFn(ctx, in)
}

func (f *fakeEngine) Appointments(ctx context.Context, limit int, doctorFilter string) ([]scheduling.AppointmentView, error) {
	if f.appointmentsFn == nil {
		panic("unexpected Appointments call")
	}
	return f.appointmentsFn(ctx, limit, doctorFilter)
}

func (f *fakeEngine) Reschedule(ctx context.Context, id int64, date, timeOfDay string) error {
	if f.rescheduleFn == nil {
		panic("unexpected Reschedule call")
	}
	return f.rescheduleFn(ctx, id, date, timeOfDay)
}

func (f *fakeEngine) Cancel(ctx context.Context, id int64) error {
	if f.cancelFn == nil {
		panic("unexpected Cancel call")
	}
	return f.cancelFn(ctx, id)
}

func (f *fakeEngine) AvailableSlots(ctx context.Context, doctor, date string) ([]string, error) {
	if f.availableSlotsFn == nil {
		panic("unexpected AvailableSlots call")
	}
	return f.availableSlotsFn(ctx, doctor, date)
}

func newTestRouter(eng schedulingEngine) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(RouterConfig{
		Appointments: NewAppointmentsHandler(eng, log),
		Log:          log,
		Metrics:      NewMetrics(),
	})
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateAppointment_Created(t *testing.T) {
	var got scheduling.BookInput
	eng := &fakeEngine{
		bookFn: func(ctx context.Context, in scheduling.BookInput) (int64, error) {
			got = in
			return 42, nil
		},
	}

	rec := doRequest(t, newTestRouter(eng), http.MethodPost, "/api/v1/appointments",
		`{"patient":"Alice","doctor":"Dr. Smith","date":"2030-01-07","time":"10:00"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":42}`, rec.Body.String())
	assert.Equal(t, scheduling.BookInput{
		Patient: "Alice", Doctor: "Dr. Smith", Date: "2030-01-07", Time: "10:00",
	}, got)
}

func TestCreateAppointment_RejectsBadJSON(t *testing.T) {
	rec := doRequest(t, newTestRouter(&fakeEngine{}), http.MethodPost, "/api/v1/appointments", `{"patient":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid JSON body"}`, rec.Body.String())
}

func TestCreateAppointment_MapsValidationError(t *testing.T) {
	eng := &fakeEngine{
		bookFn: func(ctx context.Context, in scheduling.BookInput) (int64, error) {
			return 0, &scheduling.ValidationError{}
		},
	}

	rec := doRequest(t, newTestRouter(eng), http.MethodPost, "/api/v1/appointments",
		`{"patient":"Alice","doctor":"Dr. Smith","date":"bogus","time":"10:00"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAppointment_MapsConflict(t *testing.T) {
	eng := &fakeEngine{
		bookFn: func(ctx context.Context, in scheduling.BookInput) (int64, error) {
			return 0, &scheduling.ConflictError{}
		},
	}

	rec := doRequest(t, newTestRouter(eng), http.MethodPost, "/api/v1/appointments",
		`{"patient":"Bob","doctor":"Dr. Smith","date":"2030-01-07","time":"10:00"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateAppointment_HidesStorageErrors(t *testing.T) {
	eng := &fakeEngine{
		bookFn: func(ctx context.Context, in scheduling.BookInput) (int64, error) {
			return 0, &scheduling.StorageError{Op: "add appointment", Err: errors.New("disk full")}
		},
	}

	rec := doRequest(t, newTestRouter(eng), http.MethodPost, "/api/v1/appointments",
		`{"patient":"Alice","doctor":"Dr. Smith","date":"2030-01-07","time":"10:00"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "disk full")
}

func TestListAppointments_ReturnsViews(t *testing.T) {
	var gotLimit int
	var gotDoctor string
	eng := &fakeEngine{
		appointmentsFn: func(ctx context.Context, limit int, doctorFilter string) ([]scheduling.AppointmentView, error) {
			gotLimit = limit
			gotDoctor = doctorFilter
			return []scheduling.AppointmentView{
				{
					ID:          1,
					PatientName: "Alice",
					DoctorName:  "Dr. Smith",
					SlotStart:   time.Date(2030, 1, 7, 10, 0, 0, 0, time.Local),
					Status:      "booked",
					CreatedAt:   time.Date(2030, 1, 2, 8, 30, 0, 0, time.UTC),
				},
			}, nil
		},
	}

	rec := doRequest(t, newTestRouter(eng), http.MethodGet, "/api/v1/appointments?limit=5&doctor=Dr.+Smith", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, gotLimit)
	assert.Equal(t, "Dr. Smith", gotDoctor)

	var resp listResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Appointments, 1)
	assert.Equal(t, int64(1), resp.Appointments[0].ID)
	assert.Equal(t, "Alice", resp.Appointments[0].Patient)
	assert.Equal(t, "Dr. Smith", resp.Appointments[0].Doctor)
	assert.Equal(t, "2030-01-07T10:00:00", resp.Appointments[0].SlotStart)
	assert.Equal(t, "booked", resp.Appointments[0].Status)
}

func TestListAppointments_EmptyIsArrayNotNull(t *testing.T) {
	eng := &fakeEngine{
		appointmentsFn: func(ctx context.Context, limit int, doctorFilter string) ([]scheduling.AppointmentView, error) {
			return nil, nil
		},
	}

	rec := doRequest(t, newTestRouter(eng), http.MethodGet, "/api/v1/appointments", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"appointments":[]}`, rec.Body.String())
}

func TestListAppointments_RejectsBadLimit(t *testing.T) {
	// appointmentsFn stays unset: a bad limit must never reach the engine.
	rec := doRequest(t, newTestRouter(&fakeEngine{}), http.MethodGet, "/api/v1/appointments?limit=lots", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"limit must be an integer"}`, rec.Body.String())
}

func TestRescheduleAppointment_NoContent(t *testing.T) {
	var gotID int64
	var gotDate, gotTime string
	eng := &fakeEngine{
		rescheduleFn: func(ctx context.Context, id int64, date, timeOfDay string) error {
			gotID, gotDate, gotTime = id, date, timeOfDay
			return nil
		},
	}

	rec := doRequest(t, newTestRouter(eng), http.MethodPatch, "/api/v1/appointments/7",
		`{"date":"2030-01-07","time":"10:30"}`)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, int64(7), gotID)
	assert.Equal(t, "2030-01-07", gotDate)
	assert.Equal(t, "10:30", gotTime)
}

func TestRescheduleAppointment_RejectsNonIntegerID(t *testing.T) {
	rec := doRequest(t, newTestRouter(&fakeEngine{}), http.MethodPatch, "/api/v1/appointments/abc",
		`{"date":"2030-01-07","time":"10:30"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"appointment id must be an integer"}`, rec.Body.String())
}

func TestRescheduleAppointment_MapsConflict(t *testing.T) {
	eng := &fakeEngine{
		rescheduleFn: func(ctx context.Context, id int64, date, timeOfDay string) error {
			return &scheduling.ConflictError{}
		},
	}

	rec := doRequest(t, newTestRouter(eng), http.MethodPatch, "/api/v1/appointments/7",
		`{"date":"2030-01-07","time":"10:30"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRescheduleAppointment_MapsValidationError(t *testing.T) {
	eng := &fakeEngine{
		rescheduleFn: func(ctx context.Context, id int64, date, timeOfDay string) error {
			return &scheduling.ValidationError{}
		},
	}

	rec := doRequest(t, newTestRouter(eng), http.MethodPatch, "/api/v1/appointments/9999",
		`{"date":"2030-01-07","time":"10:30"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelAppointment_NoContent(t *testing.T) {
	var gotID int64
	eng := &fakeEngine{
		cancelFn: func(ctx context.Context, id int64) error {
			gotID = id
			return nil
		},
	}

	rec := doRequest(t, newTestRouter(eng), http.MethodDelete, "/api/v1/appointments/3", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(3), gotID)
}

func TestCancelAppointment_RejectsNonIntegerID(t *testing.T) {
	rec := doRequest(t, newTestRouter(&fakeEngine{}), http.MethodDelete, "/api/v1/appointments/three", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelAppointment_HidesStorageErrors(t *testing.T) {
	eng := &fakeEngine{
		cancelFn: func(ctx context.Context, id int64) error {
			return &scheduling.StorageError{Op: "cancel appointment", Err: errors.New("io timeout")}
		},
	}

	rec := doRequest(t, newTestRouter(eng), http.MethodDelete, "/api/v1/appointments/3", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}

func TestAvailability_ReturnsSlots(t *testing.T) {
	eng := &fakeEngine{
		availableSlotsFn: func(ctx context.Context, doctor, date string) ([]string, error) {
			assert.Equal(t, "Dr. Smith", doctor)
			assert.Equal(t, "2030-01-07", date)
			return []string{"09:00", "12:30"}, nil
		},
	}

	rec := doRequest(t, newTestRouter(eng), http.MethodGet, "/api/v1/availability?doctor=Dr.+Smith&date=2030-01-07", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"doctor":"Dr. Smith","date":"2030-01-07","slots":["09:00","12:30"]}`, rec.Body.String())
}

func TestAvailability_MapsValidationError(t *testing.T) {
	eng := &fakeEngine{
		availableSlotsFn: func(ctx context.Context, doctor, date string) ([]string, error) {
			return nil, &scheduling.ValidationError{}
		},
	}

	rec := doRequest(t, newTestRouter(eng), http.MethodGet, "/api/v1/availability?date=2030-01-07", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
