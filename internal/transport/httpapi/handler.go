package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"clinicdesk/backend/internal/domain"
	"clinicdesk/backend/internal/service/scheduling"
)

// schedulingEngine is the slice of the scheduling engine the HTTP surface
// needs. Tests substitute a fake.
type schedulingEngine interface {
	Book(ctx context.Context, in scheduling.BookInput) (int64, error)
	Appointments(ctx context.Context, limit int, doctorFilter string) ([]scheduling.AppointmentView, error)
	Reschedule(ctx context.Context, id int64, date, timeOfDay string) error
	Cancel(ctx context.Context, id int64) error
	AvailableSlots(ctx context.Context, doctor, date string) ([]string, error)
}

type AppointmentsHandler struct {
	svc schedulingEngine
	log *slog.Logger
}

func NewAppointmentsHandler(svc schedulingEngine, log *slog.Logger) *AppointmentsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AppointmentsHandler{
		svc: svc,
		log: log.With(slog.String("component", "httpapi.appointments")),
	}
}

// Routes returns the appointment routes, mounted by the router under the
// versioned API prefix.
func (h *AppointmentsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/appointments", h.Create)
	r.Get("/appointments", h.List)
	r.Patch("/appointments/{id}", h.Reschedule)
	r.Delete("/appointments/{id}", h.Cancel)
	r.Get("/availability", h.Availability)
	return r
}

type bookRequest struct {
	Patient string `json:"patient"`
	Doctor  string `json:"doctor"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

type bookResponse struct {
	ID int64 `json:"id"`
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type appointmentJSON struct {
	ID        int64     `json:"id"`
	Patient   string    `json:"patient"`
	Doctor    string    `json:"doctor"`
	SlotStart string    `json:"slot_start"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type listResponse struct {
	Appointments []appointmentJSON `json:"appointments"`
}

type availabilityResponse struct {
	Doctor string   `json:"doctor"`
	Date   string   `json:"date"`
	Slots  []string `json:"slots"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Create books a new appointment.
// POST /api/v1/appointments
func (h *AppointmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "Create"))

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_json"))
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	id, err := h.svc.Book(r.Context(), scheduling.BookInput{
		Patient: req.Patient,
		Doctor:  req.Doctor,
		Date:    req.Date,
		Time:    req.Time,
	})
	if err != nil {
		var vErr *scheduling.ValidationError
		if errors.As(err, &vErr) {
			log.Warn("invalid request", slog.Any("err", err))
			writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		var cErr *scheduling.ConflictError
		if errors.As(err, &cErr) {
			log.Info(
				"booking conflict",
				slog.String("doctor", req.Doctor),
				slog.String("date", req.Date),
				slog.String("time", req.Time),
			)
			writeError(w, http.StatusConflict, cErr.Error())
			return
		}
		log.Error("appointment create failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Info(
		"appointment booked",
		slog.Int64("appointment_id", id),
		slog.String("doctor", req.Doctor),
		slog.String("date", req.Date),
		slog.String("time", req.Time),
	)
	writeJSON(w, http.StatusCreated, bookResponse{ID: id})
}

// List returns booked appointments ascending by slot start.
// GET /api/v1/appointments?limit=&doctor=
func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "List"))

	var limit int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			log.Warn("invalid request", slog.String("reason", "bad_limit"), slog.String("limit", raw))
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	doctor := r.URL.Query().Get("doctor")

	views, err := h.svc.Appointments(r.Context(), limit, doctor)
	if err != nil {
		var vErr *scheduling.ValidationError
		if errors.As(err, &vErr) {
			log.Warn("invalid request", slog.Any("err", err))
			writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		log.Error("appointments list failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]appointmentJSON, 0, len(views))
	for _, v := range views {
		out = append(out, appointmentJSON{
			ID:        v.ID,
			Patient:   v.PatientName,
			Doctor:    v.DoctorName,
			SlotStart: domain.FormatSlot(v.SlotStart),
			Status:    v.Status,
			CreatedAt: v.CreatedAt,
		})
	}

	log.Debug("appointments listed", slog.Int("count", len(out)), slog.String("doctor", doctor))
	writeJSON(w, http.StatusOK, listResponse{Appointments: out})
}

// Reschedule moves an appointment to a new slot.
// PATCH /api/v1/appointments/{id}
func (h *AppointmentsHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "Reschedule"))

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_id"), slog.String("id", chi.URLParam(r, "id")))
		writeError(w, http.StatusBadRequest, "appointment id must be an integer")
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_json"), slog.Int64("appointment_id", id))
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.svc.Reschedule(r.Context(), id, req.Date, req.Time); err != nil {
		var vErr *scheduling.ValidationError
		if errors.As(err, &vErr) {
			log.Warn("invalid request", slog.Any("err", err), slog.Int64("appointment_id", id))
			writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		var cErr *scheduling.ConflictError
		if errors.As(err, &cErr) {
			log.Info(
				"reschedule conflict",
				slog.Int64("appointment_id", id),
				slog.String("date", req.Date),
				slog.String("time", req.Time),
			)
			writeError(w, http.StatusConflict, cErr.Error())
			return
		}
		log.Error("appointment reschedule failed", slog.Any("err", err), slog.Int64("appointment_id", id))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Info(
		"appointment rescheduled",
		slog.Int64("appointment_id", id),
		slog.String("date", req.Date),
		slog.String("time", req.Time),
	)
	w.WriteHeader(http.StatusNoContent)
}

// Cancel marks an appointment cancelled. Unknown ids still return 204; the
// engine treats cancel as "make sure this is gone".
// DELETE /api/v1/appointments/{id}
func (h *AppointmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "Cancel"))

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_id"), slog.String("id", chi.URLParam(r, "id")))
		writeError(w, http.StatusBadRequest, "appointment id must be an integer")
		return
	}

	if err := h.svc.Cancel(r.Context(), id); err != nil {
		log.Error("appointment cancel failed", slog.Any("err", err), slog.Int64("appointment_id", id))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Info("appointment cancelled", slog.Int64("appointment_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// Availability lists a doctor's free half-hour starts for a day.
// GET /api/v1/availability?doctor=&date=
func (h *AppointmentsHandler) Availability(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("handler", "Availability"))

	doctor := r.URL.Query().Get("doctor")
	date := r.URL.Query().Get("date")

	slots, err := h.svc.AvailableSlots(r.Context(), doctor, date)
	if err != nil {
		var vErr *scheduling.ValidationError
		if errors.As(err, &vErr) {
			log.Warn("invalid request", slog.Any("err", err), slog.String("doctor", doctor), slog.String("date", date))
			writeError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		log.Error("availability lookup failed", slog.Any("err", err), slog.String("doctor", doctor), slog.String("date", date))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Debug("availability listed", slog.String("doctor", doctor), slog.String("date", date), slog.Int("count", len(slots)))
	writeJSON(w, http.StatusOK, availabilityResponse{
		Doctor: doctor,
		Date:   date,
		Slots:  slots,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
