package attendance

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/smart-attendance/attendance/internal/access"
	"github.com/smart-attendance/attendance/internal/platform/httpx"
)

// Handler exposes attendance endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, responder *httpx.Responder) *Handler {
	return &Handler{logger: logger, service: service, responder: responder, validator: httpx.NewValidator()}
}

// MountRoutes registers the /attendance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.With(access.RequireLecturer).Get("/", h.responder.Handle(h.list))
		r.With(access.RequireLecturer).Post("/", h.responder.Handle(h.create))
		r.With(access.RequireAuthenticated).Get("/me", h.responder.Handle(h.mine))
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	var filter Filter
	if id := q.Get("student_id"); id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return ErrInvalidFilterID
		}
		filter.StudentID = id
	}
	if raw := q.Get("date"); raw != "" {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			return ErrInvalidDate
		}
		filter.Date = &date
	}
	records, err := h.service.List(r.Context(), filter)
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusOK, "", records)
	return nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) error {
	var body recordRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		return err
	}
	if err := httpx.ValidateStruct(h.validator, body); err != nil {
		return err
	}
	caller := access.IdentityFromContext(r.Context())
	in, err := body.toInput(caller.ID)
	if err != nil {
		return err
	}
	rec, err := h.service.Record(r.Context(), in)
	if err != nil {
		return err
	}
	h.logger.Info("attendance recorded",
		slog.String("record_id", rec.ID),
		slog.String("student_id", rec.StudentID),
		slog.String("recorded_by", rec.RecordedBy))
	httpx.OK(w, http.StatusCreated, "Attendance recorded", rec)
	return nil
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) error {
	records, err := h.service.Mine(r.Context(), access.IdentityFromContext(r.Context()))
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusOK, "", records)
	return nil
}
