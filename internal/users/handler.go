package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smart-attendance/attendance/internal/access"
	"github.com/smart-attendance/attendance/internal/platform/httpx"
)

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, responder *httpx.Responder) *Handler {
	return &Handler{logger: logger, service: service, responder: responder}
}

// MountRoutes registers user routes. All of them are admin only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Use(access.RequireAdmin)
		r.Get("/students", h.responder.Handle(h.listStudents))
		r.Get("/{userId}", h.responder.Handle(h.getUser))
	})
}

type studentList struct {
	Tolerance ToleranceKind `json:"tolerance"`
	Total     int           `json:"total"`
	Students  []Student     `json:"students"`
}

func (h *Handler) listStudents(w http.ResponseWriter, r *http.Request) error {
	kind, err := ParseToleranceKind(r.URL.Query().Get("tolerance"))
	if err != nil {
		return err
	}
	students, err := h.service.ListStudents(r.Context(), kind)
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusOK, "", studentList{Tolerance: kind, Total: len(students), Students: students})
	return nil
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) error {
	profile, err := h.service.GetProfile(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusOK, "", profile)
	return nil
}
