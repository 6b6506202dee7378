package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/smart-attendance/attendance/internal/access"
	"github.com/smart-attendance/attendance/internal/platform/httpx"
)

const loginRateWindow = time.Minute

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	responder  *httpx.Responder
	validator  *validator.Validate
	loginLimit int
}

// NewHandler constructs a Handler instance. loginLimit caps login attempts per
// client address per minute; zero disables the cap.
func NewHandler(logger *slog.Logger, service *Service, responder *httpx.Responder, loginLimit int) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		responder:  responder,
		validator:  httpx.NewValidator(),
		loginLimit: loginLimit,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(gr chi.Router) {
			if h.loginLimit > 0 {
				gr.Use(httprate.Limit(h.loginLimit, loginRateWindow,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
						httpx.Fail(w, http.StatusTooManyRequests, "Too many login attempts, try again later")
					}),
				))
			}
			gr.Post("/login", h.responder.Handle(h.handleLogin))
		})
		r.Group(func(gr chi.Router) {
			gr.Use(access.RequireAuthenticated)
			gr.Post("/logout", h.responder.Handle(h.handleLogout))
			gr.Get("/me", h.responder.Handle(h.handleMe))
		})
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return err
	}
	if err := httpx.ValidateStruct(h.validator, req); err != nil {
		return err
	}
	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.logger.Info("user signed in", slog.String("user_id", result.User.ID), slog.String("role", string(result.User.Role)))
	httpx.OK(w, http.StatusOK, "Login successful", result)
	return nil
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) error {
	if err := h.service.Logout(r.Context(), ClaimsFromContext(r.Context())); err != nil {
		return err
	}
	httpx.OK(w, http.StatusOK, "Logout successful", nil)
	return nil
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) error {
	user, err := h.service.Me(r.Context(), access.IdentityFromContext(r.Context()))
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusOK, "", user)
	return nil
}
