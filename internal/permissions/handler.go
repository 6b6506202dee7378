package permissions

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/smart-attendance/attendance/internal/access"
	"github.com/smart-attendance/attendance/internal/platform/httpx"
)

// Rules declares the requirement guarding each permissions endpoint.
type Rules struct {
	List   access.Requirement
	Detail access.Requirement
	Review access.Requirement
}

// DefaultRules lets any signed-in user read and admins review.
func DefaultRules() Rules {
	return Rules{
		List:   access.AnyAuthenticated,
		Detail: access.AnyAuthenticated,
		Review: access.RequireTier(access.TierAdmin),
	}
}

type permissionList struct {
	Permissions []Request `json:"permissions"`
}

// Handler exposes permission request endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
	validator *validator.Validate
	rules     Rules
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, responder *httpx.Responder, rules Rules) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		responder: responder,
		validator: httpx.NewValidator(),
		rules:     rules,
	}
}

// MountRoutes registers the /permissions routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/permissions", func(r chi.Router) {
		r.With(access.Require(h.rules.List)).Get("/", h.responder.Handle(h.list))
		r.With(access.RequireRole(access.TierStudent)).Post("/", h.responder.Handle(h.create))
		r.With(access.Require(h.rules.Detail)).Get("/{permissionId}", h.responder.Handle(h.detail))
		r.With(access.Require(h.rules.Review)).Patch("/{permissionId}/status", h.responder.Handle(h.updateStatus))
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) error {
	status, err := ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		return err
	}
	items, err := h.service.List(r.Context(), access.IdentityFromContext(r.Context()), Filter{Status: status})
	if err != nil {
		return err
	}
	if items == nil {
		items = []Request{}
	}
	httpx.OK(w, http.StatusOK, "", permissionList{Permissions: items})
	return nil
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) error {
	item, err := h.service.Get(r.Context(), access.IdentityFromContext(r.Context()), chi.URLParam(r, "permissionId"))
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusOK, "", item)
	return nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) error {
	var body createRequest
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
	item, err := h.service.Create(r.Context(), in)
	if err != nil {
		return err
	}
	httpx.OK(w, http.StatusCreated, "Permission request submitted", item)
	return nil
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) error {
	var body statusRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		return err
	}
	caller := access.IdentityFromContext(r.Context())
	if caller == nil {
		return httpx.Unauthenticated(access.MessageAuthenticationRequired)
	}
	item, err := h.service.UpdateStatus(r.Context(), *caller, chi.URLParam(r, "permissionId"), Status(body.Status), body.AdminID)
	if err != nil {
		return err
	}
	h.logger.Info("permission reviewed",
		slog.String("permission_id", item.ID),
		slog.String("status", string(item.Status)),
		slog.String("reviewer_id", caller.ID))
	httpx.OK(w, http.StatusOK, "Permission request "+string(item.Status), item)
	return nil
}
