package app

import (
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/smart-attendance/attendance/internal/access"
	"github.com/smart-attendance/attendance/internal/attendance"
	"github.com/smart-attendance/attendance/internal/auth"
	"github.com/smart-attendance/attendance/internal/observability"
	"github.com/smart-attendance/attendance/internal/permissions"
	"github.com/smart-attendance/attendance/internal/platform/httpx"
	"github.com/smart-attendance/attendance/internal/users"
	"github.com/smart-attendance/attendance/jobs"
	"github.com/smart-attendance/attendance/web"
)

// loginPage is the entry page served at "/".
const loginPage = "pages/login/index.html"

// RouterParams groups dependencies for building the HTTP router. Nil
// handlers are skipped.
type RouterParams struct {
	Logger    *slog.Logger
	Config    *Config
	Responder *httpx.Responder
	Provider  *auth.Provider
	Metrics   *observability.Metrics

	AuthHandler        *auth.Handler
	PermissionsHandler *permissions.Handler
	UsersHandler       *users.Handler
	AttendanceHandler  *attendance.Handler
	JobHandler         *jobs.Handler

	// ExtraRoutes registers additional endpoints under /api after the
	// built-in handlers.
	ExtraRoutes func(chi.Router)
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:    params.Logger,
		Config:    params.Config,
		Responder: params.Responder,
		Metrics:   params.Metrics,
	}) {
		r.Use(mw)
	}

	// Sub-routers inherit these when mounted, so they are set first.
	r.NotFound(params.Responder.NotFound)
	r.MethodNotAllowed(params.Responder.NotFound)

	r.Route("/api", func(api chi.Router) {
		if params.Provider != nil {
			api.Use(params.Provider.Middleware)
		}
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			httpx.JSON(w, http.StatusOK, healthResponse{Status: "ok", Message: "Backend server is running"})
		})
		if params.AuthHandler != nil {
			params.AuthHandler.MountRoutes(api)
		}
		if params.PermissionsHandler != nil {
			params.PermissionsHandler.MountRoutes(api)
		}
		if params.UsersHandler != nil {
			params.UsersHandler.MountRoutes(api)
		}
		if params.AttendanceHandler != nil {
			params.AttendanceHandler.MountRoutes(api)
		}
		if params.JobHandler != nil {
			api.Route("/jobs", func(jr chi.Router) {
				jr.Use(access.RequireAdmin)
				params.JobHandler.MountRoutes(jr)
			})
		}
		if params.ExtraRoutes != nil {
			params.ExtraRoutes(api)
		}
	})

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
		return r
	}
	assets := staticHandler(staticFS, params.Responder)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFileFS(w, r, staticFS, loginPage)
	})
	r.Get("/pages/*", assets)
	r.Get("/assets/*", assets)

	return r
}

// staticHandler serves embedded files with Cache-Control headers. Missing
// files and bare directories get the JSON not-found envelope like any other
// unmatched route.
func staticHandler(fsys fs.FS, responder *httpx.Responder) http.HandlerFunc {
	fileServer := http.FileServer(http.FS(fsys))
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if strings.HasSuffix(r.URL.Path, "/") {
			name = path.Join(name, "index.html")
		}
		info, err := fs.Stat(fsys, name)
		if err != nil || info.IsDir() {
			responder.NotFound(w, r)
			return
		}
		if strings.HasSuffix(name, ".html") {
			w.Header().Set("Cache-Control", "no-cache")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		}
		fileServer.ServeHTTP(w, r)
	}
}
