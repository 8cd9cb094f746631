package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"loyaltypush/internal/handler"
	"loyaltypush/internal/httputil"
	authmw "loyaltypush/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	DeviceHandler       *handler.DeviceHandler
	NotificationHandler *handler.NotificationHandler
	AppStateHandler     *handler.AppStateHandler
	JWTSecret           string
}

// NewRouter creates the chi router. Everything except /health requires a JWT.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Post("/devices/token", cfg.DeviceHandler.RegisterToken)
		r.Delete("/devices/token", cfg.DeviceHandler.RemoveToken)

		r.Route("/chats/{chatID}", func(r chi.Router) {
			r.Post("/notify", cfg.NotificationHandler.Notify)
			r.Post("/notifications/archive", cfg.NotificationHandler.Archive)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationHandler.List)
			r.Post("/schedule", cfg.NotificationHandler.Schedule)
		})

		r.Route("/state", func(r chi.Router) {
			r.Get("/", cfg.AppStateHandler.Get)
			r.Put("/language", cfg.AppStateHandler.SetLanguage)
			r.Post("/theme/toggle", cfg.AppStateHandler.ToggleTheme)
			r.Put("/points", cfg.AppStateHandler.UpdatePoints)
		})
	})

	return r
}
