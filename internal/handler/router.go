package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/prepzone/backend/internal/handler/catalog"
	"github.com/zhouzirui/prepzone/backend/internal/handler/session"
	"github.com/zhouzirui/prepzone/backend/internal/handler/stream"
	"github.com/zhouzirui/prepzone/backend/internal/handler/ws"
	"github.com/zhouzirui/prepzone/backend/internal/i18n"
	middlewarePkg "github.com/zhouzirui/prepzone/backend/internal/middleware"
	"github.com/zhouzirui/prepzone/backend/internal/model/game"
	"github.com/zhouzirui/prepzone/backend/internal/service/progression"
	sessionService "github.com/zhouzirui/prepzone/backend/internal/service/session"
	"github.com/zhouzirui/prepzone/backend/pkg/utils"
)

// Deps 路由需要的服务
type Deps struct {
	Categories   game.Store
	Languages    *i18n.Bundle
	Progression  *progression.Store
	Sessions     *sessionService.Service
	DefaultTimer *int
	Heartbeat    time.Duration
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": deps.Sessions.Count(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		catalog.New(deps.Categories, deps.Languages, deps.Progression, deps.DefaultTimer).RegisterRoutes(api)
		session.New(deps.Sessions).RegisterRoutes(api)
		stream.New(deps.Sessions, deps.Heartbeat).RegisterRoutes(api)
		ws.New(deps.Sessions).RegisterRoutes(api)
	})

	return r
}
