package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/watchtowerhq/watchtower/internal/config"
	"github.com/watchtowerhq/watchtower/internal/queue"
	"github.com/watchtowerhq/watchtower/internal/scheduler"
	"github.com/watchtowerhq/watchtower/internal/store"
	"github.com/watchtowerhq/watchtower/internal/websocket"
)

// Stores bundles the persistence interfaces the handlers depend on.
type Stores struct {
	Users    store.UserStore
	Websites store.WebsiteStore
	Checks   store.CheckStore
}

// NewRouter creates a new HTTP router
func NewRouter(cfg *config.Config, stores Stores, sched *scheduler.Scheduler, emails queue.EmailQueue, hub *websocket.Hub) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	apiLimiter := NewRateLimiter(rate.Limit(20), 40)
	apiLimiter.CleanupOldLimiters()
	authLimiter := NewRateLimiter(rate.Limit(1), 5)
	authLimiter.CleanupOldLimiters()

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimitMiddleware(apiLimiter))

		// Auth routes
		r.Group(func(r chi.Router) {
			r.Use(StrictRateLimitMiddleware(authLimiter))
			r.Post("/users/register", HandleRegister(stores.Users, cfg.JWTSecret))
			r.Post("/users/login", HandleLogin(stores.Users, cfg.JWTSecret))
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.JWTSecret, stores.Users))

			r.Get("/users/me", HandleGetCurrentUser())

			// Website routes
			r.Post("/websites", HandleCreateWebsite(stores.Websites))
			r.Get("/websites", HandleGetWebsites(stores.Websites))
			r.Get("/websites/{id}", HandleGetWebsite(stores.Websites))
			r.Put("/websites/{id}", HandleUpdateWebsite(stores.Websites))
			r.Delete("/websites/{id}", HandleDeleteWebsite(stores.Websites, stores.Checks, sched))

			// Monitoring + check routes
			r.Post("/checks/start", HandleStartMonitoring(stores.Websites, sched, emails, cfg))
			r.Post("/checks/stop", HandleStopMonitoring(stores.Websites, sched, emails))
			r.Get("/checks/metrics", HandleGetUserMetrics(stores.Checks))
			r.Get("/checks/{websitename}", HandleGetChecks(stores.Websites, stores.Checks))
			r.Get("/checks/{websitename}/latest", HandleGetLatestCheck(stores.Websites, stores.Checks))
			r.Get("/checks/{websitename}/uptime", HandleGetUptime(stores.Websites, stores.Checks))
			r.Delete("/checks/{websitename}", HandleDeleteChecks(stores.Websites, stores.Checks))
		})
	})

	// WebSocket endpoint
	r.Get("/ws", hub.HandleWebSocket)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
