package api

import (
	"codereview-backend/internal/config"
	"codereview-backend/internal/handlers"
	"codereview-backend/internal/metrics"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler                  *handlers.AuthHandler
	ConfiguredIntegrationHandler *handlers.ConfiguredIntegrationHandler
	IntegrationHandler           *handlers.IntegrationHandler
	ReviewEventHandler           *handlers.ReviewEventHandler
	MetricsRegistry              *prometheus.Registry
	Config                       *config.Config
	Logger                       *zap.Logger
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)                 // Inject request ID into context
	r.Use(middleware.RealIP)                    // Use X-Forwarded-For or X-Real-IP
	r.Use(RequestLogger(logger))                // Structured request log
	r.Use(middleware.Recoverer)                 // Recover from panics, return 500
	r.Use(middleware.Timeout(60 * time.Second)) // Set a request timeout

	// --- CORS Configuration ---
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// --- Public Routes (No JWT Required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if deps.MetricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsRegistry))
	}

	r.Route("/v1/auth", func(r chi.Router) {
		if deps.AuthHandler == nil {
			panic("AuthHandler dependency is nil in router setup")
		}
		r.Post("/signup", deps.AuthHandler.HandleSignup)
		r.Post("/login", deps.AuthHandler.HandleLogin)
	})

	// --- Authenticated Routes (JWT Required) ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(JwtAuthMiddleware(deps.Config.JWTSecret, logger))

		// --- Mount Configured Integration Routes ---
		if deps.ConfiguredIntegrationHandler != nil {
			r.Route("/configured-integrations", func(r chi.Router) {
				r.Get("/", deps.ConfiguredIntegrationHandler.HandleListConfiguredIntegrations)
				r.Post("/", deps.ConfiguredIntegrationHandler.HandleCreateConfiguredIntegration)
				r.Get("/{configID}", deps.ConfiguredIntegrationHandler.HandleGetConfiguredIntegration)
				r.Put("/{configID}", deps.ConfiguredIntegrationHandler.HandleUpdateConfiguredIntegration)
				r.Delete("/{configID}", deps.ConfiguredIntegrationHandler.HandleDeleteConfiguredIntegration)
				r.Post("/{configID}/test", deps.ConfiguredIntegrationHandler.HandleTestConfiguredIntegration)
			})
		} else {
			logger.Warn("[Router] ConfiguredIntegrationHandler dependency is nil, skipping /v1/configured-integrations routes")
		}

		// --- Mount Integration and Hook Routes ---
		if deps.IntegrationHandler != nil {
			r.Get("/integrations", deps.IntegrationHandler.HandleListIntegrations)
			r.Get("/capabilities", deps.IntegrationHandler.HandleCapabilities)
			r.Get("/hosting-services", deps.IntegrationHandler.HandleListHostingServices)
			r.Get("/hook-points/{point}", deps.IntegrationHandler.HandleRenderHookPoint)
		} else {
			logger.Warn("[Router] IntegrationHandler dependency is nil, skipping /v1/integrations routes")
		}

		// --- Mount Review Event Routes ---
		if deps.ReviewEventHandler != nil {
			r.Post("/review-events", deps.ReviewEventHandler.HandleReviewEvent)
		} else {
			logger.Warn("[Router] ReviewEventHandler dependency is nil, skipping /v1/review-events routes")
		}
	})

	return r
}
