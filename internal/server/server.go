package server

import (
	"net/http"
	"time"

	"bankauth/internal/config"
	"bankauth/internal/handler"
	"bankauth/internal/middleware"
	"bankauth/internal/telemetry"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Users is implemented by *service.UserService.
type Users interface {
	handler.UserService
	middleware.TokenVerifier
}

type Server struct {
	App            *chi.Mux
	ServerInstance *http.Server

	cfg   *config.Config
	users Users
}

func New(cfg *config.Config, users Users) *Server {
	r := chi.NewRouter()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s := &Server{
		App:            r,
		ServerInstance: server,
		cfg:            cfg,
		users:          users,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	userHandler := handler.NewUserHandler(s.users, s.cfg.Cookie)

	s.App.Use(chimiddleware.RequestID)
	s.App.Use(middleware.RequestLogger)
	s.App.Use(middleware.Recoverer)
	s.App.Use(telemetry.HTTPMetrics)
	s.App.Use(middleware.CORS(s.cfg.AllowedOrigins))

	s.App.NotFound(userHandler.NotFound)
	s.App.MethodNotAllowed(userHandler.MethodNotAllowed)

	s.App.Get("/health", userHandler.HealthCheck)
	s.App.Handle("/metrics", promhttp.Handler())

	s.App.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", userHandler.Register)
		r.Post("/refresh", userHandler.Refresh)

		r.With(middleware.RateLimitByIP(s.cfg.LoginRateLimit, time.Minute)).
			Post("/login", userHandler.Login)

		r.With(middleware.Authenticate(s.users)).
			Get("/me", userHandler.Me)
	})
}
