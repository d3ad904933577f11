// Package server wires the database, workflow engine, and HTTP routes into a
// runnable web server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campaignly/campaignly/internal/auth"
	"github.com/campaignly/campaignly/internal/config"
	"github.com/campaignly/campaignly/internal/db"
	"github.com/campaignly/campaignly/internal/genai"
	"github.com/campaignly/campaignly/internal/handlers"
	"github.com/campaignly/campaignly/internal/mailer"
	"github.com/campaignly/campaignly/internal/metrics"
	"github.com/campaignly/campaignly/internal/middleware"
	"github.com/campaignly/campaignly/internal/repository"
	"github.com/campaignly/campaignly/internal/views"
	"github.com/campaignly/campaignly/internal/workflow"
)

type Server struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *db.DB
	states *workflow.BoltStore
	http   *http.Server
}

func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := database.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	states, err := workflow.NewBoltStore(cfg.Database.StatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	viewEngine, err := views.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize views: %w", err)
	}

	users := repository.NewUserRepository(database.DB)
	campaigns := repository.NewCampaignRepository(database.DB)
	strategies := repository.NewStrategyRepository(database.DB)
	emails := repository.NewEmailRepository(database.DB)

	tokens := auth.NewTokenService([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
	authSvc := auth.NewService(users, tokens)

	genOpts := []genai.ClientOption{
		genai.WithModel(cfg.GenAI.Model),
		genai.WithTimeout(cfg.GenAI.Timeout),
		genai.WithRateLimit(cfg.GenAI.RatePerSec),
		genai.WithMaxRetries(uint64(cfg.GenAI.MaxRetries)),
	}
	if cfg.GenAI.BaseURL != "" {
		genOpts = append(genOpts, genai.WithBaseURL(cfg.GenAI.BaseURL))
	}
	generator := genai.NewGenerator(genai.NewClient(cfg.GenAI.APIKey, genOpts...))

	engine := workflow.NewEngine(campaigns, strategies, emails, generator, states, logger)

	var testMailer handlers.TestSender
	if cfg.SMTP.Enabled {
		testMailer = mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	}

	if cfg.Metrics.Enabled {
		metrics.SetGlobal(metrics.New())
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		db:     database,
		states: states,
	}

	h := handlers.New(handlers.Config{
		Cfg:       cfg,
		Database:  database,
		Engine:    engine,
		Auth:      authSvc,
		Campaigns: campaigns,
		Views:     viewEngine,
		Mailer:    testMailer,
		Logger:    logger,
	})

	s.http = &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      s.setupRoutes(h, authSvc),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) setupRoutes(h *handlers.Handlers, authSvc *auth.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.Logger(s.logger))
	if s.cfg.Metrics.Enabled {
		r.Use(metrics.HTTPMiddleware)
	}
	r.Use(middleware.MethodOverride)

	r.Get("/health", h.Health)
	if s.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, s.cfg.Metrics.Path,
			promhttp.HandlerFor(metrics.Global().Registry(), promhttp.HandlerOpts{}))
	}

	// Public auth routes
	r.Get("/auth/login", h.LoginPage)
	r.Post("/auth/login", h.Login)
	r.Get("/auth/register", h.RegisterPage)
	r.Post("/auth/register", h.Register)
	r.Get("/auth/logout", h.Logout)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(authSvc, s.logger))

		r.Get("/", h.Dashboard)

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/new", h.CampaignNew)
			r.Post("/", h.CampaignCreate)
			r.Get("/{id}", h.CampaignView)
			r.Delete("/{id}", h.CampaignDelete)
			r.Post("/{id}/strategy/approve", h.ApproveStrategy)
			r.Post("/{id}/emails/{number}/approve", h.ApproveEmail)
			r.Post("/{id}/emails/{number}/feedback", h.EmailFeedback)
			r.Post("/{id}/emails/{number}/test", h.SendTest)
			r.Post("/{id}/launch", h.Launch)
		})
	})

	return r
}

// Run starts the server and blocks until the context is cancelled or the
// listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("starting web server", "addr", s.cfg.Server.ListenAddr)
		if s.cfg.Server.TLS.Enabled {
			errCh <- s.http.ListenAndServeTLS(s.cfg.Server.TLS.CertFile, s.cfg.Server.TLS.KeyFile)
		} else {
			errCh <- s.http.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		s.close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown error", "error", err)
		}
		s.close()
		return nil
	}
}

func (s *Server) close() {
	if err := s.states.Close(); err != nil {
		s.logger.Error("failed to close state store", "error", err)
	}
	if err := s.db.Close(); err != nil {
		s.logger.Error("failed to close database", "error", err)
	}
}
