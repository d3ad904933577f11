// Package handlers contains the HTTP handlers for the Campaignly web UI.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/campaignly/campaignly/internal/auth"
	"github.com/campaignly/campaignly/internal/config"
	"github.com/campaignly/campaignly/internal/db"
	"github.com/campaignly/campaignly/internal/middleware"
	"github.com/campaignly/campaignly/internal/models"
	"github.com/campaignly/campaignly/internal/repository"
	"github.com/campaignly/campaignly/internal/views"
	"github.com/campaignly/campaignly/internal/workflow"
)

// TestSender delivers one approved email to a single recipient.
type TestSender interface {
	SendTestWithRetry(ctx context.Context, email models.ApprovedEmail, to string) error
}

type Handlers struct {
	cfg       *config.Config
	database  *db.DB
	engine    *workflow.Engine
	auth      *auth.Service
	campaigns *repository.CampaignRepository
	views     *views.Engine
	mailer    TestSender
	logger    *slog.Logger
}

type Config struct {
	Cfg       *config.Config
	Database  *db.DB
	Engine    *workflow.Engine
	Auth      *auth.Service
	Campaigns *repository.CampaignRepository
	Views     *views.Engine
	Mailer    TestSender
	Logger    *slog.Logger
}

func New(c Config) *Handlers {
	return &Handlers{
		cfg:       c.Cfg,
		database:  c.Database,
		engine:    c.Engine,
		auth:      c.Auth,
		campaigns: c.Campaigns,
		views:     c.Views,
		mailer:    c.Mailer,
		logger:    c.Logger,
	}
}

// Health reports liveness, including database reachability
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := h.database.Ping(); err != nil {
		h.logger.Error("health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"degraded","database":"unreachable"}`))
		return
	}
	w.Write([]byte(`{"status":"ok"}`))
}

// Dashboard lists the user's campaigns, newest first
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	campaigns, err := h.campaigns.ListByUser(userID)
	if err != nil {
		h.logger.Error("failed to list campaigns", "user_id", userID, "error", err)
		h.render(w, r, "dashboard", map[string]any{
			"Campaigns": nil,
			"Error":     "Could not load your campaigns right now. Please refresh.",
		})
		return
	}

	h.render(w, r, "dashboard", map[string]any{
		"Campaigns": campaigns,
	})
}

// render executes a page template with the signed-in user's name merged in
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["UserName"]; !ok {
		data["UserName"] = middleware.UserName(r.Context())
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.views.Render(w, name, data); err != nil {
		h.logger.Error("template render failed", "template", name, "error", err)
	}
}

func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	h.render(w, r, "dashboard", map[string]any{"Error": message})
}
