package handlers

import (
	"errors"
	"net/http"

	"github.com/campaignly/campaignly/internal/auth"
	"github.com/campaignly/campaignly/internal/metrics"
	"github.com/campaignly/campaignly/internal/middleware"
	"github.com/campaignly/campaignly/internal/repository"
)

// LoginPage renders the login page
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login", nil)
}

// Login handles login form submission
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "login", map[string]any{"Error": "Invalid form data"})
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	session, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		metrics.IncLogins("failure")
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Error("login failed", "error", err)
		}
		h.render(w, r, "login", map[string]any{
			"Error": "Invalid email or password",
			"Email": email,
		})
		return
	}

	metrics.IncLogins("success")
	middleware.SetSession(w, session.Token, h.cfg.Auth.TokenTTL, h.cfg.Server.TLS.Enabled)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RegisterPage renders the registration page
func (h *Handlers) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register", nil)
}

// Register handles registration form submission
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "register", map[string]any{"Error": "Invalid form data"})
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	name := r.FormValue("name")

	if err := h.auth.Register(r.Context(), email, password, name); err != nil {
		message := "Registration failed"
		switch {
		case errors.Is(err, repository.ErrDuplicateUser):
			message = "An account with this email already exists"
		case errors.Is(err, auth.ErrInvalidInput):
			message = err.Error()
		default:
			h.logger.Error("registration failed", "error", err)
		}
		h.render(w, r, "register", map[string]any{
			"Error": message,
			"Email": email,
			"Name":  name,
		})
		return
	}

	metrics.IncRegistrations()

	// Sign the new user in right away
	session, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	middleware.SetSession(w, session.Token, h.cfg.Auth.TokenTTL, h.cfg.Server.TLS.Enabled)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout clears the session cookie
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSession(w)
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}
