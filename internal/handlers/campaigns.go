package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campaignly/campaignly/internal/auth"
	"github.com/campaignly/campaignly/internal/genai"
	"github.com/campaignly/campaignly/internal/metrics"
	"github.com/campaignly/campaignly/internal/middleware"
	"github.com/campaignly/campaignly/internal/models"
	"github.com/campaignly/campaignly/internal/workflow"
)

// CampaignNew renders the campaign brief form
func (h *Handlers) CampaignNew(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "campaign_new", map[string]any{
		"Brief": models.Brief{},
	})
}

// CampaignCreate runs the brief through generation and redirects to the
// review page
func (h *Handlers) CampaignCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "campaign_new", map[string]any{
			"Error": "Invalid form data",
			"Brief": models.Brief{},
		})
		return
	}

	brief := briefFromForm(r)
	userID := middleware.UserID(r.Context())

	start := time.Now()
	state, err := h.engine.Start(r.Context(), userID, brief, nil)
	if err != nil {
		metrics.TrackGeneration("failure", time.Since(start).Seconds())

		var verr *workflow.ValidationError
		message := "Campaign generation failed, please try again"
		switch {
		case errors.As(err, &verr):
			message = verr.Message
		case errors.Is(err, workflow.ErrGenerationCountMismatch):
			message = "The content service returned the wrong number of drafts, please try again"
		default:
			h.logger.Error("campaign generation failed", "user_id", userID, "error", err)
		}

		h.render(w, r, "campaign_new", map[string]any{
			"Error": message,
			"Brief": brief,
		})
		return
	}

	metrics.TrackGeneration("success", time.Since(start).Seconds())
	metrics.IncCampaignsCreated()
	http.Redirect(w, r, "/campaigns/"+state.CampaignID, http.StatusSeeOther)
}

// emailView is the per-email row on the review page.
type emailView struct {
	Number   int
	Subject  string
	Preview  template.HTML
	Approved bool
	Feedback string
}

// CampaignView renders the review page: brief, strategy, drafts, approvals
func (h *Handlers) CampaignView(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	campaignID := chi.URLParam(r, "id")

	details, err := h.engine.Details(r.Context(), userID, campaignID)
	if err != nil {
		h.campaignError(w, r, err)
		return
	}

	state, err := h.engine.State(userID, campaignID)
	if err != nil {
		h.campaignError(w, r, err)
		return
	}

	approved := make(map[int]models.ApprovedEmail, len(details.ApprovedEmails))
	for _, e := range details.ApprovedEmails {
		approved[e.EmailNumber] = e
	}

	var emails []emailView
	numbers := details.Campaign.NumEmails
	if state != nil {
		numbers = state.NumRequested
	}
	for n := 1; n <= numbers; n++ {
		if e, ok := approved[n]; ok {
			emails = append(emails, emailView{
				Number:   n,
				Subject:  e.Subject,
				Preview:  template.HTML(genai.HTMLPreview(e.Content)),
				Approved: true,
				Feedback: e.Feedback,
			})
			continue
		}
		if state != nil {
			if d := state.Draft(n); d != nil {
				emails = append(emails, emailView{
					Number:  n,
					Subject: d.Subject,
					Preview: template.HTML(genai.HTMLPreview(d.Content)),
				})
			}
		}
	}

	data := map[string]any{
		"Campaign": details.Campaign,
		"Strategy": details.Strategy,
		"Emails":   emails,
		"State":    state,
	}
	if state != nil && details.Campaign.Status != models.StatusLaunched {
		data["Launchable"] = state.Launchable()
		data["Remaining"] = state.RemainingMessage()
	}

	h.render(w, r, "campaign_view", data)
}

// ApproveStrategy marks the campaign strategy approved
func (h *Handlers) ApproveStrategy(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	campaignID := chi.URLParam(r, "id")

	if _, err := h.engine.ApproveStrategy(r.Context(), userID, campaignID); err != nil {
		h.campaignError(w, r, err)
		return
	}
	http.Redirect(w, r, "/campaigns/"+campaignID, http.StatusSeeOther)
}

// ApproveEmail approves one draft, with optional feedback
func (h *Handlers) ApproveEmail(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	campaignID := chi.URLParam(r, "id")

	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid email number")
		return
	}

	if _, err := h.engine.ApproveEmail(r.Context(), userID, campaignID, number, r.FormValue("feedback")); err != nil {
		h.campaignError(w, r, err)
		return
	}

	metrics.IncEmailsApproved()
	http.Redirect(w, r, "/campaigns/"+campaignID, http.StatusSeeOther)
}

// EmailFeedback attaches feedback to an approved email
func (h *Handlers) EmailFeedback(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	campaignID := chi.URLParam(r, "id")

	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid email number")
		return
	}

	if err := h.engine.AddFeedback(r.Context(), userID, campaignID, number, r.FormValue("feedback")); err != nil {
		h.campaignError(w, r, err)
		return
	}
	http.Redirect(w, r, "/campaigns/"+campaignID, http.StatusSeeOther)
}

// Launch moves a fully approved campaign to launched
func (h *Handlers) Launch(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	campaignID := chi.URLParam(r, "id")

	if err := h.engine.Launch(r.Context(), userID, campaignID); err != nil {
		h.campaignError(w, r, err)
		return
	}

	metrics.IncCampaignsLaunched()
	http.Redirect(w, r, "/campaigns/"+campaignID, http.StatusSeeOther)
}

// CampaignDelete soft-deletes a campaign
func (h *Handlers) CampaignDelete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	campaignID := chi.URLParam(r, "id")

	if err := h.engine.Delete(r.Context(), userID, campaignID); err != nil {
		h.campaignError(w, r, err)
		return
	}

	metrics.IncCampaignsDeleted()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SendTest delivers one approved email to the given address, defaulting to
// the signed-in user's own
func (h *Handlers) SendTest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	campaignID := chi.URLParam(r, "id")

	if h.mailer == nil {
		h.renderError(w, r, http.StatusNotImplemented, "Test sending is not configured")
		return
	}

	to := strings.TrimSpace(r.FormValue("to"))
	if to == "" {
		to = middleware.UserEmail(r.Context())
	}
	if !auth.ValidEmail(to) {
		h.renderError(w, r, http.StatusBadRequest, "Invalid recipient address")
		return
	}

	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Invalid email number")
		return
	}

	details, err := h.engine.Details(r.Context(), userID, campaignID)
	if err != nil {
		h.campaignError(w, r, err)
		return
	}

	var target *models.ApprovedEmail
	for i := range details.ApprovedEmails {
		if details.ApprovedEmails[i].EmailNumber == number {
			target = &details.ApprovedEmails[i]
			break
		}
	}
	if target == nil {
		h.renderError(w, r, http.StatusBadRequest, "Only approved emails can be test-sent")
		return
	}

	if err := h.mailer.SendTestWithRetry(r.Context(), *target, to); err != nil {
		h.logger.Error("test send failed", "campaign_id", campaignID, "email_number", number, "error", err)
		h.renderError(w, r, http.StatusBadGateway, "Test send failed")
		return
	}

	http.Redirect(w, r, "/campaigns/"+campaignID, http.StatusSeeOther)
}

// campaignError maps engine errors to the right response
func (h *Handlers) campaignError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *workflow.ValidationError
	switch {
	case errors.Is(err, workflow.ErrCampaignNotFound):
		h.renderError(w, r, http.StatusNotFound, "Campaign not found")
	case errors.Is(err, workflow.ErrAccessDenied):
		h.renderError(w, r, http.StatusForbidden, "You do not have access to this campaign")
	case errors.Is(err, workflow.ErrCampaignDeleted):
		h.renderError(w, r, http.StatusGone, "This campaign has been deleted")
	case errors.Is(err, workflow.ErrNotLaunchable):
		h.renderError(w, r, http.StatusConflict, "Not ready to launch: "+err.Error())
	case errors.Is(err, workflow.ErrNoPendingDrafts):
		h.renderError(w, r, http.StatusConflict, "No pending drafts for this campaign, re-generate it first")
	case errors.As(err, &verr):
		h.renderError(w, r, http.StatusBadRequest, verr.Message)
	default:
		h.logger.Error("campaign request failed", "error", err)
		h.renderError(w, r, http.StatusInternalServerError, "Something went wrong")
	}
}

func briefFromForm(r *http.Request) models.Brief {
	timeline, _ := strconv.Atoi(r.FormValue("timeline"))
	numEmails, _ := strconv.Atoi(r.FormValue("num_emails"))
	maxLength, _ := strconv.Atoi(r.FormValue("max_email_length"))
	return models.Brief{
		CampaignName:   r.FormValue("campaign_name"),
		ProductName:    r.FormValue("product_name"),
		TargetAudience: r.FormValue("target_audience"),
		CampaignGoal:   r.FormValue("campaign_goal"),
		Timeline:       timeline,
		NumEmails:      numEmails,
		Frequency:      r.FormValue("frequency"),
		EmailTone:      r.FormValue("email_tone"),
		TemplateStyle:  r.FormValue("template_style"),
		MaxEmailLength: maxLength,
		CTAStyle:       r.FormValue("cta_style"),
		IncludeImages:  r.FormValue("include_images") == "on",
	}
}
