// Package workflow implements the per-campaign state machine: brief
// submission, content generation, the strategy and per-email approval gates,
// and the launch transition, with soft delete as a parallel terminal state.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campaignly/campaignly/internal/models"
)

// ProgressFunc receives a human-readable progress line before each major
// generation step.
type ProgressFunc func(message string)

// CampaignStore is the campaign-store surface the engine needs.
type CampaignStore interface {
	Upsert(c *models.Campaign) (string, error)
	GetByID(id string) (*models.Campaign, error)
	SetStatus(id, status string) error
	VerifyOwnership(userID, campaignID string) (bool, error)
}

// StrategyStore persists generated strategies, append-only.
type StrategyStore interface {
	Insert(campaignID, text string) (string, error)
	GetLatest(campaignID string) (*models.Strategy, error)
}

// EmailStore persists approvals.
type EmailStore interface {
	Insert(e *models.ApprovedEmail) (*models.ApprovedEmail, error)
	ListByCampaign(campaignID string) ([]models.ApprovedEmail, error)
	UpdateFeedback(campaignID string, number int, feedback string) error
}

// Generator is the content-generation collaborator. GenerateEmails is called
// after the strategy has been persisted; each draft depends only on the
// strategy.
type Generator interface {
	GenerateStrategy(ctx context.Context, brief models.Brief) (string, error)
	GenerateEmails(ctx context.Context, brief models.Brief, strategy string, progress func(string)) ([]models.Draft, error)
}

// Engine mediates between user actions and persistence for one campaign at a
// time. All methods take the acting user ID and enforce campaign ownership.
type Engine struct {
	campaigns  CampaignStore
	strategies StrategyStore
	emails     EmailStore
	generator  Generator
	states     StateStore
	logger     *slog.Logger
}

func NewEngine(campaigns CampaignStore, strategies StrategyStore, emails EmailStore,
	generator Generator, states StateStore, logger *slog.Logger) *Engine {
	return &Engine{
		campaigns:  campaigns,
		strategies: strategies,
		emails:     emails,
		generator:  generator,
		states:     states,
		logger:     logger,
	}
}

// ValidateBrief checks required fields before any persistence or generation.
func ValidateBrief(b models.Brief) error {
	switch {
	case b.CampaignName == "":
		return &ValidationError{Field: "campaign_name", Message: "campaign name is required"}
	case b.ProductName == "":
		return &ValidationError{Field: "product_name", Message: "product name is required"}
	case b.TargetAudience == "":
		return &ValidationError{Field: "target_audience", Message: "target audience is required"}
	case b.CampaignGoal == "":
		return &ValidationError{Field: "campaign_goal", Message: "campaign goal is required"}
	case b.Timeline < 1:
		return &ValidationError{Field: "timeline", Message: "timeline must be at least 1 week"}
	case b.NumEmails < 1:
		return &ValidationError{Field: "num_emails", Message: "at least 1 email is required"}
	}
	return nil
}

// Start runs the creation flow: validate the brief, upsert the campaign
// record, generate and persist the strategy, then generate the drafts into
// session state for review. A generation failure after the strategy is saved
// leaves the campaign and strategy persisted.
func (e *Engine) Start(ctx context.Context, userID string, brief models.Brief, progress ProgressFunc) (*State, error) {
	if err := ValidateBrief(brief); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(string) {}
	}

	progress("Analyzing campaign requirements...")

	campaignID, err := e.campaigns.Upsert(&models.Campaign{
		UserID:         userID,
		CampaignName:   brief.CampaignName,
		ProductName:    brief.ProductName,
		TargetAudience: brief.TargetAudience,
		CampaignGoal:   brief.CampaignGoal,
		Timeline:       brief.Timeline,
		NumEmails:      brief.NumEmails,
		Frequency:      brief.Frequency,
		EmailTone:      brief.EmailTone,
		TemplateStyle:  brief.TemplateStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save campaign: %w", err)
	}

	state := newState(campaignID, brief.NumEmails)
	track := func(msg string) {
		state.Progress = append(state.Progress, msg)
		progress(msg)
	}

	track("Generating campaign strategy...")
	strategy, err := e.generator.GenerateStrategy(ctx, brief)
	if err != nil {
		return nil, fmt.Errorf("strategy generation failed: %w", err)
	}
	if _, err := e.strategies.Insert(campaignID, strategy); err != nil {
		return nil, fmt.Errorf("failed to save strategy: %w", err)
	}

	drafts, err := e.generator.GenerateEmails(ctx, brief, strategy, track)
	if err != nil {
		// Campaign and strategy stay persisted; only drafts are lost.
		return nil, fmt.Errorf("draft generation failed: %w", err)
	}
	if len(drafts) != brief.NumEmails {
		e.logger.Warn("draft count mismatch",
			"campaign_id", campaignID,
			"requested", brief.NumEmails,
			"returned", len(drafts),
		)
		return nil, fmt.Errorf("requested %d drafts, got %d: %w",
			brief.NumEmails, len(drafts), ErrGenerationCountMismatch)
	}

	track("Finalizing campaign materials...")
	state.Drafts = drafts
	if err := e.states.Put(state); err != nil {
		return nil, fmt.Errorf("failed to save review state: %w", err)
	}

	e.logger.Info("campaign generated",
		"campaign_id", campaignID,
		"user_id", userID,
		"drafts", len(drafts),
	)
	return state, nil
}

// ApproveStrategy marks the strategy approved. Approving again is a no-op.
func (e *Engine) ApproveStrategy(ctx context.Context, userID, campaignID string) (*State, error) {
	state, err := e.activeState(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if state.StrategyApproved {
		return state, nil
	}
	state.StrategyApproved = true
	if err := e.states.Put(state); err != nil {
		return nil, fmt.Errorf("failed to save review state: %w", err)
	}
	return state, nil
}

// ApproveEmail approves one draft by number, persisting the approval record
// immediately. Approving an already-approved number is a no-op that returns
// the existing record. Feedback is stored with the approval but never gates
// anything.
func (e *Engine) ApproveEmail(ctx context.Context, userID, campaignID string, number int, feedback string) (*models.ApprovedEmail, error) {
	state, err := e.activeState(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if number < 1 || number > state.NumRequested {
		return nil, &ValidationError{
			Field:   "email_number",
			Message: fmt.Sprintf("email number must be between 1 and %d", state.NumRequested),
		}
	}
	draft := state.Draft(number)
	if draft == nil {
		return nil, ErrNoPendingDrafts
	}

	record, err := e.emails.Insert(&models.ApprovedEmail{
		CampaignID:  campaignID,
		EmailNumber: number,
		Subject:     draft.Subject,
		Content:     draft.Content,
		Feedback:    feedback,
	})
	if err != nil {
		// Write failure must not mark the approval done in session state.
		return nil, fmt.Errorf("failed to save approval: %w", err)
	}

	state.ApprovedNumbers[number] = true
	if feedback != "" {
		state.Feedback[number] = feedback
	}
	if err := e.states.Put(state); err != nil {
		return nil, fmt.Errorf("failed to save review state: %w", err)
	}

	e.logger.Info("email approved",
		"campaign_id", campaignID,
		"email_number", number,
		"approved", state.ApprovedCount(),
		"requested", state.NumRequested,
	)
	return record, nil
}

// AddFeedback attaches or replaces feedback on an already-approved email.
// Purely informational: it never re-opens the approval.
func (e *Engine) AddFeedback(ctx context.Context, userID, campaignID string, number int, feedback string) error {
	state, err := e.activeState(userID, campaignID)
	if err != nil {
		return err
	}
	if !state.ApprovedNumbers[number] {
		return fmt.Errorf("email %d is not approved", number)
	}
	if err := e.emails.UpdateFeedback(campaignID, number, feedback); err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	state.Feedback[number] = feedback
	return e.states.Put(state)
}

// Launch moves the campaign to launched. It fails with ErrNotLaunchable
// unless the strategy and all requested emails are approved; there is no
// forced or partial launch.
func (e *Engine) Launch(ctx context.Context, userID, campaignID string) error {
	state, err := e.activeState(userID, campaignID)
	if err != nil {
		return err
	}
	if !state.Launchable() {
		return fmt.Errorf("%s: %w", state.RemainingMessage(), ErrNotLaunchable)
	}
	if err := e.campaigns.SetStatus(campaignID, models.StatusLaunched); err != nil {
		return fmt.Errorf("failed to update campaign status: %w", err)
	}
	e.logger.Info("campaign launched", "campaign_id", campaignID, "user_id", userID)
	return nil
}

// Delete soft-deletes the campaign: the record stays, the status flips, and
// the review state becomes inert so no further approvals or launch are
// accepted. Launched campaigns cannot be deleted.
func (e *Engine) Delete(ctx context.Context, userID, campaignID string) error {
	campaign, err := e.ownedCampaign(userID, campaignID)
	if err != nil {
		return err
	}
	if campaign.Status == models.StatusLaunched {
		return fmt.Errorf("launched campaigns cannot be deleted")
	}
	if err := e.campaigns.SetStatus(campaignID, models.StatusDeleted); err != nil {
		return fmt.Errorf("failed to update campaign status: %w", err)
	}

	if state, err := e.states.Get(campaignID); err == nil && state != nil {
		state.Deleted = true
		if err := e.states.Put(state); err != nil {
			e.logger.Warn("failed to mark review state deleted", "campaign_id", campaignID, "error", err)
		}
	}

	e.logger.Info("campaign deleted", "campaign_id", campaignID, "user_id", userID)
	return nil
}

// State returns the review state for a campaign, or nil when no generation
// has run this session.
func (e *Engine) State(userID, campaignID string) (*State, error) {
	if _, err := e.ownedCampaign(userID, campaignID); err != nil {
		return nil, err
	}
	return e.states.Get(campaignID)
}

// Details aggregates the campaign record, the latest strategy, and the
// ordered approved emails for the review view.
func (e *Engine) Details(ctx context.Context, userID, campaignID string) (*models.CampaignDetails, error) {
	campaign, err := e.ownedCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}

	details := &models.CampaignDetails{Campaign: campaign}

	if strategy, err := e.strategies.GetLatest(campaignID); err != nil {
		return nil, fmt.Errorf("failed to load strategy: %w", err)
	} else if strategy != nil {
		details.Strategy = strategy.StrategyText
	}

	emails, err := e.emails.ListByCampaign(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load approved emails: %w", err)
	}
	details.ApprovedEmails = emails
	return details, nil
}

// ownedCampaign loads the campaign and enforces ownership.
func (e *Engine) ownedCampaign(userID, campaignID string) (*models.Campaign, error) {
	campaign, err := e.campaigns.GetByID(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	if campaign.UserID != userID {
		return nil, ErrAccessDenied
	}
	return campaign, nil
}

// activeState loads the review state for a campaign the user owns, rejecting
// deleted campaigns and campaigns with no pending review.
func (e *Engine) activeState(userID, campaignID string) (*State, error) {
	campaign, err := e.ownedCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status == models.StatusDeleted {
		return nil, ErrCampaignDeleted
	}

	state, err := e.states.Get(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load review state: %w", err)
	}
	if state == nil {
		return nil, ErrNoPendingDrafts
	}
	if state.Deleted {
		return nil, ErrCampaignDeleted
	}
	return state, nil
}
