package models

import "time"

// Campaign statuses. Transitions move forward only; "deleted" is a soft-delete
// marker reachable from any non-launched status.
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusArchived  = "archived"
	StatusLaunched  = "launched"
	StatusDeleted   = "deleted"
)

// Campaign is owned by exactly one user. The (user_id, campaign_name) pair is
// unique: saving the same pair again updates the existing record.
type Campaign struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	CampaignName   string    `json:"campaign_name"`
	ProductName    string    `json:"product_name"`
	TargetAudience string    `json:"target_audience"`
	CampaignGoal   string    `json:"campaign_goal"`
	Timeline       int       `json:"timeline"` // weeks
	NumEmails      int       `json:"num_emails"`
	Frequency      string    `json:"frequency"`
	EmailTone      string    `json:"email_tone"`
	TemplateStyle  string    `json:"template_style"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CampaignWithStats is a campaign row joined with its approved-email count,
// used by the list view.
type CampaignWithStats struct {
	Campaign
	ApprovedCount int `json:"approved_count"`
}

// Brief is the structured input a user submits to start a campaign. It covers
// the persisted campaign fields plus content preferences that only steer
// generation and are not stored.
type Brief struct {
	CampaignName   string
	ProductName    string
	TargetAudience string
	CampaignGoal   string
	Timeline       int
	NumEmails      int
	Frequency      string
	EmailTone      string
	TemplateStyle  string

	// Content preferences, generation-only.
	MaxEmailLength int
	CTAStyle       string
	IncludeImages  bool
	PreviewHTML    bool
}

// CampaignDetails aggregates everything the review view needs.
type CampaignDetails struct {
	Campaign       *Campaign       `json:"campaign"`
	Strategy       string          `json:"strategy,omitempty"`
	ApprovedEmails []ApprovedEmail `json:"approved_emails"`
}
