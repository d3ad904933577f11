package models

import "time"

// Draft is a generated email held in workflow session state until a human
// approves it. Drafts are never persisted on their own.
type Draft struct {
	Number  int    `json:"number"`
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// ApprovedEmail records a human approval of one draft. Email numbers are
// unique within a campaign and approval is one-way: feedback attached later
// is informational and never re-opens the approval.
type ApprovedEmail struct {
	ID          string    `json:"id"`
	CampaignID  string    `json:"campaign_id"`
	EmailNumber int       `json:"email_number"`
	Subject     string    `json:"subject"`
	Content     string    `json:"content"`
	Feedback    string    `json:"feedback,omitempty"`
	ApprovedAt  time.Time `json:"approved_at"`
}
