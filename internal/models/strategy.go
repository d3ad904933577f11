package models

import "time"

// Strategy is a generated strategy text for a campaign. Records are
// append-only; each generation run inserts a new one and readers take the
// most recent.
type Strategy struct {
	ID           string    `json:"id"`
	CampaignID   string    `json:"campaign_id"`
	StrategyText string    `json:"strategy_text"`
	CreatedAt    time.Time `json:"created_at"`
}
