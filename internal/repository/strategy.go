package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campaignly/campaignly/internal/models"
)

type StrategyRepository struct {
	db *sql.DB
}

func NewStrategyRepository(db *sql.DB) *StrategyRepository {
	return &StrategyRepository{db: db}
}

// Insert appends a new strategy record. Strategies are never updated; each
// generation run produces a fresh one.
func (r *StrategyRepository) Insert(campaignID, text string) (string, error) {
	s := models.Strategy{
		ID:           uuid.New().String(),
		CampaignID:   campaignID,
		StrategyText: text,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := r.db.Exec(`
		INSERT INTO strategies (id, campaign_id, strategy_text, created_at)
		VALUES (?, ?, ?, ?)`,
		s.ID, s.CampaignID, s.StrategyText, s.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to save strategy: %w", err)
	}
	return s.ID, nil
}

// GetLatest returns the most recent strategy for a campaign, or nil if none
// has been generated yet.
func (r *StrategyRepository) GetLatest(campaignID string) (*models.Strategy, error) {
	s := &models.Strategy{}
	err := r.db.QueryRow(`
		SELECT id, campaign_id, strategy_text, created_at
		FROM strategies WHERE campaign_id = ?
		ORDER BY created_at DESC, id LIMIT 1`, campaignID,
	).Scan(&s.ID, &s.CampaignID, &s.StrategyText, &s.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
