package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campaignly/campaignly/internal/models"
)

type CampaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Upsert saves a campaign. The (user_id, campaign_name) pair is unique: a
// second save with the same pair updates the existing record in place and
// keeps its creation time. Returns the campaign ID either way. New campaigns
// start in draft status.
func (r *CampaignRepository) Upsert(c *models.Campaign) (string, error) {
	now := time.Now().UTC()

	var existingID string
	err := r.db.QueryRow(
		"SELECT id FROM campaigns WHERE user_id = ? AND campaign_name = ?",
		c.UserID, c.CampaignName,
	).Scan(&existingID)

	if err == sql.ErrNoRows {
		c.ID = uuid.New().String()
		c.Status = models.StatusDraft
		c.CreatedAt = now
		c.UpdatedAt = now

		_, err = r.db.Exec(`
			INSERT INTO campaigns (id, user_id, campaign_name, product_name, target_audience,
				campaign_goal, timeline, num_emails, frequency, email_tone, template_style,
				status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.UserID, c.CampaignName, c.ProductName, c.TargetAudience,
			c.CampaignGoal, c.Timeline, c.NumEmails, c.Frequency, c.EmailTone, c.TemplateStyle,
			c.Status, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			return "", fmt.Errorf("failed to create campaign: %w", err)
		}
		return c.ID, nil
	}
	if err != nil {
		return "", err
	}

	c.ID = existingID
	c.UpdatedAt = now
	_, err = r.db.Exec(`
		UPDATE campaigns SET product_name = ?, target_audience = ?, campaign_goal = ?,
			timeline = ?, num_emails = ?, frequency = ?, email_tone = ?, template_style = ?,
			updated_at = ?
		WHERE id = ?`,
		c.ProductName, c.TargetAudience, c.CampaignGoal,
		c.Timeline, c.NumEmails, c.Frequency, c.EmailTone, c.TemplateStyle,
		c.UpdatedAt, c.ID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to update campaign: %w", err)
	}
	return c.ID, nil
}

// GetByID returns a campaign by ID, or nil if none exists.
func (r *CampaignRepository) GetByID(id string) (*models.Campaign, error) {
	c := &models.Campaign{}
	err := r.db.QueryRow(`
		SELECT id, user_id, campaign_name, product_name, target_audience, campaign_goal,
			timeline, num_emails, frequency, email_tone, template_style, status,
			created_at, updated_at
		FROM campaigns WHERE id = ?`, id,
	).Scan(&c.ID, &c.UserID, &c.CampaignName, &c.ProductName, &c.TargetAudience, &c.CampaignGoal,
		&c.Timeline, &c.NumEmails, &c.Frequency, &c.EmailTone, &c.TemplateStyle, &c.Status,
		&c.CreatedAt, &c.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListByUser returns all of a user's campaigns newest-first, each joined with
// its approved-email count.
func (r *CampaignRepository) ListByUser(userID string) ([]models.CampaignWithStats, error) {
	rows, err := r.db.Query(`
		SELECT c.id, c.user_id, c.campaign_name, c.product_name, c.target_audience,
			c.campaign_goal, c.timeline, c.num_emails, c.frequency, c.email_tone,
			c.template_style, c.status, c.created_at, c.updated_at,
			COALESCE((SELECT COUNT(*) FROM approved_emails WHERE campaign_id = c.id), 0) as approved_count
		FROM campaigns c
		WHERE c.user_id = ?
		ORDER BY c.created_at DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []models.CampaignWithStats{}
	for rows.Next() {
		var c models.CampaignWithStats
		err := rows.Scan(
			&c.ID, &c.UserID, &c.CampaignName, &c.ProductName, &c.TargetAudience,
			&c.CampaignGoal, &c.Timeline, &c.NumEmails, &c.Frequency, &c.EmailTone,
			&c.TemplateStyle, &c.Status, &c.CreatedAt, &c.UpdatedAt,
			&c.ApprovedCount,
		)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// SetStatus updates a campaign's status and bumps updated_at.
func (r *CampaignRepository) SetStatus(id, status string) error {
	_, err := r.db.Exec(
		"UPDATE campaigns SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id,
	)
	return err
}

// VerifyOwnership reports whether the campaign exists and belongs to the user.
// This is the only per-resource access check in the system.
func (r *CampaignRepository) VerifyOwnership(userID, campaignID string) (bool, error) {
	var one int
	err := r.db.QueryRow(
		"SELECT 1 FROM campaigns WHERE id = ? AND user_id = ?",
		campaignID, userID,
	).Scan(&one)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
