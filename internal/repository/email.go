package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campaignly/campaignly/internal/models"
)

type EmailRepository struct {
	db *sql.DB
}

func NewEmailRepository(db *sql.DB) *EmailRepository {
	return &EmailRepository{db: db}
}

// Insert records an approval. Email numbers are unique per campaign; if the
// number is already approved the existing record is returned unchanged, so a
// repeated approval is a no-op rather than an error.
func (r *EmailRepository) Insert(e *models.ApprovedEmail) (*models.ApprovedEmail, error) {
	e.ID = uuid.New().String()
	e.ApprovedAt = time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO approved_emails (id, campaign_id, email_number, subject, content, feedback, approved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CampaignID, e.EmailNumber, e.Subject, e.Content, e.Feedback, e.ApprovedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return r.Get(e.CampaignID, e.EmailNumber)
		}
		return nil, fmt.Errorf("failed to save approved email: %w", err)
	}
	return e, nil
}

// Get returns the approval record for one email number, or nil if that number
// has not been approved.
func (r *EmailRepository) Get(campaignID string, number int) (*models.ApprovedEmail, error) {
	e := &models.ApprovedEmail{}
	err := r.db.QueryRow(`
		SELECT id, campaign_id, email_number, subject, content, feedback, approved_at
		FROM approved_emails WHERE campaign_id = ? AND email_number = ?`,
		campaignID, number,
	).Scan(&e.ID, &e.CampaignID, &e.EmailNumber, &e.Subject, &e.Content, &e.Feedback, &e.ApprovedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListByCampaign returns a campaign's approved emails ordered by number.
func (r *EmailRepository) ListByCampaign(campaignID string) ([]models.ApprovedEmail, error) {
	rows, err := r.db.Query(`
		SELECT id, campaign_id, email_number, subject, content, feedback, approved_at
		FROM approved_emails WHERE campaign_id = ?
		ORDER BY email_number`, campaignID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := []models.ApprovedEmail{}
	for rows.Next() {
		var e models.ApprovedEmail
		err := rows.Scan(&e.ID, &e.CampaignID, &e.EmailNumber, &e.Subject, &e.Content, &e.Feedback, &e.ApprovedAt)
		if err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

// CountByCampaign returns the number of approved emails for a campaign.
func (r *EmailRepository) CountByCampaign(campaignID string) (int, error) {
	var n int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM approved_emails WHERE campaign_id = ?", campaignID,
	).Scan(&n)
	return n, err
}

// UpdateFeedback replaces the feedback text on an existing approval. Feedback
// is informational only; the approval itself is untouched.
func (r *EmailRepository) UpdateFeedback(campaignID string, number int, feedback string) error {
	res, err := r.db.Exec(
		"UPDATE approved_emails SET feedback = ? WHERE campaign_id = ? AND email_number = ?",
		feedback, campaignID, number,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("email %d is not approved for campaign %s", number, campaignID)
	}
	return nil
}
