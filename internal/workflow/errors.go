package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrAccessDenied is returned when a campaign exists but does not belong
	// to the acting user.
	ErrAccessDenied = errors.New("campaign access denied")

	// ErrCampaignNotFound is returned for an unknown campaign ID.
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrCampaignDeleted blocks approvals and launch after a soft delete.
	ErrCampaignDeleted = errors.New("campaign is deleted")

	// ErrNotLaunchable is returned when launch is attempted before the
	// strategy and every requested email have been approved.
	ErrNotLaunchable = errors.New("campaign is not ready to launch")

	// ErrGenerationCountMismatch is returned when the content service yields
	// a different number of drafts than the brief requested. The drafts are
	// discarded rather than truncated or padded.
	ErrGenerationCountMismatch = errors.New("draft count does not match requested email count")

	// ErrNoPendingDrafts is returned when an approval targets a campaign
	// with no drafts in session state.
	ErrNoPendingDrafts = errors.New("no drafts pending review")
)

// ValidationError reports a missing or out-of-range brief field before any
// persistence or generation is attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
