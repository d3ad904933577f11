package genai

import (
	"fmt"
	"strings"

	"github.com/campaignly/campaignly/internal/models"
)

// briefText renders the campaign brief as the task description given to the
// model.
func briefText(b models.Brief) string {
	var sb strings.Builder
	sb.WriteString("We need to create an email campaign for our new product launch:\n")
	fmt.Fprintf(&sb, "- Campaign: %s\n", b.CampaignName)
	fmt.Fprintf(&sb, "- Product: %s\n", b.ProductName)
	fmt.Fprintf(&sb, "- Target audience: %s\n", b.TargetAudience)
	fmt.Fprintf(&sb, "- Goal: %s\n", b.CampaignGoal)
	fmt.Fprintf(&sb, "- Timeline: %d weeks\n", b.Timeline)
	fmt.Fprintf(&sb, "- Number of Emails: %d\n", b.NumEmails)
	fmt.Fprintf(&sb, "- Frequency: %s\n", b.Frequency)
	fmt.Fprintf(&sb, "- Email Tone: %s\n", b.EmailTone)
	sb.WriteString("\n- Content Preferences:\n")
	fmt.Fprintf(&sb, "  * Maximum Length: %d words\n", b.MaxEmailLength)
	fmt.Fprintf(&sb, "  * Include Images: %t\n", b.IncludeImages)
	fmt.Fprintf(&sb, "  * CTA Style: %s\n", b.CTAStyle)
	return sb.String()
}

func strategyPrompt(b models.Brief) string {
	return fmt.Sprintf(`As an email marketing strategist, create a detailed campaign strategy for the following task:
%s

Include:
1. Campaign objectives
2. Key messaging points
3. Email sequence plan
4. Success metrics
`, briefText(b))
}

func emailPrompt(strategy string, index, total int) string {
	return fmt.Sprintf(`Based on this strategy:
%s

Write email %d of %d for this campaign. Make each email unique but connected.
The email should have:
1. An attention-grabbing subject line
2. Persuasive body copy that builds on previous emails
3. A clear call-to-action

Format the response as:
Subject: [Your subject line]

[Email body]

CTA: [Your call-to-action]
`, strategy, index, total)
}
