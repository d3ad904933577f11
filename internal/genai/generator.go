package genai

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/campaignly/campaignly/internal/models"
)

// Generator produces campaign content through the model client. Each draft
// depends only on the finished strategy, never on sibling drafts, so the
// workflow can call GenerateEmail once per requested email in sequence.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

// GenerateStrategy produces the campaign strategy text for a brief.
func (g *Generator) GenerateStrategy(ctx context.Context, brief models.Brief) (string, error) {
	return g.client.GenerateText(ctx, strategyPrompt(brief))
}

// GenerateEmails produces every requested draft in sequence, emitting a
// progress line before each one.
func (g *Generator) GenerateEmails(ctx context.Context, brief models.Brief, strategy string, progress func(string)) ([]models.Draft, error) {
	if progress == nil {
		progress = func(string) {}
	}

	drafts := make([]models.Draft, 0, brief.NumEmails)
	for i := 1; i <= brief.NumEmails; i++ {
		progress(fmt.Sprintf("Crafting email draft %d of %d...", i, brief.NumEmails))
		draft, err := g.GenerateEmail(ctx, strategy, i, brief.NumEmails, brief.MaxEmailLength)
		if err != nil {
			return nil, fmt.Errorf("email %d: %w", i, err)
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

// GenerateEmail produces the draft for position index (1-based) of total.
// A positive maxWords caps the model's output budget, at roughly two tokens
// per word.
func (g *Generator) GenerateEmail(ctx context.Context, strategy string, index, total, maxWords int) (models.Draft, error) {
	var cfg *generationConfig
	if maxWords > 0 {
		cfg = &generationConfig{MaxOutputTokens: maxWords * 2}
	}
	text, err := g.client.generate(ctx, emailPrompt(strategy, index, total), cfg)
	if err != nil {
		return models.Draft{}, err
	}
	return ParseDraft(index, text), nil
}

// ParseDraft splits model output into subject and body. The subject is the
// first "Subject:" line; without one, the first non-empty line is used.
func ParseDraft(number int, text string) models.Draft {
	d := models.Draft{Number: number, Content: strings.TrimSpace(text)}

	for _, line := range strings.Split(d.Content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "Subject:"); ok {
			d.Subject = strings.TrimSpace(rest)
			break
		}
		if d.Subject == "" {
			d.Subject = line
		}
	}
	return d
}

// HTMLPreview wraps draft content in a minimal email frame for in-browser
// preview. Model output is escaped so any markup it emits renders as text.
func HTMLPreview(content string) string {
	escaped := strings.ReplaceAll(html.EscapeString(content), "\n", "<br>")
	return `<div style="max-width: 600px; margin: 0 auto; font-family: Arial, sans-serif; padding: 20px;">` +
		escaped + `</div>`
}
