package views

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewParsesAllTemplates(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, name := range []string{"login", "register", "dashboard", "campaign_new", "campaign_view"} {
		if _, ok := e.templates[name]; !ok {
			t.Errorf("template %q not parsed", name)
		}
	}
}

func TestRenderLogin(t *testing.T) {
	e, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var buf bytes.Buffer
	if err := e.Render(&buf, "login", map[string]any{"Email": "a@b.com"}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Sign in") {
		t.Error("rendered login page missing heading")
	}
	if !strings.Contains(out, "a@b.com") {
		t.Error("rendered login page missing prefilled email")
	}
}
