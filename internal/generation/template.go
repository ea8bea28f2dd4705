package generation

import (
	"context"
	"fmt"
	"strings"
)

// TemplateGenerator is the no-network fallback used when no API key is
// configured. It renders a deterministic placeholder report so local
// development exercises the full charge/store pipeline.
type TemplateGenerator struct{}

// NewTemplateGenerator creates the fallback generator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Generate implements Generator.
func (g *TemplateGenerator) Generate(_ context.Context, req Request) (*Result, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return nil, fmt.Errorf("empty subject")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Scouting Report: %s\n\n", subject)
	if team := strings.TrimSpace(req.Team); team != "" {
		fmt.Fprintf(&b, "Team: %s\n", team)
	}
	if league := strings.TrimSpace(req.League); league != "" {
		fmt.Fprintf(&b, "League: %s\n", league)
	}
	b.WriteString("\n## Overview\n\nPlaceholder report generated without a model backend.\n")

	content := b.String()
	return &Result{
		Content:      content,
		Model:        "template",
		InputTokens:  len(subject) / 4,
		OutputTokens: len(content) / 4,
	}, nil
}
