package release

import (
	"fmt"

	"github.com/aymerick/raymond"
)

// DefaultTitlePattern is used when configuration supplies no title pattern.
const DefaultTitlePattern = "chore: release {{component}} {{version}}"

// TitleContext carries the values a title or body template may reference.
type TitleContext struct {
	Component string
	Version   string
	Branch    string
}

// RenderTitle renders a handlebars pattern with the candidate's context.
func RenderTitle(pattern string, ctx TitleContext) (string, error) {
	if pattern == "" {
		pattern = DefaultTitlePattern
	}
	out, err := raymond.Render(pattern, map[string]interface{}{
		"component": ctx.Component,
		"version":   ctx.Version,
		"branch":    ctx.Branch,
	})
	if err != nil {
		return "", fmt.Errorf("rendering title pattern: %w", err)
	}
	return out, nil
}
