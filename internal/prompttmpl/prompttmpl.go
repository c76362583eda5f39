// Package prompttmpl renders prompt templates by substituting the
// enumerated placeholder tokens an admin may use in a stored prompt.
// Only the placeholders listed here are recognized; arbitrary braces in a
// template (JSON examples and the like) pass through untouched.
package prompttmpl

import (
	"fmt"
	"strings"
)

// Recognized placeholder tokens.
const (
	PlaceholderExistingTags       = "{existingTags}"
	PlaceholderExistingCategories = "{existingCategories}"
	PlaceholderRecentPosts        = "{recentPosts}"
	PlaceholderResumeContext      = "{resumeContext}"
	PlaceholderUserContext        = "{userContext}"
)

var placeholders = []string{
	PlaceholderExistingTags,
	PlaceholderExistingCategories,
	PlaceholderRecentPosts,
	PlaceholderResumeContext,
	PlaceholderUserContext,
}

// Render substitutes every recognized placeholder present in template with
// its value. A placeholder present in the template but missing from values
// is a caller bug and returns an error rather than leaking the raw token to
// the model. Values for placeholders the template does not use are ignored.
func Render(template string, values map[string]string) (string, error) {
	rendered := template
	for _, ph := range placeholders {
		if !strings.Contains(rendered, ph) {
			continue
		}
		value, ok := values[ph]
		if !ok {
			return "", fmt.Errorf("no substitution value supplied for placeholder %s", ph)
		}
		rendered = strings.ReplaceAll(rendered, ph, value)
	}
	return rendered, nil
}

// Uses reports which recognized placeholders appear in template.
func Uses(template string) []string {
	used := make([]string, 0, len(placeholders))
	for _, ph := range placeholders {
		if strings.Contains(template, ph) {
			used = append(used, ph)
		}
	}
	return used
}
