package notifications

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{(.*?)\}\}`)

// Render expands every `{{key}}` placeholder in pattern with the string form
// of data[key]. Keys are trimmed of surrounding whitespace; absent keys
// substitute the empty string. Text that does not match the placeholder
// grammar passes through untouched, so rendering never fails and is
// idempotent on placeholder-free input.
func Render(pattern string, data map[string]any) string {
	return placeholderRe.ReplaceAllStringFunc(pattern, func(match string) string {
		key := strings.TrimSpace(match[2 : len(match)-2])
		value, ok := data[key]
		if !ok || value == nil {
			return ""
		}
		return fmt.Sprint(value)
	})
}
