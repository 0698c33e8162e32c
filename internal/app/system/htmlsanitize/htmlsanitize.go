// Package htmlsanitize strips markup from user-supplied text before it is
// stored or rendered. Display names are the main consumer.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// DisplayName removes all HTML from a user-entered display name and
// collapses surrounding whitespace.
func DisplayName(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
