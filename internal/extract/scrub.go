package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// PromptBudget is the hard character cap on content sent to the model
	PromptBudget = 16000
	// MaxURLLength is the longest URL kept in prompt content; longer ones
	// are almost always tracking or signed-blob noise.
	MaxURLLength = 120
)

var (
	dataURIPattern   = regexp.MustCompile(`data:[a-zA-Z0-9/+.-]+;base64,[A-Za-z0-9+/=]+`)
	base64RunPattern = regexp.MustCompile(`[A-Za-z0-9+/]{200,}={0,2}`)
	urlPattern       = regexp.MustCompile(`https?://[^\s"'<>]+`)
	blankRunPattern  = regexp.MustCompile(`\n{3,}`)
)

// Scrub strips embedded binary payloads and over-long URLs from content and
// enforces the prompt character budget. Keeps model cost and latency
// predictable regardless of what the fetcher dragged in.
func Scrub(content string) string {
	content = dataURIPattern.ReplaceAllString(content, "")
	content = base64RunPattern.ReplaceAllString(content, "")
	content = urlPattern.ReplaceAllStringFunc(content, func(u string) string {
		if len(u) > MaxURLLength {
			return ""
		}
		return u
	})
	content = blankRunPattern.ReplaceAllString(content, "\n\n")
	content = strings.TrimSpace(content)

	if len(content) > PromptBudget {
		cut := PromptBudget
		// Never split a multi-byte character at the cap.
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}
	return content
}
