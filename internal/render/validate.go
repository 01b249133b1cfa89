package render

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation is the compliance report for a rendered message. A failing
// report is surfaced to callers but never blocks delivery.
type Validation struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations,omitempty"`
}

var numberedFindingPatterns = [...]*regexp.Regexp{
	regexp.MustCompile(`(?m)^1\. .+`),
	regexp.MustCompile(`(?m)^2\. .+`),
	regexp.MustCompile(`(?m)^3\. .+`),
	regexp.MustCompile(`(?m)^4\. .+`),
	regexp.MustCompile(`(?m)^5\. .+`),
}

// Validate re-scans final message text independently of the renderer:
// no forbidden patterns, all three section headers present, all five
// numbered finding markers present.
func Validate(text string) Validation {
	var violations []string

	for _, lit := range forbiddenLiterals {
		if strings.Contains(text, lit) {
			violations = append(violations, fmt.Sprintf("forbidden pattern present: %q", lit))
		}
	}

	for _, header := range []string{HeaderContext, HeaderFindings, HeaderWhy} {
		if !strings.Contains(text, header) {
			violations = append(violations, fmt.Sprintf("missing required header: %s", header))
		}
	}

	for i, re := range numberedFindingPatterns {
		if !re.MatchString(text) {
			violations = append(violations, fmt.Sprintf("missing numbered finding %d", i+1))
		}
	}

	return Validation{
		Valid:      len(violations) == 0,
		Violations: violations,
	}
}
