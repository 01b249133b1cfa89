// Package render builds the outbound distribution message for a knowledge
// record. Rendering is pure and deterministic: identical inputs produce
// byte-identical output.
package render

import (
	"fmt"
	"strings"

	"github.com/curiolabs/curio/internal/domain"
)

const (
	// HeaderContext, HeaderFindings, HeaderWhy are the three mandatory
	// section headers, in emission order.
	HeaderContext  = "*Context*"
	HeaderFindings = "*Key Findings*"
	HeaderWhy      = "*Why It Matters*"

	// MinFindingLength is the shortest rendered finding accepted before
	// placeholder substitution kicks in.
	MinFindingLength = 12
)

// forbiddenLiterals are exact substrings stripped from all free text:
// bullet glyphs, legacy rating markers, and retired header phrases.
var forbiddenLiterals = []string{
	"•", "▪", "◦", "‣",
	"★", "☆", "[RATING]",
	"TL;DR:", "Quick Take:", "Bottom Line:",
}

// Options controls the optional blocks of a rendered message
type Options struct {
	IncludeImage bool
	ImageURL     string
	LinkURL      string
}

// Message is the rendered output. Text is the full concatenated message the
// validator scans; the individual blocks feed channel-specific payloads.
type Message struct {
	Title    string
	ImageURL string
	Body     string
	LinkURL  string
	Text     string
}

// Render produces the distribution message for a record's structured fields
func Render(fields domain.StructuredFields, opts Options) Message {
	title := StripForbidden(fields.Title)
	summary := StripForbidden(fields.Summary)
	relevance := StripForbidden(fields.RelevanceNote)
	if relevance == "" {
		relevance = summary
	}

	findings := NormalizeFindings(fields.Findings)

	var b strings.Builder
	b.WriteString(HeaderContext)
	b.WriteString("\n")
	b.WriteString(summary)
	b.WriteString("\n\n")
	b.WriteString(HeaderFindings)
	b.WriteString("\n")
	for i, f := range findings {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f.String())
	}
	b.WriteString("\n")
	b.WriteString(HeaderWhy)
	b.WriteString("\n")
	b.WriteString(relevance)

	body := b.String()

	msg := Message{
		Title:   title,
		Body:    body,
		LinkURL: opts.LinkURL,
	}
	if opts.IncludeImage && opts.ImageURL != "" {
		msg.ImageURL = opts.ImageURL
	}

	var full strings.Builder
	full.WriteString(title)
	full.WriteString("\n\n")
	full.WriteString(body)
	if msg.LinkURL != "" {
		full.WriteString("\n\n")
		full.WriteString(msg.LinkURL)
	}
	msg.Text = full.String()

	return msg
}

// StripForbidden removes every forbidden pattern from free text and
// collapses the whitespace damage left behind.
func StripForbidden(text string) string {
	for _, lit := range forbiddenLiterals {
		text = strings.ReplaceAll(text, lit, "")
	}
	// Collapse doubled spaces introduced by removals, line by line.
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// NormalizeFindings guarantees exactly five findings in `label: detail`
// shape. Short or missing findings become generic placeholders; findings
// lacking a label get one detected from a colon-delimited detail or
// synthesized from their position.
func NormalizeFindings(findings []domain.Finding) []domain.Finding {
	out := make([]domain.Finding, domain.FindingCount)
	for i := 0; i < domain.FindingCount; i++ {
		if i >= len(findings) {
			out[i] = domain.PlaceholderFinding(i)
			continue
		}
		out[i] = normalizeFinding(findings[i], i)
	}
	return out
}

func normalizeFinding(f domain.Finding, i int) domain.Finding {
	label := StripForbidden(f.Label)
	detail := StripForbidden(f.Detail)

	if label == "" && detail != "" {
		// Detect an embedded colon-delimited label before synthesizing one.
		if idx := strings.Index(detail, ":"); idx > 0 && idx < 60 {
			label = strings.TrimSpace(detail[:idx])
			detail = strings.TrimSpace(detail[idx+1:])
		} else {
			label = domain.PlaceholderFinding(i).Label
		}
	}

	if len(label)+len(detail) < MinFindingLength || detail == "" {
		return domain.PlaceholderFinding(i)
	}

	return domain.Finding{Label: label, Detail: detail}
}
