package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/curiolabs/curio/internal/domain"
)

// Completer is the slice of the generative client the extractor needs
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

const systemPrompt = `You are a research analyst converting source material into a structured knowledge record.
Respond with a single JSON object, no prose, matching exactly this shape:
{
  "title": "concise title of the source",
  "summary": "ONE sentence, not a paragraph; include a concrete metric from the source when one exists",
  "findings": [{"label": "short label", "detail": "one specific takeaway"}],
  "relevance_note": "2-3 sentences on why a practitioner should care",
  "excerpts": ["up to 3 short quotable passages, verbatim"],
  "topics": [], "methods": [], "industries": [], "audiences": [],
  "content_type": "article|paper|video|podcast|report|thread",
  "credibility": "low|medium|high",
  "actionability": "low|medium|high",
  "freshness": "evergreen|current|dated",
  "author": "", "org_name": "",
  "methodology": "MUST begin with an author or organization name, never a generic opener"
}
Rules:
- findings MUST contain exactly 5 entries, each written as **label:** detail.
- categorical fields MUST use only the listed values.
- leave unknown optional fields as empty strings or empty arrays.`

// payload mirrors the JSON shape the model is instructed to emit
type payload struct {
	Title         string `json:"title"`
	Summary       string `json:"summary"`
	Findings      []struct {
		Label  string `json:"label"`
		Detail string `json:"detail"`
	} `json:"findings"`
	RelevanceNote string   `json:"relevance_note"`
	Excerpts      []string `json:"excerpts"`
	Topics        []string `json:"topics"`
	Methods       []string `json:"methods"`
	Industries    []string `json:"industries"`
	Audiences     []string `json:"audiences"`
	ContentType   string   `json:"content_type"`
	Credibility   string   `json:"credibility"`
	Actionability string   `json:"actionability"`
	Freshness     string   `json:"freshness"`
	Author        string   `json:"author"`
	OrgName       string   `json:"org_name"`
	Methodology   string   `json:"methodology"`
}

// Extractor turns raw content into validated structured fields. It absorbs
// every upstream failure: the caller always gets storable fields back.
type Extractor struct {
	client Completer
	logger *log.Logger
}

// NewExtractor creates an Extractor
func NewExtractor(client Completer, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.Default()
	}
	return &Extractor{client: client, logger: logger}
}

// Extract runs a single extraction request and validates the result.
// Call failure, malformed JSON, or a wrong finding count all degrade to
// Fallback; out-of-enum categorical values are replaced by defaults.
func (e *Extractor) Extract(ctx context.Context, title, content string) domain.StructuredFields {
	scrubbed := Scrub(content)
	if scrubbed == "" {
		e.logger.Printf("extract: no usable content for %q, using fallback", title)
		return Fallback(title)
	}

	user := fmt.Sprintf("Source title: %s\n\nSource content:\n%s", title, scrubbed)
	raw, err := e.client.CompleteJSON(ctx, systemPrompt, user)
	if err != nil {
		e.logger.Printf("extract: completion failed for %q: %v", title, err)
		return Fallback(title)
	}

	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		e.logger.Printf("extract: malformed JSON for %q: %v", title, err)
		return Fallback(title)
	}

	fields, err := fromPayload(&p, title)
	if err != nil {
		e.logger.Printf("extract: rejected payload for %q: %v", title, err)
		return Fallback(title)
	}
	return fields
}

// fromPayload converts a parsed payload into structured fields, enforcing
// required keys and substituting defaults for out-of-enum values.
func fromPayload(p *payload, title string) (domain.StructuredFields, error) {
	if strings.TrimSpace(p.Summary) == "" {
		return domain.StructuredFields{}, fmt.Errorf("missing summary")
	}
	if len(p.Findings) != domain.FindingCount {
		return domain.StructuredFields{}, fmt.Errorf("expected %d findings, got %d", domain.FindingCount, len(p.Findings))
	}

	findings := make([]domain.Finding, 0, domain.FindingCount)
	for i, f := range p.Findings {
		label := strings.TrimSpace(strings.Trim(f.Label, "*"))
		detail := strings.TrimSpace(f.Detail)
		if label == "" || detail == "" {
			findings = append(findings, domain.PlaceholderFinding(i))
			continue
		}
		findings = append(findings, domain.Finding{Label: label, Detail: detail})
	}

	if strings.TrimSpace(p.Title) == "" {
		p.Title = title
	}

	return domain.StructuredFields{
		Title:         strings.TrimSpace(p.Title),
		Summary:       strings.TrimSpace(p.Summary),
		Findings:      findings,
		RelevanceNote: strings.TrimSpace(p.RelevanceNote),
		Excerpts:      p.Excerpts,
		Tags: domain.TagSet{
			Topics:     p.Topics,
			Methods:    p.Methods,
			Industries: p.Industries,
			Audiences:  p.Audiences,
		},
		ContentType:   contentTypeOrDefault(p.ContentType),
		Credibility:   tierOrDefault(p.Credibility),
		Actionability: tierOrDefault(p.Actionability),
		Freshness:     freshnessOrDefault(p.Freshness),
		Author:        strings.TrimSpace(p.Author),
		OrgName:       strings.TrimSpace(p.OrgName),
		Methodology:   strings.TrimSpace(p.Methodology),
	}, nil
}

// Fallback returns the deterministic degraded fields used when extraction
// cannot produce real ones. The record still becomes visible.
func Fallback(title string) domain.StructuredFields {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled capture"
	}

	findings := make([]domain.Finding, domain.FindingCount)
	for i := range findings {
		findings[i] = domain.PlaceholderFinding(i)
	}

	return domain.StructuredFields{
		Title:         title,
		Summary:       fmt.Sprintf("Captured reference: %s.", title),
		Findings:      findings,
		ContentType:   domain.DefaultContentType,
		Credibility:   domain.DefaultTier,
		Actionability: domain.DefaultTier,
		Freshness:     domain.DefaultFreshness,
	}
}

func contentTypeOrDefault(v string) domain.ContentType {
	t := domain.ContentType(strings.ToLower(strings.TrimSpace(v)))
	if domain.IsValidContentType(t) {
		return t
	}
	return domain.DefaultContentType
}

func tierOrDefault(v string) domain.Tier {
	t := domain.Tier(strings.ToLower(strings.TrimSpace(v)))
	if domain.IsValidTier(t) {
		return t
	}
	return domain.DefaultTier
}

func freshnessOrDefault(v string) domain.Freshness {
	f := domain.Freshness(strings.ToLower(strings.TrimSpace(v)))
	if domain.IsValidFreshness(f) {
		return f
	}
	return domain.DefaultFreshness
}
