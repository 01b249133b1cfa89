package fetch

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// boilerplateSelector removes common non-content elements before extraction
const boilerplateSelector = "script, style, nav, footer, header, aside, form, iframe, noscript, " +
	".sidebar, #sidebar, .ad, .advertisement, .popup, .modal, .cookie-banner"

// mainContentSelectors are tried in order; the first that yields text wins
var mainContentSelectors = []string{
	"article", "main",
	".main-content", ".entry-content", ".post-content", ".post-body", ".article-body",
	"[role='main']",
	".content", "#content",
}

var collapseNewlines = regexp.MustCompile(`(\n\s*){2,}`)

// PageStrategy fetches a URL directly and strips HTML boilerplate. It is the
// cheap pre-pass before the model-rendered channel.
type PageStrategy struct {
	client *http.Client
}

// NewPageStrategy creates a PageStrategy with a bounded HTTP client
func NewPageStrategy(timeout time.Duration) *PageStrategy {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PageStrategy{
		client: &http.Client{Timeout: timeout},
	}
}

func (s *PageStrategy) Name() string     { return "page" }
func (s *PageStrategy) Kind() SourceKind { return SourceKindPage }

func (s *PageStrategy) Applies(in Input) bool {
	return strings.HasPrefix(in.SourceURL, "http://") || strings.HasPrefix(in.SourceURL, "https://")
}

func (s *PageStrategy) Run(ctx context.Context, in Input) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.SourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", in.SourceURL, err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", in.SourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status code %d", in.SourceURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", in.SourceURL, err)
	}

	return ExtractArticleText(doc), nil
}

// ExtractArticleText pulls the main textual content out of a parsed page,
// preferring semantic content containers and falling back to the whole body.
func ExtractArticleText(doc *goquery.Document) string {
	doc.Find(boilerplateSelector).Remove()

	var b strings.Builder
	appendBlocks := func(s *goquery.Selection) {
		s.Find("p, h1, h2, h3, h4, h5, h6, li, blockquote, pre").Each(func(_ int, item *goquery.Selection) {
			text := strings.TrimSpace(item.Text())
			if text == "" {
				return
			}
			b.WriteString(text)
			b.WriteString("\n\n")
		})
	}

	for _, selector := range mainContentSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			appendBlocks(s)
		})
		if b.Len() > 0 {
			break
		}
	}

	if b.Len() == 0 {
		appendBlocks(doc.Find("body"))
	}

	text := collapseNewlines.ReplaceAllString(b.String(), "\n")
	return strings.TrimSpace(text)
}
