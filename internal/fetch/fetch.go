package fetch

import (
	"context"
	"log"
	"strings"
	"unicode/utf8"
)

// SourceKind identifies which acquisition channel produced a record's content
type SourceKind string

const (
	SourceKindExisting SourceKind = "existing"
	SourceKindVideo    SourceKind = "video"
	SourceKindDocument SourceKind = "document"
	SourceKindPage     SourceKind = "page"
	SourceKindURL      SourceKind = "url"
	SourceKindFallback SourceKind = "fallback"
)

const (
	// MinContentLength is the threshold below which fetched content is
	// rejected and the next channel is tried.
	MinContentLength = 200
	// MaxContentLength caps what callers should persist
	MaxContentLength = 40000
)

// Input describes one record's acquisition surface
type Input struct {
	SourceURL       string
	DocumentKey     string
	ExistingContent string
	Title           string
}

// Result is the chosen content plus the channel that produced it
type Result struct {
	Content string
	Kind    SourceKind
}

// Strategy is one acquisition channel. Applies gates on input shape; Run
// performs the actual acquisition and may fail.
type Strategy interface {
	Name() string
	Kind() SourceKind
	Applies(in Input) bool
	Run(ctx context.Context, in Input) (string, error)
}

// Fetcher tries its strategies in strict priority order. A strategy error
// or an under-length result moves on to the next channel; the chain itself
// never fails.
type Fetcher struct {
	strategies []Strategy
	minLength  int
	logger     *log.Logger
}

// NewFetcher creates a Fetcher over the given ordered strategies
func NewFetcher(strategies []Strategy, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher{
		strategies: strategies,
		minLength:  MinContentLength,
		logger:     logger,
	}
}

// Fetch resolves content for the input, always returning a usable Result.
// When every channel comes up short it falls back to whatever short content
// exists, or the title.
func (f *Fetcher) Fetch(ctx context.Context, in Input) Result {
	for _, s := range f.strategies {
		if !s.Applies(in) {
			continue
		}

		content, err := s.Run(ctx, in)
		if err != nil {
			f.logger.Printf("fetch: strategy %s failed: %v", s.Name(), err)
			continue
		}

		content = strings.TrimSpace(content)
		if len(content) < f.minLength {
			f.logger.Printf("fetch: strategy %s returned %d chars, below minimum", s.Name(), len(content))
			continue
		}

		return Result{Content: Truncate(content), Kind: s.Kind()}
	}

	if existing := strings.TrimSpace(in.ExistingContent); existing != "" {
		return Result{Content: Truncate(existing), Kind: SourceKindFallback}
	}
	return Result{Content: strings.TrimSpace(in.Title), Kind: SourceKindFallback}
}

// Truncate caps content at the persistence limit, never splitting a
// multi-byte character at the cut.
func Truncate(content string) string {
	if len(content) <= MaxContentLength {
		return content
	}
	cut := MaxContentLength
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}
