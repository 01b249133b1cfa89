package fetch

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// ContentReader reads a remote resource through the generative model's
// content-understanding interface and returns plain text.
type ContentReader interface {
	ReadURL(ctx context.Context, url, instruction string) (string, error)
}

// URLSigner resolves a storage key to a directly fetchable URL
type URLSigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

// DefaultStrategies assembles the standard acquisition chain in priority
// order: existing content, video understanding, document understanding,
// direct page parse, model-rendered page, with the combinator's fallback
// closing the chain.
func DefaultStrategies(reader ContentReader, signer URLSigner, page *PageStrategy) []Strategy {
	return []Strategy{
		&ExistingStrategy{},
		&VideoStrategy{Reader: reader},
		&DocumentStrategy{Reader: reader, Signer: signer},
		page,
		&RenderedURLStrategy{Reader: reader},
	}
}

// ExistingStrategy reuses already-stored content when it is substantial
// enough, skipping all network work.
type ExistingStrategy struct{}

func (s *ExistingStrategy) Name() string     { return "existing" }
func (s *ExistingStrategy) Kind() SourceKind { return SourceKindExisting }

func (s *ExistingStrategy) Applies(in Input) bool {
	return len(strings.TrimSpace(in.ExistingContent)) >= MinContentLength
}

func (s *ExistingStrategy) Run(_ context.Context, in Input) (string, error) {
	return in.ExistingContent, nil
}

var videoHostPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:www\.|m\.)?youtube\.com/watch\?`),
	regexp.MustCompile(`youtu\.be/`),
	regexp.MustCompile(`(?:www\.)?youtube\.com/embed/`),
	regexp.MustCompile(`(?:www\.)?vimeo\.com/\d+`),
}

// IsVideoURL reports whether the URL points at a known video host
func IsVideoURL(url string) bool {
	for _, re := range videoHostPatterns {
		if re.MatchString(url) {
			return true
		}
	}
	return false
}

// VideoStrategy routes video-host URLs through the model's content
// understanding rather than scraping the player page.
type VideoStrategy struct {
	Reader ContentReader
}

func (s *VideoStrategy) Name() string     { return "video" }
func (s *VideoStrategy) Kind() SourceKind { return SourceKindVideo }

func (s *VideoStrategy) Applies(in Input) bool {
	return in.SourceURL != "" && IsVideoURL(in.SourceURL)
}

func (s *VideoStrategy) Run(ctx context.Context, in Input) (string, error) {
	const instruction = "Watch this video and write a detailed prose account of its content: " +
		"the argument it makes, the evidence presented, named people and organizations, " +
		"and any figures or data mentioned. Plain text only."
	return s.Reader.ReadURL(ctx, in.SourceURL, instruction)
}

// DocumentStrategy reads an uploaded document through the model via a
// short-lived direct URL.
type DocumentStrategy struct {
	Reader ContentReader
	Signer URLSigner
}

func (s *DocumentStrategy) Name() string     { return "document" }
func (s *DocumentStrategy) Kind() SourceKind { return SourceKindDocument }

func (s *DocumentStrategy) Applies(in Input) bool {
	return in.DocumentKey != ""
}

func (s *DocumentStrategy) Run(ctx context.Context, in Input) (string, error) {
	url, err := s.Signer.PresignGet(ctx, in.DocumentKey)
	if err != nil {
		return "", fmt.Errorf("presign document %s: %w", in.DocumentKey, err)
	}

	const instruction = "Read this document and reproduce its full textual content as plain text. " +
		"Preserve headings and paragraph order. Do not summarize."
	return s.Reader.ReadURL(ctx, url, instruction)
}

// RenderedURLStrategy is the last networked channel: the model fetches and
// renders the page itself, which handles script-heavy sites the direct
// parse cannot.
type RenderedURLStrategy struct {
	Reader ContentReader
}

func (s *RenderedURLStrategy) Name() string     { return "rendered-url" }
func (s *RenderedURLStrategy) Kind() SourceKind { return SourceKindURL }

func (s *RenderedURLStrategy) Applies(in Input) bool {
	return strings.HasPrefix(in.SourceURL, "http://") || strings.HasPrefix(in.SourceURL, "https://")
}

func (s *RenderedURLStrategy) Run(ctx context.Context, in Input) (string, error) {
	const instruction = "Open this page and reproduce its main article text as plain prose. " +
		"Skip navigation, ads, and comments. Plain text only."
	return s.Reader.ReadURL(ctx, in.SourceURL, instruction)
}
