package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/curiolabs/curio/internal/domain"
	"github.com/curiolabs/curio/internal/telemetry"
)

const (
	// ExcerptMaxChars caps the raw-content excerpt included per source
	ExcerptMaxChars = 2000
	// HighSimilarityThreshold gates excerpt inclusion in deep mode
	HighSimilarityThreshold = 0.60
)

// CompletionClient defines the interface for answer generation
type CompletionClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// AnswerRecordRepository is the slice of record persistence the
// synthesizer needs to pull raw content for excerpts
type AnswerRecordRepository interface {
	GetByID(ctx context.Context, ownerID, id string) (*domain.KnowledgeRecord, error)
}

const answerSystemPrompt = `You answer questions using ONLY the numbered sources provided.
Cite every claim with its source number in square brackets, e.g. [1] or [2][3].
If the sources do not contain the answer, say so plainly.
Do not invent sources or cite numbers that were not provided.`

// AnswerService synthesizes cited answers over retrieved records
type AnswerService struct {
	retrieval  *RetrievalService
	recordRepo AnswerRecordRepository
	client     CompletionClient
}

// NewAnswerService creates a new AnswerService instance
func NewAnswerService(retrieval *RetrievalService, recordRepo AnswerRecordRepository, client CompletionClient) *AnswerService {
	return &AnswerService{
		retrieval:  retrieval,
		recordRepo: recordRepo,
		client:     client,
	}
}

// Ask retrieves the owner's most relevant records and synthesizes an
// answer with citation numbers equal to retrieval rank. Retrieval and
// synthesis failures propagate; there is no degraded answer.
func (s *AnswerService) Ask(ctx context.Context, ownerID, question string, mode domain.SearchMode) (*domain.AnswerResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "AnswerService.Ask", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		Operation: "ask",
	})
	defer span.End()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "question is required")
	}
	if !domain.IsValidSearchMode(mode) {
		mode = domain.SearchModeStandard
	}

	candidates, err := s.retrieval.Search(ctx, ownerID, question, mode)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	result := &domain.AnswerResult{
		Sources: make([]domain.CitedSource, 0, len(candidates)),
		Stats:   domain.AnswerStats{Searched: len(candidates)},
	}

	if len(candidates) == 0 {
		result.Answer = "No captured sources match this question."
		return result, nil
	}

	contextText, err := s.buildContext(ctx, ownerID, candidates, mode)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	user := fmt.Sprintf("Sources:\n%s\nQuestion: %s", contextText, question)
	answer, err := s.client.Complete(ctx, answerSystemPrompt, user)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstreamFailure, "answer synthesis failed", err)
	}

	result.Answer = answer
	for i, c := range candidates {
		result.Sources = append(result.Sources, domain.CitedSource{
			Number:     i + 1,
			RecordID:   c.RecordID,
			Title:      c.Title,
			Link:       c.SourceURL,
			Similarity: c.Similarity,
			HasFull:    c.HasFull,
		})
		if c.HasFull {
			result.Stats.WithFullContent++
		}
	}

	return result, nil
}

// buildContext assembles the numbered per-source blocks. A raw-content
// excerpt is included only when the source has full content AND either the
// mode is standard or the source cleared the high-similarity threshold.
func (s *AnswerService) buildContext(ctx context.Context, ownerID string, candidates []*domain.RetrievalCandidate, mode domain.SearchMode) (string, error) {
	var b strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, c.Title)
		if c.Summary != "" {
			b.WriteString(c.Summary)
			b.WriteString("\n")
		}
		if c.RelevanceNote != "" {
			b.WriteString(c.RelevanceNote)
			b.WriteString("\n")
		}

		if c.HasFull && (mode == domain.SearchModeStandard || c.Similarity > HighSimilarityThreshold) {
			record, err := s.recordRepo.GetByID(ctx, ownerID, c.RecordID)
			if err != nil {
				return "", err
			}
			excerpt := strings.TrimSpace(record.RawContent)
			if len(excerpt) > ExcerptMaxChars {
				cut := ExcerptMaxChars
				// Never split a multi-byte character at the cap.
				for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
					cut--
				}
				excerpt = excerpt[:cut]
			}
			if excerpt != "" {
				fmt.Fprintf(&b, "Excerpt:\n%s\n", excerpt)
			}
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
