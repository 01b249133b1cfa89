package service

import (
	"context"
	"sort"
	"strings"

	"github.com/curiolabs/curio/internal/domain"
	"github.com/curiolabs/curio/internal/telemetry"
)

const (
	defaultCandidateMultiplier = 4
	defaultMinCandidates       = 20
	defaultMaxCandidates       = 200
)

// RetrievalConfig holds the fusion and mode tunables. Values are fixed at
// construction; there are no per-request overrides beyond the mode itself.
type RetrievalConfig struct {
	RRFK           int
	SemanticWeight float32
	LexicalWeight  float32
	StandardK      int
	StandardFloor  float32
	DeepK          int
	DeepFloor      float32
}

// DefaultRetrievalConfig returns the standard tuning: equal ranking weights
// and the two fixed retrieval modes.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		RRFK:           60,
		SemanticWeight: 1.0,
		LexicalWeight:  1.0,
		StandardK:      3,
		StandardFloor:  0.30,
		DeepK:          10,
		DeepFloor:      0.15,
	}
}

// SearchRepositoryInterface defines the two owner-scoped rankings the
// retriever fuses
type SearchRepositoryInterface interface {
	SearchSemantic(ctx context.Context, ownerID string, embedding []float32, limit int, minSimilarity float32) ([]*domain.RetrievalCandidate, error)
	SearchLexical(ctx context.Context, ownerID, query string, limit int) ([]*domain.RetrievalCandidate, error)
}

// RetrievalService runs hybrid search: a semantic ranking and a lexical
// ranking fused with weighted Reciprocal Rank Fusion.
type RetrievalService struct {
	repo      SearchRepositoryInterface
	embedding *EmbeddingService
	cfg       RetrievalConfig
}

// NewRetrievalService creates a new RetrievalService instance
func NewRetrievalService(repo SearchRepositoryInterface, embedding *EmbeddingService, cfg RetrievalConfig) *RetrievalService {
	if cfg.RRFK <= 0 {
		cfg = DefaultRetrievalConfig()
	}
	return &RetrievalService{repo: repo, embedding: embedding, cfg: cfg}
}

// ModeParams returns the result count and similarity floor for a mode.
// Unknown modes fall back to standard.
func (s *RetrievalService) ModeParams(mode domain.SearchMode) (int, float32) {
	if mode == domain.SearchModeDeep {
		return s.cfg.DeepK, s.cfg.DeepFloor
	}
	return s.cfg.StandardK, s.cfg.StandardFloor
}

// Search retrieves the owner's top records for a query. Both rankings are
// fetched over-wide, fused, and cut to the mode's result count.
func (s *RetrievalService) Search(ctx context.Context, ownerID, query string, mode domain.SearchMode) ([]*domain.RetrievalCandidate, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Search", telemetry.SpanAttributes{
		OwnerID:   ownerID,
		Operation: "search",
	})
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return []*domain.RetrievalCandidate{}, nil
	}

	limit, floor := s.ModeParams(mode)

	candidateLimit := limit * defaultCandidateMultiplier
	if candidateLimit < defaultMinCandidates {
		candidateLimit = defaultMinCandidates
	}
	if candidateLimit > defaultMaxCandidates {
		candidateLimit = defaultMaxCandidates
	}

	embedding, err := s.embedding.EmbedQuery(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	semantic, err := s.repo.SearchSemantic(ctx, ownerID, embedding, candidateLimit, floor)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	lexical, err := s.repo.SearchLexical(ctx, ownerID, query, candidateLimit)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	fused := FuseRankings(semantic, lexical, s.cfg)
	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused, nil
}

type fusionCandidate struct {
	result   *domain.RetrievalCandidate
	rrfScore float32
}

// FuseRankings merges two rankings with weighted Reciprocal Rank Fusion:
// each appearance at rank r contributes weight / (K + r + 1), with r
// zero-based. A record absent from a ranking contributes nothing from it.
// Ties break toward the newest record.
func FuseRankings(semantic, lexical []*domain.RetrievalCandidate, cfg RetrievalConfig) []*domain.RetrievalCandidate {
	candidates := make(map[string]*fusionCandidate)
	addList := func(list []*domain.RetrievalCandidate, weight float32) {
		for i, r := range list {
			if r == nil {
				continue
			}
			cand, ok := candidates[r.RecordID]
			if !ok {
				cloned := *r
				cand = &fusionCandidate{result: &cloned}
				candidates[r.RecordID] = cand
			}
			cand.rrfScore += weight / float32(cfg.RRFK+i+1)
			if r.Similarity > cand.result.Similarity {
				cand.result.Similarity = r.Similarity
			}
			if cand.result.Title == "" && r.Title != "" {
				cand.result.Title = r.Title
			}
			if cand.result.Summary == "" && r.Summary != "" {
				cand.result.Summary = r.Summary
			}
		}
	}

	addList(semantic, cfg.SemanticWeight)
	addList(lexical, cfg.LexicalWeight)

	out := make([]*domain.RetrievalCandidate, 0, len(candidates))
	for _, cand := range candidates {
		cand.result.FusedScore = cand.rrfScore
		out = append(out, cand.result)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FusedScore != out[j].FusedScore {
			return out[i].FusedScore > out[j].FusedScore
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
