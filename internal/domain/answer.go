package domain

import "time"

// SearchMode selects the breadth/depth tradeoff for retrieval and synthesis
type SearchMode string

const (
	SearchModeStandard SearchMode = "standard"
	SearchModeDeep     SearchMode = "deep"
)

// IsValidSearchMode checks membership in the closed search-mode set
func IsValidSearchMode(m SearchMode) bool {
	switch m {
	case SearchModeStandard, SearchModeDeep:
		return true
	}
	return false
}

// RetrievalCandidate is one fused search hit, ordered by retrieval rank
type RetrievalCandidate struct {
	RecordID      string
	Title         string
	Summary       string
	RelevanceNote string
	SourceURL     string
	Similarity    float32
	FusedScore    float32
	HasFull       bool
	CreatedAt     time.Time
}

// CitedSource is one entry in an answer's source manifest. Number equals
// the source's retrieval rank, matching the [n] markers in the answer text.
type CitedSource struct {
	Number     int     `json:"number"`
	RecordID   string  `json:"record_id"`
	Title      string  `json:"title"`
	Link       string  `json:"link,omitempty"`
	Similarity float32 `json:"similarity"`
	HasFull    bool    `json:"has_full_content"`
}

// AnswerStats summarizes what the synthesizer had to work with
type AnswerStats struct {
	Searched        int `json:"searched"`
	WithFullContent int `json:"with_full_content"`
}

// AnswerResult is the synthesized answer plus its citation manifest
type AnswerResult struct {
	Answer  string        `json:"answer"`
	Sources []CitedSource `json:"sources"`
	Stats   AnswerStats   `json:"stats"`
}
