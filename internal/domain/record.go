package domain

import (
	"fmt"
	"strings"
	"time"
)

// RecordStatus represents the lifecycle status of a knowledge record
type RecordStatus string

const (
	RecordStatusPending   RecordStatus = "pending"
	RecordStatusExtracted RecordStatus = "extracted"
	RecordStatusArchived  RecordStatus = "archived"
	RecordStatusDiscarded RecordStatus = "discarded"
)

// ContentType categorizes the kind of source a record was captured from
type ContentType string

const (
	ContentTypeArticle ContentType = "article"
	ContentTypePaper   ContentType = "paper"
	ContentTypeVideo   ContentType = "video"
	ContentTypePodcast ContentType = "podcast"
	ContentTypeReport  ContentType = "report"
	ContentTypeThread  ContentType = "thread"

	DefaultContentType = ContentTypeArticle
)

// Tier is a three-value quality rating used for credibility and actionability
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"

	DefaultTier = TierMedium
)

// Freshness rates how time-sensitive a record's content is
type Freshness string

const (
	FreshnessEvergreen Freshness = "evergreen"
	FreshnessCurrent   Freshness = "current"
	FreshnessDated     Freshness = "dated"

	DefaultFreshness = FreshnessCurrent
)

// FindingCount is the mandatory number of findings on an extracted record
const FindingCount = 5

// Finding is a single labeled takeaway extracted from source content
type Finding struct {
	Label  string `json:"label"`
	Detail string `json:"detail"`
}

// String renders the finding in the mandatory "label: detail" shape
func (f Finding) String() string {
	return f.Label + ": " + f.Detail
}

// PlaceholderFinding is the generic finding substituted when extraction
// could not produce a real one. Deterministic for a given position.
func PlaceholderFinding(i int) Finding {
	return Finding{
		Label:  fmt.Sprintf("Key point %d", i+1),
		Detail: "Not captured; review the original source.",
	}
}

// TagSet holds categorical tags across the four independent taxonomies
type TagSet struct {
	Topics     []string
	Methods    []string
	Industries []string
	Audiences  []string
}

// StructuredFields holds the extraction output stored on a record
type StructuredFields struct {
	Title         string
	Summary       string
	Findings      []Finding
	RelevanceNote string
	Excerpts      []string
	Tags          TagSet
	ContentType   ContentType
	Credibility   Tier
	Actionability Tier
	Freshness     Freshness
	Author        string
	OrgName       string
	Methodology   string
}

// DistributionChannel identifies one of the outbound sharing channels
type DistributionChannel string

const (
	ChannelTeam       DistributionChannel = "team"
	ChannelDigest     DistributionChannel = "digest"
	ChannelNewsletter DistributionChannel = "newsletter"
)

// DistributionState tracks which channels a record has been shared to.
// Flags are monotonic: a successful share is never reversed.
type DistributionState struct {
	SharedTeam         bool
	SharedTeamAt       *time.Time
	SharedDigest       bool
	SharedDigestAt     *time.Time
	SharedNewsletter   bool
	SharedNewsletterAt *time.Time
}

// Annotations holds curator-supplied notes on a record
type Annotations struct {
	Note       string
	Highlights []int
}

// KnowledgeRecord is the unit of captured knowledge
type KnowledgeRecord struct {
	ID          string
	OwnerID     string
	SourceURL   string
	DocumentKey string
	RawContent  string
	Status      RecordStatus
	Fields      StructuredFields
	Embedding   []float32
	Distributed DistributionState
	Annotations Annotations
	ImageKey    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasFullContent reports whether the record carries raw source content
// substantial enough for deep answer synthesis.
func (r *KnowledgeRecord) HasFullContent() bool {
	return len(strings.TrimSpace(r.RawContent)) >= MinUsefulContentLength
}

// MinUsefulContentLength is the threshold below which stored content is
// treated as a stub rather than usable source text.
const MinUsefulContentLength = 200

// NewKnowledgeRecord creates a pending record at capture time
func NewKnowledgeRecord(id, ownerID, sourceURL, documentKey, title, note string, now time.Time) *KnowledgeRecord {
	return &KnowledgeRecord{
		ID:          id,
		OwnerID:     ownerID,
		SourceURL:   sourceURL,
		DocumentKey: documentKey,
		Status:      RecordStatusPending,
		Fields: StructuredFields{
			Title: title,
		},
		Annotations: Annotations{Note: note},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ValidateRecord validates a KnowledgeRecord instance
func ValidateRecord(r *KnowledgeRecord) error {
	if r == nil {
		return fmt.Errorf("record cannot be nil")
	}

	if r.ID == "" {
		return fmt.Errorf("record ID is required")
	}

	if r.OwnerID == "" {
		return fmt.Errorf("record OwnerID is required")
	}

	if r.SourceURL == "" && r.DocumentKey == "" {
		return fmt.Errorf("record requires a source URL or a document pointer")
	}

	if !isValidRecordStatus(r.Status) {
		return fmt.Errorf("record Status is invalid: %s", r.Status)
	}

	if n := len(r.Fields.Findings); n != 0 && n != FindingCount {
		return fmt.Errorf("record must have exactly %d findings or none, got %d", FindingCount, n)
	}

	return nil
}

// ValidateStructuredFields checks the closed enumerations on extraction output
func ValidateStructuredFields(f *StructuredFields) error {
	if f == nil {
		return fmt.Errorf("structured fields cannot be nil")
	}
	if !IsValidContentType(f.ContentType) {
		return fmt.Errorf("invalid content type: %s", f.ContentType)
	}
	if !IsValidTier(f.Credibility) {
		return fmt.Errorf("invalid credibility tier: %s", f.Credibility)
	}
	if !IsValidTier(f.Actionability) {
		return fmt.Errorf("invalid actionability tier: %s", f.Actionability)
	}
	if !IsValidFreshness(f.Freshness) {
		return fmt.Errorf("invalid freshness: %s", f.Freshness)
	}
	return nil
}

func isValidRecordStatus(s RecordStatus) bool {
	switch s {
	case RecordStatusPending, RecordStatusExtracted, RecordStatusArchived, RecordStatusDiscarded:
		return true
	}
	return false
}

// IsValidContentType checks membership in the closed content-type set
func IsValidContentType(t ContentType) bool {
	switch t {
	case ContentTypeArticle, ContentTypePaper, ContentTypeVideo,
		ContentTypePodcast, ContentTypeReport, ContentTypeThread:
		return true
	}
	return false
}

// IsValidTier checks membership in the closed tier set
func IsValidTier(t Tier) bool {
	switch t {
	case TierLow, TierMedium, TierHigh:
		return true
	}
	return false
}

// IsValidFreshness checks membership in the closed freshness set
func IsValidFreshness(f Freshness) bool {
	switch f {
	case FreshnessEvergreen, FreshnessCurrent, FreshnessDated:
		return true
	}
	return false
}

// IsValidChannel checks membership in the closed distribution channel set
func IsValidChannel(c DistributionChannel) bool {
	switch c {
	case ChannelTeam, ChannelDigest, ChannelNewsletter:
		return true
	}
	return false
}
