package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/curiolabs/curio/internal/domain"
	"github.com/curiolabs/curio/internal/pagination"
	"github.com/curiolabs/curio/internal/service"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx so repositories can
// run inside or outside a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const recordColumns = `id, owner_id, source_url, document_key, raw_content, status,
	title, summary, relevance_note, findings, excerpts,
	topics, methods, industries, audiences,
	content_type, credibility, actionability, freshness,
	author, org_name, methodology,
	embedding, note, highlights, image_key,
	shared_team_at, shared_digest_at, shared_newsletter_at,
	created_at, updated_at`

type RecordRepository struct {
	db dbtx
}

func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{db: pool}
}

func NewRecordRepositoryWithTx(tx pgx.Tx) *RecordRepository {
	return &RecordRepository{db: tx}
}

func (r *RecordRepository) Create(ctx context.Context, rec *domain.KnowledgeRecord) error {
	findings, err := json.Marshal(rec.Fields.Findings)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO records (id, owner_id, source_url, document_key, raw_content, status,
			title, summary, relevance_note, findings, excerpts,
			topics, methods, industries, audiences,
			content_type, credibility, actionability, freshness,
			author, org_name, methodology,
			embedding, note, highlights, image_key,
			shared_team_at, shared_digest_at, shared_newsletter_at,
			created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31)`,
		rec.ID, rec.OwnerID, nullableString(rec.SourceURL), nullableString(rec.DocumentKey),
		rec.RawContent, rec.Status,
		rec.Fields.Title, rec.Fields.Summary, rec.Fields.RelevanceNote, findings, rec.Fields.Excerpts,
		rec.Fields.Tags.Topics, rec.Fields.Tags.Methods, rec.Fields.Tags.Industries, rec.Fields.Tags.Audiences,
		nullableString(string(rec.Fields.ContentType)), nullableString(string(rec.Fields.Credibility)),
		nullableString(string(rec.Fields.Actionability)), nullableString(string(rec.Fields.Freshness)),
		rec.Fields.Author, rec.Fields.OrgName, rec.Fields.Methodology,
		nullableVector(rec.Embedding), rec.Annotations.Note, rec.Annotations.Highlights,
		nullableString(rec.ImageKey),
		rec.Distributed.SharedTeamAt, rec.Distributed.SharedDigestAt, rec.Distributed.SharedNewsletterAt,
		rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

func (r *RecordRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.KnowledgeRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM records WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (r *RecordRepository) ListWithCursor(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (*service.RecordPageResult, error) {
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+recordColumns+`
			 FROM records
			 WHERE owner_id = $1 AND (created_at, id) < ($2, $3)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $4`,
			ownerID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+recordColumns+`
			 FROM records
			 WHERE owner_id = $1
			 ORDER BY created_at DESC, id DESC
			 LIMIT $2`,
			ownerID, limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanRecordRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &service.RecordPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (r *RecordRepository) ListPending(ctx context.Context, ownerID string, limit int) ([]*domain.KnowledgeRecord, error) {
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+recordColumns+`
		 FROM records
		 WHERE owner_id = $1 AND status = $2
		 ORDER BY created_at ASC, id ASC
		 LIMIT $3`,
		ownerID, domain.RecordStatusPending, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecordRows(rows)
}

func (r *RecordRepository) CountPending(ctx context.Context, ownerID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM records WHERE owner_id = $1 AND status = $2`,
		ownerID, domain.RecordStatusPending,
	).Scan(&count)
	return count, err
}

// UpdateIngestResult persists the full outcome of one pipeline run in a
// single statement: content, structured fields, status, and embedding.
func (r *RecordRepository) UpdateIngestResult(ctx context.Context, rec *domain.KnowledgeRecord) error {
	findings, err := json.Marshal(rec.Fields.Findings)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE records SET
			raw_content = $1, status = $2,
			title = $3, summary = $4, relevance_note = $5, findings = $6, excerpts = $7,
			topics = $8, methods = $9, industries = $10, audiences = $11,
			content_type = $12, credibility = $13, actionability = $14, freshness = $15,
			author = $16, org_name = $17, methodology = $18,
			embedding = $19, updated_at = $20
		 WHERE owner_id = $21 AND id = $22`,
		rec.RawContent, rec.Status,
		rec.Fields.Title, rec.Fields.Summary, rec.Fields.RelevanceNote, findings, rec.Fields.Excerpts,
		rec.Fields.Tags.Topics, rec.Fields.Tags.Methods, rec.Fields.Tags.Industries, rec.Fields.Tags.Audiences,
		nullableString(string(rec.Fields.ContentType)), nullableString(string(rec.Fields.Credibility)),
		nullableString(string(rec.Fields.Actionability)), nullableString(string(rec.Fields.Freshness)),
		rec.Fields.Author, rec.Fields.OrgName, rec.Fields.Methodology,
		nullableVector(rec.Embedding), rec.UpdatedAt,
		rec.OwnerID, rec.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *RecordRepository) UpdateAnnotations(ctx context.Context, ownerID, id string, a domain.Annotations) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE records SET note = $1, highlights = $2, updated_at = $3
		 WHERE owner_id = $4 AND id = $5`,
		a.Note, a.Highlights, time.Now().UTC(), ownerID, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *RecordRepository) UpdateStatus(ctx context.Context, ownerID, id string, status domain.RecordStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE records SET status = $1, updated_at = $2
		 WHERE owner_id = $3 AND id = $4`,
		status, time.Now().UTC(), ownerID, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *RecordRepository) UpdateImageKey(ctx context.Context, ownerID, id, imageKey string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE records SET image_key = $1, updated_at = $2
		 WHERE owner_id = $3 AND id = $4`,
		nullableString(imageKey), time.Now().UTC(), ownerID, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// MarkDistributed flips the channel's shared-at timestamp. COALESCE keeps
// the flag monotonic: the first successful share wins.
func (r *RecordRepository) MarkDistributed(ctx context.Context, ownerID, id string, channel domain.DistributionChannel, at time.Time) error {
	var column string
	switch channel {
	case domain.ChannelTeam:
		column = "shared_team_at"
	case domain.ChannelDigest:
		column = "shared_digest_at"
	case domain.ChannelNewsletter:
		column = "shared_newsletter_at"
	default:
		return domain.ErrInvalidChannel
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE records SET `+column+` = COALESCE(`+column+`, $1), updated_at = $2
		 WHERE owner_id = $3 AND id = $4`,
		at, time.Now().UTC(), ownerID, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// SearchSemantic ranks the owner's extracted records by cosine similarity
// to the query vector, dropping anything under the floor.
func (r *RecordRepository) SearchSemantic(ctx context.Context, ownerID string, embedding []float32, limit int, minSimilarity float32) ([]*domain.RetrievalCandidate, error) {
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.db.Query(ctx,
		`SELECT id, title, summary, relevance_note, source_url, similarity,
		        length(btrim(raw_content)) >= $5 AS has_full, created_at
		 FROM (
			SELECT id, title, summary, relevance_note, source_url, raw_content, created_at,
			       1.0 - (embedding <=> $1) AS similarity
			FROM records
			WHERE owner_id = $2 AND status = $3 AND embedding IS NOT NULL
		 ) ranked
		 WHERE similarity >= $4
		 ORDER BY similarity DESC
		 LIMIT $6`,
		vec, ownerID, domain.RecordStatusExtracted, minSimilarity, domain.MinUsefulContentLength, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCandidateRows(rows)
}

// SearchLexical ranks the owner's extracted records by full-text relevance
// against the raw query.
func (r *RecordRepository) SearchLexical(ctx context.Context, ownerID, query string, limit int) ([]*domain.RetrievalCandidate, error) {
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, title, summary, relevance_note, source_url,
		        ts_rank(search, q)::float4 AS similarity,
		        length(btrim(raw_content)) >= $4 AS has_full, created_at
		 FROM records, websearch_to_tsquery('english', $1) q
		 WHERE owner_id = $2 AND status = $3 AND search @@ q
		 ORDER BY ts_rank(search, q) DESC
		 LIMIT $5`,
		query, ownerID, domain.RecordStatusExtracted, domain.MinUsefulContentLength, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCandidateRows(rows)
}

func scanCandidateRows(rows pgx.Rows) ([]*domain.RetrievalCandidate, error) {
	results := make([]*domain.RetrievalCandidate, 0)
	for rows.Next() {
		var c domain.RetrievalCandidate
		var sourceURL, relevanceNote *string
		if err := rows.Scan(&c.RecordID, &c.Title, &c.Summary, &relevanceNote, &sourceURL,
			&c.Similarity, &c.HasFull, &c.CreatedAt); err != nil {
			return nil, err
		}
		if sourceURL != nil {
			c.SourceURL = *sourceURL
		}
		if relevanceNote != nil {
			c.RelevanceNote = *relevanceNote
		}
		results = append(results, &c)
	}
	return results, rows.Err()
}

func scanRecord(row pgx.Row) (*domain.KnowledgeRecord, error) {
	var rec domain.KnowledgeRecord
	var sourceURL, documentKey, contentType, credibility, actionability, freshness, imageKey *string
	var findings []byte
	var embedding *pgvector.Vector

	err := row.Scan(
		&rec.ID, &rec.OwnerID, &sourceURL, &documentKey, &rec.RawContent, &rec.Status,
		&rec.Fields.Title, &rec.Fields.Summary, &rec.Fields.RelevanceNote, &findings, &rec.Fields.Excerpts,
		&rec.Fields.Tags.Topics, &rec.Fields.Tags.Methods, &rec.Fields.Tags.Industries, &rec.Fields.Tags.Audiences,
		&contentType, &credibility, &actionability, &freshness,
		&rec.Fields.Author, &rec.Fields.OrgName, &rec.Fields.Methodology,
		&embedding, &rec.Annotations.Note, &rec.Annotations.Highlights, &imageKey,
		&rec.Distributed.SharedTeamAt, &rec.Distributed.SharedDigestAt, &rec.Distributed.SharedNewsletterAt,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sourceURL != nil {
		rec.SourceURL = *sourceURL
	}
	if documentKey != nil {
		rec.DocumentKey = *documentKey
	}
	if contentType != nil {
		rec.Fields.ContentType = domain.ContentType(*contentType)
	}
	if credibility != nil {
		rec.Fields.Credibility = domain.Tier(*credibility)
	}
	if actionability != nil {
		rec.Fields.Actionability = domain.Tier(*actionability)
	}
	if freshness != nil {
		rec.Fields.Freshness = domain.Freshness(*freshness)
	}
	if imageKey != nil {
		rec.ImageKey = *imageKey
	}
	if embedding != nil {
		rec.Embedding = embedding.Slice()
	}
	if len(findings) > 0 {
		if err := json.Unmarshal(findings, &rec.Fields.Findings); err != nil {
			return nil, fmt.Errorf("unmarshal findings: %w", err)
		}
	}

	rec.Distributed.SharedTeam = rec.Distributed.SharedTeamAt != nil
	rec.Distributed.SharedDigest = rec.Distributed.SharedDigestAt != nil
	rec.Distributed.SharedNewsletter = rec.Distributed.SharedNewsletterAt != nil

	return &rec, nil
}

func scanRecordRows(rows pgx.Rows) ([]*domain.KnowledgeRecord, error) {
	var results []*domain.KnowledgeRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableVector(embedding []float32) *pgvector.Vector {
	if len(embedding) == 0 {
		return nil
	}
	v := pgvector.NewVector(embedding)
	return &v
}
