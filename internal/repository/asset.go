package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/curiolabs/curio/internal/domain"
)

type AssetRepository struct {
	db dbtx
}

func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{db: pool}
}

func NewAssetRepositoryWithTx(tx pgx.Tx) *AssetRepository {
	return &AssetRepository{db: tx}
}

func (r *AssetRepository) Create(ctx context.Context, a *domain.Asset) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO assets (id, owner_id, filename, mime_type, sha256, storage_key, keywords, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.OwnerID, a.Filename, a.MimeType, a.SHA256, a.StorageKey, a.Keywords, a.Description, a.CreatedAt,
	)
	return err
}

func (r *AssetRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Asset, error) {
	var a domain.Asset
	var embedding *pgvector.Vector
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, filename, mime_type, sha256, storage_key, keywords, description, embedding, created_at
		 FROM assets WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	).Scan(&a.ID, &a.OwnerID, &a.Filename, &a.MimeType, &a.SHA256, &a.StorageKey, &a.Keywords, &a.Description, &embedding, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, err
	}
	if embedding != nil {
		a.Embedding = embedding.Slice()
	}
	return &a, nil
}

func (r *AssetRepository) GetBySHA256(ctx context.Context, ownerID, sha256 string) (*domain.Asset, error) {
	var a domain.Asset
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_id, filename, mime_type, sha256, storage_key, keywords, description, created_at
		 FROM assets WHERE owner_id = $1 AND sha256 = $2`,
		ownerID, sha256,
	).Scan(&a.ID, &a.OwnerID, &a.Filename, &a.MimeType, &a.SHA256, &a.StorageKey, &a.Keywords, &a.Description, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AssetRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Asset, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, owner_id, filename, mime_type, sha256, storage_key, keywords, description, created_at
		 FROM assets WHERE owner_id = $1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []*domain.Asset
	for rows.Next() {
		var a domain.Asset
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Filename, &a.MimeType, &a.SHA256, &a.StorageKey, &a.Keywords, &a.Description, &a.CreatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, &a)
	}
	return assets, rows.Err()
}

func (r *AssetRepository) UpdateSummary(ctx context.Context, ownerID, id, description string, keywords []string, embedding []float32) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE assets SET description = $1, keywords = $2, embedding = $3
		 WHERE owner_id = $4 AND id = $5`,
		description, keywords, nullableVector(embedding), ownerID, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAssetNotFound
	}
	return nil
}

func (r *AssetRepository) Delete(ctx context.Context, ownerID, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM assets WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAssetNotFound
	}
	return nil
}
