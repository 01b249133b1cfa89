package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/curiolabs/curio/internal/domain"
)

type OwnerRepository struct {
	pool *pgxpool.Pool
}

func NewOwnerRepository(pool *pgxpool.Pool) *OwnerRepository {
	return &OwnerRepository{pool: pool}
}

func (r *OwnerRepository) Create(ctx context.Context, owner *domain.Owner) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO owners (id, name, email, created_at) VALUES ($1, $2, $3, $4)`,
		owner.ID, owner.Name, nullableString(owner.Email), owner.CreatedAt,
	)
	return err
}

func (r *OwnerRepository) GetByID(ctx context.Context, id string) (*domain.Owner, error) {
	var owner domain.Owner
	var email *string
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM owners WHERE id = $1`,
		id,
	).Scan(&owner.ID, &owner.Name, &email, &owner.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOwnerNotFound
		}
		return nil, err
	}
	if email != nil {
		owner.Email = *email
	}
	return &owner, nil
}

func (r *OwnerRepository) GetByName(ctx context.Context, name string) (*domain.Owner, error) {
	var owner domain.Owner
	var email *string
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM owners WHERE name = $1`,
		name,
	).Scan(&owner.ID, &owner.Name, &email, &owner.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOwnerNotFound
		}
		return nil, err
	}
	if email != nil {
		owner.Email = *email
	}
	return &owner, nil
}

func (r *OwnerRepository) List(ctx context.Context) ([]*domain.Owner, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, created_at FROM owners ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []*domain.Owner
	for rows.Next() {
		var owner domain.Owner
		var email *string
		if err := rows.Scan(&owner.ID, &owner.Name, &email, &owner.CreatedAt); err != nil {
			return nil, err
		}
		if email != nil {
			owner.Email = *email
		}
		owners = append(owners, &owner)
	}
	return owners, rows.Err()
}
