package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brandkit/brandkit/internal/model"
)

// CreateOwner inserts a new owner account. ID is assigned if empty.
func (s *Store) CreateOwner(ctx context.Context, o *model.Owner) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	const q = `INSERT INTO owners
		(id, email, password_hash, name, is_active, created_at, updated_at)
		VALUES
		(:id, :email, :password_hash, :name, :is_active, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, o); err != nil {
		return fmt.Errorf("insert owner: %w", err)
	}
	return nil
}

// GetOwner returns an owner by ID.
func (s *Store) GetOwner(ctx context.Context, id string) (*model.Owner, error) {
	var o model.Owner
	if err := s.db.GetContext(ctx, &o, "SELECT * FROM owners WHERE id = ?", id); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get owner: %w", err)
	}
	return &o, nil
}

// GetOwnerByEmail returns an owner by email address.
func (s *Store) GetOwnerByEmail(ctx context.Context, email string) (*model.Owner, error) {
	var o model.Owner
	if err := s.db.GetContext(ctx, &o, "SELECT * FROM owners WHERE email = ?", email); err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get owner by email: %w", err)
	}
	return &o, nil
}

// ListOwners returns all owner accounts, oldest first.
func (s *Store) ListOwners(ctx context.Context) ([]model.Owner, error) {
	owners := []model.Owner{}
	if err := s.db.SelectContext(ctx, &owners,
		"SELECT * FROM owners ORDER BY created_at ASC"); err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	return owners, nil
}

// UpdateOwnerLastLogin stamps last_login_at for an owner.
func (s *Store) UpdateOwnerLastLogin(ctx context.Context, id string) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		"UPDATE owners SET last_login_at = ?, updated_at = ? WHERE id = ?", now, now, id)
	if err != nil {
		return fmt.Errorf("update owner last login: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update owner last login rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOwners returns the total owner count, for telemetry.
func (s *Store) CountOwners(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM owners"); err != nil {
		return 0, fmt.Errorf("count owners: %w", err)
	}
	return count, nil
}
