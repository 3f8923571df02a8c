// Package team manages the firm's team member profiles.
package team

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Member is a team member shown on the public website.
type Member struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Bio          string    `json:"bio"`
	PhotoPath    *string   `json:"photoPath,omitempty"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ErrNotFound is returned when a team member does not exist.
var ErrNotFound = errors.New("team member not found")

const memberColumns = `id, name, role, bio, photo_path, display_order, created_at, updated_at`

// Repository handles all team member database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanMember(row pgx.Row) (*Member, error) {
	m := &Member{}
	err := row.Scan(&m.ID, &m.Name, &m.Role, &m.Bio, &m.PhotoPath,
		&m.DisplayOrder, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// List returns all team members in display order.
func (r *Repository) List(ctx context.Context) ([]*Member, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+memberColumns+` FROM team_members ORDER BY display_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	members := []*Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Create inserts a new team member and returns the created record.
func (r *Repository) Create(ctx context.Context, m *Member) (*Member, error) {
	created, err := scanMember(r.db.QueryRow(ctx,
		`INSERT INTO team_members (name, role, bio, photo_path, display_order)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+memberColumns,
		m.Name, m.Role, m.Bio, m.PhotoPath, m.DisplayOrder,
	))
	if err != nil {
		return nil, fmt.Errorf("create team member: %w", err)
	}
	return created, nil
}

// Update updates an existing team member and returns the new record.
func (r *Repository) Update(ctx context.Context, m *Member) (*Member, error) {
	updated, err := scanMember(r.db.QueryRow(ctx,
		`UPDATE team_members
		 SET name = $2, role = $3, bio = $4, photo_path = $5, display_order = $6,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+memberColumns,
		m.ID, m.Name, m.Role, m.Bio, m.PhotoPath, m.DisplayOrder,
	))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update team member: %w", err)
	}
	return updated, nil
}

// Delete removes a team member by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM team_members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete team member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
