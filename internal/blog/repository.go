// Package blog manages blog posts and their categories.
package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Post is a blog article on the public website.
type Post struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Excerpt       string    `json:"excerpt"`
	Body          string    `json:"body"`
	CategoryID    *string   `json:"categoryId,omitempty"`
	FeaturedImage *string   `json:"featuredImage,omitempty"`
	Published     bool      `json:"published"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Category groups posts on the public website.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrNotFound is returned when a post or category does not exist.
var ErrNotFound = errors.New("not found")

// ErrSlugTaken is returned when a slug is already in use.
var ErrSlugTaken = errors.New("slug already in use")

const postColumns = `id, title, slug, excerpt, body, category_id, featured_image, published, created_at, updated_at`

// Repository handles all blog database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanPost(row pgx.Row) (*Post, error) {
	p := &Post{}
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Body,
		&p.CategoryID, &p.FeaturedImage, &p.Published, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePost inserts a new post and returns the created record.
func (r *Repository) CreatePost(ctx context.Context, p *Post) (*Post, error) {
	created, err := scanPost(r.db.QueryRow(ctx,
		`INSERT INTO posts (title, slug, excerpt, body, category_id, featured_image, published)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+postColumns,
		p.Title, p.Slug, p.Excerpt, p.Body, p.CategoryID, p.FeaturedImage, p.Published,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create post: %w", err)
	}
	return created, nil
}

// UpdatePost updates an existing post and returns the new record.
func (r *Repository) UpdatePost(ctx context.Context, p *Post) (*Post, error) {
	updated, err := scanPost(r.db.QueryRow(ctx,
		`UPDATE posts
		 SET title = $2, slug = $3, excerpt = $4, body = $5, category_id = $6,
		     featured_image = $7, published = $8, updated_at = now()
		 WHERE id = $1
		 RETURNING `+postColumns,
		p.ID, p.Title, p.Slug, p.Excerpt, p.Body, p.CategoryID, p.FeaturedImage, p.Published,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	return updated, nil
}

// DeletePost removes a post by id.
func (r *Repository) DeletePost(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPostBySlug fetches a single post by its slug.
func (r *Repository) GetPostBySlug(ctx context.Context, slug string) (*Post, error) {
	p, err := scanPost(r.db.QueryRow(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get post by slug: %w", err)
	}
	return p, err
}

// ListPosts returns posts newest-first. When publishedOnly is set, drafts are
// excluded.
func (r *Repository) ListPosts(ctx context.Context, publishedOnly bool) ([]*Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC`
	if publishedOnly {
		query = `SELECT ` + postColumns + ` FROM posts WHERE published ORDER BY created_at DESC`
	}

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []*Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]*Category, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, slug, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []*Category{}
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateCategory inserts a new category and returns the created record.
func (r *Repository) CreateCategory(ctx context.Context, name, slug string) (*Category, error) {
	c := &Category{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO categories (name, slug)
		 VALUES ($1, $2)
		 RETURNING id, name, slug, created_at`,
		name, slug,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// DeleteCategory removes a category by id; posts in it keep existing with a
// null category.
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation checks whether an error is a PostgreSQL unique_violation (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
