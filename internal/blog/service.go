package blog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalid wraps input validation failures surfaced to the caller as 400s.
var ErrInvalid = errors.New("invalid input")

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a title: lowercase, alphanumeric runs
// joined by single hyphens.
func Slugify(title string) string {
	s := slugStripRe.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// Service contains business logic for blog management.
type Service struct {
	repo *Repository
}

// NewService creates a new blog Service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// CreatePost validates and stores a new post. An empty slug is derived from
// the title.
func (s *Service) CreatePost(ctx context.Context, p *Post) (*Post, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.Slug == "" {
		return nil, fmt.Errorf("%w: slug could not be derived from title", ErrInvalid)
	}

	created, err := s.repo.CreatePost(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return created, nil
}

// UpdatePost validates and stores changes to an existing post.
func (s *Service) UpdatePost(ctx context.Context, p *Post) (*Post, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	return s.repo.UpdatePost(ctx, p)
}

// DeletePost removes a post by id.
func (s *Service) DeletePost(ctx context.Context, id string) error {
	return s.repo.DeletePost(ctx, id)
}

// GetPostBySlug returns a single post by its slug.
func (s *Service) GetPostBySlug(ctx context.Context, slug string) (*Post, error) {
	return s.repo.GetPostBySlug(ctx, slug)
}

// ListPublished returns all published posts, newest first.
func (s *Service) ListPublished(ctx context.Context) ([]*Post, error) {
	return s.repo.ListPosts(ctx, true)
}

// ListAll returns every post including drafts, newest first.
func (s *Service) ListAll(ctx context.Context) ([]*Post, error) {
	return s.repo.ListPosts(ctx, false)
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}

// CreateCategory validates and stores a new category.
func (s *Service) CreateCategory(ctx context.Context, name string) (*Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	slug := Slugify(name)
	if slug == "" {
		return nil, fmt.Errorf("%w: slug could not be derived from name", ErrInvalid)
	}
	return s.repo.CreateCategory(ctx, name, slug)
}

// DeleteCategory removes a category by id.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.repo.DeleteCategory(ctx, id)
}
