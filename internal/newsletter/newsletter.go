// Package newsletter manages newsletter signups.
package newsletter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crestline/site/internal/response"
)

// Subscriber is a newsletter signup.
type Subscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrAlreadySubscribed is returned when the email is already on the list.
var ErrAlreadySubscribed = errors.New("already subscribed")

// ErrNotSubscribed is returned when the email is not on the list.
var ErrNotSubscribed = errors.New("not subscribed")

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Repository handles all subscriber database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Subscribe inserts a new subscriber and returns the created record.
func (r *Repository) Subscribe(ctx context.Context, email string) (*Subscriber, error) {
	s := &Subscriber{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO newsletter_subscribers (email)
		 VALUES ($1)
		 RETURNING id, email, created_at`,
		email,
	).Scan(&s.ID, &s.Email, &s.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadySubscribed
		}
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return s, nil
}

// Unsubscribe removes a subscriber by email.
func (r *Repository) Unsubscribe(ctx context.Context, email string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM newsletter_subscribers WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotSubscribed
	}
	return nil
}

// List returns all subscribers, newest first.
func (r *Repository) List(ctx context.Context) ([]*Subscriber, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, email, created_at
		 FROM newsletter_subscribers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	subscribers := []*Subscriber{}
	for rows.Next() {
		s := &Subscriber{}
		if err := rows.Scan(&s.ID, &s.Email, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subscribers = append(subscribers, s)
	}
	return subscribers, rows.Err()
}

// Handler holds HTTP handlers for newsletter endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new newsletter Handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type emailRequest struct {
	Email string `json:"email" example:"jane@example.com"`
}

// Subscribe godoc
//
//	@Summary	Subscribe to the newsletter
//	@Tags		newsletter
//	@Accept		json
//	@Produce	json
//	@Param		request	body		emailRequest	true	"Email address"
//	@Success	201		{object}	response.Envelope{data=Subscriber}
//	@Failure	400		{object}	response.Envelope
//	@Failure	409		{object}	response.Envelope
//	@Router		/newsletter/subscribe [post]
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	email, ok := h.decodeEmail(w, r)
	if !ok {
		return
	}

	s, err := h.repo.Subscribe(r.Context(), email)
	if err != nil {
		if errors.Is(err, ErrAlreadySubscribed) {
			response.Conflict(w, "already subscribed")
			return
		}
		log.Printf("newsletter: subscribe: %v", err)
		response.InternalError(w)
		return
	}
	response.Created(w, s)
}

// Unsubscribe godoc
//
//	@Summary	Unsubscribe from the newsletter
//	@Tags		newsletter
//	@Accept		json
//	@Param		request	body	emailRequest	true	"Email address"
//	@Success	204
//	@Failure	400	{object}	response.Envelope
//	@Failure	404	{object}	response.Envelope
//	@Router		/newsletter/unsubscribe [post]
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	email, ok := h.decodeEmail(w, r)
	if !ok {
		return
	}

	if err := h.repo.Unsubscribe(r.Context(), email); err != nil {
		if errors.Is(err, ErrNotSubscribed) {
			response.NotFound(w, "not subscribed")
			return
		}
		log.Printf("newsletter: unsubscribe: %v", err)
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

// List godoc
//
//	@Summary	List subscribers
//	@Tags		newsletter
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	response.Envelope{data=[]Subscriber}
//	@Router		/admin/newsletter [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	subscribers, err := h.repo.List(r.Context())
	if err != nil {
		log.Printf("newsletter: list: %v", err)
		response.InternalError(w)
		return
	}
	response.OK(w, subscribers)
}

func (h *Handler) decodeEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return "", false
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailRe.MatchString(email) {
		response.BadRequest(w, "invalid email address")
		return "", false
	}
	return email, true
}
