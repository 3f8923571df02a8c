// Package contact stores and serves contact-form submissions.
package contact

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

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crestline/site/internal/response"
)

// Message is a single contact-form submission.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrNotFound is returned when a message does not exist.
var ErrNotFound = errors.New("message not found")

// emailRe is a plausibility check, not full RFC 5322 validation.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Repository handles all contact message database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new message and returns the created record.
func (r *Repository) Create(ctx context.Context, name, email, message string) (*Message, error) {
	m := &Message{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO contact_messages (name, email, message)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, email, message, created_at`,
		name, email, message,
	).Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create contact message: %w", err)
	}
	return m, nil
}

// List returns all messages, newest first.
func (r *Repository) List(ctx context.Context) ([]*Message, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, email, message, created_at
		 FROM contact_messages ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	defer rows.Close()

	messages := []*Message{}
	for rows.Next() {
		m := &Message{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Delete removes a message by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Handler holds HTTP handlers for contact endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new contact Handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type submitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email" example:"jane@example.com"`
	Message string `json:"message"`
}

// Submit godoc
//
//	@Summary	Submit the contact form
//	@Tags		contact
//	@Accept		json
//	@Produce	json
//	@Param		request	body		submitRequest	true	"Contact form fields"
//	@Success	201		{object}	response.Envelope{data=Message}
//	@Failure	400		{object}	response.Envelope
//	@Router		/contact [post]
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Message) == "" {
		response.BadRequest(w, "name and message are required")
		return
	}
	if !emailRe.MatchString(req.Email) {
		response.BadRequest(w, "invalid email address")
		return
	}

	m, err := h.repo.Create(r.Context(), req.Name, req.Email, req.Message)
	if err != nil {
		log.Printf("contact: submit: %v", err)
		response.InternalError(w)
		return
	}
	response.Created(w, m)
}

// List godoc
//
//	@Summary	List contact messages
//	@Tags		contact
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	response.Envelope{data=[]Message}
//	@Router		/admin/contact [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.repo.List(r.Context())
	if err != nil {
		log.Printf("contact: list: %v", err)
		response.InternalError(w)
		return
	}
	response.OK(w, messages)
}

// Delete godoc
//
//	@Summary	Delete a contact message
//	@Tags		contact
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Message ID"
//	@Success	204
//	@Failure	404	{object}	response.Envelope
//	@Router		/admin/contact/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "message not found")
			return
		}
		log.Printf("contact: delete: %v", err)
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}
