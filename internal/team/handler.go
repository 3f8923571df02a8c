package team

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/crestline/site/internal/response"
)

// Handler holds HTTP handlers for team endpoints. The logic is thin enough
// that no separate service layer is warranted.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new team Handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type memberRequest struct {
	Name         string  `json:"name"`
	Role         string  `json:"role"`
	Bio          string  `json:"bio"`
	PhotoPath    *string `json:"photoPath,omitempty" example:"/objects/uploads/d5f9b1ce-0707-4fe4-8734-526b7ef13a7b"`
	DisplayOrder int     `json:"displayOrder"`
}

// List godoc
//
//	@Summary	List team members
//	@Tags		team
//	@Produce	json
//	@Success	200	{object}	response.Envelope{data=[]Member}
//	@Router		/team [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.repo.List(r.Context())
	if err != nil {
		log.Printf("team: list: %v", err)
		response.InternalError(w)
		return
	}
	response.OK(w, members)
}

// Create godoc
//
//	@Summary	Add a team member
//	@Tags		team
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		memberRequest	true	"Member fields"
//	@Success	201		{object}	response.Envelope{data=Member}
//	@Failure	400		{object}	response.Envelope
//	@Router		/admin/team [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	created, err := h.repo.Create(r.Context(), &Member{
		Name:         req.Name,
		Role:         req.Role,
		Bio:          req.Bio,
		PhotoPath:    req.PhotoPath,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		log.Printf("team: create: %v", err)
		response.InternalError(w)
		return
	}
	response.Created(w, created)
}

// Update godoc
//
//	@Summary	Update a team member
//	@Tags		team
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string			true	"Member ID"
//	@Param		request	body		memberRequest	true	"Member fields"
//	@Success	200		{object}	response.Envelope{data=Member}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Router		/admin/team/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	updated, err := h.repo.Update(r.Context(), &Member{
		ID:           chi.URLParam(r, "id"),
		Name:         req.Name,
		Role:         req.Role,
		Bio:          req.Bio,
		PhotoPath:    req.PhotoPath,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "team member not found")
			return
		}
		log.Printf("team: update: %v", err)
		response.InternalError(w)
		return
	}
	response.OK(w, updated)
}

// Delete godoc
//
//	@Summary	Remove a team member
//	@Tags		team
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Member ID"
//	@Success	204
//	@Failure	404	{object}	response.Envelope
//	@Router		/admin/team/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "team member not found")
			return
		}
		log.Printf("team: delete: %v", err)
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*memberRequest, bool) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return nil, false
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Role) == "" {
		response.BadRequest(w, "name and role are required")
		return nil, false
	}
	return &req, true
}
