package blog

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crestline/site/internal/response"
)

// Handler holds HTTP handlers for blog endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new blog Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type postRequest struct {
	Title         string  `json:"title"`
	Slug          string  `json:"slug,omitempty"`
	Excerpt       string  `json:"excerpt"`
	Body          string  `json:"body"`
	CategoryID    *string `json:"categoryId,omitempty"`
	FeaturedImage *string `json:"featuredImage,omitempty" example:"/objects/uploads/d5f9b1ce-0707-4fe4-8734-526b7ef13a7b"`
	Published     bool    `json:"published"`
}

type categoryRequest struct {
	Name string `json:"name"`
}

// ListPublished godoc
//
//	@Summary	List published posts
//	@Tags		blog
//	@Produce	json
//	@Success	200	{object}	response.Envelope{data=[]Post}
//	@Router		/posts [get]
func (h *Handler) ListPublished(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListPublished(r.Context())
	if err != nil {
		log.Printf("blog: list published: %v", err)
		response.InternalError(w)
		return
	}
	response.OK(w, posts)
}

// GetBySlug godoc
//
//	@Summary	Get a post by slug
//	@Tags		blog
//	@Produce	json
//	@Param		slug	path		string	true	"Post slug"
//	@Success	200		{object}	response.Envelope{data=Post}
//	@Failure	404		{object}	response.Envelope
//	@Router		/posts/{slug} [get]
func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPostBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "post not found")
			return
		}
		log.Printf("blog: get by slug: %v", err)
		response.InternalError(w)
		return
	}
	response.OK(w, p)
}

// ListAll godoc
//
//	@Summary	List all posts including drafts
//	@Tags		blog
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	response.Envelope{data=[]Post}
//	@Router		/admin/posts [get]
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListAll(r.Context())
	if err != nil {
		log.Printf("blog: list all: %v", err)
		response.InternalError(w)
		return
	}
	response.OK(w, posts)
}

// Create godoc
//
//	@Summary	Create a post
//	@Tags		blog
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		postRequest	true	"Post fields"
//	@Success	201		{object}	response.Envelope{data=Post}
//	@Failure	400		{object}	response.Envelope
//	@Failure	409		{object}	response.Envelope
//	@Router		/admin/posts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	created, err := h.svc.CreatePost(r.Context(), &Post{
		Title:         req.Title,
		Slug:          req.Slug,
		Excerpt:       req.Excerpt,
		Body:          req.Body,
		CategoryID:    req.CategoryID,
		FeaturedImage: req.FeaturedImage,
		Published:     req.Published,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, created)
}

// Update godoc
//
//	@Summary	Update a post
//	@Tags		blog
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string		true	"Post ID"
//	@Param		request	body		postRequest	true	"Post fields"
//	@Success	200		{object}	response.Envelope{data=Post}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Failure	409		{object}	response.Envelope
//	@Router		/admin/posts/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	updated, err := h.svc.UpdatePost(r.Context(), &Post{
		ID:            chi.URLParam(r, "id"),
		Title:         req.Title,
		Slug:          req.Slug,
		Excerpt:       req.Excerpt,
		Body:          req.Body,
		CategoryID:    req.CategoryID,
		FeaturedImage: req.FeaturedImage,
		Published:     req.Published,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, updated)
}

// Delete godoc
//
//	@Summary	Delete a post
//	@Tags		blog
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Post ID"
//	@Success	204
//	@Failure	404	{object}	response.Envelope
//	@Router		/admin/posts/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	response.NoContent(w)
}

// ListCategories godoc
//
//	@Summary	List categories
//	@Tags		blog
//	@Produce	json
//	@Success	200	{object}	response.Envelope{data=[]Category}
//	@Router		/categories [get]
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.ListCategories(r.Context())
	if err != nil {
		log.Printf("blog: list categories: %v", err)
		response.InternalError(w)
		return
	}
	response.OK(w, categories)
}

// CreateCategory godoc
//
//	@Summary	Create a category
//	@Tags		blog
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		categoryRequest	true	"Category name"
//	@Success	201		{object}	response.Envelope{data=Category}
//	@Failure	400		{object}	response.Envelope
//	@Failure	409		{object}	response.Envelope
//	@Router		/admin/categories [post]
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	created, err := h.svc.CreateCategory(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, created)
}

// DeleteCategory godoc
//
//	@Summary	Delete a category
//	@Tags		blog
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Category ID"
//	@Success	204
//	@Failure	404	{object}	response.Envelope
//	@Router		/admin/categories/{id} [delete]
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalid):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "not found")
	case errors.Is(err, ErrSlugTaken):
		response.Conflict(w, "slug already in use")
	default:
		log.Printf("blog: %v", err)
		response.InternalError(w)
	}
}
