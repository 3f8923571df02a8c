package uploads

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crestline/site/internal/middleware"
	"github.com/crestline/site/internal/response"
)

// Handler holds HTTP handlers for upload grant, commit, and object read endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new uploads Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type commitRequest struct {
	ImageURL string `json:"imageURL" example:"http://localhost:9000/site-assets/uploads/d5f9…?X-Amz-Signature=…"`
}

type uploadGrantData struct {
	UploadURL string `json:"uploadURL" example:"http://localhost:9000/site-assets/uploads/d5f9…?X-Amz-Signature=…"`
}

type commitData struct {
	ObjectPath string `json:"objectPath" example:"/objects/uploads/d5f9b1ce-0707-4fe4-8734-526b7ef13a7b"`
}

// CreateUpload godoc
//
//	@Summary		Request an upload grant
//	@Description	Issues a short-lived presigned PUT URL. Upload the file bytes directly to the returned URL, then commit ownership via PUT /featured-images.
//	@Tags			objects
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=uploadGrantData}
//	@Failure		401	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/objects/upload [post]
func (h *Handler) CreateUpload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	uploadURL, _, err := h.svc.IssueGrant(r.Context(), userID)
	if err != nil {
		log.Printf("uploads: issue grant: %v", err)
		response.InternalError(w)
		return
	}

	response.OK(w, uploadGrantData{UploadURL: uploadURL})
}

// CommitFeaturedImage godoc
//
//	@Summary		Commit an uploaded image
//	@Description	Attaches an ownership policy to a previously uploaded object, making it servable as a public website asset. Redeems the upload grant exactly once.
//	@Tags			objects
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		commitRequest	true	"Raw upload location returned by the object store"
//	@Success		200		{object}	response.Envelope{data=commitData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/featured-images [put]
func (h *Handler) CommitFeaturedImage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	objectPath, err := h.svc.Commit(r.Context(), req.ImageURL, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, commitData{ObjectPath: objectPath})
}

// ServeObject streams the bytes behind a managed object path after evaluating
// the caller's (possibly anonymous) read access.
func (h *Handler) ServeObject(w http.ResponseWriter, r *http.Request) {
	objectPath := "/objects/" + chi.URLParam(r, "*")
	userID := middleware.UserID(r.Context())

	rc, info, err := h.svc.Fetch(r.Context(), objectPath, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer rc.Close()

	h.stream(w, rc, info.ContentType, info.Size)
}

// ServePublicObject streams an unmanaged asset with no access evaluation.
func (h *Handler) ServePublicObject(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	rc, info, err := h.svc.FetchPublic(r.Context(), key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "object not found")
			return
		}
		log.Printf("uploads: serve public object: %v", err)
		response.InternalError(w)
		return
	}
	defer rc.Close()

	h.stream(w, rc, info.ContentType, info.Size)
}

func (h *Handler) stream(w http.ResponseWriter, rc io.Reader, contentType string, size int64) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	if _, err := io.Copy(w, rc); err != nil {
		// Headers are gone; nothing left to do but note it.
		log.Printf("uploads: stream object: %v", err)
	}
}

// writeError maps the subsystem's error taxonomy onto HTTP statuses:
// InvalidPath→400, NotRegistered/NotOwner/Expired and read denials→403,
// NotFound→404, everything else→500 without leaking internal detail.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidPath):
		response.BadRequest(w, "invalid object path")
	case errors.Is(err, ErrNotRegistered):
		response.Forbidden(w, "upload not registered")
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(w, "not the upload owner")
	case errors.Is(err, ErrExpired):
		response.Forbidden(w, "upload grant expired")
	case errors.Is(err, ErrAccessDenied):
		response.Forbidden(w, "access denied")
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "object not found")
	default:
		log.Printf("uploads: %v", err)
		response.InternalError(w)
	}
}
