package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"postserver/internal/post/model"
	"postserver/pkg/logger"
	"postserver/store"
)

const maxBodyBytes = 1 << 20

// PostService is what the handlers need from the service layer.
type PostService interface {
	GetPosts(ctx context.Context) model.Response[[]store.Post]
	GetPost(ctx context.Context, id uint64) model.Response[*store.Post]
	CreatePost(ctx context.Context, content string) model.Response[uint64]
	UpdatePost(ctx context.Context, id uint64, updatedContent string) model.Response[*uint64]
	DeletePost(ctx context.Context, id uint64) model.Response[*uint64]
}

type PostHandler struct {
	Service PostService
}

func NewPostHandler(service PostService) *PostHandler {
	return &PostHandler{Service: service}
}

// GET /posts
func (h *PostHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	respond(w, r, h.Service.GetPosts(r.Context()))
}

// GET /post/{id}
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	respond(w, r, h.Service.GetPost(r.Context(), id))
}

// POST /addPost
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Content == nil {
		http.Error(w, "Missing field: content", http.StatusUnprocessableEntity)
		return
	}
	respond(w, r, h.Service.CreatePost(r.Context(), *req.Content))
}

// POST /updatePost
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req model.UpdatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PostID == nil || req.UpdatedContent == nil {
		http.Error(w, "Missing field: post_id and updated_content are required", http.StatusUnprocessableEntity)
		return
	}
	respond(w, r, h.Service.UpdatePost(r.Context(), *req.PostID, *req.UpdatedContent))
}

// POST /deletePost/{id}. Any request body is ignored.
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	respond(w, r, h.Service.DeletePost(r.Context(), id))
}

// respond is the one place an envelope becomes an HTTP response:
// Ok is 200, Err is 417, and the payload is the body either way.
func respond[T any](w http.ResponseWriter, r *http.Request, resp model.Response[T]) {
	status := http.StatusOK
	if !resp.IsOk() {
		status = http.StatusExpectationFailed
	}
	writeJSON(w, r, status, resp.Value)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.FromContext(r.Context()).Errorf("Handler: failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logger.FromContext(r.Context()).Warnf("Handler: failed to write %s %s response: %v", r.Method, r.URL.Path, err)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid post id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON writes the error response itself and reports whether dst was filled.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		http.Error(w, "Expected request with `Content-Type: application/json`", http.StatusUnsupportedMediaType)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	err = dec.Decode(dst)
	if err == nil {
		if dec.More() {
			http.Error(w, "Invalid request body: unexpected data after JSON value", http.StatusBadRequest)
			return false
		}
		return true
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
	case errors.As(err, &typeErr):
		http.Error(w, "Invalid field type: "+typeErr.Field, http.StatusUnprocessableEntity)
	case errors.Is(err, io.EOF):
		http.Error(w, "Empty request body", http.StatusBadRequest)
	default:
		http.Error(w, "Invalid request body", http.StatusBadRequest)
	}
	return false
}
