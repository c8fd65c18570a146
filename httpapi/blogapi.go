package httpapi

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"miniblog/blog"

	"github.com/cespare/xxhash/v2"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type HTTPHandler struct {
	manager blog.Manager
	logger  zerolog.Logger
}

// NewHandler routes the /posts resource the way json-server does.
func NewHandler(manager blog.Manager, logger zerolog.Logger) http.Handler {
	r := mux.NewRouter()
	handler := HTTPHandler{manager, logger}

	r.Use(RequestID, AccessLog(logger))
	r.HandleFunc("/posts", handler.ListPosts).Methods(http.MethodGet)
	r.HandleFunc("/posts", handler.CreatePost).Methods(http.MethodPost)
	r.HandleFunc("/posts/{id}", handler.GetPost).Methods(http.MethodGet)
	r.HandleFunc("/posts/{id}", handler.ReplacePost).Methods(http.MethodPut)
	r.HandleFunc("/posts/{id}", handler.DeletePost).Methods(http.MethodDelete)
	r.HandleFunc("/maintenance/ping", handler.CheckIsReady).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	return r
}

func NewServer(addr string, manager blog.Manager, logger zerolog.Logger) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewHandler(manager, logger),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	raw, _ := json.Marshal(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// storageError maps manager errors onto status codes.
func (h *HTTPHandler) storageError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, blog.ErrNotFound):
		writeError(w, http.StatusNotFound, "post not found")
	case errors.Is(err, blog.ErrDuplicateID):
		writeError(w, http.StatusConflict, "a post with this id already exists")
	default:
		h.logger.Error().Err(err).Str("request_id", RequestIDFrom(r.Context())).Msg("storage failure")
		writeError(w, http.StatusInternalServerError, "storage error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := blog.ParseID(mux.Vars(r)["id"])
	if err != nil {
		// json-server answers unknown ids with 404, malformed ones included.
		writeError(w, http.StatusNotFound, "post not found")
		return 0, false
	}
	return id, true
}

func etag(raw []byte) string {
	d := make([]byte, 8)
	binary.BigEndian.PutUint64(d, xxhash.Sum64(raw))
	return "\"" + base64.StdEncoding.EncodeToString(d) + "\""
}

func (h *HTTPHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.manager.ListPosts(r.Context())
	if err != nil {
		h.storageError(w, r, err)
		return
	}
	if posts == nil {
		posts = []blog.Post{}
	}

	raw, _ := json.Marshal(posts)
	tag := etag(raw)
	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (h *HTTPHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	post, err := h.manager.GetPost(r.Context(), id)
	if err != nil {
		h.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *HTTPHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var body blog.Post
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.ID < 0 {
		writeError(w, http.StatusBadRequest, "id must be positive")
		return
	}

	post, err := h.manager.AddPost(r.Context(), body)
	if err != nil {
		h.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// ReplacePost is a full replace: fields missing from the body are stored
// empty, and the id in the path wins over the one in the body.
func (h *HTTPHandler) ReplacePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body blog.Post
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	body.ID = id

	post, err := h.manager.ReplacePost(r.Context(), body)
	if err != nil {
		h.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *HTTPHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.manager.DeletePost(r.Context(), id); err != nil {
		h.storageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *HTTPHandler) CheckIsReady(w http.ResponseWriter, r *http.Request) {
	if !h.manager.IsReady(r.Context()) {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
