package blog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogapp/internal/users"
	"github.com/2beens/blogapp/pkg"
)

type likeRequest struct {
	BlogID int `json:"blog"`
}

type commentRequest struct {
	BlogID  int    `json:"blog"`
	Comment string `json:"comment"`
}

type BlogResponse struct {
	Blog  *Blog     `json:"blog"`
	Route RouteHint `json:"route,omitempty"`
}

type RouteResponse struct {
	Route RouteHint `json:"route"`
}

type ListResponse struct {
	Blogs []*Blog `json:"blogs"`
	Total int     `json:"total"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/blog/new", h.handleNew).Methods("POST", "OPTIONS").Name("new-blog")
	router.HandleFunc("/blog/drafts", h.handleListDrafts).Methods("GET").Name("drafts")
	router.HandleFunc("/blog/published", h.handleListPublished).Methods("GET").Name("published")
	router.HandleFunc("/blog/like", h.handleLike).Methods("POST", "OPTIONS").Name("like-blog")
	router.HandleFunc("/blog/comment", h.handleComment).Methods("POST", "OPTIONS").Name("comment-blog")
	router.HandleFunc("/blog/publish/{id:[0-9]+}", h.handlePublish).Methods("POST", "OPTIONS").Name("publish-blog")
	router.HandleFunc("/blog/edit/{id:[0-9]+}", h.handleEdit).Methods("PUT", "OPTIONS").Name("edit-blog")
	router.HandleFunc("/blog/delete/{id:[0-9]+}", h.handleDelete).Methods("DELETE", "OPTIONS").Name("delete-blog")
	router.HandleFunc("/blog/draft/{id:[0-9]+}/{slug}", h.handleViewDraft).Methods("GET").Name("view-draft")
	router.HandleFunc("/blog/comments/{id:[0-9]+}", h.handleComments).Methods("GET").Name("blog-comments")
	router.HandleFunc("/blog/{id:[0-9]+}/{slug}", h.handleView).Methods("GET").Name("view-blog")
}

// requester returns the authenticated user, or writes 401 if there is none.
func requester(w http.ResponseWriter, r *http.Request) (*users.User, bool) {
	u, ok := users.FromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
	}
	return u, ok
}

func blogIDVar(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// writeError maps workflow errors to responses.
func writeError(w http.ResponseWriter, op string, err error) {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		pkg.WriteJSON(w, validationErr, http.StatusBadRequest)
	case errors.Is(err, ErrBlogNotFound):
		http.Error(w, "blog not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		log.Errorf("%s failed: %s", op, err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}

func decodeForm(r *http.Request) (Form, error) {
	var form Form
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			return Form{}, err
		}
		return form, nil
	}
	if err := r.ParseForm(); err != nil {
		return Form{}, err
	}
	return Form{
		Title:   r.Form.Get("title"),
		Content: r.Form.Get("content"),
	}, nil
}

func (h *Handler) handleNew(w http.ResponseWriter, r *http.Request) {
	author, ok := requester(w, r)
	if !ok {
		return
	}

	form, err := decodeForm(r)
	if err != nil {
		log.Errorf("new blog, decode params: %s", err)
		http.Error(w, "add blog failed", http.StatusBadRequest)
		return
	}

	b, err := h.service.CreateDraft(r.Context(), author, form)
	if err != nil {
		writeError(w, "add new blog", err)
		return
	}

	log.Tracef("new blog %d: [%s] added", b.ID, b.Title)
	pkg.WriteJSON(w, BlogResponse{Blog: b, Route: RouteDrafts}, http.StatusCreated)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	author, ok := requester(w, r)
	if !ok {
		return
	}
	id, ok := blogIDVar(w, r)
	if !ok {
		return
	}

	b, err := h.service.Publish(r.Context(), author, id)
	if err != nil {
		writeError(w, "publish blog", err)
		return
	}

	pkg.WriteJSONOK(w, BlogResponse{Blog: b, Route: RoutePublished})
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	author, ok := requester(w, r)
	if !ok {
		return
	}
	id, ok := blogIDVar(w, r)
	if !ok {
		return
	}

	form, err := decodeForm(r)
	if err != nil {
		log.Errorf("edit blog, decode params: %s", err)
		http.Error(w, "edit blog failed", http.StatusBadRequest)
		return
	}

	b, route, err := h.service.Edit(r.Context(), author, id, form)
	if err != nil {
		writeError(w, "edit blog", err)
		return
	}

	pkg.WriteJSONOK(w, BlogResponse{Blog: b, Route: route})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	author, ok := requester(w, r)
	if !ok {
		return
	}
	id, ok := blogIDVar(w, r)
	if !ok {
		return
	}

	isPublished := r.URL.Query().Get("published") == "1"
	route, err := h.service.Delete(r.Context(), author, id, isPublished)
	if err != nil {
		writeError(w, "delete blog", err)
		return
	}

	log.Tracef("blog %d deleted", id)
	pkg.WriteJSONOK(w, RouteResponse{Route: route})
}

func (h *Handler) handleLike(w http.ResponseWriter, r *http.Request) {
	user, ok := requester(w, r)
	if !ok {
		return
	}

	var req likeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("like blog, unmarshal json params: %s", err)
		http.Error(w, "like blog failed", http.StatusBadRequest)
		return
	}

	res, err := h.service.ToggleLike(r.Context(), user, req.BlogID)
	if err != nil {
		writeError(w, "like blog", err)
		return
	}

	pkg.WriteJSONOK(w, res)
}

func (h *Handler) handleComment(w http.ResponseWriter, r *http.Request) {
	user, ok := requester(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("comment blog, unmarshal json params: %s", err)
		http.Error(w, "comment blog failed", http.StatusBadRequest)
		return
	}

	comments, err := h.service.AddComment(r.Context(), user, req.BlogID, req.Comment)
	if err != nil {
		writeError(w, "comment blog", err)
		return
	}

	pkg.WriteJSONOK(w, comments)
}

func (h *Handler) handleComments(w http.ResponseWriter, r *http.Request) {
	if _, ok := requester(w, r); !ok {
		return
	}
	id, ok := blogIDVar(w, r)
	if !ok {
		return
	}

	comments, err := h.service.Comments(r.Context(), id)
	if err != nil {
		writeError(w, "get comments", err)
		return
	}

	pkg.WriteJSONOK(w, comments)
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	viewer, ok := requester(w, r)
	if !ok {
		return
	}
	id, ok := blogIDVar(w, r)
	if !ok {
		return
	}

	detail, err := h.service.View(r.Context(), viewer, id, mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, "view blog", err)
		return
	}

	pkg.WriteJSONOK(w, detail)
}

func (h *Handler) handleViewDraft(w http.ResponseWriter, r *http.Request) {
	author, ok := requester(w, r)
	if !ok {
		return
	}
	id, ok := blogIDVar(w, r)
	if !ok {
		return
	}

	detail, err := h.service.ViewDraft(r.Context(), author, id, mux.Vars(r)["slug"])
	if err != nil {
		writeError(w, "view draft", err)
		return
	}

	pkg.WriteJSONOK(w, detail)
}

func (h *Handler) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	author, ok := requester(w, r)
	if !ok {
		return
	}

	blogs, err := h.service.ListDrafts(r.Context(), author)
	if err != nil {
		writeError(w, "list drafts", err)
		return
	}

	pkg.WriteJSONOK(w, ListResponse{Blogs: blogs, Total: len(blogs)})
}

func (h *Handler) handleListPublished(w http.ResponseWriter, r *http.Request) {
	author, ok := requester(w, r)
	if !ok {
		return
	}

	blogs, err := h.service.ListPublished(r.Context(), author)
	if err != nil {
		writeError(w, "list published", err)
		return
	}

	pkg.WriteJSONOK(w, ListResponse{Blogs: blogs, Total: len(blogs)})
}
