package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogapp/pkg"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type followResponse struct {
	AuthorID int  `json:"author_id"`
	Follows  bool `json:"follows"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// SetupRoutes registers follow routes on the router and the register route
// on the (rate limited) /a account router.
func (h *Handler) SetupRoutes(router, accountRouter *mux.Router) {
	accountRouter.HandleFunc("/register", h.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	router.HandleFunc("/follow/{author}", h.HandleFollow).Methods("POST", "OPTIONS").Name("follow")
	router.HandleFunc("/follow/{author}", h.HandleUnfollow).Methods("DELETE", "OPTIONS").Name("unfollow")
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Errorf("register, unmarshal json params: %s", err)
			http.Error(w, "register failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("register failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusBadRequest)
			return
		}
		req = registerRequest{
			Email:    r.Form.Get("email"),
			Password: r.Form.Get("password"),
		}
	}

	u, err := h.service.Register(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrEmailTaken):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		log.Errorf("register %s: %s", req.Email, err)
		http.Error(w, "register failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, u, http.StatusCreated)
}

func (h *Handler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	follower, authorID, ok := h.followParams(w, r)
	if !ok {
		return
	}

	err := h.service.Follow(r.Context(), follower, authorID)
	switch {
	case errors.Is(err, ErrSelfFollow):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrUserNotFound):
		http.Error(w, "author not found", http.StatusNotFound)
		return
	case err != nil:
		log.Errorf("user %d follow %d: %s", follower.ID, authorID, err)
		http.Error(w, "follow failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONOK(w, followResponse{AuthorID: authorID, Follows: true})
}

func (h *Handler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	follower, authorID, ok := h.followParams(w, r)
	if !ok {
		return
	}

	if _, err := h.service.Unfollow(r.Context(), follower, authorID); err != nil {
		log.Errorf("user %d unfollow %d: %s", follower.ID, authorID, err)
		http.Error(w, "unfollow failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONOK(w, followResponse{AuthorID: authorID, Follows: false})
}

func (h *Handler) followParams(w http.ResponseWriter, r *http.Request) (*User, int, bool) {
	follower, ok := FromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return nil, 0, false
	}

	authorID, err := strconv.Atoi(mux.Vars(r)["author"])
	if err != nil {
		http.Error(w, "error, author id NaN", http.StatusBadRequest)
		return nil, 0, false
	}

	return follower, authorID, true
}
