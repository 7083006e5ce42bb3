package notification

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogapp/internal/users"
	"github.com/2beens/blogapp/pkg"
)

const defaultListLimit = 50

type inbox interface {
	List(ctx context.Context, userID, limit int) ([]Entry, error)
}

type Handler struct {
	inbox inbox
}

func NewHandler(inbox inbox) *Handler {
	return &Handler{
		inbox: inbox,
	}
}

func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/notifications", h.HandleList).Methods("GET", "OPTIONS").Name("list-notifications")
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	requester, ok := users.FromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = l
	}

	entries, err := h.inbox.List(r.Context(), requester.ID, limit)
	if err != nil {
		log.Errorf("list notifications of %d: %s", requester.ID, err)
		http.Error(w, "failed to get notifications", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONOK(w, entries)
}
