package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogapp/internal/telemetry/tracing"
	"github.com/2beens/blogapp/internal/users"
	"github.com/2beens/blogapp/pkg"
)

type LoginResponse struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

type Handler struct {
	authService *Service
	cookies     *SessionCookies
}

func NewHandler(authService *Service, cookies *SessionCookies) *Handler {
	return &Handler{
		authService: authService,
		cookies:     cookies,
	}
}

// SetupRoutes registers login and logout on the /a account router.
func (h *Handler) SetupRoutes(accountRouter *mux.Router) {
	accountRouter.HandleFunc("/login", h.handleLogin).Methods("POST", "OPTIONS").Name("login")
	accountRouter.HandleFunc("/logout", h.handleLogout).Methods("GET", "OPTIONS").Name("logout")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	var creds Credentials
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			log.Errorf("login, unmarshal json params: %s", err)
			http.Error(w, "login failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("login failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusBadRequest)
			return
		}
		creds = Credentials{
			Email:    r.Form.Get("email"),
			Password: r.Form.Get("password"),
		}
	}

	if creds.Email == "" {
		http.Error(w, "error, email empty", http.StatusBadRequest)
		return
	}
	if creds.Password == "" {
		http.Error(w, "error, password empty", http.StatusBadRequest)
		return
	}

	token, user, err := h.authService.Login(ctx, creds, time.Now())
	if errors.Is(err, ErrWrongCredentials) {
		log.Tracef("failed login attempt for: %s", creds.Email)
		http.Error(w, "error, wrong credentials", http.StatusBadRequest)
		return
	} else if err != nil {
		log.Errorf("login failed: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	if h.cookies != nil {
		if err := h.cookies.Save(w, r, token); err != nil {
			log.Errorf("login, save session cookie: %s", err)
		}
	}

	log.Tracef("new login success: %d", user.ID)
	pkg.WriteJSONOK(w, LoginResponse{Token: token, User: user})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "authHandler.logout")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	authToken := TokenFromRequest(r, h.cookies)
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := h.authService.Logout(ctx, authToken)
	if err != nil {
		log.Errorf("logout failed => %s: %s", r.URL.Path, err)
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	if !loggedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if h.cookies != nil {
		if err := h.cookies.Clear(w, r); err != nil {
			log.Errorf("logout, clear session cookie: %s", err)
		}
	}

	log.Trace("logout success")
	pkg.WriteTextResponseOK(w, "logged-out")
}
