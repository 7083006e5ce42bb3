package middleware

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/blogapp/internal/auth"
	"github.com/2beens/blogapp/internal/telemetry/tracing"
	"github.com/2beens/blogapp/internal/users"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=middleware_test

type loginChecker interface {
	UserID(ctx context.Context, token string) (int, bool, error)
}

type userResolver interface {
	GetByID(ctx context.Context, id int) (*users.User, error)
}

// AuthMiddlewareHandler resolves the session token of every request into the
// requesting user, and puts the user into the request context.
type AuthMiddlewareHandler struct {
	loginChecker loginChecker
	users        userResolver
	cookies      *auth.SessionCookies
	allowedPaths map[string]bool
}

func NewAuthMiddlewareHandler(
	loginChecker loginChecker,
	users userResolver,
	cookies *auth.SessionCookies,
) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		loginChecker: loginChecker,
		users:        users,
		cookies:      cookies,
		allowedPaths: map[string]bool{
			"/":           true,
			"/version":    true,
			"/a/login":    true,
			"/a/logout":   true,
			"/a/register": true,
		},
	}
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.allowedPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			authToken := auth.TokenFromRequest(r, h.cookies)
			if authToken == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			userID, isLogged, err := h.loginChecker.UserID(ctx, authToken)
			if err != nil {
				log.Errorf("[failed login check] => %s: %s", r.URL.Path, err)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "check-logged-err")
				span.RecordError(err)
				return
			}
			if !isLogged {
				log.Tracef("[invalid token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "not-logged")
				return
			}

			user, err := h.users.GetByID(ctx, userID)
			if errors.Is(err, users.ErrUserNotFound) {
				log.Warnf("[auth middleware] session of a missing user %d", userID)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "user-missing")
				return
			} else if err != nil {
				log.Errorf("[auth middleware] get user %d: %s", userID, err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				span.SetStatus(codes.Error, "get-user-err")
				span.RecordError(err)
				return
			}

			span.SetAttributes(attribute.Int("user.id", user.ID))
			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(users.NewContext(r.Context(), user)))
		})
	}
}
