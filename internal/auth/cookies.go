package auth

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	TokenHeader       = "X-BLOG-TOKEN"
	sessionCookieName = "blogapp-session"
	tokenValueKey     = "token"
)

// SessionCookies keeps the session token in a signed cookie, for browser clients.
type SessionCookies struct {
	store *sessions.CookieStore
}

func NewSessionCookies(key []byte, ttl time.Duration, secure bool) *SessionCookies {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionCookies{
		store: store,
	}
}

func (c *SessionCookies) Save(w http.ResponseWriter, r *http.Request, token string) error {
	s, err := c.store.Get(r, sessionCookieName)
	if err != nil && s == nil {
		return err
	}
	s.Values[tokenValueKey] = token
	return s.Save(r, w)
}

func (c *SessionCookies) Clear(w http.ResponseWriter, r *http.Request) error {
	s, err := c.store.Get(r, sessionCookieName)
	if err != nil && s == nil {
		return err
	}
	s.Options.MaxAge = -1
	delete(s.Values, tokenValueKey)
	return s.Save(r, w)
}

func (c *SessionCookies) token(r *http.Request) string {
	s, err := c.store.Get(r, sessionCookieName)
	if err != nil {
		return ""
	}
	token, _ := s.Values[tokenValueKey].(string)
	return token
}

// TokenFromRequest takes the token from the header, then from the session cookie.
func TokenFromRequest(r *http.Request, cookies *SessionCookies) string {
	if token := r.Header.Get(TokenHeader); token != "" {
		return token
	}
	if cookies == nil {
		return ""
	}
	return cookies.token(r)
}
