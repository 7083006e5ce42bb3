package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "blogapp-session||"
	tokensSetKey     = "blogapp-sessions"
	tokenLength      = 35
)

var errMalformedSession = errors.New("malformed session")

// session is stored in redis as "<userID>|<createdAtUnix>".
type session struct {
	UserID    int
	CreatedAt time.Time
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func (s session) String() string {
	return fmt.Sprintf("%d|%d", s.UserID, s.CreatedAt.Unix())
}

func (s session) expired(ttl time.Duration) bool {
	return time.Since(s.CreatedAt) > ttl
}

func parseSession(val string) (session, error) {
	userIDStr, createdAtStr, found := strings.Cut(val, "|")
	if !found {
		return session{}, errMalformedSession
	}
	userID, err := strconv.Atoi(userIDStr)
	if err != nil {
		return session{}, fmt.Errorf("%w: user id: %s", errMalformedSession, err)
	}
	createdAtUnix, err := strconv.ParseInt(createdAtStr, 10, 64)
	if err != nil {
		return session{}, fmt.Errorf("%w: created at: %s", errMalformedSession, err)
	}
	return session{
		UserID:    userID,
		CreatedAt: time.Unix(createdAtUnix, 0),
	}, nil
}
