package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

// UserID returns the user owning the session token. A missing or expired
// session is reported with ok false and no error.
func (c *LoginChecker) UserID(ctx context.Context, token string) (_ int, ok bool, _ error) {
	val, err := c.redisClient.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}

	s, err := parseSession(val)
	if err != nil {
		return 0, false, err
	}
	if s.expired(c.ttl) {
		return 0, false, nil
	}

	return s.UserID, true, nil
}
