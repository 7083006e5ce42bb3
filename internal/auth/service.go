package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/blogapp/internal/telemetry/tracing"
	"github.com/2beens/blogapp/internal/users"
	"github.com/2beens/blogapp/pkg"
)

var ErrWrongCredentials = errors.New("wrong credentials")

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentialStore interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
}

type Service struct {
	redisClient *redis.Client
	ttl         time.Duration
	credentials credentialStore
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewAuthService(
	credentials credentialStore,
	ttl time.Duration,
	redisClient *redis.Client,
) *Service {
	return &Service{
		credentials:    credentials,
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

// Login checks the credentials and opens a new session for the user.
func (as *Service) Login(ctx context.Context, creds Credentials, createdAt time.Time) (_ string, _ *users.User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.login")
	defer func() {
		if err != nil && !errors.Is(err, ErrWrongCredentials) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	user, err := as.credentials.GetByEmail(ctx, creds.Email)
	if errors.Is(err, users.ErrUserNotFound) {
		return "", nil, ErrWrongCredentials
	} else if err != nil {
		return "", nil, fmt.Errorf("get user: %w", err)
	}
	if !pkg.CheckPasswordHash(creds.Password, user.PasswordHash) {
		return "", nil, ErrWrongCredentials
	}

	token, err := as.RandStringFunc(tokenLength)
	if err != nil {
		return "", nil, err
	}

	s := session{UserID: user.ID, CreatedAt: createdAt}
	if err := as.redisClient.Set(ctx, sessionKey(token), s.String(), 0).Err(); err != nil {
		return "", nil, err
	}

	// add token to list of sessions
	if err := as.redisClient.SAdd(ctx, tokensSetKey, token).Err(); err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// Logout removes the session. It reports false if there was no such session.
func (as *Service) Logout(ctx context.Context, token string) (bool, error) {
	deleted, err := as.redisClient.Del(ctx, sessionKey(token)).Result()
	if err != nil {
		return false, err
	}

	// remove token from the list of sessions
	if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
		return false, err
	}

	return deleted > 0, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (as *Service) ScanAndClean(ctx context.Context) {
	sessionTokens, err := as.redisClient.SMembers(ctx, tokensSetKey).Result()
	if err != nil {
		log.Errorf("!!! auth service, scan and clean, get sessions: %s", err)
		return
	}

	if len(sessionTokens) == 0 {
		log.Warnln("=> auth service, scan and clean abort, no sessions")
		return
	}

	log.Warnf("=> auth service, scan and clean [%d sessions] start ...", len(sessionTokens))
	var toRemove []string
	for _, token := range sessionTokens {
		val, err := as.redisClient.Get(ctx, sessionKey(token)).Result()
		if errors.Is(err, redis.Nil) {
			// session gone, only the token is left in the set
			toRemove = append(toRemove, token)
			continue
		} else if err != nil {
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}

		s, err := parseSession(val)
		if err != nil {
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			toRemove = append(toRemove, token)
			continue
		}

		if s.expired(as.ttl) {
			log.Warnf("=>\twill clean the session of user %d", s.UserID)
			toRemove = append(toRemove, token)
		}
	}

	for _, token := range toRemove {
		if err := as.redisClient.Del(ctx, sessionKey(token)).Err(); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
			continue
		}

		// remove token from the list of sessions
		if err := as.redisClient.SRem(ctx, tokensSetKey, token).Err(); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", token, err)
			continue
		}
	}
}
