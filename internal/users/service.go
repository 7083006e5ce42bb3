package users

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/blogapp/internal/telemetry/tracing"
	"github.com/2beens/blogapp/pkg"
)

type Service struct {
	store userStore
	// ability to inject the password hash func (bcrypt is slow in unit tests)
	HashPasswordFunc func(password string) (string, error)
}

func NewService(store userStore) *Service {
	return &Service{
		store:            store,
		HashPasswordFunc: pkg.HashPassword,
	}
}

func (s *Service) Register(ctx context.Context, email, password string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.register")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, ErrInvalidEmail
	}
	if utf8.RuneCountInString(password) < minPasswordChars {
		return nil, ErrWeakPassword
	}

	hash, err := s.HashPasswordFunc(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.store.Add(ctx, u); err != nil {
		return nil, err
	}

	log.Debugf("user %d registered: %s", u.ID, u.Email)
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id int) (*User, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) Follow(ctx context.Context, follower *User, authorID int) error {
	if follower.ID == authorID {
		return ErrSelfFollow
	}
	if _, err := s.store.GetByID(ctx, authorID); err != nil {
		return err
	}
	if err := s.store.Follow(ctx, follower.ID, authorID); err != nil {
		return fmt.Errorf("follow %d: %w", authorID, err)
	}
	return nil
}

func (s *Service) Unfollow(ctx context.Context, follower *User, authorID int) (bool, error) {
	return s.store.Unfollow(ctx, follower.ID, authorID)
}
