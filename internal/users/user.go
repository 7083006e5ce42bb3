package users

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidEmail = errors.New("invalid email")
	ErrWeakPassword = errors.New("password too short")
	ErrSelfFollow   = errors.New("cannot follow yourself")
)

const minPasswordChars = 8

// User identity (email) never changes after registration.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Follow pairs a follower with the author they follow.
type Follow struct {
	UserID    int       `json:"user_id"`
	AuthorID  int       `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}
