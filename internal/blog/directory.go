package blog

import (
	"context"

	"github.com/2beens/blogapp/internal/users"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=blog_test

// userDirectory resolves authors and follow relations.
type userDirectory interface {
	GetByID(ctx context.Context, id int) (*users.User, error)
	FollowerIDs(ctx context.Context, authorID int) ([]int, error)
	IsFollowing(ctx context.Context, followerID, authorID int) (bool, error)
}
