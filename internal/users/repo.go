package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/blogapp/internal/telemetry/tracing"
	"github.com/2beens/blogapp/pkg"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, user *User) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.add")
	defer span.End()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.Email = strings.ToLower(user.Email)

	err := r.db.QueryRow(
		ctx,
		`INSERT INTO blog_user (email, password_hash, created_at) VALUES ($1, $2, $3) RETURNING id;`,
		user.Email, user.PasswordHash, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

func (r *Repo) GetByID(ctx context.Context, id int) (*User, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getById")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	return r.getOne(ctx, `SELECT id, email, password_hash, created_at FROM blog_user WHERE id = $1;`, id)
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.getByEmail")
	defer span.End()

	return r.getOne(
		ctx,
		`SELECT id, email, password_hash, created_at FROM blog_user WHERE email = $1;`,
		strings.ToLower(email),
	)
}

func (r *Repo) getOne(ctx context.Context, query string, args ...any) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Follow is a no-op if the follow already exists.
func (r *Repo) Follow(ctx context.Context, followerID, authorID int) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.follow")
	defer span.End()

	_, err := r.db.Exec(
		ctx,
		`INSERT INTO follow (user_id, author_id, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, author_id) DO NOTHING;`,
		followerID, authorID, time.Now(),
	)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("insert follow: %w", err)
	}
	return nil
}

func (r *Repo) Unfollow(ctx context.Context, followerID, authorID int) (bool, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.unfollow")
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM follow WHERE user_id = $1 AND author_id = $2`, followerID, authorID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		log.Tracef("user %d was not following %d", followerID, authorID)
		return false, nil
	}
	return true, nil
}

func (r *Repo) FollowerIDs(ctx context.Context, authorID int) ([]int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.followerIds")
	span.SetAttributes(attribute.Int("author", authorID))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT user_id FROM follow WHERE author_id = $1 ORDER BY created_at;`,
		authorID,
	)
	if err != nil {
		return nil, err
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("collect follower ids: %w", err)
	}
	return ids, nil
}

func (r *Repo) IsFollowing(ctx context.Context, followerID, authorID int) (bool, error) {
	var following bool
	err := r.db.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM follow WHERE user_id = $1 AND author_id = $2);`,
		followerID, authorID,
	).Scan(&following)
	if err != nil {
		return false, err
	}
	return following, nil
}
