package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/blogapp/internal/telemetry/tracing"
	"github.com/2beens/blogapp/pkg"
)

// manual caching of blog posts not needed (at least for this use case):
// https://github.com/jackc/pgx/wiki/Automatic-Prepared-Statement-Caching

const blogColumns = `id, title, slug, content, status, author_id, created_at, updated_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, blog *Blog) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.add")
	defer span.End()

	if blog.CreatedAt.IsZero() {
		blog.CreatedAt = time.Now()
	}
	if blog.UpdatedAt.IsZero() {
		blog.UpdatedAt = blog.CreatedAt
	}

	err := r.db.QueryRow(
		ctx,
		`INSERT INTO blog (title, slug, content, status, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id;`,
		blog.Title, blog.Slug, blog.Content, blog.Status, blog.AuthorID, blog.CreatedAt, blog.UpdatedAt,
	).Scan(&blog.ID)
	if err != nil {
		return fmt.Errorf("insert blog: %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id int) (*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.get")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	rows, err := r.db.Query(ctx, `SELECT `+blogColumns+` FROM blog WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}

	blog, err := pgx.CollectOneRow(rows, rowToBlog)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}
	return blog, nil
}

// UpdateContent stores title, slug and content of the blog and loads its
// current status back into it. Status only changes through Publish.
func (r *Repo) UpdateContent(ctx context.Context, blog *Blog) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.updateContent")
	span.SetAttributes(attribute.Int("id", blog.ID))
	defer span.End()

	err := r.db.QueryRow(
		ctx,
		`UPDATE blog SET title = $1, slug = $2, content = $3, updated_at = $4 WHERE id = $5 RETURNING status`,
		blog.Title, blog.Slug, blog.Content, blog.UpdatedAt, blog.ID,
	).Scan(&blog.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBlogNotFound
		}
		return err
	}
	return nil
}

func (r *Repo) Publish(ctx context.Context, id int, publishedAt time.Time) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.publish")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	tag, err := r.db.Exec(
		ctx,
		`UPDATE blog SET status = $1, updated_at = $2 WHERE id = $3`,
		StatusPublished, publishedAt, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBlogNotFound
	}
	return nil
}

// Delete removes the blog. Likes and comments go with it (ON DELETE CASCADE).
func (r *Repo) Delete(ctx context.Context, id int) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.delete")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM blog WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBlogNotFound
	}
	return nil
}

func (r *Repo) ListByAuthor(ctx context.Context, authorID int, status Status) ([]*Blog, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.listByAuthor")
	span.SetAttributes(attribute.Int("author", authorID), attribute.String("status", status.String()))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+blogColumns+` FROM blog WHERE author_id = $1 AND status = $2 ORDER BY created_at DESC, id DESC;`,
		authorID, status,
	)
	if err != nil {
		return nil, err
	}

	blogs, err := pgx.CollectRows(rows, rowToBlog)
	if err != nil {
		return nil, fmt.Errorf("collect blogs: %w", err)
	}
	return blogs, nil
}

func rowToBlog(row pgx.CollectableRow) (*Blog, error) {
	var b Blog
	err := row.Scan(&b.ID, &b.Title, &b.Slug, &b.Content, &b.Status, &b.AuthorID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ToggleLike removes the like of the user on the blog if there is one,
// otherwise adds it. Both steps run in one transaction.
func (r *Repo) ToggleLike(ctx context.Context, userID, blogID int) (liked bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.toggleLike")
	span.SetAttributes(attribute.Int("user", userID), attribute.Int("blog", blogID))
	defer span.End()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Errorf("toggle like, rollback: %s", rbErr)
			}
		}
	}()

	tag, err := tx.Exec(ctx, `DELETE FROM blog_like WHERE user_id = $1 AND blog_id = $2`, userID, blogID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}

	if tag.RowsAffected() == 0 {
		_, err = tx.Exec(
			ctx,
			`INSERT INTO blog_like (user_id, blog_id, created_at) VALUES ($1, $2, $3)`,
			userID, blogID, time.Now(),
		)
		if err != nil {
			if pkg.IsForeignKeyViolationError(err) {
				return false, ErrBlogNotFound
			}
			return false, fmt.Errorf("insert like: %w", err)
		}
		liked = true
	}

	if err = tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return liked, nil
}

func (r *Repo) IsLiked(ctx context.Context, userID, blogID int) (bool, error) {
	var liked bool
	err := r.db.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM blog_like WHERE user_id = $1 AND blog_id = $2);`,
		userID, blogID,
	).Scan(&liked)
	if err != nil {
		return false, err
	}
	return liked, nil
}

func (r *Repo) AddComment(ctx context.Context, comment *Comment) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.addComment")
	span.SetAttributes(attribute.Int("blog", comment.BlogID))
	defer span.End()

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	err := r.db.QueryRow(
		ctx,
		`INSERT INTO blog_comment (blog_id, user_id, text, created_at) VALUES ($1, $2, $3, $4) RETURNING id;`,
		comment.BlogID, comment.UserID, comment.Text, comment.CreatedAt,
	).Scan(&comment.ID)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return ErrBlogNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// Comments returns the comments of the blog with their authors, most recent first.
func (r *Repo) Comments(ctx context.Context, blogID int) ([]CommentRow, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.blog.comments")
	span.SetAttributes(attribute.Int("blog", blogID))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT c.id, c.blog_id, c.user_id, c.text, c.created_at, u.email
		FROM blog_comment c
		JOIN blog_user u ON u.id = c.user_id
		WHERE c.blog_id = $1
		ORDER BY c.created_at DESC, c.id DESC;`,
		blogID,
	)
	if err != nil {
		return nil, err
	}

	comments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (CommentRow, error) {
		var c CommentRow
		err := row.Scan(&c.ID, &c.BlogID, &c.UserID, &c.Text, &c.CreatedAt, &c.AuthorEmail)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect comments: %w", err)
	}
	return comments, nil
}
