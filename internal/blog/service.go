package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/blogapp/internal/notification"
	"github.com/2beens/blogapp/internal/telemetry/metrics"
	"github.com/2beens/blogapp/internal/telemetry/tracing"
	"github.com/2beens/blogapp/internal/users"
)

type blogRepo interface {
	Add(ctx context.Context, blog *Blog) error
	Get(ctx context.Context, id int) (*Blog, error)
	UpdateContent(ctx context.Context, blog *Blog) error
	Publish(ctx context.Context, id int, publishedAt time.Time) error
	Delete(ctx context.Context, id int) error
	ListByAuthor(ctx context.Context, authorID int, status Status) ([]*Blog, error)
	ToggleLike(ctx context.Context, userID, blogID int) (liked bool, err error)
	IsLiked(ctx context.Context, userID, blogID int) (bool, error)
	AddComment(ctx context.Context, comment *Comment) error
	Comments(ctx context.Context, blogID int) ([]CommentRow, error)
}

var _ blogRepo = (*Repo)(nil)

// Service owns the blog lifecycle (draft, publish, edit, delete) and the
// social interactions on it (likes, comments, views).
// Every operation gets the requester explicitly.
type Service struct {
	repo     blogRepo
	users    userDirectory
	notifier notification.Emitter
	metrics  *metrics.Manager

	// ability to inject the clock in tests
	NowFunc func() time.Time
}

func NewService(
	repo blogRepo,
	users userDirectory,
	notifier notification.Emitter,
	metricsManager *metrics.Manager,
) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		notifier: notifier,
		metrics:  metricsManager,
		NowFunc:  time.Now,
	}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	ctx, span := tracing.GlobalTracer.Start(ctx, name)
	span.SetAttributes(attrs...)
	return ctx, func(err error) {
		if err != nil && !isClientError(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func isClientError(err error) bool {
	var validationErr *ValidationError
	return errors.Is(err, ErrBlogNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.As(err, &validationErr)
}

func (s *Service) notify(ctx context.Context, actor *users.User, verb string, recipients ...int) {
	if len(recipients) == 0 {
		return
	}
	s.notifier.Emit(ctx, notification.Event{
		ActorID:    actor.ID,
		Actor:      actor.Email,
		Recipients: recipients,
		Verb:       verb,
		Timestamp:  s.NowFunc(),
	})
}

// notifyAuthor sends the verb to the blog author, unless the actor is the author.
func (s *Service) notifyAuthor(ctx context.Context, actor *users.User, b *Blog, verb string) {
	if actor.ID == b.AuthorID {
		return
	}
	s.notify(ctx, actor, verb, b.AuthorID)
}

// getOwned returns the blog only if the requester is its author.
func (s *Service) getOwned(ctx context.Context, requester *users.User, blogID int) (*Blog, error) {
	b, err := s.repo.Get(ctx, blogID)
	if err != nil {
		return nil, err
	}
	if b.AuthorID != requester.ID {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *Service) CreateDraft(ctx context.Context, author *users.User, form Form) (_ *Blog, err error) {
	ctx, end := startSpan(ctx, "service.blog.createDraft")
	defer func() { end(err) }()

	cleaned, err := form.clean()
	if err != nil {
		return nil, err
	}

	now := s.NowFunc()
	b := &Blog{
		Title:     cleaned.Title,
		Slug:      makeSlug(cleaned.Title),
		Content:   cleaned.Content,
		Status:    StatusDraft,
		AuthorID:  author.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Add(ctx, b); err != nil {
		return nil, fmt.Errorf("add draft: %w", err)
	}

	s.metrics.CounterBlogsCreated.Inc()
	s.notify(ctx, author, fmt.Sprintf("your blog %s saved to drafts", b.Title), author.ID)

	log.Debugf("blog %d [%s] saved to drafts by %d", b.ID, b.Title, author.ID)
	return b, nil
}

// Publish moves the blog to published and tells the author and all of the
// author's followers. Publishing an already published blog publishes and
// notifies again.
func (s *Service) Publish(ctx context.Context, requester *users.User, blogID int) (_ *Blog, err error) {
	ctx, end := startSpan(ctx, "service.blog.publish", attribute.Int("blog.id", blogID))
	defer func() { end(err) }()

	b, err := s.getOwned(ctx, requester, blogID)
	if err != nil {
		return nil, err
	}
	followers, err := s.users.FollowerIDs(ctx, b.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("get followers of %d: %w", b.AuthorID, err)
	}

	b.Status = StatusPublished
	b.UpdatedAt = s.NowFunc()
	if err := s.repo.Publish(ctx, b.ID, b.UpdatedAt); err != nil {
		return nil, fmt.Errorf("publish blog %d: %w", blogID, err)
	}
	s.metrics.CounterBlogsPublished.Inc()

	s.notify(ctx, requester, fmt.Sprintf("your blog %s published", b.Title), requester.ID)
	s.notify(ctx, requester, fmt.Sprintf("published a new blog %s", b.Title), followers...)

	log.Debugf("blog %d published, %d followers notified", b.ID, len(followers))
	return b, nil
}

// Delete removes the blog together with its likes and comments.
// isPublished only decides where the client goes next.
func (s *Service) Delete(ctx context.Context, requester *users.User, blogID int, isPublished bool) (_ RouteHint, err error) {
	ctx, end := startSpan(ctx, "service.blog.delete", attribute.Int("blog.id", blogID))
	defer func() { end(err) }()

	if _, err := s.getOwned(ctx, requester, blogID); err != nil {
		return "", err
	}
	if err := s.repo.Delete(ctx, blogID); err != nil {
		return "", fmt.Errorf("delete blog %d: %w", blogID, err)
	}

	if isPublished {
		return RoutePublished, nil
	}
	return RouteDrafts, nil
}

// Edit replaces title and content and derives a new slug. Status is kept.
func (s *Service) Edit(ctx context.Context, requester *users.User, blogID int, form Form) (_ *Blog, _ RouteHint, err error) {
	ctx, end := startSpan(ctx, "service.blog.edit", attribute.Int("blog.id", blogID))
	defer func() { end(err) }()

	b, err := s.getOwned(ctx, requester, blogID)
	if err != nil {
		return nil, "", err
	}
	cleaned, err := form.clean()
	if err != nil {
		return nil, "", err
	}

	b.Title = cleaned.Title
	b.Slug = makeSlug(cleaned.Title)
	b.Content = cleaned.Content
	b.UpdatedAt = s.NowFunc()
	if err := s.repo.UpdateContent(ctx, b); err != nil {
		return nil, "", fmt.Errorf("update blog %d: %w", blogID, err)
	}

	if b.IsPublished() {
		return b, RoutePublishedView, nil
	}
	return b, RouteDraftView, nil
}

// ToggleLike likes the blog if the user did not like it yet, otherwise the
// like is removed.
func (s *Service) ToggleLike(ctx context.Context, requester *users.User, blogID int) (_ LikeResult, err error) {
	ctx, end := startSpan(ctx, "service.blog.toggleLike", attribute.Int("blog.id", blogID))
	defer func() { end(err) }()

	b, err := s.repo.Get(ctx, blogID)
	if err != nil {
		return LikeResult{}, err
	}

	liked, err := s.repo.ToggleLike(ctx, requester.ID, blogID)
	if err != nil {
		return LikeResult{}, fmt.Errorf("toggle like of %d on %d: %w", requester.ID, blogID, err)
	}

	s.metrics.CounterLikes.WithLabelValues(fmt.Sprint(liked)).Inc()
	if liked {
		s.notifyAuthor(ctx, requester, b, fmt.Sprintf("liked your blog %s", b.Title))
	} else {
		s.notifyAuthor(ctx, requester, b, fmt.Sprintf("disliked your blog %s", b.Title))
	}

	return LikeResult{Liked: liked}, nil
}

// AddComment appends the comment and returns the blog's comment feed.
// Empty text or a missing blog leave everything as is.
func (s *Service) AddComment(ctx context.Context, requester *users.User, blogID int, text string) (_ []CommentFeedItem, err error) {
	ctx, end := startSpan(ctx, "service.blog.addComment", attribute.Int("blog.id", blogID))
	defer func() { end(err) }()

	b, err := s.repo.Get(ctx, blogID)
	if errors.Is(err, ErrBlogNotFound) {
		return []CommentFeedItem{}, nil
	} else if err != nil {
		return nil, err
	}

	if text = cleanComment(text); text != "" {
		comment := &Comment{
			BlogID:    blogID,
			UserID:    requester.ID,
			Text:      text,
			CreatedAt: s.NowFunc(),
		}
		if err := s.repo.AddComment(ctx, comment); err != nil {
			return nil, fmt.Errorf("add comment on %d: %w", blogID, err)
		}
		s.metrics.CounterComments.Inc()
		s.notifyAuthor(ctx, requester, b, fmt.Sprintf("commented on your blog %s", b.Title))
	}

	return s.comments(ctx, blogID)
}

func (s *Service) Comments(ctx context.Context, blogID int) (_ []CommentFeedItem, err error) {
	ctx, end := startSpan(ctx, "service.blog.comments", attribute.Int("blog.id", blogID))
	defer func() { end(err) }()

	if _, err := s.repo.Get(ctx, blogID); err != nil {
		return nil, err
	}
	return s.comments(ctx, blogID)
}

func (s *Service) comments(ctx context.Context, blogID int) ([]CommentFeedItem, error) {
	rows, err := s.repo.Comments(ctx, blogID)
	if err != nil {
		return nil, fmt.Errorf("get comments of %d: %w", blogID, err)
	}
	return feed(rows), nil
}

// View resolves a blog by id and slug, and tells the author about the view.
func (s *Service) View(ctx context.Context, viewer *users.User, blogID int, slug string) (_ *Detail, err error) {
	ctx, end := startSpan(ctx, "service.blog.view", attribute.Int("blog.id", blogID))
	defer func() { end(err) }()

	b, err := s.getBySlug(ctx, blogID, slug)
	if err != nil {
		return nil, err
	}

	detail, err := s.detail(ctx, viewer, b)
	if err != nil {
		return nil, err
	}

	s.notifyAuthor(ctx, viewer, b, fmt.Sprintf("viewed your blog %s", b.Title))
	return detail, nil
}

// ViewDraft is the author's own view of a blog. Nobody is notified.
func (s *Service) ViewDraft(ctx context.Context, requester *users.User, blogID int, slug string) (_ *Detail, err error) {
	ctx, end := startSpan(ctx, "service.blog.viewDraft", attribute.Int("blog.id", blogID))
	defer func() { end(err) }()

	b, err := s.getBySlug(ctx, blogID, slug)
	if err != nil {
		return nil, err
	}
	if b.AuthorID != requester.ID {
		return nil, ErrForbidden
	}
	return s.detail(ctx, requester, b)
}

func (s *Service) getBySlug(ctx context.Context, blogID int, slug string) (*Blog, error) {
	b, err := s.repo.Get(ctx, blogID)
	if err != nil {
		return nil, err
	}
	if b.Slug != slug {
		return nil, ErrBlogNotFound
	}
	return b, nil
}

func (s *Service) detail(ctx context.Context, viewer *users.User, b *Blog) (*Detail, error) {
	author, err := s.users.GetByID(ctx, b.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("get author %d: %w", b.AuthorID, err)
	}
	liked, err := s.repo.IsLiked(ctx, viewer.ID, b.ID)
	if err != nil {
		return nil, fmt.Errorf("get like of %d on %d: %w", viewer.ID, b.ID, err)
	}
	follows, err := s.users.IsFollowing(ctx, viewer.ID, b.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("get follow of %d on %d: %w", viewer.ID, b.AuthorID, err)
	}
	comments, err := s.comments(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	return &Detail{
		Blog:     b,
		Author:   author.Email,
		Liked:    liked,
		Follows:  follows,
		Comments: comments,
	}, nil
}

func (s *Service) ListDrafts(ctx context.Context, author *users.User) ([]*Blog, error) {
	return s.list(ctx, author, StatusDraft)
}

func (s *Service) ListPublished(ctx context.Context, author *users.User) ([]*Blog, error) {
	return s.list(ctx, author, StatusPublished)
}

func (s *Service) list(ctx context.Context, author *users.User, status Status) (_ []*Blog, err error) {
	ctx, end := startSpan(ctx, "service.blog.list", attribute.String("status", status.String()))
	defer func() { end(err) }()

	blogs, err := s.repo.ListByAuthor(ctx, author.ID, status)
	if err != nil {
		return nil, fmt.Errorf("list %s blogs of %d: %w", status, author.ID, err)
	}
	return blogs, nil
}
