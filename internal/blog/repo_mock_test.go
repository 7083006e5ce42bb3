package blog_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/2beens/blogapp/internal/blog"
)

type likeKey struct {
	userID, blogID int
}

// repoMock is an in-memory blog store; emails resolve comment authors.
type repoMock struct {
	mutex    sync.Mutex
	blogs    map[int]*blog.Blog
	likes    map[likeKey]bool
	comments []blog.Comment
	emails   map[int]string
	lastID   int
	err      error
}

func newRepoMock(emails map[int]string) *repoMock {
	return &repoMock{
		blogs:  make(map[int]*blog.Blog),
		likes:  make(map[likeKey]bool),
		emails: emails,
	}
}

func (r *repoMock) nextID() int {
	r.lastID++
	return r.lastID
}

func (r *repoMock) Add(_ context.Context, b *blog.Blog) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.err != nil {
		return r.err
	}

	b.ID = r.nextID()
	stored := *b
	r.blogs[b.ID] = &stored
	return nil
}

func (r *repoMock) Get(_ context.Context, id int) (*blog.Blog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.err != nil {
		return nil, r.err
	}

	b, ok := r.blogs[id]
	if !ok {
		return nil, blog.ErrBlogNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *repoMock) UpdateContent(_ context.Context, b *blog.Blog) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	stored, ok := r.blogs[b.ID]
	if !ok {
		return blog.ErrBlogNotFound
	}
	stored.Title = b.Title
	stored.Slug = b.Slug
	stored.Content = b.Content
	stored.UpdatedAt = b.UpdatedAt
	b.Status = stored.Status
	return nil
}

func (r *repoMock) Publish(_ context.Context, id int, publishedAt time.Time) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.err != nil {
		return r.err
	}

	stored, ok := r.blogs[id]
	if !ok {
		return blog.ErrBlogNotFound
	}
	stored.Status = blog.StatusPublished
	stored.UpdatedAt = publishedAt
	return nil
}

func (r *repoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.blogs[id]; !ok {
		return blog.ErrBlogNotFound
	}
	delete(r.blogs, id)

	for k := range r.likes {
		if k.blogID == id {
			delete(r.likes, k)
		}
	}
	kept := r.comments[:0]
	for _, c := range r.comments {
		if c.BlogID != id {
			kept = append(kept, c)
		}
	}
	r.comments = kept
	return nil
}

func (r *repoMock) ListByAuthor(_ context.Context, authorID int, status blog.Status) ([]*blog.Blog, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var blogs []*blog.Blog
	for id := 1; id <= r.lastID; id++ {
		b, ok := r.blogs[id]
		if ok && b.AuthorID == authorID && b.Status == status {
			copied := *b
			blogs = append(blogs, &copied)
		}
	}
	return blogs, nil
}

func (r *repoMock) ToggleLike(_ context.Context, userID, blogID int) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.blogs[blogID]; !ok {
		return false, blog.ErrBlogNotFound
	}
	k := likeKey{userID: userID, blogID: blogID}
	if r.likes[k] {
		delete(r.likes, k)
		return false, nil
	}
	r.likes[k] = true
	return true, nil
}

func (r *repoMock) IsLiked(_ context.Context, userID, blogID int) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.likes[likeKey{userID: userID, blogID: blogID}], nil
}

func (r *repoMock) LikesCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.likes)
}

func (r *repoMock) AddComment(_ context.Context, c *blog.Comment) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.blogs[c.BlogID]; !ok {
		return errors.New("blog missing")
	}
	c.ID = r.nextID()
	r.comments = append(r.comments, *c)
	return nil
}

// Comments returns rows in insertion order, ordering is up to the service.
func (r *repoMock) Comments(_ context.Context, blogID int) ([]blog.CommentRow, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var rows []blog.CommentRow
	for _, c := range r.comments {
		if c.BlogID == blogID {
			rows = append(rows, blog.CommentRow{Comment: c, AuthorEmail: r.emails[c.UserID]})
		}
	}
	return rows, nil
}

func (r *repoMock) CommentsCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.comments)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
