package blog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrBlogNotFound = errors.New("blog not found")
	ErrForbidden    = errors.New("requester is not the author")
)

// CommentTimestampLayout is how comment timestamps are shown in the feed.
const CommentTimestampLayout = "2006-01-02    15:04 PM"

type Status int

const (
	StatusDraft Status = iota
	StatusPublished
)

func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusPublished:
		return "published"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Blog author is set once on creation and never changes.
// Status only ever moves from draft to published.
type Blog struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	Status    Status    `json:"status"`
	AuthorID  int       `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Blog) IsPublished() bool {
	return b.Status == StatusPublished
}

type Comment struct {
	ID        int       `json:"id"`
	BlogID    int       `json:"blog_id"`
	UserID    int       `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentRow is a comment joined with its author's email.
type CommentRow struct {
	Comment
	AuthorEmail string
}

type CommentFeedItem struct {
	Comment   string `json:"comment"`
	Timestamp string `json:"timestamp"`
	Author    string `json:"author"`
}

// feed orders the rows most recent first and projects them into feed items.
func feed(rows []CommentRow) []CommentFeedItem {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	items := make([]CommentFeedItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, CommentFeedItem{
			Comment:   r.Text,
			Timestamp: r.CreatedAt.Format(CommentTimestampLayout),
			Author:    r.AuthorEmail,
		})
	}
	return items
}

// Detail is what a viewer gets when opening a blog.
type Detail struct {
	Blog     *Blog             `json:"blog"`
	Author   string            `json:"author"`
	Liked    bool              `json:"liked"`
	Follows  bool              `json:"follows"`
	Comments []CommentFeedItem `json:"comments"`
}

type LikeResult struct {
	Liked bool `json:"liked"`
}

// RouteHint tells the client which view to navigate to after a mutation.
type RouteHint string

const (
	RouteDrafts        RouteHint = "drafts"
	RoutePublished     RouteHint = "published"
	RouteDraftView     RouteHint = "draft-view"
	RoutePublishedView RouteHint = "published-view"
)

// ValidationError carries a message per rejected form field.
type ValidationError struct {
	Fields map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	sort.Strings(parts)
	return "invalid blog: " + strings.Join(parts, ", ")
}
