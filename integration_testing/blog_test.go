//go:build integration_test || all_tests

package integration_testing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/blogapp/internal/blog"
	"github.com/2beens/blogapp/internal/notification"
)

func (s *IntegrationTestSuite) inboxVerbs(ctx context.Context, u testUser) []string {
	var entries []notification.Entry
	s.decode(s.doRequest(ctx, "GET", "/notifications", u.token, nil), http.StatusOK, &entries)
	verbs := make([]string, 0, len(entries))
	for _, e := range entries {
		verbs = append(verbs, e.Verb)
	}
	return verbs
}

func (s *IntegrationTestSuite) TestAuth() {
	ctx := context.Background()

	resp := s.doRequest(ctx, "GET", "/blog/drafts", "", nil)
	s.decode(resp, http.StatusUnauthorized, nil)

	author := s.newLoggedUser(ctx)
	var list blog.ListResponse
	s.decode(s.doRequest(ctx, "GET", "/blog/drafts", author.token, nil), http.StatusOK, &list)
	s.Equal(0, list.Total)

	// duplicate registration
	s.decode(s.doRequest(ctx, "POST", "/a/register", "", map[string]string{
		"email":    author.Email,
		"password": testPassword,
	}), http.StatusConflict, nil)

	s.decode(s.doRequest(ctx, "GET", "/a/logout", author.token, nil), http.StatusOK, nil)
	s.decode(s.doRequest(ctx, "GET", "/blog/drafts", author.token, nil), http.StatusUnauthorized, nil)
}

func (s *IntegrationTestSuite) TestBlogWorkflow() {
	ctx := context.Background()

	author := s.newLoggedUser(ctx)
	reader := s.newLoggedUser(ctx)
	follower := s.newLoggedUser(ctx)

	s.decode(s.doRequest(ctx, "POST", fmt.Sprintf("/follow/%d", author.ID), follower.token, nil), http.StatusOK, nil)

	// create draft
	var created blog.BlogResponse
	s.decode(s.doRequest(ctx, "POST", "/blog/new", author.token, map[string]string{
		"title":   "Hello World",
		"content": "first <b>post</b><script>alert(1)</script>",
	}), http.StatusCreated, &created)
	s.Equal(blog.RouteDrafts, created.Route)
	s.Equal("hello-world", created.Blog.Slug)
	s.Equal("first <b>post</b>", created.Blog.Content)
	s.Equal(blog.StatusDraft, created.Blog.Status)
	blogID := created.Blog.ID

	// only the author sees the draft
	s.decode(s.doRequest(ctx, "GET", fmt.Sprintf("/blog/draft/%d/hello-world", blogID), reader.token, nil), http.StatusForbidden, nil)
	s.decode(s.doRequest(ctx, "GET", fmt.Sprintf("/blog/draft/%d/hello-world", blogID), author.token, nil), http.StatusOK, nil)

	// only the author publishes
	s.decode(s.doRequest(ctx, "POST", fmt.Sprintf("/blog/publish/%d", blogID), reader.token, nil), http.StatusForbidden, nil)
	var published blog.BlogResponse
	s.decode(s.doRequest(ctx, "POST", fmt.Sprintf("/blog/publish/%d", blogID), author.token, nil), http.StatusOK, &published)
	s.Equal(blog.StatusPublished, published.Blog.Status)

	// like, unlike, like
	for _, expectedLiked := range []bool{true, false, true} {
		var res blog.LikeResult
		s.decode(s.doRequest(ctx, "POST", "/blog/like", reader.token, map[string]int{"blog": blogID}), http.StatusOK, &res)
		s.Equal(expectedLiked, res.Liked)
	}
	s.decode(s.doRequest(ctx, "POST", "/blog/like", reader.token, map[string]int{"blog": blogID + 100}), http.StatusNotFound, nil)

	// comments, most recent first
	var feed []blog.CommentFeedItem
	s.decode(s.doRequest(ctx, "POST", "/blog/comment", reader.token, map[string]any{"blog": blogID, "comment": "nice"}), http.StatusOK, &feed)
	s.Require().Len(feed, 1)
	s.decode(s.doRequest(ctx, "POST", "/blog/comment", follower.token, map[string]any{"blog": blogID, "comment": "agreed"}), http.StatusOK, &feed)
	s.Require().Len(feed, 2)
	s.Equal("agreed", feed[0].Comment)
	s.Equal(follower.Email, feed[0].Author)
	s.Equal("nice", feed[1].Comment)

	// view
	var detail blog.Detail
	s.decode(s.doRequest(ctx, "GET", fmt.Sprintf("/blog/%d/hello-world", blogID), follower.token, nil), http.StatusOK, &detail)
	s.Equal(author.Email, detail.Author)
	s.True(detail.Follows)
	s.False(detail.Liked)
	s.Len(detail.Comments, 2)
	s.decode(s.doRequest(ctx, "GET", fmt.Sprintf("/blog/%d/wrong-slug", blogID), follower.token, nil), http.StatusNotFound, nil)

	title := "Hello World"
	s.Eventually(func() bool {
		return len(s.inboxVerbs(ctx, author)) == 8
	}, 5*time.Second, 50*time.Millisecond)
	s.Equal([]string{
		"viewed your blog " + title,
		"commented on your blog " + title,
		"commented on your blog " + title,
		"liked your blog " + title,
		"disliked your blog " + title,
		"liked your blog " + title,
		"your blog " + title + " published",
		"your blog " + title + " saved to drafts",
	}, s.inboxVerbs(ctx, author))

	s.Eventually(func() bool {
		return len(s.inboxVerbs(ctx, follower)) == 1
	}, 5*time.Second, 50*time.Millisecond)
	s.Equal([]string{"published a new blog " + title}, s.inboxVerbs(ctx, follower))

	// delete cascades to likes and comments
	var deleted blog.RouteResponse
	s.decode(s.doRequest(ctx, "DELETE", fmt.Sprintf("/blog/delete/%d?published=1", blogID), author.token, nil), http.StatusOK, &deleted)
	s.Equal(blog.RoutePublished, deleted.Route)

	var likes, comments int
	s.Require().NoError(s.DB.QueryRow(`SELECT count(*) FROM blog_like WHERE blog_id = $1`, blogID).Scan(&likes))
	s.Require().NoError(s.DB.QueryRow(`SELECT count(*) FROM blog_comment WHERE blog_id = $1`, blogID).Scan(&comments))
	s.Zero(likes)
	s.Zero(comments)

	// commenting on a missing blog yields an empty feed
	s.decode(s.doRequest(ctx, "POST", "/blog/comment", reader.token, map[string]any{"blog": blogID, "comment": "late"}), http.StatusOK, &feed)
	s.Empty(feed)
}
