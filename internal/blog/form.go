package blog

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 100000

	fallbackSlug = "blog"
)

var (
	contentPolicy = bluemonday.UGCPolicy()
	strictPolicy  = bluemonday.StrictPolicy()
)

// Form is the author input for creating or editing a blog.
type Form struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// clean sanitizes the form and checks its constraints.
// Content is stored as sanitized HTML, the title as plain text.
func (f Form) clean() (Form, error) {
	cleaned := Form{
		Title:   plainText(f.Title),
		Content: strings.TrimSpace(contentPolicy.Sanitize(f.Content)),
	}

	fields := make(map[string]string)
	switch n := utf8.RuneCountInString(cleaned.Title); {
	case n == 0:
		fields["title"] = "this field is required"
	case n > MaxTitleLength:
		fields["title"] = fmt.Sprintf("ensure this value has at most %d characters (it has %d)", MaxTitleLength, n)
	}
	switch n := utf8.RuneCountInString(cleaned.Content); {
	case n == 0:
		fields["content"] = "this field is required"
	case n > MaxContentLength:
		fields["content"] = fmt.Sprintf("ensure this value has at most %d characters (it has %d)", MaxContentLength, n)
	}

	if len(fields) > 0 {
		return Form{}, &ValidationError{Fields: fields}
	}
	return cleaned, nil
}

func makeSlug(title string) string {
	s := slug.Make(title)
	if s == "" {
		return fallbackSlug
	}
	return s
}

func cleanComment(text string) string {
	return plainText(text)
}

// plainText drops markup but keeps the characters the user typed.
// Escaping is left to whoever renders it.
func plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
