package writ

import (
	"strings"
	"time"
)

// Writ is a post as stored by the backend.
type Writ struct {
	Key         string      `json:"_key,omitempty"`
	Type        string      `json:"type,omitempty"`
	Title       string      `json:"title,omitempty"`
	AuthorKey   string      `json:"authorkey,omitempty"`
	Author      string      `json:"author,omitempty"`
	Content     string      `json:"content,omitempty"`
	Injection   string      `json:"injection,omitempty"`
	Markdown    string      `json:"markdown,omitempty"`
	Description string      `json:"description,omitempty"`
	Slug        string      `json:"slug,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Edits       []time.Time `json:"edits,omitempty"`
	Created     time.Time   `json:"created,omitempty"`
	Views       int64       `json:"views,omitempty"`
	Public      bool        `json:"public,omitempty"`
	MembersOnly bool        `json:"membersonly,omitempty"`
	NoComments  bool        `json:"nocomments,omitempty"`
}

// Saveable reports whether w has enough content to be sent to the backend:
// a title and markdown longer than one character and at least one tag.
func (w *Writ) Saveable() bool {
	return w != nil &&
		len(strings.TrimSpace(w.Title)) > 1 &&
		len(strings.TrimSpace(w.Markdown)) > 1 &&
		len(w.Tags) > 0
}

// Query selects writs. The zero value lists public writs.
type Query struct {
	One                bool     `json:"one,omitempty"`
	Key                string   `json:"_key,omitempty"`
	PrivateOnly        bool     `json:"privateonly,omitempty"`
	IncludePrivate     bool     `json:"includeprivate,omitempty"`
	EditorMode         bool     `json:"editormode,omitempty"`
	IncludeMembersOnly bool     `json:"includemembersonly,omitempty"`
	Title              string   `json:"title,omitempty"`
	Slug               string   `json:"slug,omitempty"`
	Author             string   `json:"author,omitempty"`
	Limit              []int64  `json:"limit,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	Omissions          []string `json:"omissions,omitempty"`
}

// EditorQuery returns q widened the way the admin editor queries: private
// and members-only writs included, editor mode on.
func EditorQuery(q Query) Query {
	q.EditorMode = true
	q.IncludePrivate = true
	q.IncludeMembersOnly = true
	if q.Omissions == nil {
		q.Omissions = []string{}
	}
	return q
}

// SplitTitle splits editor text of the form "# Title\n\nbody" into the
// title and the markdown body. Text without a leading heading has no title.
func SplitTitle(text string) (title, body string) {
	text = strings.TrimLeft(text, "\r\n")
	if !strings.HasPrefix(text, "# ") {
		return "", text
	}
	line, rest, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(line[2:]), strings.TrimLeft(rest, "\r\n")
}

// JoinTitle is the inverse of SplitTitle.
func JoinTitle(title, body string) string {
	if title == "" {
		return body
	}
	return "# " + title + "\n\n" + body
}
