package writ

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/vango-dev/writdesk/pkg/dom"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.TaskList, extension.Linkify, extension.Strikethrough),
)

// MarkdownHTML converts markdown source to HTML.
func MarkdownHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("writ: convert markdown: %w", err)
	}
	return buf.String(), nil
}

// RenderBody returns the writ body as a raw node. Prerendered Content from
// the backend wins over Markdown.
func RenderBody(w *Writ) (*dom.Node, error) {
	if w.Content != "" {
		return dom.Raw(w.Content), nil
	}
	html, err := MarkdownHTML(w.Markdown)
	if err != nil {
		return nil, err
	}
	return dom.Raw(html), nil
}
