// Package writ is the writ model and the client for the writ backend.
//
// A writ is a markdown post with tags, a publish flag and optional injected
// HTML. The backend that stores writs is a separate service; Client speaks
// its HTTP API. RenderBody turns a writ's markdown into a raw dom node for
// the viewer, and TagList implements the editor's tag rules.
package writ
