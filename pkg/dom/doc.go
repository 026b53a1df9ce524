// Package dom provides the mutable document tree that writdesk renders into.
//
// Unlike an immutable virtual DOM, nodes here have identity and a parent:
// they can be moved between hosts, detached, and re-attached, which is what
// the hash router needs for reusable route views. The tree is owned by a
// single event loop and is not safe for concurrent use.
//
// # Core Types
//
// Node represents elements, text, raw HTML and templates. A template keeps its
// children in a separate, inert content list that is never part of the live
// tree. Listener is a registered event callback that can be removed with Off.
//
// # Element API
//
// Elements are created with variadic factory functions:
//
//	Element("nav",
//	    Class("menu"),
//	    Element("a", Attribute("route-link", "#home"), "Home"),
//	)
//
// # Identity
//
// Every node gets a stable ID (e.g. "n12") on creation. The ID is what the
// browser shim sends back when a rendered element is clicked.
package dom
