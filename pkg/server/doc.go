// Package server serves writdesk documents to browsers.
//
// Every WebSocket connection gets a Session: a single-threaded loop that
// owns an address bar, a hash router, a directive registry and the document
// a DocumentFactory builds on top of them. The browser shim mirrors the
// document by replacing the root element's inner HTML whenever the loop goes
// idle with a changed body.
//
// # Wire protocol
//
// Frames are JSON text messages tagged by "t".
//
// Client to server:
//
//	{"t":"hello","hash":"#writs"}        first frame, carries location.hash
//	{"t":"hash","hash":"#editor"}        browser hashchange
//	{"t":"click","id":"n42"}             click on a listening element
//	{"t":"input","id":"n43","value":"x"} changed value of a listening element
//
// Server to client:
//
//	{"t":"body","html":"..."}            new inner HTML of the root
//	{"t":"hash","hash":"#home"}          application wrote the address bar
//
// # Session Lifecycle
//
// The session runs three goroutines:
//   - ReadLoop: decodes client frames and posts them onto the loop
//   - the loop: runs the document, flushes the body when idle
//   - WriteLoop: writes queued frames and heartbeat pings
//
// Closing either side closes the session, cancels the document's in-flight
// backend calls and stops the loop.
package server
