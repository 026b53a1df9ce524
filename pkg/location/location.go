// Package location models the address-bar fragment of a session.
//
// The fragment is the only durable navigation state: a reload or a deep link
// reconstructs the active route from it. Writes made by the application go
// out to the browser through a sink; writes made by the browser come in
// through Navigate. Either kind of change is announced to listeners
// asynchronously on the session loop, the way a browser fires hashchange
// after the current task.
package location

import "strings"

// Poster queues work to run after the current task.
type Poster interface {
	Post(fn func()) error
}

// Normalize returns hash with a leading "#". The empty string stays empty.
func Normalize(hash string) string {
	hash = strings.TrimSpace(hash)
	if hash == "" || hash[0] == '#' {
		return hash
	}
	return "#" + hash
}

type listener struct {
	fn func(hash string)
}

// AddressBar holds the current fragment.
type AddressBar struct {
	hash      string
	poster    Poster
	sink      func(hash string)
	listeners []*listener
}

// New creates an address bar starting at hash.
func New(poster Poster, hash string) *AddressBar {
	return &AddressBar{poster: poster, hash: Normalize(hash)}
}

// SetSink sets the function that pushes application writes to the browser.
func (a *AddressBar) SetSink(fn func(hash string)) {
	a.sink = fn
}

// Hash returns the current fragment, including the leading "#", or "".
func (a *AddressBar) Hash() string {
	return a.hash
}

// SetHash writes the fragment on behalf of the application. Writing the
// current value does nothing, and in particular fires no change.
func (a *AddressBar) SetHash(hash string) {
	if !a.update(hash) {
		return
	}
	if a.sink != nil {
		a.sink(a.hash)
	}
}

// Navigate records a fragment change made in the browser.
func (a *AddressBar) Navigate(hash string) {
	a.update(hash)
}

func (a *AddressBar) update(hash string) bool {
	hash = Normalize(hash)
	if hash == a.hash {
		return false
	}
	a.hash = hash
	a.poster.Post(a.fire)
	return true
}

// fire delivers the hash current at delivery time, like reading
// location.hash inside a hashchange handler.
func (a *AddressBar) fire() {
	snapshot := make([]*listener, len(a.listeners))
	copy(snapshot, a.listeners)
	for _, l := range snapshot {
		l.fn(a.hash)
	}
}

// OnChange registers fn to run after every fragment change.
// The returned function removes the registration.
func (a *AddressBar) OnChange(fn func(hash string)) (off func()) {
	l := &listener{fn: fn}
	a.listeners = append(a.listeners, l)
	return func() {
		for i, other := range a.listeners {
			if other == l {
				a.listeners = append(a.listeners[:i], a.listeners[i+1:]...)
				return
			}
		}
	}
}
