package router

import "sync"

// Location is one entry in the navigation history.
// From is set on redirects to the path that was originally requested.
type Location struct {
	Path string
	From string
}

// History is an in-memory navigation stack with change listeners
type History struct {
	lock    sync.Mutex
	entries []Location

	listenerLock sync.Mutex
	listeners    map[int]func(Location)
	nextListener int
}

func NewHistory(initial string) *History {
	if initial == "" {
		initial = HomePath
	}
	return &History{
		entries:   []Location{{Path: initial}},
		listeners: make(map[int]func(Location)),
	}
}

// Navigate pushes path as a new entry
func (h *History) Navigate(path string) {
	h.Push(Location{Path: path})
}

func (h *History) Push(loc Location) {
	h.lock.Lock()
	h.entries = append(h.entries, loc)
	h.lock.Unlock()
	h.notify(loc)
}

// Replace overwrites the current entry
func (h *History) Replace(loc Location) {
	h.replace(loc)
	h.notify(loc)
}

// Back pops the current entry. It returns false when there is nothing to go back to.
func (h *History) Back() bool {
	h.lock.Lock()
	if len(h.entries) < 2 {
		h.lock.Unlock()
		return false
	}
	h.entries = h.entries[:len(h.entries)-1]
	loc := h.entries[len(h.entries)-1]
	h.lock.Unlock()

	h.notify(loc)
	return true
}

func (h *History) Current() Location {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.entries[len(h.entries)-1]
}

func (h *History) Len() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.entries)
}

// Listen registers fn for every change of the current location
func (h *History) Listen(fn func(Location)) func() {
	h.listenerLock.Lock()
	defer h.listenerLock.Unlock()

	id := h.nextListener
	h.nextListener++
	h.listeners[id] = fn

	return func() {
		h.listenerLock.Lock()
		defer h.listenerLock.Unlock()
		delete(h.listeners, id)
	}
}

// replace overwrites the current entry without notifying listeners
func (h *History) replace(loc Location) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.entries[len(h.entries)-1] = loc
}

func (h *History) notify(loc Location) {
	h.listenerLock.Lock()
	listeners := make([]func(Location), 0, len(h.listeners))
	for _, fn := range h.listeners {
		listeners = append(listeners, fn)
	}
	h.listenerLock.Unlock()

	for _, fn := range listeners {
		fn(loc)
	}
}
