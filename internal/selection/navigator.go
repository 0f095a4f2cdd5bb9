package selection

import (
	"strings"
	"sync"
)

// Navigator abstracts the location bar. The controller drives it when
// selection changes; route handlers feed incoming paths back through
// the controller.
type Navigator interface {
	// Push records a new history entry.
	Push(path string)
	// Replace swaps the current entry without adding history.
	Replace(path string)
	// Path returns the current path.
	Path() string
}

// MemoryNavigator is an in-memory Navigator. It backs both tests and
// the per-session location state held by the HTTP layer.
type MemoryNavigator struct {
	mu      sync.Mutex
	current string
	history []string
}

// NewMemoryNavigator starts at the root path.
func NewMemoryNavigator() *MemoryNavigator {
	return &MemoryNavigator{current: RootPath}
}

func (n *MemoryNavigator) Push(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.history = append(n.history, n.current)
	n.current = path
}

func (n *MemoryNavigator) Replace(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = path
}

func (n *MemoryNavigator) Path() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Back pops one history entry, like browser back navigation, and
// returns the resulting path.
func (n *MemoryNavigator) Back() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.history) > 0 {
		n.current = n.history[len(n.history)-1]
		n.history = n.history[:len(n.history)-1]
	}
	return n.current
}

// RootPath denotes "no selection".
const RootPath = "/"

// IsEventPath reports whether a path addresses an event: a canonical
// or legacy event URL rather than the root or some unrelated page.
func IsEventPath(path string) bool {
	if strings.HasPrefix(path, "/e/") ||
		strings.HasPrefix(path, "/events/") ||
		strings.Contains(path, "?event=") {
		return true
	}
	return strings.HasPrefix(path, "/us/") && strings.Contains(path, "/events/")
}
