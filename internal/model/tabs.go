package model

import "sync"

// Tab identifies one of the two screens.
type Tab string

const (
	TabChat Tab = "chat"
	TabExam Tab = "exam"
)

// Tabs is the shared navigation handle passed to both screens. It replaces
// ambient global state: whichever screen wants to hand off (for example the
// assistant suggesting a practice exam) calls Set and the shell reacts.
type Tabs struct {
	mu     sync.Mutex
	active Tab
}

// NewTabs creates the handle with the given initial screen.
func NewTabs(initial Tab) *Tabs {
	return &Tabs{active: initial}
}

// Active returns the currently selected screen.
func (t *Tabs) Active() Tab {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Set switches the active screen.
func (t *Tabs) Set(tab Tab) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = tab
}
