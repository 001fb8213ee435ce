package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"studymate/internal/model"
)

// Canned is a deterministic offline responder used when no LLM endpoint is
// configured. Replies are keyed off a few obvious phrases; everything else
// gets a generic study tip.
type Canned struct {
	mu sync.Mutex
	n  int
}

// NewCanned creates an offline responder.
func NewCanned() *Canned {
	return &Canned{}
}

var cannedFollowUps = []string{
	"Would you like a practice question on this topic?",
	"Should we go over a quick example together?",
	"Do you want to try explaining it back in your own words?",
}

func (c *Canned) Reply(_ context.Context, question string, history []model.ChatHistoryEntry) (string, string, error) {
	c.mu.Lock()
	followUp := cannedFollowUps[c.n%len(cannedFollowUps)]
	c.n++
	c.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(question))
	switch {
	case q == "hi" || q == "hello" || strings.HasPrefix(q, "hello ") || strings.HasPrefix(q, "hi "):
		return "Hello! What are you studying today?", "", nil
	case strings.Contains(q, "exam") || strings.Contains(q, "test"):
		return "For exam prep, short daily sessions beat one long cram. You can also take a practice exam from the exam screen.", followUp, nil
	case len(history) == 0:
		return fmt.Sprintf("Good question. A useful way into %q is to break it into smaller parts and tackle each one.", strings.TrimSpace(question)), followUp, nil
	default:
		return fmt.Sprintf("Building on what we covered: for %q, try writing a one-sentence summary first, then fill in the details.", strings.TrimSpace(question)), followUp, nil
	}
}
