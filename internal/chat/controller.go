// Package chat drives the study-assistant conversation: session discovery,
// history hydration, message exchange, and the follow-up prompt lifecycle.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"studymate/internal/i18n"
	"studymate/internal/model"
)

// State is the workflow's lifecycle phase.
type State int

const (
	// StateHydrating lasts from construction until session discovery
	// finishes or the hydration timeout fires, whichever is first.
	StateHydrating State = iota
	// StateReady means the transcript is usable and messages can be sent.
	StateReady
)

// API is the slice of the HTTP client the chat workflow consumes.
type API interface {
	SendMessage(ctx context.Context, question, sessionID string) (model.ChatReply, error)
	MostRecentSession(ctx context.Context) string
	History(ctx context.Context, sessionID string, limit int) ([]model.ChatHistoryEntry, error)
}

// Config tunes the hydration phase.
type Config struct {
	HistoryLimit   int
	HydrateTimeout time.Duration
}

const (
	defaultHistoryLimit   = 20
	defaultHydrateTimeout = 4 * time.Second
)

// Controller is the chat session state machine. All exported methods are
// safe for concurrent use; state updates are serialized so a completed call
// always applies against the latest state.
type Controller struct {
	api API
	cfg Config

	mu         sync.Mutex
	state      State
	sessionID  string
	transcript []model.ChatMessage
	followUp   string
	nextID     int64
	sent       bool
	closed     bool
}

// New creates a controller in the Hydrating state.
func New(api API, cfg Config) *Controller {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.HydrateTimeout <= 0 {
		cfg.HydrateTimeout = defaultHydrateTimeout
	}
	return &Controller{api: api, cfg: cfg, state: StateHydrating}
}

// Hydrate performs the one-shot startup transition: discover a prior
// session (best-effort) and rebuild the transcript from its history. The
// call returns after at most the configured timeout; a slow backend must
// not hold the screen in its loading state. The underlying fetch is not
// cancelled on timeout — a late result is still adopted as long as the
// controller is live and the user has not sent anything yet.
func (c *Controller) Hydrate(ctx context.Context) {
	type outcome struct {
		sessionID string
		entries   []model.ChatHistoryEntry
		err       error
	}

	done := make(chan outcome, 1)
	go func() {
		sid := c.api.MostRecentSession(ctx)
		if sid == "" {
			done <- outcome{}
			return
		}
		entries, err := c.api.History(ctx, sid, c.cfg.HistoryLimit)
		done <- outcome{sessionID: sid, entries: entries, err: err}
	}()

	timer := time.NewTimer(c.cfg.HydrateTimeout)
	defer timer.Stop()

	select {
	case res := <-done:
		c.applyHydration(ctx, res.sessionID, res.entries, res.err)
	case <-timer.C:
		c.applyHydration(ctx, "", nil, nil)
		go func() {
			res := <-done
			c.applyHydration(ctx, res.sessionID, res.entries, res.err)
		}()
	}
}

func (c *Controller) applyHydration(ctx context.Context, sessionID string, entries []model.ChatHistoryEntry, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.sent {
		return
	}
	c.state = StateReady

	// A discovered session is adopted regardless of what its history
	// fetch produced: the greeting fallback is about the transcript,
	// not the session handle, and the next send must carry the id.
	if sessionID != "" {
		c.sessionID = sessionID
	}

	if err != nil || sessionID == "" || len(entries) == 0 {
		if len(c.transcript) == 0 {
			c.transcript = apply(c.transcript, replaceAll([]model.ChatMessage{
				c.newMessageLocked(i18n.T(ctx, "ChatGreeting"), model.SenderBot),
			}))
		}
		return
	}

	var msgs []model.ChatMessage
	for _, e := range entries {
		msgs = append(msgs, c.newMessageLocked(e.Message, model.SenderUser))
		if e.Reply != "" {
			msgs = append(msgs, c.newMessageLocked(e.Reply, model.SenderBot))
		}
	}
	c.transcript = apply(c.transcript, replaceAll(msgs))
}

// Send runs one message cycle. Failures never raise: a transport or HTTP
// error shows up as a connection-error bot message in the transcript,
// keeping the conversation uninterrupted.
func (c *Controller) Send(ctx context.Context, text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.sent = true
	c.followUp = ""
	c.transcript = apply(c.transcript, appendMessage(c.newMessageLocked(text, model.SenderUser)))
	sessionID := c.sessionID
	c.mu.Unlock()

	reply, err := c.api.SendMessage(ctx, text, sessionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if err != nil {
		c.transcript = apply(c.transcript, appendMessage(
			c.newMessageLocked(i18n.T(ctx, "ChatConnectionError"), model.SenderBot)))
		return
	}

	// The backend owns session continuity: a returned id always wins.
	if reply.SessionID != "" {
		c.sessionID = reply.SessionID
	}

	botText := reply.Reply
	if botText == "" {
		botText = reply.Answer
	}
	if botText == "" {
		botText = i18n.T(ctx, "ChatNoResponse")
	}

	if reply.FollowUpQuestion != "" && !isDisagreement(text) {
		c.followUp = reply.FollowUpQuestion
	}

	c.transcript = apply(c.transcript, appendMessage(c.newMessageLocked(botText, model.SenderBot)))
}

// AcceptFollowUp sends the pending follow-up prompt as if the user had
// typed it. No-op when no prompt is pending.
func (c *Controller) AcceptFollowUp(ctx context.Context) {
	c.mu.Lock()
	text := c.followUp
	c.followUp = ""
	c.mu.Unlock()
	if text == "" {
		return
	}
	c.Send(ctx, text)
}

// Close marks the controller dead; in-flight completions are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// State returns the workflow phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SessionID returns the current session handle, empty before the backend
// assigns one.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// FollowUp returns the pending follow-up prompt, empty when none.
func (c *Controller) FollowUp() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.followUp
}

// Transcript returns a copy of the visible message sequence.
func (c *Controller) Transcript() []model.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.ChatMessage, len(c.transcript))
	copy(out, c.transcript)
	return out
}

func (c *Controller) newMessageLocked(text string, sender model.Sender) model.ChatMessage {
	c.nextID++
	return model.ChatMessage{ID: c.nextID, Text: text, Sender: sender, Time: time.Now()}
}

// disagreementSignals are matched against the user's own just-sent text to
// decide whether a backend-offered follow-up should be discarded.
var (
	disagreementExact    = []string{"no", "nope", "disagree", "i disagree"}
	disagreementPrefixes = []string{"no ", "i don't"}
)

func isDisagreement(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, s := range disagreementExact {
		if t == s {
			return true
		}
	}
	for _, p := range disagreementPrefixes {
		if strings.HasPrefix(t, p) {
			return true
		}
	}
	return false
}
