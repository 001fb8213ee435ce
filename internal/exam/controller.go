// Package exam drives a multi-step exam attempt: template creation, attempt
// start, per-question answer submission, and summary/history retrieval.
package exam

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"studymate/internal/api"
	"studymate/internal/i18n"
	"studymate/internal/model"
)

// Validation failures raised before any network call.
var (
	ErrStudentRequired  = errors.New("student id is required")
	ErrTemplateRequired = errors.New("exam template id is required")
	ErrNoAttempt        = errors.New("no active attempt")
	ErrNoQuestion       = errors.New("no current question")
	ErrOptionRequired   = errors.New("an option must be selected")
)

// API is the slice of the HTTP client the exam workflow consumes.
type API interface {
	CreateTemplate(ctx context.Context, req model.ExamTemplateRequest) (model.ExamTemplate, error)
	StartExam(ctx context.Context, studentID string, templateID int64) (model.ExamAttempt, error)
	SubmitAnswer(ctx context.Context, attemptID int64, sub model.AnswerSubmission) (model.AnswerResult, error)
	Summary(ctx context.Context, attemptID int64) (model.ExamSummary, error)
	ExamHistory(ctx context.Context, studentID string) ([]model.ExamHistoryEntry, error)
}

// Controller is the exam attempt state machine. A failed operation leaves
// every field untouched: the prior state stays authoritative, and the error
// is the only thing the caller gets.
type Controller struct {
	api API
	now func() time.Time

	mu         sync.Mutex
	template   *model.ExamTemplate
	attempt    *model.ExamAttempt
	current    *model.ExamQuestion
	lastResult *model.AnswerResult
	summary    *model.ExamSummary
	history    []model.ExamHistoryEntry
	completed  bool

	// answer-entry form
	selectedOption *int
	freeText       string
	questionShown  time.Time
}

// New creates a controller with no template and no attempt.
func New(a API) *Controller {
	return &Controller{api: a, now: time.Now}
}

// CreateTemplate creates a new exam template. TotalQuestions and
// DurationMinutes below 1 are clamped up, never rejected. A new template
// invalidates any prior exam context: attempt, question, result, and
// summary state are all reset on success.
func (c *Controller) CreateTemplate(ctx context.Context, req model.ExamTemplateRequest) (model.ExamTemplate, error) {
	if req.TotalQuestions < 1 {
		req.TotalQuestions = 1
	}
	if req.DurationMinutes < 1 {
		req.DurationMinutes = 1
	}

	tpl, err := c.api.CreateTemplate(ctx, req)
	if err != nil {
		return model.ExamTemplate{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.template = &tpl
	c.attempt = nil
	c.current = nil
	c.lastResult = nil
	c.summary = nil
	c.completed = false
	c.resetFormLocked()
	return tpl, nil
}

// StartAttempt begins a new attempt for the student on the given template.
func (c *Controller) StartAttempt(ctx context.Context, studentID string, templateID int64) error {
	if strings.TrimSpace(studentID) == "" {
		return ErrStudentRequired
	}
	if templateID <= 0 {
		return ErrTemplateRequired
	}

	attempt, err := c.api.StartExam(ctx, studentID, templateID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempt = &attempt
	q := attempt.FirstQuestion
	c.current = &q
	c.lastResult = nil
	c.summary = nil
	c.completed = false
	c.resetFormLocked()
	c.questionShown = c.now()
	return nil
}

// SelectOption records the chosen option id for a choice question.
func (c *Controller) SelectOption(optionID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedOption = &optionID
}

// SetFreeText records the typed answer for a free-text question.
func (c *Controller) SetFreeText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.freeText = text
}

// CanSubmit reports whether the answer form passes the validation gate:
// submission is blocked exactly when the current question is multiple
// choice and no option has been chosen.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt == nil || c.current == nil {
		return false
	}
	if c.current.Type == model.TypeMultipleChoice && c.selectedOption == nil {
		return false
	}
	return true
}

// SubmitAnswer submits the current form. For a multiple-choice question the
// submission carries the selected option id and a nil free-text answer; for
// every other type it carries the trimmed free text (nil when empty) and a
// nil option id. On success the current question advances to the response's
// nextQuestion; a nil nextQuestion completes the attempt.
func (c *Controller) SubmitAnswer(ctx context.Context) (model.AnswerResult, error) {
	c.mu.Lock()
	if c.attempt == nil {
		c.mu.Unlock()
		return model.AnswerResult{}, ErrNoAttempt
	}
	if c.current == nil {
		c.mu.Unlock()
		return model.AnswerResult{}, ErrNoQuestion
	}

	sub := model.AnswerSubmission{QuestionID: c.current.ID}
	if c.current.Type == model.TypeMultipleChoice {
		if c.selectedOption == nil {
			c.mu.Unlock()
			return model.AnswerResult{}, ErrOptionRequired
		}
		opt := *c.selectedOption
		sub.SelectedOptionID = &opt
	} else {
		if text := strings.TrimSpace(c.freeText); text != "" {
			sub.FreeTextAnswer = &text
		}
	}
	sub.TimeTakenSeconds = clampSeconds(c.now().Sub(c.questionShown))

	attemptID := c.attempt.AttemptID
	c.mu.Unlock()

	res, err := c.api.SubmitAnswer(ctx, attemptID, sub)
	if err != nil {
		return model.AnswerResult{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastResult = &res
	c.current = res.NextQuestion
	if res.NextQuestion == nil {
		c.completed = true
	}
	c.resetFormLocked()
	c.questionShown = c.now()
	return res, nil
}

// FetchSummary retrieves the attempt snapshot, replacing any prior summary
// wholesale. Valid in any attempt state, including completed.
func (c *Controller) FetchSummary(ctx context.Context) (model.ExamSummary, error) {
	c.mu.Lock()
	if c.attempt == nil {
		c.mu.Unlock()
		return model.ExamSummary{}, ErrNoAttempt
	}
	attemptID := c.attempt.AttemptID
	c.mu.Unlock()

	summary, err := c.api.Summary(ctx, attemptID)
	if err != nil {
		return model.ExamSummary{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary = &summary
	return summary, nil
}

// FetchHistory retrieves the student's attempt rollups, replacing the prior
// list wholesale.
func (c *Controller) FetchHistory(ctx context.Context, studentID string) ([]model.ExamHistoryEntry, error) {
	if strings.TrimSpace(studentID) == "" {
		return nil, ErrStudentRequired
	}

	entries, err := c.api.ExamHistory(ctx, studentID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = entries
	return entries, nil
}

// Template returns the last created template, or nil.
func (c *Controller) Template() *model.ExamTemplate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.template
}

// Attempt returns the active attempt, or nil.
func (c *Controller) Attempt() *model.ExamAttempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempt
}

// CurrentQuestion returns the question awaiting an answer, or nil.
func (c *Controller) CurrentQuestion() *model.ExamQuestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// LastResult returns the most recent submission result, or nil.
func (c *Controller) LastResult() *model.AnswerResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResult
}

// Summary returns the last fetched summary, or nil.
func (c *Controller) Summary() *model.ExamSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

// History returns the last fetched history list.
func (c *Controller) History() []model.ExamHistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history
}

// Completed reports whether the active attempt has reached its terminal
// state.
func (c *Controller) Completed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

func (c *Controller) resetFormLocked() {
	c.selectedOption = nil
	c.freeText = ""
}

func clampSeconds(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// Message maps a workflow failure to user-facing text: validation failures
// get their localized messages, API errors surface the backend's own
// message, and everything else falls back to a generic one.
func Message(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, ErrNoAttempt), errors.Is(err, ErrNoQuestion):
		return i18n.T(ctx, "ExamNoAttempt")
	case errors.Is(err, ErrOptionRequired):
		return i18n.T(ctx, "ExamChooseOption")
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return i18n.T(ctx, "ErrGeneric")
}
