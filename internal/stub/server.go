// Package stub is a development backend implementing the study service's
// HTTP contract over in-memory state, so the client can be exercised end to
// end without the real service.
package stub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"studymate/internal/model"
)

// Responder produces the assistant's reply to a chat question, optionally
// with a suggested follow-up question.
type Responder interface {
	Reply(ctx context.Context, question string, history []model.ChatHistoryEntry) (reply, followUp string, err error)
}

type attempt struct {
	id          int64
	studentID   string
	template    model.ExamTemplate
	startedAt   time.Time
	completedAt *time.Time
	status      model.AttemptStatus
	current     *gradedQuestion
	asked       int
	correct     int
	stats       model.DifficultyBreakdown
	log         []model.AnswerLogEntry
}

type chatSession struct {
	id         string
	exchanges  []model.ChatHistoryEntry
	lastActive time.Time
}

// Server holds all stub state behind one lock; traffic is a single
// developer, not a fleet.
type Server struct {
	responder Responder

	mu             sync.Mutex
	nextTemplateID int64
	nextAttemptID  int64
	nextQuestionID int64
	nextSessionID  int64
	nextExchangeID int64
	templates      map[int64]model.ExamTemplate
	attempts       map[int64]*attempt
	sessions       map[string]*chatSession
}

// NewServer creates a stub backend answering chat via the given responder.
func NewServer(responder Responder) *Server {
	return &Server{
		responder: responder,
		templates: make(map[int64]model.ExamTemplate),
		attempts:  make(map[int64]*attempt),
		sessions:  make(map[string]*chatSession),
	}
}

// Routes registers all HTTP routes.
func (s *Server) Routes(r chi.Router) {
	r.Post("/api/chat", s.handleChat)
	r.Get("/api/chat/history", s.handleChatHistory)
	r.Get("/api/chat/most-recent-session", s.handleMostRecentSession)
	r.Post("/api/exam/templates", s.handleCreateTemplate)
	r.Post("/api/exam/start", s.handleStartExam)
	r.Post("/api/exam/{attemptID}/answer", s.handleSubmitAnswer)
	r.Get("/api/exam/{attemptID}/summary", s.handleSummary)
	r.Get("/api/exam/history", s.handleExamHistory)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req model.ExamTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid template payload")
		return
	}

	s.mu.Lock()
	s.nextTemplateID++
	tpl := model.ExamTemplate{
		ID:              s.nextTemplateID,
		Name:            req.Name,
		Subject:         req.Subject,
		Chapter:         req.Chapter,
		TotalQuestions:  req.TotalQuestions,
		DurationMinutes: req.DurationMinutes,
		AdaptiveEnabled: req.AdaptiveEnabled,
		CreatedAt:       time.Now().UTC(),
	}
	s.templates[tpl.ID] = tpl
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, tpl)
}

func (s *Server) handleStartExam(w http.ResponseWriter, r *http.Request) {
	var req model.StartExamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid start payload")
		return
	}
	if strings.TrimSpace(req.StudentID) == "" {
		writeError(w, http.StatusBadRequest, "studentId is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tpl, ok := s.templates[req.ExamTemplateID]
	if !ok {
		writeError(w, http.StatusNotFound, "exam template not found")
		return
	}

	s.nextAttemptID++
	s.nextQuestionID++
	first := generateQuestion(s.nextQuestionID, 0, tpl, model.DifficultyEasy)
	a := &attempt{
		id:        s.nextAttemptID,
		studentID: req.StudentID,
		template:  tpl,
		startedAt: time.Now().UTC(),
		status:    model.StatusInProgress,
		current:   &first,
		stats:     make(model.DifficultyBreakdown),
	}
	s.attempts[a.id] = a

	writeJSON(w, http.StatusOK, model.ExamAttempt{
		AttemptID:     a.id,
		Template:      tpl,
		FirstQuestion: first.question,
	})
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	attemptID, err := strconv.ParseInt(chi.URLParam(r, "attemptID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid attempt id")
		return
	}
	var sub model.AnswerSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "invalid answer payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[attemptID]
	if !ok {
		writeError(w, http.StatusNotFound, "attempt not found")
		return
	}
	if a.status != model.StatusInProgress || a.current == nil {
		writeError(w, http.StatusBadRequest, "attempt already completed")
		return
	}
	if sub.QuestionID != a.current.question.ID {
		writeError(w, http.StatusConflict, "answer does not match the current question")
		return
	}

	correct, correctOption := grade(*a.current, sub)
	a.asked++
	if correct {
		a.correct++
	}
	tallyDifficulty(a.stats, a.current.question.Difficulty, correct)
	if sub.TimeTakenSeconds < 0 {
		sub.TimeTakenSeconds = 0
	}
	a.log = append(a.log, model.AnswerLogEntry{
		QuestionID:       a.current.question.ID,
		QuestionText:     a.current.question.Text,
		SelectedOptionID: sub.SelectedOptionID,
		CorrectOptionID:  correctOption,
		IsCorrect:        correct,
		TimeTakenSeconds: sub.TimeTakenSeconds,
	})

	result := model.AnswerResult{
		IsCorrect:          correct,
		CorrectOptionID:    correctOption,
		PerDifficultyStats: cloneStats(a.stats),
	}

	if a.asked >= a.template.TotalQuestions {
		a.current = nil
		a.status = model.StatusCompleted
		now := time.Now().UTC()
		a.completedAt = &now
	} else {
		difficulty := difficultySteps[a.asked%len(difficultySteps)]
		if a.template.AdaptiveEnabled {
			difficulty = stepDifficulty(a.current.question.Difficulty, correct)
		}
		s.nextQuestionID++
		next := generateQuestion(s.nextQuestionID, a.asked, a.template, difficulty)
		a.current = &next
		result.NextQuestion = &next.question
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	attemptID, err := strconv.ParseInt(chi.URLParam(r, "attemptID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid attempt id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[attemptID]
	if !ok {
		writeError(w, http.StatusNotFound, "attempt not found")
		return
	}
	writeJSON(w, http.StatusOK, summarize(a))
}

func (s *Server) handleExamHistory(w http.ResponseWriter, r *http.Request) {
	studentID := r.URL.Query().Get("studentId")
	if studentID == "" {
		writeError(w, http.StatusBadRequest, "studentId is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []model.ExamHistoryEntry
	for _, a := range s.attempts {
		if a.studentID != studentID {
			continue
		}
		sum := summarize(a)
		entries = append(entries, model.ExamHistoryEntry{
			AttemptID:    a.id,
			TemplateName: a.template.Name,
			Subject:      a.template.Subject,
			Chapter:      a.template.Chapter,
			ScorePercent: sum.ScorePercent,
			Status:       a.status,
			StartedAt:    a.startedAt,
			CompletedAt:  a.completedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].AttemptID > entries[j].AttemptID })
	if entries == nil {
		entries = []model.ExamHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question  string `json:"question"`
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid chat payload")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	s.mu.Lock()
	sess, ok := s.sessions[req.SessionID]
	if !ok {
		s.nextSessionID++
		sess = &chatSession{id: fmt.Sprintf("sess-%d", s.nextSessionID)}
		s.sessions[sess.id] = sess
	}
	history := append([]model.ChatHistoryEntry(nil), sess.exchanges...)
	s.mu.Unlock()

	reply, followUp, err := s.responder.Reply(r.Context(), req.Question, history)
	if err != nil {
		slog.Warn("responder failed, using fallback", "error", err)
		reply = "Let me get back to you on that one."
		followUp = ""
	}

	s.mu.Lock()
	s.nextExchangeID++
	sess.exchanges = append(sess.exchanges, model.ChatHistoryEntry{
		ID:        s.nextExchangeID,
		Message:   req.Question,
		Reply:     reply,
		Timestamp: time.Now().UTC(),
	})
	sess.lastActive = time.Now().UTC()
	s.mu.Unlock()

	resp := map[string]string{
		"reply":     reply,
		"sessionId": sess.id,
	}
	if followUp != "" {
		resp["followUpQuestion"] = followUp
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	entries := sess.exchanges
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (s *Server) handleMostRecentSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *chatSession
	for _, sess := range s.sessions {
		if latest == nil || sess.lastActive.After(latest.lastActive) {
			latest = sess
		}
	}
	if latest == nil {
		writeError(w, http.StatusNotFound, "no sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"sessionId": latest.id})
}

// grade checks a submission against the served question. The correct option
// id is reported back for choice-style questions only.
func grade(q gradedQuestion, sub model.AnswerSubmission) (bool, *int) {
	switch q.question.Type {
	case model.TypeMultipleChoice:
		opt := q.correctOption
		return sub.SelectedOptionID != nil && *sub.SelectedOptionID == q.correctOption, &opt
	case model.TypeTrueFalse:
		opt := q.correctOption
		if sub.SelectedOptionID != nil {
			return *sub.SelectedOptionID == q.correctOption, &opt
		}
		return freeText(sub) == q.answer, &opt
	default:
		return freeText(sub) == strings.ToLower(q.answer), nil
	}
}

func freeText(sub model.AnswerSubmission) string {
	if sub.FreeTextAnswer == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*sub.FreeTextAnswer))
}

func tallyDifficulty(stats model.DifficultyBreakdown, d model.Difficulty, correct bool) {
	entry := stats[d]
	entry.Attempted++
	if correct {
		entry.Correct++
	}
	entry.Accuracy = float64(entry.Correct) / float64(entry.Attempted) * 100
	stats[d] = entry
}

func cloneStats(stats model.DifficultyBreakdown) model.DifficultyBreakdown {
	out := make(model.DifficultyBreakdown, len(stats))
	for k, v := range stats {
		out[k] = v
	}
	return out
}

func summarize(a *attempt) model.ExamSummary {
	score := 0.0
	if a.template.TotalQuestions > 0 {
		score = float64(a.correct) / float64(a.template.TotalQuestions) * 100
	}
	return model.ExamSummary{
		AttemptID:          a.id,
		StudentID:          a.studentID,
		Template:           a.template,
		ScorePercent:       score,
		CorrectCount:       a.correct,
		WrongCount:         a.asked - a.correct,
		TotalQuestions:     a.template.TotalQuestions,
		StartedAt:          a.startedAt,
		CompletedAt:        a.completedAt,
		Status:             a.status,
		PerDifficultyStats: cloneStats(a.stats),
		AnswerLog:          append([]model.AnswerLogEntry(nil), a.log...),
	}
}
