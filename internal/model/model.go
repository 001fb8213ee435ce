package model

import "time"

// QuestionType represents the kind of answer a question expects.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TypeTrueFalse      QuestionType = "TRUE_FALSE"
	TypeShortAnswer    QuestionType = "SHORT_ANSWER"
)

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// AttemptStatus represents the status of an exam attempt.
type AttemptStatus string

const (
	StatusInProgress AttemptStatus = "IN_PROGRESS"
	StatusCompleted  AttemptStatus = "COMPLETED"
	StatusCancelled  AttemptStatus = "CANCELLED"
)

// QuestionOption is one selectable option of a choice-style question.
type QuestionOption struct {
	OptionID   int    `json:"optionId"`
	OptionText string `json:"optionText"`
}

// ExamQuestion is a single question served during an attempt.
// Options are present only for choice-style questions.
type ExamQuestion struct {
	ID         int64            `json:"id"`
	Subject    string           `json:"subject"`
	Chapter    string           `json:"chapter"`
	Topic      string           `json:"topic"`
	Text       string           `json:"text"`
	Type       QuestionType     `json:"type"`
	Difficulty Difficulty       `json:"difficulty"`
	Options    []QuestionOption `json:"options,omitempty"`
}

// ExamTemplate is a reusable exam definition. Immutable once created;
// owned by the backend and referenced by id from the client.
type ExamTemplate struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Subject         string    `json:"subject"`
	Chapter         string    `json:"chapter"`
	TotalQuestions  int       `json:"totalQuestions"`
	DurationMinutes int       `json:"durationMinutes"`
	AdaptiveEnabled bool      `json:"adaptiveEnabled"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ExamTemplateRequest is the payload for creating a template.
type ExamTemplateRequest struct {
	Name            string `json:"name"`
	Subject         string `json:"subject"`
	Chapter         string `json:"chapter"`
	TotalQuestions  int    `json:"totalQuestions"`
	DurationMinutes int    `json:"durationMinutes"`
	AdaptiveEnabled bool   `json:"adaptiveEnabled"`
}

// StartExamRequest is the payload for starting an attempt.
type StartExamRequest struct {
	StudentID      string `json:"studentId"`
	ExamTemplateID int64  `json:"examTemplateId"`
}

// ExamAttempt is the backend's response to a start-exam call.
type ExamAttempt struct {
	AttemptID     int64        `json:"attemptId"`
	Template      ExamTemplate `json:"template"`
	FirstQuestion ExamQuestion `json:"firstQuestion"`
}

// AnswerSubmission is an answer to the current question. Exactly one of
// SelectedOptionID and FreeTextAnswer is set, determined by the question type.
type AnswerSubmission struct {
	QuestionID       int64   `json:"questionId"`
	SelectedOptionID *int    `json:"selectedOptionId"`
	FreeTextAnswer   *string `json:"freeTextAnswer"`
	TimeTakenSeconds int     `json:"timeTakenSeconds"`
}

// DifficultyStats is a running tally for one difficulty level.
type DifficultyStats struct {
	Attempted int     `json:"attempted"`
	Correct   int     `json:"correct"`
	Accuracy  float64 `json:"accuracy"`
}

// DifficultyBreakdown maps each difficulty to its cumulative tally,
// server-computed and returned after every answer submission.
type DifficultyBreakdown map[Difficulty]DifficultyStats

// AnswerResult is the backend's response to an answer submission.
// NextQuestion is nil exactly when the attempt is complete.
type AnswerResult struct {
	IsCorrect          bool                `json:"isCorrect"`
	CorrectOptionID    *int                `json:"correctOptionId,omitempty"`
	PerDifficultyStats DifficultyBreakdown `json:"perDifficultyStats"`
	NextQuestion       *ExamQuestion       `json:"nextQuestion"`
}

// AnswerLogEntry is one answered question in a summary's answer log.
type AnswerLogEntry struct {
	QuestionID       int64  `json:"questionId"`
	QuestionText     string `json:"questionText"`
	SelectedOptionID *int   `json:"selectedOptionId"`
	CorrectOptionID  *int   `json:"correctOptionId"`
	IsCorrect        bool   `json:"isCorrect"`
	TimeTakenSeconds int    `json:"timeTakenSeconds"`
}

// ExamSummary is a read-only snapshot of an attempt.
type ExamSummary struct {
	AttemptID          int64               `json:"attemptId"`
	StudentID          string              `json:"studentId"`
	Template           ExamTemplate        `json:"template"`
	ScorePercent       float64             `json:"scorePercent"`
	CorrectCount       int                 `json:"correctCount"`
	WrongCount         int                 `json:"wrongCount"`
	TotalQuestions     int                 `json:"totalQuestions"`
	StartedAt          time.Time           `json:"startedAt"`
	CompletedAt        *time.Time          `json:"completedAt,omitempty"`
	Status             AttemptStatus       `json:"status"`
	PerDifficultyStats DifficultyBreakdown `json:"perDifficultyStats"`
	AnswerLog          []AnswerLogEntry    `json:"answerLog"`
}

// ExamHistoryEntry is a per-attempt rollup for a student.
type ExamHistoryEntry struct {
	AttemptID    int64         `json:"attemptId"`
	TemplateName string        `json:"templateName"`
	Subject      string        `json:"subject"`
	Chapter      string        `json:"chapter"`
	ScorePercent float64       `json:"scorePercent"`
	Status       AttemptStatus `json:"status"`
	StartedAt    time.Time     `json:"startedAt"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
}

// Sender identifies who produced a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatMessage is one entry in the client-local transcript. Never mutated
// after insertion; the transcript is append-only except for wholesale
// replacement during history hydration.
type ChatMessage struct {
	ID     int64     `json:"id"`
	Text   string    `json:"text"`
	Sender Sender    `json:"sender"`
	Time   time.Time `json:"time"`
}

// ChatReply is the backend's response to a sent message. All fields are
// optional; the chat workflow applies the documented fallback chain.
type ChatReply struct {
	Reply            string `json:"reply"`
	Answer           string `json:"answer"`
	SessionID        string `json:"sessionId"`
	FollowUpQuestion string `json:"followUpQuestion"`
}

// ChatHistoryEntry is one stored exchange returned by the history endpoint.
type ChatHistoryEntry struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Reply     string    `json:"reply"`
	Timestamp time.Time `json:"timestamp"`
}
