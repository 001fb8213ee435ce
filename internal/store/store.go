// Package store is the local on-device archive. Completed exam summaries
// and chat transcripts are copied here after each fetch so past results
// stay browsable and exportable without the backend.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"studymate/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exam_results (
		attempt_id INTEGER PRIMARY KEY,
		student_id TEXT NOT NULL,
		template_name TEXT NOT NULL,
		subject TEXT NOT NULL,
		chapter TEXT NOT NULL,
		total_questions INTEGER NOT NULL,
		score_percent REAL NOT NULL,
		correct_count INTEGER NOT NULL,
		wrong_count INTEGER NOT NULL,
		status TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS answer_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		attempt_id INTEGER NOT NULL,
		question_id INTEGER NOT NULL,
		question_text TEXT NOT NULL,
		selected_option_id INTEGER,
		correct_option_id INTEGER,
		is_correct INTEGER NOT NULL,
		time_taken_seconds INTEGER NOT NULL,
		FOREIGN KEY (attempt_id) REFERENCES exam_results(attempt_id)
	);

	CREATE TABLE IF NOT EXISTS transcripts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		sender TEXT NOT NULL,
		text TEXT NOT NULL,
		sent_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transcripts_session ON transcripts(session_id);

	CREATE TABLE IF NOT EXISTS app_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveSummary upserts a fetched attempt summary and replaces its answer
// log. Re-fetching the same attempt must not duplicate log rows.
func (s *Store) SaveSummary(sum model.ExamSummary) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO exam_results
		 (attempt_id, student_id, template_name, subject, chapter, total_questions,
		  score_percent, correct_count, wrong_count, status, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(attempt_id) DO UPDATE SET
		  score_percent = excluded.score_percent,
		  correct_count = excluded.correct_count,
		  wrong_count = excluded.wrong_count,
		  status = excluded.status,
		  completed_at = excluded.completed_at`,
		sum.AttemptID, sum.StudentID, sum.Template.Name, sum.Template.Subject,
		sum.Template.Chapter, sum.TotalQuestions, sum.ScorePercent,
		sum.CorrectCount, sum.WrongCount, sum.Status, sum.StartedAt, sum.CompletedAt,
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM answer_log WHERE attempt_id = ?`, sum.AttemptID); err != nil {
		return err
	}
	for _, e := range sum.AnswerLog {
		_, err := tx.Exec(
			`INSERT INTO answer_log
			 (attempt_id, question_id, question_text, selected_option_id,
			  correct_option_id, is_correct, time_taken_seconds)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sum.AttemptID, e.QuestionID, e.QuestionText, e.SelectedOptionID,
			e.CorrectOptionID, e.IsCorrect, e.TimeTakenSeconds,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListResults returns archived results, most recent attempt first.
// An empty studentID returns results for all students.
func (s *Store) ListResults(studentID string) ([]model.ExamHistoryEntry, error) {
	query := `SELECT attempt_id, template_name, subject, chapter, score_percent, status, started_at, completed_at
		 FROM exam_results`
	var args []any
	if studentID != "" {
		query += ` WHERE student_id = ?`
		args = append(args, studentID)
	}
	query += ` ORDER BY attempt_id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []model.ExamHistoryEntry
	for rows.Next() {
		var e model.ExamHistoryEntry
		if err := rows.Scan(&e.AttemptID, &e.TemplateName, &e.Subject, &e.Chapter,
			&e.ScorePercent, &e.Status, &e.StartedAt, &e.CompletedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetResult returns one archived summary with its answer log.
func (s *Store) GetResult(attemptID int64) (model.ExamSummary, error) {
	var sum model.ExamSummary
	err := s.db.QueryRow(
		`SELECT attempt_id, student_id, template_name, subject, chapter, total_questions,
		 score_percent, correct_count, wrong_count, status, started_at, completed_at
		 FROM exam_results WHERE attempt_id = ?`, attemptID,
	).Scan(&sum.AttemptID, &sum.StudentID, &sum.Template.Name, &sum.Template.Subject,
		&sum.Template.Chapter, &sum.TotalQuestions, &sum.ScorePercent,
		&sum.CorrectCount, &sum.WrongCount, &sum.Status, &sum.StartedAt, &sum.CompletedAt)
	if err != nil {
		return sum, err
	}
	sum.Template.TotalQuestions = sum.TotalQuestions

	rows, err := s.db.Query(
		`SELECT question_id, question_text, selected_option_id, correct_option_id, is_correct, time_taken_seconds
		 FROM answer_log WHERE attempt_id = ? ORDER BY id`, attemptID,
	)
	if err != nil {
		return sum, err
	}
	defer rows.Close()
	for rows.Next() {
		var e model.AnswerLogEntry
		if err := rows.Scan(&e.QuestionID, &e.QuestionText, &e.SelectedOptionID,
			&e.CorrectOptionID, &e.IsCorrect, &e.TimeTakenSeconds); err != nil {
			return sum, err
		}
		sum.AnswerLog = append(sum.AnswerLog, e)
	}
	return sum, rows.Err()
}

// SaveTranscript replaces the archived transcript for a session.
func (s *Store) SaveTranscript(sessionID string, messages []model.ChatMessage) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM transcripts WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	for _, m := range messages {
		_, err := tx.Exec(
			`INSERT INTO transcripts (session_id, sender, text, sent_at) VALUES (?, ?, ?, ?)`,
			sessionID, m.Sender, m.Text, m.Time,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetTranscript returns the archived messages for a session in order.
func (s *Store) GetTranscript(sessionID string) ([]model.ChatMessage, error) {
	rows, err := s.db.Query(
		`SELECT id, sender, text, sent_at FROM transcripts WHERE session_id = ? ORDER BY id`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var messages []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.Sender, &m.Text, &m.Time); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// ListTranscriptSessions returns the distinct archived session IDs,
// most recently written first.
func (s *Store) ListTranscriptSessions() ([]string, error) {
	rows, err := s.db.Query(
		`SELECT session_id FROM transcripts GROUP BY session_id ORDER BY MAX(id) DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetMetadata upserts a key-value pair in the app_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO app_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Metadata keys used by the CLI.
const (
	MetaLastStudentID = "last_student_id"
	MetaLastSessionID = "last_session_id"
)

// Export builds the full archive for the export command. An empty
// studentID exports results for all students.
func (s *Store) Export(studentID string) (model.StudyArchive, error) {
	archive := model.StudyArchive{
		ExportedAt: time.Now(),
		StudentID:  studentID,
	}

	entries, err := s.ListResults(studentID)
	if err != nil {
		return archive, fmt.Errorf("list results: %w", err)
	}
	for _, e := range entries {
		sum, err := s.GetResult(e.AttemptID)
		if err != nil {
			return archive, fmt.Errorf("get result %d: %w", e.AttemptID, err)
		}
		archive.Results = append(archive.Results, sum)
	}

	sessions, err := s.ListTranscriptSessions()
	if err != nil {
		return archive, fmt.Errorf("list sessions: %w", err)
	}
	for _, id := range sessions {
		messages, err := s.GetTranscript(id)
		if err != nil {
			return archive, fmt.Errorf("get transcript %s: %w", id, err)
		}
		archive.Transcripts = append(archive.Transcripts, model.TranscriptExport{
			SessionID: id,
			Messages:  messages,
		})
	}

	return archive, nil
}
