package store

import (
	"testing"
	"time"

	"studymate/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testSummary(attemptID int64, studentID string) model.ExamSummary {
	opt := 2
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(8 * time.Minute)
	return model.ExamSummary{
		AttemptID: attemptID,
		StudentID: studentID,
		Template: model.ExamTemplate{
			Name:    "Algebra basics",
			Subject: "Math",
			Chapter: "Linear equations",
		},
		ScorePercent:   60,
		CorrectCount:   3,
		WrongCount:     2,
		TotalQuestions: 5,
		StartedAt:      started,
		CompletedAt:    &completed,
		Status:         model.StatusCompleted,
		AnswerLog: []model.AnswerLogEntry{
			{QuestionID: 11, QuestionText: "2x = 4, x = ?", SelectedOptionID: &opt, CorrectOptionID: &opt, IsCorrect: true, TimeTakenSeconds: 12},
			{QuestionID: 12, QuestionText: "x + 1 = 3, x = ?", IsCorrect: false, TimeTakenSeconds: 30},
		},
	}
}

func TestSaveAndGetResult(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveSummary(testSummary(1, "alice")); err != nil {
		t.Fatalf("SaveSummary: %v", err)
	}

	got, err := s.GetResult(1)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if got.StudentID != "alice" {
		t.Errorf("student = %q", got.StudentID)
	}
	if got.Template.Name != "Algebra basics" || got.Template.Subject != "Math" {
		t.Errorf("template = %+v", got.Template)
	}
	if got.ScorePercent != 60 || got.CorrectCount != 3 || got.WrongCount != 2 {
		t.Errorf("score fields = %.0f/%d/%d", got.ScorePercent, got.CorrectCount, got.WrongCount)
	}
	if got.CompletedAt == nil {
		t.Error("completedAt lost")
	}
	if len(got.AnswerLog) != 2 {
		t.Fatalf("answer log has %d entries, want 2", len(got.AnswerLog))
	}
	first := got.AnswerLog[0]
	if first.QuestionID != 11 || !first.IsCorrect || first.SelectedOptionID == nil || *first.SelectedOptionID != 2 {
		t.Errorf("first log entry = %+v", first)
	}
	if got.AnswerLog[1].SelectedOptionID != nil {
		t.Error("free-text answer should keep a NULL selected option")
	}
}

func TestSaveSummaryIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	sum := testSummary(1, "alice")
	if err := s.SaveSummary(sum); err != nil {
		t.Fatalf("SaveSummary: %v", err)
	}
	// Re-fetching a summary saves it again; the log must not duplicate.
	sum.ScorePercent = 80
	sum.CorrectCount = 4
	sum.WrongCount = 1
	if err := s.SaveSummary(sum); err != nil {
		t.Fatalf("SaveSummary again: %v", err)
	}

	got, err := s.GetResult(1)
	if err != nil {
		t.Fatalf("GetResult: %v", err)
	}
	if got.ScorePercent != 80 {
		t.Errorf("score not updated: %.0f", got.ScorePercent)
	}
	if len(got.AnswerLog) != 2 {
		t.Errorf("answer log has %d entries after resave, want 2", len(got.AnswerLog))
	}
}

func TestListResultsFiltersByStudent(t *testing.T) {
	s := newTestStore(t)

	for i, student := range []string{"alice", "bob", "alice"} {
		if err := s.SaveSummary(testSummary(int64(i+1), student)); err != nil {
			t.Fatalf("SaveSummary %d: %v", i, err)
		}
	}

	all, err := s.ListResults("")
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all results = %d, want 3", len(all))
	}
	// Most recent attempt first.
	if all[0].AttemptID != 3 {
		t.Errorf("first result attempt = %d, want 3", all[0].AttemptID)
	}

	alice, err := s.ListResults("alice")
	if err != nil {
		t.Fatalf("ListResults(alice): %v", err)
	}
	if len(alice) != 2 {
		t.Errorf("alice results = %d, want 2", len(alice))
	}
}

func TestTranscriptRoundTrip(t *testing.T) {
	s := newTestStore(t)

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	messages := []model.ChatMessage{
		{ID: 1, Sender: model.SenderUser, Text: "what is osmosis?", Time: now},
		{ID: 2, Sender: model.SenderBot, Text: "Osmosis is...", Time: now.Add(time.Second)},
	}
	if err := s.SaveTranscript("sess-1", messages); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}

	got, err := s.GetTranscript("sess-1")
	if err != nil {
		t.Fatalf("GetTranscript: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("transcript has %d messages, want 2", len(got))
	}
	if got[0].Sender != model.SenderUser || got[0].Text != "what is osmosis?" {
		t.Errorf("first message = %+v", got[0])
	}
	if got[1].Sender != model.SenderBot {
		t.Errorf("second message = %+v", got[1])
	}

	// Saving again replaces, not appends.
	if err := s.SaveTranscript("sess-1", messages[:1]); err != nil {
		t.Fatalf("SaveTranscript replace: %v", err)
	}
	got, err = s.GetTranscript("sess-1")
	if err != nil {
		t.Fatalf("GetTranscript: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("transcript has %d messages after replace, want 1", len(got))
	}
}

func TestListTranscriptSessions(t *testing.T) {
	s := newTestStore(t)

	ids, err := s.ListTranscriptSessions()
	if err != nil {
		t.Fatalf("ListTranscriptSessions: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no sessions, got %v", ids)
	}

	msg := []model.ChatMessage{{Sender: model.SenderUser, Text: "hi", Time: time.Now()}}
	if err := s.SaveTranscript("sess-1", msg); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}
	if err := s.SaveTranscript("sess-2", msg); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}

	ids, err = s.ListTranscriptSessions()
	if err != nil {
		t.Fatalf("ListTranscriptSessions: %v", err)
	}
	if len(ids) != 2 || ids[0] != "sess-2" || ids[1] != "sess-1" {
		t.Errorf("sessions = %v, want [sess-2 sess-1]", ids)
	}
}

func TestMetadata(t *testing.T) {
	s := newTestStore(t)

	// Missing key is empty, not an error.
	v, err := s.GetMetadata(MetaLastStudentID)
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if v != "" {
		t.Errorf("missing key = %q, want empty", v)
	}

	if err := s.SetMetadata(MetaLastStudentID, "alice"); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	if err := s.SetMetadata(MetaLastStudentID, "bob"); err != nil {
		t.Fatalf("SetMetadata update: %v", err)
	}
	v, err = s.GetMetadata(MetaLastStudentID)
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if v != "bob" {
		t.Errorf("value = %q, want bob", v)
	}
}

func TestExport(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveSummary(testSummary(1, "alice")); err != nil {
		t.Fatalf("SaveSummary: %v", err)
	}
	if err := s.SaveTranscript("sess-1", []model.ChatMessage{
		{Sender: model.SenderUser, Text: "hi", Time: time.Now()},
	}); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}

	archive, err := s.Export("alice")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if archive.StudentID != "alice" {
		t.Errorf("studentID = %q", archive.StudentID)
	}
	if len(archive.Results) != 1 || archive.Results[0].AttemptID != 1 {
		t.Errorf("results = %+v", archive.Results)
	}
	if len(archive.Results[0].AnswerLog) != 2 {
		t.Errorf("exported result lost its answer log")
	}
	if len(archive.Transcripts) != 1 || archive.Transcripts[0].SessionID != "sess-1" {
		t.Errorf("transcripts = %+v", archive.Transcripts)
	}
}
