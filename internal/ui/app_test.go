package ui

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"studymate/internal/api"
	"studymate/internal/chat"
	"studymate/internal/exam"
	"studymate/internal/llm"
	"studymate/internal/model"
	"studymate/internal/store"
	"studymate/internal/stub"
)

type fakeArchive struct {
	summaries   []model.ExamSummary
	transcripts map[string][]model.ChatMessage
	metadata    map[string]string
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{
		transcripts: make(map[string][]model.ChatMessage),
		metadata:    make(map[string]string),
	}
}

func (f *fakeArchive) SaveSummary(sum model.ExamSummary) error {
	f.summaries = append(f.summaries, sum)
	return nil
}

func (f *fakeArchive) SaveTranscript(sessionID string, messages []model.ChatMessage) error {
	f.transcripts[sessionID] = messages
	return nil
}

func (f *fakeArchive) SetMetadata(key, value string) error {
	f.metadata[key] = value
	return nil
}

func runApp(t *testing.T, input string) (string, *fakeArchive) {
	t.Helper()
	r := chi.NewRouter()
	stub.NewServer(llm.NewCanned()).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	client := api.New(srv.URL)
	archive := newFakeArchive()
	var out bytes.Buffer
	app := NewApp(
		strings.NewReader(input),
		&out,
		model.TabChat,
		chat.New(client, chat.Config{HydrateTimeout: time.Second}),
		exam.New(client),
		archive,
		"student-1",
	)
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String(), archive
}

func TestFullSession(t *testing.T) {
	input := strings.Join([]string{
		"what is gravity?",
		"/exam",
		"/new",
		"Algebra", // template name
		"Math",    // subject
		"Eq",      // chapter
		"2",       // questions
		"5",       // minutes
		"n",       // adaptive
		"/start 1",
		"1", // correct option for the first question
		"/submit",
		"1", // wrong; second question's correct option is 2
		"/submit",
		"/summary",
		"/history",
		"/quit",
	}, "\n") + "\n"

	out, archive := runApp(t, input)

	for _, want := range []string{
		"StudyMate",
		"[you] what is gravity?",
		"[assistant]",
		"Template 1 created: Algebra (2 questions, 5 min).",
		"Correct!",
		"Not quite.",
		"The correct option was 2.",
		"Exam complete!",
		"Score: 50% (1 correct, 1 wrong of 2)",
		"#1 Algebra (Math/Eq): 50%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n---\n%s", want, out)
		}
	}

	if len(archive.summaries) != 1 {
		t.Fatalf("archived %d summaries, want 1", len(archive.summaries))
	}
	if archive.summaries[0].ScorePercent != 50 {
		t.Errorf("archived score = %.0f", archive.summaries[0].ScorePercent)
	}
	if archive.metadata[store.MetaLastStudentID] != "student-1" {
		t.Errorf("metadata = %v", archive.metadata)
	}
	if archive.metadata[store.MetaLastSessionID] == "" {
		t.Errorf("chat session id not remembered: %v", archive.metadata)
	}
	if len(archive.transcripts) != 1 {
		t.Errorf("archived %d transcripts, want 1", len(archive.transcripts))
	}
	for _, msgs := range archive.transcripts {
		// Greeting, question, reply.
		if len(msgs) != 3 {
			t.Errorf("archived transcript has %d messages, want 3", len(msgs))
		}
	}
}

func TestFollowUpAccept(t *testing.T) {
	input := strings.Join([]string{
		"help me prepare for my physics exam",
		"/yes",
		"/quit",
	}, "\n") + "\n"

	out, _ := runApp(t, input)

	if !strings.Contains(out, "Suggested follow-up:") {
		t.Fatalf("no follow-up suggested\n---\n%s", out)
	}
	// Accepting sends the follow-up as a user message.
	if !strings.Contains(out, "[you] Would you like") && strings.Count(out, "[you]") < 2 {
		t.Errorf("follow-up was not sent as a user message\n---\n%s", out)
	}
}

func TestExamCommandsWithoutAttempt(t *testing.T) {
	input := "/exam\n/submit\n/summary\n/quit\n"
	out, _ := runApp(t, input)
	if !strings.Contains(out, "No exam in progress. Start one first.") {
		t.Errorf("missing no-attempt message\n---\n%s", out)
	}
}

func TestTabSwitchKeepsState(t *testing.T) {
	input := strings.Join([]string{
		"remind me about photosynthesis",
		"/exam",
		"/chat",
		"tell me more",
		"/quit",
	}, "\n") + "\n"

	out, _ := runApp(t, input)
	if strings.Count(out, "[you]") != 2 {
		t.Errorf("expected both user messages in one transcript\n---\n%s", out)
	}
}
