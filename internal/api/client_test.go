package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"studymate/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestCreateTemplate(t *testing.T) {
	var gotBody model.ExamTemplateRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/exam/templates" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(model.ExamTemplate{ID: 7, Name: gotBody.Name})
	})

	tpl, err := c.CreateTemplate(context.Background(), model.ExamTemplateRequest{
		Name: "Algebra", Subject: "Math", TotalQuestions: 5, DurationMinutes: 10,
	})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if tpl.ID != 7 || tpl.Name != "Algebra" {
		t.Errorf("unexpected template: %+v", tpl)
	}
	if gotBody.TotalQuestions != 5 {
		t.Errorf("expected totalQuestions 5 in payload, got %d", gotBody.TotalQuestions)
	}
}

func TestErrorBodyExtraction(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"message field", http.StatusBadRequest, `{"message":"bad template"}`, "bad template"},
		{"error field", http.StatusConflict, `{"error":"already started"}`, "already started"},
		{"message preferred over error", http.StatusBadRequest, `{"message":"m","error":"e"}`, "m"},
		{"non-JSON body", http.StatusInternalServerError, `boom`, "Internal Server Error"},
		{"empty body", http.StatusNotFound, ``, "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Summary(context.Background(), 1)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestNoContentAndEmptyBody(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"204 no content", http.StatusNoContent, ""},
		{"200 empty body", http.StatusOK, ""},
		{"200 whitespace body", http.StatusOK, "  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			summary, err := c.Summary(context.Background(), 1)
			if err != nil {
				t.Fatalf("expected empty result without error, got %v", err)
			}
			if summary.AttemptID != 0 {
				t.Errorf("expected zero-value summary, got %+v", summary)
			}
		})
	}
}

func TestMalformedSuccessBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	_, err := c.Summary(context.Background(), 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError for malformed body, got %v", err)
	}
	if apiErr.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", apiErr.Status)
	}
}

func TestSubmitAnswerPath(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(model.AnswerResult{IsCorrect: true})
	})

	res, err := c.SubmitAnswer(context.Background(), 42, model.AnswerSubmission{QuestionID: 9})
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if gotPath != "/api/exam/42/answer" {
		t.Errorf("path = %q, want /api/exam/42/answer", gotPath)
	}
	if !res.IsCorrect {
		t.Error("expected isCorrect true")
	}
}

func TestExamHistoryQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("studentId"); got != "s-1" {
			t.Errorf("studentId = %q, want s-1", got)
		}
		json.NewEncoder(w).Encode([]model.ExamHistoryEntry{{AttemptID: 1}, {AttemptID: 2}})
	})

	entries, err := c.ExamHistory(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("ExamHistory: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}
