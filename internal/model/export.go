package model

import "time"

// StudyArchive is the top-level JSON structure for archive export.
type StudyArchive struct {
	ExportedAt  time.Time          `json:"exported_at"`
	StudentID   string             `json:"student_id,omitempty"`
	Results     []ExamSummary      `json:"results"`
	Transcripts []TranscriptExport `json:"transcripts"`
}

// TranscriptExport holds one chat session's archived messages.
type TranscriptExport struct {
	SessionID string        `json:"session_id"`
	Messages  []ChatMessage `json:"messages"`
}
