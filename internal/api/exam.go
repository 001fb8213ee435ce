package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"studymate/internal/model"
)

// All exam-domain operations are FailLoud: strict input-to-output mappings
// with no retry, no caching, and no side effects beyond the HTTP call.

// CreateTemplate creates a reusable exam definition.
func (c *Client) CreateTemplate(ctx context.Context, req model.ExamTemplateRequest) (model.ExamTemplate, error) {
	var tpl model.ExamTemplate
	if err := c.do(ctx, http.MethodPost, "/api/exam/templates", nil, req, &tpl); err != nil {
		return model.ExamTemplate{}, err
	}
	return tpl, nil
}

// StartExam begins a new attempt for a student on a template.
func (c *Client) StartExam(ctx context.Context, studentID string, templateID int64) (model.ExamAttempt, error) {
	req := model.StartExamRequest{StudentID: studentID, ExamTemplateID: templateID}
	var attempt model.ExamAttempt
	if err := c.do(ctx, http.MethodPost, "/api/exam/start", nil, req, &attempt); err != nil {
		return model.ExamAttempt{}, err
	}
	return attempt, nil
}

// SubmitAnswer submits an answer for the attempt's current question.
func (c *Client) SubmitAnswer(ctx context.Context, attemptID int64, sub model.AnswerSubmission) (model.AnswerResult, error) {
	path := fmt.Sprintf("/api/exam/%d/answer", attemptID)
	var result model.AnswerResult
	if err := c.do(ctx, http.MethodPost, path, nil, sub, &result); err != nil {
		return model.AnswerResult{}, err
	}
	return result, nil
}

// Summary fetches the current snapshot of an attempt.
func (c *Client) Summary(ctx context.Context, attemptID int64) (model.ExamSummary, error) {
	path := fmt.Sprintf("/api/exam/%d/summary", attemptID)
	var summary model.ExamSummary
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &summary); err != nil {
		return model.ExamSummary{}, err
	}
	return summary, nil
}

// ExamHistory fetches a student's per-attempt rollups, newest first.
func (c *Client) ExamHistory(ctx context.Context, studentID string) ([]model.ExamHistoryEntry, error) {
	q := url.Values{}
	q.Set("studentId", studentID)
	var entries []model.ExamHistoryEntry
	if err := c.do(ctx, http.MethodGet, "/api/exam/history?"+q.Encode(), nil, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
