package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"studymate/internal/model"
)

const defaultHistoryLimit = 20

// SendMessage posts a chat message (FailLoud). The backend is allowed to
// answer with either a JSON object or plain text; a non-JSON body is treated
// as the raw reply text so the caller always sees the same response shape.
// The only failure mode is a non-success HTTP status.
func (c *Client) SendMessage(ctx context.Context, question, sessionID string) (model.ChatReply, error) {
	payload := map[string]any{"question": question}
	if sessionID != "" {
		payload["sessionId"] = sessionID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return model.ChatReply{}, fmt.Errorf("encode chat message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", strings.NewReader(string(body)))
	if err != nil {
		return model.ChatReply{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.ChatReply{}, fmt.Errorf("send chat message: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.ChatReply{}, fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.ChatReply{}, fmt.Errorf("send chat message: status %d", resp.StatusCode)
	}

	var reply model.ChatReply
	if err := json.Unmarshal(data, &reply); err != nil {
		// Plain-text reply.
		reply = model.ChatReply{Reply: string(data)}
	}
	return reply, nil
}

// MostRecentSession looks up the caller's last chat session id (FailSoft).
// Any transport failure, non-success status, or malformed body yields an
// empty string: this call runs at startup and must never block it on
// backend unavailability.
func (c *Client) MostRecentSession(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/chat/most-recent-session", nil)
	if err != nil {
		return ""
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ""
	}

	var payload struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ""
	}
	return payload.SessionID
}

// History fetches up to limit stored exchanges for a session, oldest first.
// A non-success status is an error; a success body without a history list
// yields an empty slice rather than an error.
func (c *Client) History(ctx context.Context, sessionID string, limit int) ([]model.ChatHistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	q := url.Values{}
	q.Set("sessionId", sessionID)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/chat/history?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build history request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch chat history: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch chat history: status %d", resp.StatusCode)
	}

	var payload struct {
		History []model.ChatHistoryEntry `json:"history"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return []model.ChatHistoryEntry{}, nil
	}
	if payload.History == nil {
		return []model.ChatHistoryEntry{}, nil
	}
	return payload.History, nil
}
