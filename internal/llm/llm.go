// Package llm answers study questions for the stub backend, either through
// an OpenAI-compatible endpoint or a canned offline responder.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"studymate/internal/model"
)

// tutorResult is the JSON shape the model is asked to produce.
type tutorResult struct {
	Reply            string `json:"reply"`
	FollowUpQuestion string `json:"followup_question"`
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Ping verifies the endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint check: %w", err)
	}
	return nil
}

// Reply sends the student's question (and the session's prior exchanges)
// to the LLM and returns the answer plus an optional follow-up question.
func (c *Client) Reply(ctx context.Context, question string, history []model.ChatHistoryEntry) (string, string, error) {
	chatMsgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: buildTutorSystemPrompt()},
	}
	for _, e := range history {
		chatMsgs = append(chatMsgs,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: e.Message},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: e.Reply},
		)
	}
	chatMsgs = append(chatMsgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: chatMsgs,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", "", fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)

	var result tutorResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		// Some models ignore the JSON instruction; treat the whole
		// completion as the reply.
		return raw, "", nil
	}
	return result.Reply, result.FollowUpQuestion, nil
}

func buildTutorSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString("You are a friendly study assistant helping a student review coursework.\n\n")
	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- Answer the student's question clearly and briefly.\n")
	sb.WriteString("- When a natural next question exists, suggest exactly ONE follow-up question.\n")
	sb.WriteString("- If the student pushes back or closes the topic, leave the follow-up empty.\n")
	sb.WriteString("\nRespond ONLY with a JSON object with these fields:\n")
	sb.WriteString(`{"reply": "<answer>", "followup_question": "<question or empty string>"}`)
	sb.WriteString("\n")
	return sb.String()
}
