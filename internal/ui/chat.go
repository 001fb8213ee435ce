package ui

import (
	"context"
	"fmt"

	"studymate/internal/i18n"
	"studymate/internal/model"
	"studymate/internal/store"
)

func (a *App) handleChatLine(ctx context.Context, line string) {
	switch line {
	case "/help":
		fmt.Fprintln(a.out, "Type a message to ask the assistant. /yes accepts the suggested follow-up.")
		return
	case "/yes":
		if a.chat.FollowUp() == "" {
			fmt.Fprintln(a.out, "Nothing suggested right now.")
			return
		}
		before := len(a.chat.Transcript())
		a.chat.AcceptFollowUp(ctx)
		a.afterChatSend(ctx, before)
		return
	}

	before := len(a.chat.Transcript())
	a.chat.Send(ctx, line)
	a.afterChatSend(ctx, before)
}

// afterChatSend prints what the send appended and archives the transcript.
func (a *App) afterChatSend(ctx context.Context, before int) {
	transcript := a.chat.Transcript()
	if before < len(transcript) {
		a.printTranscript(transcript[before:])
	}
	if followUp := a.chat.FollowUp(); followUp != "" {
		fmt.Fprintln(a.out, i18n.Td(ctx, "SuggestedFollowUp", map[string]any{"Question": followUp}))
	}

	if a.archive == nil {
		return
	}
	sessionID := a.chat.SessionID()
	if sessionID == "" {
		return
	}
	if err := a.archive.SaveTranscript(sessionID, transcript); err != nil {
		fmt.Fprintf(a.out, "(archive failed: %v)\n", err)
		return
	}
	if err := a.archive.SetMetadata(store.MetaLastSessionID, sessionID); err != nil {
		fmt.Fprintf(a.out, "(archive failed: %v)\n", err)
	}
}

func (a *App) printTranscript(messages []model.ChatMessage) {
	for _, m := range messages {
		label := "assistant"
		if m.Sender == model.SenderUser {
			label = "you"
		}
		fmt.Fprintf(a.out, "[%s] %s\n", label, m.Text)
	}
}
