// Package ui runs the line-oriented terminal screens: a chat screen and
// an exam screen sharing one input loop, switched with /chat and /exam.
package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"studymate/internal/chat"
	"studymate/internal/exam"
	"studymate/internal/i18n"
	"studymate/internal/model"
)

// Archiver persists what the screens fetch. Satisfied by *store.Store;
// a nil Archiver disables archiving.
type Archiver interface {
	SaveSummary(model.ExamSummary) error
	SaveTranscript(sessionID string, messages []model.ChatMessage) error
	SetMetadata(key, value string) error
}

type App struct {
	in        *bufio.Scanner
	out       io.Writer
	tabs      *model.Tabs
	chat      *chat.Controller
	exam      *exam.Controller
	archive   Archiver
	studentID string
}

func NewApp(in io.Reader, out io.Writer, initial model.Tab, chatCtrl *chat.Controller, examCtrl *exam.Controller, archive Archiver, studentID string) *App {
	return &App{
		in:        bufio.NewScanner(in),
		out:       out,
		tabs:      model.NewTabs(initial),
		chat:      chatCtrl,
		exam:      examCtrl,
		archive:   archive,
		studentID: studentID,
	}
}

// Run blocks until the input is exhausted or the user quits.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintf(a.out, "%s\n", i18n.T(ctx, "AppTitle"))
	fmt.Fprintln(a.out, "Commands: /chat, /exam, /quit. Type /help on a screen for its commands.")

	a.chat.Hydrate(ctx)
	if a.tabs.Active() == model.TabChat {
		a.printTranscript(a.chat.Transcript())
	}

	for {
		fmt.Fprintf(a.out, "%s> ", a.tabs.Active())
		if !a.in.Scan() {
			break
		}
		line := strings.TrimSpace(a.in.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			a.chat.Close()
			return a.in.Err()
		case "/chat":
			a.tabs.Set(model.TabChat)
			continue
		case "/exam":
			a.tabs.Set(model.TabExam)
			continue
		}

		if a.tabs.Active() == model.TabChat {
			a.handleChatLine(ctx, line)
		} else {
			a.handleExamLine(ctx, line)
		}
	}

	a.chat.Close()
	return a.in.Err()
}

// readLine prompts for one sub-input (template fields and such).
func (a *App) readLine(prompt string) string {
	fmt.Fprintf(a.out, "%s: ", prompt)
	if !a.in.Scan() {
		return ""
	}
	return strings.TrimSpace(a.in.Text())
}
