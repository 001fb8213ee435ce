package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"studymate/internal/exam"
	"studymate/internal/i18n"
	"studymate/internal/model"
	"studymate/internal/store"
)

func (a *App) handleExamLine(ctx context.Context, line string) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/help":
		fmt.Fprintln(a.out, "Exam commands: /new, /start <templateId>, /submit, /summary, /history.")
		fmt.Fprintln(a.out, "Answer a question by typing an option number or free text, then /submit.")
	case "/new":
		a.createTemplate(ctx)
	case "/start":
		if len(fields) < 2 {
			fmt.Fprintln(a.out, "Usage: /start <templateId>")
			return
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			fmt.Fprintf(a.out, "Bad template id %q.\n", fields[1])
			return
		}
		a.startAttempt(ctx, id)
	case "/submit":
		a.submitAnswer(ctx)
	case "/summary":
		a.showSummary(ctx)
	case "/history":
		a.showHistory(ctx)
	default:
		a.recordAnswer(ctx, line)
	}
}

func (a *App) createTemplate(ctx context.Context) {
	req := model.ExamTemplateRequest{
		Name:    a.readLine("Template name"),
		Subject: a.readLine("Subject"),
		Chapter: a.readLine("Chapter"),
	}
	req.TotalQuestions, _ = strconv.Atoi(a.readLine("Questions"))
	req.DurationMinutes, _ = strconv.Atoi(a.readLine("Minutes"))
	req.AdaptiveEnabled = strings.EqualFold(a.readLine("Adaptive (y/n)"), "y")

	tpl, err := a.exam.CreateTemplate(ctx, req)
	if err != nil {
		fmt.Fprintln(a.out, exam.Message(ctx, err))
		return
	}
	fmt.Fprintf(a.out, "Template %d created: %s (%d questions, %d min).\n",
		tpl.ID, tpl.Name, tpl.TotalQuestions, tpl.DurationMinutes)
	fmt.Fprintf(a.out, "Start it with /start %d.\n", tpl.ID)
}

func (a *App) startAttempt(ctx context.Context, templateID int64) {
	if err := a.exam.StartAttempt(ctx, a.studentID, templateID); err != nil {
		fmt.Fprintln(a.out, exam.Message(ctx, err))
		return
	}
	if a.archive != nil {
		if err := a.archive.SetMetadata(store.MetaLastStudentID, a.studentID); err != nil {
			fmt.Fprintf(a.out, "(archive failed: %v)\n", err)
		}
	}
	a.printQuestion(a.exam.CurrentQuestion())
}

// recordAnswer interprets plain input against the current question:
// an option number for choice questions, free text otherwise.
func (a *App) recordAnswer(ctx context.Context, line string) {
	q := a.exam.CurrentQuestion()
	if q == nil {
		fmt.Fprintln(a.out, i18n.T(ctx, "ExamNoAttempt"))
		return
	}
	if q.Type == model.TypeMultipleChoice {
		n, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(a.out, "Enter an option number.")
			return
		}
		a.exam.SelectOption(n)
		fmt.Fprintf(a.out, "Option %d selected. /submit to confirm.\n", n)
		return
	}
	// TrueFalse and ShortAnswer both go over the wire as free text.
	a.exam.SetFreeText(line)
	fmt.Fprintln(a.out, "Answer recorded. /submit to confirm.")
}

func (a *App) submitAnswer(ctx context.Context) {
	res, err := a.exam.SubmitAnswer(ctx)
	if err != nil {
		fmt.Fprintln(a.out, exam.Message(ctx, err))
		return
	}

	if res.IsCorrect {
		fmt.Fprintln(a.out, i18n.T(ctx, "ExamAnswerCorrect"))
	} else {
		fmt.Fprintln(a.out, i18n.T(ctx, "ExamAnswerWrong"))
		if res.CorrectOptionID != nil {
			fmt.Fprintf(a.out, "The correct option was %d.\n", *res.CorrectOptionID)
		}
	}
	a.printStats(res.PerDifficultyStats)

	if res.NextQuestion == nil {
		fmt.Fprintln(a.out, i18n.T(ctx, "ExamCompleted"))
		return
	}
	a.printQuestion(res.NextQuestion)
}

func (a *App) showSummary(ctx context.Context) {
	sum, err := a.exam.FetchSummary(ctx)
	if err != nil {
		fmt.Fprintln(a.out, exam.Message(ctx, err))
		return
	}

	fmt.Fprintf(a.out, "%s — %s / %s\n", sum.Template.Name, sum.Template.Subject, sum.Template.Chapter)
	fmt.Fprintf(a.out, "Score: %.0f%% (%d correct, %d wrong of %d)\n",
		sum.ScorePercent, sum.CorrectCount, sum.WrongCount, sum.TotalQuestions)
	a.printStats(sum.PerDifficultyStats)
	for i, e := range sum.AnswerLog {
		mark := "✗"
		if e.IsCorrect {
			mark = "✓"
		}
		fmt.Fprintf(a.out, "  %d. %s %s (%ds)\n", i+1, mark, e.QuestionText, e.TimeTakenSeconds)
	}

	if a.archive != nil {
		if err := a.archive.SaveSummary(sum); err != nil {
			fmt.Fprintf(a.out, "(archive failed: %v)\n", err)
		}
	}
}

func (a *App) showHistory(ctx context.Context) {
	entries, err := a.exam.FetchHistory(ctx, a.studentID)
	if err != nil {
		fmt.Fprintln(a.out, exam.Message(ctx, err))
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No past exams.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(a.out, "#%d %s (%s/%s): %.0f%% [%s]\n",
			e.AttemptID, e.TemplateName, e.Subject, e.Chapter, e.ScorePercent, e.Status)
	}
}

func (a *App) printQuestion(q *model.ExamQuestion) {
	if q == nil {
		return
	}
	fmt.Fprintf(a.out, "[%s] %s\n", q.Difficulty, q.Text)
	for _, opt := range q.Options {
		fmt.Fprintf(a.out, "  %d) %s\n", opt.OptionID, opt.OptionText)
	}
}

func (a *App) printStats(stats model.DifficultyBreakdown) {
	for _, d := range []model.Difficulty{model.DifficultyEasy, model.DifficultyMedium, model.DifficultyHard} {
		s, ok := stats[d]
		if !ok || s.Attempted == 0 {
			continue
		}
		fmt.Fprintf(a.out, "  %s: %d/%d (%.0f%%)\n", d, s.Correct, s.Attempted, s.Accuracy)
	}
}
