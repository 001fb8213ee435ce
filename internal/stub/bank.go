package stub

import (
	"fmt"

	"studymate/internal/model"
)

// gradedQuestion pairs a served question with what the stub will accept as
// correct. The client never sees the answer fields.
type gradedQuestion struct {
	question      model.ExamQuestion
	correctOption int    // choice types
	answer        string // free-text types, matched case-insensitively
}

var difficultySteps = []model.Difficulty{
	model.DifficultyEasy,
	model.DifficultyMedium,
	model.DifficultyHard,
}

func stepDifficulty(d model.Difficulty, up bool) model.Difficulty {
	idx := 0
	for i, s := range difficultySteps {
		if s == d {
			idx = i
			break
		}
	}
	if up && idx < len(difficultySteps)-1 {
		idx++
	}
	if !up && idx > 0 {
		idx--
	}
	return difficultySteps[idx]
}

// generateQuestion produces the n-th question of an attempt. Questions are
// deterministic from (id, n) so a restarted stub serves stable content.
func generateQuestion(id int64, n int, tpl model.ExamTemplate, difficulty model.Difficulty) gradedQuestion {
	base := model.ExamQuestion{
		ID:         id,
		Subject:    tpl.Subject,
		Chapter:    tpl.Chapter,
		Topic:      fmt.Sprintf("%s practice", tpl.Chapter),
		Difficulty: difficulty,
	}

	switch n % 4 {
	case 2:
		base.Type = model.TypeTrueFalse
		base.Text = fmt.Sprintf("Q%d. True or false: the key statement %d from %s (%s) holds.",
			n+1, n+1, tpl.Chapter, tpl.Subject)
		base.Options = []model.QuestionOption{
			{OptionID: 1, OptionText: "True"},
			{OptionID: 2, OptionText: "False"},
		}
		return gradedQuestion{question: base, correctOption: 1, answer: "true"}
	case 3:
		base.Type = model.TypeShortAnswer
		base.Text = fmt.Sprintf("Q%d. In one word, give the answer key for item %d of %s.",
			n+1, n+1, tpl.Chapter)
		answer := fmt.Sprintf("key%d", n+1)
		return gradedQuestion{question: base, answer: answer}
	default:
		base.Type = model.TypeMultipleChoice
		correct := n%4 + 1
		opts := make([]model.QuestionOption, 0, 4)
		for i := 1; i <= 4; i++ {
			text := fmt.Sprintf("Choice %d for item %d", i, n+1)
			if i == correct {
				text += " (the documented one)"
			}
			opts = append(opts, model.QuestionOption{OptionID: i, OptionText: text})
		}
		base.Text = fmt.Sprintf("Q%d. Which choice matches the notes for %s, item %d?",
			n+1, tpl.Chapter, n+1)
		base.Options = opts
		return gradedQuestion{question: base, correctOption: correct}
	}
}
