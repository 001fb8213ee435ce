package chat

import (
	"testing"

	"studymate/internal/model"
)

func TestApplyAppendDoesNotMutateInput(t *testing.T) {
	base := []model.ChatMessage{
		{ID: 1, Text: "a", Sender: model.SenderUser},
	}
	next := apply(base, appendMessage(model.ChatMessage{ID: 2, Text: "b", Sender: model.SenderBot}))

	if len(base) != 1 {
		t.Errorf("input transcript mutated: %+v", base)
	}
	if len(next) != 2 || next[1].Text != "b" {
		t.Errorf("unexpected result: %+v", next)
	}
}

func TestApplyReplaceSwapsWholesale(t *testing.T) {
	base := []model.ChatMessage{
		{ID: 1, Text: "old", Sender: model.SenderBot},
		{ID: 2, Text: "older", Sender: model.SenderUser},
	}
	fresh := []model.ChatMessage{{ID: 3, Text: "new", Sender: model.SenderBot}}

	next := apply(base, replaceAll(fresh))
	if len(next) != 1 || next[0].Text != "new" {
		t.Errorf("unexpected result: %+v", next)
	}

	// The replacement copies its input, so later edits don't leak in.
	fresh[0].Text = "changed"
	if next[0].Text != "new" {
		t.Error("replace aliased the caller's slice")
	}
}

func TestApplyReplaceEmpty(t *testing.T) {
	next := apply(nil, replaceAll(nil))
	if len(next) != 0 {
		t.Errorf("expected empty transcript, got %+v", next)
	}
}
