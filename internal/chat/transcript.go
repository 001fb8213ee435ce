package chat

import "studymate/internal/model"

// The transcript is mutated only through actions applied by a pure
// transition function, keeping append-vs-replace semantics explicit and
// testable without any I/O.

type actionType int

const (
	actionAppend actionType = iota
	actionReplace
)

type action struct {
	typ      actionType
	message  model.ChatMessage
	messages []model.ChatMessage
}

func appendMessage(m model.ChatMessage) action {
	return action{typ: actionAppend, message: m}
}

func replaceAll(msgs []model.ChatMessage) action {
	return action{typ: actionReplace, messages: msgs}
}

// apply returns the transcript after the action. The input slice is never
// modified in place.
func apply(transcript []model.ChatMessage, a action) []model.ChatMessage {
	switch a.typ {
	case actionAppend:
		next := make([]model.ChatMessage, len(transcript), len(transcript)+1)
		copy(next, transcript)
		return append(next, a.message)
	case actionReplace:
		next := make([]model.ChatMessage, len(a.messages))
		copy(next, a.messages)
		return next
	default:
		return transcript
	}
}
