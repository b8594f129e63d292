package memory

import (
	"context"

	"github.com/SaiNageswarS/employee-desk/llm"
	"github.com/SaiNageswarS/employee-desk/prompts"
	"github.com/SaiNageswarS/go-collection-boot/linq"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is a single role-tagged utterance.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is the ordered memory of a conversation, oldest turn first.
// It is rebuilt per request and replaced, never edited.
type Conversation struct {
	turns []ChatTurn
}

func NewConversation(turns ...ChatTurn) Conversation {
	out := make([]ChatTurn, len(turns))
	copy(out, turns)
	return Conversation{turns: out}
}

// Turns returns a copy of the turns.
func (c Conversation) Turns() []ChatTurn {
	out := make([]ChatTurn, len(c.turns))
	copy(out, c.turns)
	return out
}

func (c Conversation) Len() int { return len(c.turns) }

func (c Conversation) IsEmpty() bool { return len(c.turns) == 0 }

// Messages renders the turns as chat messages for a completion request.
func (c Conversation) Messages() []llm.Message {
	return mapTurns(c.turns, func(t ChatTurn) llm.Message {
		return llm.Message{Role: string(t.Role), Content: t.Content}
	})
}

// Transcript renders the turns as Employee/AI lines for the query rewriter.
func (c Conversation) Transcript() []prompts.HistoryLine {
	return mapTurns(c.turns, func(t ChatTurn) prompts.HistoryLine {
		speaker := "Employee"
		if t.Role == RoleAssistant {
			speaker = "AI"
		}
		return prompts.HistoryLine{Speaker: speaker, Content: t.Content}
	})
}

// mapTurns keeps turn order. A background stream is never cancelled, so the
// sink cannot fail.
func mapTurns[U any](turns []ChatTurn, f func(ChatTurn) U) []U {
	out, _ := linq.Pipe2(
		linq.FromSlice(context.Background(), turns),
		linq.Select(f),
		linq.ToSlice[U](),
	)
	return out
}
