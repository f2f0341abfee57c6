package chat

import (
	"sort"

	"alterview/internal/completion"
)

// BuildHistory classifies a room's persisted messages into the ordered
// role-tagged transcript submitted to the completion provider. Ordering is
// by CreatedAt ascending, stable on ties, and nothing is filtered: the
// seeded system prompt rides along like any other message.
func BuildHistory(messages []Message) []completion.Message {
	ordered := make([]Message, len(messages))
	copy(ordered, messages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	out := make([]completion.Message, 0, len(ordered))
	for _, m := range ordered {
		out = append(out, completion.Message{
			Role:    completion.Role(m.Speaker.Role()),
			Content: m.Text,
		})
	}
	return out
}
