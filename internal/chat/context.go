package chat

import (
	"github.com/agentdesk/agentdesk/internal/llm"
	"github.com/agentdesk/agentdesk/internal/models"
)

// maxContextMessages caps how many prior turns are sent to the model.
const maxContextMessages = 20

// buildContext assembles the ordered prompt for one turn: the agent's
// current system instruction, at most maxContextMessages prior user and
// assistant turns in chronological order, then the new user turn. Stored
// system-role rows are dropped; the system turn is always synthesized fresh.
// The new turn is appended explicitly even though it is persisted before the
// generation call, so ordering does not depend on storage read timing.
func buildContext(systemPrompt string, history []models.Message, userMessage string) []llm.ChatMessage {
	if len(history) > maxContextMessages {
		history = history[len(history)-maxContextMessages:]
	}

	turns := make([]llm.ChatMessage, 0, len(history)+2)
	turns = append(turns, llm.ChatMessage{Role: models.RoleSystem, Content: systemPrompt})

	for _, msg := range history {
		if msg.Role == models.RoleUser || msg.Role == models.RoleAssistant {
			turns = append(turns, llm.ChatMessage{Role: msg.Role, Content: msg.Content})
		}
	}

	turns = append(turns, llm.ChatMessage{Role: models.RoleUser, Content: userMessage})
	return turns
}
