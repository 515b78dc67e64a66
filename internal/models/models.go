package models

import "time"

// Message roles. Stored system rows are legal but never sent back to the
// model; the system turn is synthesized from the agent's current prompt.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Agent struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	SystemPrompt string    `json:"system_prompt"`
	ModelID      string    `json:"model_id"`
	Temperature  float64   `json:"temperature"`
	MaxTokens    int       `json:"max_tokens"`
	IsActive     bool      `json:"is_active"`
	AvatarColor  string    `json:"avatar_color"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Conversation struct {
	ID            string    `json:"id"`
	AgentID       string    `json:"agent_id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	TokensUsed     int       `json:"tokens_used"`
	ProcessingTime int64     `json:"processing_time"` // milliseconds
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationWithAgent is the conversation-list row: the conversation plus
// the agent it belongs to.
type ConversationWithAgent struct {
	Conversation
	Agent Agent `json:"agent"`
}

// ConversationWithMessages is the single-conversation view with the full
// message history in ascending creation order.
type ConversationWithMessages struct {
	Conversation
	Agent    Agent     `json:"agent"`
	Messages []Message `json:"messages"`
}
