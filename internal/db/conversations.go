package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/agentdesk/agentdesk/internal/models"
	"github.com/google/uuid"
)

func (db *Database) CreateConversation(conv *models.Conversation) error {
	now := time.Now().UTC()
	conv.ID = uuid.New().String()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	conv.LastMessageAt = now

	_, err := db.db.Exec(`
        INSERT INTO conversations (id, agent_id, user_id, title, created_at, updated_at, last_message_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.AgentID, conv.UserID, conv.Title,
		conv.CreatedAt, conv.UpdatedAt, conv.LastMessageAt)
	return err
}

func (db *Database) GetConversation(id, userID string) (*models.Conversation, error) {
	row := db.db.QueryRow(`
        SELECT id, agent_id, user_id, title, created_at, updated_at, last_message_at
        FROM conversations
        WHERE id = ? AND user_id = ?`, id, userID)
	return scanConversation(row)
}

// GetConversationForAgent resolves a conversation that must belong to both
// the owner and the given agent. A mismatch on either is reported as not
// found, never as a distinct condition.
func (db *Database) GetConversationForAgent(id, userID, agentID string) (*models.Conversation, error) {
	row := db.db.QueryRow(`
        SELECT id, agent_id, user_id, title, created_at, updated_at, last_message_at
        FROM conversations
        WHERE id = ? AND user_id = ? AND agent_id = ?`, id, userID, agentID)
	return scanConversation(row)
}

func (db *Database) ListConversations(userID string) ([]models.ConversationWithAgent, error) {
	rows, err := db.db.Query(`
        SELECT c.id, c.agent_id, c.user_id, c.title, c.created_at, c.updated_at, c.last_message_at,
               a.id, a.user_id, a.name, a.description, a.system_prompt, a.model_id,
               a.temperature, a.max_tokens, a.is_active, a.avatar_color, a.created_at, a.updated_at
        FROM conversations c
        JOIN agents a ON a.id = c.agent_id
        WHERE c.user_id = ?
        ORDER BY c.last_message_at DESC, c.rowid DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]models.ConversationWithAgent, 0)
	for rows.Next() {
		var cwa models.ConversationWithAgent
		err := rows.Scan(
			&cwa.ID, &cwa.AgentID, &cwa.UserID, &cwa.Title,
			&cwa.CreatedAt, &cwa.UpdatedAt, &cwa.LastMessageAt,
			&cwa.Agent.ID, &cwa.Agent.UserID, &cwa.Agent.Name, &cwa.Agent.Description,
			&cwa.Agent.SystemPrompt, &cwa.Agent.ModelID, &cwa.Agent.Temperature,
			&cwa.Agent.MaxTokens, &cwa.Agent.IsActive, &cwa.Agent.AvatarColor,
			&cwa.Agent.CreatedAt, &cwa.Agent.UpdatedAt)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, cwa)
	}
	return conversations, rows.Err()
}

func (db *Database) DeleteConversation(id, userID string) error {
	res, err := db.db.Exec("DELETE FROM conversations WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchConversation refreshes the conversation's activity timestamps after a
// successful assistant reply.
func (db *Database) TouchConversation(id string, at time.Time) error {
	_, err := db.db.Exec(
		"UPDATE conversations SET last_message_at = ?, updated_at = ? WHERE id = ?",
		at, at, id)
	return err
}

func scanConversation(row *sql.Row) (*models.Conversation, error) {
	var conv models.Conversation
	err := row.Scan(&conv.ID, &conv.AgentID, &conv.UserID, &conv.Title,
		&conv.CreatedAt, &conv.UpdatedAt, &conv.LastMessageAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}
