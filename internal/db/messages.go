package db

import (
	"time"

	"github.com/agentdesk/agentdesk/internal/models"
	"github.com/google/uuid"
)

func (db *Database) SaveMessage(msg *models.Message) error {
	msg.ID = uuid.New().String()
	msg.CreatedAt = time.Now().UTC()

	_, err := db.db.Exec(`
        INSERT INTO messages (id, conversation_id, role, content, tokens_used, processing_time, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.Role, msg.Content,
		msg.TokensUsed, msg.ProcessingTime, msg.CreatedAt)
	return err
}

// RecentMessages returns the most recent limit messages of a conversation in
// ascending creation order. The rowid tie-break keeps ordering stable when
// two messages land on the same timestamp.
func (db *Database) RecentMessages(conversationID string, limit int) ([]models.Message, error) {
	rows, err := db.db.Query(`
        SELECT id, conversation_id, role, content, tokens_used, processing_time, created_at
        FROM messages
        WHERE conversation_id = ?
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content,
			&msg.TokensUsed, &msg.ProcessingTime, &msg.CreatedAt)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest-first from the query; flip to chronological.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ListMessages returns the full history of a conversation in ascending
// creation order. Ownership is checked on the conversation, not here.
func (db *Database) ListMessages(conversationID string) ([]models.Message, error) {
	rows, err := db.db.Query(`
        SELECT id, conversation_id, role, content, tokens_used, processing_time, created_at
        FROM messages
        WHERE conversation_id = ?
        ORDER BY created_at ASC, rowid ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content,
			&msg.TokensUsed, &msg.ProcessingTime, &msg.CreatedAt)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
