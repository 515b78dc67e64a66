package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agentdesk/agentdesk/internal/models"
	"github.com/google/uuid"
)

func (db *Database) CreateAgent(agent *models.Agent) error {
	now := time.Now().UTC()
	agent.ID = uuid.New().String()
	agent.CreatedAt = now
	agent.UpdatedAt = now

	_, err := db.db.Exec(`
        INSERT INTO agents (id, user_id, name, description, system_prompt, model_id,
                            temperature, max_tokens, is_active, avatar_color, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		agent.ID, agent.UserID, agent.Name, agent.Description, agent.SystemPrompt,
		agent.ModelID, agent.Temperature, agent.MaxTokens, agent.IsActive,
		agent.AvatarColor, agent.CreatedAt, agent.UpdatedAt)
	return err
}

func (db *Database) GetAgent(id, userID string) (*models.Agent, error) {
	row := db.db.QueryRow(`
        SELECT id, user_id, name, description, system_prompt, model_id,
               temperature, max_tokens, is_active, avatar_color, created_at, updated_at
        FROM agents
        WHERE id = ? AND user_id = ?`, id, userID)

	agent, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return agent, err
}

func (db *Database) ListAgents(userID string) ([]models.Agent, error) {
	rows, err := db.db.Query(`
        SELECT id, user_id, name, description, system_prompt, model_id,
               temperature, max_tokens, is_active, avatar_color, created_at, updated_at
        FROM agents
        WHERE user_id = ?
        ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := make([]models.Agent, 0)
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *agent)
	}
	return agents, rows.Err()
}

// AgentUpdate carries the fields of a partial agent update; nil fields are
// left untouched.
type AgentUpdate struct {
	Name         *string
	Description  *string
	SystemPrompt *string
	ModelID      *string
	Temperature  *float64
	MaxTokens    *int
	IsActive     *bool
	AvatarColor  *string
}

// IsEmpty reports whether the update would change nothing.
func (u AgentUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.SystemPrompt == nil &&
		u.ModelID == nil && u.Temperature == nil && u.MaxTokens == nil &&
		u.IsActive == nil && u.AvatarColor == nil
}

func (db *Database) UpdateAgent(id, userID string, upd AgentUpdate) (*models.Agent, error) {
	sets := []string{}
	args := []any{}
	add := func(col string, val any) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.SystemPrompt != nil {
		add("system_prompt", *upd.SystemPrompt)
	}
	if upd.ModelID != nil {
		add("model_id", *upd.ModelID)
	}
	if upd.Temperature != nil {
		add("temperature", *upd.Temperature)
	}
	if upd.MaxTokens != nil {
		add("max_tokens", *upd.MaxTokens)
	}
	if upd.IsActive != nil {
		add("is_active", *upd.IsActive)
	}
	if upd.AvatarColor != nil {
		add("avatar_color", *upd.AvatarColor)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("db: empty agent update")
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id, userID)

	res, err := db.db.Exec(
		"UPDATE agents SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?",
		args...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return db.GetAgent(id, userID)
}

func (db *Database) DeleteAgent(id, userID string) error {
	res, err := db.db.Exec("DELETE FROM agents WHERE id = ? AND user_id = ?", id, userID)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*models.Agent, error) {
	var agent models.Agent
	err := row.Scan(&agent.ID, &agent.UserID, &agent.Name, &agent.Description,
		&agent.SystemPrompt, &agent.ModelID, &agent.Temperature, &agent.MaxTokens,
		&agent.IsActive, &agent.AvatarColor, &agent.CreatedAt, &agent.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &agent, nil
}
