package db

import (
	"path/filepath"
	"testing"

	"github.com/agentdesk/agentdesk/internal/models"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a temporary SQLite database for testing.
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	database, err := New(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		database.Close()
	})

	return database
}

// createTestAgent inserts an active agent owned by userID.
func createTestAgent(t *testing.T, database *Database, userID string) *models.Agent {
	t.Helper()
	agent := &models.Agent{
		UserID:       userID,
		Name:         "Test Agent",
		SystemPrompt: "You are a test agent.",
		ModelID:      "meta-llama/Llama-3.1-8B-Instruct",
		Temperature:  0.7,
		MaxTokens:    512,
		IsActive:     true,
		AvatarColor:  "#8B5CF6",
	}
	require.NoError(t, database.CreateAgent(agent))
	return agent
}

// createTestConversation inserts a conversation for the given agent/owner.
func createTestConversation(t *testing.T, database *Database, agentID, userID string) *models.Conversation {
	t.Helper()
	conv := &models.Conversation{
		AgentID: agentID,
		UserID:  userID,
		Title:   "Test conversation",
	}
	require.NoError(t, database.CreateConversation(conv))
	return conv
}
