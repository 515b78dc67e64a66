package chat

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agentdesk/agentdesk/internal/db"
	"github.com/agentdesk/agentdesk/internal/llm"
	"github.com/agentdesk/agentdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeGenerator records requests and returns a canned outcome.
type fakeGenerator struct {
	result *llm.Result
	err    error
	calls  []llm.Request
}

func (g *fakeGenerator) Generate(ctx context.Context, req llm.Request) (*llm.Result, error) {
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func okGenerator() *fakeGenerator {
	return &fakeGenerator{
		result: &llm.Result{Content: "assistant reply", TokensUsed: 31, Latency: 5 * time.Millisecond},
	}
}

type fixture struct {
	database *db.Database
	gen      *fakeGenerator
	service  *Service
	agent    *models.Agent
}

func setup(t *testing.T) *fixture {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	agent := &models.Agent{
		UserID:       "user-1",
		Name:         "Test Agent",
		SystemPrompt: "You are a test agent.",
		ModelID:      "meta-llama/Llama-3.1-8B-Instruct",
		Temperature:  0.7,
		MaxTokens:    512,
		IsActive:     true,
		AvatarColor:  "#8B5CF6",
	}
	require.NoError(t, database.CreateAgent(agent))

	gen := okGenerator()
	return &fixture{
		database: database,
		gen:      gen,
		service:  NewService(database, gen, zap.NewNop()),
		agent:    agent,
	}
}

func (f *fixture) send(t *testing.T, req TurnRequest) *TurnResult {
	t.Helper()
	result, cerr := f.service.Send(context.Background(), req)
	require.Nil(t, cerr)
	return result
}

func TestSend_NewConversation(t *testing.T) {
	f := setup(t)

	result := f.send(t, TurnRequest{
		UserID:  "user-1",
		AgentID: f.agent.ID,
		Message: "Hello, agent!",
	})

	require.NotNil(t, result.Conversation)
	assert.Equal(t, "Hello, agent!", result.Conversation.Title)
	assert.Equal(t, f.agent.ID, result.Conversation.AgentID)

	assert.Equal(t, models.RoleAssistant, result.Message.Role)
	assert.Equal(t, "assistant reply", result.Message.Content)
	assert.Equal(t, 31, result.Message.TokensUsed)
	assert.Equal(t, 31, result.TokensUsed)
	assert.GreaterOrEqual(t, result.ProcessingTime, int64(0))

	// New conversation: prompt is [system, user] only.
	require.Len(t, f.gen.calls, 1)
	turns := f.gen.calls[0].Messages
	require.Len(t, turns, 2)
	assert.Equal(t, models.RoleSystem, turns[0].Role)
	assert.Equal(t, "You are a test agent.", turns[0].Content)
	assert.Equal(t, "Hello, agent!", turns[1].Content)

	// Agent sampling parameters reach the generation request.
	assert.Equal(t, f.agent.ModelID, f.gen.calls[0].Model)
	assert.Equal(t, 512, f.gen.calls[0].MaxTokens)
	assert.Equal(t, 0.7, f.gen.calls[0].Temperature)

	// Both turns are persisted.
	messages, err := f.database.ListMessages(result.Conversation.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)
}

func TestSend_TitleTruncatedTo100Chars(t *testing.T) {
	f := setup(t)
	message := strings.Repeat("a", 250)

	result := f.send(t, TurnRequest{UserID: "user-1", AgentID: f.agent.ID, Message: message})

	assert.Equal(t, strings.Repeat("a", 100), result.Conversation.Title)
}

func TestSend_ExistingConversationBoundedHistory(t *testing.T) {
	f := setup(t)

	conv := &models.Conversation{AgentID: f.agent.ID, UserID: "user-1", Title: "long chat"}
	require.NoError(t, f.database.CreateConversation(conv))
	for i := 0; i < 25; i++ {
		require.NoError(t, f.database.SaveMessage(&models.Message{
			ConversationID: conv.ID,
			Role:           models.RoleUser,
			Content:        fmt.Sprintf("message %d", i),
		}))
	}

	f.send(t, TurnRequest{
		UserID:         "user-1",
		AgentID:        f.agent.ID,
		ConversationID: conv.ID,
		Message:        "the new turn",
	})

	require.Len(t, f.gen.calls, 1)
	turns := f.gen.calls[0].Messages

	// Exactly one system turn, the 20 most recent prior messages ascending,
	// then the new user turn.
	require.Len(t, turns, 22)
	assert.Equal(t, models.RoleSystem, turns[0].Role)
	assert.Equal(t, "message 5", turns[1].Content)
	assert.Equal(t, "message 24", turns[20].Content)
	assert.Equal(t, "the new turn", turns[21].Content)
}

func TestSend_HistoryExcludesJustSavedTurn(t *testing.T) {
	f := setup(t)

	conv := &models.Conversation{AgentID: f.agent.ID, UserID: "user-1", Title: "chat"}
	require.NoError(t, f.database.CreateConversation(conv))
	require.NoError(t, f.database.SaveMessage(&models.Message{
		ConversationID: conv.ID, Role: models.RoleUser, Content: "earlier",
	}))

	f.send(t, TurnRequest{
		UserID: "user-1", AgentID: f.agent.ID, ConversationID: conv.ID, Message: "now",
	})

	turns := f.gen.calls[0].Messages
	require.Len(t, turns, 3)
	assert.Equal(t, "earlier", turns[1].Content)
	assert.Equal(t, "now", turns[2].Content)
}

func TestSend_Unauthenticated(t *testing.T) {
	f := setup(t)

	_, cerr := f.service.Send(context.Background(), TurnRequest{AgentID: f.agent.ID, Message: "hi"})
	require.NotNil(t, cerr)
	assert.Equal(t, KindAuth, cerr.Kind)
}

func TestSend_EmptyMessage(t *testing.T) {
	f := setup(t)

	for _, message := range []string{"", "   ", "\n\t"} {
		_, cerr := f.service.Send(context.Background(), TurnRequest{
			UserID: "user-1", AgentID: f.agent.ID, Message: message,
		})
		require.NotNil(t, cerr)
		assert.Equal(t, KindValidation, cerr.Kind)
	}
	assert.Empty(t, f.gen.calls)
}

func TestSend_MessageLengthBoundary(t *testing.T) {
	f := setup(t)

	result := f.send(t, TurnRequest{
		UserID: "user-1", AgentID: f.agent.ID, Message: strings.Repeat("x", 10000),
	})
	require.NotNil(t, result.Message)

	_, cerr := f.service.Send(context.Background(), TurnRequest{
		UserID: "user-1", AgentID: f.agent.ID, Message: strings.Repeat("x", 10001),
	})
	require.NotNil(t, cerr)
	assert.Equal(t, KindValidation, cerr.Kind)
}

func TestSend_AgentNotFound(t *testing.T) {
	f := setup(t)

	_, cerr := f.service.Send(context.Background(), TurnRequest{
		UserID: "user-1", AgentID: "missing", Message: "hi",
	})
	require.NotNil(t, cerr)
	assert.Equal(t, KindNotFound, cerr.Kind)
}

func TestSend_AgentOwnedByOtherUser(t *testing.T) {
	f := setup(t)

	_, cerr := f.service.Send(context.Background(), TurnRequest{
		UserID: "user-2", AgentID: f.agent.ID, Message: "hi",
	})
	require.NotNil(t, cerr)
	assert.Equal(t, KindNotFound, cerr.Kind)
}

func TestSend_InactiveAgent(t *testing.T) {
	f := setup(t)
	inactive := false
	_, err := f.database.UpdateAgent(f.agent.ID, "user-1", db.AgentUpdate{IsActive: &inactive})
	require.NoError(t, err)

	_, cerr := f.service.Send(context.Background(), TurnRequest{
		UserID: "user-1", AgentID: f.agent.ID, Message: "hi",
	})
	require.NotNil(t, cerr)
	assert.Equal(t, KindValidation, cerr.Kind)
	assert.Empty(t, f.gen.calls)
}

func TestSend_ForeignConversationAbortsWithoutPersistence(t *testing.T) {
	f := setup(t)

	other := &models.Agent{
		UserID: "user-2", Name: "Other", SystemPrompt: "p",
		ModelID: "meta-llama/Llama-3.1-8B-Instruct", IsActive: true,
	}
	require.NoError(t, f.database.CreateAgent(other))
	foreignConv := &models.Conversation{AgentID: other.ID, UserID: "user-2", Title: "theirs"}
	require.NoError(t, f.database.CreateConversation(foreignConv))

	_, cerr := f.service.Send(context.Background(), TurnRequest{
		UserID:         "user-1",
		AgentID:        f.agent.ID,
		ConversationID: foreignConv.ID,
		Message:        "hi",
	})
	require.NotNil(t, cerr)
	assert.Equal(t, KindNotFound, cerr.Kind)

	messages, err := f.database.ListMessages(foreignConv.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
	assert.Empty(t, f.gen.calls)
}

func TestSend_ConversationOfDifferentAgent(t *testing.T) {
	f := setup(t)

	second := &models.Agent{
		UserID: "user-1", Name: "Second", SystemPrompt: "p",
		ModelID: "meta-llama/Llama-3.1-8B-Instruct", IsActive: true,
	}
	require.NoError(t, f.database.CreateAgent(second))
	conv := &models.Conversation{AgentID: second.ID, UserID: "user-1", Title: "other agent"}
	require.NoError(t, f.database.CreateConversation(conv))

	_, cerr := f.service.Send(context.Background(), TurnRequest{
		UserID:         "user-1",
		AgentID:        f.agent.ID,
		ConversationID: conv.ID,
		Message:        "hi",
	})
	require.NotNil(t, cerr)
	assert.Equal(t, KindNotFound, cerr.Kind)
}

func TestSend_ModelLoadingKeepsUserMessage(t *testing.T) {
	f := setup(t)
	f.gen.err = &llm.UnavailableError{WaitSeconds: 7}

	conv := &models.Conversation{AgentID: f.agent.ID, UserID: "user-1", Title: "chat"}
	require.NoError(t, f.database.CreateConversation(conv))

	_, cerr := f.service.Send(context.Background(), TurnRequest{
		UserID: "user-1", AgentID: f.agent.ID, ConversationID: conv.ID, Message: "hi",
	})
	require.NotNil(t, cerr)
	assert.Equal(t, KindUnavailable, cerr.Kind)
	assert.Equal(t, 7, cerr.WaitSeconds)

	// The user turn is not rolled back.
	messages, err := f.database.ListMessages(conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, "hi", messages[0].Content)
}

func TestSend_UpstreamErrorStatusPassthrough(t *testing.T) {
	f := setup(t)
	f.gen.err = &llm.APIError{Status: 429, Detail: "rate limited"}

	_, cerr := f.service.Send(context.Background(), TurnRequest{
		UserID: "user-1", AgentID: f.agent.ID, Message: "hi",
	})
	require.NotNil(t, cerr)
	assert.Equal(t, KindGeneration, cerr.Kind)
	assert.Equal(t, 429, cerr.UpstreamStatus)
	assert.Equal(t, "rate limited", cerr.Detail)
}

func TestSend_MalformedUpstreamResponse(t *testing.T) {
	f := setup(t)
	f.gen.err = &llm.MalformedResponseError{Reason: "no choices"}

	_, cerr := f.service.Send(context.Background(), TurnRequest{
		UserID: "user-1", AgentID: f.agent.ID, Message: "hi",
	})
	require.NotNil(t, cerr)
	assert.Equal(t, KindGeneration, cerr.Kind)
	assert.Equal(t, 0, cerr.UpstreamStatus)
}

func TestSend_TouchesConversationActivity(t *testing.T) {
	f := setup(t)

	conv := &models.Conversation{AgentID: f.agent.ID, UserID: "user-1", Title: "chat"}
	require.NoError(t, f.database.CreateConversation(conv))
	before := conv.LastMessageAt

	time.Sleep(5 * time.Millisecond)
	f.send(t, TurnRequest{
		UserID: "user-1", AgentID: f.agent.ID, ConversationID: conv.ID, Message: "hi",
	})

	got, err := f.database.GetConversation(conv.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, got.LastMessageAt.After(before))
}

func TestSend_DuplicateTurnsAreNotDeduplicated(t *testing.T) {
	f := setup(t)

	first := f.send(t, TurnRequest{UserID: "user-1", AgentID: f.agent.ID, Message: "same text"})
	second := f.send(t, TurnRequest{
		UserID:         "user-1",
		AgentID:        f.agent.ID,
		ConversationID: first.Conversation.ID,
		Message:        "same text",
	})

	assert.NotEqual(t, first.Message.ID, second.Message.ID)

	messages, err := f.database.ListMessages(first.Conversation.ID)
	require.NoError(t, err)
	// Two user turns and two assistant replies, all distinct rows.
	assert.Len(t, messages, 4)
}
