package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agentdesk/agentdesk/internal/db"
	"github.com/agentdesk/agentdesk/internal/llm"
	"github.com/agentdesk/agentdesk/internal/models"
	"go.uber.org/zap"
)

const (
	maxMessageLength = 10000
	maxTitleLength   = 100
)

// Store is what the orchestrator needs from persistence.
type Store interface {
	GetAgent(id, userID string) (*models.Agent, error)
	GetConversationForAgent(id, userID, agentID string) (*models.Conversation, error)
	CreateConversation(conv *models.Conversation) error
	SaveMessage(msg *models.Message) error
	RecentMessages(conversationID string, limit int) ([]models.Message, error)
	TouchConversation(id string, at time.Time) error
}

// Generator is what the orchestrator needs from the generation service.
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (*llm.Result, error)
}

// Service sequences one chat turn: validate, resolve the conversation,
// persist the user turn, generate, persist the reply, touch the
// conversation. Each request is an independent unit of work; concurrent
// turns on one conversation are not coordinated.
type Service struct {
	store     Store
	generator Generator
	logger    *zap.Logger
}

func NewService(store Store, generator Generator, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		generator: generator,
		logger:    logger,
	}
}

// TurnRequest is one inbound chat turn.
type TurnRequest struct {
	UserID         string
	AgentID        string
	ConversationID string // empty starts a new conversation
	Message        string
}

// TurnResult is the successful outcome of a turn.
type TurnResult struct {
	Message        *models.Message      `json:"message"`
	Conversation   *models.Conversation `json:"conversation"`
	TokensUsed     int                  `json:"tokens_used"`
	ProcessingTime int64                `json:"processing_time"`
}

// resolution is the outcome of the conversation-resolution step: either a
// freshly created conversation (empty history) or an existing one with its
// bounded history already loaded.
type resolution struct {
	conversation *models.Conversation
	created      bool
	history      []models.Message
}

// Send runs one full turn. All failures come back as *Error; no other error
// type escapes.
func (s *Service) Send(ctx context.Context, req TurnRequest) (*TurnResult, *Error) {
	start := time.Now()

	if req.UserID == "" {
		return nil, authError()
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, validationError("Message is required")
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		return nil, validationError("Message must be less than 10,000 characters")
	}

	agent, err := s.store.GetAgent(req.AgentID, req.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, notFoundError("Agent not found")
		}
		return nil, persistenceError("Failed to fetch agent", err)
	}
	if !agent.IsActive {
		return nil, validationError("Agent is inactive")
	}

	res, terr := s.resolveConversation(req, agent, message)
	if terr != nil {
		return nil, terr
	}
	if res.created {
		s.logger.Debug("created conversation",
			zap.String("conversation_id", res.conversation.ID),
			zap.String("agent_id", agent.ID))
	}

	// The user turn is persisted before the generation call; a turn that
	// cannot be recorded must not spend a generation call. It is never
	// rolled back afterwards, so a client retry does not lose history.
	userMsg := &models.Message{
		ConversationID: res.conversation.ID,
		Role:           models.RoleUser,
		Content:        message,
	}
	if err := s.store.SaveMessage(userMsg); err != nil {
		return nil, persistenceError("Failed to save message", err)
	}

	turns := buildContext(agent.SystemPrompt, res.history, message)
	result, err := s.generator.Generate(ctx, llm.Request{
		Model:       agent.ModelID,
		Messages:    turns,
		MaxTokens:   agent.MaxTokens,
		Temperature: agent.Temperature,
	})
	if err != nil {
		return nil, s.classifyGenerationError(err, agent.ModelID)
	}

	processingTime := time.Since(start).Milliseconds()

	assistantMsg := &models.Message{
		ConversationID: res.conversation.ID,
		Role:           models.RoleAssistant,
		Content:        result.Content,
		TokensUsed:     result.TokensUsed,
		ProcessingTime: processingTime,
	}
	if err := s.store.SaveMessage(assistantMsg); err != nil {
		// The generated reply is lost here; tokens were already spent.
		s.logger.Error("failed to save assistant message",
			zap.Error(err),
			zap.String("conversation_id", res.conversation.ID))
		return nil, persistenceError("Failed to save response", err)
	}

	// Best effort: the reply is already produced and stored.
	if err := s.store.TouchConversation(res.conversation.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to update conversation timestamp",
			zap.Error(err),
			zap.String("conversation_id", res.conversation.ID))
	}

	return &TurnResult{
		Message:        assistantMsg,
		Conversation:   res.conversation,
		TokensUsed:     result.TokensUsed,
		ProcessingTime: processingTime,
	}, nil
}

func (s *Service) resolveConversation(req TurnRequest, agent *models.Agent, message string) (*resolution, *Error) {
	if req.ConversationID != "" {
		conv, err := s.store.GetConversationForAgent(req.ConversationID, req.UserID, agent.ID)
		if err != nil {
			if isNotFound(err) {
				return nil, notFoundError("Conversation not found")
			}
			return nil, persistenceError("Failed to fetch conversation", err)
		}

		// History is read before the user turn is saved, so the bounded
		// window never contains the turn being processed.
		history, err := s.store.RecentMessages(conv.ID, maxContextMessages)
		if err != nil {
			return nil, persistenceError("Failed to fetch conversation history", err)
		}
		return &resolution{conversation: conv, history: history}, nil
	}

	conv := &models.Conversation{
		AgentID: agent.ID,
		UserID:  req.UserID,
		Title:   truncateTitle(message),
	}
	if err := s.store.CreateConversation(conv); err != nil {
		return nil, persistenceError("Failed to create conversation", err)
	}
	return &resolution{conversation: conv, created: true}, nil
}

func (s *Service) classifyGenerationError(err error, modelID string) *Error {
	var unavailable *llm.UnavailableError
	if errors.As(err, &unavailable) {
		return unavailableError(unavailable.WaitSeconds)
	}

	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		return generationError("Failed to generate response", apiErr.Detail, apiErr.Status)
	}

	var malformed *llm.MalformedResponseError
	if errors.As(err, &malformed) {
		return generationError("Invalid response from AI service", malformed.Reason, 0)
	}

	s.logger.Error("generation call failed",
		zap.Error(err),
		zap.String("model", modelID))
	return generationError("Failed to generate response", err.Error(), 0)
}

func truncateTitle(message string) string {
	runes := []rune(message)
	if len(runes) > maxTitleLength {
		return string(runes[:maxTitleLength])
	}
	return message
}

func isNotFound(err error) bool {
	return errors.Is(err, db.ErrNotFound)
}
