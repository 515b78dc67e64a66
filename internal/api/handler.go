package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/agentdesk/agentdesk/internal/auth"
	"github.com/agentdesk/agentdesk/internal/chat"
	"github.com/agentdesk/agentdesk/internal/db"
	"github.com/agentdesk/agentdesk/internal/models"
	"go.uber.org/zap"
)

type Handler struct {
	db     *db.Database
	chat   *chat.Service
	logger *zap.Logger
}

func NewHandler(database *db.Database, chatService *chat.Service, logger *zap.Logger) *Handler {
	return &Handler{
		db:     database,
		chat:   chatService,
		logger: logger,
	}
}

// Routes returns the API mux. Identity extraction is applied by the caller
// (see cmd/server); handlers enforce it per route.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/agents/{id}/chat", h.ChatWithAgent)
	mux.HandleFunc("GET /api/agents", h.ListAgents)
	mux.HandleFunc("POST /api/agents", h.CreateAgent)
	mux.HandleFunc("GET /api/agents/{id}", h.GetAgent)
	mux.HandleFunc("PATCH /api/agents/{id}", h.UpdateAgent)
	mux.HandleFunc("DELETE /api/agents/{id}", h.DeleteAgent)
	mux.HandleFunc("GET /api/conversations", h.ListConversations)
	mux.HandleFunc("GET /api/conversations/{id}", h.GetConversation)
	mux.HandleFunc("DELETE /api/conversations/{id}", h.DeleteConversation)
	mux.HandleFunc("GET /api/templates", h.ListTemplates)
	return mux
}

// requireUser returns the authenticated user id, writing a 401 envelope when
// the request carries no identity.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := auth.FromContext(r.Context())
	if id == nil {
		h.writeError(w, http.StatusUnauthorized, "Authentication required", "")
		return "", false
	}
	return id.UserID, true
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

func (h *Handler) ChatWithAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body", "")
		return
	}

	result, cerr := h.chat.Send(r.Context(), chat.TurnRequest{
		UserID:         userID,
		AgentID:        r.PathValue("id"),
		ConversationID: req.ConversationID,
		Message:        req.Message,
	})
	if cerr != nil {
		h.writeChatError(w, cerr)
		return
	}

	h.writeSuccess(w, http.StatusOK, result)
}

// writeChatError maps every orchestrator failure kind onto the response
// envelope. New kinds must be added here.
func (h *Handler) writeChatError(w http.ResponseWriter, cerr *chat.Error) {
	switch cerr.Kind {
	case chat.KindValidation:
		h.writeError(w, http.StatusBadRequest, cerr.Message, cerr.Detail)
	case chat.KindAuth:
		h.writeError(w, http.StatusUnauthorized, cerr.Message, "")
	case chat.KindNotFound:
		h.writeError(w, http.StatusNotFound, cerr.Message, "")
	case chat.KindPersistence:
		h.writeError(w, http.StatusInternalServerError, cerr.Message, cerr.Detail)
	case chat.KindUnavailable:
		msg := fmt.Sprintf("Model is loading. Please wait %d seconds and try again.", cerr.WaitSeconds)
		h.writeError(w, http.StatusServiceUnavailable, msg, "")
	case chat.KindGeneration:
		status := http.StatusInternalServerError
		if cerr.UpstreamStatus >= 400 {
			status = cerr.UpstreamStatus
		}
		h.writeError(w, status, cerr.Message, cerr.Detail)
	default:
		h.logger.Error("unhandled chat error kind", zap.Int("kind", int(cerr.Kind)))
		h.writeError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

type createAgentRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	SystemPrompt string   `json:"system_prompt"`
	ModelID      string   `json:"model_id"`
	Temperature  *float64 `json:"temperature"`
	MaxTokens    *int     `json:"max_tokens"`
	AvatarColor  string   `json:"avatar_color"`
}

func (h *Handler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req createAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body", "")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "Agent name is required", "")
		return
	}
	if utf8.RuneCountInString(req.Name) > 100 {
		h.writeError(w, http.StatusBadRequest, "Agent name must be less than 100 characters", "")
		return
	}
	systemPrompt := strings.TrimSpace(req.SystemPrompt)
	if systemPrompt == "" {
		h.writeError(w, http.StatusBadRequest, "System prompt is required", "")
		return
	}
	if utf8.RuneCountInString(req.SystemPrompt) > 5000 {
		h.writeError(w, http.StatusBadRequest, "System prompt must be less than 5000 characters", "")
		return
	}
	if !models.IsValidModelID(req.ModelID) {
		h.writeError(w, http.StatusBadRequest, "Invalid model ID", "")
		return
	}
	if req.Temperature != nil && !models.IsValidTemperature(*req.Temperature) {
		h.writeError(w, http.StatusBadRequest, "Temperature must be between 0 and 2", "")
		return
	}
	if req.MaxTokens != nil && !models.IsValidMaxTokens(*req.MaxTokens) {
		h.writeError(w, http.StatusBadRequest, "Max tokens must be between 1 and 4096", "")
		return
	}

	agent := &models.Agent{
		UserID:       userID,
		Name:         name,
		Description:  strings.TrimSpace(req.Description),
		SystemPrompt: systemPrompt,
		ModelID:      req.ModelID,
		Temperature:  0.7,
		MaxTokens:    512,
		IsActive:     true,
		AvatarColor:  "#8B5CF6",
	}
	if req.Temperature != nil {
		agent.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		agent.MaxTokens = *req.MaxTokens
	}
	if req.AvatarColor != "" {
		agent.AvatarColor = req.AvatarColor
	}

	if err := h.db.CreateAgent(agent); err != nil {
		h.logger.Error("failed to create agent", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to create agent", "")
		return
	}

	h.writeSuccess(w, http.StatusCreated, agent)
}

func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	agents, err := h.db.ListAgents(userID)
	if err != nil {
		h.logger.Error("failed to list agents", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch agents", "")
		return
	}

	h.writeSuccess(w, http.StatusOK, agents)
}

func (h *Handler) GetAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	agent, err := h.db.GetAgent(r.PathValue("id"), userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Agent not found", "")
			return
		}
		h.logger.Error("failed to fetch agent", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch agent", "")
		return
	}

	h.writeSuccess(w, http.StatusOK, agent)
}

type updateAgentRequest struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	SystemPrompt *string  `json:"system_prompt"`
	ModelID      *string  `json:"model_id"`
	Temperature  *float64 `json:"temperature"`
	MaxTokens    *int     `json:"max_tokens"`
	IsActive     *bool    `json:"is_active"`
	AvatarColor  *string  `json:"avatar_color"`
}

func (h *Handler) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req updateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body", "")
		return
	}

	upd := db.AgentUpdate{
		ModelID:     req.ModelID,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		IsActive:    req.IsActive,
		AvatarColor: req.AvatarColor,
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			h.writeError(w, http.StatusBadRequest, "Agent name cannot be empty", "")
			return
		}
		if utf8.RuneCountInString(*req.Name) > 100 {
			h.writeError(w, http.StatusBadRequest, "Agent name must be less than 100 characters", "")
			return
		}
		upd.Name = &name
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		upd.Description = &desc
	}
	if req.SystemPrompt != nil {
		prompt := strings.TrimSpace(*req.SystemPrompt)
		if prompt == "" {
			h.writeError(w, http.StatusBadRequest, "System prompt cannot be empty", "")
			return
		}
		if utf8.RuneCountInString(*req.SystemPrompt) > 5000 {
			h.writeError(w, http.StatusBadRequest, "System prompt must be less than 5000 characters", "")
			return
		}
		upd.SystemPrompt = &prompt
	}
	if req.ModelID != nil && !models.IsValidModelID(*req.ModelID) {
		h.writeError(w, http.StatusBadRequest, "Invalid model ID", "")
		return
	}
	if req.Temperature != nil && !models.IsValidTemperature(*req.Temperature) {
		h.writeError(w, http.StatusBadRequest, "Temperature must be between 0 and 2", "")
		return
	}
	if req.MaxTokens != nil && !models.IsValidMaxTokens(*req.MaxTokens) {
		h.writeError(w, http.StatusBadRequest, "Max tokens must be between 1 and 4096", "")
		return
	}
	if upd.IsEmpty() {
		h.writeError(w, http.StatusBadRequest, "No fields to update", "")
		return
	}

	agent, err := h.db.UpdateAgent(r.PathValue("id"), userID, upd)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Agent not found", "")
			return
		}
		h.logger.Error("failed to update agent", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to update agent", "")
		return
	}

	h.writeSuccess(w, http.StatusOK, agent)
}

func (h *Handler) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := h.db.DeleteAgent(id, userID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Agent not found", "")
			return
		}
		h.logger.Error("failed to delete agent", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to delete agent", "")
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]string{"id": id})
}

func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	conversations, err := h.db.ListConversations(userID)
	if err != nil {
		h.logger.Error("failed to list conversations", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch conversations", "")
		return
	}

	h.writeSuccess(w, http.StatusOK, conversations)
}

func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	conv, err := h.db.GetConversation(r.PathValue("id"), userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Conversation not found", "")
			return
		}
		h.logger.Error("failed to fetch conversation", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch conversation", "")
		return
	}

	agent, err := h.db.GetAgent(conv.AgentID, userID)
	if err != nil {
		h.logger.Error("failed to fetch conversation agent", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch conversation", "")
		return
	}

	messages, err := h.db.ListMessages(conv.ID)
	if err != nil {
		h.logger.Error("failed to fetch messages", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch messages", "")
		return
	}

	h.writeSuccess(w, http.StatusOK, models.ConversationWithMessages{
		Conversation: *conv,
		Agent:        *agent,
		Messages:     messages,
	})
}

func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if err := h.db.DeleteConversation(id, userID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Conversation not found", "")
			return
		}
		h.logger.Error("failed to delete conversation", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "Failed to delete conversation", "")
		return
	}

	h.writeSuccess(w, http.StatusOK, map[string]string{"id": id})
}

// ListTemplates serves the public template catalog; no identity required.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, http.StatusOK, models.PublicTemplates())
}
