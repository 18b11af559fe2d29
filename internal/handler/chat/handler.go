package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/groqchat/groqchat/internal/model/catalog"
	"github.com/groqchat/groqchat/internal/model/chat"
	chatService "github.com/groqchat/groqchat/internal/service/chat"
	"github.com/groqchat/groqchat/pkg/utils"
)

// Completer abstracts the completion gateway for testing.
type Completer interface {
	Complete(ctx context.Context, transcript []chat.Message, model string) (string, error)
}

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc      *chatService.Service
	gateway      Completer
	models       catalog.Store
	defaultModel string
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, gateway Completer, models catalog.Store, defaultModel string) *Handler {
	return &Handler{
		chatSvc:      chatSvc,
		gateway:      gateway,
		models:       models,
		defaultModel: defaultModel,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Post("/chat", h.handleChat)
	r.Get("/session/{sessionID}/messages", h.handleTranscript)
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Model string `json:"model"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	model := strings.TrimSpace(payload.Model)
	if model == "" {
		model = h.defaultModel
	}
	if _, ok := h.models.FindByID(model); !ok {
		utils.RespondError(w, http.StatusBadRequest, "unknown model")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), model)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

// handleChat runs one blocking chat turn: append the user message, forward
// the full transcript to the provider, append the reply.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(payload.Message)
	if message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	session, err := h.chatSvc.GetSession(r.Context(), payload.SessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	if _, err := h.chatSvc.SaveMessage(r.Context(), chat.Message{
		SessionID: session.ID,
		Role:      chat.RoleUser,
		Content:   message,
	}); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	transcript, err := h.chatSvc.LoadTranscript(r.Context(), session.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	reply, err := h.gateway.Complete(r.Context(), transcript, session.Model)
	if err != nil {
		// The user message stays in the transcript; the user decides
		// whether to resend.
		log.Printf("[chat] completion failed for session=%s: %v", session.ID, err)
		utils.RespondError(w, http.StatusBadGateway, "failed to fetch response from LLM: "+err.Error())
		return
	}

	if _, err := h.chatSvc.SaveMessage(r.Context(), chat.Message{
		SessionID: session.ID,
		Role:      chat.RoleAssistant,
		Content:   reply,
	}); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	history, err := h.chatSvc.LoadTranscript(r.Context(), session.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"response": reply,
		"history":  history,
	})
}

// handleTranscript 返回会话的完整消息记录
func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	transcript, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, "session not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": transcript})
}
