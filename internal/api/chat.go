package api

import (
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/finchley/taskchat/internal/llm"
	"github.com/finchley/taskchat/internal/store"
	"github.com/finchley/taskchat/internal/tools"
)

const maxChatMessageLen = 2000

type chatRequest struct {
	Message string `json:"message"`
}

type chatAction struct {
	Tool   string          `json:"tool"`
	Result *tools.Envelope `json:"result"`
}

type chatResponse struct {
	Response       string      `json:"response"`
	Action         *chatAction `json:"action"`
	ConversationID string      `json:"conversation_id"`
}

// handleChat runs one turn of conversation: the user's message is
// persisted, recent history is replayed to the model, and whatever the
// loop produced (tool traces included) is persisted before responding.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if req.Message == "" {
		s.errorResponse(w, http.StatusUnprocessableEntity, "message must not be empty")
		return
	}
	if utf8.RuneCountInString(req.Message) > maxChatMessageLen {
		s.errorResponse(w, http.StatusUnprocessableEntity, "message must be at most 2000 characters")
		return
	}

	conv, err := s.store.GetOrCreateConversation(userID)
	if err != nil {
		s.logger.Error("conversation lookup failed", "user", userID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if _, err := s.store.AddMessage(conv.ID, store.RoleUser, req.Message, "", "", ""); err != nil {
		s.logger.Error("persist user message failed", "conversation", conv.ID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	history, err := s.store.RecentHistory(conv.ID, store.DefaultHistoryLimit)
	if err != nil {
		s.logger.Error("history fetch failed", "conversation", conv.ID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	msgs := make([]llm.Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}

	result := s.loop.Run(r.Context(), userID, msgs)

	// Tool traces land before the assistant turn so the transcript
	// reads in execution order.
	for _, tm := range result.ToolMessages {
		if _, err := s.store.AddMessage(conv.ID, store.RoleTool, tm.Content, tm.ToolCallID, tm.ToolName, tm.ToolArgs); err != nil {
			s.logger.Error("persist tool message failed", "conversation", conv.ID, "tool", tm.ToolName, "error", err)
		}
	}
	if _, err := s.store.AddMessage(conv.ID, store.RoleAssistant, result.Response, "", "", ""); err != nil {
		s.logger.Error("persist assistant message failed", "conversation", conv.ID, "error", err)
	}
	if err := s.store.TouchConversation(conv.ID); err != nil {
		s.logger.Error("touch conversation failed", "conversation", conv.ID, "error", err)
	}

	resp := chatResponse{
		Response:       result.Response,
		ConversationID: conv.ID,
	}
	if result.ToolName != "" {
		resp.Action = &chatAction{Tool: result.ToolName, Result: result.ToolResult}
	}

	s.writeJSON(w, http.StatusOK, resp)
}
