package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hmmmm3247/ContractGuard/service"
)

// ChatHandler serves transcripts keyed by contract id, or by
// "general_legal_concierge" for the general assistant.
type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) History(c *gin.Context) {
	msgs, err := h.chat.History(c.Request.Context(), c.Param("conversationId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// Send posts a user message. When the AI call fails the stored apology is
// still returned alongside the error.
func (h *ChatHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if !bindJSON(c, &req) {
		return
	}

	reply, err := h.chat.Send(c.Request.Context(), c.Param("conversationId"), req.Text)
	if err != nil {
		if reply != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": service.ChatFailureText,
				"kind":  "ServiceUnavailable",
				"user":  reply.User,
				"reply": reply.Reply,
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *ChatHandler) Clear(c *gin.Context) {
	if err := h.chat.Clear(c.Request.Context(), c.Param("conversationId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat cleared"})
}
