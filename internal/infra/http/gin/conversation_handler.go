package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"clozet/internal/app/dto"
	messagingsvc "clozet/internal/app/services/messaging"
)

// ConversationHTTP exposes the derived conversation surface.
type ConversationHTTP interface {
	ListForUser(c *gin.Context)
	Archive(c *gin.Context)
}

// ConversationHandler serves conversation projections and archival.
type ConversationHandler struct {
	Service *messagingsvc.Service
	Logger  *slog.Logger
}

// ListForUser returns the user's conversations, newest activity first.
func (h ConversationHandler) ListForUser(c *gin.Context) {
	userID, ok := resolveUserID(c)
	if !ok {
		return
	}
	conversations, err := h.Service.UserConversations(c.Request.Context(), userID)
	if err != nil {
		respondMessagingError(c, h.Logger, err, "list conversations", "user_id", userID)
		return
	}
	items := make([]dto.Conversation, 0, len(conversations))
	for _, conversation := range conversations {
		items = append(items, dto.NewConversation(conversation))
	}
	c.JSON(http.StatusOK, items)
}

// Archive hides one conversation for the requesting user only.
func (h ConversationHandler) Archive(c *gin.Context) {
	userID, ok := resolveUserID(c)
	if !ok {
		return
	}
	conversationID := c.Param("id")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation id is required"})
		return
	}
	if err := h.Service.ArchiveConversation(c.Request.Context(), conversationID, userID); err != nil {
		respondMessagingError(c, h.Logger, err, "archive conversation", "conversation_id", conversationID, "user_id", userID)
		return
	}
	c.Status(http.StatusOK)
}

var _ ConversationHTTP = (*ConversationHandler)(nil)
