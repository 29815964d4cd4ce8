package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"clozet/internal/app/dto"
	messagingsvc "clozet/internal/app/services/messaging"
	domainmessaging "clozet/internal/domain/messaging"
)

// MessageHTTP exposes message CRUD endpoints.
type MessageHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// MessageHandler bridges HTTP with the messaging service.
type MessageHandler struct {
	Service *messagingsvc.Service
	Logger  *slog.Logger
}

// List returns every stored message. Administrative use only.
func (h MessageHandler) List(c *gin.Context) {
	messages, err := h.Service.ListMessages(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "list messages")
		return
	}
	items := make([]dto.Message, 0, len(messages))
	for _, m := range messages {
		items = append(items, dto.NewMessage(m))
	}
	c.JSON(http.StatusOK, items)
}

func (h MessageHandler) Get(c *gin.Context) {
	id := domainmessaging.MessageID(c.Param("id"))
	message, err := h.Service.GetMessage(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "get message", "message_id", id)
		return
	}
	c.JSON(http.StatusOK, dto.NewMessage(message))
}

func (h MessageHandler) Create(c *gin.Context) {
	var req dto.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	message, err := h.Service.CreateMessage(c.Request.Context(), messagingsvc.CreateMessageParams{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		ListingID:  req.ListingID,
		Content:    req.Content,
	})
	if err != nil {
		h.respondError(c, err, "create message", "sender_id", req.SenderID)
		return
	}
	c.JSON(http.StatusCreated, dto.NewMessage(message))
}

func (h MessageHandler) Update(c *gin.Context) {
	id := domainmessaging.MessageID(c.Param("id"))
	var req dto.UpdateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	message, err := h.Service.UpdateMessage(c.Request.Context(), id, messagingsvc.UpdateMessageParams{
		Content: req.Content,
		IsRead:  req.IsRead,
	})
	if err != nil {
		h.respondError(c, err, "update message", "message_id", id)
		return
	}
	c.JSON(http.StatusOK, dto.NewMessage(message))
}

// Delete hard-deletes a message. Independent of conversation archival.
func (h MessageHandler) Delete(c *gin.Context) {
	id := domainmessaging.MessageID(c.Param("id"))
	if err := h.Service.DeleteMessage(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "delete message", "message_id", id)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h MessageHandler) respondError(c *gin.Context, err error, action string, attrs ...any) {
	respondMessagingError(c, h.Logger, err, action, attrs...)
}

func respondMessagingError(c *gin.Context, logger *slog.Logger, err error, action string, attrs ...any) {
	switch {
	case errors.Is(err, domainmessaging.ErrNotFound), errors.Is(err, domainmessaging.ErrConversationMissing):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domainmessaging.ErrEmptyContent),
		errors.Is(err, domainmessaging.ErrParticipantRequired),
		errors.Is(err, domainmessaging.ErrUserRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if logger != nil {
			logger.Error("messaging call failed", append([]any{"action", action, "error", err}, attrs...)...)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

var _ MessageHTTP = (*MessageHandler)(nil)
