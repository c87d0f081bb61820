package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Edura-Academy/edura-sub002/internal/models"
)

// MessageLogService is the append surface the handler needs.
type MessageLogService interface {
	Append(ctx context.Context, conversationID, senderID, content, attachmentRef string) (models.Message, error)
	Edit(ctx context.Context, conversationID string, seq int64, senderID, content string) (models.Message, error)
}

// SyncService serves the two read shapes of the sync protocol.
type SyncService interface {
	History(ctx context.Context, conversationID, userID string, beforeSeq int64, limit int) ([]models.Message, error)
	SinceCursor(ctx context.Context, conversationID, userID string, afterSeq int64) ([]models.Message, error)
}

// MessageHandler manages message read and append endpoints.
type MessageHandler struct {
	log  MessageLogService
	sync SyncService
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(log MessageLogService, sync SyncService) *MessageHandler {
	return &MessageHandler{log: log, sync: sync}
}

// GetHistory handles GET /conversations/:conversation_id/messages.
// Returns a page newest-first; `before` pages backward, `limit` caps the
// page size.
func (h *MessageHandler) GetHistory(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	before, ok := parseCursorQuery(c, "before")
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	msgs, err := h.sync.History(c.Request.Context(), conversationID, callerID(c), before, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// GetNew handles GET /conversations/:conversation_id/messages/new.
// Returns the batch past `after`, oldest-first, possibly empty.
func (h *MessageHandler) GetNew(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	after, ok := parseCursorQuery(c, "after")
	if !ok {
		return
	}

	msgs, err := h.sync.SinceCursor(c.Request.Context(), conversationID, callerID(c), after)
	if err != nil {
		respondError(c, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Post handles POST /conversations/:conversation_id/messages and returns
// the canonical stored message.
func (h *MessageHandler) Post(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	var req struct {
		Content       string `json:"content"`
		AttachmentRef string `json:"attachment_ref"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.log.Append(c.Request.Context(), conversationID, callerID(c), req.Content, req.AttachmentRef)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Edit handles PUT /conversations/:conversation_id/messages/:seq.
func (h *MessageHandler) Edit(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	seq, err := strconv.ParseInt(c.Param("seq"), 10, 64)
	if err != nil || seq <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message seq"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.log.Edit(c.Request.Context(), conversationID, seq, callerID(c), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func parseCursorQuery(c *gin.Context, name string) (int64, bool) {
	raw := c.DefaultQuery(name, "0")
	cursor, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || cursor < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " cursor"})
		return 0, false
	}
	return cursor, true
}
