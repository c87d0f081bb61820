package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Edura-Academy/edura-sub002/internal/models"
)

// ReadStateService is the read-state tracker surface the handler needs.
type ReadStateService interface {
	MarkRead(ctx context.Context, conversationID, userID string, uptoSeq int64) error
	Cursor(ctx context.Context, conversationID, userID string) (models.ReadCursor, error)
	UnreadCount(ctx context.Context, conversationID, userID string) (int, error)
	SetFlags(ctx context.Context, conversationID, userID string, pinned, muted *bool) error
}

// ReadStateHandler manages read cursors and viewer flags.
type ReadStateHandler struct {
	readState ReadStateService
}

// NewReadStateHandler builds a ReadStateHandler.
func NewReadStateHandler(readState ReadStateService) *ReadStateHandler {
	return &ReadStateHandler{readState: readState}
}

// MarkRead handles POST /conversations/:conversation_id/read. Clients call
// it when a view is opened or scrolled to the bottom, with the newest
// visible seq; the server never advances cursors on its own.
func (h *ReadStateHandler) MarkRead(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	var req struct {
		UpTo int64 `json:"up_to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := callerID(c)
	if err := h.readState.MarkRead(c.Request.Context(), conversationID, userID, req.UpTo); err != nil {
		respondError(c, err)
		return
	}

	cursor, err := h.readState.Cursor(c.Request.Context(), conversationID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	unread, err := h.readState.UnreadCount(c.Request.Context(), conversationID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"last_read_seq": cursor.LastReadSeq, "unread_count": unread})
}

// SetFlags handles POST /conversations/:conversation_id/flags.
func (h *ReadStateHandler) SetFlags(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	var req struct {
		Pinned *bool `json:"pinned"`
		Muted  *bool `json:"muted"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.readState.SetFlags(c.Request.Context(), conversationID, callerID(c), req.Pinned, req.Muted); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
