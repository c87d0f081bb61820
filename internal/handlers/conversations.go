package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Edura-Academy/edura-sub002/internal/models"
	"github.com/Edura-Academy/edura-sub002/internal/telemetry"
)

// DirectoryService is the conversation directory surface the handler needs.
type DirectoryService interface {
	CreateOrGetDirect(ctx context.Context, requesterID, targetID string) (models.Conversation, error)
	CreateGroup(ctx context.Context, requesterID, title string, memberIDs []string) (models.Conversation, error)
	List(ctx context.Context, userID string) ([]models.ConversationSummary, error)
	AddMember(ctx context.Context, conversationID, requesterID, userID string) error
	RemoveMember(ctx context.Context, conversationID, requesterID, userID string) error
	PromoteToAdmin(ctx context.Context, conversationID, requesterID, userID string) error
}

// ConversationHandler manages conversation lifecycle and membership
// endpoints.
type ConversationHandler struct {
	directory DirectoryService
	audit     *telemetry.AuditEmitter
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(directory DirectoryService, audit *telemetry.AuditEmitter) *ConversationHandler {
	return &ConversationHandler{directory: directory, audit: audit}
}

// Create handles POST /conversations: a direct conversation when
// target_user_id is set, a group when title and member_ids are.
func (h *ConversationHandler) Create(c *gin.Context) {
	var req struct {
		TargetUserID string   `json:"target_user_id"`
		Title        string   `json:"title"`
		MemberIDs    []string `json:"member_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requesterID := callerID(c)

	var conv models.Conversation
	var err error
	switch {
	case req.TargetUserID != "":
		conv, err = h.directory.CreateOrGetDirect(c.Request.Context(), requesterID, req.TargetUserID)
	default:
		conv, err = h.directory.CreateGroup(c.Request.Context(), requesterID, req.Title, req.MemberIDs)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), "conversation_created", conv.ID, string(conv.Kind), auditMeta(c))
	c.JSON(http.StatusCreated, conv)
}

// List handles GET /conversations.
func (h *ConversationHandler) List(c *gin.Context) {
	summaries, err := h.directory.List(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": summaries})
}

// AddMember handles POST /conversations/:conversation_id/members.
func (h *ConversationHandler) AddMember(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.directory.AddMember(c.Request.Context(), conversationID, callerID(c), req.UserID); err != nil {
		respondError(c, err)
		return
	}
	h.audit.Emit(c.Request.Context(), "member_added", conversationID, req.UserID, auditMeta(c))
	c.Status(http.StatusNoContent)
}

// RemoveMember handles DELETE /conversations/:conversation_id/members/:user_id.
func (h *ConversationHandler) RemoveMember(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	userID := c.Param("user_id")

	if err := h.directory.RemoveMember(c.Request.Context(), conversationID, callerID(c), userID); err != nil {
		respondError(c, err)
		return
	}
	h.audit.Emit(c.Request.Context(), "member_removed", conversationID, userID, auditMeta(c))
	c.Status(http.StatusNoContent)
}

// PromoteMember handles POST /conversations/:conversation_id/members/:user_id/promote.
func (h *ConversationHandler) PromoteMember(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	userID := c.Param("user_id")

	if err := h.directory.PromoteToAdmin(c.Request.Context(), conversationID, callerID(c), userID); err != nil {
		respondError(c, err)
		return
	}
	h.audit.Emit(c.Request.Context(), "member_promoted", conversationID, userID, auditMeta(c))
	c.Status(http.StatusNoContent)
}
