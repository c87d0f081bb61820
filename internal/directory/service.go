package directory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/Edura-Academy/edura-sub002/internal/errs"
	"github.com/Edura-Academy/edura-sub002/internal/models"
	"github.com/Edura-Academy/edura-sub002/internal/repositories"
	"github.com/Edura-Academy/edura-sub002/internal/userdir"
)

// Service creates and looks up conversations and manages group membership.
// It is the only component that consults the user directory's role metadata.
type Service struct {
	convRepo   repositories.ConversationRepository
	msgRepo    repositories.MessageRepository
	cursorRepo repositories.ReadCursorRepository
	users      userdir.Directory
}

// NewService builds a directory Service.
func NewService(convRepo repositories.ConversationRepository, msgRepo repositories.MessageRepository, cursorRepo repositories.ReadCursorRepository, users userdir.Directory) *Service {
	return &Service{
		convRepo:   convRepo,
		msgRepo:    msgRepo,
		cursorRepo: cursorRepo,
		users:      users,
	}
}

// CreateOrGetDirect returns the direct conversation between requester and
// target, creating it when absent. Calling it twice, in either argument
// order, yields the same conversation.
func (s *Service) CreateOrGetDirect(ctx context.Context, requesterID, targetID string) (models.Conversation, error) {
	if targetID == "" || targetID == requesterID {
		return models.Conversation{}, errs.InvalidArgumentf("invalid target user")
	}

	requester, err := s.users.GetUser(ctx, requesterID)
	if err != nil {
		return models.Conversation{}, err
	}
	target, err := s.users.GetUser(ctx, targetID)
	if err != nil {
		return models.Conversation{}, err
	}
	if !target.Active {
		return models.Conversation{}, errs.NotFoundf("user %s is not active", targetID)
	}
	if !CanStartDirect(requester.Role, target.Role) {
		return models.Conversation{}, errs.Forbiddenf("%s may not message %s", requester.Role, target.Role)
	}

	return s.convRepo.CreateOrGetDirect(ctx, requesterID, targetID)
}

// CreateGroup creates a group conversation with the requester as its first
// admin. All listed members must resolve to known users.
func (s *Service) CreateGroup(ctx context.Context, requesterID, title string, memberIDs []string) (models.Conversation, error) {
	if strings.TrimSpace(title) == "" {
		return models.Conversation{}, errs.InvalidArgumentf("group title is required")
	}
	if len(memberIDs) == 0 {
		return models.Conversation{}, errs.InvalidArgumentf("group needs at least one member")
	}

	requester, err := s.users.GetUser(ctx, requesterID)
	if err != nil {
		return models.Conversation{}, err
	}
	if !CanCreateGroup(requester.Role) {
		return models.Conversation{}, errs.Forbiddenf("%s may not create groups", requester.Role)
	}

	profiles, err := s.users.BulkUsers(ctx, memberIDs)
	if err != nil {
		return models.Conversation{}, err
	}
	known := make(map[string]struct{}, len(profiles))
	for _, p := range profiles {
		known[p.ID] = struct{}{}
	}
	for _, id := range memberIDs {
		if _, ok := known[id]; !ok {
			return models.Conversation{}, errs.NotFoundf("user %s", id)
		}
	}

	return s.convRepo.CreateGroup(ctx, requesterID, strings.TrimSpace(title), memberIDs)
}

// List returns the viewer's conversations ordered pinned-first, then most
// recent activity, conversation id as the final tie-break. Each summary
// carries the derived title, last message preview and unread count.
func (s *Service) List(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	convs, err := s.convRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return []models.ConversationSummary{}, nil
	}

	ids := make([]string, 0, len(convs))
	peerByConv := make(map[string]string)
	peerIDs := make([]string, 0)
	for _, conv := range convs {
		ids = append(ids, conv.ID)
		if conv.Kind == models.KindDirect {
			peer, err := s.convRepo.DirectPeer(ctx, conv.ID, userID)
			if err != nil {
				return nil, err
			}
			peerByConv[conv.ID] = peer
			peerIDs = append(peerIDs, peer)
		}
	}

	profileByID := map[string]userdir.Profile{}
	if len(peerIDs) > 0 {
		profiles, err := s.users.BulkUsers(ctx, peerIDs)
		if err != nil {
			return nil, err
		}
		for _, p := range profiles {
			profileByID[p.ID] = p
		}
	}

	previews, err := s.msgRepo.LatestByConversation(ctx, ids)
	if err != nil {
		return nil, err
	}
	unread, err := s.cursorRepo.UnreadCounts(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	flags, err := s.cursorRepo.Flags(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summary := models.ConversationSummary{
			ID:          conv.ID,
			Kind:        conv.Kind,
			Title:       conv.Title,
			UnreadCount: unread[conv.ID],
			UpdatedAt:   conv.UpdatedAt,
		}
		if conv.Kind == models.KindDirect {
			peer := peerByConv[conv.ID]
			summary.PeerID = peer
			if p, ok := profileByID[peer]; ok {
				summary.Title = p.DisplayName
				summary.PeerOnline = p.Online
			}
		}
		if msg, ok := previews[conv.ID]; ok {
			preview := msg
			summary.LastMessage = &preview
		}
		if cur, ok := flags[conv.ID]; ok {
			summary.Pinned = cur.Pinned
			summary.Muted = cur.Muted
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Pinned != summaries[j].Pinned {
			return summaries[i].Pinned
		}
		if !summaries[i].UpdatedAt.Equal(summaries[j].UpdatedAt) {
			return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

// AddMember adds a user to a group. Requester must be a group admin.
func (s *Service) AddMember(ctx context.Context, conversationID, requesterID, userID string) error {
	if err := s.requireGroupAdmin(ctx, conversationID, requesterID); err != nil {
		return err
	}

	profile, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !profile.Active {
		return errs.NotFoundf("user %s is not active", userID)
	}
	return s.convRepo.AddMember(ctx, conversationID, userID, models.RoleMember)
}

// RemoveMember removes a user from a group. Removing the last remaining
// admin is rejected so the group is never orphaned.
func (s *Service) RemoveMember(ctx context.Context, conversationID, requesterID, userID string) error {
	if err := s.requireGroupAdmin(ctx, conversationID, requesterID); err != nil {
		return err
	}

	role, err := s.convRepo.MemberRole(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, errs.ErrForbidden) {
			return errs.NotFoundf("member %s in conversation %s", userID, conversationID)
		}
		return err
	}
	if role == models.RoleAdmin {
		admins, err := s.convRepo.CountAdmins(ctx, conversationID)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return errs.InvalidStatef("cannot remove the last admin of %s", conversationID)
		}
	}
	return s.convRepo.RemoveMember(ctx, conversationID, userID)
}

// PromoteToAdmin grants admin role to an existing group member.
func (s *Service) PromoteToAdmin(ctx context.Context, conversationID, requesterID, userID string) error {
	if err := s.requireGroupAdmin(ctx, conversationID, requesterID); err != nil {
		return err
	}
	if _, err := s.convRepo.MemberRole(ctx, conversationID, userID); err != nil {
		if errors.Is(err, errs.ErrForbidden) {
			return errs.NotFoundf("member %s in conversation %s", userID, conversationID)
		}
		return err
	}
	return s.convRepo.SetMemberRole(ctx, conversationID, userID, models.RoleAdmin)
}

func (s *Service) requireGroupAdmin(ctx context.Context, conversationID, requesterID string) error {
	conv, err := s.convRepo.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv.Kind != models.KindGroup {
		return errs.InvalidStatef("membership of a direct conversation is fixed")
	}
	role, err := s.convRepo.MemberRole(ctx, conversationID, requesterID)
	if err != nil {
		return err
	}
	if role != models.RoleAdmin {
		return errs.Forbiddenf("user %s is not an admin of %s", requesterID, conversationID)
	}
	return nil
}
