package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/billbuddy/billbuddy/internal/mailer"
	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/storage"
)

// GroupService manages groups and their membership: creation, invites,
// claiming, archival and the derived group-active flag.
type GroupService struct {
	store  storage.Store
	mailer mailer.Mailer
}

// NewGroupService creates a GroupService with the given storage and mailer.
func NewGroupService(store storage.Store, m mailer.Mailer) *GroupService {
	return &GroupService{store: store, mailer: m}
}

// CreateGroupRequest describes a new group.
type CreateGroupRequest struct {
	Name     string
	Currency string
	Image    string
}

// CreateGroup creates a group owned by the account, with the owner as its
// first active member.
func (s *GroupService) CreateGroup(ctx context.Context, ownerAccountID string, req CreateGroupRequest) (*models.Group, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrValidation)
	}
	if req.Currency == "" {
		req.Currency = models.DefaultCurrency
	}
	if !models.ValidCurrency(req.Currency) {
		return nil, fmt.Errorf("%w: unsupported currency %q", ErrValidation, req.Currency)
	}

	owner, err := s.store.GetAccountByID(ctx, ownerAccountID)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		OwnerAccountID: owner.ID,
		Name:           req.Name,
		Currency:       req.Currency,
		Image:          req.Image,
		InviteToken:    uuid.New().String(),
		Active:         true,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	if _, err := s.store.UpsertMemberByAccount(ctx, group.ID, owner.ID, owner.Email, owner.DisplayName()); err != nil {
		return nil, fmt.Errorf("failed to add owner as member: %w", err)
	}

	slog.Info("Group created", "group_id", group.ID, "owner", owner.ID)
	return group, nil
}

// UpdateGroupRequest carries the editable group fields. Empty fields keep
// their current value.
type UpdateGroupRequest struct {
	Name     string
	Currency string
	Image    string
}

// UpdateGroup edits a group's display fields. Only active members may edit.
func (s *GroupService) UpdateGroup(ctx context.Context, accountID, groupID string, req UpdateGroupRequest) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.requireActiveMember(ctx, groupID, accountID); err != nil {
		return nil, err
	}

	if req.Name != "" {
		group.Name = req.Name
	}
	if req.Currency != "" {
		if !models.ValidCurrency(req.Currency) {
			return nil, fmt.Errorf("%w: unsupported currency %q", ErrValidation, req.Currency)
		}
		group.Currency = req.Currency
	}
	if req.Image != "" {
		group.Image = req.Image
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// GetGroup returns the group if the account is one of its members.
func (s *GroupService) GetGroup(ctx context.Context, accountID, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetMemberByAccount(ctx, groupID, accountID); err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroups returns the caller's groups, optionally filtered to active or
// archived ones.
func (s *GroupService) ListGroups(ctx context.Context, accountID string, filter storage.GroupFilter) ([]*models.Group, error) {
	return s.store.ListGroupsByAccount(ctx, accountID, filter)
}

// SetArchived archives or restores a group. Archival only flips the flag;
// the ledger stays readable.
func (s *GroupService) SetArchived(ctx context.Context, accountID, groupID string, archived bool) error {
	if _, err := s.store.GetGroup(ctx, groupID); err != nil {
		return err
	}
	if _, err := s.store.GetMemberByAccount(ctx, groupID, accountID); err != nil {
		return err
	}

	if archived {
		return s.store.SetGroupActive(ctx, groupID, false)
	}
	// Restoring re-derives the flag instead of forcing it: a group with no
	// active members stays inactive.
	return s.recomputeGroupActive(ctx, groupID)
}

// Invite is one person to add to a group.
type Invite struct {
	Email string
	Name  string
}

// InviteMembers adds people to a group. A known email becomes an active
// member immediately; an unknown one becomes an inactive placeholder that is
// claimed when the person signs up, and gets an invite email.
func (s *GroupService) InviteMembers(ctx context.Context, inviterAccountID, groupID string, invites []Invite) ([]storage.MemberInfo, error) {
	if len(invites) == 0 {
		return nil, fmt.Errorf("%w: no invites given", ErrValidation)
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.requireActiveMember(ctx, groupID, inviterAccountID); err != nil {
		return nil, err
	}

	for _, invite := range invites {
		if invite.Email == "" {
			return nil, fmt.Errorf("%w: invite email is required", ErrValidation)
		}

		account, err := s.store.GetAccountByEmail(ctx, invite.Email)
		if err == nil {
			if _, err := s.store.UpsertMemberByAccount(ctx, groupID, account.ID, account.Email, account.DisplayName()); err != nil {
				return nil, err
			}
			continue
		}

		if _, err := s.store.UpsertInvitedMember(ctx, groupID, invite.Email, invite.Name); err != nil {
			return nil, err
		}
		if mailErr := s.mailer.Send(invite.Email,
			fmt.Sprintf("You've been added to %s on BillBuddy", group.Name),
			fmt.Sprintf("Sign up with this email address to join %s and settle up.", group.Name),
		); mailErr != nil {
			// The membership row stands either way; the invite can be
			// re-sent or claimed via the group token.
			slog.Warn("Invite email failed", "group_id", groupID, "error", mailErr)
		}
	}

	if err := s.recomputeGroupActive(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.ListMembers(ctx, groupID, false)
}

// AcceptInviteToken joins the account to the group behind the token.
func (s *GroupService) AcceptInviteToken(ctx context.Context, accountID, token string) (*models.Group, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: invite token is required", ErrValidation)
	}
	group, err := s.store.GetGroupByInviteToken(ctx, token)
	if err != nil {
		return nil, err
	}
	account, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.UpsertMemberByAccount(ctx, group.ID, account.ID, account.Email, account.DisplayName()); err != nil {
		return nil, err
	}
	if err := s.recomputeGroupActive(ctx, group.ID); err != nil {
		return nil, err
	}
	slog.Info("Invite token accepted", "group_id", group.ID, "account_id", account.ID)
	return group, nil
}

// ClaimInvites links every pending invite for the account's email to the
// account itself. Called once, right after registration.
func (s *GroupService) ClaimInvites(ctx context.Context, account *models.Account) (int, error) {
	claimed, groupIDs, err := s.store.ClaimInvites(ctx, account.ID, account.Email)
	if err != nil {
		return 0, err
	}
	for _, groupID := range groupIDs {
		if err := s.recomputeGroupActive(ctx, groupID); err != nil {
			return claimed, err
		}
	}
	if claimed > 0 {
		slog.Info("Pending invites claimed", "account_id", account.ID, "claimed", claimed)
	}
	return claimed, nil
}

// ListMembers returns the group's members with resolved display identities.
func (s *GroupService) ListMembers(ctx context.Context, accountID, groupID string, activeOnly bool) ([]storage.MemberInfo, error) {
	if _, err := s.store.GetMemberByAccount(ctx, groupID, accountID); err != nil {
		return nil, err
	}
	return s.store.ListMembers(ctx, groupID, activeOnly)
}

// RemoveMembers deactivates members and re-derives the active flag of every
// affected group. Member rows are never deleted; their shares stay on the
// ledger.
func (s *GroupService) RemoveMembers(ctx context.Context, accountID, groupID string, memberIDs []string) error {
	if len(memberIDs) == 0 {
		return fmt.Errorf("%w: no members given", ErrValidation)
	}
	if err := s.requireActiveMember(ctx, groupID, accountID); err != nil {
		return err
	}
	for _, memberID := range memberIDs {
		member, err := s.store.GetMember(ctx, memberID)
		if err != nil {
			return err
		}
		if member.GroupID != groupID {
			return fmt.Errorf("%w: member %s belongs to a different group", ErrValidation, memberID)
		}
	}

	removed, groupIDs, err := s.store.DeactivateMembers(ctx, memberIDs)
	if err != nil {
		return err
	}
	for _, id := range groupIDs {
		if err := s.recomputeGroupActive(ctx, id); err != nil {
			return err
		}
	}
	slog.Info("Members removed", "group_id", groupID, "removed", removed)
	return nil
}

// MemberForAccount resolves the caller's membership row in a group.
func (s *GroupService) MemberForAccount(ctx context.Context, groupID, accountID string) (*models.Member, error) {
	return s.store.GetMemberByAccount(ctx, groupID, accountID)
}

func (s *GroupService) requireActiveMember(ctx context.Context, groupID, accountID string) error {
	member, err := s.store.GetMemberByAccount(ctx, groupID, accountID)
	if err != nil {
		return err
	}
	if !member.Active {
		return fmt.Errorf("%w: membership is inactive", ErrConflict)
	}
	return nil
}

// recomputeGroupActive derives the group's active flag: active iff at least
// one active member remains.
func (s *GroupService) recomputeGroupActive(ctx context.Context, groupID string) error {
	count, err := s.store.CountActiveMembers(ctx, groupID)
	if err != nil {
		return err
	}
	return s.store.SetGroupActive(ctx, groupID, count > 0)
}
