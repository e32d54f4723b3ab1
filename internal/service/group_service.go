package service

import (
	"context"
	"fmt"
	"log/slog"

	"paymate/internal/models"
	"paymate/internal/storage"
)

// GroupService manages expense groups.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a new group. The creator is always a member, listed
// or not; every listed member must be an existing user.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID, name string, memberIDs []string) (*models.Group, error) {
	members := make([]string, 0, len(memberIDs)+1)
	seen := make(map[string]bool, len(memberIDs)+1)
	for _, id := range append([]string{creatorID}, memberIDs...) {
		if seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}

	users, err := s.store.GetUsersByIDs(ctx, members)
	if err != nil {
		return nil, err
	}
	for _, id := range members {
		if users[id] == nil {
			return nil, fmt.Errorf("%w: %s", storage.ErrUserNotFound, id)
		}
	}

	group := &models.Group{
		Name:      name,
		CreatedBy: creatorID,
		Members:   members,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "members", len(group.Members))
	return group, nil
}

// GetGroup retrieves a group for one of its members.
func (s *GroupService) GetGroup(ctx context.Context, requesterID, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(requesterID) {
		return nil, ErrNotGroupMember
	}
	return group, nil
}

// ListGroups retrieves every group the user belongs to.
func (s *GroupService) ListGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	return s.store.ListGroupsByMember(ctx, userID)
}
