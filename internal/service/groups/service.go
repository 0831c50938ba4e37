package groups

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/studybuddy/studybuddy/internal/app"
	"github.com/studybuddy/studybuddy/internal/db"
	svcErr "github.com/studybuddy/studybuddy/internal/errors"
	"github.com/studybuddy/studybuddy/internal/realtime"
	"github.com/studybuddy/studybuddy/internal/repository"
)

// Service is the group membership synchronizer. It owns the invariant
// that a study group's roster and its chat's user set stay identical, the
// roster ceiling, and the dissolve-at-two rule.
type Service struct {
	appCtx    *app.AppContext
	groupRepo *repository.GroupRepository
	chatRepo  *repository.ChatRepository
	userRepo  *repository.UserRepository
	noteRepo  *repository.NotificationRepository
}

// NewService creates the synchronizer with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		groupRepo: repository.NewGroupRepository(appCtx.DB),
		chatRepo:  repository.NewChatRepository(appCtx.DB),
		userRepo:  repository.NewUserRepository(appCtx.DB),
		noteRepo:  repository.NewNotificationRepository(appCtx.DB),
	}
}

// Membership writes to the same group serialize through a per-group
// mutex: two interleaved adds must not both pass the ceiling check.
// Package-level because several services hold their own Service value.
var groupLocks sync.Map

func lockGroup(groupID uint64) func() {
	v, _ := groupLocks.LoadOrStore(groupID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Create starts a new study group with the creator as its first member.
// The chat is created lazily on the first membership add that needs it.
func (s *Service) Create(
	ctx context.Context,
	creatorID uint64,
	name, description, subject string,
) (*db.StudyGroup, error) {
	if name == "" || creatorID == 0 {
		return nil, svcErr.ErrInvalidInput
	}

	creator, err := s.userRepo.FindByID(ctx, creatorID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	group := db.StudyGroup{
		Name:        name,
		Description: description,
		Subject:     subject,
		CreatedByID: creator.ID,
		Users:       []db.User{*creator},
	}
	if err := s.groupRepo.Create(ctx, &group); err != nil {
		return nil, svcErr.Map(err)
	}

	s.appCtx.Logger.Info("study group created", "group", group.ID, "creator", creatorID)
	return &group, nil
}

// AddMember adds a user to the group roster and mirrors the change into
// the group chat. When the group has no chat yet, one is created lazily
// holding only the new member; callers reconcile the rest with Sync.
func (s *Service) AddMember(ctx context.Context, groupID, userID uint64) error {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return svcErr.Map(err)
	}

	unlock := lockGroup(groupID)
	defer unlock()

	// roster checks run on the transactional read so a concurrent add
	// cannot slip past the ceiling on a stale snapshot
	var group *db.StudyGroup
	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groups := s.groupRepo.WithTx(tx)
		chats := s.chatRepo.WithTx(tx)

		var err error
		group, err = groups.FindByID(ctx, groupID)
		if err != nil {
			return err
		}
		if len(group.Users) >= db.MaxGroupSize {
			return svcErr.ErrGroupFull
		}
		for _, member := range group.Users {
			if member.ID == userID {
				return svcErr.ErrAlreadyMember
			}
		}

		if err := groups.AddUser(ctx, groupID, userID); err != nil {
			return err
		}

		if group.ChatID != nil {
			return chats.AddUser(ctx, *group.ChatID, userID)
		}

		chat := db.Chat{
			Name:         fmt.Sprintf("Study Group %d", groupID),
			StudyGroupID: &groupID,
			Users:        []db.User{{ID: userID}},
		}
		if err := chats.Create(ctx, &chat); err != nil {
			return err
		}
		return groups.SetChatID(ctx, groupID, chat.ID)
	})
	if err != nil {
		err = svcErr.Map(err)
		if errors.Is(err, svcErr.ErrInternal) {
			s.appCtx.Logger.Error("AddMember failed", "group", groupID, "user", userID, "err", err)
		}
		return err
	}

	// fire-and-forget phase
	note := db.Notification{
		UserID:       userID,
		Message:      "you were added to " + group.Name,
		Type:         db.NotificationStudyGroup,
		StudyGroupID: &groupID,
	}
	if err := s.noteRepo.Create(ctx, &note); err != nil {
		s.appCtx.Logger.Warn("add-member notification failed", "err", err)
	}
	s.appCtx.Notifier.EmitToUser(userID, realtime.EventNotification, note)
	if group.ChatID != nil {
		s.appCtx.Notifier.EmitToChat(*group.ChatID, realtime.EventMemberAdded, map[string]uint64{
			"studyGroupId": groupID,
			"userId":       userID,
		})
	}

	return nil
}

// Sync overwrites the linked chat's user set with the group's current
// member id set. Idempotent; this is the authority for reconciling drift
// and should run after any membership-affecting operation.
func (s *Service) Sync(ctx context.Context, groupID uint64) error {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return svcErr.Map(err)
	}
	if group.ChatID == nil {
		return svcErr.ErrNotFound
	}
	if _, err := s.chatRepo.FindByID(ctx, *group.ChatID); err != nil {
		return svcErr.Map(err)
	}

	memberIDs, err := s.groupRepo.MemberIDs(ctx, groupID)
	if err != nil {
		return svcErr.Map(err)
	}
	members := make([]db.User, len(memberIDs))
	for i, id := range memberIDs {
		members[i] = db.User{ID: id}
	}

	if err := s.chatRepo.ReplaceUsers(ctx, *group.ChatID, members); err != nil {
		return svcErr.Map(err)
	}
	return nil
}

// RemoveMember takes a user off the roster and the chat. A group that
// would drop below two members dissolves instead: chat and group are
// deleted.
//
// actingUserID distinguishes leaving from being removed for the system
// message; the message and the realtime emits are best-effort and never
// roll back the membership change.
func (s *Service) RemoveMember(ctx context.Context, groupID, userID, actingUserID uint64) error {
	unlock := lockGroup(groupID)
	defer unlock()

	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return svcErr.Map(err)
	}

	var removed *db.User
	for i := range group.Users {
		if group.Users[i].ID == userID {
			removed = &group.Users[i]
			break
		}
	}
	if removed == nil {
		return svcErr.ErrNotFound
	}

	// a group never persists with 0 or 1 members; removing from a roster
	// of two (or a sole creator who never added anyone) dissolves it
	if len(group.Users) <= 2 {
		err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			groups := s.groupRepo.WithTx(tx)
			chats := s.chatRepo.WithTx(tx)

			if group.ChatID != nil {
				if err := chats.Delete(ctx, *group.ChatID); err != nil {
					return err
				}
			}
			return groups.Delete(ctx, groupID)
		})
		if err != nil {
			s.appCtx.Logger.Error("group dissolve failed", "group", groupID, "err", err)
			return svcErr.Map(err)
		}

		for _, member := range group.Users {
			s.appCtx.Notifier.EmitToUser(member.ID, realtime.EventGroupDissolved, map[string]uint64{
				"studyGroupId": groupID,
			})
		}
		s.appCtx.Logger.Info("study group dissolved", "group", groupID)
		return nil
	}

	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groups := s.groupRepo.WithTx(tx)
		chats := s.chatRepo.WithTx(tx)

		if err := groups.RemoveUser(ctx, groupID, userID); err != nil {
			return err
		}
		if group.ChatID != nil {
			return chats.RemoveUser(ctx, *group.ChatID, userID)
		}
		return nil
	})
	if err != nil {
		s.appCtx.Logger.Error("RemoveMember failed", "group", groupID, "user", userID, "err", err)
		return svcErr.Map(err)
	}

	// fire-and-forget phase: system message plus emits
	if group.ChatID != nil {
		body := removed.Name + " was removed from the group"
		if actingUserID == userID {
			body = removed.Name + " left the group"
		}
		msg, err := s.chatRepo.AddMessage(ctx, *group.ChatID, nil, body, true)
		if err != nil {
			s.appCtx.Logger.Warn("system message failed", "chat", *group.ChatID, "err", err)
		} else {
			s.appCtx.Notifier.EmitToChat(*group.ChatID, realtime.EventNewMessage, msg)
		}
		s.appCtx.Notifier.EmitToChat(*group.ChatID, realtime.EventMemberRemoved, map[string]uint64{
			"studyGroupId": groupID,
			"userId":       userID,
		})
	}

	return nil
}
