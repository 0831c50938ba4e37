package accounts

import (
	"context"

	"gorm.io/gorm"

	"github.com/studybuddy/studybuddy/internal/app"
	svcErr "github.com/studybuddy/studybuddy/internal/errors"
	"github.com/studybuddy/studybuddy/internal/repository"
)

// Service handles account deletion: the full-system cascade that removes
// everything referencing a user.
type Service struct {
	appCtx    *app.AppContext
	userRepo  *repository.UserRepository
	swipeRepo *repository.SwipeRepository
	matchRepo *repository.MatchRepository
	chatRepo  *repository.ChatRepository
	noteRepo  *repository.NotificationRepository
}

// NewService creates the account service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		userRepo:  repository.NewUserRepository(appCtx.DB),
		swipeRepo: repository.NewSwipeRepository(appCtx.DB),
		matchRepo: repository.NewMatchRepository(appCtx.DB),
		chatRepo:  repository.NewChatRepository(appCtx.DB),
		noteRepo:  repository.NewNotificationRepository(appCtx.DB),
	}
}

// Delete removes the user and everything that references them, in order:
//
//  1. Direct chats where the user is one of the two participants, with
//     their messages. Group chats are left for the group-leave flow.
//  2. Swipes where the user is actor or target.
//  3. Matches where the user appears on either side.
//  4. Notifications addressed to the user.
//  5. Messages authored by the user.
//  6. The user row itself.
//
// Every step no-ops when nothing matches, so the cascade can be
// re-invoked safely. Any farewell system message must be collected by the
// caller before this runs; afterwards the user's name is gone.
func (s *Service) Delete(ctx context.Context, userID uint64) error {
	if userID == 0 {
		return svcErr.ErrInvalidInput
	}
	s.appCtx.Logger.Info("deleting account", "user", userID)

	err := s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		swipes := s.swipeRepo.WithTx(tx)
		matches := s.matchRepo.WithTx(tx)
		chats := s.chatRepo.WithTx(tx)
		notes := s.noteRepo.WithTx(tx)

		direct, err := chats.DirectChatsForUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, chat := range direct {
			if err := chats.Delete(ctx, chat.ID); err != nil {
				return err
			}
		}

		if err := swipes.DeleteAllForUser(ctx, userID); err != nil {
			return err
		}
		if err := matches.DeleteAllForUser(ctx, userID); err != nil {
			return err
		}
		if err := notes.DeleteAllForUser(ctx, userID); err != nil {
			return err
		}
		if err := chats.DeleteMessagesBySender(ctx, userID); err != nil {
			return err
		}
		return users.Delete(ctx, userID)
	})
	if err != nil {
		s.appCtx.Logger.Error("account deletion failed", "user", userID, "err", err)
		return svcErr.Wrap(svcErr.ErrDeletionFailed, err)
	}

	return nil
}
