package notifications

import (
	"context"

	"github.com/studybuddy/studybuddy/internal/app"
	"github.com/studybuddy/studybuddy/internal/db"
	svcErr "github.com/studybuddy/studybuddy/internal/errors"
	"github.com/studybuddy/studybuddy/internal/repository"
)

// Service exposes the recipient-facing notification operations. Creation
// happens inside the services whose side effects the rows describe.
type Service struct {
	appCtx   *app.AppContext
	noteRepo *repository.NotificationRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		noteRepo: repository.NewNotificationRepository(appCtx.DB),
	}
}

// ListForUser returns the recipient's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uint64) ([]db.Notification, error) {
	notes, err := s.noteRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return notes, nil
}

// MarkRead marks one of the recipient's notifications as read. Scoped to
// the recipient so one user cannot touch another's rows.
func (s *Service) MarkRead(ctx context.Context, id, userID uint64) error {
	if err := s.noteRepo.MarkRead(ctx, id, userID); err != nil {
		return svcErr.Map(err)
	}
	return nil
}

// Dismiss deletes one of the recipient's notifications.
func (s *Service) Dismiss(ctx context.Context, id, userID uint64) error {
	if err := s.noteRepo.Delete(ctx, id, userID); err != nil {
		return svcErr.Map(err)
	}
	return nil
}
