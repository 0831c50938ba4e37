package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/studybuddy/studybuddy/internal/db"
)

// NotificationRepository provides data access for the Notification model.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

func (r *NotificationRepository) WithTx(tx *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: tx}
}

func (r *NotificationRepository) Create(ctx context.Context, n *db.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// ListForUser returns the recipient's notifications, newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID uint64) ([]db.Notification, error) {
	var notifications []db.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	return notifications, err
}

// MarkRead marks one of the recipient's notifications as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uint64) error {
	res := r.db.WithContext(ctx).
		Model(&db.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID uint64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&db.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *NotificationRepository) DeleteAllForUser(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&db.Notification{}).Error
}
