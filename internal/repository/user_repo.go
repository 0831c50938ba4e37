package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/studybuddy/studybuddy/internal/db"
)

// UserRepository provides data access for the User model.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{db: tx}
}

func (r *UserRepository) Create(ctx context.Context, user *db.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes the user row and its membership join rows. Swipes,
// matches, chats and notifications are the account cascade's job.
func (r *UserRepository) Delete(ctx context.Context, id uint64) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Exec("DELETE FROM study_group_users WHERE user_id = ?", id).Error; err != nil {
		return err
	}
	if err := tx.Exec("DELETE FROM chat_users WHERE user_id = ?", id).Error; err != nil {
		return err
	}
	return tx.Delete(&db.User{}, id).Error
}
