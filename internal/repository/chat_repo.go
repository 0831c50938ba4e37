package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studybuddy/studybuddy/internal/db"
)

// ChatRepository provides data access for chats and their messages. The
// chat user set of a group chat is written only through service/groups.
type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(database *gorm.DB) *ChatRepository {
	return &ChatRepository{db: database}
}

func (r *ChatRepository) WithTx(tx *gorm.DB) *ChatRepository {
	return &ChatRepository{db: tx}
}

func (r *ChatRepository) Create(ctx context.Context, chat *db.Chat) error {
	return r.db.WithContext(ctx).Create(chat).Error
}

// FindByID loads a chat with its user set preloaded.
func (r *ChatRepository) FindByID(ctx context.Context, id uint64) (*db.Chat, error) {
	var chat db.Chat
	if err := r.db.WithContext(ctx).Preload("Users").First(&chat, id).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// ReplaceUsers overwrites the chat's user set to exactly the given users.
// A set replace, not incremental add/remove.
func (r *ChatRepository) ReplaceUsers(ctx context.Context, chatID uint64, users []db.User) error {
	chat := db.Chat{ID: chatID}
	members := make([]*db.User, len(users))
	for i := range users {
		members[i] = &db.User{ID: users[i].ID}
	}
	return r.db.WithContext(ctx).
		Model(&chat).
		Association("Users").
		Replace(members)
}

func (r *ChatRepository) AddUser(ctx context.Context, chatID, userID uint64) error {
	chat := db.Chat{ID: chatID}
	return r.db.WithContext(ctx).
		Model(&chat).
		Association("Users").
		Append(&db.User{ID: userID})
}

func (r *ChatRepository) RemoveUser(ctx context.Context, chatID, userID uint64) error {
	chat := db.Chat{ID: chatID}
	return r.db.WithContext(ctx).
		Model(&chat).
		Association("Users").
		Delete(&db.User{ID: userID})
}

// Delete removes the chat, its membership rows and its messages.
func (r *ChatRepository) Delete(ctx context.Context, chatID uint64) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("chat_id = ?", chatID).Delete(&db.Message{}).Error; err != nil {
		return err
	}
	if err := tx.Exec("DELETE FROM chat_users WHERE chat_id = ?", chatID).Error; err != nil {
		return err
	}
	return tx.Delete(&db.Chat{}, chatID).Error
}

// DirectChatsBetween returns chats not owned by any study group whose
// membership is exactly the two given users.
func (r *ChatRepository) DirectChatsBetween(ctx context.Context, a, b uint64) ([]db.Chat, error) {
	var chats []db.Chat
	err := r.db.WithContext(ctx).
		Where(`
			study_group_id IS NULL
			AND EXISTS (
				SELECT 1 FROM chat_users cu
				WHERE cu.chat_id = chats.id AND cu.user_id = ?
			)
			AND EXISTS (
				SELECT 1 FROM chat_users cu
				WHERE cu.chat_id = chats.id AND cu.user_id = ?
			)
			AND (SELECT COUNT(*) FROM chat_users cu WHERE cu.chat_id = chats.id) = 2`,
			a, b).
		Find(&chats).Error
	return chats, err
}

// DirectChatsForUser returns the user's two-party chats that no study
// group owns. Group chats are deliberately excluded.
func (r *ChatRepository) DirectChatsForUser(ctx context.Context, userID uint64) ([]db.Chat, error) {
	var chats []db.Chat
	err := r.db.WithContext(ctx).
		Where(`
			study_group_id IS NULL
			AND EXISTS (
				SELECT 1 FROM chat_users cu
				WHERE cu.chat_id = chats.id AND cu.user_id = ?
			)
			AND (SELECT COUNT(*) FROM chat_users cu WHERE cu.chat_id = chats.id) = 2`,
			userID).
		Find(&chats).Error
	return chats, err
}

// AddMessage appends a message to the chat and bumps the chat's updated_at
// and last_updated_by. senderID nil marks a system message.
func (r *ChatRepository) AddMessage(
	ctx context.Context,
	chatID uint64,
	senderID *uint64,
	body string,
	system bool,
) (*db.Message, error) {
	msg := db.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Ref:      uuid.NewString(),
		Body:     body,
		System:   system,
	}
	if err := r.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if senderID != nil {
		updates["last_updated_by_id"] = *senderID
	}
	if err := r.db.WithContext(ctx).
		Model(&db.Chat{}).
		Where("id = ?", chatID).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *ChatRepository) DeleteMessagesBySender(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("sender_id = ?", userID).
		Delete(&db.Message{}).Error
}
