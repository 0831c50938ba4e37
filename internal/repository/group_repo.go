package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/studybuddy/studybuddy/internal/db"
)

// GroupRepository provides data access for the StudyGroup model and its
// membership join table. Roster writes belong to service/groups.
type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(database *gorm.DB) *GroupRepository {
	return &GroupRepository{db: database}
}

func (r *GroupRepository) WithTx(tx *gorm.DB) *GroupRepository {
	return &GroupRepository{db: tx}
}

func (r *GroupRepository) Create(ctx context.Context, group *db.StudyGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

// FindByID loads a group with its roster preloaded.
func (r *GroupRepository) FindByID(ctx context.Context, id uint64) (*db.StudyGroup, error) {
	var group db.StudyGroup
	if err := r.db.WithContext(ctx).Preload("Users").First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// MemberIDs returns the current roster as a set of user ids.
func (r *GroupRepository) MemberIDs(ctx context.Context, groupID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Table("study_group_users").
		Where("study_group_id = ?", groupID).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *GroupRepository) AddUser(ctx context.Context, groupID, userID uint64) error {
	group := db.StudyGroup{ID: groupID}
	return r.db.WithContext(ctx).
		Model(&group).
		Association("Users").
		Append(&db.User{ID: userID})
}

func (r *GroupRepository) RemoveUser(ctx context.Context, groupID, userID uint64) error {
	group := db.StudyGroup{ID: groupID}
	return r.db.WithContext(ctx).
		Model(&group).
		Association("Users").
		Delete(&db.User{ID: userID})
}

func (r *GroupRepository) SetChatID(ctx context.Context, groupID, chatID uint64) error {
	return r.db.WithContext(ctx).
		Model(&db.StudyGroup{}).
		Where("id = ?", groupID).
		Update("chat_id", chatID).Error
}

// Delete removes the group and its membership rows.
func (r *GroupRepository) Delete(ctx context.Context, groupID uint64) error {
	if err := r.db.WithContext(ctx).
		Exec("DELETE FROM study_group_users WHERE study_group_id = ?", groupID).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&db.StudyGroup{}, groupID).Error
}

// SharedGroups returns the groups where both users are current members,
// rosters preloaded.
func (r *GroupRepository) SharedGroups(ctx context.Context, a, b uint64) ([]db.StudyGroup, error) {
	var groups []db.StudyGroup
	err := r.db.WithContext(ctx).
		Preload("Users").
		Where(`
			EXISTS (
				SELECT 1 FROM study_group_users sgu
				WHERE sgu.study_group_id = study_groups.id AND sgu.user_id = ?
			)
			AND EXISTS (
				SELECT 1 FROM study_group_users sgu
				WHERE sgu.study_group_id = study_groups.id AND sgu.user_id = ?
			)`, a, b).
		Find(&groups).Error
	return groups, err
}
