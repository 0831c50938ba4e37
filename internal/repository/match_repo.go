package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/studybuddy/studybuddy/internal/db"
)

// MatchRepository provides data access for the Match model. Match writes
// belong to the reconciler; everything else reads.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

func (r *MatchRepository) WithTx(tx *gorm.DB) *MatchRepository {
	return &MatchRepository{db: tx}
}

// CreateUserMatch records a symmetric match between two users.
func (r *MatchRepository) CreateUserMatch(ctx context.Context, user1, user2 uint64) error {
	match := db.Match{User1ID: user1, User2ID: &user2}
	return r.db.WithContext(ctx).Create(&match).Error
}

// CreateGroupMatch records that a user is matched into a study group.
func (r *MatchRepository) CreateGroupMatch(ctx context.Context, userID, groupID uint64) error {
	match := db.Match{User1ID: userID, StudyGroupID: &groupID, IsStudyGroupMatch: true}
	return r.db.WithContext(ctx).Create(&match).Error
}

// ExistsBetweenUsers reports whether a user-to-user match exists for the
// pair in either order.
func (r *MatchRepository) ExistsBetweenUsers(ctx context.Context, a, b uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

// ExistsGroupMatch reports whether the user holds a group match for the
// given study group.
func (r *MatchRepository) ExistsGroupMatch(ctx context.Context, userID, groupID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user1_id = ? AND study_group_id = ? AND is_study_group_match = ?", userID, groupID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *MatchRepository) FindBetweenUsers(ctx context.Context, a, b uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)", a, b, b, a).
		Find(&matches).Error
	return matches, err
}

func (r *MatchRepository) DeleteBetweenUsers(ctx context.Context, a, b uint64) error {
	return r.db.WithContext(ctx).
		Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)", a, b, b, a).
		Delete(&db.Match{}).Error
}

// DeleteAllForUser removes every match where the user appears on either
// side, including group matches they hold.
func (r *MatchRepository) DeleteAllForUser(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Delete(&db.Match{}).Error
}

// ListForUser returns the user's matches, newest first.
func (r *MatchRepository) ListForUser(ctx context.Context, userID uint64) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&matches).Error
	return matches, err
}
