package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/studybuddy/studybuddy/internal/db"
)

// SwipeRepository provides data access for the Swipe model. It is the only
// component allowed to write swipe rows.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *SwipeRepository) WithTx(tx *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: tx}
}

func (r *SwipeRepository) Create(ctx context.Context, swipe *db.Swipe) error {
	return r.db.WithContext(ctx).Create(swipe).Error
}

func (r *SwipeRepository) FindByID(ctx context.Context, id uint64) (*db.Swipe, error) {
	var swipe db.Swipe
	if err := r.db.WithContext(ctx).First(&swipe, id).Error; err != nil {
		return nil, err
	}
	return &swipe, nil
}

// Delete removes a swipe by id. Returns gorm.ErrRecordNotFound when the id
// does not resolve to an existing row.
func (r *SwipeRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&db.Swipe{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *SwipeRepository) UpdateStatus(ctx context.Context, id uint64, status string) error {
	return r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// LatestForTarget returns the most recently updated swipe between actor
// and target. For user targets both directions are considered; for group
// targets only actor→group. Returns (nil, nil) when no swipe exists.
func (r *SwipeRepository) LatestForTarget(
	ctx context.Context,
	actorID uint64,
	target db.SwipeTarget,
) (*db.Swipe, error) {
	var swipes []db.Swipe

	query := r.db.WithContext(ctx).Order("updated_at DESC, id DESC").Limit(1)
	if target.IsUser() {
		query = query.Where(
			"(user_id = ? AND target_user_id = ?) OR (user_id = ? AND target_user_id = ?)",
			actorID, target.ID, target.ID, actorID,
		)
	} else {
		query = query.Where("user_id = ? AND target_group_id = ?", actorID, target.ID)
	}

	if err := query.Find(&swipes).Error; err != nil {
		return nil, err
	}
	if len(swipes) == 0 {
		return nil, nil
	}
	return &swipes[0], nil
}

// DeleteBetweenUsers removes every swipe between the pair, both
// directions, except the given id. Pass excludeID = 0 to delete all.
func (r *SwipeRepository) DeleteBetweenUsers(ctx context.Context, a, b, excludeID uint64) error {
	query := r.db.WithContext(ctx).Where(
		"(user_id = ? AND target_user_id = ?) OR (user_id = ? AND target_user_id = ?)",
		a, b, b, a,
	)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	return query.Delete(&db.Swipe{}).Error
}

// DeleteToGroup removes every swipe from actor toward the group except the
// given id.
func (r *SwipeRepository) DeleteToGroup(ctx context.Context, actorID, groupID, excludeID uint64) error {
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND target_group_id = ?", actorID, groupID)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	return query.Delete(&db.Swipe{}).Error
}

// DeleteAllForUser removes every swipe where the user is the actor or the
// target. No-op if nothing matches.
func (r *SwipeRepository) DeleteAllForUser(ctx context.Context, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? OR target_user_id = ?", userID, userID).
		Delete(&db.Swipe{}).Error
}

// ListIncoming returns pending Yes swipes targeting the user, most recent
// first.
func (r *SwipeRepository) ListIncoming(ctx context.Context, userID uint64) ([]db.Swipe, error) {
	var swipes []db.Swipe
	err := r.db.WithContext(ctx).
		Where("target_user_id = ? AND direction = ? AND status = ?",
			userID, db.DirectionYes, db.StatusPending).
		Order("updated_at DESC, id DESC").
		Find(&swipes).Error
	return swipes, err
}

// CountPendingFor counts incoming pending Yes swipes for the user. Used as
// the DB fallback behind the Redis badge counter.
func (r *SwipeRepository) CountPendingFor(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("target_user_id = ? AND direction = ? AND status = ?",
			userID, db.DirectionYes, db.StatusPending).
		Count(&count).Error
	return count, err
}

// IsNotFound reports whether err is the store's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
