package swipes

import (
	"context"
	"time"

	"github.com/studybuddy/studybuddy/internal/app"
	"github.com/studybuddy/studybuddy/internal/db"
	svcErr "github.com/studybuddy/studybuddy/internal/errors"
	"github.com/studybuddy/studybuddy/internal/realtime"
	"github.com/studybuddy/studybuddy/internal/repository"
)

// StateNone is the resolved status when no relationship exists between
// actor and target. The other states reuse the swipe status values.
const StateNone = ""

// Service is the swipe ledger: it records directional interest, resolves
// the authoritative request status for a pair, and handles withdrawal.
// Status transitions (accept/deny) live in service/matches.
type Service struct {
	appCtx    *app.AppContext
	swipeRepo *repository.SwipeRepository
	matchRepo *repository.MatchRepository
	noteRepo  *repository.NotificationRepository
}

// NewService creates the swipe ledger with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		swipeRepo: repository.NewSwipeRepository(appCtx.DB),
		matchRepo: repository.NewMatchRepository(appCtx.DB),
		noteRepo:  repository.NewNotificationRepository(appCtx.DB),
	}
}

// Record creates a swipe from actor toward a user or group target.
//
// No deduplication happens at write time; duplicates toward the same
// target are resolved when a decision lands or when the status is read.
func (s *Service) Record(
	ctx context.Context,
	actorID uint64,
	target db.SwipeTarget,
	direction, message string,
) (*db.Swipe, error) {
	s.appCtx.Logger.Debug("Record swipe", "actor", actorID, "target", target, "direction", direction)

	if direction != db.DirectionYes && direction != db.DirectionNo {
		return nil, svcErr.ErrInvalidInput
	}
	if actorID == 0 || target.ID == 0 || (!target.IsUser() && !target.IsGroup()) {
		return nil, svcErr.ErrInvalidInput
	}
	if target.IsUser() && target.ID == actorID {
		return nil, svcErr.ErrInvalidInput
	}

	swipe := db.Swipe{
		UserID:    actorID,
		Direction: direction,
		Message:   message,
		Status:    db.StatusPending,
	}
	if target.IsUser() {
		id := target.ID
		swipe.TargetUserID = &id
	} else {
		id := target.ID
		swipe.TargetGroupID = &id
	}

	if err := s.swipeRepo.Create(ctx, &swipe); err != nil {
		s.appCtx.Logger.Error("Record swipe failed", "err", err)
		return nil, svcErr.Map(err)
	}

	// best-effort: badge counter and recipient ping
	if target.IsUser() && direction == db.DirectionYes {
		key := s.appCtx.RedisCache.KeyForPendingCount(target.ID)
		_, _ = s.appCtx.RedisCache.Incr(ctx, key)
		_ = s.appCtx.RedisCache.Client.Expire(ctx, key, time.Hour).Err()

		note := db.Notification{
			UserID:  target.ID,
			OtherID: &actorID,
			Message: "sent you a study request",
			Type:    db.NotificationMatch,
		}
		if err := s.noteRepo.Create(ctx, &note); err != nil {
			s.appCtx.Logger.Warn("swipe notification failed", "err", err)
		}
		s.appCtx.Notifier.EmitToUser(target.ID, realtime.EventNotification, note)
	}

	return &swipe, nil
}

// RequestStatus resolves the authoritative relationship state between
// actor and target: "", Pending, Accepted or Denied.
//
// Match existence is the source of truth for Accepted. An existing match
// short-circuits any stale swipe rows; a latest swipe claiming Accepted
// without a backing match reports no relationship.
func (s *Service) RequestStatus(ctx context.Context, actorID uint64, target db.SwipeTarget) (string, error) {
	matched, err := s.matchExists(ctx, actorID, target)
	if err != nil {
		return StateNone, svcErr.Map(err)
	}
	if matched {
		return db.StatusAccepted, nil
	}

	latest, err := s.swipeRepo.LatestForTarget(ctx, actorID, target)
	if err != nil {
		return StateNone, svcErr.Map(err)
	}
	if latest == nil {
		return StateNone, nil
	}
	if latest.Status == db.StatusAccepted {
		// status drifted from match state; the match is gone
		return StateNone, nil
	}
	return latest.Status, nil
}

// Withdraw deletes a swipe by id. No ownership check at this layer; the
// caller is responsible for authorization.
func (s *Service) Withdraw(ctx context.Context, swipeID uint64) error {
	swipe, err := s.swipeRepo.FindByID(ctx, swipeID)
	if err != nil {
		return svcErr.Map(err)
	}

	if err := s.swipeRepo.Delete(ctx, swipeID); err != nil {
		return svcErr.Map(err)
	}

	// badge counter maintenance, best-effort
	if target, ok := swipe.Target(); ok && target.IsUser() &&
		swipe.Direction == db.DirectionYes && swipe.Status == db.StatusPending {
		if err := s.appCtx.RedisCache.DecrPendingCount(ctx, target.ID); err != nil {
			s.appCtx.Logger.Warn("badge decrement failed", "user", target.ID, "err", err)
		}
	}

	return nil
}

// ListIncoming returns the pending requests targeting the user, most
// recent first.
func (s *Service) ListIncoming(ctx context.Context, userID uint64) ([]db.Swipe, error) {
	swipes, err := s.swipeRepo.ListIncoming(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return swipes, nil
}

// PendingCount returns how many pending requests target the user.
// Cache-first strategy:
//  1. Attempts to read from Redis (swipes:pending:userID).
//  2. On cache miss, falls back to the DB count.
//  3. On DB fetch, updates Redis with a 1h TTL.
func (s *Service) PendingCount(ctx context.Context, userID uint64) (int64, error) {
	if n, ok, err := s.appCtx.RedisCache.GetPendingCount(ctx, userID); err == nil && ok {
		return n, nil
	}

	count, err := s.swipeRepo.CountPendingFor(ctx, userID)
	if err != nil {
		return 0, svcErr.Map(err)
	}

	_ = s.appCtx.RedisCache.UpdatePendingCount(ctx, userID, count)

	return count, nil
}

func (s *Service) matchExists(ctx context.Context, actorID uint64, target db.SwipeTarget) (bool, error) {
	if target.IsUser() {
		return s.matchRepo.ExistsBetweenUsers(ctx, actorID, target.ID)
	}
	return s.matchRepo.ExistsGroupMatch(ctx, actorID, target.ID)
}
