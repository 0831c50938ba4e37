package matches

import (
	"context"

	"gorm.io/gorm"

	"github.com/studybuddy/studybuddy/internal/app"
	"github.com/studybuddy/studybuddy/internal/db"
	svcErr "github.com/studybuddy/studybuddy/internal/errors"
	"github.com/studybuddy/studybuddy/internal/realtime"
	"github.com/studybuddy/studybuddy/internal/repository"
)

// Service is the match reconciler: it owns every Match write. Swipe status
// transitions, the group fan-out and match removal all go through here.
//
// Each multi-step sequence runs inside a single transaction so concurrent
// decisions on the same pair cannot leave half a cascade behind. The
// notification phase runs after commit and is best-effort.
type Service struct {
	appCtx    *app.AppContext
	swipeRepo *repository.SwipeRepository
	matchRepo *repository.MatchRepository
	groupRepo *repository.GroupRepository
	chatRepo  *repository.ChatRepository
	noteRepo  *repository.NotificationRepository
}

// NewService creates the reconciler with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:    appCtx,
		swipeRepo: repository.NewSwipeRepository(appCtx.DB),
		matchRepo: repository.NewMatchRepository(appCtx.DB),
		groupRepo: repository.NewGroupRepository(appCtx.DB),
		chatRepo:  repository.NewChatRepository(appCtx.DB),
		noteRepo:  repository.NewNotificationRepository(appCtx.DB),
	}
}

// TransitionStatus is the single authoritative state change for a swipe.
//
// Steps, atomically:
//  1. Delete stale duplicate swipes for the pair (both directions for a
//     user target, actor→group for a group target).
//  2. Persist the new status on the swipe.
//  3. On Accepted toward a user: create one match for the pair.
//  4. On Accepted toward a group: for every existing member, clear stale
//     swipes, record a synthetic accepted swipe actor→member, create the
//     pairwise match, then create the group match.
//
// Existing matches are never duplicated by the fan-out.
//
// Returns the transitioned swipe so the route layer can follow up on a
// group accept with the membership operations.
func (s *Service) TransitionStatus(ctx context.Context, swipeID uint64, newStatus string) (*db.Swipe, error) {
	s.appCtx.Logger.Debug("TransitionStatus called", "swipe", swipeID, "status", newStatus)

	switch newStatus {
	case db.StatusPending, db.StatusAccepted, db.StatusDenied:
	default:
		return nil, svcErr.ErrInvalidStatus
	}

	swipe, err := s.swipeRepo.FindByID(ctx, swipeID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	target, ok := swipe.Target()
	if !ok {
		return nil, svcErr.ErrInvalidInput
	}

	var memberIDs []uint64
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		swipes := s.swipeRepo.WithTx(tx)
		matches := s.matchRepo.WithTx(tx)
		groups := s.groupRepo.WithTx(tx)

		if target.IsGroup() {
			// resolve the roster up front so a missing group aborts
			// before any mutation
			group, err := groups.FindByID(ctx, target.ID)
			if err != nil {
				return err
			}
			for _, member := range group.Users {
				memberIDs = append(memberIDs, member.ID)
			}
		}

		// dedup pass: stale requests for the pair must not linger
		// after a decision
		if target.IsUser() {
			if err := swipes.DeleteBetweenUsers(ctx, swipe.UserID, target.ID, swipe.ID); err != nil {
				return err
			}
		} else {
			if err := swipes.DeleteToGroup(ctx, swipe.UserID, target.ID, swipe.ID); err != nil {
				return err
			}
		}

		if err := swipes.UpdateStatus(ctx, swipe.ID, newStatus); err != nil {
			return err
		}

		if newStatus != db.StatusAccepted {
			return nil
		}

		if target.IsUser() {
			return s.createPairMatch(ctx, matches, swipe.UserID, target.ID)
		}
		return s.fanOutGroupAccept(ctx, swipes, matches, swipe.UserID, target.ID, memberIDs)
	})
	if err != nil {
		s.appCtx.Logger.Error("TransitionStatus failed", "swipe", swipeID, "err", err)
		return nil, svcErr.Map(err)
	}

	s.notifyDecision(ctx, swipe, target, newStatus, memberIDs)
	swipe.Status = newStatus
	return swipe, nil
}

// createPairMatch creates the user-to-user match unless one already exists.
func (s *Service) createPairMatch(ctx context.Context, matches *repository.MatchRepository, a, b uint64) error {
	exists, err := matches.ExistsBetweenUsers(ctx, a, b)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return matches.CreateUserMatch(ctx, a, b)
}

// fanOutGroupAccept connects the actor pairwise to every existing member
// and records the group match itself.
func (s *Service) fanOutGroupAccept(
	ctx context.Context,
	swipes *repository.SwipeRepository,
	matches *repository.MatchRepository,
	actorID, groupID uint64,
	memberIDs []uint64,
) error {
	for _, memberID := range memberIDs {
		if memberID == actorID {
			continue
		}

		if err := swipes.DeleteBetweenUsers(ctx, actorID, memberID, 0); err != nil {
			return err
		}

		// synthetic accepted swipe for audit symmetry
		member := memberID
		synthetic := db.Swipe{
			UserID:       actorID,
			TargetUserID: &member,
			Direction:    db.DirectionYes,
			Status:       db.StatusAccepted,
		}
		if err := swipes.Create(ctx, &synthetic); err != nil {
			return err
		}

		if err := s.createPairMatch(ctx, matches, actorID, memberID); err != nil {
			return err
		}
	}

	exists, err := matches.ExistsGroupMatch(ctx, actorID, groupID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return matches.CreateGroupMatch(ctx, actorID, groupID)
}

// notifyDecision runs the fire-and-forget phase after a committed
// transition. Failures are logged, never propagated.
func (s *Service) notifyDecision(
	ctx context.Context,
	swipe *db.Swipe,
	target db.SwipeTarget,
	newStatus string,
	memberIDs []uint64,
) {
	// the request is no longer pending, drop it from the badge counter
	if target.IsUser() && swipe.Status == db.StatusPending && newStatus != db.StatusPending {
		if err := s.appCtx.RedisCache.DecrPendingCount(ctx, target.ID); err != nil {
			s.appCtx.Logger.Warn("badge decrement failed", "user", target.ID, "err", err)
		}
	}

	if newStatus != db.StatusAccepted {
		return
	}

	if target.IsUser() {
		for _, pair := range [][2]uint64{{swipe.UserID, target.ID}, {target.ID, swipe.UserID}} {
			recipient, other := pair[0], pair[1]
			note := db.Notification{
				UserID:  recipient,
				OtherID: &other,
				Message: "you have a new study match",
				Type:    db.NotificationMatch,
			}
			if err := s.noteRepo.Create(ctx, &note); err != nil {
				s.appCtx.Logger.Warn("match notification failed", "user", recipient, "err", err)
			}
			s.appCtx.Notifier.EmitToUser(recipient, realtime.EventNewMatch, note)
		}
		return
	}

	groupID := target.ID
	for _, memberID := range memberIDs {
		if memberID == swipe.UserID {
			continue
		}
		note := db.Notification{
			UserID:       memberID,
			OtherID:      &swipe.UserID,
			Message:      "a new member joined your study group",
			Type:         db.NotificationStudyGroup,
			StudyGroupID: &groupID,
		}
		if err := s.noteRepo.Create(ctx, &note); err != nil {
			s.appCtx.Logger.Warn("group notification failed", "user", memberID, "err", err)
		}
		s.appCtx.Notifier.EmitToUser(memberID, realtime.EventNotification, note)
	}
	s.appCtx.Notifier.EmitToUser(swipe.UserID, realtime.EventNewMatch, db.Notification{
		UserID:       swipe.UserID,
		Type:         db.NotificationStudyGroup,
		Message:      "your group request was accepted",
		StudyGroupID: &groupID,
	})
}

// Remove unwinds the match between two users:
//
//  1. Shared study groups with exactly two members dissolve (chat and
//     group deleted); larger shared groups are left untouched.
//  2. Direct chats between the pair are deleted with their messages.
//  3. Every swipe between the pair is deleted, then a single Denied
//     tombstone swipe actor→other is inserted so symmetric swipe logic
//     does not immediately re-match them. The cleanup must precede the
//     tombstone or the tombstone would delete itself.
//  4. The match rows for the pair are deleted.
func (s *Service) Remove(ctx context.Context, actorID, otherID uint64) error {
	s.appCtx.Logger.Debug("Remove match", "actor", actorID, "other", otherID)

	existing, err := s.matchRepo.FindBetweenUsers(ctx, actorID, otherID)
	if err != nil {
		return svcErr.Map(err)
	}
	if len(existing) == 0 {
		return svcErr.ErrNotFound
	}

	var dissolved []uint64
	err = s.appCtx.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		swipes := s.swipeRepo.WithTx(tx)
		matches := s.matchRepo.WithTx(tx)
		groups := s.groupRepo.WithTx(tx)
		chats := s.chatRepo.WithTx(tx)

		shared, err := groups.SharedGroups(ctx, actorID, otherID)
		if err != nil {
			return err
		}
		for _, group := range shared {
			if len(group.Users) != 2 {
				continue
			}
			if group.ChatID != nil {
				if err := chats.Delete(ctx, *group.ChatID); err != nil {
					return err
				}
			}
			if err := groups.Delete(ctx, group.ID); err != nil {
				return err
			}
			dissolved = append(dissolved, group.ID)
		}

		direct, err := chats.DirectChatsBetween(ctx, actorID, otherID)
		if err != nil {
			return err
		}
		for _, chat := range direct {
			if err := chats.Delete(ctx, chat.ID); err != nil {
				return err
			}
		}

		if err := swipes.DeleteBetweenUsers(ctx, actorID, otherID, 0); err != nil {
			return err
		}

		other := otherID
		tombstone := db.Swipe{
			UserID:       actorID,
			TargetUserID: &other,
			Direction:    db.DirectionNo,
			Status:       db.StatusDenied,
		}
		if err := swipes.Create(ctx, &tombstone); err != nil {
			return err
		}

		return matches.DeleteBetweenUsers(ctx, actorID, otherID)
	})
	if err != nil {
		s.appCtx.Logger.Error("Remove match failed", "actor", actorID, "other", otherID, "err", err)
		return svcErr.Map(err)
	}

	for _, userID := range []uint64{actorID, otherID} {
		s.appCtx.Notifier.EmitToUser(userID, realtime.EventMatchRemoved, map[string]uint64{
			"user1Id": actorID,
			"user2Id": otherID,
		})
		for _, groupID := range dissolved {
			s.appCtx.Notifier.EmitToUser(userID, realtime.EventGroupDissolved, map[string]uint64{
				"studyGroupId": groupID,
			})
		}
	}
	return nil
}

// ListForUser returns the user's matches for the route layer.
func (s *Service) ListForUser(ctx context.Context, userID uint64) ([]db.Match, error) {
	matches, err := s.matchRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return matches, nil
}
