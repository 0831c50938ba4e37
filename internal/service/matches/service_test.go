package matches_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/studybuddy/studybuddy/internal/app"
	"github.com/studybuddy/studybuddy/internal/cache"
	"github.com/studybuddy/studybuddy/internal/config"
	"github.com/studybuddy/studybuddy/internal/db"
	svcErr "github.com/studybuddy/studybuddy/internal/errors"
	"github.com/studybuddy/studybuddy/internal/realtime"
	"github.com/studybuddy/studybuddy/internal/service/matches"
	"github.com/studybuddy/studybuddy/internal/service/swipes"
)

func setupCtx(t *testing.T) (*app.AppContext, *realtime.Recorder) {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(dbase))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()

	redisCache := cache.NewRedisCache(cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := realtime.NewRecorder()

	return app.New(dbase, redisCache, recorder, logger), recorder
}

func seedUsers(t *testing.T, gdb *gorm.DB, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		user := db.User{
			ID:           uint64(i),
			Name:         fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("u%d@test.edu", i),
			PasswordHash: "x",
		}
		require.NoError(t, gdb.Create(&user).Error)
	}
}

func userSwipe(t *testing.T, gdb *gorm.DB, actor, target uint64, direction, status string) db.Swipe {
	t.Helper()
	swipe := db.Swipe{UserID: actor, TargetUserID: &target, Direction: direction, Status: status}
	require.NoError(t, gdb.Create(&swipe).Error)
	return swipe
}

func TestTransitionValidation(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := setupCtx(t)
	svc := matches.NewService(appCtx)

	_, err := svc.TransitionStatus(ctx, 1, "Maybe")
	assert.ErrorIs(t, err, svcErr.ErrInvalidStatus)

	_, err = svc.TransitionStatus(ctx, 404, db.StatusAccepted)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

// End-to-end: pending swipe, accept by id, pairwise match symmetry.
func TestAcceptUserSwipe(t *testing.T) {
	ctx := context.Background()
	appCtx, recorder := setupCtx(t)
	seedUsers(t, appCtx.DB, 2)
	svc := matches.NewService(appCtx)
	ledger := swipes.NewService(appCtx)

	swipe := userSwipe(t, appCtx.DB, 1, 2, db.DirectionYes, db.StatusPending)

	state, err := ledger.RequestStatus(ctx, 1, db.UserTarget(2))
	require.NoError(t, err)
	assert.Equal(t, db.StatusPending, state)

	updated, err := svc.TransitionStatus(ctx, swipe.ID, db.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, db.StatusAccepted, updated.Status)

	var count int64
	require.NoError(t, appCtx.DB.Model(&db.Match{}).
		Where("user1_id = ? AND user2_id = ?", 1, 2).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	for _, pair := range [][2]uint64{{1, 2}, {2, 1}} {
		state, err := ledger.RequestStatus(ctx, pair[0], db.UserTarget(pair[1]))
		require.NoError(t, err)
		assert.Equal(t, db.StatusAccepted, state)
	}

	assert.Contains(t, recorder.EventsIn(realtime.UserRoom(1)), realtime.EventNewMatch)
	assert.Contains(t, recorder.EventsIn(realtime.UserRoom(2)), realtime.EventNewMatch)
}

// A decision clears every stale duplicate between the pair, both
// directions, keeping only the decided swipe.
func TestTransitionDedupesPair(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := setupCtx(t)
	seedUsers(t, appCtx.DB, 2)
	svc := matches.NewService(appCtx)

	userSwipe(t, appCtx.DB, 1, 2, db.DirectionYes, db.StatusPending)
	userSwipe(t, appCtx.DB, 2, 1, db.DirectionYes, db.StatusPending)
	decided := userSwipe(t, appCtx.DB, 1, 2, db.DirectionYes, db.StatusPending)

	_, err := svc.TransitionStatus(ctx, decided.ID, db.StatusDenied)
	require.NoError(t, err)

	var remaining []db.Swipe
	require.NoError(t, appCtx.DB.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, decided.ID, remaining[0].ID)
	assert.Equal(t, db.StatusDenied, remaining[0].Status)

	// denied pairs never get a match
	var count int64
	require.NoError(t, appCtx.DB.Model(&db.Match{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

// Group accept fan-out: pairwise matches to every existing member plus
// one group match, without duplicating matches that already exist.
func TestAcceptGroupSwipeFanOut(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := setupCtx(t)
	seedUsers(t, appCtx.DB, 4)
	svc := matches.NewService(appCtx)

	var members []db.User
	require.NoError(t, appCtx.DB.Where("id IN ?", []uint64{2, 3, 4}).Find(&members).Error)
	group := db.StudyGroup{ID: 7, Name: "Physics Crew", CreatedByID: 2, Users: members}
	require.NoError(t, appCtx.DB.Create(&group).Error)

	// user 1 is already matched with member 2
	two := uint64(2)
	require.NoError(t, appCtx.DB.Create(&db.Match{User1ID: 1, User2ID: &two}).Error)

	groupID := uint64(7)
	swipe := db.Swipe{UserID: 1, TargetGroupID: &groupID, Direction: db.DirectionYes, Status: db.StatusPending}
	require.NoError(t, appCtx.DB.Create(&swipe).Error)

	_, err := svc.TransitionStatus(ctx, swipe.ID, db.StatusAccepted)
	require.NoError(t, err)

	// exactly one pairwise match per member, the pre-existing one reused
	for _, member := range []uint64{2, 3, 4} {
		var count int64
		require.NoError(t, appCtx.DB.Model(&db.Match{}).
			Where("(user1_id = ? AND user2_id = ?) OR (user1_id = ? AND user2_id = ?)", 1, member, member, 1).
			Count(&count).Error)
		assert.Equal(t, int64(1), count, "member %d", member)
	}

	var groupMatches int64
	require.NoError(t, appCtx.DB.Model(&db.Match{}).
		Where("user1_id = ? AND study_group_id = ? AND is_study_group_match = ?", 1, 7, true).
		Count(&groupMatches).Error)
	assert.Equal(t, int64(1), groupMatches)

	// synthetic accepted swipes toward each member for audit symmetry
	var synthetic int64
	require.NoError(t, appCtx.DB.Model(&db.Swipe{}).
		Where("user_id = ? AND target_user_id IS NOT NULL AND status = ?", 1, db.StatusAccepted).
		Count(&synthetic).Error)
	assert.Equal(t, int64(3), synthetic)
}

func TestAcceptGroupSwipeMissingGroup(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := setupCtx(t)
	seedUsers(t, appCtx.DB, 1)
	svc := matches.NewService(appCtx)

	groupID := uint64(99)
	swipe := db.Swipe{UserID: 1, TargetGroupID: &groupID, Direction: db.DirectionYes, Status: db.StatusPending}
	require.NoError(t, appCtx.DB.Create(&swipe).Error)

	_, err := svc.TransitionStatus(ctx, swipe.ID, db.StatusAccepted)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)

	// aborted before any mutation
	var s db.Swipe
	require.NoError(t, appCtx.DB.First(&s, swipe.ID).Error)
	assert.Equal(t, db.StatusPending, s.Status)
}

func TestRemoveMatchNotFound(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := setupCtx(t)
	svc := matches.NewService(appCtx)

	err := svc.Remove(ctx, 1, 2)
	assert.ErrorIs(t, err, svcErr.ErrNotFound)
}

// Unmatching deletes the direct chat and every swipe for the pair, then
// leaves a single Denied tombstone so they do not immediately re-match.
func TestRemoveMatchTombstone(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := setupCtx(t)
	seedUsers(t, appCtx.DB, 2)
	svc := matches.NewService(appCtx)
	ledger := swipes.NewService(appCtx)

	two := uint64(2)
	require.NoError(t, appCtx.DB.Create(&db.Match{User1ID: 1, User2ID: &two}).Error)

	var users []db.User
	require.NoError(t, appCtx.DB.Find(&users).Error)
	chat := db.Chat{Name: "alice & bob", Users: users}
	require.NoError(t, appCtx.DB.Create(&chat).Error)
	one := uint64(1)
	require.NoError(t, appCtx.DB.Create(&db.Message{ChatID: chat.ID, SenderID: &one, Body: "hi"}).Error)

	userSwipe(t, appCtx.DB, 1, 2, db.DirectionYes, db.StatusAccepted)
	userSwipe(t, appCtx.DB, 2, 1, db.DirectionYes, db.StatusPending)

	require.NoError(t, svc.Remove(ctx, 1, 2))

	var chats, messages, matchRows int64
	require.NoError(t, appCtx.DB.Model(&db.Chat{}).Count(&chats).Error)
	require.NoError(t, appCtx.DB.Model(&db.Message{}).Count(&messages).Error)
	require.NoError(t, appCtx.DB.Model(&db.Match{}).Count(&matchRows).Error)
	assert.Equal(t, int64(0), chats)
	assert.Equal(t, int64(0), messages)
	assert.Equal(t, int64(0), matchRows)

	var remaining []db.Swipe
	require.NoError(t, appCtx.DB.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	tombstone := remaining[0]
	assert.Equal(t, uint64(1), tombstone.UserID)
	require.NotNil(t, tombstone.TargetUserID)
	assert.Equal(t, uint64(2), *tombstone.TargetUserID)
	assert.Equal(t, db.DirectionNo, tombstone.Direction)
	assert.Equal(t, db.StatusDenied, tombstone.Status)

	state, err := ledger.RequestStatus(ctx, 1, db.UserTarget(2))
	require.NoError(t, err)
	assert.Equal(t, db.StatusDenied, state)
}

// A shared two-member group dissolves with its chat; larger shared
// groups stay untouched.
func TestRemoveMatchSharedGroups(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := setupCtx(t)
	seedUsers(t, appCtx.DB, 3)
	svc := matches.NewService(appCtx)

	two := uint64(2)
	require.NoError(t, appCtx.DB.Create(&db.Match{User1ID: 1, User2ID: &two}).Error)

	var pair, trio []db.User
	require.NoError(t, appCtx.DB.Where("id IN ?", []uint64{1, 2}).Find(&pair).Error)
	require.NoError(t, appCtx.DB.Where("id IN ?", []uint64{1, 2, 3}).Find(&trio).Error)

	small := db.StudyGroup{Name: "Duo", CreatedByID: 1, Users: pair}
	require.NoError(t, appCtx.DB.Create(&small).Error)
	smallChat := db.Chat{Name: "Duo", StudyGroupID: &small.ID, Users: pair}
	require.NoError(t, appCtx.DB.Create(&smallChat).Error)
	require.NoError(t, appCtx.DB.Model(&small).Update("chat_id", smallChat.ID).Error)

	big := db.StudyGroup{Name: "Trio", CreatedByID: 1, Users: trio}
	require.NoError(t, appCtx.DB.Create(&big).Error)

	require.NoError(t, svc.Remove(ctx, 1, 2))

	var smallCount, chatCount, bigCount int64
	require.NoError(t, appCtx.DB.Model(&db.StudyGroup{}).Where("id = ?", small.ID).Count(&smallCount).Error)
	require.NoError(t, appCtx.DB.Model(&db.Chat{}).Where("id = ?", smallChat.ID).Count(&chatCount).Error)
	require.NoError(t, appCtx.DB.Model(&db.StudyGroup{}).Where("id = ?", big.ID).Count(&bigCount).Error)
	assert.Equal(t, int64(0), smallCount)
	assert.Equal(t, int64(0), chatCount)
	assert.Equal(t, int64(1), bigCount)

	var bigMembers int64
	require.NoError(t, appCtx.DB.Table("study_group_users").
		Where("study_group_id = ?", big.ID).Count(&bigMembers).Error)
	assert.Equal(t, int64(3), bigMembers)
}
