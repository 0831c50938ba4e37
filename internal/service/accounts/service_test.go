package accounts_test

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
	"github.com/studybuddy/studybuddy/internal/service/accounts"
)

func setupCtx(t *testing.T) *app.AppContext {
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

	return app.New(dbase, redisCache, realtime.NewRecorder(), logger)
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

// Full cascade: direct chats with their messages, swipes either side,
// matches either side and notifications all go with the user. Group
// chats survive minus the departed member's rows.
func TestDeleteCascade(t *testing.T) {
	ctx := context.Background()
	appCtx := setupCtx(t)
	seedUsers(t, appCtx.DB, 3)
	svc := accounts.NewService(appCtx)

	one, two := uint64(1), uint64(2)

	var pair, trio []db.User
	require.NoError(t, appCtx.DB.Where("id IN ?", []uint64{1, 2}).Find(&pair).Error)
	require.NoError(t, appCtx.DB.Find(&trio).Error)

	direct := db.Chat{Name: "user1 & user2", Users: pair}
	require.NoError(t, appCtx.DB.Create(&direct).Error)
	require.NoError(t, appCtx.DB.Create(&db.Message{ChatID: direct.ID, SenderID: &one, Body: "hello"}).Error)
	require.NoError(t, appCtx.DB.Create(&db.Message{ChatID: direct.ID, SenderID: &two, Body: "hi"}).Error)

	group := db.StudyGroup{Name: "Trio", CreatedByID: 2, Users: trio}
	require.NoError(t, appCtx.DB.Create(&group).Error)
	groupChat := db.Chat{Name: "Trio", StudyGroupID: &group.ID, Users: trio}
	require.NoError(t, appCtx.DB.Create(&groupChat).Error)
	require.NoError(t, appCtx.DB.Create(&db.Message{ChatID: groupChat.ID, SenderID: &one, Body: "in group"}).Error)
	require.NoError(t, appCtx.DB.Create(&db.Message{ChatID: groupChat.ID, SenderID: &two, Body: "kept"}).Error)

	require.NoError(t, appCtx.DB.Create(&db.Swipe{UserID: 1, TargetUserID: &two, Direction: db.DirectionYes, Status: db.StatusPending}).Error)
	three := uint64(3)
	require.NoError(t, appCtx.DB.Create(&db.Swipe{UserID: 3, TargetUserID: &one, Direction: db.DirectionYes, Status: db.StatusPending}).Error)
	require.NoError(t, appCtx.DB.Create(&db.Swipe{UserID: 2, TargetUserID: &three, Direction: db.DirectionYes, Status: db.StatusPending}).Error)

	require.NoError(t, appCtx.DB.Create(&db.Match{User1ID: 1, User2ID: &two}).Error)
	require.NoError(t, appCtx.DB.Create(&db.Match{User1ID: 2, User2ID: &three}).Error)

	require.NoError(t, appCtx.DB.Create(&db.Notification{UserID: 1, Message: "gone", Type: db.NotificationMatch}).Error)
	require.NoError(t, appCtx.DB.Create(&db.Notification{UserID: 2, Message: "kept", Type: db.NotificationMatch}).Error)

	require.NoError(t, svc.Delete(ctx, 1))

	var userCount int64
	require.NoError(t, appCtx.DB.Model(&db.User{}).Where("id = ?", 1).Count(&userCount).Error)
	assert.Equal(t, int64(0), userCount)

	var directCount int64
	require.NoError(t, appCtx.DB.Model(&db.Chat{}).Where("id = ?", direct.ID).Count(&directCount).Error)
	assert.Equal(t, int64(0), directCount)

	var swipeCount int64
	require.NoError(t, appCtx.DB.Model(&db.Swipe{}).
		Where("user_id = ? OR target_user_id = ?", 1, 1).Count(&swipeCount).Error)
	assert.Equal(t, int64(0), swipeCount)

	var matchCount int64
	require.NoError(t, appCtx.DB.Model(&db.Match{}).
		Where("user1_id = ? OR user2_id = ?", 1, 1).Count(&matchCount).Error)
	assert.Equal(t, int64(0), matchCount)

	var noteCount int64
	require.NoError(t, appCtx.DB.Model(&db.Notification{}).Where("user_id = ?", 1).Count(&noteCount).Error)
	assert.Equal(t, int64(0), noteCount)

	var authored int64
	require.NoError(t, appCtx.DB.Model(&db.Message{}).Where("sender_id = ?", 1).Count(&authored).Error)
	assert.Equal(t, int64(0), authored)

	// unrelated rows survive
	var groupChatCount, keptMsg, keptSwipe, keptMatch, keptNote int64
	require.NoError(t, appCtx.DB.Model(&db.Chat{}).Where("id = ?", groupChat.ID).Count(&groupChatCount).Error)
	require.NoError(t, appCtx.DB.Model(&db.Message{}).Where("sender_id = ?", 2).Count(&keptMsg).Error)
	require.NoError(t, appCtx.DB.Model(&db.Swipe{}).Where("user_id = ?", 2).Count(&keptSwipe).Error)
	require.NoError(t, appCtx.DB.Model(&db.Match{}).Where("user1_id = ?", 2).Count(&keptMatch).Error)
	require.NoError(t, appCtx.DB.Model(&db.Notification{}).Where("user_id = ?", 2).Count(&keptNote).Error)
	assert.Equal(t, int64(1), groupChatCount)
	assert.Equal(t, int64(1), keptMsg)
	assert.Equal(t, int64(1), keptSwipe)
	assert.Equal(t, int64(1), keptMatch)
	assert.Equal(t, int64(1), keptNote)

	// departed member is off the group chat roster
	var chatRows int64
	require.NoError(t, appCtx.DB.Table("chat_users").
		Where("chat_id = ? AND user_id = ?", groupChat.ID, 1).Count(&chatRows).Error)
	assert.Equal(t, int64(0), chatRows)
}

func TestDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	appCtx := setupCtx(t)
	seedUsers(t, appCtx.DB, 1)
	svc := accounts.NewService(appCtx)

	require.NoError(t, svc.Delete(ctx, 1))
	require.NoError(t, svc.Delete(ctx, 1))

	assert.ErrorIs(t, svc.Delete(ctx, 0), svcErr.ErrInvalidInput)
}
