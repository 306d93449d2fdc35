package services

import (
	"testing"

	"alerto-http-service/internal/domain/models"
	"alerto-http-service/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestNotificationService(t *testing.T, db *gorm.DB) InterfaceNotificationService {
	t.Helper()
	return NewNotificationService(db, &config.Config{})
}

func createTestNotification(t *testing.T, db *gorm.DB, userID uint, read bool) *models.Notification {
	t.Helper()

	notification := &models.Notification{
		UserID:  userID,
		AlertID: 1,
		Type:    models.NotificationTypeNewAlert,
		Message: "测试通知",
		Read:    read,
	}
	require.NoError(t, db.Create(notification).Error)
	return notification
}

func TestGetNotifications(t *testing.T) {
	db := newTestDB(t)
	svc := newTestNotificationService(t, db)
	user := createTestUser(t, db, "citizen1", models.RoleCitizen)
	other := createTestUser(t, db, "citizen2", models.RoleCitizen)

	createTestNotification(t, db, user.ID, false)
	createTestNotification(t, db, user.ID, true)
	createTestNotification(t, db, other.ID, false) // 别人的通知不可见

	notifications, total, err := svc.GetNotifications(user.ID, false, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, notifications, 2)

	// 只看未读
	notifications, total, err = svc.GetNotifications(user.ID, true, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, notifications, 1)
	assert.False(t, notifications[0].Read)

	// 分页
	notifications, total, err = svc.GetNotifications(user.ID, false, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, notifications, 1)
}

func TestMarkRead(t *testing.T) {
	db := newTestDB(t)
	svc := newTestNotificationService(t, db)
	user := createTestUser(t, db, "citizen1", models.RoleCitizen)
	other := createTestUser(t, db, "citizen2", models.RoleCitizen)

	notification := createTestNotification(t, db, user.ID, false)

	marked, err := svc.MarkRead(user.ID, notification.ID)
	require.NoError(t, err)
	assert.True(t, marked.Read)

	// 重复标记幂等
	marked, err = svc.MarkRead(user.ID, notification.ID)
	require.NoError(t, err)
	assert.True(t, marked.Read)

	// 归属校验：他人的通知按不存在处理
	_, err = svc.MarkRead(other.ID, notification.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	_, err = svc.MarkRead(user.ID, 9999)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestMarkAllRead(t *testing.T) {
	db := newTestDB(t)
	svc := newTestNotificationService(t, db)
	user := createTestUser(t, db, "citizen1", models.RoleCitizen)
	other := createTestUser(t, db, "citizen2", models.RoleCitizen)

	createTestNotification(t, db, user.ID, false)
	createTestNotification(t, db, user.ID, false)
	createTestNotification(t, db, user.ID, true)
	otherUnread := createTestNotification(t, db, other.ID, false)

	affected, err := svc.MarkAllRead(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	_, total, err := svc.GetNotifications(user.ID, true, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	// 不影响别人的通知
	var loaded models.Notification
	require.NoError(t, db.First(&loaded, otherUnread.ID).Error)
	assert.False(t, loaded.Read)
}

func TestDeleteNotification(t *testing.T) {
	db := newTestDB(t)
	svc := newTestNotificationService(t, db)
	user := createTestUser(t, db, "citizen1", models.RoleCitizen)
	other := createTestUser(t, db, "citizen2", models.RoleCitizen)

	notification := createTestNotification(t, db, user.ID, false)

	err := svc.DeleteNotification(other.ID, notification.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	require.NoError(t, svc.DeleteNotification(user.ID, notification.ID))

	err = svc.DeleteNotification(user.ID, notification.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestDeleteAllRead(t *testing.T) {
	db := newTestDB(t)
	svc := newTestNotificationService(t, db)
	user := createTestUser(t, db, "citizen1", models.RoleCitizen)

	createTestNotification(t, db, user.ID, true)
	createTestNotification(t, db, user.ID, true)
	unread := createTestNotification(t, db, user.ID, false)

	affected, err := svc.DeleteAllRead(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	// 未读的保留
	notifications, total, err := svc.GetNotifications(user.ID, false, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, notifications, 1)
	assert.Equal(t, unread.ID, notifications[0].ID)
}
