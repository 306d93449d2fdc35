package services

import (
	"errors"
	"path/filepath"
	"testing"

	"alerto-http-service/internal/domain/models"
	"alerto-http-service/internal/infrastructure/config"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB 创建测试数据库并完成迁移
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Alert{},
		&models.AlertTimelineEntry{},
		&models.Notification{},
	))
	return db
}

// stubGeocoder 测试用的逆地理编码桩
type stubGeocoder struct {
	address string
	err     error
}

func (g *stubGeocoder) ReverseGeocode(lat, lng float64) (string, error) {
	return g.address, g.err
}

func (g *stubGeocoder) FallbackAddress(lat, lng float64) string {
	return "Fallback Address"
}

func newTestAlertService(t *testing.T, db *gorm.DB, geocoder InterfaceGeocodingService) *AlertService {
	t.Helper()

	if geocoder == nil {
		geocoder = &stubGeocoder{address: "Stub Street 1"}
	}
	return &AlertService{
		DB:       db,
		Config:   &config.Config{ResponderFanoutLimit: 20},
		Geocoder: geocoder,
	}
}

// createTestUser 插入一个测试用户
func createTestUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()

	user := &models.User{
		Name:     username,
		Username: username,
		Password: "hashed",
		Role:     role,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func eventNames(events []models.AlertEvent) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name)
	}
	return names
}

func TestCreateAlert(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, nil)
	reporter := createTestUser(t, db, "citizen1", models.RoleCitizen)

	alert, events, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "house fire", "Main St 1", 31.2, 121.5)
	require.NoError(t, err)

	assert.Equal(t, models.AlertStatusPending, alert.Status)
	assert.Equal(t, models.AlertPriorityMedium, alert.Priority) // 未指定优先级时默认medium
	assert.Equal(t, reporter.ID, alert.ReporterID)
	assert.Nil(t, alert.ResponderID)
	assert.Equal(t, uint(0), alert.Version)

	// 创建后至少有一条created时间线
	loaded, err := svc.GetAlertByID(alert.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Timeline, 1)
	assert.Equal(t, models.TimelineActionCreated, loaded.Timeline[0].Action)
	assert.Equal(t, reporter.ID, *loaded.Timeline[0].ActorID)

	// 没有匹配响应者和家庭成员时，只剩全局广播
	require.Len(t, events, 1)
	assert.Equal(t, models.EventNewAlertGlobal, events[0].Name)
	assert.Equal(t, uint(0), events[0].UserID)
}

func TestCreateAlertValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, nil)
	reporter := createTestUser(t, db, "citizen1", models.RoleCitizen)

	_, _, err := svc.CreateAlert(reporter.ID, "earthquake", "", "", "", 0, 0)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, _, err = svc.CreateAlert(reporter.ID, models.AlertTypeFire, "urgent", "", "", 0, 0)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, _, err = svc.CreateAlert(9999, models.AlertTypeFire, "", "", "", 0, 0)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateAlertSuspendedReporter(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, nil)
	reporter := createTestUser(t, db, "citizen1", models.RoleCitizen)
	require.NoError(t, db.Model(reporter).Update("status", models.UserStatusSuspended).Error)

	_, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 0, 0)
	assert.ErrorIs(t, err, ErrUserSuspended)
}

func TestCreateAlertFanout(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, nil)

	reporter := createTestUser(t, db, "citizen1", models.RoleCitizen)
	family := createTestUser(t, db, "family1", models.RoleFamily)
	require.NoError(t, db.Model(reporter).Association("FamilyMembers").Append(family))

	fireman := createTestUser(t, db, "fire1", models.RoleFire)
	createTestUser(t, db, "police1", models.RolePolice) // 角色不匹配，不应收到

	alert, events, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, models.AlertPriorityHigh, "", "Main St", 31.2, 121.5)
	require.NoError(t, err)

	// 响应者定向 → 家庭成员副本 → 全局广播，每个定向事件后跟通知事件
	names := eventNames(events)
	assert.Equal(t, []string{
		models.EventNewAlert, models.EventNewNotification,
		models.EventNewAlert, models.EventNewNotification,
		models.EventNewAlertGlobal,
	}, names)
	assert.Equal(t, fireman.ID, events[0].UserID)
	assert.Equal(t, family.ID, events[2].UserID)

	// 通知已持久化，断线客户端重连后可补齐
	var notifications []models.Notification
	require.NoError(t, db.Where("alert_id = ?", alert.ID).Order("id ASC").Find(&notifications).Error)
	require.Len(t, notifications, 2)
	assert.Equal(t, models.NotificationTypeNewAlert, notifications[0].Type)
	assert.Equal(t, fireman.ID, notifications[0].UserID)
	assert.Equal(t, models.NotificationTypeFamilyAlert, notifications[1].Type)
	assert.Equal(t, family.ID, notifications[1].UserID)
}

func TestCreateAlertFanoutLimit(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, nil)
	svc.Config.ResponderFanoutLimit = 2
	reporter := createTestUser(t, db, "citizen1", models.RoleCitizen)

	// 三个消防响应者，距离依次递增
	near := createTestUser(t, db, "fire-near", models.RoleFire)
	require.NoError(t, db.Model(near).Updates(map[string]interface{}{"latitude": 1.0, "longitude": 0.0}).Error)
	mid := createTestUser(t, db, "fire-mid", models.RoleFire)
	require.NoError(t, db.Model(mid).Updates(map[string]interface{}{"latitude": 2.0, "longitude": 0.0}).Error)
	far := createTestUser(t, db, "fire-far", models.RoleFire)
	require.NoError(t, db.Model(far).Updates(map[string]interface{}{"latitude": 3.0, "longitude": 0.0}).Error)

	_, events, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 0, 0)
	require.NoError(t, err)

	// 有界扇出：只通知最近的两个
	var targeted []uint
	for _, e := range events {
		if e.Name == models.EventNewAlert {
			targeted = append(targeted, e.UserID)
		}
	}
	assert.Equal(t, []uint{near.ID, mid.ID}, targeted)
}

func TestCreateDeviceAlert(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, &stubGeocoder{address: "Geocoded Road 42"})

	alert, _, err := svc.CreateDeviceAlert(models.AlertTypeFire, 31.2, 121.5, "smoke detected")
	require.NoError(t, err)

	// 自动检测视为已确认：直接active、高优先级
	assert.Equal(t, models.AlertStatusActive, alert.Status)
	assert.Equal(t, models.AlertPriorityHigh, alert.Priority)
	assert.Equal(t, "Geocoded Road 42", alert.Address)

	var reporter models.User
	require.NoError(t, db.Where("username = ?", DeviceReporterUsername).First(&reporter).Error)
	assert.Equal(t, reporter.ID, alert.ReporterID)

	// 再次上报复用同一合成账号
	_, _, err = svc.CreateDeviceAlert(models.AlertTypePolice, 31.2, 121.5, "")
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", DeviceReporterUsername).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateDeviceAlertGeocodeFallback(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, &stubGeocoder{err: errors.New("service unavailable")})

	alert, _, err := svc.CreateDeviceAlert(models.AlertTypeHospital, 31.2, 121.5, "")
	require.NoError(t, err)
	assert.Equal(t, "Fallback Address", alert.Address)
}

func TestRespondToAlert(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, nil)
	reporter := createTestUser(t, db, "citizen1", models.RoleCitizen)
	fireman := createTestUser(t, db, "fire1", models.RoleFire)

	alert, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 0, 0)
	require.NoError(t, err)

	responded, events, err := svc.RespondToAlert(alert.ID, fireman.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResponded, responded.Status)
	require.NotNil(t, responded.ResponderID)
	assert.Equal(t, fireman.ID, *responded.ResponderID)
	assert.NotNil(t, responded.ResponseTime)

	// 报告人收到接警事件和持久化通知
	names := eventNames(events)
	assert.Equal(t, []string{models.EventAlertResponded, models.EventNewNotification}, names)
	assert.Equal(t, reporter.ID, events[0].UserID)

	loaded, err := svc.GetAlertByID(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), loaded.Version)
	require.Len(t, loaded.Timeline, 2)
	assert.Equal(t, models.TimelineActionResponded, loaded.Timeline[1].Action)
}

func TestRespondToAlertRoleGuard(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, nil)
	reporter := createTestUser(t, db, "citizen1", models.RoleCitizen)
	policeman := createTestUser(t, db, "police1", models.RolePolice)
	admin := createTestUser(t, db, "admin1", models.RoleAdmin)

	alert, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 0, 0)
	require.NoError(t, err)

	// 角色与警报类型不匹配
	_, _, err = svc.RespondToAlert(alert.ID, policeman.ID)
	assert.ErrorIs(t, err, ErrAuthorization)

	// 市民自己也不能接警
	_, _, err = svc.RespondToAlert(alert.ID, reporter.ID)
	assert.ErrorIs(t, err, ErrAuthorization)

	// 管理员不受类型限制
	_, _, err = svc.RespondToAlert(alert.ID, admin.ID)
	assert.NoError(t, err)

	// 家庭成员可接警family类型的警报
	familyMember := createTestUser(t, db, "family1", models.RoleFamily)
	familyAlert, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFamily, "", "", "", 0, 0)
	require.NoError(t, err)

	_, _, err = svc.RespondToAlert(familyAlert.ID, policeman.ID)
	assert.ErrorIs(t, err, ErrAuthorization)

	updated, _, err := svc.RespondToAlert(familyAlert.ID, familyMember.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResponded, updated.Status)
	require.NotNil(t, updated.ResponderID)
	assert.Equal(t, familyMember.ID, *updated.ResponderID)
}

func TestRespondToAlertConflicts(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, nil)
	reporter := createTestUser(t, db, "citizen1", models.RoleCitizen)
	fire1 := createTestUser(t, db, "fire1", models.RoleFire)
	fire2 := createTestUser(t, db, "fire2", models.RoleFire)

	alert, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 0, 0)
	require.NoError(t, err)

	_, _, err = svc.RespondToAlert(alert.ID, fire1.ID)
	require.NoError(t, err)

	// responder只设置一次，重复接警冲突
	_, _, err = svc.RespondToAlert(alert.ID, fire2.ID)
	assert.ErrorIs(t, err, ErrConflict)

	// 已取消的警报不能接警
	cancelled, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 0, 0)
	require.NoError(t, err)
	_, err = svc.CancelAlert(cancelled.ID, reporter.ID)
	require.NoError(t, err)
	_, _, err = svc.RespondToAlert(cancelled.ID, fire1.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, _, err = svc.RespondToAlert(9999, fire1.ID)
	assert.ErrorIs(t, err, ErrAlertNotFound)
}

func TestResolveAlert(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, nil)
	reporter := createTestUser(t, db, "citizen1", models.RoleCitizen)
	fireman := createTestUser(t, db, "fire1", models.RoleFire)

	alert, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 0, 0)
	require.NoError(t, err)
	_, _, err = svc.RespondToAlert(alert.ID, fireman.ID)
	require.NoError(t, err)

	resolved, events, err := svc.ResolveAlert(alert.ID, fireman.ID, "fire extinguished")
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedTime)

	// 报告人同时收到resolved和updated两个事件，外加通知
	names := eventNames(events)
	assert.Equal(t, []string{models.EventAlertResolved, models.EventAlertUpdated, models.EventNewNotification}, names)
	for _, e := range events {
		assert.Equal(t, reporter.ID, e.UserID)
	}

	loaded, err := svc.GetAlertByID(alert.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Timeline, 3)
	assert.Equal(t, models.TimelineActionResolved, loaded.Timeline[2].Action)
	assert.Equal(t, "fire extinguished", loaded.Timeline[2].Notes)

	// 重复resolve返回冲突
	_, _, err = svc.ResolveAlert(alert.ID, fireman.ID, "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestResolveAlertAuthorization(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, nil)
	reporter := createTestUser(t, db, "citizen1", models.RoleCitizen)
	fire1 := createTestUser(t, db, "fire1", models.RoleFire)
	fire2 := createTestUser(t, db, "fire2", models.RoleFire)
	admin := createTestUser(t, db, "admin1", models.RoleAdmin)

	alert, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 0, 0)
	require.NoError(t, err)
	_, _, err = svc.RespondToAlert(alert.ID, fire1.ID)
	require.NoError(t, err)

	// 非当前接警人不能resolve
	_, _, err = svc.ResolveAlert(alert.ID, fire2.ID, "")
	assert.ErrorIs(t, err, ErrAuthorization)
	_, _, err = svc.ResolveAlert(alert.ID, reporter.ID, "")
	assert.ErrorIs(t, err, ErrAuthorization)

	// 管理员可以直接resolve，哪怕尚未接警
	other, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 0, 0)
	require.NoError(t, err)
	resolved, _, err := svc.ResolveAlert(other.ID, admin.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, resolved.Status)
}

func TestCancelAlert(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, nil)
	reporter := createTestUser(t, db, "citizen1", models.RoleCitizen)
	stranger := createTestUser(t, db, "citizen2", models.RoleCitizen)
	fireman := createTestUser(t, db, "fire1", models.RoleFire)

	alert, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 0, 0)
	require.NoError(t, err)

	// 仅限报告人
	_, err = svc.CancelAlert(alert.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrAuthorization)

	cancelled, err := svc.CancelAlert(alert.ID, reporter.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusCancelled, cancelled.Status)

	loaded, err := svc.GetAlertByID(alert.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Timeline, 2)
	assert.Equal(t, models.TimelineActionCancelled, loaded.Timeline[1].Action)

	// 已有接警人后不能取消
	responded, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 0, 0)
	require.NoError(t, err)
	_, _, err = svc.RespondToAlert(responded.ID, fireman.ID)
	require.NoError(t, err)
	_, err = svc.CancelAlert(responded.ID, reporter.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateAlert(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, nil)
	reporter := createTestUser(t, db, "citizen1", models.RoleCitizen)
	stranger := createTestUser(t, db, "citizen2", models.RoleCitizen)

	alert, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "initial", "", 0, 0)
	require.NoError(t, err)

	_, err = svc.UpdateAlert(alert.ID, stranger.ID, map[string]interface{}{"description": "x"}, "")
	assert.ErrorIs(t, err, ErrAuthorization)

	// 白名单之外的字段被静默忽略
	updated, err := svc.UpdateAlert(alert.ID, reporter.ID, map[string]interface{}{
		"description": "updated text",
		"priority":    models.AlertPriorityCritical,
		"status":      models.AlertStatusResolved,
		"reporter_id": stranger.ID,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "updated text", updated.Description)
	assert.Equal(t, models.AlertPriorityCritical, updated.Priority)
	assert.Equal(t, models.AlertStatusPending, updated.Status)
	assert.Equal(t, reporter.ID, updated.ReporterID)

	// 无备注时不追加时间线
	assert.Len(t, updated.Timeline, 1)

	// 显式备注时追加updated条目
	updated, err = svc.UpdateAlert(alert.ID, reporter.ID, map[string]interface{}{"address": "New St"}, "corrected address")
	require.NoError(t, err)
	require.Len(t, updated.Timeline, 2)
	assert.Equal(t, models.TimelineActionUpdated, updated.Timeline[1].Action)
	assert.Equal(t, "corrected address", updated.Timeline[1].Notes)

	_, err = svc.UpdateAlert(alert.ID, reporter.ID, map[string]interface{}{"priority": "urgent"}, "")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestApplyTransitionVersionConflict(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, nil)
	reporter := createTestUser(t, db, "citizen1", models.RoleCitizen)

	alert, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 0, 0)
	require.NoError(t, err)

	// 持有旧版本号的副本
	stale, err := svc.GetAlertByID(alert.ID)
	require.NoError(t, err)

	// 另一条路径先行提交，版本号前进
	_, err = svc.UpdateAlert(alert.ID, reporter.ID, map[string]interface{}{"description": "winner"}, "")
	require.NoError(t, err)

	// 基于旧版本的条件写入落空，整个流转回滚
	err = svc.applyTransition(stale, map[string]interface{}{"status": models.AlertStatusCancelled}, models.TimelineActionCancelled, &reporter.ID, "")
	assert.ErrorIs(t, err, ErrConflict)

	loaded, err := svc.GetAlertByID(alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusPending, loaded.Status)
	assert.Equal(t, "winner", loaded.Description)
	assert.Len(t, loaded.Timeline, 1)
}

func TestDeleteAlert(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, nil)
	reporter := createTestUser(t, db, "citizen1", models.RoleCitizen)
	stranger := createTestUser(t, db, "citizen2", models.RoleCitizen)
	createTestUser(t, db, "fire1", models.RoleFire)

	alert, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 0, 0)
	require.NoError(t, err)

	err = svc.DeleteAlert(alert.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrAuthorization)

	require.NoError(t, svc.DeleteAlert(alert.ID, reporter.ID))

	_, err = svc.GetAlertByID(alert.ID)
	assert.ErrorIs(t, err, ErrAlertNotFound)

	// 时间线与通知连带清理
	var timelineCount, notificationCount int64
	require.NoError(t, db.Model(&models.AlertTimelineEntry{}).Where("alert_id = ?", alert.ID).Count(&timelineCount).Error)
	require.NoError(t, db.Model(&models.Notification{}).Where("alert_id = ?", alert.ID).Count(&notificationCount).Error)
	assert.Equal(t, int64(0), timelineCount)
	assert.Equal(t, int64(0), notificationCount)
}

func TestNearbyAlerts(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, nil)
	reporter := createTestUser(t, db, "citizen1", models.RoleCitizen)

	// 距原点约11km、222km、5560km
	near, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 0.1, 0)
	require.NoError(t, err)
	mid, _, err := svc.CreateAlert(reporter.ID, models.AlertTypePolice, "", "", "", 2.0, 0)
	require.NoError(t, err)
	_, _, err = svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 50.0, 0)
	require.NoError(t, err)

	// 终止状态的警报不出现在附近列表
	cancelled, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 0.1, 0)
	require.NoError(t, err)
	_, err = svc.CancelAlert(cancelled.ID, reporter.ID)
	require.NoError(t, err)

	result, err := svc.NearbyAlerts("", 0, 0, 300)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, near.ID, result[0].ID) // 近者在前
	assert.Equal(t, mid.ID, result[1].ID)

	// 类型过滤
	result, err = svc.NearbyAlerts(models.AlertTypePolice, 0, 0, 300)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, mid.ID, result[0].ID)

	result, err = svc.NearbyAlerts("", 0, 0, 50)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, near.ID, result[0].ID)
}

func TestGetAlerts(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAlertService(t, db, nil)
	reporter := createTestUser(t, db, "citizen1", models.RoleCitizen)

	for i := 0; i < 3; i++ {
		_, _, err := svc.CreateAlert(reporter.ID, models.AlertTypeFire, "", "", "", 0, 0)
		require.NoError(t, err)
	}
	_, _, err := svc.CreateAlert(reporter.ID, models.AlertTypePolice, models.AlertPriorityCritical, "", "", 0, 0)
	require.NoError(t, err)

	alerts, total, err := svc.GetAlerts("", "", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, alerts, 4)

	alerts, total, err = svc.GetAlerts("", models.AlertTypeFire, "", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, alerts, 2)

	alerts, total, err = svc.GetAlerts("", "", models.AlertPriorityCritical, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertTypePolice, alerts[0].Type)
}

func TestHaversineKM(t *testing.T) {
	// 赤道上1度经度约111km
	d := haversineKM(0, 0, 0, 1)
	assert.InDelta(t, 111.19, d, 0.5)

	assert.Equal(t, 0.0, haversineKM(31.2, 121.5, 31.2, 121.5))
}
