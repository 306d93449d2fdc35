package services

import (
	"testing"

	"alerto-http-service/internal/domain/models"
	"alerto-http-service/internal/infrastructure/config"
	"alerto-http-service/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestUserService(t *testing.T, db *gorm.DB) InterfaceUserService {
	t.Helper()
	return NewUserService(db, &config.Config{})
}

func TestRegister(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)

	user, err := svc.Register(&models.User{
		Name:     "张三",
		Username: "zhangsan",
		Role:     models.RoleCitizen,
	}, "secret123")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, models.UserStatusActive, user.Status)

	// 密码以哈希存储
	assert.NotEqual(t, "secret123", user.Password)
	assert.True(t, utils.CheckPasswordHash("secret123", user.Password))

	// 用户名唯一
	_, err = svc.Register(&models.User{Name: "李四", Username: "zhangsan", Role: models.RoleCitizen}, "x")
	assert.ErrorIs(t, err, ErrUserExists)

	// admin角色不能通过注册获得
	_, err = svc.Register(&models.User{Name: "坏人", Username: "evil", Role: models.RoleAdmin}, "x")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Register(&models.User{Name: "无效", Username: "invalid", Role: "superuser"}, "x")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)

	_, err := svc.Register(&models.User{Name: "张三", Username: "zhangsan", Role: models.RoleCitizen}, "secret123")
	require.NoError(t, err)

	user, err := svc.Authenticate("zhangsan", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "zhangsan", user.Username)

	// 用户不存在和密码错误返回同一个错误，不暴露账号是否存在
	_, err = svc.Authenticate("zhangsan", "wrong")
	assert.ErrorIs(t, err, ErrPasswordIncorrect)
	_, err = svc.Authenticate("nobody", "secret123")
	assert.ErrorIs(t, err, ErrPasswordIncorrect)

	// 非active账号拒绝登录
	require.NoError(t, db.Model(user).Update("status", models.UserStatusSuspended).Error)
	_, err = svc.Authenticate("zhangsan", "secret123")
	assert.ErrorIs(t, err, ErrUserSuspended)
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)
	user := createTestUser(t, db, "citizen1", models.RoleCitizen)
	member := createTestUser(t, db, "family1", models.RoleFamily)

	// 白名单之外的字段被忽略
	updated, err := svc.UpdateProfile(user.ID, map[string]interface{}{
		"name":     "新名字",
		"phone":    "13800138000",
		"role":     models.RoleAdmin,
		"password": "hacked",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "新名字", updated.Name)
	assert.Equal(t, "13800138000", updated.Phone)
	assert.Equal(t, models.RoleCitizen, updated.Role)
	assert.Equal(t, "hashed", updated.Password)

	// familyMemberIDs非nil时整体替换
	updated, err = svc.UpdateProfile(user.ID, nil, []uint{member.ID})
	require.NoError(t, err)
	require.Len(t, updated.FamilyMembers, 1)
	assert.Equal(t, member.ID, updated.FamilyMembers[0].ID)

	// 空切片清空家庭成员
	updated, err = svc.UpdateProfile(user.ID, nil, []uint{})
	require.NoError(t, err)
	assert.Len(t, updated.FamilyMembers, 0)

	// 含不存在的成员ID时整体失败
	_, err = svc.UpdateProfile(user.ID, nil, []uint{member.ID, 9999})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)

	user, err := svc.Register(&models.User{Name: "张三", Username: "zhangsan", Role: models.RoleCitizen}, "oldpass")
	require.NoError(t, err)

	err = svc.ChangePassword(user.ID, "wrong", "newpass")
	assert.ErrorIs(t, err, ErrPasswordIncorrect)

	require.NoError(t, svc.ChangePassword(user.ID, "oldpass", "newpass"))

	_, err = svc.Authenticate("zhangsan", "oldpass")
	assert.ErrorIs(t, err, ErrPasswordIncorrect)
	_, err = svc.Authenticate("zhangsan", "newpass")
	assert.NoError(t, err)
}

func TestUpdateUserLocation(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)
	user := createTestUser(t, db, "citizen1", models.RoleCitizen)

	require.NoError(t, svc.UpdateLocation(user.ID, "Main St 1", 31.2, 121.5))

	loaded, err := svc.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main St 1", loaded.Address)
	assert.Equal(t, 31.2, loaded.Latitude)
	assert.Equal(t, 121.5, loaded.Longitude)

	// 地址为空时只更新坐标
	require.NoError(t, svc.UpdateLocation(user.ID, "", 32.0, 120.0))
	loaded, err = svc.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main St 1", loaded.Address)
	assert.Equal(t, 32.0, loaded.Latitude)
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)
	alertSvc := newTestAlertService(t, db, nil)

	citizen := createTestUser(t, db, "citizen1", models.RoleCitizen)
	fireman := createTestUser(t, db, "fire1", models.RoleFire)
	admin := createTestUser(t, db, "admin1", models.RoleAdmin)

	a1, _, err := alertSvc.CreateAlert(citizen.ID, models.AlertTypeFire, "", "", "", 0, 0)
	require.NoError(t, err)
	_, _, err = alertSvc.CreateAlert(citizen.ID, models.AlertTypeFire, "", "", "", 0, 0)
	require.NoError(t, err)
	_, _, err = alertSvc.RespondToAlert(a1.ID, fireman.ID)
	require.NoError(t, err)

	// 市民看自己报告的警报
	stats, err := svc.GetStats(citizen.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCitizen, stats["role"])
	alertStats := stats["alerts"].(map[string]int64)
	assert.Equal(t, int64(2), alertStats["total"])
	assert.Equal(t, int64(1), alertStats[models.AlertStatusPending])
	assert.Equal(t, int64(1), alertStats[models.AlertStatusResponded])

	// 响应者看自己接警的警报和待处理数量
	stats, err = svc.GetStats(fireman.ID)
	require.NoError(t, err)
	alertStats = stats["alerts"].(map[string]int64)
	assert.Equal(t, int64(1), alertStats["total"])
	assert.Equal(t, int64(1), stats["pending"])

	// 管理员看全局
	stats, err = svc.GetStats(admin.ID)
	require.NoError(t, err)
	alertStats = stats["alerts"].(map[string]int64)
	assert.Equal(t, int64(2), alertStats["total"])
	assert.Equal(t, int64(3), stats["users"])
}

func TestGetAllUsers(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)

	createTestUser(t, db, "citizen1", models.RoleCitizen)
	createTestUser(t, db, "citizen2", models.RoleCitizen)
	createTestUser(t, db, "fire1", models.RoleFire)

	users, total, err := svc.GetAllUsers("", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, users, 3)

	users, total, err = svc.GetAllUsers(models.RoleCitizen, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 1)
}

func TestUpdateUserStatus(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)
	user := createTestUser(t, db, "citizen1", models.RoleCitizen)

	_, err := svc.UpdateUserStatus(user.ID, "banned")
	assert.ErrorIs(t, err, ErrValidationFailed)

	updated, err := svc.UpdateUserStatus(user.ID, models.UserStatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusSuspended, updated.Status)

	_, err = svc.UpdateUserStatus(9999, models.UserStatusActive)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	db := newTestDB(t)
	svc := newTestUserService(t, db)
	user := createTestUser(t, db, "citizen1", models.RoleCitizen)
	member := createTestUser(t, db, "family1", models.RoleFamily)

	_, err := svc.UpdateProfile(user.ID, nil, []uint{member.ID})
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Notification{UserID: user.ID, AlertID: 1, Type: models.NotificationTypeNewAlert}).Error)

	require.NoError(t, svc.DeleteUser(user.ID))

	_, err = svc.GetUserByID(user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	// 通知连带清理，家庭成员本身保留
	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	_, err = svc.GetUserByID(member.ID)
	assert.NoError(t, err)
}
