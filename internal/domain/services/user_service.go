package services

import (
	"errors"

	"alerto-http-service/internal/domain/models"
	"alerto-http-service/internal/infrastructure/config"
	"alerto-http-service/utils"

	"gorm.io/gorm"
)

// InterfaceUserService defines the user service interface
type InterfaceUserService interface {
	Register(user *models.User, password string) (*models.User, error)
	Authenticate(username, password string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	UpdateProfile(userID uint, updates map[string]interface{}, familyMemberIDs []uint) (*models.User, error)
	ChangePassword(userID uint, oldPassword, newPassword string) error
	UpdateLocation(userID uint, address string, lat, lng float64) error
	GetStats(userID uint) (map[string]interface{}, error)
	GetAllUsers(role string, page, pageSize int) ([]models.User, int64, error)
	UpdateUserStatus(id uint, status string) (*models.User, error)
	DeleteUser(id uint) error
}

// UserService 提供用户相关的服务
type UserService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewUserService 创建一个新的用户服务
func NewUserService(db *gorm.DB, cfg *config.Config) InterfaceUserService {
	return &UserService{
		DB:     db,
		Config: cfg,
	}
}

// 1 Register 注册新用户；admin 角色不能通过注册获得
func (s *UserService) Register(user *models.User, password string) (*models.User, error) {
	if !models.ValidUserRole(user.Role) || user.Role == models.RoleAdmin {
		return nil, ErrValidationFailed
	}

	// 验证用户名唯一性
	var count int64
	if err := s.DB.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user.Password = hashed
	user.Status = models.UserStatusActive

	if err := s.DB.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// 2 Authenticate 核对用户名密码；非active账号拒绝登录
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPasswordIncorrect
		}
		return nil, err
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrPasswordIncorrect
	}
	if !user.IsActive() {
		return nil, ErrUserSuspended
	}
	return &user, nil
}

// 3 GetUserByID 根据ID获取用户（含家庭成员）
func (s *UserService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.Preload("FamilyMembers").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// 可通过个人资料更新的字段白名单
var userUpdatableFields = map[string]bool{
	"name":    true,
	"phone":   true,
	"address": true,
}

// 4 UpdateProfile 更新个人资料；familyMemberIDs 非nil时整体替换家庭成员列表
func (s *UserService) UpdateProfile(userID uint, updates map[string]interface{}, familyMemberIDs []uint) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	filtered := make(map[string]interface{})
	for key, value := range updates {
		if userUpdatableFields[key] {
			filtered[key] = value
		}
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if len(filtered) > 0 {
			if err := tx.Model(user).Updates(filtered).Error; err != nil {
				return err
			}
		}

		if familyMemberIDs != nil {
			var members []*models.User
			if len(familyMemberIDs) > 0 {
				if err := tx.Where("id IN ?", familyMemberIDs).Find(&members).Error; err != nil {
					return err
				}
				if len(members) != len(familyMemberIDs) {
					return ErrUserNotFound
				}
			}
			if err := tx.Model(user).Association("FamilyMembers").Replace(members); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetUserByID(userID)
}

// 5 ChangePassword 修改密码，需要校验旧密码
func (s *UserService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if !utils.CheckPasswordHash(oldPassword, user.Password) {
		return ErrPasswordIncorrect
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.DB.Model(user).Update("password", hashed).Error
}

// 6 UpdateLocation 更新用户最近上报的位置
func (s *UserService) UpdateLocation(userID uint, address string, lat, lng float64) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"latitude":  lat,
		"longitude": lng,
	}
	if address != "" {
		updates["address"] = address
	}
	return s.DB.Model(user).Updates(updates).Error
}

// 7 GetStats 按角色返回聚合统计：
// 市民看自己报告的警报，响应者看自己接警的警报，管理员看全局
func (s *UserService) GetStats(userID uint) (map[string]interface{}, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	countAlerts := func(query *gorm.DB) (map[string]int64, error) {
		type row struct {
			Status string
			Count  int64
		}
		var rows []row
		if err := query.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
			return nil, err
		}
		counts := make(map[string]int64)
		var total int64
		for _, r := range rows {
			counts[r.Status] = r.Count
			total += r.Count
		}
		counts["total"] = total
		return counts, nil
	}

	switch {
	case user.Role == models.RoleAdmin:
		alertCounts, err := countAlerts(s.DB.Model(&models.Alert{}))
		if err != nil {
			return nil, err
		}
		var userCount int64
		if err := s.DB.Model(&models.User{}).Count(&userCount).Error; err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"role":   user.Role,
			"alerts": alertCounts,
			"users":  userCount,
		}, nil

	case user.IsResponder():
		alertCounts, err := countAlerts(s.DB.Model(&models.Alert{}).Where("responder_id = ?", user.ID))
		if err != nil {
			return nil, err
		}
		var pending int64
		if err := s.DB.Model(&models.Alert{}).
			Where("type = ? AND status IN ?", user.Role, []string{models.AlertStatusPending, models.AlertStatusActive}).
			Count(&pending).Error; err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"role":    user.Role,
			"alerts":  alertCounts,
			"pending": pending,
		}, nil

	default:
		alertCounts, err := countAlerts(s.DB.Model(&models.Alert{}).Where("reporter_id = ?", user.ID))
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"role":   user.Role,
			"alerts": alertCounts,
		}, nil
	}
}

// 8 GetAllUsers 管理员分页查询用户列表
func (s *UserService) GetAllUsers(role string, page, pageSize int) ([]models.User, int64, error) {
	query := s.DB.Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// 9 UpdateUserStatus 管理员更新用户状态（active/inactive/suspended）
func (s *UserService) UpdateUserStatus(id uint, status string) (*models.User, error) {
	if !models.ValidUserStatus(status) {
		return nil, ErrValidationFailed
	}

	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.DB.Model(user).Update("status", status).Error; err != nil {
		return nil, err
	}
	user.Status = status
	return user, nil
}

// 10 DeleteUser 管理员删除用户
func (s *UserService) DeleteUser(id uint) error {
	user, err := s.GetUserByID(id)
	if err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Association("FamilyMembers").Clear(); err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
}
