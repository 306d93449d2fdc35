package services

import (
	"errors"

	"alerto-http-service/internal/domain/models"
	"alerto-http-service/internal/infrastructure/config"

	"gorm.io/gorm"
)

// InterfaceNotificationService defines the notification service interface
type InterfaceNotificationService interface {
	GetNotifications(userID uint, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error)
	MarkRead(userID, notificationID uint) (*models.Notification, error)
	MarkAllRead(userID uint) (int64, error)
	DeleteNotification(userID, notificationID uint) error
	DeleteAllRead(userID uint) (int64, error)
}

// NotificationService 提供通知相关的服务；通知只属于一个用户，
// 所有操作都以归属校验开头
type NotificationService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewNotificationService 创建一个新的通知服务
func NewNotificationService(db *gorm.DB, cfg *config.Config) InterfaceNotificationService {
	return &NotificationService{
		DB:     db,
		Config: cfg,
	}
}

// 1 GetNotifications 分页查询用户的通知，可只看未读
func (s *NotificationService) GetNotifications(userID uint, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error) {
	query := s.DB.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("`read` = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// 2 MarkRead 将一条通知标记为已读
func (s *NotificationService) MarkRead(userID, notificationID uint) (*models.Notification, error) {
	notification, err := s.getOwned(userID, notificationID)
	if err != nil {
		return nil, err
	}

	if !notification.Read {
		if err := s.DB.Model(notification).Update("read", true).Error; err != nil {
			return nil, err
		}
		notification.Read = true
	}
	return notification, nil
}

// 3 MarkAllRead 将用户所有未读通知标记为已读，返回影响条数
func (s *NotificationService) MarkAllRead(userID uint) (int64, error) {
	result := s.DB.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", userID, false).
		Update("read", true)
	return result.RowsAffected, result.Error
}

// 4 DeleteNotification 删除一条通知
func (s *NotificationService) DeleteNotification(userID, notificationID uint) error {
	notification, err := s.getOwned(userID, notificationID)
	if err != nil {
		return err
	}
	return s.DB.Delete(notification).Error
}

// 5 DeleteAllRead 删除用户所有已读通知，返回影响条数
func (s *NotificationService) DeleteAllRead(userID uint) (int64, error) {
	result := s.DB.Where("user_id = ? AND `read` = ?", userID, true).
		Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

// getOwned 按ID加载并校验归属
func (s *NotificationService) getOwned(userID, notificationID uint) (*models.Notification, error) {
	var notification models.Notification
	if err := s.DB.First(&notification, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	if notification.UserID != userID {
		return nil, ErrNotificationNotFound
	}
	return &notification, nil
}
