package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"alerto-http-service/internal/domain/models"
	"alerto-http-service/internal/infrastructure/config"
	"alerto-http-service/pkg/logger"
	"alerto-http-service/utils"

	"gorm.io/gorm"
)

// DeviceReporterUsername 自动设备告警共用的合成账号，按固定用户名幂等创建
const DeviceReporterUsername = "device-reporter"

// InterfaceAlertService defines the alert service interface
type InterfaceAlertService interface {
	GetAlerts(status, alertType, priority string, page, pageSize int) ([]models.Alert, int64, error)
	GetAlertByID(id uint) (*models.Alert, error)
	CreateAlert(reporterID uint, alertType, priority, description, address string, lat, lng float64) (*models.Alert, []models.AlertEvent, error)
	CreateDeviceAlert(alertType string, lat, lng float64, description string) (*models.Alert, []models.AlertEvent, error)
	RespondToAlert(alertID, callerID uint) (*models.Alert, []models.AlertEvent, error)
	ResolveAlert(alertID, callerID uint, notes string) (*models.Alert, []models.AlertEvent, error)
	CancelAlert(alertID, callerID uint) (*models.Alert, error)
	UpdateAlert(alertID, callerID uint, updates map[string]interface{}, note string) (*models.Alert, error)
	DeleteAlert(alertID, callerID uint) error
	NearbyAlerts(alertType string, lat, lng, radiusKM float64) ([]models.Alert, error)
}

// AlertService 警报生命周期引擎：校验状态流转、执行角色/归属守卫、
// 产出每次流转的副作用列表（待创建的通知 + 待投递的事件）
type AlertService struct {
	DB       *gorm.DB
	Config   *config.Config
	Geocoder InterfaceGeocodingService
}

// NewAlertService 创建警报服务
func NewAlertService(db *gorm.DB, cfg *config.Config, geocoder InterfaceGeocodingService) InterfaceAlertService {
	return &AlertService{
		DB:       db,
		Config:   cfg,
		Geocoder: geocoder,
	}
}

// 1 GetAlerts 按状态/类型/优先级过滤分页查询警报
func (s *AlertService) GetAlerts(status, alertType, priority string, page, pageSize int) ([]models.Alert, int64, error) {
	query := s.DB.Model(&models.Alert{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if alertType != "" {
		query = query.Where("type = ?", alertType)
	}
	if priority != "" {
		query = query.Where("priority = ?", priority)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var alerts []models.Alert
	if err := query.Preload("Reporter").Preload("Responder").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&alerts).Error; err != nil {
		return nil, 0, err
	}
	return alerts, total, nil
}

// 2 GetAlertByID 根据ID获取警报（含时间线）
func (s *AlertService) GetAlertByID(id uint) (*models.Alert, error) {
	var alert models.Alert
	if err := s.DB.Preload("Reporter").Preload("Responder").
		Preload("Timeline", func(db *gorm.DB) *gorm.DB {
			return db.Order("alert_timeline_entries.id ASC")
		}).
		First(&alert, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	return &alert, nil
}

// 3 CreateAlert 创建警报（认证路径），初始状态为 pending
func (s *AlertService) CreateAlert(reporterID uint, alertType, priority, description, address string, lat, lng float64) (*models.Alert, []models.AlertEvent, error) {
	if !models.ValidAlertType(alertType) {
		return nil, nil, ErrValidationFailed
	}
	if priority == "" {
		priority = models.AlertPriorityMedium
	}
	if !models.ValidAlertPriority(priority) {
		return nil, nil, ErrValidationFailed
	}

	reporter, err := s.loadActiveUser(reporterID)
	if err != nil {
		return nil, nil, err
	}

	alert := &models.Alert{
		Type:        alertType,
		Status:      models.AlertStatusPending,
		Priority:    priority,
		Description: description,
		Address:     address,
		Longitude:   lng,
		Latitude:    lat,
		ReporterID:  reporter.ID,
	}

	if err := s.createWithTimeline(alert, &reporter.ID, ""); err != nil {
		return nil, nil, err
	}

	events := s.createSideEffects(alert, reporter)
	return alert, events, nil
}

// 4 CreateDeviceAlert 自动设备路径：合成账号上报，逆地理编码失败时
// 降级为坐标字面量地址，初始状态直接为 active（自动检测视为已确认）
func (s *AlertService) CreateDeviceAlert(alertType string, lat, lng float64, description string) (*models.Alert, []models.AlertEvent, error) {
	if !models.ValidAlertType(alertType) {
		return nil, nil, ErrValidationFailed
	}

	reporter, err := s.ensureDeviceReporter()
	if err != nil {
		return nil, nil, err
	}

	address, err := s.Geocoder.ReverseGeocode(lat, lng)
	if err != nil {
		logger.Warning("逆地理编码失败，使用坐标字面量地址: %v", err)
		address = s.Geocoder.FallbackAddress(lat, lng)
	}

	alert := &models.Alert{
		Type:        alertType,
		Status:      models.AlertStatusActive,
		Priority:    models.AlertPriorityHigh,
		Description: description,
		Address:     address,
		Longitude:   lng,
		Latitude:    lat,
		ReporterID:  reporter.ID,
	}

	if err := s.createWithTimeline(alert, &reporter.ID, "automated device report"); err != nil {
		return nil, nil, err
	}

	events := s.createSideEffects(alert, reporter)
	return alert, events, nil
}

// 5 RespondToAlert 接警：仅限角色与警报类型匹配的响应者或管理员，
// 仅允许从 pending/active 进入，responder 只设置一次
func (s *AlertService) RespondToAlert(alertID, callerID uint) (*models.Alert, []models.AlertEvent, error) {
	caller, err := s.loadActiveUser(callerID)
	if err != nil {
		return nil, nil, err
	}

	alert, err := s.GetAlertByID(alertID)
	if err != nil {
		return nil, nil, err
	}

	// 角色守卫先于状态守卫，权限不足时不暴露状态信息
	if caller.Role != alert.Type && caller.Role != models.RoleAdmin {
		return nil, nil, ErrAuthorization
	}

	if alert.ResponderID != nil {
		return nil, nil, ErrConflict
	}
	if alert.Status != models.AlertStatusPending && alert.Status != models.AlertStatusActive {
		return nil, nil, ErrInvalidState
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":        models.AlertStatusResponded,
		"responder_id":  caller.ID,
		"response_time": now,
	}
	if err := s.applyTransition(alert, updates, models.TimelineActionResponded, &caller.ID, ""); err != nil {
		return nil, nil, err
	}

	alert.Status = models.AlertStatusResponded
	alert.ResponderID = &caller.ID
	alert.ResponseTime = &now

	message := fmt.Sprintf("您的警报已由 %s 接警", caller.Name)
	events := []models.AlertEvent{
		{Name: models.EventAlertResponded, UserID: alert.ReporterID, Payload: map[string]interface{}{"alert": alert, "message": message}},
	}
	events = append(events, s.notify(alert.ReporterID, alert.ID, models.NotificationTypeResponded, message)...)

	return alert, events, nil
}

// 6 ResolveAlert 解决警报：仅限当前接警人或管理员，任何非终止状态均可进入
func (s *AlertService) ResolveAlert(alertID, callerID uint, notes string) (*models.Alert, []models.AlertEvent, error) {
	caller, err := s.loadActiveUser(callerID)
	if err != nil {
		return nil, nil, err
	}

	alert, err := s.GetAlertByID(alertID)
	if err != nil {
		return nil, nil, err
	}

	isResponder := alert.ResponderID != nil && *alert.ResponderID == caller.ID
	if !isResponder && caller.Role != models.RoleAdmin {
		return nil, nil, ErrAuthorization
	}

	// 重复 resolve 返回冲突，resolvedTime 保持不变
	if alert.IsTerminal() {
		return nil, nil, ErrConflict
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":        models.AlertStatusResolved,
		"resolved_time": now,
	}
	if err := s.applyTransition(alert, updates, models.TimelineActionResolved, &caller.ID, notes); err != nil {
		return nil, nil, err
	}

	alert.Status = models.AlertStatusResolved
	alert.ResolvedTime = &now

	message := "您的警报已处理完毕"
	events := []models.AlertEvent{
		{Name: models.EventAlertResolved, UserID: alert.ReporterID, Payload: map[string]interface{}{"alert": alert, "message": message}},
		{Name: models.EventAlertUpdated, UserID: alert.ReporterID, Payload: map[string]interface{}{"alert": alert, "message": message}},
	}
	events = append(events, s.notify(alert.ReporterID, alert.ID, models.NotificationTypeResolved, message)...)

	return alert, events, nil
}

// 7 CancelAlert 取消警报：仅限报告人，且尚未有接警人；不产生事件
func (s *AlertService) CancelAlert(alertID, callerID uint) (*models.Alert, error) {
	caller, err := s.loadActiveUser(callerID)
	if err != nil {
		return nil, err
	}

	alert, err := s.GetAlertByID(alertID)
	if err != nil {
		return nil, err
	}

	if alert.ReporterID != caller.ID {
		return nil, ErrAuthorization
	}
	if alert.ResponderID != nil {
		return nil, ErrConflict
	}
	if alert.Status != models.AlertStatusPending && alert.Status != models.AlertStatusActive {
		return nil, ErrInvalidState
	}

	updates := map[string]interface{}{
		"status": models.AlertStatusCancelled,
	}
	if err := s.applyTransition(alert, updates, models.TimelineActionCancelled, &caller.ID, ""); err != nil {
		return nil, err
	}

	alert.Status = models.AlertStatusCancelled
	return alert, nil
}

// 可通过 update 合并的字段白名单
var alertUpdatableFields = map[string]bool{
	"description": true,
	"priority":    true,
	"address":     true,
	"longitude":   true,
	"latitude":    true,
}

// 8 UpdateAlert 自由字段编辑：报告人、接警人或管理员；
// 仅在调用方显式给出备注时追加时间线条目
func (s *AlertService) UpdateAlert(alertID, callerID uint, updates map[string]interface{}, note string) (*models.Alert, error) {
	caller, err := s.loadActiveUser(callerID)
	if err != nil {
		return nil, err
	}

	alert, err := s.GetAlertByID(alertID)
	if err != nil {
		return nil, err
	}

	isReporter := alert.ReporterID == caller.ID
	isResponder := alert.ResponderID != nil && *alert.ResponderID == caller.ID
	if !isReporter && !isResponder && caller.Role != models.RoleAdmin {
		return nil, ErrAuthorization
	}

	filtered := make(map[string]interface{})
	for key, value := range updates {
		if alertUpdatableFields[key] {
			filtered[key] = value
		}
	}
	if priority, ok := filtered["priority"].(string); ok && !models.ValidAlertPriority(priority) {
		return nil, ErrValidationFailed
	}

	timelineAction := ""
	if note != "" {
		timelineAction = models.TimelineActionUpdated
	}
	if err := s.applyFieldMerge(alert, filtered, timelineAction, &caller.ID, note); err != nil {
		return nil, err
	}

	return s.GetAlertByID(alertID)
}

// 9 DeleteAlert 删除警报：仅限报告人或管理员；连带清理时间线与通知
func (s *AlertService) DeleteAlert(alertID, callerID uint) error {
	caller, err := s.loadActiveUser(callerID)
	if err != nil {
		return err
	}

	alert, err := s.GetAlertByID(alertID)
	if err != nil {
		return err
	}

	if alert.ReporterID != caller.ID && caller.Role != models.RoleAdmin {
		return ErrAuthorization
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("alert_id = ?", alert.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("alert_id = ?", alert.ID).Delete(&models.AlertTimelineEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Alert{}, alert.ID).Error
	})
}

// 10 NearbyAlerts 按哈弗辛距离筛选指定半径内的非终止警报，近者在前
func (s *AlertService) NearbyAlerts(alertType string, lat, lng, radiusKM float64) ([]models.Alert, error) {
	query := s.DB.Model(&models.Alert{}).
		Where("status IN ?", []string{models.AlertStatusPending, models.AlertStatusActive, models.AlertStatusResponded})
	if alertType != "" {
		query = query.Where("type = ?", alertType)
	}

	var alerts []models.Alert
	if err := query.Preload("Reporter").Find(&alerts).Error; err != nil {
		return nil, err
	}

	type withDistance struct {
		alert    models.Alert
		distance float64
	}
	nearby := make([]withDistance, 0, len(alerts))
	for _, alert := range alerts {
		d := haversineKM(lat, lng, alert.Latitude, alert.Longitude)
		if d <= radiusKM {
			nearby = append(nearby, withDistance{alert: alert, distance: d})
		}
	}
	sort.Slice(nearby, func(i, j int) bool { return nearby[i].distance < nearby[j].distance })

	result := make([]models.Alert, 0, len(nearby))
	for _, n := range nearby {
		result = append(result, n.alert)
	}
	return result, nil
}

// createWithTimeline 在同一事务内创建警报与首条时间线条目
func (s *AlertService) createWithTimeline(alert *models.Alert, actorID *uint, notes string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(alert).Error; err != nil {
			return err
		}
		entry := &models.AlertTimelineEntry{
			AlertID: alert.ID,
			Action:  models.TimelineActionCreated,
			ActorID: actorID,
			Notes:   notes,
		}
		return tx.Create(entry).Error
	})
}

// applyTransition 守卫通过后的条件写入：按版本号做乐观并发控制，
// 版本不匹配说明有并发流转先行提交，整个事务回滚并返回冲突
func (s *AlertService) applyTransition(alert *models.Alert, updates map[string]interface{}, action string, actorID *uint, notes string) error {
	updates["version"] = alert.Version + 1

	return s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Alert{}).
			Where("id = ? AND version = ?", alert.ID, alert.Version).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}

		entry := &models.AlertTimelineEntry{
			AlertID: alert.ID,
			Action:  action,
			ActorID: actorID,
			Notes:   notes,
		}
		return tx.Create(entry).Error
	})
}

// applyFieldMerge update 流转的写入：同样走版本校验，时间线条目可选
func (s *AlertService) applyFieldMerge(alert *models.Alert, updates map[string]interface{}, action string, actorID *uint, notes string) error {
	updates["version"] = alert.Version + 1

	return s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Alert{}).
			Where("id = ? AND version = ?", alert.ID, alert.Version).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConflict
		}

		if action == "" {
			return nil
		}
		entry := &models.AlertTimelineEntry{
			AlertID: alert.ID,
			Action:  action,
			ActorID: actorID,
			Notes:   notes,
		}
		return tx.Create(entry).Error
	})
}

// createSideEffects 产出 create 流转的副作用列表，顺序固定：
// 匹配响应者定向事件+通知 → 报告人家庭成员通知+副本事件 → 全局广播。
// 通知写入失败只记录日志，不回滚警报创建（警报记录是唯一权威状态）。
func (s *AlertService) createSideEffects(alert *models.Alert, reporter *models.User) []models.AlertEvent {
	var events []models.AlertEvent

	message := fmt.Sprintf("收到新的%s警报: %s", alertTypeLabel(alert.Type), alert.Address)

	// 定向通知匹配角色的在线活跃响应者，按距离排序取前N个
	responders, err := s.matchResponders(alert)
	if err != nil {
		logger.Error("查询匹配响应者失败: %v", err)
	}
	for i := range responders {
		events = append(events, models.AlertEvent{
			Name:    models.EventNewAlert,
			UserID:  responders[i].ID,
			Payload: map[string]interface{}{"alert": alert, "message": message},
		})
		events = append(events, s.notify(responders[i].ID, alert.ID, models.NotificationTypeNewAlert, message)...)
	}

	// 家庭成员收到同样的定向副本
	familyMessage := fmt.Sprintf("您的家人 %s 发出了%s警报", reporter.Name, alertTypeLabel(alert.Type))
	for _, member := range reporter.FamilyMembers {
		events = append(events, models.AlertEvent{
			Name:    models.EventNewAlert,
			UserID:  member.ID,
			Payload: map[string]interface{}{"alert": alert, "message": familyMessage},
		})
		events = append(events, s.notify(member.ID, alert.ID, models.NotificationTypeFamilyAlert, familyMessage)...)
	}

	// 面向地图展示的全局广播，与上面的定向副本并存
	events = append(events, models.AlertEvent{
		Name:    models.EventNewAlertGlobal,
		UserID:  0,
		Payload: map[string]interface{}{"alert": alert},
	})

	return events
}

// matchResponders 查找角色与警报类型匹配的活跃用户，按与警报的距离排序，
// 数量受配置上限约束（有界扇出）
func (s *AlertService) matchResponders(alert *models.Alert) ([]models.User, error) {
	var users []models.User
	if err := s.DB.Where("role = ? AND status = ?", alert.Type, models.UserStatusActive).
		Find(&users).Error; err != nil {
		return nil, err
	}

	sort.Slice(users, func(i, j int) bool {
		return haversineKM(alert.Latitude, alert.Longitude, users[i].Latitude, users[i].Longitude) <
			haversineKM(alert.Latitude, alert.Longitude, users[j].Latitude, users[j].Longitude)
	})

	limit := s.Config.ResponderFanoutLimit
	if limit <= 0 {
		limit = 20
	}
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// notify 尽力而为地创建一条通知记录，成功时附带 newNotification 事件；
// 失败只记录日志，绝不让通知失败影响已提交的流转
func (s *AlertService) notify(userID, alertID uint, notificationType, message string) []models.AlertEvent {
	notification := &models.Notification{
		UserID:  userID,
		AlertID: alertID,
		Type:    notificationType,
		Message: message,
	}
	if err := s.DB.Create(notification).Error; err != nil {
		logger.Error("创建通知失败 (user=%d, alert=%d): %v", userID, alertID, err)
		return nil
	}
	return []models.AlertEvent{
		{Name: models.EventNewNotification, UserID: userID, Payload: map[string]interface{}{"notification": notification}},
	}
}

// loadActiveUser 加载调用者并校验账号可用
func (s *AlertService) loadActiveUser(userID uint) (*models.User, error) {
	var user models.User
	if err := s.DB.Preload("FamilyMembers").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive() {
		return nil, ErrUserSuspended
	}
	return &user, nil
}

// ensureDeviceReporter 幂等地查找或创建合成设备账号。
// FirstOrCreate 按唯一用户名键入，并发首次使用也不会重复建号。
func (s *AlertService) ensureDeviceReporter() (*models.User, error) {
	hashed, err := utils.HashPassword(fmt.Sprintf("device-%d", utils.RandomInt32()))
	if err != nil {
		return nil, err
	}

	var reporter models.User
	if err := s.DB.Where(models.User{Username: DeviceReporterUsername}).
		Attrs(models.User{
			Name:     "Automated Device",
			Password: hashed,
			Role:     models.RoleCitizen,
			Status:   models.UserStatusActive,
		}).
		FirstOrCreate(&reporter).Error; err != nil {
		return nil, err
	}
	return &reporter, nil
}

// alertTypeLabel 警报类型的展示名
func alertTypeLabel(alertType string) string {
	switch alertType {
	case models.AlertTypePolice:
		return "治安"
	case models.AlertTypeHospital:
		return "医疗"
	case models.AlertTypeFire:
		return "火灾"
	case models.AlertTypeFamily:
		return "家庭"
	default:
		return alertType
	}
}
