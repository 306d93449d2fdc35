package models

// 通知类型
const (
	NotificationTypeNewAlert    = "new_alert"    // 定向推送给匹配响应者
	NotificationTypeFamilyAlert = "family_alert" // 推送给报告人的家庭成员
	NotificationTypeResponded   = "responded"    // 警报已被接警，通知报告人
	NotificationTypeResolved    = "resolved"     // 警报已解决，通知报告人
)

// Notification 事件通知的持久化记录：实时推送可能丢失，客户端重连后通过未读通知补齐
type Notification struct {
	BaseModel
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	AlertID uint   `gorm:"not null;index" json:"alert_id"`
	Type    string `gorm:"type:varchar(30);not null" json:"type"`
	Message string `gorm:"type:varchar(255)" json:"message"`
	Read    bool   `gorm:"not null;default:false;index" json:"read"`
}
