package models

import (
	"time"
)

// 警报类型，决定哪类响应者可以接警
const (
	AlertTypePolice   = "police"
	AlertTypeHospital = "hospital"
	AlertTypeFire     = "fire"
	AlertTypeFamily   = "family"
)

// 警报状态机: pending → active → responded → resolved
// cancelled 仅可从 pending/active 进入；resolved/cancelled 为终止状态
const (
	AlertStatusPending   = "pending"
	AlertStatusActive    = "active"
	AlertStatusResponded = "responded"
	AlertStatusResolved  = "resolved"
	AlertStatusCancelled = "cancelled"
)

// 警报优先级，仅作展示，不影响状态流转
const (
	AlertPriorityLow      = "low"
	AlertPriorityMedium   = "medium"
	AlertPriorityHigh     = "high"
	AlertPriorityCritical = "critical"
)

// 时间线动作
const (
	TimelineActionCreated   = "created"
	TimelineActionResponded = "responded"
	TimelineActionResolved  = "resolved"
	TimelineActionCancelled = "cancelled"
	TimelineActionUpdated   = "updated"
)

// Alert 表示一条事件报告
type Alert struct {
	BaseModel
	Type        string `gorm:"type:varchar(20);not null;index" json:"type"`
	Status      string `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Priority    string `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Description string `gorm:"type:text" json:"description"`

	// 位置：地址文本 + 经纬度
	Address   string  `gorm:"type:varchar(200)" json:"address"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`

	// 报告人，创建时确定，之后不可变
	ReporterID uint  `gorm:"not null;index" json:"reporter_id"`
	Reporter   *User `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`

	// 接警人，仅由 respond 流转设置一次
	ResponderID *uint `gorm:"index" json:"responder_id,omitempty"`
	Responder   *User `gorm:"foreignKey:ResponderID" json:"responder,omitempty"`

	ResponseTime *time.Time `json:"response_time,omitempty"`
	ResolvedTime *time.Time `json:"resolved_time,omitempty"`

	// 乐观锁版本号，条件更新时校验
	Version uint `gorm:"not null;default:0" json:"version"`

	// 只追加的时间线，创建后至少有一条
	Timeline []AlertTimelineEntry `gorm:"foreignKey:AlertID" json:"timeline,omitempty"`
}

// AlertTimelineEntry 警报时间线条目，追加后不再修改
type AlertTimelineEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AlertID   uint      `gorm:"not null;index" json:"alert_id"`
	Action    string    `gorm:"type:varchar(30);not null" json:"action"`
	ActorID   *uint     `json:"actor_id,omitempty"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsTerminal 判断警报是否处于终止状态
func (a *Alert) IsTerminal() bool {
	return a.Status == AlertStatusResolved || a.Status == AlertStatusCancelled
}

// ValidAlertType 校验警报类型取值
func ValidAlertType(t string) bool {
	switch t {
	case AlertTypePolice, AlertTypeHospital, AlertTypeFire, AlertTypeFamily:
		return true
	}
	return false
}

// ValidAlertPriority 校验优先级取值
func ValidAlertPriority(p string) bool {
	switch p {
	case AlertPriorityLow, AlertPriorityMedium, AlertPriorityHigh, AlertPriorityCritical:
		return true
	}
	return false
}

// ValidAlertStatus 校验状态取值
func ValidAlertStatus(s string) bool {
	switch s {
	case AlertStatusPending, AlertStatusActive, AlertStatusResponded, AlertStatusResolved, AlertStatusCancelled:
		return true
	}
	return false
}
