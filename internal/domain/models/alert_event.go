package models

// 实时通道出站事件名。new-alert 与 newAlert 并存是刻意保留的冗余：
// 前者面向地图展示的全局广播，后者是定向到具体用户房间的副本，
// 下游消费者两者都依赖。
const (
	EventOnlineUsers     = "online-users-update"
	EventUserLocation    = "user-location-update"
	EventNewAlertGlobal  = "new-alert"
	EventNewAlert        = "newAlert"
	EventAlertUpdated    = "alertUpdated"
	EventAlertResponded  = "alertResponded"
	EventAlertResolved   = "alertResolved"
	EventNewNotification = "newNotification"
)

// AlertEvent 一次状态流转产生的待投递事件。
// UserID 为 0 表示广播给所有连接，否则投递到 user-{id} 房间。
// 投递是尽力而为的：断线的接收方错过事件后，靠持久化的通知记录补偿。
type AlertEvent struct {
	Name    string                 `json:"name"`
	UserID  uint                   `json:"user_id"`
	Payload map[string]interface{} `json:"payload"`
}
