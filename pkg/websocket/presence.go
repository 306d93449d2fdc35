package websocket

import (
	"time"

	"alerto-http-service/internal/domain/models"
)

// PresenceEntry 在线目录中的一条记录。仅存于进程内存，
// 重连后由客户端重新声明上线来重建
type PresenceEntry struct {
	UserID     uint      `json:"user_id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Longitude  float64   `json:"longitude"`
	Latitude   float64   `json:"latitude"`
	LastUpdate time.Time `json:"last_update"`
}

// announcePresence 以连接的认证身份登记或更新在线条目，
// 并广播完整在线目录。身份取自JWT声明，入站payload中的用户ID被忽略
func (h *Hub) announcePresence(conn *Connection, longitude, latitude float64) {
	h.mu.Lock()
	h.presence[conn.UserID] = &PresenceEntry{
		UserID:     conn.UserID,
		Name:       conn.Name,
		Role:       conn.Role,
		Longitude:  longitude,
		Latitude:   latitude,
		LastUpdate: time.Now(),
	}
	h.mu.Unlock()

	h.broadcastDirectory()
}

// updatePresenceLocation 更新在线条目的坐标并广播位置增量。
// 未声明上线的用户静默忽略
func (h *Hub) updatePresenceLocation(conn *Connection, longitude, latitude float64) {
	h.mu.Lock()
	entry, exists := h.presence[conn.UserID]
	if !exists {
		h.mu.Unlock()
		return
	}
	entry.Longitude = longitude
	entry.Latitude = latitude
	entry.LastUpdate = time.Now()
	delta := *entry
	h.mu.Unlock()

	h.Broadcast(models.EventUserLocation, delta)
}

// broadcastDirectory 广播完整在线目录
func (h *Hub) broadcastDirectory() {
	h.Broadcast(models.EventOnlineUsers, h.PresenceSnapshot())
}

// PresenceSnapshot 返回在线目录的副本
func (h *Hub) PresenceSnapshot() []PresenceEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entries := make([]PresenceEntry, 0, len(h.presence))
	for _, entry := range h.presence {
		entries = append(entries, *entry)
	}
	return entries
}

// IsOnline 检查用户是否在在线目录中
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.presence[userID]
	return exists
}
