package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"alerto-http-service/internal/domain/models"

	"github.com/sirupsen/logrus"
)

// Envelope 实时通道消息的统一外层
type Envelope struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp,omitempty"`
}

// InboundMessage 入站消息，Data延迟解码
type InboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// outbound 待分发的出站消息。room为空时广播给所有连接
type outbound struct {
	room string
	data []byte
}

// UserRoom 返回用户定向投递的房间名
func UserRoom(userID uint) string {
	return fmt.Sprintf("user-%d", userID)
}

// Hub 管理所有WebSocket连接、在线目录与房间订阅
type Hub struct {
	// 注册的连接
	connections map[string]*Connection
	// 用户ID到连接ID的映射（同一用户允许多个连接）
	userConnections map[uint]map[string]bool
	// 房间到连接ID的映射
	roomConnections map[string]map[string]bool
	// 在线目录：仅包含已声明上线的用户
	presence map[uint]*PresenceEntry
	// 分发消息通道
	dispatch chan outbound
	// 注册连接通道
	register chan *Connection
	// 注销连接通道
	unregister chan *Connection
	// 连接计数
	connectionCount int64
	// 配置
	config *Config
	// 互斥锁
	mu sync.RWMutex
	// 上下文
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub 创建新的Hub实例并启动主循环
func NewHub(config *Config) *Hub {
	if config == nil {
		config = DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	hub := &Hub{
		connections:     make(map[string]*Connection),
		userConnections: make(map[uint]map[string]bool),
		roomConnections: make(map[string]map[string]bool),
		presence:        make(map[uint]*PresenceEntry),
		dispatch:        make(chan outbound, 1024),
		register:        make(chan *Connection, 256),
		unregister:      make(chan *Connection, 256),
		config:          config,
		ctx:             ctx,
		cancel:          cancel,
	}

	go hub.run()
	return hub
}

// run Hub主循环
func (h *Hub) run() {
	ticker := time.NewTicker(h.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case conn := <-h.register:
			h.registerConnection(conn)
		case conn := <-h.unregister:
			h.unregisterConnection(conn)
		case msg := <-h.dispatch:
			if msg.room != "" {
				h.sendToRoom(msg.room, msg.data)
			} else {
				h.sendToAll(msg.data)
			}
		case <-ticker.C:
			h.checkHeartbeats()
		}
	}
}

// Deliver 路由一条状态流转副作用事件：UserID为0时全局广播，
// 否则投递到该用户的房间。尽力而为，不保证送达
func (h *Hub) Deliver(event models.AlertEvent) {
	data, err := json.Marshal(Envelope{
		Event:     event.Name,
		Data:      event.Payload,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		logrus.Errorf("事件序列化失败 [%s]: %v", event.Name, err)
		return
	}

	room := ""
	if event.UserID != 0 {
		room = UserRoom(event.UserID)
	}

	select {
	case h.dispatch <- outbound{room: room, data: data}:
	default:
		logrus.Warnf("分发队列已满，事件被丢弃: %s", event.Name)
	}
}

// Broadcast 向所有连接广播一条事件
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, err := json.Marshal(Envelope{
		Event:     event,
		Data:      payload,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		logrus.Errorf("事件序列化失败 [%s]: %v", event, err)
		return
	}

	select {
	case h.dispatch <- outbound{data: data}:
	default:
		logrus.Warnf("分发队列已满，事件被丢弃: %s", event)
	}
}

// registerConnection 注册连接
func (h *Hub) registerConnection(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// 检查最大连接数
	if atomic.LoadInt64(&h.connectionCount) >= h.config.MaxConnections {
		conn.Conn.Close()
		logrus.Warnf("达到最大连接数限制: %d", h.config.MaxConnections)
		return
	}

	h.connections[conn.ID] = conn
	atomic.AddInt64(&h.connectionCount, 1)

	if h.userConnections[conn.UserID] == nil {
		h.userConnections[conn.UserID] = make(map[string]bool)
	}
	h.userConnections[conn.UserID][conn.ID] = true

	logrus.Infof("WebSocket连接已注册: %s, 用户: %d, 当前连接数: %d",
		conn.ID, conn.UserID, atomic.LoadInt64(&h.connectionCount))
}

// unregisterConnection 注销连接：移除房间订阅与在线目录条目，
// 该用户无其他连接时广播更新后的目录
func (h *Hub) unregisterConnection(conn *Connection) {
	h.mu.Lock()

	if _, exists := h.connections[conn.ID]; !exists {
		h.mu.Unlock()
		return
	}

	delete(h.connections, conn.ID)
	atomic.AddInt64(&h.connectionCount, -1)

	userGone := false
	if h.userConnections[conn.UserID] != nil {
		delete(h.userConnections[conn.UserID], conn.ID)
		if len(h.userConnections[conn.UserID]) == 0 {
			delete(h.userConnections, conn.UserID)
			userGone = true
		}
	}

	for room := range conn.Rooms {
		if h.roomConnections[room] != nil {
			delete(h.roomConnections[room], conn.ID)
			if len(h.roomConnections[room]) == 0 {
				delete(h.roomConnections, room)
			}
		}
	}

	announced := false
	if userGone {
		_, announced = h.presence[conn.UserID]
		delete(h.presence, conn.UserID)
	}

	close(conn.Send)
	logrus.Infof("WebSocket连接已注销: %s, 当前连接数: %d",
		conn.ID, atomic.LoadInt64(&h.connectionCount))
	h.mu.Unlock()

	// 目录有变化才广播
	if announced {
		h.broadcastDirectory()
	}
}

// joinRoom 将连接订阅到指定房间
func (h *Hub) joinRoom(conn *Connection, room string) {
	conn.mu.Lock()
	conn.Rooms[room] = true
	conn.mu.Unlock()

	h.mu.Lock()
	if h.roomConnections[room] == nil {
		h.roomConnections[room] = make(map[string]bool)
	}
	h.roomConnections[room][conn.ID] = true
	h.mu.Unlock()

	logrus.Infof("用户 %d 加入房间 %s", conn.UserID, room)
}

// sendToRoom 发送消息给房间内的所有连接
func (h *Hub) sendToRoom(room string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if connections, exists := h.roomConnections[room]; exists {
		for connID := range connections {
			if conn, ok := h.connections[connID]; ok && conn.IsAlive {
				h.trySend(conn, data, func() {
					logrus.Warnf("房间 %s 的连接 %s 发送缓冲区已满", room, connID)
				})
			}
		}
	}
}

// sendToAll 发送消息给所有连接
func (h *Hub) sendToAll(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections {
		if conn.IsAlive {
			h.trySend(conn, data, func() {
				logrus.Warnf("连接 %s 发送缓冲区已满", conn.ID)
			})
		}
	}
}

// trySend 背压策略：缓冲区满时丢弃而不阻塞分发循环
func (h *Hub) trySend(conn *Connection, data []byte, onDrop func()) {
	if h.config.DropOnFull {
		select {
		case conn.Send <- data:
		default:
			onDrop()
		}
		return
	}
	conn.Send <- data
}

// checkHeartbeats 检查心跳，关闭超时连接
func (h *Hub) checkHeartbeats() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := time.Now()
	for _, conn := range h.connections {
		conn.mu.RLock()
		lastPing := conn.LastPing
		conn.mu.RUnlock()
		if now.Sub(lastPing) > h.config.ConnectionTimeout {
			logrus.Warnf("连接 %s 心跳超时，准备关闭", conn.ID)
			conn.IsAlive = false
			if conn.Conn != nil {
				conn.Conn.Close()
			}
		}
	}
}

// GetConnectionCount 获取当前连接数
func (h *Hub) GetConnectionCount() int64 {
	return atomic.LoadInt64(&h.connectionCount)
}

// GetUserConnections 获取用户的连接数
func (h *Hub) GetUserConnections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if connections, exists := h.userConnections[userID]; exists {
		return len(connections)
	}
	return 0
}

// GetRoomConnections 获取房间的连接数
func (h *Hub) GetRoomConnections(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if connections, exists := h.roomConnections[room]; exists {
		return len(connections)
	}
	return 0
}

// Close 关闭Hub
func (h *Hub) Close() {
	h.cancel()

	h.mu.Lock()
	for _, conn := range h.connections {
		if conn.Conn != nil {
			conn.Conn.Close()
		}
	}
	h.mu.Unlock()

	logrus.Info("WebSocket Hub已关闭")
}
