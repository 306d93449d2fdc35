package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"alerto-http-service/internal/domain/models"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// 入站事件名
const (
	inboundUserOnline     = "user-online"
	inboundUpdateLocation = "update-location"
	inboundJoinRoom       = "join-room"
	inboundPing           = "ping"
)

// Connection 表示一个已认证的WebSocket连接。
// 身份字段在升级时取自已验证的JWT声明，之后不再变更
type Connection struct {
	ID       string
	UserID   uint
	Name     string
	Role     string
	Conn     *websocket.Conn
	Send     chan []byte
	Hub      *Hub
	LastPing time.Time
	IsAlive  bool
	mu       sync.RWMutex
	Rooms    map[string]bool
}

// newUpgrader 根据配置创建WebSocket升级器
func newUpgrader(cfg *Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			// 在生产环境中应该检查Origin
			return true
		},
	}
}

// HandleWebSocket 升级HTTP连接并注册到Hub。
// 调用方负责先完成令牌验证，身份参数来自验证后的声明
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID uint, name, role string) {
	upgrader := newUpgrader(hub.config)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorf("WebSocket升级失败: %v", err)
		return
	}

	connection := &Connection{
		ID:       generateConnectionID(),
		UserID:   userID,
		Name:     name,
		Role:     role,
		Conn:     conn,
		Send:     make(chan []byte, hub.config.MessageBufferSize),
		Hub:      hub,
		LastPing: time.Now(),
		IsAlive:  true,
		Rooms:    make(map[string]bool),
	}

	hub.register <- connection

	go connection.writePump()
	go connection.readPump()
}

// generateConnectionID 生成唯一的连接ID
func generateConnectionID() string {
	return fmt.Sprintf("conn_%d", time.Now().UnixNano())
}

// readPump 读取消息的协程
func (c *Connection) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ConnectionTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.mu.Lock()
		c.LastPing = time.Now()
		c.mu.Unlock()
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ConnectionTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("WebSocket读取错误: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump 发送消息的协程
func (c *Connection) writePump() {
	interval := c.Hub.config.HeartbeatInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(time.Duration(float64(interval) * 0.9))
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			// 将队列中的其他消息也一起发送
			n := len(c.Send)
			for i := 0; i < n; i++ {
				_, _ = w.Write([]byte{'\n'})
				_, _ = w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理接收到的消息
func (c *Connection) handleMessage(message []byte) {
	var msg InboundMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logrus.Errorf("消息解析失败: %v", err)
		return
	}

	switch msg.Event {
	case inboundPing:
		c.handlePing()
	case inboundUserOnline:
		c.handleUserOnline(msg.Data)
	case inboundUpdateLocation:
		c.handleUpdateLocation(msg.Data)
	case inboundJoinRoom:
		c.handleJoinRoom(msg.Data)
	default:
		logrus.Warnf("未知的消息类型: %s", msg.Event)
	}
}

// handlePing 处理ping消息
func (c *Connection) handlePing() {
	c.mu.Lock()
	c.LastPing = time.Now()
	c.mu.Unlock()

	c.reply(Envelope{Event: "pong", Timestamp: time.Now().UnixMilli()})
}

// locationPayload 上线与位置更新消息携带的坐标。
// 入站payload中携带的用户ID一律忽略，身份只信连接本身
type locationPayload struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// handleUserOnline 声明上线：以连接的认证身份登记在线条目并广播目录
func (c *Connection) handleUserOnline(data json.RawMessage) {
	var payload locationPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			logrus.Warnf("无效的上线数据: %v", err)
			return
		}
	}

	c.Hub.announcePresence(c, payload.Longitude, payload.Latitude)
	logrus.Infof("用户 %d (%s) 已声明上线", c.UserID, c.Name)
}

// handleUpdateLocation 位置更新：更新自己的在线条目并广播增量
func (c *Connection) handleUpdateLocation(data json.RawMessage) {
	var payload locationPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		logrus.Warnf("无效的位置数据: %v", err)
		return
	}

	c.Hub.updatePresenceLocation(c, payload.Longitude, payload.Latitude)
}

// joinRoomPayload 加入房间消息
type joinRoomPayload struct {
	Room string `json:"room"`
}

// handleJoinRoom 加入房间：只允许订阅自己的房间，管理员不受限
func (c *Connection) handleJoinRoom(data json.RawMessage) {
	var payload joinRoomPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Room == "" {
		logrus.Warnf("无效的房间名: %s", string(data))
		return
	}

	if payload.Room != UserRoom(c.UserID) && c.Role != models.RoleAdmin {
		logrus.Warnf("用户 %d 试图加入房间 %s，已拒绝", c.UserID, payload.Room)
		c.reply(Envelope{
			Event:     "room-denied",
			Data:      payload.Room,
			Timestamp: time.Now().UnixMilli(),
		})
		return
	}

	c.Hub.joinRoom(c, payload.Room)
	c.reply(Envelope{
		Event:     "room-joined",
		Data:      payload.Room,
		Timestamp: time.Now().UnixMilli(),
	})
}

// reply 向当前连接发送一条消息
func (c *Connection) reply(envelope Envelope) {
	data, err := json.Marshal(envelope)
	if err != nil {
		return
	}

	select {
	case c.Send <- data:
	default:
		logrus.Warnf("连接 %s 发送缓冲区已满", c.ID)
	}
}

// InRoom 检查连接是否已订阅指定房间
func (c *Connection) InRoom(room string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Rooms[room]
}
