package websocket

import "time"

// Config WebSocket配置
type Config struct {
	// 最大连接数
	MaxConnections int64
	// 心跳间隔
	HeartbeatInterval time.Duration
	// 连接超时时间
	ConnectionTimeout time.Duration
	// 发送缓冲区大小（消息条数）
	MessageBufferSize int
	// 读缓冲区大小
	ReadBufferSize int
	// 写缓冲区大小
	WriteBufferSize int
	// 最大消息大小
	MaxMessageSize int64
	// 发送缓冲区满时丢弃（慢消费者不阻塞分发循环）
	DropOnFull bool
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxConnections:    10000,
		HeartbeatInterval: 30 * time.Second,
		ConnectionTimeout: 60 * time.Second,
		MessageBufferSize: 256,
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		MaxMessageSize:    4096,
		DropOnFull:        true,
	}
}
