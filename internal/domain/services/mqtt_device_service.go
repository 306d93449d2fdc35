package services

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"alerto-http-service/internal/domain/models"
	"alerto-http-service/internal/infrastructure/config"
	"alerto-http-service/pkg/logger"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// 主题常量
const (
	// 设备告警上报主题
	TopicDeviceAlert = "alerto/device/alert"

	// 告警受理回执主题
	TopicDeviceAck = "alerto/device/ack"
)

// AlertEventSink 接收生命周期副作用事件的投递端（由实时Hub实现）
type AlertEventSink interface {
	Deliver(event models.AlertEvent)
}

// InterfaceMQTTDeviceService 定义MQTT设备接入服务接口
type InterfaceMQTTDeviceService interface {
	Connect() error
	Disconnect()
	SubscribeToTopics() error
	SetEventSink(sink AlertEventSink)
}

// DeviceAlertMessage 传感器上报的告警消息
type DeviceAlertMessage struct {
	DeviceID    string  `json:"device_id"`
	Type        string  `json:"type"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description string  `json:"description,omitempty"`
	Timestamp   int64   `json:"timestamp"`
}

// DeviceAckMessage 告警受理回执
type DeviceAckMessage struct {
	DeviceID  string `json:"device_id"`
	AlertID   uint   `json:"alert_id,omitempty"`
	Status    string `json:"status"` // accepted / rejected
	Reason    string `json:"reason,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// MQTTDeviceService 自动传感器的第二接入口：订阅设备告警主题，
// 走与REST设备路径相同的创建逻辑，并把副作用事件交给实时Hub
type MQTTDeviceService struct {
	Config         *config.Config
	AlertService   InterfaceAlertService
	Client         mqtt.Client
	IsConnected    bool
	connectedMutex sync.RWMutex // 保护IsConnected字段的读写
	publishMutex   sync.Mutex   // 保护MQTT消息发布

	sinkMutex sync.RWMutex
	sink      AlertEventSink
}

// NewMQTTDeviceService 创建MQTT设备接入服务
func NewMQTTDeviceService(cfg *config.Config, alertService InterfaceAlertService) InterfaceMQTTDeviceService {
	s := &MQTTDeviceService{
		Config:       cfg,
		AlertService: alertService,
	}
	s.setupMQTTClient()
	return s
}

// SetEventSink 设置副作用事件的投递端
func (s *MQTTDeviceService) SetEventSink(sink AlertEventSink) {
	s.sinkMutex.Lock()
	defer s.sinkMutex.Unlock()
	s.sink = sink
}

func (s *MQTTDeviceService) setupMQTTClient() {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.Config.MQTTBrokerURL)
	// 使用唯一的客户端ID，避免同一服务多实例冲突
	opts.SetClientID(fmt.Sprintf("%s-%s-%d", s.Config.MQTTClientID, uuid.New().String()[:8], time.Now().UnixNano()))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Second * 30)
	opts.SetKeepAlive(time.Second * 60)
	opts.SetPingTimeout(time.Second * 10)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)

	opts.SetDefaultPublishHandler(func(client mqtt.Client, msg mqtt.Message) {
		logger.Warning("[MQTT] 收到未处理的消息: topic=%s", msg.Topic())
	})

	// 添加用户名和密码
	if s.Config.MQTTUsername != "" {
		opts.SetUsername(s.Config.MQTTUsername)
		opts.SetPassword(s.Config.MQTTPassword)
	}

	// 添加TLS配置，支持SSL连接
	if strings.HasPrefix(s.Config.MQTTBrokerURL, "ssl://") || strings.HasPrefix(s.Config.MQTTBrokerURL, "tls://") || s.Config.MQTTSSLEnabled {
		logger.Info("[MQTT] 使用TLS连接")
		tlsConfig := &tls.Config{
			InsecureSkipVerify: true, // 默认跳过验证，如有CA证书则使用
		}
		if s.Config.MQTTCACertPath != "" {
			if caCert, err := os.ReadFile(s.Config.MQTTCACertPath); err != nil {
				logger.Warning("[MQTT] 读取CA证书失败: %v", err)
			} else {
				pool := x509.NewCertPool()
				if pool.AppendCertsFromPEM(caCert) {
					tlsConfig.RootCAs = pool
					tlsConfig.InsecureSkipVerify = false
				}
			}
		}
		opts.SetTLSConfig(tlsConfig)
	}

	// 设置连接丢失回调
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		logger.Warning("[MQTT] 连接丢失: %v", err)
		s.connectedMutex.Lock()
		s.IsConnected = false
		s.connectedMutex.Unlock()
	})

	// 设置连接建立回调
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		logger.Info("[MQTT] 成功连接到 %s", s.Config.MQTTBrokerURL)
		s.connectedMutex.Lock()
		s.IsConnected = true
		s.connectedMutex.Unlock()

		// 订阅主题
		if err := s.SubscribeToTopics(); err != nil {
			logger.Error("[MQTT] 订阅主题失败: %v", err)
		}
	})

	// 设置重连回调
	opts.SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
		logger.Info("[MQTT] 正在尝试重连...")
	})

	// 创建客户端
	s.Client = mqtt.NewClient(opts)
}

// Connect 连接到MQTT服务器，带有重试机制
func (s *MQTTDeviceService) Connect() error {
	if s.Config.MQTTBrokerURL == "" {
		return fmt.Errorf("[MQTT] 未配置服务器地址")
	}

	logger.Info("[MQTT] 正在连接到 %s...", s.Config.MQTTBrokerURL)

	s.connectedMutex.RLock()
	isConnected := s.IsConnected && s.Client.IsConnected()
	s.connectedMutex.RUnlock()

	if isConnected {
		return nil
	}

	// 添加最大重试次数和指数退避策略
	maxRetries := 5
	var err error

	for i := 0; i < maxRetries; i++ {
		token := s.Client.Connect()
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			s.connectedMutex.Lock()
			s.IsConnected = true
			s.connectedMutex.Unlock()
			logger.Info("[MQTT] 成功连接到 %s", s.Config.MQTTBrokerURL)
			return nil
		}

		err = token.Error()
		backoffTime := time.Duration(1<<uint(i)) * time.Second // 指数退避: 1s, 2s, 4s, 8s, 16s
		logger.Warning("[MQTT] 连接尝试 %d/%d 失败: %v, 将在 %v 后重试", i+1, maxRetries, err, backoffTime)
		time.Sleep(backoffTime)
	}

	return fmt.Errorf("[MQTT] 连接失败，已尝试 %d 次: %v", maxRetries, err)
}

// Disconnect 断开与MQTT服务器的连接
func (s *MQTTDeviceService) Disconnect() {
	if s.Client != nil && s.Client.IsConnected() {
		s.Client.Disconnect(250)
	}
}

// SubscribeToTopics 订阅设备告警主题
func (s *MQTTDeviceService) SubscribeToTopics() error {
	qos := byte(s.Config.MQTTQoS)

	if token := s.Client.Subscribe(TopicDeviceAlert, qos, s.handleDeviceAlert); token.Wait() && token.Error() != nil {
		return fmt.Errorf("订阅主题失败 [%s]: %v", TopicDeviceAlert, token.Error())
	}
	logger.Info("[MQTT] 已订阅主题: %s", TopicDeviceAlert)
	return nil
}

// handleDeviceAlert 处理传感器告警消息：走设备创建路径并回执
func (s *MQTTDeviceService) handleDeviceAlert(_ mqtt.Client, msg mqtt.Message) {
	var payload DeviceAlertMessage
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		logger.Error("[MQTT] 解析设备告警消息失败: %v", err)
		return
	}

	alert, events, err := s.AlertService.CreateDeviceAlert(payload.Type, payload.Latitude, payload.Longitude, payload.Description)
	if err != nil {
		logger.Error("[MQTT] 设备告警创建失败 (device=%s): %v", payload.DeviceID, err)
		s.publishAck(DeviceAckMessage{
			DeviceID:  payload.DeviceID,
			Status:    "rejected",
			Reason:    err.Error(),
			Timestamp: time.Now().UnixMilli(),
		})
		return
	}

	// 投递副作用事件，Hub不可用时通知记录仍在，客户端可自行拉取
	s.sinkMutex.RLock()
	sink := s.sink
	s.sinkMutex.RUnlock()
	if sink != nil {
		for _, event := range events {
			sink.Deliver(event)
		}
	}

	s.publishAck(DeviceAckMessage{
		DeviceID:  payload.DeviceID,
		AlertID:   alert.ID,
		Status:    "accepted",
		Timestamp: time.Now().UnixMilli(),
	})
}

// publishAck 发布告警受理回执
func (s *MQTTDeviceService) publishAck(ack DeviceAckMessage) {
	s.publishMutex.Lock()
	defer s.publishMutex.Unlock()

	data, err := json.Marshal(ack)
	if err != nil {
		logger.Error("[MQTT] 序列化回执失败: %v", err)
		return
	}

	token := s.Client.Publish(TopicDeviceAck, byte(s.Config.MQTTQoS), false, data)
	if !token.WaitTimeout(3*time.Second) || token.Error() != nil {
		logger.Warning("[MQTT] 发布回执失败 (device=%s): %v", ack.DeviceID, token.Error())
	}
}
