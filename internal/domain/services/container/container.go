package container

import (
	"context"
	"log"
	"sync"
	"time"

	"alerto-http-service/internal/domain/services"
	"alerto-http-service/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// 基础服务
	jwtService services.InterfaceJWTService

	// 数据存储服务
	redisService services.InterfaceRedisService

	// 逆地理编码服务
	geocodingService services.InterfaceGeocodingService

	// MQTT设备接入服务
	mqttDeviceService services.InterfaceMQTTDeviceService

	// 业务服务
	alertService        services.InterfaceAlertService
	userService         services.InterfaceUserService
	notificationService services.InterfaceNotificationService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	// 测试Redis连接
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis连接测试失败: %v，将不使用Redis缓存", err)
		}
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化基础服务
	c.jwtService = services.NewJWTService(c.config, c.db)

	// 初始化Redis服务
	c.redisService = services.NewRedisService(c.config)

	// 初始化逆地理编码服务，依赖Redis缓存
	c.geocodingService = services.NewGeocodingService(c.config, c.redisService)

	// 初始化业务服务
	c.alertService = services.NewAlertService(c.db, c.config, c.geocodingService)
	c.userService = services.NewUserService(c.db, c.config)
	c.notificationService = services.NewNotificationService(c.db, c.config)

	// 初始化MQTT设备接入服务 - 使用接口类型
	c.mqttDeviceService = services.NewMQTTDeviceService(c.config, c.alertService)

	// 连接MQTT服务器（未配置或失败时仅记录，不影响HTTP服务）。
	// Connect内部带重试退避，异步执行避免拖慢HTTP启动
	if c.config.MQTTBrokerURL != "" {
		mqttService := c.mqttDeviceService
		go func() {
			if err := mqttService.Connect(); err != nil {
				log.Printf("MQTT服务连接失败: %v", err)
			}
		}()
	}
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "geocoding":
		return c.geocodingService
	case "mqtt_device":
		return c.mqttDeviceService
	case "alert":
		return c.alertService
	case "user":
		return c.userService
	case "notification":
		return c.notificationService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}
