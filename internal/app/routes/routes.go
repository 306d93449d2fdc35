package routes

import (
	"time"

	_ "alerto-http-service/docs"
	"alerto-http-service/internal/app/controllers"
	"alerto-http-service/internal/app/middleware"
	"alerto-http-service/internal/domain/services"
	"alerto-http-service/internal/domain/services/container"
	"alerto-http-service/internal/infrastructure/config"
	"alerto-http-service/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *gin.Engine {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 设置正确的Content-Type，确保UTF-8编码
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})

	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg, redisClient)
	// 创建实时Hub并接入MQTT设备告警的事件投递
	hub := websocket.NewHub(websocket.DefaultConfig())
	if mqttService, ok := serviceContainer.GetService("mqtt_device").(services.InterfaceMQTTDeviceService); ok {
		mqttService.SetEventSink(hub)
	}

	// 初始化中间件
	middleware.InitAuthMiddleware(cfg, db)
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, serviceContainer, hub)
	return r
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
	hub *websocket.Hub,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 注册公共路由
	registerPublicRoutes(api, container, hub)
	// 注册需要认证的路由
	registerAuthenticatedRoutes(api, container, hub)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
	hub *websocket.Hub,
) {
	// 添加IP限流中间件 - 每秒允许10个请求，最多突发20个请求
	api.Use(middleware.IPRateLimiter(10, 20))

	// 健康检查路由
	healthController := controllers.NewHealthCheckController()
	api.GET("/ping", healthController.Ping)
	api.GET("/health", healthController.Ping) // 兼容Docker健康检查的路由

	// 认证路由
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.PathRateLimiter(5, 10)) // 每秒5个请求，最多突发10个
	authGroup.POST("/register", controllers.HandleAuthFunc(container, "register"))
	authGroup.POST("/login", controllers.HandleAuthFunc(container, "login"))

	// 设备自动告警路由，传感器直接上报，无用户令牌
	api.POST("/alerts/device", controllers.HandleAlertFunc(container, hub, "createDeviceAlert"))

	// WebSocket实时通道，令牌走查询参数
	api.GET("/ws", controllers.HandleWebSocketFunc(container, hub))
}

// registerAuthenticatedRoutes 注册需要认证的路由
func registerAuthenticatedRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
	hub *websocket.Hub,
) {
	// 添加认证中间件
	auth := api.Group("/")
	auth.Use(middleware.Authentication())

	// 添加通用限流中间件 - 每秒30个请求，最多突发50个请求
	auth.Use(middleware.IPRateLimiter(30, 50))

	// 当前用户路由
	auth.GET("/auth/me", controllers.HandleAuthFunc(container, "me"))

	// 警报路由
	alertGroup := auth.Group("/alerts")
	alertGroup.GET("", middleware.Cache(10*time.Second), controllers.HandleAlertFunc(container, hub, "getAlerts"))
	alertGroup.GET("/nearby", controllers.HandleAlertFunc(container, hub, "nearbyAlerts"))
	alertGroup.GET("/:id", controllers.HandleAlertFunc(container, hub, "getAlert"))
	alertGroup.POST("", controllers.HandleAlertFunc(container, hub, "createAlert"))
	alertGroup.PUT("/:id", controllers.HandleAlertFunc(container, hub, "updateAlert"))
	// 接警与解决仅限响应者或管理员，精确的类型/归属校验在服务层
	alertGroup.POST("/:id/respond", middleware.AuthenticateResponder(), controllers.HandleAlertFunc(container, hub, "respondToAlert"))
	alertGroup.POST("/:id/resolve", middleware.AuthenticateResponder(), controllers.HandleAlertFunc(container, hub, "resolveAlert"))
	alertGroup.POST("/:id/cancel", controllers.HandleAlertFunc(container, hub, "cancelAlert"))
	alertGroup.DELETE("/:id", controllers.HandleAlertFunc(container, hub, "deleteAlert"))

	// 通知路由
	notificationGroup := auth.Group("/notifications")
	notificationGroup.GET("", controllers.HandleNotificationFunc(container, "getNotifications"))
	notificationGroup.PUT("/read-all", controllers.HandleNotificationFunc(container, "markAllRead"))
	notificationGroup.PUT("/:id/read", controllers.HandleNotificationFunc(container, "markRead"))
	notificationGroup.DELETE("/read", controllers.HandleNotificationFunc(container, "deleteAllRead"))
	notificationGroup.DELETE("/:id", controllers.HandleNotificationFunc(container, "deleteNotification"))

	// 用户路由
	userGroup := auth.Group("/users")
	userGroup.GET("/profile", controllers.HandleUserFunc(container, "getProfile"))
	userGroup.PUT("/profile", controllers.HandleUserFunc(container, "updateProfile"))
	userGroup.PUT("/password", controllers.HandleUserFunc(container, "changePassword"))
	userGroup.PUT("/location", controllers.HandleUserFunc(container, "updateLocation"))
	userGroup.GET("/stats", middleware.Cache(30*time.Second), controllers.HandleUserFunc(container, "getStats"))

	// 管理员路由
	admin := api.Group("/")
	admin.Use(middleware.AuthenticateAdmin())
	admin.GET("/users", controllers.HandleUserFunc(container, "getAllUsers"))
	admin.GET("/users/:id", controllers.HandleUserFunc(container, "getUser"))
	admin.PUT("/users/:id/status", controllers.HandleUserFunc(container, "updateUserStatus"))
	admin.DELETE("/users/:id", controllers.HandleUserFunc(container, "deleteUser"))
}
