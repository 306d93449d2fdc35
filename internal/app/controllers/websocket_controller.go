package controllers

import (
	"alerto-http-service/internal/domain/services"
	"alerto-http-service/internal/domain/services/container"
	"alerto-http-service/internal/error/response"
	"alerto-http-service/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// WebSocketController 处理实时通道的连接升级
type WebSocketController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
	Hub       *websocket.Hub
}

// NewWebSocketController 创建一个新的WebSocket控制器
func NewWebSocketController(ctx *gin.Context, container *container.ServiceContainer, hub *websocket.Hub) *WebSocketController {
	return &WebSocketController{
		Ctx:       ctx,
		Container: container,
		Hub:       hub,
	}
}

// HandleWebSocketFunc 返回处理WebSocket升级请求的Gin处理函数
func HandleWebSocketFunc(container *container.ServiceContainer, hub *websocket.Hub) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewWebSocketController(ctx, container, hub)
		controller.Connect()
	}
}

// Connect 验证token查询参数后升级连接。
// 浏览器WebSocket API无法设置Authorization头，令牌走查询参数
// @Summary      WebSocket Connect
// @Description  Upgrade to a WebSocket connection; pass the JWT via the token query parameter
// @Tags         WebSocket
// @Param        token  query  string  true  "JWT token"
// @Success      101  {string}  string  "Switching Protocols"
// @Failure      401  {object}  ErrorResponse
// @Router       /ws [get]
func (c *WebSocketController) Connect() {
	token := c.Ctx.Query("token")
	if token == "" {
		response.Unauthorized(c.Ctx)
		return
	}

	jwtService := c.Container.GetService("jwt").(services.InterfaceJWTService)
	claims, err := jwtService.ExtractClaims(token)
	if err != nil || claims.UserID == 0 {
		response.Unauthorized(c.Ctx)
		return
	}

	websocket.HandleWebSocket(c.Hub, c.Ctx.Writer, c.Ctx.Request, claims.UserID, claims.Name, claims.Role)
}
