package controllers

import (
	"alerto-http-service/internal/domain/models"
	"alerto-http-service/internal/domain/services"
	"alerto-http-service/internal/domain/services/container"
	"alerto-http-service/internal/error/code"
	"alerto-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceAuthController 定义认证控制器接口
type InterfaceAuthController interface {
	Register()
	Login()
	Me()
}

// AuthController 处理身份验证请求
type AuthController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAuthController 创建一个新的认证控制器
func NewAuthController(ctx *gin.Context, container *container.ServiceContainer) *AuthController {
	return &AuthController{
		Ctx:       ctx,
		Container: container,
	}
}

// RegisterRequest 表示注册请求
type RegisterRequest struct {
	Name     string `json:"name" binding:"required" example:"张伟"`
	Username string `json:"username" binding:"required" example:"zhangwei"`
	Password string `json:"password" binding:"required,min=6" example:"secret123"`
	Phone    string `json:"phone" example:"13800138000"`
	Role     string `json:"role" example:"citizen"` // citizen/family/police/hospital/fire
}

// LoginRequest 表示登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"zhangwei"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// LoginData 表示登录成功后返回的数据
type LoginData struct {
	Token    string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	UserID   uint   `json:"user_id" example:"1"`
	Role     string `json:"role" example:"citizen"`
	Username string `json:"username" example:"zhangwei"`
	Name     string `json:"name" example:"张伟"`
}

// HandleAuthFunc 返回一个处理认证请求的Gin处理函数
func HandleAuthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAuthController(ctx, container)

		switch method {
		case "register":
			controller.Register()
		case "login":
			controller.Login()
		case "me":
			controller.Me()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// userService 从容器获取用户服务
func (c *AuthController) userService() services.InterfaceUserService {
	return c.Container.GetService("user").(services.InterfaceUserService)
}

// 1. Register 处理用户注册
// @Summary      User Registration
// @Description  Register a new account; admin role cannot be self-assigned
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration parameters"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /auth/register [post]
func (c *AuthController) Register() {
	var req RegisterRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	if req.Role == "" {
		req.Role = models.RoleCitizen
	}

	user := &models.User{
		Name:     req.Name,
		Username: req.Username,
		Phone:    req.Phone,
		Role:     req.Role,
	}

	created, err := c.userService().Register(user, req.Password)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Created(c.Ctx, created)
}

// 2. Login 处理用户登录
// @Summary      User Login
// @Description  Authenticate with username and password, return a JWT token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login parameters"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/login [post]
func (c *AuthController) Login() {
	var req LoginRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	user, err := c.userService().Authenticate(req.Username, req.Password)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	jwtService := c.Container.GetService("jwt").(services.InterfaceJWTService)
	token, err := jwtService.GenerateToken(user)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrUnknown, "生成令牌失败", nil)
		return
	}

	response.Success(c.Ctx, LoginData{
		Token:    token,
		UserID:   user.ID,
		Role:     user.Role,
		Username: user.Username,
		Name:     user.Name,
	})
}

// 3. Me 返回当前登录用户的信息
// @Summary      Current User
// @Description  Get the profile of the authenticated user
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/me [get]
// @Security     BearerAuth
func (c *AuthController) Me() {
	userID, exists := currentUserID(c.Ctx)
	if !exists {
		response.Unauthorized(c.Ctx)
		return
	}

	user, err := c.userService().GetUserByID(userID)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, user)
}
