package controllers

import (
	"alerto-http-service/internal/domain/models"
	"alerto-http-service/internal/domain/services"
	"alerto-http-service/internal/domain/services/container"
	"alerto-http-service/internal/error/code"
	"alerto-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceUserController 定义用户控制器接口
type InterfaceUserController interface {
	GetProfile()
	UpdateProfile()
	GetUser()
	ChangePassword()
	UpdateLocation()
	GetStats()
	GetAllUsers()
	UpdateUserStatus()
	DeleteUser()
}

// UserController 处理用户相关的请求
type UserController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewUserController 创建一个新的用户控制器
func NewUserController(ctx *gin.Context, container *container.ServiceContainer) *UserController {
	return &UserController{
		Ctx:       ctx,
		Container: container,
	}
}

// UpdateProfileRequest 表示更新个人资料请求
type UpdateProfileRequest struct {
	Name            *string `json:"name"`
	Phone           *string `json:"phone"`
	Address         *string `json:"address"`
	FamilyMemberIDs []uint  `json:"family_member_ids"`
}

// ChangePasswordRequest 表示修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// UpdateLocationRequest 表示上报位置请求
type UpdateLocationRequest struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// UpdateUserStatusRequest 表示管理员修改用户状态请求
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required" example:"suspended"` // active/inactive/suspended
}

// HandleUserFunc 返回一个处理用户请求的Gin处理函数
func HandleUserFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewUserController(ctx, container)

		switch method {
		case "getProfile":
			controller.GetProfile()
		case "updateProfile":
			controller.UpdateProfile()
		case "getUser":
			controller.GetUser()
		case "changePassword":
			controller.ChangePassword()
		case "updateLocation":
			controller.UpdateLocation()
		case "getStats":
			controller.GetStats()
		case "getAllUsers":
			controller.GetAllUsers()
		case "updateUserStatus":
			controller.UpdateUserStatus()
		case "deleteUser":
			controller.DeleteUser()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// userService 从容器获取用户服务
func (c *UserController) userService() services.InterfaceUserService {
	return c.Container.GetService("user").(services.InterfaceUserService)
}

// 1. UpdateProfile 处理更新个人资料的请求
// @Summary      Update Profile
// @Description  Update the authenticated user's profile fields and family member list
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        request body UpdateProfileRequest true "Profile fields"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /users/profile [put]
// @Security     BearerAuth
func (c *UserController) UpdateProfile() {
	var req UpdateProfileRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	userID, exists := currentUserID(c.Ctx)
	if !exists {
		response.Unauthorized(c.Ctx)
		return
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}

	user, err := c.userService().UpdateProfile(userID, updates, req.FamilyMemberIDs)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, user)
}

// 2. ChangePassword 处理修改密码的请求
// @Summary      Change Password
// @Description  Change the authenticated user's password after verifying the old one
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        request body ChangePasswordRequest true "Password change parameters"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /users/password [put]
// @Security     BearerAuth
func (c *UserController) ChangePassword() {
	var req ChangePasswordRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	userID, exists := currentUserID(c.Ctx)
	if !exists {
		response.Unauthorized(c.Ctx)
		return
	}

	if err := c.userService().ChangePassword(userID, req.OldPassword, req.NewPassword); err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, nil)
}

// 3. UpdateLocation 处理上报位置的请求
// @Summary      Update Location
// @Description  Persist the authenticated user's latest reported location
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        request body UpdateLocationRequest true "Location parameters"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /users/location [put]
// @Security     BearerAuth
func (c *UserController) UpdateLocation() {
	var req UpdateLocationRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	userID, exists := currentUserID(c.Ctx)
	if !exists {
		response.Unauthorized(c.Ctx)
		return
	}

	if err := c.userService().UpdateLocation(userID, req.Address, req.Latitude, req.Longitude); err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{
		"latitude":  req.Latitude,
		"longitude": req.Longitude,
	})
}

// 4. GetStats 处理获取统计数据的请求，返回内容随角色变化
// @Summary      Get Statistics
// @Description  Role-dependent statistics: admins see global counts, responders see their own workload, citizens see their own alerts
// @Tags         User
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /users/stats [get]
// @Security     BearerAuth
func (c *UserController) GetStats() {
	userID, exists := currentUserID(c.Ctx)
	if !exists {
		response.Unauthorized(c.Ctx)
		return
	}

	stats, err := c.userService().GetStats(userID)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, stats)
}

// 5. GetAllUsers 处理管理员获取用户列表的请求
// @Summary      List Users
// @Description  Paginated user list, filterable by role; admin only
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        role      query  string  false  "Role filter"
// @Param        page      query  int     false  "Page number"
// @Param        page_size query  int     false  "Page size"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Router       /users [get]
// @Security     BearerAuth
func (c *UserController) GetAllUsers() {
	page, pageSize := parsePagination(c.Ctx)
	role := c.Ctx.Query("role")

	users, total, err := c.userService().GetAllUsers(role, page, pageSize)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{
		"users":      users,
		"pagination": models.NewPaginationResult(total, page, pageSize),
	})
}

// 6. UpdateUserStatus 处理管理员修改用户状态的请求
// @Summary      Update User Status
// @Description  Activate, deactivate or suspend an account; admin only
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        id      path  int                     true  "User ID"
// @Param        request body  UpdateUserStatusRequest true  "New status"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id}/status [put]
// @Security     BearerAuth
func (c *UserController) UpdateUserStatus() {
	id, ok := parseUintParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req UpdateUserStatusRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	if !models.ValidUserStatus(req.Status) {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "无效的用户状态", nil)
		return
	}

	user, err := c.userService().UpdateUserStatus(id, req.Status)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, user)
}

// 7. DeleteUser 处理管理员删除用户的请求
// @Summary      Delete User
// @Description  Delete an account and its notifications; admin only
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "User ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [delete]
// @Security     BearerAuth
func (c *UserController) DeleteUser() {
	id, ok := parseUintParam(c.Ctx, "id")
	if !ok {
		return
	}

	if err := c.userService().DeleteUser(id); err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{"id": id})
}

// 8. GetProfile 处理获取个人资料的请求
// @Summary      Get Profile
// @Description  Fetch the authenticated user's profile with family members
// @Tags         User
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /users/profile [get]
// @Security     BearerAuth
func (c *UserController) GetProfile() {
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

// 9. GetUser 处理管理员按ID获取用户的请求
// @Summary      Get User
// @Description  Fetch a user by ID with family members; admin only
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "User ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
// @Security     BearerAuth
func (c *UserController) GetUser() {
	id, ok := parseUintParam(c.Ctx, "id")
	if !ok {
		return
	}

	user, err := c.userService().GetUserByID(id)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, user)
}
