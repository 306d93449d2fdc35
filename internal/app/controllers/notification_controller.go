package controllers

import (
	"alerto-http-service/internal/domain/models"
	"alerto-http-service/internal/domain/services"
	"alerto-http-service/internal/domain/services/container"
	"alerto-http-service/internal/error/code"
	"alerto-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceNotificationController 定义通知控制器接口
type InterfaceNotificationController interface {
	GetNotifications()
	MarkRead()
	MarkAllRead()
	DeleteNotification()
	DeleteAllRead()
}

// NotificationController 处理通知相关的请求
type NotificationController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewNotificationController 创建一个新的通知控制器
func NewNotificationController(ctx *gin.Context, container *container.ServiceContainer) *NotificationController {
	return &NotificationController{
		Ctx:       ctx,
		Container: container,
	}
}

// HandleNotificationFunc 返回一个处理通知请求的Gin处理函数
func HandleNotificationFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewNotificationController(ctx, container)

		switch method {
		case "getNotifications":
			controller.GetNotifications()
		case "markRead":
			controller.MarkRead()
		case "markAllRead":
			controller.MarkAllRead()
		case "deleteNotification":
			controller.DeleteNotification()
		case "deleteAllRead":
			controller.DeleteAllRead()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// notificationService 从容器获取通知服务
func (c *NotificationController) notificationService() services.InterfaceNotificationService {
	return c.Container.GetService("notification").(services.InterfaceNotificationService)
}

// 1. GetNotifications 处理获取通知列表的请求
// @Summary      Get Notifications
// @Description  Paginated list of the authenticated user's notifications, optionally unread only
// @Tags         Notification
// @Accept       json
// @Produce      json
// @Param        unread_only query  bool  false  "Only unread notifications"
// @Param        page        query  int   false  "Page number"
// @Param        page_size   query  int   false  "Page size"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications [get]
// @Security     BearerAuth
func (c *NotificationController) GetNotifications() {
	userID, exists := currentUserID(c.Ctx)
	if !exists {
		response.Unauthorized(c.Ctx)
		return
	}

	page, pageSize := parsePagination(c.Ctx)
	unreadOnly := c.Ctx.Query("unread_only") == "true"

	notifications, total, err := c.notificationService().GetNotifications(userID, unreadOnly, page, pageSize)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{
		"notifications": notifications,
		"pagination":    models.NewPaginationResult(total, page, pageSize),
	})
}

// 2. MarkRead 处理标记单条通知已读的请求
// @Summary      Mark Notification Read
// @Description  Mark one of the authenticated user's notifications as read
// @Tags         Notification
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "Notification ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /notifications/{id}/read [put]
// @Security     BearerAuth
func (c *NotificationController) MarkRead() {
	id, ok := parseUintParam(c.Ctx, "id")
	if !ok {
		return
	}

	userID, exists := currentUserID(c.Ctx)
	if !exists {
		response.Unauthorized(c.Ctx)
		return
	}

	notification, err := c.notificationService().MarkRead(userID, id)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, notification)
}

// 3. MarkAllRead 处理全部标记已读的请求
// @Summary      Mark All Read
// @Description  Mark all of the authenticated user's notifications as read
// @Tags         Notification
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications/read-all [put]
// @Security     BearerAuth
func (c *NotificationController) MarkAllRead() {
	userID, exists := currentUserID(c.Ctx)
	if !exists {
		response.Unauthorized(c.Ctx)
		return
	}

	count, err := c.notificationService().MarkAllRead(userID)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{"updated": count})
}

// 4. DeleteNotification 处理删除单条通知的请求
// @Summary      Delete Notification
// @Description  Delete one of the authenticated user's notifications
// @Tags         Notification
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "Notification ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /notifications/{id} [delete]
// @Security     BearerAuth
func (c *NotificationController) DeleteNotification() {
	id, ok := parseUintParam(c.Ctx, "id")
	if !ok {
		return
	}

	userID, exists := currentUserID(c.Ctx)
	if !exists {
		response.Unauthorized(c.Ctx)
		return
	}

	if err := c.notificationService().DeleteNotification(userID, id); err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{"id": id})
}

// 5. DeleteAllRead 处理清空已读通知的请求
// @Summary      Delete Read Notifications
// @Description  Delete all of the authenticated user's read notifications
// @Tags         Notification
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /notifications/read [delete]
// @Security     BearerAuth
func (c *NotificationController) DeleteAllRead() {
	userID, exists := currentUserID(c.Ctx)
	if !exists {
		response.Unauthorized(c.Ctx)
		return
	}

	count, err := c.notificationService().DeleteAllRead(userID)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{"deleted": count})
}
