package controllers

import (
	"strconv"

	"alerto-http-service/internal/domain/models"
	"alerto-http-service/internal/domain/services"
	"alerto-http-service/internal/domain/services/container"
	"alerto-http-service/internal/error/code"
	"alerto-http-service/internal/error/response"
	"alerto-http-service/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// InterfaceAlertController 定义警报控制器接口
type InterfaceAlertController interface {
	GetAlerts()
	GetAlert()
	CreateAlert()
	CreateDeviceAlert()
	UpdateAlert()
	RespondToAlert()
	ResolveAlert()
	CancelAlert()
	DeleteAlert()
	NearbyAlerts()
}

// AlertController 处理警报相关的请求
type AlertController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
	Hub       *websocket.Hub
}

// NewAlertController 创建一个新的警报控制器
func NewAlertController(ctx *gin.Context, container *container.ServiceContainer, hub *websocket.Hub) *AlertController {
	return &AlertController{
		Ctx:       ctx,
		Container: container,
		Hub:       hub,
	}
}

// CreateAlertRequest 表示创建警报请求
type CreateAlertRequest struct {
	Type        string  `json:"type" binding:"required" example:"police"` // police/hospital/fire/family
	Priority    string  `json:"priority" example:"high"`                  // low/medium/high/critical，默认medium
	Description string  `json:"description" example:"有人入室行窃"`
	Address     string  `json:"address" example:"建国路88号"`
	Latitude    float64 `json:"latitude" binding:"required" example:"39.9042"`
	Longitude   float64 `json:"longitude" binding:"required" example:"116.4074"`
}

// DeviceAlertRequest 表示设备自动告警请求
type DeviceAlertRequest struct {
	Type        string  `json:"type" binding:"required" example:"fire"`
	Latitude    float64 `json:"latitude" binding:"required" example:"39.9042"`
	Longitude   float64 `json:"longitude" binding:"required" example:"116.4074"`
	Description string  `json:"description" example:"烟雾浓度超标"`
}

// UpdateAlertRequest 表示更新警报请求，仅允许修改描述性字段
type UpdateAlertRequest struct {
	Description *string  `json:"description"`
	Priority    *string  `json:"priority"`
	Address     *string  `json:"address"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Note        string   `json:"note"`
}

// ResolveAlertRequest 表示解决警报请求
type ResolveAlertRequest struct {
	Notes string `json:"notes" example:"火情已扑灭，现场无人员伤亡"`
}

// HandleAlertFunc 返回一个处理警报请求的Gin处理函数
func HandleAlertFunc(container *container.ServiceContainer, hub *websocket.Hub, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAlertController(ctx, container, hub)

		switch method {
		case "getAlerts":
			controller.GetAlerts()
		case "getAlert":
			controller.GetAlert()
		case "createAlert":
			controller.CreateAlert()
		case "createDeviceAlert":
			controller.CreateDeviceAlert()
		case "updateAlert":
			controller.UpdateAlert()
		case "respondToAlert":
			controller.RespondToAlert()
		case "resolveAlert":
			controller.ResolveAlert()
		case "cancelAlert":
			controller.CancelAlert()
		case "deleteAlert":
			controller.DeleteAlert()
		case "nearbyAlerts":
			controller.NearbyAlerts()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// alertService 从容器获取警报服务
func (c *AlertController) alertService() services.InterfaceAlertService {
	return c.Container.GetService("alert").(services.InterfaceAlertService)
}

// 1. GetAlerts 处理获取警报列表的请求
// @Summary      Get Alert List
// @Description  Get a paginated list of alerts, filterable by status, type and priority
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        status    query  string  false  "Alert status filter"
// @Param        type      query  string  false  "Alert type filter"
// @Param        priority  query  string  false  "Alert priority filter"
// @Param        page      query  int     false  "Page number"
// @Param        page_size query  int     false  "Page size"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  ErrorResponse
// @Router       /alerts [get]
// @Security     BearerAuth
func (c *AlertController) GetAlerts() {
	page, pageSize := parsePagination(c.Ctx)
	status := c.Ctx.Query("status")
	alertType := c.Ctx.Query("type")
	priority := c.Ctx.Query("priority")

	alerts, total, err := c.alertService().GetAlerts(status, alertType, priority, page, pageSize)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{
		"alerts":     alerts,
		"pagination": models.NewPaginationResult(total, page, pageSize),
	})
}

// 2. GetAlert 处理获取单个警报详情的请求
// @Summary      Get Alert Detail
// @Description  Get a single alert with its reporter, responder and full timeline
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "Alert ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /alerts/{id} [get]
// @Security     BearerAuth
func (c *AlertController) GetAlert() {
	id, ok := parseUintParam(c.Ctx, "id")
	if !ok {
		return
	}

	alert, err := c.alertService().GetAlertByID(id)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, alert)
}

// 3. CreateAlert 处理创建警报的请求
// @Summary      Create Alert
// @Description  Report a new emergency alert; matching responders and family members are notified
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        request body CreateAlertRequest true "Alert parameters"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /alerts [post]
// @Security     BearerAuth
func (c *AlertController) CreateAlert() {
	var req CreateAlertRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	userID, exists := currentUserID(c.Ctx)
	if !exists {
		response.Unauthorized(c.Ctx)
		return
	}

	alert, events, err := c.alertService().CreateAlert(userID, req.Type, req.Priority, req.Description, req.Address, req.Latitude, req.Longitude)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	// 警报已落库，事件投递尽力而为
	for _, event := range events {
		c.Hub.Deliver(event)
	}

	response.Created(c.Ctx, alert)
}

// 4. CreateDeviceAlert 处理设备自动告警的请求
// @Summary      Create Device Alert
// @Description  Accept an alert reported by an automated sensor; goes active immediately
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        request body DeviceAlertRequest true "Device alert parameters"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /alerts/device [post]
func (c *AlertController) CreateDeviceAlert() {
	var req DeviceAlertRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	alert, events, err := c.alertService().CreateDeviceAlert(req.Type, req.Latitude, req.Longitude, req.Description)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	for _, event := range events {
		c.Hub.Deliver(event)
	}

	response.Created(c.Ctx, alert)
}

// 5. UpdateAlert 处理更新警报描述性字段的请求
// @Summary      Update Alert
// @Description  Update descriptive fields of an alert; lifecycle fields are immutable here
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        id      path  int                true  "Alert ID"
// @Param        request body  UpdateAlertRequest true  "Fields to update"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /alerts/{id} [put]
// @Security     BearerAuth
func (c *AlertController) UpdateAlert() {
	id, ok := parseUintParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req UpdateAlertRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数: "+err.Error(), nil)
		return
	}

	userID, exists := currentUserID(c.Ctx)
	if !exists {
		response.Unauthorized(c.Ctx)
		return
	}

	// 只收集显式提供的字段
	updates := make(map[string]interface{})
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Latitude != nil {
		updates["latitude"] = *req.Latitude
	}
	if req.Longitude != nil {
		updates["longitude"] = *req.Longitude
	}

	alert, err := c.alertService().UpdateAlert(id, userID, updates, req.Note)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, alert)
}

// 6. RespondToAlert 处理响应者认领警报的请求
// @Summary      Respond to Alert
// @Description  A responder whose role matches the alert type claims the alert
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "Alert ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /alerts/{id}/respond [post]
// @Security     BearerAuth
func (c *AlertController) RespondToAlert() {
	id, ok := parseUintParam(c.Ctx, "id")
	if !ok {
		return
	}

	userID, exists := currentUserID(c.Ctx)
	if !exists {
		response.Unauthorized(c.Ctx)
		return
	}

	alert, events, err := c.alertService().RespondToAlert(id, userID)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	for _, event := range events {
		c.Hub.Deliver(event)
	}

	response.Success(c.Ctx, alert)
}

// 7. ResolveAlert 处理解决警报的请求
// @Summary      Resolve Alert
// @Description  Mark a responded alert as resolved; only the claiming responder or an admin may resolve
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        id      path  int                 true   "Alert ID"
// @Param        request body  ResolveAlertRequest false  "Resolution notes"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /alerts/{id}/resolve [post]
// @Security     BearerAuth
func (c *AlertController) ResolveAlert() {
	id, ok := parseUintParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req ResolveAlertRequest
	// 请求体可选
	_ = c.Ctx.ShouldBindJSON(&req)

	userID, exists := currentUserID(c.Ctx)
	if !exists {
		response.Unauthorized(c.Ctx)
		return
	}

	alert, events, err := c.alertService().ResolveAlert(id, userID, req.Notes)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	for _, event := range events {
		c.Hub.Deliver(event)
	}

	response.Success(c.Ctx, alert)
}

// 8. CancelAlert 处理报警人撤销警报的请求
// @Summary      Cancel Alert
// @Description  The reporter cancels an alert that no responder has claimed yet
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "Alert ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /alerts/{id}/cancel [post]
// @Security     BearerAuth
func (c *AlertController) CancelAlert() {
	id, ok := parseUintParam(c.Ctx, "id")
	if !ok {
		return
	}

	userID, exists := currentUserID(c.Ctx)
	if !exists {
		response.Unauthorized(c.Ctx)
		return
	}

	alert, err := c.alertService().CancelAlert(id, userID)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, alert)
}

// 9. DeleteAlert 处理删除警报的请求
// @Summary      Delete Alert
// @Description  Delete an alert and its timeline; reporter or admin only
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "Alert ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /alerts/{id} [delete]
// @Security     BearerAuth
func (c *AlertController) DeleteAlert() {
	id, ok := parseUintParam(c.Ctx, "id")
	if !ok {
		return
	}

	userID, exists := currentUserID(c.Ctx)
	if !exists {
		response.Unauthorized(c.Ctx)
		return
	}

	if err := c.alertService().DeleteAlert(id, userID); err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{"id": id})
}

// 10. NearbyAlerts 处理查询附近未关闭警报的请求
// @Summary      Nearby Alerts
// @Description  List non-terminal alerts within a radius of the given coordinates, nearest first
// @Tags         Alert
// @Accept       json
// @Produce      json
// @Param        latitude   query  number  true   "Latitude"
// @Param        longitude  query  number  true   "Longitude"
// @Param        radius     query  number  false  "Radius in kilometers, default 10"
// @Param        type       query  string  false  "Alert type filter"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /alerts/nearby [get]
// @Security     BearerAuth
func (c *AlertController) NearbyAlerts() {
	lat, latErr := strconv.ParseFloat(c.Ctx.Query("latitude"), 64)
	lng, lngErr := strconv.ParseFloat(c.Ctx.Query("longitude"), 64)
	if latErr != nil || lngErr != nil {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "latitude和longitude参数必须为有效数值", nil)
		return
	}

	radius, err := strconv.ParseFloat(c.Ctx.DefaultQuery("radius", "10"), 64)
	if err != nil || radius <= 0 {
		radius = 10
	}

	alerts, err := c.alertService().NearbyAlerts(c.Ctx.Query("type"), lat, lng, radius)
	if err != nil {
		failForError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{
		"alerts": alerts,
		"total":  len(alerts),
	})
}
