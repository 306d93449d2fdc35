package controllers

import (
	"errors"
	"strconv"

	"alerto-http-service/internal/app/middleware"
	"alerto-http-service/internal/domain/services"
	"alerto-http-service/internal/error/code"
	"alerto-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 错误响应的文档结构
type ErrorResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// currentUserID 读取认证中间件写入的用户ID
func currentUserID(ctx *gin.Context) (uint, bool) {
	return middleware.CurrentUserID(ctx)
}

// parseUintParam 解析路径参数为uint
func parseUintParam(ctx *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		response.FailWithMessage(ctx, code.ErrValidation, "无效的ID参数", nil)
		return 0, false
	}
	return uint(value), true
}

// parsePagination 解析分页查询参数并做边界约束
func parsePagination(ctx *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(ctx.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// failForError 将服务层的哨兵错误映射为错误码响应
func failForError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAlertNotFound):
		response.Fail(ctx, code.ErrAlertNotFound, nil)
	case errors.Is(err, services.ErrUserNotFound):
		response.Fail(ctx, code.ErrUserNotFound, nil)
	case errors.Is(err, services.ErrNotificationNotFound):
		response.Fail(ctx, code.ErrNotificationNotFound, nil)
	case errors.Is(err, services.ErrAuthorization):
		response.Fail(ctx, code.ErrForbidden, nil)
	case errors.Is(err, services.ErrConflict):
		response.Fail(ctx, code.ErrAlertConflict, nil)
	case errors.Is(err, services.ErrInvalidState):
		response.Fail(ctx, code.ErrAlertStateInvalid, nil)
	case errors.Is(err, services.ErrValidationFailed):
		response.Fail(ctx, code.ErrValidation, nil)
	case errors.Is(err, services.ErrUserSuspended):
		response.Fail(ctx, code.ErrUserSuspended, nil)
	case errors.Is(err, services.ErrUserExists):
		response.Fail(ctx, code.ErrUserAlreadyExist, nil)
	case errors.Is(err, services.ErrPasswordIncorrect):
		response.Fail(ctx, code.ErrUserPasswordIncorrect, nil)
	default:
		response.FailWithMessage(ctx, code.ErrDatabase, "数据库错误: "+err.Error(), nil)
	}
}
