package services

import "errors"

// 服务层哨兵错误，控制器通过 errors.Is 映射到错误码
var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("用户不存在")
	// ErrUserExists 用户名已被占用
	ErrUserExists = errors.New("用户名已被占用")
	// ErrPasswordIncorrect 密码错误
	ErrPasswordIncorrect = errors.New("用户名或密码错误")
	// ErrUserSuspended 账号已停用或封禁
	ErrUserSuspended = errors.New("账号已停用")

	// ErrAlertNotFound 警报不存在
	ErrAlertNotFound = errors.New("警报不存在")
	// ErrAuthorization 调用者不满足角色或归属要求
	ErrAuthorization = errors.New("没有权限执行该操作")
	// ErrInvalidState 当前状态不允许该流转
	ErrInvalidState = errors.New("警报当前状态不允许该操作")
	// ErrConflict 流转守卫失败或版本冲突（如警报已被接警）
	ErrConflict = errors.New("警报状态已变更，请刷新后重试")
	// ErrValidationFailed 输入校验失败
	ErrValidationFailed = errors.New("请求参数验证失败")

	// ErrNotificationNotFound 通知不存在
	ErrNotificationNotFound = errors.New("通知不存在")
)
