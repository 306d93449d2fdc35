package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:         "成功",
	ErrUnknown:         "未知错误",
	ErrBind:            "请求参数绑定错误",
	ErrValidation:      "请求参数验证错误",
	ErrTokenInvalid:    "无效的认证令牌",
	ErrForbidden:       "没有权限执行该操作",
	ErrTooManyRequests: "请求频率过高",

	// 用户相关错误码
	ErrUserNotFound:          "用户不存在",
	ErrUserAlreadyExist:      "用户已存在",
	ErrUserPasswordIncorrect: "用户密码错误",
	ErrUserSuspended:         "用户账号已停用",

	// 警报相关错误码
	ErrAlertNotFound:     "警报不存在",
	ErrAlertStateInvalid: "警报当前状态不允许该操作",
	ErrAlertConflict:     "警报状态已被其他操作修改，请刷新后重试",
	ErrAlertTypeInvalid:  "警报类型无效",

	// 通知相关错误码
	ErrNotificationNotFound: "通知不存在",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusBadRequest,
	ErrValidation:      StatusBadRequest,
	ErrTokenInvalid:    StatusUnauthorized,
	ErrForbidden:       StatusForbidden,
	ErrTooManyRequests: StatusTooManyRequests,

	// 用户相关错误码
	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusBadRequest,
	ErrUserPasswordIncorrect: StatusUnauthorized,
	ErrUserSuspended:         StatusForbidden,

	// 警报相关错误码
	ErrAlertNotFound:     StatusNotFound,
	ErrAlertStateInvalid: StatusBadRequest,
	ErrAlertConflict:     StatusBadRequest,
	ErrAlertTypeInvalid:  StatusBadRequest,

	// 通知相关错误码
	ErrNotificationNotFound: StatusNotFound,

	// 数据库相关错误码
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,
}

// GetMessage 获取错误码对应的消息
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "未知错误"
}

// GetStatus 获取错误码对应的HTTP状态码
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
