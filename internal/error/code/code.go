package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrForbidden - 403: 没有操作权限.
	ErrForbidden
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
)

// 用户相关错误码 (101xxx).
const (
	// ErrUserNotFound - 404: 用户不存在.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 400: 用户已存在.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: 用户密码错误.
	ErrUserPasswordIncorrect
	// ErrUserSuspended - 403: 用户已被停用或封禁.
	ErrUserSuspended
)

// 警报相关错误码 (102xxx).
const (
	// ErrAlertNotFound - 404: 警报不存在.
	ErrAlertNotFound int = iota + 102000
	// ErrAlertStateInvalid - 400: 警报当前状态不允许该操作.
	ErrAlertStateInvalid
	// ErrAlertConflict - 400: 警报状态已被并发修改.
	ErrAlertConflict
	// ErrAlertTypeInvalid - 400: 警报类型无效.
	ErrAlertTypeInvalid
)

// 通知相关错误码 (103xxx).
const (
	// ErrNotificationNotFound - 404: 通知不存在.
	ErrNotificationNotFound int = iota + 103000
)

// 数据库相关错误码 (105xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)
