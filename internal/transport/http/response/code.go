package response

// 错误码直接使用 HTTP 状态码
const (
	CodeOK              = 200
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeTooLarge        = 413
	CodeTooManyRequests = 429
	CodeServerError     = 500
	CodeUnavailable     = 503
	CodeTimeout         = 504
)

// CodeMsgMap 用于集中管理 code - msg
var CodeMsgMap = map[int]string{
	CodeOK:              "OK",
	CodeBadRequest:      "bad request",
	CodeUnauthorized:    "unauthorized",
	CodeForbidden:       "forbidden",
	CodeNotFound:        "not found",
	CodeConflict:        "conflict",
	CodeTooLarge:        "request body too large",
	CodeTooManyRequests: "too many requests",
	CodeServerError:     "internal error",
	CodeUnavailable:     "server busy",
	CodeTimeout:         "timeout",
}
