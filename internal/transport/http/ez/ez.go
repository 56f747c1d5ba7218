// Package ez registers typed JSON actions on gin route groups: bind input,
// check caller and role, run the handler, map errors in one place.
package ez

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/core/apperr"
	"marketplace-api/internal/domain"
	resp "marketplace-api/internal/transport/http/response"
)

// 上下文 key（identity 中间件写入）
const (
	KeyCaller = "caller"
	KeyUserID = "userId"
	KeyRole   = "role"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

func (e EZ) Group() *gin.RouterGroup { return e.g }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// Action I 入参，O 出参
type Action[I any, O any] struct {
	Method   string
	Path     string
	Binder   Binder
	Auth     bool          // 要求已解析的调用者
	Roles    []domain.Role // 限定角色（可选）
	Status   int           // 成功状态码，默认 200
	BadInput string        // 绑定失败时的错误信息
	Handler  func(c *gin.Context, in *I) (O, error)
}

// SetCaller 供 identity 中间件使用
func SetCaller(c *gin.Context, u domain.Caller) {
	c.Set(KeyCaller, u)
	c.Set(KeyUserID, u.ID)
	c.Set(KeyRole, string(u.Role))
}

// Caller 当前请求的调用者
func Caller(c *gin.Context) (domain.Caller, bool) {
	v, ok := c.Get(KeyCaller)
	if !ok {
		return domain.Caller{}, false
	}
	u, ok := v.(domain.Caller)
	return u, ok && u.ID != ""
}

// UserID 未登录时返回空串
func UserID(c *gin.Context) string { return c.GetString(KeyUserID) }

// RegisterAction 在当前 EZ 下注册动作接口
func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		// 1) 鉴权/角色
		if a.Auth || len(a.Roles) > 0 {
			u, ok := Caller(c)
			if !ok {
				resp.Fail(c, apperr.Unauthorized("unauthorized"))
				return
			}
			if len(a.Roles) > 0 && !u.HasRole(a.Roles...) {
				resp.Fail(c, apperr.Forbidden("forbidden"))
				return
			}
		}

		// 2) 绑定入参
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			// 空 body 视为 {}
			if c.Request.Body != nil && c.Request.Body != http.NoBody && c.Request.ContentLength != 0 {
				bindErr = c.ShouldBindJSON(&in)
			}
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			msg := a.BadInput
			if msg == "" {
				msg = bindErr.Error()
			}
			resp.Fail(c, apperr.Validation(msg))
			return
		}

		// 3) 执行 + 统一错误映射
		out, err := a.Handler(c, &in)
		if err != nil {
			resp.Fail(c, err)
			return
		}
		resp.OK(c, a.Status, out)
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default: // 默认 POST
		e.g.POST(a.Path, h)
	}
}
