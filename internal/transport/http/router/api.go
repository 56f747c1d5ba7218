package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"marketplace-api/internal/core/config"
	"marketplace-api/internal/core/metrics"
	"marketplace-api/internal/core/server"
	"marketplace-api/internal/domain"
	mdw "marketplace-api/internal/transport/http/middleware"
)

// Deps 两个 engine 共用的依赖
type Deps struct {
	Log      *zap.Logger
	Limits   config.Limits
	Registry *Registry
	Guard    gin.HandlerFunc // mdw.RequireUser(...)
}

// base 中间件与健康检查
func base(d Deps) *gin.Engine {
	r := server.NewRouter(d.Log)
	lim := d.Limits

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(lim.RPS), lim.Burst),
		mdw.RateLimitPerIP(rate.Limit(lim.PerIPRPS), lim.PerIPBurst),
		mdw.ConcurrencyLimit(lim.MaxInFlight),
		mdw.MaxBodyBytes(lim.MaxBodyBytes),
		mdw.Timeout(time.Duration(lim.RequestTimeMs)*time.Millisecond),
		mdw.Recovery(d.Log),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	return r
}

// NewAPIEngine 用户端：所有模块挂在根路径，/admin 也保留一份
func NewAPIEngine(d Deps) *gin.Engine {
	r := base(d)

	api := r.Group("")
	d.Registry.MountAPI(api)

	mountAdmin(r, d)
	return r
}

func mountAdmin(r *gin.Engine, d Deps) {
	admin := r.Group("/admin")
	admin.Use(d.Guard, mdw.RequireRole(domain.RoleAdmin))
	d.Registry.MountAdmin(admin)
}
