package router

import "github.com/gin-gonic/gin"

// NewAdminEngine 后台端：只挂 /admin
func NewAdminEngine(d Deps) *gin.Engine {
	r := base(d)
	mountAdmin(r, d)
	return r
}
