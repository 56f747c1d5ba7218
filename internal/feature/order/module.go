package order

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/domain"
	"marketplace-api/internal/transport/http/ez"
)

type Module struct {
	svc   *Service
	guard gin.HandlerFunc
}

func NewModule(svc *Service, guard gin.HandlerFunc) *Module {
	return &Module{svc: svc, guard: guard}
}

func (m *Module) Priority() int { return 40 }

func (m *Module) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api.Group("/orders", m.guard))

	ez.RegisterAction(e, ez.Action[struct{}, []domain.Order]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Order, error) {
			return m.svc.List(c.Request.Context(), ez.UserID(c)), nil
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, domain.Order]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindNone,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, _ *struct{}) (domain.Order, error) {
			return m.svc.PlaceOrder(c.Request.Context(), ez.UserID(c))
		},
	})
}
