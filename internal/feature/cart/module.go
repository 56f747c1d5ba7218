package cart

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

func (m *Module) Priority() int { return 30 }

type addItemIn struct {
	SkuID string `json:"skuId"`
	Qty   int    `json:"qty"`
}

func (m *Module) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api.Group("/cart", m.guard))

	ez.RegisterAction(e, ez.Action[struct{}, domain.Cart]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (domain.Cart, error) {
			return m.svc.GetOrCreate(c.Request.Context(), ez.UserID(c))
		},
	})
	ez.RegisterAction(e, ez.Action[addItemIn, domain.Cart]{
		Method:   http.MethodPost,
		Path:     "/items",
		Binder:   ez.BindJSON,
		Auth:     true,
		Status:   http.StatusCreated,
		BadInput: "skuId, qty >= 1 required",
		Handler: func(c *gin.Context, in *addItemIn) (domain.Cart, error) {
			return m.svc.AddItem(c.Request.Context(), ez.UserID(c), in.SkuID, in.Qty)
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, domain.Cart]{
		Method: http.MethodDelete,
		Path:   "/items/:itemId",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (domain.Cart, error) {
			return m.svc.RemoveItem(c.Request.Context(), ez.UserID(c), c.Param("itemId"))
		},
	})
}
