package payment

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

func (m *Module) Priority() int { return 50 }

type intentIn struct {
	OrderID string `json:"orderId"`
}

func (m *Module) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api.Group("/payments", m.guard))

	ez.RegisterAction(e, ez.Action[intentIn, domain.PaymentIntent]{
		Method:   http.MethodPost,
		Path:     "/intents",
		Binder:   ez.BindJSON,
		Auth:     true,
		Status:   http.StatusCreated,
		BadInput: "orderId required",
		Handler: func(c *gin.Context, in *intentIn) (domain.PaymentIntent, error) {
			return m.svc.CreateIntent(c.Request.Context(), ez.UserID(c), in.OrderID)
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, domain.PaymentConfirmation]{
		Method: http.MethodPost,
		Path:   "/intents/:id/confirm",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (domain.PaymentConfirmation, error) {
			return m.svc.ConfirmIntent(c.Request.Context(), ez.UserID(c), c.Param("id"))
		},
	})
}
