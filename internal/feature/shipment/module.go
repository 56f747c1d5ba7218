package shipment

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

func (m *Module) Priority() int { return 60 }

type createIn struct {
	OrderID string `json:"orderId"`
}

type statusIn struct {
	Status string `json:"status"`
}

func (m *Module) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api.Group("/shipments", m.guard))

	ez.RegisterAction(e, ez.Action[createIn, domain.ShipmentResult]{
		Method:   http.MethodPost,
		Path:     "",
		Binder:   ez.BindJSON,
		Auth:     true,
		Status:   http.StatusCreated,
		BadInput: "orderId required",
		Handler: func(c *gin.Context, in *createIn) (domain.ShipmentResult, error) {
			return m.svc.Create(c.Request.Context(), ez.UserID(c), in.OrderID)
		},
	})
	ez.RegisterAction(e, ez.Action[statusIn, domain.ShipmentResult]{
		Method:   http.MethodPost,
		Path:     "/:id/status",
		Binder:   ez.BindJSON,
		Auth:     true,
		BadInput: "status required",
		Handler: func(c *gin.Context, in *statusIn) (domain.ShipmentResult, error) {
			return m.svc.UpdateStatus(c.Request.Context(), ez.UserID(c), c.Param("id"), in.Status)
		},
	})
}
