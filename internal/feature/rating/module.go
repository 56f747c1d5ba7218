package rating

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

func (m *Module) Priority() int { return 25 }

type rateIn struct {
	Value any `json:"value"`
}

func (m *Module) MountAPI(api *gin.RouterGroup) {
	e := ez.New(api.Group("/products", m.guard))

	ez.RegisterAction(e, ez.Action[rateIn, Result]{
		Method:   http.MethodPost,
		Path:     "/:id/ratings",
		Binder:   ez.BindJSON,
		Roles:    []domain.Role{domain.RoleBuyer, domain.RoleAdmin},
		BadInput: "value must be 1..5",
		Handler: func(c *gin.Context, in *rateIn) (Result, error) {
			v, err := ParseValue(in.Value)
			if err != nil {
				return Result{}, err
			}
			u, _ := ez.Caller(c)
			return m.svc.Rate(c.Request.Context(), u, c.Param("id"), v)
		},
	})
}
