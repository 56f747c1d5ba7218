package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/domain"
	"marketplace-api/internal/transport/http/ez"
)

var sellerRoles = []domain.Role{domain.RoleSeller, domain.RoleAdmin}

// Module 挂载 /products、/skus、/seller/products
type Module struct {
	svc   *Service
	guard gin.HandlerFunc
}

func NewModule(svc *Service, guard gin.HandlerFunc) *Module {
	return &Module{svc: svc, guard: guard}
}

func (m *Module) Priority() int { return 20 }

func (m *Module) MountAPI(api *gin.RouterGroup) {
	pub := ez.New(api)

	ez.RegisterAction(pub, ez.Action[struct{}, []domain.ProductCard]{
		Method: http.MethodGet,
		Path:   "/products",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.ProductCard, error) {
			return m.svc.ListActive(c.Request.Context())
		},
	})
	ez.RegisterAction(pub, ez.Action[struct{}, domain.ProductDetail]{
		Method: http.MethodGet,
		Path:   "/products/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (domain.ProductDetail, error) {
			return m.svc.Get(c.Request.Context(), c.Param("id"))
		},
	})
	ez.RegisterAction(pub, ez.Action[struct{}, []domain.Sku]{
		Method: http.MethodGet,
		Path:   "/skus",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Sku, error) {
			return m.svc.Skus(c.Request.Context()), nil
		},
	})
	ez.RegisterAction(pub, ez.Action[struct{}, domain.Sku]{
		Method: http.MethodGet,
		Path:   "/skus/:id",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (domain.Sku, error) {
			return m.svc.Sku(c.Request.Context(), c.Param("id"))
		},
	})

	seller := ez.New(api.Group("/seller", m.guard))

	ez.RegisterAction(seller, ez.Action[struct{}, []domain.Product]{
		Method: http.MethodGet,
		Path:   "/products",
		Binder: ez.BindNone,
		Roles:  sellerRoles,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Product, error) {
			u, _ := ez.Caller(c)
			return m.svc.SellerProducts(c.Request.Context(), u), nil
		},
	})
	ez.RegisterAction(seller, ez.Action[ProductInput, domain.ProductWithSkus]{
		Method:   http.MethodPost,
		Path:     "/products",
		Binder:   ez.BindJSON,
		Roles:    sellerRoles,
		Status:   http.StatusCreated,
		BadInput: "title/category required",
		Handler: func(c *gin.Context, in *ProductInput) (domain.ProductWithSkus, error) {
			u, _ := ez.Caller(c)
			return m.svc.Create(c.Request.Context(), u, *in)
		},
	})
	ez.RegisterAction(seller, ez.Action[ProductPatch, domain.ProductWithSkus]{
		Method: http.MethodPut,
		Path:   "/products/:id",
		Binder: ez.BindJSON,
		Roles:  sellerRoles,
		Handler: func(c *gin.Context, in *ProductPatch) (domain.ProductWithSkus, error) {
			u, _ := ez.Caller(c)
			return m.svc.Update(c.Request.Context(), u, c.Param("id"), *in)
		},
	})
	ez.RegisterAction(seller, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/products/:id",
		Binder: ez.BindNone,
		Roles:  sellerRoles,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			u, _ := ez.Caller(c)
			if err := m.svc.Delete(c.Request.Context(), u, c.Param("id")); err != nil {
				return nil, err
			}
			return gin.H{"ok": true}, nil
		},
	})
}
