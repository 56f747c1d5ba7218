// Package admin mounts the moderation endpoints for users, orders and products.
// The group it is mounted on must already require the admin role.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/domain"
	"marketplace-api/internal/feature/catalog"
	"marketplace-api/internal/feature/identity"
	"marketplace-api/internal/feature/order"
	"marketplace-api/internal/transport/http/ez"
)

var adminOnly = []domain.Role{domain.RoleAdmin}

type Module struct {
	users    *identity.Service
	orders   *order.Service
	products *catalog.Service
}

func NewModule(users *identity.Service, orders *order.Service, products *catalog.Service) *Module {
	return &Module{users: users, orders: orders, products: products}
}

// userPatch banned 不是布尔值时忽略
type userPatch struct {
	Banned any `json:"banned"`
}

func (m *Module) MountAdmin(g *gin.RouterGroup) {
	e := ez.New(g)

	// ---------- users ----------
	ez.RegisterAction(e, ez.Action[struct{}, []domain.PublicUser]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindNone,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.PublicUser, error) {
			return m.users.List(c.Request.Context()), nil
		},
	})
	ez.RegisterAction(e, ez.Action[userPatch, domain.PublicUser]{
		Method: http.MethodPatch,
		Path:   "/users/:id",
		Binder: ez.BindJSON,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *userPatch) (domain.PublicUser, error) {
			var banned *bool
			if b, ok := in.Banned.(bool); ok {
				banned = &b
			}
			return m.users.SetBanned(c.Request.Context(), c.Param("id"), banned)
		},
	})

	// ---------- orders ----------
	ez.RegisterAction(e, ez.Action[struct{}, []domain.Order]{
		Method: http.MethodGet,
		Path:   "/orders",
		Binder: ez.BindNone,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Order, error) {
			return m.orders.ListAll(c.Request.Context()), nil
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/orders/:id",
		Binder: ez.BindNone,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			if err := m.orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
				return nil, err
			}
			return gin.H{"ok": true}, nil
		},
	})

	// ---------- products ----------
	ez.RegisterAction(e, ez.Action[struct{}, []domain.Product]{
		Method: http.MethodGet,
		Path:   "/products",
		Binder: ez.BindNone,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Product, error) {
			return m.products.Products(c.Request.Context()), nil
		},
	})
	ez.RegisterAction(e, ez.Action[catalog.AdminPatch, domain.Product]{
		Method: http.MethodPatch,
		Path:   "/products/:id",
		Binder: ez.BindJSON,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, in *catalog.AdminPatch) (domain.Product, error) {
			return m.products.AdminUpdate(c.Request.Context(), c.Param("id"), *in)
		},
	})
	ez.RegisterAction(e, ez.Action[struct{}, gin.H]{
		Method: http.MethodDelete,
		Path:   "/products/:id",
		Binder: ez.BindNone,
		Roles:  adminOnly,
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			if err := m.products.AdminDelete(c.Request.Context(), c.Param("id")); err != nil {
				return nil, err
			}
			return gin.H{"ok": true}, nil
		},
	})
}
