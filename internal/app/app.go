// Package app wires configuration, storage and feature modules into the two
// HTTP engines.
package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"marketplace-api/internal/core/auth"
	"marketplace-api/internal/core/cache"
	"marketplace-api/internal/core/config"
	"marketplace-api/internal/core/store"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/feature/admin"
	"marketplace-api/internal/feature/cart"
	"marketplace-api/internal/feature/catalog"
	"marketplace-api/internal/feature/identity"
	"marketplace-api/internal/feature/order"
	"marketplace-api/internal/feature/payment"
	"marketplace-api/internal/feature/rating"
	"marketplace-api/internal/feature/shipment"
	mdw "marketplace-api/internal/transport/http/middleware"
	"marketplace-api/internal/transport/http/router"
)

type App struct {
	Config   *config.Config
	Log      *zap.Logger
	Store    *store.Store
	Cache    *cache.Cache
	JWT      *auth.JWTer
	Identity *identity.Service

	deps router.Deps
}

// New 打开存储与缓存并注册所有模块
func New(cfg *config.Config, l *zap.Logger) (*App, error) {
	st, err := store.Open(cfg.Store, l)
	if err != nil {
		return nil, err
	}
	return NewWithStore(cfg, l, st), nil
}

// NewWithStore 测试可直接传入文件存储
func NewWithStore(cfg *config.Config, l *zap.Logger, st *store.Store) *App {
	if l == nil {
		l = zap.NewNop()
	}
	c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, l)
	j := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	users := identity.NewService(st, l)
	products := catalog.NewService(st, c, time.Duration(cfg.Redis.CatalogTTL)*time.Second, l)
	orders := order.NewService(st, l)
	guard := mdw.RequireUser(users, j)

	reg := router.NewRegistry(
		identity.NewModule(users, j, guard),
		catalog.NewModule(products, guard),
		rating.NewModule(rating.NewService(st, products, l), guard),
		cart.NewModule(cart.NewService(st, products, l), guard),
		order.NewModule(orders, guard),
		payment.NewModule(payment.NewService(st, l), guard),
		shipment.NewModule(shipment.NewService(st, l), guard),
		admin.NewModule(users, orders, products),
	)

	return &App{
		Config:   cfg,
		Log:      l,
		Store:    st,
		Cache:    c,
		JWT:      j,
		Identity: users,
		deps: router.Deps{
			Log:      l,
			Limits:   cfg.Limits,
			Registry: reg,
			Guard:    guard,
		},
	}
}

func (a *App) APIEngine() *gin.Engine   { return router.NewAPIEngine(a.deps) }
func (a *App) AdminEngine() *gin.Engine { return router.NewAdminEngine(a.deps) }

// Bootstrap 配置了引导管理员时确保其存在
func (a *App) Bootstrap(ctx context.Context) error {
	b := a.Config.Bootstrap
	if b.AdminEmail == "" || b.AdminPassword == "" {
		return nil
	}
	_, err := a.Identity.EnsureUser(ctx, b.AdminEmail, b.AdminPassword, domain.RoleAdmin)
	return err
}

func (a *App) Close() error {
	return a.Cache.Close()
}
