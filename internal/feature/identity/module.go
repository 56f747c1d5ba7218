package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-api/internal/core/apperr"
	"marketplace-api/internal/core/auth"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/transport/http/ez"
)

// Module 挂载 /auth/*
type Module struct {
	svc   *Service
	jwt   *auth.JWTer
	guard gin.HandlerFunc
}

func NewModule(svc *Service, j *auth.JWTer, guard gin.HandlerFunc) *Module {
	return &Module{svc: svc, jwt: j, guard: guard}
}

func (m *Module) Priority() int { return 10 }

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerOut struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
}

type loginOut struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
	Token  string      `json:"token,omitempty"`
}

func (m *Module) MountAPI(api *gin.RouterGroup) {
	pub := ez.New(api.Group("/auth"))

	ez.RegisterAction(pub, ez.Action[credentials, registerOut]{
		Method:   http.MethodPost,
		Path:     "/register",
		Binder:   ez.BindJSON,
		Status:   http.StatusCreated,
		BadInput: "email/password required",
		Handler: func(c *gin.Context, in *credentials) (registerOut, error) {
			u, err := m.svc.Register(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return registerOut{}, err
			}
			return registerOut{UserID: u.ID, Role: u.Role}, nil
		},
	})

	ez.RegisterAction(pub, ez.Action[credentials, loginOut]{
		Method:   http.MethodPost,
		Path:     "/login",
		Binder:   ez.BindJSON,
		BadInput: "email/password required",
		Handler: func(c *gin.Context, in *credentials) (loginOut, error) {
			u, err := m.svc.Login(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return loginOut{}, err
			}
			out := loginOut{UserID: u.ID, Role: u.Role}
			if m.jwt != nil {
				tok, err := m.jwt.Issue(u.ID, string(u.Role))
				if err != nil {
					return loginOut{}, apperr.Internal("issue token", err)
				}
				out.Token = tok
			}
			return out, nil
		},
	})

	authed := ez.New(api.Group("/auth", m.guard))
	ez.RegisterAction(authed, ez.Action[struct{}, domain.PublicUser]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (domain.PublicUser, error) {
			return m.svc.Me(c.Request.Context(), ez.UserID(c))
		},
	})
}
