// Package identity registers and authenticates users and resolves the caller
// of each request.
package identity

import (
	"context"
	"time"

	"go.uber.org/zap"

	"marketplace-api/internal/core/apperr"
	"marketplace-api/internal/core/store"
	"marketplace-api/internal/domain"
)

var now = func() time.Time { return time.Now().UTC() }

type Service struct {
	st  *store.Store
	log *zap.Logger
}

func NewService(st *store.Store, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{st: st, log: l.Named("identity")}
}

// Register 新用户一律为 buyer；email 原样保存，精确匹配判重
func (s *Service) Register(ctx context.Context, email, password string) (domain.User, error) {
	if email == "" || password == "" {
		return domain.User{}, apperr.Validation("email/password required")
	}

	unlock := s.st.Lock(domain.Users)
	defer unlock()

	users := store.LoadAll[domain.User](ctx, s.st, domain.Users)
	for _, u := range users {
		if u.Email == email {
			return domain.User{}, apperr.Conflict("email exists")
		}
	}
	maxSeq := store.MaxSeq(store.IDs(users, func(u domain.User) string { return u.ID }), "")
	u := domain.User{
		ID:        store.NextID(domain.PrefixUser, maxSeq),
		Email:     email,
		Password:  password,
		Role:      domain.RoleBuyer,
		CreatedAt: now(),
	}
	users = append(users, u)
	if err := store.SaveAll(ctx, s.st, domain.Users, users); err != nil {
		return domain.User{}, apperr.Internal("save user", err)
	}
	s.log.Info("user registered", zap.String("user_id", u.ID))
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (domain.User, error) {
	if email == "" || password == "" {
		return domain.User{}, apperr.Validation("email/password required")
	}
	for _, u := range store.LoadAll[domain.User](ctx, s.st, domain.Users) {
		if u.Email != email || u.Password != password {
			continue
		}
		if u.Banned {
			return domain.User{}, apperr.Forbidden("user banned")
		}
		return u, nil
	}
	return domain.User{}, apperr.Unauthorized("bad credentials")
}

// Resolve 实现 middleware.CallerResolver
func (s *Service) Resolve(ctx context.Context, userID string) (domain.Caller, error) {
	if userID == "" {
		return domain.Caller{}, apperr.Unauthorized("unauthorized")
	}
	u, ok := s.find(ctx, userID)
	if !ok {
		return domain.Caller{}, apperr.Unauthorized("user not found")
	}
	if u.Banned {
		return domain.Caller{}, apperr.Forbidden("user banned")
	}
	return domain.Caller{ID: u.ID, Email: u.Email, Role: u.Role, Banned: u.Banned}, nil
}

func (s *Service) Me(ctx context.Context, userID string) (domain.PublicUser, error) {
	u, ok := s.find(ctx, userID)
	if !ok {
		return domain.PublicUser{}, apperr.NotFound("user not found")
	}
	return u.Public(), nil
}

// List 管理端用户列表，不含密码
func (s *Service) List(ctx context.Context) []domain.PublicUser {
	users := store.LoadAll[domain.User](ctx, s.st, domain.Users)
	out := make([]domain.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}

// SetBanned banned 为 nil 时只返回当前用户
func (s *Service) SetBanned(ctx context.Context, userID string, banned *bool) (domain.PublicUser, error) {
	unlock := s.st.Lock(domain.Users)
	defer unlock()

	users := store.LoadAll[domain.User](ctx, s.st, domain.Users)
	for i := range users {
		if users[i].ID != userID {
			continue
		}
		if banned == nil {
			return users[i].Public(), nil
		}
		users[i].Banned = *banned
		if err := store.SaveAll(ctx, s.st, domain.Users, users); err != nil {
			return domain.PublicUser{}, apperr.Internal("save user", err)
		}
		s.log.Info("user ban updated", zap.String("user_id", userID), zap.Bool("banned", *banned))
		return users[i].Public(), nil
	}
	return domain.PublicUser{}, apperr.NotFound("user not found")
}

// EnsureUser 启动时补齐引导账号；已存在则不动
func (s *Service) EnsureUser(ctx context.Context, email, password string, role domain.Role) (domain.User, error) {
	unlock := s.st.Lock(domain.Users)
	defer unlock()

	users := store.LoadAll[domain.User](ctx, s.st, domain.Users)
	for _, u := range users {
		if u.Email == email {
			return u, nil
		}
	}
	maxSeq := store.MaxSeq(store.IDs(users, func(u domain.User) string { return u.ID }), "")
	u := domain.User{
		ID:        store.NextID(domain.PrefixUser, maxSeq),
		Email:     email,
		Password:  password,
		Role:      role,
		CreatedAt: now(),
	}
	if err := store.SaveAll(ctx, s.st, domain.Users, append(users, u)); err != nil {
		return domain.User{}, apperr.Internal("save user", err)
	}
	s.log.Info("bootstrap user created", zap.String("user_id", u.ID), zap.String("role", string(role)))
	return u, nil
}

func (s *Service) find(ctx context.Context, userID string) (domain.User, bool) {
	for _, u := range store.LoadAll[domain.User](ctx, s.st, domain.Users) {
		if u.ID == userID {
			return u, true
		}
	}
	return domain.User{}, false
}
