package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/apotek/internal/auth/domain"
	"github.com/smallbiznis/apotek/internal/auth/password"
	"github.com/smallbiznis/apotek/internal/auth/token"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const minPasswordLength = 8

type Params struct {
	fx.In

	Log    *zap.Logger
	Repo   domain.Repository
	GenID  *snowflake.Node
	Tokens *token.Issuer
	Clock  clock.Clock
}

type Service struct {
	log    *zap.Logger
	repo   domain.Repository
	genID  *snowflake.Node
	tokens *token.Issuer
	clock  clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		log:    p.Log.Named("auth.service"),
		repo:   p.Repo,
		genID:  p.GenID,
		tokens: p.Tokens,
		clock:  p.Clock,
	}
}

func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if len(strings.TrimSpace(req.Password)) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = domain.RoleStaff
	}
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidRole
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultDisplayName(email)
	}
	now := s.clock.Now()
	user := &domain.User{
		ID:           s.genID.Generate(),
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}

	s.log.Info("user created", zap.String("user_id", user.ID.String()), zap.String("role", role))
	return user, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(req.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	if password.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, req.Password)
	}

	raw, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &domain.LoginResult{
		AccessToken: raw,
		TokenType:   token.TokenType,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

func (s *Service) rehash(ctx context.Context, user *domain.User, plain string) {
	hashed, err := password.Hash(plain)
	if err != nil {
		s.log.Warn("password rehash failed", zap.Error(err))
		return
	}
	if err := s.repo.UpdateFields(ctx, user.ID, map[string]any{
		"password_hash": hashed,
		"updated_at":    s.clock.Now(),
	}); err != nil {
		s.log.Warn("password rehash not persisted", zap.String("user_id", user.ID.String()), zap.Error(err))
		return
	}
	user.PasswordHash = hashed
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Principal, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, domain.ErrInvalidToken
	}

	claims, err := s.tokens.Parse(rawToken)
	if err != nil {
		return nil, err
	}

	id, err := snowflake.ParseString(claims.Subject)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}

	return &domain.Principal{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}

func (s *Service) CurrentUser(ctx context.Context, principal domain.Principal) (*domain.User, error) {
	return s.repo.FindByID(ctx, principal.UserID)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", domain.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}

func defaultDisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
