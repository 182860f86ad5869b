package domain

import (
	"context"
	"time"
)

type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Authenticate(ctx context.Context, rawToken string) (*Principal, error)
	CurrentUser(ctx context.Context, principal Principal) (*User, error)
}

type CreateUserRequest struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type LoginRequest struct {
	Email    string
	Password string
}

type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}
