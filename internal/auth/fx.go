package auth

import (
	"github.com/smallbiznis/apotek/internal/auth/repository"
	"github.com/smallbiznis/apotek/internal/auth/service"
	"github.com/smallbiznis/apotek/internal/auth/token"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(newTokenIssuer),
	fx.Provide(service.New),
)

func newTokenIssuer(cfg config.Config, c clock.Clock) (*token.Issuer, error) {
	return token.NewIssuer(cfg.AuthJWTSecret, cfg.AuthTokenTTL, c.Now)
}
