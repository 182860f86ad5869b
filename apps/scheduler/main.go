package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/apotek/internal/audit"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/config"
	"github.com/smallbiznis/apotek/internal/ledger"
	"github.com/smallbiznis/apotek/internal/observability"
	"github.com/smallbiznis/apotek/internal/ratelimit"
	"github.com/smallbiznis/apotek/internal/scheduler"
	"github.com/smallbiznis/apotek/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Domain services required by scheduler
		audit.Module,
		ledger.Module,
		ratelimit.Module,

		// No server module!
		fx.Decorate(func(cfg config.Config) config.Config {
			cfg.Scheduler.Enabled = true
			return cfg
		}),
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
