package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/apotek/internal/clock"
	"github.com/smallbiznis/apotek/internal/config"
	"github.com/smallbiznis/apotek/internal/migration"
	"github.com/smallbiznis/apotek/internal/observability"
	"github.com/smallbiznis/apotek/internal/scheduler"
	"github.com/smallbiznis/apotek/internal/server"
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
		migration.Module,

		server.Module,

		// Runs in-process only when SCHEDULER_ENABLED is set.
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
