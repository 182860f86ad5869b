package ledger

import (
	"github.com/smallbiznis/apotek/internal/ledger/repository"
	"github.com/smallbiznis/apotek/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewLedger),
	fx.Provide(service.New),
)
