package supplier

import (
	"github.com/smallbiznis/apotek/internal/supplier/repository"
	"github.com/smallbiznis/apotek/internal/supplier/service"
	"go.uber.org/fx"
)

var Module = fx.Module("supplier.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
