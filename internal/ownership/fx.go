package ownership

import (
	"github.com/smallbiznis/storefront/internal/ownership/repository"
	"github.com/smallbiznis/storefront/internal/ownership/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ownership.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
