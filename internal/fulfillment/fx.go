package fulfillment

import (
	"github.com/smallbiznis/storefront/internal/fulfillment/repository"
	"github.com/smallbiznis/storefront/internal/fulfillment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("fulfillment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
