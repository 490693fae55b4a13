package stripe

import (
	checkoutdomain "github.com/smallbiznis/storefront/internal/checkout/domain"
	"github.com/smallbiznis/storefront/internal/config"
	fulfillmentdomain "github.com/smallbiznis/storefront/internal/fulfillment/domain"
	userdomain "github.com/smallbiznis/storefront/internal/user/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.stripe",
	fx.Provide(provideClient),
	fx.Provide(provideWebhook),
	fx.Provide(func(c *Client) fulfillmentdomain.SessionResolver { return c }),
	fx.Provide(func(c *Client) userdomain.CustomerCreator { return c }),
	fx.Provide(func(c *Client) checkoutdomain.SessionCreator { return c }),
)

func provideClient(cfg config.Config) *Client {
	return NewClient(cfg.StripeAPIBase, cfg.StripeSecretKey)
}

func provideWebhook(cfg config.Config) *Webhook {
	return NewWebhook(cfg.StripeWebhookSecret)
}
