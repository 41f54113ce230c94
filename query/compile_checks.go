package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/goliatone/go-shipbridge/providers/shiphero"
)

var (
	_ gocmd.Querier[ListWebhooksMessage, []core.ShipHeroWebhook] = (*ListWebhooksQuery)(nil)
	_ gocmd.Querier[CheckWebhookMessage, shiphero.CheckResult]   = (*CheckWebhookQuery)(nil)
	_ WebhookReader                                              = shiphero.WebhookService{}
)
