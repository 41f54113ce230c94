package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-shipbridge/providers/shiphero"
)

var (
	_ gocmd.Commander[SetupWebhookMessage]  = (*SetupWebhookCommand)(nil)
	_ gocmd.Commander[DeleteWebhookMessage] = (*DeleteWebhookCommand)(nil)
	_ WebhookAdministrator                  = shiphero.WebhookService{}
)
