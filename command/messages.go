package command

import (
	"strings"
)

const (
	TypeSetupWebhook  = "shipbridge.command.webhook.setup"
	TypeDeleteWebhook = "shipbridge.command.webhook.delete"
)

// SetupWebhookMessage ensures the shipment webhook exists for a company.
// An empty URL is resolved by the commander from its configured base URL.
type SetupWebhookMessage struct {
	FluidCompanyID string
	URL            string
}

func (SetupWebhookMessage) Type() string { return TypeSetupWebhook }

func (m SetupWebhookMessage) Validate() error {
	if strings.TrimSpace(m.FluidCompanyID) == "" {
		return commandValidationError("fluid_company_id", "fluid company id is required")
	}
	return nil
}

type DeleteWebhookMessage struct {
	FluidCompanyID string
	Name           string
	ShopName       string
}

func (DeleteWebhookMessage) Type() string { return TypeDeleteWebhook }

func (m DeleteWebhookMessage) Validate() error {
	if strings.TrimSpace(m.FluidCompanyID) == "" {
		return commandValidationError("fluid_company_id", "fluid company id is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return commandValidationError("name", "webhook name is required")
	}
	return nil
}
