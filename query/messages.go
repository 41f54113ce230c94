package query

import (
	"strings"
)

const (
	TypeListWebhooks = "shipbridge.query.webhooks.list"
	TypeCheckWebhook = "shipbridge.query.webhooks.check"
)

type ListWebhooksMessage struct {
	FluidCompanyID string
}

func (ListWebhooksMessage) Type() string { return TypeListWebhooks }

func (m ListWebhooksMessage) Validate() error {
	if strings.TrimSpace(m.FluidCompanyID) == "" {
		return queryValidationError("fluid_company_id", "fluid company id is required")
	}
	return nil
}

// CheckWebhookMessage asks whether an active webhook points at URL.
type CheckWebhookMessage struct {
	FluidCompanyID string
	URL            string
}

func (CheckWebhookMessage) Type() string { return TypeCheckWebhook }

func (m CheckWebhookMessage) Validate() error {
	if strings.TrimSpace(m.FluidCompanyID) == "" {
		return queryValidationError("fluid_company_id", "fluid company id is required")
	}
	if strings.TrimSpace(m.URL) == "" {
		return queryValidationError("url", "webhook url is required")
	}
	return nil
}
