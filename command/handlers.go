package command

import (
	"context"
	"strings"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/goliatone/go-shipbridge/providers/shiphero"
)

type WebhookAdministrator interface {
	Setup(ctx context.Context, company core.Company, webhookURL string) (shiphero.SetupResult, error)
	Delete(ctx context.Context, company core.Company, name string, shopName string) error
}

type CompanyReader interface {
	GetByFluidCompanyID(ctx context.Context, fluidCompanyID string) (core.Company, error)
}

// SetupWebhookCommand stores its shiphero.SetupResult in the result
// collector carried by ctx, when present.
type SetupWebhookCommand struct {
	service   WebhookAdministrator
	companies CompanyReader
	baseURL   string
}

func NewSetupWebhookCommand(service WebhookAdministrator, companies CompanyReader, baseURL string) *SetupWebhookCommand {
	return &SetupWebhookCommand{service: service, companies: companies, baseURL: strings.TrimSpace(baseURL)}
}

func (c *SetupWebhookCommand) Execute(ctx context.Context, msg SetupWebhookMessage) error {
	if c == nil || c.service == nil || c.companies == nil {
		return commandDependencyError("command: webhook setup service is required")
	}
	company, err := c.companies.GetByFluidCompanyID(ctx, strings.TrimSpace(msg.FluidCompanyID))
	if err != nil {
		return err
	}
	webhookURL := strings.TrimSpace(msg.URL)
	if webhookURL == "" {
		if c.baseURL == "" {
			return commandInvalidInputError("command: webhook url is required")
		}
		webhookURL, err = shiphero.WebhookURLForCompany(c.baseURL, company.FluidCompanyID)
		if err != nil {
			return commandWrapValidation(err, "command: invalid webhook url")
		}
	}
	out, err := c.service.Setup(ctx, company, webhookURL)
	storeResult(ctx, out)
	return err
}

type DeleteWebhookCommand struct {
	service   WebhookAdministrator
	companies CompanyReader
}

func NewDeleteWebhookCommand(service WebhookAdministrator, companies CompanyReader) *DeleteWebhookCommand {
	return &DeleteWebhookCommand{service: service, companies: companies}
}

func (c *DeleteWebhookCommand) Execute(ctx context.Context, msg DeleteWebhookMessage) error {
	if c == nil || c.service == nil || c.companies == nil {
		return commandDependencyError("command: webhook delete service is required")
	}
	company, err := c.companies.GetByFluidCompanyID(ctx, strings.TrimSpace(msg.FluidCompanyID))
	if err != nil {
		return err
	}
	return c.service.Delete(ctx, company, strings.TrimSpace(msg.Name), strings.TrimSpace(msg.ShopName))
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
