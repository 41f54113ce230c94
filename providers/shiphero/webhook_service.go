package shiphero

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-shipbridge/core"
)

const (
	// WebhookShipmentUpdate is the webhook type the bridge subscribes to.
	WebhookShipmentUpdate = "Shipment Update"
	DefaultShopName       = core.DefaultWebhookShopName
)

// WebhookService manages the fulfillment platform webhooks of one company.
type WebhookService struct {
	Client       core.ShipHeroClient
	Integrations core.IntegrationSettingStore
	// Settings, when set, receives the first created secret as the default
	// signing secret used to verify inbound deliveries.
	Settings core.SettingStore
	ShopName string
	Logger   core.Logger
}

type CheckResult struct {
	Configured bool
	Message    string
	Webhook    *core.ShipHeroWebhook
	All        []core.ShipHeroWebhook
}

type SetupResult struct {
	Created bool
	Message string
	Webhook core.ShipHeroWebhook
}

func (s WebhookService) List(ctx context.Context, company core.Company) ([]core.ShipHeroWebhook, error) {
	setting, err := s.setting(ctx, company)
	if err != nil {
		return nil, err
	}
	return s.Client.ListWebhooks(ctx, setting)
}

// CheckRequired reports whether an active webhook already delivers to
// webhookURL.
func (s WebhookService) CheckRequired(ctx context.Context, company core.Company, webhookURL string) (CheckResult, error) {
	webhooks, err := s.List(ctx, company)
	if err != nil {
		return CheckResult{Message: "failed to fetch webhooks"}, err
	}
	for i := range webhooks {
		if webhooks[i].URL == webhookURL && webhooks[i].Active {
			found := webhooks[i]
			return CheckResult{
				Configured: true,
				Message:    "webhook is already configured",
				Webhook:    &found,
				All:        webhooks,
			}, nil
		}
	}
	return CheckResult{
		Configured: false,
		Message:    "webhook url not found or inactive",
		All:        webhooks,
	}, nil
}

// Setup creates the shipment update webhook unless an active one already
// targets webhookURL. The shared signature secret is stored before
// returning because the platform never discloses it again.
func (s WebhookService) Setup(ctx context.Context, company core.Company, webhookURL string) (SetupResult, error) {
	webhookURL = strings.TrimSpace(webhookURL)
	if webhookURL == "" {
		return SetupResult{}, core.NewError("shiphero: webhook url is required", goerrors.CategoryBadInput, core.ErrorBadInput, nil)
	}
	check, err := s.CheckRequired(ctx, company, webhookURL)
	if err != nil {
		return SetupResult{Message: check.Message}, err
	}
	if check.Configured && check.Webhook != nil {
		return SetupResult{Message: "webhooks already configured", Webhook: *check.Webhook}, nil
	}

	setting, err := s.setting(ctx, company)
	if err != nil {
		return SetupResult{}, err
	}
	created, err := s.Client.CreateWebhook(ctx, setting, core.ShipHeroWebhook{
		Name:     WebhookShipmentUpdate,
		URL:      webhookURL,
		ShopName: s.shopName(),
	})
	if err != nil {
		return SetupResult{Message: "failed to create webhook"}, err
	}

	result := SetupResult{Created: true, Message: "webhook created successfully", Webhook: created}
	if secret := strings.TrimSpace(created.SharedSignatureSecret); secret != "" {
		if err := s.storeSecret(ctx, company, created.Name, secret); err != nil {
			result.Message = "webhook created but its secret could not be stored"
			return result, err
		}
	} else {
		s.logger().Warn("created webhook without shared signature secret",
			"company_id", company.FluidCompanyID,
			"webhook_name", created.Name,
		)
	}
	return result, nil
}

func (s WebhookService) Delete(ctx context.Context, company core.Company, name string, shopName string) error {
	if strings.TrimSpace(name) == "" {
		return core.NewError("shiphero: webhook name is required", goerrors.CategoryBadInput, core.ErrorBadInput, nil)
	}
	if strings.TrimSpace(shopName) == "" {
		shopName = s.shopName()
	}
	setting, err := s.setting(ctx, company)
	if err != nil {
		return err
	}
	return s.Client.DeleteWebhook(ctx, setting, name, shopName)
}

func (s WebhookService) storeSecret(ctx context.Context, company core.Company, name string, secret string) error {
	if err := s.Integrations.StoreWebhookSecret(ctx, company.ID, name, secret); err != nil {
		s.logger().Error("failed to store webhook secret",
			"company_id", company.FluidCompanyID,
			"webhook_name", name,
			"error", err,
		)
		return core.WrapError(err, goerrors.CategoryInternal, "shiphero: store webhook secret", core.ErrorInternal, nil)
	}
	s.logger().Info("stored webhook secret", "company_id", company.FluidCompanyID, "webhook_name", name)

	if s.Settings == nil {
		return nil
	}
	if current, ok, err := s.Settings.Get(ctx, core.SettingShipHeroDefaultSecret); err != nil {
		return core.WrapError(err, goerrors.CategoryInternal, "shiphero: read default webhook secret", core.ErrorInternal, nil)
	} else if ok && strings.TrimSpace(current) != "" {
		return nil
	}
	if err := s.Settings.Set(ctx, core.SettingShipHeroDefaultSecret, secret); err != nil {
		return core.WrapError(err, goerrors.CategoryInternal, "shiphero: store default webhook secret", core.ErrorInternal, nil)
	}
	return nil
}

func (s WebhookService) setting(ctx context.Context, company core.Company) (core.IntegrationSetting, error) {
	if s.Client == nil || s.Integrations == nil {
		return core.IntegrationSetting{}, core.NewError("shiphero: webhook service is not configured", goerrors.CategoryInternal, core.ErrorInternal, nil)
	}
	if strings.TrimSpace(company.ID) == "" {
		return core.IntegrationSetting{}, core.NotFoundError("shiphero: company is required", nil)
	}
	return s.Integrations.GetByCompany(ctx, company.ID)
}

func (s WebhookService) shopName() string {
	if trimmed := strings.TrimSpace(s.ShopName); trimmed != "" {
		return trimmed
	}
	return DefaultShopName
}

func (s WebhookService) logger() core.Logger {
	if s.Logger == nil {
		return glog.Nop()
	}
	return s.Logger
}

// WebhookURLForCompany appends the company_id query parameter deliveries are
// attributed by.
func WebhookURLForCompany(base string, fluidCompanyID string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(base))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", core.NewError(fmt.Sprintf("shiphero: invalid webhook url %q", base), goerrors.CategoryBadInput, core.ErrorBadInput, nil)
	}
	if trimmed := strings.TrimSpace(fluidCompanyID); trimmed != "" {
		query := parsed.Query()
		query.Set("company_id", trimmed)
		parsed.RawQuery = query.Encode()
	}
	return parsed.String(), nil
}
