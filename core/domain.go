package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Provider string

const (
	ProviderFluid    Provider = "fluid"
	ProviderShipHero Provider = "shiphero"
)

const (
	EventDropletInstalled   = "droplet.installed"
	EventDropletUninstalled = "droplet.uninstalled"
	EventOrderCreated       = "order.created"

	EventShipHeroShipmentUpdated      = "shiphero.shipment.updated"
	EventShipHeroInventoryUpdated     = "shiphero.inventory.updated"
	EventShipHeroOrderCanceled        = "shiphero.order.canceled"
	EventShipHeroOrderPacked          = "shiphero.order.packed"
	EventShipHeroOrderAllocated       = "shiphero.order.allocated"
	EventShipHeroOrderDeallocated     = "shiphero.order.deallocated"
	EventShipHeroReturnUpdated        = "shiphero.return.updated"
	EventShipHeroPurchaseOrderUpdated = "shiphero.purchase_order.updated"
)

// Envelope is the unit of work handed from the HTTP boundary to a handler.
// Body is the raw request body, unmodified.
type Envelope struct {
	Event      string
	Provider   Provider
	Version    string
	CompanyID  string
	DeliveryID string
	ReceivedAt time.Time
	Body       json.RawMessage
}

func (e Envelope) Validate() error {
	if strings.TrimSpace(e.Event) == "" {
		return fmt.Errorf("core: envelope event is required")
	}
	if len(bytes.TrimSpace(e.Body)) == 0 {
		return fmt.Errorf("core: envelope body is required")
	}
	return nil
}

// ExternalID decodes identifiers that remote platforms send either as JSON
// numbers or JSON strings.
type ExternalID string

func (id *ExternalID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*id = ExternalID(strings.TrimSpace(value))
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("core: external id must be a string or number: %w", err)
	}
	*id = ExternalID(number.String())
	return nil
}

func (id ExternalID) String() string {
	return strings.TrimSpace(string(id))
}

type CompanyStatus string

const (
	CompanyStatusUninitialized CompanyStatus = "uninitialized"
	CompanyStatusActive        CompanyStatus = "active"
	CompanyStatusInactive      CompanyStatus = "inactive"
)

type Company struct {
	ID                       string
	FluidCompanyID           string
	FluidShop                string
	Name                     string
	AuthenticationToken      string
	WebhookVerificationToken string
	DropletInstallationUUID  string
	CompanyDropletUUID       string
	InstalledCallbackIDs     []string
	Active                   bool
	UninstalledAt            *time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

func (c Company) Status() CompanyStatus {
	switch {
	case strings.TrimSpace(c.ID) == "":
		return CompanyStatusUninitialized
	case c.Active:
		return CompanyStatusActive
	default:
		return CompanyStatusInactive
	}
}

type UpsertCompanyInput struct {
	FluidCompanyID           string
	FluidShop                string
	Name                     string
	AuthenticationToken      string
	WebhookVerificationToken string
	DropletInstallationUUID  string
	CompanyDropletUUID       string
}

func (in UpsertCompanyInput) Validate() error {
	if strings.TrimSpace(in.FluidCompanyID) == "" {
		return fmt.Errorf("core: fluid company id is required")
	}
	return nil
}

// IntegrationSettings holds per-company credentials for both platforms.
type IntegrationSettings struct {
	Username         string `json:"username,omitempty"`
	Password         string `json:"password,omitempty"`
	FluidAPIToken    string `json:"fluid_api_token,omitempty"`
	ShipHeroAPIToken string `json:"shiphero_api_token,omitempty"`
}

type IntegrationSetting struct {
	ID             string
	CompanyID      string
	Settings       IntegrationSettings
	WebhookSecrets map[string]string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (s IntegrationSetting) WebhookSecret(name string) (string, bool) {
	secret, ok := s.WebhookSecrets[strings.TrimSpace(name)]
	if !ok || strings.TrimSpace(secret) == "" {
		return "", false
	}
	return secret, true
}

// Callback is a callback definition registered with the commerce platform
// for every installing company.
type Callback struct {
	ID               string
	Name             string
	URL              string
	TimeoutInSeconds int
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (c Callback) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("core: callback name is required")
	}
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("core: callback url is required")
	}
	if c.TimeoutInSeconds < 0 {
		return fmt.Errorf("core: callback timeout must not be negative")
	}
	return nil
}

const (
	SettingDropletUUID           = "droplet.uuid"
	SettingFluidWebhookAuthToken = "fluid_webhook.auth_token"
	SettingShipHeroDefaultSecret = "shiphero_webhook.default_secret"
)
