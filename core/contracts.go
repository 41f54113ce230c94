package core

import (
	"context"
	"encoding/json"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type InboundRequest struct {
	Provider Provider
	Headers  map[string]string
	Query    map[string]string
	Body     []byte
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type CompanyStore interface {
	Upsert(ctx context.Context, in UpsertCompanyInput) (Company, error)
	Get(ctx context.Context, id string) (Company, error)
	GetByFluidCompanyID(ctx context.Context, fluidCompanyID string) (Company, error)
	MarkUninstalled(ctx context.Context, fluidCompanyID string, at time.Time) (Company, error)
	SetInstalledCallbackIDs(ctx context.Context, id string, callbackIDs []string) error
}

type IntegrationSettingStore interface {
	GetByCompany(ctx context.Context, companyID string) (IntegrationSetting, error)
	Upsert(ctx context.Context, companyID string, settings IntegrationSettings) (IntegrationSetting, error)
	StoreWebhookSecret(ctx context.Context, companyID string, name string, secret string) error
}

type SettingStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	// ClaimDropletUUID stores value only when no droplet uuid exists yet and
	// returns the stored value together with whether this call stored it.
	ClaimDropletUUID(ctx context.Context, value string) (stored string, claimed bool, err error)
}

type CallbackStore interface {
	ListActive(ctx context.Context) ([]Callback, error)
	Upsert(ctx context.Context, callback Callback) (Callback, error)
}

type CallbackRegistration struct {
	DefinitionName   string `json:"definition_name"`
	URL              string `json:"url"`
	TimeoutInSeconds int    `json:"timeout_in_seconds"`
	Active           bool   `json:"active"`
}

type FluidOrder struct {
	ID          string
	OrderNumber string
	Items       []json.RawMessage
	Raw         json.RawMessage
}

type FluidClient interface {
	RegisterCallback(ctx context.Context, token string, registration CallbackRegistration) (string, error)
	GetOrder(ctx context.Context, token string, orderID string) (FluidOrder, error)
	UpdateExternalID(ctx context.Context, token string, orderID string, externalID string) error
	CreateFulfillment(ctx context.Context, token string, orderID string, items []json.RawMessage, trackingNumber string) error
}

type ShipHeroAddress struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Company     string `json:"company,omitempty"`
	Address1    string `json:"address1,omitempty"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	StateCode   string `json:"state_code,omitempty"`
	Zip         string `json:"zip,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type ShipHeroLineItem struct {
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
	ProductName string `json:"product_name"`
	OptionTitle string `json:"option_title"`
}

type ShipHeroOrder struct {
	OrderNumber     string             `json:"order_number,omitempty"`
	PartnerOrderID  string             `json:"partner_order_id"`
	ShopName        string             `json:"shop_name,omitempty"`
	OrderDate       string             `json:"order_date,omitempty"`
	TotalTax        string             `json:"total_tax,omitempty"`
	Subtotal        string             `json:"subtotal,omitempty"`
	TotalPrice      string             `json:"total_price,omitempty"`
	Email           string             `json:"email,omitempty"`
	ShippingAddress ShipHeroAddress    `json:"shipping_address"`
	LineItems       []ShipHeroLineItem `json:"line_items"`
}

type ShipHeroWebhook struct {
	ID                    string `json:"id,omitempty"`
	Name                  string `json:"name"`
	URL                   string `json:"url"`
	ShopName              string `json:"shop_name,omitempty"`
	Active                bool   `json:"active,omitempty"`
	SharedSignatureSecret string `json:"shared_signature_secret,omitempty"`
}

type ShipHeroClient interface {
	CreateOrder(ctx context.Context, setting IntegrationSetting, order ShipHeroOrder) (string, error)
	ListWebhooks(ctx context.Context, setting IntegrationSetting) ([]ShipHeroWebhook, error)
	CreateWebhook(ctx context.Context, setting IntegrationSetting, webhook ShipHeroWebhook) (ShipHeroWebhook, error)
	DeleteWebhook(ctx context.Context, setting IntegrationSetting, name string, shopName string) error
}

// Handler processes one envelope. Domain and downstream failures are logged
// by the handler and do not surface as errors.
type Handler interface {
	Handle(ctx context.Context, env Envelope) error
}

type HandlerFunc func(ctx context.Context, env Envelope) error

func (f HandlerFunc) Handle(ctx context.Context, env Envelope) error {
	return f(ctx, env)
}
