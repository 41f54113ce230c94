package handlers

import (
	"encoding/json"
	"strings"

	"github.com/goliatone/go-shipbridge/core"
)

// scalar decodes JSON strings and numbers into their text form.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	var id core.ExternalID
	if err := id.UnmarshalJSON(data); err != nil {
		return err
	}
	*s = scalar(id.String())
	return nil
}

func (s scalar) String() string {
	return strings.TrimSpace(string(s))
}

type companyPayload struct {
	FluidShop                string          `json:"fluid_shop"`
	Name                     string          `json:"name"`
	FluidCompanyID           core.ExternalID `json:"fluid_company_id"`
	AuthenticationToken      string          `json:"authentication_token"`
	WebhookVerificationToken string          `json:"webhook_verification_token"`
	DropletInstallationUUID  string          `json:"droplet_installation_uuid"`
	DropletUUID              string          `json:"droplet_uuid"`
}

type dropletPayload struct {
	Resource string          `json:"resource"`
	Event    string          `json:"event"`
	Company  *companyPayload `json:"company"`
}

type shipToPayload struct {
	Name        string `json:"name"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	State       string `json:"state"`
	StateCode   string `json:"state_code"`
	PostalCode  scalar `json:"postal_code"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}

type orderItemPayload struct {
	SKU      string `json:"sku"`
	Quantity scalar `json:"quantity"`
	Price    scalar `json:"price"`
	Title    string `json:"title"`
}

type orderPayload struct {
	ID          core.ExternalID    `json:"id"`
	OrderNumber scalar             `json:"order_number"`
	CreatedAt   string             `json:"created_at"`
	Tax         scalar             `json:"tax"`
	Subtotal    scalar             `json:"subtotal"`
	Amount      scalar             `json:"amount"`
	Email       string             `json:"email"`
	Phone       string             `json:"phone"`
	ShipTo      *shipToPayload     `json:"ship_to"`
	Items       []orderItemPayload `json:"items"`
}

type orderCreatedPayload struct {
	CompanyID core.ExternalID `json:"company_id"`
	Company   *companyPayload `json:"company"`
	Order     *orderPayload   `json:"order"`
}

func (p orderCreatedPayload) fluidCompanyID() string {
	if id := p.CompanyID.String(); id != "" {
		return id
	}
	if p.Company != nil {
		return p.Company.FluidCompanyID.String()
	}
	return ""
}

type fulfillmentPayload struct {
	PartnerOrderID  scalar `json:"partner_order_id"`
	TrackingNumber  scalar `json:"tracking_number"`
	ShippingCarrier string `json:"shipping_carrier"`
	ShippingMethod  string `json:"shipping_method"`
	Warehouse       string `json:"warehouse"`
	ShipmentID      scalar `json:"shipment_id"`
	OrderNumber     scalar `json:"order_number"`
	CreatedAt       string `json:"created_at"`
}

type shipmentPayload struct {
	WebhookType string              `json:"webhook_type"`
	Fulfillment *fulfillmentPayload `json:"fulfillment"`
	Packages    []json.RawMessage   `json:"packages"`
}
