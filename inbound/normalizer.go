package inbound

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/goliatone/go-shipbridge/core"
)

var shipHeroEvents = map[string]string{
	"Shipment Update":   core.EventShipHeroShipmentUpdated,
	"Inventory Update":  core.EventShipHeroInventoryUpdated,
	"Inventory Change":  core.EventShipHeroInventoryUpdated,
	"Order Canceled":    core.EventShipHeroOrderCanceled,
	"Order Packed Out":  core.EventShipHeroOrderPacked,
	"Order Allocated":   core.EventShipHeroOrderAllocated,
	"Order Deallocated": core.EventShipHeroOrderDeallocated,
	"Return Update":     core.EventShipHeroReturnUpdated,
	"Purchase Order":    core.EventShipHeroPurchaseOrderUpdated,
}

// ShipHeroEventName maps a fulfillment webhook_type to its canonical event.
// Unknown types report false.
func ShipHeroEventName(webhookType string) (string, bool) {
	event, ok := shipHeroEvents[webhookType]
	return event, ok
}

func FluidEventName(resource string, event string) string {
	return strings.TrimSpace(resource) + "." + strings.TrimSpace(event)
}

// Normalized is the routing view of an inbound body.
type Normalized struct {
	Provider       core.Provider
	Event          string
	Resource       string
	Action         string
	Version        string
	WebhookType    string
	FluidCompanyID string
	DropletUUID    string
}

func (n Normalized) IsDropletInstallation() bool {
	return n.Provider == core.ProviderFluid &&
		n.Resource == "droplet" &&
		(n.Action == "installed" || n.Action == "uninstalled")
}

// Matched reports whether the body maps to a canonical event name.
func (n Normalized) Matched() bool {
	return n.Event != ""
}

type rawBody struct {
	Resource    string          `json:"resource"`
	Event       string          `json:"event"`
	Version     json.RawMessage `json:"version"`
	WebhookType string          `json:"webhook_type"`
	Fulfillment json.RawMessage `json:"fulfillment"`
	Company     *struct {
		FluidCompanyID core.ExternalID `json:"fluid_company_id"`
		DropletUUID    string          `json:"droplet_uuid"`
	} `json:"company"`
}

// Normalize detects the provider of body and derives its canonical event.
// Query values fill resource, event and version when the body omits them.
func Normalize(body []byte, query map[string]string) (Normalized, error) {
	var raw rawBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return Normalized{}, inboundBadInput("inbound: malformed json body", map[string]any{"error": err.Error()})
	}

	if strings.TrimSpace(raw.WebhookType) != "" && present(raw.Fulfillment) {
		out := Normalized{Provider: core.ProviderShipHero, WebhookType: raw.WebhookType}
		out.Event, _ = ShipHeroEventName(raw.WebhookType)
		return out, nil
	}

	out := Normalized{
		Provider: core.ProviderFluid,
		Resource: firstNonEmpty(raw.Resource, query["resource"]),
		Action:   firstNonEmpty(raw.Event, query["event"]),
		Version:  firstNonEmpty(scalarString(raw.Version), query["version"]),
	}
	if raw.Company != nil {
		out.FluidCompanyID = raw.Company.FluidCompanyID.String()
		out.DropletUUID = strings.TrimSpace(raw.Company.DropletUUID)
	}
	if out.Resource != "" && out.Action != "" {
		out.Event = FluidEventName(out.Resource, out.Action)
	}
	return out, nil
}

// present mirrors "non-blank": null, false, empty strings, objects and
// arrays are absent.
func present(value json.RawMessage) bool {
	trimmed := bytes.TrimSpace(value)
	switch string(trimmed) {
	case "", "null", "false", `""`, "{}", "[]":
		return false
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err == nil {
			return strings.TrimSpace(text) != ""
		}
	}
	return true
}

func scalarString(value json.RawMessage) string {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	var id core.ExternalID
	if err := json.Unmarshal(trimmed, &id); err != nil {
		return ""
	}
	return id.String()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
