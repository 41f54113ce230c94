package inbound

import (
	"testing"

	"github.com/goliatone/go-shipbridge/core"
)

func TestShipHeroEventNameTable(t *testing.T) {
	cases := map[string]string{
		"Shipment Update":   "shiphero.shipment.updated",
		"Inventory Update":  "shiphero.inventory.updated",
		"Inventory Change":  "shiphero.inventory.updated",
		"Order Canceled":    "shiphero.order.canceled",
		"Order Packed Out":  "shiphero.order.packed",
		"Order Allocated":   "shiphero.order.allocated",
		"Order Deallocated": "shiphero.order.deallocated",
		"Return Update":     "shiphero.return.updated",
		"Purchase Order":    "shiphero.purchase_order.updated",
	}
	for webhookType, want := range cases {
		got, ok := ShipHeroEventName(webhookType)
		if !ok || got != want {
			t.Fatalf("expected %q -> %q, got %q (%v)", webhookType, want, got, ok)
		}
	}
	for _, unknown := range []string{"Tote Complete", "shipment update", ""} {
		if _, ok := ShipHeroEventName(unknown); ok {
			t.Fatalf("expected %q to be unmapped", unknown)
		}
	}
}

func TestNormalizeFluidBody(t *testing.T) {
	body := []byte(`{"resource":"order","event":"created","version":2,"company":{"fluid_company_id":42,"droplet_uuid":"d-1"}}`)
	normalized, err := Normalize(body, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if normalized.Provider != core.ProviderFluid {
		t.Fatalf("expected fluid provider, got %q", normalized.Provider)
	}
	if normalized.Event != core.EventOrderCreated {
		t.Fatalf("expected order.created, got %q", normalized.Event)
	}
	if normalized.Version != "2" {
		t.Fatalf("expected version 2, got %q", normalized.Version)
	}
	if normalized.FluidCompanyID != "42" || normalized.DropletUUID != "d-1" {
		t.Fatalf("expected company fields, got %#v", normalized)
	}
	if normalized.IsDropletInstallation() {
		t.Fatalf("order event must not be a droplet installation")
	}
}

func TestNormalizeDropletInstallation(t *testing.T) {
	for _, action := range []string{"installed", "uninstalled"} {
		normalized, err := Normalize([]byte(`{"resource":"droplet","event":"`+action+`"}`), nil)
		if err != nil {
			t.Fatalf("normalize: %v", err)
		}
		if !normalized.IsDropletInstallation() {
			t.Fatalf("expected droplet.%s to be an installation event", action)
		}
	}
	normalized, _ := Normalize([]byte(`{"resource":"droplet","event":"updated"}`), nil)
	if normalized.IsDropletInstallation() {
		t.Fatalf("expected droplet.updated to use token verification")
	}
}

func TestNormalizeUsesQueryFallback(t *testing.T) {
	normalized, err := Normalize([]byte(`{"order":{}}`), map[string]string{"resource": "order", "event": "created", "version": "v1"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if normalized.Event != core.EventOrderCreated || normalized.Version != "v1" {
		t.Fatalf("expected query values to be used, got %#v", normalized)
	}
}

func TestNormalizeShipHeroDetection(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		provider core.Provider
		event    string
	}{
		{name: "shipment", body: `{"webhook_type":"Shipment Update","fulfillment":{"tracking_number":"1Z"}}`, provider: core.ProviderShipHero, event: core.EventShipHeroShipmentUpdated},
		{name: "unknown type", body: `{"webhook_type":"Tote Complete","fulfillment":{"x":1}}`, provider: core.ProviderShipHero},
		{name: "missing fulfillment", body: `{"webhook_type":"Shipment Update"}`, provider: core.ProviderFluid},
		{name: "empty fulfillment", body: `{"webhook_type":"Shipment Update","fulfillment":{}}`, provider: core.ProviderFluid},
		{name: "blank webhook type", body: `{"webhook_type":" ","fulfillment":{"x":1}}`, provider: core.ProviderFluid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			normalized, err := Normalize([]byte(tc.body), nil)
			if err != nil {
				t.Fatalf("normalize: %v", err)
			}
			if normalized.Provider != tc.provider {
				t.Fatalf("expected provider %q, got %q", tc.provider, normalized.Provider)
			}
			if normalized.Event != tc.event {
				t.Fatalf("expected event %q, got %q", tc.event, normalized.Event)
			}
		})
	}
}

func TestNormalizeRejectsMalformedJSON(t *testing.T) {
	if _, err := Normalize([]byte(`{"resource":`), nil); err == nil {
		t.Fatalf("expected malformed json error")
	}
}
