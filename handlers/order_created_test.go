package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-shipbridge/core"
)

const orderBody = `{
  "company_id": 980190,
  "order": {
    "id": 555,
    "order_number": "F-555",
    "created_at": "2026-10-01T12:00:00Z",
    "tax": 1.5,
    "subtotal": "20.00",
    "amount": 21.5,
    "email": "jane@example.test",
    "phone": "555-0100",
    "ship_to": {
      "name": "Jane   Q Doe",
      "address1": "1 Main St",
      "city": "Provo",
      "state": "Utah",
      "state_code": "UT",
      "postal_code": 84601,
      "country": "United States",
      "country_code": "US"
    },
    "items": [
      {"sku": "SKU-1", "quantity": 2, "price": 10, "title": "Widget"}
    ]
  }
}`

func orderDeps(shipHero *stubShipHero, fluid *stubFluid) Dependencies {
	return Dependencies{
		Companies: newMemCompanies(core.Company{ID: "co_1", FluidCompanyID: "980190", Name: "Acme", Active: true}),
		Integrations: &memIntegrations{byCompany: map[string]core.IntegrationSetting{
			"co_1": {CompanyID: "co_1", Settings: core.IntegrationSettings{FluidAPIToken: "fluid-token"}},
		}},
		ShipHero: shipHero,
		Fluid:    fluid,
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		name  string
		first string
		last  string
	}{
		{name: "Jane Doe", first: "Jane", last: "Doe"},
		{name: "Madonna", first: "Madonna", last: ""},
		{name: "", first: "", last: ""},
		{name: "Jane\t Mary Doe", first: "Jane", last: "Mary Doe"},
		{name: "Jane   Doe", first: "Jane", last: "Doe"},
		{name: "  Jane Doe  ", first: "Jane", last: "Doe"},
	}
	for _, tt := range tests {
		first, last := SplitName(tt.name)
		if first != tt.first || last != tt.last {
			t.Fatalf("SplitName(%q) = %q, %q; want %q, %q", tt.name, first, last, tt.first, tt.last)
		}
	}
}

func TestOrderCreated_ForwardsOrderAndWritesExternalID(t *testing.T) {
	shipHero := &stubShipHero{orderID: "SH-1"}
	fluid := &stubFluid{}
	handler := NewOrderCreated(orderDeps(shipHero, fluid))

	result, err := handler.Process(context.Background(), envelope(core.EventOrderCreated, orderBody))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Outcome != OrderOutcomeCreated || result.ShipHeroOrderID != "SH-1" {
		t.Fatalf("unexpected result %+v", result)
	}
	if fluid.externalIDs["555"] != "SH-1" {
		t.Fatalf("expected external id write-back, got %v", fluid.externalIDs)
	}
	if fluid.tokens[0] != "fluid-token" {
		t.Fatalf("expected integration fluid token, got %q", fluid.tokens[0])
	}

	order := shipHero.orders[0]
	if order.PartnerOrderID != "555" || order.OrderNumber != "F-555" || order.ShopName != "Acme" {
		t.Fatalf("unexpected order header %+v", order)
	}
	if order.TotalTax != "1.5" || order.Subtotal != "20.00" || order.TotalPrice != "21.5" {
		t.Fatalf("unexpected totals %+v", order)
	}
	address := order.ShippingAddress
	if address.FirstName != "Jane" || address.LastName != "Q Doe" || address.Zip != "84601" || address.Company != "Acme" {
		t.Fatalf("unexpected address %+v", address)
	}
	if address.Phone != "555-0100" || address.Email != "jane@example.test" {
		t.Fatalf("expected contact details on address, got %+v", address)
	}
	if len(order.LineItems) != 1 {
		t.Fatalf("expected one line item, got %d", len(order.LineItems))
	}
	item := order.LineItems[0]
	if item.SKU != "SKU-1" || item.Quantity != 2 || item.Price != "10" || item.ProductName != "Widget" || item.OptionTitle != "Widget" {
		t.Fatalf("unexpected line item %+v", item)
	}
}

func TestOrderCreated_CreationFailure(t *testing.T) {
	fluid := &stubFluid{}
	handler := NewOrderCreated(orderDeps(&stubShipHero{err: errors.New("invalid sku")}, fluid))

	result, err := handler.Process(context.Background(), envelope(core.EventOrderCreated, orderBody))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Outcome != OrderOutcomeCreationFailed {
		t.Fatalf("expected creation_failed, got %s", result.Outcome)
	}
	if len(fluid.externalIDs) != 0 {
		t.Fatalf("expected no write-back after creation failure")
	}
}

func TestOrderCreated_ExternalIDFailureIsDistinct(t *testing.T) {
	handler := NewOrderCreated(orderDeps(&stubShipHero{orderID: "SH-2"}, &stubFluid{externalErr: errors.New("boom")}))

	result, err := handler.Process(context.Background(), envelope(core.EventOrderCreated, orderBody))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if result.Outcome != OrderOutcomeExternalIDFailed || result.ShipHeroOrderID != "SH-2" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestOrderCreated_HandleNeverRaisesDomainFailures(t *testing.T) {
	logger := &capturingLogger{}
	deps := orderDeps(&stubShipHero{err: errors.New("down")}, &stubFluid{})
	deps.Logger = logger
	handler := NewOrderCreated(deps)

	if err := handler.Handle(context.Background(), envelope(core.EventOrderCreated, orderBody)); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !logger.has("error", "order forwarding failed") {
		t.Fatalf("expected failure log")
	}

	unknown := `{"company_id":"nope","order":{"id":1}}`
	if err := handler.Handle(context.Background(), envelope(core.EventOrderCreated, unknown)); err != nil {
		t.Fatalf("expected unknown company to be swallowed, got %v", err)
	}
	if !logger.has("warn", "order not forwarded") {
		t.Fatalf("expected skipped order warning")
	}
}

func TestOrderCreated_StoreFailureIsReturned(t *testing.T) {
	deps := orderDeps(&stubShipHero{}, &stubFluid{})
	deps.Companies.(*memCompanies).err = errors.New("connection refused")
	handler := NewOrderCreated(deps)

	if err := handler.Handle(context.Background(), envelope(core.EventOrderCreated, orderBody)); err == nil {
		t.Fatalf("expected infrastructure error to be returned")
	}
}
