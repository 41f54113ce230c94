package handlers

import (
	"context"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/samber/lo"
)

type OrderOutcome string

const (
	OrderOutcomeSkipped          OrderOutcome = "skipped"
	OrderOutcomeCreated          OrderOutcome = "created"
	OrderOutcomeCreationFailed   OrderOutcome = "creation_failed"
	OrderOutcomeExternalIDFailed OrderOutcome = "external_id_failed"
)

type OrderResult struct {
	Outcome         OrderOutcome
	OrderID         string
	ShipHeroOrderID string
	Err             error
}

// OrderCreated forwards a new commerce order to the fulfillment platform and
// writes the fulfillment order id back as the order's external id.
type OrderCreated struct {
	deps Dependencies
}

func NewOrderCreated(deps Dependencies) *OrderCreated {
	return &OrderCreated{deps: deps}
}

func (h *OrderCreated) Handle(ctx context.Context, env core.Envelope) error {
	logger := h.deps.logger(ctx, env)
	result, err := h.Process(ctx, env)
	if err != nil {
		return err
	}
	switch result.Outcome {
	case OrderOutcomeCreated:
		logger.Info("order forwarded",
			"order_id", result.OrderID,
			"shiphero_order_id", result.ShipHeroOrderID,
			"outcome", string(result.Outcome),
		)
	case OrderOutcomeSkipped:
		logger.Warn("order not forwarded",
			"order_id", result.OrderID,
			"outcome", string(result.Outcome),
			"error", result.Err,
		)
	default:
		logger.Error("order forwarding failed",
			"order_id", result.OrderID,
			"shiphero_order_id", result.ShipHeroOrderID,
			"outcome", string(result.Outcome),
			"error", result.Err,
		)
	}
	return nil
}

// Process runs the order forwarding and reports a typed outcome. The error
// is only set for infrastructure failures.
func (h *OrderCreated) Process(ctx context.Context, env core.Envelope) (OrderResult, error) {
	var payload orderCreatedPayload
	if err := decode(env, &payload); err != nil {
		return OrderResult{Outcome: OrderOutcomeSkipped, Err: err}, nil
	}
	if payload.Order == nil {
		return OrderResult{Outcome: OrderOutcomeSkipped, Err: skipError("order payload missing order", nil)}, nil
	}
	order := *payload.Order
	result := OrderResult{OrderID: order.ID.String()}

	fluidCompanyID := payload.fluidCompanyID()
	if fluidCompanyID == "" {
		fluidCompanyID = env.CompanyID
	}
	company, err := h.deps.Companies.GetByFluidCompanyID(ctx, fluidCompanyID)
	if err != nil {
		if core.IsNotFound(err) {
			result.Outcome = OrderOutcomeSkipped
			result.Err = err
			return result, nil
		}
		return result, infrastructure(err, "find_company", map[string]any{"company_id": fluidCompanyID})
	}
	setting, err := h.deps.Integrations.GetByCompany(ctx, company.ID)
	if err != nil {
		if core.IsNotFound(err) {
			result.Outcome = OrderOutcomeSkipped
			result.Err = err
			return result, nil
		}
		return result, infrastructure(err, "find_integration_setting", map[string]any{"company_id": fluidCompanyID})
	}

	shipHeroOrderID, err := h.deps.ShipHero.CreateOrder(ctx, setting, buildShipHeroOrder(company, order))
	if err != nil {
		result.Outcome = OrderOutcomeCreationFailed
		result.Err = err
		return result, nil
	}
	result.ShipHeroOrderID = shipHeroOrderID

	if err := h.deps.Fluid.UpdateExternalID(ctx, setting.Settings.FluidAPIToken, result.OrderID, shipHeroOrderID); err != nil {
		result.Outcome = OrderOutcomeExternalIDFailed
		result.Err = err
		return result, nil
	}
	result.Outcome = OrderOutcomeCreated
	return result, nil
}

// buildShipHeroOrder maps a commerce order onto the order_create input.
func buildShipHeroOrder(company core.Company, order orderPayload) core.ShipHeroOrder {
	shipTo := shipToPayload{}
	if order.ShipTo != nil {
		shipTo = *order.ShipTo
	}
	firstName, lastName := SplitName(shipTo.Name)
	return core.ShipHeroOrder{
		OrderNumber:    order.OrderNumber.String(),
		PartnerOrderID: order.ID.String(),
		ShopName:       company.Name,
		OrderDate:      order.CreatedAt,
		TotalTax:       order.Tax.String(),
		Subtotal:       order.Subtotal.String(),
		TotalPrice:     order.Amount.String(),
		Email:          order.Email,
		ShippingAddress: core.ShipHeroAddress{
			FirstName:   firstName,
			LastName:    lastName,
			Company:     company.Name,
			Address1:    shipTo.Address1,
			Address2:    shipTo.Address2,
			City:        shipTo.City,
			State:       shipTo.State,
			StateCode:   shipTo.StateCode,
			Zip:         shipTo.PostalCode.String(),
			Country:     shipTo.Country,
			CountryCode: shipTo.CountryCode,
			Email:       order.Email,
			Phone:       order.Phone,
		},
		LineItems: lo.Map(order.Items, func(item orderItemPayload, _ int) core.ShipHeroLineItem {
			return core.ShipHeroLineItem{
				SKU:         item.SKU,
				Quantity:    quantity(item.Quantity),
				Price:       item.Price.String(),
				ProductName: item.Title,
				OptionTitle: item.Title,
			}
		}),
	}
}

// SplitName splits a trimmed name on its first whitespace run. The last name
// keeps any inner spacing but not the run itself. Missing parts are empty.
func SplitName(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ""
	}
	index := strings.IndexFunc(trimmed, isSpace)
	if index < 0 {
		return trimmed, ""
	}
	return trimmed[:index], strings.TrimSpace(trimmed[index:])
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v'
}

func quantity(value scalar) int {
	parsed, err := strconv.ParseFloat(value.String(), 64)
	if err != nil {
		return 0
	}
	return int(parsed)
}

func skipError(message string, metadata map[string]any) error {
	return core.NewError("handlers: "+message, goerrors.CategoryBadInput, core.ErrorBadInput, metadata)
}
