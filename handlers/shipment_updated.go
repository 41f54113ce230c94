package handlers

import (
	"context"
	"strings"

	"github.com/goliatone/go-shipbridge/core"
)

// ShipmentUpdated mirrors a fulfillment platform shipment onto the commerce
// order as a fulfillment carrying the tracking number.
type ShipmentUpdated struct {
	deps Dependencies
}

func NewShipmentUpdated(deps Dependencies) *ShipmentUpdated {
	return &ShipmentUpdated{deps: deps}
}

func (h *ShipmentUpdated) Handle(ctx context.Context, env core.Envelope) error {
	logger := h.deps.logger(ctx, env)

	var payload shipmentPayload
	if err := decode(env, &payload); err != nil {
		logger.Warn("shipment payload is malformed", "step", "decode", "error", err)
		return nil
	}
	if payload.Fulfillment == nil {
		logger.Warn("shipment payload missing fulfillment", "step", "validate")
		return nil
	}
	fulfillment := *payload.Fulfillment
	orderID := fulfillment.PartnerOrderID.String()
	trackingNumber := fulfillment.TrackingNumber.String()
	if orderID == "" || trackingNumber == "" {
		logger.Warn("shipment payload missing required fields",
			"step", "validate",
			"partner_order_id", orderID,
			"has_tracking_number", trackingNumber != "",
		)
		return nil
	}

	fluidCompanyID := strings.TrimSpace(env.CompanyID)
	if fluidCompanyID == "" {
		logger.Warn("shipment delivery is not attributed to a company", "step", "resolve_company", "order_id", orderID)
		return nil
	}
	company, err := h.deps.Companies.GetByFluidCompanyID(ctx, fluidCompanyID)
	if err != nil {
		if core.IsNotFound(err) {
			logger.Warn("shipment for unknown company", "step", "resolve_company", "company_id", fluidCompanyID)
			return nil
		}
		return infrastructure(err, "resolve_company", map[string]any{"company_id": fluidCompanyID})
	}
	setting, err := h.deps.Integrations.GetByCompany(ctx, company.ID)
	if err != nil {
		if core.IsNotFound(err) {
			logger.Warn("company has no integration settings", "step", "resolve_credentials", "company_id", fluidCompanyID)
			return nil
		}
		return infrastructure(err, "resolve_credentials", map[string]any{"company_id": fluidCompanyID})
	}
	token := strings.TrimSpace(setting.Settings.FluidAPIToken)
	if token == "" {
		logger.Warn("company has no fluid api token", "step", "resolve_credentials", "company_id", fluidCompanyID)
		return nil
	}

	logger.Debug("processing shipment",
		"company_id", fluidCompanyID,
		"order_id", orderID,
		"shipment_id", fulfillment.ShipmentID.String(),
		"carrier", fulfillment.ShippingCarrier,
		"shipping_method", fulfillment.ShippingMethod,
		"warehouse", fulfillment.Warehouse,
		"packages", len(payload.Packages),
	)

	order, err := h.deps.Fluid.GetOrder(ctx, token, orderID)
	if err != nil {
		if core.IsNotFound(err) {
			logger.Info("no order found for shipment", "step", "retrieve_order", "order_id", orderID)
			return nil
		}
		logger.Error("failed to retrieve order", "step", "retrieve_order", "order_id", orderID, "error", err)
		return nil
	}
	if order.ID == "" || order.Items == nil {
		logger.Error("order has an unexpected structure", "step", "retrieve_order", "order_id", orderID)
		return nil
	}

	if err := h.deps.Fluid.CreateFulfillment(ctx, token, order.ID, order.Items, trackingNumber); err != nil {
		logger.Error("failed to create fulfillment",
			"step", "create_fulfillment",
			"order_id", order.ID,
			"tracking_number", trackingNumber,
			"error", err,
		)
		return nil
	}
	logger.Info("order fulfillment created", "order_id", order.ID, "tracking_number", trackingNumber)
	return nil
}
