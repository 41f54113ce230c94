package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/goliatone/go-shipbridge/inbound"
	"github.com/goliatone/go-shipbridge/webhooks"
)

const (
	OutcomeAccepted     = "accepted"
	OutcomeIgnored      = "ignored"
	OutcomeUnauthorized = "unauthorized"
	OutcomeNotFound     = "not_found"
	OutcomeBadRequest   = "bad_request"
	OutcomeFailed       = "failed"
)

const QueryCompanyID = "company_id"

type DropletVerifier interface {
	Verify(ctx context.Context, dropletUUID string) error
}

type CompanyTokenVerifier interface {
	Verify(ctx context.Context, req core.InboundRequest, fluidCompanyID string) (core.Company, error)
}

type SignatureVerifier interface {
	Verify(ctx context.Context, req core.InboundRequest) error
}

type EnvelopeRouter interface {
	Route(ctx context.Context, env core.Envelope) (bool, error)
}

// WebhookHandler verifies, normalizes and routes inbound webhook deliveries.
type WebhookHandler struct {
	Router       EnvelopeRouter
	Droplets     DropletVerifier
	Tokens       CompanyTokenVerifier
	Signatures   SignatureVerifier
	Metrics      core.MetricsRecorder
	Logger       core.Logger
	MaxBodyBytes int64
}

// ShipHeroSuccess is returned for every verified fulfillment delivery, mapped
// or not. Any other answer makes the sender retry.
var ShipHeroSuccess = gin.H{"code": "200", "Message": "Success"}

func (h *WebhookHandler) Receive(c *gin.Context) {
	ctx := c.Request.Context()
	body, err := h.readBody(c)
	if err != nil {
		h.logger(ctx).Warn("webhook body rejected", "error", err)
		h.record(ctx, "", "", OutcomeBadRequest)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req := core.InboundRequest{
		Headers: flattenHeaders(c.Request.Header),
		Query:   flattenQuery(c),
		Body:    body,
	}
	normalized, err := inbound.Normalize(body, req.Query)
	if err != nil {
		h.logger(ctx).Warn("webhook body is not valid json", "error", err)
		h.record(ctx, core.ProviderFluid, "", OutcomeBadRequest)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed JSON"})
		return
	}
	req.Provider = normalized.Provider

	if normalized.Provider == core.ProviderShipHero {
		h.receiveShipHero(c, req, normalized)
		return
	}
	h.receiveFluid(c, req, normalized)
}

func (h *WebhookHandler) receiveFluid(c *gin.Context, req core.InboundRequest, normalized inbound.Normalized) {
	ctx := c.Request.Context()
	companyID := normalized.FluidCompanyID

	if normalized.IsDropletInstallation() {
		if err := h.Droplets.Verify(ctx, normalized.DropletUUID); err != nil {
			h.reject(c, req.Provider, normalized.Event, err)
			return
		}
	} else {
		if companyID == "" {
			companyID = req.Query[QueryCompanyID]
		}
		if _, err := h.Tokens.Verify(ctx, req, companyID); err != nil {
			h.reject(c, req.Provider, normalized.Event, err)
			return
		}
	}
	if companyID == "" {
		companyID = req.Query[QueryCompanyID]
	}

	if !normalized.Matched() {
		h.record(ctx, req.Provider, normalized.Event, OutcomeIgnored)
		c.Status(http.StatusNoContent)
		return
	}
	routed, err := h.Router.Route(ctx, h.envelope(req, normalized, companyID))
	if err != nil {
		h.logger(ctx).Error("webhook could not be scheduled", "event", normalized.Event, "company_id", companyID, "error", err)
		h.record(ctx, req.Provider, normalized.Event, OutcomeFailed)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if !routed {
		h.record(ctx, req.Provider, normalized.Event, OutcomeIgnored)
		c.Status(http.StatusNoContent)
		return
	}
	h.record(ctx, req.Provider, normalized.Event, OutcomeAccepted)
	c.Status(http.StatusAccepted)
}

func (h *WebhookHandler) receiveShipHero(c *gin.Context, req core.InboundRequest, normalized inbound.Normalized) {
	ctx := c.Request.Context()
	if err := h.Signatures.Verify(ctx, req); err != nil {
		h.reject(c, req.Provider, normalized.Event, err)
		return
	}
	if !normalized.Matched() {
		h.logger(ctx).Warn("unhandled fulfillment webhook type", "webhook_type", normalized.WebhookType)
		h.record(ctx, req.Provider, normalized.WebhookType, OutcomeIgnored)
		c.JSON(http.StatusOK, ShipHeroSuccess)
		return
	}

	routed, err := h.Router.Route(ctx, h.envelope(req, normalized, req.Query[QueryCompanyID]))
	switch {
	case err != nil:
		h.logger(ctx).Error("fulfillment webhook could not be scheduled", "event", normalized.Event, "error", err)
		h.record(ctx, req.Provider, normalized.Event, OutcomeFailed)
	case !routed:
		h.logger(ctx).Warn("unhandled fulfillment webhook type", "webhook_type", normalized.WebhookType)
		h.record(ctx, req.Provider, normalized.Event, OutcomeIgnored)
	default:
		h.record(ctx, req.Provider, normalized.Event, OutcomeAccepted)
	}
	c.JSON(http.StatusOK, ShipHeroSuccess)
}

func (h *WebhookHandler) envelope(req core.InboundRequest, normalized inbound.Normalized, companyID string) core.Envelope {
	return core.Envelope{
		Event:     normalized.Event,
		Provider:  req.Provider,
		Version:   normalized.Version,
		CompanyID: strings.TrimSpace(companyID),
		Body:      req.Body,
	}
}

// reject answers a verification failure. Auth and not found errors keep
// their message; anything else is an internal error.
func (h *WebhookHandler) reject(c *gin.Context, provider core.Provider, event string, err error) {
	ctx := c.Request.Context()
	mapped := core.MapError(err)
	switch mapped.Category {
	case goerrors.CategoryAuth:
		h.record(ctx, provider, event, OutcomeUnauthorized)
		c.JSON(http.StatusUnauthorized, gin.H{"error": mapped.Message})
	case goerrors.CategoryNotFound:
		h.record(ctx, provider, event, OutcomeNotFound)
		c.JSON(http.StatusNotFound, gin.H{"error": mapped.Message})
	default:
		h.logger(ctx).Error("webhook verification failed", "provider", string(provider), "event", event, "error", err)
		h.record(ctx, provider, event, OutcomeFailed)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func (h *WebhookHandler) readBody(c *gin.Context) ([]byte, error) {
	reader := c.Request.Body
	if reader == nil {
		return nil, errors.New("httpapi: request body is empty")
	}
	if h.MaxBodyBytes > 0 {
		reader = http.MaxBytesReader(c.Writer, reader, h.MaxBodyBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, errors.New("httpapi: request body is empty")
	}
	return body, nil
}

func (h *WebhookHandler) record(ctx context.Context, provider core.Provider, event string, outcome string) {
	if h.Metrics == nil {
		return
	}
	h.Metrics.IncCounter(ctx, core.MetricWebhooksTotal, 1, map[string]string{
		"provider": string(provider),
		"event":    event,
		"outcome":  outcome,
	})
}

func (h *WebhookHandler) logger(ctx context.Context) core.Logger {
	if h.Logger == nil {
		return glog.Nop()
	}
	return h.Logger.WithContext(ctx)
}

func flattenHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for key, values := range headers {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}

func flattenQuery(c *gin.Context) map[string]string {
	values := c.Request.URL.Query()
	out := make(map[string]string, len(values))
	for key := range values {
		out[key] = values.Get(key)
	}
	return out
}

var (
	_ DropletVerifier      = webhooks.DropletUUIDVerifier{}
	_ CompanyTokenVerifier = webhooks.TokenVerifier{}
	_ SignatureVerifier    = webhooks.HMACVerifier{}
	_ EnvelopeRouter       = (*inbound.Router)(nil)
)
