package fluid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/goliatone/go-shipbridge/transport"
)

const (
	DefaultBaseURL = "https://api.fluid.app"

	callbackRegistrationsPath = "/api/callback/registrations"
	ordersPath                = "/api/v2/orders"

	defaultTimeout = 30 * time.Second
)

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient transport.HTTPDoer
}

type Client struct {
	rest    *transport.RESTAdapter
	timeout time.Duration
}

func New(cfg Config) *Client {
	rest := transport.NewRESTAdapter(cfg.HTTPClient)
	rest.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if rest.BaseURL == "" {
		rest.BaseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{rest: rest, timeout: timeout}
}

type callbackRegistrationEnvelope struct {
	CallbackRegistration struct {
		UUID string `json:"uuid"`
	} `json:"callback_registration"`
}

// RegisterCallback registers one callback definition for the company owning
// token and returns the remote registration uuid.
func (c *Client) RegisterCallback(
	ctx context.Context,
	token string,
	registration core.CallbackRegistration,
) (string, error) {
	if err := c.ready(token); err != nil {
		return "", err
	}
	var out callbackRegistrationEnvelope
	_, err := c.rest.DoJSON(ctx, c.request(http.MethodPost, callbackRegistrationsPath, token), map[string]any{
		"callback_registration": registration,
	}, &out)
	if err != nil {
		return "", fluidWrapError(err, "register callback", map[string]any{
			"definition_name": registration.DefinitionName,
		})
	}
	id := strings.TrimSpace(out.CallbackRegistration.UUID)
	if id == "" {
		return "", fluidError("callback registration response missing uuid", map[string]any{
			"definition_name": registration.DefinitionName,
		})
	}
	return id, nil
}

// GetOrder fetches an order. A 404, an empty body or an error-shaped body is
// reported as not found.
func (c *Client) GetOrder(ctx context.Context, token string, orderID string) (core.FluidOrder, error) {
	if err := c.ready(token); err != nil {
		return core.FluidOrder{}, err
	}
	trimmed := strings.TrimSpace(orderID)
	metadata := map[string]any{"order_id": trimmed}
	res, err := c.rest.DoJSON(ctx, c.request(http.MethodGet, orderPath(trimmed), token), nil, nil)
	if err != nil {
		return core.FluidOrder{}, fluidWrapError(err, "retrieve order", metadata)
	}

	body := bytes.TrimSpace(res.Body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return core.FluidOrder{}, core.NotFoundError("fluid: order not found", metadata)
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return core.FluidOrder{}, fluidWrapError(err, "decode order", metadata)
	}
	if _, failed := envelope["error"]; failed {
		metadata["error"] = string(envelope["error"])
		return core.FluidOrder{}, core.NotFoundError("fluid: order not found", metadata)
	}

	raw := body
	if nested, ok := envelope["order"]; ok && len(bytes.TrimSpace(nested)) > 0 && string(nested) != "null" {
		raw = nested
	}
	var order struct {
		ID          core.ExternalID   `json:"id"`
		OrderNumber string            `json:"order_number"`
		Items       []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(raw, &order); err != nil {
		return core.FluidOrder{}, fluidWrapError(err, "decode order", metadata)
	}
	return core.FluidOrder{
		ID:          order.ID.String(),
		OrderNumber: order.OrderNumber,
		Items:       order.Items,
		Raw:         append(json.RawMessage(nil), raw...),
	}, nil
}

func (c *Client) UpdateExternalID(ctx context.Context, token string, orderID string, externalID string) error {
	if err := c.ready(token); err != nil {
		return err
	}
	trimmed := strings.TrimSpace(orderID)
	_, err := c.rest.DoJSON(ctx, c.request(http.MethodPatch, orderPath(trimmed), token), map[string]any{
		"order": map[string]any{"external_id": strings.TrimSpace(externalID)},
	}, nil)
	if err != nil {
		return fluidWrapError(err, "update external id", map[string]any{
			"order_id":    trimmed,
			"external_id": externalID,
		})
	}
	return nil
}

func (c *Client) CreateFulfillment(
	ctx context.Context,
	token string,
	orderID string,
	items []json.RawMessage,
	trackingNumber string,
) error {
	if err := c.ready(token); err != nil {
		return err
	}
	trimmed := strings.TrimSpace(orderID)
	metadata := map[string]any{"order_id": trimmed, "tracking_number": trackingNumber}
	if items == nil {
		items = []json.RawMessage{}
	}
	var out map[string]json.RawMessage
	_, err := c.rest.DoJSON(ctx, c.request(http.MethodPost, orderPath(trimmed)+"/fulfillments", token), map[string]any{
		"fulfillment": map[string]any{
			"order_items":     items,
			"tracking_number": trackingNumber,
		},
	}, &out)
	if err != nil {
		return fluidWrapError(err, "create fulfillment", metadata)
	}
	if remoteErr, failed := out["error"]; failed {
		metadata["error"] = string(remoteErr)
		return fluidError("create fulfillment rejected", metadata)
	}
	return nil
}

func (c *Client) ready(token string) error {
	if c == nil || c.rest == nil {
		return core.NewError("fluid: client is not configured", goerrors.CategoryInternal, core.ErrorInternal, nil)
	}
	if strings.TrimSpace(token) == "" {
		return core.UnauthorizedError("fluid: api token is required", nil)
	}
	return nil
}

func (c *Client) request(method string, path string, token string) core.TransportRequest {
	return core.TransportRequest{
		Method: method,
		URL:    path,
		Headers: map[string]string{
			"Authorization": "Bearer " + strings.TrimSpace(token),
		},
		Timeout: c.timeout,
	}
}

func orderPath(orderID string) string {
	return fmt.Sprintf("%s/%s", ordersPath, url.PathEscape(orderID))
}

func fluidError(message string, metadata map[string]any) error {
	return core.NewError("fluid: "+message, goerrors.CategoryExternal, core.ErrorDownstreamFailure, metadata)
}

func fluidWrapError(err error, message string, metadata map[string]any) error {
	return core.WrapError(err, goerrors.CategoryExternal, "fluid: "+message, "", metadata)
}

var _ core.FluidClient = (*Client)(nil)
