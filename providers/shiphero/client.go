package shiphero

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/goliatone/go-shipbridge/transport"
)

const (
	DefaultGraphQLURL = "https://public-api.shiphero.com/graphql"
	DefaultAuthURL    = "https://public-api.shiphero.com/auth/token"

	defaultTimeout = 30 * time.Second

	tokenCacheKeyPrefix = "shipbridge::shiphero_token::v1"
)

const createOrderMutation = `mutation($data: CreateOrderInput!) {
  order_create(data: $data) {
    request_id
    complexity
    order {
      id
      order_number
      partner_order_id
    }
  }
}`

const listWebhooksQuery = `query {
  webhooks {
    request_id
    complexity
    data(first: 50) {
      edges {
        node {
          id
          name
          url
          shop_name
          active
        }
      }
    }
  }
}`

const createWebhookMutation = `mutation($data: CreateWebhookInput!) {
  webhook_create(data: $data) {
    request_id
    complexity
    webhook {
      id
      shop_name
      name
      url
      shared_signature_secret
    }
  }
}`

const deleteWebhookMutation = `mutation($data: DeleteWebhookInput!) {
  webhook_delete(data: $data) {
    request_id
    complexity
  }
}`

type Config struct {
	GraphQLURL string
	AuthURL    string
	Timeout    time.Duration
	HTTPClient transport.HTTPDoer
	// TokenCache keeps access tokens obtained with username and password.
	// Without it every operation authenticates again.
	TokenCache repositorycache.CacheService
}

type Client struct {
	graphql *transport.GraphQLAdapter
	auth    *transport.RESTAdapter
	authURL string
	tokens  repositorycache.CacheService
	timeout time.Duration
}

func New(cfg Config) *Client {
	endpoint := strings.TrimSpace(cfg.GraphQLURL)
	if endpoint == "" {
		endpoint = DefaultGraphQLURL
	}
	authURL := strings.TrimSpace(cfg.AuthURL)
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		graphql: transport.NewGraphQLAdapter(endpoint, cfg.HTTPClient),
		auth:    transport.NewRESTAdapter(cfg.HTTPClient),
		authURL: authURL,
		tokens:  cfg.TokenCache,
		timeout: timeout,
	}
}

// CreateOrder submits order_create and returns the fulfillment platform's
// order id.
func (c *Client) CreateOrder(ctx context.Context, setting core.IntegrationSetting, order core.ShipHeroOrder) (string, error) {
	var out struct {
		OrderCreate struct {
			RequestID string `json:"request_id"`
			Order     struct {
				ID string `json:"id"`
			} `json:"order"`
		} `json:"order_create"`
	}
	metadata := map[string]any{"order_number": order.OrderNumber, "partner_order_id": order.PartnerOrderID}
	if err := c.execute(ctx, setting, "order_create", createOrderMutation, map[string]any{"data": order}, &out); err != nil {
		return "", shipheroWrapError(err, "create order", metadata)
	}
	id := strings.TrimSpace(out.OrderCreate.Order.ID)
	if id == "" {
		return "", shipheroError("order_create response missing order id", metadata)
	}
	return id, nil
}

func (c *Client) ListWebhooks(ctx context.Context, setting core.IntegrationSetting) ([]core.ShipHeroWebhook, error) {
	var out struct {
		Webhooks struct {
			Data struct {
				Edges []struct {
					Node core.ShipHeroWebhook `json:"node"`
				} `json:"edges"`
			} `json:"data"`
		} `json:"webhooks"`
	}
	if err := c.execute(ctx, setting, "webhooks", listWebhooksQuery, nil, &out); err != nil {
		return nil, shipheroWrapError(err, "list webhooks", nil)
	}
	webhooks := make([]core.ShipHeroWebhook, 0, len(out.Webhooks.Data.Edges))
	for _, edge := range out.Webhooks.Data.Edges {
		webhooks = append(webhooks, edge.Node)
	}
	return webhooks, nil
}

// CreateWebhook registers a webhook. The returned shared signature secret is
// only ever disclosed by this call.
func (c *Client) CreateWebhook(
	ctx context.Context,
	setting core.IntegrationSetting,
	webhook core.ShipHeroWebhook,
) (core.ShipHeroWebhook, error) {
	var out struct {
		WebhookCreate struct {
			Webhook core.ShipHeroWebhook `json:"webhook"`
		} `json:"webhook_create"`
	}
	variables := map[string]any{
		"data": map[string]any{
			"name":      webhook.Name,
			"url":       webhook.URL,
			"shop_name": webhook.ShopName,
		},
	}
	metadata := map[string]any{"webhook_name": webhook.Name, "shop_name": webhook.ShopName}
	if err := c.execute(ctx, setting, "webhook_create", createWebhookMutation, variables, &out); err != nil {
		return core.ShipHeroWebhook{}, shipheroWrapError(err, "create webhook", metadata)
	}
	created := out.WebhookCreate.Webhook
	if strings.TrimSpace(created.Name) == "" {
		return core.ShipHeroWebhook{}, shipheroError("webhook_create response missing webhook", metadata)
	}
	created.Active = true
	return created, nil
}

func (c *Client) DeleteWebhook(ctx context.Context, setting core.IntegrationSetting, name string, shopName string) error {
	variables := map[string]any{
		"data": map[string]any{
			"name":      strings.TrimSpace(name),
			"shop_name": strings.TrimSpace(shopName),
		},
	}
	if err := c.execute(ctx, setting, "webhook_delete", deleteWebhookMutation, variables, nil); err != nil {
		return shipheroWrapError(err, "delete webhook", map[string]any{"webhook_name": name, "shop_name": shopName})
	}
	return nil
}

func (c *Client) execute(
	ctx context.Context,
	setting core.IntegrationSetting,
	operation string,
	query string,
	variables map[string]any,
	out any,
) error {
	if c == nil || c.graphql == nil {
		return core.NewError("shiphero: client is not configured", goerrors.CategoryInternal, core.ErrorInternal, nil)
	}
	token, cached, err := c.accessToken(ctx, setting)
	if err != nil {
		return err
	}
	res, err := c.graphql.Execute(ctx, transport.GraphQLRequest{
		Query:         query,
		OperationName: operation,
		Variables:     variables,
		Headers:       map[string]string{"Authorization": "Bearer " + token},
		Timeout:       c.timeout,
	})
	if err != nil {
		if cached && goerrors.IsAuth(err) {
			_ = c.tokens.Delete(ctx, tokenCacheKey(setting.CompanyID))
		}
		return err
	}
	if len(res.Errors) > 0 {
		return shipheroError(fmt.Sprintf("%s returned errors: %s", operation, res.Errors[0].Message), map[string]any{
			"operation":   operation,
			"error_count": len(res.Errors),
		})
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.Data, out); err != nil {
		return core.WrapError(err, goerrors.CategoryExternal, "shiphero: decode "+operation, "", nil)
	}
	return nil
}

// accessToken prefers a stored api token and falls back to a password grant
// against the auth endpoint. The bool reports whether the token came from the
// cache.
func (c *Client) accessToken(ctx context.Context, setting core.IntegrationSetting) (string, bool, error) {
	if token := strings.TrimSpace(setting.Settings.ShipHeroAPIToken); token != "" {
		return token, false, nil
	}
	if strings.TrimSpace(setting.Settings.Username) == "" || strings.TrimSpace(setting.Settings.Password) == "" {
		return "", false, core.UnauthorizedError("shiphero: credentials are not configured", map[string]any{
			"company_id": setting.CompanyID,
		})
	}
	if c.tokens == nil || strings.TrimSpace(setting.CompanyID) == "" {
		token, err := c.fetchToken(ctx, setting.Settings)
		return token, false, err
	}
	token, err := repositorycache.GetOrFetch(ctx, c.tokens, tokenCacheKey(setting.CompanyID), func(ctx context.Context) (string, error) {
		return c.fetchToken(ctx, setting.Settings)
	})
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

func (c *Client) fetchToken(ctx context.Context, settings core.IntegrationSettings) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	_, err := c.auth.DoJSON(ctx, core.TransportRequest{
		Method:  http.MethodPost,
		URL:     c.authURL,
		Timeout: c.timeout,
	}, map[string]string{
		"username": strings.TrimSpace(settings.Username),
		"password": settings.Password,
	}, &out)
	if err != nil {
		return "", shipheroWrapError(err, "authenticate", nil)
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", core.UnauthorizedError("shiphero: auth response missing access token", nil)
	}
	return strings.TrimSpace(out.AccessToken), nil
}

func tokenCacheKey(companyID string) string {
	return tokenCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(companyID))
}

func shipheroError(message string, metadata map[string]any) error {
	return core.NewError("shiphero: "+message, goerrors.CategoryExternal, core.ErrorDownstreamFailure, metadata)
}

func shipheroWrapError(err error, message string, metadata map[string]any) error {
	return core.WrapError(err, goerrors.CategoryExternal, "shiphero: "+message, "", metadata)
}

var _ core.ShipHeroClient = (*Client)(nil)
