package shiphero

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-shipbridge/core"
)

type graphqlCall struct {
	Query     string         `json:"query"`
	Operation string         `json:"operationName"`
	Variables map[string]any `json:"variables"`
	Auth      string         `json:"-"`
}

func newGraphQLServer(t *testing.T, respond func(call graphqlCall) string) (*httptest.Server, *[]graphqlCall) {
	t.Helper()
	calls := []graphqlCall{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var call graphqlCall
		if err := json.Unmarshal(raw, &call); err != nil {
			t.Fatalf("decode graphql payload: %v", err)
		}
		call.Auth = r.Header.Get("Authorization")
		calls = append(calls, call)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(respond(call)))
	}))
	return server, &calls
}

func apiTokenSetting() core.IntegrationSetting {
	return core.IntegrationSetting{
		CompanyID: "co_1",
		Settings:  core.IntegrationSettings{ShipHeroAPIToken: "api-token"},
	}
}

func TestClient_CreateOrderReturnsOrderID(t *testing.T) {
	server, calls := newGraphQLServer(t, func(graphqlCall) string {
		return `{"data":{"order_create":{"request_id":"r1","order":{"id":"T3JkZXI6MTIz"}}}}`
	})
	defer server.Close()

	client := New(Config{GraphQLURL: server.URL})
	id, err := client.CreateOrder(context.Background(), apiTokenSetting(), core.ShipHeroOrder{
		OrderNumber:    "F-100",
		PartnerOrderID: "100",
		LineItems:      []core.ShipHeroLineItem{{SKU: "SKU-1", Quantity: 2, Price: "9.5"}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if id != "T3JkZXI6MTIz" {
		t.Fatalf("unexpected order id %q", id)
	}
	call := (*calls)[0]
	if call.Operation != "order_create" {
		t.Fatalf("expected order_create operation, got %q", call.Operation)
	}
	if call.Auth != "Bearer api-token" {
		t.Fatalf("expected api token auth, got %q", call.Auth)
	}
	data, ok := call.Variables["data"].(map[string]any)
	if !ok || data["partner_order_id"] != "100" {
		t.Fatalf("expected order data variables, got %v", call.Variables)
	}
}

func TestClient_CreateOrderMissingIDFails(t *testing.T) {
	server, _ := newGraphQLServer(t, func(graphqlCall) string {
		return `{"data":{"order_create":null},"errors":[{"message":"invalid sku"}]}`
	})
	defer server.Close()

	_, err := New(Config{GraphQLURL: server.URL}).CreateOrder(context.Background(), apiTokenSetting(), core.ShipHeroOrder{})
	if err == nil {
		t.Fatalf("expected error for missing order id")
	}
}

func TestClient_PasswordGrantTokenIsCachedPerCompany(t *testing.T) {
	var authCalls atomic.Int32
	authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCalls.Add(1)
		var body map[string]string
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		if body["username"] != "ops@acme.test" || body["password"] != "pw" {
			t.Fatalf("unexpected credentials %v", body)
		}
		_, _ = w.Write([]byte(`{"access_token":"granted-token","expires_in":2419200}`))
	}))
	defer authServer.Close()

	server, calls := newGraphQLServer(t, func(graphqlCall) string {
		return `{"data":{"webhooks":{"data":{"edges":[{"node":{"id":"w1","name":"Shipment Update","url":"https://bridge.test/webhook","active":true}}]}}}}`
	})
	defer server.Close()

	cacheConfig := repositorycache.DefaultConfig()
	cacheConfig.TTL = time.Minute
	cacheService, err := repositorycache.NewCacheService(cacheConfig)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}

	client := New(Config{GraphQLURL: server.URL, AuthURL: authServer.URL, TokenCache: cacheService})
	setting := core.IntegrationSetting{
		CompanyID: "co_2",
		Settings:  core.IntegrationSettings{Username: "ops@acme.test", Password: "pw"},
	}
	for i := 0; i < 2; i++ {
		webhooks, err := client.ListWebhooks(context.Background(), setting)
		if err != nil {
			t.Fatalf("list webhooks %d: %v", i, err)
		}
		if len(webhooks) != 1 || !webhooks[0].Active || webhooks[0].Name != "Shipment Update" {
			t.Fatalf("unexpected webhooks %+v", webhooks)
		}
	}
	if authCalls.Load() != 1 {
		t.Fatalf("expected one token request, got %d", authCalls.Load())
	}
	if (*calls)[1].Auth != "Bearer granted-token" {
		t.Fatalf("expected cached token reuse, got %q", (*calls)[1].Auth)
	}
}

func TestClient_MissingCredentialsIsAuthError(t *testing.T) {
	client := New(Config{GraphQLURL: "http://127.0.0.1:1"})
	_, err := client.ListWebhooks(context.Background(), core.IntegrationSetting{CompanyID: "co_3"})
	if !goerrors.IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestClient_CreateAndDeleteWebhook(t *testing.T) {
	server, calls := newGraphQLServer(t, func(call graphqlCall) string {
		if call.Operation == "webhook_delete" {
			return `{"data":{"webhook_delete":{"request_id":"r2"}}}`
		}
		return `{"data":{"webhook_create":{"webhook":{"id":"w9","name":"Shipment Update","url":"https://bridge.test/webhook","shop_name":"fluid-droplet","shared_signature_secret":"s3cret"}}}}`
	})
	defer server.Close()

	client := New(Config{GraphQLURL: server.URL})
	created, err := client.CreateWebhook(context.Background(), apiTokenSetting(), core.ShipHeroWebhook{
		Name:     WebhookShipmentUpdate,
		URL:      "https://bridge.test/webhook",
		ShopName: DefaultShopName,
	})
	if err != nil {
		t.Fatalf("create webhook: %v", err)
	}
	if created.SharedSignatureSecret != "s3cret" {
		t.Fatalf("expected shared secret, got %q", created.SharedSignatureSecret)
	}
	if err := client.DeleteWebhook(context.Background(), apiTokenSetting(), WebhookShipmentUpdate, DefaultShopName); err != nil {
		t.Fatalf("delete webhook: %v", err)
	}
	data, _ := (*calls)[1].Variables["data"].(map[string]any)
	if data["name"] != WebhookShipmentUpdate || data["shop_name"] != DefaultShopName {
		t.Fatalf("unexpected delete variables %v", (*calls)[1].Variables)
	}
}
