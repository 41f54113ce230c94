package query

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/goliatone/go-shipbridge/providers/shiphero"
)

func TestListWebhooksQuery_DelegatesWithResolvedCompany(t *testing.T) {
	reader := &stubWebhookReader{webhooks: []core.ShipHeroWebhook{{Name: "Shipment Update", URL: "https://bridge.test/webhook"}}}
	qry := NewListWebhooksQuery(reader, stubCompanyReader{"980190": {ID: "co_1", FluidCompanyID: "980190"}})

	webhooks, err := qry.Query(context.Background(), ListWebhooksMessage{FluidCompanyID: " 980190 "})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(webhooks) != 1 || reader.company.ID != "co_1" {
		t.Fatalf("unexpected result %v for %+v", webhooks, reader.company)
	}
}

func TestCheckWebhookQuery_PassesURL(t *testing.T) {
	reader := &stubWebhookReader{check: shiphero.CheckResult{Configured: true}}
	qry := NewCheckWebhookQuery(reader, stubCompanyReader{"1": {ID: "co_1"}})

	result, err := qry.Query(context.Background(), CheckWebhookMessage{FluidCompanyID: "1", URL: "https://bridge.test/webhook"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !result.Configured || reader.url != "https://bridge.test/webhook" {
		t.Fatalf("unexpected check %+v url %q", result, reader.url)
	}
}

func TestQueries_UnknownCompanyIsNotFound(t *testing.T) {
	qry := NewListWebhooksQuery(&stubWebhookReader{}, stubCompanyReader{})
	if _, err := qry.Query(context.Background(), ListWebhooksMessage{FluidCompanyID: "x"}); !core.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestQueryMessages_Validate(t *testing.T) {
	err := (CheckWebhookMessage{FluidCompanyID: "1"}).Validate()
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation envelope, got %v", err)
	}
	if err := (ListWebhooksMessage{FluidCompanyID: "1"}).Validate(); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
}

func TestNilQueryReturnsDependencyError(t *testing.T) {
	var qry *CheckWebhookQuery
	_, err := qry.Query(context.Background(), CheckWebhookMessage{})
	if !goerrors.IsCategory(err, goerrors.CategoryInternal) {
		t.Fatalf("expected internal category, got %v", err)
	}
}

type stubWebhookReader struct {
	webhooks []core.ShipHeroWebhook
	check    shiphero.CheckResult
	company  core.Company
	url      string
}

func (s *stubWebhookReader) List(_ context.Context, company core.Company) ([]core.ShipHeroWebhook, error) {
	s.company = company
	return s.webhooks, nil
}

func (s *stubWebhookReader) CheckRequired(_ context.Context, company core.Company, webhookURL string) (shiphero.CheckResult, error) {
	s.company = company
	s.url = webhookURL
	return s.check, nil
}

type stubCompanyReader map[string]core.Company

func (s stubCompanyReader) GetByFluidCompanyID(_ context.Context, id string) (core.Company, error) {
	company, ok := s[id]
	if !ok {
		return core.Company{}, core.NotFoundError("company not found", nil)
	}
	return company, nil
}
