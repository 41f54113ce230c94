package query

import (
	"context"
	"strings"

	"github.com/goliatone/go-shipbridge/core"
	"github.com/goliatone/go-shipbridge/providers/shiphero"
)

type WebhookReader interface {
	List(ctx context.Context, company core.Company) ([]core.ShipHeroWebhook, error)
	CheckRequired(ctx context.Context, company core.Company, webhookURL string) (shiphero.CheckResult, error)
}

type CompanyReader interface {
	GetByFluidCompanyID(ctx context.Context, fluidCompanyID string) (core.Company, error)
}

type ListWebhooksQuery struct {
	reader    WebhookReader
	companies CompanyReader
}

func NewListWebhooksQuery(reader WebhookReader, companies CompanyReader) *ListWebhooksQuery {
	return &ListWebhooksQuery{reader: reader, companies: companies}
}

func (q *ListWebhooksQuery) Query(ctx context.Context, msg ListWebhooksMessage) ([]core.ShipHeroWebhook, error) {
	if q == nil || q.reader == nil || q.companies == nil {
		return nil, queryDependencyError("query: webhook reader is required")
	}
	company, err := q.companies.GetByFluidCompanyID(ctx, strings.TrimSpace(msg.FluidCompanyID))
	if err != nil {
		return nil, err
	}
	return q.reader.List(ctx, company)
}

type CheckWebhookQuery struct {
	reader    WebhookReader
	companies CompanyReader
}

func NewCheckWebhookQuery(reader WebhookReader, companies CompanyReader) *CheckWebhookQuery {
	return &CheckWebhookQuery{reader: reader, companies: companies}
}

func (q *CheckWebhookQuery) Query(ctx context.Context, msg CheckWebhookMessage) (shiphero.CheckResult, error) {
	if q == nil || q.reader == nil || q.companies == nil {
		return shiphero.CheckResult{}, queryDependencyError("query: webhook reader is required")
	}
	company, err := q.companies.GetByFluidCompanyID(ctx, strings.TrimSpace(msg.FluidCompanyID))
	if err != nil {
		return shiphero.CheckResult{}, err
	}
	return q.reader.CheckRequired(ctx, company, strings.TrimSpace(msg.URL))
}
