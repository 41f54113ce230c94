package httpapi

import (
	"context"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/goliatone/go-shipbridge/inbound"
)

type capturingEnqueuer struct {
	events    []string
	companies []string
	err       error
}

type enqueueAdapter struct {
	capture *capturingEnqueuer
}

func (a *enqueueAdapter) Enqueue(_ context.Context, msg *job.ExecutionMessage) (queue.EnqueueReceipt, error) {
	if a.capture.err != nil {
		return queue.EnqueueReceipt{}, a.capture.err
	}
	env, err := inbound.FromExecutionMessage(msg)
	if err != nil {
		return queue.EnqueueReceipt{}, err
	}
	a.capture.events = append(a.capture.events, env.Event)
	a.capture.companies = append(a.capture.companies, env.CompanyID)
	return queue.EnqueueReceipt{DispatchID: env.DeliveryID, EnqueuedAt: time.Now()}, nil
}

type stubSettings struct {
	values map[string]string
}

func (s *stubSettings) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *stubSettings) Set(_ context.Context, key string, value string) error {
	s.values[key] = value
	return nil
}

func (s *stubSettings) ClaimDropletUUID(_ context.Context, value string) (string, bool, error) {
	if existing, ok := s.values[core.SettingDropletUUID]; ok {
		return existing, false, nil
	}
	s.values[core.SettingDropletUUID] = value
	return value, true, nil
}

type stubCompanies map[string]core.Company

func (s stubCompanies) Upsert(context.Context, core.UpsertCompanyInput) (core.Company, error) {
	return core.Company{}, nil
}

func (s stubCompanies) Get(context.Context, string) (core.Company, error) {
	return core.Company{}, core.NotFoundError("company not found", nil)
}

func (s stubCompanies) GetByFluidCompanyID(_ context.Context, id string) (core.Company, error) {
	company, ok := s[id]
	if !ok {
		return core.Company{}, core.NotFoundError("company not found", nil)
	}
	return company, nil
}

func (s stubCompanies) MarkUninstalled(context.Context, string, time.Time) (core.Company, error) {
	return core.Company{}, nil
}

func (s stubCompanies) SetInstalledCallbackIDs(context.Context, string, []string) error {
	return nil
}

type countingMetrics struct {
	counts map[string]int
}

func (m *countingMetrics) IncCounter(_ context.Context, _ string, value int64, tags map[string]string) {
	m.counts[tags["provider"]+"|"+tags["event"]+"|"+tags["outcome"]] += int(value)
}

func (m *countingMetrics) ObserveHistogram(context.Context, string, float64, map[string]string) {}
