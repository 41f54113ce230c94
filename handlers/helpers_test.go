package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-shipbridge/core"
)

type memCompanies struct {
	mu        sync.Mutex
	byFluidID map[string]core.Company
	upserts   []core.UpsertCompanyInput
	err       error
}

func newMemCompanies(companies ...core.Company) *memCompanies {
	store := &memCompanies{byFluidID: map[string]core.Company{}}
	for _, company := range companies {
		store.byFluidID[company.FluidCompanyID] = company
	}
	return store
}

func (s *memCompanies) Upsert(_ context.Context, in core.UpsertCompanyInput) (core.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return core.Company{}, s.err
	}
	s.upserts = append(s.upserts, in)
	company, ok := s.byFluidID[in.FluidCompanyID]
	if !ok {
		company = core.Company{ID: fmt.Sprintf("co_%d", len(s.byFluidID)+1), FluidCompanyID: in.FluidCompanyID}
	}
	company.Name = in.Name
	company.FluidShop = in.FluidShop
	company.AuthenticationToken = in.AuthenticationToken
	company.CompanyDropletUUID = in.CompanyDropletUUID
	company.Active = true
	company.UninstalledAt = nil
	s.byFluidID[in.FluidCompanyID] = company
	return company, nil
}

func (s *memCompanies) Get(_ context.Context, id string) (core.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, company := range s.byFluidID {
		if company.ID == id {
			return company, nil
		}
	}
	return core.Company{}, core.NotFoundError("company not found", nil)
}

func (s *memCompanies) GetByFluidCompanyID(_ context.Context, id string) (core.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return core.Company{}, s.err
	}
	company, ok := s.byFluidID[id]
	if !ok {
		return core.Company{}, core.NotFoundError("company not found", nil)
	}
	return company, nil
}

func (s *memCompanies) MarkUninstalled(_ context.Context, id string, at time.Time) (core.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	company, ok := s.byFluidID[id]
	if !ok {
		return core.Company{}, core.NotFoundError("company not found", nil)
	}
	company.Active = false
	company.UninstalledAt = &at
	s.byFluidID[id] = company
	return company, nil
}

func (s *memCompanies) SetInstalledCallbackIDs(_ context.Context, id string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, company := range s.byFluidID {
		if company.ID == id {
			company.InstalledCallbackIDs = append([]string{}, ids...)
			s.byFluidID[key] = company
			return nil
		}
	}
	return core.NotFoundError("company not found", nil)
}

type memIntegrations struct {
	byCompany map[string]core.IntegrationSetting
}

func (s *memIntegrations) GetByCompany(_ context.Context, companyID string) (core.IntegrationSetting, error) {
	setting, ok := s.byCompany[companyID]
	if !ok {
		return core.IntegrationSetting{}, core.NotFoundError("integration setting not found", nil)
	}
	return setting, nil
}

func (s *memIntegrations) Upsert(_ context.Context, companyID string, settings core.IntegrationSettings) (core.IntegrationSetting, error) {
	setting := core.IntegrationSetting{CompanyID: companyID, Settings: settings}
	s.byCompany[companyID] = setting
	return setting, nil
}

func (s *memIntegrations) StoreWebhookSecret(context.Context, string, string, string) error {
	return nil
}

type memSettings struct {
	mu     sync.Mutex
	values map[string]string
}

func (s *memSettings) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *memSettings) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[key] = value
	return nil
}

func (s *memSettings) ClaimDropletUUID(_ context.Context, value string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = map[string]string{}
	}
	if existing, ok := s.values[core.SettingDropletUUID]; ok {
		return existing, false, nil
	}
	s.values[core.SettingDropletUUID] = value
	return value, true, nil
}

type memCallbacks struct {
	active []core.Callback
}

func (s *memCallbacks) ListActive(context.Context) ([]core.Callback, error) {
	return s.active, nil
}

func (s *memCallbacks) Upsert(_ context.Context, callback core.Callback) (core.Callback, error) {
	s.active = append(s.active, callback)
	return callback, nil
}

type stubFluid struct {
	failCallbacks map[string]bool
	registered    []core.CallbackRegistration
	order         core.FluidOrder
	orderErr      error
	externalIDs   map[string]string
	externalErr   error
	fulfillments  []string
	fulfillErr    error
	tokens        []string
}

func (s *stubFluid) RegisterCallback(_ context.Context, token string, registration core.CallbackRegistration) (string, error) {
	s.tokens = append(s.tokens, token)
	if s.failCallbacks[registration.DefinitionName] {
		return "", errors.New("registration rejected")
	}
	s.registered = append(s.registered, registration)
	return "remote-" + registration.DefinitionName, nil
}

func (s *stubFluid) GetOrder(_ context.Context, token string, _ string) (core.FluidOrder, error) {
	s.tokens = append(s.tokens, token)
	if s.orderErr != nil {
		return core.FluidOrder{}, s.orderErr
	}
	return s.order, nil
}

func (s *stubFluid) UpdateExternalID(_ context.Context, token string, orderID string, externalID string) error {
	s.tokens = append(s.tokens, token)
	if s.externalErr != nil {
		return s.externalErr
	}
	if s.externalIDs == nil {
		s.externalIDs = map[string]string{}
	}
	s.externalIDs[orderID] = externalID
	return nil
}

func (s *stubFluid) CreateFulfillment(_ context.Context, token string, orderID string, items []json.RawMessage, trackingNumber string) error {
	s.tokens = append(s.tokens, token)
	if s.fulfillErr != nil {
		return s.fulfillErr
	}
	s.fulfillments = append(s.fulfillments, fmt.Sprintf("%s|%s|%d", orderID, trackingNumber, len(items)))
	return nil
}

type stubShipHero struct {
	orders  []core.ShipHeroOrder
	orderID string
	err     error
}

func (s *stubShipHero) CreateOrder(_ context.Context, _ core.IntegrationSetting, order core.ShipHeroOrder) (string, error) {
	s.orders = append(s.orders, order)
	if s.err != nil {
		return "", s.err
	}
	return s.orderID, nil
}

func (s *stubShipHero) ListWebhooks(context.Context, core.IntegrationSetting) ([]core.ShipHeroWebhook, error) {
	return nil, nil
}

func (s *stubShipHero) CreateWebhook(_ context.Context, _ core.IntegrationSetting, webhook core.ShipHeroWebhook) (core.ShipHeroWebhook, error) {
	return webhook, nil
}

func (s *stubShipHero) DeleteWebhook(context.Context, core.IntegrationSetting, string, string) error {
	return nil
}

type capturedLog struct {
	level string
	msg   string
}

type capturingLogger struct {
	mu      sync.Mutex
	entries []capturedLog
}

func (l *capturingLogger) Trace(msg string, _ ...any) { l.add("trace", msg) }
func (l *capturingLogger) Debug(msg string, _ ...any) { l.add("debug", msg) }
func (l *capturingLogger) Info(msg string, _ ...any)  { l.add("info", msg) }
func (l *capturingLogger) Warn(msg string, _ ...any)  { l.add("warn", msg) }
func (l *capturingLogger) Error(msg string, _ ...any) { l.add("error", msg) }
func (l *capturingLogger) Fatal(msg string, _ ...any) { l.add("fatal", msg) }
func (l *capturingLogger) WithContext(context.Context) core.Logger {
	return l
}

func (l *capturingLogger) add(level string, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, capturedLog{level: level, msg: msg})
}

func (l *capturingLogger) has(level string, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, entry := range l.entries {
		if entry.level == level && entry.msg == msg {
			return true
		}
	}
	return false
}

func envelope(event string, body string) core.Envelope {
	return core.Envelope{
		Event:      event,
		DeliveryID: "delivery-1",
		ReceivedAt: time.Now().UTC(),
		Body:       json.RawMessage(body),
	}
}
