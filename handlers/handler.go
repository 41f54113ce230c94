package handlers

import (
	"context"
	"encoding/json"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/goliatone/go-shipbridge/inbound"
)

// Dependencies are the collaborators shared by every handler.
type Dependencies struct {
	Companies    core.CompanyStore
	Integrations core.IntegrationSettingStore
	Settings     core.SettingStore
	Callbacks    core.CallbackStore
	Fluid        core.FluidClient
	ShipHero     core.ShipHeroClient
	Logger       core.Logger
}

// Routes returns the event bindings for every handler in this package.
func Routes(deps Dependencies) []inbound.Route {
	return []inbound.Route{
		{Event: core.EventDropletInstalled, Handler: &DropletInstalled{deps: deps}},
		{Event: core.EventDropletUninstalled, Handler: &DropletUninstalled{deps: deps}},
		{Event: core.EventOrderCreated, Handler: &OrderCreated{deps: deps}},
		{Event: core.EventShipHeroShipmentUpdated, Handler: &ShipmentUpdated{deps: deps}},
	}
}

func (d Dependencies) logger(ctx context.Context, env core.Envelope) core.Logger {
	logger := d.Logger
	if logger == nil {
		logger = glog.Nop()
	}
	logger = logger.WithContext(ctx)
	if fields, ok := logger.(core.FieldsLogger); ok {
		return fields.WithFields(map[string]any{
			"event":       env.Event,
			"delivery_id": env.DeliveryID,
		})
	}
	return logger
}

func decode(env core.Envelope, out any) error {
	if err := json.Unmarshal(env.Body, out); err != nil {
		return core.WrapError(err, goerrors.CategoryBadInput, "handlers: decode "+env.Event+" payload", core.ErrorBadInput, nil)
	}
	return nil
}

// infrastructure wraps a store failure so the worker can apply its retry
// policy. Not found is a domain outcome and never reaches here.
func infrastructure(err error, step string, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["step"] = step
	return core.WrapError(err, goerrors.CategoryInternal, "handlers: "+step, core.ErrorInternal, metadata)
}
