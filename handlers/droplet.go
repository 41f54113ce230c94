package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-shipbridge/core"
	"github.com/samber/lo"
)

// DropletInstalled provisions the installing company and registers every
// active callback definition for it.
type DropletInstalled struct {
	deps Dependencies
}

func NewDropletInstalled(deps Dependencies) *DropletInstalled {
	return &DropletInstalled{deps: deps}
}

func (h *DropletInstalled) Handle(ctx context.Context, env core.Envelope) error {
	logger := h.deps.logger(ctx, env)

	var payload dropletPayload
	if err := decode(env, &payload); err != nil {
		logger.Warn("droplet installation payload is malformed", "step", "decode", "error", err)
		return nil
	}
	if payload.Company == nil || payload.Company.FluidCompanyID.String() == "" {
		logger.Warn("droplet installation payload missing company", "step", "validate")
		return nil
	}
	attrs := *payload.Company
	fluidCompanyID := attrs.FluidCompanyID.String()

	if dropletUUID := strings.TrimSpace(attrs.DropletUUID); dropletUUID != "" {
		stored, claimed, err := h.deps.Settings.ClaimDropletUUID(ctx, dropletUUID)
		if err != nil {
			return infrastructure(err, "claim_droplet_uuid", map[string]any{"company_id": fluidCompanyID})
		}
		if claimed {
			logger.Info("stored droplet uuid", "droplet_uuid", stored)
		} else if stored != dropletUUID {
			logger.Warn("droplet uuid differs from stored value",
				"company_id", fluidCompanyID,
				"droplet_uuid", dropletUUID,
			)
		}
	}

	company, err := h.deps.Companies.Upsert(ctx, core.UpsertCompanyInput{
		FluidCompanyID:           fluidCompanyID,
		FluidShop:                attrs.FluidShop,
		Name:                     attrs.Name,
		AuthenticationToken:      attrs.AuthenticationToken,
		WebhookVerificationToken: attrs.WebhookVerificationToken,
		DropletInstallationUUID:  attrs.DropletInstallationUUID,
		CompanyDropletUUID:       attrs.DropletUUID,
	})
	if err != nil {
		logger.Error("failed to upsert company", "step", "upsert_company", "company_id", fluidCompanyID, "error", err)
		return infrastructure(err, "upsert_company", map[string]any{"company_id": fluidCompanyID})
	}
	logger.Info("company installed", "company_id", fluidCompanyID, "status", string(company.Status()))

	return h.registerCallbacks(ctx, logger, company)
}

func (h *DropletInstalled) registerCallbacks(ctx context.Context, logger core.Logger, company core.Company) error {
	if h.deps.Callbacks == nil || h.deps.Fluid == nil {
		return nil
	}
	callbacks, err := h.deps.Callbacks.ListActive(ctx)
	if err != nil {
		return infrastructure(err, "list_callbacks", map[string]any{"company_id": company.FluidCompanyID})
	}

	registered := lo.FilterMap(callbacks, func(callback core.Callback, _ int) (string, bool) {
		id, err := h.deps.Fluid.RegisterCallback(ctx, company.AuthenticationToken, core.CallbackRegistration{
			DefinitionName:   callback.Name,
			URL:              callback.URL,
			TimeoutInSeconds: callback.TimeoutInSeconds,
			Active:           true,
		})
		if err != nil {
			logger.Error("failed to register callback",
				"step", "register_callback",
				"company_id", company.FluidCompanyID,
				"callback", callback.Name,
				"error", err,
			)
			return "", false
		}
		return id, true
	})
	if len(registered) == 0 {
		return nil
	}

	if err := h.deps.Companies.SetInstalledCallbackIDs(ctx, company.ID, registered); err != nil {
		return infrastructure(err, "store_callback_ids", map[string]any{"company_id": company.FluidCompanyID})
	}
	logger.Info("registered callbacks",
		"company_id", company.FluidCompanyID,
		"registered", len(registered),
		"total", len(callbacks),
	)
	return nil
}

// DropletUninstalled deactivates the company. The record is kept.
type DropletUninstalled struct {
	deps Dependencies
	now  func() time.Time
}

func NewDropletUninstalled(deps Dependencies) *DropletUninstalled {
	return &DropletUninstalled{deps: deps}
}

func (h *DropletUninstalled) Handle(ctx context.Context, env core.Envelope) error {
	logger := h.deps.logger(ctx, env)

	var payload dropletPayload
	if err := decode(env, &payload); err != nil {
		logger.Warn("droplet uninstall payload is malformed", "step", "decode", "error", err)
		return nil
	}
	fluidCompanyID := env.CompanyID
	if payload.Company != nil && payload.Company.FluidCompanyID.String() != "" {
		fluidCompanyID = payload.Company.FluidCompanyID.String()
	}
	if strings.TrimSpace(fluidCompanyID) == "" {
		logger.Warn("droplet uninstall payload missing company", "step", "validate")
		return nil
	}

	now := time.Now
	if h.now != nil {
		now = h.now
	}
	company, err := h.deps.Companies.MarkUninstalled(ctx, fluidCompanyID, now())
	if err != nil {
		if core.IsNotFound(err) {
			logger.Warn("uninstall for unknown company", "step", "mark_uninstalled", "company_id", fluidCompanyID)
			return nil
		}
		return infrastructure(err, "mark_uninstalled", map[string]any{"company_id": fluidCompanyID})
	}
	logger.Info("company uninstalled", "company_id", fluidCompanyID, "status", string(company.Status()))
	return nil
}
