package webhooks

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-shipbridge/core"
)

const (
	MessageUnauthorized    = "Unauthorized"
	MessageCompanyNotFound = "Company not found"
)

// FluidTokenHeaders are checked in order; the first non-empty value wins.
var FluidTokenHeaders = []string{"AUTH_TOKEN", "X-Auth-Token", "HTTP_AUTH_TOKEN"}

// DropletUUIDVerifier gates droplet installed/uninstalled events. Until a
// droplet uuid is stored every request is trusted.
type DropletUUIDVerifier struct {
	Settings core.SettingStore
	Logger   core.Logger
}

func (v DropletUUIDVerifier) Verify(ctx context.Context, dropletUUID string) error {
	if v.Settings == nil {
		return core.NewError("webhooks: settings store is not configured", goerrors.CategoryInternal, core.ErrorInternal, nil)
	}
	stored, ok, err := v.Settings.Get(ctx, core.SettingDropletUUID)
	if err != nil {
		return core.WrapError(err, goerrors.CategoryInternal, "webhooks: read droplet uuid", core.ErrorInternal, nil)
	}
	if !ok || strings.TrimSpace(stored) == "" {
		return nil
	}
	if !SecureCompare(stored, dropletUUID) {
		if v.Logger != nil {
			v.Logger.Warn("droplet uuid mismatch", "received_present", dropletUUID != "")
		}
		return core.UnauthorizedError(MessageUnauthorized, map[string]any{"reason": "droplet_uuid_mismatch"})
	}
	return nil
}

// TokenVerifier authenticates non-installation commerce events against the
// shared webhook token or the company's own verification token.
type TokenVerifier struct {
	Companies   core.CompanyStore
	Settings    core.SettingStore
	SharedToken string
	Logger      core.Logger
}

func (v TokenVerifier) Verify(ctx context.Context, req core.InboundRequest, fluidCompanyID string) (core.Company, error) {
	if v.Companies == nil {
		return core.Company{}, core.NewError("webhooks: company store is not configured", goerrors.CategoryInternal, core.ErrorInternal, nil)
	}
	fluidCompanyID = strings.TrimSpace(fluidCompanyID)
	if fluidCompanyID == "" {
		return core.Company{}, core.NotFoundError(MessageCompanyNotFound, nil)
	}
	company, err := v.Companies.GetByFluidCompanyID(ctx, fluidCompanyID)
	if err != nil {
		if core.IsNotFound(err) {
			return core.Company{}, core.NotFoundError(MessageCompanyNotFound, map[string]any{"fluid_company_id": fluidCompanyID})
		}
		return core.Company{}, err
	}

	token := firstHeader(req.Headers, FluidTokenHeaders...)
	if token == "" {
		return core.Company{}, core.UnauthorizedError(MessageUnauthorized, map[string]any{"reason": "token_missing"})
	}
	for _, candidate := range []string{v.sharedToken(ctx), company.WebhookVerificationToken} {
		if SecureCompare(strings.TrimSpace(candidate), token) {
			return company, nil
		}
	}
	if v.Logger != nil {
		v.Logger.Warn("webhook token rejected", "fluid_company_id", fluidCompanyID)
	}
	return core.Company{}, core.UnauthorizedError(MessageUnauthorized, map[string]any{"reason": "token_mismatch"})
}

func (v TokenVerifier) sharedToken(ctx context.Context) string {
	if v.Settings != nil {
		value, ok, err := v.Settings.Get(ctx, core.SettingFluidWebhookAuthToken)
		if err == nil && ok && strings.TrimSpace(value) != "" {
			return value
		}
		if err != nil && v.Logger != nil {
			v.Logger.Error("read shared webhook token failed", "error", err)
		}
	}
	return v.SharedToken
}
