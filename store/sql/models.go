package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-shipbridge/core"
	"github.com/uptrace/bun"
)

type companyRecord struct {
	bun.BaseModel `bun:"table:companies,alias:co"`

	ID                       string     `bun:"id,pk"`
	FluidCompanyID           string     `bun:"fluid_company_id,notnull"`
	FluidShop                string     `bun:"fluid_shop,notnull"`
	Name                     string     `bun:"name,notnull"`
	AuthenticationToken      string     `bun:"authentication_token,notnull"`
	WebhookVerificationToken string     `bun:"webhook_verification_token,notnull"`
	DropletInstallationUUID  string     `bun:"droplet_installation_uuid,notnull"`
	CompanyDropletUUID       string     `bun:"company_droplet_uuid,notnull"`
	InstalledCallbackIDs     []string   `bun:"installed_callback_ids,type:jsonb,notnull"`
	Active                   bool       `bun:"active,notnull"`
	UninstalledAt            *time.Time `bun:"uninstalled_at,nullzero"`
	CreatedAt                time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt                time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *companyRecord) apply(in core.UpsertCompanyInput) {
	assign := func(target *string, value string) {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			*target = trimmed
		}
	}
	assign(&r.FluidShop, in.FluidShop)
	assign(&r.Name, in.Name)
	assign(&r.AuthenticationToken, in.AuthenticationToken)
	assign(&r.WebhookVerificationToken, in.WebhookVerificationToken)
	assign(&r.DropletInstallationUUID, in.DropletInstallationUUID)
	assign(&r.CompanyDropletUUID, in.CompanyDropletUUID)
}

func (r *companyRecord) toDomain() core.Company {
	if r == nil {
		return core.Company{}
	}
	return core.Company{
		ID:                       r.ID,
		FluidCompanyID:           r.FluidCompanyID,
		FluidShop:                r.FluidShop,
		Name:                     r.Name,
		AuthenticationToken:      r.AuthenticationToken,
		WebhookVerificationToken: r.WebhookVerificationToken,
		DropletInstallationUUID:  r.DropletInstallationUUID,
		CompanyDropletUUID:       r.CompanyDropletUUID,
		InstalledCallbackIDs:     append([]string{}, r.InstalledCallbackIDs...),
		Active:                   r.Active,
		UninstalledAt:            cloneTimePointer(r.UninstalledAt),
		CreatedAt:                r.CreatedAt,
		UpdatedAt:                r.UpdatedAt,
	}
}

type integrationCredentials struct {
	WebhookSecrets map[string]string `json:"webhook_secrets,omitempty"`
}

type integrationSettingRecord struct {
	bun.BaseModel `bun:"table:integration_settings,alias:ist"`

	ID          string                   `bun:"id,pk"`
	CompanyID   string                   `bun:"company_id,notnull"`
	Settings    core.IntegrationSettings `bun:"settings,type:jsonb,notnull"`
	Credentials integrationCredentials   `bun:"credentials,type:jsonb,notnull"`
	CreatedAt   time.Time                `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time                `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *integrationSettingRecord) toDomain() core.IntegrationSetting {
	if r == nil {
		return core.IntegrationSetting{}
	}
	return core.IntegrationSetting{
		ID:             r.ID,
		CompanyID:      r.CompanyID,
		Settings:       r.Settings,
		WebhookSecrets: copyStringMap(r.Credentials.WebhookSecrets),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type settingRecord struct {
	bun.BaseModel `bun:"table:settings,alias:st"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type callbackRecord struct {
	bun.BaseModel `bun:"table:callbacks,alias:cb"`

	ID               string    `bun:"id,pk"`
	Name             string    `bun:"name,notnull"`
	URL              string    `bun:"url,notnull"`
	TimeoutInSeconds int       `bun:"timeout_in_seconds,notnull"`
	Active           bool      `bun:"active,notnull"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *callbackRecord) toDomain() core.Callback {
	if r == nil {
		return core.Callback{}
	}
	return core.Callback{
		ID:               r.ID,
		Name:             r.Name,
		URL:              r.URL,
		TimeoutInSeconds: r.TimeoutInSeconds,
		Active:           r.Active,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func cloneTimePointer(input *time.Time) *time.Time {
	if input == nil {
		return nil
	}
	value := input.UTC()
	return &value
}

func copyStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
