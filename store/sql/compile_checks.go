package sqlstore

import "github.com/goliatone/go-shipbridge/core"

var (
	_ core.CompanyStore            = (*CompanyStore)(nil)
	_ core.CompanyStore            = (*CachedCompanyStore)(nil)
	_ core.IntegrationSettingStore = (*IntegrationSettingStore)(nil)
	_ core.SettingStore            = (*SettingStore)(nil)
	_ core.CallbackStore           = (*CallbackStore)(nil)
)
