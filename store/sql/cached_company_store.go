package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-shipbridge/core"
)

const companyCacheKeyPrefix = "shipbridge::company::v1"

// CachedCompanyStore serves company lookups on the webhook hot path from a
// read-through cache. Every write invalidates both lookup keys.
type CachedCompanyStore struct {
	base  core.CompanyStore
	cache repositorycache.CacheService
}

func NewCachedCompanyStore(
	base core.CompanyStore,
	cacheService repositorycache.CacheService,
) (*CachedCompanyStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base company store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: company cache service is required")
	}
	return &CachedCompanyStore{base: base, cache: cacheService}, nil
}

// CompanyCacheKey returns shipbridge::company::v1::<lookup>::<value> with the
// value URL-path escaped.
func CompanyCacheKey(lookup string, value string) string {
	return strings.Join([]string{
		companyCacheKeyPrefix,
		url.PathEscape(strings.TrimSpace(lookup)),
		url.PathEscape(strings.TrimSpace(value)),
	}, "::")
}

func (s *CachedCompanyStore) Get(ctx context.Context, id string) (core.Company, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Company{}, fmt.Errorf("sqlstore: cached company store is not configured")
	}
	trimmed := strings.TrimSpace(id)
	company, err := repositorycache.GetOrFetch(ctx, s.cache, CompanyCacheKey("id", trimmed), func(ctx context.Context) (core.Company, error) {
		return s.base.Get(ctx, trimmed)
	})
	if err != nil {
		return core.Company{}, err
	}
	return cloneCompany(company), nil
}

func (s *CachedCompanyStore) GetByFluidCompanyID(ctx context.Context, fluidCompanyID string) (core.Company, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Company{}, fmt.Errorf("sqlstore: cached company store is not configured")
	}
	trimmed := strings.TrimSpace(fluidCompanyID)
	company, err := repositorycache.GetOrFetch(ctx, s.cache, CompanyCacheKey("fluid", trimmed), func(ctx context.Context) (core.Company, error) {
		return s.base.GetByFluidCompanyID(ctx, trimmed)
	})
	if err != nil {
		return core.Company{}, err
	}
	return cloneCompany(company), nil
}

func (s *CachedCompanyStore) Upsert(ctx context.Context, in core.UpsertCompanyInput) (core.Company, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Company{}, fmt.Errorf("sqlstore: cached company store is not configured")
	}
	company, err := s.base.Upsert(ctx, in)
	if err != nil {
		return core.Company{}, err
	}
	if err := s.invalidate(ctx, company); err != nil {
		return core.Company{}, err
	}
	return company, nil
}

func (s *CachedCompanyStore) MarkUninstalled(ctx context.Context, fluidCompanyID string, at time.Time) (core.Company, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Company{}, fmt.Errorf("sqlstore: cached company store is not configured")
	}
	company, err := s.base.MarkUninstalled(ctx, fluidCompanyID, at)
	if err != nil {
		return core.Company{}, err
	}
	if err := s.invalidate(ctx, company); err != nil {
		return core.Company{}, err
	}
	return company, nil
}

func (s *CachedCompanyStore) SetInstalledCallbackIDs(ctx context.Context, id string, callbackIDs []string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached company store is not configured")
	}
	if err := s.base.SetInstalledCallbackIDs(ctx, id, callbackIDs); err != nil {
		return err
	}
	company, err := s.base.Get(ctx, id)
	if err != nil {
		return s.cache.Delete(ctx, CompanyCacheKey("id", id))
	}
	return s.invalidate(ctx, company)
}

func (s *CachedCompanyStore) invalidate(ctx context.Context, company core.Company) error {
	if err := s.cache.Delete(ctx, CompanyCacheKey("id", company.ID)); err != nil {
		return err
	}
	return s.cache.Delete(ctx, CompanyCacheKey("fluid", company.FluidCompanyID))
}

func cloneCompany(in core.Company) core.Company {
	out := in
	out.InstalledCallbackIDs = append([]string{}, in.InstalledCallbackIDs...)
	out.UninstalledAt = cloneTimePointer(in.UninstalledAt)
	return out
}
