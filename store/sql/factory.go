package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db    *bun.DB
	cache repositorycache.CacheService

	companyStore            core.CompanyStore
	integrationSettingStore *IntegrationSettingStore
	settingStore            *SettingStore
	callbackStore           *CallbackStore
}

type FactoryOption func(*RepositoryFactory)

// WithCompanyCache serves company lookups through the given cache service.
func WithCompanyCache(cacheService repositorycache.CacheService) FactoryOption {
	return func(f *RepositoryFactory) {
		f.cache = cacheService
	}
}

func NewRepositoryFactory(opts ...FactoryOption) *RepositoryFactory {
	factory := &RepositoryFactory{}
	for _, opt := range opts {
		if opt != nil {
			opt(factory)
		}
	}
	return factory
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if err := factory.Build(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB, opts ...FactoryOption) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory(opts...)
	if err := factory.Build(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) Build(persistenceClient any) error {
	if f == nil {
		return fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return err
		}
		f.db = db
	}
	if f.companyStore != nil && f.settingStore != nil {
		return nil
	}
	return f.initStores()
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) CompanyStore() core.CompanyStore {
	if f == nil {
		return nil
	}
	return f.companyStore
}

func (f *RepositoryFactory) IntegrationSettingStore() core.IntegrationSettingStore {
	if f == nil {
		return nil
	}
	return f.integrationSettingStore
}

func (f *RepositoryFactory) SettingStore() core.SettingStore {
	if f == nil {
		return nil
	}
	return f.settingStore
}

func (f *RepositoryFactory) CallbackStore() core.CallbackStore {
	if f == nil {
		return nil
	}
	return f.callbackStore
}

func (f *RepositoryFactory) initStores() error {
	companyStore, err := NewCompanyStore(f.db)
	if err != nil {
		return err
	}
	f.companyStore = companyStore
	if f.cache != nil {
		cached, err := NewCachedCompanyStore(companyStore, f.cache)
		if err != nil {
			return err
		}
		f.companyStore = cached
	}

	integrationSettingStore, err := NewIntegrationSettingStore(f.db)
	if err != nil {
		return err
	}
	f.integrationSettingStore = integrationSettingStore

	settingStore, err := NewSettingStore(f.db)
	if err != nil {
		return err
	}
	f.settingStore = settingStore

	callbackStore, err := NewCallbackStore(f.db)
	if err != nil {
		return err
	}
	f.callbackStore = callbackStore
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
