package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type IntegrationSettingStore struct {
	db   *bun.DB
	repo repository.Repository[*integrationSettingRecord]
}

func NewIntegrationSettingStore(db *bun.DB) (*IntegrationSettingStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*integrationSettingRecord](db, integrationSettingHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid integration setting repository wiring: %w", err)
		}
	}
	return &IntegrationSettingStore{db: db, repo: repo}, nil
}

func (s *IntegrationSettingStore) GetByCompany(ctx context.Context, companyID string) (core.IntegrationSetting, error) {
	if s == nil || s.repo == nil {
		return core.IntegrationSetting{}, fmt.Errorf("sqlstore: integration setting store is not configured")
	}
	trimmed := strings.TrimSpace(companyID)
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("company_id", "=", trimmed),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.IntegrationSetting{}, err
	}
	if len(records) == 0 {
		return core.IntegrationSetting{}, notFound("integration setting", map[string]any{"company_id": trimmed})
	}
	return records[0].toDomain(), nil
}

func (s *IntegrationSettingStore) Upsert(
	ctx context.Context,
	companyID string,
	settings core.IntegrationSettings,
) (core.IntegrationSetting, error) {
	if s == nil || s.db == nil {
		return core.IntegrationSetting{}, fmt.Errorf("sqlstore: integration setting store is not configured")
	}
	trimmed := strings.TrimSpace(companyID)
	if trimmed == "" {
		return core.IntegrationSetting{}, fmt.Errorf("sqlstore: company id is required")
	}

	var out core.IntegrationSetting
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, found, err := s.loadTx(ctx, tx, trimmed)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if !found {
			record = newIntegrationSettingRecord(trimmed, now)
			record.Settings = settings
			created, createErr := s.repo.CreateTx(ctx, tx, record)
			if createErr != nil {
				return createErr
			}
			out = created.toDomain()
			return nil
		}
		record.Settings = settings
		record.UpdatedAt = now
		if _, err := tx.NewUpdate().
			Model(record).
			Column("settings", "updated_at").
			Where("id = ?", record.ID).
			Exec(ctx); err != nil {
			return err
		}
		out = record.toDomain()
		return nil
	})
	if err != nil {
		return core.IntegrationSetting{}, err
	}
	return out, nil
}

// StoreWebhookSecret persists the secret under name right away, creating the
// integration setting row when the company has none yet.
func (s *IntegrationSettingStore) StoreWebhookSecret(
	ctx context.Context,
	companyID string,
	name string,
	secret string,
) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: integration setting store is not configured")
	}
	trimmedCompany := strings.TrimSpace(companyID)
	trimmedName := strings.TrimSpace(name)
	if trimmedCompany == "" || trimmedName == "" {
		return fmt.Errorf("sqlstore: company id and webhook name are required")
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, found, err := s.loadTx(ctx, tx, trimmedCompany)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if !found {
			record = newIntegrationSettingRecord(trimmedCompany, now)
			record.Credentials.WebhookSecrets[trimmedName] = secret
			_, createErr := s.repo.CreateTx(ctx, tx, record)
			return createErr
		}
		if record.Credentials.WebhookSecrets == nil {
			record.Credentials.WebhookSecrets = map[string]string{}
		}
		record.Credentials.WebhookSecrets[trimmedName] = secret
		record.UpdatedAt = now
		_, err = tx.NewUpdate().
			Model(record).
			Column("credentials", "updated_at").
			Where("id = ?", record.ID).
			Exec(ctx)
		return err
	})
}

func (s *IntegrationSettingStore) loadTx(
	ctx context.Context,
	tx bun.Tx,
	companyID string,
) (*integrationSettingRecord, bool, error) {
	record := &integrationSettingRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("company_id = ?", companyID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return record, true, nil
}

func newIntegrationSettingRecord(companyID string, now time.Time) *integrationSettingRecord {
	return &integrationSettingRecord{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		Credentials: integrationCredentials{
			WebhookSecrets: map[string]string{},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
