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

type CompanyStore struct {
	db   *bun.DB
	repo repository.Repository[*companyRecord]
}

func NewCompanyStore(db *bun.DB) (*CompanyStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*companyRecord](db, companyHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid company repository wiring: %w", err)
		}
	}
	return &CompanyStore{db: db, repo: repo}, nil
}

// Upsert creates or refreshes the company keyed by fluid company id. Blank
// input fields keep their stored values. The company is reactivated.
func (s *CompanyStore) Upsert(ctx context.Context, in core.UpsertCompanyInput) (core.Company, error) {
	if s == nil || s.db == nil {
		return core.Company{}, fmt.Errorf("sqlstore: company store is not configured")
	}
	if err := in.Validate(); err != nil {
		return core.Company{}, err
	}
	in.FluidCompanyID = strings.TrimSpace(in.FluidCompanyID)

	company, err := s.upsert(ctx, in)
	if err != nil && isUniqueViolation(err) {
		// a concurrent installation inserted the same company first
		company, err = s.upsert(ctx, in)
	}
	if err != nil {
		return core.Company{}, wrapStoreError(err, "upsert company", map[string]any{
			"fluid_company_id": in.FluidCompanyID,
		})
	}
	return company, nil
}

func (s *CompanyStore) upsert(ctx context.Context, in core.UpsertCompanyInput) (core.Company, error) {
	var out core.Company
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now().UTC()
		record := &companyRecord{}
		selectErr := tx.NewSelect().
			Model(record).
			Where("fluid_company_id = ?", in.FluidCompanyID).
			Limit(1).
			Scan(ctx)
		if selectErr != nil && !isNoRows(selectErr) {
			return selectErr
		}

		if isNoRows(selectErr) {
			record = &companyRecord{
				ID:                   uuid.NewString(),
				FluidCompanyID:       in.FluidCompanyID,
				InstalledCallbackIDs: []string{},
				Active:               true,
				CreatedAt:            now,
				UpdatedAt:            now,
			}
			record.apply(in)
			created, createErr := s.repo.CreateTx(ctx, tx, record)
			if createErr != nil {
				return createErr
			}
			out = created.toDomain()
			return nil
		}

		record.apply(in)
		record.Active = true
		record.UninstalledAt = nil
		record.UpdatedAt = now
		if record.InstalledCallbackIDs == nil {
			record.InstalledCallbackIDs = []string{}
		}
		if _, updateErr := tx.NewUpdate().
			Model(record).
			Where("id = ?", record.ID).
			Exec(ctx); updateErr != nil {
			return updateErr
		}
		out = record.toDomain()
		return nil
	})
	return out, err
}

func (s *CompanyStore) Get(ctx context.Context, id string) (core.Company, error) {
	if s == nil || s.repo == nil {
		return core.Company{}, fmt.Errorf("sqlstore: company store is not configured")
	}
	trimmed := strings.TrimSpace(id)
	record, err := s.repo.GetByID(ctx, trimmed)
	if err != nil {
		if isNoRows(err) {
			return core.Company{}, notFound("company", map[string]any{"company_id": trimmed})
		}
		return core.Company{}, err
	}
	return record.toDomain(), nil
}

func (s *CompanyStore) GetByFluidCompanyID(ctx context.Context, fluidCompanyID string) (core.Company, error) {
	if s == nil || s.db == nil {
		return core.Company{}, fmt.Errorf("sqlstore: company store is not configured")
	}
	trimmed := strings.TrimSpace(fluidCompanyID)
	if trimmed == "" {
		return core.Company{}, notFound("company", nil)
	}
	record := &companyRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("fluid_company_id = ?", trimmed).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return core.Company{}, notFound("company", map[string]any{"fluid_company_id": trimmed})
		}
		return core.Company{}, err
	}
	return record.toDomain(), nil
}

func (s *CompanyStore) MarkUninstalled(
	ctx context.Context,
	fluidCompanyID string,
	at time.Time,
) (core.Company, error) {
	if s == nil || s.db == nil {
		return core.Company{}, fmt.Errorf("sqlstore: company store is not configured")
	}
	trimmed := strings.TrimSpace(fluidCompanyID)
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()

	var out core.Company
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &companyRecord{}
		if err := tx.NewSelect().
			Model(record).
			Where("fluid_company_id = ?", trimmed).
			Limit(1).
			Scan(ctx); err != nil {
			if isNoRows(err) {
				return notFound("company", map[string]any{"fluid_company_id": trimmed})
			}
			return err
		}
		record.Active = false
		record.UninstalledAt = &at
		record.UpdatedAt = at
		if _, err := tx.NewUpdate().
			Model(record).
			Column("active", "uninstalled_at", "updated_at").
			Where("id = ?", record.ID).
			Exec(ctx); err != nil {
			return err
		}
		out = record.toDomain()
		return nil
	})
	if err != nil {
		return core.Company{}, err
	}
	return out, nil
}

func (s *CompanyStore) SetInstalledCallbackIDs(ctx context.Context, id string, callbackIDs []string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: company store is not configured")
	}
	trimmed := strings.TrimSpace(id)
	current, err := s.repo.GetByID(ctx, trimmed)
	if err != nil {
		if isNoRows(err) {
			return notFound("company", map[string]any{"company_id": trimmed})
		}
		return err
	}
	current.InstalledCallbackIDs = append([]string{}, callbackIDs...)
	current.UpdatedAt = time.Now().UTC()
	_, err = s.repo.Update(ctx, current, repository.UpdateByID(trimmed))
	return err
}
