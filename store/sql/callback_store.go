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

type CallbackStore struct {
	db   *bun.DB
	repo repository.Repository[*callbackRecord]
}

func NewCallbackStore(db *bun.DB) (*CallbackStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*callbackRecord](db, callbackHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid callback repository wiring: %w", err)
		}
	}
	return &CallbackStore{db: db, repo: repo}, nil
}

func (s *CallbackStore) ListActive(ctx context.Context) ([]core.Callback, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: callback store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		selectActiveCallbacks(),
		repository.OrderBy("name ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Callback, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func selectActiveCallbacks() repository.SelectCriteria {
	return repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.active = ?", true)
	})
}

// Upsert creates or replaces the callback definition with the same name.
func (s *CallbackStore) Upsert(ctx context.Context, callback core.Callback) (core.Callback, error) {
	if s == nil || s.db == nil {
		return core.Callback{}, fmt.Errorf("sqlstore: callback store is not configured")
	}
	if err := callback.Validate(); err != nil {
		return core.Callback{}, err
	}
	name := strings.TrimSpace(callback.Name)

	var out core.Callback
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now().UTC()
		record := &callbackRecord{}
		err := tx.NewSelect().
			Model(record).
			Where("name = ?", name).
			Limit(1).
			Scan(ctx)
		if err != nil && !isNoRows(err) {
			return err
		}
		if isNoRows(err) {
			record = &callbackRecord{
				ID:               uuid.NewString(),
				Name:             name,
				URL:              strings.TrimSpace(callback.URL),
				TimeoutInSeconds: callback.TimeoutInSeconds,
				Active:           callback.Active,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			created, createErr := s.repo.CreateTx(ctx, tx, record)
			if createErr != nil {
				return createErr
			}
			out = created.toDomain()
			return nil
		}
		record.URL = strings.TrimSpace(callback.URL)
		record.TimeoutInSeconds = callback.TimeoutInSeconds
		record.Active = callback.Active
		record.UpdatedAt = now
		if _, err := tx.NewUpdate().
			Model(record).
			Where("id = ?", record.ID).
			Exec(ctx); err != nil {
			return err
		}
		out = record.toDomain()
		return nil
	})
	if err != nil {
		return core.Callback{}, err
	}
	return out, nil
}
