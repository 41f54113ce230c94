package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-shipbridge/core"
	"github.com/uptrace/bun"
)

type SettingStore struct {
	db *bun.DB
}

func NewSettingStore(db *bun.DB) (*SettingStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &SettingStore{db: db}, nil
}

func (s *SettingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, fmt.Errorf("sqlstore: setting store is not configured")
	}
	record := &settingRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("key = ?", strings.TrimSpace(key)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return record.Value, true, nil
}

func (s *SettingStore) Set(ctx context.Context, key string, value string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: setting store is not configured")
	}
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return fmt.Errorf("sqlstore: setting key is required")
	}
	now := time.Now().UTC()
	_, err := s.db.NewInsert().
		Model(&settingRecord{Key: trimmed, Value: value, CreatedAt: now, UpdatedAt: now}).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// ClaimDropletUUID is a compare-and-set on the droplet uuid setting: the
// first caller stores its value and every caller gets the stored one back.
func (s *SettingStore) ClaimDropletUUID(ctx context.Context, value string) (string, bool, error) {
	if s == nil || s.db == nil {
		return "", false, fmt.Errorf("sqlstore: setting store is not configured")
	}
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", false, fmt.Errorf("sqlstore: droplet uuid is required")
	}
	now := time.Now().UTC()
	res, err := s.db.NewInsert().
		Model(&settingRecord{
			Key:       core.SettingDropletUUID,
			Value:     trimmed,
			CreatedAt: now,
			UpdatedAt: now,
		}).
		On("CONFLICT (key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return "", false, err
	}
	claimed := false
	if res != nil {
		if affected, affectedErr := res.RowsAffected(); affectedErr == nil && affected > 0 {
			claimed = true
		}
	}
	stored, found, err := s.Get(ctx, core.SettingDropletUUID)
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, fmt.Errorf("sqlstore: droplet uuid setting missing after claim")
	}
	return stored, claimed, nil
}
