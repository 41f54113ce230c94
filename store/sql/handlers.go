package sqlstore

import (
	"database/sql"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/google/uuid"
)

func companyHandlers() repository.ModelHandlers[*companyRecord] {
	return repository.ModelHandlers[*companyRecord]{
		NewRecord: func() *companyRecord {
			return &companyRecord{}
		},
		GetID: func(record *companyRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *companyRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "fluid_company_id"
		},
		GetIdentifierValue: func(record *companyRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.FluidCompanyID)
		},
	}
}

func integrationSettingHandlers() repository.ModelHandlers[*integrationSettingRecord] {
	return repository.ModelHandlers[*integrationSettingRecord]{
		NewRecord: func() *integrationSettingRecord {
			return &integrationSettingRecord{}
		},
		GetID: func(record *integrationSettingRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *integrationSettingRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "company_id"
		},
		GetIdentifierValue: func(record *integrationSettingRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.CompanyID)
		},
	}
}

func callbackHandlers() repository.ModelHandlers[*callbackRecord] {
	return repository.ModelHandlers[*callbackRecord]{
		NewRecord: func() *callbackRecord {
			return &callbackRecord{}
		},
		GetID: func(record *callbackRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *callbackRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "name"
		},
		GetIdentifierValue: func(record *callbackRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.Name)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}

func isNoRows(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrNoRows) || goerrors.IsNotFound(err) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no rows")
}

func notFound(entity string, metadata map[string]any) error {
	return core.NotFoundError("sqlstore: "+entity+" not found", metadata)
}

func wrapStoreError(err error, message string, metadata map[string]any) error {
	return core.WrapError(err, goerrors.CategoryInternal, "sqlstore: "+message, core.ErrorInternal, metadata)
}
