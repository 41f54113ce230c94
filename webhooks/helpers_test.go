package webhooks

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-shipbridge/core"
)

type stubSettings struct {
	values map[string]string
	err    error
}

func (s *stubSettings) Get(_ context.Context, key string) (string, bool, error) {
	if s.err != nil {
		return "", false, s.err
	}
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *stubSettings) Set(_ context.Context, key string, value string) error {
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[key] = value
	return nil
}

func (s *stubSettings) ClaimDropletUUID(_ context.Context, value string) (string, bool, error) {
	if existing, ok := s.values[core.SettingDropletUUID]; ok {
		return existing, false, nil
	}
	_ = s.Set(context.Background(), core.SettingDropletUUID, value)
	return value, true, nil
}

type stubCompanies struct {
	byFluidID map[string]core.Company
	err       error
}

func (s *stubCompanies) Upsert(context.Context, core.UpsertCompanyInput) (core.Company, error) {
	return core.Company{}, errors.New("not implemented")
}

func (s *stubCompanies) Get(context.Context, string) (core.Company, error) {
	return core.Company{}, errors.New("not implemented")
}

func (s *stubCompanies) GetByFluidCompanyID(_ context.Context, id string) (core.Company, error) {
	if s.err != nil {
		return core.Company{}, s.err
	}
	company, ok := s.byFluidID[id]
	if !ok {
		return core.Company{}, core.NotFoundError("company not found", nil)
	}
	return company, nil
}

func (s *stubCompanies) MarkUninstalled(context.Context, string, time.Time) (core.Company, error) {
	return core.Company{}, errors.New("not implemented")
}

func (s *stubCompanies) SetInstalledCallbackIDs(context.Context, string, []string) error {
	return errors.New("not implemented")
}

type capturedLog struct {
	level string
	msg   string
	args  []any
}

type capturingLogger struct {
	entries []capturedLog
}

func (l *capturingLogger) Trace(msg string, args ...any) { l.add("trace", msg, args) }
func (l *capturingLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *capturingLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *capturingLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *capturingLogger) Error(msg string, args ...any) { l.add("error", msg, args) }
func (l *capturingLogger) Fatal(msg string, args ...any) { l.add("fatal", msg, args) }
func (l *capturingLogger) WithContext(context.Context) core.Logger {
	return l
}

func (l *capturingLogger) add(level string, msg string, args []any) {
	l.entries = append(l.entries, capturedLog{level: level, msg: msg, args: append([]any(nil), args...)})
}
