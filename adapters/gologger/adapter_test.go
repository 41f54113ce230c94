package gologger

import (
	"context"
	"testing"

	glog "github.com/goliatone/go-logger/glog"
)

func TestResolvePrefersProviderOverLogger(t *testing.T) {
	direct := &namedLogger{id: "direct"}
	provider := &namingProvider{}

	_, resolved := Resolve("webhooks", provider, direct)
	got, ok := resolved.(*namedLogger)
	if !ok || got.id != "webhooks" {
		t.Fatalf("expected provider child named webhooks, got %#v", resolved)
	}
	if len(provider.requested) != 1 || provider.requested[0] != "webhooks" {
		t.Fatalf("expected provider lookup for webhooks, got %v", provider.requested)
	}
}

func TestResolveWrapsBareLogger(t *testing.T) {
	direct := &namedLogger{id: "direct"}

	resolvedProvider, resolved := Resolve("workers", nil, direct)
	if got, ok := resolved.(*namedLogger); !ok || got.id != "direct" {
		t.Fatalf("expected the bare logger back, got %#v", resolved)
	}
	if resolvedProvider == nil {
		t.Fatalf("expected a provider wrapping the bare logger")
	}

	_, resolved = Resolve("workers", nil, nil)
	if resolved == nil {
		t.Fatalf("expected nop fallback")
	}
}

func TestBuildReturnsNamedZapLogger(t *testing.T) {
	provider, logger, err := Build("shipbridge", false, "warn")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if provider.Root == nil || logger == nil {
		t.Fatalf("expected root and named logger")
	}
	if _, ok := logger.(*ZapLogger); !ok {
		t.Fatalf("expected zap logger, got %T", logger)
	}
	if _, ok := logger.(glog.FieldsLogger); !ok {
		t.Fatalf("expected named logger to accept fields")
	}
}

var (
	_ glog.Logger         = (*namedLogger)(nil)
	_ glog.LoggerProvider = (*namingProvider)(nil)
)

type namingProvider struct {
	requested []string
}

func (p *namingProvider) GetLogger(name string) glog.Logger {
	p.requested = append(p.requested, name)
	return &namedLogger{id: name}
}

type namedLogger struct {
	id string
}

func (l *namedLogger) Trace(string, ...any) {}
func (l *namedLogger) Debug(string, ...any) {}
func (l *namedLogger) Info(string, ...any)  {}
func (l *namedLogger) Warn(string, ...any)  {}
func (l *namedLogger) Error(string, ...any) {}
func (l *namedLogger) Fatal(string, ...any) {}

func (l *namedLogger) WithContext(context.Context) glog.Logger {
	return l
}
