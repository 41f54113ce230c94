package gologger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := WrapZap(zap.New(core))

	scoped := logger.WithFields(map[string]any{"event": "order.created"})
	scoped.Warn("order not forwarded", "order_id", "42")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != zapcore.WarnLevel || entry.Message != "order not forwarded" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	fields := entry.ContextMap()
	if fields["event"] != "order.created" || fields["order_id"] != "42" {
		t.Fatalf("expected merged fields, got %v", fields)
	}
}

func TestZapProviderNamesChildren(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	provider := ZapProvider{Root: WrapZap(zap.New(core))}

	provider.GetLogger("workers").Info("worker pool started")
	if logs.Len() != 1 || logs.All()[0].LoggerName != "workers" {
		t.Fatalf("expected named logger entry, got %+v", logs.All())
	}
}

func TestToJobLoggerForwardsToZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := ToJobLogger(WrapZap(zap.New(core)))

	logger.Warn("queue delivery retry scheduled", "job_id", "order.created", "attempt", 1)

	if logs.Len() != 1 {
		t.Fatalf("expected one entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Level != zapcore.WarnLevel || entry.ContextMap()["job_id"] != "order.created" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if ToJobLogger(nil) != nil {
		t.Fatalf("expected nil logger to stay nil")
	}
}

func TestZapProviderWithoutRootIsNop(t *testing.T) {
	if (ZapProvider{}).GetLogger("x") == nil {
		t.Fatalf("expected nop logger")
	}
}
