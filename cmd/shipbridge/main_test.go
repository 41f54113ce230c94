package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRunRequiresCommand(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), nil, &out); err == nil {
		t.Fatalf("expected missing command error")
	}
	if !strings.Contains(out.String(), "usage: shipbridge") {
		t.Fatalf("expected usage, got %q", out.String())
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"explode", "-env-file", ""}, &out)
	if err == nil || !strings.Contains(err.Error(), `unknown command "explode"`) {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestRedact(t *testing.T) {
	if redact("") != "" {
		t.Fatalf("empty secret must stay empty")
	}
	if redact("whsec") != "[redacted]" {
		t.Fatalf("expected secret to be redacted")
	}
}
