package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitFallsBackToInfoOnBadLevel(t *testing.T) {
	if err := Init("not-a-level", "development"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Get().Desugar().Core().Enabled(zap.DebugLevel) {
		t.Fatal("expected debug to be disabled at default info level")
	}
}

func TestReplaceAndWith(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	Get().With("component", "test").Infow("hello", "n", 1)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["component"] != "test" {
		t.Fatalf("expected component field, got %+v", fields)
	}
}
