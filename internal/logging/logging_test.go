package logging

import (
	"testing"

	"kimp-trend-bot/internal/config"

	"go.uber.org/zap/zapcore"
)

func TestNewParsesLevel(t *testing.T) {
	log := New(config.LoggingConfig{Level: "warn"})
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info disabled at warn level")
	}
	if !log.Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("expected warn enabled")
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	log := New(config.LoggingConfig{Level: "verbose"})
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug disabled on unknown level")
	}
	if !log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info enabled on unknown level")
	}
}
