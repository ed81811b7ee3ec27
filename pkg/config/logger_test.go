package config

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger_JSONFormat(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "info", Format: "json", OutputPath: "stdout"})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("Expected info level enabled")
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug level disabled at info")
	}
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Format: "console"})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug level enabled")
	}
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orchestrator.log")
	if _, err := NewLogger(LoggingConfig{Level: "warn", Format: "json", OutputPath: path}); err != nil {
		t.Fatalf("NewLogger failed for file output: %v", err)
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(LoggingConfig{Level: "shouting", Format: "json"}); err == nil {
		t.Fatal("Expected error for invalid log level")
	}
}
