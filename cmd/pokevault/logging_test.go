package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelRouter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := slog.New(newLevelRouter(slog.LevelInfo, &stdout, &stderr)).With("component", "test")

	logger.Debug("hidden")
	logger.Info("hello")
	logger.Warn("careful")
	logger.Error("broken")

	if strings.Contains(stdout.String(), "hidden") {
		t.Error("debug should be filtered at info level")
	}
	if !strings.Contains(stdout.String(), "hello") || !strings.Contains(stdout.String(), "careful") {
		t.Errorf("info/warn missing from stdout: %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "broken") {
		t.Error("error leaked to stdout")
	}
	if !strings.Contains(stderr.String(), "broken") || !strings.Contains(stderr.String(), "component=test") {
		t.Errorf("error missing from stderr: %q", stderr.String())
	}
}

func TestLevelRouterDebug(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := slog.New(newLevelRouter(slog.LevelDebug, &stdout, &stderr))

	logger.Debug("visible")
	if !strings.Contains(stdout.String(), "visible") {
		t.Error("debug should pass at debug level")
	}
}
