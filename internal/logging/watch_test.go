package logging

import (
	"os"
	"testing"
	"time"
)

func TestWatchConfigReloadsOnWrite(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_watch_test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	writeConfig(t, tempDir, `{"logging": {"debug_mode": false}}`)

	resetState()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("failed to initialize logging: %v", err)
	}
	if IsDebugMode() {
		t.Fatal("expected debug mode off before the config changes")
	}

	stop, err := WatchConfig()
	if err != nil {
		t.Fatalf("WatchConfig: %v", err)
	}
	defer stop()

	writeConfig(t, tempDir, `{"logging": {"debug_mode": true, "level": "debug"}}`)

	deadline := time.Now().Add(5 * time.Second)
	for !IsDebugMode() {
		if time.Now().After(deadline) {
			t.Fatal("watcher never picked up the config change")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWatchConfigRequiresInitialize(t *testing.T) {
	resetState()
	if _, err := WatchConfig(); err == nil {
		t.Fatal("expected an error when logging was never initialized")
	}
}

func TestWatchConfigStopIsIdempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "logging_watch_test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	writeConfig(t, tempDir, `{"logging": {"debug_mode": false}}`)
	resetState()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("failed to initialize logging: %v", err)
	}

	stop, err := WatchConfig()
	if err != nil {
		t.Fatalf("WatchConfig: %v", err)
	}
	stop()
	stop()
}
