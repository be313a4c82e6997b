// hot-reload_test.go: unit tests for the Argus-backed HotConfig watcher
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package octomap

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "octomap.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestNewHotConfig_RejectsEmptyPath(t *testing.T) {
	tbl, err := New(Config{KeySize: 8, ValueSize: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = NewHotConfig(tbl, HotConfigOptions{})
	if err == nil {
		t.Fatal("expected error for empty ConfigPath")
	}
}

func TestNewHotConfig_DefaultsPollInterval(t *testing.T) {
	tbl, err := New(Config{KeySize: 8, ValueSize: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	path := writeConfigFile(t, `{"octomap":{"log_level":"info"}}`)

	hc, err := NewHotConfig(tbl, HotConfigOptions{ConfigPath: path, PollInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("NewHotConfig: %v", err)
	}
	defer hc.Stop()

	if err := hc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Starting twice must be a no-op, not an error.
	if err := hc.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
}

func TestHotConfig_CurrentReflectsConstruction(t *testing.T) {
	tbl, err := New(Config{KeySize: 8, ValueSize: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	path := writeConfigFile(t, `{"octomap":{}}`)

	hc, err := NewHotConfig(tbl, HotConfigOptions{ConfigPath: path})
	if err != nil {
		t.Fatalf("NewHotConfig: %v", err)
	}
	defer hc.Stop()

	cur := hc.Current()
	if cur.Logger != tbl.logger {
		t.Error("Current().Logger should start out equal to the table's logger")
	}
}

func TestHotConfig_StructuralFieldWarnsNotApplies(t *testing.T) {
	tbl, err := New(Config{KeySize: 8, ValueSize: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	path := writeConfigFile(t, `{"octomap":{}}`)

	var reloaded bool
	hc, err := NewHotConfig(tbl, HotConfigOptions{
		ConfigPath: path,
		OnReload:   func(old, next OperationalConfig) { reloaded = true },
	})
	if err != nil {
		t.Fatalf("NewHotConfig: %v", err)
	}
	defer hc.Stop()

	hc.handleConfigChange(map[string]interface{}{
		"octomap": map[string]interface{}{"key_size": float64(16)},
	})
	if !reloaded {
		t.Error("OnReload should still fire even when a structural field is rejected")
	}
	// KeySize itself must be untouched: only OperationalConfig is mutable.
	if tbl.keySize != 8 {
		t.Errorf("table.keySize = %d, want unchanged 8", tbl.keySize)
	}
}

func TestHotConfig_StopWithoutStart(t *testing.T) {
	tbl, err := New(Config{KeySize: 8, ValueSize: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	path := writeConfigFile(t, `{"octomap":{}}`)

	hc, err := NewHotConfig(tbl, HotConfigOptions{ConfigPath: path})
	if err != nil {
		t.Fatalf("NewHotConfig: %v", err)
	}
	if err := hc.Stop(); err != nil {
		t.Fatalf("Stop on a never-started watcher: %v", err)
	}
}
