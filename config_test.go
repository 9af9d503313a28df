package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"show_gui_on_launch": false}`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.PollInterval != 5 {
		t.Errorf("PollInterval default = %d, want 5", config.PollInterval)
	}
	if config.ShowGUIOnLaunch {
		t.Error("ShowGUIOnLaunch should be false when set explicitly")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("LoadConfig should fail for a missing file")
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{poll_interval: nope`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig should fail for invalid JSON")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	saved := &Config{
		PollInterval:  10,
		LogChanges:    true,
		NameOverrides: map[string]string{`\\.\DISPLAY2`: "Left Dell"},
	}
	if err := SaveConfig(saved, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.PollInterval != 10 {
		t.Errorf("PollInterval = %d, want 10", loaded.PollInterval)
	}
	if !loaded.LogChanges {
		t.Error("LogChanges lost in round trip")
	}
	if loaded.NameOverrides[`\\.\DISPLAY2`] != "Left Dell" {
		t.Errorf("NameOverrides = %v, want Left Dell entry", loaded.NameOverrides)
	}
}

func TestDisplayNameFor(t *testing.T) {
	config := &Config{
		NameOverrides: map[string]string{`\\.\DISPLAY2`: "Left Dell"},
	}

	tests := []struct {
		device   string
		friendly string
		want     string
	}{
		{`\\.\DISPLAY1`, "Acme 27in Monitor", "Acme 27in Monitor"},
		{`\\.\DISPLAY2`, "Acme 27in Monitor", "Left Dell"},
		{`\\.\DISPLAY3`, UnknownMonitorName, UnknownMonitorName},
	}
	for _, tt := range tests {
		m := MonitorInfo{DeviceName: tt.device, FriendlyName: tt.friendly}
		if got := config.DisplayNameFor(&m); got != tt.want {
			t.Errorf("DisplayNameFor(%s) = %q, want %q", tt.device, got, tt.want)
		}
	}
}
