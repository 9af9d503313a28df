package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config represents the main configuration structure
type Config struct {
	PollInterval     int               `json:"poll_interval"`            // Hot-plug polling interval in seconds (default: 5)
	ShowGUIOnLaunch  bool              `json:"show_gui_on_launch"`       // Show GUI window on launch (default: true)
	StartWithWindows bool              `json:"start_with_windows"`       // Start with Windows (default: false)
	LogChanges       bool              `json:"log_changes"`              // Log monitor attach/detach events (default: true)
	NameOverrides    map[string]string `json:"name_overrides,omitempty"` // Device path -> custom label, e.g. "\\\\.\\DISPLAY2": "Left Dell"
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Set default values if not specified
	if config.PollInterval <= 0 {
		config.PollInterval = 5
	}

	return &config, nil
}

// SaveConfig saves configuration to a JSON file (useful for creating default config)
func SaveConfig(config *Config, filename string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DisplayNameFor applies any configured override for a monitor's device path,
// falling back to the resolved friendly name
func (c *Config) DisplayNameFor(m *MonitorInfo) string {
	if override, ok := c.NameOverrides[m.DeviceName]; ok && override != "" {
		return override
	}
	return m.FriendlyName
}
