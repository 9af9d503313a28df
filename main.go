package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"
)

const (
	DefaultConfigFile = "config.json"
)

var (
	Version = "dev" // This will be overridden during build
)

// MonitorWatch is the main application structure. It keeps the current
// monitor inventory and polls for hot-plug changes.
type MonitorWatch struct {
	config         *Config
	displayManager *DisplayManager
	configWatcher  *ConfigWatcher
	known          map[string]MonitorInfo // device path -> last seen state
}

// NewMonitorWatch creates a new MonitorWatch instance
func NewMonitorWatch(configPath string) (*MonitorWatch, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	configWatcher, err := NewConfigWatcher(configPath)
	if err != nil {
		return nil, err
	}

	return &MonitorWatch{
		config:         config,
		displayManager: NewDisplayManager(),
		configWatcher:  configWatcher,
		known:          make(map[string]MonitorInfo),
	}, nil
}

// Start begins the watch loop and blocks until a shutdown signal arrives
func (mw *MonitorWatch) Start() error {
	log.Printf("Starting MonView v%s...", Version)

	if err := SetStartWithWindows(mw.config.StartWithWindows); err != nil {
		log.Printf("Warning: failed to update startup entry: %v", err)
	}

	mw.logInventory()

	// Start config file watcher
	mw.configWatcher.Start()

	ticker := time.NewTicker(time.Duration(mw.config.PollInterval) * time.Second)
	defer ticker.Stop()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if err := mw.checkMonitors(); err != nil {
				log.Printf("Error checking monitors: %v", err)
			}

		case newConfig := <-mw.configWatcher.ConfigChan():
			log.Println("Configuration file updated, reloading...")
			mw.config = newConfig
			if err := SetStartWithWindows(mw.config.StartWithWindows); err != nil {
				log.Printf("Warning: failed to update startup entry: %v", err)
			}
			ticker.Stop()
			ticker = time.NewTicker(time.Duration(mw.config.PollInterval) * time.Second)

		case err := <-mw.configWatcher.ErrorChan():
			log.Printf("Config watcher error: %v", err)

		case <-sigChan:
			log.Println("Received shutdown signal...")
			return mw.shutdown()
		}
	}
}

// logInventory enumerates the attached monitors, prints them, and seeds the
// known set for change detection
func (mw *MonitorWatch) logInventory() {
	monitors, err := mw.displayManager.GetMonitors()
	if err != nil {
		log.Printf("Warning: failed to get monitor list: %v", err)
		return
	}

	log.Printf("Attached monitors:")
	for _, monitor := range monitors {
		primaryMarker := ""
		if monitor.IsPrimary {
			primaryMarker = " (Primary)"
		}
		log.Printf("  %s: %s - %s%s", monitor.DeviceName, mw.config.DisplayNameFor(&monitor), monitor.DescribeMode(), primaryMarker)
	}

	mw.known = snapshotByDevice(monitors)
}

// checkMonitors re-enumerates the displays and reports hot-plug changes
func (mw *MonitorWatch) checkMonitors() error {
	monitors, err := mw.displayManager.GetMonitors()
	if err != nil {
		return err
	}

	current := snapshotByDevice(monitors)
	attached, detached := diffMonitors(mw.known, current)
	mw.known = current

	if !mw.config.LogChanges {
		return nil
	}

	for _, monitor := range attached {
		log.Printf("Monitor attached: %s (%s, %s)", mw.config.DisplayNameFor(&monitor), monitor.DeviceName, monitor.DescribeMode())
	}
	for _, monitor := range detached {
		log.Printf("Monitor detached: %s (%s)", mw.config.DisplayNameFor(&monitor), monitor.DeviceName)
	}

	return nil
}

// shutdown performs cleanup before exiting
func (mw *MonitorWatch) shutdown() error {
	log.Println("Shutting down...")

	if err := mw.configWatcher.Close(); err != nil {
		log.Printf("Error closing config watcher: %v", err)
	}

	log.Println("Shutdown complete")
	return nil
}

// snapshotByDevice keys a monitor list by device path
func snapshotByDevice(monitors []MonitorInfo) map[string]MonitorInfo {
	snapshot := make(map[string]MonitorInfo, len(monitors))
	for _, monitor := range monitors {
		snapshot[monitor.DeviceName] = monitor
	}
	return snapshot
}

// diffMonitors compares two snapshots and returns the monitors that appeared
// and disappeared, in device-path order
func diffMonitors(prev, current map[string]MonitorInfo) (attached, detached []MonitorInfo) {
	for device, monitor := range current {
		if _, ok := prev[device]; !ok {
			attached = append(attached, monitor)
		}
	}
	for device, monitor := range prev {
		if _, ok := current[device]; !ok {
			detached = append(detached, monitor)
		}
	}

	sort.Slice(attached, func(i, j int) bool { return attached[i].DeviceName < attached[j].DeviceName })
	sort.Slice(detached, func(i, j int) bool { return detached[i].DeviceName < detached[j].DeviceName })
	return attached, detached
}

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("MonView v%s\n", Version)
		return
	}

	configFile := DefaultConfigFile
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}

	// Check if config file exists, create default if not
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Printf("Config file %s not found, creating default...", configFile)
		if err := createDefaultConfig(configFile); err != nil {
			log.Fatalf("Failed to create default config: %v", err)
		}
	}

	config, err := LoadConfig(configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if config.ShowGUIOnLaunch {
		gui := NewGUIApp(configFile)
		if err := gui.Run(); err != nil {
			log.Fatalf("GUI error: %v", err)
		}
		return
	}

	watch, err := NewMonitorWatch(configFile)
	if err != nil {
		log.Fatalf("Failed to create monitor watch: %v", err)
	}
	if err := watch.Start(); err != nil {
		log.Fatalf("Watch error: %v", err)
	}
}

// createDefaultConfig creates a default configuration file
func createDefaultConfig(filename string) error {
	defaultConfig := &Config{
		PollInterval:    5,
		ShowGUIOnLaunch: true,
		LogChanges:      true,
	}

	return SaveConfig(defaultConfig, filename)
}
