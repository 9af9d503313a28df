package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// GUIApp represents the GUI application
type GUIApp struct {
	app            fyne.App
	mainWindow     fyne.Window
	displayManager *DisplayManager
	configPath     string
	ctx            context.Context
	cancel         context.CancelFunc

	// mu guards config and known: both are swapped by the reload and poll
	// goroutines while the fyne main thread reads them.
	mu     sync.Mutex
	config *Config
	known  map[string]MonitorInfo

	monitorList           *widget.List
	monitorData           binding.StringList
	statusLabel           *widget.Label
	pollEntry             *widget.Entry
	showGUICheck          *widget.Check
	startWithWindowsCheck *widget.Check
	logChangesCheck       *widget.Check

	configWatcher *ConfigWatcher
}

// NewGUIApp creates a new GUI application
func NewGUIApp(configPath string) *GUIApp {
	fyneApp := app.NewWithID("com.monview.app")

	ctx, cancel := context.WithCancel(context.Background())

	return &GUIApp{
		app:            fyneApp,
		displayManager: NewDisplayManager(),
		configPath:     configPath,
		ctx:            ctx,
		cancel:         cancel,
		monitorData:    binding.NewStringList(),
		known:          make(map[string]MonitorInfo),
	}
}

// Run starts the GUI application
func (g *GUIApp) Run() error {
	// Set up system tray
	if desk, ok := g.app.(desktop.App); ok {
		g.setupSystemTray(desk)
	}

	g.createMainWindow()

	if err := g.loadConfig(); err != nil {
		dialog.ShowError(err, g.mainWindow)
		return err
	}

	if g.currentConfig().ShowGUIOnLaunch {
		g.showMainWindow()
	}

	// Poll for hot-plug changes in the background
	go g.watchMonitors()

	// Set up config file watcher
	watcher, err := NewConfigWatcher(g.configPath)
	if err != nil {
		log.Printf("Warning: Failed to create config watcher: %v", err)
	} else {
		g.configWatcher = watcher
		watcher.Start()

		go func() {
			for {
				select {
				case <-g.ctx.Done():
					return
				case newConfig := <-watcher.ConfigChan():
					g.setConfig(newConfig)
					fyne.Do(func() {
						g.applyConfigToWidgets()
						g.refreshMonitors()
					})
				case err := <-watcher.ErrorChan():
					log.Printf("Config watcher error: %v", err)
				}
			}
		}()
	}

	// Run the app (this blocks)
	g.app.Run()

	return nil
}

// setupSystemTray configures the system tray icon and menu
func (g *GUIApp) setupSystemTray(desk desktop.App) {
	menu := fyne.NewMenu("MonView",
		fyne.NewMenuItem("Show", func() {
			g.showMainWindow()
		}),
		fyne.NewMenuItem("Refresh", func() {
			fyne.Do(func() {
				g.refreshMonitors()
			})
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() {
			g.quit()
		}),
	)

	desk.SetSystemTrayMenu(menu)
	desk.SetSystemTrayIcon(theme.ComputerIcon())
}

// createMainWindow creates the main inventory window
func (g *GUIApp) createMainWindow() {
	window := g.app.NewWindow("MonView")
	window.Resize(fyne.NewSize(640, 480))
	window.SetCloseIntercept(func() {
		window.Hide() // Hide instead of close
	})

	// Status section
	g.statusLabel = widget.NewLabel("No monitors detected")
	refreshBtn := widget.NewButton("Refresh", func() {
		g.refreshMonitors()
	})

	statusContainer := container.NewHBox(
		g.statusLabel,
		layout.NewSpacer(),
		refreshBtn,
	)

	// Monitor list section
	g.monitorList = widget.NewListWithData(
		g.monitorData,
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(item binding.DataItem, obj fyne.CanvasObject) {
			label := obj.(*widget.Label)
			if stringItem, ok := item.(binding.String); ok {
				text, _ := stringItem.Get()
				label.SetText(text)
			}
		},
	)

	// Settings section
	settingsLabel := widget.NewLabel("Settings:")
	pollLabel := widget.NewLabel("Poll Interval (seconds):")
	g.pollEntry = widget.NewEntry()
	g.pollEntry.SetText("5")

	g.showGUICheck = widget.NewCheck("Show GUI on launch", nil)
	g.startWithWindowsCheck = widget.NewCheck("Start with Windows", nil)
	g.logChangesCheck = widget.NewCheck("Log monitor changes", nil)

	saveSettingsBtn := widget.NewButton("Save Settings", func() {
		g.saveSettings()
	})

	settingsContainer := container.NewVBox(
		settingsLabel,
		container.NewHBox(pollLabel, g.pollEntry),
		g.showGUICheck,
		g.startWithWindowsCheck,
		g.logChangesCheck,
		saveSettingsBtn,
	)

	// Main layout - the monitor list fills the space between status and settings
	content := container.NewBorder(
		container.NewVBox(statusContainer, widget.NewSeparator()),
		container.NewVBox(widget.NewSeparator(), settingsContainer),
		nil,
		nil,
		g.monitorList,
	)

	window.SetContent(content)
	g.mainWindow = window
}

// showMainWindow shows the main inventory window
func (g *GUIApp) showMainWindow() {
	if g.mainWindow != nil {
		g.mainWindow.Show()
		g.mainWindow.RequestFocus()
	}
}

// loadConfig loads the configuration and updates the GUI
func (g *GUIApp) loadConfig() error {
	config, err := LoadConfig(g.configPath)
	if err != nil {
		return err
	}
	g.setConfig(config)

	fyne.Do(func() {
		g.applyConfigToWidgets()
		g.refreshMonitors()
	})

	return nil
}

// currentConfig returns the active configuration
func (g *GUIApp) currentConfig() *Config {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.config
}

func (g *GUIApp) setConfig(config *Config) {
	g.mu.Lock()
	g.config = config
	g.mu.Unlock()
}

// knownMonitors returns the last recorded inventory snapshot. Snapshots are
// replaced wholesale and never mutated after construction.
func (g *GUIApp) knownMonitors() map[string]MonitorInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.known
}

func (g *GUIApp) setKnownMonitors(known map[string]MonitorInfo) {
	g.mu.Lock()
	g.known = known
	g.mu.Unlock()
}

// applyConfigToWidgets syncs the settings widgets with the loaded config
func (g *GUIApp) applyConfigToWidgets() {
	config := g.currentConfig()
	g.pollEntry.SetText(strconv.Itoa(config.PollInterval))
	g.showGUICheck.SetChecked(config.ShowGUIOnLaunch)
	g.startWithWindowsCheck.SetChecked(IsStartWithWindows())
	g.logChangesCheck.SetChecked(config.LogChanges)
}

// refreshMonitors re-enumerates the displays and updates the list. Must be
// called on the fyne main thread.
func (g *GUIApp) refreshMonitors() {
	monitors, err := g.displayManager.GetMonitors()
	if err != nil {
		log.Printf("Warning: failed to get monitor list: %v", err)
		return
	}

	config := g.currentConfig()

	var rows []string
	for _, monitor := range monitors {
		row := fmt.Sprintf("%s - %s - %s", config.DisplayNameFor(&monitor), monitor.DeviceName, monitor.DescribeMode())
		if monitor.IsPrimary {
			row += " (Primary)"
		}
		if monitor.AdapterString != "" {
			row += fmt.Sprintf(" [%s]", monitor.AdapterString)
		}
		rows = append(rows, row)
	}

	g.monitorData.Set(rows)
	g.statusLabel.SetText(fmt.Sprintf("%d monitor(s) attached", len(monitors)))
	g.setKnownMonitors(snapshotByDevice(monitors))
}

// watchMonitors polls for hot-plug changes and keeps the list current
func (g *GUIApp) watchMonitors() {
	for {
		config := g.currentConfig()

		interval := 5
		if config != nil && config.PollInterval > 0 {
			interval = config.PollInterval
		}

		select {
		case <-g.ctx.Done():
			return
		case <-time.After(time.Duration(interval) * time.Second):
		}

		monitors, err := g.displayManager.GetMonitors()
		if err != nil {
			log.Printf("Error checking monitors: %v", err)
			continue
		}

		current := snapshotByDevice(monitors)
		attached, detached := diffMonitors(g.knownMonitors(), current)
		if len(attached) == 0 && len(detached) == 0 {
			continue
		}

		if config.LogChanges {
			for _, monitor := range attached {
				log.Printf("Monitor attached: %s (%s)", config.DisplayNameFor(&monitor), monitor.DeviceName)
			}
			for _, monitor := range detached {
				log.Printf("Monitor detached: %s (%s)", config.DisplayNameFor(&monitor), monitor.DeviceName)
			}
		}

		fyne.Do(func() {
			g.refreshMonitors()
		})
	}
}

// saveSettings persists the settings widgets back to the config file
func (g *GUIApp) saveSettings() {
	pollInterval, err := strconv.Atoi(g.pollEntry.Text)
	if err != nil || pollInterval <= 0 {
		dialog.ShowError(fmt.Errorf("poll interval must be a positive number"), g.mainWindow)
		return
	}

	// The poll goroutine reads the active config concurrently, so the update
	// swaps in a fresh copy instead of mutating the shared one.
	config := *g.currentConfig()
	config.PollInterval = pollInterval
	config.ShowGUIOnLaunch = g.showGUICheck.Checked
	config.StartWithWindows = g.startWithWindowsCheck.Checked
	config.LogChanges = g.logChangesCheck.Checked
	g.setConfig(&config)

	if err := SetStartWithWindows(config.StartWithWindows); err != nil {
		log.Printf("Warning: failed to update startup entry: %v", err)
	}

	if err := SaveConfig(&config, g.configPath); err != nil {
		dialog.ShowError(err, g.mainWindow)
		return
	}

	dialog.ShowInformation("Settings", "Settings saved", g.mainWindow)
}

// quit stops the background watchers and exits the application
func (g *GUIApp) quit() {
	g.cancel()
	if g.configWatcher != nil {
		g.configWatcher.Close()
	}
	g.app.Quit()
}
