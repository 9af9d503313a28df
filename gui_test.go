package main

import (
	"sync"
	"testing"
)

// The reload goroutine swaps the config pointer and the poll goroutine swaps
// the known snapshot while the fyne main thread reads both. The accessors must
// hold up under that interleaving.
func TestGUIStateConcurrentAccess(t *testing.T) {
	g := &GUIApp{known: make(map[string]MonitorInfo)}
	g.setConfig(&Config{PollInterval: 5})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 1; j <= 100; j++ {
				g.setConfig(&Config{PollInterval: j})
				g.setKnownMonitors(snapshotByDevice([]MonitorInfo{{DeviceName: `\\.\DISPLAY1`}}))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if config := g.currentConfig(); config.PollInterval < 1 {
					t.Errorf("currentConfig returned poll interval %d", config.PollInterval)
					return
				}
				diffMonitors(g.knownMonitors(), nil)
			}
		}()
	}
	wg.Wait()
}
