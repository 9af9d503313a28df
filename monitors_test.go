package main

import (
	"sync"
	"testing"
	"unsafe"

	"golang.org/x/sys/windows"
)

func TestMonitorIndex(t *testing.T) {
	tests := []struct {
		device  string
		want    int
		wantErr bool
	}{
		{`\\.\DISPLAY1`, 1, false},
		{`\\.\DISPLAY12`, 12, false},
		{`\\.\OTHER1`, 0, true},
		{`\\.\DISPLAYx`, 0, true},
		{``, 0, true},
	}
	for _, tt := range tests {
		got, err := MonitorIndex(tt.device)
		if tt.wantErr {
			if err == nil {
				t.Errorf("MonitorIndex(%q) expected error, got %d", tt.device, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("MonitorIndex(%q) failed: %v", tt.device, err)
			continue
		}
		if got != tt.want {
			t.Errorf("MonitorIndex(%q) = %d, want %d", tt.device, got, tt.want)
		}
	}
}

func TestMonitorLabel(t *testing.T) {
	m := MonitorInfo{FriendlyName: "Acme 27in Monitor", IsPrimary: true}
	if got := m.Label(); got != "Acme 27in Monitor (Primary)" {
		t.Errorf("Label = %q", got)
	}

	m.IsPrimary = false
	if got := m.Label(); got != "Acme 27in Monitor" {
		t.Errorf("Label = %q", got)
	}
}

func TestDescribeMode(t *testing.T) {
	m := MonitorInfo{Mode: Resolution{Width: 2560, Height: 1440, Frequency: 144}}
	if got := m.DescribeMode(); got != "2560x1440@144Hz" {
		t.Errorf("DescribeMode = %q", got)
	}
}

func TestDiffMonitors(t *testing.T) {
	d1 := MonitorInfo{DeviceName: `\\.\DISPLAY1`, FriendlyName: "Acme 27in Monitor"}
	d2 := MonitorInfo{DeviceName: `\\.\DISPLAY2`, FriendlyName: "Dell U2723QE"}
	d3 := MonitorInfo{DeviceName: `\\.\DISPLAY3`, FriendlyName: "LG ULTRAGEAR"}

	prev := snapshotByDevice([]MonitorInfo{d1, d2})
	current := snapshotByDevice([]MonitorInfo{d2, d3})

	attached, detached := diffMonitors(prev, current)

	if len(attached) != 1 || attached[0].DeviceName != d3.DeviceName {
		t.Errorf("attached = %v, want [%s]", attached, d3.DeviceName)
	}
	if len(detached) != 1 || detached[0].DeviceName != d1.DeviceName {
		t.Errorf("detached = %v, want [%s]", detached, d1.DeviceName)
	}
}

func TestDiffMonitorsNoChanges(t *testing.T) {
	d1 := MonitorInfo{DeviceName: `\\.\DISPLAY1`}
	snapshot := snapshotByDevice([]MonitorInfo{d1})

	attached, detached := diffMonitors(snapshot, snapshot)
	if len(attached) != 0 || len(detached) != 0 {
		t.Errorf("diff of identical snapshots = %v / %v, want empty", attached, detached)
	}
}

func TestDiffMonitorsOrdering(t *testing.T) {
	prev := snapshotByDevice(nil)
	current := snapshotByDevice([]MonitorInfo{
		{DeviceName: `\\.\DISPLAY3`},
		{DeviceName: `\\.\DISPLAY1`},
		{DeviceName: `\\.\DISPLAY2`},
	})

	attached, _ := diffMonitors(prev, current)
	for i := 1; i < len(attached); i++ {
		if attached[i-1].DeviceName > attached[i].DeviceName {
			t.Fatalf("attached not sorted by device path: %v", attached)
		}
	}
}

// fakeInventoryManager builds a DisplayManager whose enumeration and
// per-monitor call points are all fakes, so the full inventory pipeline runs
// without user32. Two monitors are attached; handle 1 is primary.
func fakeInventoryManager() *DisplayManager {
	dm := fakeTopology("", []fakePath{
		{sourceName: `\\.\DISPLAY1`, targetName: "Acme 27in Monitor"},
		{sourceName: `\\.\DISPLAY2`, targetName: "Dell U2723QE"},
	})

	devices := map[windows.Handle]string{
		1: `\\.\DISPLAY1`,
		2: `\\.\DISPLAY2`,
	}
	dm.getMonitorDevice = func(handle windows.Handle) (string, error) {
		return devices[handle], nil
	}
	dm.enumMonitors = func() ([]windows.Handle, error) {
		return []windows.Handle{1, 2}, nil
	}
	dm.getMonitorInfo = func(handle windows.Handle) (*MONITORINFOEX, error) {
		var mi MONITORINFOEX
		copyWide(mi.SzDevice[:], devices[handle])
		if handle == 1 {
			mi.DwFlags = MONITORINFOF_PRIMARY
		}
		return &mi, nil
	}
	dm.getDeviceMode = func(deviceName string) (*Resolution, error) {
		return &Resolution{Width: 2560, Height: 1440, Frequency: 144}, nil
	}
	dm.getAdapterString = func(deviceName string) (string, error) {
		return "Fake Adapter", nil
	}
	return dm
}

func TestGetMonitorsInventory(t *testing.T) {
	dm := fakeInventoryManager()

	monitors, err := dm.GetMonitors()
	if err != nil {
		t.Fatalf("GetMonitors failed: %v", err)
	}
	if len(monitors) != 2 {
		t.Fatalf("GetMonitors returned %d monitors, want 2", len(monitors))
	}

	if monitors[0].DeviceName != `\\.\DISPLAY1` || monitors[0].FriendlyName != "Acme 27in Monitor" {
		t.Errorf("monitor 0 = %s / %s", monitors[0].DeviceName, monitors[0].FriendlyName)
	}
	if !monitors[0].IsPrimary {
		t.Error("monitor 0 should be primary")
	}
	if monitors[1].DeviceName != `\\.\DISPLAY2` || monitors[1].FriendlyName != "Dell U2723QE" {
		t.Errorf("monitor 1 = %s / %s", monitors[1].DeviceName, monitors[1].FriendlyName)
	}
}

// Overlapping enumerations run concurrently in the GUI: the hot-plug poll
// goroutine and the refresh actions on the fyne main thread share one
// DisplayManager. Every call must see its own complete handle list.
func TestGetMonitorsConcurrent(t *testing.T) {
	dm := fakeInventoryManager()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				monitors, err := dm.GetMonitors()
				if err != nil {
					t.Errorf("GetMonitors failed: %v", err)
					return
				}
				if len(monitors) != 2 {
					t.Errorf("GetMonitors returned %d monitors, want 2", len(monitors))
					return
				}
				if monitors[0].DeviceName != `\\.\DISPLAY1` || monitors[1].DeviceName != `\\.\DISPLAY2` {
					t.Errorf("GetMonitors devices = %s, %s", monitors[0].DeviceName, monitors[1].DeviceName)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestEnumCallbackInterleavedLists(t *testing.T) {
	var first, second []windows.Handle

	enumMonitorsCallback(11, 0, 0, uintptr(unsafe.Pointer(&first)))
	enumMonitorsCallback(21, 0, 0, uintptr(unsafe.Pointer(&second)))
	enumMonitorsCallback(12, 0, 0, uintptr(unsafe.Pointer(&first)))
	enumMonitorsCallback(22, 0, 0, uintptr(unsafe.Pointer(&second)))

	if len(first) != 2 || first[0] != 11 || first[1] != 12 {
		t.Errorf("first list = %v, want [11 12]", first)
	}
	if len(second) != 2 || second[0] != 21 || second[1] != 22 {
		t.Errorf("second list = %v, want [21 22]", second)
	}
}
