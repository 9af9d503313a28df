package main

import (
	"fmt"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// DEVMODE represents the Win32 DEVMODE structure
type DEVMODE struct {
	DeviceName       [32]uint16
	SpecVersion      uint16
	DriverVersion    uint16
	Size             uint16
	DriverExtra      uint16
	Fields           uint32
	X                int32
	Y                int32
	Orientation      uint32
	FixedOutput      uint32
	Color            int16
	Duplex           int16
	YResolution      int16
	TTOption         int16
	Collate          int16
	FormName         [32]uint16
	LogPixels        uint16
	BitsPerPel       uint32
	PelsWidth        uint32
	PelsHeight       uint32
	DisplayFlags     uint32
	DisplayFrequency uint32
	ICMMethod        uint32
	ICMIntent        uint32
	MediaType        uint32
	DitherType       uint32
	Reserved1        uint32
	Reserved2        uint32
	PanningWidth     uint32
	PanningHeight    uint32
}

// DISPLAY_DEVICE represents the Win32 DISPLAY_DEVICE structure
type DISPLAY_DEVICE struct {
	Cb           uint32
	DeviceName   [32]uint16
	DeviceString [128]uint16
	StateFlags   uint32
	DeviceID     [128]uint16
	DeviceKey    [128]uint16
}

const ENUM_CURRENT_SETTINGS = 0xFFFFFFFF

// Resolution represents a display mode
type Resolution struct {
	Width     uint32 `json:"width"`
	Height    uint32 `json:"height"`
	Frequency uint32 `json:"frequency,omitempty"`
}

// MonitorInfo represents one attached monitor and everything the inventory
// shows about it
type MonitorInfo struct {
	Handle        windows.Handle
	DeviceName    string // session device path, e.g. `\\.\DISPLAY1`
	FriendlyName  string // manufacturer name, or UnknownMonitorName
	AdapterString string // GPU the monitor is driven by
	Bounds        RECT
	Mode          Resolution
	IsPrimary     bool
}

// Label returns the display name for logs and the GUI
func (m *MonitorInfo) Label() string {
	label := m.FriendlyName
	if m.IsPrimary {
		label += " (Primary)"
	}
	return label
}

// DescribeMode formats the monitor's current mode, e.g. "2560x1440@144Hz"
func (m *MonitorInfo) DescribeMode() string {
	return fmt.Sprintf("%dx%d@%dHz", m.Mode.Width, m.Mode.Height, m.Mode.Frequency)
}

// enumMonitorsCallback appends each monitor handle to the list whose pointer
// travels through lparam. EnumDisplayMonitors invokes it synchronously, so the
// list outlives every callback invocation.
func enumMonitorsCallback(hMonitor, hdc, rect, lparam uintptr) uintptr {
	handles := (*[]windows.Handle)(unsafe.Pointer(lparam))
	*handles = append(*handles, windows.Handle(hMonitor))
	return 1 // continue enumeration
}

// EnumMonitorHandles returns the handles of all attached monitors
func (dm *DisplayManager) EnumMonitorHandles() ([]windows.Handle, error) {
	return dm.enumMonitors()
}

// enumDisplayMonitors collects the attached monitor handles into a slice owned
// by this call, so overlapping enumerations never share state
func (dm *DisplayManager) enumDisplayMonitors() ([]windows.Handle, error) {
	var handles []windows.Handle
	ret, _, _ := dm.procEnumDisplayMonitors.Call(0, 0, dm.enumCallback, uintptr(unsafe.Pointer(&handles)))
	if ret == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors failed")
	}
	return handles, nil
}

// GetMonitors enumerates all attached monitors and fills in their device
// paths, friendly names, bounds, current modes and adapter strings. Monitors
// whose info query fails are skipped; a failed name resolution falls back to
// WMI and then to the adapter string rather than failing the enumeration.
func (dm *DisplayManager) GetMonitors() ([]MonitorInfo, error) {
	handles, err := dm.EnumMonitorHandles()
	if err != nil {
		return nil, err
	}

	// WMI is queried once per enumeration and only if some monitor could
	// not be named through the display topology.
	var wmiNames []string
	wmiQueried := false

	var monitors []MonitorInfo
	for _, handle := range handles {
		mi, err := dm.getMonitorInfo(handle)
		if err != nil {
			continue
		}

		info := MonitorInfo{
			Handle:     handle,
			DeviceName: windows.UTF16ToString(mi.SzDevice[:]),
			Bounds:     mi.RCMonitor,
			IsPrimary:  mi.DwFlags&MONITORINFOF_PRIMARY != 0,
		}

		info.FriendlyName = dm.MonitorFriendlyName(handle)

		if res, err := dm.getDeviceMode(info.DeviceName); err == nil {
			info.Mode = *res
		}
		if adapter, err := dm.getAdapterString(info.DeviceName); err == nil {
			info.AdapterString = adapter
		}

		if info.FriendlyName == UnknownMonitorName {
			if !wmiQueried {
				wmiNames = monitorNamesFromWMI()
				wmiQueried = true
			}
			if len(wmiNames) > 0 {
				info.FriendlyName = wmiNames[0]
				wmiNames = wmiNames[1:]
			} else if info.AdapterString != "" {
				info.FriendlyName = info.AdapterString
			}
		}

		monitors = append(monitors, info)
	}

	return monitors, nil
}

// PrimaryMonitor returns the handle of the primary monitor
func (dm *DisplayManager) PrimaryMonitor() (windows.Handle, error) {
	// The primary monitor's top-left corner is always the origin.
	ret, _, _ := dm.procMonitorFromPoint.Call(packPoint(POINT{}), uintptr(MONITOR_DEFAULTTONULL))
	if ret == 0 {
		return 0, fmt.Errorf("no primary monitor found")
	}
	return windows.Handle(ret), nil
}

// MonitorFromIndex returns the monitor at the given one-based index in
// enumeration order
func (dm *DisplayManager) MonitorFromIndex(index int) (*MonitorInfo, error) {
	if index < 1 {
		return nil, fmt.Errorf("monitor index must be greater than zero")
	}

	monitors, err := dm.GetMonitors()
	if err != nil {
		return nil, err
	}
	if index > len(monitors) {
		return nil, fmt.Errorf("no monitor at index %d (%d attached)", index, len(monitors))
	}
	return &monitors[index-1], nil
}

// CurrentModeForDevice retrieves the active display mode for a device path
func (dm *DisplayManager) CurrentModeForDevice(deviceName string) (*Resolution, error) {
	devicePtr, err := windows.UTF16PtrFromString(deviceName)
	if err != nil {
		return nil, fmt.Errorf("failed to convert device name to UTF16: %w", err)
	}

	var devMode DEVMODE
	devMode.Size = uint16(unsafe.Sizeof(devMode))

	ret, _, _ := dm.procEnumDisplaySettingsW.Call(
		uintptr(unsafe.Pointer(devicePtr)),
		uintptr(ENUM_CURRENT_SETTINGS),
		uintptr(unsafe.Pointer(&devMode)),
	)
	if ret == 0 {
		return nil, fmt.Errorf("failed to get display settings for %s", deviceName)
	}

	return &Resolution{
		Width:     devMode.PelsWidth,
		Height:    devMode.PelsHeight,
		Frequency: devMode.DisplayFrequency,
	}, nil
}

// adapterStringForDevice returns the adapter description for a device path,
// e.g. "NVIDIA GeForce RTX 4090"
func (dm *DisplayManager) adapterStringForDevice(deviceName string) (string, error) {
	devicePtr, err := windows.UTF16PtrFromString(deviceName)
	if err != nil {
		return "", fmt.Errorf("failed to convert device name to UTF16: %w", err)
	}

	var dd DISPLAY_DEVICE
	dd.Cb = uint32(unsafe.Sizeof(dd))

	ret, _, _ := dm.procEnumDisplayDevicesW.Call(
		uintptr(unsafe.Pointer(devicePtr)),
		uintptr(0),
		uintptr(unsafe.Pointer(&dd)),
		uintptr(0),
	)
	if ret == 0 {
		return "", fmt.Errorf("EnumDisplayDevicesW failed for %s", deviceName)
	}

	return windows.UTF16ToString(dd.DeviceString[:]), nil
}

// MonitorIndex parses the numeric suffix of a device path like `\\.\DISPLAY2`
func MonitorIndex(deviceName string) (int, error) {
	suffix := strings.TrimPrefix(deviceName, `\\.\DISPLAY`)
	if suffix == deviceName {
		return 0, fmt.Errorf("unexpected device name format: %s", deviceName)
	}
	index, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, fmt.Errorf("failed to parse monitor index from %s: %w", deviceName, err)
	}
	return index, nil
}

// packPoint packs a POINT into the single uintptr MonitorFromPoint expects
func packPoint(pt POINT) uintptr {
	return uintptr(uint64(uint32(pt.Y))<<32 | uint64(uint32(pt.X)))
}
