package main

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// LUID represents the Win32 LUID structure used to identify a display adapter
type LUID struct {
	LowPart  uint32
	HighPart uint32
}

// POINT represents the Win32 POINT structure
type POINT struct {
	X int32
	Y int32
}

// RECT represents the Win32 RECT structure
type RECT struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

// MONITORINFOEX represents the Win32 MONITORINFOEXW structure
type MONITORINFOEX struct {
	CbSize    uint32
	RCMonitor RECT
	RCWork    RECT
	DwFlags   uint32
	SzDevice  [32]uint16 // CCHDEVICENAME
}

// DISPLAYCONFIG_RATIONAL represents the Win32 DISPLAYCONFIG_RATIONAL structure
type DISPLAYCONFIG_RATIONAL struct {
	Numerator   uint32
	Denominator uint32
}

// DISPLAYCONFIG_PATH_SOURCE_INFO represents the source half of an active display path
type DISPLAYCONFIG_PATH_SOURCE_INFO struct {
	AdapterID   LUID
	ID          uint32
	ModeInfoIdx uint32
	StatusFlags uint32
}

// DISPLAYCONFIG_PATH_TARGET_INFO represents the target half of an active display path
type DISPLAYCONFIG_PATH_TARGET_INFO struct {
	AdapterID        LUID
	ID               uint32
	ModeInfoIdx      uint32
	OutputTechnology uint32
	Rotation         uint32
	Scaling          uint32
	RefreshRate      DISPLAYCONFIG_RATIONAL
	ScanLineOrdering uint32
	TargetAvailable  uint32
	StatusFlags      uint32
}

// DISPLAYCONFIG_PATH_INFO represents one (source, target) pairing in the
// active display-topology graph
type DISPLAYCONFIG_PATH_INFO struct {
	SourceInfo DISPLAYCONFIG_PATH_SOURCE_INFO
	TargetInfo DISPLAYCONFIG_PATH_TARGET_INFO
	Flags      uint32
}

// DISPLAYCONFIG_MODE_INFO represents one entry in the display mode table.
// The mode union is kept opaque; nothing here reads mode details.
type DISPLAYCONFIG_MODE_INFO struct {
	InfoType  uint32
	ID        uint32
	AdapterID LUID
	Mode      [48]byte
}

// DISPLAYCONFIG_DEVICE_INFO_HEADER represents the common header of the
// targeted DisplayConfigGetDeviceInfo queries
type DISPLAYCONFIG_DEVICE_INFO_HEADER struct {
	Type      uint32
	Size      uint32
	AdapterID LUID
	ID        uint32
}

// DISPLAYCONFIG_SOURCE_DEVICE_NAME represents the Win32 structure returned by
// the GET_SOURCE_NAME query
type DISPLAYCONFIG_SOURCE_DEVICE_NAME struct {
	Header            DISPLAYCONFIG_DEVICE_INFO_HEADER
	ViewGDIDeviceName [32]uint16
}

// DISPLAYCONFIG_TARGET_DEVICE_NAME represents the Win32 structure returned by
// the GET_TARGET_NAME query; MonitorFriendlyDeviceName is the name shown to users
type DISPLAYCONFIG_TARGET_DEVICE_NAME struct {
	Header                    DISPLAYCONFIG_DEVICE_INFO_HEADER
	Flags                     uint32
	OutputTechnology          uint32
	EDIDManufactureID         uint16
	EDIDProductCodeID         uint16
	ConnectorInstance         uint32
	MonitorFriendlyDeviceName [64]uint16
	MonitorDevicePath         [128]uint16
}

const (
	ERROR_SUCCESS = 0

	QDC_ONLY_ACTIVE_PATHS = 0x00000002

	DISPLAYCONFIG_DEVICE_INFO_GET_SOURCE_NAME = 1
	DISPLAYCONFIG_DEVICE_INFO_GET_TARGET_NAME = 2

	MONITORINFOF_PRIMARY = 0x00000001

	MONITOR_DEFAULTTONULL = 0x00000000
)

// UnknownMonitorName is written whenever friendly-name resolution fails at any
// stage. Callers treat monitor naming as best-effort and never see an error.
const UnknownMonitorName = "[Unknown Display]"

// DisplayManager wraps the Win32 display-configuration calls used to resolve
// monitor friendly names and enumerate displays
type DisplayManager struct {
	user32                          *windows.LazyDLL
	procGetDisplayConfigBufferSizes *windows.LazyProc
	procQueryDisplayConfig          *windows.LazyProc
	procDisplayConfigGetDeviceInfo  *windows.LazyProc
	procGetMonitorInfoW             *windows.LazyProc
	procEnumDisplayMonitors         *windows.LazyProc
	procMonitorFromPoint            *windows.LazyProc
	procEnumDisplaySettingsW        *windows.LazyProc
	procEnumDisplayDevicesW         *windows.LazyProc

	// Call points for the topology and enumeration queries. NewDisplayManager
	// binds these to the user32 procs; tests substitute fakes to drive the
	// resolution pipeline without live display hardware.
	getBufferSizes   func() (numPaths, numModes uint32, err error)
	queryConfig      func(paths []DISPLAYCONFIG_PATH_INFO, modes []DISPLAYCONFIG_MODE_INFO) (numPaths, numModes uint32, err error)
	getSourceName    func(adapter LUID, id uint32) (string, error)
	getTargetName    func(adapter LUID, id uint32) (*DISPLAYCONFIG_TARGET_DEVICE_NAME, error)
	getMonitorDevice func(handle windows.Handle) (string, error)
	enumMonitors     func() ([]windows.Handle, error)
	getMonitorInfo   func(handle windows.Handle) (*MONITORINFOEX, error)
	getDeviceMode    func(deviceName string) (*Resolution, error)
	getAdapterString func(deviceName string) (string, error)

	// NewCallback allocations are never released, so the enumeration
	// callback is created once and reused across polls. All per-call state
	// rides through the callback's LPARAM, keeping concurrent enumerations
	// independent.
	enumCallback uintptr
}

// NewDisplayManager creates a new DisplayManager instance
func NewDisplayManager() *DisplayManager {
	user32 := windows.NewLazySystemDLL("user32.dll")
	dm := &DisplayManager{
		user32:                          user32,
		procGetDisplayConfigBufferSizes: user32.NewProc("GetDisplayConfigBufferSizes"),
		procQueryDisplayConfig:          user32.NewProc("QueryDisplayConfig"),
		procDisplayConfigGetDeviceInfo:  user32.NewProc("DisplayConfigGetDeviceInfo"),
		procGetMonitorInfoW:             user32.NewProc("GetMonitorInfoW"),
		procEnumDisplayMonitors:         user32.NewProc("EnumDisplayMonitors"),
		procMonitorFromPoint:            user32.NewProc("MonitorFromPoint"),
		procEnumDisplaySettingsW:        user32.NewProc("EnumDisplaySettingsW"),
		procEnumDisplayDevicesW:         user32.NewProc("EnumDisplayDevicesW"),
	}
	dm.getBufferSizes = dm.displayConfigBufferSizes
	dm.queryConfig = dm.queryDisplayConfig
	dm.getSourceName = dm.displayConfigSourceName
	dm.getTargetName = dm.displayConfigTargetName
	dm.getMonitorDevice = dm.monitorDeviceName
	dm.enumMonitors = dm.enumDisplayMonitors
	dm.getMonitorInfo = dm.monitorInfo
	dm.getDeviceMode = dm.CurrentModeForDevice
	dm.getAdapterString = dm.adapterStringForDevice
	dm.enumCallback = windows.NewCallback(enumMonitorsCallback)
	return dm
}

// MonitorFriendlyName resolves the manufacturer-assigned display name for a
// monitor handle. It queries the monitor's GDI device name, matches it against
// the active display-path topology and reads the matched target's friendly
// name. Any failure along the way yields UnknownMonitorName; resolution never
// reports an error because monitor naming is cosmetic.
func (dm *DisplayManager) MonitorFriendlyName(handle windows.Handle) string {
	device, err := dm.getMonitorDevice(handle)
	if err != nil {
		return UnknownMonitorName
	}

	target, ok := dm.findTarget(device)
	if !ok {
		return UnknownMonitorName
	}

	return windows.UTF16ToString(target.MonitorFriendlyDeviceName[:])
}

// FillMonitorName writes the resolved friendly name (or UnknownMonitorName)
// into buf as a NUL-terminated string, truncating to fit. buf is never written
// past its length and is always left terminated when non-empty.
func (dm *DisplayManager) FillMonitorName(handle windows.Handle, buf []byte) {
	if len(buf) == 0 {
		return
	}
	n := copy(buf[:len(buf)-1], dm.MonitorFriendlyName(handle))
	buf[n] = 0
}

// findTarget scans the active display-path graph for the path whose source GDI
// device name equals device and returns that path's target descriptor. The
// scan stops at the first matching path; further paths exposing the same
// device name are never consulted.
func (dm *DisplayManager) findTarget(device string) (*DISPLAYCONFIG_TARGET_DEVICE_NAME, bool) {
	numPaths, numModes, err := dm.getBufferSizes()
	if err != nil {
		return nil, false
	}

	paths := make([]DISPLAYCONFIG_PATH_INFO, numPaths)
	modes := make([]DISPLAYCONFIG_MODE_INFO, numModes)

	numPaths, _, err = dm.queryConfig(paths, modes)
	if err != nil {
		return nil, false
	}
	// The topology may change between the sizing call and the populating
	// call; the counts reported by QueryDisplayConfig are the real ones.
	paths = paths[:numPaths]

	for i := range paths {
		path := &paths[i]

		sourceName, err := dm.getSourceName(path.SourceInfo.AdapterID, path.SourceInfo.ID)
		if err != nil {
			// One unreadable source must not abort the whole scan.
			continue
		}
		if sourceName != device {
			continue
		}

		// The target query pairs the source's adapter id with the target
		// id from the same path entry.
		target, err := dm.getTargetName(path.SourceInfo.AdapterID, path.TargetInfo.ID)
		if err != nil {
			return nil, false
		}
		return target, true
	}

	return nil, false
}

// displayConfigBufferSizes queries the sizes of the active path and mode arrays
func (dm *DisplayManager) displayConfigBufferSizes() (uint32, uint32, error) {
	var numPaths, numModes uint32
	ret, _, _ := dm.procGetDisplayConfigBufferSizes.Call(
		uintptr(QDC_ONLY_ACTIVE_PATHS),
		uintptr(unsafe.Pointer(&numPaths)),
		uintptr(unsafe.Pointer(&numModes)),
	)
	if ret != ERROR_SUCCESS {
		return 0, 0, fmt.Errorf("GetDisplayConfigBufferSizes failed: %d", ret)
	}
	return numPaths, numModes, nil
}

// queryDisplayConfig populates the path and mode arrays for the active
// topology and returns the counts actually written
func (dm *DisplayManager) queryDisplayConfig(paths []DISPLAYCONFIG_PATH_INFO, modes []DISPLAYCONFIG_MODE_INFO) (uint32, uint32, error) {
	numPaths := uint32(len(paths))
	numModes := uint32(len(modes))

	var pathPtr *DISPLAYCONFIG_PATH_INFO
	var modePtr *DISPLAYCONFIG_MODE_INFO
	if len(paths) > 0 {
		pathPtr = &paths[0]
	}
	if len(modes) > 0 {
		modePtr = &modes[0]
	}

	ret, _, _ := dm.procQueryDisplayConfig.Call(
		uintptr(QDC_ONLY_ACTIVE_PATHS),
		uintptr(unsafe.Pointer(&numPaths)),
		uintptr(unsafe.Pointer(pathPtr)),
		uintptr(unsafe.Pointer(&numModes)),
		uintptr(unsafe.Pointer(modePtr)),
		uintptr(0),
	)
	if ret != ERROR_SUCCESS {
		return 0, 0, fmt.Errorf("QueryDisplayConfig failed: %d", ret)
	}
	return numPaths, numModes, nil
}

// displayConfigSourceName issues a GET_SOURCE_NAME query for one path source
// and returns its GDI device name (e.g. `\\.\DISPLAY1`)
func (dm *DisplayManager) displayConfigSourceName(adapter LUID, id uint32) (string, error) {
	var source DISPLAYCONFIG_SOURCE_DEVICE_NAME
	source.Header.Type = DISPLAYCONFIG_DEVICE_INFO_GET_SOURCE_NAME
	source.Header.Size = uint32(unsafe.Sizeof(source))
	source.Header.AdapterID = adapter
	source.Header.ID = id

	ret, _, _ := dm.procDisplayConfigGetDeviceInfo.Call(uintptr(unsafe.Pointer(&source)))
	if ret != ERROR_SUCCESS {
		return "", fmt.Errorf("DisplayConfigGetDeviceInfo (source name) failed: %d", ret)
	}

	return windows.UTF16ToString(source.ViewGDIDeviceName[:]), nil
}

// displayConfigTargetName issues a GET_TARGET_NAME query for one path target
// and returns the full target descriptor
func (dm *DisplayManager) displayConfigTargetName(adapter LUID, id uint32) (*DISPLAYCONFIG_TARGET_DEVICE_NAME, error) {
	var target DISPLAYCONFIG_TARGET_DEVICE_NAME
	target.Header.Type = DISPLAYCONFIG_DEVICE_INFO_GET_TARGET_NAME
	target.Header.Size = uint32(unsafe.Sizeof(target))
	target.Header.AdapterID = adapter
	target.Header.ID = id

	ret, _, _ := dm.procDisplayConfigGetDeviceInfo.Call(uintptr(unsafe.Pointer(&target)))
	if ret != ERROR_SUCCESS {
		return nil, fmt.Errorf("DisplayConfigGetDeviceInfo (target name) failed: %d", ret)
	}

	return &target, nil
}

// monitorInfo queries the extended monitor info for a monitor handle
func (dm *DisplayManager) monitorInfo(handle windows.Handle) (*MONITORINFOEX, error) {
	var mi MONITORINFOEX
	mi.CbSize = uint32(unsafe.Sizeof(mi))

	ret, _, _ := dm.procGetMonitorInfoW.Call(
		uintptr(handle),
		uintptr(unsafe.Pointer(&mi)),
	)
	if ret == 0 {
		return nil, fmt.Errorf("GetMonitorInfoW failed")
	}
	return &mi, nil
}

// monitorDeviceName returns the session device identifier for a monitor
// handle (e.g. `\\.\DISPLAY1`)
func (dm *DisplayManager) monitorDeviceName(handle windows.Handle) (string, error) {
	mi, err := dm.monitorInfo(handle)
	if err != nil {
		return "", err
	}
	return windows.UTF16ToString(mi.SzDevice[:]), nil
}
