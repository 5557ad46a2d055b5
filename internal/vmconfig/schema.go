package vmconfig

// WholeDevicePartition selects an entire GPU instead of one partition.
const WholeDevicePartition uint16 = 0xFFFF

// Windows virtual-key codes used as hotkey defaults.
const (
	HotkeyDisabled int32 = 0x00
	vkCancel       int32 = 0x03
	vkPrior        int32 = 0x21
	vkNext         int32 = 0x22
	vkEnd          int32 = 0x23
	vkHome         int32 = 0x24
	vkLeft         int32 = 0x25
	vkRight        int32 = 0x27
	vkInsert       int32 = 0x2D
	vkDelete       int32 = 0x2E
)

// VirtualMachineConfiguration is the root configuration document.
type VirtualMachineConfiguration struct {
	Version                        uint32
	GuestType                      GuestType
	Name                           string
	ProcessorCount                 uint32
	MemorySize                     uint64 // MB
	ComPorts                       ComPortsConfiguration
	Gpu                            GpuConfiguration
	NetworkAdapters                []NetworkAdapterConfiguration
	ScsiDevices                    []ScsiDeviceConfiguration
	SecureBoot                     bool
	Tpm                            bool
	GuestStateFile                 string
	RuntimeStateFile               string
	SaveStateFile                  string
	ExposeVirtualizationExtensions bool
	Keyboard                       KeyboardConfiguration
	EnhancedSession                EnhancedSessionConfiguration
	ChipsetInformation             ChipsetInformationConfiguration
	VideoMonitor                   VideoMonitorConfiguration
	Policies                       []string
	Plan9Shares                    []Plan9ShareConfiguration

	Metadata             VirtualMachineMetadata
	AntiDetectionProfile AntiDetectionProfile
	CpuId                CpuIdConfiguration
	MsrIntercept         MsrInterceptConfiguration
	AcpiOverride         AcpiOverrideConfiguration
	Timing               TimingConfiguration
	Pci                  PciConfiguration
}

type ComPortsConfiguration struct {
	UefiConsole UefiConsoleMode
	ComPort1    string // named pipe
	ComPort2    string
}

// GpuConfiguration maps device interface paths to partition ids.
type GpuConfiguration struct {
	AssignmentMode        GpuAssignmentMode
	EnableHostDriverStore bool
	SelectedDevices       map[string]uint16
}

type NetworkAdapterConfiguration struct {
	Connected  bool
	MacAddress string
	EndpointId string
}

type ScsiDeviceConfiguration struct {
	Type ScsiDeviceType
	Path string
}

type KeyboardConfiguration struct {
	RedirectKeyCombinations bool
	FullScreenHotkey        int32 // CTRL + ALT + key
	CtrlEscHotkey           int32 // ALT + key
	AltEscHotkey            int32 // ALT + key
	AltTabHotkey            int32 // ALT + key
	AltShiftTabHotkey       int32 // ALT + key
	AltSpaceHotkey          int32 // ALT + key
	CtrlAltDelHotkey        int32 // CTRL + ALT + key
	FocusReleaseLeftHotkey  int32 // CTRL + ALT + key
	FocusReleaseRightHotkey int32 // CTRL + ALT + key
}

type EnhancedSessionConfiguration struct {
	RedirectAudio          bool
	RedirectAudioCapture   bool
	RedirectDrives         bool
	RedirectPrinters       bool
	RedirectPorts          bool
	RedirectSmartCards     bool
	RedirectClipboard      bool
	RedirectDevices        bool
	RedirectPOSDevices     bool
	RedirectDynamicDrives  bool
	RedirectDynamicDevices bool
	Drives                 []string
	Devices                []string
}

// ChipsetInformationConfiguration holds the SMBIOS identity strings.
type ChipsetInformationConfiguration struct {
	BaseBoardSerialNumber string
	ChassisSerialNumber   string
	ChassisAssetTag       string
	Manufacturer          string
	ProductName           string
	Version               string
	SerialNumber          string
	UUID                  string
	SKUNumber             string
	Family                string
}

// VideoMonitorConfiguration. The DPI override, content resizing and
// connection bar settings are persisted but not applied by the host yet.
type VideoMonitorConfiguration struct {
	HorizontalResolution            uint16
	VerticalResolution              uint16
	DisableBasicSessionDpiScaling   bool
	EnableDpiScalingValueOverride   bool
	EnableContentResizing           bool
	ShowFullScreenModeConnectionBar bool
	OverriddenDpiScalingValue       uint32
}

type Plan9ShareConfiguration struct {
	ReadOnly bool
	Port     uint32
	Path     string
	Name     string
}

// VirtualMachineMetadata tracks ownership of a VM across accounts.
// Timestamps are ISO 8601 strings.
type VirtualMachineMetadata struct {
	Description          string
	Notes                string
	AccountId            string
	ProfileId            string
	CreationTimestamp    string
	LastUpdatedTimestamp string
	SchemaVersion        uint32
}

type CpuIdConfiguration struct {
	Enabled                    bool
	HideHypervisor             bool
	MaskVirtualizationFeatures bool
	VendorString               string // "GenuineIntel", "AuthenticAMD"
	BrandString                string
	Leaves                     []CpuIdLeafOverride
}

// CpuIdLeafOverride replaces the registers returned for one leaf.
type CpuIdLeafOverride struct {
	Leaf    uint32
	SubLeaf uint32
	Eax     uint32
	Ebx     uint32
	Ecx     uint32
	Edx     uint32
}

type MsrInterceptConfiguration struct {
	Enabled         bool
	BlockHyperVMsrs bool
	NormalizeTSC    bool
	Rules           []MsrRule
}

// MsrRule describes how reads of one model-specific register are answered.
type MsrRule struct {
	Index  uint32
	Action MsrAction
	Value  uint64
}

type AcpiOverrideConfiguration struct {
	Enabled             bool
	RemoveHyperVDevices bool
	CustomDSDT          string // path to a DSDT table file
}

type TimingConfiguration struct {
	Strategy      TimingStrategy
	NormalizeTSC  bool
	NormalizeAPIC bool
	NormalizeHPET bool
}

type PciConfiguration struct {
	Enabled bool
	Devices []PciDeviceConfiguration
}

// PciDeviceConfiguration ids are hex strings as they appear in the document.
type PciDeviceConfiguration struct {
	DeviceType        string // "GPU", "NIC", "Storage", ...
	VendorId          string
	DeviceId          string
	SubsystemVendorId string
	SubsystemId       string
}

// Default returns a configuration with every field at its default.
func Default() VirtualMachineConfiguration {
	return VirtualMachineConfiguration{
		Version:         1,
		GuestType:       GuestTypeUnknown,
		Gpu:             defaultGpu(),
		Keyboard:        defaultKeyboard(),
		EnhancedSession: defaultEnhancedSession(),
		VideoMonitor:    defaultVideoMonitor(),
		Metadata:        defaultMetadata(),
	}
}

func defaultGpu() GpuConfiguration {
	return GpuConfiguration{
		AssignmentMode:  GpuAssignmentDisabled,
		SelectedDevices: map[string]uint16{},
	}
}

func defaultKeyboard() KeyboardConfiguration {
	return KeyboardConfiguration{
		RedirectKeyCombinations: true,
		FullScreenHotkey:        vkCancel,
		CtrlEscHotkey:           vkHome,
		AltEscHotkey:            vkInsert,
		AltTabHotkey:            vkPrior,
		AltShiftTabHotkey:       vkNext,
		AltSpaceHotkey:          vkDelete,
		CtrlAltDelHotkey:        vkEnd,
		FocusReleaseLeftHotkey:  vkLeft,
		FocusReleaseRightHotkey: vkRight,
	}
}

func defaultEnhancedSession() EnhancedSessionConfiguration {
	return EnhancedSessionConfiguration{
		RedirectAudio:     true,
		RedirectClipboard: true,
	}
}

func defaultVideoMonitor() VideoMonitorConfiguration {
	return VideoMonitorConfiguration{
		HorizontalResolution:            1024,
		VerticalResolution:              768,
		EnableContentResizing:           true,
		ShowFullScreenModeConnectionBar: true,
		OverriddenDpiScalingValue:       100,
	}
}

func defaultMetadata() VirtualMachineMetadata {
	return VirtualMachineMetadata{SchemaVersion: 1}
}

// SelectDevice assigns a GPU (or one partition of it) and switches the
// assignment mode to List.
func (g *GpuConfiguration) SelectDevice(deviceInterface string, partitionID uint16) {
	if g.SelectedDevices == nil {
		g.SelectedDevices = map[string]uint16{}
	}
	g.SelectedDevices[deviceInterface] = partitionID
	g.AssignmentMode = GpuAssignmentList
}
