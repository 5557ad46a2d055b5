package vmconfig

import (
	"sort"
)

// Marshal encodes cfg and serializes it as an indented document.
func Marshal(cfg VirtualMachineConfiguration) ([]byte, error) {
	return Serialize(Encode(cfg))
}

// Encode builds the document tree for cfg. Fields equal to their default
// are left out, except the identity and sizing fields which are always
// written.
func Encode(cfg VirtualMachineConfiguration) Value {
	def := Default()
	root := Object()

	root.Set("Version", Uint(uint64(cfg.Version)))
	root.Set("GuestType", String(cfg.GuestType.String()))
	root.Set("Name", String(cfg.Name))
	root.Set("ProcessorCount", Uint(uint64(cfg.ProcessorCount)))
	root.Set("MemorySize", Uint(cfg.MemorySize))
	root.Set("ComPorts", encodeComPorts(cfg.ComPorts))
	root.Set("Gpu", encodeGpu(cfg.Gpu))

	setList(&root, "NetworkAdapters", cfg.NetworkAdapters, encodeNetworkAdapter)
	setList(&root, "ScsiDevices", cfg.ScsiDevices, encodeScsiDevice)

	setUnlessDefault(&root, "SecureBoot", cfg.SecureBoot, def.SecureBoot, Bool)
	setUnlessDefault(&root, "Tpm", cfg.Tpm, def.Tpm, Bool)
	setUnlessDefault(&root, "GuestStateFile", cfg.GuestStateFile, def.GuestStateFile, String)
	setUnlessDefault(&root, "RuntimeStateFile", cfg.RuntimeStateFile, def.RuntimeStateFile, String)
	setUnlessDefault(&root, "SaveStateFile", cfg.SaveStateFile, def.SaveStateFile, String)
	setUnlessDefault(&root, "ExposeVirtualizationExtensions", cfg.ExposeVirtualizationExtensions, def.ExposeVirtualizationExtensions, Bool)

	setObject(&root, "Keyboard", encodeKeyboard(cfg.Keyboard))
	setObject(&root, "EnhancedSession", encodeEnhancedSession(cfg.EnhancedSession))
	setObject(&root, "ChipsetInformation", encodeChipsetInformation(cfg.ChipsetInformation))
	setObject(&root, "VideoMonitor", encodeVideoMonitor(cfg.VideoMonitor))
	setList(&root, "Policies", cfg.Policies, encodeNonEmptyString)
	setList(&root, "Plan9Shares", cfg.Plan9Shares, encodePlan9Share)

	setObject(&root, "Metadata", encodeMetadata(cfg.Metadata))
	setUnlessDefault(&root, "AntiDetectionProfile", cfg.AntiDetectionProfile, def.AntiDetectionProfile, enumString[AntiDetectionProfile])
	setObject(&root, "CpuId", encodeCpuID(cfg.CpuId))
	setObject(&root, "MsrIntercept", encodeMsrIntercept(cfg.MsrIntercept))
	setObject(&root, "AcpiOverride", encodeAcpiOverride(cfg.AcpiOverride))
	setObject(&root, "Timing", encodeTiming(cfg.Timing))
	setObject(&root, "Pci", encodePci(cfg.Pci))

	return root
}

func setUnlessDefault[T comparable](obj *Value, key string, val, def T, enc func(T) Value) {
	if val == def {
		return
	}
	obj.Set(key, enc(val))
}

// setObject writes val only when it has members.
func setObject(obj *Value, key string, val Value) {
	if val.Len() == 0 {
		return
	}
	obj.Set(key, val)
}

// setList writes the entries enc accepts; an empty result is left out.
func setList[T any](obj *Value, key string, items []T, enc func(T) (Value, bool)) {
	list := Array()
	for _, item := range items {
		if v, ok := enc(item); ok {
			list.Append(v)
		}
	}
	if list.Len() == 0 {
		return
	}
	obj.Set(key, list)
}

func enumString[E interface{ String() string }](e E) Value {
	return String(e.String())
}

func uint16Value(u uint16) Value { return Uint(uint64(u)) }
func uint32Value(u uint32) Value { return Uint(uint64(u)) }
func int32Value(i int32) Value   { return Int(int64(i)) }

func encodeNonEmptyString(s string) (Value, bool) {
	return String(s), s != ""
}

func encodeComPorts(c ComPortsConfiguration) Value {
	var def ComPortsConfiguration
	obj := Object()
	obj.Set("UefiConsole", String(c.UefiConsole.String()))
	setUnlessDefault(&obj, "ComPort1", c.ComPort1, def.ComPort1, String)
	setUnlessDefault(&obj, "ComPort2", c.ComPort2, def.ComPort2, String)
	return obj
}

func encodeGpu(g GpuConfiguration) Value {
	def := defaultGpu()
	obj := Object()
	obj.Set("AssignmentMode", String(g.AssignmentMode.String()))
	setUnlessDefault(&obj, "EnableHostDriverStore", g.EnableHostDriverStore, def.EnableHostDriverStore, Bool)

	if g.AssignmentMode != GpuAssignmentList || len(g.SelectedDevices) == 0 {
		return obj
	}

	ifaces := make([]string, 0, len(g.SelectedDevices))
	for iface := range g.SelectedDevices {
		if iface != "" {
			ifaces = append(ifaces, iface)
		}
	}
	sort.Strings(ifaces)

	devices := Array()
	for _, iface := range ifaces {
		partition := g.SelectedDevices[iface]
		if partition == WholeDevicePartition {
			devices.Append(String(iface))
			continue
		}
		dev := Object()
		dev.Set("DeviceInterface", String(iface))
		dev.Set("PartitionId", uint16Value(partition))
		devices.Append(dev)
	}
	setObject(&obj, "SelectedDevices", devices)
	return obj
}

func encodeNetworkAdapter(n NetworkAdapterConfiguration) (Value, bool) {
	obj := Object()
	obj.Set("Connected", Bool(n.Connected))
	setUnlessDefault(&obj, "MacAddress", n.MacAddress, "", String)
	setUnlessDefault(&obj, "EndpointId", n.EndpointId, "", String)
	return obj, true
}

func encodeScsiDevice(s ScsiDeviceConfiguration) (Value, bool) {
	if !keepScsiDevice(s) {
		return Value{}, false
	}
	obj := Object()
	obj.Set("Type", String(s.Type.String()))
	obj.Set("Path", String(s.Path))
	return obj, true
}

func encodeKeyboard(k KeyboardConfiguration) Value {
	def := defaultKeyboard()
	obj := Object()
	setUnlessDefault(&obj, "RedirectKeyCombinations", k.RedirectKeyCombinations, def.RedirectKeyCombinations, Bool)
	setUnlessDefault(&obj, "FullScreenHotkey", k.FullScreenHotkey, def.FullScreenHotkey, int32Value)
	setUnlessDefault(&obj, "CtrlEscHotkey", k.CtrlEscHotkey, def.CtrlEscHotkey, int32Value)
	setUnlessDefault(&obj, "AltEscHotkey", k.AltEscHotkey, def.AltEscHotkey, int32Value)
	setUnlessDefault(&obj, "AltTabHotkey", k.AltTabHotkey, def.AltTabHotkey, int32Value)
	setUnlessDefault(&obj, "AltShiftTabHotkey", k.AltShiftTabHotkey, def.AltShiftTabHotkey, int32Value)
	setUnlessDefault(&obj, "AltSpaceHotkey", k.AltSpaceHotkey, def.AltSpaceHotkey, int32Value)
	setUnlessDefault(&obj, "CtrlAltDelHotkey", k.CtrlAltDelHotkey, def.CtrlAltDelHotkey, int32Value)
	setUnlessDefault(&obj, "FocusReleaseLeftHotkey", k.FocusReleaseLeftHotkey, def.FocusReleaseLeftHotkey, int32Value)
	setUnlessDefault(&obj, "FocusReleaseRightHotkey", k.FocusReleaseRightHotkey, def.FocusReleaseRightHotkey, int32Value)
	return obj
}

func encodeEnhancedSession(e EnhancedSessionConfiguration) Value {
	def := defaultEnhancedSession()
	obj := Object()
	setUnlessDefault(&obj, "RedirectAudio", e.RedirectAudio, def.RedirectAudio, Bool)
	setUnlessDefault(&obj, "RedirectAudioCapture", e.RedirectAudioCapture, def.RedirectAudioCapture, Bool)
	setUnlessDefault(&obj, "RedirectDrives", e.RedirectDrives, def.RedirectDrives, Bool)
	setUnlessDefault(&obj, "RedirectPrinters", e.RedirectPrinters, def.RedirectPrinters, Bool)
	setUnlessDefault(&obj, "RedirectPorts", e.RedirectPorts, def.RedirectPorts, Bool)
	setUnlessDefault(&obj, "RedirectSmartCards", e.RedirectSmartCards, def.RedirectSmartCards, Bool)
	setUnlessDefault(&obj, "RedirectClipboard", e.RedirectClipboard, def.RedirectClipboard, Bool)
	setUnlessDefault(&obj, "RedirectDevices", e.RedirectDevices, def.RedirectDevices, Bool)
	setUnlessDefault(&obj, "RedirectPOSDevices", e.RedirectPOSDevices, def.RedirectPOSDevices, Bool)
	setUnlessDefault(&obj, "RedirectDynamicDrives", e.RedirectDynamicDrives, def.RedirectDynamicDrives, Bool)
	setUnlessDefault(&obj, "RedirectDynamicDevices", e.RedirectDynamicDevices, def.RedirectDynamicDevices, Bool)
	setList(&obj, "Drives", e.Drives, encodeDrive)
	setList(&obj, "Devices", e.Devices, encodeNonEmptyString)
	return obj
}

func encodeDrive(s string) (Value, bool) {
	letter, ok := driveLetter(s)
	return String(letter), ok
}

func encodeChipsetInformation(c ChipsetInformationConfiguration) Value {
	obj := Object()
	setUnlessDefault(&obj, "BaseBoardSerialNumber", c.BaseBoardSerialNumber, "", String)
	setUnlessDefault(&obj, "ChassisSerialNumber", c.ChassisSerialNumber, "", String)
	setUnlessDefault(&obj, "ChassisAssetTag", c.ChassisAssetTag, "", String)
	setUnlessDefault(&obj, "Manufacturer", c.Manufacturer, "", String)
	setUnlessDefault(&obj, "ProductName", c.ProductName, "", String)
	setUnlessDefault(&obj, "Version", c.Version, "", String)
	setUnlessDefault(&obj, "SerialNumber", c.SerialNumber, "", String)
	setUnlessDefault(&obj, "UUID", c.UUID, "", String)
	setUnlessDefault(&obj, "SKUNumber", c.SKUNumber, "", String)
	setUnlessDefault(&obj, "Family", c.Family, "", String)
	return obj
}

func encodeVideoMonitor(m VideoMonitorConfiguration) Value {
	def := defaultVideoMonitor()
	obj := Object()
	setUnlessDefault(&obj, "HorizontalResolution", m.HorizontalResolution, def.HorizontalResolution, uint16Value)
	setUnlessDefault(&obj, "VerticalResolution", m.VerticalResolution, def.VerticalResolution, uint16Value)
	setUnlessDefault(&obj, "DisableBasicSessionDpiScaling", m.DisableBasicSessionDpiScaling, def.DisableBasicSessionDpiScaling, Bool)
	setUnlessDefault(&obj, "EnableDpiScalingValueOverride", m.EnableDpiScalingValueOverride, def.EnableDpiScalingValueOverride, Bool)
	setUnlessDefault(&obj, "EnableContentResizing", m.EnableContentResizing, def.EnableContentResizing, Bool)
	setUnlessDefault(&obj, "ShowFullScreenModeConnectionBar", m.ShowFullScreenModeConnectionBar, def.ShowFullScreenModeConnectionBar, Bool)
	setUnlessDefault(&obj, "OverriddenDpiScalingValue", m.OverriddenDpiScalingValue, def.OverriddenDpiScalingValue, uint32Value)
	return obj
}

func encodePlan9Share(s Plan9ShareConfiguration) (Value, bool) {
	if !keepPlan9Share(s) {
		return Value{}, false
	}
	obj := Object()
	setUnlessDefault(&obj, "ReadOnly", s.ReadOnly, false, Bool)
	obj.Set("Port", uint32Value(s.Port))
	obj.Set("Path", String(s.Path))
	obj.Set("Name", String(s.Name))
	return obj, true
}

func encodeMetadata(m VirtualMachineMetadata) Value {
	def := defaultMetadata()
	obj := Object()
	setUnlessDefault(&obj, "Description", m.Description, def.Description, String)
	setUnlessDefault(&obj, "Notes", m.Notes, def.Notes, String)
	setUnlessDefault(&obj, "AccountId", m.AccountId, def.AccountId, String)
	setUnlessDefault(&obj, "ProfileId", m.ProfileId, def.ProfileId, String)
	setUnlessDefault(&obj, "CreationTimestamp", m.CreationTimestamp, def.CreationTimestamp, String)
	setUnlessDefault(&obj, "LastUpdatedTimestamp", m.LastUpdatedTimestamp, def.LastUpdatedTimestamp, String)
	setUnlessDefault(&obj, "SchemaVersion", m.SchemaVersion, def.SchemaVersion, uint32Value)
	return obj
}

func encodeCpuID(c CpuIdConfiguration) Value {
	obj := Object()
	setUnlessDefault(&obj, "Enabled", c.Enabled, false, Bool)
	setUnlessDefault(&obj, "HideHypervisor", c.HideHypervisor, false, Bool)
	setUnlessDefault(&obj, "MaskVirtualizationFeatures", c.MaskVirtualizationFeatures, false, Bool)
	setUnlessDefault(&obj, "VendorString", c.VendorString, "", String)
	setUnlessDefault(&obj, "BrandString", c.BrandString, "", String)
	setList(&obj, "Leaves", c.Leaves, encodeLeaf)
	return obj
}

func encodeLeaf(l CpuIdLeafOverride) (Value, bool) {
	obj := Object()
	obj.Set("Leaf", uint32Value(l.Leaf))
	setUnlessDefault(&obj, "SubLeaf", l.SubLeaf, 0, uint32Value)
	setUnlessDefault(&obj, "Eax", l.Eax, 0, uint32Value)
	setUnlessDefault(&obj, "Ebx", l.Ebx, 0, uint32Value)
	setUnlessDefault(&obj, "Ecx", l.Ecx, 0, uint32Value)
	setUnlessDefault(&obj, "Edx", l.Edx, 0, uint32Value)
	return obj, true
}

func encodeMsrIntercept(m MsrInterceptConfiguration) Value {
	obj := Object()
	setUnlessDefault(&obj, "Enabled", m.Enabled, false, Bool)
	setUnlessDefault(&obj, "BlockHyperVMsrs", m.BlockHyperVMsrs, false, Bool)
	setUnlessDefault(&obj, "NormalizeTSC", m.NormalizeTSC, false, Bool)
	setList(&obj, "Rules", m.Rules, encodeMsrRule)
	return obj
}

func encodeMsrRule(r MsrRule) (Value, bool) {
	obj := Object()
	obj.Set("Index", uint32Value(r.Index))
	setUnlessDefault(&obj, "Action", r.Action, MsrPassthrough, enumString[MsrAction])
	setUnlessDefault(&obj, "Value", r.Value, 0, Uint)
	return obj, true
}

func encodeAcpiOverride(a AcpiOverrideConfiguration) Value {
	obj := Object()
	setUnlessDefault(&obj, "Enabled", a.Enabled, false, Bool)
	setUnlessDefault(&obj, "RemoveHyperVDevices", a.RemoveHyperVDevices, false, Bool)
	setUnlessDefault(&obj, "CustomDSDT", a.CustomDSDT, "", String)
	return obj
}

func encodeTiming(t TimingConfiguration) Value {
	obj := Object()
	setUnlessDefault(&obj, "Strategy", t.Strategy, TimingOff, enumString[TimingStrategy])
	setUnlessDefault(&obj, "NormalizeTSC", t.NormalizeTSC, false, Bool)
	setUnlessDefault(&obj, "NormalizeAPIC", t.NormalizeAPIC, false, Bool)
	setUnlessDefault(&obj, "NormalizeHPET", t.NormalizeHPET, false, Bool)
	return obj
}

func encodePci(p PciConfiguration) Value {
	obj := Object()
	setUnlessDefault(&obj, "Enabled", p.Enabled, false, Bool)
	setList(&obj, "Devices", p.Devices, encodePciDevice)
	return obj
}

func encodePciDevice(p PciDeviceConfiguration) (Value, bool) {
	obj := Object()
	setUnlessDefault(&obj, "DeviceType", p.DeviceType, "", String)
	setUnlessDefault(&obj, "VendorId", p.VendorId, "", String)
	setUnlessDefault(&obj, "DeviceId", p.DeviceId, "", String)
	setUnlessDefault(&obj, "SubsystemVendorId", p.SubsystemVendorId, "", String)
	setUnlessDefault(&obj, "SubsystemId", p.SubsystemId, "", String)
	return obj, true
}
