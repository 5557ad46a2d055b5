package vmconfig

// Unmarshal parses data and decodes it. The only error is *ParseError.
func Unmarshal(data []byte) (VirtualMachineConfiguration, error) {
	v, err := Parse(data)
	if err != nil {
		return VirtualMachineConfiguration{}, err
	}
	return Decode(v), nil
}

// Decode builds a configuration from a document tree. It never fails:
// mismatched fields take their defaults and invalid entries are dropped.
func Decode(v Value) VirtualMachineConfiguration {
	cfg, _ := DecodeReport(v)
	return cfg
}

// DecodeReport is Decode that also returns every repair it made.
func DecodeReport(v Value) (VirtualMachineConfiguration, []Repair) {
	d := &decoder{}
	if v.Kind() != KindObject {
		d.repair("", "document root is %s, using defaults", v.Kind())
		return Default(), d.repairs
	}
	return d.configuration(v), d.repairs
}

func (d *decoder) configuration(obj Value) VirtualMachineConfiguration {
	def := Default()
	return VirtualMachineConfiguration{
		Version:                        field(d, obj, "", "Version", def.Version, asUint[uint32]),
		GuestType:                      enumField(d, obj, "", "GuestType", def.GuestType, ParseGuestType),
		Name:                           field(d, obj, "", "Name", def.Name, asString),
		ProcessorCount:                 field(d, obj, "", "ProcessorCount", def.ProcessorCount, asUint[uint32]),
		MemorySize:                     field(d, obj, "", "MemorySize", def.MemorySize, asUint[uint64]),
		ComPorts:                       d.comPorts(d.object(obj, "", "ComPorts")),
		Gpu:                            d.gpu(d.object(obj, "", "Gpu")),
		NetworkAdapters:                d.networkAdapters(obj),
		ScsiDevices:                    d.scsiDevices(obj),
		SecureBoot:                     field(d, obj, "", "SecureBoot", def.SecureBoot, asBool),
		Tpm:                            field(d, obj, "", "Tpm", def.Tpm, asBool),
		GuestStateFile:                 field(d, obj, "", "GuestStateFile", def.GuestStateFile, asString),
		RuntimeStateFile:               field(d, obj, "", "RuntimeStateFile", def.RuntimeStateFile, asString),
		SaveStateFile:                  field(d, obj, "", "SaveStateFile", def.SaveStateFile, asString),
		ExposeVirtualizationExtensions: field(d, obj, "", "ExposeVirtualizationExtensions", def.ExposeVirtualizationExtensions, asBool),
		Keyboard:                       d.keyboard(d.object(obj, "", "Keyboard")),
		EnhancedSession:                d.enhancedSession(d.object(obj, "", "EnhancedSession")),
		ChipsetInformation:             d.chipsetInformation(d.object(obj, "", "ChipsetInformation")),
		VideoMonitor:                   d.videoMonitor(d.object(obj, "", "VideoMonitor")),
		Policies:                       d.strings(obj, "", "Policies"),
		Plan9Shares:                    d.plan9Shares(obj),
		Metadata:                       d.metadata(d.object(obj, "", "Metadata")),
		AntiDetectionProfile:           enumField(d, obj, "", "AntiDetectionProfile", def.AntiDetectionProfile, ParseAntiDetectionProfile),
		CpuId:                          d.cpuID(d.object(obj, "", "CpuId")),
		MsrIntercept:                   d.msrIntercept(d.object(obj, "", "MsrIntercept")),
		AcpiOverride:                   d.acpiOverride(d.object(obj, "", "AcpiOverride")),
		Timing:                         d.timing(d.object(obj, "", "Timing")),
		Pci:                            d.pci(d.object(obj, "", "Pci")),
	}
}

// object returns obj[key] when it is an object, otherwise an empty object
// so nested records fall back to their defaults.
func (d *decoder) object(obj Value, path, key string) Value {
	return field(d, obj, path, key, Object(), asObject)
}

func (d *decoder) array(obj Value, path, key string) []Value {
	var none []Value
	return field(d, obj, path, key, none, asArray)
}

// strings decodes a list of non-empty strings.
func (d *decoder) strings(obj Value, path, key string) []string {
	var out []string
	for i, item := range d.array(obj, path, key) {
		s, ok := item.AsString()
		if !ok || s == "" {
			d.repair(index(join(path, key), i), "dropped empty or non-string entry")
			continue
		}
		out = append(out, s)
	}
	return out
}

func (d *decoder) comPorts(obj Value) ComPortsConfiguration {
	const path = "ComPorts"
	var def ComPortsConfiguration
	return ComPortsConfiguration{
		UefiConsole: enumField(d, obj, path, "UefiConsole", def.UefiConsole, ParseUefiConsoleMode),
		ComPort1:    field(d, obj, path, "ComPort1", def.ComPort1, asString),
		ComPort2:    field(d, obj, path, "ComPort2", def.ComPort2, asString),
	}
}

func (d *decoder) gpu(obj Value) GpuConfiguration {
	const path = "Gpu"
	def := defaultGpu()
	gpu := GpuConfiguration{
		AssignmentMode:        enumField(d, obj, path, "AssignmentMode", def.AssignmentMode, ParseGpuAssignmentMode),
		EnableHostDriverStore: field(d, obj, path, "EnableHostDriverStore", def.EnableHostDriverStore, asBool),
		SelectedDevices:       map[string]uint16{},
	}

	devicesPath := join(path, "SelectedDevices")
	for i, item := range d.array(obj, path, "SelectedDevices") {
		iface, partition, ok := d.selectedDevice(index(devicesPath, i), item)
		if !ok {
			continue
		}
		gpu.SelectedDevices[iface] = partition
	}

	switch {
	case gpu.AssignmentMode == GpuAssignmentList && len(gpu.SelectedDevices) == 0:
		d.repair(path, "List assignment without devices, using Disabled")
		gpu.AssignmentMode = GpuAssignmentDisabled
	case gpu.AssignmentMode != GpuAssignmentList && len(gpu.SelectedDevices) > 0:
		d.repair(devicesPath, "devices ignored for %s assignment", gpu.AssignmentMode)
		gpu.SelectedDevices = map[string]uint16{}
	}
	return gpu
}

// selectedDevice accepts a bare interface path (whole device) or an
// object with DeviceInterface and PartitionId. A missing or invalid
// PartitionId means partition 0.
func (d *decoder) selectedDevice(path string, item Value) (string, uint16, bool) {
	if s, ok := item.AsString(); ok {
		if s == "" {
			d.repair(path, "dropped device with empty interface")
			return "", 0, false
		}
		return s, WholeDevicePartition, true
	}
	if item.Kind() != KindObject {
		d.repair(path, "dropped %s device entry", item.Kind())
		return "", 0, false
	}
	iface := field(d, item, path, "DeviceInterface", "", asString)
	if iface == "" {
		d.repair(path, "dropped device with empty interface")
		return "", 0, false
	}
	return iface, field(d, item, path, "PartitionId", uint16(0), asUint[uint16]), true
}

func (d *decoder) networkAdapters(obj Value) []NetworkAdapterConfiguration {
	const path = "NetworkAdapters"
	var out []NetworkAdapterConfiguration
	for i, item := range d.array(obj, "", path) {
		p := index(path, i)
		if item.Kind() != KindObject {
			d.repair(p, "dropped %s entry", item.Kind())
			continue
		}
		out = append(out, NetworkAdapterConfiguration{
			Connected:  field(d, item, p, "Connected", false, asBool),
			MacAddress: field(d, item, p, "MacAddress", "", asString),
			EndpointId: field(d, item, p, "EndpointId", "", asString),
		})
	}
	return out
}

func (d *decoder) scsiDevices(obj Value) []ScsiDeviceConfiguration {
	const path = "ScsiDevices"
	var out []ScsiDeviceConfiguration
	for i, item := range d.array(obj, "", path) {
		p := index(path, i)
		if item.Kind() != KindObject {
			d.repair(p, "dropped %s entry", item.Kind())
			continue
		}
		dev := ScsiDeviceConfiguration{
			Type: enumField(d, item, p, "Type", ScsiDeviceUnknown, ParseScsiDeviceType),
			Path: field(d, item, p, "Path", "", asString),
		}
		if !keepScsiDevice(dev) {
			d.repair(p, "dropped %q device with path %q", dev.Type, dev.Path)
			continue
		}
		out = append(out, dev)
	}
	return out
}

// keepScsiDevice reports whether a device survives decoding. An empty
// VirtualImage is an empty optical drive.
func keepScsiDevice(dev ScsiDeviceConfiguration) bool {
	if dev.Type == ScsiDeviceUnknown {
		return false
	}
	return dev.Path != "" || dev.Type == ScsiDeviceVirtualImage
}

func (d *decoder) keyboard(obj Value) KeyboardConfiguration {
	const path = "Keyboard"
	def := defaultKeyboard()
	return KeyboardConfiguration{
		RedirectKeyCombinations: field(d, obj, path, "RedirectKeyCombinations", def.RedirectKeyCombinations, asBool),
		FullScreenHotkey:        field(d, obj, path, "FullScreenHotkey", def.FullScreenHotkey, asInt32),
		CtrlEscHotkey:           field(d, obj, path, "CtrlEscHotkey", def.CtrlEscHotkey, asInt32),
		AltEscHotkey:            field(d, obj, path, "AltEscHotkey", def.AltEscHotkey, asInt32),
		AltTabHotkey:            field(d, obj, path, "AltTabHotkey", def.AltTabHotkey, asInt32),
		AltShiftTabHotkey:       field(d, obj, path, "AltShiftTabHotkey", def.AltShiftTabHotkey, asInt32),
		AltSpaceHotkey:          field(d, obj, path, "AltSpaceHotkey", def.AltSpaceHotkey, asInt32),
		CtrlAltDelHotkey:        field(d, obj, path, "CtrlAltDelHotkey", def.CtrlAltDelHotkey, asInt32),
		FocusReleaseLeftHotkey:  field(d, obj, path, "FocusReleaseLeftHotkey", def.FocusReleaseLeftHotkey, asInt32),
		FocusReleaseRightHotkey: field(d, obj, path, "FocusReleaseRightHotkey", def.FocusReleaseRightHotkey, asInt32),
	}
}

func (d *decoder) enhancedSession(obj Value) EnhancedSessionConfiguration {
	const path = "EnhancedSession"
	def := defaultEnhancedSession()
	return EnhancedSessionConfiguration{
		RedirectAudio:          field(d, obj, path, "RedirectAudio", def.RedirectAudio, asBool),
		RedirectAudioCapture:   field(d, obj, path, "RedirectAudioCapture", def.RedirectAudioCapture, asBool),
		RedirectDrives:         field(d, obj, path, "RedirectDrives", def.RedirectDrives, asBool),
		RedirectPrinters:       field(d, obj, path, "RedirectPrinters", def.RedirectPrinters, asBool),
		RedirectPorts:          field(d, obj, path, "RedirectPorts", def.RedirectPorts, asBool),
		RedirectSmartCards:     field(d, obj, path, "RedirectSmartCards", def.RedirectSmartCards, asBool),
		RedirectClipboard:      field(d, obj, path, "RedirectClipboard", def.RedirectClipboard, asBool),
		RedirectDevices:        field(d, obj, path, "RedirectDevices", def.RedirectDevices, asBool),
		RedirectPOSDevices:     field(d, obj, path, "RedirectPOSDevices", def.RedirectPOSDevices, asBool),
		RedirectDynamicDrives:  field(d, obj, path, "RedirectDynamicDrives", def.RedirectDynamicDrives, asBool),
		RedirectDynamicDevices: field(d, obj, path, "RedirectDynamicDevices", def.RedirectDynamicDevices, asBool),
		Drives:                 d.drives(obj, path),
		Devices:                d.strings(obj, path, "Devices"),
	}
}

func (d *decoder) drives(obj Value, path string) []string {
	drivesPath := join(path, "Drives")
	var out []string
	for i, item := range d.array(obj, path, "Drives") {
		s, _ := item.AsString()
		letter, ok := driveLetter(s)
		if !ok {
			d.repair(index(drivesPath, i), "dropped invalid drive letter")
			continue
		}
		out = append(out, letter)
	}
	return out
}

// driveLetter normalizes "c", "C:" or "C:\" to "C". Only the first byte
// counts and it must be an ASCII letter.
func driveLetter(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	c := s[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'Z' {
		return "", false
	}
	return string(rune(c)), true
}

func (d *decoder) chipsetInformation(obj Value) ChipsetInformationConfiguration {
	const path = "ChipsetInformation"
	return ChipsetInformationConfiguration{
		BaseBoardSerialNumber: field(d, obj, path, "BaseBoardSerialNumber", "", asString),
		ChassisSerialNumber:   field(d, obj, path, "ChassisSerialNumber", "", asString),
		ChassisAssetTag:       field(d, obj, path, "ChassisAssetTag", "", asString),
		Manufacturer:          field(d, obj, path, "Manufacturer", "", asString),
		ProductName:           field(d, obj, path, "ProductName", "", asString),
		Version:               field(d, obj, path, "Version", "", asString),
		SerialNumber:          field(d, obj, path, "SerialNumber", "", asString),
		UUID:                  field(d, obj, path, "UUID", "", asString),
		SKUNumber:             field(d, obj, path, "SKUNumber", "", asString),
		Family:                field(d, obj, path, "Family", "", asString),
	}
}

func (d *decoder) videoMonitor(obj Value) VideoMonitorConfiguration {
	const path = "VideoMonitor"
	def := defaultVideoMonitor()
	return VideoMonitorConfiguration{
		HorizontalResolution:            field(d, obj, path, "HorizontalResolution", def.HorizontalResolution, asUint[uint16]),
		VerticalResolution:              field(d, obj, path, "VerticalResolution", def.VerticalResolution, asUint[uint16]),
		DisableBasicSessionDpiScaling:   field(d, obj, path, "DisableBasicSessionDpiScaling", def.DisableBasicSessionDpiScaling, asBool),
		EnableDpiScalingValueOverride:   field(d, obj, path, "EnableDpiScalingValueOverride", def.EnableDpiScalingValueOverride, asBool),
		EnableContentResizing:           field(d, obj, path, "EnableContentResizing", def.EnableContentResizing, asBool),
		ShowFullScreenModeConnectionBar: field(d, obj, path, "ShowFullScreenModeConnectionBar", def.ShowFullScreenModeConnectionBar, asBool),
		OverriddenDpiScalingValue:       field(d, obj, path, "OverriddenDpiScalingValue", def.OverriddenDpiScalingValue, asUint[uint32]),
	}
}

func (d *decoder) plan9Shares(obj Value) []Plan9ShareConfiguration {
	const path = "Plan9Shares"
	var out []Plan9ShareConfiguration
	for i, item := range d.array(obj, "", path) {
		p := index(path, i)
		if item.Kind() != KindObject {
			d.repair(p, "dropped %s entry", item.Kind())
			continue
		}
		share := Plan9ShareConfiguration{
			ReadOnly: field(d, item, p, "ReadOnly", false, asBool),
			Port:     field(d, item, p, "Port", 0, asUint[uint32]),
			Path:     field(d, item, p, "Path", "", asString),
			Name:     field(d, item, p, "Name", "", asString),
		}
		if !keepPlan9Share(share) {
			d.repair(p, "dropped share without path or name")
			continue
		}
		out = append(out, share)
	}
	return out
}

func keepPlan9Share(share Plan9ShareConfiguration) bool {
	return share.Path != "" && share.Name != ""
}

func (d *decoder) metadata(obj Value) VirtualMachineMetadata {
	const path = "Metadata"
	def := defaultMetadata()
	return VirtualMachineMetadata{
		Description:          field(d, obj, path, "Description", def.Description, asString),
		Notes:                field(d, obj, path, "Notes", def.Notes, asString),
		AccountId:            field(d, obj, path, "AccountId", def.AccountId, asString),
		ProfileId:            field(d, obj, path, "ProfileId", def.ProfileId, asString),
		CreationTimestamp:    field(d, obj, path, "CreationTimestamp", def.CreationTimestamp, asString),
		LastUpdatedTimestamp: field(d, obj, path, "LastUpdatedTimestamp", def.LastUpdatedTimestamp, asString),
		SchemaVersion:        field(d, obj, path, "SchemaVersion", def.SchemaVersion, asUint[uint32]),
	}
}

func (d *decoder) cpuID(obj Value) CpuIdConfiguration {
	const path = "CpuId"
	cpu := CpuIdConfiguration{
		Enabled:                    field(d, obj, path, "Enabled", false, asBool),
		HideHypervisor:             field(d, obj, path, "HideHypervisor", false, asBool),
		MaskVirtualizationFeatures: field(d, obj, path, "MaskVirtualizationFeatures", false, asBool),
		VendorString:               field(d, obj, path, "VendorString", "", asString),
		BrandString:                field(d, obj, path, "BrandString", "", asString),
	}

	leavesPath := join(path, "Leaves")
	for i, item := range d.array(obj, path, "Leaves") {
		p := index(leavesPath, i)
		if item.Kind() != KindObject {
			d.repair(p, "dropped %s entry", item.Kind())
			continue
		}
		cpu.Leaves = append(cpu.Leaves, CpuIdLeafOverride{
			Leaf:    field(d, item, p, "Leaf", 0, asUint[uint32]),
			SubLeaf: field(d, item, p, "SubLeaf", 0, asUint[uint32]),
			Eax:     field(d, item, p, "Eax", 0, asUint[uint32]),
			Ebx:     field(d, item, p, "Ebx", 0, asUint[uint32]),
			Ecx:     field(d, item, p, "Ecx", 0, asUint[uint32]),
			Edx:     field(d, item, p, "Edx", 0, asUint[uint32]),
		})
	}
	return cpu
}

func (d *decoder) msrIntercept(obj Value) MsrInterceptConfiguration {
	const path = "MsrIntercept"
	msr := MsrInterceptConfiguration{
		Enabled:         field(d, obj, path, "Enabled", false, asBool),
		BlockHyperVMsrs: field(d, obj, path, "BlockHyperVMsrs", false, asBool),
		NormalizeTSC:    field(d, obj, path, "NormalizeTSC", false, asBool),
	}

	rulesPath := join(path, "Rules")
	for i, item := range d.array(obj, path, "Rules") {
		p := index(rulesPath, i)
		if item.Kind() != KindObject {
			d.repair(p, "dropped %s entry", item.Kind())
			continue
		}
		msr.Rules = append(msr.Rules, MsrRule{
			Index:  field(d, item, p, "Index", 0, asUint[uint32]),
			Action: enumField(d, item, p, "Action", MsrPassthrough, ParseMsrAction),
			Value:  field(d, item, p, "Value", 0, asUint[uint64]),
		})
	}
	return msr
}

func (d *decoder) acpiOverride(obj Value) AcpiOverrideConfiguration {
	const path = "AcpiOverride"
	return AcpiOverrideConfiguration{
		Enabled:             field(d, obj, path, "Enabled", false, asBool),
		RemoveHyperVDevices: field(d, obj, path, "RemoveHyperVDevices", false, asBool),
		CustomDSDT:          field(d, obj, path, "CustomDSDT", "", asString),
	}
}

func (d *decoder) timing(obj Value) TimingConfiguration {
	const path = "Timing"
	return TimingConfiguration{
		Strategy:      enumField(d, obj, path, "Strategy", TimingOff, ParseTimingStrategy),
		NormalizeTSC:  field(d, obj, path, "NormalizeTSC", false, asBool),
		NormalizeAPIC: field(d, obj, path, "NormalizeAPIC", false, asBool),
		NormalizeHPET: field(d, obj, path, "NormalizeHPET", false, asBool),
	}
}

func (d *decoder) pci(obj Value) PciConfiguration {
	const path = "Pci"
	pci := PciConfiguration{
		Enabled: field(d, obj, path, "Enabled", false, asBool),
	}

	devicesPath := join(path, "Devices")
	for i, item := range d.array(obj, path, "Devices") {
		p := index(devicesPath, i)
		if item.Kind() != KindObject {
			d.repair(p, "dropped %s entry", item.Kind())
			continue
		}
		pci.Devices = append(pci.Devices, PciDeviceConfiguration{
			DeviceType:        field(d, item, p, "DeviceType", "", asString),
			VendorId:          field(d, item, p, "VendorId", "", asString),
			DeviceId:          field(d, item, p, "DeviceId", "", asString),
			SubsystemVendorId: field(d, item, p, "SubsystemVendorId", "", asString),
			SubsystemId:       field(d, item, p, "SubsystemId", "", asString),
		})
	}
	return pci
}
