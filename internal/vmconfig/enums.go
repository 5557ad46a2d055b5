package vmconfig

import "strings"

type GuestType int32

const (
	GuestTypeUnknown GuestType = iota
	GuestTypeWindows
	GuestTypeLinux
	numGuestTypes
)

type UefiConsoleMode int32

const (
	UefiConsoleDisabled UefiConsoleMode = iota
	UefiConsoleDefault
	UefiConsoleComPort1
	UefiConsoleComPort2
	numUefiConsoleModes
)

type GpuAssignmentMode int32

const (
	GpuAssignmentDisabled GpuAssignmentMode = iota
	GpuAssignmentDefault
	GpuAssignmentList
	GpuAssignmentMirror
	numGpuAssignmentModes
)

// ScsiDeviceType. ScsiDeviceUnknown only exists while parsing; decoded
// configurations never contain it.
type ScsiDeviceType int32

const (
	ScsiDeviceUnknown ScsiDeviceType = iota
	ScsiDeviceVirtualDisk
	ScsiDeviceVirtualImage
	ScsiDevicePhysicalDevice
	numScsiDeviceTypes
)

// AntiDetectionProfile is a preset hint layered over the explicit
// CpuId/MsrIntercept/AcpiOverride/Timing/Pci settings.
type AntiDetectionProfile int32

const (
	ProfileVanilla AntiDetectionProfile = iota
	ProfileBalanced
	ProfileBareMetal
	ProfileDefaultGaming
	ProfileValorant
	ProfileEacGeneric
	ProfileBattlEye
	ProfileFaceit
	ProfileExpertTencent
	ProfileEaJavelin
	numProfiles
)

type TimingStrategy int32

const (
	TimingOff TimingStrategy = iota
	TimingRelaxed
	TimingStrict
	numTimingStrategies
)

type MsrAction int32

const (
	MsrPassthrough MsrAction = iota
	MsrZero
	MsrBlock
	numMsrActions
)

// Wire names, indexed by enum value. Index 0 is also the fallback.
var (
	guestTypeNames = [numGuestTypes]string{
		GuestTypeUnknown: "Unknown",
		GuestTypeWindows: "Windows",
		GuestTypeLinux:   "Linux",
	}
	uefiConsoleNames = [numUefiConsoleModes]string{
		UefiConsoleDisabled: "Disabled",
		UefiConsoleDefault:  "Default",
		UefiConsoleComPort1: "ComPort1",
		UefiConsoleComPort2: "ComPort2",
	}
	gpuAssignmentNames = [numGpuAssignmentModes]string{
		GpuAssignmentDisabled: "Disabled",
		GpuAssignmentDefault:  "Default",
		GpuAssignmentList:     "List",
		GpuAssignmentMirror:   "Mirror",
	}
	scsiDeviceNames = [numScsiDeviceTypes]string{
		ScsiDeviceUnknown:        "",
		ScsiDeviceVirtualDisk:    "VirtualDisk",
		ScsiDeviceVirtualImage:   "VirtualImage",
		ScsiDevicePhysicalDevice: "PhysicalDevice",
	}
	profileNames = [numProfiles]string{
		ProfileVanilla:       "vanilla",
		ProfileBalanced:      "balanced",
		ProfileBareMetal:     "bare-metal",
		ProfileDefaultGaming: "default-gaming",
		ProfileValorant:      "valorant",
		ProfileEacGeneric:    "eac-generic",
		ProfileBattlEye:      "battleye",
		ProfileFaceit:        "faceit",
		ProfileExpertTencent: "expert-tencent",
		ProfileEaJavelin:     "ea-javelin",
	}
	timingStrategyNames = [numTimingStrategies]string{
		TimingOff:     "off",
		TimingRelaxed: "relaxed",
		TimingStrict:  "strict",
	}
	msrActionNames = [numMsrActions]string{
		MsrPassthrough: "passthrough",
		MsrZero:        "zero",
		MsrBlock:       "block",
	}
)

type enum interface {
	~int32
}

// parseEnum matches s exactly against names; no match yields the zero variant.
func parseEnum[E enum](names []string, s string) E {
	for i, name := range names {
		if name != "" && name == s {
			return E(i)
		}
	}
	return 0
}

func formatEnum[E enum](names []string, e E) string {
	if e < 0 || int(e) >= len(names) {
		return names[0]
	}
	return names[e]
}

func ParseGuestType(s string) GuestType { return parseEnum[GuestType](guestTypeNames[:], s) }
func (g GuestType) String() string      { return formatEnum(guestTypeNames[:], g) }

func ParseUefiConsoleMode(s string) UefiConsoleMode {
	return parseEnum[UefiConsoleMode](uefiConsoleNames[:], s)
}
func (m UefiConsoleMode) String() string { return formatEnum(uefiConsoleNames[:], m) }

func ParseGpuAssignmentMode(s string) GpuAssignmentMode {
	return parseEnum[GpuAssignmentMode](gpuAssignmentNames[:], s)
}
func (m GpuAssignmentMode) String() string { return formatEnum(gpuAssignmentNames[:], m) }

func ParseScsiDeviceType(s string) ScsiDeviceType {
	return parseEnum[ScsiDeviceType](scsiDeviceNames[:], s)
}
func (t ScsiDeviceType) String() string { return formatEnum(scsiDeviceNames[:], t) }

func ParseAntiDetectionProfile(s string) AntiDetectionProfile {
	return parseEnum[AntiDetectionProfile](profileNames[:], s)
}
func (p AntiDetectionProfile) String() string { return formatEnum(profileNames[:], p) }

func ParseTimingStrategy(s string) TimingStrategy {
	return parseEnum[TimingStrategy](timingStrategyNames[:], s)
}
func (t TimingStrategy) String() string { return formatEnum(timingStrategyNames[:], t) }

func ParseMsrAction(s string) MsrAction { return parseEnum[MsrAction](msrActionNames[:], s) }
func (a MsrAction) String() string      { return formatEnum(msrActionNames[:], a) }

// LookupProfile resolves a user-supplied profile name, ignoring case.
// Unlike ParseAntiDetectionProfile it reports unknown names.
func LookupProfile(name string) (AntiDetectionProfile, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range profileNames {
		if candidate == name {
			return AntiDetectionProfile(i), true
		}
	}
	return ProfileVanilla, false
}

// Profiles lists every profile in declaration order.
func Profiles() []AntiDetectionProfile {
	out := make([]AntiDetectionProfile, 0, numProfiles)
	for p := ProfileVanilla; p < numProfiles; p++ {
		out = append(out, p)
	}
	return out
}
