package hvfilter

import (
	"github.com/nikiskaarup/nanabox/internal/vmconfig"
)

// Driver-side profile names, indexed by vmconfig.AntiDetectionProfile.
var profileNames = [...]string{
	vmconfig.ProfileVanilla:       "Vanilla",
	vmconfig.ProfileBalanced:      "Balanced",
	vmconfig.ProfileBareMetal:     "BareMetal",
	vmconfig.ProfileDefaultGaming: "DefaultGaming",
	vmconfig.ProfileValorant:      "Valorant",
	vmconfig.ProfileEacGeneric:    "EacGeneric",
	vmconfig.ProfileBattlEye:      "BattlEye",
	vmconfig.ProfileFaceit:        "Faceit",
	vmconfig.ProfileExpertTencent: "ExpertTencent",
	vmconfig.ProfileEaJavelin:     "EaJavelin",
}

// ProfileName returns the name the driver reports for p, or "Unknown".
func ProfileName(p vmconfig.AntiDetectionProfile) string {
	if p < 0 || int(p) >= len(profileNames) {
		return "Unknown"
	}
	return profileNames[p]
}

// BuildFlags derives the profile flags from the feature toggles of cfg.
func BuildFlags(cfg vmconfig.VirtualMachineConfiguration) ProfileFlags {
	var flags ProfileFlags
	if cfg.CpuId.Enabled {
		flags |= FlagCpuId
	}
	if cfg.MsrIntercept.Enabled {
		flags |= FlagMsrIntercept
	}
	if cfg.Timing.Strategy != vmconfig.TimingOff {
		flags |= FlagTiming
	}
	if cfg.Pci.Enabled {
		flags |= FlagPci
	}
	return flags
}

// Project builds the set-profile request for cfg.
func Project(cfg vmconfig.VirtualMachineConfiguration) SetProfileInput {
	mode := MsrModePassthrough
	if cfg.MsrIntercept.BlockHyperVMsrs {
		mode = MsrModeBlock
	}

	return SetProfileInput{
		ProfileName: truncate(ProfileName(cfg.AntiDetectionProfile), MaxProfileNameLength-1),
		Flags:       BuildFlags(cfg),
		CpuId: CpuIdPolicy{
			Enabled:                    cfg.CpuId.Enabled,
			HideHypervisor:             cfg.CpuId.HideHypervisor,
			MaskVirtualizationFeatures: cfg.CpuId.MaskVirtualizationFeatures,
			VendorString:               truncate(cfg.CpuId.VendorString, CPUVendorStringLength),
		},
		Msr: MsrPolicy{
			Enabled: cfg.MsrIntercept.Enabled,
			Mode:    mode,
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
