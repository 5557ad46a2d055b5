package vmconfig

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullConfiguration() VirtualMachineConfiguration {
	cfg := Default()
	cfg.GuestType = GuestTypeLinux
	cfg.Name = "build-box"
	cfg.ProcessorCount = 4
	cfg.MemorySize = 1 << 40
	cfg.ComPorts = ComPortsConfiguration{UefiConsole: UefiConsoleComPort2, ComPort1: `\\.\pipe\com1`}
	cfg.Gpu.EnableHostDriverStore = true
	cfg.Gpu.SelectDevice("gpu-b", 3)
	cfg.Gpu.SelectDevice("gpu-a", WholeDevicePartition)
	cfg.NetworkAdapters = []NetworkAdapterConfiguration{
		{Connected: true, MacAddress: "00-15-5D-12-34-56", EndpointId: "ep"},
		{},
	}
	cfg.ScsiDevices = []ScsiDeviceConfiguration{
		{Type: ScsiDeviceVirtualDisk, Path: "disk.vhdx"},
		{Type: ScsiDeviceVirtualImage},
	}
	cfg.SecureBoot = true
	cfg.GuestStateFile = "guest.vmgs"
	cfg.ExposeVirtualizationExtensions = true
	cfg.Keyboard.FullScreenHotkey = HotkeyDisabled
	cfg.Keyboard.RedirectKeyCombinations = false
	cfg.EnhancedSession.RedirectAudio = false
	cfg.EnhancedSession.RedirectDrives = true
	cfg.EnhancedSession.Drives = []string{"C", "D"}
	cfg.EnhancedSession.Devices = []string{"usb"}
	cfg.ChipsetInformation.SerialNumber = "SN"
	cfg.ChipsetInformation.UUID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	cfg.VideoMonitor.HorizontalResolution = 1920
	cfg.VideoMonitor.VerticalResolution = 1080
	cfg.Policies = []string{"p1"}
	cfg.Plan9Shares = []Plan9ShareConfiguration{{Path: "/srv", Name: "srv"}}
	cfg.Metadata.AccountId = "acct"
	cfg.Metadata.CreationTimestamp = "2024-01-01T00:00:00Z"
	cfg.AntiDetectionProfile = ProfileEaJavelin
	cfg.CpuId = CpuIdConfiguration{
		Enabled:      true,
		VendorString: "AuthenticAMD",
		Leaves:       []CpuIdLeafOverride{{Leaf: 1, Ecx: 0x80000000}},
	}
	cfg.MsrIntercept = MsrInterceptConfiguration{
		Enabled: true,
		Rules:   []MsrRule{{Index: 0x40000000, Action: MsrZero, Value: 1 << 63}},
	}
	cfg.AcpiOverride.RemoveHyperVDevices = true
	cfg.Timing = TimingConfiguration{Strategy: TimingStrict, NormalizeHPET: true}
	cfg.Pci = PciConfiguration{Enabled: true, Devices: []PciDeviceConfiguration{{DeviceType: "NIC", VendorId: "8086"}}}
	return cfg
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cfg  VirtualMachineConfiguration
	}{
		{"default", Default()},
		{"full", fullConfiguration()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(tt.cfg)
			require.NoError(t, err)

			got, err := Unmarshal(data)
			require.NoError(t, err)

			if diff := cmp.Diff(tt.cfg, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeIsStable(t *testing.T) {
	cfg := fullConfiguration()
	first, err := Marshal(cfg)
	require.NoError(t, err)

	decoded, err := Unmarshal(first)
	require.NoError(t, err)
	second, err := Marshal(decoded)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestEncodeDefaultElidesEverything(t *testing.T) {
	data, err := Marshal(Default())
	require.NoError(t, err)

	want := `{
    "Version": 1,
    "GuestType": "Unknown",
    "Name": "",
    "ProcessorCount": 0,
    "MemorySize": 0,
    "ComPorts": {
        "UefiConsole": "Disabled"
    },
    "Gpu": {
        "AssignmentMode": "Disabled"
    }
}
`
	assert.Equal(t, want, string(data))
}

func TestEncodeAlwaysPresentFields(t *testing.T) {
	cfg := Default()
	cfg.NetworkAdapters = []NetworkAdapterConfiguration{{}}
	cfg.Plan9Shares = []Plan9ShareConfiguration{{Path: "/a", Name: "a"}}

	root := Encode(cfg)

	adapters, ok := root.Get("NetworkAdapters")
	require.True(t, ok)
	require.Len(t, adapters.Items(), 1)
	connected, ok := adapters.Items()[0].Get("Connected")
	require.True(t, ok)
	assert.True(t, connected.Equal(Bool(false)))

	shares, ok := root.Get("Plan9Shares")
	require.True(t, ok)
	port, ok := shares.Items()[0].Get("Port")
	require.True(t, ok)
	assert.True(t, port.Equal(Uint(0)))
	_, ok = shares.Items()[0].Get("ReadOnly")
	assert.False(t, ok)
}

func TestEncodeGpuDevices(t *testing.T) {
	cfg := Default()
	cfg.Gpu.SelectDevice("z-gpu", 1)
	cfg.Gpu.SelectDevice("a-gpu", WholeDevicePartition)

	gpu, ok := Encode(cfg).Get("Gpu")
	require.True(t, ok)
	devices, ok := gpu.Get("SelectedDevices")
	require.True(t, ok)

	items := devices.Items()
	require.Len(t, items, 2)
	assert.True(t, items[0].Equal(String("a-gpu")))

	partition := Object()
	partition.Set("DeviceInterface", String("z-gpu"))
	partition.Set("PartitionId", Uint(1))
	assert.True(t, items[1].Equal(partition))
}

func TestEncodeGpuDevicesOnlyForList(t *testing.T) {
	cfg := Default()
	cfg.Gpu.AssignmentMode = GpuAssignmentMirror
	cfg.Gpu.SelectedDevices["gpu0"] = 0

	gpu, _ := Encode(cfg).Get("Gpu")
	_, ok := gpu.Get("SelectedDevices")
	assert.False(t, ok)
}

func TestEncodeSkipsEntriesDecodeWouldDrop(t *testing.T) {
	cfg := Default()
	cfg.ScsiDevices = []ScsiDeviceConfiguration{
		{Type: ScsiDeviceUnknown, Path: "x"},
		{Type: ScsiDeviceVirtualDisk},
	}
	cfg.Plan9Shares = []Plan9ShareConfiguration{{Name: "nopath"}}
	cfg.Policies = []string{""}
	cfg.EnhancedSession.Drives = []string{"9"}

	root := Encode(cfg)
	for _, key := range []string{"ScsiDevices", "Plan9Shares", "Policies", "EnhancedSession"} {
		_, ok := root.Get(key)
		assert.False(t, ok, key)
	}
}

func TestEncodeNormalizesDrives(t *testing.T) {
	cfg := Default()
	cfg.EnhancedSession.Drives = []string{"c:", "D"}

	data, err := Marshal(cfg)
	require.NoError(t, err)
	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "D"}, got.EnhancedSession.Drives)
}

func TestEncodeEnumNames(t *testing.T) {
	cfg := Default()
	cfg.AntiDetectionProfile = ProfileExpertTencent
	cfg.Timing.Strategy = TimingRelaxed

	root := Encode(cfg)
	profile, _ := root.Get("AntiDetectionProfile")
	assert.True(t, profile.Equal(String("expert-tencent")))

	timing, _ := root.Get("Timing")
	strategy, _ := timing.Get("Strategy")
	assert.True(t, strategy.Equal(String("relaxed")))
}

func TestEncodeScenarioReproducesInputKeys(t *testing.T) {
	input := `{"Version":1,"GuestType":"Windows","Name":"Test","ProcessorCount":2,"MemorySize":2048}`

	doc, err := Parse([]byte(input))
	require.NoError(t, err)
	cfg := Decode(doc)

	want := Default()
	want.GuestType = GuestTypeWindows
	want.Name = "Test"
	want.ProcessorCount = 2
	want.MemorySize = 2048
	if diff := cmp.Diff(want, cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("decoded configuration mismatch (-want +got):\n%s", diff)
	}

	out := Encode(cfg)
	assert.ElementsMatch(t, []string{
		"Version", "GuestType", "Name", "ProcessorCount", "MemorySize", "ComPorts", "Gpu",
	}, out.Keys())

	for _, key := range doc.Keys() {
		in, _ := doc.Get(key)
		got, ok := out.Get(key)
		require.True(t, ok, key)
		assert.True(t, in.Equal(got), "%s changed", key)
	}
}

func TestEncodeGpuPartitionZeroRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Gpu.SelectDevice("gpu0", 0)

	data, err := Marshal(cfg)
	require.NoError(t, err)
	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint16{"gpu0": 0}, back.Gpu.SelectedDevices)
}
