package hvfilter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikiskaarup/nanabox/internal/vmconfig"
)

func newTestClient(t *testing.T) (*Client, *Emulator) {
	t.Helper()
	emu := NewEmulator()
	client, err := NewClient(emu)
	require.NoError(t, err)
	return client, emu
}

func TestNewClientRequiresDevice(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)
}

func TestEmulatorInitialStatus(t *testing.T) {
	client, emu := newTestClient(t)

	status, err := client.Status()
	require.NoError(t, err)
	assert.Equal(t, StatusOutput{
		ActiveProfileName: "None",
		DriverVersion:     CurrentDriverVersion,
	}, status)
	assert.Equal(t, StateUninitialized, emu.State())
}

func TestEmulatorLifecycle(t *testing.T) {
	client, emu := newTestClient(t)

	cfg := vmconfig.Default()
	cfg.AntiDetectionProfile = vmconfig.ProfileValorant
	cfg.CpuId = vmconfig.CpuIdConfiguration{Enabled: true, HideHypervisor: true, VendorString: VendorIntel}
	cfg.MsrIntercept = vmconfig.MsrInterceptConfiguration{Enabled: true, BlockHyperVMsrs: true}
	cfg.Timing.Strategy = vmconfig.TimingStrict

	require.NoError(t, client.Apply(cfg))
	assert.Equal(t, StateProfileActive, emu.State())

	status, err := client.Status()
	require.NoError(t, err)
	assert.Equal(t, "Valorant", status.ActiveProfileName)
	assert.Equal(t, FlagCpuId|FlagMsrIntercept|FlagTiming, status.ActiveFlags)
	assert.True(t, status.IsActive)
	assert.Equal(t, VendorIntel, status.CpuId.VendorString)
	assert.Equal(t, MsrModeBlock, status.Msr.Mode)

	cpuID, msr := emu.Interception()
	assert.True(t, cpuID)
	assert.True(t, msr)

	require.NoError(t, client.ClearProfile())
	assert.Equal(t, StateUninitialized, emu.State())

	status, err = client.Status()
	require.NoError(t, err)
	assert.Equal(t, "None", status.ActiveProfileName)
	assert.Zero(t, status.ActiveFlags)
	assert.False(t, status.IsActive)
	assert.Equal(t, CpuIdPolicy{}, status.CpuId)

	cpuID, msr = emu.Interception()
	assert.False(t, cpuID)
	assert.False(t, msr)
}

func TestEmulatorRejectsShortInput(t *testing.T) {
	emu := NewEmulator()

	_, err := emu.IoControl(IoctlSetProfile, make([]byte, SetProfileInputSize-1), 0)
	assert.True(t, errors.Is(err, ErrBufferTooSmall))

	_, err = emu.IoControl(IoctlSetProfile, nil, 0)
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	_, err = emu.IoControl(IoctlGetStatus, nil, StatusOutputSize-1)
	assert.True(t, errors.Is(err, ErrBufferTooSmall))

	assert.Equal(t, StateUninitialized, emu.State())
}

func TestEmulatorUnknownCode(t *testing.T) {
	_, err := NewEmulator().IoControl(0xDEADBEEF, nil, 0)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestEmulatorForcesTermination(t *testing.T) {
	emu := NewEmulator()

	input := make([]byte, SetProfileInputSize)
	for i := 0; i < MaxProfileNameLength; i++ {
		input[i] = 'A'
	}
	_, err := emu.IoControl(IoctlSetProfile, input, 0)
	require.NoError(t, err)

	data, err := emu.IoControl(IoctlGetStatus, nil, StatusOutputSize)
	require.NoError(t, err)

	var status StatusOutput
	require.NoError(t, status.UnmarshalBinary(data))
	assert.Len(t, status.ActiveProfileName, MaxProfileNameLength-1)
}

func TestEmulatorInvalidPolicies(t *testing.T) {
	tests := []struct {
		name      string
		in        SetProfileInput
		cpuActive bool
		msrActive bool
	}{
		{
			name: "short vendor string",
			in:   SetProfileInput{ProfileName: "x", CpuId: CpuIdPolicy{Enabled: true, VendorString: "Intel"}},
		},
		{
			name:      "unknown vendor of right length is allowed",
			in:        SetProfileInput{ProfileName: "x", CpuId: CpuIdPolicy{Enabled: true, VendorString: "HygonGenuine"}},
			cpuActive: true,
		},
		{
			name:      "empty vendor string",
			in:        SetProfileInput{ProfileName: "x", CpuId: CpuIdPolicy{Enabled: true}},
			cpuActive: true,
		},
		{
			name: "msr mode out of range",
			in:   SetProfileInput{ProfileName: "x", Msr: MsrPolicy{Enabled: true, Mode: 3}},
		},
		{
			name:      "msr zero mode",
			in:        SetProfileInput{ProfileName: "x", Msr: MsrPolicy{Enabled: true, Mode: MsrModeZero}},
			msrActive: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, emu := newTestClient(t)
			require.NoError(t, client.SetProfile(tt.in))

			// The profile is stored even when interception stays off.
			assert.Equal(t, StateProfileActive, emu.State())
			status, err := client.Status()
			require.NoError(t, err)
			assert.Equal(t, tt.in.CpuId, status.CpuId)
			assert.Equal(t, tt.in.Msr, status.Msr)

			cpuID, msr := emu.Interception()
			assert.Equal(t, tt.cpuActive, cpuID)
			assert.Equal(t, tt.msrActive, msr)
		})
	}
}

func TestSetProfileReplacesPrevious(t *testing.T) {
	client, emu := newTestClient(t)

	require.NoError(t, client.SetProfile(SetProfileInput{ProfileName: "First", Msr: MsrPolicy{Enabled: true}}))
	require.NoError(t, client.SetProfile(SetProfileInput{ProfileName: "Second"}))

	status, err := client.Status()
	require.NoError(t, err)
	assert.Equal(t, "Second", status.ActiveProfileName)

	_, msr := emu.Interception()
	assert.False(t, msr)
}
