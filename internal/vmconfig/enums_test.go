package vmconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnumNamesRoundTrip(t *testing.T) {
	for _, p := range Profiles() {
		assert.Equal(t, p, ParseAntiDetectionProfile(p.String()))
	}
	for g := GuestTypeUnknown; g < numGuestTypes; g++ {
		assert.Equal(t, g, ParseGuestType(g.String()))
	}
	for m := GpuAssignmentDisabled; m < numGpuAssignmentModes; m++ {
		assert.Equal(t, m, ParseGpuAssignmentMode(m.String()))
	}
	for a := MsrPassthrough; a < numMsrActions; a++ {
		assert.Equal(t, a, ParseMsrAction(a.String()))
	}
}

func TestEnumOutOfRangeFormatsAsZero(t *testing.T) {
	assert.Equal(t, "vanilla", AntiDetectionProfile(99).String())
	assert.Equal(t, "Unknown", GuestType(-1).String())
}

func TestLookupProfile(t *testing.T) {
	tests := []struct {
		name string
		want AntiDetectionProfile
		ok   bool
	}{
		{"vanilla", ProfileVanilla, true},
		{"Bare-Metal", ProfileBareMetal, true},
		{" BATTLEYE ", ProfileBattlEye, true},
		{"ea-javelin", ProfileEaJavelin, true},
		{"bare_metal", ProfileVanilla, false},
		{"", ProfileVanilla, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LookupProfile(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScsiUnknownHasNoName(t *testing.T) {
	assert.Equal(t, ScsiDeviceUnknown, ParseScsiDeviceType(""))
	assert.Equal(t, ScsiDeviceUnknown, ParseScsiDeviceType("Unknown"))
}
