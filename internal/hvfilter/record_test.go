package hvfilter

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSizes(t *testing.T) {
	assert.Equal(t, 25, binary.Size(wireCpuIdPolicy{}))
	assert.Equal(t, 8, binary.Size(wireMsrPolicy{}))
	assert.Equal(t, 101, binary.Size(wireSetProfileInput{}))
	assert.Equal(t, 109, binary.Size(wireStatusOutput{}))
	assert.Equal(t, 101, SetProfileInputSize)
	assert.Equal(t, 109, StatusOutputSize)
}

func TestSetProfileInputLayout(t *testing.T) {
	in := SetProfileInput{
		ProfileName: "Valorant",
		Flags:       FlagCpuId | FlagTiming,
		CpuId: CpuIdPolicy{
			Enabled:        true,
			HideHypervisor: true,
			VendorString:   VendorAMD,
		},
		Msr: MsrPolicy{Enabled: true, Mode: MsrModeBlock},
	}

	data, err := in.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, SetProfileInputSize)

	assert.Equal(t, "Valorant", string(data[:8]))
	assert.Equal(t, byte(0), data[8])
	assert.Equal(t, uint32(0x5), binary.LittleEndian.Uint32(data[64:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[68:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[72:]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[76:]))
	assert.Equal(t, VendorAMD, string(data[80:92]))
	assert.Equal(t, byte(0), data[92])
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[93:]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[97:]))

	var back SetProfileInput
	require.NoError(t, back.UnmarshalBinary(data))
	assert.Equal(t, in, back)
}

func TestStatusOutputLayout(t *testing.T) {
	out := StatusOutput{
		ActiveProfileName: "BareMetal",
		ActiveFlags:       FlagPci,
		DriverVersion:     CurrentDriverVersion,
		IsActive:          true,
		Msr:               MsrPolicy{Mode: MsrModeZero},
	}

	data, err := out.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, StatusOutputSize)

	assert.Equal(t, uint32(8), binary.LittleEndian.Uint32(data[64:]))
	assert.Equal(t, uint32(0x00010000), binary.LittleEndian.Uint32(data[68:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[72:]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[105:]))

	var back StatusOutput
	require.NoError(t, back.UnmarshalBinary(data))
	assert.Equal(t, out, back)
}

func TestMarshalTruncatesStrings(t *testing.T) {
	in := SetProfileInput{
		ProfileName: strings.Repeat("x", 100),
		CpuId:       CpuIdPolicy{VendorString: "GenuineIntelExtra"},
	}

	data, err := in.MarshalBinary()
	require.NoError(t, err)

	var back SetProfileInput
	require.NoError(t, back.UnmarshalBinary(data))
	assert.Len(t, back.ProfileName, MaxProfileNameLength-1)
	assert.Equal(t, "GenuineIntel", back.CpuId.VendorString)
}

func TestUnmarshalShortBuffer(t *testing.T) {
	var out StatusOutput
	err := out.UnmarshalBinary(make([]byte, StatusOutputSize-1))
	assert.True(t, errors.Is(err, ErrBufferTooSmall))
}

func TestDriverVersion(t *testing.T) {
	v := DriverVersion(2<<16 | 5<<8 | 7)
	assert.Equal(t, uint32(2), v.Major())
	assert.Equal(t, uint32(5), v.Minor())
	assert.Equal(t, uint32(7), v.Build())
	assert.Equal(t, "2.5.7", v.String())
	assert.Equal(t, "1.0.0", CurrentDriverVersion.String())
}

func TestControlCodes(t *testing.T) {
	assert.Equal(t, uint32(0x00220000|0x8000<<2), IoctlSetProfile)
	assert.Equal(t, IoctlSetProfile+4, IoctlGetStatus)
	assert.Equal(t, IoctlSetProfile+8, IoctlClearProfile)
}
