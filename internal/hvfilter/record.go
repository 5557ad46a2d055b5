// Package hvfilter holds the user-mode side of the hypervisor filter
// driver contract: the packed request/status records, the IOCTL codes,
// and a client that talks to anything implementing Device.
package hvfilter

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	MaxProfileNameLength  = 64
	MaxVendorStringLength = 13
	CPUVendorStringLength = 12

	VendorIntel = "GenuineIntel"
	VendorAMD   = "AuthenticAMD"
)

// Record sizes on the wire. All records are packed little-endian.
const (
	CpuIdPolicySize     = 25
	MsrPolicySize       = 8
	SetProfileInputSize = MaxProfileNameLength + 4 + CpuIdPolicySize + MsrPolicySize
	StatusOutputSize    = MaxProfileNameLength + 4 + 4 + 4 + CpuIdPolicySize + MsrPolicySize
)

// ProfileFlags selects which interception features a profile enables.
type ProfileFlags uint32

const (
	FlagCpuId        ProfileFlags = 1 << 0
	FlagMsrIntercept ProfileFlags = 1 << 1
	FlagTiming       ProfileFlags = 1 << 2
	FlagPci          ProfileFlags = 1 << 3
)

func (f ProfileFlags) Has(flag ProfileFlags) bool {
	return f&flag != 0
}

// MsrMode is how intercepted MSR accesses are answered.
type MsrMode uint32

const (
	MsrModePassthrough MsrMode = 0
	MsrModeZero        MsrMode = 1
	MsrModeBlock       MsrMode = 2
)

func (m MsrMode) String() string {
	switch m {
	case MsrModePassthrough:
		return "passthrough"
	case MsrModeZero:
		return "zero"
	case MsrModeBlock:
		return "block"
	default:
		return fmt.Sprintf("MsrMode(%d)", uint32(m))
	}
}

// DriverVersion packs major.minor.build as major<<16 | minor<<8 | build.
type DriverVersion uint32

// CurrentDriverVersion is 1.0.0.
const CurrentDriverVersion = DriverVersion(1<<16 | 0<<8 | 0)

func (v DriverVersion) Major() uint32 { return uint32(v) >> 16 }
func (v DriverVersion) Minor() uint32 { return (uint32(v) >> 8) & 0xFF }
func (v DriverVersion) Build() uint32 { return uint32(v) & 0xFF }

func (v DriverVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Build())
}

// CpuIdPolicy configures CPUID interception.
type CpuIdPolicy struct {
	Enabled                    bool
	HideHypervisor             bool
	MaskVirtualizationFeatures bool
	VendorString               string
}

// MsrPolicy configures MSR interception.
type MsrPolicy struct {
	Enabled bool
	Mode    MsrMode
}

// SetProfileInput is the request record for the set-profile IOCTL.
type SetProfileInput struct {
	ProfileName string
	Flags       ProfileFlags
	CpuId       CpuIdPolicy
	Msr         MsrPolicy
}

// StatusOutput is the response record of the status IOCTL.
type StatusOutput struct {
	ActiveProfileName string
	ActiveFlags       ProfileFlags
	DriverVersion     DriverVersion
	IsActive          bool
	CpuId             CpuIdPolicy
	Msr               MsrPolicy
}

type wireCpuIdPolicy struct {
	Enabled                    uint32
	HideHypervisor             uint32
	MaskVirtualizationFeatures uint32
	VendorString               [MaxVendorStringLength]byte
}

type wireMsrPolicy struct {
	Enabled uint32
	Mode    uint32
}

type wireSetProfileInput struct {
	ProfileName [MaxProfileNameLength]byte
	Flags       uint32
	CpuId       wireCpuIdPolicy
	Msr         wireMsrPolicy
}

type wireStatusOutput struct {
	ActiveProfileName [MaxProfileNameLength]byte
	ActiveFlags       uint32
	DriverVersion     uint32
	IsActive          uint32
	CpuId             wireCpuIdPolicy
	Msr               wireMsrPolicy
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// putCString copies s into dst, truncating so the last byte is always NUL.
func putCString(dst []byte, s string) {
	n := copy(dst[:len(dst)-1], s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// cString reads up to the first NUL, or the whole buffer without one.
func cString(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		return string(src[:i])
	}
	return string(src)
}

func (p CpuIdPolicy) wire() wireCpuIdPolicy {
	w := wireCpuIdPolicy{
		Enabled:                    boolToUint32(p.Enabled),
		HideHypervisor:             boolToUint32(p.HideHypervisor),
		MaskVirtualizationFeatures: boolToUint32(p.MaskVirtualizationFeatures),
	}
	putCString(w.VendorString[:], p.VendorString)
	return w
}

func (w wireCpuIdPolicy) policy() CpuIdPolicy {
	return CpuIdPolicy{
		Enabled:                    w.Enabled != 0,
		HideHypervisor:             w.HideHypervisor != 0,
		MaskVirtualizationFeatures: w.MaskVirtualizationFeatures != 0,
		VendorString:               cString(w.VendorString[:]),
	}
}

func (p MsrPolicy) wire() wireMsrPolicy {
	return wireMsrPolicy{Enabled: boolToUint32(p.Enabled), Mode: uint32(p.Mode)}
}

func (w wireMsrPolicy) policy() MsrPolicy {
	return MsrPolicy{Enabled: w.Enabled != 0, Mode: MsrMode(w.Mode)}
}

func encodeRecord(v interface{}, size int) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, size))
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeRecord(data []byte, size int, v interface{}) error {
	if len(data) < size {
		return fmt.Errorf("%w: record needs %d bytes, got %d", ErrBufferTooSmall, size, len(data))
	}
	if err := binary.Read(bytes.NewReader(data[:size]), binary.LittleEndian, v); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

// MarshalBinary packs the request. Names longer than the field are truncated.
func (in SetProfileInput) MarshalBinary() ([]byte, error) {
	w := wireSetProfileInput{
		Flags: uint32(in.Flags),
		CpuId: in.CpuId.wire(),
		Msr:   in.Msr.wire(),
	}
	putCString(w.ProfileName[:], in.ProfileName)
	return encodeRecord(&w, SetProfileInputSize)
}

func (in *SetProfileInput) UnmarshalBinary(data []byte) error {
	var w wireSetProfileInput
	if err := decodeRecord(data, SetProfileInputSize, &w); err != nil {
		return err
	}
	*in = SetProfileInput{
		ProfileName: cString(w.ProfileName[:]),
		Flags:       ProfileFlags(w.Flags),
		CpuId:       w.CpuId.policy(),
		Msr:         w.Msr.policy(),
	}
	return nil
}

func (out StatusOutput) MarshalBinary() ([]byte, error) {
	w := wireStatusOutput{
		ActiveFlags:   uint32(out.ActiveFlags),
		DriverVersion: uint32(out.DriverVersion),
		IsActive:      boolToUint32(out.IsActive),
		CpuId:         out.CpuId.wire(),
		Msr:           out.Msr.wire(),
	}
	putCString(w.ActiveProfileName[:], out.ActiveProfileName)
	return encodeRecord(&w, StatusOutputSize)
}

func (out *StatusOutput) UnmarshalBinary(data []byte) error {
	var w wireStatusOutput
	if err := decodeRecord(data, StatusOutputSize, &w); err != nil {
		return err
	}
	*out = StatusOutput{
		ActiveProfileName: cString(w.ActiveProfileName[:]),
		ActiveFlags:       ProfileFlags(w.ActiveFlags),
		DriverVersion:     DriverVersion(w.DriverVersion),
		IsActive:          w.IsActive != 0,
		CpuId:             w.CpuId.policy(),
		Msr:               w.Msr.policy(),
	}
	return nil
}
