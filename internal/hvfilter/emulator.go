package hvfilter

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EmulatorState is the profile state of the driver.
type EmulatorState int

const (
	StateUninitialized EmulatorState = iota
	StateProfileActive
)

func (s EmulatorState) String() string {
	if s == StateProfileActive {
		return "ProfileActive"
	}
	return "Uninitialized"
}

const noProfileName = "None"

// Offset of CpuIdPolicy.VendorString inside a SetProfileInput record.
const vendorStringOffset = MaxProfileNameLength + 4 + 12

// Emulator is an in-memory Device with the same request handling as the
// filter driver. It lets the client and CLI run without the driver
// installed.
type Emulator struct {
	mu sync.Mutex

	state       EmulatorState
	profileName string
	flags       ProfileFlags
	cpuID       CpuIdPolicy
	msr         MsrPolicy
	cpuIDActive bool
	msrActive   bool
}

// NewEmulator creates an emulator with no profile loaded.
func NewEmulator() *Emulator {
	e := &Emulator{}
	e.reset()
	return e
}

func (e *Emulator) reset() {
	e.state = StateUninitialized
	e.profileName = noProfileName
	e.flags = 0
	e.cpuID = CpuIdPolicy{}
	e.msr = MsrPolicy{}
	e.cpuIDActive = false
	e.msrActive = false
}

// IoControl dispatches one control request.
func (e *Emulator) IoControl(code uint32, input []byte, outputLength int) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch code {
	case IoctlSetProfile:
		return nil, e.setProfile(input)
	case IoctlGetStatus:
		return e.status(outputLength)
	case IoctlClearProfile:
		e.clear()
		return nil, nil
	default:
		log.Warnf("Unknown control code 0x%08X", code)
		return nil, fmt.Errorf("%w: 0x%08X", ErrInvalidRequest, code)
	}
}

func (e *Emulator) setProfile(input []byte) error {
	if input == nil {
		return ErrInvalidParameter
	}
	if len(input) < SetProfileInputSize {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrBufferTooSmall, SetProfileInputSize, len(input))
	}

	// Force NUL termination of both strings, as the caller may fill them.
	buf := make([]byte, SetProfileInputSize)
	copy(buf, input)
	buf[MaxProfileNameLength-1] = 0
	buf[vendorStringOffset+MaxVendorStringLength-1] = 0

	var req SetProfileInput
	if err := req.UnmarshalBinary(buf); err != nil {
		return err
	}

	e.cpuIDActive = false
	e.msrActive = false

	e.state = StateProfileActive
	e.profileName = req.ProfileName
	e.flags = req.Flags
	e.cpuID = req.CpuId
	e.msr = req.Msr

	logger := log.WithFields(log.Fields{
		"profile": req.ProfileName,
		"flags":   fmt.Sprintf("0x%08X", uint32(req.Flags)),
	})
	logger.Info("Profile loaded")

	if req.CpuId.Enabled {
		if err := validateCpuIdPolicy(req.CpuId); err != nil {
			logger.Warnf("CPUID interception not activated: %v", err)
		} else {
			e.cpuIDActive = true
		}
	}
	if req.Msr.Enabled {
		if err := validateMsrPolicy(req.Msr); err != nil {
			logger.Warnf("MSR interception not activated: %v", err)
		} else {
			e.msrActive = true
		}
	}
	return nil
}

func validateCpuIdPolicy(p CpuIdPolicy) error {
	if p.VendorString == "" {
		return nil
	}
	if len(p.VendorString) != CPUVendorStringLength {
		return fmt.Errorf("vendor string %q must be %d characters", p.VendorString, CPUVendorStringLength)
	}
	if p.VendorString != VendorIntel && p.VendorString != VendorAMD {
		log.Warnf("Unknown vendor string %q", p.VendorString)
	}
	return nil
}

func validateMsrPolicy(p MsrPolicy) error {
	if p.Mode > MsrModeBlock {
		return fmt.Errorf("invalid MSR mode %d", uint32(p.Mode))
	}
	return nil
}

func (e *Emulator) status(outputLength int) ([]byte, error) {
	if outputLength < StatusOutputSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrBufferTooSmall, StatusOutputSize, outputLength)
	}

	out := StatusOutput{
		ActiveProfileName: e.profileName,
		ActiveFlags:       e.flags,
		DriverVersion:     CurrentDriverVersion,
		IsActive:          e.state == StateProfileActive,
		CpuId:             e.cpuID,
		Msr:               e.msr,
	}
	return out.MarshalBinary()
}

func (e *Emulator) clear() {
	log.Info("Clearing active profile")
	e.reset()
}

// State returns the current profile state.
func (e *Emulator) State() EmulatorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Interception reports whether CPUID and MSR interception are running.
func (e *Emulator) Interception() (cpuID, msr bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cpuIDActive, e.msrActive
}
