package hvfilter

import "errors"

const (
	fileDeviceUnknown = 0x00000022
	methodBuffered    = 0
	fileAnyAccess     = 0
	functionBase      = 0x8000
)

// ctlCode mirrors the Windows CTL_CODE macro.
func ctlCode(deviceType, function, method, access uint32) uint32 {
	return deviceType<<16 | access<<14 | function<<2 | method
}

// Control codes understood by the filter driver.
var (
	IoctlSetProfile   = ctlCode(fileDeviceUnknown, functionBase+0, methodBuffered, fileAnyAccess)
	IoctlGetStatus    = ctlCode(fileDeviceUnknown, functionBase+1, methodBuffered, fileAnyAccess)
	IoctlClearProfile = ctlCode(fileDeviceUnknown, functionBase+2, methodBuffered, fileAnyAccess)
)

var (
	ErrBufferTooSmall   = errors.New("buffer too small")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidRequest   = errors.New("invalid device request")
)

// Device is a handle that accepts buffered control requests, such as the
// filter driver's device object or an Emulator.
type Device interface {
	IoControl(code uint32, input []byte, outputLength int) ([]byte, error)
}
