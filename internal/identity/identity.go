// Package identity regenerates the hardware identifiers a guest can see, so
// that clones of one VM do not share serial numbers, UUIDs or MACs.
package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/hkdf"

	"github.com/nikiskaarup/nanabox/internal/vmconfig"
)

const (
	serialLength = 10
	hkdfInfo     = "nanabox identity"
)

// serialAlphabet leaves out characters that are easily confused (0/O, 1/I).
const serialAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// hyperVOUI is the organizationally unique identifier of Hyper-V adapters.
var hyperVOUI = [3]byte{0x00, 0x15, 0x5D}

// NewSource returns a deterministic byte stream for seed. The account id
// is mixed in as salt so the same seed yields different identities per
// account.
func NewSource(seed, accountID string) io.Reader {
	return hkdf.New(sha256.New, []byte(seed), []byte(accountID), []byte(hkdfInfo))
}

// RandomSource returns the system CSPRNG.
func RandomSource() io.Reader {
	return rand.Reader
}

// Regenerate replaces the SMBIOS serial numbers, the system UUID and the
// MAC address of every adapter that has one. Manufacturer, product and
// the other descriptive strings are left alone.
func Regenerate(cfg *vmconfig.VirtualMachineConfiguration, src io.Reader) error {
	chipset := &cfg.ChipsetInformation

	var err error
	if chipset.BaseBoardSerialNumber, err = serial(src); err != nil {
		return err
	}
	if chipset.ChassisSerialNumber, err = serial(src); err != nil {
		return err
	}
	if chipset.SerialNumber, err = serial(src); err != nil {
		return err
	}

	id, err := uuid.NewRandomFromReader(src)
	if err != nil {
		return fmt.Errorf("failed to generate UUID: %w", err)
	}
	chipset.UUID = strings.ToUpper(id.String())

	for i := range cfg.NetworkAdapters {
		adapter := &cfg.NetworkAdapters[i]
		if adapter.MacAddress == "" {
			continue
		}
		if adapter.MacAddress, err = macAddress(src); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"name":     cfg.Name,
		"uuid":     chipset.UUID,
		"adapters": len(cfg.NetworkAdapters),
	}).Debug("Regenerated identifiers")
	return nil
}

func serial(src io.Reader) (string, error) {
	buf := make([]byte, serialLength)
	if _, err := io.ReadFull(src, buf); err != nil {
		return "", fmt.Errorf("failed to generate serial number: %w", err)
	}
	for i, b := range buf {
		buf[i] = serialAlphabet[int(b)%len(serialAlphabet)]
	}
	return string(buf), nil
}

// macAddress returns a Hyper-V style address, e.g. 00-15-5D-1A-2B-3C.
func macAddress(src io.Reader) (string, error) {
	var suffix [3]byte
	if _, err := io.ReadFull(src, suffix[:]); err != nil {
		return "", fmt.Errorf("failed to generate MAC address: %w", err)
	}
	return fmt.Sprintf("%02X-%02X-%02X-%02X-%02X-%02X",
		hyperVOUI[0], hyperVOUI[1], hyperVOUI[2],
		suffix[0], suffix[1], suffix[2]), nil
}
