package hvfilter

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nikiskaarup/nanabox/internal/vmconfig"
)

// DeviceName is the user-mode path of the filter driver's device object.
const DeviceName = `\\.\NanaBoxHvFilter`

// Client represents a connection to the filter driver
type Client struct {
	device Device
}

// NewClient creates a new filter driver client
func NewClient(device Device) (*Client, error) {
	if device == nil {
		return nil, fmt.Errorf("filter driver device not available: %s", DeviceName)
	}

	return &Client{device: device}, nil
}

// request sends one control request to the driver
func (c *Client) request(code uint32, input []byte, outputLength int) ([]byte, error) {
	out, err := c.device.IoControl(code, input, outputLength)
	if err != nil {
		return nil, fmt.Errorf("control request 0x%08X failed: %w", code, err)
	}
	return out, nil
}

// SetProfile loads a profile into the driver
func (c *Client) SetProfile(in SetProfileInput) error {
	logrus.Infof("Setting driver profile: %s (flags 0x%08X)", in.ProfileName, uint32(in.Flags))

	data, err := in.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	_, err = c.request(IoctlSetProfile, data, 0)
	return err
}

// Apply projects cfg and loads the result into the driver
func (c *Client) Apply(cfg vmconfig.VirtualMachineConfiguration) error {
	return c.SetProfile(Project(cfg))
}

// Status returns the driver's active profile
func (c *Client) Status() (StatusOutput, error) {
	data, err := c.request(IoctlGetStatus, nil, StatusOutputSize)
	if err != nil {
		return StatusOutput{}, err
	}

	var out StatusOutput
	if err := out.UnmarshalBinary(data); err != nil {
		return StatusOutput{}, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	return out, nil
}

// ClearProfile unloads the active profile
func (c *Client) ClearProfile() error {
	logrus.Info("Clearing driver profile")

	_, err := c.request(IoctlClearProfile, nil, 0)
	return err
}
