package vmconfig

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Load reads and decodes the configuration file at path.
func Load(path string) (VirtualMachineConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return VirtualMachineConfiguration{}, fmt.Errorf("failed to read configuration: %w", err)
	}

	cfg, err := Unmarshal(data)
	if err != nil {
		return VirtualMachineConfiguration{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path. The document is written to a temporary file in
// the same directory and renamed over path, so readers never observe a
// partial file. Concurrent writers are not coordinated; the last rename wins.
func Save(path string, cfg VirtualMachineConfiguration) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close configuration: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace configuration: %w", err)
	}

	log.Debugf("Saved configuration %s (%d bytes)", path, len(data))
	return nil
}
