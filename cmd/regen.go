package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nikiskaarup/nanabox/internal/identity"
	"github.com/nikiskaarup/nanabox/internal/vmconfig"
)

var regenSeed string

var now = time.Now

var regenCmd = &cobra.Command{
	Use:   "regen-ids [config-file]",
	Short: "Regenerate hardware identifiers",
	Long: `Give a configuration fresh SMBIOS serial numbers, a new system UUID and
new MAC addresses for adapters with a static address.

With --seed the identifiers are derived from the seed and the configuration's
account id, so the same inputs always produce the same identity.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvePath(args)
		if err != nil {
			return err
		}
		return regenerateIDs(cmd.OutOrStdout(), path, regenSeed)
	},
}

func init() {
	regenCmd.Flags().StringVar(&regenSeed, "seed", "", "derive identifiers deterministically from this seed")
}

func regenerateIDs(w io.Writer, path, seed string) error {
	cfg, err := vmconfig.Load(path)
	if err != nil {
		return fmt.Errorf("failed to regenerate identifiers: %w", err)
	}

	src := identity.RandomSource()
	if seed != "" {
		logrus.Debugf("Deriving identifiers for account '%s'", cfg.Metadata.AccountId)
		src = identity.NewSource(seed, cfg.Metadata.AccountId)
	}

	if err := identity.Regenerate(&cfg, src); err != nil {
		return fmt.Errorf("failed to regenerate identifiers: %w", err)
	}
	cfg.Metadata.LastUpdatedTimestamp = now().UTC().Format(time.RFC3339)

	if err := vmconfig.Save(path, cfg); err != nil {
		return fmt.Errorf("failed to regenerate identifiers: %w", err)
	}

	chipset := cfg.ChipsetInformation
	fmt.Fprintf(w, "UUID: %s\n", chipset.UUID)
	fmt.Fprintf(w, "Serial Number: %s\n", chipset.SerialNumber)
	fmt.Fprintf(w, "Baseboard Serial: %s\n", chipset.BaseBoardSerialNumber)
	fmt.Fprintf(w, "Chassis Serial: %s\n", chipset.ChassisSerialNumber)
	for i, adapter := range cfg.NetworkAdapters {
		if adapter.MacAddress != "" {
			fmt.Fprintf(w, "Adapter %d MAC: %s\n", i, adapter.MacAddress)
		}
	}
	return nil
}
