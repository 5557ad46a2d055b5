package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nikiskaarup/nanabox/internal/vmconfig"
)

// ErrInvalidProfile is returned for a profile name that is not in the table.
var ErrInvalidProfile = errors.New("invalid profile")

var setProfileCmd = &cobra.Command{
	Use:   "set-profile [config-file] [profile]",
	Short: "Set the anti-detection profile of a configuration",
	Long: `Change the anti-detection profile stored in a configuration file.
Profile names are matched without regard to case.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setProfile(cmd.OutOrStdout(), args[0], args[1])
	},
}

func setProfile(w io.Writer, path, name string) error {
	profile, ok := vmconfig.LookupProfile(name)
	if !ok {
		return fmt.Errorf("%w: %s\n\nValid profiles:\n%s", ErrInvalidProfile, name, profileList())
	}

	cfg, err := vmconfig.Load(path)
	if err != nil {
		return fmt.Errorf("failed to set profile: %w", err)
	}

	logrus.Debugf("Changing profile of %s from %s to %s", path, cfg.AntiDetectionProfile, profile)
	cfg.AntiDetectionProfile = profile

	if err := vmconfig.Save(path, cfg); err != nil {
		return fmt.Errorf("failed to set profile: %w", err)
	}

	fmt.Fprintf(w, "Profile set to: %s\n\n", profile)
	fmt.Fprintln(w, "Please restart the VM for changes to take effect.")
	return nil
}

func profileList() string {
	var b strings.Builder
	for i, p := range vmconfig.Profiles() {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  - %s", p)
	}
	return b.String()
}
