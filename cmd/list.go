package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nikiskaarup/nanabox/internal/hvfilter"
	"github.com/nikiskaarup/nanabox/internal/vmconfig"
)

var listCmd = &cobra.Command{
	Use:   "list-profiles",
	Short: "List all anti-detection profiles",
	Long: `Display every anti-detection profile with the name the filter driver
reports for it. The profile of the default configuration is marked with *.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listProfiles(cmd.OutOrStdout())
	},
}

func listProfiles(w io.Writer) error {
	current := ""
	if settings != nil && settings.DefaultConfig != "" {
		if cfg, err := vmconfig.Load(settings.DefaultConfig); err == nil {
			current = cfg.AntiDetectionProfile.String()
			fmt.Fprintf(w, "Default configuration: %s\n\n", settings.DefaultConfig)
		} else {
			logrus.Debugf("Could not read default configuration: %v", err)
		}
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Profile\tDriver Name\n")
	fmt.Fprintf(tw, "-------\t-----------\n")

	for _, p := range vmconfig.Profiles() {
		marker := ""
		if p.String() == current {
			marker = " *"
		}
		fmt.Fprintf(tw, "%s%s\t%s\n", p, marker, hvfilter.ProfileName(p))
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	logrus.Debug("Profile list displayed successfully")
	return nil
}
