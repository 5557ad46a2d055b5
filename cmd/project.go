package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nikiskaarup/nanabox/internal/hvfilter"
	"github.com/nikiskaarup/nanabox/internal/vmconfig"
)

var (
	projectHex     bool
	projectEmulate bool
)

var projectCmd = &cobra.Command{
	Use:   "project [config-file]",
	Short: "Show the filter driver request for a configuration",
	Long: `Project the anti-detection settings of a configuration onto the
set-profile record understood by the filter driver.

With --emulate the record is loaded into an in-memory driver and its status is
printed, which exercises the full request path without the driver installed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvePath(args)
		if err != nil {
			return err
		}
		return projectConfig(cmd.OutOrStdout(), path, projectHex, projectEmulate)
	},
}

func init() {
	projectCmd.Flags().BoolVar(&projectHex, "hex", false, "dump the packed record")
	projectCmd.Flags().BoolVar(&projectEmulate, "emulate", false, "send the record to an in-memory driver")
}

func projectConfig(w io.Writer, path string, dump, emulate bool) error {
	cfg, err := vmconfig.Load(path)
	if err != nil {
		return err
	}

	in := hvfilter.Project(cfg)
	writeRecord(w, in)

	if dump {
		data, err := in.MarshalBinary()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\n%s", hex.Dump(data))
	}

	if !emulate {
		return nil
	}

	client, err := hvfilter.NewClient(hvfilter.NewEmulator())
	if err != nil {
		return err
	}
	if err := client.Apply(cfg); err != nil {
		return fmt.Errorf("failed to apply profile: %w", err)
	}
	status, err := client.Status()
	if err != nil {
		return fmt.Errorf("failed to query driver status: %w", err)
	}

	fmt.Fprintf(w, "\nDriver %s: profile %s active=%s flags=0x%08X\n",
		status.DriverVersion, status.ActiveProfileName, yesNo(status.IsActive), uint32(status.ActiveFlags))
	return nil
}

func writeRecord(w io.Writer, in hvfilter.SetProfileInput) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ProfileName\t%s\n", in.ProfileName)
	fmt.Fprintf(tw, "Flags\t0x%08X\t%s\n", uint32(in.Flags), flagNames(in.Flags))
	fmt.Fprintf(tw, "CpuId.Enabled\t%s\n", yesNo(in.CpuId.Enabled))
	fmt.Fprintf(tw, "CpuId.HideHypervisor\t%s\n", yesNo(in.CpuId.HideHypervisor))
	fmt.Fprintf(tw, "CpuId.MaskVirtualizationFeatures\t%s\n", yesNo(in.CpuId.MaskVirtualizationFeatures))
	fmt.Fprintf(tw, "CpuId.VendorString\t%q\n", in.CpuId.VendorString)
	fmt.Fprintf(tw, "Msr.Enabled\t%s\n", yesNo(in.Msr.Enabled))
	fmt.Fprintf(tw, "Msr.Mode\t%s\n", in.Msr.Mode)
	tw.Flush()
}

func flagNames(f hvfilter.ProfileFlags) string {
	names := ""
	for _, flag := range []struct {
		bit  hvfilter.ProfileFlags
		name string
	}{
		{hvfilter.FlagCpuId, "cpuid"},
		{hvfilter.FlagMsrIntercept, "msr"},
		{hvfilter.FlagTiming, "timing"},
		{hvfilter.FlagPci, "pci"},
	} {
		if !f.Has(flag.bit) {
			continue
		}
		if names != "" {
			names += ","
		}
		names += flag.name
	}
	if names == "" {
		return "none"
	}
	return names
}
