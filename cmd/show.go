package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nikiskaarup/nanabox/internal/vmconfig"
)

var showFormat string

var showCmd = &cobra.Command{
	Use:   "show-config [config-file]",
	Short: "Show a virtual machine configuration",
	Long: `Print a summary of a virtual machine configuration file.

With --format json or --format yaml the normalized document is printed instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvePath(args)
		if err != nil {
			return err
		}
		return showConfig(cmd.OutOrStdout(), path, showFormat)
	},
}

func init() {
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "summary", "output format: summary, json or yaml")
}

func showConfig(w io.Writer, path, format string) error {
	switch format {
	case "summary", "json", "yaml":
	default:
		return fmt.Errorf("unknown format '%s'", format)
	}

	cfg, err := vmconfig.Load(path)
	if err != nil {
		// Reading is best effort; the command still succeeds.
		logrus.Debugf("show-config: %v", err)
		fmt.Fprintf(w, "Failed to read configuration: %v\n", err)
		return nil
	}

	switch format {
	case "json":
		data, err := vmconfig.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "yaml":
		return writeYAML(w, vmconfig.Encode(cfg))
	}

	writeSummary(w, path, cfg)
	return nil
}

func writeSummary(w io.Writer, path string, cfg vmconfig.VirtualMachineConfiguration) {
	fmt.Fprintf(w, "\nNanaBox VM Configuration: %s\n", path)
	fmt.Fprintln(w, strings.Repeat("=", 38))
	fmt.Fprintf(w, "Name: %s\n", cfg.Name)
	fmt.Fprintf(w, "Guest Type: %s\n", cfg.GuestType)
	fmt.Fprintf(w, "Processors: %d\n", cfg.ProcessorCount)
	fmt.Fprintf(w, "Memory: %d MB\n", cfg.MemorySize)
	fmt.Fprintf(w, "Anti-Detection Profile: %s\n", cfg.AntiDetectionProfile)

	if cfg.ChipsetInformation.Manufacturer == "" {
		fmt.Fprintln(w, "SMBIOS: (Not configured)")
	} else {
		fmt.Fprintf(w, "SMBIOS: %s %s\n", cfg.ChipsetInformation.Manufacturer, cfg.ChipsetInformation.ProductName)
	}

	fmt.Fprintf(w, "CPUID Enabled: %s\n", yesNo(cfg.CpuId.Enabled))
	fmt.Fprintf(w, "MSR Intercept: %s\n", yesNo(cfg.MsrIntercept.Enabled))
	fmt.Fprintf(w, "Timing Strategy: %s\n", cfg.Timing.Strategy)
	fmt.Fprintf(w, "PCI Layout: %s\n", enabledDisabled(cfg.Pci.Enabled))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func enabledDisabled(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}

// writeYAML renders a document tree as YAML, keeping key order.
func writeYAML(w io.Writer, v vmconfig.Value) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlNode(v)); err != nil {
		return fmt.Errorf("failed to write YAML: %w", err)
	}
	return enc.Close()
}

func yamlNode(v vmconfig.Value) *yaml.Node {
	switch v.Kind() {
	case vmconfig.KindBool:
		b, _ := v.AsBool()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprint(b)}
	case vmconfig.KindNumber:
		lit, _ := v.NumberLiteral()
		tag := "!!int"
		if strings.ContainsAny(lit, ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: lit}
	case vmconfig.KindString:
		s, _ := v.AsString()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	case vmconfig.KindArray:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Items() {
			node.Content = append(node.Content, yamlNode(item))
		}
		return node
	case vmconfig.KindObject:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range v.Keys() {
			val, _ := v.Get(key)
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
				yamlNode(val))
		}
		return node
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
