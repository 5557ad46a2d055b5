package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nikiskaarup/nanabox/internal/config"
	"github.com/nikiskaarup/nanabox/internal/logging"
)

var (
	verbose   bool
	settings  *config.Settings
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "nanabox",
	Short: "NanaBox virtual machine configuration tool",
	Long: `nanabox inspects and edits NanaBox virtual machine configuration files
and projects their anti-detection settings onto the filter driver contract.`,
}

func Execute() error {
	defer func() {
		if logCloser != nil {
			logCloser.Close()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setProfileCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(regenCmd)
}

func initConfig() {
	s, err := config.Load()
	if err != nil {
		logrus.Fatalf("Error reading settings: %v", err)
	}
	settings = s

	// Set up logging
	logCloser = logging.Setup(logrus.StandardLogger(), settings.Log, verbose)
}

// resolvePath picks the configuration file from the arguments, falling
// back to default_config from settings.
func resolvePath(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if settings != nil && settings.DefaultConfig != "" {
		logrus.Debugf("Using default configuration %s", settings.DefaultConfig)
		return settings.DefaultConfig, nil
	}
	return "", fmt.Errorf("no configuration file given and default_config is not set")
}
