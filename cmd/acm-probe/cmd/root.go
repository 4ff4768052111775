package cmd

import (
	"github.com/spf13/cobra"

	acm "github.com/confhub/acm-client-go"
)

var (
	configFile string
	dataID     string
	group      string
)

var rootCmd = &cobra.Command{
	Use:   "acm-probe",
	Short: "Exercise the acm config-service client against a real endpoint",
	Long: `acm-probe is a thin demo binary for the acm client library.

It loads connection options from a YAML file and/or ACM_PROBE_-prefixed
environment variables, then runs a single operation: get, publish,
remove, or watch.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&dataID, "data-id", "", "config item dataId")
	rootCmd.PersistentFlags().StringVar(&group, "group", acm.DefaultGroup, "config item group")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(watchCmd)
}

func newClient() (*acm.Client, error) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, err
	}

	opts := []acm.Option{
		acm.WithTLS(cfg.TLSEnabled),
		acm.WithCAI(cfg.CAIEnabled),
		acm.WithTimeouts(cfg.DefaultTimeout, cfg.PullingTimeout),
	}
	if cfg.Namespace != "" {
		opts = append(opts, acm.WithNamespace(cfg.Namespace))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, acm.WithCredentials(cfg.AccessKey, cfg.SecretKey))
	}

	return acm.New(cfg.Endpoint, opts...)
}
