package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"webInspector/internal/config"
	"webInspector/internal/geo"
	"webInspector/pkg/version"
)

var (
	cfgFile     string
	globalFlags *config.FlagGroup
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "webinspector",
		Short:         "Inspect the DNS, TLS and HTTP posture of websites",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.webinspector.yaml)")
	globalFlags = config.RegisterGlobalFlags(root.PersistentFlags())

	root.AddCommand(newScanCmd(), newServeCmd(), newVersionCmd())
	return root
}

// loadConfig merges config file, environment and the command's flags
func loadConfig(fs *pflag.FlagSet, groups []*config.FlagGroup) (*config.Config, error) {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := config.Bind(v, fs, append(groups, globalFlags)...); err != nil {
		return nil, err
	}
	return config.Load(v)
}

// useGroupedHelp replaces cobra's help output with the grouped flag listing
func useGroupedHelp(cmd *cobra.Command, formatter *config.HelpFormatter) {
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		formatter.PrintUsage(c.OutOrStdout(), globalFlags)
	})
}

// newLocator picks the geolocation provider: the MaxMind database when one
// is configured, the ip-api service otherwise. The returned closer is never nil.
func newLocator(cfg *config.Config) (geo.Locator, func() error, error) {
	if cfg.GeoDatabase != "" {
		mm, err := geo.OpenMaxMind(cfg.GeoDatabase, cfg.Logger)
		if err != nil {
			return nil, nil, err
		}
		return mm, mm.Close, nil
	}
	return newIPAPI(cfg), func() error { return nil }, nil
}

func newIPAPI(cfg *config.Config) *geo.IPAPI {
	return geo.NewIPAPI(cfg.GeoEndpoint, cfg.GeoTimeout, version.UserAgentToken(), cfg.Logger)
}
