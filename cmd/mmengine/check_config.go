package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hftmm/internal/config"
)

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Load and validate the config file, then exit",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load config: %s\n", err)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "invalid config: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d venue(s), strategy=%s, dashboard=%v\n",
			cfg.Trading.Symbol, len(cfg.Venues), cfg.Strategy.Variant, cfg.Dashboard.Enabled)
	},
}
