// Command mmengine runs the single-symbol, multi-venue market-making
// engine: it wires feed adapters, the consolidated book, a strategy
// quoter, and the risk gate into one pipeline.Pipeline, optionally
// serves a dashboard, and persists position/PnL across restarts.
//
// Promoted from the teacher's flat main()+flag-parsing shape to cobra
// subcommands, grounded in NimbleMarkets-dbn-go's cmd/dbn-go-hist (root
// command with Use/Short/Long, one *cobra.Command var per subcommand,
// PersistentFlags for the shared --config flag).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "mmengine",
	Short: "Single-symbol, multi-venue market-making engine",
	Long:  "mmengine consolidates order books across venues, quotes both sides with a configurable strategy, and enforces pre-trade risk limits.",
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "configs/config.yaml", "path to config YAML")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(checkConfigCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
