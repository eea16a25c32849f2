package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/mqbuild/cmd/mqbuild/commands"
	"github.com/teranos/mqbuild/errors"
	"github.com/teranos/mqbuild/logger"
)

var rootCmd = &cobra.Command{
	Use:   "mqbuild",
	Short: "mqbuild - IBM MQ client build configuration",
	Long: `mqbuild - Build-time capability resolution for IBM MQ client bindings.

mqbuild queries the installed MQ client, checks the requested features against
it, probes the C headers for optional capabilities and writes the resolved
configuration as Go source for the bindings to build against.

Available commands:
  resolve  - Resolve and print the build configuration
  generate - Write version, cgo and marker files (generate check: verify them)
  classify - Assign integer types to MQ constants
  probe    - Run the compile probes
  am       - Manage mqbuild configuration ("I am")
  doctor   - Inspect the host and MQ installation
  watch    - Regenerate when configuration changes

Examples:
  mqbuild resolve                           # Resolve against $MQ_HOME
  MQBUILD_FEATURE_PCF=1 mqbuild generate    # Generate with the pcf feature
  mqbuild generate check                    # Fail if generated files are stale
  mqbuild classify --header /opt/mqm/inc/cmqc.h
  mqbuild am show                           # Show current configuration`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.InitializeWithVerbosity(jsonLogs, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		logger.Debugw("Logger initialized", "verbosity", logger.LevelName(verbosity))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Print results as JSON")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON (for CI)")
	rootCmd.PersistentFlags().String("config", "", "Extra config file, merged after the project config")

	rootCmd.AddCommand(commands.ResolveCmd)
	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.ClassifyCmd)
	rootCmd.AddCommand(commands.ProbeCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.DoctorCmd)
	rootCmd.AddCommand(commands.WatchCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
