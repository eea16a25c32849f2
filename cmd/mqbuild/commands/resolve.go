package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/mqbuild/display"
)

// ResolveCmd resolves and prints the build configuration
var ResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the build configuration",
	Long: `Resolve the MQ client build configuration without writing any files.

The installed version is read from dspmqver under MQ_HOME, features from
MQBUILD_FEATURE_* variables and the configured features list. A feature that
needs a newer client than the one installed aborts the resolution.

Examples:
  mqbuild resolve
  mqbuild resolve --mq-version 9.3.1.0 --feature pcf
  mqbuild resolve --json`,
	RunE: runResolve,
}

func init() {
	addPipelineFlags(ResolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	res, err := runPipeline(cmd, loaded.Config)
	if err != nil {
		return err
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), res.Config)
	}
	return display.Resolved(cmd.OutOrStdout(), res.Config)
}
