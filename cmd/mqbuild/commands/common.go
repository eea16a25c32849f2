// Package commands implements the mqbuild CLI.
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/mqbuild/am"
	"github.com/teranos/mqbuild/logger"
	"github.com/teranos/mqbuild/pipeline"
)

// loader builds the config loader from the global --config flag
func loader(cmd *cobra.Command) am.Loader {
	explicit, _ := cmd.Root().PersistentFlags().GetString("config")
	return am.Loader{Explicit: explicit}
}

// loadConfig loads configuration and applies the configured log theme
func loadConfig(cmd *cobra.Command) (*am.Loaded, error) {
	loaded, err := loader(cmd).Load()
	if err != nil {
		return nil, err
	}
	logger.SetTheme(loaded.Config.Log.Theme)
	return loaded, nil
}

// commandLogger returns a component logger tagged with the command name
func commandLogger(cmd *cobra.Command) *zap.SugaredLogger {
	return logger.ChildLogger(logger.ComponentLogger("mqbuild"), logger.FieldOperation, cmd.Name())
}

// signalContext is cancelled on interrupt or termination
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// runPipeline runs one resolution with the flags shared by resolve and generate
func runPipeline(cmd *cobra.Command, cfg *am.Config) (*pipeline.Result, error) {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	versionText, _ := cmd.Flags().GetString("mq-version")
	extra, _ := cmd.Flags().GetStringSlice("feature")
	if len(extra) > 0 {
		merged := *cfg
		merged.Features.Enabled = append(append([]string(nil), cfg.Features.Enabled...), extra...)
		cfg = &merged
	}

	return pipeline.Run(ctx, pipeline.Options{
		Config:      cfg,
		VersionText: versionText,
		Logger:      commandLogger(cmd),
	})
}

// addPipelineFlags registers the flags read by runPipeline
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("mq-version", "", "Use this MQ client version instead of running dspmqver")
	cmd.Flags().StringSlice("feature", nil, "Enable a feature in addition to the environment (repeatable)")
}
