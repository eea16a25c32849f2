package commands

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/mqbuild/am"
	"github.com/teranos/mqbuild/errors"
	"github.com/teranos/mqbuild/logger"
)

// WatchCmd regenerates whenever a config file changes
var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate when configuration changes",
	Long: `Generate once, then watch the config files and generate again after
each change. A failing run is logged and the previous files stay in place.
Stop with Ctrl+C.`,
	RunE: runWatch,
}

func init() {
	WatchCmd.Flags().Duration("debounce", am.DefaultDebounce, "Wait this long after the last change before regenerating")
	addPipelineFlags(WatchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	l := loader(cmd)
	loaded, err := l.Load()
	if err != nil {
		return err
	}
	log := commandLogger(cmd)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	generate := func(loaded *am.Loaded) error {
		res, err := runPipeline(cmd, loaded.Config)
		if err != nil {
			return err
		}
		if err := res.Write(loaded.Config.Output.Dir); err != nil {
			return err
		}
		log.Infow("Regenerated",
			logger.FieldRunID, res.Config.RunID,
			logger.FieldVersion, res.Config.Version.String(),
			logger.FieldPath, loaded.Config.Output.Dir)
		return nil
	}
	if err := generate(loaded); err != nil {
		log.Errorw("Initial generation failed", logger.FieldError, err)
	}

	paths, err := watchPaths(l, loaded)
	if err != nil {
		return err
	}
	cw, err := am.NewConfigWatcher(l, paths, log.Named("watch"))
	if err != nil {
		return err
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")
	cw.SetDebounce(debounce)
	cw.OnReload(generate)

	am.SetGlobalWatcher(cw)
	defer am.SetGlobalWatcher(nil)

	cw.Start()
	log.Infow("Watching config files", logger.FieldCount, len(paths))
	return waitAndStop(ctx, cw, log)
}

// watchPaths returns the merged files plus the project file, which may not exist yet
func watchPaths(l am.Loader, loaded *am.Loaded) ([]string, error) {
	paths := append([]string(nil), loaded.Files...)
	if am.FindProjectConfig(l.WorkDir) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get working directory")
		}
		paths = append(paths, filepath.Join(wd, am.ConfigFileName))
	}
	return paths, nil
}

func waitAndStop(ctx context.Context, cw *am.ConfigWatcher, log *zap.SugaredLogger) error {
	<-ctx.Done()
	log.Infow("Stopping watcher")

	done := make(chan error, 1)
	go func() { done <- cw.Stop() }()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return errors.New("timed out stopping watcher")
	}
}
