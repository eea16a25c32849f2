// Package pipeline runs one mqbuild invocation: configuration, installation
// layout, version query, feature flags, tables, resolution and artifacts.
package pipeline

import (
	"context"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/mqbuild/am"
	"github.com/teranos/mqbuild/emit"
	"github.com/teranos/mqbuild/errors"
	"github.com/teranos/mqbuild/feature"
	"github.com/teranos/mqbuild/logger"
	"github.com/teranos/mqbuild/mqhome"
	"github.com/teranos/mqbuild/probe"
	"github.com/teranos/mqbuild/resolve"
	"github.com/teranos/mqbuild/table"
	"github.com/teranos/mqbuild/version"
)

// Options carries the inputs of one run. Only Config is required.
type Options struct {
	Config *am.Config

	// Environ is scanned for feature flags. Defaults to os.Environ().
	Environ []string
	// GOARCH names the manifest. Defaults to $GOARCH, then runtime.GOARCH.
	GOARCH string
	// VersionText skips the version tool when set.
	VersionText string

	QueryExec mqhome.ExecFunc
	ProbeExec probe.ExecFunc
	RunID     func() string
	Logger    *zap.SugaredLogger
}

// Result is everything one run produced. Nothing is written to disk.
type Result struct {
	Layout   mqhome.Layout
	Tables   table.Tables
	Config   *resolve.Config
	Files    []emit.File
	Manifest *emit.File
}

// Run resolves the configuration and renders the generated files.
// Any failure aborts the run with no partial result.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.NewInvalidInputError("pipeline needs a configuration")
	}
	start := time.Now()
	log := logger.OrNop(opts.Logger)
	cfg := opts.Config

	layout := mqhome.Resolve(cfg.Install.Home, cfg.Install.TargetOS)
	log.Debugw("Installation layout",
		logger.FieldPath, layout.Home,
		"target_os", layout.TargetOS)

	versionText := opts.VersionText
	if versionText == "" {
		q := mqhome.Querier{Layout: layout, Exec: opts.QueryExec}
		_, text, err := q.Installed(ctx)
		if err != nil {
			return nil, err
		}
		versionText = text
	}

	enabled := Features(cfg, opts.Environ)

	tables, err := Tables(ctx, cfg.Table, log.Named("table"))
	if err != nil {
		return nil, err
	}

	runner, err := NewRunner(cfg, layout, opts.ProbeExec, log.Named("probe"))
	if err != nil {
		return nil, err
	}

	resolverOpts := []resolve.Option{
		resolve.WithProber(runner),
		resolve.WithLogger(log.Named("resolve")),
	}
	if opts.RunID != nil {
		resolverOpts = append(resolverOpts, resolve.WithRunID(opts.RunID))
	}
	resolver, err := resolve.New(tables, resolverOpts...)
	if err != nil {
		return nil, err
	}

	resolved, err := resolver.Resolve(ctx, versionText, enabled)
	if err != nil {
		return nil, err
	}
	if logger.ShouldLogAll(logger.Verbosity()) {
		log.Debugw("Resolved configuration", "config", resolved)
	}

	files, err := emit.Generate(resolved, layout, cfg.Output.Package)
	if err != nil {
		return nil, err
	}

	res := &Result{Layout: layout, Tables: tables, Config: resolved, Files: files}
	if cfg.Output.Manifest {
		m := emit.Manifest{Tool: version.Get(), Layout: layout, Config: resolved}
		mf, err := emit.ManifestFile(m, goarch(opts.GOARCH), cfg.Output.ManifestFormat)
		if err != nil {
			return nil, err
		}
		res.Manifest = &mf
	}

	log.Infow("Pipeline complete",
		logger.FieldRunID, resolved.RunID,
		logger.FieldCount, len(files),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return res, nil
}

// Write stores the generated files and the manifest in dir
func (r *Result) Write(dir string) error {
	files := r.Files
	if r.Manifest != nil {
		files = append(append([]emit.File(nil), files...), *r.Manifest)
	}
	return emit.Write(dir, files)
}

// Check reports the generated files in dir that are missing or out of date.
// The manifest carries a run ID and is not compared.
func (r *Result) Check(dir string) ([]string, error) {
	return emit.Check(dir, r.Files)
}

// Features merges environment flags with the configured always-on features
func Features(cfg *am.Config, environ []string) feature.Set {
	if environ == nil {
		environ = os.Environ()
	}
	prefix := cfg.Features.Prefix
	if prefix == "" {
		prefix = feature.DefaultPrefix
	}
	return feature.FromEnviron(environ, prefix).With(cfg.Features.Enabled...)
}

// Tables returns the built-in tables, a local table file, or a fetched one.
// A remote source takes precedence over a local path.
func Tables(ctx context.Context, tc am.TableConfig, log *zap.SugaredLogger) (table.Tables, error) {
	path := tc.Path
	if tc.Source != "" {
		fetched, err := table.Fetch(ctx, tc.Source, tc.CacheDir, log)
		if err != nil {
			return table.Tables{}, err
		}
		path = fetched
	}
	if path == "" {
		return table.Default(), nil
	}
	return table.Load(path)
}

// NewRunner builds the compile probe runner for a layout
func NewRunner(cfg *am.Config, layout mqhome.Layout, exec probe.ExecFunc, log *zap.SugaredLogger) (*probe.Runner, error) {
	return probe.NewRunner(probe.Options{
		Compiler:    cfg.Probe.Compiler,
		IncludeDirs: []string{layout.IncludeDir},
		Flags:       cfg.Probe.Flags,
		Timeout:     time.Duration(cfg.Probe.TimeoutSeconds) * time.Second,
		Disabled:    cfg.Probe.Disabled,
		Logger:      log,
		Exec:        exec,
	})
}

func goarch(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("GOARCH"); env != "" {
		return env
	}
	return runtime.GOARCH
}
