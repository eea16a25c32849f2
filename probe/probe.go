// Package probe compiles small C fragments against the installed MQ headers to
// detect capabilities that version metadata cannot reveal.
package probe

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/teranos/mqbuild/errors"
	"github.com/teranos/mqbuild/logger"
)

// DefaultCompiler is used when no compiler is configured.
const DefaultCompiler = "cc"

var snippetName = regexp.MustCompile(`^[a-z0-9_]+$`)

// Snippet is a self-contained C translation unit. Compiling it cleanly means
// the capability is present.
type Snippet struct {
	Name   string `json:"name" toml:"name"`
	Source string `json:"source" toml:"source"`
}

// Validate checks the snippet is usable as a file name and has a body.
func (s Snippet) Validate() error {
	if !snippetName.MatchString(s.Name) {
		return errors.NewInvalidInputError("probe name %q must match %s", s.Name, snippetName)
	}
	if strings.TrimSpace(s.Source) == "" {
		return errors.NewInvalidInputError("probe %q has no source", s.Name)
	}
	return nil
}

// ExecFunc runs a command in dir and returns its captured output.
type ExecFunc func(ctx context.Context, dir, name string, args ...string) (stdout, stderr []byte, err error)

// Options configures a Runner.
type Options struct {
	// Compiler is the compiler command line, e.g. "zig cc -target x86_64-linux".
	Compiler    string
	IncludeDirs []string
	Flags       []string
	// Timeout bounds a single compilation. Zero means no timeout.
	Timeout time.Duration
	// Disabled skips compilation; every probe reports absent.
	Disabled bool
	Logger   *zap.SugaredLogger
	Exec     ExecFunc
}

// Result is the outcome of one probe, with the reason for absence.
type Result struct {
	Name     string        `json:"name"`
	Present  bool          `json:"present"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Runner compiles snippets one at a time.
type Runner struct {
	compiler []string
	opts     Options
	logger   *zap.SugaredLogger
	exec     ExecFunc
}

// NewRunner validates opts and returns a Runner.
func NewRunner(opts Options) (*Runner, error) {
	cmdline := opts.Compiler
	if strings.TrimSpace(cmdline) == "" {
		cmdline = DefaultCompiler
	}
	compiler, err := shellquote.Split(cmdline)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid compiler command %q", cmdline)
	}
	if len(compiler) == 0 {
		return nil, errors.NewInvalidInputError("empty compiler command")
	}
	if opts.Timeout < 0 {
		return nil, errors.NewInvalidInputError("negative probe timeout %s", opts.Timeout)
	}

	run := opts.Exec
	if run == nil {
		run = execCommand
	}
	return &Runner{
		compiler: compiler,
		opts:     opts,
		logger:   logger.OrNop(opts.Logger),
		exec:     run,
	}, nil
}

// Compiler returns the split compiler command line.
func (r *Runner) Compiler() []string {
	return append([]string(nil), r.compiler...)
}

// Probe reports whether the snippet compiles. Every failure, including a
// missing toolchain, is reported as false.
func (r *Runner) Probe(ctx context.Context, s Snippet) bool {
	return r.Run(ctx, s).Present
}

// Run compiles the snippet once and records why it failed, if it did.
func (r *Runner) Run(ctx context.Context, s Snippet) (res Result) {
	start := time.Now()
	res = Result{Name: s.Name}
	defer func() {
		res.Duration = time.Since(start)
	}()

	if r.opts.Disabled {
		res.Reason = "probing disabled"
		r.logger.Debugw("Probe skipped", logger.FieldProbe, s.Name)
		return res
	}
	if err := s.Validate(); err != nil {
		res.Reason = err.Error()
		r.logger.Warnw("Invalid probe", logger.FieldProbe, s.Name, logger.FieldError, err)
		return res
	}

	dir, err := os.MkdirTemp("", "mqbuild-probe-")
	if err != nil {
		res.Reason = "temp dir: " + err.Error()
		r.logger.Warnw("Probe temp dir failed", logger.FieldProbe, s.Name, logger.FieldError, err)
		return res
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, s.Name+".c")
	if err := os.WriteFile(src, []byte(s.Source), 0o600); err != nil {
		res.Reason = "write source: " + err.Error()
		return res
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	args := r.args(src, filepath.Join(dir, s.Name+".o"))
	r.logger.Debugw("Running probe",
		logger.FieldProbe, s.Name,
		logger.FieldCompiler, shellquote.Join(append([]string{r.compiler[0]}, args...)...))

	_, stderr, err := r.exec(ctx, dir, r.compiler[0], args...)
	switch {
	case err != nil:
		res.Reason = err.Error()
	case len(bytes.TrimSpace(stderr)) > 0:
		res.Reason = "compiler diagnostics"
	default:
		res.Present = true
	}

	r.logger.Debugw("Probe finished",
		logger.FieldProbe, s.Name,
		logger.FieldActive, res.Present,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	if !res.Present && len(stderr) > 0 && logger.ShouldLogTrace(logger.Verbosity()) {
		r.logger.Debugw("Probe diagnostics", logger.FieldProbe, s.Name, "stderr", string(stderr))
	}
	return res
}

func (r *Runner) args(src, obj string) []string {
	args := append([]string(nil), r.compiler[1:]...)
	args = append(args, r.opts.Flags...)
	for _, inc := range r.opts.IncludeDirs {
		args = append(args, "-I"+inc)
	}
	return append(args, "-c", src, "-o", obj)
}

func execCommand(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
