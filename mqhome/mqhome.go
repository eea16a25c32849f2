// Package mqhome locates the pieces of an IBM MQ client installation: headers,
// link library and the dspmqver version tool.
package mqhome

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/teranos/mqbuild/errors"
	"github.com/teranos/mqbuild/mqver"
)

// Default installation roots.
const (
	DefaultHome        = "/opt/mqm"
	DefaultWindowsHome = "c:/Program Files/IBM/MQ"
)

// Layout is a resolved MQ installation layout for a target OS.
type Layout struct {
	Home        string `json:"home" yaml:"home" toml:"home"`
	TargetOS    string `json:"target_os" yaml:"target_os" toml:"target_os"`
	IncludeDir  string `json:"include_dir" yaml:"include_dir" toml:"include_dir"`
	LibDir      string `json:"lib_dir" yaml:"lib_dir" toml:"lib_dir"`
	LinkLib     string `json:"link_lib" yaml:"link_lib" toml:"link_lib"`
	VersionTool string `json:"version_tool" yaml:"version_tool" toml:"version_tool"`
}

// Resolve builds the layout. An empty home selects the platform default; an
// empty targetOS means runtime.GOOS. Windows installs use the tools/
// sub-tree, the mqm library and bin64/dspmqver.exe; every other OS uses inc,
// lib64, the threaded mqm_r library and bin/dspmqver.
func Resolve(home, targetOS string) Layout {
	if targetOS == "" {
		targetOS = runtime.GOOS
	}
	windows := strings.EqualFold(targetOS, "windows")
	if home == "" {
		home = DefaultHome
		if windows {
			home = DefaultWindowsHome
		}
	}

	l := Layout{Home: home, TargetOS: targetOS}
	if windows {
		l.IncludeDir = join(home, "tools/c/include")
		l.LibDir = join(home, "tools/lib64")
		l.LinkLib = "mqm"
		l.VersionTool = join(home, "bin64/dspmqver.exe")
	} else {
		l.IncludeDir = join(home, "inc")
		l.LibDir = join(home, "lib64")
		l.LinkLib = "mqm_r"
		l.VersionTool = join(home, "bin/dspmqver")
	}
	return l
}

// join uses forward slashes so a Windows layout resolved on a Unix host stays
// a valid Windows path.
func join(home, sub string) string {
	return strings.TrimRight(filepath.ToSlash(home), "/") + "/" + sub
}

// Header returns the path of a header in the include directory.
func (l Layout) Header(name string) string {
	return l.IncludeDir + "/" + name
}

// ExecFunc runs the version tool and returns its stdout.
type ExecFunc func(ctx context.Context, name string) ([]byte, error)

// Querier runs the version tool.
type Querier struct {
	Layout Layout
	Exec   ExecFunc
}

// QueryVersion runs the version tool with no arguments and returns its stdout.
// Failure is fatal to the build.
func (q Querier) QueryVersion(ctx context.Context) ([]byte, error) {
	run := q.Exec
	if run == nil {
		run = runTool
	}
	out, err := run(ctx, q.Layout.VersionTool)
	if err != nil {
		return nil, errors.WithHintf(
			errors.Wrapf(err, "run %s", q.Layout.VersionTool),
			"set MQ_HOME to the MQ client installation (currently %s)", q.Layout.Home)
	}
	return out, nil
}

// Installed runs the version tool and parses its Version: line.
func (q Querier) Installed(ctx context.Context) (mqver.Version, string, error) {
	out, err := q.QueryVersion(ctx)
	if err != nil {
		return mqver.Version{}, "", err
	}
	return mqver.FromDspmqver(out)
}

func runTool(ctx context.Context, name string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.WithDetail(err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
