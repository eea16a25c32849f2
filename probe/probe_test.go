package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/mqbuild/errors"
)

var bnoSnippet = Snippet{
	Name:   "mqbno",
	Source: "#include <cmqc.h>\nMQBNO bno = {MQBNO_DEFAULT};\n",
}

type call struct {
	dir    string
	name   string
	args   []string
	source string
	hasDL  bool
}

type fakeCompiler struct {
	calls  []call
	stderr string
	err    error
}

func (f *fakeCompiler) exec(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, error) {
	c := call{dir: dir, name: name, args: args}
	if src, err := os.ReadFile(filepath.Join(dir, "mqbno.c")); err == nil {
		c.source = string(src)
	}
	_, c.hasDL = ctx.Deadline()
	f.calls = append(f.calls, c)
	return []byte("ignored stdout"), []byte(f.stderr), f.err
}

func newRunner(t *testing.T, f *fakeCompiler, mutate func(*Options)) *Runner {
	t.Helper()
	opts := Options{
		Compiler:    "zig cc -target 'x86_64-linux-gnu'",
		IncludeDirs: []string{"/opt/mqm/inc"},
		Flags:       []string{"-Werror"},
		Exec:        f.exec,
	}
	if mutate != nil {
		mutate(&opts)
	}
	r, err := NewRunner(opts)
	require.NoError(t, err)
	return r
}

func TestProbeSuccess(t *testing.T) {
	f := &fakeCompiler{}
	r := newRunner(t, f, nil)

	assert.True(t, r.Probe(context.Background(), bnoSnippet))
	require.Len(t, f.calls, 1)

	c := f.calls[0]
	assert.Equal(t, "zig", c.name)
	assert.Equal(t, bnoSnippet.Source, c.source)
	assert.Equal(t, []string{
		"cc", "-target", "x86_64-linux-gnu", "-Werror", "-I/opt/mqm/inc",
		"-c", filepath.Join(c.dir, "mqbno.c"), "-o", filepath.Join(c.dir, "mqbno.o"),
	}, c.args)
	assert.False(t, c.hasDL)

	_, err := os.Stat(c.dir)
	assert.True(t, os.IsNotExist(err), "temp dir removed")
}

func TestProbeFailuresReportAbsent(t *testing.T) {
	tests := []struct {
		name   string
		f      *fakeCompiler
		reason string
	}{
		{"non-zero exit", &fakeCompiler{err: errors.New("exit status 1")}, "exit status 1"},
		{"warning only", &fakeCompiler{stderr: "warning: unused variable 'bno'\n"}, "compiler diagnostics"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRunner(t, tt.f, nil)
			res := r.Run(context.Background(), bnoSnippet)
			assert.False(t, res.Present)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Len(t, tt.f.calls, 1, "single attempt")
		})
	}
}

func TestProbeWhitespaceStderrIsClean(t *testing.T) {
	r := newRunner(t, &fakeCompiler{stderr: "\n  \n"}, nil)
	assert.True(t, r.Probe(context.Background(), bnoSnippet))
}

func TestProbeMissingToolchain(t *testing.T) {
	r, err := NewRunner(Options{Compiler: "mqbuild-no-such-compiler-7f3a"})
	require.NoError(t, err)

	res := r.Run(context.Background(), bnoSnippet)
	assert.False(t, res.Present)
	assert.NotEmpty(t, res.Reason)
}

func TestProbeDisabled(t *testing.T) {
	f := &fakeCompiler{}
	r := newRunner(t, f, func(o *Options) { o.Disabled = true })

	res := r.Run(context.Background(), bnoSnippet)
	assert.False(t, res.Present)
	assert.Equal(t, "probing disabled", res.Reason)
	assert.Empty(t, f.calls)
}

func TestProbeTimeoutSetsDeadline(t *testing.T) {
	f := &fakeCompiler{}
	r := newRunner(t, f, func(o *Options) { o.Timeout = time.Minute })

	r.Probe(context.Background(), bnoSnippet)
	require.Len(t, f.calls, 1)
	assert.True(t, f.calls[0].hasDL)
}

func TestProbeInvalidSnippet(t *testing.T) {
	f := &fakeCompiler{}
	r := newRunner(t, f, nil)

	assert.False(t, r.Probe(context.Background(), Snippet{Name: "../escape", Source: "int x;"}))
	assert.False(t, r.Probe(context.Background(), Snippet{Name: "empty", Source: "  "}))
	assert.Empty(t, f.calls)
}

func TestNewRunner(t *testing.T) {
	r, err := NewRunner(Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultCompiler}, r.Compiler())

	_, err = NewRunner(Options{Compiler: `cc "-I/unterminated`})
	assert.Error(t, err)

	_, err = NewRunner(Options{Timeout: -time.Second})
	assert.True(t, errors.IsInvalidInputError(err))
}
