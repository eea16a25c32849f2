package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/mqbuild/classify"
	"github.com/teranos/mqbuild/emit"
	"github.com/teranos/mqbuild/errors"
)

// isolate points every config location and build variable away from the host
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("MQ_HOME", "/opt/mqm")
	t.Setenv("GOOS", "linux")
	t.Setenv("CC", "")
	t.Setenv("MQBUILD_PROBE_DISABLED", "true")
	t.Setenv("MQBUILD_PROBE_COMPILER", "")
	t.Setenv("MQBUILD_OUTPUT_MANIFEST", "false")
	return dir
}

// execute runs args against a fresh root carrying the global flags
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "mqbuild", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().CountP("verbose", "v", "")
	root.PersistentFlags().Bool("json", false, "")
	root.PersistentFlags().String("config", "", "")
	root.AddCommand(ResolveCmd, GenerateCmd, ClassifyCmd, ProbeCmd, AmCmd, VersionCmd)
	resetFlags(root)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// resetFlags restores every flag in the tree; commands are package globals
// and keep parsed values between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestClassifyNames(t *testing.T) {
	isolate(t)

	out, err := execute(t, "classify", "MQCC_OK", "MQHO_NONE", "MQCA_Q_NAME_LENGTH", "MQ_Q_MGR_NAME", "--json")
	require.NoError(t, err)

	var got []classify.Classified
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 4)
	assert.Equal(t, "MQLONG", got[0].Kind.Name)
	assert.Equal(t, "MQHOBJ", got[1].Kind.Name)
	assert.Equal(t, "uintptr", got[2].Kind.Name)
	assert.Equal(t, -1, got[3].Rule)
}

func TestClassifyHeader(t *testing.T) {
	dir := isolate(t)
	header := filepath.Join(dir, "cmqc.h")
	require.NoError(t, os.WriteFile(header, []byte(`
#define MQCC_OK                        0
#define MQHC_UNUSABLE_HCONN            (-1)
#define MQ_Q_NAME_LENGTH               48
#define MQCHAR_SOMETHING               "text"
`), 0644))

	out, err := execute(t, "classify", "--header", header, "--json")
	require.NoError(t, err)

	var got []classify.Classified
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"MQCC_OK", "MQHC_UNUSABLE_HCONN", "MQ_Q_NAME_LENGTH"}, names)
	assert.Equal(t, "MQHCONN", got[1].Kind.Name)
}

func TestClassifyNeedsInput(t *testing.T) {
	isolate(t)
	_, err := execute(t, "classify")
	assert.True(t, errors.IsInvalidInputError(err))
}

func TestResolveJSON(t *testing.T) {
	isolate(t)

	out, err := execute(t, "resolve", "--mq-version", "9.3.1.0", "--feature", "pcf", "--json")
	require.NoError(t, err)

	var got struct {
		Version  string   `json:"version"`
		Features []string `json:"features"`
		Active   []string `json:"active"`
		Sources  []string `json:"sources"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "9.3.1.0", got.Version)
	assert.Equal(t, []string{"pcf"}, got.Features)
	assert.Equal(t, []string{"mqbno", "mqwqr4"}, got.Active)
	assert.Contains(t, got.Sources, "c/pcf.c")
}

func TestResolveRejectsUnmetMinimum(t *testing.T) {
	isolate(t)
	_, err := execute(t, "resolve", "--mq-version", "9.2.0.0", "--feature", "mqc_9_3_0_0")
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestGenerateAndCheck(t *testing.T) {
	dir := isolate(t)
	outDir := filepath.Join(dir, "mqc")

	_, err := execute(t, "generate", "--mq-version", "9.3.1.0", "-o", outDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, emit.VersionFile))
	assert.FileExists(t, filepath.Join(outDir, emit.CgoFile))
	assert.FileExists(t, filepath.Join(outDir, emit.MarkersFile))

	out, err := execute(t, "generate", "check", "--mq-version", "9.3.1.0", "-o", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")

	out, err = execute(t, "generate", "check", "--mq-version", "9.3.0.5", "-o", outDir)
	assert.True(t, errors.Is(err, ErrStale))
	assert.Contains(t, out, emit.VersionFile)
}

func TestAmSetThenGet(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "custom.toml")

	_, err := execute(t, "am", "set", "--file", file, "probe.timeout_seconds", "45")
	require.NoError(t, err)

	out, err := execute(t, "--config", file, "am", "get", "probe.timeout_seconds", "--json")
	require.NoError(t, err)

	var got struct {
		Value  int `json:"value"`
		Source struct {
			Source string `json:"source"`
			Path   string `json:"path"`
		} `json:"source"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 45, got.Value)
	assert.Equal(t, "explicit", got.Source.Source)
	assert.Equal(t, file, got.Source.Path)
}

func TestAmGetUnknownKey(t *testing.T) {
	isolate(t)
	_, err := execute(t, "am", "get", "no.such.key")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"commit_hash"`)
}

func TestPathCheck(t *testing.T) {
	dir := t.TempDir()
	ok := pathCheck("dir", dir)
	assert.True(t, ok.OK)

	missing := pathCheck("dspmqver", filepath.Join(dir, "bin", "dspmqver"))
	assert.False(t, missing.OK)
	assert.Contains(t, missing.Detail, "missing")
}

func TestCompilerCheck(t *testing.T) {
	assert.False(t, compilerCheck("definitely-not-a-compiler-xyz").OK)
}
