package emit

import (
	"context"
	"encoding/json"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/mqbuild/capability"
	"github.com/teranos/mqbuild/feature"
	"github.com/teranos/mqbuild/mqhome"
	"github.com/teranos/mqbuild/resolve"
	"github.com/teranos/mqbuild/table"
	"github.com/teranos/mqbuild/version"
)

func resolved(t *testing.T, versionText string) *resolve.Config {
	t.Helper()
	r, err := resolve.New(table.Default(), resolve.WithRunID(func() string { return "run-1" }))
	require.NoError(t, err)
	cfg, err := r.Resolve(context.Background(), versionText, feature.NewSet("pcf"))
	require.NoError(t, err)
	return cfg
}

func generate(t *testing.T, cfg *resolve.Config, layout mqhome.Layout) map[string]string {
	t.Helper()
	files, err := Generate(cfg, layout, "")
	require.NoError(t, err)
	out := make(map[string]string, len(files))
	for _, f := range files {
		_, err := parser.ParseFile(token.NewFileSet(), f.Name, f.Data, parser.ParseComments)
		require.NoError(t, err, "%s must be valid Go", f.Name)
		out[f.Name] = string(f.Data)
	}
	return out
}

func TestGenerateVersionFile(t *testing.T) {
	files := generate(t, resolved(t, "9.3.5.1"), mqhome.Resolve("", "linux"))

	src := files[VersionFile]
	assert.Contains(t, src, "// Code generated by mqbuild. DO NOT EDIT.")
	assert.Contains(t, src, "package mqc")
	assert.Contains(t, src, `const ClientBuildVersion = "9.3.5.1"`)
	assert.Contains(t, src, "const ClientBuildVersionInt uint32 = 0x09030501")
}

func TestGenerateCgoFile(t *testing.T) {
	files := generate(t, resolved(t, "9.3.5.1"), mqhome.Resolve("", "linux"))
	src := files[CgoFile]
	assert.Contains(t, src, "// #cgo CFLAGS: -I/opt/mqm/inc\n")
	assert.Contains(t, src, "// #cgo LDFLAGS: -L/opt/mqm/lib64 -lmqm_r\n")
	assert.Contains(t, src, `import "C"`)

	files = generate(t, resolved(t, "9.3.5.1"), mqhome.Resolve("", "windows"))
	src = files[CgoFile]
	assert.Contains(t, src, `'-Ic:/Program Files/IBM/MQ/tools/c/include'`)
	assert.Contains(t, src, "-lmqm\n")
}

func TestGenerateMarkersFile(t *testing.T) {
	cfg := resolved(t, "9.3.0.5")
	src := generate(t, cfg, mqhome.Resolve("", "linux"))[MarkersFile]

	for pattern, want := range map[string]bool{
		`CapMqbno\s+= true`:       true,
		`CapMqwqr4\s+= false`:     true,
		`CapMqcspToken\s+= false`: true,
		`MQC_9_3_0_0\s+= true`:    true,
		`MQC_9_3_1_0\s+= false`:   true,
	} {
		assert.Equal(t, want, regexp.MustCompile(pattern).MatchString(src), pattern)
	}
	assert.Contains(t, src, `const BuildTags = "mqbno,mqc_9_3_0_0"`)
	assert.Equal(t, "mqbno,mqc_9_3_0_0", BuildTags(cfg))
}

func TestGenerateRejectsBadPackage(t *testing.T) {
	_, err := Generate(resolved(t, "9.4.0.0"), mqhome.Resolve("", "linux"), "not-a-package")
	assert.Error(t, err)
}

func TestMarkerIdent(t *testing.T) {
	assert.Equal(t, "CapMqcspToken", MarkerIdent("mqcsp_token"))
	assert.Equal(t, "CapMqbno", MarkerIdent("mqbno"))
	assert.Equal(t, "MQC_9_4_1_0", MarkerIdent("mqc_9_4_1_0"))
}

func TestGenerateRejectsClashingMarkers(t *testing.T) {
	tests := []struct {
		name    string
		markers []string
	}{
		{"underscores collapse", []string{"mq_cno", "mq__cno"}},
		{"camel case", []string{"mq_cno", "mqCno"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := resolved(t, "9.3.5.1")
			cfg.Markers = capability.Markers{Declared: tt.markers}

			_, err := Generate(cfg, mqhome.Resolve("", "linux"), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "both map to constant")
		})
	}

	idents, err := MarkerIdents([]string{"mqbno", "mqc_9_3_0_0"})
	require.NoError(t, err)
	assert.Equal(t, []string{"CapMqbno", "MQC_9_3_0_0"}, idents)
}

func TestWriteAndCheck(t *testing.T) {
	dir := t.TempDir()
	layout := mqhome.Resolve("", "linux")
	files, err := Generate(resolved(t, "9.3.5.1"), layout, "")
	require.NoError(t, err)

	stale, err := Check(dir, files)
	require.NoError(t, err)
	assert.Equal(t, []string{CgoFile, MarkersFile, VersionFile}, stale)

	require.NoError(t, Write(dir, files))
	stale, err = Check(dir, files)
	require.NoError(t, err)
	assert.Empty(t, stale)

	newer, err := Generate(resolved(t, "9.3.0.5"), layout, "")
	require.NoError(t, err)
	stale, err = Check(dir, newer)
	require.NoError(t, err)
	assert.Equal(t, []string{MarkersFile, VersionFile}, stale)

	_, err = os.Stat(filepath.Join(dir, VersionFile))
	assert.NoError(t, err)
}

func TestManifestName(t *testing.T) {
	assert.Equal(t, "mqbuild-amd64-linux.json", ManifestName("linux", "amd64", FormatJSON))
	assert.Equal(t, "mqbuild-any-darwin.toml", ManifestName("darwin", "arm64", FormatTOML))
}

func TestEncodeManifest(t *testing.T) {
	m := Manifest{
		Tool:   version.Info{Version: "dev"},
		Layout: mqhome.Resolve("", "linux"),
		Config: resolved(t, "9.3.5.1"),
	}

	data, err := EncodeManifest(m, FormatJSON)
	require.NoError(t, err)
	var asJSON map[string]any
	require.NoError(t, json.Unmarshal(data, &asJSON))
	cfg := asJSON["config"].(map[string]any)
	assert.Equal(t, "9.3.5.1", cfg["version"])
	assert.Equal(t, "0x09030501", cfg["version_int"])
	assert.Equal(t, "run-1", cfg["run_id"])

	data, err = EncodeManifest(m, FormatYAML)
	require.NoError(t, err)
	var asYAML map[string]any
	require.NoError(t, yaml.Unmarshal(data, &asYAML))
	assert.Equal(t, "9.3.5.1", asYAML["config"].(map[string]any)["version"])

	data, err = EncodeManifest(m, FormatTOML)
	require.NoError(t, err)
	var asTOML map[string]any
	require.NoError(t, toml.Unmarshal(data, &asTOML))
	assert.Equal(t, "9.3.5.1", asTOML["config"].(map[string]any)["version"])

	_, err = EncodeManifest(m, "xml")
	assert.Error(t, err)

	f, err := ManifestFile(m, "amd64", "")
	require.NoError(t, err)
	assert.Equal(t, "mqbuild-amd64-linux.json", f.Name)
}
