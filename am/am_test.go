package am

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/mqbuild/errors"
)

// clearEnv blanks every variable that could leak into a load
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"MQ_HOME", "GOOS", "CC",
		"MQBUILD_INSTALL_HOME", "MQBUILD_INSTALL_TARGET_OS", "MQBUILD_PROBE_COMPILER",
		"MQBUILD_PROBE_TIMEOUT_SECONDS", "MQBUILD_OUTPUT_PACKAGE", "MQBUILD_FEATURES_ENABLED",
	} {
		t.Setenv(name, "")
	}
}

// isolatedLoader skips the system file and points the user file into dir
func isolatedLoader(dir string) Loader {
	return Loader{
		NoSystem: true,
		UserPath: filepath.Join(dir, "user", ConfigFileName),
		WorkDir:  filepath.Join(dir, "project"),
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "project"), 0755))

	loaded, err := isolatedLoader(dir).Load()
	require.NoError(t, err)

	c := loaded.Config
	assert.Equal(t, "MQBUILD_FEATURE_", c.Features.Prefix)
	assert.Empty(t, c.Features.Enabled)
	assert.Equal(t, "cc", c.Probe.Compiler)
	assert.Equal(t, 0, c.Probe.TimeoutSeconds)
	assert.False(t, c.Probe.Disabled)
	assert.Equal(t, "mqc", c.Output.Package)
	assert.Equal(t, "json", c.Output.ManifestFormat)
	assert.True(t, c.Output.Manifest)
	assert.Equal(t, "everforest", c.Log.Theme)
	assert.Empty(t, loaded.Files)
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	l := isolatedLoader(dir)

	writeFile(t, l.UserPath, `
[probe]
compiler = "gcc"
timeout_seconds = 10

[output]
package = "userpkg"
`)
	writeFile(t, filepath.Join(dir, "project", ConfigFileName), `
[probe]
timeout_seconds = 30

[features]
enabled = ["pcf", "exits"]
`)

	loaded, err := l.Load()
	require.NoError(t, err)

	c := loaded.Config
	assert.Equal(t, "gcc", c.Probe.Compiler, "user file applies")
	assert.Equal(t, 30, c.Probe.TimeoutSeconds, "project beats user")
	assert.Equal(t, "userpkg", c.Output.Package, "user file keeps keys project leaves alone")
	assert.Equal(t, []string{"pcf", "exits"}, c.Features.Enabled)
	assert.Len(t, loaded.Files, 2)
}

func TestEnvironmentBeatsFiles(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	l := isolatedLoader(dir)
	writeFile(t, filepath.Join(dir, "project", ConfigFileName), `
[install]
home = "/from/file"

[probe]
compiler = "gcc"
timeout_seconds = 30
`)
	t.Setenv("MQ_HOME", "/from/env")
	t.Setenv("MQBUILD_PROBE_TIMEOUT_SECONDS", "5")

	loaded, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "/from/env", loaded.Config.Install.Home)
	assert.Equal(t, 5, loaded.Config.Probe.TimeoutSeconds)
	assert.Equal(t, "gcc", loaded.Config.Probe.Compiler)

	assert.Equal(t, SourceInfo{Source: SourceEnvironment, Path: "MQ_HOME"}, loaded.Source("install.home"))
	assert.Equal(t, SourceEnvironment, loaded.Source("probe.timeout_seconds").Source)
	assert.Equal(t, SourceProject, loaded.Source("probe.compiler").Source)
	assert.Equal(t, SourceDefault, loaded.Source("output.dir").Source)
}

func TestPrefixedNameBeatsBoundName(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("CC", "clang")
	t.Setenv("MQBUILD_PROBE_COMPILER", "gcc-13")

	loaded, err := isolatedLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, "gcc-13", loaded.Config.Probe.Compiler)
	assert.Equal(t, "MQBUILD_PROBE_COMPILER", loaded.Source("probe.compiler").Path)
}

func TestProjectConfigFoundWalkingUp(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), "")
	nested := filepath.Join(dir, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found := FindProjectConfig(nested)
	want, err := filepath.Abs(filepath.Join(dir, ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, want, found)
}

func TestExplicitConfigMustExist(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	l := isolatedLoader(dir)
	l.Explicit = filepath.Join(dir, "missing.toml")

	_, err := l.Load()
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestMalformedFileIsAnError(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	l := isolatedLoader(dir)
	writeFile(t, l.UserPath, "[probe\ncompiler = ")

	_, err := l.Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	l := isolatedLoader(dir)
	writeFile(t, filepath.Join(dir, "project", ConfigFileName), `
[probe]
timeout_seconds = -1
`)

	_, err := l.Load()
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInputError(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"negative timeout", func(c *Config) { c.Probe.TimeoutSeconds = -5 }, false},
		{"zero timeout", func(c *Config) { c.Probe.TimeoutSeconds = 0 }, true},
		{"empty prefix", func(c *Config) { c.Features.Prefix = "" }, false},
		{"unknown manifest format", func(c *Config) { c.Output.ManifestFormat = "xml" }, false},
		{"yaml manifest", func(c *Config) { c.Output.ManifestFormat = "yaml" }, true},
		{"bad package", func(c *Config) { c.Output.Package = "my-pkg" }, false},
		{"empty output dir", func(c *Config) { c.Output.Dir = "" }, false},
		{"unknown theme", func(c *Config) { c.Log.Theme = "solarized" }, false},
		{"empty compiler", func(c *Config) { c.Probe.Compiler = "" }, false},
		{"empty compiler when disabled", func(c *Config) {
			c.Probe.Compiler = ""
			c.Probe.Disabled = true
		}, true},
		{"remote table without cache", func(c *Config) {
			c.Table.Source = "https://example.com/table.toml"
			c.Table.CacheDir = ""
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.IsInvalidInputError(err), "got %v", err)
			}
		})
	}
}

func TestIntrospectReportsSources(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	l := isolatedLoader(dir)
	writeFile(t, l.UserPath, `
[output]
manifest_format = "yaml"
`)
	t.Setenv("GOOS", "windows")

	loaded, err := l.Load()
	require.NoError(t, err)
	info := loaded.Introspect()

	byKey := make(map[string]SettingInfo)
	for _, s := range info.Settings {
		byKey[s.Key] = s
	}

	assert.Equal(t, SourceUser, byKey["output.manifest_format"].Source)
	assert.Equal(t, l.UserPath, byKey["output.manifest_format"].SourcePath)
	assert.Equal(t, "windows", byKey["install.target_os"].Value)
	assert.Equal(t, "GOOS", byKey["install.target_os"].SourcePath)
	assert.Equal(t, SourceDefault, byKey["probe.compiler"].Source)

	summary := info.Summary()
	assert.Equal(t, 1, summary[SourceUser])
	assert.Equal(t, 1, summary[SourceEnvironment])
	assert.Equal(t, len(info.Settings)-2, summary[SourceDefault])
}

func TestWriteConfigRotatesBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	for i := 0; i < 5; i++ {
		c := DefaultConfig()
		c.Probe.TimeoutSeconds = i
		require.NoError(t, WriteConfig(path, c))
	}

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Probe.TimeoutSeconds)

	for _, suffix := range []string{".back1", ".back2", ".back3"} {
		assert.FileExists(t, path+suffix)
	}
	assert.NoFileExists(t, path+".back4")

	oldest, err := LoadFromFile(path + ".back3")
	require.NoError(t, err)
	assert.Equal(t, 1, oldest.Probe.TimeoutSeconds)
}

func TestWriteConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	c := DefaultConfig()
	c.Output.ManifestFormat = "xml"

	assert.Error(t, WriteConfig(path, c))
	assert.NoFileExists(t, path)
}

func TestSetValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	require.NoError(t, SetValue(path, "probe.timeout_seconds", "15"))
	require.NoError(t, SetValue(path, "probe.disabled", "true"))
	require.NoError(t, SetValue(path, "features.enabled", "pcf, exits"))
	require.NoError(t, SetValue(path, "install.home", "/opt/custom/mqm"))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Probe.TimeoutSeconds)
	assert.True(t, got.Probe.Disabled)
	assert.Equal(t, []string{"pcf", "exits"}, got.Features.Enabled)
	assert.Equal(t, "/opt/custom/mqm", got.Install.Home)
	assert.Equal(t, "cc", got.Probe.Compiler)
}

func TestSetValueRejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	err := SetValue(path, "probe.colour", "red")
	assert.True(t, errors.IsInvalidInputError(err))
	assert.NotEmpty(t, errors.GetAllHints(err))

	assert.Error(t, SetValue(path, "probe.timeout_seconds", "soon"))
	assert.Error(t, SetValue(path, "probe.timeout_seconds", "-3"))
	assert.Error(t, SetValue(path, "probe.disabled", "maybe"))
	assert.NoFileExists(t, path)
}

func TestIsBackupFile(t *testing.T) {
	assert.True(t, isBackupFile("/x/mqbuild.toml.back1"))
	assert.True(t, isBackupFile("mqbuild.toml.back3"))
	assert.False(t, isBackupFile("mqbuild.toml"))
	assert.False(t, isBackupFile("mqbuild.toml.backup"))
}

func TestWatcherReloadsOnChange(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	l := isolatedLoader(dir)
	project := filepath.Join(dir, "project", ConfigFileName)
	writeFile(t, project, "[probe]\ntimeout_seconds = 1\n")

	cw, err := NewConfigWatcher(l, []string{project}, nil)
	require.NoError(t, err)
	cw.SetDebounce(20 * time.Millisecond)

	reloaded := make(chan int, 4)
	cw.OnReload(func(loaded *Loaded) error {
		reloaded <- loaded.Config.Probe.TimeoutSeconds
		return nil
	})
	cw.Start()
	defer cw.Stop()

	require.NoError(t, os.WriteFile(project, []byte("[probe]\ntimeout_seconds = 9\n"), 0644))

	select {
	case got := <-reloaded:
		assert.Equal(t, 9, got)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}
}

func TestWatcherSkipsOwnWrites(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	l := isolatedLoader(dir)
	project := filepath.Join(dir, "project", ConfigFileName)
	writeFile(t, project, "")

	cw, err := NewConfigWatcher(l, []string{project}, nil)
	require.NoError(t, err)
	cw.SetDebounce(20 * time.Millisecond)

	cw.MarkOwnWrite()
	assert.True(t, cw.checkOwnWrite())
	assert.False(t, cw.checkOwnWrite(), "flag clears after one use")
	require.NoError(t, cw.Stop())
}

func TestNewConfigWatcherNeedsPaths(t *testing.T) {
	_, err := NewConfigWatcher(Loader{}, nil, nil)
	assert.True(t, errors.IsInvalidInputError(err))
}
