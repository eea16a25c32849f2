package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/mqbuild/errors"
)

// SystemConfigPath is the machine-wide configuration file
const SystemConfigPath = "/etc/mqbuild/" + ConfigFileName

// Loader describes where configuration files are looked up.
// Empty fields fall back to the standard locations.
type Loader struct {
	SystemPath string // Defaults to SystemConfigPath
	UserPath   string // Defaults to ~/.mqbuild/mqbuild.toml
	WorkDir    string // Start of the upward project search; defaults to the working directory
	Explicit   string // --config; merged last among files and must exist
	NoSystem   bool   // Skip the system file (tests)
}

// Loaded is the outcome of one configuration load
type Loaded struct {
	Config  *Config
	Viper   *viper.Viper
	Files   []string              // Files merged, lowest precedence first
	sources map[string]SourceInfo // Key -> file that last set it
}

// Load reads the mqbuild configuration using the default Loader
func Load() (*Loaded, error) {
	return Loader{}.Load()
}

// LoadFromFile loads defaults plus a single file, without environment overrides
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	return unmarshal(v)
}

// Load merges defaults, files and environment into a validated Config.
// Precedence (lowest to highest): default < system < user < project < explicit < env
func (l Loader) Load() (*Loaded, error) {
	v := newViper()

	loaded := &Loaded{Viper: v, sources: make(map[string]SourceInfo)}
	for _, f := range l.files() {
		if err := mergeFile(v, f, loaded); err != nil {
			return nil, err
		}
	}

	config, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	loaded.Config = config
	return loaded, nil
}

// newViper initializes Viper with environment binding and defaults
func newViper() *viper.Viper {
	v := viper.New()

	// MQBUILD_PROBE_TIMEOUT_SECONDS -> probe.timeout_seconds
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	BindEnvVars(v)
	SetDefaults(v)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// configFile is one candidate file with its precedence tier
type configFile struct {
	path     string
	source   ConfigSource
	required bool
}

func (l Loader) files() []configFile {
	var files []configFile

	if !l.NoSystem {
		system := l.SystemPath
		if system == "" {
			system = SystemConfigPath
		}
		files = append(files, configFile{path: system, source: SourceSystem})
	}

	user := l.UserPath
	if user == "" {
		user = UserConfigPath()
	}
	if user != "" {
		files = append(files, configFile{path: user, source: SourceUser})
	}

	if project := FindProjectConfig(l.WorkDir); project != "" {
		files = append(files, configFile{path: project, source: SourceProject})
	}

	if l.Explicit != "" {
		files = append(files, configFile{path: l.Explicit, source: SourceExplicit, required: true})
	}
	return files
}

// mergeFile merges one TOML file into v. Files merge into viper's config
// layer, so environment variables keep precedence over every file.
func mergeFile(v *viper.Viper, f configFile, loaded *Loaded) error {
	if _, err := os.Stat(f.path); err != nil {
		if f.required {
			return errors.WithHint(
				errors.NewNotFoundError("config file %s", f.path),
				"check the --config path",
			)
		}
		return nil
	}

	tempViper := viper.New()
	tempViper.SetConfigFile(f.path)
	tempViper.SetConfigType("toml")
	if err := tempViper.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read %s config %s", f.source, f.path)
	}

	if err := v.MergeConfigMap(tempViper.AllSettings()); err != nil {
		return errors.Wrapf(err, "failed to merge %s config %s", f.source, f.path)
	}

	for _, key := range tempViper.AllKeys() {
		loaded.sources[key] = SourceInfo{Source: f.source, Path: f.path}
	}
	loaded.Files = append(loaded.Files, f.path)
	return nil
}

// UserConfigPath returns ~/.mqbuild/mqbuild.toml, or "" without a home directory
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".mqbuild", ConfigFileName)
}

// FindProjectConfig searches for mqbuild.toml by walking up from dir
// (the working directory when empty). Returns "" if none is found.
func FindProjectConfig(dir string) string {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}

// Get returns a configuration value using dot notation
func (l *Loaded) Get(key string) interface{} {
	return l.Viper.Get(key)
}

// IsSet reports whether key is a known configuration key
func (l *Loaded) IsSet(key string) bool {
	return l.Viper.IsSet(key)
}
