// Package am loads mqbuild configuration: built-in defaults, TOML files from
// the system, the user and the project, then environment overrides.
package am

// Config represents the mqbuild configuration
type Config struct {
	Install  InstallConfig  `mapstructure:"install" toml:"install"`
	Features FeaturesConfig `mapstructure:"features" toml:"features"`
	Probe    ProbeConfig    `mapstructure:"probe" toml:"probe"`
	Table    TableConfig    `mapstructure:"table" toml:"table"`
	Output   OutputConfig   `mapstructure:"output" toml:"output"`
	Log      LogConfig      `mapstructure:"log" toml:"log"`
}

// InstallConfig locates the MQ client installation
type InstallConfig struct {
	Home     string `mapstructure:"home" toml:"home"`           // MQ_HOME; empty = platform default
	TargetOS string `mapstructure:"target_os" toml:"target_os"` // GOOS; empty = host OS
}

// FeaturesConfig controls which capability groups are requested
type FeaturesConfig struct {
	Prefix  string   `mapstructure:"prefix" toml:"prefix"`   // Environment flag prefix (default: MQBUILD_FEATURE_)
	Enabled []string `mapstructure:"enabled" toml:"enabled"` // Always-on features, merged with environment flags
}

// ProbeConfig configures compile probing
type ProbeConfig struct {
	Compiler       string   `mapstructure:"compiler" toml:"compiler"`               // CC; split shell-style
	Flags          []string `mapstructure:"flags" toml:"flags"`                     // Extra compiler flags
	TimeoutSeconds int      `mapstructure:"timeout_seconds" toml:"timeout_seconds"` // 0 = no timeout
	Disabled       bool     `mapstructure:"disabled" toml:"disabled"`               // Skip compilation, all probes absent
}

// TableConfig selects the resolution tables
type TableConfig struct {
	Path     string `mapstructure:"path" toml:"path"`           // Local TOML table; empty = built-in
	Source   string `mapstructure:"source" toml:"source"`       // Remote table (go-getter source); overrides path
	CacheDir string `mapstructure:"cache_dir" toml:"cache_dir"` // Where fetched tables are stored
}

// OutputConfig configures generated artifacts
type OutputConfig struct {
	Dir            string `mapstructure:"dir" toml:"dir"`                         // Directory for generated Go files
	Package        string `mapstructure:"package" toml:"package"`                 // Package name of generated Go files
	Manifest       bool   `mapstructure:"manifest" toml:"manifest"`               // Write a manifest next to generated files
	ManifestFormat string `mapstructure:"manifest_format" toml:"manifest_format"` // json, yaml or toml
}

// LogConfig configures console logging
type LogConfig struct {
	Theme string `mapstructure:"theme" toml:"theme"` // everforest, gruvbox, none
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// Config file names
const (
	ConfigFileName = "mqbuild.toml"
	EnvPrefix      = "MQBUILD"
)
