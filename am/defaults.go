package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Install defaults: empty means the platform default chosen by mqhome
	v.SetDefault("install.home", "")
	v.SetDefault("install.target_os", "")

	// Feature defaults
	v.SetDefault("features.prefix", "MQBUILD_FEATURE_")
	v.SetDefault("features.enabled", []string{})

	// Probe defaults
	v.SetDefault("probe.compiler", "cc")
	v.SetDefault("probe.flags", []string{})
	v.SetDefault("probe.timeout_seconds", 0) // Matches the build: no timeout
	v.SetDefault("probe.disabled", false)

	// Table defaults
	v.SetDefault("table.path", "")
	v.SetDefault("table.source", "")
	v.SetDefault("table.cache_dir", ".mqbuild")

	// Output defaults
	v.SetDefault("output.dir", "mqc")
	v.SetDefault("output.package", "mqc")
	v.SetDefault("output.manifest", true)
	v.SetDefault("output.manifest_format", "json")

	// Log defaults
	v.SetDefault("log.theme", "everforest")
}

// boundEnv maps keys to the conventional build variables that set them.
// MQBUILD_* names are read first through AutomaticEnv.
var boundEnv = map[string]string{
	"install.home":      "MQ_HOME",
	"install.target_os": "GOOS",
	"probe.compiler":    "CC",
}

// BindEnvVars binds the conventional build variables
func BindEnvVars(v *viper.Viper) {
	for key, env := range boundEnv {
		v.BindEnv(key, env)
	}
}
