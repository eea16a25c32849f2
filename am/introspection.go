package am

import (
	"os"
	"sort"
	"strings"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/mqbuild/mqbuild.toml
	SourceUser        ConfigSource = "user"        // ~/.mqbuild/mqbuild.toml
	SourceProject     ConfigSource = "project"     // mqbuild.toml found walking up
	SourceExplicit    ConfigSource = "explicit"    // --config
	SourceEnvironment ConfigSource = "environment" // MQBUILD_*, MQ_HOME, GOOS, CC
)

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key" yaml:"key"`
	Value      interface{}  `json:"value" yaml:"value"`
	Source     ConfigSource `json:"source" yaml:"source"`
	SourcePath string       `json:"source_path,omitempty" yaml:"source_path,omitempty"` // File path or env var name
}

// ConfigIntrospection provides metadata about the active configuration
type ConfigIntrospection struct {
	Files    []string      `json:"files" yaml:"files"`       // Files merged, lowest precedence first
	Settings []SettingInfo `json:"settings" yaml:"settings"` // All settings with sources
}

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource `json:"source"`
	Path   string       `json:"path"` // File path or environment variable name
}

// Introspect reports every effective setting and the source that set it
func (l *Loaded) Introspect() *ConfigIntrospection {
	introspection := &ConfigIntrospection{
		Files:    append([]string(nil), l.Files...),
		Settings: make([]SettingInfo, 0),
	}
	flattenSettingsWithSources(l.Viper.AllSettings(), "", introspection, l.sources)
	return introspection
}

// Source returns where key was set
func (l *Loaded) Source(key string) SourceInfo {
	key = strings.ToLower(key)
	if env, ok := envSource(key); ok {
		return SourceInfo{Source: SourceEnvironment, Path: env}
	}
	if si, ok := l.sources[key]; ok {
		return si
	}
	return SourceInfo{Source: SourceDefault, Path: "built-in default"}
}

// Summary counts settings per source
func (c *ConfigIntrospection) Summary() map[ConfigSource]int {
	counts := make(map[ConfigSource]int)
	for _, s := range c.Settings {
		counts[s.Source]++
	}
	return counts
}

// flattenSettingsWithSources flattens settings and assigns sources from sourceMap
func flattenSettingsWithSources(settings map[string]interface{}, prefix string, introspection *ConfigIntrospection, sourceMap map[string]SourceInfo) {
	// Sort keys for deterministic iteration
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := settings[key]
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nestedMap, ok := value.(map[string]interface{}); ok {
			flattenSettingsWithSources(nestedMap, fullKey, introspection, sourceMap)
			continue
		}

		sourceInfo := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := sourceMap[fullKey]; ok {
			sourceInfo = si
		}
		if env, ok := envSource(fullKey); ok {
			sourceInfo = SourceInfo{Source: SourceEnvironment, Path: env}
		}

		introspection.Settings = append(introspection.Settings, SettingInfo{
			Key:        fullKey,
			Value:      value,
			Source:     sourceInfo.Source,
			SourcePath: sourceInfo.Path,
		})
	}
}

// envSource returns the environment variable that overrides key, if any.
// Lookup order matches viper: the MQBUILD_ name, then the bound name.
// Empty variables are ignored, as viper ignores them.
func envSource(key string) (string, bool) {
	names := []string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
	if bound, ok := boundEnv[key]; ok {
		names = append(names, bound)
	}
	for _, name := range names {
		if os.Getenv(name) != "" {
			return name, true
		}
	}
	return "", false
}
