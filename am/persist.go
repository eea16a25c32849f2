package am

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/teranos/mqbuild/errors"
)

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	// Rotate backups: .back3 -> delete, .back2 -> .back3, .back1 -> .back2, current -> .back1
	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to delete old backup %s", back3)
	}

	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	config, err := unmarshal(v)
	if err != nil {
		// Defaults are static; failing to decode them is a programming error
		panic(err)
	}
	return config
}

// WriteConfig writes config as TOML to configPath, rotating any existing file into backups
func WriteConfig(configPath string, config *Config) error {
	if err := config.Validate(); err != nil {
		return errors.Wrap(err, "refusing to write invalid config")
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	return saveFile(configPath, data)
}

// SetValue updates a single key in the TOML file at configPath, creating the
// file if needed. The raw value is converted to the key's type.
func SetValue(configPath, key, raw string) error {
	key = strings.ToLower(key)
	value, err := convertValue(key, raw)
	if err != nil {
		return err
	}

	config, err := readFileMap(configPath)
	if err != nil {
		return err
	}
	setNested(config, strings.Split(key, "."), value)

	// Validate the file as it will be read back
	v := viper.New()
	SetDefaults(v)
	if err := v.MergeConfigMap(config); err != nil {
		return errors.Wrap(err, "failed to merge updated config")
	}
	merged, err := unmarshal(v)
	if err != nil {
		return err
	}
	if err := merged.Validate(); err != nil {
		return errors.Wrapf(err, "refusing to set %s", key)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	return saveFile(configPath, data)
}

// convertValue parses raw according to the type of key's default value
func convertValue(key, raw string) (interface{}, error) {
	v := viper.New()
	SetDefaults(v)
	if !v.IsSet(key) {
		return nil, errors.WithHint(
			errors.NewInvalidInputError("unknown configuration key %q", key),
			"run 'mqbuild am show' to list keys",
		)
	}

	switch v.Get(key).(type) {
	case bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.NewInvalidInputError("%s expects a boolean, got %q", key, raw)
		}
		return b, nil
	case int:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.NewInvalidInputError("%s expects an integer, got %q", key, raw)
		}
		return n, nil
	case []string:
		if strings.TrimSpace(raw) == "" {
			return []string{}, nil
		}
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	default:
		return raw, nil
	}
}

func readFileMap(configPath string) (map[string]interface{}, error) {
	config := make(map[string]interface{})
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", configPath)
	}
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", configPath)
	}
	return config, nil
}

func setNested(m map[string]interface{}, path []string, value interface{}) {
	for _, section := range path[:len(path)-1] {
		next, ok := m[section].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			m[section] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

// saveFile writes data with a backup, marking the write so a running watcher skips it
func saveFile(configPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(configPath), DefaultDirPermissions); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	globalWatcherMu.Lock()
	if globalWatcher != nil {
		globalWatcher.MarkOwnWrite()
	}
	globalWatcherMu.Unlock()

	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", configPath)
	}
	return nil
}
