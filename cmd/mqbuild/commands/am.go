package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/mqbuild/am"
	"github.com/teranos/mqbuild/display"
	"github.com/teranos/mqbuild/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage mqbuild configuration",
	Long: `am - Manage mqbuild configuration ("I am")

Display and manage mqbuild configuration settings.

Configuration sources (in order of precedence):
1. Environment variables (MQBUILD_* prefix, then MQ_HOME, GOOS and CC)
2. --config file
3. Project config (mqbuild.toml, searched upwards from the working directory)
4. User config (~/.mqbuild/mqbuild.toml)
5. System config (/etc/mqbuild/mqbuild.toml)
6. Default values

Examples:
  mqbuild am show                    # Show current configuration
  mqbuild am show --format json      # Show configuration in JSON format
  mqbuild am get probe.compiler      # Get specific config value
  mqbuild am where                   # Show where each value came from
  mqbuild am init                    # Write mqbuild.toml with the defaults
  mqbuild am set probe.timeout_seconds 30`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current mqbuild configuration from all sources",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., install.home, probe.timeout_seconds)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Long:  "Validate that the current mqbuild configuration is valid",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	Long: `Show the configuration cascade and the source of every setting:
the built-in default, a config file, or an environment variable.`,
	RunE: runAmWhere,
}

var amInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a project config with the defaults",
	Long: `Write mqbuild.toml in the current directory with every setting at its
default value. An existing file is kept unless --force is given, in which case
it is rotated into .back1..back3 backups.`,
	RunE: runAmInit,
}

var amSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in the project config",
	Long: `Set one key in the project config (the nearest mqbuild.toml, or a new one in
the current directory). List values are comma separated.

Examples:
  mqbuild am set install.home /opt/mqm
  mqbuild am set features.enabled pcf,exits`,
	Args: cobra.ExactArgs(2),
	RunE: runAmSet,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amInitCmd.Flags().Bool("force", false, "Overwrite an existing mqbuild.toml")
	amSetCmd.Flags().String("file", "", "Config file to update (default: project config)")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
	AmCmd.AddCommand(amInitCmd)
	AmCmd.AddCommand(amSetCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig(cmd)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	cfg := loaded.Config
	out := cmd.OutOrStdout()

	format := configFormat
	if display.ShouldOutputJSON(cmd) {
		format = "json"
	}

	switch format {
	case "json":
		return display.OutputJSON(out, cfg)

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(out, "# mqbuild configuration\n%s", string(data))

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(out, "# mqbuild configuration\n%s", string(data))

	default:
		return errors.NewInvalidInputError("unsupported format: %s (supported: toml, json, yaml)", format)
	}

	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	loaded, err := loadConfig(cmd)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if !loaded.IsSet(key) {
		return errors.NewNotFoundError("configuration key %q not found", key)
	}

	value := loaded.Get(key)
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), map[string]interface{}{
			"key":    key,
			"value":  value,
			"source": loaded.Source(key),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	// Load validates; report the error with its hint
	if _, err := loadConfig(cmd); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	loaded, err := loadConfig(cmd)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	intro := loaded.Introspect()

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), intro)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(out, "  1. [DEFAULT]  Built-in defaults")
	fmt.Fprintf(out, "  2. [SYSTEM]   %s\n", am.SystemConfigPath)
	fmt.Fprintln(out, "  3. [USER]     ~/.mqbuild/mqbuild.toml")
	fmt.Fprintln(out, "  4. [PROJECT]  ./mqbuild.toml (searches up directories)")
	fmt.Fprintln(out, "  5. [EXPLICIT] --config")
	fmt.Fprintln(out, "  6. [ENV]      MQBUILD_* variables, MQ_HOME, GOOS, CC")
	fmt.Fprintln(out)

	if len(intro.Files) == 0 {
		fmt.Fprintln(out, "No config files found.")
	} else {
		fmt.Fprintln(out, "Files merged:")
		for _, f := range intro.Files {
			fmt.Fprintf(out, "  %s\n", f)
		}
	}
	fmt.Fprintln(out)

	return display.Settings(out, intro.Settings)
}

func runAmInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "failed to get working directory")
	}
	path := filepath.Join(wd, am.ConfigFileName)

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return errors.WithHint(errors.Newf("%s already exists", path),
			"use --force to overwrite it (the old file is kept as a backup)")
	}

	if err := am.WriteConfig(path, am.DefaultConfig()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
	return nil
}

func runAmSet(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		path = am.FindProjectConfig("")
	}
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "failed to get working directory")
		}
		path = filepath.Join(wd, am.ConfigFileName)
	}

	if err := am.SetValue(path, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s in %s\n", args[0], path)
	return nil
}
