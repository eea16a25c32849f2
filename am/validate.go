package am

import (
	"go/token"
	"slices"

	"github.com/teranos/mqbuild/errors"
)

// ManifestFormats lists the accepted output.manifest_format values
var ManifestFormats = []string{"json", "yaml", "toml"}

// LogThemes lists the accepted log.theme values
var LogThemes = []string{"everforest", "gruvbox", "none"}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Feature prefix: an empty prefix would turn every environment variable into a flag
	if c.Features.Prefix == "" {
		return errors.NewInvalidInputError("features.prefix cannot be empty")
	}

	// Probe timeout: 0 = no timeout, negative = invalid
	if c.Probe.TimeoutSeconds < 0 {
		return errors.NewInvalidInputError("probe.timeout_seconds must be >= 0, got %d", c.Probe.TimeoutSeconds)
	}
	if !c.Probe.Disabled && c.Probe.Compiler == "" {
		return errors.NewInvalidInputError("probe.compiler cannot be empty when probing is enabled")
	}

	if c.Output.Dir == "" {
		return errors.NewInvalidInputError("output.dir cannot be empty")
	}
	if !token.IsIdentifier(c.Output.Package) {
		return errors.NewInvalidInputError("output.package must be a Go identifier, got %q", c.Output.Package)
	}
	if !slices.Contains(ManifestFormats, c.Output.ManifestFormat) {
		return errors.WithHintf(
			errors.NewInvalidInputError("output.manifest_format %q is not supported", c.Output.ManifestFormat),
			"use one of %v", ManifestFormats,
		)
	}

	if !slices.Contains(LogThemes, c.Log.Theme) {
		return errors.WithHintf(
			errors.NewInvalidInputError("log.theme %q is not supported", c.Log.Theme),
			"use one of %v", LogThemes,
		)
	}

	if c.Table.Source != "" && c.Table.CacheDir == "" {
		return errors.NewInvalidInputError("table.cache_dir cannot be empty when table.source is set")
	}

	return nil
}
