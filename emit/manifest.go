package emit

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/teranos/mqbuild/errors"
	"github.com/teranos/mqbuild/mqhome"
	"github.com/teranos/mqbuild/resolve"
	"github.com/teranos/mqbuild/version"
)

// Manifest formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Formats lists the supported manifest formats.
var Formats = []string{FormatJSON, FormatYAML, FormatTOML}

// Manifest records one resolution for later inspection.
type Manifest struct {
	Tool   version.Info    `json:"tool" yaml:"tool" toml:"tool"`
	Layout mqhome.Layout   `json:"layout" yaml:"layout" toml:"layout"`
	Config *resolve.Config `json:"config" yaml:"config" toml:"config"`
}

// ManifestName is mqbuild-<arch>-<os>.<format>. macOS manifests use "any" for
// the architecture.
func ManifestName(goos, goarch, format string) string {
	arch := goarch
	if goos == "darwin" {
		arch = "any"
	}
	return fmt.Sprintf("mqbuild-%s-%s.%s", arch, goos, format)
}

// EncodeManifest renders m in the given format.
func EncodeManifest(m Manifest, format string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "encode json manifest")
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(m)
		if err != nil {
			return nil, errors.Wrap(err, "encode yaml manifest")
		}
		return data, nil
	case FormatTOML:
		data, err := toml.Marshal(m)
		if err != nil {
			return nil, errors.Wrap(err, "encode toml manifest")
		}
		return data, nil
	default:
		return nil, errors.NewInvalidInputError("unknown manifest format %q (want json, yaml or toml)", format)
	}
}

// ManifestFile renders the manifest as a File named for the target platform.
func ManifestFile(m Manifest, goarch, format string) (File, error) {
	if format == "" {
		format = FormatJSON
	}
	data, err := EncodeManifest(m, format)
	if err != nil {
		return File{}, err
	}
	return File{Name: ManifestName(m.Layout.TargetOS, goarch, format), Data: data}, nil
}
