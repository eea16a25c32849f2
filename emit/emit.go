// Package emit writes the artifacts downstream Go code consumes: the MQ client
// version constants, the cgo flags, the capability markers and a manifest of
// the resolved configuration.
package emit

import (
	"bytes"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/kballard/go-shellquote"
	"golang.org/x/tools/imports"

	"github.com/teranos/mqbuild/errors"
	"github.com/teranos/mqbuild/mqhome"
	"github.com/teranos/mqbuild/resolve"
)

// Generated file names.
const (
	VersionFile = "version_gen.go"
	CgoFile     = "cgo_gen.go"
	MarkersFile = "markers_gen.go"
)

// DefaultPackage is the package name of generated Go files.
const DefaultPackage = "mqc"

const header = "// Code generated by mqbuild. DO NOT EDIT.\n\n"

var formatOptions = &imports.Options{Comments: true, TabIndent: true, TabWidth: 8, FormatOnly: true}

// File is one generated artifact.
type File struct {
	Name string
	Data []byte
}

// Generate renders the Go files for cfg. pkg defaults to DefaultPackage.
func Generate(cfg *resolve.Config, layout mqhome.Layout, pkg string) ([]File, error) {
	if pkg == "" {
		pkg = DefaultPackage
	}
	if !token.IsIdentifier(pkg) {
		return nil, errors.NewInvalidInputError("invalid package name %q", pkg)
	}

	renderers := []struct {
		name   string
		render func() (string, error)
	}{
		{VersionFile, func() (string, error) { return versionSource(cfg, pkg), nil }},
		{CgoFile, func() (string, error) { return cgoSource(layout, pkg), nil }},
		{MarkersFile, func() (string, error) { return markersSource(cfg, pkg) }},
	}

	files := make([]File, 0, len(renderers))
	for _, r := range renderers {
		src, err := r.render()
		if err != nil {
			return nil, err
		}
		data, err := imports.Process(r.name, []byte(src), formatOptions)
		if err != nil {
			return nil, errors.Wrapf(err, "format %s", r.name)
		}
		files = append(files, File{Name: r.name, Data: data})
	}
	return files, nil
}

func versionSource(cfg *resolve.Config, pkg string) string {
	var sb strings.Builder
	sb.WriteString(header)
	fmt.Fprintf(&sb, "package %s\n\n", pkg)
	sb.WriteString("// ClientBuildVersion is the MQ client version the bindings were generated against.\n")
	fmt.Fprintf(&sb, "const ClientBuildVersion = %q\n\n", cfg.VersionText)
	sb.WriteString("// ClientBuildVersionInt is ClientBuildVersion packed one byte per component.\n")
	fmt.Fprintf(&sb, "const ClientBuildVersionInt uint32 = %s\n", cfg.Version.Hex())
	return sb.String()
}

func cgoSource(layout mqhome.Layout, pkg string) string {
	var sb strings.Builder
	sb.WriteString(header)
	fmt.Fprintf(&sb, "package %s\n\n", pkg)
	fmt.Fprintf(&sb, "// #cgo CFLAGS: %s\n", shellquote.Join("-I"+layout.IncludeDir))
	fmt.Fprintf(&sb, "// #cgo LDFLAGS: %s\n", shellquote.Join("-L"+layout.LibDir, "-l"+layout.LinkLib))
	sb.WriteString("import \"C\"\n")
	return sb.String()
}

func markersSource(cfg *resolve.Config, pkg string) (string, error) {
	idents, err := MarkerIdents(cfg.Markers.Declared)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(header)
	fmt.Fprintf(&sb, "package %s\n\n", pkg)

	if len(cfg.Markers.Declared) > 0 {
		sb.WriteString("// Build markers. Every known marker is declared; only those that apply\n")
		sb.WriteString("// to the installed client are true.\n")
		sb.WriteString("const (\n")
		for i, m := range cfg.Markers.Declared {
			fmt.Fprintf(&sb, "\t%s = %t\n", idents[i], cfg.Markers.IsSet(m))
		}
		sb.WriteString(")\n\n")
	}

	sb.WriteString("// BuildTags lists the set markers, for go build -tags.\n")
	fmt.Fprintf(&sb, "const BuildTags = %q\n", BuildTags(cfg))
	return sb.String(), nil
}

// BuildTags joins the set markers with commas.
func BuildTags(cfg *resolve.Config) string {
	return strings.Join(cfg.Markers.Set, ",")
}

// MarkerIdent maps a marker to its Go constant name: version thresholds keep
// their upper-cased name (MQC_9_3_0_0), capabilities become Cap + CamelCase
// (mqcsp_token -> CapMqcspToken).
func MarkerIdent(marker string) string {
	if strings.HasPrefix(marker, "mqc_") {
		return strings.ToUpper(marker)
	}
	var sb strings.Builder
	sb.WriteString("Cap")
	upper := true
	for _, r := range marker {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// MarkerIdents maps each marker to its constant name, in order. Two markers
// that map to the same name are rejected.
func MarkerIdents(markers []string) ([]string, error) {
	idents := make([]string, len(markers))
	owner := make(map[string]string, len(markers))
	for i, m := range markers {
		id := MarkerIdent(m)
		if prev, ok := owner[id]; ok {
			return nil, errors.WithHint(
				errors.NewInvalidInputError("markers %q and %q both map to constant %s", prev, m, id),
				"rename one of the capabilities in the table")
		}
		owner[id] = m
		idents[i] = id
	}
	return idents, nil
}

// Write stores files in dir, creating it if needed.
func Write(dir string, files []File) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}
	return nil
}

// Check compares files against the copies in dir and returns the names of
// those that are missing or differ, sorted.
func Check(dir string, files []File) ([]string, error) {
	var stale []string
	for _, f := range files {
		existing, err := os.ReadFile(filepath.Join(dir, f.Name))
		if os.IsNotExist(err) {
			stale = append(stale, f.Name)
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", f.Name)
		}
		if !bytes.Equal(existing, f.Data) {
			stale = append(stale, f.Name)
		}
	}
	sort.Strings(stale)
	return stale, nil
}
