// Package mqver models IBM MQ client versions as four byte-sized components
// packed into a single ordered integer.
package mqver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/teranos/mqbuild/errors"
)

var (
	// ErrInvalidVersion is returned when no N.N.N.N pattern is present.
	ErrInvalidVersion = errors.New("invalid MQ version")
	// ErrComponentRange is returned when a component does not fit in a byte.
	ErrComponentRange = errors.New("version component out of range")
	// ErrNotUTF8 is returned when version tool output is not valid UTF-8.
	ErrNotUTF8 = errors.New("version tool output is not valid UTF-8")
	// ErrVersionNotFound is returned when version tool output has no Version: line.
	ErrVersionNotFound = errors.New("could not extract version from version tool output")
	// ErrNotVersionFeature is returned for feature names that are not mqc_A_B_C_D.
	ErrNotVersionFeature = errors.New("not a version feature")
)

var (
	dottedPattern  = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)\.(\d+)`)
	versionLine    = regexp.MustCompile(`(?m)^[ \t]*Version:[ \t]+(.*?)[ \t\r]*$`)
	featurePattern = regexp.MustCompile(`(?i)^mqc_(\d+)_(\d+)_(\d+)_(\d+)$`)
)

// Version is an MQ client version: major.minor.modification.fix.
type Version struct {
	Major uint8
	Minor uint8
	Mod   uint8
	Fix   uint8
}

// New builds a Version from its components.
func New(major, minor, mod, fix uint8) Version {
	return Version{Major: major, Minor: minor, Mod: mod, Fix: fix}
}

// Parse finds the first dotted four-component version in text.
func Parse(text string) (Version, error) {
	m := dottedPattern.FindStringSubmatch(text)
	if m == nil {
		return Version{}, errors.Wrapf(ErrInvalidVersion, "%q", text)
	}
	return fromComponents(text, m[1:])
}

// MustParse is Parse for compiled-in tables. It panics on error.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return v
}

// FromDspmqver extracts and parses the Version: field of dspmqver output.
// It returns the trimmed version text alongside the parsed value.
func FromDspmqver(output []byte) (Version, string, error) {
	if !utf8.Valid(output) {
		return Version{}, "", errors.WithHint(ErrNotUTF8, "check that MQ_HOME points at an MQ client installation")
	}
	m := versionLine.FindSubmatch(output)
	if m == nil {
		return Version{}, "", errors.WithHint(ErrVersionNotFound, "run dspmqver manually and check its output")
	}
	text := string(m[1])
	v, err := Parse(text)
	if err != nil {
		return Version{}, text, err
	}
	return v, text, nil
}

// ParseFeature parses a version feature name such as mqc_9_3_4_0.
func ParseFeature(name string) (Version, error) {
	m := featurePattern.FindStringSubmatch(name)
	if m == nil {
		return Version{}, errors.Wrapf(ErrNotVersionFeature, "%q", name)
	}
	return fromComponents(name, m[1:])
}

// IsFeature reports whether name is a well-formed version feature.
func IsFeature(name string) bool {
	_, err := ParseFeature(name)
	return err == nil
}

func fromComponents(source string, parts []string) (Version, error) {
	var c [4]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return Version{}, errors.Wrapf(ErrComponentRange, "component %q of %q", p, source)
		}
		c[i] = uint8(n)
	}
	return New(c[0], c[1], c[2], c[3]), nil
}

// Encode packs the version one byte per component, most significant first.
func (v Version) Encode() uint32 {
	return uint32(v.Major)<<24 | uint32(v.Minor)<<16 | uint32(v.Mod)<<8 | uint32(v.Fix)
}

// Decode is the inverse of Encode.
func Decode(n uint32) Version {
	return New(uint8(n>>24), uint8(n>>16), uint8(n>>8), uint8(n))
}

// Compare returns -1, 0 or +1 comparing the encoded forms of a and b.
func Compare(a, b Version) int {
	ea, eb := a.Encode(), b.Encode()
	switch {
	case ea < eb:
		return -1
	case ea > eb:
		return 1
	default:
		return 0
	}
}

// AtLeast reports v >= min.
func (v Version) AtLeast(min Version) bool { return Compare(v, min) >= 0 }

// Less reports v < other.
func (v Version) Less(other Version) bool { return Compare(v, other) < 0 }

// IsZero reports whether v is 0.0.0.0.
func (v Version) IsZero() bool { return v == Version{} }

// Max returns the greatest of the given versions, or the zero Version.
func Max(vs ...Version) Version {
	var out Version
	for _, v := range vs {
		if out.Less(v) {
			out = v
		}
	}
	return out
}

// String renders the dotted form, e.g. 9.3.4.1.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Mod, v.Fix)
}

// Hex renders the encoded form as 0x09030401.
func (v Version) Hex() string {
	return fmt.Sprintf("0x%08x", v.Encode())
}

// FeatureName renders the version feature name, e.g. mqc_9_3_4_1.
func (v Version) FeatureName() string {
	return strings.ReplaceAll("mqc_"+v.String(), ".", "_")
}

// MarshalText renders the dotted form.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText accepts the dotted form.
func (v *Version) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
