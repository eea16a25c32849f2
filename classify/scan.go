package classify

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/teranos/mqbuild/errors"
)

// Define is an integer #define found in a header.
type Define struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Line  int    `json:"line"`
}

var defineLine = regexp.MustCompile(`^\s*#\s*define\s+([A-Za-z_][A-Za-z0-9_]*)\s+\(?\s*(-?(?:0[xX][0-9A-Fa-f]+|\d+)[uUlL]*)\s*\)?\s*(?:/\*.*)?$`)

// ScanDefines lists the integer-valued object-like macros in a C header.
// Function-like macros, string and expression values are skipped.
func ScanDefines(r io.Reader) ([]Define, error) {
	var out []Define
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		m := defineLine.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		out = append(out, Define{Name: m[1], Value: m[2], Line: line})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "scan header")
	}
	return out, nil
}

// Classified is a define with its assigned kind.
type Classified struct {
	Define
	Kind IntKind `json:"kind"`
	// Rule is the index of the winning rule, -1 for no opinion.
	Rule int `json:"rule"`
}

// ClassifyAll classifies each define in order.
func (c *Classifier) ClassifyAll(defs []Define) []Classified {
	out := make([]Classified, 0, len(defs))
	for _, d := range defs {
		kind, idx := c.Match(d.Name)
		out = append(out, Classified{Define: d, Kind: kind, Rule: idx})
	}
	return out
}
