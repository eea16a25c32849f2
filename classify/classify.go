// Package classify assigns a Go integer type to each MQ numeric constant by
// name, using an ordered list of regular expression rules.
package classify

import (
	"regexp"

	"github.com/teranos/mqbuild/errors"
)

// IntKind describes the integer type a constant is emitted as.
type IntKind struct {
	Name   string `json:"name" toml:"name" yaml:"name"`
	Signed bool   `json:"signed" toml:"signed" yaml:"signed"`
	// Bits is the width; 0 means pointer sized.
	Bits int `json:"bits" toml:"bits" yaml:"bits"`
}

// PointerSized reports whether the kind follows the platform pointer width.
func (k IntKind) PointerSized() bool { return k.Bits == 0 }

func (k IntKind) String() string { return k.Name }

// The kinds used by the MQ rule table.
var (
	MQLONG  = IntKind{Name: "MQLONG", Signed: true, Bits: 32}
	MQHMSG  = IntKind{Name: "MQHMSG", Signed: true, Bits: 64}
	MQHOBJ  = IntKind{Name: "MQHOBJ", Signed: true, Bits: 32}
	MQHCONN = IntKind{Name: "MQHCONN", Signed: true, Bits: 32}
	Uintptr = IntKind{Name: "uintptr", Signed: false, Bits: 0}
	Uint32  = IntKind{Name: "uint32", Signed: false, Bits: 32}
)

// Rule pairs regex alternatives with the kind assigned when any matches.
type Rule struct {
	Patterns []string `json:"patterns" toml:"patterns" yaml:"patterns"`
	Kind     IntKind  `json:"kind" toml:"kind" yaml:"kind"`
}

// DefaultRules is the MQ constant rule table. Order is significant: the first
// matching rule wins.
func DefaultRules() []Rule {
	return []Rule{
		{Patterns: []string{`^MQ.*_ERROR$`, `^MQRC_.+`, `^MQRCCF_.+`}, Kind: MQLONG},
		{Patterns: []string{`.+_LENGTH(_.)?`, `.+_LEN$`}, Kind: Uintptr},
		{Patterns: []string{`^MQHM_.+`}, Kind: MQHMSG},
		{Patterns: []string{`^MQHO_.+`}, Kind: MQHOBJ},
		{Patterns: []string{`^MQHC_.+`}, Kind: MQHCONN},
		// Masks are frequently defined outside the int32 range
		{Patterns: []string{`^MQ.+_MASK$`}, Kind: Uint32},
		{Patterns: []string{`^MQ_?[A-Z]{2,12}_.+`}, Kind: MQLONG},
	}
}

type compiledRule struct {
	patterns []*regexp.Regexp
	kind     IntKind
}

// Classifier evaluates a compiled rule table. It is safe for concurrent use.
type Classifier struct {
	rules []compiledRule
}

// New compiles rules, preserving their order.
func New(rules []Rule) (*Classifier, error) {
	c := &Classifier{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		if len(r.Patterns) == 0 {
			return nil, errors.NewInvalidInputError("rule %d has no patterns", i)
		}
		if r.Kind.Name == "" {
			return nil, errors.NewInvalidInputError("rule %d has no kind", i)
		}
		cr := compiledRule{kind: r.Kind}
		for _, p := range r.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, errors.Wrapf(err, "rule %d pattern %q", i, p)
			}
			cr.patterns = append(cr.patterns, re)
		}
		c.rules = append(c.rules, cr)
	}
	return c, nil
}

// Default returns a classifier over DefaultRules.
func Default() *Classifier {
	c, err := New(DefaultRules())
	if err != nil {
		panic(err)
	}
	return c
}

// Classify returns the kind of the first rule matching name. ok is false when
// no rule matches and the generator default applies.
func (c *Classifier) Classify(name string) (IntKind, bool) {
	kind, idx := c.Match(name)
	return kind, idx >= 0
}

// Match is Classify reporting the index of the winning rule, or -1.
func (c *Classifier) Match(name string) (IntKind, int) {
	for i, r := range c.rules {
		for _, re := range r.patterns {
			if re.MatchString(name) {
				return r.kind, i
			}
		}
	}
	return IntKind{}, -1
}

// Func returns Classify as a closure.
func (c *Classifier) Func() func(string) (IntKind, bool) {
	return c.Classify
}
