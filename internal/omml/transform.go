// Package omml converts presentation MathML trees to Office Math Markup.
//
// The mapping is data: a YAML rule set (see assets/transforms) compiled once
// by Load into an immutable Transform. Apply walks a MathML tree and builds a
// fresh OMML tree, so one Transform can serve any number of goroutines.
package omml

import (
	"errors"
	"fmt"
	"slices"

	"github.com/alnah/go-mathocr/internal/yamlutil"
)

// Sentinel errors for rule loading and application.
var (
	ErrInvalidRules    = errors.New("invalid transform rules")
	ErrUnsupportedRoot = errors.New("unsupported root element")
	ErrEmptyTree       = errors.New("empty tree")
)

type ruleKind string

const (
	kindRoot   ruleKind = "root"
	kindGroup  ruleKind = "group"
	kindRun    ruleKind = "run"
	kindStruct ruleKind = "struct"
	kindAccent ruleKind = "accent"
	kindNary   ruleKind = "nary"
	kindLimits ruleKind = "limits"
	kindTable  ruleKind = "table"
	kindFence  ruleKind = "fence"
	kindSkip   ruleKind = "skip"
)

var knownKinds = []ruleKind{
	kindRoot, kindGroup, kindRun, kindStruct, kindAccent,
	kindNary, kindLimits, kindTable, kindFence, kindSkip,
}

// condition selects a rule. Every field that is set must hold.
type condition struct {
	Attr   string `yaml:"attr"`
	Value  string `yaml:"value"`
	BaseIn string `yaml:"baseIn"`
	TextIn string `yaml:"textIn"`
	Fenced bool   `yaml:"fenced"`
}

type prop struct {
	Name string `yaml:"name"`
	Val  string `yaml:"val"`
}

type rule struct {
	When       *condition `yaml:"when"`
	Kind       ruleKind   `yaml:"kind"`
	Element    string     `yaml:"element"`
	Props      []prop     `yaml:"props"`
	Children   []string   `yaml:"children"`
	Order      []string   `yaml:"order"`
	Style      string     `yaml:"style"`
	MultiStyle string     `yaml:"multiStyle"`
}

type variant struct {
	Sty string `yaml:"sty"`
	Scr string `yaml:"scr"`
}

type ruleFile struct {
	Name      string              `yaml:"name"`
	Namespace string              `yaml:"namespace"`
	Prefix    string              `yaml:"prefix"`
	Root      string              `yaml:"root"`
	Sets      map[string][]string `yaml:"sets"`
	Variants  map[string]variant  `yaml:"variants"`
	Elements  map[string][]rule   `yaml:"elements"`
}

// Transform is a compiled rule set. It is immutable after Load.
type Transform struct {
	name      string
	namespace string
	prefix    string
	root      string
	sets      map[string]map[string]bool
	variants  map[string]variant
	elements  map[string][]rule
}

// Load parses and validates a YAML rule set.
func Load(data []byte) (*Transform, error) {
	var f ruleFile
	if err := yamlutil.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}

	t := &Transform{
		name:      f.Name,
		namespace: f.Namespace,
		prefix:    f.Prefix,
		root:      f.Root,
		sets:      make(map[string]map[string]bool, len(f.Sets)),
		variants:  f.Variants,
		elements:  f.Elements,
	}
	for name, members := range f.Sets {
		set := make(map[string]bool, len(members))
		for _, m := range members {
			set[m] = true
		}
		t.sets[name] = set
	}
	return t, nil
}

// Name returns the rule set name.
func (t *Transform) Name() string { return t.name }

// Namespace returns the OMML namespace URI declared on produced roots.
func (t *Transform) Namespace() string { return t.namespace }

func (f *ruleFile) validate() error {
	if f.Namespace == "" || f.Prefix == "" || f.Root == "" {
		return fmt.Errorf("%w: namespace, prefix and root are required", ErrInvalidRules)
	}
	if len(f.Elements) == 0 {
		return fmt.Errorf("%w: no element rules", ErrInvalidRules)
	}

	hasRoot := false
	for elem, rules := range f.Elements {
		if len(rules) == 0 {
			return fmt.Errorf("%w: element %q has no rules", ErrInvalidRules, elem)
		}
		for i, r := range rules {
			if err := f.validateRule(r); err != nil {
				return fmt.Errorf("%w: element %q rule %d: %v", ErrInvalidRules, elem, i, err)
			}
			if r.Kind == kindRoot {
				hasRoot = true
			}
		}
	}
	if !hasRoot {
		return fmt.Errorf("%w: no root rule", ErrInvalidRules)
	}
	return nil
}

func (f *ruleFile) validateRule(r rule) error {
	if !slices.Contains(knownKinds, r.Kind) {
		return fmt.Errorf("unknown kind %q", r.Kind)
	}
	if r.When != nil {
		for _, set := range []string{r.When.BaseIn, r.When.TextIn} {
			if set == "" {
				continue
			}
			if _, ok := f.Sets[set]; !ok {
				return fmt.Errorf("unknown set %q", set)
			}
		}
	}

	switch r.Kind {
	case kindStruct:
		if r.Element == "" {
			return errors.New("struct rule needs an element")
		}
		if len(r.Children) == 0 {
			return errors.New("struct rule needs children")
		}
		if len(r.Order) > 0 {
			if len(r.Order) != len(r.Children) {
				return errors.New("order must list every child")
			}
			for _, o := range r.Order {
				if !slices.Contains(r.Children, o) {
					return fmt.Errorf("order names unknown child %q", o)
				}
			}
		}
	case kindNary:
		if len(r.Children) > 0 && r.Children[0] != "chr" {
			return errors.New(`nary children must start with "chr"`)
		}
		for _, c := range r.Children[min(1, len(r.Children)):] {
			if c != "sub" && c != "sup" {
				return fmt.Errorf("nary child %q must be sub or sup", c)
			}
		}
	}
	return nil
}
