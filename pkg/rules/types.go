package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arthur-debert/isobundle/pkg/chain"
	"github.com/arthur-debert/isobundle/pkg/types"
)

// PredicateKind names what a predicate tests
type PredicateKind string

const (
	PredicateExtension PredicateKind = "extension"
	PredicateType      PredicateKind = "type"
)

// Predicate matches a module when any of its values matches
type Predicate struct {
	Kind   PredicateKind
	Values []string
}

// Matches tests a module reference
func (p Predicate) Matches(ref types.ModuleRef) bool {
	for _, v := range p.Values {
		switch p.Kind {
		case PredicateExtension:
			if ref.Ext == v {
				return true
			}
		case PredicateType:
			if string(ref.Type) == v {
				return true
			}
		}
	}
	return false
}

// Shared returns the values through which p and q can match the same
// module. An extension overlaps a type when the extension maps to it.
func (p Predicate) Shared(q Predicate) []string {
	seen := make(map[string]bool)
	for _, a := range p.Values {
		for _, b := range q.Values {
			switch {
			case p.Kind == q.Kind && a == b:
				seen[a] = true
			case p.Kind == PredicateExtension && q.Kind == PredicateType &&
				string(types.TypeTagForExtension(a)) == b:
				seen[a] = true
			case p.Kind == PredicateType && q.Kind == PredicateExtension &&
				string(types.TypeTagForExtension(b)) == a:
				seen[b] = true
			}
		}
	}

	shared := make([]string, 0, len(seen))
	for v := range seen {
		shared = append(shared, v)
	}
	sort.Strings(shared)
	return shared
}

// String implements fmt.Stringer
func (p Predicate) String() string {
	return fmt.Sprintf("%s in [%s]", p.Kind, strings.Join(p.Values, ", "))
}

// Rule is a leaf (Predicate and Chain) or a group (OneOf)
type Rule struct {
	// Name is the configured name, possibly empty
	Name string
	// Path locates the rule in configuration, like rules[2].one_of[0]
	Path string

	Predicate Predicate
	Chain     *chain.Chain

	OneOf []Rule
}

// IsGroup reports whether the rule holds nested rules
func (r *Rule) IsGroup() bool {
	return len(r.OneOf) > 0
}

// Label names the rule in diagnostics
func (r *Rule) Label() string {
	if r.Name == "" {
		return r.Path
	}
	return r.Name + " (" + r.Path + ")"
}

// TraceEntry records the evaluation of one rule
type TraceEntry struct {
	Path    string `json:"path"`
	Name    string `json:"name,omitempty"`
	Depth   int    `json:"depth"`
	Group   bool   `json:"group,omitempty"`
	Matched bool   `json:"matched"`
	// Detail is the predicate for leaves
	Detail string `json:"detail,omitempty"`
}
