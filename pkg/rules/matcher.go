package rules

import (
	"github.com/rs/zerolog"

	"github.com/arthur-debert/isobundle/pkg/logging"
	"github.com/arthur-debert/isobundle/pkg/types"
)

// Matcher classifies modules against a compiled rule list. It holds no
// mutable state and is safe for concurrent use.
type Matcher struct {
	rules  []Rule
	logger zerolog.Logger
}

// NewMatcher creates a matcher over rules, evaluated in order
func NewMatcher(rules []Rule) *Matcher {
	return &Matcher{
		rules:  rules,
		logger: logging.GetLogger("rules.matcher"),
	}
}

// Rules returns the compiled rules
func (m *Matcher) Rules() []Rule {
	return m.rules
}

// Match returns the first leaf rule whose predicate matches ref. The
// boolean is false when no rule matches and the module passes through.
func (m *Matcher) Match(ref types.ModuleRef) (*Rule, bool) {
	rule := firstMatch(m.rules, ref, nil, 0)
	if rule == nil {
		m.logger.Trace().Str("module", ref.ID).Msg("No rule matched, passing through")
		return nil, false
	}
	m.logger.Trace().
		Str("module", ref.ID).
		Str("rule", rule.Label()).
		Msg("Module matched rule")
	return rule, true
}

// Explain evaluates ref like Match and records every rule visited
func (m *Matcher) Explain(ref types.ModuleRef) ([]TraceEntry, *Rule) {
	var trace []TraceEntry
	rule := firstMatch(m.rules, ref, &trace, 0)
	return trace, rule
}

func firstMatch(rules []Rule, ref types.ModuleRef, trace *[]TraceEntry, depth int) *Rule {
	for i := range rules {
		rule := &rules[i]

		if rule.IsGroup() {
			if trace != nil {
				*trace = append(*trace, TraceEntry{Path: rule.Path, Name: rule.Name, Depth: depth, Group: true})
			}
			if found := firstMatch(rule.OneOf, ref, trace, depth+1); found != nil {
				return found
			}
			continue
		}

		matched := rule.Predicate.Matches(ref)
		if trace != nil {
			*trace = append(*trace, TraceEntry{
				Path:    rule.Path,
				Name:    rule.Name,
				Depth:   depth,
				Matched: matched,
				Detail:  rule.Predicate.String(),
			})
		}
		if matched {
			return rule
		}
	}
	return nil
}
