package rules

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/logging"
)

// Overlap describes a later rule shadowed by an earlier one for some
// extensions or types
type Overlap struct {
	First  *Rule
	Second *Rule
	Shared []string
}

// String implements fmt.Stringer
func (o Overlap) String() string {
	return fmt.Sprintf("%s shadows %s for %s", o.First.Label(), o.Second.Label(), strings.Join(o.Shared, ", "))
}

// Validate checks that no two leaf rules can match the same module. Leaves
// are compared in evaluation order across groups. With strict set the
// first overlap is an error; otherwise overlaps are logged as warnings and
// declaration order decides.
func Validate(rules []Rule, strict bool) ([]Overlap, error) {
	leaves := flatten(rules, nil)

	var overlaps []Overlap
	for i := 0; i < len(leaves); i++ {
		for j := i + 1; j < len(leaves); j++ {
			shared := leaves[i].Predicate.Shared(leaves[j].Predicate)
			if len(shared) > 0 {
				overlaps = append(overlaps, Overlap{First: leaves[i], Second: leaves[j], Shared: shared})
			}
		}
	}

	if len(overlaps) == 0 {
		return nil, nil
	}

	if strict {
		o := overlaps[0]
		return overlaps, errors.Newf(errors.ErrRuleAmbiguous, "ambiguous rules: %s", o).
			WithDetail(errors.DetailRule, o.Second.Label()).
			WithDetail("shadowed_by", o.First.Label()).
			WithDetail("shared", strings.Join(o.Shared, ","))
	}

	logger := logging.GetLogger("rules.validate")
	for _, o := range overlaps {
		logger.Warn().
			Str("rule", o.Second.Label()).
			Str("shadowed_by", o.First.Label()).
			Strs("shared", o.Shared).
			Msg("Rule is partly unreachable, first match wins")
	}
	return overlaps, nil
}

func flatten(rules []Rule, out []*Rule) []*Rule {
	for i := range rules {
		if rules[i].IsGroup() {
			out = flatten(rules[i].OneOf, out)
			continue
		}
		out = append(out, &rules[i])
	}
	return out
}
