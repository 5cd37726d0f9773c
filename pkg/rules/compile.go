package rules

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/isobundle/pkg/chain"
	"github.com/arthur-debert/isobundle/pkg/config"
	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/types"
)

// Compile turns the configured rules of target into typed rules. Include
// and exclude patterns are resolved against root.
func Compile(target types.BuildTarget, root string, cfgs []config.RuleConfig) ([]Rule, error) {
	rules, err := compileList(root, "rules", cfgs)
	if err != nil {
		if be, ok := errors.As(err); ok {
			return nil, be.WithDetail(errors.DetailTarget, string(target))
		}
		return nil, err
	}
	return rules, nil
}

func compileList(root, prefix string, cfgs []config.RuleConfig) ([]Rule, error) {
	rules := make([]Rule, 0, len(cfgs))
	for i, cfg := range cfgs {
		rule, err := compileRule(root, fmt.Sprintf("%s[%d]", prefix, i), cfg)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func compileRule(root, path string, cfg config.RuleConfig) (Rule, error) {
	rule := Rule{Name: cfg.Name, Path: path}
	invalid := func(format string, args ...interface{}) error {
		return errors.Newf(errors.ErrRuleInvalid, format, args...).
			WithDetail(errors.DetailRule, rule.Label())
	}

	hasPredicate := len(cfg.Extensions) > 0 || len(cfg.Types) > 0

	if cfg.IsGroup() {
		if hasPredicate || len(cfg.Chain) > 0 || len(cfg.Include) > 0 || len(cfg.Exclude) > 0 {
			return Rule{}, invalid("a one_of group cannot also carry a predicate, chain or scope")
		}
		children, err := compileList(root, path+".one_of", cfg.OneOf)
		if err != nil {
			return Rule{}, err
		}
		rule.OneOf = children
		return rule, nil
	}

	switch {
	case len(cfg.Extensions) > 0 && len(cfg.Types) > 0:
		return Rule{}, invalid("a rule takes either extensions or types, not both")
	case !hasPredicate:
		return Rule{}, invalid("a rule needs extensions, types or one_of")
	case len(cfg.Chain) == 0:
		return Rule{}, invalid("a rule needs a chain")
	}

	if len(cfg.Extensions) > 0 {
		rule.Predicate = Predicate{Kind: PredicateExtension}
		for _, ext := range cfg.Extensions {
			ext = types.NormalizeExtension(ext)
			if ext == "" || ext == "." || strings.ContainsAny(ext, "/*") {
				return Rule{}, invalid("invalid extension %q", ext)
			}
			rule.Predicate.Values = append(rule.Predicate.Values, ext)
		}
	} else {
		rule.Predicate = Predicate{Kind: PredicateType}
		for _, tag := range cfg.Types {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if !types.IsKnownTypeTag(types.TypeTag(tag)) {
				return Rule{}, invalid("unknown type %q", tag)
			}
			rule.Predicate.Values = append(rule.Predicate.Values, tag)
		}
	}

	scope, err := chain.NewScope(root, cfg.Include, cfg.Exclude)
	if err != nil {
		return Rule{}, withRule(err, rule.Label())
	}
	rule.Chain, err = chain.New(rule.Label(), cfg.Chain, scope)
	if err != nil {
		return Rule{}, withRule(err, rule.Label())
	}

	return rule, nil
}

func withRule(err error, label string) error {
	if be, ok := errors.As(err); ok {
		return be.WithDetail(errors.DetailRule, label)
	}
	return err
}
