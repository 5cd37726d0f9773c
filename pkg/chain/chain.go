package chain

import (
	"github.com/arthur-debert/isobundle/pkg/config"
	"github.com/arthur-debert/isobundle/pkg/errors"
)

// Chain is the ordered list of steps a rule applies
type Chain struct {
	// Name is the owning rule's path, used in diagnostics
	Name  string
	Steps []Step
	Scope Scope
}

// New builds a chain from configuration. Directive steps must stand alone.
func New(name string, steps []config.StepConfig, scope Scope) (*Chain, error) {
	if len(steps) == 0 {
		return nil, errors.New(errors.ErrRuleInvalid, "chain must have at least one step").
			WithDetail(errors.DetailRule, name)
	}

	c := &Chain{Name: name, Scope: scope}
	for _, cfg := range steps {
		step, err := newStep(cfg)
		if err != nil {
			if be, ok := errors.As(err); ok {
				return nil, be.WithDetail(errors.DetailRule, name)
			}
			return nil, err
		}
		c.Steps = append(c.Steps, step)
	}

	if len(c.Steps) > 1 {
		for _, step := range c.Steps {
			if step.Kind.IsDirective() {
				return nil, errors.Newf(errors.ErrRuleInvalid, "step %q must be the only step of its chain", step.Kind).
					WithDetail(errors.DetailRule, name).
					WithDetail(errors.DetailStep, string(step.Kind))
			}
		}
	}

	return c, nil
}

// Directive returns the directive step of the chain, if it is one
func (c *Chain) Directive() (Step, bool) {
	if len(c.Steps) == 1 && c.Steps[0].Kind.IsDirective() {
		return c.Steps[0], true
	}
	return Step{}, false
}

// Kinds lists the step kinds in order
func (c *Chain) Kinds() []Kind {
	kinds := make([]Kind, len(c.Steps))
	for i, s := range c.Steps {
		kinds[i] = s.Kind
	}
	return kinds
}
