// Package validate checks an intent against a design model with a caller
// supplied set of enabled constraints.
package validate

import (
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/resolver"
)

// Result is the non-renderable outcome of validation.
type Result struct {
	Valid              bool                       `json:"valid"`
	Violations         []domain.Violation         `json:"violations"`
	AppliedConstraints []domain.AppliedConstraint `json:"appliedConstraints"`
}

// Effective overlays boolean flags on base and returns a new constraint set.
// A flag switching a numeric rule on keeps the configured value when there
// is one and falls back to the canonical value otherwise. A false flag
// removes a numeric rule.
func Effective(base domain.ConstraintSet, enabled map[string]bool) domain.ConstraintSet {
	out := base.Clone()
	for id, on := range enabled {
		kind, known := domain.KnownRules[id]
		if !known {
			kind = domain.RuleToggle
			if r, ok := base.Rules[id]; ok {
				kind = r.Kind
			}
		}
		switch kind {
		case domain.RuleToggle:
			out.Rules[id] = domain.Toggle(on)
		case domain.RuleNumeric:
			if !on {
				delete(out.Rules, id)
				continue
			}
			if r, ok := base.Rules[id]; ok && r.IsNumeric() {
				continue
			}
			v, ok := domain.CanonicalValues[id]
			if !ok {
				v = 1
			}
			out.Rules[id] = domain.Numeric(v)
		}
	}
	return out
}

// EffectiveModel returns a shallow copy of m whose constraint set has the
// flags applied. Tokens and contracts are shared read-only.
func EffectiveModel(m *domain.DesignModel, enabled map[string]bool) *domain.DesignModel {
	return &domain.DesignModel{
		Tokens:      m.Tokens,
		Contracts:   m.Contracts,
		Constraints: Effective(m.Constraints, enabled),
	}
}

// Validate resolves in against the effective model and keeps only the
// violations. Every violation raised by a named constraint is reported as a
// triggered AppliedConstraint.
func Validate(in domain.Intent, enabled map[string]bool, m *domain.DesignModel) Result {
	view := resolver.Resolve(in, EffectiveModel(m, enabled))
	res := Result{
		Valid:              len(view.Violations) == 0,
		Violations:         view.Violations,
		AppliedConstraints: []domain.AppliedConstraint{},
	}
	for _, v := range view.Violations {
		if v.ConstraintID == "" {
			continue
		}
		res.AppliedConstraints = append(res.AppliedConstraints, domain.AppliedConstraint{
			ID:      v.ConstraintID,
			Scope:   domain.ScopeView,
			Status:  domain.StatusTriggered,
			Message: v.Message,
			Targets: v.NodeIDs,
		})
	}
	return res
}
