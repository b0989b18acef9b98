// Package fix turns constraint violations into patch suggestions.
package fix

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
)

// Fix is the repair proposed for one constraint.
type Fix struct {
	ConstraintID      string                   `json:"constraintId"`
	Patches           []domain.PatchOperation  `json:"patches"`
	Decisions         []domain.Decision        `json:"decisions"`
	AppliedConstraint domain.AppliedConstraint `json:"appliedConstraint"`
}

type repairFunc func(s *Suggester, in domain.Intent, v domain.Violation) Fix

// Suggester maps constraint ids to repair functions. It never applies
// patches itself.
type Suggester struct {
	strategy Strategy
	repairs  map[string]repairFunc
}

// NewSuggester returns a suggester using strategy, or SecondPrimary when nil.
func NewSuggester(strategy Strategy) *Suggester {
	if strategy == nil {
		strategy = SecondPrimary
	}
	return &Suggester{
		strategy: strategy,
		repairs: map[string]repairFunc{
			domain.RuleOnlyOnePrimaryPerView:    demotePrimary,
			domain.RuleMaxPrimaryButtonsPerView: demotePrimary,
		},
	}
}

// Suggest returns one Fix per distinct constraint id among violations, in
// the order the ids first appear. Schema violations carry no constraint id
// and are ignored. A constraint the caller explicitly disabled, or one with
// no registered repair, yields a skipped record without patches.
func (s *Suggester) Suggest(in domain.Intent, violations []domain.Violation, enabled map[string]bool) []Fix {
	fixes := []Fix{}
	seen := map[string]bool{}
	for _, v := range violations {
		id := v.ConstraintID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		if on, set := enabled[id]; set && !on {
			fixes = append(fixes, skipped(v, "constraint is disabled"))
			continue
		}
		repair, ok := s.repairs[id]
		if !ok {
			fixes = append(fixes, skipped(v, "no repair strategy registered"))
			continue
		}
		fixes = append(fixes, repair(s, in, v))
	}
	return fixes
}

// Flatten concatenates the patches of all fixes in order.
func Flatten(fixes []Fix) []domain.PatchOperation {
	out := []domain.PatchOperation{}
	for _, f := range fixes {
		out = append(out, f.Patches...)
	}
	return out
}

func skipped(v domain.Violation, why string) Fix {
	return Fix{
		ConstraintID: v.ConstraintID,
		Patches:      []domain.PatchOperation{},
		Decisions:    []domain.Decision{},
		AppliedConstraint: domain.AppliedConstraint{
			ID:      v.ConstraintID,
			Scope:   domain.ScopeView,
			Status:  domain.StatusSkipped,
			Message: fmt.Sprintf("%s: %s", v.Message, why),
			Targets: v.NodeIDs,
		},
	}
}

func demotePrimary(s *Suggester, in domain.Intent, v domain.Violation) Fix {
	idx, ok := s.strategy(in)
	if !ok {
		return skipped(v, "no primary button to demote")
	}
	nodeID := domain.NodeID(idx)
	patch := domain.PatchOperation{
		Op:    domain.OpReplace,
		Path:  fmt.Sprintf("/components/%d/props/variant", idx),
		Value: string(domain.VariantSecondary),
	}
	return Fix{
		ConstraintID: v.ConstraintID,
		Patches:      []domain.PatchOperation{patch},
		Decisions: []domain.Decision{{
			Type:   domain.DecisionAutoFix,
			Reason: fmt.Sprintf("%s: %s", v.ConstraintID, v.Message),
			Action: "set variant to secondary",
			Details: map[string]any{
				"constraintId":    v.ConstraintID,
				"originalVariant": string(in.Components[idx].Props.Variant),
				"newVariant":      string(domain.VariantSecondary),
				"componentIndex":  idx,
			},
		}},
		AppliedConstraint: domain.AppliedConstraint{
			ID:         v.ConstraintID,
			Scope:      domain.ScopeView,
			Status:     domain.StatusTriggered,
			Message:    v.Message,
			Targets:    []string{nodeID},
			Resolution: fmt.Sprintf("Changed %s from primary to secondary.", nodeID),
			Patch:      []domain.PatchOperation{patch},
		},
	}
}
