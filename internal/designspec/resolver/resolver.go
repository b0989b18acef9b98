// Package resolver turns an Intent into a styled, provenance-traced view.
//
// Resolution is all-or-nothing: any schema error or view-level constraint
// violation yields a view with no nodes. All failures are returned as data.
package resolver

import (
	"math"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
)

// Resolve runs schema validation, the primary cardinality check and style
// resolution against a design model. It never mutates its inputs.
func Resolve(in domain.Intent, m *domain.DesignModel) domain.ResolvedView {
	view := domain.ResolvedView{
		ViewID:             in.ViewID,
		Nodes:              []domain.ResolvedNode{},
		Errors:             []string{},
		Violations:         []domain.Violation{},
		EnabledConstraints: m.Constraints.EnabledFlags(),
		AppliedConstraints: []domain.AppliedConstraint{},
	}

	if checkSchema(in, m, &view) {
		return view
	}
	if checkCardinality(in, m.Constraints, &view) {
		return view
	}

	for i, c := range in.Components {
		view.Nodes = append(view.Nodes, resolveNode(i, c, m, &view))
	}
	return view
}

// checkSchema reports whether any component failed the contract.
func checkSchema(in domain.Intent, m *domain.DesignModel, view *domain.ResolvedView) bool {
	cs := m.Constraints
	failed := false
	fail := func(code domain.ViolationCode, index int, value string) {
		msg := cs.Message(code, map[string]string{
			"index": strconv.Itoa(index),
			"value": value,
		})
		view.Errors = append(view.Errors, msg)
		view.Violations = append(view.Violations, domain.Violation{
			Code:    code,
			Message: msg,
			NodeIDs: []string{domain.NodeID(index)},
		})
		failed = true
	}

	for i, c := range in.Components {
		contract, ok := m.Contracts[c.Type]
		if !ok {
			fail(domain.CodeUnsupportedComponentType, i, string(c.Type))
			continue
		}
		if strings.TrimSpace(c.Props.Label) == "" {
			fail(domain.CodeMissingLabel, i, "")
		}
		if !contract.Allows("variant", string(c.Props.Variant)) {
			fail(domain.CodeInvalidVariant, i, string(c.Props.Variant))
		}
		if !contract.Allows("size", string(c.Props.Size)) {
			fail(domain.CodeInvalidSize, i, string(c.Props.Size))
		}
	}
	return failed
}

// PrimaryLimit returns the maximum number of primary buttons allowed and the
// id of the rule imposing it. ok is false when the count is unbounded.
func PrimaryLimit(cs domain.ConstraintSet) (limit int, ruleID string, ok bool) {
	if n, has := cs.Number(domain.RuleMaxPrimaryButtonsPerView); has {
		return int(math.Floor(n)), domain.RuleMaxPrimaryButtonsPerView, true
	}
	if cs.Toggled(domain.RuleOnlyOnePrimaryPerView) {
		return 1, domain.RuleOnlyOnePrimaryPerView, true
	}
	return 0, "", false
}

func checkCardinality(in domain.Intent, cs domain.ConstraintSet, view *domain.ResolvedView) bool {
	limit, ruleID, bounded := PrimaryLimit(cs)
	if !bounded {
		return false
	}
	primaries := in.PrimaryIndexes()
	if len(primaries) <= limit {
		return false
	}
	ids := make([]string, len(primaries))
	for i, idx := range primaries {
		ids[i] = domain.NodeID(idx)
	}
	view.Violations = append(view.Violations, domain.Violation{
		Code: domain.CodeMultiplePrimaryButtons,
		Message: cs.Message(domain.CodeMultiplePrimaryButtons, map[string]string{
			"max":   strconv.Itoa(limit),
			"count": strconv.Itoa(len(primaries)),
		}),
		ConstraintID: ruleID,
		NodeIDs:      ids,
	})
	return true
}
