// Package patch applies structural edits to an Intent.
package patch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
)

// Apply copies in and applies every supported operation to the copy.
// Only "replace" on /components/<index>/props/<field> is supported; every
// other operation is reported as a noop with a reason. in is never mutated.
func Apply(in domain.Intent, ops []domain.PatchOperation) (domain.Intent, []domain.PatchOutcome) {
	out := in.Clone()
	outcomes := make([]domain.PatchOutcome, 0, len(ops))
	for _, op := range ops {
		reason := applyOne(&out, op)
		if reason == "" {
			outcomes = append(outcomes, domain.PatchOutcome{Operation: op, Status: domain.PatchApplied})
			continue
		}
		outcomes = append(outcomes, domain.PatchOutcome{Operation: op, Status: domain.PatchNoOp, Reason: reason})
	}
	return out, outcomes
}

// AppliedCount returns how many outcomes were applied.
func AppliedCount(outcomes []domain.PatchOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == domain.PatchApplied {
			n++
		}
	}
	return n
}

// ComponentIndex extracts the component index from a props path.
func ComponentIndex(path string) (int, string, bool) {
	parts := strings.Split(path, "/")
	if len(parts) != 5 || parts[0] != "" || parts[1] != "components" || parts[3] != "props" {
		return 0, "", false
	}
	idx, err := strconv.Atoi(parts[2])
	if err != nil || idx < 0 {
		return 0, "", false
	}
	field := strings.NewReplacer("~1", "/", "~0", "~").Replace(parts[4])
	return idx, field, true
}

// applyOne returns an empty string on success, otherwise the noop reason.
func applyOne(in *domain.Intent, op domain.PatchOperation) string {
	if op.Op != domain.OpReplace {
		return fmt.Sprintf("operation %q is not supported", op.Op)
	}
	idx, field, ok := ComponentIndex(op.Path)
	if !ok {
		return fmt.Sprintf("path %q is not of the form /components/<index>/props/<field>", op.Path)
	}
	if idx >= len(in.Components) {
		return fmt.Sprintf("component index %d out of range (%d components)", idx, len(in.Components))
	}
	props := &in.Components[idx].Props
	switch field {
	case "label":
		s, ok := asString(op.Value)
		if !ok {
			return fmt.Sprintf("label expects a string, got %T", op.Value)
		}
		props.Label = s
	case "variant":
		s, ok := asString(op.Value)
		if !ok {
			return fmt.Sprintf("variant expects a string, got %T", op.Value)
		}
		props.Variant = domain.Variant(s)
	case "size":
		s, ok := asString(op.Value)
		if !ok {
			return fmt.Sprintf("size expects a string, got %T", op.Value)
		}
		props.Size = domain.Size(s)
	case "disabled":
		b, ok := op.Value.(bool)
		if !ok {
			return fmt.Sprintf("disabled expects a bool, got %T", op.Value)
		}
		props.Disabled = b
	default:
		return fmt.Sprintf("unknown prop %q", field)
	}
	return ""
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case domain.Variant:
		return string(s), true
	case domain.Size:
		return string(s), true
	}
	return "", false
}
