package domain

import "strconv"

// ComponentType is the closed vocabulary of component kinds.
type ComponentType string

const (
	ComponentButton ComponentType = "button"
)

type Variant string

const (
	VariantPrimary   Variant = "primary"
	VariantSecondary Variant = "secondary"
	VariantGhost     Variant = "ghost"
)

type Size string

const (
	SizeSmall  Size = "sm"
	SizeMedium Size = "md"
)

// Props is the fixed prop set of a button.
type Props struct {
	Label    string  `json:"label,omitempty"`
	Variant  Variant `json:"variant,omitempty"`
	Size     Size    `json:"size,omitempty"`
	Disabled bool    `json:"disabled,omitempty"`
}

type ComponentSpec struct {
	Type  ComponentType `json:"type,omitempty"`
	Props Props         `json:"props,omitempty"`
}

// Intent is the parsed, unstyled request for a view.
// Values are treated as immutable: repair steps produce new intents.
type Intent struct {
	ViewID     string          `json:"viewId,omitempty"`
	Components []ComponentSpec `json:"components"`
}

// Clone returns a deep copy of the intent.
func (i Intent) Clone() Intent {
	out := Intent{ViewID: i.ViewID}
	if i.Components != nil {
		out.Components = make([]ComponentSpec, len(i.Components))
		copy(out.Components, i.Components)
	}
	return out
}

// PrimaryIndexes returns the component indexes whose variant is primary, in document order.
func (i Intent) PrimaryIndexes() []int {
	var idx []int
	for n, c := range i.Components {
		if c.Props.Variant == VariantPrimary {
			idx = append(idx, n)
		}
	}
	return idx
}

type ViolationCode string

const (
	CodeUnsupportedComponentType ViolationCode = "unsupportedComponentType"
	CodeMissingLabel             ViolationCode = "missingLabel"
	CodeInvalidVariant           ViolationCode = "invalidVariant"
	CodeInvalidSize              ViolationCode = "invalidSize"
	CodeMultiplePrimaryButtons   ViolationCode = "multiplePrimaryButtons"
)

type Violation struct {
	Code         ViolationCode `json:"code"`
	Message      string        `json:"message"`
	ConstraintID string        `json:"constraintId,omitempty"`
	NodeIDs      []string      `json:"nodeIds,omitempty"`
}

// TraceEntry records where a single style value came from.
// Source is one of "token:<path>", "constraint:<id>" or "rule:<name>".
type TraceEntry struct {
	Key        string `json:"key"`
	Value      any    `json:"value"`
	Source     string `json:"source"`
	Constraint string `json:"constraint,omitempty"` // rule that gated the assignment
}

type DecisionType string

const (
	DecisionAutoFix        DecisionType = "autoFix"
	DecisionNormalize      DecisionType = "normalize"
	DecisionDefaultApplied DecisionType = "defaultApplied"
)

type Decision struct {
	Type    DecisionType   `json:"type"`
	Reason  string         `json:"reason"`
	Action  string         `json:"action"`
	Details map[string]any `json:"details,omitempty"`
}

type ResolvedNode struct {
	ID        string         `json:"id"`
	Type      ComponentType  `json:"type"`
	Props     Props          `json:"props"`
	Styles    map[string]any `json:"styles"`
	Trace     []TraceEntry   `json:"trace"`
	Decisions []Decision     `json:"decisions,omitempty"`
}

type ConstraintScope string

const (
	ScopeComponent ConstraintScope = "component"
	ScopeView      ConstraintScope = "view"
	ScopePattern   ConstraintScope = "pattern"
)

type ConstraintStatus string

const (
	StatusTriggered ConstraintStatus = "triggered"
	StatusSkipped   ConstraintStatus = "skipped"
)

// AppliedConstraint records a constraint that fired during repair or validation.
type AppliedConstraint struct {
	ID         string           `json:"id"`
	Scope      ConstraintScope  `json:"scope"`
	Status     ConstraintStatus `json:"status"`
	Message    string           `json:"message"`
	Targets    []string         `json:"targets,omitempty"`
	Resolution string           `json:"resolution,omitempty"`
	Patch      []PatchOperation `json:"patch,omitempty"`
}

type ResolvedView struct {
	ViewID             string              `json:"viewId"`
	Nodes              []ResolvedNode      `json:"nodes"`
	Errors             []string            `json:"errors"`
	Violations         []Violation         `json:"violations"`
	EnabledConstraints map[string]bool     `json:"enabledConstraints"`
	AppliedConstraints []AppliedConstraint `json:"appliedConstraints"`
	Patches            []PatchOutcome      `json:"patches,omitempty"`
}

// NodeID derives the stable id of the component at index.
func NodeID(index int) string {
	return "button-" + strconv.Itoa(index)
}

type PatchOp string

const (
	OpAdd     PatchOp = "add"
	OpRemove  PatchOp = "remove"
	OpReplace PatchOp = "replace"
	OpMove    PatchOp = "move"
	OpCopy    PatchOp = "copy"
	OpTest    PatchOp = "test"
)

type PatchOperation struct {
	Op    PatchOp `json:"op"`
	Path  string  `json:"path"`
	Value any     `json:"value,omitempty"`
}

type PatchStatus string

const (
	PatchApplied PatchStatus = "applied"
	PatchNoOp    PatchStatus = "noop"
)

// PatchOutcome reports what happened to a single patch operation.
type PatchOutcome struct {
	Operation PatchOperation `json:"operation"`
	Status    PatchStatus    `json:"status"`
	Reason    string         `json:"reason,omitempty"`
}
