package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Tokens maps dotted token paths (e.g. "color.primary") to leaf values.
type Tokens map[string]any

// Lookup returns the leaf value stored at path.
func (t Tokens) Lookup(path string) (any, bool) {
	v, ok := t[path]
	return v, ok
}

// Paths returns all token paths in sorted order.
func (t Tokens) Paths() []string {
	paths := make([]string, 0, len(t))
	for p := range t {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// FlattenTokens converts a nested token tree into dotted paths.
// Non-map values are leaves.
func FlattenTokens(tree map[string]any) Tokens {
	out := Tokens{}
	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		for k, v := range node {
			path := k
			if prefix != "" {
				path = prefix + "." + k
			}
			if child, ok := v.(map[string]any); ok {
				walk(path, child)
				continue
			}
			out[path] = v
		}
	}
	walk("", tree)
	return out
}

// PropContract lists the legal values of a prop and its default.
// An empty Values list means any non-empty value is accepted.
type PropContract struct {
	Values  []string `json:"values,omitempty" yaml:"values,omitempty"`
	Default any      `json:"default,omitempty" yaml:"default,omitempty"`
}

type ComponentContract struct {
	Props map[string]PropContract `json:"props" yaml:"props"`
}

// Allows reports whether value is an enumerated value of prop.
func (c ComponentContract) Allows(prop, value string) bool {
	pc, ok := c.Props[prop]
	if !ok {
		return false
	}
	if len(pc.Values) == 0 {
		return value != ""
	}
	for _, v := range pc.Values {
		if v == value {
			return true
		}
	}
	return false
}

type Contracts map[ComponentType]ComponentContract

type RuleKind string

const (
	RuleToggle  RuleKind = "toggle"
	RuleNumeric RuleKind = "numeric"
)

// Rule is a single constraint parameter: either a toggle or a number.
type Rule struct {
	Kind  RuleKind
	on    bool
	value float64
}

func Toggle(on bool) Rule { return Rule{Kind: RuleToggle, on: on} }
func Numeric(value float64) Rule { return Rule{Kind: RuleNumeric, value: value} }
func (r Rule) IsToggle() bool { return r.Kind == RuleToggle }
func (r Rule) IsNumeric() bool { return r.Kind == RuleNumeric }
func (r Rule) Number() float64 { return r.value }
func (r Rule) On() bool { return r.on }

// Active reports whether the rule takes effect. A numeric rule is active
// whenever it is present.
func (r Rule) Active() bool {
	switch r.Kind {
	case RuleToggle:
		return r.on
	case RuleNumeric:
		return true
	}
	return false
}

func (r Rule) MarshalJSON() ([]byte, error) {
	if r.Kind == RuleNumeric {
		return json.Marshal(r.value)
	}
	return json.Marshal(r.on)
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rule, err := RuleFromValue(raw)
	if err != nil {
		return err
	}
	*r = rule
	return nil
}

// RuleFromValue converts a decoded JSON or YAML scalar into a Rule.
func RuleFromValue(v any) (Rule, error) {
	switch x := v.(type) {
	case bool:
		return Toggle(x), nil
	case float64:
		return Numeric(x), nil
	case float32:
		return Numeric(float64(x)), nil
	case int:
		return Numeric(float64(x)), nil
	case int64:
		return Numeric(float64(x)), nil
	}
	return Rule{}, fmt.Errorf("unsupported rule value %v (%T)", v, v)
}

// Known rule ids.
const (
	RuleOnlyOnePrimaryPerView    = "onlyOnePrimaryPerView"
	RuleMaxPrimaryButtonsPerView = "maxPrimaryButtonsPerView"
	RuleSecondaryUsesSurface     = "secondaryUsesSurface"
	RuleGhostHasNoBackground     = "ghostHasNoBackground"
	RuleDisabledOpacity          = "disabledOpacity"
)

// KnownRules fixes the kind of each rule the resolver understands.
var KnownRules = map[string]RuleKind{
	RuleOnlyOnePrimaryPerView:    RuleToggle,
	RuleMaxPrimaryButtonsPerView: RuleNumeric,
	RuleSecondaryUsesSurface:     RuleToggle,
	RuleGhostHasNoBackground:     RuleToggle,
	RuleDisabledOpacity:          RuleNumeric,
}

// CanonicalValues are used when a boolean flag switches a numeric rule on.
var CanonicalValues = map[string]float64{
	RuleDisabledOpacity:          0.4,
	RuleMaxPrimaryButtonsPerView: 1,
}

// DefaultMessages back the message catalog when a code has no entry.
var DefaultMessages = map[ViolationCode]string{
	CodeUnsupportedComponentType: "Component {index} has unsupported type \"{value}\".",
	CodeMissingLabel:             "Component {index} is missing a label.",
	CodeInvalidVariant:           "Component {index} has invalid variant \"{value}\".",
	CodeInvalidSize:              "Component {index} has invalid size \"{value}\".",
	CodeMultiplePrimaryButtons:   "Only {max} primary button(s) allowed per view, found {count}.",
}

// ConstraintSet carries rule parameters, the message catalog and the
// size to token lookup.
type ConstraintSet struct {
	Rules      map[string]Rule          `json:"rules"`
	Messages   map[ViolationCode]string `json:"messages,omitempty"`
	SizeTokens map[Size]string          `json:"sizeTokens,omitempty"`
}

// Rule returns the rule with the given id if it is present.
func (c ConstraintSet) Rule(id string) (Rule, bool) {
	r, ok := c.Rules[id]
	return r, ok
}

// Toggled reports whether a toggle rule is present and on.
func (c ConstraintSet) Toggled(id string) bool {
	r, ok := c.Rules[id]
	return ok && r.IsToggle() && r.On()
}

// Number returns the value of a numeric rule.
func (c ConstraintSet) Number(id string) (float64, bool) {
	r, ok := c.Rules[id]
	if !ok || !r.IsNumeric() {
		return 0, false
	}
	return r.Number(), true
}

// EnabledFlags reports every rule as a boolean flag.
func (c ConstraintSet) EnabledFlags() map[string]bool {
	flags := make(map[string]bool, len(c.Rules))
	for id, r := range c.Rules {
		flags[id] = r.Active()
	}
	return flags
}

// Message renders the catalog entry for code, substituting {name} placeholders.
func (c ConstraintSet) Message(code ViolationCode, vars map[string]string) string {
	tmpl, ok := c.Messages[code]
	if !ok {
		tmpl = DefaultMessages[code]
	}
	if tmpl == "" {
		tmpl = string(code)
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(vars)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Clone returns a copy that shares no maps with c.
func (c ConstraintSet) Clone() ConstraintSet {
	out := ConstraintSet{
		Rules:      make(map[string]Rule, len(c.Rules)),
		Messages:   make(map[ViolationCode]string, len(c.Messages)),
		SizeTokens: make(map[Size]string, len(c.SizeTokens)),
	}
	for k, v := range c.Rules {
		out.Rules[k] = v
	}
	for k, v := range c.Messages {
		out.Messages[k] = v
	}
	for k, v := range c.SizeTokens {
		out.SizeTokens[k] = v
	}
	return out
}

// Check verifies that known rules carry the kind the resolver expects.
func (c ConstraintSet) Check() error {
	for id, r := range c.Rules {
		want, known := KnownRules[id]
		if known && r.Kind != want {
			return fmt.Errorf("constraint %q must be %s, got %s", id, want, r.Kind)
		}
	}
	return nil
}

// DesignModel bundles the three read-only stores.
type DesignModel struct {
	Tokens      Tokens        `json:"tokens"`
	Contracts   Contracts     `json:"contracts"`
	Constraints ConstraintSet `json:"constraints"`
}
