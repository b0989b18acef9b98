package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleJSON(t *testing.T) {
	var rules map[string]Rule
	err := json.Unmarshal([]byte(`{"onlyOnePrimaryPerView": true, "disabledOpacity": 0.4, "ghostHasNoBackground": false}`), &rules)
	require.NoError(t, err)

	assert.Equal(t, Toggle(true), rules[RuleOnlyOnePrimaryPerView])
	assert.Equal(t, Numeric(0.4), rules[RuleDisabledOpacity])
	assert.Equal(t, Toggle(false), rules[RuleGhostHasNoBackground])

	out, err := json.Marshal(rules)
	require.NoError(t, err)
	assert.JSONEq(t, `{"onlyOnePrimaryPerView": true, "disabledOpacity": 0.4, "ghostHasNoBackground": false}`, string(out))

	var bad Rule
	assert.Error(t, json.Unmarshal([]byte(`"yes"`), &bad))
}

func TestRuleActive(t *testing.T) {
	assert.True(t, Toggle(true).Active())
	assert.False(t, Toggle(false).Active())
	assert.True(t, Numeric(0).Active())
	assert.False(t, Rule{}.Active())
}

func TestConstraintSetCheck(t *testing.T) {
	ok := ConstraintSet{Rules: map[string]Rule{
		RuleOnlyOnePrimaryPerView: Toggle(true),
		RuleDisabledOpacity:       Numeric(0.5),
		"customRule":              Numeric(3),
	}}
	assert.NoError(t, ok.Check())

	bad := ConstraintSet{Rules: map[string]Rule{RuleDisabledOpacity: Toggle(true)}}
	assert.ErrorContains(t, bad.Check(), RuleDisabledOpacity)
}

func TestConstraintSetFlags(t *testing.T) {
	cs := ConstraintSet{Rules: map[string]Rule{
		RuleOnlyOnePrimaryPerView: Toggle(false),
		RuleDisabledOpacity:       Numeric(0.4),
	}}
	assert.Equal(t, map[string]bool{
		RuleOnlyOnePrimaryPerView: false,
		RuleDisabledOpacity:       true,
	}, cs.EnabledFlags())

	assert.False(t, cs.Toggled(RuleOnlyOnePrimaryPerView))
	v, ok := cs.Number(RuleDisabledOpacity)
	assert.True(t, ok)
	assert.Equal(t, 0.4, v)
	_, ok = cs.Number(RuleOnlyOnePrimaryPerView)
	assert.False(t, ok)
}

func TestMessage(t *testing.T) {
	cs := ConstraintSet{Messages: map[ViolationCode]string{
		CodeMissingLabel: "label missing on #{index}",
	}}
	assert.Equal(t, "label missing on #2", cs.Message(CodeMissingLabel, map[string]string{"index": "2"}))
	assert.Equal(t, "Only 1 primary button(s) allowed per view, found 3.",
		cs.Message(CodeMultiplePrimaryButtons, map[string]string{"max": "1", "count": "3"}))
	assert.Equal(t, "somethingElse", cs.Message("somethingElse", nil))
}

func TestConstraintSetClone(t *testing.T) {
	cs := ConstraintSet{
		Rules:      map[string]Rule{RuleOnlyOnePrimaryPerView: Toggle(true)},
		SizeTokens: map[Size]string{SizeSmall: "spacing.sm"},
	}
	c := cs.Clone()
	c.Rules[RuleOnlyOnePrimaryPerView] = Toggle(false)
	c.SizeTokens[SizeSmall] = "other"

	assert.True(t, cs.Toggled(RuleOnlyOnePrimaryPerView))
	assert.Equal(t, "spacing.sm", cs.SizeTokens[SizeSmall])
}

func TestFlattenTokens(t *testing.T) {
	tokens := FlattenTokens(map[string]any{
		"color": map[string]any{"primary": "#000", "text": map[string]any{"muted": "#999"}},
		"gap":   4.0,
	})
	assert.Equal(t, Tokens{
		"color.primary":    "#000",
		"color.text.muted": "#999",
		"gap":              4.0,
	}, tokens)
	assert.Equal(t, []string{"color.primary", "color.text.muted", "gap"}, tokens.Paths())
}

func TestContractAllows(t *testing.T) {
	c := ComponentContract{Props: map[string]PropContract{
		"variant": {Values: []string{"primary", "secondary"}},
		"label":   {},
	}}
	assert.True(t, c.Allows("variant", "primary"))
	assert.False(t, c.Allows("variant", "ghost"))
	assert.True(t, c.Allows("label", "anything"))
	assert.False(t, c.Allows("label", ""))
	assert.False(t, c.Allows("size", "sm"))
}

func TestIntentClone(t *testing.T) {
	in := Intent{ViewID: "v", Components: []ComponentSpec{
		{Type: ComponentButton, Props: Props{Label: "A", Variant: VariantPrimary}},
		{Type: ComponentButton, Props: Props{Label: "B", Variant: VariantPrimary}},
		{Type: ComponentButton, Props: Props{Label: "C", Variant: VariantGhost}},
	}}
	c := in.Clone()
	c.Components[0].Props.Label = "changed"

	assert.Equal(t, "A", in.Components[0].Props.Label)
	assert.Equal(t, []int{0, 1}, in.PrimaryIndexes())
	assert.Equal(t, "button-2", NodeID(2))
}
