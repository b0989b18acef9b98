// Package intent turns a short prompt into a structured Intent.
package intent

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
)

const DefaultLabel = "Continue"

// Parser applies an ordered list of matchers. Earlier matchers win when
// two of them set the same field.
type Parser struct {
	matchers []Matcher
}

// NewParser returns a parser using the given matchers, or the default set
// when none are given.
func NewParser(matchers ...Matcher) *Parser {
	if len(matchers) == 0 {
		matchers = DefaultMatchers()
	}
	return &Parser{matchers: matchers}
}

// Parse never fails and always yields at least one component.
func (ps *Parser) Parse(viewID, prompt string) domain.Intent {
	p := newPrompt(prompt)

	var merged Fragment
	for _, m := range ps.matchers {
		f, ok := m.Match(p)
		if !ok {
			continue
		}
		if len(f.Components) > 0 {
			return domain.Intent{ViewID: viewID, Components: f.Components}
		}
		merged.absorb(f)
	}

	props := domain.Props{
		Label:   DefaultLabel,
		Variant: domain.VariantPrimary,
		Size:    domain.SizeMedium,
	}
	if merged.Variant != nil {
		props.Variant = *merged.Variant
	}
	if merged.Disabled != nil {
		props.Disabled = *merged.Disabled
	}
	if merged.Size != nil {
		props.Size = *merged.Size
	}
	if merged.Label != nil {
		props.Label = *merged.Label
	}

	count := merged.Count
	if count < 1 {
		count = 1
	}
	comps := make([]domain.ComponentSpec, count)
	for i := range comps {
		comps[i] = domain.ComponentSpec{Type: domain.ComponentButton, Props: props}
		// Repeated primaries without a label get numbered so nodes stay distinguishable.
		if count > 1 && props.Variant == domain.VariantPrimary && merged.Label == nil {
			comps[i].Props.Label = fmt.Sprintf("Primary %d", i+1)
		}
	}
	return domain.Intent{ViewID: viewID, Components: comps}
}

var defaultParser = NewParser()

// Parse uses the default matcher set.
func Parse(viewID, prompt string) domain.Intent {
	return defaultParser.Parse(viewID, prompt)
}
