package intent

import (
	"fmt"
	"regexp"
	"strings"

	curex "github.com/cucumber/cucumber-expressions-go"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
)

// Prompt is the pre-tokenized form of the text handed to every Matcher.
type Prompt struct {
	Raw         string
	Lower       string
	Fields      []string // original case, edge punctuation trimmed
	LowerFields []string
	Quoted      []string // quoted substrings in order of appearance
}

var quotedRe = regexp.MustCompile(`["“]([^"“”]+)["”]`)

func newPrompt(text string) *Prompt {
	p := &Prompt{Raw: text, Lower: strings.ToLower(text)}
	for _, f := range strings.Fields(text) {
		f = strings.Trim(f, ".,;:!?()")
		if f == "" {
			continue
		}
		p.Fields = append(p.Fields, f)
		p.LowerFields = append(p.LowerFields, strings.ToLower(f))
	}
	for _, m := range quotedRe.FindAllStringSubmatch(text, -1) {
		if label := strings.TrimSpace(m[1]); label != "" {
			p.Quoted = append(p.Quoted, label)
		}
	}
	return p
}

// Fragment is the partial intent a single matcher contributes.
// A fragment with Components set is complete and ends matching.
type Fragment struct {
	Components []domain.ComponentSpec
	Variant    *domain.Variant
	Disabled   *bool
	Size       *domain.Size
	Label      *string
	Count      int
}

// absorb copies fields from f that are still unset on dst.
func (dst *Fragment) absorb(f Fragment) {
	if dst.Variant == nil {
		dst.Variant = f.Variant
	}
	if dst.Disabled == nil {
		dst.Disabled = f.Disabled
	}
	if dst.Size == nil {
		dst.Size = f.Size
	}
	if dst.Label == nil {
		dst.Label = f.Label
	}
	if dst.Count == 0 {
		dst.Count = f.Count
	}
}

// Matcher recognizes one phrasing and returns the fragment it implies.
type Matcher interface {
	Name() string
	Match(p *Prompt) (Fragment, bool)
}

// phrase is a cucumber expression evaluated against every word window of
// the prompt that has as many words as the expression.
type phrase struct {
	source string
	words  int
	match  func(text string) ([]*curex.Argument, error)
}

func mustPhrase(registry *curex.ParameterTypeRegistry, source string) phrase {
	expr, err := curex.NewCucumberExpression(source, registry)
	if err != nil {
		panic(fmt.Sprintf("intent: bad phrase %q: %v", source, err))
	}
	return phrase{
		source: source,
		words:  len(strings.Fields(source)),
		match: func(text string) ([]*curex.Argument, error) {
			return expr.Match(text)
		},
	}
}

func (ph phrase) find(fields []string) ([]*curex.Argument, bool) {
	for i := 0; i+ph.words <= len(fields); i++ {
		args, err := ph.match(strings.Join(fields[i:i+ph.words], " "))
		if err == nil && args != nil {
			return args, true
		}
	}
	return nil, false
}

func (ph phrase) matches(word string) bool {
	args, err := ph.match(word)
	return err == nil && args != nil
}

func argString(arg *curex.Argument) string {
	switch v := arg.GetValue().(type) {
	case string:
		return v
	case *string:
		if v != nil {
			return *v
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// pairMatcher handles "X button ... and Y button ...".
type pairMatcher struct{}

var pairRe = regexp.MustCompile(`\b(primary|secondary|ghost)\s+button\b.*?\band\b.*?\b(primary|secondary|ghost)\s+button\b`)

func (pairMatcher) Name() string { return "pair" }

func (pairMatcher) Match(p *Prompt) (Fragment, bool) {
	m := pairRe.FindStringSubmatch(p.Lower)
	if m == nil {
		return Fragment{}, false
	}
	labels := []string{"Button 1", "Button 2"}
	for i := range labels {
		if i < len(p.Quoted) {
			labels[i] = p.Quoted[i]
		}
	}
	comps := make([]domain.ComponentSpec, 2)
	for i := range comps {
		comps[i] = domain.ComponentSpec{
			Type: domain.ComponentButton,
			Props: domain.Props{
				Label:   labels[i],
				Variant: domain.Variant(m[i+1]),
				Size:    domain.SizeMedium,
			},
		}
	}
	return Fragment{Components: comps}, true
}

// variantMatcher sets the variant when its keyword appears anywhere.
type variantMatcher struct {
	variant domain.Variant
}

func (m variantMatcher) Name() string { return "variant:" + string(m.variant) }

func (m variantMatcher) Match(p *Prompt) (Fragment, bool) {
	if !strings.Contains(p.Lower, string(m.variant)) {
		return Fragment{}, false
	}
	v := m.variant
	return Fragment{Variant: &v}, true
}

type disabledMatcher struct{}

func (disabledMatcher) Name() string { return "disabled" }

func (disabledMatcher) Match(p *Prompt) (Fragment, bool) {
	if !strings.Contains(p.Lower, "disabled") {
		return Fragment{}, false
	}
	on := true
	return Fragment{Disabled: &on}, true
}

type sizeMatcher struct{}

var smWordRe = regexp.MustCompile(`\bsm\b`)

func (sizeMatcher) Name() string { return "size" }

func (sizeMatcher) Match(p *Prompt) (Fragment, bool) {
	if !strings.Contains(p.Lower, "small") && !smWordRe.MatchString(p.Lower) {
		return Fragment{}, false
	}
	s := domain.SizeSmall
	return Fragment{Size: &s}, true
}

type quotedLabelMatcher struct{}

func (quotedLabelMatcher) Name() string { return "label:quoted" }

func (quotedLabelMatcher) Match(p *Prompt) (Fragment, bool) {
	if len(p.Quoted) == 0 {
		return Fragment{}, false
	}
	label := p.Quoted[0]
	return Fragment{Label: &label}, true
}

type labeledMatcher struct {
	phrase phrase
}

func (labeledMatcher) Name() string { return "label:labeled" }

func (m labeledMatcher) Match(p *Prompt) (Fragment, bool) {
	args, ok := m.phrase.find(p.Fields)
	if !ok || len(args) == 0 {
		return Fragment{}, false
	}
	label := strings.Trim(argString(args[0]), `"'`)
	if label == "" {
		return Fragment{}, false
	}
	return Fragment{Label: &label}, true
}

// countMatcher recognizes a number word followed later in the same clause
// by "button" or "buttons": "two buttons", "2 small disabled buttons".
type countMatcher struct {
	number phrase
	noun   phrase
	count  int
}

func (countMatcher) Name() string { return "count" }

func (m countMatcher) Match(p *Prompt) (Fragment, bool) {
	for i, f := range p.LowerFields {
		if !m.number.matches(f) {
			continue
		}
		for _, g := range p.LowerFields[i+1:] {
			if g == "and" {
				break
			}
			if m.noun.matches(g) {
				return Fragment{Count: m.count}, true
			}
		}
	}
	return Fragment{}, false
}

// DefaultMatchers returns the built-in rules in precedence order.
func DefaultMatchers() []Matcher {
	registry := curex.NewParameterTypeRegistry()
	return []Matcher{
		pairMatcher{},
		variantMatcher{variant: domain.VariantSecondary},
		variantMatcher{variant: domain.VariantGhost},
		variantMatcher{variant: domain.VariantPrimary},
		disabledMatcher{},
		sizeMatcher{},
		quotedLabelMatcher{},
		labeledMatcher{phrase: mustPhrase(registry, "labeled/labelled/Labeled/Labelled {word}")},
		countMatcher{
			count:  2,
			number: mustPhrase(registry, "two/2"),
			noun:   mustPhrase(registry, "button(s)"),
		},
	}
}
