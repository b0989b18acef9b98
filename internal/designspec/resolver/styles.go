package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
)

// PxPerRem is the fixed conversion ratio for rem tokens.
const PxPerRem = 16

// Token paths consulted during style resolution.
const (
	TokenColorPrimary   = "color.primary"
	TokenColorOnPrimary = "color.onPrimary"
	TokenColorSurface   = "color.surface"
	TokenColorOnSurface = "color.onSurface"
	TokenColorBorder    = "color.border"
	TokenFontSize       = "font.size"
	TokenFontWeight     = "font.weight"
	TokenLineHeight     = "font.lineHeight"
	TokenRadius         = "radius.md"
)

// nodeStyles accumulates styles and keeps exactly one trace entry per key.
type nodeStyles struct {
	index  int
	node   *domain.ResolvedNode
	tokens domain.Tokens
	view   *domain.ResolvedView
	pos    map[string]int // style key -> trace index
}

func (s *nodeStyles) set(key string, value any, source, gate string) {
	entry := domain.TraceEntry{Key: key, Value: value, Source: source, Constraint: gate}
	s.node.Styles[key] = value
	if i, ok := s.pos[key]; ok {
		s.node.Trace[i] = entry
		return
	}
	s.pos[key] = len(s.node.Trace)
	s.node.Trace = append(s.node.Trace, entry)
}

func (s *nodeStyles) setOnce(key string, value any, source, gate string) {
	if _, ok := s.node.Styles[key]; ok {
		return
	}
	s.set(key, value, source, gate)
}

func (s *nodeStyles) token(path string) (any, bool) {
	v, ok := s.tokens.Lookup(path)
	if !ok {
		s.view.Errors = append(s.view.Errors,
			fmt.Sprintf("%s: token %q not found", domain.NodeID(s.index), path))
	}
	return v, ok
}

func (s *nodeStyles) fromToken(key, path, gate string) {
	if v, ok := s.token(path); ok {
		s.set(key, v, "token:"+path, gate)
	}
}

func resolveNode(index int, c domain.ComponentSpec, m *domain.DesignModel, view *domain.ResolvedView) domain.ResolvedNode {
	node := domain.ResolvedNode{
		ID:     domain.NodeID(index),
		Type:   c.Type,
		Props:  c.Props,
		Styles: map[string]any{},
		Trace:  []domain.TraceEntry{},
	}
	s := &nodeStyles{index: index, node: &node, tokens: m.Tokens, view: view, pos: map[string]int{}}
	cs := m.Constraints

	switch c.Props.Variant {
	case domain.VariantPrimary:
		s.fromToken("backgroundColor", TokenColorPrimary, "")
		s.fromToken("color", TokenColorOnPrimary, "")
	case domain.VariantSecondary:
		if cs.Toggled(domain.RuleSecondaryUsesSurface) {
			s.fromToken("backgroundColor", TokenColorSurface, domain.RuleSecondaryUsesSurface)
			s.fromToken("color", TokenColorOnSurface, domain.RuleSecondaryUsesSurface)
		} else {
			s.fromToken("color", TokenColorPrimary, "")
		}
	case domain.VariantGhost:
		if cs.Toggled(domain.RuleGhostHasNoBackground) {
			s.set("backgroundColor", "transparent", "constraint:"+domain.RuleGhostHasNoBackground, domain.RuleGhostHasNoBackground)
		}
		s.fromToken("color", TokenColorPrimary, "")
	}

	if path, ok := cs.SizeTokens[c.Props.Size]; ok {
		if v, ok := s.token(path); ok {
			s.set("padding", toPixels(v), "token:"+path, "")
		}
	} else {
		view.Errors = append(view.Errors,
			fmt.Sprintf("%s: no size token for size %q", node.ID, c.Props.Size))
	}

	s.fromToken("fontSize", TokenFontSize, "")
	s.fromToken("fontWeight", TokenFontWeight, "")
	s.fromToken("lineHeight", TokenLineHeight, "")
	s.fromToken("borderRadius", TokenRadius, "")

	if c.Props.Disabled {
		if v, ok := cs.Number(domain.RuleDisabledOpacity); ok {
			s.set("opacity", v, "constraint:"+domain.RuleDisabledOpacity, domain.RuleDisabledOpacity)
		}
		s.set("cursor", "not-allowed", "rule:disabledCursor", "")
	} else {
		s.set("cursor", "pointer", "rule:enabledCursor", "")
	}

	if c.Props.Variant == domain.VariantSecondary {
		if v, ok := s.token(TokenColorBorder); ok {
			s.setOnce("border", fmt.Sprintf("1px solid %v", v), "token:"+TokenColorBorder, "")
		}
	}

	return node
}

// toPixels converts "<n>rem" to "<n*16>px". Other values pass through.
func toPixels(v any) any {
	str, ok := v.(string)
	if !ok {
		return v
	}
	num, found := strings.CutSuffix(strings.TrimSpace(str), "rem")
	if !found {
		return v
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return v
	}
	return strconv.FormatFloat(f*PxPerRem, 'f', -1, 64) + "px"
}
