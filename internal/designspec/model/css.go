package model

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/css"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
)

// ParseCSSTokens reads custom properties such as
//
//	:root { --color-primary: #2563eb; --font-weight: 600; }
//
// and maps them to token paths ("color.primary", "font.weight"). Numeric
// values become numbers, everything else is kept as written.
func ParseCSSTokens(content []byte) (domain.Tokens, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(css.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("syntax error in stylesheet")
	}

	tokens := domain.Tokens{}
	walk(root, func(n *sitter.Node) {
		if n.Type() != "declaration" {
			return
		}
		name, value, ok := strings.Cut(n.Content(content), ":")
		if !ok {
			return
		}
		name = strings.TrimSpace(name)
		if !strings.HasPrefix(name, "--") {
			return
		}
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), ";"))
		tokens[cssTokenPath(name)] = cssValue(value)
	})
	return tokens, nil
}

func walk(n *sitter.Node, visit func(*sitter.Node)) {
	visit(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), visit)
	}
}

// cssTokenPath turns "--color-onPrimary" into "color.onPrimary".
func cssTokenPath(name string) string {
	return strings.ReplaceAll(strings.TrimPrefix(name, "--"), "-", ".")
}

func cssValue(raw string) any {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return strings.Trim(raw, `"'`)
}
