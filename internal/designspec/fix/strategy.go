package fix

import (
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
)

// Strategy picks which primary component to demote when too many
// primaries are present. It returns false when there is no candidate.
type Strategy func(in domain.Intent) (index int, ok bool)

// SecondPrimary demotes the second primary in document order.
func SecondPrimary(in domain.Intent) (int, bool) {
	p := in.PrimaryIndexes()
	if len(p) < 2 {
		return 0, false
	}
	return p[1], true
}

// FirstPrimary demotes the first primary in document order.
func FirstPrimary(in domain.Intent) (int, bool) {
	p := in.PrimaryIndexes()
	if len(p) == 0 {
		return 0, false
	}
	return p[0], true
}

// LastPrimary demotes the last primary in document order.
func LastPrimary(in domain.Intent) (int, bool) {
	p := in.PrimaryIndexes()
	if len(p) == 0 {
		return 0, false
	}
	return p[len(p)-1], true
}

var strategies = map[string]Strategy{
	"second": SecondPrimary,
	"first":  FirstPrimary,
	"last":   LastPrimary,
}

// StrategyByName looks up a named strategy.
func StrategyByName(name string) (Strategy, error) {
	if name == "" {
		return SecondPrimary, nil
	}
	s, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown repair strategy %q (want one of %v)", name, StrategyNames())
	}
	return s, nil
}

func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for n := range strategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
