// Package pipeline orchestrates parse, resolve, validate, suggest and apply
// against the current design model snapshot.
package pipeline

import (
	"encoding/hex"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/blake3"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/fix"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/intent"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/model"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/patch"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/resolver"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/validate"
)

// Source yields the snapshot an operation runs against.
type Source interface {
	Current() *model.Snapshot
}

type Options struct {
	Strategy        fix.Strategy
	CacheSize       int
	MaxRepairRounds int
	Parser          *intent.Parser
	Logger          *slog.Logger
}

// Engine is safe for concurrent use. Each method reads exactly one
// snapshot from its Source.
type Engine struct {
	source    Source
	parser    *intent.Parser
	suggester *fix.Suggester
	cache     *lru.Cache[string, domain.ResolvedView]
	maxRounds int
	logger    *slog.Logger
}

func New(src Source, opts Options) (*Engine, error) {
	e := &Engine{
		source:    src,
		parser:    opts.Parser,
		suggester: fix.NewSuggester(opts.Strategy),
		maxRounds: opts.MaxRepairRounds,
		logger:    opts.Logger,
	}
	if e.parser == nil {
		e.parser = intent.NewParser()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.maxRounds <= 0 {
		e.maxRounds = 8
	}
	if opts.CacheSize > 0 {
		c, err := lru.New[string, domain.ResolvedView](opts.CacheSize)
		if err != nil {
			return nil, err
		}
		e.cache = c
	}
	return e, nil
}

type ConstraintFlags struct {
	EnabledConstraints map[string]bool    `json:"enabledConstraints"`
	Values             map[string]float64 `json:"values,omitempty"`
}

// DesignModelView is the externally visible summary of the current model.
type DesignModelView struct {
	Tokens      domain.Tokens    `json:"tokens"`
	Contracts   domain.Contracts `json:"contracts"`
	Constraints ConstraintFlags  `json:"constraints"`
	Fingerprint string           `json:"fingerprint"`
}

// DesignModel reports tokens, contracts and each rule as a boolean flag.
// Numeric rules are enabled whenever they hold a number; the loader
// rejects any other value for them.
func (e *Engine) DesignModel() DesignModelView {
	snap := e.source.Current()
	cs := snap.Model.Constraints
	values := map[string]float64{}
	for id, r := range cs.Rules {
		if r.IsNumeric() {
			values[id] = r.Number()
		}
	}
	return DesignModelView{
		Tokens:    snap.Model.Tokens,
		Contracts: snap.Model.Contracts,
		Constraints: ConstraintFlags{
			EnabledConstraints: cs.EnabledFlags(),
			Values:             values,
		},
		Fingerprint: snap.Fingerprint,
	}
}

// Parse parses prompt; an empty viewID is replaced by a fresh UUID.
func (e *Engine) Parse(viewID, prompt string) domain.Intent {
	if viewID == "" {
		viewID = uuid.NewString()
	}
	return e.parser.Parse(viewID, prompt)
}

// Resolve resolves in with the given flags overlaid on the model.
func (e *Engine) Resolve(in domain.Intent, enabled map[string]bool) domain.ResolvedView {
	snap := e.source.Current()
	key := ""
	if e.cache != nil {
		key = cacheKey(snap.Fingerprint, in, enabled)
		if v, ok := e.cache.Get(key); ok {
			e.logger.Debug("resolve cache hit", "view", in.ViewID)
			return cloneView(v)
		}
	}
	view := resolver.Resolve(in, validate.EffectiveModel(snap.Model, enabled))
	if e.cache != nil {
		e.cache.Add(key, cloneView(view))
	}
	e.logger.Debug("resolved view",
		"view", in.ViewID,
		"nodes", len(view.Nodes),
		"violations", len(view.Violations))
	return view
}

func (e *Engine) Validate(in domain.Intent, enabled map[string]bool) validate.Result {
	snap := e.source.Current()
	res := validate.Validate(in, enabled, snap.Model)
	e.logger.Debug("validated view", "view", in.ViewID, "valid", res.Valid, "violations", len(res.Violations))
	return res
}

func (e *Engine) SuggestFixes(in domain.Intent, enabled map[string]bool, violations []domain.Violation) []fix.Fix {
	return e.suggester.Suggest(in, violations, enabled)
}

func (e *Engine) ApplyFixes(in domain.Intent, patches []domain.PatchOperation) (domain.Intent, []domain.PatchOutcome) {
	out, outcomes := patch.Apply(in, patches)
	if applied := patch.AppliedCount(outcomes); applied != len(outcomes) {
		e.logger.Warn("some patches were not applied",
			"view", in.ViewID,
			"applied", applied,
			"total", len(outcomes))
	}
	return out, outcomes
}

// RepairResult is the outcome of AutoRepair.
type RepairResult struct {
	Intent domain.Intent       `json:"viewSpec"`
	View   domain.ResolvedView `json:"view"`
	Rounds int                 `json:"rounds"`
}

// AutoRepair alternates resolve, suggest and apply until the view is free
// of violations, a round applies nothing, or the round limit is reached.
// Decisions are attached to the nodes whose components were patched.
func (e *Engine) AutoRepair(in domain.Intent, enabled map[string]bool) RepairResult {
	snap := e.source.Current()
	m := validate.EffectiveModel(snap.Model, enabled)

	current := in
	applied := []domain.AppliedConstraint{}
	outcomes := []domain.PatchOutcome{}
	decisions := map[int][]domain.Decision{}
	rounds := 0

	for rounds < e.maxRounds {
		view := resolver.Resolve(current, m)
		if len(view.Violations) == 0 {
			break
		}
		rounds++

		fixes := e.suggester.Suggest(current, view.Violations, enabled)
		next, res := patch.Apply(current, fix.Flatten(fixes))
		outcomes = append(outcomes, res...)

		k := 0
		for _, f := range fixes {
			applied = append(applied, f.AppliedConstraint)
			for _, p := range f.Patches {
				ok := res[k].Status == domain.PatchApplied
				k++
				if !ok {
					continue
				}
				if idx, _, valid := patch.ComponentIndex(p.Path); valid {
					decisions[idx] = append(decisions[idx], f.Decisions...)
				}
			}
		}

		if patch.AppliedCount(res) == 0 {
			e.logger.Info("auto-repair stopped without progress",
				"view", in.ViewID,
				"round", rounds,
				"violations", len(view.Violations))
			break
		}
		current = next
	}

	final := resolver.Resolve(current, m)
	for i := range final.Nodes {
		final.Nodes[i].Decisions = decisions[i]
	}
	final.AppliedConstraints = applied
	final.Patches = outcomes

	e.logger.Debug("auto-repair finished",
		"view", in.ViewID,
		"rounds", rounds,
		"violations", len(final.Violations))
	return RepairResult{Intent: current, View: final, Rounds: rounds}
}

func cacheKey(fingerprint string, in domain.Intent, enabled map[string]bool) string {
	h := blake3.New()
	h.Write([]byte(fingerprint))
	b, _ := json.Marshal(in)
	h.Write(b)
	b, _ = json.Marshal(enabled)
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))
}

func cloneView(v domain.ResolvedView) domain.ResolvedView {
	out := v
	out.Nodes = make([]domain.ResolvedNode, len(v.Nodes))
	for i, n := range v.Nodes {
		cn := n
		cn.Styles = make(map[string]any, len(n.Styles))
		for k, val := range n.Styles {
			cn.Styles[k] = val
		}
		cn.Trace = append([]domain.TraceEntry{}, n.Trace...)
		if n.Decisions != nil {
			cn.Decisions = append([]domain.Decision{}, n.Decisions...)
		}
		out.Nodes[i] = cn
	}
	out.Errors = append([]string{}, v.Errors...)
	out.Violations = append([]domain.Violation{}, v.Violations...)
	out.AppliedConstraints = append([]domain.AppliedConstraint{}, v.AppliedConstraints...)
	out.EnabledConstraints = make(map[string]bool, len(v.EnabledConstraints))
	for k, val := range v.EnabledConstraints {
		out.EnabledConstraints[k] = val
	}
	return out
}
