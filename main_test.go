package main

import (
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/config"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/export"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/model"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/pipeline"
)

// TestDesignSpec runs an integration test against the model in testdata.
// It verifies that:
// 1. CSS tokens, YAML contracts and JSONC constraints load together.
// 2. A prompt with two primaries is blocked by maxPrimaryButtonsPerView.
// 3. Auto-repair demotes the second button and styles it from the surface tokens.
// 4. Switching the rule off resolves the original prompt unchanged.
func TestDesignSpec(t *testing.T) {
	root, _ := filepath.Abs("testdata")
	cfg, err := config.LoadConfig(root)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	holder, loader, err := model.Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if loader == nil {
		t.Fatal("Expected a directory loader for testdata/design")
	}
	if got := holder.Current().Model.Tokens["color.primary"]; got != "#7c3aed" {
		t.Errorf("Expected color.primary from tokens.css, got %v", got)
	}

	engine, err := pipeline.New(holder, pipeline.Options{CacheSize: cfg.CacheSize})
	if err != nil {
		t.Fatalf("pipeline.New failed: %v", err)
	}

	// Check violation
	in := engine.Parse("checkout", "Create two primary buttons")
	view := engine.Resolve(in, nil)
	if len(view.Nodes) != 0 {
		t.Errorf("Expected no nodes for a blocked view, got %d", len(view.Nodes))
	}
	if len(view.Violations) != 1 || view.Violations[0].ConstraintID != domain.RuleMaxPrimaryButtonsPerView {
		t.Fatalf("Expected one maxPrimaryButtonsPerView violation, got %+v", view.Violations)
	}

	// Check repair
	res := engine.AutoRepair(in, nil)
	if len(res.View.Violations) != 0 {
		t.Fatalf("Expected repaired view to be valid, got %+v", res.View.Violations)
	}
	if len(res.View.Nodes) != 2 {
		t.Fatalf("Expected 2 nodes, got %d", len(res.View.Nodes))
	}
	first, second := res.View.Nodes[0], res.View.Nodes[1]
	if first.Styles["backgroundColor"] != "#7c3aed" {
		t.Errorf("Expected primary background, got %v", first.Styles["backgroundColor"])
	}
	if second.Props.Variant != domain.VariantSecondary {
		t.Errorf("Expected second button demoted, got %s", second.Props.Variant)
	}
	if second.Styles["backgroundColor"] != "#f5f5f4" {
		t.Errorf("Expected surface background, got %v", second.Styles["backgroundColor"])
	}
	if len(second.Decisions) != 1 || second.Decisions[0].Type != domain.DecisionAutoFix {
		t.Errorf("Expected one autoFix decision, got %+v", second.Decisions)
	}

	foundTrace := false
	for _, tr := range second.Trace {
		if tr.Key == "backgroundColor" && tr.Source == "token:color.surface" &&
			tr.Constraint == domain.RuleSecondaryUsesSurface {
			foundTrace = true
			break
		}
	}
	if !foundTrace {
		t.Error("Expected backgroundColor traced to color.surface under secondaryUsesSurface")
	}

	// Check that disabling the rule lets the original prompt through
	relaxed := engine.Resolve(in, map[string]bool{domain.RuleMaxPrimaryButtonsPerView: false})
	if len(relaxed.Violations) != 0 || len(relaxed.Nodes) != 2 {
		t.Errorf("Expected 2 nodes without violations, got %d nodes and %+v",
			len(relaxed.Nodes), relaxed.Violations)
	}

	// Check that a flag keeps the configured opacity
	disabled := engine.Resolve(engine.Parse("settings", "a disabled button"),
		map[string]bool{domain.RuleDisabledOpacity: true})
	if len(disabled.Nodes) != 1 || disabled.Nodes[0].Styles["opacity"] != 0.5 {
		t.Errorf("Expected configured opacity 0.5, got %+v", disabled.Nodes)
	}

	// Check export
	scene := export.BuildScene(res.View)
	if len(scene.Elements) != 4 {
		t.Errorf("Expected 4 scene elements, got %d", len(scene.Elements))
	}
}
