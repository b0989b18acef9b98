package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/model"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/pipeline"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/validate"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func newTestServer(t *testing.T) *DesignSpecServer {
	t.Helper()
	m, err := model.DefaultLoader(nil).Load()
	require.NoError(t, err)
	snap, err := model.NewSnapshot(m, "test")
	require.NoError(t, err)
	h := model.NewHolder(snap)
	e, err := pipeline.New(h, pipeline.Options{CacheSize: 8})
	require.NoError(t, err)
	return New(e, h, nil)
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func decode(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	require.False(t, res.IsError, text(t, res))
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), v))
}

type toolErr struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func assertToolError(t *testing.T, res *mcp.CallToolResult, code string) toolErr {
	t.Helper()
	require.True(t, res.IsError)
	var e toolErr
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &e))
	assert.Equal(t, code, e.Error.Code)
	return e
}

func twoPrimaries() *domain.Intent {
	return &domain.Intent{ViewID: "main", Components: []domain.ComponentSpec{
		{Type: domain.ComponentButton, Props: domain.Props{Label: "A", Variant: domain.VariantPrimary, Size: domain.SizeMedium}},
		{Type: domain.ComponentButton, Props: domain.Props{Label: "B", Variant: domain.VariantPrimary, Size: domain.SizeMedium}},
	}}
}

func TestHandlersRejectMissingParams(t *testing.T) {
	ds := newTestServer(t)
	ctx := context.Background()

	res, _, err := ds.validate(ctx, nil, ValidateInput{})
	require.NoError(t, err)
	e := assertToolError(t, res, "invalid_params")
	assert.Contains(t, e.Error.Message, "viewSpec")

	res, _, err = ds.suggestFixes(ctx, nil, SuggestFixesInput{ViewSpec: twoPrimaries()})
	require.NoError(t, err)
	e = assertToolError(t, res, "invalid_params")
	assert.Contains(t, e.Error.Message, "violations")

	res, _, err = ds.applyFixes(ctx, nil, ApplyFixesInput{ViewSpec: twoPrimaries()})
	require.NoError(t, err)
	assertToolError(t, res, "invalid_params")

	res, _, err = ds.parsePrompt(ctx, nil, ParsePromptInput{})
	require.NoError(t, err)
	assertToolError(t, res, "invalid_params")

	res, _, err = ds.autoRepair(ctx, nil, AutoRepairInput{})
	require.NoError(t, err)
	assertToolError(t, res, "invalid_params")
}

func TestValidateSuggestApply(t *testing.T) {
	ds := newTestServer(t)
	ctx := context.Background()
	enabled := map[string]bool{domain.RuleOnlyOnePrimaryPerView: true}

	res, _, err := ds.validate(ctx, nil, ValidateInput{ViewSpec: twoPrimaries(), EnabledConstraints: enabled})
	require.NoError(t, err)
	var vr validate.Result
	decode(t, res, &vr)
	assert.False(t, vr.Valid)
	require.Len(t, vr.Violations, 1)

	res, _, err = ds.suggestFixes(ctx, nil, SuggestFixesInput{
		ViewSpec:           twoPrimaries(),
		EnabledConstraints: enabled,
		Violations:         vr.Violations,
	})
	require.NoError(t, err)
	var sf SuggestFixesOutput
	decode(t, res, &sf)
	require.Len(t, sf.Fixes, 1)
	assert.Equal(t, "/components/1/props/variant", sf.Fixes[0].Path)

	res, _, err = ds.applyFixes(ctx, nil, ApplyFixesInput{ViewSpec: twoPrimaries(), Fixes: sf.Fixes})
	require.NoError(t, err)
	var af ApplyFixesOutput
	decode(t, res, &af)
	assert.Equal(t, domain.VariantSecondary, af.ViewSpec.Components[1].Props.Variant)
	require.Len(t, af.Outcomes, 1)
	assert.Equal(t, domain.PatchApplied, af.Outcomes[0].Status)

	res, _, err = ds.validate(ctx, nil, ValidateInput{ViewSpec: &af.ViewSpec, EnabledConstraints: enabled})
	require.NoError(t, err)
	decode(t, res, &vr)
	assert.True(t, vr.Valid)
}

func TestAutoRepairFromPrompt(t *testing.T) {
	ds := newTestServer(t)
	res, _, err := ds.autoRepair(context.Background(), nil, AutoRepairInput{
		Prompt:             "Create two primary buttons",
		ViewID:             "checkout",
		EnabledConstraints: map[string]bool{domain.RuleOnlyOnePrimaryPerView: true},
	})
	require.NoError(t, err)

	var rr pipeline.RepairResult
	decode(t, res, &rr)
	assert.Equal(t, "checkout", rr.View.ViewID)
	require.Len(t, rr.View.Nodes, 2)
	require.Len(t, rr.View.Nodes[1].Decisions, 1)
	assert.Equal(t, domain.DecisionAutoFix, rr.View.Nodes[1].Decisions[0].Type)
}

func TestGuardRecoversPanics(t *testing.T) {
	ds := newTestServer(t)
	h := guard(ds, "boom", func(ctx context.Context, req *mcp.CallToolRequest, in EmptyInput) (*mcp.CallToolResult, any, error) {
		panic("secret detail")
	})

	res, _, err := h(context.Background(), nil, EmptyInput{})
	require.NoError(t, err)
	e := assertToolError(t, res, "internal")
	assert.NotContains(t, e.Error.Message, "secret")
}

func connect(t *testing.T, ds *DesignSpecServer) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := ds.Server().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func TestServerOverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	cs := connect(t, newTestServer(t))

	tools, err := cs.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	names := []string{}
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"getDesignModel", "validate", "suggestFixes", "applyFixes",
		"parsePrompt", "resolveView", "autoRepair",
	}, names)

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "getDesignModel",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	var dm pipeline.DesignModelView
	decode(t, res, &dm)
	assert.True(t, dm.Constraints.EnabledConstraints[domain.RuleOnlyOnePrimaryPerView])

	res, err = cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "validate",
		Arguments: map[string]any{"enabledConstraints": map[string]any{}},
	})
	require.NoError(t, err)
	assertToolError(t, res, "invalid_params")

	rr, err := cs.ReadResource(ctx, &mcp.ReadResourceParams{URI: "mcp://designspec/constraints"})
	require.NoError(t, err)
	require.Len(t, rr.Contents, 1)
	assert.Contains(t, rr.Contents[0].Text, "onlyOnePrimaryPerView")
}

func TestValidateAcceptsSparseViewSpec(t *testing.T) {
	ctx := context.Background()
	cs := connect(t, newTestServer(t))

	tests := []struct {
		name      string
		props     map[string]any
		wantValid bool
		wantCode  domain.ViolationCode
	}{
		{
			name:      "disabled and viewId omitted",
			props:     map[string]any{"label": "Go", "variant": "primary", "size": "md"},
			wantValid: true,
		},
		{
			name:     "label omitted",
			props:    map[string]any{"variant": "primary", "size": "md"},
			wantCode: domain.CodeMissingLabel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := cs.CallTool(ctx, &mcp.CallToolParams{
				Name: "validate",
				Arguments: map[string]any{
					"viewSpec": map[string]any{
						"components": []any{
							map[string]any{"type": "button", "props": tt.props},
						},
					},
				},
			})
			require.NoError(t, err)

			var vr validate.Result
			decode(t, res, &vr)
			assert.Equal(t, tt.wantValid, vr.Valid)
			if tt.wantCode != "" {
				require.Len(t, vr.Violations, 1)
				assert.Equal(t, tt.wantCode, vr.Violations[0].Code)
			}
		})
	}
}
