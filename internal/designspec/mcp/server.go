package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/domain"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/fix"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/model"
	"github.com/modelcontextprotocol/go-sdk/examples/server/designspec/internal/designspec/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Name and Version identify the server to MCP clients.
const (
	Name    = "designspec-mcp"
	Version = "0.1.0"
)

var (
	// ErrInvalidParams marks a call with missing or malformed arguments.
	ErrInvalidParams = errors.New("invalid_params")
	// ErrInternal marks an unexpected failure. Its detail is only logged.
	ErrInternal = errors.New("internal")
)

// DesignSpecServer exposes the design pipeline as MCP tools and resources.
type DesignSpecServer struct {
	Engine *pipeline.Engine // Pipeline bound to the current snapshot.
	Holder *model.Holder    // Current design model snapshot.
	Logger *slog.Logger
}

// New returns a server for engine. holder feeds the status resource.
func New(engine *pipeline.Engine, holder *model.Holder, logger *slog.Logger) *DesignSpecServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DesignSpecServer{Engine: engine, Holder: holder, Logger: logger}
}

// Server builds an MCP server with every tool and resource registered.
func (ds *DesignSpecServer) Server() *mcp.Server {
	s := mcp.NewServer(&mcp.Implementation{
		Name:    Name,
		Version: Version,
	}, &mcp.ServerOptions{})

	// Register Tools
	mcp.AddTool(s, &mcp.Tool{
		Name:        "getDesignModel",
		Description: "Return design tokens, component contracts and constraint flags",
	}, guard(ds, "getDesignModel", ds.getDesignModel))

	mcp.AddTool(s, &mcp.Tool{
		Name:        "validate",
		Description: "Validate a view spec against the design constraints",
	}, guard(ds, "validate", ds.validate))

	mcp.AddTool(s, &mcp.Tool{
		Name:        "suggestFixes",
		Description: "Suggest patches that repair constraint violations",
	}, guard(ds, "suggestFixes", ds.suggestFixes))

	mcp.AddTool(s, &mcp.Tool{
		Name:        "applyFixes",
		Description: "Apply patches to a view spec and return the new spec",
	}, guard(ds, "applyFixes", ds.applyFixes))

	mcp.AddTool(s, &mcp.Tool{
		Name:        "parsePrompt",
		Description: "Parse a natural-language prompt into a view spec",
	}, guard(ds, "parsePrompt", ds.parsePrompt))

	mcp.AddTool(s, &mcp.Tool{
		Name:        "resolveView",
		Description: "Resolve a view spec into styled nodes with provenance trace",
	}, guard(ds, "resolveView", ds.resolveView))

	mcp.AddTool(s, &mcp.Tool{
		Name:        "autoRepair",
		Description: "Resolve a view spec or prompt, repairing violations until it is valid",
	}, guard(ds, "autoRepair", ds.autoRepair))

	// Register Resources
	s.AddResource(&mcp.Resource{
		Name:     "model",
		URI:      "mcp://designspec/model",
		MIMEType: "application/json",
	}, ds.handleModel)

	s.AddResource(&mcp.Resource{
		Name:     "constraints",
		URI:      "mcp://designspec/constraints",
		MIMEType: "application/json",
	}, ds.handleConstraints)

	s.AddResource(&mcp.Resource{
		Name:     "status",
		URI:      "mcp://designspec/status",
		MIMEType: "application/json",
	}, ds.handleStatus)

	return s
}

// Tool Inputs

// EmptyInput defines an empty input structure for tools that require no parameters.
type EmptyInput struct{}

// ValidateInput is shared by validate and resolveView.
type ValidateInput struct {
	ViewSpec           *domain.Intent  `json:"viewSpec,omitempty" jsonschema:"the view spec to check"`
	EnabledConstraints map[string]bool `json:"enabledConstraints,omitempty" jsonschema:"constraint flags overlaid on the design model"`
}

type SuggestFixesInput struct {
	ViewSpec           *domain.Intent     `json:"viewSpec,omitempty" jsonschema:"the view spec the violations refer to"`
	EnabledConstraints map[string]bool    `json:"enabledConstraints,omitempty" jsonschema:"constraint flags overlaid on the design model"`
	Violations         []domain.Violation `json:"violations,omitempty" jsonschema:"violations returned by validate"`
}

type ApplyFixesInput struct {
	ViewSpec *domain.Intent          `json:"viewSpec,omitempty" jsonschema:"the view spec to patch"`
	Fixes    []domain.PatchOperation `json:"fixes,omitempty" jsonschema:"patch operations returned by suggestFixes"`
}

type ParsePromptInput struct {
	Prompt string `json:"prompt,omitempty" jsonschema:"natural-language description of the view"`
	ViewID string `json:"viewId,omitempty" jsonschema:"view id; generated when empty"`
}

// AutoRepairInput takes either a view spec or a prompt.
type AutoRepairInput struct {
	ViewSpec           *domain.Intent  `json:"viewSpec,omitempty" jsonschema:"the view spec to repair"`
	Prompt             string          `json:"prompt,omitempty" jsonschema:"prompt parsed when viewSpec is absent"`
	ViewID             string          `json:"viewId,omitempty" jsonschema:"view id used with prompt"`
	EnabledConstraints map[string]bool `json:"enabledConstraints,omitempty" jsonschema:"constraint flags overlaid on the design model"`
}

// Tool Outputs

type SuggestFixesOutput struct {
	Fixes   []domain.PatchOperation `json:"fixes"`
	Details []fix.Fix               `json:"details"`
}

type ApplyFixesOutput struct {
	ViewSpec domain.Intent         `json:"viewSpec"`
	Outcomes []domain.PatchOutcome `json:"outcomes"`
}

// Tool Handlers

// guard maps a panic in h to an internal tool error and logs it.
func guard[In any](ds *DesignSpecServer, name string, h func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, any, error)) func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, in In) (res *mcp.CallToolResult, out any, err error) {
		defer func() {
			if r := recover(); r != nil {
				ds.Logger.Error("tool panicked", "tool", name, "panic", r)
				res, out, err = toolError(fmt.Errorf("%w: %v", ErrInternal, r)), nil, nil
			}
		}()
		start := time.Now()
		res, out, err = h(ctx, req, in)
		ds.Logger.Debug("tool call", "tool", name, "error", res != nil && res.IsError, "took", time.Since(start))
		return res, out, err
	}
}

func (ds *DesignSpecServer) getDesignModel(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, any, error) {
	return jsonResult(ds.Engine.DesignModel())
}

func (ds *DesignSpecServer) validate(ctx context.Context, req *mcp.CallToolRequest, input ValidateInput) (*mcp.CallToolResult, any, error) {
	if input.ViewSpec == nil {
		return invalidParams("viewSpec is required")
	}
	return jsonResult(ds.Engine.Validate(*input.ViewSpec, input.EnabledConstraints))
}

func (ds *DesignSpecServer) suggestFixes(ctx context.Context, req *mcp.CallToolRequest, input SuggestFixesInput) (*mcp.CallToolResult, any, error) {
	if input.ViewSpec == nil {
		return invalidParams("viewSpec is required")
	}
	if input.Violations == nil {
		return invalidParams("violations is required")
	}
	fixes := ds.Engine.SuggestFixes(*input.ViewSpec, input.EnabledConstraints, input.Violations)
	return jsonResult(SuggestFixesOutput{
		Fixes:   fix.Flatten(fixes),
		Details: fixes,
	})
}

func (ds *DesignSpecServer) applyFixes(ctx context.Context, req *mcp.CallToolRequest, input ApplyFixesInput) (*mcp.CallToolResult, any, error) {
	if input.ViewSpec == nil {
		return invalidParams("viewSpec is required")
	}
	if input.Fixes == nil {
		return invalidParams("fixes is required")
	}
	out, outcomes := ds.Engine.ApplyFixes(*input.ViewSpec, input.Fixes)
	return jsonResult(ApplyFixesOutput{ViewSpec: out, Outcomes: outcomes})
}

func (ds *DesignSpecServer) parsePrompt(ctx context.Context, req *mcp.CallToolRequest, input ParsePromptInput) (*mcp.CallToolResult, any, error) {
	if input.Prompt == "" {
		return invalidParams("prompt is required")
	}
	return jsonResult(ds.Engine.Parse(input.ViewID, input.Prompt))
}

func (ds *DesignSpecServer) resolveView(ctx context.Context, req *mcp.CallToolRequest, input ValidateInput) (*mcp.CallToolResult, any, error) {
	if input.ViewSpec == nil {
		return invalidParams("viewSpec is required")
	}
	return jsonResult(ds.Engine.Resolve(*input.ViewSpec, input.EnabledConstraints))
}

func (ds *DesignSpecServer) autoRepair(ctx context.Context, req *mcp.CallToolRequest, input AutoRepairInput) (*mcp.CallToolResult, any, error) {
	var in domain.Intent
	switch {
	case input.ViewSpec != nil:
		in = *input.ViewSpec
	case input.Prompt != "":
		in = ds.Engine.Parse(input.ViewID, input.Prompt)
	default:
		return invalidParams("viewSpec or prompt is required")
	}
	return jsonResult(ds.Engine.AutoRepair(in, input.EnabledConstraints))
}

func invalidParams(msg string) (*mcp.CallToolResult, any, error) {
	return toolError(fmt.Errorf("%w: %s", ErrInvalidParams, msg)), nil, nil
}

// toolError maps err to a structured error result. Only invalid parameter
// errors carry their message to the client.
func toolError(err error) *mcp.CallToolResult {
	code, msg := ErrInternal.Error(), "internal error"
	if errors.Is(err, ErrInvalidParams) {
		code, msg = ErrInvalidParams.Error(), err.Error()
	}
	body := map[string]any{
		"error": map[string]string{"code": code, "message": msg},
	}
	jsonBytes, _ := json.MarshalIndent(body, "", "  ")
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(fmt.Errorf("%w: %v", ErrInternal, err)), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, nil, nil
}

// Resource Handlers

func (ds *DesignSpecServer) handleModel(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(req, ds.Engine.DesignModel())
}

func (ds *DesignSpecServer) handleConstraints(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(req, ds.Holder.Current().Model.Constraints)
}

func (ds *DesignSpecServer) handleStatus(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	snap := ds.Holder.Current()
	status := map[string]interface{}{
		"source":      snap.Source,
		"fingerprint": snap.Fingerprint,
		"loaded_at":   snap.LoadedAt,
		"token_count": len(snap.Model.Tokens),
		"status":      "healthy",
	}
	return jsonResource(req, status)
}

func jsonResource(req *mcp.ReadResourceRequest, v any) (*mcp.ReadResourceResult, error) {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: req.Params.URI, MIMEType: "application/json", Text: string(bytes)},
		},
	}, nil
}
