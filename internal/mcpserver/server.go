// Package mcpserver exposes the debugger and the AI flows as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aetherdebug/aetherdebug/internal/assistant"
	"github.com/aetherdebug/aetherdebug/internal/catalog"
	"github.com/aetherdebug/aetherdebug/internal/debugger"
)

const languagesURI = "aetherdebug://languages"

// Pipeline runs code and optionally analyzes the result.
type Pipeline interface {
	Run(ctx context.Context, req debugger.Request, observe debugger.Observer) (debugger.Report, error)
}

// Assistant exposes the AI flows.
type Assistant interface {
	ExplainError(ctx context.Context, in assistant.ExplainErrorInput) (assistant.ExplainErrorOutput, error)
	SuggestCodeFix(ctx context.Context, in assistant.SuggestCodeFixInput) (assistant.SuggestCodeFixOutput, error)
	GenerateCodeFromDescription(ctx context.Context, in assistant.GenerateCodeInput) (assistant.GenerateCodeOutput, error)
}

// Deps holds dependencies for the MCP server.
type Deps struct {
	Catalog   *catalog.Catalog
	Pipeline  Pipeline
	Assistant Assistant
	Version   string
}

// New creates an MCP server with all tools and resources registered.
func New(deps Deps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"aetherdebug",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("AetherDebug runs code snippets and explains their errors."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("run_code",
			mcp.WithDescription("Run a code snippet and, unless analyze is false, explain the result and suggest a fix."),
			mcp.WithString("code", mcp.Description("Source code to run"), mcp.Required()),
			mcp.WithString("language", mcp.Description("Language id, see "+languagesURI+" (default javascript)")),
			mcp.WithBoolean("analyze", mcp.Description("Ask the AI to explain and fix the result (default true)")),
		),
		runCode(deps),
	)

	s.AddTool(
		mcp.NewTool("explain_error",
			mcp.WithDescription("Explain an error message in plain language."),
			mcp.WithString("code", mcp.Description("Code that produced the error"), mcp.Required()),
			mcp.WithString("language", mcp.Description("Language id"), mcp.Required()),
			mcp.WithString("error_message", mcp.Description("Error message or output")),
		),
		explainError(deps),
	)

	s.AddTool(
		mcp.NewTool("suggest_code_fix",
			mcp.WithDescription("Suggest a corrected version of the code."),
			mcp.WithString("code", mcp.Description("Code to fix"), mcp.Required()),
			mcp.WithString("language", mcp.Description("Language id"), mcp.Required()),
			mcp.WithString("error_description", mcp.Description("What went wrong")),
		),
		suggestCodeFix(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_code",
			mcp.WithDescription("Write code from a natural language description."),
			mcp.WithString("description", mcp.Description("What the code should do"), mcp.Required()),
			mcp.WithString("language", mcp.Description("Language id"), mcp.Required()),
		),
		generateCode(deps),
	)

	s.AddResource(
		mcp.NewResource(
			languagesURI,
			"Languages",
			mcp.WithResourceDescription("Languages the editor supports"),
			mcp.WithMIMEType("application/json"),
		),
		languagesResource(deps),
	)

	return s
}

func runCode(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code, err := req.RequireString("code")
		if err != nil {
			return mcpError("code is required"), nil
		}
		lang, err := deps.Catalog.Lookup(req.GetString("language", deps.Catalog.Initial().ID))
		if err != nil {
			return mcpError(err.Error()), nil
		}

		rep, err := deps.Pipeline.Run(ctx, debugger.Request{
			Language: lang,
			Code:     code,
			SkipAI:   !req.GetBool("analyze", true),
		}, nil)
		if err != nil {
			return mcpError(fmt.Sprintf("run failed: %v", err)), nil
		}
		if rep.Notice != nil && rep.RunID == "" {
			return mcpError(rep.Notice.Description), nil
		}

		return mcpText(renderReport(rep)), nil
	}
}

// renderReport lays the panels out as one text block.
func renderReport(rep debugger.Report) string {
	var b strings.Builder
	b.WriteString("Output:\n")
	b.WriteString(rep.Output)
	if rep.Explanation != "" {
		b.WriteString("\n\nAI Explanation:\n")
		b.WriteString(rep.Explanation)
	}
	if rep.SuggestedFix != "" {
		b.WriteString("\n\nSuggested Fix:\n")
		b.WriteString(rep.SuggestedFix)
	}
	return b.String()
}

func explainError(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := deps.Assistant.ExplainError(ctx, assistant.ExplainErrorInput{
			Code:         req.GetString("code", ""),
			Language:     req.GetString("language", ""),
			ErrorMessage: req.GetString("error_message", ""),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("explain failed: %v", err)), nil
		}
		return mcpText(out.Explanation), nil
	}
}

func suggestCodeFix(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := deps.Assistant.SuggestCodeFix(ctx, assistant.SuggestCodeFixInput{
			Code:             req.GetString("code", ""),
			Language:         req.GetString("language", ""),
			ErrorDescription: req.GetString("error_description", ""),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("fix failed: %v", err)), nil
		}
		return mcpText(out.Render()), nil
	}
}

func generateCode(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := deps.Assistant.GenerateCodeFromDescription(ctx, assistant.GenerateCodeInput{
			Description: req.GetString("description", ""),
			Language:    req.GetString("language", ""),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("generate failed: %v", err)), nil
		}
		return mcpText(out.Code), nil
	}
}

func languagesResource(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		type entry struct {
			ID    string `json:"id"`
			Label string `json:"label"`
			Live  bool   `json:"live"`
		}
		langs := deps.Catalog.All()
		entries := make([]entry, len(langs))
		for i, l := range langs {
			entries[i] = entry{ID: l.ID, Label: l.Label, Live: l.Live}
		}

		b, err := json.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal languages: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
