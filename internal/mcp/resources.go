package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// Prompt and resource names.
const (
	PromptAnalyst = "system_prompt_for_agent"
	ConfigURI     = "config://app"
)

// registerPrompts registers the analyst system prompt.
func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(
		mcplib.NewPrompt(PromptAnalyst,
			mcplib.WithPromptDescription("System prompt for an AWS cost analysis agent"),
			mcplib.WithArgument("aws_account_id",
				mcplib.ArgumentDescription("AWS account to analyze; defaults to the caller's own account"),
			),
		),
		s.handleAnalystPrompt,
	)
}

func (s *Server) handleAnalystPrompt(ctx context.Context, req mcplib.GetPromptRequest) (*mcplib.GetPromptResult, error) {
	text := s.svc.AnalystPrompt(ctx, req.Params.Arguments["aws_account_id"])
	return mcplib.NewGetPromptResult(
		"AWS cost analyst system prompt",
		[]mcplib.PromptMessage{
			mcplib.NewPromptMessage(mcplib.RoleAssistant, mcplib.NewTextContent(text)),
		},
	), nil
}

// registerResources registers the effective configuration resource.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			ConfigURI,
			"App Configuration",
			mcplib.WithResourceDescription("Effective server configuration"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleConfigResource,
	)
}

func (s *Server) handleConfigResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	data, err := json.Marshal(s.cfg)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
