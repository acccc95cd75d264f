package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bgdnvk/spendwise/internal/config"
	"github.com/bgdnvk/spendwise/internal/tools"
)

// Tool names.
const (
	ToolDailyUsage        = "get_bedrock_daily_usage_stats"
	ToolHourlyUsage       = "get_bedrock_hourly_usage_stats"
	ToolEC2SpendLastDay   = "get_ec2_spend_last_day"
	ToolDetailedBreakdown = "get_detailed_breakdown_by_day"
)

const accountDescription = "AWS account id (if different from the current AWS account) of the account for which to get the cost data"

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.dailyUsageTool(),
		s.hourlyUsageTool(),
		s.ec2SpendTool(),
		s.detailedBreakdownTool(),
	)
}

func (s *Server) logTool(name, description string, handler mcpserver.ToolHandlerFunc) mcpserver.ServerTool {
	tool := mcplib.NewTool(name,
		mcplib.WithDescription(description),
		mcplib.WithNumber("days",
			mcplib.Description("Number of days to look back for Bedrock logs"),
			mcplib.Min(tools.MinDays),
			mcplib.Max(tools.MaxDays),
			mcplib.DefaultNumber(tools.DefaultLogDays),
		),
		mcplib.WithString("region",
			mcplib.Description("AWS region to retrieve logs from"),
			mcplib.DefaultString(s.cfg.Region),
		),
		mcplib.WithString("log_group_name",
			mcplib.Description("Bedrock Log Group Name"),
			mcplib.DefaultString(s.cfg.LogGroupName),
		),
		mcplib.WithString("aws_account_id",
			mcplib.Description(accountDescription),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) spendTool(name, description string, handler mcpserver.ToolHandlerFunc) mcpserver.ServerTool {
	tool := mcplib.NewTool(name,
		mcplib.WithDescription(description),
		mcplib.WithNumber("days",
			mcplib.Description("Number of days to look back for cost data"),
			mcplib.Min(tools.MinDays),
			mcplib.Max(tools.MaxDays),
			mcplib.DefaultNumber(tools.DefaultSpendDays),
		),
		mcplib.WithString("region",
			mcplib.Description("AWS region to query Cost Explorer from"),
			mcplib.DefaultString(s.cfg.Region),
		),
		mcplib.WithString("aws_account_id",
			mcplib.Description(accountDescription),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: handler}
}

func (s *Server) dailyUsageTool() mcpserver.ServerTool {
	return s.logTool(ToolDailyUsage, "Get daily Bedrock usage statistics with detailed breakdowns by region, model and user", s.handleDailyUsage)
}

func (s *Server) hourlyUsageTool() mcpserver.ServerTool {
	return s.logTool(ToolHourlyUsage, "Get hourly Bedrock usage statistics with detailed breakdowns by region, model and user", s.handleHourlyUsage)
}

func (s *Server) ec2SpendTool() mcpserver.ServerTool {
	return s.spendTool(ToolEC2SpendLastDay, "Retrieve EC2 spend for the last day grouped by instance type using AWS Cost Explorer", s.handleEC2Spend)
}

func (s *Server) detailedBreakdownTool() mcpserver.ServerTool {
	return s.spendTool(ToolDetailedBreakdown, "Retrieve daily spend breakdown by region, service, and instance type", s.handleDetailedBreakdown)
}

func (s *Server) handleDailyUsage(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	p, err := logParams(req, s.cfg)
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	return mcplib.NewToolResultText(s.svc.DailyUsage(ctx, p)), nil
}

func (s *Server) handleHourlyUsage(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	p, err := logParams(req, s.cfg)
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	return mcplib.NewToolResultText(s.svc.HourlyUsage(ctx, p)), nil
}

// handleEC2Spend returns the rendered spend followed by the structured result
// as JSON when the query succeeded.
func (s *Server) handleEC2Spend(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	p, err := spendParams(req, s.cfg)
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	text, spend := s.svc.LastDaySpend(ctx, p)
	result := mcplib.NewToolResultText(text)
	if spend == nil {
		return result, nil
	}
	data, err := json.Marshal(spend)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal spend", err), nil
	}
	result.Content = append(result.Content, mcplib.NewTextContent(string(data)))
	return result, nil
}

func (s *Server) handleDetailedBreakdown(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	p, err := spendParams(req, s.cfg)
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	return mcplib.NewToolResultText(s.svc.DetailedBreakdown(ctx, p)), nil
}

func logParams(req mcplib.CallToolRequest, cfg config.Config) (tools.LogParams, error) {
	args := req.GetArguments()
	var p tools.LogParams
	var err error
	if p.Days, err = intArg(args, "days"); err != nil {
		return p, err
	}
	if p.Region, err = stringArg(args, "region"); err != nil {
		return p, err
	}
	if p.LogGroup, err = stringArg(args, "log_group_name"); err != nil {
		return p, err
	}
	if p.AccountID, err = stringArg(args, "aws_account_id"); err != nil {
		return p, err
	}
	return p.Normalize(cfg)
}

func spendParams(req mcplib.CallToolRequest, cfg config.Config) (tools.SpendParams, error) {
	args := req.GetArguments()
	var p tools.SpendParams
	var err error
	if p.Days, err = intArg(args, "days"); err != nil {
		return p, err
	}
	if p.Region, err = stringArg(args, "region"); err != nil {
		return p, err
	}
	if p.AccountID, err = stringArg(args, "aws_account_id"); err != nil {
		return p, err
	}
	return p.Normalize(cfg)
}

// intArg reads a whole number. Absent or null yields 0.
func intArg(args map[string]any, key string) (int, error) {
	switch v := args[key].(type) {
	case nil:
		return 0, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s must be a whole number, got %v", key, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s must be a whole number, got %s", key, v)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, v)
	}
}

func stringArg(args map[string]any, key string) (string, error) {
	switch v := args[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%s must be a string, got %T", key, v)
	}
}
