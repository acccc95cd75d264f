// Package tools composes credential resolution, log normalization, usage
// aggregation and billing queries into operations that always return text.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"

	"github.com/bgdnvk/spendwise/internal/awsauth"
	"github.com/bgdnvk/spendwise/internal/config"
	"github.com/bgdnvk/spendwise/internal/cost"
	"github.com/bgdnvk/spendwise/internal/logger"
	"github.com/bgdnvk/spendwise/internal/usage"
)

// Resolver yields the account scope for one operation.
type Resolver interface {
	Resolve(ctx context.Context, targetAccountID, region string) (*awsauth.Scope, error)
	CallerAccount(ctx context.Context, region string) (string, error)
}

// Service runs the usage and billing operations. Every exported method that
// returns a string is total: failures come back as text.
type Service struct {
	cfg      config.Config
	resolver Resolver
	logs     func(*awsauth.Scope) cloudwatchlogs.FilterLogEventsAPIClient
	costs    func(*awsauth.Scope) cost.CostExplorerAPI
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogsClient overrides how the CloudWatch Logs client is built from a scope.
func WithLogsClient(fn func(*awsauth.Scope) cloudwatchlogs.FilterLogEventsAPIClient) Option {
	return func(s *Service) { s.logs = fn }
}

// WithCostClient overrides how the Cost Explorer client is built from a scope.
func WithCostClient(fn func(*awsauth.Scope) cost.CostExplorerAPI) Option {
	return func(s *Service) { s.costs = fn }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service.
func NewService(cfg config.Config, resolver Resolver, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		resolver: resolver,
		logs: func(scope *awsauth.Scope) cloudwatchlogs.FilterLogEventsAPIClient {
			return scope.Logs()
		},
		costs: func(scope *awsauth.Scope) cost.CostExplorerAPI {
			return scope.CostExplorer()
		},
		logger: logger.For("tools"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the configuration the service was built with.
func (s *Service) Config() config.Config {
	return s.cfg
}

// FetchUsage resolves the scope and normalizes the invocation logs of the
// window. The returned params have defaults applied.
func (s *Service) FetchUsage(ctx context.Context, p LogParams) (*usage.Batch, LogParams, error) {
	p, err := p.Normalize(s.cfg)
	if err != nil {
		return nil, p, err
	}
	scope, err := s.resolver.Resolve(ctx, p.AccountID, p.Region)
	if err != nil {
		return nil, p, err
	}
	batch, err := usage.NewNormalizer(s.logs(scope)).Fetch(ctx, usage.FetchParams{Days: p.Days, LogGroup: p.LogGroup})
	if err != nil {
		return nil, p, err
	}
	return batch, p, nil
}

// DailyUsage renders per-day Bedrock usage statistics.
func (s *Service) DailyUsage(ctx context.Context, p LogParams) string {
	s.logger.Info("get_bedrock_daily_usage_stats", "params", p)
	return s.usageText(ctx, p, usage.BuildDaily)
}

// HourlyUsage renders per-hour Bedrock usage statistics.
func (s *Service) HourlyUsage(ctx context.Context, p LogParams) string {
	s.logger.Info("get_bedrock_hourly_usage_stats", "params", p)
	return s.usageText(ctx, p, usage.BuildHourly)
}

func (s *Service) usageText(ctx context.Context, p LogParams, build func([]usage.Record, int, string) *usage.Report) string {
	batch, p, err := s.FetchUsage(ctx, p)
	if err != nil {
		return s.failure("Error retrieving Bedrock usage", err)
	}
	if batch.Note != "" {
		s.logger.Info(batch.Note, "log_group", p.LogGroup, "region", p.Region)
	}
	return build(batch.Records, p.Days, p.Region).String()
}

// InstanceSpend resolves the scope and queries last-day EC2 compute spend.
func (s *Service) InstanceSpend(ctx context.Context, p SpendParams) (*cost.InstanceSpend, error) {
	p, err := p.Normalize(s.cfg)
	if err != nil {
		return nil, err
	}
	engine, err := s.engine(ctx, p)
	if err != nil {
		return nil, err
	}
	return engine.LastDayInstanceSpend(ctx, cost.ServiceEC2Compute)
}

// LastDaySpend renders the last-day EC2 compute spend. The structured result is
// nil when the query failed.
func (s *Service) LastDaySpend(ctx context.Context, p SpendParams) (string, *cost.InstanceSpend) {
	s.logger.Info("get_ec2_spend_last_day", "params", p)
	spend, err := s.InstanceSpend(ctx, p)
	if err != nil {
		return s.failure("Error retrieving EC2 cost data", err), nil
	}
	return cost.RenderInstanceSpend(spend), spend
}

// Breakdown resolves the scope and runs the day-by-day breakdown.
func (s *Service) Breakdown(ctx context.Context, p SpendParams) (*cost.Breakdown, error) {
	p, err := p.Normalize(s.cfg)
	if err != nil {
		return nil, err
	}
	engine, err := s.engine(ctx, p)
	if err != nil {
		return nil, err
	}
	return engine.DailyBreakdown(ctx, p.Days)
}

// DetailedBreakdown renders the day-by-day cost breakdown by region, service
// and instance type.
func (s *Service) DetailedBreakdown(ctx context.Context, p SpendParams) string {
	s.logger.Info("get_detailed_breakdown_by_day", "params", p)
	b, err := s.Breakdown(ctx, p)
	if err != nil {
		return s.failure("Error retrieving detailed breakdown", err)
	}
	return cost.RenderBreakdown(b)
}

func (s *Service) engine(ctx context.Context, p SpendParams) (*cost.Engine, error) {
	scope, err := s.resolver.Resolve(ctx, p.AccountID, p.Region)
	if err != nil {
		return nil, err
	}
	return cost.NewEngine(s.costs(scope)), nil
}

// failure turns err into the text returned to the caller.
func (s *Service) failure(prefix string, err error) string {
	switch {
	case errors.Is(err, awsauth.ErrResolution):
		s.logger.Error("credential resolution failed", "error", err)
		return fmt.Sprintf("Error resolving AWS credentials: %v", err)
	case errors.Is(err, usage.ErrFetch), errors.Is(err, cost.ErrBilling):
		s.logger.Error(prefix, "error", err)
	default:
		s.logger.Warn(prefix, "error", err)
	}
	return fmt.Sprintf("%s: %v", prefix, err)
}
