// Package cost queries AWS Cost Explorer for single-period instance spend and
// day-by-day breakdowns by region and service.
package cost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/bgdnvk/spendwise/internal/logger"
)

// ErrBilling marks a failed top-level Cost Explorer query.
var ErrBilling = errors.New("billing query failed")

// Services with drill-downs.
const (
	ServiceEC2Compute = "Amazon Elastic Compute Cloud - Compute"
	ServiceSageMaker  = "Amazon SageMaker"
)

const dateLayout = "2006-01-02"

// drillSpec describes one best-effort secondary query.
type drillSpec struct {
	match     func(service string) bool
	service   string
	dimension types.Dimension
	title     string
	failure   string
}

var (
	ec2InstanceDrill = drillSpec{
		match:     func(s string) bool { return strings.HasPrefix(s, "Amazon Elastic Compute") },
		service:   ServiceEC2Compute,
		dimension: types.DimensionInstanceType,
		title:     "EC2 Instance Type Breakdown",
		failure:   "Could not retrieve EC2 instance type breakdown",
	}
	sageMakerInstanceDrill = drillSpec{
		match:     func(s string) bool { return s == ServiceSageMaker },
		service:   ServiceSageMaker,
		dimension: types.DimensionInstanceType,
		title:     "SageMaker Instance Type Breakdown",
		failure:   "Could not retrieve SageMaker instance type breakdown",
	}
	sageMakerUsageDrill = drillSpec{
		match:     func(s string) bool { return s == ServiceSageMaker },
		service:   ServiceSageMaker,
		dimension: types.DimensionUsageType,
		title:     "SageMaker Usage Type Breakdown",
		failure:   "Could not retrieve SageMaker usage type breakdown",
	}
	drills = []drillSpec{ec2InstanceDrill, sageMakerInstanceDrill, sageMakerUsageDrill}
)

func (d drillSpec) column() string {
	if d.dimension == types.DimensionInstanceType {
		return "Instance Type"
	}
	return "Usage Type"
}

// Engine runs billing queries against one Cost Explorer client.
type Engine struct {
	client CostExplorerAPI
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine creates an engine over client.
func NewEngine(client CostExplorerAPI) *Engine {
	return &Engine{
		client: client,
		logger: logger.For("cost"),
		now:    time.Now,
	}
}

func (e *Engine) today() time.Time {
	now := e.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// LastDayInstanceSpend returns the spend of service over the last day grouped
// by instance type. When no groups come back the period total is used.
func (e *Engine) LastDayInstanceSpend(ctx context.Context, service string) (*InstanceSpend, error) {
	end := e.today()
	start := end.AddDate(0, 0, -1)
	spend := &InstanceSpend{
		Service: service,
		Start:   start.Format(dateLayout),
		End:     end.Format(dateLayout),
		Total:   Totals{},
	}

	e.logger.Debug("querying instance spend", "service", service, "start", spend.Start, "end", spend.End)
	filter := dimensionFilter(types.DimensionService, service)
	periods, err := queryAll(ctx, e.client, &costexplorer.GetCostAndUsageInput{
		TimePeriod:  &types.DateInterval{Start: aws.String(spend.Start), End: aws.String(spend.End)},
		Granularity: types.GranularityDaily,
		Filter:      &filter,
		Metrics:     []string{MetricUnblendedCost, MetricUsageQuantity},
		GroupBy:     groupBy(types.DimensionInstanceType),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBilling, err)
	}
	if len(periods) == 0 {
		return spend, nil
	}

	period := periods[0]
	spend.Estimated = period.Estimated
	for _, g := range period.Groups {
		if len(g.Keys) == 0 {
			continue
		}
		cost, _, err := metricMoney(g.Metrics, MetricUnblendedCost)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBilling, err)
		}
		usage, _, err := metricMoney(g.Metrics, MetricUsageQuantity)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBilling, err)
		}
		spend.Lines = append(spend.Lines, InstanceLine{InstanceType: g.Keys[0], Cost: cost, Usage: usage})
		spend.Total.Add(cost)
		spend.Found = true
	}

	if len(period.Groups) == 0 {
		total, ok, err := metricMoney(period.Total, MetricUnblendedCost)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBilling, err)
		}
		if ok {
			spend.Total.Add(total)
			spend.FromAggregate = true
			spend.Found = true
		}
	}
	return spend, nil
}

// DailyBreakdown returns the cost of every region and service for each day of
// the last days days. Drill-down failures are kept as notes on the region.
func (e *Engine) DailyBreakdown(ctx context.Context, days int) (*Breakdown, error) {
	end := e.today()
	start := end.AddDate(0, 0, -days)
	b := &Breakdown{Days: days, Start: start.Format(dateLayout), End: end.Format(dateLayout)}

	e.logger.Debug("querying daily breakdown", "start", b.Start, "end", b.End)
	periods, err := queryAll(ctx, e.client, &costexplorer.GetCostAndUsageInput{
		TimePeriod:  &types.DateInterval{Start: aws.String(b.Start), End: aws.String(b.End)},
		Granularity: types.GranularityDaily,
		Metrics:     []string{MetricUnblendedCost},
		GroupBy:     groupBy(types.DimensionRegion, types.DimensionService),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBilling, err)
	}

	for _, period := range periods {
		day := DayBreakdown{}
		if period.TimePeriod != nil {
			day.Date = aws.ToString(period.TimePeriod.Start)
		}

		byRegion := make(map[string][]ServiceCost)
		for _, g := range period.Groups {
			if len(g.Keys) < 2 {
				continue
			}
			cost, _, err := metricMoney(g.Metrics, MetricUnblendedCost)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBilling, err)
			}
			byRegion[g.Keys[0]] = append(byRegion[g.Keys[0]], ServiceCost{Service: g.Keys[1], Cost: cost})
		}

		regions := make([]string, 0, len(byRegion))
		for r := range byRegion {
			regions = append(regions, r)
		}
		sort.Strings(regions)

		for _, region := range regions {
			services := byRegion[region]
			rb := RegionBreakdown{
				Region:   region,
				Services: services,
				Fold:     FoldTopN(services, TopServices),
				Total:    TotalOf(services),
			}
			e.drillDown(ctx, day.Date, &rb)
			day.Regions = append(day.Regions, rb)
		}
		b.Dates = append(b.Dates, day)
	}
	return b, nil
}

// drillDown runs every drill-down whose service is among the region's shown
// services. Each one is independent; failures become notes.
func (e *Engine) drillDown(ctx context.Context, date string, rb *RegionBreakdown) {
	for _, drill := range drills {
		if !containsService(rb.Fold.Top, drill.match) {
			continue
		}
		dd, err := e.subBreakdown(ctx, date, rb.Region, drill)
		if err != nil {
			e.logger.Warn("drill-down failed", "date", date, "region", rb.Region, "service", drill.service, "dimension", drill.dimension, "error", err)
			rb.Notes = append(rb.Notes, fmt.Sprintf("%s: %v", drill.failure, err))
			continue
		}
		if len(dd.Rows) > 0 {
			rb.DrillDowns = append(rb.DrillDowns, *dd)
		}
	}
}

func containsService(services []ServiceCost, match func(string) bool) bool {
	for _, s := range services {
		if match(s.Service) {
			return true
		}
	}
	return false
}

// subBreakdown queries one day of one service in one region grouped by the
// drill-down dimension. Rows are sorted by cost descending.
func (e *Engine) subBreakdown(ctx context.Context, date, region string, drill drillSpec) (*DrillDown, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	filter := types.Expression{And: []types.Expression{
		dimensionFilter(types.DimensionRegion, region),
		dimensionFilter(types.DimensionService, drill.service),
	}}
	periods, err := queryAll(ctx, e.client, &costexplorer.GetCostAndUsageInput{
		TimePeriod:  &types.DateInterval{Start: aws.String(date), End: aws.String(day.AddDate(0, 0, 1).Format(dateLayout))},
		Granularity: types.GranularityDaily,
		Filter:      &filter,
		Metrics:     []string{MetricUnblendedCost},
		GroupBy:     groupBy(drill.dimension),
	})
	if err != nil {
		return nil, err
	}

	dd := &DrillDown{Title: drill.title, Column: drill.column()}
	for _, period := range periods {
		for _, g := range period.Groups {
			if len(g.Keys) == 0 {
				continue
			}
			cost, _, err := metricMoney(g.Metrics, MetricUnblendedCost)
			if err != nil {
				return nil, err
			}
			dd.Rows = append(dd.Rows, DrillRow{Key: g.Keys[0], Cost: cost})
		}
	}
	sort.SliceStable(dd.Rows, func(i, j int) bool {
		return dd.Rows[i].Cost.Amount > dd.Rows[j].Cost.Amount
	})
	return dd, nil
}
