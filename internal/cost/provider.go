package cost

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
)

// CostExplorerAPI is the part of the Cost Explorer client the engine uses.
type CostExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
}

// Cost Explorer metric names.
const (
	MetricUnblendedCost = "UnblendedCost"
	MetricUsageQuantity = "UsageQuantity"
)

// DefaultUnit is used to render an empty total.
const DefaultUnit = "USD"

// queryAll follows NextPageToken until the result is exhausted. Periods split
// across pages are merged by start date, keeping first-seen order.
func queryAll(ctx context.Context, client CostExplorerAPI, input *costexplorer.GetCostAndUsageInput) ([]types.ResultByTime, error) {
	params := *input
	var periods []types.ResultByTime
	index := make(map[string]int)

	for {
		out, err := client.GetCostAndUsage(ctx, &params)
		if err != nil {
			return nil, err
		}
		for _, period := range out.ResultsByTime {
			start := ""
			if period.TimePeriod != nil {
				start = aws.ToString(period.TimePeriod.Start)
			}
			if i, ok := index[start]; ok {
				periods[i].Groups = append(periods[i].Groups, period.Groups...)
				periods[i].Estimated = periods[i].Estimated || period.Estimated
				if len(periods[i].Total) == 0 {
					periods[i].Total = period.Total
				}
				continue
			}
			index[start] = len(periods)
			periods = append(periods, period)
		}
		if aws.ToString(out.NextPageToken) == "" {
			return periods, nil
		}
		params.NextPageToken = out.NextPageToken
	}
}

// metricMoney reads one metric as Money. ok is false when the metric is absent.
func metricMoney(metrics map[string]types.MetricValue, name string) (m Money, ok bool, err error) {
	v, found := metrics[name]
	if !found || v.Amount == nil {
		return Money{}, false, nil
	}
	amount, err := strconv.ParseFloat(aws.ToString(v.Amount), 64)
	if err != nil {
		return Money{}, false, fmt.Errorf("parse %s amount %q: %w", name, aws.ToString(v.Amount), err)
	}
	return Money{Amount: amount, Unit: aws.ToString(v.Unit)}, true, nil
}

func dimensionFilter(key types.Dimension, value string) types.Expression {
	return types.Expression{
		Dimensions: &types.DimensionValues{
			Key:    key,
			Values: []string{value},
		},
	}
}

func groupBy(keys ...types.Dimension) []types.GroupDefinition {
	out := make([]types.GroupDefinition, len(keys))
	for i, k := range keys {
		out[i] = types.GroupDefinition{
			Type: types.GroupDefinitionTypeDimension,
			Key:  aws.String(string(k)),
		}
	}
	return out
}
