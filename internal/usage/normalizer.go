package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/bgdnvk/spendwise/internal/logger"
)

// InvocationStream is the log stream Bedrock writes model invocation logs to.
const InvocationStream = "aws/bedrock/modelinvocations"

// ErrFetch wraps transport failures while reading log events.
var ErrFetch = errors.New("log fetch failed")

// FetchParams selects the events to read.
type FetchParams struct {
	Days     int
	LogGroup string
}

// Batch is the outcome of one fetch. An empty batch is "no data", not a failure.
type Batch struct {
	Records []Record
	Start   time.Time
	End     time.Time
	Events  int
	Skipped int
	// Note explains an empty batch, e.g. a missing log group.
	Note string
}

// Empty reports whether the batch holds no usable records.
func (b *Batch) Empty() bool {
	return b == nil || len(b.Records) == 0
}

// Normalizer reads invocation events from CloudWatch Logs.
type Normalizer struct {
	client cloudwatchlogs.FilterLogEventsAPIClient
	logger *slog.Logger
	now    func() time.Time
}

// NewNormalizer creates a normalizer over client.
func NewNormalizer(client cloudwatchlogs.FilterLogEventsAPIClient) *Normalizer {
	return &Normalizer{
		client: client,
		logger: logger.For("usage"),
		now:    time.Now,
	}
}

// Fetch pages through every event in [now-days, now] and normalizes them.
// Malformed events are skipped and counted. A missing log group or stream
// returns an empty batch with a note.
func (n *Normalizer) Fetch(ctx context.Context, params FetchParams) (*Batch, error) {
	end := n.now()
	start := end.AddDate(0, 0, -params.Days)
	batch := &Batch{Start: start, End: end}

	paginator := cloudwatchlogs.NewFilterLogEventsPaginator(n.client, &cloudwatchlogs.FilterLogEventsInput{
		LogGroupName:   aws.String(params.LogGroup),
		LogStreamNames: []string{InvocationStream},
		StartTime:      aws.Int64(start.UnixMilli()),
		EndTime:        aws.Int64(end.UnixMilli()),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			var notFound *types.ResourceNotFoundException
			if errors.As(err, &notFound) {
				batch.Records = nil
				batch.Note = fmt.Sprintf("Log group '%s' or stream '%s' not found", params.LogGroup, InvocationStream)
				n.logger.Warn("log group not found", "log_group", params.LogGroup, "stream", InvocationStream)
				return batch, nil
			}
			return nil, fmt.Errorf("%w: %v", ErrFetch, err)
		}

		for _, event := range page.Events {
			batch.Events++
			record, err := ParseEvent(aws.ToString(event.Message))
			if err != nil {
				batch.Skipped++
				n.logger.Debug("skipping malformed event", "event_id", aws.ToString(event.EventId), "reason", err)
				continue
			}
			batch.Records = append(batch.Records, record)
		}
	}

	if batch.Empty() {
		batch.Note = "No logs found for the specified time period."
	}
	n.logger.Info("fetched invocation logs",
		"log_group", params.LogGroup,
		"events", batch.Events,
		"records", len(batch.Records),
		"skipped", batch.Skipped,
	)
	return batch, nil
}
