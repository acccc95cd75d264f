package usage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bgdnvk/spendwise/internal/logger"
)

// mockLogs is a mock implementation of cloudwatchlogs.FilterLogEventsAPIClient.
// Each element of pages is served for one call; the token is the page index.
type mockLogs struct {
	pages  [][]string
	err    error
	calls  int
	inputs []*cloudwatchlogs.FilterLogEventsInput
}

func (m *mockLogs) FilterLogEvents(ctx context.Context, params *cloudwatchlogs.FilterLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.FilterLogEventsOutput, error) {
	m.calls++
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	idx := 0
	if params.NextToken != nil {
		fmt.Sscanf(*params.NextToken, "page-%d", &idx)
	}
	out := &cloudwatchlogs.FilterLogEventsOutput{}
	for i, msg := range m.pages[idx] {
		out.Events = append(out.Events, types.FilteredLogEvent{
			EventId: aws.String(fmt.Sprintf("%d-%d", idx, i)),
			Message: aws.String(msg),
		})
	}
	if idx+1 < len(m.pages) {
		out.NextToken = aws.String(fmt.Sprintf("page-%d", idx+1))
	}
	return out, nil
}

func event(ts, region, model, arn string, in, out int) string {
	identity := ""
	if arn != "" {
		identity = fmt.Sprintf(`"identity":{"arn":%q},`, arn)
	}
	return fmt.Sprintf(`{"schemaType":"ModelInvocationLog","timestamp":%q,"region":%q,"modelId":%q,%s`+
		`"input":{"inputTokenCount":%d,"inputBodyJson":{"messages":[{"role":"user","content":[{"text":"hi "}]}]}},`+
		`"output":{"outputTokenCount":%d}}`, ts, region, model, identity, in, out)
}

func newTestNormalizer(m *mockLogs) *Normalizer {
	n := NewNormalizer(m)
	n.logger = logger.Discard()
	n.now = func() time.Time { return time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC) }
	return n
}

func TestParseEvent(t *testing.T) {
	rec, err := ParseEvent(event("2026-03-01T10:15:00Z", "us-east-1", "anthropic.claude-3-haiku", "arn:aws:iam::1:user/a", 100, 50))
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", rec.Region)
	assert.Equal(t, "anthropic.claude-3-haiku", rec.ModelID)
	assert.Equal(t, "arn:aws:iam::1:user/a", rec.PrincipalID)
	assert.Equal(t, int64(150), rec.TotalTokens)
	assert.Equal(t, "hi", rec.Prompt)
	assert.Equal(t, "2026-03-01", rec.Date())
	assert.Equal(t, "2026-03-01 10:00", rec.HourBucket())
	assert.Equal(t, 10, rec.Hour())
}

func TestParseEventPrompt(t *testing.T) {
	msg := `{"timestamp":"2026-03-01T10:15:00Z","region":"us-east-1","modelId":"m",` +
		`"input":{"inputTokenCount":1,"inputBodyJson":{"messages":[` +
		`{"role":"system","content":[{"text":"ignored"}]},` +
		`{"role":"user","content":[{"text":"  first"},{"image":{}},"plain"]},` +
		`{"role":"user","content":"bare string"}]}},` +
		`"output":{"outputTokenCount":2}}`
	rec, err := ParseEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, "first plainbare string", rec.Prompt)
}

func TestParseEventRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{"not json", "START RequestId: abc"},
		{"json array", `[1,2,3]`},
		{"missing input tokens", `{"timestamp":"2026-03-01T10:00:00Z","region":"r","modelId":"m","output":{"outputTokenCount":1}}`},
		{"missing output tokens", `{"timestamp":"2026-03-01T10:00:00Z","region":"r","modelId":"m","input":{"inputTokenCount":1}}`},
		{"missing model", `{"timestamp":"2026-03-01T10:00:00Z","region":"r","input":{"inputTokenCount":1},"output":{"outputTokenCount":1}}`},
		{"missing region", `{"timestamp":"2026-03-01T10:00:00Z","modelId":"m","input":{"inputTokenCount":1},"output":{"outputTokenCount":1}}`},
		{"bad timestamp", `{"timestamp":"yesterday","region":"r","modelId":"m","input":{"inputTokenCount":1},"output":{"outputTokenCount":1}}`},
		{"string token count", `{"timestamp":"2026-03-01T10:00:00Z","region":"r","modelId":"m","input":{"inputTokenCount":"1"},"output":{"outputTokenCount":1}}`},
		{"negative token count", `{"timestamp":"2026-03-01T10:00:00Z","region":"r","modelId":"m","input":{"inputTokenCount":-1},"output":{"outputTokenCount":1}}`},
		{"fractional token count", `{"timestamp":"2026-03-01T10:00:00Z","region":"r","modelId":"m","input":{"inputTokenCount":1.5},"output":{"outputTokenCount":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvent(tt.message)
			assert.Error(t, err)
		})
	}
}

func TestParseEventWithoutIdentity(t *testing.T) {
	rec, err := ParseEvent(event("2026-03-01T10:15:00Z", "us-east-1", "m", "", 1, 1))
	require.NoError(t, err)
	assert.Empty(t, rec.PrincipalID)
}

func TestFetchPaginatesToExhaustion(t *testing.T) {
	m := &mockLogs{pages: [][]string{
		{event("2026-03-01T10:00:00Z", "us-east-1", "a.m1", "u1", 10, 5)},
		{},
		{"garbage", event("2026-03-02T11:00:00Z", "us-east-1", "a.m2", "u2", 20, 10)},
		{`{"timestamp":"2026-03-02T11:00:00Z","region":"us-east-1","modelId":"m","input":{}}`},
	}}

	batch, err := newTestNormalizer(m).Fetch(context.Background(), FetchParams{Days: 7, LogGroup: "group"})
	require.NoError(t, err)

	assert.Equal(t, 4, m.calls)
	assert.Len(t, batch.Records, 2)
	assert.Equal(t, 4, batch.Events)
	assert.Equal(t, 2, batch.Skipped)
	assert.Empty(t, batch.Note)

	first := m.inputs[0]
	assert.Equal(t, "group", aws.ToString(first.LogGroupName))
	assert.Equal(t, []string{InvocationStream}, first.LogStreamNames)
	end := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, end.UnixMilli(), aws.ToInt64(first.EndTime))
	assert.Equal(t, end.AddDate(0, 0, -7).UnixMilli(), aws.ToInt64(first.StartTime))
}

func TestFetchMissingLogGroupIsNoData(t *testing.T) {
	m := &mockLogs{err: &types.ResourceNotFoundException{Message: aws.String("The specified log group does not exist.")}}

	batch, err := newTestNormalizer(m).Fetch(context.Background(), FetchParams{Days: 1, LogGroup: "missing"})
	require.NoError(t, err)
	assert.True(t, batch.Empty())
	assert.Contains(t, batch.Note, "missing")
	assert.Equal(t, NoDataMessage, BuildDaily(batch.Records, 1, "us-east-1").String())
}

func TestFetchTransportFailure(t *testing.T) {
	m := &mockLogs{err: errors.New("ThrottlingException: rate exceeded")}

	batch, err := newTestNormalizer(m).Fetch(context.Background(), FetchParams{Days: 1, LogGroup: "group"})
	assert.Nil(t, batch)
	assert.ErrorIs(t, err, ErrFetch)
}

func TestFetchEmptyHasNote(t *testing.T) {
	m := &mockLogs{pages: [][]string{{}}}
	batch, err := newTestNormalizer(m).Fetch(context.Background(), FetchParams{Days: 1, LogGroup: "group"})
	require.NoError(t, err)
	assert.True(t, batch.Empty())
	assert.NotEmpty(t, batch.Note)
}

func rec(ts, region, model, principal string, in, out int64) Record {
	t, _ := time.Parse(time.RFC3339, ts)
	return Record{
		Timestamp:        t,
		Region:           region,
		ModelID:          model,
		PrincipalID:      principal,
		InputTokens:      in,
		CompletionTokens: out,
		TotalTokens:      in + out,
	}
}

func sampleRecords() []Record {
	return []Record{
		rec("2026-03-01T09:10:00Z", "us-east-1", "anthropic.claude-3-haiku", "arn:aws:iam::1:user/a", 100, 20),
		rec("2026-03-01T09:40:00Z", "us-east-1", "anthropic.claude-3-haiku", "arn:aws:iam::1:user/b", 300, 40),
		rec("2026-03-01T17:00:00Z", "us-east-1", "meta.llama3-70b", "", 50, 10),
		rec("2026-03-02T09:05:00Z", "eu-west-1", "anthropic.claude-3-haiku", "arn:aws:iam::1:user/a", 10, 1),
		rec("2026-03-02T23:59:00Z", "eu-west-1", "arn:aws:bedrock:eu-west-1::foundation-model/mistral", "arn:aws:iam::1:user/a", 7, 3),
	}
}

func TestAggregateSameDayTwoModels(t *testing.T) {
	records := sampleRecords()[:3]
	groups := Aggregate(records, DimDate, DimRegion, DimModel)
	require.Len(t, groups, 2)

	var summed int64
	for _, g := range groups {
		summed += g.Sum(FieldTotal)
	}
	assert.Equal(t, int64(120+340+60), summed)
	assert.Equal(t, []string{"2026-03-01", "us-east-1", "anthropic.claude-3-haiku"}, groups[0].Key)
	assert.Equal(t, int64(2), groups[0].Count())
}

func TestAggregateTotalsAgreeAcrossGroupings(t *testing.T) {
	records := sampleRecords()
	want := TotalsOf(Aggregate(records))
	assert.Equal(t, int64(len(records)), want.Requests)

	groupings := [][]Dimension{
		{DimDate, DimRegion, DimModel},
		{DimHour, DimRegion, DimPrincipal, DimModel},
		{DimRegion},
		{DimModel},
		{DimPrincipal},
		{DimHourOfDay},
		{DimRegion, DimPrincipal, DimModel},
	}
	for _, dims := range groupings {
		groups := Aggregate(records, dims...)
		assert.Equal(t, want, TotalsOf(groups), "dims %v", dims)

		seen := 0
		for _, g := range groups {
			seen += len(g.Records)
		}
		assert.Equal(t, len(records), seen, "dims %v", dims)
	}
}

func TestAggregateOrdersKeysAscending(t *testing.T) {
	groups := Aggregate(sampleRecords(), DimHourOfDay)
	var keys []string
	for _, g := range groups {
		keys = append(keys, g.Key[0])
	}
	assert.Equal(t, []string{"09", "17", "23"}, keys)
}

func TestAggregateEmptyPrincipal(t *testing.T) {
	groups := Aggregate(sampleRecords(), DimPrincipal)
	var keys []string
	for _, g := range groups {
		keys = append(keys, g.Key[0])
	}
	assert.Contains(t, keys, NoPrincipal)
}

func TestGroupStats(t *testing.T) {
	g := Group{Records: []Record{
		rec("2026-03-01T00:00:00Z", "r", "m", "", 1, 0),
		rec("2026-03-01T00:00:00Z", "r", "m", "", 9, 0),
		rec("2026-03-01T00:00:00Z", "r", "m", "", 4, 0),
		rec("2026-03-01T00:00:00Z", "r", "m", "", 2, 0),
	}}
	assert.Equal(t, int64(4), g.Count())
	assert.Equal(t, int64(16), g.Sum(FieldInput))
	assert.Equal(t, 4.0, g.Mean(FieldInput))
	assert.Equal(t, int64(9), g.Max(FieldInput))
	assert.Equal(t, 3.0, g.Median(FieldInput))

	g.Records = g.Records[:3]
	assert.Equal(t, 4.0, g.Median(FieldInput))
}

func TestShortenModelID(t *testing.T) {
	tests := map[string]string{
		"anthropic.claude-3-haiku-20240307-v1:0":               "claude-3-haiku-20240307-v1:0",
		"us.anthropic.claude-3-5-sonnet":                        "claude-3-5-sonnet",
		"arn:aws:bedrock:us-east-1::foundation-model/mistral":   "mistral",
		"titan":                                                 "titan",
	}
	for in, want := range tests {
		got := ShortenModelID(in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, got, ShortenModelID(got), "shortening %q is not idempotent", in)
	}
}

func TestHourOfDayLabel(t *testing.T) {
	assert.Equal(t, "00:00 - 00:59", HourOfDayLabel(0))
	assert.Equal(t, "09:00 - 09:59", HourOfDayLabel(9))
	assert.Equal(t, "23:00 - 23:59", HourOfDayLabel(23))
}

func TestMetricColumns(t *testing.T) {
	var cols []string
	for _, m := range SummaryMetrics {
		cols = append(cols, m.Column())
	}
	assert.Equal(t, []string{"request_count", "inputTokens_sum", "completionTokens_sum", "totalTokens_sum"}, cols)
}

func TestGroupingTableShortensModels(t *testing.T) {
	table := modelSummary.Table(sampleRecords())
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "claude-3-haiku", table.Rows[0][0])
	assert.Equal(t, "3", table.Rows[0][1])
	assert.Equal(t, "mistral", table.Rows[1][0])
	assert.Equal(t, "llama3-70b", table.Rows[2][0])
}

func TestBuildDailyOrder(t *testing.T) {
	r := BuildDaily(sampleRecords(), 7, "us-east-1")
	out := r.String()

	assert.True(t, strings.HasPrefix(out, "Bedrock Usage Statistics (Past 7 days - us-east-1)"))
	order := []string{
		"=== Daily Region-wise -> Model-wise Analysis ===",
		"=== Summary Statistics ===",
		"=== Region Summary ===",
		"=== Model Summary ===",
		"=== User Summary ===",
		"=== Region -> User -> Model Detailed Summary ===",
	}
	last := -1
	for _, heading := range order {
		idx := strings.Index(out, heading)
		require.GreaterOrEqual(t, idx, 0, heading)
		assert.Greater(t, idx, last, heading)
		last = idx
	}
	assert.Contains(t, out, "Total Requests: 5")
	assert.Contains(t, out, "Total Tokens: 541")
	assert.Len(t, r.Tables(), 5)
	assert.Equal(t, int64(541), r.Totals.TotalTokens)
}

func TestBuildHourlyOrder(t *testing.T) {
	out := BuildHourly(sampleRecords(), 2, "eu-west-1").String()

	order := []string{
		"=== Hourly Usage Analysis ===",
		"=== Hourly Region-wise -> Model-wise Analysis ===",
		"=== Summary Statistics ===",
		"=== Region Summary ===",
		"=== Model Summary ===",
		"=== User Summary ===",
		"=== Hourly Region -> User -> Model Detailed Summary ===",
		"=== Hourly Usage Pattern Analysis ===",
	}
	last := -1
	for _, heading := range order {
		idx := strings.Index(out, heading)
		require.GreaterOrEqual(t, idx, 0, heading)
		assert.Greater(t, idx, last, heading)
		last = idx
	}
	assert.Contains(t, out, "09:00 - 09:59")
	assert.Contains(t, out, "2026-03-01 09:00")
}

func TestBuildEmpty(t *testing.T) {
	assert.Equal(t, NoDataMessage, BuildDaily(nil, 7, "us-east-1").String())
	assert.Equal(t, NoDataMessage, BuildHourly([]Record{}, 7, "us-east-1").String())
	assert.Nil(t, BuildDaily(nil, 7, "us-east-1").Tables())
}
