package usage

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/bgdnvk/spendwise/internal/report"
)

// Dimension is one axis records can be grouped on.
type Dimension int

const (
	DimDate Dimension = iota
	DimHour
	DimHourOfDay
	DimRegion
	DimModel
	DimPrincipal
)

// NoPrincipal labels records whose event carried no identity ARN.
const NoPrincipal = "(none)"

// Column is the header used for the dimension in rendered tables.
func (d Dimension) Column() string {
	switch d {
	case DimDate:
		return "date"
	case DimHour:
		return "datetime"
	case DimHourOfDay:
		return "hour_of_day"
	case DimRegion:
		return "region"
	case DimModel:
		return "modelId"
	case DimPrincipal:
		return "userId"
	default:
		return fmt.Sprintf("dim%d", int(d))
	}
}

// key is the partition value. Keys sort in the natural order of the dimension.
func (d Dimension) key(r Record) string {
	switch d {
	case DimDate:
		return r.Date()
	case DimHour:
		return r.HourBucket()
	case DimHourOfDay:
		return fmt.Sprintf("%02d", r.Hour())
	case DimRegion:
		return r.Region
	case DimModel:
		return r.ModelID
	case DimPrincipal:
		if r.PrincipalID == "" {
			return NoPrincipal
		}
		return r.PrincipalID
	default:
		return ""
	}
}

// label turns a partition key into its display form.
func (d Dimension) label(key string) string {
	switch d {
	case DimModel:
		return ShortenModelID(key)
	case DimHourOfDay:
		var h int
		fmt.Sscanf(key, "%d", &h)
		return HourOfDayLabel(h)
	default:
		return key
	}
}

// ShortenModelID keeps the part after the last '.', or failing that after the
// last '/'. Identifiers with neither are returned unchanged.
func ShortenModelID(id string) string {
	if i := strings.LastIndex(id, "."); i >= 0 {
		return id[i+1:]
	}
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// HourOfDayLabel formats an hour as "HH:00 - HH:59".
func HourOfDayLabel(hour int) string {
	return fmt.Sprintf("%02d:00 - %02d:59", hour, hour)
}

// Field is a numeric column of a record.
type Field int

const (
	FieldInput Field = iota
	FieldCompletion
	FieldTotal
)

func (f Field) String() string {
	switch f {
	case FieldInput:
		return "inputTokens"
	case FieldCompletion:
		return "completionTokens"
	default:
		return "totalTokens"
	}
}

func (f Field) of(r Record) int64 {
	switch f {
	case FieldInput:
		return r.InputTokens
	case FieldCompletion:
		return r.CompletionTokens
	default:
		return r.TotalTokens
	}
}

// Stat is a reduction over one field of a group.
type Stat int

const (
	StatCount Stat = iota
	StatSum
	StatMean
	StatMax
	StatMedian
)

func (s Stat) String() string {
	return [...]string{"count", "sum", "mean", "max", "median"}[s]
}

// Metric is one output column.
type Metric struct {
	Field Field
	Stat  Stat
}

// Column is the header of the metric. The input-token count doubles as the
// request count.
func (m Metric) Column() string {
	if m.Field == FieldInput && m.Stat == StatCount {
		return "request_count"
	}
	return m.Field.String() + "_" + m.Stat.String()
}

// Group is one partition cell: the records sharing a key tuple.
type Group struct {
	Key     []string
	Records []Record
}

// Count is the number of records in the group.
func (g Group) Count() int64 {
	return int64(len(g.Records))
}

// Sum adds field f across the group.
func (g Group) Sum(f Field) int64 {
	var total int64
	for _, r := range g.Records {
		total += f.of(r)
	}
	return total
}

// Mean is the arithmetic mean of field f.
func (g Group) Mean(f Field) float64 {
	if len(g.Records) == 0 {
		return 0
	}
	return float64(g.Sum(f)) / float64(len(g.Records))
}

// Max is the largest value of field f.
func (g Group) Max(f Field) int64 {
	var m int64
	for i, r := range g.Records {
		if v := f.of(r); i == 0 || v > m {
			m = v
		}
	}
	return m
}

// Median of field f; the mean of the middle pair for even-sized groups.
func (g Group) Median(f Field) float64 {
	n := len(g.Records)
	if n == 0 {
		return 0
	}
	values := make([]int64, n)
	for i, r := range g.Records {
		values[i] = f.of(r)
	}
	slices.Sort(values)
	if n%2 == 1 {
		return float64(values[n/2])
	}
	return float64(values[n/2-1]+values[n/2]) / 2
}

// Value renders metric m for the group.
func (g Group) Value(m Metric) string {
	switch m.Stat {
	case StatCount:
		return report.Int(g.Count())
	case StatSum:
		return report.Int(g.Sum(m.Field))
	case StatMean:
		return report.Float(g.Mean(m.Field))
	case StatMax:
		return report.Int(g.Max(m.Field))
	default:
		return report.Float(g.Median(m.Field))
	}
}

// Aggregate partitions records by the tuple of dims. Every record lands in
// exactly one group; groups come back in ascending key order.
func Aggregate(records []Record, dims ...Dimension) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, r := range records {
		key := make([]string, len(dims))
		for i, d := range dims {
			key[i] = d.key(r)
		}
		id := strings.Join(key, "\x00")
		pos, ok := index[id]
		if !ok {
			pos = len(groups)
			index[id] = pos
			groups = append(groups, Group{Key: key})
		}
		groups[pos].Records = append(groups[pos].Records, r)
	}
	sort.Slice(groups, func(i, j int) bool {
		return slices.Compare(groups[i].Key, groups[j].Key) < 0
	})
	return groups
}

// Grouping names a dimension tuple and the metrics reported for it.
type Grouping struct {
	Name    string
	Dims    []Dimension
	Metrics []Metric
}

// Table aggregates records and renders the grouping.
func (g Grouping) Table(records []Record) *report.Table {
	columns := make([]string, 0, len(g.Dims)+len(g.Metrics))
	for _, d := range g.Dims {
		columns = append(columns, d.Column())
	}
	for _, m := range g.Metrics {
		columns = append(columns, m.Column())
	}

	t := report.NewTable(g.Name, columns...)
	for _, group := range Aggregate(records, g.Dims...) {
		row := make([]string, 0, len(columns))
		for i, d := range g.Dims {
			row = append(row, d.label(group.Key[i]))
		}
		for _, m := range g.Metrics {
			row = append(row, group.Value(m))
		}
		t.AddRow(row...)
	}
	return t
}

func metrics(f Field, stats ...Stat) []Metric {
	out := make([]Metric, len(stats))
	for i, s := range stats {
		out[i] = Metric{Field: f, Stat: s}
	}
	return out
}

func join(sets ...[]Metric) []Metric {
	var out []Metric
	for _, s := range sets {
		out = append(out, s...)
	}
	return out
}

// Metric sets used by the reports.
var (
	DetailedMetrics = join(
		metrics(FieldInput, StatCount, StatSum, StatMean, StatMax, StatMedian),
		metrics(FieldCompletion, StatSum, StatMean, StatMax, StatMedian),
		metrics(FieldTotal, StatSum, StatMean, StatMax, StatMedian),
	)
	SummaryMetrics = join(
		metrics(FieldInput, StatCount, StatSum),
		metrics(FieldCompletion, StatSum),
		metrics(FieldTotal, StatSum),
	)
	CrossMetrics = join(
		metrics(FieldInput, StatCount, StatSum, StatMean),
		metrics(FieldCompletion, StatSum, StatMean),
		metrics(FieldTotal, StatSum, StatMean),
	)
	PatternMetrics = join(
		metrics(FieldInput, StatCount, StatSum),
		metrics(FieldTotal, StatSum),
	)
)

// Totals are the grand totals over a record set.
type Totals struct {
	Requests         int64 `json:"requests"`
	InputTokens      int64 `json:"inputTokens"`
	CompletionTokens int64 `json:"completionTokens"`
	TotalTokens      int64 `json:"totalTokens"`
}

// TotalsOf sums the given groups. Any partition of the same records yields
// the same totals.
func TotalsOf(groups []Group) Totals {
	var t Totals
	for _, g := range groups {
		t.Requests += g.Count()
		t.InputTokens += g.Sum(FieldInput)
		t.CompletionTokens += g.Sum(FieldCompletion)
		t.TotalTokens += g.Sum(FieldTotal)
	}
	return t
}
