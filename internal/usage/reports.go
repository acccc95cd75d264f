package usage

import (
	"fmt"

	"github.com/bgdnvk/spendwise/internal/report"
)

// NoDataMessage is the whole output of a report over zero records.
const NoDataMessage = "No usage data found for the specified period."

// Section is one titled block of a usage report.
type Section struct {
	Name  string
	Table *report.Table
	Lines []string
}

// Report is an ordered list of sections over one record set.
type Report struct {
	Title    string
	Sections []Section
	Totals   Totals
}

// Empty reports whether the report was built from no records.
func (r *Report) Empty() bool {
	return r == nil || len(r.Sections) == 0
}

// String renders the report. An empty report renders as NoDataMessage.
func (r *Report) String() string {
	if r.Empty() {
		return NoDataMessage
	}
	var doc report.Document
	doc.Heading(r.Title)
	for _, s := range r.Sections {
		doc.Section(s.Name)
		for _, line := range s.Lines {
			doc.Line(line)
		}
		if s.Table != nil {
			doc.Table(s.Table)
		}
	}
	return doc.String()
}

// Tables returns every table in section order.
func (r *Report) Tables() []*report.Table {
	if r.Empty() {
		return nil
	}
	var out []*report.Table
	for _, s := range r.Sections {
		if s.Table != nil {
			out = append(out, s.Table)
		}
	}
	return out
}

var (
	dailyDetail = Grouping{
		Name:    "Daily Region-wise -> Model-wise Analysis",
		Dims:    []Dimension{DimDate, DimRegion, DimModel},
		Metrics: DetailedMetrics,
	}
	hourlyOverview = Grouping{
		Name:    "Hourly Usage Analysis",
		Dims:    []Dimension{DimHour},
		Metrics: CrossMetrics,
	}
	hourlyDetail = Grouping{
		Name:    "Hourly Region-wise -> Model-wise Analysis",
		Dims:    []Dimension{DimHour, DimRegion, DimModel},
		Metrics: DetailedMetrics,
	}
	regionSummary = Grouping{
		Name:    "Region Summary",
		Dims:    []Dimension{DimRegion},
		Metrics: SummaryMetrics,
	}
	modelSummary = Grouping{
		Name:    "Model Summary",
		Dims:    []Dimension{DimModel},
		Metrics: SummaryMetrics,
	}
	userSummary = Grouping{
		Name:    "User Summary",
		Dims:    []Dimension{DimPrincipal},
		Metrics: SummaryMetrics,
	}
	regionUserModel = Grouping{
		Name:    "Region -> User -> Model Detailed Summary",
		Dims:    []Dimension{DimRegion, DimPrincipal, DimModel},
		Metrics: CrossMetrics,
	}
	hourlyRegionUserModel = Grouping{
		Name:    "Hourly Region -> User -> Model Detailed Summary",
		Dims:    []Dimension{DimHour, DimRegion, DimPrincipal, DimModel},
		Metrics: CrossMetrics,
	}
	hourPattern = Grouping{
		Name:    "Hourly Usage Pattern Analysis",
		Dims:    []Dimension{DimHourOfDay},
		Metrics: PatternMetrics,
	}
)

func tableSection(g Grouping, records []Record) Section {
	return Section{Name: g.Name, Table: g.Table(records)}
}

func summarySection(t Totals) Section {
	return Section{
		Name: "Summary Statistics",
		Lines: []string{
			"Total Requests: " + report.Thousands(t.Requests),
			"Total Input Tokens: " + report.Thousands(t.InputTokens),
			"Total Completion Tokens: " + report.Thousands(t.CompletionTokens),
			"Total Tokens: " + report.Thousands(t.TotalTokens),
		},
	}
}

// BuildDaily produces the per-day report: detailed breakdown, summary totals,
// region, model and principal summaries, then region x principal x model.
func BuildDaily(records []Record, days int, region string) *Report {
	if len(records) == 0 {
		return &Report{}
	}
	totals := TotalsOf(Aggregate(records, dailyDetail.Dims...))
	return &Report{
		Title:  fmt.Sprintf("Bedrock Usage Statistics (Past %d days - %s)", days, region),
		Totals: totals,
		Sections: []Section{
			tableSection(dailyDetail, records),
			summarySection(totals),
			tableSection(regionSummary, records),
			tableSection(modelSummary, records),
			tableSection(userSummary, records),
			tableSection(regionUserModel, records),
		},
	}
}

// BuildHourly produces the per-hour report. It follows the daily sequence
// with an hourly overview in front and the hour-of-day pattern at the end.
func BuildHourly(records []Record, days int, region string) *Report {
	if len(records) == 0 {
		return &Report{}
	}
	totals := TotalsOf(Aggregate(records, hourlyOverview.Dims...))
	return &Report{
		Title:  fmt.Sprintf("Hourly Bedrock Usage Statistics (Past %d days - %s)", days, region),
		Totals: totals,
		Sections: []Section{
			tableSection(hourlyOverview, records),
			tableSection(hourlyDetail, records),
			summarySection(totals),
			tableSection(regionSummary, records),
			tableSection(modelSummary, records),
			tableSection(userSummary, records),
			tableSection(hourlyRegionUserModel, records),
			tableSection(hourPattern, records),
		},
	}
}
