package cost

import (
	"fmt"
	"strings"

	"github.com/bgdnvk/spendwise/internal/report"
)

// serviceLabel is the short name used in spend headings.
func serviceLabel(service string) string {
	if service == ServiceEC2Compute {
		return "EC2"
	}
	return service
}

// RenderInstanceSpend formats a single-period spend result.
func RenderInstanceSpend(s *InstanceSpend) string {
	label := serviceLabel(s.Service)
	var doc report.Document
	doc.Line(fmt.Sprintf("%s Spend from %s to %s:", label, s.Start, s.End))
	doc.Rule("-", 50)

	for _, line := range s.Lines {
		doc.Line("Instance Type: " + line.InstanceType)
		doc.Line(fmt.Sprintf("Cost: %.4f %s", line.Cost.Amount, line.Cost.Unit))
		doc.Line(fmt.Sprintf("Usage: %.2f", line.Usage.Amount))
		doc.Rule("-", 30)
	}

	if !s.Found {
		doc.Line(fmt.Sprintf("No %s costs found for this period", label))
	} else {
		doc.Line(fmt.Sprintf("Total %s Cost: %s", label, s.Total.Format("%.4f")))
	}

	status := "final"
	if s.Estimated {
		status = "estimated"
	}
	doc.Line("Note: These results are " + status)
	return doc.String()
}

// RenderBreakdown formats a day-by-day breakdown.
func RenderBreakdown(b *Breakdown) string {
	var doc report.Document
	doc.Line(fmt.Sprintf("\nDetailed Cost Breakdown by Region, Service, and Instance Type (%d days):", b.Days))
	doc.Rule("-", 75)

	for _, day := range b.Dates {
		doc.Line("\nDate: " + day.Date)
		doc.Rule("=", 50)

		if len(day.Regions) == 0 {
			doc.Line("No data found for this date")
		}
		for _, rb := range day.Regions {
			doc.Line("\nRegion: " + rb.Region)
			doc.Rule("-", 40)
			doc.Line(serviceTable(rb.Fold.Top).Box(""))
			if rb.Fold.Folded() {
				doc.Line(fmt.Sprintf("... and %d more services totaling %s", len(rb.Fold.Rest), rb.Fold.Remainder))
			}
			for _, dd := range rb.DrillDowns {
				doc.Line("\n  " + dd.Title + ":")
				doc.Line("  " + strings.Repeat("-", 38))
				doc.Line(dd.Table().Box("  "))
			}
			for _, note := range rb.Notes {
				doc.Line("  Note: " + note)
			}
		}
		doc.Line("\n" + strings.Repeat("-", 75))
	}
	return doc.String()
}

func serviceTable(services []ServiceCost) *report.Table {
	t := report.NewTable("", "Service", "Cost")
	for _, s := range services {
		t.AddRow(s.Service, s.Cost.String())
	}
	return t
}

// Table renders the drill-down rows.
func (d DrillDown) Table() *report.Table {
	t := report.NewTable(d.Title, d.Column, "Cost")
	for _, r := range d.Rows {
		t.AddRow(r.Key, r.Cost.String())
	}
	return t
}

// Tables flattens the spend into one exportable table.
func (s *InstanceSpend) Tables() []*report.Table {
	t := report.NewTable(fmt.Sprintf("%s Spend %s to %s", serviceLabel(s.Service), s.Start, s.End),
		"instance_type", "cost", "unit", "usage")
	for _, line := range s.Lines {
		t.AddRow(line.InstanceType, report.Float(line.Cost.Amount), line.Cost.Unit, report.Float(line.Usage.Amount))
	}
	for _, m := range s.Total.Money() {
		t.AddRow("TOTAL", report.Float(m.Amount), m.Unit, "")
	}
	return []*report.Table{t}
}

// Tables flattens the breakdown into one row per date, region and service,
// followed by one table per drill-down.
func (b *Breakdown) Tables() []*report.Table {
	services := report.NewTable(fmt.Sprintf("Cost by Region and Service %s to %s", b.Start, b.End),
		"date", "region", "service", "cost", "unit")
	tables := []*report.Table{services}
	for _, day := range b.Dates {
		for _, rb := range day.Regions {
			for _, s := range FoldTopN(rb.Services, len(rb.Services)).Top {
				services.AddRow(day.Date, rb.Region, s.Service, report.Float(s.Cost.Amount), s.Cost.Unit)
			}
			for _, dd := range rb.DrillDowns {
				t := dd.Table()
				t.Title = fmt.Sprintf("%s %s %s", day.Date, rb.Region, dd.Title)
				tables = append(tables, t)
			}
		}
	}
	return tables
}
