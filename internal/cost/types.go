package cost

import (
	"fmt"
	"sort"
	"strings"
)

// Money is an amount together with the currency unit it was billed in.
type Money struct {
	Amount float64 `json:"amount" yaml:"amount"`
	Unit   string  `json:"unit" yaml:"unit"`
}

// String formats the amount to 2 decimals followed by its unit.
func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.Amount, m.Unit)
}

// Totals sums amounts per currency unit. Amounts in different units are never
// added together.
type Totals map[string]float64

// Add accumulates m under its unit.
func (t Totals) Add(m Money) {
	t[m.Unit] += m.Amount
}

// Merge accumulates every unit of o.
func (t Totals) Merge(o Totals) {
	for unit, amount := range o {
		t[unit] += amount
	}
}

// Money lists the totals ordered by unit.
func (t Totals) Money() []Money {
	units := make([]string, 0, len(t))
	for unit := range t {
		units = append(units, unit)
	}
	sort.Strings(units)
	out := make([]Money, len(units))
	for i, unit := range units {
		out[i] = Money{Amount: t[unit], Unit: unit}
	}
	return out
}

// Format renders each unit with the given verb, joined by " + ".
func (t Totals) Format(verb string) string {
	if len(t) == 0 {
		return fmt.Sprintf(verb+" %s", 0.0, DefaultUnit)
	}
	parts := make([]string, 0, len(t))
	for _, m := range t.Money() {
		parts = append(parts, fmt.Sprintf(verb+" %s", m.Amount, m.Unit))
	}
	return strings.Join(parts, " + ")
}

func (t Totals) String() string {
	return t.Format("%.2f")
}

// ServiceCost is the cost of one service in one region on one day.
type ServiceCost struct {
	Service string `json:"service" yaml:"service"`
	Cost    Money  `json:"cost" yaml:"cost"`
}

// InstanceLine is one instance type of a single-period spend query.
type InstanceLine struct {
	InstanceType string `json:"instanceType" yaml:"instanceType"`
	Cost         Money  `json:"cost" yaml:"cost"`
	Usage        Money  `json:"usage" yaml:"usage"`
}

// InstanceSpend is the per-instance-type spend of one service over the last day.
type InstanceSpend struct {
	Service string         `json:"service" yaml:"service"`
	Start   string         `json:"start" yaml:"start"`
	End     string         `json:"end" yaml:"end"`
	Lines   []InstanceLine `json:"lines" yaml:"lines"`
	Total   Totals         `json:"total" yaml:"total"`
	// FromAggregate is set when no groups came back and Total is the period
	// total reported by the API.
	FromAggregate bool `json:"fromAggregate" yaml:"fromAggregate"`
	// Found is false when neither groups nor a period total were returned.
	Found     bool `json:"found" yaml:"found"`
	Estimated bool `json:"estimated" yaml:"estimated"`
}

// Breakdown is the day-by-day cost by region and service.
type Breakdown struct {
	Days  int            `json:"days" yaml:"days"`
	Start string         `json:"start" yaml:"start"`
	End   string         `json:"end" yaml:"end"`
	Dates []DayBreakdown `json:"dates" yaml:"dates"`
}

// DayBreakdown holds every region billed on one date, sorted by region.
type DayBreakdown struct {
	Date    string            `json:"date" yaml:"date"`
	Regions []RegionBreakdown `json:"regions" yaml:"regions"`
}

// RegionBreakdown is the folded service list of one region on one date.
type RegionBreakdown struct {
	Region     string        `json:"region" yaml:"region"`
	Services   []ServiceCost `json:"services" yaml:"services"`
	Fold       Fold          `json:"fold" yaml:"fold"`
	Total      Totals        `json:"total" yaml:"total"`
	DrillDowns []DrillDown   `json:"drillDowns,omitempty" yaml:"drillDowns,omitempty"`
	Notes      []string      `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// DrillDown is a secondary breakdown of one service by a finer dimension.
type DrillDown struct {
	Title  string     `json:"title" yaml:"title"`
	Column string     `json:"column" yaml:"column"`
	Rows   []DrillRow `json:"rows" yaml:"rows"`
}

// DrillRow is one sub-dimension value and its cost.
type DrillRow struct {
	Key  string `json:"key" yaml:"key"`
	Cost Money  `json:"cost" yaml:"cost"`
}
