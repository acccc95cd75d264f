package cost

import (
	"cmp"
	"slices"
)

// TopServices is how many services a region lists before folding the rest.
const TopServices = 5

// Fold is a cost list split into the shown head and a folded remainder.
type Fold struct {
	Top       []ServiceCost `json:"top" yaml:"top"`
	Rest      []ServiceCost `json:"rest,omitempty" yaml:"rest,omitempty"`
	Remainder Totals        `json:"remainder,omitempty" yaml:"remainder,omitempty"`
}

// Folded reports whether any service was folded into the remainder.
func (f Fold) Folded() bool {
	return len(f.Rest) > 0
}

// FoldTopN ranks services by cost descending, ties broken by name, and keeps
// the first n. Everything else is summed per unit into the remainder, so the
// shown costs plus the remainder equal the sum of the input.
func FoldTopN(services []ServiceCost, n int) Fold {
	ranked := slices.Clone(services)
	slices.SortStableFunc(ranked, func(a, b ServiceCost) int {
		if c := cmp.Compare(b.Cost.Amount, a.Cost.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Service, b.Service)
	})
	if n < 0 {
		n = 0
	}
	if len(ranked) <= n {
		return Fold{Top: ranked}
	}
	f := Fold{Top: ranked[:n], Rest: ranked[n:], Remainder: Totals{}}
	for _, s := range f.Rest {
		f.Remainder.Add(s.Cost)
	}
	return f
}

// TotalOf sums service costs per unit.
func TotalOf(services []ServiceCost) Totals {
	t := Totals{}
	for _, s := range services {
		t.Add(s.Cost)
	}
	return t
}
