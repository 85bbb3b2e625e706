// Package provider contains the HTTP clients for the external data
// sources the analysis depends on: the NAV history endpoint and the
// AMFI scheme master used to resolve ISINs to scheme codes and names.
package provider

import (
	"sort"
	"time"
)

// PricePoint is one dated NAV observation.
type PricePoint struct {
	Date time.Time
	NAV  float64
}

// PriceSeries is an ascending, date-deduplicated sequence of NAV points.
type PriceSeries []PricePoint

// SchemeData bundles a scheme's NAV history with its declared category.
type SchemeData struct {
	Series   PriceSeries
	Category string
}

// SchemeDetails is the resolver output for one ISIN.
type SchemeDetails struct {
	Name string
	Code string
}

// PriceProvider supplies NAV history for a scheme code and for the
// configured benchmark index.
type PriceProvider interface {
	FetchSchemeNAV(code string) (*SchemeData, error)
	FetchBenchmark() (PriceSeries, error)
}

// Resolver maps an ISIN to scheme details. A nil result with a nil
// error means the ISIN is not in the scheme master; an error means the
// lookup itself failed.
type Resolver interface {
	Resolve(isin string) (*SchemeDetails, error)
}

// Normalize sorts the series by date and drops duplicate dates,
// keeping the last value seen for each date.
func (s PriceSeries) Normalize() PriceSeries {
	if len(s) == 0 {
		return s
	}
	sorted := make(PriceSeries, len(s))
	copy(sorted, s)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := sorted[:0]
	for _, p := range sorted {
		p.Date = truncateDay(p.Date)
		if len(out) > 0 && out[len(out)-1].Date.Equal(p.Date) {
			out[len(out)-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

// NAVs returns just the price values, in date order.
func (s PriceSeries) NAVs() []float64 {
	navs := make([]float64, len(s))
	for i, p := range s {
		navs[i] = p.NAV
	}
	return navs
}

// FillDaily maps the series onto a contiguous daily calendar from
// start to end inclusive, forward-filling over non-trading days and
// back-filling any leading gap so every calendar day has a price.
func (s PriceSeries) FillDaily(start, end time.Time) PriceSeries {
	start = truncateDay(start)
	end = truncateDay(end)
	if len(s) == 0 || end.Before(start) {
		return nil
	}

	var filled PriceSeries
	idx := 0
	last := 0.0
	haveLast := false
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		for idx < len(s) && !s[idx].Date.After(d) {
			last = s[idx].NAV
			haveLast = true
			idx++
		}
		if !haveLast {
			// Leading gap: use the first known price.
			last = s[0].NAV
		}
		filled = append(filled, PricePoint{Date: d, NAV: last})
	}
	return filled
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
