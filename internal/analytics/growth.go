package analytics

import (
	"math"
	"sort"
	"time"

	"wealthtrack/internal/provider"
)

// GrowthPoint is one day of the growth comparison chart.
type GrowthPoint struct {
	Date      string  `json:"date"`
	Invested  float64 `json:"invested"`
	Portfolio float64 `json:"portfolio"`
	Benchmark float64 `json:"benchmark"`
}

// simState is the running position of one scheme during the replay.
// Units and cost basis never go negative: selling more than is held
// resets the position to flat.
type simState struct {
	units     float64
	costBasis float64
}

func (s *simState) apply(amount, price float64) {
	if price <= 0 {
		return
	}
	if amount < 0 {
		buy := -amount
		s.units += buy / price
		s.costBasis += buy
		return
	}
	unitsSold := amount / price
	if s.units > 0 {
		kept := (s.units - unitsSold) / s.units
		if kept < 0 {
			kept = 0
		}
		s.costBasis *= kept
		s.units -= unitsSold
		if s.units < 0 {
			s.units = 0
		}
	} else {
		s.units = 0
		s.costBasis = 0
	}
}

// padDays lets the fill window start a week before the first flow so
// the first calendar day always has a defined price.
const padDays = 7

// activeUnitsThreshold filters out dust positions left by full
// redemptions when summing daily valuations.
const activeUnitsThreshold = 0.001

// SimulateGrowth replays the cash flows day by day against each
// scheme's NAV series and, in parallel, against the benchmark series,
// the counterfactual of putting the same money into the index. Schemes
// without a price series are excluded entirely. Points are emitted only
// once invested capital or portfolio value is above a rupee.
func SimulateGrowth(flows map[string][]CashFlow, fundSeries map[string]provider.PriceSeries, benchmark provider.PriceSeries) []GrowthPoint {
	if len(benchmark) == 0 {
		return nil
	}

	// Only schemes with both flows and a series take part.
	isins := make([]string, 0, len(flows))
	for isin, fs := range flows {
		if len(fs) > 0 && len(fundSeries[isin]) > 0 {
			isins = append(isins, isin)
		}
	}
	sort.Strings(isins)
	if len(isins) == 0 {
		return nil
	}

	var start time.Time
	for _, isin := range isins {
		for _, f := range flows[isin] {
			if start.IsZero() || f.Date.Before(start) {
				start = f.Date
			}
		}
	}
	start = day(start)
	end := day(time.Now())

	padStart := start.AddDate(0, 0, -padDays)
	benchDaily := toDailyMap(benchmark.FillDaily(padStart, end))
	fundDaily := make(map[string]map[time.Time]float64, len(isins))
	flowsByDay := make(map[string]map[time.Time][]float64, len(isins))
	for _, isin := range isins {
		fundDaily[isin] = toDailyMap(fundSeries[isin].FillDaily(padStart, end))
		byDay := make(map[time.Time][]float64)
		for _, f := range flows[isin] {
			if math.IsNaN(f.Amount) || math.Abs(f.Amount) < 0.01 {
				continue
			}
			d := day(f.Date)
			byDay[d] = append(byDay[d], f.Amount)
		}
		flowsByDay[isin] = byDay
	}

	states := make(map[string]*simState, len(isins))
	for _, isin := range isins {
		states[isin] = &simState{}
	}
	benchState := &simState{}

	var series []GrowthPoint
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		for _, isin := range isins {
			for _, amount := range flowsByDay[isin][d] {
				states[isin].apply(amount, fundDaily[isin][d])
				benchState.apply(amount, benchDaily[d])
			}
		}

		portfolioValue := 0.0
		invested := 0.0
		for _, isin := range isins {
			st := states[isin]
			if st.units > activeUnitsThreshold {
				invested += st.costBasis
				portfolioValue += st.units * fundDaily[isin][d]
			}
		}
		benchValue := benchState.units * benchDaily[d]

		if invested > 1 || portfolioValue > 1 {
			series = append(series, GrowthPoint{
				Date:      d.Format("2006-01-02"),
				Invested:  round2(invested),
				Portfolio: round2(portfolioValue),
				Benchmark: round2(benchValue),
			})
		}
	}

	return series
}

// BenchmarkXIRR answers "what would the same dated flows have returned
// invested in the index": it accumulates index units per flow and runs
// XIRR against the terminal index valuation.
func BenchmarkXIRR(flows []CashFlow, benchmark provider.PriceSeries) float64 {
	if len(benchmark) == 0 || len(flows) == 0 {
		return 0
	}

	var dated []CashFlow
	totalUnits := 0.0
	for _, f := range flows {
		price := priceOnOrBefore(benchmark, f.Date)
		if price <= 0 {
			continue
		}
		totalUnits += -f.Amount / price
		dated = append(dated, f)
	}
	if len(dated) == 0 || totalUnits <= 0 {
		return 0
	}

	terminal := totalUnits * benchmark[len(benchmark)-1].NAV
	dated = append(dated, CashFlow{Date: time.Now(), Amount: terminal})
	return XIRR(dated)
}

// priceOnOrBefore returns the last price at or before t, or the first
// known price when t predates the series.
func priceOnOrBefore(series provider.PriceSeries, t time.Time) float64 {
	if len(series) == 0 {
		return 0
	}
	idx := sort.Search(len(series), func(i int) bool {
		return series[i].Date.After(t)
	})
	if idx == 0 {
		return series[0].NAV
	}
	return series[idx-1].NAV
}

func toDailyMap(filled provider.PriceSeries) map[time.Time]float64 {
	m := make(map[time.Time]float64, len(filled))
	for _, p := range filled {
		m[p.Date] = p.NAV
	}
	return m
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
