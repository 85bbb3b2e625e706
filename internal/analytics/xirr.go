package analytics

import (
	"math"
	"sort"
	"time"
)

// CashFlow is one dated investor cash flow. Negative amounts are money
// invested, positive amounts money received.
type CashFlow struct {
	Date   time.Time
	Amount float64
}

// XIRR calculates the annualized internal rate of return of a set of
// dated cash flows using Newton's method. Returns 0 when the flows are
// empty or the iteration does not converge to a finite rate.
func XIRR(flows []CashFlow) float64 {
	const (
		maxIterations = 100
		tolerance     = 0.000001
		guess         = 0.1
	)

	if len(flows) == 0 {
		return 0
	}

	sorted := make([]CashFlow, len(flows))
	copy(sorted, flows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	rate := guess
	for i := 0; i < maxIterations; i++ {
		f := 0.0  // NPV
		df := 0.0 // Derivative of NPV

		for _, flow := range sorted {
			t := flow.Date.Sub(sorted[0].Date).Hours() / 24 / 365 // years
			v := math.Pow(1+rate, t)
			f += flow.Amount / v
			df += -t * flow.Amount / math.Pow(1+rate, t+1)
		}

		if math.Abs(f) < tolerance {
			break
		}
		if df == 0 || math.IsNaN(df) || math.IsInf(df, 0) {
			return 0
		}

		rate = rate - f/df
	}

	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= -1 {
		return 0
	}
	return rate
}
