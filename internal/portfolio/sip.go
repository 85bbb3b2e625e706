package portfolio

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"wealthtrack/internal/analytics"
)

// isSIPActive detects a live systematic investment plan: at least three
// purchases, the latest no older than 45 days, and the recent purchase
// intervals regular enough (coefficient of variation below 0.25).
func isSIPActive(transactions []analytics.CashFlow) bool {
	var dates []time.Time
	for _, t := range transactions {
		if t.Amount < 0 {
			dates = append(dates, t.Date)
		}
	}
	if len(dates) < 3 {
		return false
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	if time.Since(dates[len(dates)-1]).Hours()/24 > 45 {
		return false
	}

	recent := dates
	if len(recent) > 6 {
		recent = recent[len(recent)-6:]
	}
	if len(recent) < 3 {
		return false
	}

	intervals := make([]float64, 0, len(recent)-1)
	for i := 1; i < len(recent); i++ {
		intervals = append(intervals, recent[i].Sub(recent[i-1]).Hours()/24)
	}

	avg := stat.Mean(intervals, nil)
	if avg <= 0 {
		return false
	}
	// Population standard deviation: the intervals are the whole sample.
	var sumSq float64
	for _, iv := range intervals {
		sumSq += (iv - avg) * (iv - avg)
	}
	stdDev := math.Sqrt(sumSq / float64(len(intervals)))

	return stdDev/avg < 0.25
}
