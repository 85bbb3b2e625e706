package portfolio

import "math"

// Sanitize replaces every NaN or infinite float in the result with 0.
// encoding/json refuses NaN/Inf, and clients should never see them
// anyway: a degenerate statistic reads as zero at the boundary.
func (r *AnalysisResult) Sanitize() {
	r.XIRR = cleanFloat(r.XIRR)
	r.BenchmarkXIRR = cleanFloat(r.BenchmarkXIRR)
	r.TotalInvestment = cleanFloat(r.TotalInvestment)
	r.CurrentValuation = cleanFloat(r.CurrentValuation)

	for i := range r.Holdings {
		h := &r.Holdings[i]
		h.Amount = cleanFloat(h.Amount)
		h.CurrentValue = cleanFloat(h.CurrentValue)
		h.XIRR = cleanFloat(h.XIRR)
		if h.Score != nil {
			*h.Score = cleanFloat(*h.Score)
		}
		if m := h.Analytics; m != nil {
			m.FundLife = cleanFloat(m.FundLife)
			m.Alpha = cleanFloat(m.Alpha)
			m.Beta = cleanFloat(m.Beta)
			m.Sharpe = cleanFloat(m.Sharpe)
			m.Sortino = cleanFloat(m.Sortino)
			m.InfoRatio = cleanFloat(m.InfoRatio)
			m.UpsideCapture = cleanFloat(m.UpsideCapture)
			m.DownsideCapture = cleanFloat(m.DownsideCapture)
			m.MaxDrawdown = cleanFloat(m.MaxDrawdown)
			m.CAGR = cleanFloat(m.CAGR)
			cleanFloatPtr(m.Rolling3YMin)
			cleanFloatPtr(m.Rolling3YMax)
			cleanFloatPtr(m.Rolling3YAvg)
			cleanFloatPtr(m.RollingPositive)
		}
	}

	for i := range r.GrowthChart {
		p := &r.GrowthChart[i]
		p.Invested = cleanFloat(p.Invested)
		p.Portfolio = cleanFloat(p.Portfolio)
		p.Benchmark = cleanFloat(p.Benchmark)
	}

	for class, value := range r.Allocation {
		r.Allocation[class] = cleanFloat(value)
	}
}

func cleanFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func cleanFloatPtr(f *float64) {
	if f != nil {
		*f = cleanFloat(*f)
	}
}
