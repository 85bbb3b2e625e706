package analytics

import "math"

// scoreWeights are the fixed weights of the relative quality score.
// Max drawdown is negative, so a value closer to zero normalizes high.
var scoreWeights = []struct {
	name   string
	weight float64
	value  func(*Metrics) float64
}{
	{"alpha", 0.25, func(m *Metrics) float64 { return m.Alpha }},
	{"sharpe", 0.20, func(m *Metrics) float64 { return m.Sharpe }},
	{"sortino", 0.20, func(m *Metrics) float64 { return m.Sortino }},
	{"cagr", 0.15, func(m *Metrics) float64 { return m.CAGR }},
	{"info_ratio", 0.10, func(m *Metrics) float64 { return m.InfoRatio }},
	{"max_drawdown", 0.10, func(m *Metrics) float64 { return m.MaxDrawdown }},
}

// ScoreInput names one scheme and its metrics; Metrics may be nil when
// the scheme had too little history.
type ScoreInput struct {
	Key     string
	Metrics *Metrics
}

// ComputeScores assigns each scheme a 0-100 relative quality score:
// each weighted metric is min-max normalized across the portfolio
// (missing values count as 0; a metric constant across all schemes
// scores everyone the neutral 0.5), the weighted sum is divided by the
// weights actually in play, scaled to 100 and rounded to one decimal.
func ComputeScores(inputs []ScoreInput) map[string]float64 {
	if len(inputs) == 0 {
		return map[string]float64{}
	}

	raw := make(map[string]float64, len(inputs))
	usedWeights := 0.0

	for _, metric := range scoreWeights {
		values := make([]float64, len(inputs))
		anyPresent := false
		for i, in := range inputs {
			if in.Metrics != nil {
				v := metric.value(in.Metrics)
				if !math.IsNaN(v) && !math.IsInf(v, 0) {
					values[i] = v
				}
				anyPresent = true
			}
		}
		// A metric absent across the whole portfolio carries no weight.
		if !anyPresent {
			continue
		}
		usedWeights += metric.weight

		minV, maxV := values[0], values[0]
		for _, v := range values {
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}

		for i, in := range inputs {
			var normalized float64
			if maxV == minV {
				normalized = 0.5
			} else {
				normalized = (values[i] - minV) / (maxV - minV)
			}
			raw[in.Key] += normalized * metric.weight
		}
	}

	scores := make(map[string]float64, len(inputs))
	for key, sum := range raw {
		if usedWeights > 0 {
			scores[key] = math.Round(sum/usedWeights*100*10) / 10
		} else {
			scores[key] = 0
		}
	}
	return scores
}
