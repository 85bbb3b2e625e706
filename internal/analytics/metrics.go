// Package analytics computes risk and return statistics for scheme NAV
// histories, relative quality scores across a portfolio, and the
// day-by-day growth simulation against a benchmark index.
package analytics

import (
	"encoding/json"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"wealthtrack/internal/provider"
)

// TradingDays is the trading-day year length used for annualization.
const TradingDays = 252

// minObservations is the smallest fund/benchmark overlap considered a
// usable statistical basis.
const minObservations = 20

// Recovery is a drawdown-recovery duration that may be open-ended.
// It marshals as the day count, or the string "Unrecovered".
type Recovery struct {
	Days      int
	Recovered bool
}

func (r Recovery) MarshalJSON() ([]byte, error) {
	if !r.Recovered {
		return json.Marshal("Unrecovered")
	}
	return json.Marshal(r.Days)
}

func (r *Recovery) UnmarshalJSON(b []byte) error {
	var days int
	if err := json.Unmarshal(b, &days); err == nil {
		*r = Recovery{Days: days, Recovered: true}
		return nil
	}
	*r = Recovery{}
	return nil
}

// Metrics is the computed snapshot for one scheme against the benchmark.
type Metrics struct {
	FundLife        float64  `json:"fund_life"`
	Alpha           float64  `json:"alpha"`
	Beta            float64  `json:"beta"`
	Sharpe          float64  `json:"sharpe"`
	Sortino         float64  `json:"sortino"`
	InfoRatio       float64  `json:"info_ratio"`
	UpsideCapture   float64  `json:"upside_capture"`
	DownsideCapture float64  `json:"downside_capture"`
	MaxDrawdown     float64  `json:"max_drawdown"`
	RecoveryDays    Recovery `json:"recovery_days"`
	CAGR            float64  `json:"cagr"`
	Rolling3YMin    *float64 `json:"rolling_3y_min"`
	Rolling3YMax    *float64 `json:"rolling_3y_max"`
	Rolling3YAvg    *float64 `json:"rolling_3y_avg"`
	RollingPositive *float64 `json:"rolling_pos"`
}

// Engine computes metrics with a fixed annual risk-free rate.
type Engine struct {
	riskFreeRate float64
}

func NewEngine(riskFreeRate float64) *Engine {
	return &Engine{riskFreeRate: riskFreeRate}
}

// ComputeMetrics returns the full metrics battery for a scheme series
// against the benchmark series, or nil when their date overlap is too
// short to be meaningful.
func (e *Engine) ComputeMetrics(fund, benchmark provider.PriceSeries) *Metrics {
	fundNAV, benchNAV, dates := innerJoin(fund, benchmark)
	if len(dates) < minObservations {
		return nil
	}

	fundLife := dates[len(dates)-1].Sub(dates[0]).Hours() / 24 / 365.25

	fundRet := pctChange(fundNAV)
	benchRet := pctChange(benchNAV)
	n := float64(len(fundRet))

	cagr := annualizedReturn(fundRet, n)
	benchCAGR := annualizedReturn(benchRet, n)

	vol := stat.StdDev(fundRet, nil) * math.Sqrt(TradingDays)
	sharpe := safeRatio(cagr-e.riskFreeRate, vol)

	var beta float64
	if benchVar := stat.Variance(benchRet, nil); benchVar != 0 {
		beta = stat.Covariance(fundRet, benchRet, nil) / benchVar
	}
	alpha := cagr - (e.riskFreeRate + beta*(benchCAGR-e.riskFreeRate))

	// Downside deviation only counts days below the daily risk-free rate.
	rfDaily := math.Pow(1+e.riskFreeRate, 1.0/TradingDays) - 1
	var sumSq float64
	for _, r := range fundRet {
		if excess := r - rfDaily; excess < 0 {
			sumSq += excess * excess
		}
	}
	downsideDev := math.Sqrt(sumSq/n) * math.Sqrt(TradingDays)
	sortino := safeRatio(cagr-e.riskFreeRate, downsideDev)

	active := make([]float64, len(fundRet))
	for i := range fundRet {
		active[i] = fundRet[i] - benchRet[i]
	}
	trackingError := stat.StdDev(active, nil) * math.Sqrt(TradingDays)
	infoRatio := safeRatio(cagr-benchCAGR, trackingError)

	upCap := captureRatio(fundRet, benchRet, true)
	downCap := captureRatio(fundRet, benchRet, false)

	maxDD, recovery := drawdownStats(fundRet, dates[1:])

	m := &Metrics{
		FundLife:        fundLife,
		Alpha:           alpha,
		Beta:            beta,
		Sharpe:          sharpe,
		Sortino:         sortino,
		InfoRatio:       infoRatio,
		UpsideCapture:   upCap,
		DownsideCapture: downCap,
		MaxDrawdown:     maxDD,
		RecoveryDays:    recovery,
		CAGR:            cagr,
	}
	fillRollingStats(m, fundNAV)
	return m
}

// innerJoin aligns two ascending series on date.
func innerJoin(a, b provider.PriceSeries) (aNAV, bNAV []float64, dates []time.Time) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Date.Before(b[j].Date):
			i++
		case b[j].Date.Before(a[i].Date):
			j++
		default:
			aNAV = append(aNAV, a[i].NAV)
			bNAV = append(bNAV, b[j].NAV)
			dates = append(dates, a[i].Date)
			i++
			j++
		}
	}
	return aNAV, bNAV, dates
}

func pctChange(navs []float64) []float64 {
	if len(navs) < 2 {
		return nil
	}
	rets := make([]float64, 0, len(navs)-1)
	for i := 1; i < len(navs); i++ {
		if navs[i-1] != 0 {
			rets = append(rets, (navs[i]-navs[i-1])/navs[i-1])
		} else {
			rets = append(rets, 0)
		}
	}
	return rets
}

// annualizedReturn compounds daily returns and rescales to the
// trading-day year: (Π(1+r))^(252/n) − 1.
func annualizedReturn(returns []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	prod := 1.0
	for _, r := range returns {
		prod *= 1 + r
	}
	if prod <= 0 {
		return -1
	}
	return math.Pow(prod, TradingDays/n) - 1
}

// captureRatio compares compounded fund and benchmark returns over
// just the up-market (or down-market) days, as a percentage.
func captureRatio(fundRet, benchRet []float64, up bool) float64 {
	var f, b []float64
	for i := range benchRet {
		inPartition := benchRet[i] >= 0
		if inPartition == up {
			f = append(f, fundRet[i])
			b = append(b, benchRet[i])
		}
	}
	if len(f) == 0 {
		return 0
	}
	n := float64(len(f))
	fundAnn := annualizedReturn(f, n)
	benchAnn := annualizedReturn(b, n)
	if benchAnn == 0 {
		return 0
	}
	ratio := fundAnn / benchAnn * 100
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0
	}
	return ratio
}

// drawdownStats walks the cumulative compounded return curve, finds
// the deepest drop from a running peak, and measures how long the
// curve took to climb back to that peak.
func drawdownStats(returns []float64, dates []time.Time) (float64, Recovery) {
	if len(returns) == 0 {
		return 0, Recovery{}
	}

	cumulative := make([]float64, len(returns))
	peak := make([]float64, len(returns))
	running := 1.0
	// The curve starts at 1.0 before the first return, so the starting
	// value itself counts as a peak.
	maxSeen := 1.0
	for i, r := range returns {
		running *= 1 + r
		cumulative[i] = running
		if running > maxSeen {
			maxSeen = running
		}
		peak[i] = maxSeen
	}

	maxDD := 0.0
	troughIdx := 0
	for i := range cumulative {
		dd := (cumulative[i] - peak[i]) / peak[i]
		if dd < maxDD {
			maxDD = dd
			troughIdx = i
		}
	}

	peakVal := peak[troughIdx]
	for i := troughIdx + 1; i < len(cumulative); i++ {
		if cumulative[i] >= peakVal {
			days := int(dates[i].Sub(dates[troughIdx]).Hours() / 24)
			return maxDD, Recovery{Days: days, Recovered: true}
		}
	}
	return maxDD, Recovery{}
}

// fillRollingStats computes trailing 3-year window returns over the
// aligned NAV curve, annualized by cube root. Left nil when the
// history is shorter than one window.
func fillRollingStats(m *Metrics, navs []float64) {
	window := TradingDays * 3
	if len(navs) <= window {
		return
	}

	var annualized []float64
	positives := 0
	for i := window; i < len(navs); i++ {
		if navs[i-window] == 0 {
			continue
		}
		r := navs[i]/navs[i-window] - 1
		ann := math.Pow(1+r, 1.0/3) - 1
		if math.IsNaN(ann) || math.IsInf(ann, 0) {
			continue
		}
		annualized = append(annualized, ann)
		if ann > 0 {
			positives++
		}
	}
	if len(annualized) == 0 {
		return
	}

	minV, maxV := annualized[0], annualized[0]
	for _, v := range annualized {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	avg := stat.Mean(annualized, nil)
	pos := float64(positives) / float64(len(annualized))

	m.Rolling3YMin = &minV
	m.Rolling3YMax = &maxV
	m.Rolling3YAvg = &avg
	m.RollingPositive = &pos
}

func safeRatio(numerator, denominator float64) float64 {
	if denominator == 0 || math.IsNaN(denominator) {
		return 0
	}
	r := numerator / denominator
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}
