package portfolio

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wealthtrack/internal/analytics"
	"wealthtrack/internal/parser"
	"wealthtrack/internal/provider"
	"wealthtrack/internal/utils"
)

type stubPrices struct {
	schemes   map[string]*provider.SchemeData
	benchmark provider.PriceSeries
	benchErr  error
}

func (s stubPrices) FetchSchemeNAV(code string) (*provider.SchemeData, error) {
	data, ok := s.schemes[code]
	if !ok {
		return nil, errors.New("unknown scheme code")
	}
	return data, nil
}

func (s stubPrices) FetchBenchmark() (provider.PriceSeries, error) {
	return s.benchmark, s.benchErr
}

type stubResolver struct {
	details map[string]*provider.SchemeDetails
}

func (s stubResolver) Resolve(isin string) (*provider.SchemeDetails, error) {
	return s.details[isin], nil
}

func risingSeries(start time.Time, n int, base, dailyRate float64) provider.PriceSeries {
	series := make(provider.PriceSeries, n)
	nav := base
	for i := range series {
		series[i] = provider.PricePoint{Date: start.AddDate(0, 0, i), NAV: nav}
		nav *= 1 + dailyRate
	}
	return series
}

func newTestAnalyzer(prices provider.PriceProvider, resolver provider.Resolver) *Analyzer {
	return NewAnalyzer(prices, resolver, analytics.NewEngine(0.06), utils.NewAppLogger())
}

func TestAnalyzeFullPipeline(t *testing.T) {
	start := time.Now().AddDate(0, 0, -60)
	isin := "INF846K01EW2"

	prices := stubPrices{
		schemes: map[string]*provider.SchemeData{
			"120465": {
				Series:   risingSeries(start, 60, 100, 0.001),
				Category: "Equity Scheme - Large Cap Fund",
			},
		},
		benchmark: risingSeries(start, 60, 50, 0.0005),
	}
	resolver := stubResolver{details: map[string]*provider.SchemeDetails{
		isin: {Name: "Axis Bluechip Fund", Code: "120465"},
	}}

	records := []parser.LineRecord{
		{Kind: parser.KindTransaction, Date: start.AddDate(0, 0, 5), ISIN: isin, Description: "Axis Bluechip", Amount: -10000},
		{Kind: parser.KindTransaction, Date: start.AddDate(0, 0, 35), ISIN: isin, Description: "Axis Bluechip", Amount: -10000},
		{Kind: parser.KindHolding, Current: true, ISIN: isin, Description: "Axis Bluechip", Amount: 20000, CurrentValue: 21000},
		{Kind: parser.KindPortfolioSummary, Description: "Portfolio Total", Amount: 20000, CurrentValue: 21000},
	}

	result := newTestAnalyzer(prices, resolver).Analyze(records)

	assert.Equal(t, "Analyzed (Comprehensive)", result.Status)
	assert.Equal(t, len(records), result.TransactionCount)
	assert.Equal(t, 20000.0, result.TotalInvestment)
	assert.Equal(t, 21000.0, result.CurrentValuation)
	assert.NotZero(t, result.XIRR)
	assert.NotZero(t, result.BenchmarkXIRR)

	require.Len(t, result.Holdings, 1)
	holding := result.Holdings[0]
	assert.Equal(t, "Axis Bluechip Fund", holding.SchemeName)
	assert.Equal(t, "Equity", holding.AssetClass)
	assert.NotZero(t, holding.XIRR)
	require.NotNil(t, holding.Analytics)
	require.NotNil(t, holding.Score)

	assert.Equal(t, 21000.0, result.Allocation["Equity"])
	assert.NotEmpty(t, result.GrowthChart)
}

func TestAnalyzeEmptyRecords(t *testing.T) {
	result := newTestAnalyzer(stubPrices{}, stubResolver{}).Analyze(nil)
	assert.Equal(t, 0, result.TransactionCount)
	assert.Empty(t, result.Holdings)
	assert.NotNil(t, result.Allocation)
}

func TestAnalyzeSurvivesBenchmarkFailure(t *testing.T) {
	isin := "INF846K01EW2"
	prices := stubPrices{benchErr: errors.New("endpoint down")}
	resolver := stubResolver{}

	records := []parser.LineRecord{
		{Kind: parser.KindHolding, Current: true, ISIN: isin, Description: "Axis Bluechip", Amount: 20000, CurrentValue: 21000},
	}

	result := newTestAnalyzer(prices, resolver).Analyze(records)
	require.Len(t, result.Holdings, 1)
	assert.Equal(t, 21000.0, result.CurrentValuation)
	assert.Empty(t, result.GrowthChart)
	assert.Zero(t, result.BenchmarkXIRR)
}

func TestAnalyzeUnresolvedISINStaysUseful(t *testing.T) {
	isin := "INF000X00000"
	prices := stubPrices{benchmark: risingSeries(time.Now().AddDate(0, 0, -40), 40, 50, 0.001)}
	resolver := stubResolver{}

	records := []parser.LineRecord{
		{Kind: parser.KindHolding, Current: true, ISIN: isin, Description: "Obscure Fund", Amount: 5000, CurrentValue: 5500},
	}

	result := newTestAnalyzer(prices, resolver).Analyze(records)
	require.Len(t, result.Holdings, 1)
	assert.Nil(t, result.Holdings[0].Analytics)
	assert.Empty(t, result.Holdings[0].AssetClass)
	assert.Equal(t, 5500.0, result.CurrentValuation)
}

func TestSanitizeReplacesNaN(t *testing.T) {
	score := math.NaN()
	result := &AnalysisResult{
		XIRR:          math.NaN(),
		BenchmarkXIRR: math.Inf(1),
		Holdings: []SchemePosition{{
			XIRR:  math.Inf(-1),
			Score: &score,
			Analytics: &analytics.Metrics{
				Sharpe: math.NaN(),
				Alpha:  math.Inf(1),
			},
		}},
		GrowthChart: []analytics.GrowthPoint{{Portfolio: math.NaN()}},
		Allocation:  map[string]float64{"Equity": math.NaN()},
	}

	result.Sanitize()

	assert.Equal(t, 0.0, result.XIRR)
	assert.Equal(t, 0.0, result.BenchmarkXIRR)
	assert.Equal(t, 0.0, result.Holdings[0].XIRR)
	assert.Equal(t, 0.0, *result.Holdings[0].Score)
	assert.Equal(t, 0.0, result.Holdings[0].Analytics.Sharpe)
	assert.Equal(t, 0.0, result.Holdings[0].Analytics.Alpha)
	assert.Equal(t, 0.0, result.GrowthChart[0].Portfolio)
	assert.Equal(t, 0.0, result.Allocation["Equity"])
}
