package portfolio

import (
	"time"

	"wealthtrack/internal/analytics"
	"wealthtrack/internal/parser"
	"wealthtrack/internal/provider"
	"wealthtrack/internal/utils"
)

// AnalysisResult is the boundary output of one statement analysis.
type AnalysisResult struct {
	TransactionCount int                     `json:"transaction_count"`
	XIRR             float64                 `json:"xirr"`
	BenchmarkXIRR    float64                 `json:"benchmark_xirr"`
	TotalInvestment  float64                 `json:"total_investment"`
	CurrentValuation float64                 `json:"current_valuation"`
	Status           string                  `json:"status"`
	Holdings         []SchemePosition        `json:"holdings"`
	GrowthChart      []analytics.GrowthPoint `json:"growth_chart"`
	Allocation       map[string]float64      `json:"allocation"`
}

// Analyzer turns parsed statement records into an AnalysisResult.
// Provider and resolver failures degrade single schemes, never the
// analysis as a whole.
type Analyzer struct {
	prices   provider.PriceProvider
	resolver provider.Resolver
	engine   *analytics.Engine
	logger   utils.Logger
}

func NewAnalyzer(prices provider.PriceProvider, resolver provider.Resolver, engine *analytics.Engine, logger utils.Logger) *Analyzer {
	return &Analyzer{
		prices:   prices,
		resolver: resolver,
		engine:   engine,
		logger:   logger,
	}
}

// Analyze reconciles the records into positions, enriches each with
// per-scheme performance, scores the portfolio, replays the growth
// simulation and aggregates the totals.
func (a *Analyzer) Analyze(records []parser.LineRecord) *AnalysisResult {
	result := &AnalysisResult{
		Status:     "Analyzed (Comprehensive)",
		Allocation: map[string]float64{},
	}
	if len(records) == 0 {
		return result
	}
	result.TransactionCount = len(records)

	benchmark, err := a.prices.FetchBenchmark()
	if err != nil {
		a.logger.Error("Benchmark series unavailable: %v", err)
		benchmark = nil
	}

	groups := reconcile(records)
	seriesByISIN := make(map[string]provider.PriceSeries)

	totalInvested := 0.0
	for _, group := range groups {
		position := SchemePosition{
			Description:  group.description,
			SchemeName:   provider.CleanSchemeName(group.description),
			ISIN:         group.isin,
			Amount:       group.netInvested,
			CurrentValue: group.marketValue,
			DaysInvested: group.daysInvested(),
			IsSIP:        isSIPActive(group.transactions),
		}
		totalInvested += group.netInvested

		if len(group.transactions) > 0 && group.marketValue > 0 {
			flows := append([]analytics.CashFlow{}, group.transactions...)
			flows = append(flows, analytics.CashFlow{Date: time.Now(), Amount: group.marketValue})
			position.XIRR = analytics.XIRR(flows)
		}

		a.enrich(&position, benchmark, seriesByISIN)

		result.Holdings = append(result.Holdings, position)
	}

	a.applyScores(result.Holdings)

	currentValuation := 0.0
	for _, h := range result.Holdings {
		currentValuation += h.CurrentValue
		if h.AssetClass != "" {
			result.Allocation[h.AssetClass] += h.CurrentValue
		}
	}
	result.CurrentValuation = currentValuation

	// The statement's own grand total is authoritative when present.
	result.TotalInvestment = totalInvested
	for _, rec := range records {
		if rec.Kind == parser.KindPortfolioSummary {
			result.TotalInvestment = rec.Amount
			break
		}
	}

	var allFlows []analytics.CashFlow
	flowsByISIN := make(map[string][]analytics.CashFlow)
	for _, rec := range records {
		if rec.Kind != parser.KindTransaction {
			continue
		}
		flow := analytics.CashFlow{Date: rec.Date, Amount: rec.Amount}
		allFlows = append(allFlows, flow)
		if rec.ISIN != "" {
			flowsByISIN[rec.ISIN] = append(flowsByISIN[rec.ISIN], flow)
		}
	}

	if len(allFlows) > 0 {
		terminal := append([]analytics.CashFlow{}, allFlows...)
		if currentValuation > 0 {
			terminal = append(terminal, analytics.CashFlow{Date: time.Now(), Amount: currentValuation})
		}
		result.XIRR = analytics.XIRR(terminal)

		if len(benchmark) > 0 {
			result.BenchmarkXIRR = analytics.BenchmarkXIRR(allFlows, benchmark)
			a.fetchMissingSeries(flowsByISIN, seriesByISIN)
			result.GrowthChart = analytics.SimulateGrowth(flowsByISIN, seriesByISIN, benchmark)
		}
	}

	result.Sanitize()
	return result
}

// enrich attaches the resolver name, analytics and asset class to one
// position. Every failure here is logged and swallowed: the position
// stays useful without enrichment.
func (a *Analyzer) enrich(position *SchemePosition, benchmark provider.PriceSeries, seriesByISIN map[string]provider.PriceSeries) {
	if position.ISIN == "" {
		return
	}

	details, err := a.resolver.Resolve(position.ISIN)
	if err != nil {
		a.logger.Error("Resolver lookup failed for %s: %v", position.ISIN, err)
		return
	}
	if details == nil {
		a.logger.Debug("ISIN %s not in scheme master", position.ISIN)
		return
	}
	if details.Name != "" {
		position.SchemeName = details.Name
	}

	data, err := a.prices.FetchSchemeNAV(details.Code)
	if err != nil {
		a.logger.Error("NAV history unavailable for %s (%s): %v", position.ISIN, details.Code, err)
		return
	}
	seriesByISIN[position.ISIN] = data.Series
	position.AssetClass = analytics.ClassifyCategory(data.Category)

	if len(benchmark) > 0 {
		position.Analytics = a.engine.ComputeMetrics(data.Series, benchmark)
	}
}

// applyScores computes the cross-portfolio relative score and attaches
// it to every scheme that has an ISIN.
func (a *Analyzer) applyScores(holdings []SchemePosition) {
	var inputs []analytics.ScoreInput
	for _, h := range holdings {
		if h.ISIN != "" {
			inputs = append(inputs, analytics.ScoreInput{Key: h.ISIN, Metrics: h.Analytics})
		}
	}
	scores := analytics.ComputeScores(inputs)
	for i := range holdings {
		if score, ok := scores[holdings[i].ISIN]; ok {
			s := score
			holdings[i].Score = &s
		}
	}
}

// fetchMissingSeries pulls NAV histories for transaction ISINs that did
// not surface as retained positions, so the simulation can still
// include their flows.
func (a *Analyzer) fetchMissingSeries(flowsByISIN map[string][]analytics.CashFlow, seriesByISIN map[string]provider.PriceSeries) {
	for isin := range flowsByISIN {
		if _, ok := seriesByISIN[isin]; ok {
			continue
		}
		details, err := a.resolver.Resolve(isin)
		if err != nil || details == nil {
			continue
		}
		data, err := a.prices.FetchSchemeNAV(details.Code)
		if err != nil {
			continue
		}
		seriesByISIN[isin] = data.Series
	}
}
