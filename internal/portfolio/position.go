// Package portfolio reconciles parsed statement records into per-scheme
// positions and assembles the full analysis result: returns, analytics,
// scores, allocation and the growth comparison.
package portfolio

import (
	"sort"
	"time"

	"wealthtrack/internal/analytics"
	"wealthtrack/internal/parser"
)

// SchemePosition is the reconciled view of one scheme, with whatever
// enrichment (XIRR, analytics, score, asset class) could be computed.
type SchemePosition struct {
	Description  string             `json:"description"`
	SchemeName   string             `json:"scheme_name"`
	ISIN         string             `json:"isin,omitempty"`
	Amount       float64            `json:"amount"`
	CurrentValue float64            `json:"current_value"`
	XIRR         float64            `json:"xirr"`
	DaysInvested int                `json:"days_invested"`
	IsSIP        bool               `json:"is_sip"`
	AssetClass   string             `json:"asset_class,omitempty"`
	Analytics    *analytics.Metrics `json:"analytics,omitempty"`
	Score        *float64           `json:"score,omitempty"`
}

// schemeGroup gathers every record sharing one grouping key before any
// enrichment happens.
type schemeGroup struct {
	key          string
	description  string
	isin         string
	transactions []analytics.CashFlow
	netInvested  float64
	marketValue  float64
}

// reconcile groups records by ISIN (description when absent) and derives
// each group's invested amount and market value.
//
// The declared holding cost basis wins over the transaction-derived sum
// whenever it is positive: statements that carry both closing-balance
// and summary rows make the transaction sum unreliable.
func reconcile(records []parser.LineRecord) []schemeGroup {
	byKey := make(map[string]*schemeGroup)
	var order []string

	for _, rec := range records {
		if rec.Kind == parser.KindPortfolioSummary {
			continue
		}
		key := rec.ISIN
		if key == "" {
			key = rec.Description
		}
		group, ok := byKey[key]
		if !ok {
			group = &schemeGroup{key: key, description: rec.Description, isin: rec.ISIN}
			byKey[key] = group
			order = append(order, key)
		}

		switch rec.Kind {
		case parser.KindTransaction:
			group.transactions = append(group.transactions, analytics.CashFlow{
				Date:   rec.Date,
				Amount: rec.Amount,
			})
		case parser.KindHolding:
			group.netInvested += rec.Amount // declared cost basis
			group.marketValue += rec.CurrentValue
		}
	}

	sort.Strings(order)

	var groups []schemeGroup
	for _, key := range order {
		group := byKey[key]
		if group.description == parser.UnknownScheme {
			continue
		}

		if group.netInvested <= 0 {
			txInvested := 0.0
			for _, t := range group.transactions {
				txInvested -= t.Amount
			}
			group.netInvested = txInvested
		}
		if group.netInvested < 0 {
			group.netInvested = 0
		}

		if group.marketValue > 0 || group.netInvested > 0 {
			groups = append(groups, *group)
		}
	}
	return groups
}

// daysInvested is the age in days of the group's earliest transaction.
func (g *schemeGroup) daysInvested() int {
	var first time.Time
	for _, t := range g.transactions {
		if first.IsZero() || t.Date.Before(first) {
			first = t.Date
		}
	}
	if first.IsZero() {
		return 0
	}
	return int(time.Since(first).Hours() / 24)
}
