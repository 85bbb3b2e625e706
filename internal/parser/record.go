package parser

import "time"

// RecordKind classifies a parsed statement line.
type RecordKind string

const (
	KindTransaction      RecordKind = "transaction"
	KindHolding          RecordKind = "holding"
	KindPortfolioSummary RecordKind = "portfolio_summary"
)

// UnknownScheme is the placeholder description used for records whose
// scheme header was never seen. Groups carrying only this description
// are dropped during reconciliation.
const UnknownScheme = "Unknown Scheme"

// LineRecord is one parsed fact from a statement.
//
// Amount follows investor cash-flow convention: negative is money
// leaving the investor (a purchase), positive is money coming back
// (a redemption or payout). For holdings, Amount carries the declared
// cost basis and CurrentValue the declared market value.
type LineRecord struct {
	Kind         RecordKind `json:"type"`
	Date         time.Time  `json:"date,omitempty"`
	Current      bool       `json:"current,omitempty"`
	ISIN         string     `json:"isin,omitempty"`
	Folio        string     `json:"folio,omitempty"`
	Description  string     `json:"description"`
	Amount       float64    `json:"amount"`
	CurrentValue float64    `json:"current_value,omitempty"`
	RawLine      string     `json:"-"`
}
