// Package parser recovers typed transaction, holding and summary
// records from the text of consolidated account statements. Statement
// layouts differ per registrar, so classification is a best-effort
// ordered chain of heuristics: a line that matches nothing is skipped,
// never fatal.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"wealthtrack/internal/provider"
	"wealthtrack/internal/utils"
)

// ErrDocumentOpen marks document-level failures (no readable text),
// as opposed to individual lines that merely match no pattern.
var ErrDocumentOpen = errors.New("cannot open statement document")

var (
	folioRe       = regexp.MustCompile(`(?i)Folio\s*(?:No)?:?\s*(\d+\s*/\s*\d+|\d+)`)
	isinRe        = regexp.MustCompile(`INF\w{9}`)
	isinLabelRe   = regexp.MustCompile(`ISIN:?\s*INF\w{9}`)
	trailingParen = regexp.MustCompile(`\([^)]*\)\s*$`)
	namePrefixRe  = regexp.MustCompile(`^[A-Z0-9]{3,8}-`)
	dateTokenRe   = regexp.MustCompile(`^\s*(\d{2}[-./](?:[A-Za-z]{3}|\d{2})[-./]\d{4})`)
	decimalRe     = regexp.MustCompile(`([\d,]+\.\d+)`)
	signedAmtRe   = regexp.MustCompile(`(-?[\d,]+\.\d{2,4})`)
	costValueRe   = regexp.MustCompile(`(?i)Total\s*Cost\s*Value:?\s*([\d,]+\.?\d*)`)
	marketValueRe = regexp.MustCompile(`(?i)Market\s*Value[^:]*:\s*(?:INR\s*)?([\d,]+\.?\d*)`)
	trailingNumRe = regexp.MustCompile(`[\d,]+\.\d+.*$`)
)

var fundNameKeywords = []string{
	"equity", "debt", "hybrid", "balanced", "bluechip",
	"flexi", "growth", "liquid", "overnight", "gilt",
	"arbitrage", "elss", "index",
}

var inflowKeywords = []string{"redemption", "sell", "switch out", "dividend payout"}

var outflowKeywords = []string{"purchase", "sip", "switch in", "reinvestment", "systematic", "investment"}

// rowHoldingBlacklist keeps transaction-looking lines out of the
// fallback holding heuristic so amounts are not double counted.
var rowHoldingBlacklist = []string{
	"purchase", "sip", "redemption", "switch", "dividend",
	"stt", "stamp", "advisor", "registra", "sys. investment", "charges",
}

// scanContext is the rolling state threaded through the line scan.
type scanContext struct {
	fund        string
	isin        string
	folio       string
	pendingName string
}

// matchKind tags the outcome of one matcher in the chain.
type matchKind int

const (
	noMatch matchKind = iota
	matchFolio
	matchHeader
	matchNameHint
	matchNoise
	matchSummary
	matchTransaction
	matchHolding
)

// matcher inspects one line against the rolling context. The first
// matcher that returns something other than noMatch wins; new layouts
// are supported by inserting a matcher without disturbing earlier ones.
type matcher func(p *Parser, ctx *scanContext, line string) (matchKind, *LineRecord)

var matchers = []matcher{
	matchFolioLine,
	matchHeaderLine,
	matchNameHintLine,
	matchPageNoise,
	matchSummaryTotal,
	matchFundNoise,
	matchTransactionLine,
	matchClosingBalanceLine,
	matchRowHoldingLine,
}

// Parser turns statement page text into LineRecords. The resolver is
// optional; when present, header names are replaced with the official
// scheme-master name.
type Parser struct {
	resolver provider.Resolver
	logger   utils.Logger
}

func NewParser(resolver provider.Resolver, logger utils.Logger) *Parser {
	return &Parser{resolver: resolver, logger: logger}
}

// Parse scans the extracted page texts in order and returns every
// record the heuristics recognize. It fails only when the document
// yields no text at all.
func (p *Parser) Parse(pages []string) ([]LineRecord, error) {
	hasText := false
	for _, page := range pages {
		if strings.TrimSpace(page) != "" {
			hasText = true
			break
		}
	}
	if !hasText {
		return nil, fmt.Errorf("%w: no extractable text", ErrDocumentOpen)
	}

	ctx := &scanContext{fund: UnknownScheme}
	var records []LineRecord

	for _, page := range pages {
		for _, line := range strings.Split(page, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			for _, m := range matchers {
				kind, rec := m(p, ctx, line)
				if kind == noMatch {
					continue
				}
				if rec != nil {
					records = append(records, *rec)
				}
				break
			}
		}
	}

	return records, nil
}

// matchFolioLine updates the rolling folio context.
func matchFolioLine(_ *Parser, ctx *scanContext, line string) (matchKind, *LineRecord) {
	m := folioRe.FindStringSubmatch(line)
	if m == nil {
		return noMatch, nil
	}
	ctx.folio = strings.ReplaceAll(m[1], " ", "")
	ctx.pendingName = ""
	return matchFolio, nil
}

// matchHeaderLine recognizes a scheme header by its ISIN and rebuilds
// the scheme name, joining the previous line when the name wrapped.
func matchHeaderLine(p *Parser, ctx *scanContext, line string) (matchKind, *LineRecord) {
	isin := isinRe.FindString(line)
	if isin == "" {
		return noMatch, nil
	}
	ctx.isin = isin

	cleanName := line
	if ctx.pendingName != "" && strings.HasPrefix(line, "(") {
		cleanName = ctx.pendingName + " " + line
	}
	if idx := strings.Index(cleanName, "Advisor"); idx >= 0 {
		cleanName = cleanName[:idx]
	}
	cleanName = isinLabelRe.ReplaceAllString(cleanName, "")
	cleanName = strings.ReplaceAll(cleanName, isin, "")
	// Trailing parentheticals carry demat/advisor noise; nested ones
	// need a second pass.
	cleanName = trailingParen.ReplaceAllString(cleanName, "")
	cleanName = trailingParen.ReplaceAllString(cleanName, "")
	cleanName = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(cleanName), "-"))
	ctx.fund = cleanName

	if p.resolver != nil {
		if details, err := p.resolver.Resolve(isin); err == nil && details != nil && details.Name != "" {
			ctx.fund = details.Name
		}
	}

	ctx.pendingName = ""
	return matchHeader, nil
}

// matchNameHintLine stashes a probable scheme-name fragment so the next
// header line can reattach it. Only the immediately preceding line is
// ever joined.
func matchNameHintLine(_ *Parser, ctx *scanContext, line string) (matchKind, *LineRecord) {
	if strings.Contains(line, "INF") || strings.HasPrefix(line, "(") {
		return noMatch, nil
	}
	isName := namePrefixRe.MatchString(line)
	if !isName {
		lower := strings.ToLower(line)
		for _, kw := range fundNameKeywords {
			if strings.Contains(lower, kw) {
				isName = true
				break
			}
		}
	}
	if !isName {
		return noMatch, nil
	}
	ctx.pendingName = line
	return matchNameHint, nil
}

func matchPageNoise(_ *Parser, _ *scanContext, line string) (matchKind, *LineRecord) {
	lower := strings.ToLower(line)
	if strings.Contains(lower, "statement") || strings.Contains(lower, "page") {
		return matchNoise, nil
	}
	return noMatch, nil
}

// matchSummaryTotal captures the grand-total row of the main table,
// e.g. "Total 2,636,705.02 2,834,204.06".
func matchSummaryTotal(_ *Parser, _ *scanContext, line string) (matchKind, *LineRecord) {
	if !strings.HasPrefix(strings.ToLower(line), "total") {
		return noMatch, nil
	}
	nums := parseDecimals(line)
	if len(nums) < 2 {
		// Still a total line; just not the one we want.
		return matchNoise, nil
	}
	return matchSummary, &LineRecord{
		Kind:         KindPortfolioSummary,
		Description:  "Portfolio Total",
		Amount:       nums[0],
		CurrentValue: nums[1],
		RawLine:      line,
	}
}

func matchFundNoise(_ *Parser, _ *scanContext, line string) (matchKind, *LineRecord) {
	lower := strings.ToLower(line)
	if strings.Contains(lower, "mutual fund") {
		return matchNoise, nil
	}
	return noMatch, nil
}

// matchTransactionLine recognizes date-prefixed transaction rows and
// classifies the cash-flow direction from the narrative keywords.
func matchTransactionLine(_ *Parser, ctx *scanContext, line string) (matchKind, *LineRecord) {
	m := dateTokenRe.FindStringSubmatch(line)
	if m == nil {
		return noMatch, nil
	}
	lower := strings.ToLower(line)
	if strings.Contains(lower, "stamp duty") || strings.Contains(lower, "charges") {
		// Charge rows are not investor cash flows; swallow the line so
		// the holding fallback cannot pick it up either.
		return matchNoise, nil
	}

	date, err := parseStatementDate(m[1])
	if err != nil {
		return matchNoise, nil
	}

	tokens := signedAmtRe.FindAllString(line, -1)
	if len(tokens) == 0 {
		return matchNoise, nil
	}
	amount := parseNumber(tokens[0])

	if containsAny(lower, inflowKeywords) {
		amount = abs(amount)
	} else if containsAny(lower, outflowKeywords) {
		amount = -abs(amount)
	}

	return matchTransaction, &LineRecord{
		Kind:        KindTransaction,
		Date:        date,
		ISIN:        ctx.isin,
		Folio:       ctx.folio,
		Description: ctx.fund,
		Amount:      amount,
		RawLine:     line,
	}
}

// matchClosingBalanceLine extracts the declared cost and market value
// from a "Closing Unit Balance" row.
func matchClosingBalanceLine(_ *Parser, ctx *scanContext, line string) (matchKind, *LineRecord) {
	lower := strings.ToLower(line)
	if !strings.Contains(lower, "closing unit balance") {
		return noMatch, nil
	}

	var cost, val float64
	if m := costValueRe.FindStringSubmatch(line); m != nil {
		cost = parseNumber(m[1])
	}
	if m := marketValueRe.FindStringSubmatch(line); m != nil {
		val = parseNumber(m[1])
	}
	if val == 0 {
		// Label missing on some layouts; the market value is then the
		// last number on the line.
		if nums := parseDecimals(line); len(nums) > 0 {
			val = nums[len(nums)-1]
		}
	}
	if val <= 0 {
		return matchNoise, nil
	}

	return matchHolding, &LineRecord{
		Kind:         KindHolding,
		Current:      true,
		ISIN:         ctx.isin,
		Folio:        ctx.folio,
		Description:  ctx.fund,
		Amount:       cost,
		CurrentValue: val,
		RawLine:      line,
	}
}

// matchRowHoldingLine treats a long line with at least two decimal
// numbers as a self-contained holding row. Summary-only statements
// have no transaction sections, so this is the only way their
// positions surface. The two largest numbers are taken as market value
// and cost, in that order.
func matchRowHoldingLine(_ *Parser, ctx *scanContext, line string) (matchKind, *LineRecord) {
	nums := parseDecimals(line)
	if len(nums) < 2 || len(line) <= 15 {
		return noMatch, nil
	}
	lower := strings.ToLower(line)
	if containsAny(lower, rowHoldingBlacklist) {
		return matchNoise, nil
	}

	isin := ctx.isin
	name := ctx.fund
	// A one-liner holding may carry its own ISIN; it overrides the
	// rolling context for this row only.
	if rowISIN := isinRe.FindString(line); rowISIN != "" {
		isin = rowISIN
		name = strings.ReplaceAll(line, rowISIN, "")
		name = strings.TrimSpace(trailingNumRe.ReplaceAllString(name, ""))
	}

	largest, second := topTwo(nums)

	return matchHolding, &LineRecord{
		Kind:         KindHolding,
		Current:      true,
		ISIN:         isin,
		Folio:        ctx.folio,
		Description:  name,
		Amount:       second,
		CurrentValue: largest,
		RawLine:      line,
	}
}

var statementDateLayouts = []string{
	"02-Jan-2006", "02/Jan/2006", "02.Jan.2006",
	"02-01-2006", "02/01/2006", "02.01.2006",
}

func parseStatementDate(token string) (time.Time, error) {
	for _, layout := range statementDateLayouts {
		if t, err := time.Parse(layout, token); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date token %q", token)
}

func parseDecimals(line string) []float64 {
	tokens := decimalRe.FindAllString(line, -1)
	nums := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		nums = append(nums, parseNumber(tok))
	}
	return nums
}

func parseNumber(token string) float64 {
	n, _ := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
	return n
}

func topTwo(nums []float64) (largest, second float64) {
	for _, n := range nums {
		switch {
		case n > largest:
			second = largest
			largest = n
		case n > second:
			second = n
		}
	}
	return largest, second
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
