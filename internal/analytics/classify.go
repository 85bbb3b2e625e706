package analytics

import "strings"

var assetClassKeywords = []struct {
	class    string
	keywords []string
}{
	{"Equity", []string{"EQUITY", "ELSS", "INDEX"}},
	{"Debt", []string{"DEBT", "INCOME", "BOND", "GILT", "LIQUID", "DURATION"}},
	{"Hybrid", []string{"HYBRID", "BALANCED", "AGGRESSIVE", "CONSERVATIVE"}},
	{"Commodities", []string{"GOLD", "SILVER", "COMMODITY"}},
}

// ClassifyCategory maps a scheme-category string to a broad asset
// class: Equity, Debt, Hybrid, Commodities or Others.
func ClassifyCategory(schemeCategory string) string {
	if schemeCategory == "" {
		return "Others"
	}
	category := strings.ToUpper(schemeCategory)
	for _, entry := range assetClassKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(category, kw) {
				return entry.class
			}
		}
	}
	return "Others"
}
