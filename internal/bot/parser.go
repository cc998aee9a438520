package bot

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsedEntry is a bookkeeping entry parsed from command arguments.
type ParsedEntry struct {
	Amount       decimal.Decimal
	Description  string
	CategoryName string
}

var (
	// plainAmountRegex matches "50", "50.5" and "50,50".
	plainAmountRegex = regexp.MustCompile(`^\d+(?:[.,]\d{1,2})?$`)
	// groupedAmountRegex matches amounts with thousands dots like "1.234,56".
	groupedAmountRegex = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+(?:,\d{1,2})?$`)
)

// parseAmount reads a positive amount written with either decimal separator.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	switch {
	case groupedAmountRegex.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	case plainAmountRegex.MatchString(s):
	default:
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ",", ".")

	amount, err := decimal.NewFromString(s)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}

// ParseEntry parses "<amount> <description> [#category]". The category may
// contain spaces and runs to the end of the input. Returns nil when the
// input does not start with a positive amount.
func ParseEntry(input string) *ParsedEntry {
	input = strings.TrimSpace(input)
	first, rest, _ := strings.Cut(input, " ")
	amount, ok := parseAmount(first)
	if !ok {
		return nil
	}

	entry := &ParsedEntry{Amount: amount}
	rest = strings.TrimSpace(rest)
	if idx := strings.Index(rest, "#"); idx != -1 {
		entry.CategoryName = strings.TrimSpace(rest[idx+1:])
		rest = rest[:idx]
	}
	entry.Description = strings.Join(strings.Fields(rest), " ")
	return entry
}
