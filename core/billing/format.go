package billing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatNumber renders n with Korean digit grouping, e.g. 1,234,567.
func FormatNumber(n int64) string {
	return message.NewPrinter(language.Korean).Sprintf("%d", n)
}

// FormatKRW renders a won amount, e.g. 363,000원.
func FormatKRW(n int64) string {
	return FormatNumber(n) + "원"
}

// FormatPercent renders a percentage with a fixed number of decimal places.
func FormatPercent(value decimal.Decimal, places int32) string {
	return value.StringFixed(places) + "%"
}
