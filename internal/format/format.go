package format

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FmtCurrency formats amount in minor units for basic currencies.
// Example: FmtCurrency(123456, "USD", "en") => "$1,234.56"
func FmtCurrency(minor int64, currency, lang string) string {
	currency = strings.ToUpper(currency)
	neg := minor < 0
	if neg {
		minor = -minor
	}
	var out string
	switch currency {
	case "USD", "":
		out = "$" + FmtCount(minor/100, lang) + decimalMark(lang) + fmt.Sprintf("%02d", minor%100)
	default:
		out = currency + " " + FmtCount(minor, lang)
	}
	if neg {
		return "-" + out
	}
	return out
}

// FmtPrice formats a USD price in cents, dropping the cents when they are zero.
// Example: FmtPrice(3900, "en") => "$39"
func FmtPrice(cents int64, lang string) string {
	if cents%100 != 0 {
		return FmtCurrency(cents, "USD", lang)
	}
	if cents < 0 {
		return "-$" + FmtCount(-cents/100, lang)
	}
	return "$" + FmtCount(cents/100, lang)
}

// FmtCount formats an integer with locale grouping separators.
func FmtCount(n int64, lang string) string {
	return message.NewPrinter(tag(lang)).Sprintf("%d", n)
}

// FmtDate formats time in a locale-friendly short form.
func FmtDate(t time.Time, lang string) string {
	if t.IsZero() {
		return ""
	}
	switch strings.ToLower(lang) {
	case "es":
		return fmt.Sprintf("%d %s %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
	default:
		return t.Format("Jan 2, 2006")
	}
}

var spanishMonths = [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"}

func tag(lang string) language.Tag {
	t, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return language.English
	}
	return t
}

func decimalMark(lang string) string {
	if strings.EqualFold(lang, "es") {
		return ","
	}
	return "."
}
