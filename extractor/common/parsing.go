package common

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var nonNumericRegex = regexp.MustCompile(`[^0-9.]`)

// CleanDecimal parses a string into a decimal.Decimal, removing currency
// glyphs and thousands separators first.
func CleanDecimal(text string) (decimal.Decimal, error) {
	cleanText := nonNumericRegex.ReplaceAllString(text, "")
	if cleanText == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(cleanText)
	if err != nil {
		return decimal.Zero, err
	}

	return amount, nil
}

// NormalizeSlashDate rewrites YYYY/MM/DD as YYYY-MM-DD. Inputs that are not
// slash dates are returned untouched.
func NormalizeSlashDate(date string) string {
	re := regexp.MustCompile(`^([0-9]{4})/([0-9]{2})/([0-9]{2})$`)
	if m := re.FindStringSubmatch(date); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
	}
	return date
}

// FormatDate builds a zero-padded YYYY-MM-DD string from loose year, month
// and day fragments such as the ones captured out of 年/月/日 dates.
func FormatDate(year, month, day string) string {
	return fmt.Sprintf("%s-%s-%s", year, pad2(month), pad2(day))
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
