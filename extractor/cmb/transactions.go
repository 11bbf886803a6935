package cmb

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ryzhao/cmbill/extractor/common"
)

// One line item: posting month/day, transaction month/day, merchant label,
// currency-tagged amount with exactly two decimals. The label window is wider
// than the accepted merchant length; the tight bound is applied post-trim.
var lineItemRegex = regexp.MustCompile(`(\d{2})(\d{2})\s+(\d{2})(\d{2})\s+([^\d\s¥￥&]{2,60}?)\s+[¥￥]\s*([0-9,]+\.[0-9]{2})`)

var currencyGlyphRegex = regexp.MustCompile(`[¥￥$]`)
var numericAmountRegex = regexp.MustCompile(`^[0-9,.]+$`)

// ExtractLineItems scans normalized body text for transaction records and
// returns the accepted candidates in document order. Categories are not
// assigned here; see Extract.
func ExtractLineItems(text string, opts Options) []common.LineItem {
	items := []common.LineItem{}

	for _, m := range lineItemRegex.FindAllStringSubmatch(text, -1) {
		// The second date pair is the transaction date; the first is only
		// the posting date.
		txDate := m[3] + "/" + m[4]
		merchant := strings.TrimSpace(m[5])

		if containsMarker(merchant, opts.SkipMarkers) {
			continue
		}
		if n := utf8.RuneCountInString(merchant); n < 2 || n > 50 {
			continue
		}

		amountStr := currencyGlyphRegex.ReplaceAllString(m[6], "")
		if !numericAmountRegex.MatchString(amountStr) {
			continue
		}
		amount, err := common.CleanDecimal(amountStr)
		if err != nil {
			continue
		}

		items = append(items, common.LineItem{
			TransactionDate: txDate,
			Merchant:        merchant,
			Amount:          amount,
			Description:     fmt.Sprintf("%s - ¥%s", merchant, amount.StringFixed(2)),
		})
	}

	return items
}

// containsMarker reports whether the merchant label carries a non-spend
// marker token (points balances, inquiries and similar administrative lines).
func containsMarker(merchant string, markers []string) bool {
	merchantLower := strings.ToLower(merchant)
	for _, marker := range markers {
		if marker == "" {
			continue
		}
		if strings.Contains(merchantLower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}
