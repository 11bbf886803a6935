// Package cmb extracts bill fields and transaction line items from the
// normalized body text of one statement template family. Everything here is
// best-effort, ordered pattern matching: a miss leaves the field unset, it is
// never an error.
package cmb

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/ryzhao/cmbill/extractor/common"
)

// Options carries the tunable thresholds and filters of the heuristics. The
// total range excludes credit-limit-sized figures from the fallback total
// scan; the values are statement-scale specific, so they live in config.
type Options struct {
	TotalMin    decimal.Decimal
	TotalMax    decimal.Decimal
	SkipMarkers []string
}

// DefaultOptions returns the thresholds the heuristics were tuned with.
func DefaultOptions() Options {
	return Options{
		TotalMin:    decimal.NewFromInt(10),
		TotalMax:    decimal.NewFromInt(50000),
		SkipMarkers: []string{"积分", "积分值", "查询"},
	}
}

// minPaymentSentinel bounds the min-payment check when no total resolved.
var minPaymentSentinel = decimal.NewFromInt(100000)

// Billing cycle expressed as a start-end slash-date range; the end date is
// the bill date.
var cycleRangeRegex = regexp.MustCompile(`([0-9]{4}/[0-9]{2}/[0-9]{2})-([0-9]{4}/[0-9]{2}/[0-9]{2})`)

// dueDateRule is one step of the due-date cascade: a pattern plus the
// normalization of its captures into YYYY-MM-DD.
type dueDateRule struct {
	re   *regexp.Regexp
	date func(m []string) string
}

func slashDate(m []string) string { return common.NormalizeSlashDate(m[1]) }
func cjkDate(m []string) string   { return common.FormatDate(m[1], m[2], m[3]) }

// Tried in order of increasing looseness; the first hit wins.
var dueDateRules = []dueDateRule{
	{regexp.MustCompile(`到期还款日.*?([0-9]{4}/[0-9]{2}/[0-9]{2})`), slashDate},
	{regexp.MustCompile(`([0-9]{4}/[0-9]{2}/[0-9]{2}).*?到期还款日`), slashDate},
	{regexp.MustCompile(`(?:到期还款日|最后还款日|Due Date|Payment Due Date)[：:]\s*([0-9]{4}-[0-9]{2}-[0-9]{2})`), func(m []string) string { return m[1] }},
	{regexp.MustCompile(`([0-9]{4})年([0-9]{1,2})月([0-9]{1,2})日.*?到期还款日`), cjkDate},
	{regexp.MustCompile(`到期还款日.*?([0-9]{4})年([0-9]{1,2})月([0-9]{1,2})日`), cjkDate},
}

// Three consecutive currency-tagged amounts: credit limit, total due,
// minimum payment in template position. When present this is authoritative.
var structuredTripleRegex = regexp.MustCompile(`[¥￥]\s*([0-9,]+\.[0-9]{2})\s*[¥￥]\s*([0-9,]+\.[0-9]{2})\s*[¥￥]\s*([0-9,]+\.[0-9]{2})`)

// Fallback total patterns, label-anchored first, then a bounded-magnitude
// unanchored scan. Every candidate is range-checked.
var totalAmountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:本期应还总额|应还总额|本期应还).*?[¥￥]\s*([0-9,]+\.[0-9]{2})`),
	regexp.MustCompile(`(?:应还总额|本期应还总额|Total Amount Due|Amount Due)[：:]\s*[¥￥$]?\s*([0-9,]+\.?[0-9]*)`),
	regexp.MustCompile(`应还总额[：:]?\s*([0-9,]+\.?[0-9]*)`),
	regexp.MustCompile(`[¥￥]\s*([0-9,]{1,7}\.[0-9]{2})`),
}

var minPaymentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:最低还款额|最低).*?[¥￥]\s*([0-9,]+\.[0-9]{2})`),
	regexp.MustCompile(`(?:最低还款额|Minimum Payment)[：:]\s*[¥￥$]?\s*([0-9,]+\.?[0-9]*)`),
	regexp.MustCompile(`最低还款额[：:]?\s*([0-9,]+\.?[0-9]*)`),
}

// Amount pair used to find the value immediately following the resolved
// total, the template position of the minimum payment.
var amountPairRegex = regexp.MustCompile(`[¥￥]\s*([0-9,]+\.[0-9]{2})\s*[¥￥]\s*([0-9,]+\.[0-9]{2})`)

// ExtractFields pulls bill date, due date, total due and minimum payment out
// of normalized body text. Every field is independently optional; an all-empty
// result signals "not a bill mail" to the caller.
func ExtractFields(text string, opts Options) common.BillFields {
	var fields common.BillFields

	if m := cycleRangeRegex.FindStringSubmatch(text); m != nil {
		fields.BillDate = common.NormalizeSlashDate(m[2])
	}

	for _, rule := range dueDateRules {
		if m := rule.re.FindStringSubmatch(text); m != nil {
			fields.DueDate = rule.date(m)
			break
		}
	}

	if m := structuredTripleRegex.FindStringSubmatch(text); m != nil {
		total, errTotal := common.CleanDecimal(m[2])
		minPay, errMin := common.CleanDecimal(m[3])
		if errTotal == nil && errMin == nil {
			fields.TotalAmount = &total
			fields.MinPayment = &minPay
			return fields
		}
	}

	fields.TotalAmount = findAmount(text, totalAmountPatterns, func(d decimal.Decimal) bool {
		return d.GreaterThanOrEqual(opts.TotalMin) && d.LessThanOrEqual(opts.TotalMax)
	})

	limit := minPaymentSentinel
	if fields.TotalAmount != nil {
		limit = *fields.TotalAmount
	}
	fields.MinPayment = findAmount(text, minPaymentPatterns, func(d decimal.Decimal) bool {
		return d.LessThan(limit)
	})
	if fields.MinPayment == nil && fields.TotalAmount != nil {
		fields.MinPayment = amountAfterTotal(text, *fields.TotalAmount)
	}

	return fields
}

// findAmount walks the pattern list in order and returns the first candidate
// that parses and passes the plausibility check. Parse failures skip the
// candidate, never abort the scan.
func findAmount(text string, patterns []*regexp.Regexp, plausible func(decimal.Decimal) bool) *decimal.Decimal {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			amount, err := common.CleanDecimal(m[1])
			if err != nil {
				continue
			}
			if plausible(amount) {
				return &amount
			}
		}
	}
	return nil
}

// amountAfterTotal finds the currency amount that immediately follows the
// already-resolved total in the text, which in this template is the minimum
// payment slot.
func amountAfterTotal(text string, total decimal.Decimal) *decimal.Decimal {
	for _, m := range amountPairRegex.FindAllStringSubmatch(text, -1) {
		first, err := common.CleanDecimal(m[1])
		if err != nil || !first.Equal(total) {
			continue
		}
		second, err := common.CleanDecimal(m[2])
		if err != nil {
			continue
		}
		if second.LessThan(total) {
			return &second
		}
	}
	return nil
}
