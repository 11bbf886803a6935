// Package report computes category roll-ups over persisted line items and
// renders the text spending report. Everything here is a pure function of its
// inputs; the store read side stays with the caller.
package report

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/ryzhao/cmbill/extractor/common"
)

// DefaultBarWidth is the width, in glyphs, of one bar in the category chart.
const DefaultBarWidth = 50

// CategoryTotal is one category's roll-up.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
	Count    int
}

// Breakdown is the aggregation result for one period or bill, categories
// sorted by descending total.
type Breakdown struct {
	Totals     []CategoryTotal
	TotalSpend decimal.Decimal
	TotalCount int
}

// Empty reports a "no data" breakdown.
func (b Breakdown) Empty() bool {
	return b.TotalCount == 0
}

// BillInfo is the bill-level header rendered above a breakdown.
type BillInfo struct {
	BillDate    string
	DueDate     string
	TotalAmount *decimal.Decimal
	MinPayment  *decimal.Decimal
}

// Aggregate groups line items by category and sums amounts and counts.
// Zero items yields a well-defined empty Breakdown.
func Aggregate(items []common.LineItem) Breakdown {
	totals := map[string]*CategoryTotal{}
	var order []string

	b := Breakdown{TotalSpend: decimal.Zero}
	for _, item := range items {
		ct, ok := totals[item.Category]
		if !ok {
			ct = &CategoryTotal{Category: item.Category, Total: decimal.Zero}
			totals[item.Category] = ct
			order = append(order, item.Category)
		}
		ct.Total = ct.Total.Add(item.Amount)
		ct.Count++
		b.TotalSpend = b.TotalSpend.Add(item.Amount)
		b.TotalCount++
	}

	for _, category := range order {
		b.Totals = append(b.Totals, *totals[category])
	}
	sort.SliceStable(b.Totals, func(i, j int) bool {
		return b.Totals[i].Total.GreaterThan(b.Totals[j].Total)
	})

	return b
}

// Percent is amount over total as a percentage; a zero total is 0%, never a
// division fault.
func Percent(amount, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return amount.InexactFloat64() / total.InexactFloat64() * 100
}

// Bar renders a percentage as a filled-then-empty glyph run of the given
// width. Deterministic for identical inputs.
func Bar(pct float64, width int) string {
	filled := int(pct / (100.0 / float64(width)))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Render builds the full text report: header, bill fields, per-category
// lines and the bar chart. An empty breakdown renders the no-data message.
func Render(title string, bill *BillInfo, b Breakdown, barWidth int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s ===\n\n", title)

	if bill != nil {
		if bill.BillDate != "" {
			fmt.Fprintf(&sb, "账单日期: %s\n", bill.BillDate)
		}
		if bill.DueDate != "" {
			fmt.Fprintf(&sb, "到期还款日: %s\n", bill.DueDate)
		}
		if bill.TotalAmount != nil {
			fmt.Fprintf(&sb, "应还总额: ¥%s\n", bill.TotalAmount.StringFixed(2))
		}
		if bill.MinPayment != nil {
			fmt.Fprintf(&sb, "最低还款额: ¥%s\n", bill.MinPayment.StringFixed(2))
		}
		sb.WriteString("\n")
	}

	if b.Empty() {
		sb.WriteString("暂无消费记录\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "总支出: ¥%s\n", b.TotalSpend.StringFixed(2))
	fmt.Fprintf(&sb, "总笔数: %d 笔\n\n", b.TotalCount)

	sb.WriteString("按类别支出明细:\n")
	for _, ct := range b.Totals {
		pct := Percent(ct.Total, b.TotalSpend)
		fmt.Fprintf(&sb, "- %s: ¥%s (%.1f%%) [%d笔]\n", ct.Category, ct.Total.StringFixed(2), pct, ct.Count)
	}

	sb.WriteString("\n各类别占比图:\n")
	pad := maxCategoryWidth(b.Totals)
	for _, ct := range b.Totals {
		pct := Percent(ct.Total, b.TotalSpend)
		fmt.Fprintf(&sb, "%s %s %5.1f%%\n", padRight(ct.Category, pad), Bar(pct, barWidth), pct)
	}

	return sb.String()
}

func maxCategoryWidth(totals []CategoryTotal) int {
	width := 0
	for _, ct := range totals {
		if n := utf8.RuneCountInString(ct.Category); n > width {
			width = n
		}
	}
	return width
}

func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
