package report

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/ryzhao/cmbill/extractor/common"
)

func sampleItems() []common.LineItem {
	return []common.LineItem{
		{TransactionDate: "12/16", Merchant: "财付通-肯德基", Amount: decimal.RequireFromString("18.50"), Category: "餐饮"},
		{TransactionDate: "12/19", Merchant: "京东商城", Amount: decimal.RequireFromString("329.00"), Category: "购物"},
		{TransactionDate: "12/21", Merchant: "星巴克咖啡", Amount: decimal.RequireFromString("20.00"), Category: "餐饮"},
	}
}

func TestAggregate_GroupsAndSorts(t *testing.T) {
	b := Aggregate(sampleItems())

	if b.TotalCount != 3 {
		t.Errorf("Expected 3 items, got %d", b.TotalCount)
	}
	if !b.TotalSpend.Equal(decimal.RequireFromString("367.50")) {
		t.Errorf("Expected total spend 367.50, got %s", b.TotalSpend.String())
	}

	if len(b.Totals) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(b.Totals))
	}
	if b.Totals[0].Category != "购物" {
		t.Errorf("Expected '购物' first (largest total), got '%s'", b.Totals[0].Category)
	}
	if !b.Totals[1].Total.Equal(decimal.RequireFromString("38.50")) {
		t.Errorf("Expected '餐饮' total 38.50, got %s", b.Totals[1].Total.String())
	}
	if b.Totals[1].Count != 2 {
		t.Errorf("Expected 2 '餐饮' items, got %d", b.Totals[1].Count)
	}
}

func TestAggregate_Empty(t *testing.T) {
	b := Aggregate(nil)
	if !b.Empty() {
		t.Error("Expected empty breakdown")
	}
	if !b.TotalSpend.IsZero() {
		t.Errorf("Expected zero total spend, got %s", b.TotalSpend.String())
	}
}

func TestPercent_SumsToHundred(t *testing.T) {
	b := Aggregate(sampleItems())

	sum := 0.0
	for _, ct := range b.Totals {
		sum += Percent(ct.Total, b.TotalSpend)
	}
	if math.Abs(sum-100.0) > 0.1 {
		t.Errorf("Expected percentages to sum to ~100, got %f", sum)
	}
}

func TestPercent_ZeroTotal(t *testing.T) {
	if pct := Percent(decimal.RequireFromString("10"), decimal.Zero); pct != 0 {
		t.Errorf("Expected 0%% for zero total, got %f", pct)
	}
}

func TestBar_Width(t *testing.T) {
	for _, pct := range []float64{0, 12.5, 50, 99.9, 100} {
		bar := Bar(pct, DefaultBarWidth)
		if n := utf8.RuneCountInString(bar); n != DefaultBarWidth {
			t.Errorf("Bar(%f) width = %d, expected %d", pct, n, DefaultBarWidth)
		}
	}
}

func TestBar_Extremes(t *testing.T) {
	if bar := Bar(0, 50); strings.Contains(bar, "█") {
		t.Errorf("Expected no filled glyphs at 0%%, got %q", bar)
	}
	if bar := Bar(100, 50); bar != strings.Repeat("█", 50) {
		t.Errorf("Expected fully filled bar at 100%%, got %q", bar)
	}
	// Out-of-range inputs clamp instead of panicking.
	if n := utf8.RuneCountInString(Bar(150, 50)); n != 50 {
		t.Errorf("Expected clamped width 50, got %d", n)
	}
	if n := utf8.RuneCountInString(Bar(-5, 50)); n != 50 {
		t.Errorf("Expected clamped width 50, got %d", n)
	}
}

func TestBar_Deterministic(t *testing.T) {
	first := Bar(37.5, DefaultBarWidth)
	for i := 0; i < 10; i++ {
		if got := Bar(37.5, DefaultBarWidth); got != first {
			t.Fatalf("Bar output changed between calls: %q then %q", first, got)
		}
	}
}

func TestRender_NoData(t *testing.T) {
	out := Render("二〇二六年一月消费报告", nil, Aggregate(nil), DefaultBarWidth)

	if !strings.Contains(out, "暂无消费记录") {
		t.Errorf("Expected no-data message, got %q", out)
	}
	if strings.Contains(out, "总支出") {
		t.Errorf("Expected no totals section, got %q", out)
	}
}

func TestRender_FullReport(t *testing.T) {
	total := decimal.RequireFromString("4145.01")
	minPay := decimal.RequireFromString("207.38")
	bill := &BillInfo{
		BillDate:    "2026-01-15",
		DueDate:     "2026-02-03",
		TotalAmount: &total,
		MinPayment:  &minPay,
	}

	out := Render("账单周期消费报告", bill, Aggregate(sampleItems()), DefaultBarWidth)

	for _, want := range []string{
		"=== 账单周期消费报告 ===",
		"账单日期: 2026-01-15",
		"到期还款日: 2026-02-03",
		"应还总额: ¥4145.01",
		"最低还款额: ¥207.38",
		"总支出: ¥367.50",
		"总笔数: 3 笔",
		"- 购物: ¥329.00",
		"[2笔]",
		"各类别占比图:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRender_PartialBillHeader(t *testing.T) {
	out := Render("月度报告", &BillInfo{DueDate: "2026-02-03"}, Aggregate(sampleItems()), DefaultBarWidth)

	if strings.Contains(out, "账单日期") {
		t.Errorf("Expected unset bill date omitted, got %q", out)
	}
	if !strings.Contains(out, "到期还款日: 2026-02-03") {
		t.Errorf("Expected due date line, got %q", out)
	}
}
