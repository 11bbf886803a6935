package cmb

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestExtractFields_StructuredTriple(t *testing.T) {
	// Credit limit, total due, minimum payment in template order. The middle
	// and last amounts are authoritative, the credit limit is never a total.
	text := "¥60,000.00 ¥4,145.01 ¥207.38"

	fields := ExtractFields(text, DefaultOptions())

	if fields.TotalAmount == nil {
		t.Fatal("Expected total amount to be extracted")
	}
	if !fields.TotalAmount.Equal(decimal.RequireFromString("4145.01")) {
		t.Errorf("Expected total 4145.01, got %s", fields.TotalAmount.String())
	}
	if fields.MinPayment == nil {
		t.Fatal("Expected min payment to be extracted")
	}
	if !fields.MinPayment.Equal(decimal.RequireFromString("207.38")) {
		t.Errorf("Expected min payment 207.38, got %s", fields.MinPayment.String())
	}
}

func TestExtractFields_LabeledTotal(t *testing.T) {
	text := "您的信用额度为 ¥60,000.00。本期应还总额 ¥4,145.01。"

	fields := ExtractFields(text, DefaultOptions())

	if fields.TotalAmount == nil {
		t.Fatal("Expected total amount to be extracted")
	}
	if !fields.TotalAmount.Equal(decimal.RequireFromString("4145.01")) {
		t.Errorf("Expected total 4145.01, got %s", fields.TotalAmount.String())
	}
	if fields.MinPayment != nil {
		t.Errorf("Expected no min payment, got %s", fields.MinPayment.String())
	}
}

func TestExtractFields_UnlabeledTotalRangeCheck(t *testing.T) {
	// No labels at all: the credit-limit-sized figure falls outside the
	// plausible range and the smaller amount wins.
	text := "额度 ¥60,000.00 本月消费合计 ¥327.18"

	fields := ExtractFields(text, DefaultOptions())

	if fields.TotalAmount == nil {
		t.Fatal("Expected total amount to be extracted")
	}
	if !fields.TotalAmount.Equal(decimal.RequireFromString("327.18")) {
		t.Errorf("Expected total 327.18, got %s", fields.TotalAmount.String())
	}
}

func TestExtractFields_MinPaymentMustBeBelowTotal(t *testing.T) {
	// A minimum payment candidate at or above the total is implausible and
	// must be dropped, not reported.
	text := "应还总额：¥100.00 最低还款额：¥500.00"

	fields := ExtractFields(text, DefaultOptions())

	if fields.TotalAmount == nil {
		t.Fatal("Expected total amount to be extracted")
	}
	if !fields.TotalAmount.Equal(decimal.RequireFromString("100")) {
		t.Errorf("Expected total 100, got %s", fields.TotalAmount.String())
	}
	if fields.MinPayment != nil {
		t.Errorf("Expected no min payment, got %s", fields.MinPayment.String())
	}
}

func TestExtractFields_MinPaymentFromAdjacentAmount(t *testing.T) {
	// No minimum-payment label anywhere; the amount directly after the
	// resolved total occupies the template's minimum-payment slot.
	text := "本期应还总额 ¥4,145.01 ¥207.38 请按时还款"

	fields := ExtractFields(text, DefaultOptions())

	if fields.MinPayment == nil {
		t.Fatal("Expected min payment from adjacency")
	}
	if !fields.MinPayment.Equal(decimal.RequireFromString("207.38")) {
		t.Errorf("Expected min payment 207.38, got %s", fields.MinPayment.String())
	}
}

func TestExtractFields_BillDateFromCycleRange(t *testing.T) {
	text := "账单周期：2025/12/16-2026/01/15"

	fields := ExtractFields(text, DefaultOptions())

	if fields.BillDate != "2026-01-15" {
		t.Errorf("Expected bill date '2026-01-15', got '%s'", fields.BillDate)
	}
}

func TestExtractFields_DueDateSlashAfterLabel(t *testing.T) {
	fields := ExtractFields("到期还款日：2026/01/15", DefaultOptions())
	if fields.DueDate != "2026-01-15" {
		t.Errorf("Expected due date '2026-01-15', got '%s'", fields.DueDate)
	}
}

func TestExtractFields_DueDateSlashBeforeLabel(t *testing.T) {
	fields := ExtractFields("2026/02/03 为您的到期还款日", DefaultOptions())
	if fields.DueDate != "2026-02-03" {
		t.Errorf("Expected due date '2026-02-03', got '%s'", fields.DueDate)
	}
}

func TestExtractFields_DueDateAlreadyDashed(t *testing.T) {
	fields := ExtractFields("到期还款日: 2026-01-15", DefaultOptions())
	if fields.DueDate != "2026-01-15" {
		t.Errorf("Expected due date '2026-01-15', got '%s'", fields.DueDate)
	}
}

func TestExtractFields_DueDateCJKAfterLabel(t *testing.T) {
	// Single-digit month and day must come out zero-padded.
	fields := ExtractFields("到期还款日为2026年1月5日", DefaultOptions())
	if fields.DueDate != "2026-01-05" {
		t.Errorf("Expected due date '2026-01-05', got '%s'", fields.DueDate)
	}
}

func TestExtractFields_DueDateCJKBeforeLabel(t *testing.T) {
	fields := ExtractFields("2026年1月15日是您的到期还款日", DefaultOptions())
	if fields.DueDate != "2026-01-15" {
		t.Errorf("Expected due date '2026-01-15', got '%s'", fields.DueDate)
	}
}

func TestExtractFields_NothingRecognized(t *testing.T) {
	fields := ExtractFields("您好，欢迎使用网上银行。", DefaultOptions())
	if !fields.IsEmpty() {
		t.Errorf("Expected empty fields, got %+v", fields)
	}
}

func TestExtractFields_FullStatement(t *testing.T) {
	text := "账单周期：2025/12/16-2026/01/15\n" +
		"到期还款日：2026/02/03\n" +
		"¥60,000.00 ¥4,145.01 ¥207.38\n"

	fields := ExtractFields(text, DefaultOptions())

	if fields.BillDate != "2026-01-15" {
		t.Errorf("Expected bill date '2026-01-15', got '%s'", fields.BillDate)
	}
	if fields.DueDate != "2026-02-03" {
		t.Errorf("Expected due date '2026-02-03', got '%s'", fields.DueDate)
	}
	if fields.TotalAmount == nil || !fields.TotalAmount.Equal(decimal.RequireFromString("4145.01")) {
		t.Errorf("Expected total 4145.01, got %v", fields.TotalAmount)
	}
	if fields.MinPayment == nil || !fields.MinPayment.Equal(decimal.RequireFromString("207.38")) {
		t.Errorf("Expected min payment 207.38, got %v", fields.MinPayment)
	}
}
