package common

import (
	"github.com/shopspring/decimal"
)

// BillFields holds the bill-level values extracted from one statement mail.
// Every field is optional: an empty date string or a nil amount means the
// pattern cascade found nothing, which is a valid outcome.
type BillFields struct {
	BillDate    string           `json:"bill_date,omitempty"`   // YYYY-MM-DD
	DueDate     string           `json:"due_date,omitempty"`    // YYYY-MM-DD
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	MinPayment  *decimal.Decimal `json:"min_payment,omitempty"`
}

// IsEmpty reports whether no bill-level field was extracted.
func (f BillFields) IsEmpty() bool {
	return f.BillDate == "" && f.DueDate == "" && f.TotalAmount == nil && f.MinPayment == nil
}

// LineItem is one transaction within a bill.
type LineItem struct {
	TransactionDate string          `json:"transaction_date"` // MM/DD, no year in source
	Merchant        string          `json:"merchant"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	Description     string          `json:"description"`
}

// Bill is the full extraction result for one document.
type Bill struct {
	Fields    BillFields `json:"fields"`
	LineItems []LineItem `json:"line_items"`
}

// IsEmpty reports whether extraction produced nothing at all.
func (b Bill) IsEmpty() bool {
	return b.Fields.IsEmpty() && len(b.LineItems) == 0
}
