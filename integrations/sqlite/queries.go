package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ryzhao/cmbill/extractor/common"
)

// BillSummary is the header block of a report: the bill-level fields of one
// persisted bill.
type BillSummary struct {
	ID          int64
	BillDate    string
	DueDate     string
	TotalAmount *decimal.Decimal
	MinPayment  *decimal.Decimal
}

// LineItemsForMonth returns every line item whose parent bill falls in the
// given calendar month, in insertion order.
func (db *DB) LineItemsForMonth(ctx context.Context, year, month int) ([]common.LineItem, error) {
	period := fmt.Sprintf("%04d-%02d", year, month)
	rows, err := db.conn.QueryContext(ctx, `
		SELECT li.transaction_date, li.merchant, li.amount, li.category, COALESCE(li.description, '')
		FROM line_items li
		JOIN bills b ON li.bill_id = b.id
		WHERE substr(b.bill_date, 1, 7) = ?
		ORDER BY li.id
	`, period)
	if err != nil {
		return nil, fmt.Errorf("query line items: %w", err)
	}
	defer rows.Close()

	return scanLineItems(rows)
}

// LineItemsForBill returns the line items of one bill, in insertion order.
func (db *DB) LineItemsForBill(ctx context.Context, billID int64) ([]common.LineItem, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT transaction_date, merchant, amount, category, COALESCE(description, '')
		FROM line_items
		WHERE bill_id = ?
		ORDER BY id
	`, billID)
	if err != nil {
		return nil, fmt.Errorf("query line items: %w", err)
	}
	defer rows.Close()

	return scanLineItems(rows)
}

func scanLineItems(rows *sql.Rows) ([]common.LineItem, error) {
	var items []common.LineItem
	for rows.Next() {
		var item common.LineItem
		var amount string
		if err := rows.Scan(&item.TransactionDate, &item.Merchant, &amount, &item.Category, &item.Description); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse stored amount %q: %w", amount, err)
		}
		item.Amount = d
		items = append(items, item)
	}
	return items, rows.Err()
}

// BillSummaryByID fetches one bill's fields.
func (db *DB) BillSummaryByID(ctx context.Context, billID int64) (*BillSummary, error) {
	return db.billSummary(ctx, `
		SELECT id, COALESCE(bill_date, ''), COALESCE(due_date, ''), total_amount, min_payment
		FROM bills WHERE id = ?
	`, billID)
}

// BillSummaryForMonth fetches the most recent bill of a calendar month, or
// nil when the month has none.
func (db *DB) BillSummaryForMonth(ctx context.Context, year, month int) (*BillSummary, error) {
	period := fmt.Sprintf("%04d-%02d", year, month)
	return db.billSummary(ctx, `
		SELECT id, COALESCE(bill_date, ''), COALESCE(due_date, ''), total_amount, min_payment
		FROM bills
		WHERE substr(bill_date, 1, 7) = ?
		ORDER BY bill_date DESC, id DESC
		LIMIT 1
	`, period)
}

func (db *DB) billSummary(ctx context.Context, query string, arg any) (*BillSummary, error) {
	var s BillSummary
	var total, minPay sql.NullString
	err := db.conn.QueryRowContext(ctx, query, arg).Scan(&s.ID, &s.BillDate, &s.DueDate, &total, &minPay)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query bill: %w", err)
	}

	if s.TotalAmount, err = nullDecimal(total); err != nil {
		return nil, err
	}
	if s.MinPayment, err = nullDecimal(minPay); err != nil {
		return nil, err
	}
	return &s, nil
}

func nullDecimal(v sql.NullString) (*decimal.Decimal, error) {
	if !v.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil, fmt.Errorf("parse stored amount %q: %w", v.String, err)
	}
	return &d, nil
}
