package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ryzhao/cmbill/extractor/common"
	"github.com/ryzhao/cmbill/ingest"
)

// IsSourceProcessed reports whether a source id was already consumed.
func (db *DB) IsSourceProcessed(ctx context.Context, sourceID string) (bool, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT id FROM processed_sources WHERE source_id = ?`, sourceID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check processed source: %w", err)
	}
	return true, nil
}

// MarkSourceProcessed records a source id with no bill data attached. Used
// for documents that matched the mail heuristics but carried nothing to
// extract; a duplicate mark is a no-op.
func (db *DB) MarkSourceProcessed(ctx context.Context, prov ingest.Provenance) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO processed_sources (source_id, subject, sender, received_date)
		VALUES (?, ?, ?, ?)
	`, prov.SourceID, prov.Subject, prov.Sender, prov.ReceivedAt)
	if err != nil {
		return fmt.Errorf("mark source processed: %w", err)
	}
	return nil
}

// SaveBill writes the bill row, its line items and the processed-source
// marker in one transaction, marker last. On any failure the transaction is
// rolled back whole: no orphan marker, no partial line items.
func (db *DB) SaveBill(ctx context.Context, fields common.BillFields, items []common.LineItem, prov ingest.Provenance) (int64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO bills (bill_date, due_date, total_amount, min_payment)
		VALUES (?, ?, ?, ?)
	`, nullString(fields.BillDate), nullString(fields.DueDate),
		decimalText(fields.TotalAmount), decimalText(fields.MinPayment))
	if err != nil {
		return 0, fmt.Errorf("insert bill: %w", err)
	}
	billID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("bill id: %w", err)
	}

	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO line_items (bill_id, transaction_date, merchant, amount, category, description)
			VALUES (?, ?, ?, ?, ?, ?)
		`, billID, item.TransactionDate, item.Merchant, item.Amount.String(), item.Category, item.Description)
		if err != nil {
			return 0, fmt.Errorf("insert line item: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO processed_sources (source_id, subject, sender, received_date)
		VALUES (?, ?, ?, ?)
	`, prov.SourceID, prov.Subject, prov.Sender, prov.ReceivedAt)
	if err != nil {
		return 0, fmt.Errorf("mark source processed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return billID, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func decimalText(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
