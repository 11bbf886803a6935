package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryzhao/cmbill/extractor/common"
	"github.com/ryzhao/cmbill/ingest"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.EnsureSchema(ctx))
	return db
}

func sampleBill() (common.BillFields, []common.LineItem, ingest.Provenance) {
	total := decimal.RequireFromString("4145.01")
	minPay := decimal.RequireFromString("207.38")

	fields := common.BillFields{
		BillDate:    "2026-01-15",
		DueDate:     "2026-02-03",
		TotalAmount: &total,
		MinPayment:  &minPay,
	}
	items := []common.LineItem{
		{TransactionDate: "12/16", Merchant: "财付通-肯德基", Amount: decimal.RequireFromString("18.50"), Category: "餐饮", Description: "财付通-肯德基 - ¥18.50"},
		{TransactionDate: "12/19", Merchant: "京东商城", Amount: decimal.RequireFromString("329.00"), Category: "购物", Description: "京东商城 - ¥329.00"},
	}
	prov := ingest.Provenance{
		SourceID:   "uid-1",
		Subject:    "招商银行信用卡账单",
		Sender:     "creditcard@message.cmbchina.com",
		ReceivedAt: "Thu, 15 Jan 2026 08:00:00 +0800",
	}
	return fields, items, prov
}

func TestSaveBill_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	fields, items, prov := sampleBill()
	billID, err := db.SaveBill(ctx, fields, items, prov)
	require.NoError(t, err)
	require.Greater(t, billID, int64(0))

	processed, err := db.IsSourceProcessed(ctx, "uid-1")
	require.NoError(t, err)
	assert.True(t, processed)

	summary, err := db.BillSummaryByID(ctx, billID)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, "2026-01-15", summary.BillDate)
	assert.Equal(t, "2026-02-03", summary.DueDate)
	require.NotNil(t, summary.TotalAmount)
	assert.True(t, summary.TotalAmount.Equal(decimal.RequireFromString("4145.01")))
	require.NotNil(t, summary.MinPayment)
	assert.True(t, summary.MinPayment.Equal(decimal.RequireFromString("207.38")))

	stored, err := db.LineItemsForBill(ctx, billID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "财付通-肯德基", stored[0].Merchant)
	assert.True(t, stored[0].Amount.Equal(decimal.RequireFromString("18.50")))
	assert.Equal(t, "餐饮", stored[0].Category)
	assert.Equal(t, "京东商城", stored[1].Merchant)
}

func TestSaveBill_PartialFields(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	fields := common.BillFields{DueDate: "2026-02-03"}
	billID, err := db.SaveBill(ctx, fields, nil, ingest.Provenance{SourceID: "uid-partial"})
	require.NoError(t, err)

	summary, err := db.BillSummaryByID(ctx, billID)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Empty(t, summary.BillDate)
	assert.Equal(t, "2026-02-03", summary.DueDate)
	assert.Nil(t, summary.TotalAmount)
	assert.Nil(t, summary.MinPayment)
}

func TestSaveBill_DuplicateSourceRejected(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	fields, items, prov := sampleBill()
	firstID, err := db.SaveBill(ctx, fields, items, prov)
	require.NoError(t, err)

	// The unique source_id constraint rolls back the whole second save.
	_, err = db.SaveBill(ctx, fields, items, prov)
	require.Error(t, err)

	stored, err := db.LineItemsForBill(ctx, firstID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	rows, err := db.LineItemsForMonth(ctx, 2026, 1)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "failed save must not leave partial line items behind")
}

func TestMarkSourceProcessed_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	prov := ingest.Provenance{SourceID: "uid-empty", Subject: "活动通知"}
	require.NoError(t, db.MarkSourceProcessed(ctx, prov))
	require.NoError(t, db.MarkSourceProcessed(ctx, prov))

	processed, err := db.IsSourceProcessed(ctx, "uid-empty")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestIsSourceProcessed_Unknown(t *testing.T) {
	db := openTestDB(t)

	processed, err := db.IsSourceProcessed(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestLineItemsForMonth_FiltersByBillMonth(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	fields, items, prov := sampleBill()
	_, err := db.SaveBill(ctx, fields, items, prov)
	require.NoError(t, err)

	other := common.BillFields{BillDate: "2026-02-15"}
	otherItems := []common.LineItem{
		{TransactionDate: "01/20", Merchant: "滴滴出行", Amount: decimal.RequireFromString("23.00"), Category: "出行"},
	}
	_, err = db.SaveBill(ctx, other, otherItems, ingest.Provenance{SourceID: "uid-2"})
	require.NoError(t, err)

	january, err := db.LineItemsForMonth(ctx, 2026, 1)
	require.NoError(t, err)
	assert.Len(t, january, 2)

	february, err := db.LineItemsForMonth(ctx, 2026, 2)
	require.NoError(t, err)
	require.Len(t, february, 1)
	assert.Equal(t, "滴滴出行", february[0].Merchant)

	march, err := db.LineItemsForMonth(ctx, 2026, 3)
	require.NoError(t, err)
	assert.Empty(t, march)
}

func TestBillSummaryForMonth(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	fields, items, prov := sampleBill()
	_, err := db.SaveBill(ctx, fields, items, prov)
	require.NoError(t, err)

	later := common.BillFields{BillDate: "2026-01-20"}
	laterID, err := db.SaveBill(ctx, later, nil, ingest.Provenance{SourceID: "uid-3"})
	require.NoError(t, err)

	summary, err := db.BillSummaryForMonth(ctx, 2026, 1)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, laterID, summary.ID, "most recent bill of the month wins")

	missing, err := db.BillSummaryForMonth(ctx, 2025, 6)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
