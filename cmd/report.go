package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ryzhao/cmbill/integrations/sqlite"
	"github.com/ryzhao/cmbill/report"
)

var (
	reportYear   int
	reportMonth  int
	reportBillID int64
	reportDBPath string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the category spending report",
	Long: `Prints the spending report for a calendar month, or for one specific
bill when --bill is given. A month with no recorded transactions prints a
no-data message.`,
	Run: func(cmd *cobra.Command, args []string) {
		dbPath := reportDBPath
		if dbPath == "" {
			dbPath = viper.GetString("db")
		}

		ctx := context.Background()
		db, err := sqlite.Open(ctx, dbPath)
		if err != nil {
			logger.Fatal("database open failed", "path", dbPath, "error", err)
		}
		defer db.Close()

		if err := db.EnsureSchema(ctx); err != nil {
			logger.Fatal("schema creation failed", "error", err)
		}

		barWidth := viper.GetInt("report.bar_width")
		if barWidth <= 0 {
			barWidth = report.DefaultBarWidth
		}

		if reportBillID > 0 {
			printBillReport(ctx, db, reportBillID, barWidth)
			return
		}

		year, month := reportYear, reportMonth
		if year == 0 || month == 0 {
			now := time.Now()
			year, month = now.Year(), int(now.Month())
		}
		printMonthlyReport(ctx, db, year, month, barWidth)
	},
}

func printMonthlyReport(ctx context.Context, db *sqlite.DB, year, month, barWidth int) {
	items, err := db.LineItemsForMonth(ctx, year, month)
	if err != nil {
		logger.Fatal("query failed", "error", err)
	}
	summary, err := db.BillSummaryForMonth(ctx, year, month)
	if err != nil {
		logger.Fatal("query failed", "error", err)
	}

	title := fmt.Sprintf("招商银行信用卡消费报告 (%d年%d月)", year, month)
	fmt.Print(report.Render(title, billInfo(summary), report.Aggregate(items), barWidth))
}

func printBillReport(ctx context.Context, db *sqlite.DB, billID int64, barWidth int) {
	summary, err := db.BillSummaryByID(ctx, billID)
	if err != nil {
		logger.Fatal("query failed", "error", err)
	}
	if summary == nil {
		logger.Fatal("no such bill", "bill_id", billID)
	}
	items, err := db.LineItemsForBill(ctx, billID)
	if err != nil {
		logger.Fatal("query failed", "error", err)
	}

	title := "招商银行信用卡账单周期消费报告"
	fmt.Print(report.Render(title, billInfo(summary), report.Aggregate(items), barWidth))
}

func billInfo(s *sqlite.BillSummary) *report.BillInfo {
	if s == nil {
		return nil
	}
	return &report.BillInfo{
		BillDate:    s.BillDate,
		DueDate:     s.DueDate,
		TotalAmount: s.TotalAmount,
		MinPayment:  s.MinPayment,
	}
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().IntVarP(&reportYear, "year", "y", 0, "Report year (default: current)")
	reportCmd.Flags().IntVarP(&reportMonth, "month", "m", 0, "Report month (default: current)")
	reportCmd.Flags().Int64Var(&reportBillID, "bill", 0, "Report on one bill id instead of a month")
	reportCmd.Flags().StringVar(&reportDBPath, "db", "", "SQLite database path (default from config)")
}
