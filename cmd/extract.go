package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ryzhao/cmbill/classify"
	"github.com/ryzhao/cmbill/extractor/cmb"
	"github.com/ryzhao/cmbill/extractor/common"
	"github.com/ryzhao/cmbill/mail"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extracts bill data from statement mail(s)",
	Long: `Extracts bill fields and transactions from a .eml file or every .eml
file in a directory, and prints the result as JSON. Nothing is persisted;
use ingest for that.`,
	Run: runExtract,
}

type extractOutput struct {
	Source    string            `json:"source"`
	Subject   string            `json:"subject,omitempty"`
	Fields    common.BillFields `json:"fields"`
	LineItems []common.LineItem `json:"line_items"`
}

func runExtract(cmd *cobra.Command, args []string) {
	target := viper.GetString("target")
	opts := extractOptions()
	classifier := categoryClassifier()

	info, err := os.Stat(target)
	if err != nil {
		logger.Fatal("cannot read target", "path", target, "error", err)
	}

	if info.IsDir() {
		logger.Info("scanning", "dir", target)

		results := []extractOutput{}
		entries, err := os.ReadDir(target)
		if err != nil {
			logger.Fatal("cannot read directory", "error", err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".eml") {
				continue
			}
			if out, ok := extractFile(filepath.Join(target, e.Name()), opts, classifier); ok {
				results = append(results, out)
			}
		}

		asJSON, _ := json.Marshal(results)
		fmt.Println(string(asJSON))
		return
	}

	out, ok := extractFile(target, opts, classifier)
	if !ok {
		fmt.Println("{}")
		return
	}
	asJSON, _ := json.Marshal(out)
	fmt.Println(string(asJSON))
}

func extractFile(path string, opts cmb.Options, classifier *classify.Classifier) (extractOutput, bool) {
	msg, err := mail.ReadFile(path)
	if err != nil {
		logger.Warn("unreadable message", "file", filepath.Base(path), "error", err)
		return extractOutput{}, false
	}

	body, ok := mail.Body(msg)
	if !ok {
		logger.Warn("undecodable body", "file", filepath.Base(path))
		return extractOutput{}, false
	}

	bill := cmb.Extract(body, opts, classifier)
	if bill.IsEmpty() {
		return extractOutput{}, false
	}

	return extractOutput{
		Source:    msg.UID,
		Subject:   msg.Subject,
		Fields:    bill.Fields,
		LineItems: bill.LineItems,
	}, true
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringP("folder", "f", ".", "File or folder in which cmbill will scan for .eml files")
	viper.BindPFlag("target", extractCmd.Flags().Lookup("folder"))
}
