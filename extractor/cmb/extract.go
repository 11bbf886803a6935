package cmb

import (
	"github.com/ryzhao/cmbill/classify"
	"github.com/ryzhao/cmbill/extractor/common"
)

// Extract runs the field and transaction passes over the same normalized body
// text and tags every line item with its category. An empty Bill is a valid
// result and means the document carried no recognizable bill data.
func Extract(text string, opts Options, classifier *classify.Classifier) common.Bill {
	bill := common.Bill{
		Fields:    ExtractFields(text, opts),
		LineItems: ExtractLineItems(text, opts),
	}

	for i := range bill.LineItems {
		bill.LineItems[i].Category = classifier.Classify(bill.LineItems[i].Merchant)
	}

	return bill
}
