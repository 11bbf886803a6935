// Package ingest coordinates the per-document pipeline: idempotency check,
// body normalization, extraction, classification and atomic persistence.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ryzhao/cmbill/classify"
	"github.com/ryzhao/cmbill/extractor/cmb"
	"github.com/ryzhao/cmbill/extractor/common"
	"github.com/ryzhao/cmbill/mail"
)

// Provenance is the write-once metadata recorded with a processed source.
type Provenance struct {
	SourceID   string
	Subject    string
	Sender     string
	ReceivedAt string
}

// Store is the persistence collaborator. SaveBill must write the bill row,
// its line items and the processed-source marker as one atomic unit, marker
// last, so a failed save leaves the document retryable. MarkSourceProcessed
// alone serves documents that yielded no bill data at all.
type Store interface {
	IsSourceProcessed(ctx context.Context, sourceID string) (bool, error)
	MarkSourceProcessed(ctx context.Context, prov Provenance) error
	SaveBill(ctx context.Context, fields common.BillFields, items []common.LineItem, prov Provenance) (int64, error)
}

// Outcome is the terminal state of one document.
type Outcome int

const (
	// OutcomeSkipped means the source id was already recorded; nothing ran.
	OutcomeSkipped Outcome = iota
	// OutcomeNoBill means extraction found nothing; the source is marked
	// processed so loosely matched non-bill mail is never reprocessed.
	OutcomeNoBill
	// OutcomeIngested means a bill row and its line items were persisted.
	OutcomeIngested
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeNoBill:
		return "no-bill"
	case OutcomeIngested:
		return "ingested"
	}
	return "unknown"
}

// Result reports what happened to one document.
type Result struct {
	Outcome   Outcome
	BillID    int64
	LineItems int
}

// Summary accumulates per-document outcomes over a batch. One bad document
// never aborts the batch; it lands in Failed/Errors instead.
type Summary struct {
	Ingested int
	NoBill   int
	Skipped  int
	Failed   int
	Errors   []string
}

// Coordinator runs the ingestion pipeline against a store. It assumes
// single-writer access; racing ingestions of one source id are resolved by
// the store's unique source_id constraint.
type Coordinator struct {
	store      Store
	classifier *classify.Classifier
	opts       cmb.Options
	matcher    mail.Matcher
	logger     *log.Logger
}

func New(store Store, classifier *classify.Classifier, opts cmb.Options, matcher mail.Matcher, logger *log.Logger) *Coordinator {
	return &Coordinator{
		store:      store,
		classifier: classifier,
		opts:       opts,
		matcher:    matcher,
		logger:     logger,
	}
}

// Ingest processes one decoded message. The message UID is the sole
// idempotency key. The returned error is reserved for store failures;
// "extraction found nothing" is the OutcomeNoBill result, not an error.
func (c *Coordinator) Ingest(ctx context.Context, msg *mail.Message) (Result, error) {
	if msg.UID == "" {
		return Result{}, fmt.Errorf("message has no source id")
	}

	processed, err := c.store.IsSourceProcessed(ctx, msg.UID)
	if err != nil {
		return Result{}, fmt.Errorf("check source %s: %w", msg.UID, err)
	}
	if processed {
		c.logger.Debug("already processed", "uid", msg.UID, "subject", msg.Subject)
		return Result{Outcome: OutcomeSkipped}, nil
	}

	prov := Provenance{
		SourceID:   msg.UID,
		Subject:    msg.Subject,
		Sender:     msg.Sender,
		ReceivedAt: msg.Date,
	}

	body, ok := mail.Body(msg)
	if !ok {
		c.logger.Warn("undecodable body", "uid", msg.UID, "subject", msg.Subject)
		return c.markOnly(ctx, prov)
	}

	bill := cmb.Extract(body, c.opts, c.classifier)
	if bill.IsEmpty() {
		c.logger.Info("no bill data found", "uid", msg.UID, "subject", msg.Subject)
		return c.markOnly(ctx, prov)
	}

	id, err := c.store.SaveBill(ctx, bill.Fields, bill.LineItems, prov)
	if err != nil {
		return Result{}, fmt.Errorf("save bill for %s: %w", msg.UID, err)
	}

	c.logger.Info("bill ingested",
		"uid", msg.UID,
		"bill_id", id,
		"line_items", len(bill.LineItems),
		"bill_date", bill.Fields.BillDate,
	)

	return Result{Outcome: OutcomeIngested, BillID: id, LineItems: len(bill.LineItems)}, nil
}

func (c *Coordinator) markOnly(ctx context.Context, prov Provenance) (Result, error) {
	if err := c.store.MarkSourceProcessed(ctx, prov); err != nil {
		return Result{}, fmt.Errorf("mark source %s: %w", prov.SourceID, err)
	}
	return Result{Outcome: OutcomeNoBill}, nil
}

// IngestPath ingests a single .eml file or every .eml file in a directory.
func (c *Coordinator) IngestPath(ctx context.Context, path string) (*Summary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}
	if info.IsDir() {
		return c.ingestDirectory(ctx, path)
	}

	summary := &Summary{}
	c.ingestFile(ctx, path, summary)
	return summary, nil
}

func (c *Coordinator) ingestDirectory(ctx context.Context, dir string) (*Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	summary := &Summary{}
	c.logger.Info("scanning", "dir", dir)

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".eml") {
			continue
		}
		c.ingestFile(ctx, filepath.Join(dir, e.Name()), summary)
	}

	return summary, nil
}

func (c *Coordinator) ingestFile(ctx context.Context, path string, summary *Summary) {
	name := filepath.Base(path)

	msg, err := mail.ReadFile(path)
	if err != nil {
		summary.Failed++
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", name, err))
		return
	}

	if !c.matcher.Match(msg) {
		c.logger.Debug("not a statement mail", "file", name, "subject", msg.Subject)
		return
	}

	result, err := c.Ingest(ctx, msg)
	if err != nil {
		summary.Failed++
		summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", name, err))
		return
	}

	switch result.Outcome {
	case OutcomeIngested:
		summary.Ingested++
	case OutcomeNoBill:
		summary.NoBill++
	case OutcomeSkipped:
		summary.Skipped++
	}
}
