package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
	"github.com/iota-uz/workbook-import/pkg/coerce"
	"github.com/iota-uz/workbook-import/pkg/composables"
)

var txnLogSchema = newTabSchema(1, 2,
	"date", "source", "-", "-", "vendor", "description", "amount", "-",
	"project", "qbo_category", "acct_code", "-", "-", "-", "po_number",
)

var lowesProSchema = newTabSchema(2, 3,
	"date", "store", "po_number", "project", "-", "purchaser", "invoice",
	"cc_last4", "tax", "total", "mf",
)

const (
	lowesVendorName = "Lowe's Pro"
	lowesSourceRef  = "Lowe's Pro Export"
	defaultFlush    = 500
)

// ledgerBuffer batches cost events and drops the ones whose fingerprint is
// already stored, so a re-imported ledger converges instead of duplicating.
// Identical rows within one sheet are told apart by their occurrence index.
type ledgerBuffer struct {
	env     *tabEnv
	sheet   Sheet
	seen    map[string]int
	pending []models.CostEvent
}

func newLedgerBuffer(env *tabEnv, sheet Sheet) *ledgerBuffer {
	return &ledgerBuffer{env: env, sheet: sheet, seen: make(map[string]int)}
}

func (b *ledgerBuffer) add(ctx context.Context, ev models.CostEvent) error {
	key := strings.Join([]string{
		string(b.sheet),
		datePtrString(ev.Date),
		ev.Amount.StringFixed(2),
		coerce.String(derefUint(ev.VendorID)),
		coerce.String(derefUint(ev.ProjectID)),
		ev.Description,
		ev.ReferenceNumber,
	}, "\x1f")
	b.seen[key]++
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x1f%d", key, b.seen[key])))
	ev.Fingerprint = hex.EncodeToString(sum[:])

	b.pending = append(b.pending, ev)
	limit := b.env.flushEvery
	if limit <= 0 {
		limit = defaultFlush
	}
	if len(b.pending) >= limit {
		return b.flush(ctx)
	}
	return nil
}

func (b *ledgerBuffer) flush(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	prints := make([]string, len(b.pending))
	for i, ev := range b.pending {
		prints[i] = ev.Fingerprint
	}
	var existing []string
	if err := tx.Model(&models.CostEvent{}).Where("fingerprint IN ?", prints).Pluck("fingerprint", &existing).Error; err != nil {
		return errors.Wrap(err, "load fingerprints")
	}
	known := make(map[string]struct{}, len(existing))
	for _, fp := range existing {
		known[fp] = struct{}{}
	}
	fresh := b.pending[:0:0]
	for _, ev := range b.pending {
		if _, dup := known[ev.Fingerprint]; dup {
			b.env.skipped()
			continue
		}
		fresh = append(fresh, ev)
	}
	if len(fresh) > 0 {
		if err := tx.CreateInBatches(fresh, 100).Error; err != nil {
			return errors.Wrap(err, "insert cost events")
		}
	}
	b.env.result.Created += len(fresh)
	b.env.logger.WithField("sheet", string(b.sheet)).Debugf("flushed %d cost events (%d already present)", len(fresh), len(b.pending)-len(fresh))
	b.pending = b.pending[:0]
	return nil
}

func derefUint(p *uint) int {
	if p == nil {
		return 0
	}
	return int(*p)
}

type txnLogTab struct{ *tabEnv }

func (t *txnLogTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := txnLogSchema
	buf := newLedgerBuffer(t.tabEnv, SheetTxnLog)
	for _, row := range s.data(rows) {
		date := s.date(row, "date")
		amount := coerce.Currency(s.cell(row, "amount"))
		if date == nil && amount.IsZero() {
			t.skipped()
			continue
		}
		projectName := s.text(row, "project")
		projectID, err := t.resolver.Project(ctx, projectName, projectName)
		if err != nil {
			return err
		}
		vendorID, err := t.resolver.Vendor(ctx, s.text(row, "vendor"))
		if err != nil {
			return err
		}
		sourceRef := s.text(row, "source")
		ev := models.CostEvent{
			ProjectID:       idPtr(projectID),
			VendorID:        idPtr(vendorID),
			Date:            date,
			Amount:          amount,
			Description:     s.textN(row, "description", 500),
			ReferenceNumber: s.text(row, "acct_code"),
			PONumber:        s.text(row, "po_number"),
			Source:          costEventSources.Classify(sourceRef),
			SourceRef:       sourceRef,
			ImportBatch:     t.batchID,
			Notes:           s.text(row, "qbo_category"),
		}
		if err := buf.add(ctx, ev); err != nil {
			return err
		}
	}
	return buf.flush(ctx)
}

type lowesProTab struct{ *tabEnv }

func (t *lowesProTab) Parse(ctx context.Context, rows []coerce.Row) error {
	s := lowesProSchema
	data := s.data(rows)
	if data == nil {
		return nil
	}
	vendorID, err := t.resolver.Vendor(ctx, lowesVendorName)
	if err != nil {
		return err
	}
	buf := newLedgerBuffer(t.tabEnv, SheetLowesPro)
	for _, row := range data {
		date := s.date(row, "date")
		total := coerce.Currency(s.cell(row, "total"))
		if date == nil || total.IsZero() {
			t.skipped()
			continue
		}
		code := s.text(row, "project")
		projectID, err := t.resolver.Project(ctx, code, code)
		if err != nil {
			return err
		}
		po := s.text(row, "po_number")
		tax := s.raw(row, "tax")
		if tax == "" {
			tax = "0"
		}
		mf := s.raw(row, "mf")
		if mf == "" {
			mf = "N"
		}
		ev := models.CostEvent{
			ProjectID:       idPtr(projectID),
			VendorID:        idPtr(vendorID),
			Date:            date,
			Amount:          total.Abs().Neg(),
			EventType:       models.CostEventTypeMaterialPurchase,
			Description:     coerce.Text(fmt.Sprintf("Lowe's %s - PO: %s", s.raw(row, "store"), po), 500),
			ReferenceNumber: s.text(row, "invoice"),
			PONumber:        po,
			Source:          models.CostEventSourceLowes,
			SourceRef:       lowesSourceRef,
			ImportBatch:     t.batchID,
			Notes: fmt.Sprintf("Purchaser: %s | CC: %s | Tax: %s | MF: %s",
				s.raw(row, "purchaser"), s.raw(row, "cc_last4"), tax, mf),
		}
		if err := buf.add(ctx, ev); err != nil {
			return err
		}
	}
	return buf.flush(ctx)
}
