package services

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence"
	"github.com/iota-uz/workbook-import/pkg/coerce"
	"github.com/iota-uz/workbook-import/pkg/composables"
)

// findOne returns the first T matching where, or nil. Map conditions turn
// nil values into IS NULL.
func findOne[T any](ctx context.Context, where map[string]any) (*T, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var out T
	err = tx.Where(where).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func insert(ctx context.Context, v any) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	return tx.Create(v).Error
}

// changeSet assigns incoming values onto a loaded record and remembers which
// fields actually moved.
type changeSet map[string][2]string

func (c changeSet) str(field string, dst *string, v string) {
	if *dst != v {
		c[field] = [2]string{*dst, v}
		*dst = v
	}
}

func (c changeSet) dec(field string, dst *decimal.Decimal, v decimal.Decimal) {
	if !dst.Equal(v) {
		c[field] = [2]string{dst.String(), v.String()}
		*dst = v
	}
}

func (c changeSet) nullDec(field string, dst *decimal.NullDecimal, v decimal.NullDecimal) {
	if dst.Valid == v.Valid && (!v.Valid || dst.Decimal.Equal(v.Decimal)) {
		return
	}
	c[field] = [2]string{nullDecString(*dst), nullDecString(v)}
	*dst = v
}

func (c changeSet) date(field string, dst **time.Time, v *time.Time) {
	old := *dst
	if (old == nil && v == nil) || (old != nil && v != nil && old.Equal(*v)) {
		return
	}
	c[field] = [2]string{datePtrString(old), datePtrString(v)}
	*dst = v
}

func (c changeSet) integer(field string, dst *int, v int) {
	if *dst != v {
		c[field] = [2]string{coerce.String(*dst), coerce.String(v)}
		*dst = v
	}
}

func (c changeSet) intPtr(field string, dst **int, v *int) {
	old := *dst
	if (old == nil && v == nil) || (old != nil && v != nil && *old == *v) {
		return
	}
	c[field] = [2]string{intPtrString(old), intPtrString(v)}
	*dst = v
}

func (c changeSet) uintPtr(field string, dst **uint, v *uint) {
	old := *dst
	if (old == nil && v == nil) || (old != nil && v != nil && *old == *v) {
		return
	}
	var o, n int
	if old != nil {
		o = int(*old)
	}
	if v != nil {
		n = int(*v)
	}
	c[field] = [2]string{coerce.String(o), coerce.String(n)}
	*dst = v
}

func (c changeSet) boolean(field string, dst *bool, v bool) {
	if *dst != v {
		c[field] = [2]string{coerce.String(*dst), coerce.String(v)}
		*dst = v
	}
}

func nullDecString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func datePtrString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func intPtrString(v *int) string {
	if v == nil {
		return ""
	}
	return coerce.String(*v)
}

// persistChanges saves record and audits cs. It reports false, writing
// nothing, when cs is empty.
func persistChanges(ctx context.Context, audit *persistence.AuditLogRepository, table string, id uint, record any, cs changeSet) (bool, error) {
	if len(cs) == 0 {
		return false, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}
	if err := tx.Save(record).Error; err != nil {
		return false, errors.Wrapf(err, "update %s %d", table, id)
	}
	if audit != nil {
		if err := audit.RecordUpdate(ctx, table, id, cs); err != nil {
			return false, errors.Wrap(err, "audit")
		}
	}
	return true, nil
}

// saveChanges persists record and counts the row as updated, or as skipped
// when nothing changed.
func (e *tabEnv) saveChanges(ctx context.Context, table string, id uint, record any, cs changeSet) error {
	changed, err := persistChanges(ctx, e.audit, table, id, record, cs)
	if err != nil {
		return err
	}
	if changed {
		e.updated()
	} else {
		e.skipped()
	}
	return nil
}

func nullDecimal(d decimal.Decimal, valid bool) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: valid}
}

func intPtrOrNil(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
