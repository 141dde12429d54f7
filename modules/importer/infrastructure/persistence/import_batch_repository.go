package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
	"github.com/iota-uz/workbook-import/pkg/composables"
)

const defaultRecentLimit = 20

const recentBatchesSQL = `
	SELECT
		id,
		batch_id,
		source,
		COALESCE(source_type, ''),
		record_count,
		created,
		updated,
		skipped,
		error_count,
		status,
		started_at,
		finished_at,
		created_at
	FROM import_batches
	ORDER BY id DESC
	LIMIT $1
`

type ImportBatchRepository struct{}

func NewImportBatchRepository() *ImportBatchRepository {
	return &ImportBatchRepository{}
}

func (r *ImportBatchRepository) Create(ctx context.Context, batch *models.ImportBatch) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if err := tx.Create(batch).Error; err != nil {
		return errors.Wrapf(err, "insert import batch %s/%s", batch.BatchID, batch.Source)
	}
	return nil
}

func (r *ImportBatchRepository) ListByBatch(ctx context.Context, batchID string) ([]models.ImportBatch, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.ImportBatch
	if err := tx.Where("batch_id = ?", batchID).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Recent lists the newest batches first. Outside a transaction it reads
// straight from the postgres pool when ctx carries one.
func (r *ImportBatchRepository) Recent(ctx context.Context, limit int) ([]models.ImportBatch, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if pool, err := composables.UsePool(ctx); err == nil && !composables.InTransaction(ctx) {
		return r.recentFromPool(ctx, pool, limit)
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.ImportBatch
	if err := tx.Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ImportBatchRepository) recentFromPool(ctx context.Context, pool *pgxpool.Pool, limit int) ([]models.ImportBatch, error) {
	rows, err := pool.Query(ctx, recentBatchesSQL, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query recent import batches")
	}
	out, err := pgx.CollectRows(rows, scanImportBatch)
	if err != nil {
		return nil, errors.Wrap(err, "scan import batches")
	}
	return out, nil
}

func scanImportBatch(row pgx.CollectableRow) (models.ImportBatch, error) {
	var b models.ImportBatch
	var id int64
	err := row.Scan(
		&id,
		&b.BatchID,
		&b.Source,
		&b.SourceType,
		&b.RecordCount,
		&b.Created,
		&b.Updated,
		&b.Skipped,
		&b.ErrorCount,
		&b.Status,
		&b.StartedAt,
		&b.FinishedAt,
		&b.CreatedAt,
	)
	b.ID = uint(id)
	return b, err
}

type AuditLogRepository struct {
	actor string
}

func NewAuditLogRepository(actor string) *AuditLogRepository {
	return &AuditLogRepository{actor: actor}
}

// RecordUpdate stores one audit row per changed field.
func (r *AuditLogRepository) RecordUpdate(ctx context.Context, table string, recordID uint, changes map[string][2]string) error {
	if len(changes) == 0 {
		return nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	rows := make([]models.AuditLog, 0, len(changes))
	for field, pair := range changes {
		rows = append(rows, models.AuditLog{
			Table:     table,
			RecordID:  recordID,
			Action:    "update",
			FieldName: field,
			OldValue:  pair[0],
			NewValue:  pair[1],
			ChangedBy: r.actor,
		})
	}
	return tx.Create(&rows).Error
}
