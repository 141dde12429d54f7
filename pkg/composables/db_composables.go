package composables

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"
)

type dbKey struct{}

type txKey struct{}

type poolKey struct{}

var (
	ErrNoTx   = errors.New("no transaction found in context")
	ErrNoDB   = errors.New("no database handle found in context")
	ErrNoPool = errors.New("no database pool found in context")
)

func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// UseTx returns the innermost open transaction, falling back to the root handle.
func UseTx(ctx context.Context) (*gorm.DB, error) {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx), nil
	}
	return UseDB(ctx)
}

func UseDB(ctx context.Context) (*gorm.DB, error) {
	db, ok := ctx.Value(dbKey{}).(*gorm.DB)
	if !ok || db == nil {
		return nil, ErrNoDB
	}
	return db.WithContext(ctx), nil
}

// WithPool stores the postgres pool for read paths that bypass gorm. A nil
// pool is stored as absent.
func WithPool(ctx context.Context, pool *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, poolKey{}, pool)
}

func UsePool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, ok := ctx.Value(poolKey{}).(*pgxpool.Pool)
	if !ok || pool == nil {
		return nil, ErrNoPool
	}
	return pool, nil
}

func InTransaction(ctx context.Context) bool {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok && tx != nil
}

// InTx runs fn in a new transaction. When ctx already carries one, a savepoint
// is opened inside it so that a failing fn only discards its own writes.
func InTx(ctx context.Context, fn func(context.Context) error) error {
	parent, err := UseTx(ctx)
	if err != nil {
		return err
	}
	return parent.Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}

func InTxResult[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := InTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		out, innerErr = fn(txCtx)
		return innerErr
	})
	return out, err
}
