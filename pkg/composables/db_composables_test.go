package composables

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type note struct {
	ID   uint `gorm:"primaryKey"`
	Body string
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&note{}))
	return db
}

func count(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&note{}).Count(&n).Error)
	return n
}

func TestUseDB_Missing(t *testing.T) {
	_, err := UseDB(context.Background())
	require.ErrorIs(t, err, ErrNoDB)
	_, err = UseTx(context.Background())
	require.ErrorIs(t, err, ErrNoDB)
	require.False(t, InTransaction(context.Background()))
}

func TestUsePool_Absent(t *testing.T) {
	_, err := UsePool(context.Background())
	require.ErrorIs(t, err, ErrNoPool)

	_, err = UsePool(WithPool(context.Background(), nil))
	require.ErrorIs(t, err, ErrNoPool)
}

func TestInTx_NestedSavepointRollsBackOnlyInner(t *testing.T) {
	db := newDB(t)
	ctx := WithDB(context.Background(), db)

	err := InTx(ctx, func(ctx context.Context) error {
		require.True(t, InTransaction(ctx))
		tx, err := UseTx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Create(&note{Body: "outer"}).Error)

		inner := InTx(ctx, func(ctx context.Context) error {
			tx, err := UseTx(ctx)
			require.NoError(t, err)
			require.NoError(t, tx.Create(&note{Body: "inner"}).Error)
			return errors.New("row failed")
		})
		require.Error(t, inner)
		return nil
	})
	require.NoError(t, err)

	var bodies []string
	require.NoError(t, db.Model(&note{}).Pluck("body", &bodies).Error)
	require.Equal(t, []string{"outer"}, bodies)
}

func TestInTxResult_RollsBackOnError(t *testing.T) {
	db := newDB(t)
	ctx := WithDB(context.Background(), db)

	id, err := InTxResult(ctx, func(ctx context.Context) (uint, error) {
		tx, err := UseTx(ctx)
		if err != nil {
			return 0, err
		}
		n := &note{Body: "kept"}
		if err := tx.Create(n).Error; err != nil {
			return 0, err
		}
		return n.ID, nil
	})
	require.NoError(t, err)
	require.NotZero(t, id)
	require.EqualValues(t, 1, count(t, db))

	_, err = InTxResult(ctx, func(ctx context.Context) (int, error) {
		tx, _ := UseTx(ctx)
		if err := tx.Create(&note{Body: "dropped"}).Error; err != nil {
			return 0, err
		}
		return 0, errors.New("boom")
	})
	require.EqualError(t, err, "boom")
	require.EqualValues(t, 1, count(t, db))
}
