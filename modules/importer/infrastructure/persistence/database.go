package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/iota-uz/workbook-import/modules/importer/infrastructure/persistence/models"
	"github.com/iota-uz/workbook-import/pkg/configuration"
)

// Database owns the gorm handle and whatever pool sits underneath it.
type Database struct {
	DB *gorm.DB

	pool *pgxpool.Pool
}

func Open(ctx context.Context, opts configuration.DatabaseOptions, logger logrus.FieldLogger) (*Database, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.New(logger, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	switch opts.Driver {
	case configuration.DriverPostgres:
		poolCfg, err := pgxpool.ParseConfig(opts.ConnectionString())
		if err != nil {
			return nil, errors.Wrap(err, "parse postgres config")
		}
		if opts.MaxConns > 0 {
			poolCfg.MaxConns = opts.MaxConns
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, errors.Wrap(err, "open postgres pool")
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "ping postgres")
		}
		db, err := gorm.Open(postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), gormCfg)
		if err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "open gorm")
		}
		return &Database{DB: db, pool: pool}, nil
	case configuration.DriverSQLite:
		return OpenSQLite(opts.SQLitePath, gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// OpenSQLite opens a single-connection sqlite database at path.
func OpenSQLite(path string, cfg *gorm.Config) (*Database, error) {
	if cfg == nil {
		cfg = &gorm.Config{Logger: gormlogger.Discard}
	}
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return &Database{DB: db}, nil
}

// Pool is the pgx pool behind a postgres handle, nil for sqlite.
func (d *Database) Pool() *pgxpool.Pool {
	return d.pool
}

func (d *Database) Migrate(ctx context.Context) error {
	if err := d.DB.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	closeErr := sqlDB.Close()
	if d.pool != nil {
		d.pool.Close()
	}
	return closeErr
}
