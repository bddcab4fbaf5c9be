package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"HouseBot/internal/lib/sl"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Connect opens postgres for postgres:// DSNs and sqlite otherwise.
func Connect(dsn string, log *slog.Logger) (*gorm.DB, error) {
	log = log.With(sl.Module("sql"))
	conf := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Info("connecting to postgres", sl.Secret("dsn", dsn))
		db, err := gorm.Open(postgres.Open(dsn), conf)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		return db, nil
	}

	log.Info("using sqlite", slog.String("dsn", dsn))
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		conf,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite connect: %w", err)
	}
	// every sqlite connection to :memory: is a separate database
	if strings.Contains(dsn, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Store is the relational domain store.
type Store struct {
	db       *gorm.DB
	location *time.Location
	log      *slog.Logger
	// sqlite has no row locks; house locks serialize on this instead
	writeMu sync.Mutex
}

// NewStore wraps db. Booking dates are read back in location.
func NewStore(db *gorm.DB, location *time.Location, log *slog.Logger) *Store {
	if location == nil {
		location = time.UTC
	}
	return &Store{
		db:       db,
		location: location,
		log:      log.With(sl.Module("store")),
	}
}

type txKey struct{}

// conn returns the transaction carried by ctx, or the pool.
func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

// WithHouseLock runs fn in one transaction holding house houseID exclusively.
// Store calls made with the context passed to fn join that transaction.
func (s *Store) WithHouseLock(ctx context.Context, houseID int64, fn func(ctx context.Context) error) error {
	dialect := s.db.Dialector.Name()
	if dialect == "sqlite" {
		s.writeMu.Lock()
		defer s.writeMu.Unlock()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if dialect == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var house houseModel
		if err := q.Select("id").First(&house, houseID).Error; err != nil {
			return fmt.Errorf("lock house %d: %w", houseID, err)
		}
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Migrate creates or updates the schema.
func (s *Store) Migrate() error {
	err := s.db.AutoMigrate(&countryModel{}, &cityModel{}, &houseModel{}, &bookingModel{})
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	s.log.Info("schema migrated")
	return nil
}
