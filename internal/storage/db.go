package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/NgigiN/walletsync/internal/expense"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrPersistence marks failures to read or write the local slot.
var ErrPersistence = errors.New("local persistence failed")

type Database struct {
	db   *gorm.DB
	slot string
}

type Option func(*Database)

// WithSlot stores the collection under a different slot name.
func WithSlot(name string) Option {
	return func(d *Database) {
		d.slot = name
	}
}

func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&Slot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	d := &Database{db: db, slot: DefaultSlot}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Load returns the stored collection, or an empty one if nothing was saved yet.
func (d *Database) Load(ctx context.Context) ([]expense.Record, error) {
	var slot Slot
	err := d.db.WithContext(ctx).Where("name = ?", d.slot).Take(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []expense.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read slot %s: %v", ErrPersistence, d.slot, err)
	}
	if len(slot.Payload) == 0 {
		return []expense.Record{}, nil
	}

	var records []expense.Record
	if err := json.Unmarshal(slot.Payload, &records); err != nil {
		return nil, fmt.Errorf("%w: failed to decode slot %s: %v", ErrPersistence, d.slot, err)
	}
	if records == nil {
		records = []expense.Record{}
	}
	return records, nil
}

// Save replaces the stored collection with records in a single upsert.
func (d *Database) Save(ctx context.Context, records []expense.Record) error {
	if records == nil {
		records = []expense.Record{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: failed to encode expenses: %v", ErrPersistence, err)
	}

	slot := Slot{Name: d.slot, Payload: payload}
	err = d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&slot).Error
	if err != nil {
		return fmt.Errorf("%w: failed to save slot %s: %v", ErrPersistence, d.slot, err)
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.Close()
}
