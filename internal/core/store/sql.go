package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CollectionRow is one collection document in the SQL backend.
type CollectionRow struct {
	Name      string    `gorm:"primaryKey;size:64"`
	Body      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (CollectionRow) TableName() string { return "collections" }

// mysqlCollectionRow MySQL 的 TEXT 上限 64KB，整集合文档需要 LONGTEXT
type mysqlCollectionRow struct {
	Name      string    `gorm:"primaryKey;size:64"`
	Body      string    `gorm:"type:longtext;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (mysqlCollectionRow) TableName() string { return "collections" }

// migrationModel 按方言选建表模型；读写统一用 CollectionRow
func migrationModel(dialect string) any {
	if dialect == "mysql" {
		return &mysqlCollectionRow{}
	}
	return &CollectionRow{}
}

// SQLBackend stores each collection as a single row, so a save is one upsert
// instead of a file rewrite.
type SQLBackend struct {
	db *gorm.DB
}

func NewSQLBackend(db *gorm.DB) (*SQLBackend, error) {
	if err := db.AutoMigrate(migrationModel(db.Dialector.Name())); err != nil {
		return nil, err
	}
	return &SQLBackend{db: db}, nil
}

func (b *SQLBackend) Name() string { return "sql:" + b.db.Dialector.Name() }

func (b *SQLBackend) Read(ctx context.Context, collection string) ([]byte, error) {
	var row CollectionRow
	err := b.db.WithContext(ctx).First(&row, "name = ?", collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(row.Body), nil
}

func (b *SQLBackend) Write(ctx context.Context, collection string, data []byte) error {
	row := CollectionRow{Name: collection, Body: string(data), UpdatedAt: time.Now().UTC()}
	return upsert(b.db.WithContext(ctx), &row).Error
}

func upsert(tx *gorm.DB, row *CollectionRow) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(row)
}
