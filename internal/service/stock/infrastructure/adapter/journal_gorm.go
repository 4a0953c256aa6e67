// internal/service/stock/infrastructure/adapter/journal_gorm.go
package adapter

import (
	"context"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Makarasok24/DevOps-api-gateWay/internal/service/stock/domain"
)

// SagaJournalModel 对应数据库中的 stock_saga_journal 表。
// 每次变更/开通 Saga 的终态都会写一行，INCONSISTENT 和孤儿商品
// 就是运维做人工修复时要扫的队列。
type SagaJournalModel struct {
	ID               uint   `gorm:"primaryKey"`
	SagaID           string `gorm:"size:36;index"`
	Operation        string `gorm:"size:32"`
	ProductID        string `gorm:"size:64;index"`
	Delta            int
	PreviousQuantity *int
	NewQuantity      *int
	State            string `gorm:"size:32;index"`
	Error            string `gorm:"type:text"`
	TraceID          string `gorm:"size:32"`
	CreatedAt        time.Time
}

// TableName 指定 GORM 应该使用的表名
func (SagaJournalModel) TableName() string {
	return "stock_saga_journal"
}

// GormJournal 是 port.Journal 的 GORM 实现。
type GormJournal struct {
	db *gorm.DB
}

// NewGormJournal 连接 MySQL 并确保表结构存在。
func NewGormJournal(dsn string) (*GormJournal, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&SagaJournalModel{}); err != nil {
		return nil, err
	}
	return &GormJournal{db: db}, nil
}

// Record 落一条 Saga 流水。
func (j *GormJournal) Record(ctx context.Context, entry domain.JournalEntry) error {
	model := SagaJournalModel{
		SagaID:           entry.SagaID,
		Operation:        entry.Operation,
		ProductID:        entry.ProductID,
		Delta:            entry.Delta,
		PreviousQuantity: entry.PreviousQuantity,
		NewQuantity:      entry.NewQuantity,
		State:            string(entry.State),
		Error:            entry.Error,
		TraceID:          entry.TraceID,
	}
	return j.db.WithContext(ctx).Create(&model).Error
}
