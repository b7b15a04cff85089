package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/pitabwire/frame/data"
	"github.com/pitabwire/frame/datastore/pool"
	"gorm.io/gorm"
)

// UsageRecord is the database row holding one persisted usage state blob.
type UsageRecord struct {
	data.BaseModel

	Key     string `gorm:"type:varchar(100);uniqueIndex" json:"key"`
	Payload string `gorm:"type:text"                     json:"payload"`
}

func (UsageRecord) TableName() string { return "usage_records" }

// GormStore persists usage state in the service database.
type GormStore struct {
	pool pool.Pool
}

// NewGormStore creates a store over the given datastore pool.
func NewGormStore(pool pool.Pool) *GormStore {
	return &GormStore{pool: pool}
}

func (s *GormStore) db(ctx context.Context, readOnly bool) *gorm.DB {
	return s.pool.DB(ctx, readOnly)
}

func (s *GormStore) Load(ctx context.Context, key string) ([]byte, error) {
	var rec UsageRecord
	err := s.db(ctx, true).Where("key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load usage record %q: %w", key, err)
	}
	return []byte(rec.Payload), nil
}

func (s *GormStore) Save(ctx context.Context, key string, raw []byte) error {
	res := s.db(ctx, false).
		Model(&UsageRecord{}).
		Where("key = ?", key).
		Update("payload", string(raw))
	if res.Error != nil {
		return fmt.Errorf("update usage record %q: %w", key, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	rec := &UsageRecord{Key: key, Payload: string(raw)}
	if err := s.db(ctx, false).Create(rec).Error; err != nil {
		return fmt.Errorf("create usage record %q: %w", key, err)
	}
	return nil
}
