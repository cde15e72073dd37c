package storage

import (
	"context"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wanghaisheng/mcp-server-dataset/internal/common"
	"github.com/wanghaisheng/mcp-server-dataset/internal/domain"
)

// PostgresStore 可选的历史落库:
// CSV 快照始终是数据集的权威来源，数据库只做逐日累积的镜像
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore 初始化数据库连接并自动迁移表结构
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "连接数据库失败", err)
	}

	// 自动迁移，字段变了也会跟着更新
	if err := db.AutoMigrate(&domain.ServerRecord{}); err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "数据库迁移失败", err)
	}

	return &PostgresStore{db: db}, nil
}

// Upsert 按 html_url 主键批量保存或更新记录
func (s *PostgresStore) Upsert(ctx context.Context, records []*domain.ServerRecord) error {
	if len(records) == 0 {
		return nil
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "html_url"}},
			UpdateAll: true,
		}).
		Create(records)
	if result.Error != nil {
		return common.WrapError(common.ErrCodeDatabase, "批量落库失败", result.Error)
	}
	return nil
}

// Exists 按归一化 URL 检查记录是否已入库
func (s *PostgresStore) Exists(ctx context.Context, htmlURL string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&domain.ServerRecord{}).
		Where("html_url = ?", htmlURL).
		Count(&count).Error
	if err != nil {
		return false, common.WrapError(common.ErrCodeDatabase, "查询记录失败", err)
	}
	return count > 0, nil
}
