package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wanghaisheng/mcp-server-dataset/internal/domain"
)

// setupMockDB 创建一个模拟的数据库连接
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	// 创建 GORM 数据库实例，禁用日志以减少输出
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return gormDB, mock, cleanup
}

func TestPostgresStore_Upsert(t *testing.T) {
	records := []*domain.ServerRecord{
		{
			Name:        "fastmcp",
			Description: "A FastAPI-based MCP server",
			HTMLURL:     "https://github.com/x/fastmcp",
			Stars:       120,
			Forks:       15,
			Category:    domain.CategoryFramework,
			Source:      domain.SourceSearch,
		},
		{
			Name:        "mcp-postgres",
			Description: "Query PostgreSQL databases",
			HTMLURL:     "https://github.com/a/mcp-postgres",
			Category:    domain.CategoryDatabase,
			Source:      domain.SourceReadme,
		},
	}

	tests := []struct {
		name        string
		records     []*domain.ServerRecord
		setupMock   func(sqlmock.Sqlmock)
		expectError bool
	}{
		{
			name:    "成功批量落库",
			records: records,
			setupMock: func(mock sqlmock.Sqlmock) {
				// OnConflict(html_url) 批量 upsert 走单条 INSERT 语句
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "server_records"`)).
					WillReturnResult(sqlmock.NewResult(0, 2))
				mock.ExpectCommit()
			},
			expectError: false,
		},
		{
			name:    "数据库报错时包装为数据库错误",
			records: records,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "server_records"`)).
					WillReturnError(errors.New("connection reset"))
				mock.ExpectRollback()
			},
			expectError: true,
		},
		{
			name:        "空记录集不触发任何 SQL",
			records:     nil,
			setupMock:   nil,
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock, cleanup := setupMockDB(t)
			defer cleanup()

			if tt.setupMock != nil {
				tt.setupMock(mock)
			}

			store := &PostgresStore{db: gormDB}
			err := store.Upsert(context.Background(), tt.records)

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "DATABASE_ERROR")
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_Exists(t *testing.T) {
	tests := []struct {
		name        string
		htmlURL     string
		setupMock   func(sqlmock.Sqlmock)
		expectFound bool
		expectError bool
	}{
		{
			name:    "仓库已入库",
			htmlURL: "https://github.com/x/fastmcp",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "server_records" WHERE html_url = $1`)).
					WithArgs("https://github.com/x/fastmcp").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
			},
			expectFound: true,
		},
		{
			name:    "仓库未入库",
			htmlURL: "https://github.com/x/unknown",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "server_records" WHERE html_url = $1`)).
					WithArgs("https://github.com/x/unknown").
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
			},
			expectFound: false,
		},
		{
			name:    "查询失败时包装为数据库错误",
			htmlURL: "https://github.com/x/fastmcp",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "server_records"`)).
					WillReturnError(errors.New("connection reset"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock, cleanup := setupMockDB(t)
			defer cleanup()

			tt.setupMock(mock)

			store := &PostgresStore{db: gormDB}
			found, err := store.Exists(context.Background(), tt.htmlURL)

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "DATABASE_ERROR")
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectFound, found)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
