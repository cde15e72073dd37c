package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wanghaisheng/mcp-server-dataset/internal/domain"
)

func sampleRecords() []*domain.ServerRecord {
	return []*domain.ServerRecord{
		{
			Name:        "fastmcp",
			Description: "A FastAPI-based MCP server with SSE support",
			HTMLURL:     "https://github.com/x/fastmcp",
			Stars:       120,
			Forks:       15,
			Keywords:    []string{"fastapi-based", "mcp", "server", "sse", "support"},
			Category:    domain.CategoryFramework,
			Techstack:   []string{"FastAPI", "FastMCP", "SSE"},
			Emojis:      []string{"🎯"},
		},
		{
			Name:        "mcp-postgres",
			Description: "Query PostgreSQL databases",
			HTMLURL:     "https://github.com/a/mcp-postgres",
			Stars:       0,
			Forks:       0,
			Category:    domain.CategoryDatabase,
			Emojis:      []string{"🗄️"},
		},
	}
}

func TestCSVStore_保存后读回(t *testing.T) {
	dir := t.TempDir()
	store := NewCSVStore(dir, "2025-06-01")
	ctx := context.Background()

	records := sampleRecords()
	assert.NoError(t, store.Save(ctx, records))

	loaded, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Len(t, loaded, 2)

	assert.Equal(t, "fastmcp", loaded[0].Name)
	assert.Equal(t, "https://github.com/x/fastmcp", loaded[0].HTMLURL)
	assert.Equal(t, 120, loaded[0].Stars)
	assert.Equal(t, 15, loaded[0].Forks)
	assert.Equal(t, []string{"FastAPI", "FastMCP", "SSE"}, loaded[0].Techstack)
	assert.Equal(t, domain.CategoryFramework, loaded[0].Category)

	// 空的多值字段读回为 nil 而不是 [""]
	assert.Nil(t, loaded[1].Techstack)
	assert.Nil(t, loaded[1].Keywords)
}

func TestCSVStore_文件路径带日期(t *testing.T) {
	store := NewCSVStore("data", "2025-06-01")
	assert.Equal(t, filepath.Join("data", "mcp_servers_2025-06-01.csv"), store.Path())
}

func TestCSVStore_缺失文件返回空集(t *testing.T) {
	store := NewCSVStore(t.TempDir(), "2025-06-01")
	records, err := store.Load(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestCSVStore_列顺序固定(t *testing.T) {
	dir := t.TempDir()
	store := NewCSVStore(dir, "2025-06-01")
	assert.NoError(t, store.Save(context.Background(), sampleRecords()))

	raw, err := os.ReadFile(store.Path())
	assert.NoError(t, err)
	assert.Contains(t, string(raw), "name,description,html_url,stars,forks,keywords,category,techstack,emojis\n")
}

func TestCSVStore_坏行被跳过(t *testing.T) {
	dir := t.TempDir()
	store := NewCSVStore(dir, "2025-06-01")

	content := "name,description,html_url,stars,forks,keywords,category,techstack,emojis\n" +
		"ok,desc,https://github.com/x/ok,10,5,,Other,,📦\n" +
		"bad-stars,desc,https://github.com/x/bad,abc,5,,Other,,📦\n" +
		"no-url,desc,,10,5,,Other,,📦\n" +
		"short-row,desc\n"
	assert.NoError(t, os.WriteFile(store.Path(), []byte(content), 0644))

	records, err := store.Load(context.Background())
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "ok", records[0].Name)
}

func TestCSVStore_引号损坏的行不拖垮整个快照(t *testing.T) {
	dir := t.TempDir()
	store := NewCSVStore(dir, "2025-06-01")

	content := "name,description,html_url,stars,forks,keywords,category,techstack,emojis\n" +
		"ok,desc,https://github.com/x/ok,10,5,,Other,,📦\n" +
		"broken,\"oops\"x,https://github.com/x/broken,10,5,,Other,,📦\n" +
		"also-ok,desc,https://github.com/x/also-ok,20,6,,Other,,📦\n"
	assert.NoError(t, os.WriteFile(store.Path(), []byte(content), 0644))

	// 坏行被丢弃，坏行前后的合法行都保留
	records, err := store.Load(context.Background())
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "ok", records[0].Name)
	assert.Equal(t, "also-ok", records[1].Name)
}

func TestCSVStore_覆盖写不追加(t *testing.T) {
	dir := t.TempDir()
	store := NewCSVStore(dir, "2025-06-01")
	ctx := context.Background()

	assert.NoError(t, store.Save(ctx, sampleRecords()))
	assert.NoError(t, store.Save(ctx, sampleRecords()))

	// 同一天写两次，文件内容不应翻倍
	loaded, err := store.Load(ctx)
	assert.NoError(t, err)
	assert.Len(t, loaded, 2)

	entries, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1) // 临时文件已清理
}

func TestCSVStore_自动创建输出目录(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	store := NewCSVStore(dir, "2025-06-01")

	assert.NoError(t, store.Save(context.Background(), sampleRecords()))
	_, err := os.Stat(store.Path())
	assert.NoError(t, err)
}
