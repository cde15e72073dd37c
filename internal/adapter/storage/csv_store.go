package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wanghaisheng/mcp-server-dataset/internal/common"
	"github.com/wanghaisheng/mcp-server-dataset/internal/domain"
)

// csvHeader CSV 列顺序是对外契约的一部分，不能改动
var csvHeader = []string{
	"name", "description", "html_url", "stars", "forks",
	"keywords", "category", "techstack", "emojis",
}

// CSVStore 实现了 port.Store 接口
// 数据集按日期落盘: <dir>/mcp_servers_<YYYY-MM-DD>.csv
// 同一天多次运行时先 Load 再合并重写，不会产生重复文件
type CSVStore struct {
	dir  string
	date string // YYYY-MM-DD
}

// NewCSVStore 创建指定日期的 CSV 仓库
func NewCSVStore(dir, date string) *CSVStore {
	return &CSVStore{dir: dir, date: date}
}

// Path 返回本次运行的目标文件路径
func (s *CSVStore) Path() string {
	return filepath.Join(s.dir, fmt.Sprintf("mcp_servers_%s.csv", s.date))
}

// Load 读取当天已有的快照，文件不存在返回空集而非错误
// 列数不对或数字字段解析失败的行跳过并记录，不会中断加载
func (s *CSVStore) Load(ctx context.Context) ([]*domain.ServerRecord, error) {
	fh, err := os.Open(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, common.WrapError(common.ErrCodeCSV, "打开快照文件失败", err)
	}
	defer fh.Close()

	reader := csv.NewReader(fh)
	reader.FieldsPerRecord = -1 // 列数校验自己做，坏行跳过而不是报错

	var records []*domain.ServerRecord
	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			// 单行引号/格式损坏只丢那一行，reader 会从下一行继续
			line++
			log.Printf("[csv] 跳过第 %d 行：%v", line, err)
			continue
		}
		if err != nil {
			return nil, common.WrapError(common.ErrCodeCSV, "读取快照文件失败", err)
		}
		line++
		if line == 1 {
			continue // 表头
		}

		record, ok := rowToRecord(row)
		if !ok {
			log.Printf("[csv] 跳过第 %d 行：格式不完整", line)
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

// Save 全量写出数据集，先写临时文件再原子改名，避免半截文件
func (s *CSVStore) Save(ctx context.Context, records []*domain.ServerRecord) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return common.WrapError(common.ErrCodeCSV, "创建输出目录失败", err)
	}

	tmp, err := os.CreateTemp(s.dir, "mcp_servers_*.csv.tmp")
	if err != nil {
		return common.WrapError(common.ErrCodeCSV, "创建临时文件失败", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // 改名成功后这里是空操作

	writer := csv.NewWriter(tmp)
	if err := writer.Write(csvHeader); err != nil {
		tmp.Close()
		return common.WrapError(common.ErrCodeCSV, "写表头失败", err)
	}

	for _, r := range records {
		if err := writer.Write(recordToRow(r)); err != nil {
			tmp.Close()
			return common.WrapError(common.ErrCodeCSV, "写数据行失败", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return common.WrapError(common.ErrCodeCSV, "刷新 CSV 缓冲失败", err)
	}
	if err := tmp.Close(); err != nil {
		return common.WrapError(common.ErrCodeCSV, "关闭临时文件失败", err)
	}

	if err := os.Rename(tmpPath, s.Path()); err != nil {
		return common.WrapError(common.ErrCodeCSV, "落盘快照文件失败", err)
	}
	return nil
}

// recordToRow 序列化一条记录，多值字段在单元格内用逗号连接
func recordToRow(r *domain.ServerRecord) []string {
	return []string{
		r.Name,
		r.Description,
		r.HTMLURL,
		strconv.Itoa(r.Stars),
		strconv.Itoa(r.Forks),
		strings.Join(r.Keywords, ","),
		r.Category,
		strings.Join(r.Techstack, ","),
		strings.Join(r.Emojis, ","),
	}
}

// rowToRecord 反序列化一行，返回 ok=false 表示该行不完整
func rowToRecord(row []string) (*domain.ServerRecord, bool) {
	if len(row) != len(csvHeader) {
		return nil, false
	}

	stars, err := strconv.Atoi(row[3])
	if err != nil || stars < 0 {
		return nil, false
	}
	forks, err := strconv.Atoi(row[4])
	if err != nil || forks < 0 {
		return nil, false
	}
	if strings.TrimSpace(row[2]) == "" {
		return nil, false
	}

	return &domain.ServerRecord{
		Name:        row[0],
		Description: row[1],
		HTMLURL:     row[2],
		Stars:       stars,
		Forks:       forks,
		Keywords:    splitList(row[5]),
		Category:    row[6],
		Techstack:   splitList(row[7]),
		Emojis:      splitList(row[8]),
	}, true
}

// splitList 还原单元格内逗号连接的多值字段
func splitList(cell string) []string {
	if cell == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(cell, ",") {
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
