package service

import (
	"context"
	"fmt"
	"log"

	"github.com/wanghaisheng/mcp-server-dataset/internal/common"
	"github.com/wanghaisheng/mcp-server-dataset/internal/domain"
	"github.com/wanghaisheng/mcp-server-dataset/internal/port"
)

// RunReport 一次采集运行的统计结果
type RunReport struct {
	TotalRecords int    // 最终数据集大小
	NewRecords   int    // 本次运行新增的仓库数
	ReadmeCount  int    // README 来源的条目数
	SearchCount  int    // 搜索来源的条目数
	OutputPath   string // 快照文件路径
}

// CollectService 串起完整的采集管线:
// 两个采集器 → 分类器 → 合并去重 → CSV 落盘 → 可选的落库和推送
type CollectService struct {
	readme     port.Collector // 为 nil 时跳过 README 来源
	search     port.Collector // 为 nil 时跳过搜索来源
	classifier port.Classifier
	store      port.Store
	history    port.History  // 可选
	notifier   port.Notifier // 可选
	outputPath string
}

// NewCollectService 创建采集服务
func NewCollectService(
	readme port.Collector,
	search port.Collector,
	classifier port.Classifier,
	store port.Store,
	history port.History,
	notifier port.Notifier,
	outputPath string,
) *CollectService {
	return &CollectService{
		readme:     readme,
		search:     search,
		classifier: classifier,
		store:      store,
		history:    history,
		notifier:   notifier,
		outputPath: outputPath,
	}
}

// Run 执行一次完整的采集周期
// 单个来源失败只降级不中止；两个来源都失败且没有当天旧快照可以重写时，
// 才算整次运行失败（NO_OUTPUT）
func (s *CollectService) Run(ctx context.Context) (*RunReport, error) {
	fmt.Println("🚀 开始采集 MCP server 数据集...")

	// 1. 当天已有的快照（支持同一天跑多次）
	prior, err := s.store.Load(ctx)
	if err != nil {
		log.Printf("⚠️ 读取当天已有快照失败: %v，按空快照继续", err)
		prior = nil
	}
	if len(prior) > 0 {
		fmt.Printf("📂 载入当天已有快照 %d 条\n", len(prior))
	}

	// 2. 两个来源各自采集，互不影响
	readmeRecords, readmeOK := s.collectFrom(ctx, s.readme, "readme")
	searchRecords, searchOK := s.collectFrom(ctx, s.search, "search")

	if !readmeOK && !searchOK && len(prior) == 0 {
		return nil, common.NewError(common.ErrCodeNoOutput, "两个来源均不可用且没有可回退的快照")
	}

	// 3. 合并去重：快照在前、README 居中、搜索最后（新鲜度递增）
	merged := MergeRecords(prior, readmeRecords, searchRecords)
	fmt.Printf("🔀 合并去重后共 %d 条记录\n", len(merged))

	newRecords := subtractPrior(prior, merged)
	newCount := len(newRecords)

	// 4. 落盘 CSV（权威输出，写不出去才算整次失败）
	if err := s.store.Save(ctx, merged); err != nil {
		return nil, err
	}
	fmt.Printf("💾 快照已写入 %s\n", s.outputPath)

	// 5. 可选的历史落库
	// 先用历史库把"新增"口径从当天快照收紧到全量历史，再整体 upsert
	if s.history != nil {
		newCount = s.countNewInHistory(ctx, newRecords)
		if err := s.history.Upsert(ctx, merged); err != nil {
			log.Printf("⚠️ 历史落库失败: %v，CSV 快照不受影响", err)
		}
	}

	report := &RunReport{
		TotalRecords: len(merged),
		NewRecords:   newCount,
		ReadmeCount:  len(readmeRecords),
		SearchCount:  len(searchRecords),
		OutputPath:   s.outputPath,
	}

	// 6. 可选的运行摘要推送
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, report.Summary()); err != nil {
			log.Printf("⚠️ 推送运行摘要失败: %v", err)
		}
	}

	fmt.Printf("🎉 本次采集完成: 共 %d 条，新增 %d 条\n", report.TotalRecords, report.NewRecords)
	return report, nil
}

// collectFrom 执行单个来源的采集并逐条分类
// 返回的 bool 表示该来源本身是否可用（条目级失败已在采集器内部消化）
func (s *CollectService) collectFrom(ctx context.Context, collector port.Collector, name string) ([]*domain.ServerRecord, bool) {
	if collector == nil {
		return nil, false
	}

	entries, err := collector.Collect(ctx)
	if err != nil {
		log.Printf("❌ 来源 %s 采集失败: %v", name, err)
		return nil, false
	}
	fmt.Printf("📥 来源 %s 产出 %d 个原始条目\n", name, len(entries))

	records := make([]*domain.ServerRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.URL == "" {
			continue // 无 URL 的条目无法参与去重，丢弃
		}
		records = append(records, s.classifier.Classify(entry))
	}
	return records, true
}

// subtractPrior 返回合并结果里当天快照中没见过的记录
func subtractPrior(prior, merged []*domain.ServerRecord) []*domain.ServerRecord {
	seen := map[string]bool{}
	for _, r := range prior {
		seen[r.DedupKey()] = true
	}
	var fresh []*domain.ServerRecord
	for _, r := range merged {
		if !seen[r.DedupKey()] {
			fresh = append(fresh, r)
		}
	}
	return fresh
}

// countNewInHistory 用历史库复核快照级新增：历史上入过库的不再算新增
// 查询失败时该记录按新增计，宁可多报不漏报
func (s *CollectService) countNewInHistory(ctx context.Context, records []*domain.ServerRecord) int {
	count := 0
	for _, r := range records {
		seen, err := s.history.Exists(ctx, r.HTMLURL)
		if err != nil {
			log.Printf("⚠️ 查询历史库失败: %v，该仓库按新增计", err)
			count++
			continue
		}
		if !seen {
			count++
		}
	}
	return count
}

// Summary 渲染推送用的 Markdown 摘要
func (r *RunReport) Summary() string {
	return fmt.Sprintf(`**📦 数据集规模:** %d 条  |  **🆕 本次新增:** %d 条
**📋 README 来源:** %d 条  |  **🔎 搜索来源:** %d 条
**📄 快照文件:** %s`,
		r.TotalRecords, r.NewRecords, r.ReadmeCount, r.SearchCount, r.OutputPath)
}
