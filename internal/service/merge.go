package service

import (
	"sort"

	"github.com/wanghaisheng/mcp-server-dataset/internal/domain"
)

// MergeRecords 把多批记录按归一化 URL 合并成一个集合
// 批次顺序即新鲜度递增：调用方按 [昨日快照, README, 搜索] 传入，
// 键冲突时逐字段合并而不是整条丢弃，输出按去重键排序保证文件可复现
func MergeRecords(batches ...[]*domain.ServerRecord) []*domain.ServerRecord {
	byKey := map[string]*domain.ServerRecord{}
	var order []string

	for _, batch := range batches {
		for _, record := range batch {
			key := record.DedupKey()
			if key == "" {
				continue // 无 URL 的记录不允许进入最终集合
			}
			existing, present := byKey[key]
			if !present {
				clone := *record
				byKey[key] = &clone
				order = append(order, key)
				continue
			}
			byKey[key] = mergePair(existing, record)
		}
	}

	sort.Strings(order)
	merged := make([]*domain.ServerRecord, 0, len(order))
	for _, key := range order {
		merged = append(merged, byKey[key])
	}
	return merged
}

// mergePair 合并同一个仓库的新旧两条记录:
//   - stars/forks 取带有活数据的一侧（精选列表的 0 会被搜索结果回填）
//   - 描述取更长的一侧，等长时偏向搜索来源（实时元数据优于可能过期的精选列表）
//   - 分类、技术栈、关键词、emoji 跟随描述胜出的一侧，保证它们和描述口径一致
func mergePair(prev, next *domain.ServerRecord) *domain.ServerRecord {
	winner, loser := prev, next
	if preferIncoming(prev, next) {
		winner, loser = next, prev
	}

	merged := *winner

	if merged.Name == "" {
		merged.Name = loser.Name
	}
	if merged.Description == "" && loser.Description != "" {
		merged.Description = loser.Description
	}

	// 数值字段独立裁决：新到的活数据优先，精选列表的 0 不覆盖已有数据
	if next.Stars+next.Forks > 0 {
		merged.Stars, merged.Forks = next.Stars, next.Forks
	} else if prev.Stars+prev.Forks > 0 {
		merged.Stars, merged.Forks = prev.Stars, prev.Forks
	}

	if merged.CollectedAt.Before(loser.CollectedAt) {
		merged.CollectedAt = loser.CollectedAt
	}

	return &merged
}

// preferIncoming 判断描述冲突时是否采用新到的一侧
func preferIncoming(prev, next *domain.ServerRecord) bool {
	if len(next.Description) != len(prev.Description) {
		return len(next.Description) > len(prev.Description)
	}
	// 等长：偏向搜索来源；都不是（或都是）搜索来源时取新到的一侧
	if prev.Source == domain.SourceSearch && next.Source != domain.SourceSearch {
		return false
	}
	return true
}
