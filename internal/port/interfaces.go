package port

import (
	"context"

	"github.com/wanghaisheng/mcp-server-dataset/internal/domain"
)

// Collector (采集器): 负责从某个来源产出原始条目
// 两个实现：README 精选列表解析、GitHub 搜索 API
type Collector interface {
	// Collect 一次性拉取该来源的全部条目
	// 单个条目的解析失败不应中断采集，只需跳过并记录
	Collect(ctx context.Context) ([]*domain.RawEntry, error)
}

// Classifier (分类器): 把原始条目归一化成标准记录
// 必须是纯函数：相同输入永远产出相同记录
type Classifier interface {
	Classify(entry *domain.RawEntry) *domain.ServerRecord
}

// Store (仓库管理员): 负责数据集的持久化
type Store interface {
	// Load 读取已有的数据集快照（文件不存在时返回空集而非错误）
	Load(ctx context.Context) ([]*domain.ServerRecord, error)

	// Save 全量写出最终数据集
	Save(ctx context.Context, records []*domain.ServerRecord) error
}

// History (档案馆): 可选的逐日累积镜像（如 Postgres）
// CSV 快照始终是权威来源，镜像失败不影响运行结果
type History interface {
	Upsert(ctx context.Context, records []*domain.ServerRecord) error

	// Exists 查询某个仓库是否在历史上的任意一天入过库
	// 用于把"新增"从"当天快照没见过"收紧为"历史上从未见过"
	Exists(ctx context.Context, htmlURL string) (bool, error)
}

// Notifier (信使): 运行结束后推送一份摘要
type Notifier interface {
	Notify(ctx context.Context, summary string) error
}
