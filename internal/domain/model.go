package domain

import (
	"strings"
	"time"
)

// 数据来源标识
const (
	SourceReadme = "readme" // 精选 awesome 列表
	SourceSearch = "search" // GitHub 搜索 API
)

// Category 枚举值（固定集合，分类器保证只产出这些值）
const (
	CategoryFramework = "Framework"
	CategoryUtility   = "Utility"
	CategoryClient    = "Client"
	CategoryTutorial  = "Tutorial"
	CategoryDatabase  = "Database"
	CategoryAPI       = "API"
	CategoryStorage   = "Storage"
	CategoryAI        = "AI"
	CategoryChat      = "Chat"
	CategorySearch    = "Search"
	CategoryOther     = "Other"
)

// Categories 按声明顺序列出全部合法分类
var Categories = []string{
	CategoryFramework,
	CategoryUtility,
	CategoryClient,
	CategoryTutorial,
	CategoryDatabase,
	CategoryAPI,
	CategoryStorage,
	CategoryAI,
	CategoryChat,
	CategorySearch,
	CategoryOther,
}

// RawEntry 代表采集器产出的原始条目（未归一化，仅在单次运行内存活）
type RawEntry struct {
	Name        string
	Description string
	URL         string
	Source      string // SourceReadme 或 SourceSearch
	SectionHint string // README 条目所属的章节标题，搜索结果为空
	Emojis      string // README 条目自带的指示 emoji，搜索结果为空
	Stars       int
	Forks       int
}

// ServerRecord 代表一个归一化后的 MCP server 条目
// HTMLURL 归一化后作为全局去重键
type ServerRecord struct {
	Name        string    `json:"name" gorm:"index"`
	Description string    `json:"description"`
	HTMLURL     string    `json:"html_url" gorm:"primaryKey"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Keywords    []string  `json:"keywords" gorm:"serializer:json"`
	Category    string    `json:"category"`
	Techstack   []string  `json:"techstack" gorm:"serializer:json"`
	Emojis      []string  `json:"emojis" gorm:"serializer:json"`
	Source      string    `json:"source"`
	CollectedAt time.Time `json:"collected_at"`
}

// DedupKey 返回本记录参与合并时使用的键
func (r *ServerRecord) DedupKey() string {
	return NormalizeRepoURL(r.HTMLURL)
}

// IsValidCategory 判断分类是否属于固定集合
func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// NormalizeRepoURL 归一化仓库 URL 作为去重键:
// 全部转小写、http/https 等价、去掉末尾斜杠
// 例如 "HTTP://GitHub.com/x/y/" 和 "https://github.com/x/y" 归一化后相同
func NormalizeRepoURL(rawURL string) string {
	u := strings.ToLower(strings.TrimSpace(rawURL))
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimSuffix(u, "/")
	return u
}
