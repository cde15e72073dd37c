package readme

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/wanghaisheng/mcp-server-dataset/internal/common"
	"github.com/wanghaisheng/mcp-server-dataset/internal/domain"
)

// skipSections 精选列表里不包含 server 条目的章节，解析时整节跳过
var skipSections = map[string]bool{
	"What is MCP?":    true,
	"Clients":         true,
	"Tutorials":       true,
	"Community":       true,
	"Legend":          true,
	"Frameworks":      true,
	"Utilities":       true,
	"Tips and Tricks": true,
}

var (
	// entryRegexp 匹配列表条目: - [name](url) 后面跟任意尾部文本
	entryRegexp = regexp.MustCompile(`^\s*[-*]\s+\[([^\]]*)\]\(([^)]+)\)\s*(.*)$`)
	// headingRegexp 匹配二级/三级标题，标题文本由 cleanHeading 再清洗
	headingRegexp = regexp.MustCompile(`^#{2,3}\s+(.+)$`)
	// htmlTagRegexp 剔除标题里的锚点标签，如 <a name="..."></a>
	htmlTagRegexp = regexp.MustCompile(`<[^>]*>`)
)

// Extractor 实现了 port.Collector 接口
// 抓取精选 awesome 列表的原始 README 并解析其中的 server 条目
type Extractor struct {
	url        string
	client     *http.Client
	retryDelay time.Duration
}

// New 创建 README 采集器
func New(url string) *Extractor {
	return &Extractor{
		url:        url,
		client:     &http.Client{Timeout: 30 * time.Second},
		retryDelay: 2 * time.Second,
	}
}

// Collect 抓取并解析 README，每个合法列表条目产出一个 RawEntry
// 单个条目格式不对只会被跳过；整个文档抓不下来才算失败
func (e *Extractor) Collect(ctx context.Context) ([]*domain.RawEntry, error) {
	content, err := e.fetch(ctx)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeReadmeFetch, "抓取精选列表 README 失败", err)
	}
	return Parse(content), nil
}

// fetch 带重试地下载 README 原始文本
func (e *Extractor) fetch(ctx context.Context) (string, error) {
	var content string
	err := common.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
		if err != nil {
			return err
		}
		resp, err := e.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("非预期的状态码 %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		content = string(body)
		return nil
	},
		common.WithMaxRetries(3),
		common.WithInitialDelay(e.retryDelay),
	)
	return content, err
}

// Parse 把 README 原始文本解析成 RawEntry 列表
// 每个条目关联它前面最近的 "## " 章节标题作为隐式分类提示
func Parse(content string) []*domain.RawEntry {
	var entries []*domain.RawEntry

	section := ""
	skipping := true // 第一个章节标题出现之前的内容全部忽略

	for _, line := range strings.Split(content, "\n") {
		if m := headingRegexp.FindStringSubmatch(line); m != nil {
			section = cleanHeading(m[1])
			skipping = skipSections[section]
			continue
		}
		if skipping {
			continue
		}

		m := entryRegexp.FindStringSubmatch(line)
		if m == nil {
			continue // 不是列表条目或缺少链接，静默跳过
		}

		name := strings.TrimSpace(m[1])
		url := strings.TrimSpace(m[2])
		if name == "" || url == "" {
			continue
		}

		glyphs, description := splitTail(m[3])
		entries = append(entries, &domain.RawEntry{
			Name:        name,
			Description: description,
			URL:         url,
			Source:      domain.SourceReadme,
			SectionHint: section,
			Emojis:      glyphs,
			// 精选列表不带 star/fork 数据，留 0 交给合并阶段回填
		})
	}

	log.Printf("[readme] 从 README 解析出 %d 个条目", len(entries))
	return entries
}

// cleanHeading 把标题还原成纯文本章节名:
// "📂 <a name="browser-automation"></a>Browser Automation" → "Browser Automation"
// 首尾剥掉装饰 emoji（符号和变体选择符），保留 "What is MCP?" 这类结尾标点
func cleanHeading(raw string) string {
	s := htmlTagRegexp.ReplaceAllString(raw, "")
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSymbol(r) || unicode.IsMark(r) || unicode.IsSpace(r)
	})
	return strings.TrimSpace(s)
}

// splitTail 拆分链接后面的尾部文本: "🐍 ☁️ - 描述" → ("🐍 ☁️", "描述")
// 没有 " - " 分隔符时整段按描述处理
func splitTail(tail string) (glyphs, description string) {
	tail = strings.TrimSpace(tail)
	if tail == "" {
		return "", ""
	}
	if strings.HasPrefix(tail, "- ") {
		return "", strings.TrimSpace(tail[2:])
	}
	if idx := strings.Index(tail, " - "); idx >= 0 {
		return strings.TrimSpace(tail[:idx]), strings.TrimSpace(tail[idx+3:])
	}
	return "", tail
}
