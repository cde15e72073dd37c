package classifier

import (
	"regexp"
	"strings"
	"time"

	"github.com/wanghaisheng/mcp-server-dataset/internal/domain"
)

// categoryRule 一条 (关键词 → 分类) 规则
// 规则顺序即优先级，第一条命中的规则胜出，顺序不能随意调整
type categoryRule struct {
	category string
	tokens   []string
}

// categoryRules 分类规则表（有序数据，不是类型层级）
// Framework 排在 API 之前，所以 "A FastAPI-based MCP server" 归入 Framework
var categoryRules = []categoryRule{
	{domain.CategoryFramework, []string{"framework", "frameworks", "sdk", "kit", "template", "fastmcp"}},
	{domain.CategoryUtility, []string{"utility", "utilities", "tool", "tools", "helper", "gateway", "proxy", "bridge"}},
	{domain.CategoryClient, []string{"client", "clients", "interface"}},
	{domain.CategoryTutorial, []string{"tutorial", "tutorials", "guide", "example", "examples", "demo"}},
	{domain.CategoryDatabase, []string{"database", "databases", "sql", "nosql", "postgres", "postgresql", "mysql", "mongodb", "sqlite", "redis"}},
	{domain.CategoryAPI, []string{"api", "apis", "rest", "graphql", "grpc"}},
	{domain.CategoryStorage, []string{"storage", "file", "files", "filesystem", "s3", "bucket", "drive"}},
	{domain.CategoryAI, []string{"ai", "llm", "llms", "gpt", "claude", "gemini", "model", "models"}},
	{domain.CategoryChat, []string{"chat", "messaging", "slack", "discord", "telegram"}},
	{domain.CategorySearch, []string{"search", "elastic", "elasticsearch", "lucene", "vector"}},
}

// techRule 技术栈词表中的一项
// tokens 匹配文本分词，phrases 匹配多词短语，glyph 匹配精选列表自带的指示 emoji
type techRule struct {
	label   string
	tokens  []string
	phrases []string
	glyph   string
}

// techVocabulary 技术栈固定词表：语言、框架、协议、部署形态、平台
// 与分类不同，技术栈保留所有命中项
var techVocabulary = []techRule{
	{label: "Python", tokens: []string{"python", "py", "django", "flask"}, glyph: "🐍"},
	{label: "TypeScript", tokens: []string{"typescript", "ts", "javascript", "js", "node", "nodejs"}, glyph: "📇"},
	{label: "Go", tokens: []string{"go", "golang"}, glyph: "🏎️"},
	{label: "Rust", tokens: []string{"rust"}, glyph: "🦀"},
	{label: "Java", tokens: []string{"java", "kotlin"}, glyph: "☕"},
	{label: "C#", tokens: []string{"c#", "csharp", "dotnet"}, glyph: "#️⃣"},
	{label: "FastAPI", tokens: []string{"fastapi"}},
	{label: "FastMCP", tokens: []string{"fastmcp"}},
	{label: "LangChain", tokens: []string{"langchain"}},
	{label: "Spring", tokens: []string{"spring", "springboot"}},
	{label: "Quarkus", tokens: []string{"quarkus"}},
	{label: "SSE", tokens: []string{"sse"}, phrases: []string{"server sent events"}},
	{label: "WebSocket", tokens: []string{"websocket", "websockets", "ws"}},
	{label: "HTTP", tokens: []string{"http", "https", "rest"}},
	{label: "stdio", tokens: []string{"stdio"}},
	{label: "Cloud", tokens: []string{"cloud", "aws", "azure", "gcp"}, glyph: "☁️"},
	{label: "Docker", tokens: []string{"docker", "container", "kubernetes"}},
	{label: "Local", tokens: []string{"local", "desktop", "cli"}, glyph: "🏠"},
	{label: "macOS", tokens: []string{"macos"}, glyph: "🍎"},
	{label: "Windows", tokens: []string{"windows"}, glyph: "🪟"},
	{label: "Linux", tokens: []string{"linux"}, glyph: "🐧"},
}

// categoryEmoji 分类到指示 emoji 的固定映射
var categoryEmoji = map[string]string{
	domain.CategoryFramework: "🎯",
	domain.CategoryUtility:   "🔧",
	domain.CategoryClient:    "💬",
	domain.CategoryTutorial:  "📚",
	domain.CategoryDatabase:  "🗄️",
	domain.CategoryAPI:       "🔌",
	domain.CategoryStorage:   "📂",
	domain.CategoryAI:        "🧠",
	domain.CategoryChat:      "🗨️",
	domain.CategorySearch:    "🔎",
	domain.CategoryOther:     "📦",
}

// stopwords 关键词提取时过滤掉的常见词
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true, "will": true, "would": true,
	"shall": true, "should": true, "may": true, "might": true, "must": true,
	"can": true, "could": true, "that": true, "this": true, "via": true,
	"using": true, "based": true,
}

var (
	// matchTokenRegexp 用于分类/技术栈匹配的分词（连字符视作分隔符，保留 # 以识别 c#）
	matchTokenRegexp = regexp.MustCompile(`[a-z0-9#]+`)
	// keywordRegexp 用于关键词提取的分词（保留连字符，对齐原始数据集口径）
	keywordRegexp = regexp.MustCompile(`[a-z0-9]+(?:-[a-z0-9]+)*`)
)

// ServerClassifier 把原始条目归一化成标准记录
// 纯函数：相同输入永远产出相同记录（时间通过 nowFunc 注入以便测试）
type ServerClassifier struct {
	nowFunc func() time.Time
}

// New 创建分类器实例
func New() *ServerClassifier {
	return &ServerClassifier{nowFunc: time.Now}
}

// Classify 把一个 RawEntry 归一化成一个 ServerRecord
// 空描述视作"无信号"：分类为 Other、技术栈和关键词为空，永远不会报错
func (c *ServerClassifier) Classify(entry *domain.RawEntry) *domain.ServerRecord {
	text := strings.ToLower(strings.Join([]string{entry.Name, entry.Description, entry.SectionHint}, " "))
	tokens := tokenSet(text)

	category := assignCategory(tokens)
	techstack := extractTechstack(text, tokens, entry.Emojis)

	return &domain.ServerRecord{
		Name:        strings.TrimSpace(entry.Name),
		Description: strings.TrimSpace(entry.Description),
		HTMLURL:     strings.TrimSpace(entry.URL),
		Stars:       entry.Stars,
		Forks:       entry.Forks,
		Keywords:    extractKeywords(entry.Description),
		Category:    category,
		Techstack:   techstack,
		Emojis:      assignEmojis(category, techstack),
		Source:      entry.Source,
		CollectedAt: c.nowFunc().UTC(),
	}
}

// tokenSet 把文本拆成小写单词集合
func tokenSet(text string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range matchTokenRegexp.FindAllString(text, -1) {
		set[tok] = true
	}
	return set
}

// assignCategory 按规则表顺序匹配，第一条命中的规则胜出，无命中归 Other
func assignCategory(tokens map[string]bool) string {
	for _, rule := range categoryRules {
		for _, tok := range rule.tokens {
			if tokens[tok] {
				return rule.category
			}
		}
	}
	return domain.CategoryOther
}

// extractTechstack 对照固定词表收集所有命中的技术栈标签
// README 条目自带的指示 emoji 也参与匹配
func extractTechstack(text string, tokens map[string]bool, glyphs string) []string {
	var stack []string
	for _, rule := range techVocabulary {
		if techMatches(rule, text, tokens, glyphs) {
			stack = append(stack, rule.label)
		}
	}
	return stack
}

func techMatches(rule techRule, text string, tokens map[string]bool, glyphs string) bool {
	for _, tok := range rule.tokens {
		if tokens[tok] {
			return true
		}
	}
	for _, phrase := range rule.phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return rule.glyph != "" && glyphs != "" && strings.Contains(glyphs, rule.glyph)
}

// extractKeywords 从描述中提取关键词：分词、去停用词、去短词、
// 按首次出现顺序去重（保证可复现，不依赖 map 遍历顺序）
func extractKeywords(description string) []string {
	var keywords []string
	seen := map[string]bool{}
	for _, tok := range keywordRegexp.FindAllString(strings.ToLower(description), -1) {
		if len(tok) <= 2 || stopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		keywords = append(keywords, tok)
	}
	return keywords
}

// assignEmojis 由分类和技术栈确定性地推导指示 emoji 序列:
// 分类 emoji 在前，之后按词表顺序跟上有 glyph 的技术栈 emoji
func assignEmojis(category string, techstack []string) []string {
	emojis := []string{categoryEmoji[category]}
	inStack := map[string]bool{}
	for _, label := range techstack {
		inStack[label] = true
	}
	for _, rule := range techVocabulary {
		if rule.glyph != "" && inStack[rule.label] {
			emojis = append(emojis, rule.glyph)
		}
	}
	return emojis
}
