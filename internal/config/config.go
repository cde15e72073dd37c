package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/wanghaisheng/mcp-server-dataset/internal/common"
)

// DefaultKeywords 内置的 MCP 相关搜索关键词集合
// 未设置 KEYWORDS_ENV 时使用
var DefaultKeywords = []string{
	"model context protocol server",
	"mcp server",
	"mcp framework",
	"mcp sdk",
	"mcp template",
	"mcp utility",
	"mcp gateway",
	"mcp proxy",
	"mcp client",
	"mcp tutorial",
	"mcp example",
	"mcp database",
	"mcp api",
	"mcp storage",
	"mcp ai",
	"mcp chat",
	"mcp search",
}

// DefaultReadmeURL 精选列表的原始 README 地址
const DefaultReadmeURL = "https://raw.githubusercontent.com/punkpeye/awesome-mcp-servers/refs/heads/main/README.md"

// Config 保存一次运行的全部配置，启动时读取一次，之后不再变化
type Config struct {
	GithubToken string
	Keywords    []string
	MinStars    int
	MinForks    int
	MaxPages    int

	ReadmeURL string
	OutputDir string

	PostgresDSN   string // 为空时跳过数据库落库
	FeishuWebhook string // 为空时跳过运行摘要推送
}

// Load 读取 .env 文件和系统环境变量，返回填充好的 Config
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] 未找到 .env 文件，使用系统环境变量")
	}

	cfg := &Config{
		GithubToken:   os.Getenv("GITHUB_TOKEN"),
		Keywords:      parseKeywords(os.Getenv("KEYWORDS_ENV")),
		MinStars:      getEnvInt("MIN_STARS", 10),
		MinForks:      getEnvInt("MIN_FORKS", 5),
		MaxPages:      getEnvInt("MAX_PAGES", 5),
		ReadmeURL:     getEnv("README_URL", DefaultReadmeURL),
		OutputDir:     getEnv("OUTPUT_DIR", "data"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		FeishuWebhook: os.Getenv("FEISHU_WEBHOOK"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置合法性
func (c *Config) Validate() error {
	if c.MinStars < 0 {
		return common.NewError(common.ErrCodeInvalidInput, "MIN_STARS 不能为负数")
	}
	if c.MinForks < 0 {
		return common.NewError(common.ErrCodeInvalidInput, "MIN_FORKS 不能为负数")
	}
	if c.MaxPages < 1 {
		return common.NewError(common.ErrCodeInvalidInput, "MAX_PAGES 必须至少为 1")
	}
	if len(c.Keywords) == 0 {
		return common.NewError(common.ErrCodeInvalidInput, "搜索关键词不能为空")
	}
	return nil
}

// parseKeywords 解析逗号分隔的关键词列表，空串回退到内置集合
func parseKeywords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return DefaultKeywords
	}
	var keywords []string
	for _, kw := range strings.Split(raw, ",") {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return DefaultKeywords
	}
	return keywords
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("[config] %s=%q 不是合法整数，回退到默认值 %d", key, val, fallback)
		return fallback
	}
	return n
}
