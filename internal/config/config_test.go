package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wanghaisheng/mcp-server-dataset/internal/common"
)

func TestLoad_默认值(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("KEYWORDS_ENV", "")
	t.Setenv("MIN_STARS", "")
	t.Setenv("MIN_FORKS", "")
	t.Setenv("MAX_PAGES", "")
	t.Setenv("OUTPUT_DIR", "")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "", cfg.GithubToken)
	assert.Equal(t, DefaultKeywords, cfg.Keywords)
	assert.Equal(t, 10, cfg.MinStars)
	assert.Equal(t, 5, cfg.MinForks)
	assert.Equal(t, 5, cfg.MaxPages)
	assert.Equal(t, DefaultReadmeURL, cfg.ReadmeURL)
	assert.Equal(t, "data", cfg.OutputDir)
}

func TestLoad_环境变量覆盖(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("KEYWORDS_ENV", "mcp server, mcp gateway ,, ")
	t.Setenv("MIN_STARS", "100")
	t.Setenv("MIN_FORKS", "20")
	t.Setenv("OUTPUT_DIR", "snapshots")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "ghp_test", cfg.GithubToken)
	assert.Equal(t, []string{"mcp server", "mcp gateway"}, cfg.Keywords)
	assert.Equal(t, 100, cfg.MinStars)
	assert.Equal(t, 20, cfg.MinForks)
	assert.Equal(t, "snapshots", cfg.OutputDir)
}

func TestLoad_非法整数回退默认值(t *testing.T) {
	t.Setenv("MIN_STARS", "abc")
	t.Setenv("MIN_FORKS", "")
	t.Setenv("MAX_PAGES", "")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 10, cfg.MinStars)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		expectErr bool
	}{
		{
			name:      "合法配置",
			mutate:    func(c *Config) {},
			expectErr: false,
		},
		{
			name:      "负数 MIN_STARS",
			mutate:    func(c *Config) { c.MinStars = -1 },
			expectErr: true,
		},
		{
			name:      "负数 MIN_FORKS",
			mutate:    func(c *Config) { c.MinForks = -3 },
			expectErr: true,
		},
		{
			name:      "MAX_PAGES 为零",
			mutate:    func(c *Config) { c.MaxPages = 0 },
			expectErr: true,
		},
		{
			name:      "空关键词",
			mutate:    func(c *Config) { c.Keywords = nil },
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Keywords: []string{"mcp server"},
				MinStars: 10,
				MinForks: 5,
				MaxPages: 5,
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectErr {
				assert.Error(t, err)
				var appErr *common.AppError
				assert.ErrorAs(t, err, &appErr)
				assert.Equal(t, common.ErrCodeInvalidInput, appErr.Code)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
