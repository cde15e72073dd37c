package github

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"

	"github.com/wanghaisheng/mcp-server-dataset/internal/common"
	"github.com/wanghaisheng/mcp-server-dataset/internal/domain"
)

// Searcher 实现了 port.Collector 接口
// 按关键词集合分页搜索 GitHub 仓库，按 star/fork 阈值过滤
type Searcher struct {
	client     *github.Client
	keywords   []string
	minStars   int
	minForks   int
	maxPages   int // 单个关键词的翻页上限，防止过宽的关键词无限翻页
	retryDelay time.Duration
}

// NewSearcher 初始化 GitHub 客户端
// token 为空字符串时匿名访问（限制 60 次/小时）
func NewSearcher(token string, keywords []string, minStars, minForks, maxPages int) *Searcher {
	var client *github.Client

	if token == "" {
		client = github.NewClient(nil)
	} else {
		ctx := context.Background()
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(ctx, ts)
		client = github.NewClient(tc)
	}

	return &Searcher{
		client:     client,
		keywords:   keywords,
		minStars:   minStars,
		minForks:   minForks,
		maxPages:   maxPages,
		retryDelay: 2 * time.Second,
	}
}

// Collect 逐个关键词执行分页搜索，产出满足阈值的条目
// 某个关键词重试耗尽只是放弃它剩余的页，运行继续处理下一个关键词
func (s *Searcher) Collect(ctx context.Context) ([]*domain.RawEntry, error) {
	var entries []*domain.RawEntry
	failed := 0

	for _, keyword := range s.keywords {
		found, err := s.searchKeyword(ctx, keyword)
		if err != nil {
			log.Printf("[search] ❌ 关键词 %q 搜索失败: %v，跳过剩余页", keyword, err)
			failed++
			continue
		}
		entries = append(entries, found...)
	}

	if failed == len(s.keywords) && len(entries) == 0 {
		// 所有关键词都失败才算来源级失败
		return nil, common.NewError(common.ErrCodeGitHubAPI, "所有关键词的搜索均失败")
	}

	log.Printf("[search] 搜索完成，共 %d 个条目（%d 个关键词失败）", len(entries), failed)
	return entries, nil
}

// searchKeyword 对单个关键词翻页搜索，直到没有下一页或触达翻页上限
func (s *Searcher) searchKeyword(ctx context.Context, keyword string) ([]*domain.RawEntry, error) {
	var entries []*domain.RawEntry

	opts := &github.SearchOptions{
		Sort:  "stars",
		Order: "desc",
		ListOptions: github.ListOptions{
			PerPage: 100,
			Page:    1,
		},
	}

	for page := 1; page <= s.maxPages; page++ {
		opts.Page = page

		var result *github.RepositoriesSearchResult
		var resp *github.Response
		err := common.Do(ctx, func() error {
			var apiErr error
			result, resp, apiErr = s.client.Search.Repositories(ctx, keyword, opts)
			return apiErr
		},
			common.WithMaxRetries(3),
			common.WithInitialDelay(s.retryDelay),
			common.WithMaxDelay(60*time.Second),
			common.WithRetryIf(isRetryable),
		)
		if err != nil {
			if len(entries) > 0 {
				// 已拿到的页不丢，只放弃后面的页
				log.Printf("[search] ⚠️ 关键词 %q 第 %d 页失败: %v，保留前 %d 个条目", keyword, page, err, len(entries))
				return entries, nil
			}
			return nil, fmt.Errorf("关键词 %q 搜索失败: %w", keyword, err)
		}

		for _, item := range result.Repositories {
			entry, ok := s.toRawEntry(item)
			if !ok {
				continue
			}
			entries = append(entries, entry)
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
	}

	return entries, nil
}

// toRawEntry 把一条搜索结果转换为 RawEntry
// 缺少名字或 URL 的畸形结果、以及不满足阈值的仓库返回 ok=false
func (s *Searcher) toRawEntry(item *github.Repository) (*domain.RawEntry, bool) {
	if item.GetName() == "" || item.GetHTMLURL() == "" {
		return nil, false
	}
	if item.GetStargazersCount() < s.minStars || item.GetForksCount() < s.minForks {
		return nil, false
	}

	return &domain.RawEntry{
		Name:        item.GetName(),
		Description: item.GetDescription(),
		URL:         item.GetHTMLURL(),
		Source:      domain.SourceSearch,
		Stars:       item.GetStargazersCount(),
		Forks:       item.GetForksCount(),
	}, true
}

// isRetryable 判断错误是否值得退避重试:
// 限流、滥用检测、5xx 和网络错误重试，其余 4xx 快速失败
func isRetryable(err error) bool {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		return respErr.Response != nil && respErr.Response.StatusCode >= 500
	}
	// 非 API 错误（超时、连接被拒等）按瞬时错误处理
	return true
}
