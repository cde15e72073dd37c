package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wanghaisheng/mcp-server-dataset/internal/adapter/classifier"
	"github.com/wanghaisheng/mcp-server-dataset/internal/adapter/feishu"
	"github.com/wanghaisheng/mcp-server-dataset/internal/adapter/github"
	"github.com/wanghaisheng/mcp-server-dataset/internal/adapter/readme"
	"github.com/wanghaisheng/mcp-server-dataset/internal/adapter/storage"
	"github.com/wanghaisheng/mcp-server-dataset/internal/config"
	"github.com/wanghaisheng/mcp-server-dataset/internal/port"
	"github.com/wanghaisheng/mcp-server-dataset/internal/service"
)

func main() {
	// 1. 命令行参数
	source := flag.String("source", "all", "采集来源: all / readme / search")
	date := flag.String("date", "", "快照日期 (YYYY-MM-DD)，默认今天")
	interval := flag.Int("interval", 0, "定时执行间隔（分钟），0表示只执行一次")
	flag.Parse()

	// 2. 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ 配置加载失败: %v", err)
	}

	// 3. 根据模式分流
	if *interval > 0 {
		runScheduled(cfg, *source, *interval)
	} else {
		if err := executeCollectCycle(cfg, *source, *date); err != nil {
			log.Fatalf("❌ 采集失败: %v", err)
		}
	}
}

// runScheduled 运行定时采集任务
func runScheduled(cfg *config.Config, source string, interval int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 设置信号处理，优雅关闭
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(interval) * time.Minute)
	defer ticker.Stop()

	fmt.Printf("⏰ 定时执行模式已启动，每 %d 分钟执行一次\n", interval)
	fmt.Println("按下 Ctrl+C 可以优雅停止程序")

	// 立即执行一次，日期参数留空让每个周期自取当天
	if err := executeCollectCycle(cfg, source, ""); err != nil {
		log.Printf("❌ 本轮采集失败: %v", err)
	}

	for {
		select {
		case <-ticker.C:
			if err := executeCollectCycle(cfg, source, ""); err != nil {
				log.Printf("❌ 本轮采集失败: %v", err)
			}
		case <-sigChan:
			fmt.Println("\n👋 收到停止信号，正在退出...")
			return
		case <-ctx.Done():
			fmt.Println("👋 定时任务已停止")
			return
		}
	}
}

// executeCollectCycle 执行一次完整的采集周期
func executeCollectCycle(cfg *config.Config, source, date string) error {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	// 整个周期设置超时时间(10分钟)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// 按来源开关装配采集器
	var readmeCollector, searchCollector port.Collector
	if source == "all" || source == "readme" {
		readmeCollector = readme.New(cfg.ReadmeURL)
	}
	if source == "all" || source == "search" {
		searchCollector = github.NewSearcher(cfg.GithubToken, cfg.Keywords, cfg.MinStars, cfg.MinForks, cfg.MaxPages)
	}
	if readmeCollector == nil && searchCollector == nil {
		return fmt.Errorf("未知来源 %q，请使用 -source=all / readme / search", source)
	}

	store := storage.NewCSVStore(cfg.OutputDir, date)

	// 可选的数据库落库，初始化失败只降级不中止
	var history port.History
	if cfg.PostgresDSN != "" {
		pg, err := storage.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			log.Printf("⚠️ 数据库初始化失败: %v，本次运行跳过落库", err)
		} else {
			history = pg
		}
	}

	var notifier port.Notifier
	if cfg.FeishuWebhook != "" {
		notifier = feishu.NewNotifier(cfg.FeishuWebhook)
	}

	svc := service.NewCollectService(
		readmeCollector,
		searchCollector,
		classifier.New(),
		store,
		history,
		notifier,
		store.Path(),
	)

	_, err := svc.Run(ctx)
	return err
}
