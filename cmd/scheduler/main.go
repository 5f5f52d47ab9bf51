// Package main provides the scheduler daemon: the renewal pass runs on a
// cron schedule with a fresh session per run, until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arcrenew/internal/config"
	"arcrenew/internal/logger"
	"arcrenew/internal/models"
	"arcrenew/internal/notify"
	"arcrenew/internal/panel"
	"arcrenew/internal/renew"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	// 1. Define Command-Line Flags
	// ---------------------------
	configPath := flag.String("config", "", "Path to YAML config file (optional, defaults + env otherwise)")
	envPath := flag.String("env", ".env", "Path to .env file with credentials")
	cronSpec := flag.String("cron", "", "Override cron schedule (e.g. \"0 3 * * *\")")

	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && *envPath != ".env" {
		fmt.Fprintf(os.Stderr, "failed to load env file %s: %v\n", *envPath, err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	if *cronSpec != "" {
		cfg.Schedule.Cron = *cronSpec
	}

	log := logger.NewLoggerWithFile(cfg.Logging.Level, logger.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMb:  cfg.Logging.MaxSizeMb,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	log.Info("🚀 启动 ArcticCloud 续期守护进程")
	log.Info(fmt.Sprintf("📍 面板: %s", cfg.Panel.BaseURL))
	log.Info(fmt.Sprintf("⏰ 调度: %s", cfg.Schedule.Cron))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule.RunAtBoot || cfg.Schedule.RunOnce {
		runPass(cfg, log)
	}

	if cfg.Schedule.RunOnce {
		return
	}

	scheduler := cron.New()

	if _, err := scheduler.AddFunc(cfg.Schedule.Cron, func() {
		runPass(cfg, log)
	}); err != nil {
		log.Error(fmt.Sprintf("❌ 无效的调度表达式 %q: %v", cfg.Schedule.Cron, err))
		os.Exit(1)
	}

	scheduler.Start()

	<-ctx.Done()

	log.Info("⏹️ 收到停止信号，等待当前任务结束...")

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	log.Info("👋 守护进程已退出")
}

// runPass executes one scheduled renewal pass. A fresh session per pass
// keeps the daemon immune to server-side session expiry.
func runPass(cfg *config.Config, log *logger.Logger) {
	startTime := time.Now()

	log.Info("▶️ 开始本轮续期")

	summary, err := executePass(cfg, log)
	if err != nil {
		log.Error(fmt.Sprintf("❌ 本轮续期失败: %v", err))

		return
	}

	log.Info(fmt.Sprintf("✅ 本轮完成: %d 个产品, 成功 %d, 失败 %d, 耗时 %v",
		summary.Total(), summary.SuccessCount, summary.FailCount, time.Since(startTime).Round(time.Second)))
}

func executePass(cfg *config.Config, log *logger.Logger) (*models.RunSummary, error) {
	session, err := panel.NewSession(&cfg.Panel, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := session.Login(cfg.Panel.LoginURL(), cfg.Panel.Username, cfg.Panel.Password); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	notifier, err := notify.NewNotifier(&cfg.Notify, cfg.Panel.ProxyURL, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	return renew.NewOrchestrator(cfg, session, notifier, log).Run()
}
