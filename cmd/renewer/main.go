// Package main provides the one-shot renewer command: log in, renew
// every listed product once, report, exit.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"arcrenew/internal/config"
	"arcrenew/internal/logger"
	"arcrenew/internal/models"
	"arcrenew/internal/notify"
	"arcrenew/internal/panel"
	"arcrenew/internal/renew"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Define Command-Line Flags
	// ---------------------------
	configPath := flag.String("config", "", "Path to YAML config file (optional, defaults + env otherwise)")
	envPath := flag.String("env", ".env", "Path to .env file with credentials")
	logLevel := flag.String("log-level", "", "Override log level (debug, info, warn, error)")

	flag.Parse()

	// Load .env before the config layer reads the environment. A missing
	// file is fine when credentials come from the real environment.
	if err := godotenv.Load(*envPath); err != nil && *envPath != ".env" {
		fmt.Fprintf(os.Stderr, "failed to load env file %s: %v\n", *envPath, err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	log := logger.NewLogger(cfg.Logging.Level)

	log.Info("🚀 启动 ArcticCloud 自动续期")
	log.Info(fmt.Sprintf("📍 面板: %s", cfg.Panel.BaseURL))

	summary, err := runOnce(cfg, log)
	if err != nil {
		log.Error(fmt.Sprintf("❌ 续期运行失败: %v", err))
		os.Exit(1)
	}

	if summary.FailCount > 0 {
		os.Exit(1)
	}
}

// runOnce performs a complete renewal pass with a fresh session.
func runOnce(cfg *config.Config, log *logger.Logger) (*models.RunSummary, error) {
	startTime := time.Now()

	// Phase 1: session
	log.Info("Phase 1: 登录面板...")

	session, err := panel.NewSession(&cfg.Panel, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := session.Login(cfg.Panel.LoginURL(), cfg.Panel.Username, cfg.Panel.Password); err != nil {
		if errors.Is(err, panel.ErrBadCredentials) {
			return nil, err
		}

		return nil, fmt.Errorf("login failed: %w", err)
	}

	// Phase 2: renewal
	log.Info("Phase 2: 续期产品...")

	notifier, err := notify.NewNotifier(&cfg.Notify, cfg.Panel.ProxyURL, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	orchestrator := renew.NewOrchestrator(cfg, session, notifier, log)

	summary, err := orchestrator.Run()
	if err != nil {
		return nil, err
	}

	log.Info(fmt.Sprintf("✅ 完成: %d 个产品, 成功 %d, 失败 %d, 耗时 %v",
		summary.Total(), summary.SuccessCount, summary.FailCount, time.Since(startTime).Round(time.Second)))

	return summary, nil
}
