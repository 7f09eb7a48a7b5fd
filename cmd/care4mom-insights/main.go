package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"care4mom-insights/internal/config"
	"care4mom-insights/internal/service"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	logger, err := initLogger(cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	// 3. 创建服务（连接数据库和 Redis，组装洞察引擎）
	insightsService, err := service.NewInsightsService(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create insights service",
			zap.Error(err),
		)
	}
	defer insightsService.Stop()

	logger.Info("Insights service started",
		zap.String("database", cfg.Database.Database),
		zap.Int("default_window_days", cfg.Insights.DefaultWindowDays),
	)

	// 4. 等待信号（优雅关闭）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received signal, shutting down",
		zap.String("signal", sig.String()),
	)

	logger.Info("Insights service stopped")
}

// initLogger 初始化日志
func initLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Log.Format == "json" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}
