package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config 健康洞察服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig

	// 洞察服务特定配置
	Insights struct {
		// Redis 缓存配置
		Cache struct {
			KeyPrefix      string // 洞察缓存键前缀，如 "care4mom:subject:"
			InsightsSuffix string // 洞察缓存键后缀，如 ":insights"
			InsightsTTL    int    // 洞察数据 TTL（秒），默认 60秒
		}

		// 聚合窗口配置
		DefaultWindowDays     int // 默认聚合窗口（天），默认 30
		CorrelationWindowDays int // 症状-情绪关联窗口（天），默认 14
		CorrelationLimit      int // 关联条目上限，默认 10
		HistoryLimit          int // 告警历史默认上限，默认 20
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	// 从环境变量加载（默认值）
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "care4mom")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	// 洞察服务配置
	cfg.Insights.Cache.KeyPrefix = getEnv("CACHE_INSIGHTS_PREFIX", "care4mom:subject:")
	cfg.Insights.Cache.InsightsSuffix = ":insights"
	cfg.Insights.Cache.InsightsTTL = getEnvInt("CACHE_INSIGHTS_TTL", 60)

	cfg.Insights.DefaultWindowDays = 30
	cfg.Insights.CorrelationWindowDays = 14
	cfg.Insights.CorrelationLimit = 10
	cfg.Insights.HistoryLimit = 20

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
