package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cfg is the process-wide configuration, set by LoadConfig.
var Cfg *Config

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	DB     DBConfig     `mapstructure:"database"`
	Redis  RedisConfig  `mapstructure:"redis"`
	JWT    JWTConfig    `mapstructure:"jwt"`
	AWS    AWSConfig    `mapstructure:"aws"`
	Stats  StatsConfig  `mapstructure:"stats"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Port      int  `mapstructure:"port"`
	DevRoutes bool `mapstructure:"dev_routes"`
}

type DBConfig struct {
	Host        string `mapstructure:"host"`
	Port        string `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	Name        string `mapstructure:"name"`
	SSLMode     string `mapstructure:"sslmode"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"` // minutes
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type AWSConfig struct {
	Region         string `mapstructure:"region"`
	SNSPlatformArn string `mapstructure:"sns_platform_arn"`
}

type StatsConfig struct {
	IncrementMode        string        `mapstructure:"increment_mode"` // atomic|locked
	Timezone             string        `mapstructure:"timezone"`
	ReconcileSpec        string        `mapstructure:"reconcile_spec"`
	ReconcileConcurrency int           `mapstructure:"reconcile_concurrency"`
	LockTTL              time.Duration `mapstructure:"lock_ttl"`
}

// Location resolves the timezone used to cut meals into days. Falls back to time.Local.
func (c StatsConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("unknown stats timezone, using local time", "timezone", c.Timezone, "err", err)
		return time.Local
	}
	return loc
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// env var names kept short and flat, the way the deployment .env files spell them
var envBindings = map[string]string{
	"server.port":                 "PORT",
	"server.dev_routes":           "DEV_ROUTES",
	"database.host":               "DB_HOST",
	"database.port":               "DB_PORT",
	"database.user":               "DB_USER",
	"database.password":           "DB_PASSWORD",
	"database.name":               "DB_NAME",
	"database.sslmode":            "DB_SSLMODE",
	"database.max_idle":           "DB_MAX_IDLE",
	"database.max_open":           "DB_MAX_OPEN",
	"database.max_lifetime":       "DB_MAX_LIFETIME",
	"redis.addr":                  "REDIS_ADDR",
	"redis.password":              "REDIS_PASSWORD",
	"redis.db":                    "REDIS_DB",
	"redis.pool_size":             "REDIS_POOL_SIZE",
	"jwt.secret":                  "JWT_SECRET",
	"aws.region":                  "AWS_REGION",
	"aws.sns_platform_arn":        "SNS_FCM_ARN",
	"stats.increment_mode":        "STATS_INCREMENT_MODE",
	"stats.timezone":              "STATS_TIMEZONE",
	"stats.reconcile_spec":        "STATS_RECONCILE_SPEC",
	"stats.reconcile_concurrency": "STATS_RECONCILE_CONCURRENCY",
	"stats.lock_ttl":              "STATS_LOCK_TTL",
	"log.level":                   "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle", 5)
	v.SetDefault("database.max_open", 20)
	v.SetDefault("database.max_lifetime", 30)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("aws.region", "ap-south-1")
	v.SetDefault("stats.increment_mode", "atomic")
	v.SetDefault("stats.reconcile_spec", "@every 10m")
	v.SetDefault("stats.reconcile_concurrency", 4)
	v.SetDefault("stats.lock_ttl", 5*time.Second)
	v.SetDefault("log.level", "info")
}

// LoadConfig reads .env (optional), configs/config.yaml (optional) and the environment, in
// increasing precedence, into Cfg.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded, using process environment")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg
	return &cfg, nil
}
