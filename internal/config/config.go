package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Engine    EngineConfig    `mapstructure:"engine"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// EngineConfig 掌握度引擎调优参数
type EngineConfig struct {
	MasteryThreshold    float64 `mapstructure:"mastery_threshold"`     // 掌握判定阈值
	MaxSessionQuestions int     `mapstructure:"max_session_questions"` // 单次会话最大题数
	RecentWindowHours   int     `mapstructure:"recent_window_hours"`   // “近期做过”的回看窗口
	DefaultPMastery     float64 `mapstructure:"default_p_mastery"`
	DefaultPLearn       float64 `mapstructure:"default_p_learn"`
	DefaultPSlip        float64 `mapstructure:"default_p_slip"`
	DefaultPGuess       float64 `mapstructure:"default_p_guess"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("MASTERY_ENGINE")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	viper.SetDefault("engine.mastery_threshold", 0.85)
	viper.SetDefault("engine.max_session_questions", 10)
	viper.SetDefault("engine.recent_window_hours", 24)
	viper.SetDefault("engine.default_p_mastery", 0.3)
	viper.SetDefault("engine.default_p_learn", 0.1)
	viper.SetDefault("engine.default_p_slip", 0.1)
	viper.SetDefault("engine.default_p_guess", 0.25)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Engine.MasteryThreshold <= 0 || cfg.Engine.MasteryThreshold > 1 {
		return nil, fmt.Errorf("engine.mastery_threshold must be in (0,1], got %v", cfg.Engine.MasteryThreshold)
	}
	if cfg.Engine.MaxSessionQuestions <= 0 {
		return nil, fmt.Errorf("engine.max_session_questions must be positive, got %d", cfg.Engine.MaxSessionQuestions)
	}

	return &cfg, nil
}
