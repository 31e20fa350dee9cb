package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // dev/prod

	DatabaseURL      string // あれば最優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	// 上流のIDプロバイダが署名したJWTを検証する鍵
	JWTSecret string

	LogLevel  string // debug/info/warn/error
	LogFormat string // json/console

	// 空なら注文番号はDBの件数から採番
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// 空ならメトリクスは外に出さない
	OTLPEndpoint string
	OTLPInsecure bool
	ServiceName  string

	// trueなら注文ステータスの遷移表を強制する
	StrictOrderTransitions bool

	ShutdownTimeout time.Duration
}

// Loadは.env（任意）と環境変数から設定を読む
func Load() (Config, error) {
	// .envは無くてもよい
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Port:  v.GetString("PORT"),
		GoEnv: v.GetString("GO_ENV"),

		DatabaseURL:      v.GetString("DATABASE_URL"),
		PostgresUser:     v.GetString("POSTGRES_USER"),
		PostgresPassword: v.GetString("POSTGRES_PASSWORD"),
		PostgresDB:       v.GetString("POSTGRES_DB"),
		PostgresHost:     v.GetString("POSTGRES_HOST"),
		PostgresPort:     v.GetInt("POSTGRES_PORT"),
		PostgresSSLMode:  v.GetString("POSTGRES_SSLMODE"),

		JWTSecret: v.GetString("JWT_SECRET"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure: v.GetBool("OTEL_EXPORTER_OTLP_INSECURE"),
		ServiceName:  v.GetString("OTEL_SERVICE_NAME"),

		StrictOrderTransitions: v.GetBool("STRICT_ORDER_TRANSITIONS"),

		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
	}

	//必須チェック
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.PostgresPort <= 0 {
		return Config{}, fmt.Errorf("POSTGRES_PORT must be number")
	}
	switch cfg.GoEnv {
	case "dev", "prod", "test":
	default:
		return Config{}, fmt.Errorf("GO_ENV must be dev, prod or test: %q", cfg.GoEnv)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "dev")

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "postgres")
	v.SetDefault("POSTGRES_DB", "storefront")
	v.SetDefault("POSTGRES_SSLMODE", "disable")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", true)
	v.SetDefault("OTEL_SERVICE_NAME", "storefront")

	v.SetDefault("STRICT_ORDER_TRANSITIONS", false)
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
}

// DSNはpostgres接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// Addrはechoに渡すlisten先
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}
