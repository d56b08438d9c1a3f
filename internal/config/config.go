package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	DB           DBConfig           `mapstructure:"db"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Remote       RemoteConfig       `mapstructure:"remote"`
	Sync         SyncConfig         `mapstructure:"sync"`
	Jobs         JobsConfig         `mapstructure:"jobs"`
	Cron         CronConfig         `mapstructure:"cron"`
	Webhook      WebhookConfig      `mapstructure:"webhook"`
	Notification NotificationConfig `mapstructure:"notification"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	Output            string `mapstructure:"output"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// RedisConfig is optional. An empty Addr keeps job locks in process memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RemoteConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Token           string        `mapstructure:"token"`
	Timeout         time.Duration `mapstructure:"timeout"`
	BatchSize       int           `mapstructure:"batch_size"`
	Concurrency     int           `mapstructure:"concurrency"`
	MaxPages        int           `mapstructure:"max_pages"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerTimeout  time.Duration `mapstructure:"breaker_timeout"`
	Endpoints       EndpointPaths `mapstructure:"endpoints"`
}

type EndpointPaths struct {
	Equipment      string `mapstructure:"equipment"`
	RunningTime    string `mapstructure:"running_time"`
	WorkOrders     string `mapstructure:"work_orders"`
	Materials      string `mapstructure:"materials"`
	DailyPlantData string `mapstructure:"daily_plant_data"`
}

type SyncConfig struct {
	Timezone              string        `mapstructure:"timezone"`
	WorkOrderLookbackDays int           `mapstructure:"work_order_lookback_days"`
	RegionalCodes         []string      `mapstructure:"regional_codes"`
	StuckAfter            time.Duration `mapstructure:"stuck_after"`
	LogRetention          time.Duration `mapstructure:"log_retention"`
	MaxFailureDetails     int           `mapstructure:"max_failure_details"`
}

type JobsConfig struct {
	Workers     int `mapstructure:"workers"`
	MaxAttempts int `mapstructure:"max_attempts"`
	QueueSize   int `mapstructure:"queue_size"`
}

type CronConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Equipment      string `mapstructure:"equipment"`
	RunningTime    string `mapstructure:"running_time"`
	WorkOrders     string `mapstructure:"work_orders"`
	Materials      string `mapstructure:"materials"`
	DailyPlantData string `mapstructure:"daily_plant_data"`
	HealthCheck    string `mapstructure:"health_check"`
	PruneLogs      string `mapstructure:"prune_logs"`
}

type WebhookConfig struct {
	Key        string `mapstructure:"key"`
	RequireKey bool   `mapstructure:"require_key"`
}

type NotificationConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Webhook  WebhookTarget  `mapstructure:"webhook"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type WebhookTarget struct {
	URL string `mapstructure:"url"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CMMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	setDefaults(v)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("log.output", "stdout")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("remote.base_url", "")
	v.SetDefault("remote.token", "")
	v.SetDefault("remote.timeout", "300s")
	v.SetDefault("remote.batch_size", 5)
	v.SetDefault("remote.concurrency", 10)
	v.SetDefault("remote.max_pages", 50)
	v.SetDefault("remote.rate_limit", 0)
	v.SetDefault("remote.breaker_failures", 5)
	v.SetDefault("remote.breaker_timeout", "1m")
	v.SetDefault("remote.endpoints.equipment", "/equipments")
	v.SetDefault("remote.endpoints.running_time", "/equipment-running-times")
	v.SetDefault("remote.endpoints.work_orders", "/work-orders")
	v.SetDefault("remote.endpoints.materials", "/equipment-work-order-materials")
	v.SetDefault("remote.endpoints.daily_plant_data", "/daily-plant-data")

	v.SetDefault("sync.timezone", "Asia/Jakarta")
	v.SetDefault("sync.work_order_lookback_days", 7)
	v.SetDefault("sync.regional_codes", []string{})
	v.SetDefault("sync.stuck_after", "2h")
	v.SetDefault("sync.log_retention", "720h")
	v.SetDefault("sync.max_failure_details", 50)

	v.SetDefault("jobs.workers", 3)
	v.SetDefault("jobs.max_attempts", 3)
	v.SetDefault("jobs.queue_size", 100)

	// Six-field specs: the cron runner parses seconds.
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.equipment", "0 0 1 * * *")
	v.SetDefault("cron.running_time", "0 30 1 * * *")
	v.SetDefault("cron.work_orders", "0 0 2 * * *")
	v.SetDefault("cron.materials", "0 30 2 * * *")
	v.SetDefault("cron.daily_plant_data", "0 0 3 * * *")
	v.SetDefault("cron.health_check", "@every 30m")
	v.SetDefault("cron.prune_logs", "0 0 4 * * *")

	v.SetDefault("webhook.key", "")
	v.SetDefault("webhook.require_key", false)

	v.SetDefault("notification.telegram.bot_token", "")
	v.SetDefault("notification.telegram.chat_id", "")
	v.SetDefault("notification.webhook.url", "")
}
