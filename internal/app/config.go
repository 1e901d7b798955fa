package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// ConfigFileEnv указывает на необязательный YAML-файл конфигурации.
const ConfigFileEnv = "STOREFRONT_CONFIG_FILE"

// Config описывает настройки запуска приложения.
type Config struct {
	GRPCAddr    string
	HTTPAddr    string
	MetricsAddr string
	LogLevel    string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool
	PostgresMaxConns    int

	// Пустой список брокеров отключает Kafka.
	KafkaBrokers      []string
	KafkaGroupID      string
	KafkaOrderTopic   string
	KafkaSummaryTopic string
	KafkaMaxRetries   int

	CashboxEnabled        bool
	CashboxTimezone       string
	CashboxOpeningBalance decimal.Decimal
	CashboxInterval       time.Duration
}

// DefaultConfig возвращает настройки для локального запуска на in-memory хранилище.
func DefaultConfig() Config {
	return Config{
		GRPCAddr:    ":50051",
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
		LogLevel:    "info",

		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		PostgresMaxConns:    20,

		KafkaGroupID:      "storefront-order-items",
		KafkaOrderTopic:   kafka.TopicOrderEvents,
		KafkaSummaryTopic: kafka.TopicOrderSummaries,
		KafkaMaxRetries:   3,

		CashboxEnabled:        true,
		CashboxTimezone:       "UTC",
		CashboxOpeningBalance: decimal.Zero,
		CashboxInterval:       15 * time.Minute,
	}
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("postgres storage requires STOREFRONT_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.StorageDriver)
	}
	if c.CashboxEnabled {
		if _, err := c.Location(); err != nil {
			return err
		}
		if c.CashboxOpeningBalance.IsNegative() {
			return fmt.Errorf("cashbox opening balance must not be negative")
		}
	}
	return nil
}

// Location возвращает часовой пояс, в котором считается бизнес-дата кассы.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.CashboxTimezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid cashbox timezone %q: %w", name, err)
	}
	return loc, nil
}

// LoadConfig собирает конфигурацию: значения по умолчанию, затем YAML-файл, затем окружение.
// Некорректные значения не прерывают загрузку и возвращаются предупреждениями.
func LoadConfig(lookup func(string) (string, bool)) (Config, []string, error) {
	cfg := DefaultConfig()
	var warnings []string

	if path, ok := lookup(ConfigFileEnv); ok && strings.TrimSpace(path) != "" {
		file, err := readConfigFile(path)
		if err != nil {
			return Config{}, nil, err
		}
		warnings = append(warnings, file.apply(&cfg)...)
	}

	warnings = append(warnings, readConfigFromEnv(&cfg, lookup)...)
	return cfg, warnings, nil
}

// LogWarnings печатает предупреждения загрузки конфигурации.
func LogWarnings(logger *log.Entry, warnings []string) {
	for _, warning := range warnings {
		logger.Warn(warning)
	}
}

type fileConfig struct {
	GRPCAddr    string `yaml:"grpc_addr"`
	HTTPAddr    string `yaml:"http_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`

	Storage struct {
		Driver      string `yaml:"driver"`
		PostgresDSN string `yaml:"postgres_dsn"`
		AutoMigrate *bool  `yaml:"auto_migrate"`
		MaxConns    int    `yaml:"max_conns"`
	} `yaml:"storage"`

	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		GroupID      string   `yaml:"group_id"`
		OrderTopic   string   `yaml:"order_topic"`
		SummaryTopic string   `yaml:"summary_topic"`
		MaxRetries   int      `yaml:"max_retries"`
	} `yaml:"kafka"`

	Cashbox struct {
		Enabled        *bool  `yaml:"enabled"`
		Timezone       string `yaml:"timezone"`
		OpeningBalance string `yaml:"opening_balance"`
		Interval       string `yaml:"interval"`
	} `yaml:"cashbox"`
}

func readConfigFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config file: %w", err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fileConfig{}, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return file, nil
}

func (f fileConfig) apply(cfg *Config) []string {
	var warnings []string

	setString(&cfg.GRPCAddr, f.GRPCAddr)
	setString(&cfg.HTTPAddr, f.HTTPAddr)
	setString(&cfg.MetricsAddr, f.MetricsAddr)
	setString(&cfg.LogLevel, f.LogLevel)

	setString(&cfg.StorageDriver, f.Storage.Driver)
	setString(&cfg.PostgresDSN, f.Storage.PostgresDSN)
	if f.Storage.AutoMigrate != nil {
		cfg.PostgresAutoMigrate = *f.Storage.AutoMigrate
	}
	if f.Storage.MaxConns > 0 {
		cfg.PostgresMaxConns = f.Storage.MaxConns
	}

	if brokers := cleanList(f.Kafka.Brokers); len(brokers) > 0 {
		cfg.KafkaBrokers = brokers
	}
	setString(&cfg.KafkaGroupID, f.Kafka.GroupID)
	setString(&cfg.KafkaOrderTopic, f.Kafka.OrderTopic)
	setString(&cfg.KafkaSummaryTopic, f.Kafka.SummaryTopic)
	if f.Kafka.MaxRetries > 0 {
		cfg.KafkaMaxRetries = f.Kafka.MaxRetries
	}

	if f.Cashbox.Enabled != nil {
		cfg.CashboxEnabled = *f.Cashbox.Enabled
	}
	setString(&cfg.CashboxTimezone, f.Cashbox.Timezone)
	if raw := strings.TrimSpace(f.Cashbox.OpeningBalance); raw != "" {
		if balance, err := decimal.NewFromString(raw); err == nil {
			cfg.CashboxOpeningBalance = balance
		} else {
			warnings = append(warnings, fmt.Sprintf("config file: invalid cashbox.opening_balance %q, keeping %s", raw, cfg.CashboxOpeningBalance))
		}
	}
	if raw := strings.TrimSpace(f.Cashbox.Interval); raw != "" {
		if interval, err := time.ParseDuration(raw); err == nil && interval > 0 {
			cfg.CashboxInterval = interval
		} else {
			warnings = append(warnings, fmt.Sprintf("config file: invalid cashbox.interval %q, keeping %s", raw, cfg.CashboxInterval))
		}
	}

	return warnings
}

// readConfigFromEnv переопределяет cfg переменными окружения STOREFRONT_*.
func readConfigFromEnv(cfg *Config, lookup func(string) (string, bool)) []string {
	var warnings []string
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}
	warn := func(key, value string, kept interface{}) {
		warnings = append(warnings, fmt.Sprintf("invalid %s=%q, keeping %v", key, value, kept))
	}

	if v, ok := get("STOREFRONT_GRPC_ADDR"); ok {
		cfg.GRPCAddr = v
	}
	if v, ok := get("STOREFRONT_HTTP_ADDR"); ok {
		cfg.HTTPAddr = v
	}
	if v, ok := get("STOREFRONT_METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := get("STOREFRONT_LOG_LEVEL"); ok {
		if _, err := log.ParseLevel(v); err == nil {
			cfg.LogLevel = v
		} else {
			warn("STOREFRONT_LOG_LEVEL", v, cfg.LogLevel)
		}
	}

	if v, ok := get("STOREFRONT_STORAGE_DRIVER"); ok {
		cfg.StorageDriver = strings.ToLower(v)
	}
	if v, ok := get("STOREFRONT_POSTGRES_DSN"); ok {
		cfg.PostgresDSN = v
	}
	if v, ok := get("STOREFRONT_POSTGRES_AUTO_MIGRATE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.PostgresAutoMigrate = b
		} else {
			warn("STOREFRONT_POSTGRES_AUTO_MIGRATE", v, cfg.PostgresAutoMigrate)
		}
	}
	if v, ok := get("STOREFRONT_POSTGRES_MAX_CONNS"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PostgresMaxConns = n
		} else {
			warn("STOREFRONT_POSTGRES_MAX_CONNS", v, cfg.PostgresMaxConns)
		}
	}

	if v, ok := get("STOREFRONT_KAFKA_BROKERS"); ok {
		cfg.KafkaBrokers = cleanList(strings.Split(v, ","))
	}
	if v, ok := get("STOREFRONT_KAFKA_GROUP_ID"); ok {
		cfg.KafkaGroupID = v
	}
	if v, ok := get("STOREFRONT_KAFKA_ORDER_TOPIC"); ok {
		cfg.KafkaOrderTopic = v
	}
	if v, ok := get("STOREFRONT_KAFKA_SUMMARY_TOPIC"); ok {
		cfg.KafkaSummaryTopic = v
	}
	if v, ok := get("STOREFRONT_KAFKA_MAX_RETRIES"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.KafkaMaxRetries = n
		} else {
			warn("STOREFRONT_KAFKA_MAX_RETRIES", v, cfg.KafkaMaxRetries)
		}
	}

	if v, ok := get("STOREFRONT_CASHBOX_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CashboxEnabled = b
		} else {
			warn("STOREFRONT_CASHBOX_ENABLED", v, cfg.CashboxEnabled)
		}
	}
	if v, ok := get("STOREFRONT_CASHBOX_TIMEZONE"); ok {
		if _, err := time.LoadLocation(v); err == nil {
			cfg.CashboxTimezone = v
		} else {
			warn("STOREFRONT_CASHBOX_TIMEZONE", v, cfg.CashboxTimezone)
		}
	}
	if v, ok := get("STOREFRONT_CASHBOX_OPENING_BALANCE"); ok {
		if balance, err := decimal.NewFromString(v); err == nil && !balance.IsNegative() {
			cfg.CashboxOpeningBalance = balance
		} else {
			warn("STOREFRONT_CASHBOX_OPENING_BALANCE", v, cfg.CashboxOpeningBalance)
		}
	}
	if v, ok := get("STOREFRONT_CASHBOX_INTERVAL"); ok {
		if interval, err := time.ParseDuration(v); err == nil && interval > 0 {
			cfg.CashboxInterval = interval
		} else {
			warn("STOREFRONT_CASHBOX_INTERVAL", v, cfg.CashboxInterval)
		}
	}

	return warnings
}

func setString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
