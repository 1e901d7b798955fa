package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GRPCAddr != ":50051" {
		t.Errorf("expected GRPCAddr :50051, got %s", cfg.GRPCAddr)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected HTTPAddr :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("expected MetricsAddr :9090, got %s", cfg.MetricsAddr)
	}
	if cfg.StorageDriver != StorageDriverMemory {
		t.Errorf("expected StorageDriver %s, got %s", StorageDriverMemory, cfg.StorageDriver)
	}
	if !cfg.PostgresAutoMigrate {
		t.Error("expected PostgresAutoMigrate to be true")
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Errorf("kafka must be disabled by default, got brokers %v", cfg.KafkaBrokers)
	}
	if cfg.KafkaOrderTopic != kafka.TopicOrderEvents || cfg.KafkaSummaryTopic != kafka.TopicOrderSummaries {
		t.Errorf("unexpected default topics: %s %s", cfg.KafkaOrderTopic, cfg.KafkaSummaryTopic)
	}
	if !cfg.CashboxEnabled || cfg.CashboxInterval <= 0 {
		t.Errorf("cashbox worker should be enabled with positive interval: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must be valid: %v", err)
	}
}

func TestReadConfigFromEnv_Overrides(t *testing.T) {
	cfg := DefaultConfig()
	warnings := readConfigFromEnv(&cfg, mapLookup(map[string]string{
		"STOREFRONT_GRPC_ADDR":               "127.0.0.1:6000",
		"STOREFRONT_HTTP_ADDR":               ":8081",
		"STOREFRONT_METRICS_ADDR":            ":9191",
		"STOREFRONT_LOG_LEVEL":               "debug",
		"STOREFRONT_STORAGE_DRIVER":          "POSTGRES",
		"STOREFRONT_POSTGRES_DSN":            "postgres://storefront@localhost/storefront",
		"STOREFRONT_POSTGRES_AUTO_MIGRATE":   "false",
		"STOREFRONT_POSTGRES_MAX_CONNS":      "7",
		"STOREFRONT_KAFKA_BROKERS":           "k1:9092, k2:9092,,",
		"STOREFRONT_KAFKA_GROUP_ID":          "g-1",
		"STOREFRONT_KAFKA_MAX_RETRIES":       "5",
		"STOREFRONT_CASHBOX_TIMEZONE":        "Europe/Moscow",
		"STOREFRONT_CASHBOX_OPENING_BALANCE": "1500.50",
		"STOREFRONT_CASHBOX_INTERVAL":        "1m",
		"STOREFRONT_CASHBOX_ENABLED":         "true",
	}))

	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if cfg.GRPCAddr != "127.0.0.1:6000" || cfg.HTTPAddr != ":8081" || cfg.MetricsAddr != ":9191" {
		t.Fatalf("addresses not applied: %+v", cfg)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.LogLevel)
	}
	if cfg.StorageDriver != StorageDriverPostgres || cfg.PostgresAutoMigrate || cfg.PostgresMaxConns != 7 {
		t.Fatalf("storage settings not applied: %+v", cfg)
	}
	if strings.Join(cfg.KafkaBrokers, ",") != "k1:9092,k2:9092" {
		t.Errorf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.KafkaGroupID != "g-1" || cfg.KafkaMaxRetries != 5 {
		t.Errorf("kafka settings not applied: %+v", cfg)
	}
	if cfg.CashboxTimezone != "Europe/Moscow" || cfg.CashboxInterval != time.Minute {
		t.Errorf("cashbox settings not applied: %+v", cfg)
	}
	if !cfg.CashboxOpeningBalance.Equal(decimal.RequireFromString("1500.5")) {
		t.Errorf("unexpected opening balance %s", cfg.CashboxOpeningBalance)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config should be valid: %v", err)
	}
}

func TestReadConfigFromEnv_InvalidValuesKeepDefaults(t *testing.T) {
	tests := []struct {
		key   string
		value string
		check func(Config) bool
	}{
		{"STOREFRONT_LOG_LEVEL", "loud", func(c Config) bool { return c.LogLevel == "info" }},
		{"STOREFRONT_POSTGRES_AUTO_MIGRATE", "maybe", func(c Config) bool { return c.PostgresAutoMigrate }},
		{"STOREFRONT_POSTGRES_MAX_CONNS", "-1", func(c Config) bool { return c.PostgresMaxConns == 20 }},
		{"STOREFRONT_KAFKA_MAX_RETRIES", "many", func(c Config) bool { return c.KafkaMaxRetries == 3 }},
		{"STOREFRONT_CASHBOX_ENABLED", "yes please", func(c Config) bool { return c.CashboxEnabled }},
		{"STOREFRONT_CASHBOX_TIMEZONE", "Mars/Olympus", func(c Config) bool { return c.CashboxTimezone == "UTC" }},
		{"STOREFRONT_CASHBOX_OPENING_BALANCE", "-10", func(c Config) bool { return c.CashboxOpeningBalance.IsZero() }},
		{"STOREFRONT_CASHBOX_INTERVAL", "soon", func(c Config) bool { return c.CashboxInterval == 15*time.Minute }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := DefaultConfig()
			warnings := readConfigFromEnv(&cfg, mapLookup(map[string]string{tt.key: tt.value}))
			if len(warnings) != 1 || !strings.Contains(warnings[0], tt.key) {
				t.Fatalf("expected one warning about %s, got %v", tt.key, warnings)
			}
			if !tt.check(cfg) {
				t.Fatalf("default must be kept for %s: %+v", tt.key, cfg)
			}
		})
	}
}

func TestReadConfigFromEnv_BlankValuesIgnored(t *testing.T) {
	cfg := DefaultConfig()
	warnings := readConfigFromEnv(&cfg, mapLookup(map[string]string{
		"STOREFRONT_GRPC_ADDR":     "   ",
		"STOREFRONT_KAFKA_BROKERS": "",
	}))
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if cfg.GRPCAddr != ":50051" || len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("blank values must not override defaults: %+v", cfg)
	}
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := writeConfigFile(t, `
grpc_addr: ":7000"
http_addr: ":7001"
storage:
  driver: postgres
  postgres_dsn: postgres://file@localhost/storefront
  auto_migrate: false
kafka:
  brokers: ["file-broker:9092"]
  summary_topic: custom.summaries
cashbox:
  enabled: false
  opening_balance: "200"
  interval: 30m
`)

	cfg, warnings, err := LoadConfig(mapLookup(map[string]string{
		ConfigFileEnv:             path,
		"STOREFRONT_GRPC_ADDR":    ":7100",
		"STOREFRONT_POSTGRES_DSN": "postgres://env@localhost/storefront",
	}))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	if cfg.GRPCAddr != ":7100" {
		t.Errorf("env must override file grpc addr, got %s", cfg.GRPCAddr)
	}
	if cfg.HTTPAddr != ":7001" {
		t.Errorf("file http addr not applied, got %s", cfg.HTTPAddr)
	}
	if cfg.StorageDriver != StorageDriverPostgres || cfg.PostgresAutoMigrate {
		t.Errorf("file storage settings not applied: %+v", cfg)
	}
	if cfg.PostgresDSN != "postgres://env@localhost/storefront" {
		t.Errorf("env must override file dsn, got %s", cfg.PostgresDSN)
	}
	if len(cfg.KafkaBrokers) != 1 || cfg.KafkaBrokers[0] != "file-broker:9092" {
		t.Errorf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.KafkaSummaryTopic != "custom.summaries" || cfg.KafkaOrderTopic != kafka.TopicOrderEvents {
		t.Errorf("unexpected topics %s %s", cfg.KafkaOrderTopic, cfg.KafkaSummaryTopic)
	}
	if cfg.CashboxEnabled || cfg.CashboxInterval != 30*time.Minute || !cfg.CashboxOpeningBalance.Equal(decimal.NewFromInt(200)) {
		t.Errorf("file cashbox settings not applied: %+v", cfg)
	}
}

func TestLoadConfig_FileWarningsAndErrors(t *testing.T) {
	path := writeConfigFile(t, `
cashbox:
  opening_balance: lots
  interval: "-5m"
`)
	cfg, warnings, err := LoadConfig(mapLookup(map[string]string{ConfigFileEnv: path}))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected two warnings, got %v", warnings)
	}
	if !cfg.CashboxOpeningBalance.IsZero() || cfg.CashboxInterval != 15*time.Minute {
		t.Fatalf("defaults must be kept: %+v", cfg)
	}

	if _, _, err := LoadConfig(mapLookup(map[string]string{ConfigFileEnv: filepath.Join(t.TempDir(), "missing.yaml")})); err == nil {
		t.Fatal("expected error for missing config file")
	}

	broken := writeConfigFile(t, "grpc_addr: [unclosed")
	if _, _, err := LoadConfig(mapLookup(map[string]string{ConfigFileEnv: broken})); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "memory", mutate: func(*Config) {}},
		{name: "postgres without dsn", mutate: func(c *Config) { c.StorageDriver = StorageDriverPostgres }, wantErr: "STOREFRONT_POSTGRES_DSN"},
		{name: "postgres with dsn", mutate: func(c *Config) {
			c.StorageDriver = StorageDriverPostgres
			c.PostgresDSN = "postgres://localhost/storefront"
		}},
		{name: "unsupported driver", mutate: func(c *Config) { c.StorageDriver = "sqlite" }, wantErr: "unsupported storage driver"},
		{name: "bad timezone", mutate: func(c *Config) { c.CashboxTimezone = "Nowhere/Land" }, wantErr: "invalid cashbox timezone"},
		{name: "bad timezone ignored when cashbox disabled", mutate: func(c *Config) {
			c.CashboxEnabled = false
			c.CashboxTimezone = "Nowhere/Land"
		}},
		{name: "negative balance", mutate: func(c *Config) { c.CashboxOpeningBalance = decimal.NewFromInt(-1) }, wantErr: "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigLocation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CashboxTimezone = ""
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("empty timezone must resolve to UTC, got %v %v", loc, err)
	}
}
