package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const configFilePathENV = "CONFIG_FILE"

// Config ...
type Config struct {
	Capital struct {
		BaseURL    string `mapstructure:"base_url"`
		StreamURL  string `mapstructure:"stream_url"` // empty = polling only
		APIKey     string `mapstructure:"api_key"`
		Identifier string `mapstructure:"identifier"`
		Password   string `mapstructure:"password"`
	} `mapstructure:"capital"`

	Trading struct {
		Interval          time.Duration `mapstructure:"interval"`
		ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
		// Ratchet step: TP is pushed to entry*(1±tp_move_pct) and never back.
		TPMovePct float64 `mapstructure:"tp_move_pct"`
		// Unrealized profit fraction at which SL moves to entry.
		BreakevenTrigger float64 `mapstructure:"breakeven_trigger"`
		// Raw TP/SL offset from the reference price before the min-distance clamp.
		ProtectiveOffset float64 `mapstructure:"protective_offset"`
		RepairStopLoss   bool    `mapstructure:"repair_stop_loss"`
		RiskPct          float64 `mapstructure:"risk_pct"` // fraction of balance risked per entry
	} `mapstructure:"trading"`

	Strategy struct {
		Name          string  `mapstructure:"name"` // trend | meanrev
		SMAShort      int     `mapstructure:"sma_short"`
		SMALong       int     `mapstructure:"sma_long"`
		RSIPeriod     int     `mapstructure:"rsi_period"`
		RSIOverbought float64 `mapstructure:"rsi_overbought"`
		ATRPeriod     int     `mapstructure:"atr_period"`
		HistorySize   int     `mapstructure:"history_size"`
	} `mapstructure:"strategy"`

	Cache struct {
		PriceTTL    time.Duration `mapstructure:"price_ttl"`
		DistanceTTL time.Duration `mapstructure:"distance_ttl"`
	} `mapstructure:"cache"`

	Service struct {
		WebhookAddr string `mapstructure:"webhook_addr"`
		HealthAddr  string `mapstructure:"health_addr"`
		MetricsAddr string `mapstructure:"metrics_addr"`
	} `mapstructure:"service"`

	Telegram struct {
		Token  string `mapstructure:"token"`
		ChatID int64  `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`

	DB string `mapstructure:"db_dsn"` // empty = journal disabled

	Jaeger struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"jaeger"`

	InstrumentsFile string `mapstructure:"instruments_file"`
}

func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}

	v := viper.New()
	v.SetConfigFile("configs/" + configFileName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Credentials come from the environment, never from the file.
	_ = v.BindEnv("capital.api_key", "CAPITAL_API_KEY")
	_ = v.BindEnv("capital.identifier", "CAPITAL_IDENTIFIER")
	_ = v.BindEnv("capital.password", "CAPITAL_API_PASSWORD")
	_ = v.BindEnv("telegram.token", "TELEGRAM_TOKEN")
	_ = v.BindEnv("db_dsn", "DATABASE_DSN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if config.Capital.APIKey == "" || config.Capital.Identifier == "" || config.Capital.Password == "" {
		return nil, fmt.Errorf("CAPITAL_API_KEY, CAPITAL_IDENTIFIER and CAPITAL_API_PASSWORD are required")
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("capital.base_url", "https://demo-api-capital.backend-capital.com/api/v1")

	v.SetDefault("trading.interval", "300s")
	v.SetDefault("trading.reconcile_interval", "300s")
	v.SetDefault("trading.tp_move_pct", 0.005)
	v.SetDefault("trading.breakeven_trigger", 0.01)
	v.SetDefault("trading.protective_offset", 0.005)
	v.SetDefault("trading.repair_stop_loss", false)
	v.SetDefault("trading.risk_pct", 0.02)

	v.SetDefault("strategy.name", "trend")
	v.SetDefault("strategy.sma_short", 10)
	v.SetDefault("strategy.sma_long", 20)
	v.SetDefault("strategy.rsi_period", 14)
	v.SetDefault("strategy.rsi_overbought", 70.0)
	v.SetDefault("strategy.atr_period", 14)
	v.SetDefault("strategy.history_size", 100)

	v.SetDefault("cache.price_ttl", "60s")
	v.SetDefault("cache.distance_ttl", "3600s")

	v.SetDefault("service.webhook_addr", ":5000")
	v.SetDefault("service.health_addr", ":8080")
	v.SetDefault("service.metrics_addr", ":9090")

	v.SetDefault("jaeger.host", "localhost")
	v.SetDefault("jaeger.port", 6831)

	v.SetDefault("instruments_file", "configs/instruments.yaml")
}

// MinHistory is the shortest price series a strategy will act on.
func (c *Config) MinHistory() int {
	if c.Strategy.Name == "meanrev" {
		return c.Strategy.ATRPeriod
	}
	return c.Strategy.SMALong
}
