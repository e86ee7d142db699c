// Package config defines all configuration for the market-making engine.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// sensitive fields overridable via MM_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	DryRun    bool            `mapstructure:"dry_run"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Trading   TradingConfig   `mapstructure:"trading" validate:"required"`
	Venues    []VenueConfig   `mapstructure:"venues" validate:"required,min=1,dive"`
	Strategy  StrategyConfig  `mapstructure:"strategy" validate:"required"`
	Risk      RiskConfig      `mapstructure:"risk" validate:"required"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Queues    QueueConfig     `mapstructure:"queues"`
	Store     StoreConfig     `mapstructure:"store"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

// WalletConfig holds the Ethereum wallet used for signing Polymarket orders.
// Unused by venues that don't need on-chain signing (left zero-value there).
type WalletConfig struct {
	PrivateKey    string `mapstructure:"private_key"`
	SignatureType int    `mapstructure:"signature_type"`
	FunderAddress string `mapstructure:"funder_address"`
	ChainID       int    `mapstructure:"chain_id"`
}

// TradingConfig names the single symbol this engine instance trades and
// its trading-unit conventions, per spec §6's Trading surface.
type TradingConfig struct {
	Symbol       string `mapstructure:"symbol" validate:"required"`
	MinQty       int64  `mapstructure:"min_qty" validate:"gte=0"`
	MaxQty       int64  `mapstructure:"max_qty" validate:"gt=0"`
	StepSize     int64  `mapstructure:"step_size" validate:"gt=0"`
	TickSize     int64  `mapstructure:"tick_size" validate:"gt=0"`
	PaperTrading bool   `mapstructure:"paper_trading"`
}

// VenueConfig names one venue adapter to connect and its endpoint
// overrides. Kind selects the concrete adapter ("polymarket" or "paper").
type VenueConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Kind        string `mapstructure:"kind" validate:"required,oneof=polymarket paper"`
	CLOBBaseURL string `mapstructure:"clob_base_url"`
	WSMarketURL string `mapstructure:"ws_market_url"`
	WSUserURL   string `mapstructure:"ws_user_url"`
	ApiKey      string `mapstructure:"api_key"`
	Secret      string `mapstructure:"secret"`
	Passphrase  string `mapstructure:"passphrase"`
}

// StrategyConfig tunes the quoter. MM fields feed Basic/InventoryAdjusted;
// A-S fields feed AvellanedaStoikov in addition to the shared MM fields.
type StrategyConfig struct {
	Variant           string  `mapstructure:"variant" validate:"required,oneof=basic inventory_adjusted avellaneda_stoikov"`
	MinSpreadBps      int64   `mapstructure:"min_spread_bps" validate:"gte=0"`
	MaxSpreadBps      int64   `mapstructure:"max_spread_bps" validate:"gtfield=MinSpreadBps"`
	TargetSpreadBps   int64   `mapstructure:"target_spread_bps" validate:"gte=0"`
	InventorySkewFactor int64 `mapstructure:"inventory_skew_factor"`
	DefaultOrderSize  int64   `mapstructure:"default_order_size" validate:"gt=0"`
	MinOrderSize      int64   `mapstructure:"min_order_size" validate:"gte=0"`
	MaxOrderSize      int64   `mapstructure:"max_order_size" validate:"gtfield=MinOrderSize"`
	MaxPosition       int64   `mapstructure:"max_position" validate:"gt=0"`
	MinQuoteLifeUs    int64   `mapstructure:"min_quote_life_us" validate:"gte=0"`

	// InventoryEmaAlpha is the EMA decay factor for the inventory_adjusted
	// variant's sigmoid skew; unused by the other two variants.
	InventoryEmaAlpha float64 `mapstructure:"inventory_ema_alpha" validate:"required_if=Variant inventory_adjusted,omitempty,gt=0,lte=1"`

	// Avellaneda-Stoikov parameters.
	Gamma float64 `mapstructure:"gamma" validate:"required_if=Variant avellaneda_stoikov"`
	Sigma float64 `mapstructure:"sigma" validate:"required_if=Variant avellaneda_stoikov"`
	K     float64 `mapstructure:"k" validate:"required_if=Variant avellaneda_stoikov"`
	T     float64 `mapstructure:"t" validate:"required_if=Variant avellaneda_stoikov"`

	// Toxic-flow detection, adapted from the teacher's FlowTracker.
	FlowWindow              time.Duration `mapstructure:"flow_window"`
	FlowToxicityThreshold   float64       `mapstructure:"flow_toxicity_threshold"`
	FlowCooldownPeriod      time.Duration `mapstructure:"flow_cooldown_period"`
	FlowMaxSpreadMultiplier float64       `mapstructure:"flow_max_spread_multiplier"`
}

// RiskConfig sets the ordered pre-trade limits internal/risk.Gate enforces.
type RiskConfig struct {
	MaxPositionQty      int64 `mapstructure:"max_position_qty" validate:"gt=0"`
	MaxOrderQty         int64 `mapstructure:"max_order_qty" validate:"gt=0"`
	MaxOrderValue       int64 `mapstructure:"max_order_value" validate:"gt=0"`
	MaxOrdersPerSecond  int64 `mapstructure:"max_orders_per_second" validate:"gt=0"`
	MaxOpenOrders       int64 `mapstructure:"max_open_orders" validate:"gt=0"`
	MaxDailyLoss        int64 `mapstructure:"max_daily_loss" validate:"gte=0"`
	MaxDrawdown         int64 `mapstructure:"max_drawdown" validate:"gte=0"`
	MaxDeviationBps     int64 `mapstructure:"max_deviation_bps" validate:"gt=0"`
	RejectThreshold     int64 `mapstructure:"reject_threshold" validate:"gte=0"`
	KillSwitchEnabled   bool  `mapstructure:"kill_switch_enabled"`
}

// ArbitrageConfig filters the opportunities internal/book.Consolidated
// detects before internal/api surfaces them on the dashboard. Execution
// of an arbitrage leg is out of scope; these thresholds only gate
// reporting/alerting.
type ArbitrageConfig struct {
	MinProfitBps           int64         `mapstructure:"min_profit_bps" validate:"gte=0"`
	MaxSlippageBps         int64         `mapstructure:"max_slippage_bps" validate:"gte=0"`
	MinQuantity            int64         `mapstructure:"min_quantity" validate:"gte=0"`
	MaxQuantity            int64         `mapstructure:"max_quantity" validate:"gte=0"`
	MaxOpportunityAge      time.Duration `mapstructure:"max_opportunity_age_ns"`
	RequireBothSidesLiquid bool          `mapstructure:"require_both_sides_liquid"`
	MinLiquidityRatio      float64       `mapstructure:"min_liquidity_ratio" validate:"gte=0"`
}

// PipelineConfig holds the timing knobs internal/pipeline.Config needs.
type PipelineConfig struct {
	QuoteInterval    time.Duration `mapstructure:"quote_interval" validate:"gt=0"`
	StaleBookTimeout time.Duration `mapstructure:"stale_book_timeout" validate:"gt=0"`
}

// QueueConfig sets the per-venue ring queue capacities. All must be
// powers of two per spec §4.2; internal/queue rounds up if they aren't,
// but Validate rejects a misconfiguration outright instead of silently
// adjusting it.
type QueueConfig struct {
	TickQueueCapacity   int `mapstructure:"tick_queue_capacity" validate:"gt=0"`
	ExecQueueCapacity   int `mapstructure:"exec_queue_capacity" validate:"gt=0"`
	IntentQueueCapacity int `mapstructure:"intent_queue_capacity" validate:"gt=0"`
}

// StoreConfig sets where position/PnL snapshots persist (pebble keyspace).
type StoreConfig struct {
	DataDir string `mapstructure:"data_dir" validate:"required"`
}

// MetricsConfig controls the prometheus listener and optional Kafka event sink.
type MetricsConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	ListenAddr   string   `mapstructure:"listen_addr"`
	KafkaEnabled bool     `mapstructure:"kafka_enabled"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaTopic   string   `mapstructure:"kafka_topic"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"`
}

// DashboardConfig controls the web dashboard server.
type DashboardConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port" validate:"omitempty,gt=0,lte=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads config from a YAML file with env var overrides.
// Sensitive fields use env vars: MM_PRIVATE_KEY, MM_API_KEY, MM_API_SECRET, MM_PASSPHRASE.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("MM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if key := os.Getenv("MM_PRIVATE_KEY"); key != "" {
		cfg.Wallet.PrivateKey = key
	}
	if len(cfg.Venues) > 0 {
		if key := os.Getenv("MM_API_KEY"); key != "" {
			cfg.Venues[0].ApiKey = key
		}
		if secret := os.Getenv("MM_API_SECRET"); secret != "" {
			cfg.Venues[0].Secret = secret
		}
		if pass := os.Getenv("MM_PASSPHRASE"); pass != "" {
			cfg.Venues[0].Passphrase = pass
		}
	}
	if os.Getenv("MM_DRY_RUN") == "true" || os.Getenv("MM_DRY_RUN") == "1" {
		cfg.DryRun = true
	}

	return &cfg, nil
}

var validate = validator.New()

// Validate runs struct-tag validation for the bulk of the surface, then
// hand-written checks for constraints a tag can't express: power-of-two
// queue capacities and signature-type/funder-address cross-field rules
// the teacher already validated by hand.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	switch c.Wallet.SignatureType {
	case 0, 1, 2:
	default:
		return fmt.Errorf("wallet.signature_type must be one of: 0 (EOA), 1 (POLY_PROXY), 2 (GNOSIS_SAFE)")
	}
	if c.Wallet.SignatureType != 0 && c.Wallet.FunderAddress == "" {
		return fmt.Errorf("wallet.funder_address is required when wallet.signature_type is 1 or 2")
	}

	for _, q := range []struct {
		name string
		v    int
	}{
		{"queues.tick_queue_capacity", c.Queues.TickQueueCapacity},
		{"queues.exec_queue_capacity", c.Queues.ExecQueueCapacity},
		{"queues.intent_queue_capacity", c.Queues.IntentQueueCapacity},
	} {
		if q.v <= 0 || !isPowerOfTwo(q.v) {
			return fmt.Errorf("%s must be a power of two, got %d", q.name, q.v)
		}
	}

	for _, vc := range c.Venues {
		if vc.Kind == "polymarket" && vc.CLOBBaseURL == "" {
			return fmt.Errorf("venues[%s].clob_base_url is required for kind=polymarket", vc.Name)
		}
	}

	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
