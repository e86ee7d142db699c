package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
trading:
  symbol: BTC-USD
  min_qty: 1
  max_qty: 1000000000
  step_size: 100000
  tick_size: 100000
  paper_trading: true
venues:
  - name: binance
    kind: paper
strategy:
  variant: basic
  min_spread_bps: 10
  max_spread_bps: 200
  target_spread_bps: 50
  default_order_size: 100000000
  min_order_size: 1
  max_order_size: 1000000000
  max_position: 10000000000
risk:
  max_position_qty: 10000000000
  max_order_qty: 1000000000
  max_order_value: 100000000000000
  max_orders_per_second: 100
  max_open_orders: 50
  max_deviation_bps: 500
queues:
  tick_queue_capacity: 1024
  exec_queue_capacity: 256
  intent_queue_capacity: 64
store:
  data_dir: /tmp/mmengine-data
pipeline:
  quote_interval: 100ms
  stale_book_timeout: 5s
`

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadAndValidateValidConfig(t *testing.T) {
	t.Parallel()

	path := writeTempConfig(t, validYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Trading.Symbol != "BTC-USD" {
		t.Fatalf("Symbol = %q, want BTC-USD", cfg.Trading.Symbol)
	}
	if len(cfg.Venues) != 1 || cfg.Venues[0].Kind != "paper" {
		t.Fatalf("unexpected venues: %+v", cfg.Venues)
	}
}

const nonPowerOfTwoQueueYAML = `
trading:
  symbol: BTC-USD
  max_qty: 1000000000
  step_size: 100000
  tick_size: 100000
venues:
  - name: binance
    kind: paper
strategy:
  variant: basic
  max_spread_bps: 200
  default_order_size: 100000000
  max_order_size: 1000000000
  max_position: 10000000000
risk:
  max_position_qty: 10000000000
  max_order_qty: 1000000000
  max_order_value: 100000000000000
  max_orders_per_second: 100
  max_open_orders: 50
  max_deviation_bps: 500
queues:
  tick_queue_capacity: 100
  exec_queue_capacity: 256
  intent_queue_capacity: 64
store:
  data_dir: /tmp/mmengine-data
pipeline:
  quote_interval: 100ms
  stale_book_timeout: 5s
`

func TestValidateRejectsNonPowerOfTwoQueueCapacity(t *testing.T) {
	t.Parallel()

	path := writeTempConfig(t, nonPowerOfTwoQueueYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to reject a non-power-of-two queue capacity")
	}
}

const avellanedaMissingParamsYAML = `
trading:
  symbol: BTC-USD
  max_qty: 1000000000
  step_size: 100000
  tick_size: 100000
venues:
  - name: binance
    kind: paper
strategy:
  variant: avellaneda_stoikov
  max_spread_bps: 200
  default_order_size: 100000000
  max_order_size: 1000000000
  max_position: 10000000000
risk:
  max_position_qty: 10000000000
  max_order_qty: 1000000000
  max_order_value: 100000000000000
  max_orders_per_second: 100
  max_open_orders: 50
  max_deviation_bps: 500
queues:
  tick_queue_capacity: 1024
  exec_queue_capacity: 256
  intent_queue_capacity: 64
store:
  data_dir: /tmp/mmengine-data
pipeline:
  quote_interval: 100ms
  stale_book_timeout: 5s
`

func TestValidateRequiresAvellanedaParamsForASVariant(t *testing.T) {
	t.Parallel()

	path := writeTempConfig(t, avellanedaMissingParamsYAML)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to require gamma/sigma/k/t for the avellaneda_stoikov variant")
	}
}

func TestValidateRejectsMissingVenues(t *testing.T) {
	t.Parallel()

	path := writeTempConfig(t, `
trading:
  symbol: BTC-USD
  max_qty: 1
  step_size: 1
  tick_size: 1
strategy:
  variant: basic
  max_spread_bps: 10
  default_order_size: 1
  max_order_size: 1
  max_position: 1
risk:
  max_position_qty: 1
  max_order_qty: 1
  max_order_value: 1
  max_orders_per_second: 1
  max_open_orders: 1
  max_deviation_bps: 1
queues:
  tick_queue_capacity: 1
  exec_queue_capacity: 1
  intent_queue_capacity: 1
store:
  data_dir: /tmp/x
pipeline:
  quote_interval: 100ms
  stale_book_timeout: 5s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to reject zero venues")
	}
}
