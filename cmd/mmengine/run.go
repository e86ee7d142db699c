package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hftmm/internal/api"
	"hftmm/internal/config"
	"hftmm/internal/metrics"
	"hftmm/internal/pipeline"
	"hftmm/internal/risk"
	"hftmm/internal/store"
	"hftmm/internal/strategy"
	"hftmm/internal/venue"
	"hftmm/internal/venue/paper"
	"hftmm/internal/venue/polymarket"
	"hftmm/pkg/types"
)

const healthPollInterval = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load config and run the engine until terminated",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(cfgPath)
	},
}

func runEngine(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg.Logging)
	symbol := types.NewSymbol(cfg.Trading.Symbol)

	gate := risk.NewGate(risk.Config{
		MaxPositionQty:    types.Qty(cfg.Risk.MaxPositionQty),
		MaxOrderQty:       types.Qty(cfg.Risk.MaxOrderQty),
		MaxOrderValue:     types.Price(cfg.Risk.MaxOrderValue),
		MaxOrdersPerSec:   cfg.Risk.MaxOrdersPerSecond,
		MaxOpenOrders:     cfg.Risk.MaxOpenOrders,
		MaxDailyLoss:      cfg.Risk.MaxDailyLoss,
		MaxDrawdown:       cfg.Risk.MaxDrawdown,
		MaxDeviationBps:   cfg.Risk.MaxDeviationBps,
		RejectThreshold:   cfg.Risk.RejectThreshold,
		KillSwitchEnabled: cfg.Risk.KillSwitchEnabled,
	})

	st, err := store.Open(cfg.Store.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if snap, ok, err := st.LoadSnapshot(cfg.Trading.Symbol); err != nil {
		logger.Error("failed to load persisted snapshot", "error", err)
	} else if ok {
		gate.Ledger().Restore(snap.Position, snap.AvgEntryPrice, snap.RealizedPnL, snap.DayPeakEquity)
		logger.Info("restored snapshot", "symbol", snap.Symbol, "position", snap.Position)
	}

	flow := strategy.NewFlowTracker(cfg.Strategy.FlowWindow, cfg.Strategy.FlowToxicityThreshold,
		cfg.Strategy.FlowCooldownPeriod, cfg.Strategy.FlowMaxSpreadMultiplier)
	quoter, err := newQuoter(cfg.Strategy)
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.Config{
		QuoteInterval:    cfg.Pipeline.QuoteInterval,
		StaleBookNs:      int64(cfg.Pipeline.StaleBookTimeout),
		TickQueueDepth:   cfg.Queues.TickQueueCapacity,
		ExecQueueDepth:   cfg.Queues.ExecQueueCapacity,
		IntentQueueDepth: cfg.Queues.IntentQueueCapacity,
	}, symbol, map[types.VenueId]venue.Adapter{}, quoter, gate, flow, logger)

	for _, vc := range cfg.Venues {
		vid, ok := types.ParseVenueId(vc.Name)
		if !ok {
			return fmt.Errorf("venues: unrecognized venue name %q", vc.Name)
		}
		adapter, err := newAdapter(vc, vid, symbol, cfg, p)
		if err != nil {
			return fmt.Errorf("venues[%s]: %w", vc.Name, err)
		}
		p.AttachVenue(vid, adapter)
	}

	var registry *metrics.Registry
	if cfg.Metrics.Enabled {
		registry = metrics.NewRegistry()
		p.SetMetrics(registry)
	}

	publisher := metrics.NewNoopEventPublisher()
	if cfg.Metrics.KafkaEnabled {
		publisher, err = metrics.NewEventPublisher(cfg.Metrics.KafkaBrokers, cfg.Metrics.KafkaTopic)
		if err != nil {
			return fmt.Errorf("connect event publisher: %w", err)
		}
	}
	defer publisher.Close()

	provider := newDashboardProvider(p)
	adapterList := make([]venue.Adapter, 0, len(p.Adapters()))
	for _, a := range p.Adapters() {
		adapterList = append(adapterList, a)
	}
	monitor := venue.NewHealthMonitor(adapterList, healthPollInterval)

	var apiServer *api.Server
	if cfg.Dashboard.Enabled {
		var metricsHandler http.Handler
		if registry != nil {
			metricsHandler = registry.Handler()
		}
		apiServer = api.NewServer(cfg.Dashboard, provider, *cfg, metricsHandler, logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error("dashboard server failed", "error", err)
			}
		}()
		logger.Info("dashboard started", "port", cfg.Dashboard.Port)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitorDone := make(chan struct{})
	go provider.watchHealth(monitor.Results(), monitorDone)
	go monitor.Run(ctx)

	broadcastStop := make(chan struct{})
	if apiServer != nil {
		go broadcastLoop(apiServer, broadcastStop)
	}

	p.Start(ctx)

	if cfg.DryRun {
		logger.Warn("DRY-RUN MODE — no real orders will be placed")
	}
	logger.Info("engine started",
		"symbol", cfg.Trading.Symbol,
		"venues", len(cfg.Venues),
		"strategy", cfg.Strategy.Variant,
		"dry_run", cfg.DryRun,
	)
	go sampleLoop(ctx, gate, provider, registry, publisher, cfg.Trading.Symbol, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	close(broadcastStop)
	close(monitorDone)
	cancel()

	if apiServer != nil {
		if err := apiServer.Stop(); err != nil {
			logger.Error("failed to stop dashboard", "error", err)
		}
	}
	p.Stop()

	snap := store.Snapshot{
		Symbol:        cfg.Trading.Symbol,
		Position:      gate.Ledger().Position(),
		AvgEntryPrice: gate.Ledger().AvgEntryPrice(),
		RealizedPnL:   gate.Ledger().RealizedPnL(),
		DayPeakEquity: gate.Ledger().PeakEquity(),
	}
	if err := st.SaveSnapshot(snap); err != nil {
		logger.Error("failed to persist final snapshot", "error", err)
	}

	return nil
}

func newQuoter(cfg config.StrategyConfig) (pipeline.Quoter, error) {
	base := strategy.Config{
		TargetSpreadBps:     cfg.TargetSpreadBps,
		MinSpreadBps:        cfg.MinSpreadBps,
		MaxSpreadBps:        cfg.MaxSpreadBps,
		BaseSize:            types.Qty(cfg.DefaultOrderSize),
		MinSize:             types.Qty(cfg.MinOrderSize),
		MaxSize:             types.Qty(cfg.MaxOrderSize),
		MaxPosition:         types.Qty(cfg.MaxPosition),
		InventorySkewFactor: cfg.InventorySkewFactor,
		MinQuoteLife:        cfg.MinQuoteLifeUs * int64(time.Microsecond),
	}

	switch cfg.Variant {
	case "basic":
		return strategy.NewBasic(base), nil
	case "inventory_adjusted":
		return strategy.NewInventoryAdjusted(base, cfg.InventoryEmaAlpha), nil
	case "avellaneda_stoikov":
		return strategy.NewAvellanedaStoikov(base, strategy.AvellanedaStoikovParams{
			Gamma: cfg.Gamma,
			Sigma: cfg.Sigma,
			K:     cfg.K,
			T:     cfg.T,
		}), nil
	default:
		return nil, fmt.Errorf("strategy: unrecognized variant %q", cfg.Variant)
	}
}

func newAdapter(vc config.VenueConfig, vid types.VenueId, symbol types.Symbol, cfg *config.Config, p *pipeline.Pipeline) (venue.Adapter, error) {
	switch vc.Kind {
	case "paper":
		return paper.NewAdapter(vid, p.Callbacks()), nil
	case "polymarket":
		pmCfg := polymarket.Config{
			PrivateKeyHex: cfg.Wallet.PrivateKey,
			FunderAddress: cfg.Wallet.FunderAddress,
			ChainID:       int64(cfg.Wallet.ChainID),
			APIKey:        vc.ApiKey,
			APISecret:     vc.Secret,
			APIPassphrase: vc.Passphrase,
		}
		return polymarket.NewAdapter(vid, symbol, vc.CLOBBaseURL, vc.WSMarketURL, pmCfg, cfg.DryRun, p.Callbacks())
	default:
		return nil, fmt.Errorf("unrecognized venue kind %q", vc.Kind)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func broadcastLoop(s *api.Server, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.BroadcastSnapshot()
		}
	}
}

// sampleLoop polls gate/venue state once a second to feed the gauges
// Registry can't update from the hot path itself (open-order count,
// connected-venue count) and to publish a kill-switch event the first
// time the gate engages, so the Kafka sink isn't silent on the
// condition operators most need to know about.
func sampleLoop(ctx context.Context, gate *risk.Gate, provider *dashboardProvider, registry *metrics.Registry, publisher *metrics.EventPublisher, symbol string, logger *slog.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	wasActive := gate.IsKillSwitchActive()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			active := gate.IsKillSwitchActive()
			if active && !wasActive {
				if registry != nil {
					registry.IncKillSwitchActivations()
				}
				evt := metrics.Event{Kind: metrics.EventKillSwitch, Symbol: symbol, Message: "kill switch engaged"}
				if err := publisher.Publish(evt); err != nil {
					logger.Error("failed to publish kill switch event", "error", err)
				}
			}
			wasActive = active

			if registry != nil {
				registry.SetOpenOrders(gate.OpenOrders())
				connected := 0
				for _, h := range provider.VenueHealth() {
					if h.Connected {
						connected++
					}
				}
				registry.SetActiveExchanges(connected)
			}
		}
	}
}
