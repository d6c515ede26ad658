package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/collector"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/config"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/market"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/notifier"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/recorder"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/scheduler"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/server"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/session"

	"go.uber.org/zap"
)

const (
	sessionTTL     = 24 * time.Hour
	poolRefreshTTL = 12 * time.Hour
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dashboard: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Info("dashboard starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clocks, err := newClocks(cfg, logger)
	if err != nil {
		return err
	}

	yahoo := collector.NewYahooFetcher(cfg.Proxy)
	fetcher := collector.NewCachedFetcher(yahoo, cfg.CacheTTL())
	quotes := &collector.RouterQuoteSource{Sources: map[model.Market]collector.QuoteSource{
		model.MarketTW: collector.NewTWSEQuoteSource(cfg.Proxy),
		model.MarketUS: yahoo,
	}}
	if cfg.AlpacaEnabled() {
		quotes.Sources[model.MarketUS] = collector.NewAlpacaQuoteSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
	}
	logger.Info("data sources",
		zap.String("history", fetcher.Name()),
		zap.String("tw_quotes", quotes.Sources[model.MarketTW].Name()),
		zap.String("us_quotes", quotes.Sources[model.MarketUS].Name()))

	col := collector.NewCollector(fetcher, quotes, clocks, logger)
	col.HistoryDays = cfg.History.Days

	pools := newPools(cfg)

	rec, err := newRecorder(cfg, logger)
	if err != nil {
		return err
	}
	defer rec.Close()

	var tn *notifier.TelegramNotifier
	var n scheduler.Notifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
		n = tn
	}

	scan := scheduler.ScanSettings{Delay: cfg.ScanDelay(), Limit: cfg.Scan.Limit, MinWeekly: cfg.Scan.MinWeekly}
	sched := scheduler.NewScheduler(ctx, col, pools, clocks, n, rec, scan, logger)
	if err := sched.RegisterScans(map[model.Market]string{
		model.MarketTW: cfg.Markets.TW.ScanCron,
		model.MarketUS: cfg.Markets.US.ScanCron,
	}); err != nil {
		return fmt.Errorf("register cron tasks: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("telegram polling started")
	}

	sessions := session.NewStore(cfg.Scan.Limit)
	go expireSessions(ctx, sessions, logger)

	srv := server.New(server.Options{
		Analyzer: col,
		Pools:    pools,
		Sessions: sessions,
		Recorder: rec,
		Scan:     server.ScanDefaults{Delay: cfg.ScanDelay(), Limit: cfg.Scan.Limit, MinWeekly: cfg.Scan.MinWeekly},
		Mode:     cfg.Server.Mode,
		Logger:   logger,
	})
	if err := srv.Run(ctx, cfg.Addr()); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("dashboard stopped")
	return nil
}

func newClocks(cfg *config.Config, logger *zap.Logger) (market.Clocks, error) {
	clocks := market.Clocks{}
	for m, mc := range map[model.Market]config.MarketConfig{
		model.MarketTW: cfg.Markets.TW,
		model.MarketUS: cfg.Markets.US,
	} {
		c, err := mc.Clock(m)
		if err != nil {
			return nil, err
		}
		if !c.HasCalendar() {
			logger.Warn("trading calendar unsupported, using weekdays minus holiday list",
				zap.String("market", string(m)), zap.String("mic", c.MIC), zap.Int("holidays", len(c.Holidays)))
		}
		clocks[m] = c
	}
	return clocks, nil
}

func newPools(cfg *config.Config) map[model.Market]collector.PoolSource {
	pools := map[model.Market]collector.PoolSource{
		model.MarketUS: collector.StaticPool(cfg.Markets.US.Pool),
	}
	if len(cfg.Markets.TW.Pool) > 0 {
		pools[model.MarketTW] = collector.StaticPool(cfg.Markets.TW.Pool)
	} else {
		pools[model.MarketTW] = collector.NewCachedPool(collector.NewTWSEPool(cfg.Markets.TW.PoolURL, cfg.Proxy), poolRefreshTTL)
	}
	return pools
}

func newRecorder(cfg *config.Config, logger *zap.Logger) (recorder.Recorder, error) {
	switch {
	case cfg.Database.PostgresDSN != "":
		r, err := recorder.NewPostgresRecorder(cfg.Database.PostgresDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("init postgres recorder: %w", err)
		}
		return r, nil
	case cfg.Database.SQLitePath != "":
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		r, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			return recorder.NewNoopRecorder(), nil
		}
		return r, nil
	default:
		return recorder.NewNoopRecorder(), nil
	}
}

func expireSessions(ctx context.Context, st *session.Store, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Expire(sessionTTL); n > 0 {
				logger.Debug("sessions expired", zap.Int("count", n))
			}
		}
	}
}
