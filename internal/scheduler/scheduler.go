package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/collector"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/market"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/notifier"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/recorder"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/scanner"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Notifier delivers formatted messages.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// ScanSettings are the defaults applied to scheduled scans.
type ScanSettings struct {
	Delay     time.Duration
	Limit     int
	MinWeekly int
}

// Scheduler runs the per-market pool scans on cron.
type Scheduler struct {
	Cron     *cron.Cron
	Analyzer scanner.Analyzer
	Pools    map[model.Market]collector.PoolSource
	Clocks   market.Clocks
	Notifier Notifier // optional
	Recorder recorder.Recorder
	Scan     ScanSettings
	Logger   *zap.Logger
	Ctx      context.Context

	now func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, an scanner.Analyzer, pools map[model.Market]collector.PoolSource,
	clocks market.Clocks, n Notifier, rec recorder.Recorder, scan ScanSettings, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Analyzer: an,
		Pools:    pools,
		Clocks:   clocks,
		Notifier: n,
		Recorder: rec,
		Scan:     scan,
		Logger:   logger.Named("scheduler"),
		Ctx:      ctx,
		now:      time.Now,
	}
}

// RegisterScans adds one scan job per market. Empty expressions are skipped.
// Expressions are evaluated in the market's time zone unless they carry
// their own CRON_TZ prefix.
func (s *Scheduler) RegisterScans(exprs map[model.Market]string) error {
	for m, expr := range exprs {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			s.Logger.Info("scheduled scan disabled", zap.String("market", string(m)))
			continue
		}
		clock := s.Clocks[m]
		if clock != nil && !strings.HasPrefix(expr, "CRON_TZ=") && !strings.HasPrefix(expr, "TZ=") {
			expr = "CRON_TZ=" + clock.Location.String() + " " + expr
		}
		if _, err := s.Cron.AddFunc(expr, s.scanTask(m)); err != nil {
			return fmt.Errorf("register %s scan: %w", m, err)
		}
		s.Logger.Info("scheduled scan registered", zap.String("market", string(m)), zap.String("cron", expr))
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

func (s *Scheduler) scanTask(m model.Market) func() {
	return func() {
		now := s.now()
		if clock := s.Clocks[m]; clock != nil && !clock.IsTradingDay(now) {
			s.Logger.Info("not a trading day, scan skipped", zap.String("market", string(m)))
			return
		}
		run, hits, err := s.RunScan(s.Ctx, m, "cron")
		if err != nil {
			s.Logger.Error("scheduled scan failed", zap.String("market", string(m)), zap.Error(err))
			s.trySend(fmt.Sprintf("❌ %s 掃描失敗: %v", m, err))
			return
		}
		s.trySend(notifier.FormatScanDigest(digest(run, hits)))
	}
}

// RunScan scans the market's pool with the configured settings, records
// every hit's snapshot and the run summary, and returns both.
func (s *Scheduler) RunScan(ctx context.Context, m model.Market, source string) (*recorder.ScanRun, []scanner.Hit, error) {
	pool, ok := s.Pools[m]
	if !ok {
		return nil, nil, fmt.Errorf("no pool for market %s", m)
	}
	codes, err := pool.Codes(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s pool: %w", m, err)
	}

	run := &recorder.ScanRun{
		ID:        uuid.NewString(),
		Market:    m,
		Source:    source,
		StartedAt: s.now(),
		PoolSize:  len(codes),
		MinWeekly: s.Scan.MinWeekly,
	}
	s.Logger.Info("scan started", zap.String("run", run.ID), zap.String("market", string(m)), zap.Int("pool", len(codes)))

	sc := &scanner.Scanner{
		Analyzer:  s.Analyzer,
		Delay:     s.Scan.Delay,
		Limit:     s.Scan.Limit,
		MinWeekly: s.Scan.MinWeekly,
	}
	hits, errs := scanner.Collect(sc.Scan(ctx, codes))
	for _, e := range errs {
		s.Logger.Debug("scan code failed", zap.Error(e))
	}

	run.FinishedAt = s.now()
	run.Hits = len(hits)
	run.Errors = len(errs)
	for _, h := range hits {
		run.TopCodes = append(run.TopCodes, h.Code)
		if h.Analysis != nil {
			if err := s.Recorder.RecordAnalysis(h.Analysis.Snapshot()); err != nil {
				s.Logger.Error("record analysis", zap.String("code", h.Code), zap.Error(err))
			}
		}
	}
	if err := s.Recorder.RecordScan(run); err != nil {
		s.Logger.Error("record scan", zap.String("run", run.ID), zap.Error(err))
	}
	s.Logger.Info("scan finished", zap.String("run", run.ID),
		zap.Int("hits", run.Hits), zap.Int("errors", run.Errors),
		zap.Duration("took", run.FinishedAt.Sub(run.StartedAt)))
	return run, hits, ctx.Err()
}

func digest(run *recorder.ScanRun, hits []scanner.Hit) notifier.ScanDigest {
	d := notifier.ScanDigest{
		Market:    run.Market,
		At:        run.FinishedAt,
		PoolSize:  run.PoolSize,
		Errors:    run.Errors,
		MinWeekly: run.MinWeekly,
	}
	for _, h := range hits {
		d.Hits = append(d.Hits, notifier.DigestHit{
			Code:           h.Code,
			Price:          h.Price,
			WeeklyProb:     h.WeeklyProb,
			MonthlyProb:    h.MonthlyProb,
			CompositeScore: h.CompositeScore,
			Actions:        h.Actions,
		})
	}
	return d
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return usage
	}
	switch fields[0] {
	case "/analyze", "/a", "分析":
		if len(fields) < 2 {
			return "用法: /analyze 2330"
		}
		an, err := s.Analyzer.Analyze(ctx, fields[1])
		if err != nil {
			return fmt.Sprintf("❌ %s 分析失敗: %v", fields[1], err)
		}
		if err := s.Recorder.RecordAnalysis(an.Snapshot()); err != nil {
			s.Logger.Error("record analysis", zap.String("code", an.Code), zap.Error(err))
		}
		return notifier.FormatAnalysis(an)
	case "/scan", "掃描":
		m := model.MarketTW
		if len(fields) > 1 && strings.EqualFold(fields[1], string(model.MarketUS)) {
			m = model.MarketUS
		}
		run, hits, err := s.RunScan(ctx, m, "chat")
		if err != nil {
			return fmt.Sprintf("❌ %s 掃描失敗: %v", m, err)
		}
		return notifier.FormatScanDigest(digest(run, hits))
	default:
		return usage
	}
}

const usage = "可用命令:\n• /analyze 代號\n• /scan tw|us"

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.Logger.Error("send notification", zap.Error(err))
	}
}
