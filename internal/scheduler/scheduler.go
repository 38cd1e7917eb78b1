package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"RibbonSentinel/internal/analyzer"
	"RibbonSentinel/internal/calculator"
	"RibbonSentinel/internal/collector"
	"RibbonSentinel/internal/metrics"
	"RibbonSentinel/internal/model"
	"RibbonSentinel/internal/notifier"
	"RibbonSentinel/internal/recorder"
	"RibbonSentinel/internal/strategy"
)

const sendRetries = 3

// Sender delivers formatted messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options holds the pipeline settings used by scheduled and manual runs.
type Options struct {
	Watchlist   []string
	Concurrency int
	// RVThreshold is the relative volume at or above which an hourly alert is sent.
	RVThreshold float64
	Report      analyzer.Options
	Wave        analyzer.WaveConfig
	WideBand    calculator.WideBandConfig
}

// ScanResult is the outcome of one watchlist scan.
type ScanResult struct {
	RunID   string
	Date    time.Time
	Reports []model.ReportRecord
	Failed  []string
}

// Scheduler manages cron tasks and chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Notifier  Sender
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Options   Options
	Ctx       context.Context

	now func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, sender Sender, rec recorder.Recorder, m *metrics.Metrics, opts Options) *Scheduler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Notifier:  sender,
		Recorder:  rec,
		Metrics:   m,
		Options:   opts,
		Ctx:       ctx,
		now:       time.Now,
	}
}

// RegisterAll registers the watchlist scan and, when rvCron is set, the hourly volume check.
func (s *Scheduler) RegisterAll(scanCron, rvCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, s.scanTask); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	if rvCron != "" {
		if _, err := s.Cron.AddFunc(rvCron, s.volumeTask); err != nil {
			return fmt.Errorf("register volume task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunScanNow executes the scan task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunScanNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	log.Println("[INFO] running watchlist scan")
	s.runScan(s.Ctx)
}

// runScan scans the watchlist, then sends the summary table and one full
// report per buy or sell signal.
func (s *Scheduler) runScan(ctx context.Context) ScanResult {
	res := s.Scan(ctx)
	s.trySend(ctx, notifier.FormatScanTable(res.Date, res.Reports, res.Failed))
	for i := range res.Reports {
		if res.Reports[i].Signal != model.SignalNeutral {
			s.trySend(ctx, notifier.FormatReport(&res.Reports[i]))
		}
	}
	return res
}

// Scan prepares today's report for every watchlist ticker. Tickers without a
// result are listed in Failed; the order of Reports follows the watchlist.
func (s *Scheduler) Scan(ctx context.Context) ScanResult {
	start := time.Now()
	res := ScanResult{RunID: uuid.NewString(), Date: s.now()}

	slots := make([]*model.ReportRecord, len(s.Options.Watchlist))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Options.Concurrency)
	for i, ticker := range s.Options.Watchlist {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			rec, err := s.report(res.RunID, ticker, res.Date)
			if err != nil {
				log.Printf("[WARN] scan %s: %v", ticker, err)
				return nil
			}
			slots[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("[WARN] scan interrupted: %v", err)
	}

	for i, rec := range slots {
		if rec == nil {
			res.Failed = append(res.Failed, s.Options.Watchlist[i])
			continue
		}
		res.Reports = append(res.Reports, *rec)
	}
	s.Metrics.ObserveRun("scan", start)
	s.Metrics.ScanCompleted(time.Now())
	log.Printf("[INFO] scan %s done: %d reports, %d failed", res.RunID, len(res.Reports), len(res.Failed))
	return res
}

// report runs collect, prepare and record for one ticker.
func (s *Scheduler) report(runID, ticker string, target time.Time) (model.ReportRecord, error) {
	start := time.Now()
	defer s.Metrics.ObserveRun("report", start)

	rs, err := s.Collector.Collect(ticker)
	if err != nil {
		s.Metrics.Failure("report", "fetch")
		return model.ReportRecord{}, err
	}
	rec, err := analyzer.Prepare(rs, ticker, target, s.Options.Report)
	if err != nil {
		s.Metrics.Failure("report", failureReason(err))
		return model.ReportRecord{}, err
	}
	s.Metrics.Signal(string(rec.Signal))
	if err := s.Recorder.RecordReport(runID, &rec); err != nil {
		log.Printf("[ERROR] record report: %v", err)
	}
	return rec, nil
}

func (s *Scheduler) volumeTask() {
	log.Println("[INFO] running hourly volume check")
	for _, ticker := range s.Options.Watchlist {
		if s.Ctx.Err() != nil {
			return
		}
		hv, err := s.latestVolume(ticker)
		if err != nil {
			log.Printf("[WARN] volume check %s: %v", ticker, err)
			continue
		}
		if !math.IsNaN(hv.RV) && hv.RV >= s.Options.RVThreshold {
			s.trySend(s.Ctx, notifier.FormatRelativeVolume(ticker, &hv, s.Options.RVThreshold))
		}
	}
}

func (s *Scheduler) latestVolume(ticker string) (model.HourlyVolume, error) {
	start := time.Now()
	defer s.Metrics.ObserveRun("rv", start)

	series, err := s.Collector.CollectHourly(ticker)
	if err != nil {
		s.Metrics.Failure("rv", "fetch")
		return model.HourlyVolume{}, err
	}
	if len(series) == 0 {
		s.Metrics.Failure("rv", "no_data")
		return model.HourlyVolume{}, analyzer.ErrNoData
	}
	return series[len(series)-1], nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// "/report@SomeBot" addresses the bot in group chats.
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/scan":
		s.runScan(ctx)
		return ""
	case "/report", "/wave", "/band", "/rv":
	default:
		return notifier.FormatHelp()
	}

	if len(args) == 0 {
		return fmt.Sprintf("Usage: %s TICKER", name)
	}
	ticker := strings.ToUpper(args[0])
	var target *time.Time
	if len(args) > 1 && (name == "/report" || name == "/wave") {
		d, err := analyzer.ParseDate(args[1])
		if err != nil {
			return fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", args[1])
		}
		target = &d
	}
	runID := uuid.NewString()

	switch name {
	case "/report":
		day := s.now()
		if target != nil {
			day = *target
		}
		rec, err := s.report(runID, ticker, day)
		if errors.Is(err, analyzer.ErrNoData) {
			return notifier.FormatNoData(ticker, day)
		}
		if err != nil {
			return notifier.FormatError(ticker, err)
		}
		return notifier.FormatReport(&rec)

	case "/wave":
		return s.wave(runID, ticker, target)

	case "/band":
		return s.band(runID, ticker)

	default: // "/rv"
		hv, err := s.latestVolume(ticker)
		if err != nil {
			return notifier.FormatError(ticker, err)
		}
		return notifier.FormatRelativeVolume(ticker, &hv, s.Options.RVThreshold)
	}
}

func (s *Scheduler) wave(runID, ticker string, target *time.Time) string {
	start := time.Now()
	defer s.Metrics.ObserveRun("wave", start)

	rs, err := s.Collector.Collect(ticker)
	if err != nil {
		s.Metrics.Failure("wave", "fetch")
		return notifier.FormatError(ticker, err)
	}
	pred, err := analyzer.PredictWave(rs, ticker, target, s.Options.Wave)
	if err != nil {
		s.Metrics.Failure("wave", failureReason(err))
		return notifier.FormatError(ticker, err)
	}
	if err := s.Recorder.RecordWave(runID, &pred); err != nil {
		log.Printf("[ERROR] record wave: %v", err)
	}
	return notifier.FormatWave(&pred)
}

func (s *Scheduler) band(runID, ticker string) string {
	start := time.Now()
	defer s.Metrics.ObserveRun("band", start)

	bars, err := s.Collector.CollectWideBand(ticker, s.Options.WideBand)
	if err != nil {
		s.Metrics.Failure("band", "fetch")
		return notifier.FormatError(ticker, err)
	}
	reading := strategy.ClassifyWideBand(ticker, bars)
	s.Metrics.BandStatus(string(reading.Status))
	if err := s.Recorder.RecordBand(runID, &reading); err != nil {
		log.Printf("[ERROR] record band: %v", err)
	}
	return notifier.FormatBand(&reading)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, analyzer.ErrNoData):
		return "no_data"
	case errors.Is(err, analyzer.ErrNotComputed):
		return "not_computed"
	case errors.Is(err, analyzer.ErrInvalidBar):
		return "invalid_bar"
	default:
		return "other"
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if err := s.Notifier.SendWithRetry(ctx, text, sendRetries); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
