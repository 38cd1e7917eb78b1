package scheduler

import (
	"context"
	"strings"
	"sync"
	"testing"

	"RibbonSentinel/internal/analyzer"
	"RibbonSentinel/internal/calculator"
	"RibbonSentinel/internal/collector"
	"RibbonSentinel/internal/metrics"
	"RibbonSentinel/internal/model"
	"RibbonSentinel/internal/recorder"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return nil
}

type countingRecorder struct {
	recorder.NoopRecorder
	mu      sync.Mutex
	reports int
	waves   int
	bands   int
}

func (c *countingRecorder) RecordReport(_ string, _ *model.ReportRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports++
	return nil
}

func (c *countingRecorder) RecordWave(_ string, _ *model.WavePrediction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waves++
	return nil
}

func (c *countingRecorder) RecordBand(_ string, _ *model.BandReading) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bands++
	return nil
}

func newTestScheduler(watchlist []string) (*Scheduler, *fakeSender, *countingRecorder) {
	fetcher := &collector.MockFetcher{
		Price:     100,
		DailyData: map[string][]model.OHLCV{"EMPTY": {}},
	}
	col := collector.NewCollector(fetcher, 300, 24*30)
	sender := &fakeSender{}
	rec := &countingRecorder{}
	s := NewScheduler(context.Background(), col, sender, rec, metrics.NewMetrics(), Options{
		Watchlist:   watchlist,
		Concurrency: 2,
		RVThreshold: 1.5,
		Report:      analyzer.DefaultOptions(),
		Wave:        analyzer.DefaultWaveConfig(),
		WideBand:    calculator.DenseWideBand(),
	})
	return s, sender, rec
}

func TestScan(t *testing.T) {
	s, _, rec := newTestScheduler([]string{"DNP", "EMPTY", "CDR"})
	res := s.Scan(context.Background())

	if res.RunID == "" {
		t.Error("expected a run id")
	}
	if len(res.Reports) != 2 || res.Reports[0].Ticker != "DNP" || res.Reports[1].Ticker != "CDR" {
		t.Fatalf("expected reports for DNP and CDR in watchlist order, got %+v", res.Reports)
	}
	if len(res.Failed) != 1 || res.Failed[0] != "EMPTY" {
		t.Errorf("expected EMPTY to fail, got %v", res.Failed)
	}
	if rec.reports != 2 {
		t.Errorf("expected 2 recorded reports, got %d", rec.reports)
	}
}

func TestRunScan_SendsTable(t *testing.T) {
	s, sender, _ := newTestScheduler([]string{"DNP"})
	res := s.runScan(context.Background())

	signals := 0
	for _, r := range res.Reports {
		if r.Signal != model.SignalNeutral {
			signals++
		}
	}
	if len(sender.messages) != 1+signals {
		t.Fatalf("expected table plus %d signal reports, got %d messages", signals, len(sender.messages))
	}
	if !strings.Contains(sender.messages[0], "Watchlist scan") {
		t.Errorf("expected summary table first, got %q", sender.messages[0])
	}
}

func TestHandleCommand(t *testing.T) {
	s, _, rec := newTestScheduler(nil)
	ctx := context.Background()

	tests := []struct {
		command string
		want    string
	}{
		{"/report dnp", "RIBBON REPORT: DNP"},
		{"/report@RibbonBot DNP", "RIBBON REPORT: DNP"},
		{"/report DNP 2000-01-01", "No data"},
		{"/report DNP 2025-13-01", "Invalid date"},
		{"/report", "Usage: /report"},
		{"/wave DNP", "WAVE: DNP"},
		{"/band DNP", "BANDS: DNP"},
		{"/rv DNP", "RV"},
		{"/report EMPTY", "No data"},
		{"hello", "Commands"},
		{"", "Commands"},
	}
	for _, tt := range tests {
		got := s.HandleCommand(ctx, tt.command)
		if !strings.Contains(got, tt.want) {
			t.Errorf("HandleCommand(%q): expected reply containing %q, got %q", tt.command, tt.want, got)
		}
	}
	if rec.reports != 2 || rec.waves != 1 || rec.bands != 1 {
		t.Errorf("expected 2 reports, 1 wave, 1 band recorded, got %d, %d, %d", rec.reports, rec.waves, rec.bands)
	}
}

func TestHandleCommand_Scan(t *testing.T) {
	s, sender, _ := newTestScheduler([]string{"DNP"})
	if reply := s.HandleCommand(context.Background(), "/scan"); reply != "" {
		t.Errorf("expected empty reply for /scan, got %q", reply)
	}
	if len(sender.messages) == 0 {
		t.Error("expected scan messages to be sent")
	}
}

func TestVolumeTask(t *testing.T) {
	s, sender, _ := newTestScheduler([]string{"DNP"})
	s.volumeTask()
	if len(sender.messages) != 0 {
		t.Errorf("constant mock volume should not alert, got %v", sender.messages)
	}

	s.Options.RVThreshold = 1
	s.volumeTask()
	if len(sender.messages) != 1 {
		t.Errorf("expected one alert at threshold 1, got %d", len(sender.messages))
	}
}

func TestRegisterAll(t *testing.T) {
	s, _, _ := newTestScheduler(nil)
	if err := s.RegisterAll("0 0 18 * * 1-5", "0 5 * * * 1-5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(s.Cron.Entries()); n != 2 {
		t.Errorf("expected 2 cron entries, got %d", n)
	}
	if err := s.RegisterAll("bad", ""); err == nil {
		t.Error("expected error for invalid cron expression")
	}
}
