package recorder

import (
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"RibbonSentinel/internal/model"
)

var _ Recorder = (*SQLiteRecorder)(nil)
var _ Recorder = (*NoopRecorder)(nil)

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_RecordReport(t *testing.T) {
	r := openTemp(t)
	runID := uuid.NewString()
	day := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	rec := &model.ReportRecord{
		Ticker: "DNP", Date: day, Price: 410, Signal: model.SignalBuy,
		RSI: math.NaN(), Momentum: model.MomentumNeutral,
		VolumeHistory: []model.VolumeEntry{{Marker: model.VolumeNormal}, {Marker: model.VolumeHigh}},
	}
	if err := r.RecordReport(runID, rec); err != nil {
		t.Fatalf("record report: %v", err)
	}

	var (
		ticker, date, signal, markers string
		rsi                           sql.NullFloat64
	)
	err := r.db.QueryRow(`SELECT ticker, bar_date, signal, volume_markers, rsi FROM reports WHERE run_id = ?`, runID).
		Scan(&ticker, &date, &signal, &markers, &rsi)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if ticker != "DNP" || date != "2025-01-10" || signal != "BUY" || markers != "NORMAL,HIGH" {
		t.Errorf("unexpected row: %s %s %s %s", ticker, date, signal, markers)
	}
	if rsi.Valid {
		t.Errorf("expected NULL rsi for NaN, got %v", rsi.Float64)
	}
}

func TestSQLiteRecorder_WaveAndBand(t *testing.T) {
	r := openTemp(t)
	runID := uuid.NewString()
	if err := r.RecordWave(runID, &model.WavePrediction{Ticker: "DNP", Scenario: model.WaveRebound, Confidence: model.ConfidenceHigh}); err != nil {
		t.Fatalf("record wave: %v", err)
	}
	if err := r.RecordBand(runID, &model.BandReading{Symbol: "DNP", Status: model.BandInsufficientData}); err != nil {
		t.Fatalf("record band: %v", err)
	}
	if err := r.RecordBand(runID, &model.BandReading{Symbol: "DNP", Status: model.BandObserve, PinBar: true,
		Bar: model.WideBandBar{OHLCV: model.OHLCV{Time: time.Now(), Close: 10}}}); err != nil {
		t.Fatalf("record band: %v", err)
	}

	var waves, bands, pins int
	r.db.QueryRow(`SELECT COUNT(*) FROM wave_predictions WHERE run_id = ?`, runID).Scan(&waves)
	r.db.QueryRow(`SELECT COUNT(*) FROM band_readings WHERE run_id = ?`, runID).Scan(&bands)
	r.db.QueryRow(`SELECT COUNT(*) FROM band_readings WHERE pin_bar = 1`).Scan(&pins)
	if waves != 1 || bands != 2 || pins != 1 {
		t.Errorf("expected 1 wave, 2 bands, 1 pin bar, got %d, %d, %d", waves, bands, pins)
	}
}

func TestSQLiteRecorder_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	r, err := NewSQLiteRecorder(path)
	if err != nil {
		t.Fatal(err)
	}
	r.RecordReport("run", &model.ReportRecord{Ticker: "DNP"})
	r.Close()

	r2, err := NewSQLiteRecorder(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer r2.Close()
	var n int
	r2.db.QueryRow(`SELECT COUNT(*) FROM reports`).Scan(&n)
	if n != 1 {
		t.Errorf("expected persisted row after reopen, got %d", n)
	}
}
