package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"RibbonSentinel/internal/model"
)

const dateLayout = "2006-01-02"

// SQLiteRecorder persists emitted records to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL,
			timestamp      INTEGER NOT NULL,
			ticker         TEXT NOT NULL,
			bar_date       TEXT NOT NULL,
			price          REAL,
			signal         TEXT,
			alignment      TEXT,
			rsi            REAL,
			momentum       TEXT,
			adx_slope      REAL,
			slope_class    TEXT,
			distance       REAL,
			distance_class TEXT,
			volume_markers TEXT,
			chart_link     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_ticker ON reports(ticker, bar_date)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_run ON reports(run_id)`,

		`CREATE TABLE IF NOT EXISTS wave_predictions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			ticker       TEXT NOT NULL,
			bar_date     TEXT NOT NULL,
			price        REAL,
			scenario     TEXT,
			target       REAL,
			target_ref   TEXT,
			confidence   TEXT,
			rsi          REAL,
			dist_to_base REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_wave_ticker ON wave_predictions(ticker, bar_date)`,

		`CREATE TABLE IF NOT EXISTS band_readings (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			ticker       TEXT NOT NULL,
			bar_date     TEXT,
			status       TEXT NOT NULL,
			close        REAL,
			red_min      REAL,
			red_max      REAL,
			green_min    REAL,
			green_max    REAL,
			blue_min     REAL,
			blue_max     REAL,
			ribbon_width REAL,
			pin_bar      INTEGER,
			bullish      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_band_ticker ON band_readings(ticker, bar_date)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// nullable maps NaN/Inf to SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *SQLiteRecorder) RecordReport(runID string, rec *model.ReportRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	markers := make([]string, len(rec.VolumeHistory))
	for i, v := range rec.VolumeHistory {
		markers[i] = string(v.Marker)
	}

	_, err := r.db.Exec(`INSERT INTO reports
		(run_id, timestamp, ticker, bar_date, price, signal, alignment,
		 rsi, momentum, adx_slope, slope_class, distance, distance_class,
		 volume_markers, chart_link)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		runID, time.Now().Unix(), rec.Ticker, rec.Date.Format(dateLayout),
		nullable(rec.Price), string(rec.Signal), string(rec.Alignment),
		nullable(rec.RSI), string(rec.Momentum),
		nullable(rec.Slope), string(rec.SlopeClass),
		nullable(rec.Distance), string(rec.DistanceClass),
		strings.Join(markers, ","), rec.ChartLink,
	)
	return err
}

func (r *SQLiteRecorder) RecordWave(runID string, w *model.WavePrediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO wave_predictions
		(run_id, timestamp, ticker, bar_date, price, scenario, target, target_ref,
		 confidence, rsi, dist_to_base)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		runID, time.Now().Unix(), w.Ticker, w.Date.Format(dateLayout),
		nullable(w.Price), string(w.Scenario), nullable(w.Target), w.TargetRef,
		string(w.Confidence), nullable(w.RSI), nullable(w.DistToBase),
	)
	return err
}

func (r *SQLiteRecorder) RecordBand(runID string, b *model.BandReading) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var barDate sql.NullString
	if !b.Bar.Time.IsZero() {
		barDate = sql.NullString{String: b.Bar.Time.Format(dateLayout), Valid: true}
	}
	bar := b.Bar
	_, err := r.db.Exec(`INSERT INTO band_readings
		(run_id, timestamp, ticker, bar_date, status, close,
		 red_min, red_max, green_min, green_max, blue_min, blue_max,
		 ribbon_width, pin_bar, bullish)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		runID, time.Now().Unix(), b.Symbol, barDate, string(b.Status), nullable(bar.Close),
		nullable(bar.RedMin), nullable(bar.RedMax),
		nullable(bar.GreenMin), nullable(bar.GreenMax),
		nullable(bar.BlueMin), nullable(bar.BlueMax),
		nullable(bar.RibbonWidth), boolInt(b.PinBar), boolInt(b.BullishSession),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
