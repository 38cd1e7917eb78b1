package collector

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"RibbonSentinel/internal/analyzer"
	"RibbonSentinel/internal/calculator"
	"RibbonSentinel/internal/model"
)

func TestCollector_Collect(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 50}, 300, 0)
	rs, err := c.Collect("DNP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rs.Computed || rs.Len() != 300 || rs.Symbol != "DNP" {
		t.Errorf("expected 300 computed bars for DNP, got computed=%v len=%d symbol=%s", rs.Computed, rs.Len(), rs.Symbol)
	}
	if c.HourlyBars != DefaultHourlyBars {
		t.Errorf("expected default hourly bars, got %d", c.HourlyBars)
	}
}

func TestCollector_FetchError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCollector(&MockFetcher{Err: boom}, 0, 0)
	if _, err := c.Collect("DNP"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped fetch error, got %v", err)
	}
	if _, err := c.CollectHourly("DNP"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped fetch error, got %v", err)
	}
}

func TestCollector_WideBandAndHourly(t *testing.T) {
	c := NewCollector(&MockFetcher{Price: 50}, 250, 24*30)
	bands, err := c.CollectWideBand("DNP", calculator.SparseWideBand())
	if err != nil || len(bands) != 250 {
		t.Fatalf("wide band: got %d bars, err %v", len(bands), err)
	}
	hourly, err := c.CollectHourly("DNP")
	if err != nil || len(hourly) != 24*30 {
		t.Fatalf("hourly: got %d bars, err %v", len(hourly), err)
	}
	if last := hourly[len(hourly)-1]; last.RV != 1 {
		t.Errorf("constant volume: expected RV 1, got %.4f", last.RV)
	}
}

func TestParseYahooChart(t *testing.T) {
	body := []byte(`{"chart":{"result":[{
		"meta":{"exchangeTimezoneName":"UTC"},
		"timestamp":[1736150400,1735891200,1736236800],
		"indicators":{"quote":[{
			"open":[11,10,null],"high":[12,11,null],"low":[10,9,null],
			"close":[11.5,10.5,null],"volume":[2000,1000,null]}]}}],"error":null}}`)
	bars, err := parseYahooChart(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars after dropping the null bar, got %d", len(bars))
	}
	if !bars[0].Time.Before(bars[1].Time) || bars[0].Close != 10.5 {
		t.Errorf("expected ascending bars, got %+v", bars)
	}

	if _, err := parseYahooChart([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)); err == nil {
		t.Error("expected api error")
	}
}

func TestYahooSymbol(t *testing.T) {
	f := NewYahooFetcher("", ".WA")
	tests := map[string]string{"DNP": "DNP.WA", "ORA.PA": "ORA.PA", "^GSPC": "^GSPC", "SPX": "^GSPC"}
	for in, want := range tests {
		if got := f.yahooSymbol(in); got != want {
			t.Errorf("yahooSymbol(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestRESTFetcher_FetchDailyBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/bars/daily" || r.URL.Query().Get("symbol") != "ORA.PA" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[
			{"timestamp":1736236800,"open":2,"high":3,"low":1,"close":2.5,"volume":10},
			{"timestamp":1736150400,"open":1,"high":2,"low":0.5,"close":1.5,"volume":20}
		]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "key", "")
	bars, err := f.FetchDailyBars("ORA.PA", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 || bars[0].Close != 1.5 || !bars[1].Time.Equal(time.Unix(1736236800, 0)) {
		t.Errorf("unexpected bars: %+v", bars)
	}

	if _, err := NewRESTFetcher(srv.URL, "wrong", "").FetchDailyBars("ORA.PA", 2); err == nil {
		t.Error("expected error for unauthorized request")
	}
}

func TestDedupe(t *testing.T) {
	ts := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := []model.OHLCV{{Time: ts, Close: 1}, {Time: ts, Close: 2}, {Time: ts.AddDate(0, 0, 1), Close: 3}}
	out := dedupe(bars)
	if len(out) != 2 || out[0].Close != 2 {
		t.Errorf("expected later duplicate to win, got %+v", out)
	}
}

func TestRESTFetcher_MidnightUTCBarsUnderLocalZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	saved := time.Local
	time.Local = ny
	defer func() { time.Local = saved }()

	var raw []restBar
	for d := 1; d <= 10; d++ {
		ts := time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC).Unix()
		raw = append(raw, restBar{Timestamp: ts, Open: 100, High: 101 + float64(d), Low: 99, Close: 100 + float64(d), Volume: 1000})
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(raw)
	}))
	defer srv.Close()

	c := NewCollector(NewRESTFetcher(srv.URL, "", ""), 10, 0)
	rs, err := c.Collect("DNP")
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if loc := rs.Bars[0].Time.Location(); loc != time.UTC {
		t.Errorf("expected UTC bars, got %v", loc)
	}

	rec, err := analyzer.Prepare(rs, "DNP", time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), analyzer.DefaultOptions())
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if got := rec.Date.Format("2006-01-02"); got != "2025-01-05" || rec.Price != 105 {
		t.Errorf("expected bar 2025-01-05 with close 105, got %s close %.2f", got, rec.Price)
	}

	_, err = analyzer.Prepare(rs, "DNP", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), analyzer.DefaultOptions())
	if !errors.Is(err, analyzer.ErrNoData) {
		t.Errorf("expected ErrNoData before the first bar, got %v", err)
	}
}
