package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"RibbonSentinel/internal/model"
)

func sampleReport() *model.ReportRecord {
	day := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	return &model.ReportRecord{
		Ticker:        "DNP",
		Date:          day,
		Price:         412.5,
		Signal:        model.SignalBuy,
		Alignment:     model.AlignmentBullish,
		RSI:           61.2,
		Momentum:      model.MomentumStrong,
		Slope:         1.7,
		SlopeClass:    model.SlopeBuilding,
		Distance:      3.4,
		DistanceClass: model.DistanceNearBase,
		VolumeHistory: []model.VolumeEntry{
			{Date: day.AddDate(0, 0, -2), Volume: 1200000, Ratio: 0.9, Marker: model.VolumeNormal},
			{Date: day.AddDate(0, 0, -1), Volume: 2500000, Ratio: 1.6, Marker: model.VolumeElevated},
			{Date: day, Volume: 4100000, Ratio: 2.7, Marker: model.VolumeHigh},
		},
		ChartSymbol: "GPW:DNP",
		ChartLink:   "https://example.com/chart?symbol=GPW:DNP",
	}
}

func TestFormatReport(t *testing.T) {
	msg := FormatReport(sampleReport())
	for _, want := range []string{
		"RIBBON REPORT: DNP", "2025-01-10", "412.50", "BUY",
		"1. TREND:", "2. MOMENTUM: 61.2 ", "3. DYNAMICS: 1.70", "4. DISTANCE: 3.4% ",
		"10.01: 4,100,000 🔥", "09.01: 2,500,000 ⚡", "GPW:DNP",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected report to contain %q, got:\n%s", want, msg)
		}
	}
}

func TestFormatReport_NaN(t *testing.T) {
	r := sampleReport()
	r.RSI = math.NaN()
	if msg := FormatReport(r); !strings.Contains(msg, "2. MOMENTUM: n/a") {
		t.Errorf("expected n/a for undefined RSI, got:\n%s", msg)
	}
}

func TestFormatBand(t *testing.T) {
	msg := FormatBand(&model.BandReading{Symbol: "DNP", Status: model.BandInsufficientData})
	if !strings.Contains(msg, "Insufficient data") || strings.Contains(msg, "Close:") {
		t.Errorf("unexpected insufficient-data band message:\n%s", msg)
	}
	msg = FormatBand(&model.BandReading{Symbol: "DNP", Status: model.BandStop, PinBar: true, BullishSession: true})
	if !strings.Contains(msg, "STOP") || !strings.Contains(msg, "Pin bar") || !strings.Contains(msg, "🟢") {
		t.Errorf("unexpected stop band message:\n%s", msg)
	}
}

func TestFormatScanTable(t *testing.T) {
	r := sampleReport()
	msg := FormatScanTable(r.Date, []model.ReportRecord{*r}, []string{"XYZ"})
	if !strings.Contains(msg, "<pre>") || !strings.Contains(msg, "DNP") || !strings.Contains(msg, "No result: XYZ") {
		t.Errorf("unexpected scan table:\n%s", msg)
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText("<b>A &amp; B</b> <pre>x</pre>")
	if got != "A & B x" {
		t.Errorf("expected %q, got %q", "A & B x", got)
	}
}

func TestSplitMessage(t *testing.T) {
	text := strings.Repeat("line\n", 10)
	chunks := SplitMessage(text, 12)
	if strings.Join(chunks, "") != text {
		t.Fatalf("chunks do not reassemble the message")
	}
	for _, c := range chunks {
		if len(c) > 12 {
			t.Errorf("chunk exceeds limit: %q", c)
		}
	}

	long := strings.Repeat("é", 10) // 20 bytes
	chunks = SplitMessage(long, 7)
	if strings.Join(chunks, "") != long {
		t.Fatalf("long line chunks do not reassemble")
	}
	for _, c := range chunks {
		if !utf8.ValidString(c) || len(c) > 7 {
			t.Errorf("chunk split inside a rune or too long: %q", c)
		}
	}
}

type fakeTelegram struct {
	mu       sync.Mutex
	messages []string
	failures int
	calls    int
	failOn   map[int]bool // 1-based request numbers that fail
}

func (f *fakeTelegram) handler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failOn[f.calls] {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if f.failures > 0 {
		f.failures--
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	var payload map[string]string
	json.NewDecoder(r.Body).Decode(&payload)
	f.messages = append(f.messages, payload["text"])
}

func TestSendWithRetry(t *testing.T) {
	fake := &fakeTelegram{failures: 1}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "")
	n.APIBase = srv.URL
	if err := n.SendWithRetry(context.Background(), "hello", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.messages) != 1 || fake.messages[0] != "hello" {
		t.Errorf("expected one delivered message, got %v", fake.messages)
	}
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	fake := &fakeTelegram{failures: 10}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "")
	n.APIBase = srv.URL
	if err := n.SendWithRetry(context.Background(), "hello", 0); err == nil {
		t.Error("expected error after retries exhausted")
	}
}

func TestDispatch(t *testing.T) {
	fake := &fakeTelegram{}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "")
	n.APIBase = srv.URL

	var updates []telegramUpdate
	raw := `[
		{"update_id":5,"message":{"text":"/scan","chat":{"id":42}}},
		{"update_id":6,"message":{"text":"/scan","chat":{"id":7}}},
		{"update_id":7}
	]`
	if err := json.Unmarshal([]byte(raw), &updates); err != nil {
		t.Fatal(err)
	}
	var seen []string
	offset := n.dispatch(context.Background(), updates, 0, func(_ context.Context, cmd string) string {
		seen = append(seen, cmd)
		return "ok"
	})
	if offset != 8 {
		t.Errorf("expected offset 8, got %d", offset)
	}
	if len(seen) != 1 || len(fake.messages) != 1 {
		t.Errorf("expected one handled command from the configured chat, got %v / %v", seen, fake.messages)
	}
}

func TestFormatError(t *testing.T) {
	msg := FormatError("A<B", errors.New("x & y"))
	if !strings.Contains(msg, "A&lt;B") || !strings.Contains(msg, "x &amp; y") {
		t.Errorf("expected escaped error message, got %q", msg)
	}
}

func scanReports(n int) []model.ReportRecord {
	day := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	out := make([]model.ReportRecord, n)
	for i := range out {
		out[i] = model.ReportRecord{Ticker: fmt.Sprintf("T%03d", i), Date: day, Price: 100 + float64(i), Signal: model.SignalNeutral, RSI: 50, Distance: 1}
	}
	return out
}

func TestSplitMessage_BalancedTags(t *testing.T) {
	msg := FormatScanTable(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), scanReports(120), []string{"A&B"})
	if len(msg) <= maxMessageLen {
		t.Fatalf("expected a message over the limit, got %d bytes", len(msg))
	}
	chunks := SplitMessage(msg, maxMessageLen)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	rows := 0
	for i, c := range chunks {
		if len(c) > maxMessageLen {
			t.Errorf("chunk %d: %d bytes exceeds limit", i, len(c))
		}
		for _, tag := range []string{"pre", "b"} {
			opens := strings.Count(c, "<"+tag+">")
			closes := strings.Count(c, "</"+tag+">")
			if opens != closes {
				t.Errorf("chunk %d: expected balanced <%s>, got %d open / %d close", i, tag, opens, closes)
			}
		}
		rows += strings.Count(c, "T0") + strings.Count(c, "T1")
	}
	if rows != 120 {
		t.Errorf("expected all 120 rows across chunks, got %d", rows)
	}
}

func TestSplitMessage_LongLineKeepsTagsAndEntities(t *testing.T) {
	line := strings.Repeat("<b>x</b> &amp; ", 50)
	for _, c := range SplitMessage(line, 40) {
		if len(c) > 40 {
			t.Errorf("chunk too long: %q", c)
		}
		if strings.Count(c, "<b>") != strings.Count(c, "</b>") {
			t.Errorf("unbalanced chunk: %q", c)
		}
		if strings.ContainsAny(tagPattern.ReplaceAllString(c, ""), "<>") {
			t.Errorf("chunk cut inside a tag: %q", c)
		}
		if i := strings.LastIndexByte(c, '&'); i >= 0 && !strings.Contains(c[i:], ";") {
			t.Errorf("chunk cut inside an entity: %q", c)
		}
	}
}

func TestSendWithRetry_ResendsOnlyFailedChunk(t *testing.T) {
	fake := &fakeTelegram{failOn: map[int]bool{2: true}}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "")
	n.APIBase = srv.URL
	msg := FormatScanTable(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), scanReports(120), nil)
	chunks := SplitMessage(msg, maxMessageLen)
	if err := n.SendWithRetry(context.Background(), msg, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.messages) != len(chunks) {
		t.Fatalf("expected %d delivered chunks, got %d", len(chunks), len(fake.messages))
	}
	for i := range chunks {
		if fake.messages[i] != chunks[i] {
			t.Errorf("chunk %d delivered out of order or duplicated", i)
		}
	}
}
