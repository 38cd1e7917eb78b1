package notifier

import (
	"fmt"
	"html"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"RibbonSentinel/internal/model"
)

const dateLayout = "2006-01-02"

var signalLabels = map[model.SignalKind]string{
	model.SignalBuy:     "🟢 BUY",
	model.SignalSell:    "🔴 SELL",
	model.SignalNeutral: "⚪ NEUTRAL",
}

var alignmentLabels = map[model.Alignment]string{
	model.AlignmentBullish:  "Bullish alignment (red > blue > green)",
	model.AlignmentBuilding: "Trend building / consolidation",
}

var momentumLabels = map[model.MomentumClass]string{
	model.MomentumOverheated: "Overheated, pullback risk",
	model.MomentumStrong:     "Strong momentum",
	model.MomentumNeutral:    "Neutral",
}

var slopeLabels = map[model.SlopeClass]string{
	model.SlopeExtreme:  "Extreme acceleration",
	model.SlopeBuilding: "Trend building",
	model.SlopeWeak:     "Weak / sideways",
}

var distanceLabels = map[model.DistanceClass]string{
	model.DistanceNearBase:      "Close to base, safe entry",
	model.DistanceDeviationRisk: "Far from base, deviation risk",
}

var volumeIcons = map[model.VolumeMarker]string{
	model.VolumeHigh:     "🔥",
	model.VolumeElevated: "⚡",
	model.VolumeNormal:   "▫️",
}

var bandLabels = map[model.BandStatus]string{
	model.BandInsufficientData:   "⚪ Insufficient data",
	model.BandAccumulationStrong: "🔨 ACCUMULATE (strong pin bar) 🔥",
	model.BandAccumulationRetest: "🟢 ACCUMULATE (retest) ✅",
	model.BandStop:               "⚠️ SELL (STOP) 🛡️",
	model.BandCriticalSupport:    "🔵 CRITICAL SUPPORT ⚠️",
	model.BandStrongBull:         "🚀 STRONG BULL 🔥",
	model.BandObserve:            "⚪ OBSERVE",
}

var scenarioLabels = map[model.WaveScenario]string{
	model.WaveRebound:      "📈 Rebound",
	model.WaveCorrection:   "📉 Correction",
	model.WaveContinuation: "➡️ Continuation",
}

func label[K comparable](m map[K]string, k K) string {
	if s, ok := m[k]; ok {
		return s
	}
	return fmt.Sprint(k)
}

func num(v float64, places int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", places, v)
}

// FormatReport renders a ReportRecord into the fixed-layout Telegram message.
func FormatReport(r *model.ReportRecord) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔍 <b>RIBBON REPORT: %s</b> | %s\n", html.EscapeString(r.Ticker), r.Date.Format(dateLayout)))
	b.WriteString("──────────────────\n")
	b.WriteString(fmt.Sprintf("PRICE: %s | SIGNAL: <b>%s</b>\n", num(r.Price, 2), label(signalLabels, r.Signal)))
	if r.ChartLink != "" {
		b.WriteString(fmt.Sprintf("CHART: %s\n", html.EscapeString(r.ChartLink)))
	}
	b.WriteString("──────────────────\n")
	b.WriteString(fmt.Sprintf("1. TREND:    %s\n", label(alignmentLabels, r.Alignment)))
	b.WriteString(fmt.Sprintf("2. MOMENTUM: %s -> %s\n", num(r.RSI, 1), label(momentumLabels, r.Momentum)))
	b.WriteString(fmt.Sprintf("3. DYNAMICS: %s -> %s\n", num(r.Slope, 2), label(slopeLabels, r.SlopeClass)))
	b.WriteString(fmt.Sprintf("4. DISTANCE: %s%% -> %s\n", num(r.Distance, 1), label(distanceLabels, r.DistanceClass)))
	b.WriteString("──────────────────\n")
	b.WriteString("📊 <b>Volume (last sessions):</b>\n")
	for _, v := range r.VolumeHistory {
		b.WriteString(fmt.Sprintf("   %s: %s %s\n", v.Date.Format("02.01"), humanize.Comma(v.Volume), label(volumeIcons, v.Marker)))
	}
	return b.String()
}

// FormatNoData is the reply when no bar exists at or before the requested date.
func FormatNoData(ticker string, date time.Time) string {
	return fmt.Sprintf("❌ No data for <b>%s</b> on or before %s", html.EscapeString(ticker), date.Format(dateLayout))
}

// FormatError is the reply when a pipeline step fails for one ticker.
func FormatError(ticker string, err error) string {
	return fmt.Sprintf("❌ <b>%s</b>: %s", html.EscapeString(ticker), html.EscapeString(err.Error()))
}

// FormatWave renders a wave prediction.
func FormatWave(w *model.WavePrediction) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🌊 <b>WAVE: %s</b> | %s\n\n", html.EscapeString(w.Ticker), w.Date.Format(dateLayout)))
	b.WriteString(fmt.Sprintf("Price: %s\n", num(w.Price, 2)))
	b.WriteString(fmt.Sprintf("Scenario: %s\n", label(scenarioLabels, w.Scenario)))
	b.WriteString(fmt.Sprintf("Target: %s (%s)\n", num(w.Target, 2), w.TargetRef))
	b.WriteString(fmt.Sprintf("RSI: %s | Distance to base: %s%%\n", num(w.RSI, 1), num(w.DistToBase, 2)))
	b.WriteString(fmt.Sprintf("Confidence: %s\n", w.Confidence))
	return b.String()
}

// FormatBand renders the wide-band status line.
func FormatBand(r *model.BandReading) string {
	session := "🔴"
	if r.BullishSession {
		session = "🟢"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🎗 <b>BANDS: %s</b>\n", html.EscapeString(r.Symbol)))
	b.WriteString(fmt.Sprintf("%s | Session: %s\n", label(bandLabels, r.Status), session))
	if r.Status == model.BandInsufficientData {
		return b.String()
	}
	bar := r.Bar
	b.WriteString(fmt.Sprintf("\nClose: %s (%s)\n", num(bar.Close, 2), bar.Time.Format(dateLayout)))
	b.WriteString(fmt.Sprintf("Red:   %s - %s\n", num(bar.RedMin, 2), num(bar.RedMax, 2)))
	b.WriteString(fmt.Sprintf("Green: %s - %s\n", num(bar.GreenMin, 2), num(bar.GreenMax, 2)))
	b.WriteString(fmt.Sprintf("Blue:  %s - %s\n", num(bar.BlueMin, 2), num(bar.BlueMax, 2)))
	b.WriteString(fmt.Sprintf("Overheat: %s | Stop: %s\n", num(bar.Overheat, 2), num(bar.StopLoss, 2)))
	if r.PinBar {
		b.WriteString("🔨 Pin bar on the last session\n")
	}
	return b.String()
}

// FormatRelativeVolume renders the latest hour-matched relative volume reading.
func FormatRelativeVolume(ticker string, hv *model.HourlyVolume, threshold float64) string {
	icon := "▫️"
	if !math.IsNaN(hv.RV) && hv.RV >= threshold {
		icon = "🔥"
	}
	return fmt.Sprintf("%s <b>%s</b> %s %02d:00 | volume %s | RV %s (baseline %s)",
		icon, html.EscapeString(ticker), hv.Time.Format(dateLayout), hv.Hour,
		humanize.Comma(int64(hv.Volume)), num(hv.RV, 2), num(hv.Baseline, 0))
}

// FormatScanTable renders the watchlist summary as a monospace table.
func FormatScanTable(date time.Time, reports []model.ReportRecord, failed []string) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Ticker", "Price", "Signal", "RSI", "Dist%"})
	for _, r := range reports {
		t.AppendRow(table.Row{r.Ticker, num(r.Price, 2), string(r.Signal), num(r.RSI, 1), num(r.Distance, 1)})
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>Watchlist scan</b> | %s\n", date.Format(dateLayout)))
	b.WriteString("<pre>")
	b.WriteString(html.EscapeString(t.Render()))
	b.WriteString("</pre>")
	if len(failed) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ No result: %s", html.EscapeString(strings.Join(failed, ", "))))
	}
	return b.String()
}

// FormatHelp lists the chat commands.
func FormatHelp() string {
	return "Commands:\n" +
		"/report TICKER [YYYY-MM-DD] - ribbon report\n" +
		"/wave TICKER [YYYY-MM-DD] - wave prediction\n" +
		"/band TICKER - wide-band status\n" +
		"/rv TICKER - hourly relative volume\n" +
		"/scan - scan the watchlist now"
}

var tagPattern = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// PlainText strips the HTML markup used for Telegram so messages can go to a console.
func PlainText(msg string) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(msg, ""))
}
