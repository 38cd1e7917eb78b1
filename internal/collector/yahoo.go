package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"RibbonSentinel/internal/model"
)

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client *http.Client
	// HomeSuffix is appended to tickers without an exchange suffix, e.g. ".WA".
	HomeSuffix string
	SymbolMap  map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL, homeSuffix string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		HomeSuffix: homeSuffix,
		SymbolMap: map[string]string{
			"WIG20": "WIG20.WA",
			"SPX":   "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	if f.HomeSuffix != "" && !strings.Contains(symbol, ".") && !strings.HasPrefix(symbol, "^") {
		return symbol + f.HomeSuffix
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func at(vals []interface{}, i int) float64 {
	if i >= len(vals) {
		return 0
	}
	return toFloat(vals[i])
}

func (f *YahooFetcher) fetchChart(symbol, interval, rng string) ([]model.OHLCV, error) {
	u := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=%s&range=%s",
		url.PathEscape(f.yahooSymbol(symbol)), interval, rng)

	req, err := http.NewRequest("GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}
	return parseYahooChart(body)
}

func parseYahooChart(body []byte) ([]model.OHLCV, error) {
	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no quote block")
	}
	quote := result.Indicators.Quote[0]

	loc := time.UTC
	if tz := result.Meta.ExchangeTimezoneName; tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			log.Printf("[WARN] yahoo: unknown timezone %q, using UTC", tz)
		}
	}

	bars := make([]model.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o := at(quote.Open, i)
		h := at(quote.High, i)
		l := at(quote.Low, i)
		c := at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).In(loc),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: at(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return dedupe(bars), nil
}

// dedupe drops bars repeating the previous timestamp, keeping the later one.
func dedupe(bars []model.OHLCV) []model.OHLCV {
	if len(bars) < 2 {
		return bars
	}
	out := bars[:1]
	for _, b := range bars[1:] {
		if b.Time.Equal(out[len(out)-1].Time) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func (f *YahooFetcher) FetchDailyBars(symbol string, days int) ([]model.OHLCV, error) {
	rng := "5y"
	switch {
	case days <= 30:
		rng = "1mo"
	case days <= 90:
		rng = "3mo"
	case days <= 180:
		rng = "6mo"
	case days <= 250:
		rng = "1y"
	case days <= 500:
		rng = "2y"
	}
	bars, err := f.fetchChart(symbol, "1d", rng)
	if err != nil {
		return nil, err
	}
	// Trim to requested count
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

func (f *YahooFetcher) FetchHourlyBars(symbol string, hours int) ([]model.OHLCV, error) {
	// Yahoo serves 60m bars for at most 730 days
	rng := "2y"
	switch {
	case hours <= 8*22:
		rng = "1mo"
	case hours <= 8*66:
		rng = "3mo"
	case hours <= 8*130:
		rng = "6mo"
	case hours <= 8*260:
		rng = "1y"
	}
	bars, err := f.fetchChart(symbol, "60m", rng)
	if err != nil {
		return nil, err
	}
	if len(bars) > hours {
		bars = bars[len(bars)-hours:]
	}
	return bars, nil
}
