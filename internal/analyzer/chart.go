package analyzer

import "strings"

const (
	DefaultChartBaseURL  = "https://pl.tradingview.com/chart/4dItPTLJ/?symbol="
	DefaultHomeExchange  = "GPW"
	tickerSuffixSplitter = "."
)

// ChartConfig configures external chart links.
type ChartConfig struct {
	BaseURL      string `yaml:"base_url"`
	HomeExchange string `yaml:"home_exchange"`
}

// DefaultChartConfig returns the default chart link settings.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{BaseURL: DefaultChartBaseURL, HomeExchange: DefaultHomeExchange}
}

// ChartSymbol maps a ticker to an exchange-prefixed chart symbol.
// "ORA.PA" becomes "PA:ORA"; a bare ticker is prefixed with the home exchange.
func ChartSymbol(ticker, homeExchange string) string {
	if strings.Contains(ticker, tickerSuffixSplitter) {
		parts := strings.Split(ticker, tickerSuffixSplitter)
		return parts[1] + ":" + parts[0]
	}
	return homeExchange + ":" + ticker
}

// ChartLink returns the chart URL for ticker.
func (c ChartConfig) ChartLink(ticker string) (symbol, link string) {
	symbol = ChartSymbol(ticker, c.HomeExchange)
	return symbol, c.BaseURL + symbol
}
