package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"RibbonSentinel/internal/analyzer"
	"RibbonSentinel/internal/collector"
	"RibbonSentinel/internal/config"
	"RibbonSentinel/internal/model"
	"RibbonSentinel/internal/notifier"
	"RibbonSentinel/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := flag.String("config", "configs/config.yaml", "path to config file")
	date := flag.String("date", "", "target date YYYY-MM-DD (default: today)")
	mode := flag.String("mode", "report", "report | wave | band | rv")
	tickers := flag.String("tickers", "", "comma-separated tickers (default: watchlist)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if *tickers != "" {
		cfg.Watchlist = nil
		for _, t := range strings.Split(*tickers, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cfg.Watchlist = append(cfg.Watchlist, strings.ToUpper(t))
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	target := time.Now()
	var targetPtr *time.Time
	if *date != "" {
		d, err := analyzer.ParseDate(*date)
		if err != nil {
			log.Fatalf("[FATAL] invalid -date: %v", err)
		}
		target, targetPtr = d, &d
	}

	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.HomeSuffix)
	}
	col := collector.NewCollector(fetcher, cfg.DataSource.HistoryDays, cfg.DataSource.HourlyBars)
	opts := analyzer.Options{Signals: cfg.Signals, Chart: cfg.Chart}

	// One output slot per ticker keeps the watchlist order.
	out := make([]string, len(cfg.Watchlist))
	reports := make([]*model.ReportRecord, len(cfg.Watchlist))

	var g errgroup.Group
	g.SetLimit(cfg.Scan.Concurrency)
	for i, ticker := range cfg.Watchlist {
		g.Go(func() error {
			switch *mode {
			case "report":
				rs, err := col.Collect(ticker)
				if err != nil {
					out[i] = notifier.FormatError(ticker, err)
					return nil
				}
				rec, err := analyzer.Prepare(rs, ticker, target, opts)
				switch {
				case errors.Is(err, analyzer.ErrNoData):
					out[i] = notifier.FormatNoData(ticker, target)
				case err != nil:
					out[i] = notifier.FormatError(ticker, err)
				default:
					reports[i] = &rec
					out[i] = notifier.FormatReport(&rec)
				}
			case "wave":
				rs, err := col.Collect(ticker)
				if err != nil {
					out[i] = notifier.FormatError(ticker, err)
					return nil
				}
				pred, err := analyzer.PredictWave(rs, ticker, targetPtr, cfg.Wave)
				if err != nil {
					out[i] = notifier.FormatError(ticker, err)
					return nil
				}
				out[i] = notifier.FormatWave(&pred)
			case "band":
				bars, err := col.CollectWideBand(ticker, cfg.WideBand)
				if err != nil {
					out[i] = notifier.FormatError(ticker, err)
					return nil
				}
				reading := strategy.ClassifyWideBand(ticker, bars)
				out[i] = notifier.FormatBand(&reading)
			case "rv":
				series, err := col.CollectHourly(ticker)
				if err == nil && len(series) == 0 {
					err = analyzer.ErrNoData
				}
				if err != nil {
					out[i] = notifier.FormatError(ticker, err)
					return nil
				}
				out[i] = notifier.FormatRelativeVolume(ticker, &series[len(series)-1], cfg.Scan.RVThreshold)
			default:
				return fmt.Errorf("unknown mode %q", *mode)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	for _, s := range out {
		fmt.Println(notifier.PlainText(s))
	}

	if *mode == "report" {
		var done []model.ReportRecord
		var failed []string
		for i, r := range reports {
			if r == nil {
				failed = append(failed, cfg.Watchlist[i])
				continue
			}
			done = append(done, *r)
		}
		fmt.Println(notifier.PlainText(notifier.FormatScanTable(target, done, failed)))
	}
}
