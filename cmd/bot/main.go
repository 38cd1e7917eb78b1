package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"RibbonSentinel/internal/analyzer"
	"RibbonSentinel/internal/collector"
	"RibbonSentinel/internal/config"
	"RibbonSentinel/internal/metrics"
	"RibbonSentinel/internal/notifier"
	"RibbonSentinel/internal/recorder"
	"RibbonSentinel/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] RibbonSentinel starting...")

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	if err := cfg.ValidateTelegram(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy, cfg.DataSource.HomeSuffix)
	}
	log.Printf("[INFO] data source: %s, watchlist: %v", fetcher.Name(), cfg.Watchlist)

	col := collector.NewCollector(fetcher, cfg.DataSource.HistoryDays, cfg.DataSource.HourlyBars)

	// Init Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.Printf("[ERROR] metrics server: %v", err)
			}
		}()
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, tn, rec, m, scheduler.Options{
		Watchlist:   cfg.Watchlist,
		Concurrency: cfg.Scan.Concurrency,
		RVThreshold: cfg.Scan.RVThreshold,
		Report:      analyzer.Options{Signals: cfg.Signals, Chart: cfg.Chart},
		Wave:        cfg.Wave,
		WideBand:    cfg.WideBand,
	})
	if err := sched.RegisterAll(cfg.Schedule.ScanCron, cfg.Schedule.VolumeCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Println("[INFO] Telegram polling started")

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing scan now")
		go sched.RunScanNow()
	}

	log.Println("[INFO] RibbonSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] RibbonSentinel stopped")
}
