package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"wavewatch/config"
	"wavewatch/internal/api"
	"wavewatch/internal/display"
	"wavewatch/internal/handlers"
	"wavewatch/internal/logger"
	"wavewatch/internal/metrics"
	"wavewatch/internal/operations/backtest"
	"wavewatch/internal/operations/binance"
	"wavewatch/internal/operations/notify"
	"wavewatch/internal/repositories"
)

func main() {
	replay := flag.Bool("replay", false, "replay recent history through the strategy and exit")
	replayLimit := flag.Int("replay-candles", 1000, "candles per symbol for -replay")
	quiet := flag.Bool("quiet", false, "do not render the table on stdout")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load config:", err)
		os.Exit(2)
	}

	log := logger.Init(cfg.Log.Level, cfg.Log.Format)

	// Setup context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Binance client
	bcfg := binance.DefaultConfig()
	bcfg.Market = cfg.Exchange.Market
	bcfg.APIKey = cfg.Exchange.APIKey
	bcfg.SecretKey = cfg.Exchange.SecretKey
	client, err := binance.NewBinanceClient(bcfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create binance client")
	}

	if *replay {
		runReplay(ctx, cfg, client, *replayLimit, log)
		return
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	channels, journal, cleanup := setupNotifiers(cfg, log)
	defer cleanup()
	dispatcher := notify.NewDispatcher(channels, notify.DefaultTimeout, log, m)

	names := make([]string, 0, len(dispatcher.Channels()))
	for _, ch := range dispatcher.Channels() {
		names = append(names, ch.Name())
	}
	log.Info().Strs("channels", names).Msg("notification channels ready")

	board := display.NewBoard()
	stream := api.NewStream(log)
	observers := []handlers.CycleObserver{board, stream}
	if !*quiet {
		observers = append(observers, display.NewConsole(os.Stdout))
	}

	monitor, err := handlers.NewMonitor(client, dispatcher, cfg.Settings(), log, m, observers...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create monitor")
	}

	if cfg.HTTPAddr != "" {
		server := api.NewServer(board, stream, reg, func() string { return monitor.State().String() }, log).
			WithSettings(monitor)
		if journal != nil {
			server.WithJournal(journal)
		}
		go func() {
			if err := server.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
				log.Error().Err(err).Msg("http server stopped")
			}
		}()
	}

	log.Info().
		Strs("symbols", cfg.Monitor.Symbols).
		Str("timeframe", cfg.Monitor.Timeframe).
		Str("strategy", cfg.Monitor.Strategy).
		Dur("interval", cfg.Monitor.PollInterval).
		Msg("monitoring started")

	monitor.Run(ctx)

	log.Info().Msg("Shutting down...")
	dispatcher.Wait()
	log.Info().Msg("Shutdown complete")
}

// setupNotifiers builds the configured channels. The journal repository is
// nil unless DB_DRIVER is set.
func setupNotifiers(cfg *config.Config, log zerolog.Logger) ([]notify.Notifier, *repositories.SignalRepository, func()) {
	channels := []notify.Notifier{notify.NewLogNotifier(log)}
	var closers []func()
	var journal *repositories.SignalRepository

	if cfg.Notify.TelegramToken != "" {
		channels = append(channels, notify.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID, ""))
	}
	if cfg.Notify.WebhookURL != "" {
		channels = append(channels, notify.NewWebhookNotifier(cfg.Notify.WebhookURL))
	}
	if cfg.Notify.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Notify.RedisAddr,
			Password: cfg.Notify.RedisPassword,
		})
		closers = append(closers, func() { _ = rdb.Close() })
		channels = append(channels, notify.NewRedisNotifier(rdb, cfg.Notify.RedisChannel))
	}
	if cfg.Database.Enabled() {
		repo, closeDB, err := setupJournal(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up signal journal")
		}
		closers = append(closers, closeDB)
		channels = append(channels, notify.NewJournalNotifier(repo))
		journal = repo
	}

	return channels, journal, func() {
		for _, c := range closers {
			c()
		}
	}
}

func setupJournal(dbConfig config.DatabaseConfig) (*repositories.SignalRepository, func(), error) {
	var dialector gorm.Dialector
	switch dbConfig.Driver {
	case "postgres":
		dialector = postgres.Open(dbConfig.PostgresDSN())
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(dbConfig.SQLitePath), 0o755); err != nil {
			return nil, nil, err
		}
		dialector = sqlite.Open(dbConfig.SQLitePath)
	default:
		return nil, nil, fmt.Errorf("unknown driver %q", dbConfig.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Error),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	repo := repositories.NewSignalRepository(db)
	// Auto migrate database schemas
	if err := repo.Migrate(); err != nil {
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return repo, closeDB, nil
}

func runReplay(ctx context.Context, cfg *config.Config, client *binance.BinanceClient, limit int, log zerolog.Logger) {
	settings := cfg.Settings()
	engine := backtest.NewEngine(backtest.NewConfig(settings.Params))

	for _, symbol := range settings.Symbols {
		candles, err := client.GetCandles(ctx, symbol, settings.Timeframe, limit)
		if err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("replay: fetch failed")
			continue
		}

		results, err := engine.Run(symbol, candles)
		if err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("replay failed")
			continue
		}

		// Print results
		fmt.Printf("\n=== Replay %s (%s, %s, %d candles) ===\n", symbol, settings.Timeframe, settings.Params.Strategy, len(candles))
		fmt.Printf("Signals: %d\n", results.Signals)
		fmt.Printf("Total Trades: %d (open: %d)\n", results.TotalTrades, results.OpenTrades)
		fmt.Printf("Winning Trades: %d (%.2f%%)\n", results.WinningTrades, results.WinRate*100)
		fmt.Printf("Average PnL: %.2f%%\n", results.AveragePnLPct*100)
		for _, t := range results.Trades {
			fmt.Printf("  %s %-4s %-18s entry %.4f exit %.4f (%s) %.2f%%\n",
				t.EntryTime.Format("2006-01-02 15:04"), t.Side, t.Label, t.EntryPrice, t.ExitPrice, t.Reason, t.PnLPct*100)
		}
	}
}
