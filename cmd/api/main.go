package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/bank-analyzer/internal/api"
	"github.com/dvloznov/bank-analyzer/internal/api/handlers"
	"github.com/dvloznov/bank-analyzer/internal/config"
	"github.com/dvloznov/bank-analyzer/internal/home"
	"github.com/dvloznov/bank-analyzer/internal/logger"
	"github.com/dvloznov/bank-analyzer/internal/marketdata"
	"github.com/dvloznov/bank-analyzer/internal/source"
)

func main() {
	cfg := config.Load()

	// Parse command-line flags
	var (
		port     = flag.String("port", cfg.Port, "HTTP server port (or set PORT env)")
		uri      = flag.String("source", cfg.TransactionsSource, "Transactions source: file path, gs://, bq:// or sheets:// URI (or set TRANSACTIONS_SOURCE env)")
		settings = flag.String("settings", cfg.SettingsFile, "Path to user_settings.json (or set SETTINGS_FILE env)")
	)
	flag.Parse()
	cfg.Port, cfg.TransactionsSource, cfg.SettingsFile = *port, *uri, *settings

	// Initialize logger
	log := logger.NewWithLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.AlphaVantageAPIKey == "" {
		log.Warn().Msg("No market data API key configured - quotes will be omitted")
	}

	src, err := source.Open(cfg.TransactionsSource, source.Options{
		GCPProject:            cfg.GCPProject,
		SheetsCredentialsFile: cfg.SheetsCredentialsFile,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open transactions source")
	}

	// Quotes are cached so repeated home page requests stay within the provider's rate limit.
	opts := marketdata.Options{
		BaseURL:           cfg.AlphaVantageBaseURL,
		APIKey:            cfg.AlphaVantageAPIKey,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Timeout:           cfg.HTTPTimeout,
	}
	currencies := marketdata.NewCachedClient(marketdata.NewCurrencyClient(opts, cfg.QuoteCurrency), "fx:", cfg.MarketCacheTTL)
	stocks := marketdata.NewCachedClient(marketdata.NewStockClient(opts), "stock:", cfg.MarketCacheTTL)

	// Initialize handlers
	composer := home.NewComposer(src, cfg.SettingsFile, currencies, stocks)
	homeHandler := handlers.NewHomeHandler(composer)
	transactionsHandler := handlers.NewTransactionsHandler(src)

	router := api.NewRouter(homeHandler, transactionsHandler, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("source", cfg.TransactionsSource).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
