package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dvloznov/bank-analyzer/internal/analysis"
	"github.com/dvloznov/bank-analyzer/internal/config"
	"github.com/dvloznov/bank-analyzer/internal/domain"
	"github.com/dvloznov/bank-analyzer/internal/home"
	"github.com/dvloznov/bank-analyzer/internal/logger"
	"github.com/dvloznov/bank-analyzer/internal/marketdata"
	"github.com/dvloznov/bank-analyzer/internal/source"
)

var errUsage = errors.New("usage")

func main() {
	cfg := config.Load()
	log, runID := logger.WithRunID(logger.NewWithLevel(cfg.LogLevel))

	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Debug().Str("run_id", runID).Str("command", os.Args[1]).Msg("Starting")

	err := run(ctx, cfg, os.Args[1], os.Args[2:], os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("Command failed")
	}
}

// run dispatches a subcommand. Results go to stdout as JSON; logs go to stderr.
func run(ctx context.Context, cfg *config.Config, command string, args []string, stdout io.Writer) error {
	switch command {
	case "home":
		return runHome(ctx, cfg, args, stdout)
	case "search":
		return runSearch(ctx, cfg, args, stdout)
	case "report":
		return runReport(ctx, cfg, args, stdout)
	case "export":
		return runExport(ctx, cfg, args)
	case "upload":
		return runUpload(ctx, args)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage(os.Stderr)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Bank Operations Analyzer CLI")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  cli <command> [options]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  home      Card spending, top operations and quotes for a month")
	fmt.Fprintln(w, "  search    Find operations by description or category")
	fmt.Fprintln(w, "  report    Spending of a category over the last three months")
	fmt.Fprintln(w, "  export    Copy operations into a BigQuery table")
	fmt.Fprintln(w, "  upload    Upload a local export to a GCS bucket")
	fmt.Fprintln(w, "  help      Show this help message")
	fmt.Fprintln(w, "\nSources (-file or TRANSACTIONS_SOURCE): operations.xlsx, operations.csv,")
	fmt.Fprintln(w, "  gs://bucket/operations.xlsx, bq://project.dataset.table, sheets://spreadsheetID/Sheet")
	fmt.Fprintln(w, "\nRun 'cli <command> -h' for more information on a command.")
}

func runHome(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("home", flag.ContinueOnError)
	file := fs.String("file", cfg.TransactionsSource, "Transactions source")
	date := fs.String("date", "", "Date YYYY-MM-DD (default today)")
	settingsFile := fs.String("settings", cfg.SettingsFile, "Path to user_settings.json")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	src, err := openSource(cfg, *file)
	if err != nil {
		return err
	}

	opts := marketdata.Options{
		BaseURL:           cfg.AlphaVantageBaseURL,
		APIKey:            cfg.AlphaVantageAPIKey,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Timeout:           cfg.HTTPTimeout,
	}
	composer := home.NewComposer(src, *settingsFile,
		marketdata.NewCurrencyClient(opts, cfg.QuoteCurrency),
		marketdata.NewStockClient(opts),
	)

	resp, err := composer.Compose(ctx, *date)
	if err != nil {
		return err
	}
	return writeJSON(stdout, resp)
}

func runSearch(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	file := fs.String("file", cfg.TransactionsSource, "Transactions source")
	query := fs.String("query", "", "Text to look for in descriptions and categories")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *query == "" && fs.NArg() > 0 {
		*query = strings.Join(fs.Args(), " ")
	}

	txs, err := loadTransactions(ctx, cfg, *file)
	if err != nil {
		return err
	}

	found := analysis.Search(txs, *query)
	log := logger.FromContext(ctx)
	log.Info().Str("query", *query).Int("found", len(found)).Msg("Search completed")
	return writeJSON(stdout, found)
}

func runReport(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	file := fs.String("file", cfg.TransactionsSource, "Transactions source")
	category := fs.String("category", "", "Category name (case-insensitive)")
	date := fs.String("date", "", "End of the three month window, YYYY-MM-DD (default today)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if strings.TrimSpace(*category) == "" {
		fmt.Fprintln(os.Stderr, "Usage: cli report -category NAME [-date YYYY-MM-DD] [-file SOURCE]")
		return errUsage
	}

	txs, err := loadTransactions(ctx, cfg, *file)
	if err != nil {
		return err
	}

	rows, err := analysis.SpendingByCategory(txs, *category, *date)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)

	log.Info().
		Str("category", *category).
		Int("rows", len(rows)).
		Str("total", analysis.TotalSpending(rows).String()).
		Msg("Spending report built")
	return writeJSON(stdout, rows)
}

func runExport(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	file := fs.String("file", cfg.TransactionsSource, "Transactions source")
	table := fs.String("table", "", "Destination bq://project.dataset.table")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *table == "" {
		fmt.Fprintln(os.Stderr, "Usage: cli export -table bq://project.dataset.table [-file SOURCE]")
		return errUsage
	}

	dst, err := source.NewBigQuerySource(*table, cfg.GCPProject)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	txs, err := loadTransactions(ctx, cfg, *file)
	if err != nil {
		return err
	}
	return dst.Export(ctx, txs)
}

func runUpload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	file := fs.String("file", "", "Local .xlsx or .csv export")
	bucket := fs.String("bucket", "", "Destination bucket")
	object := fs.String("object", "", "Object name (default: file name)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *file == "" || *bucket == "" {
		fmt.Fprintln(os.Stderr, "Usage: cli upload -file PATH -bucket NAME [-object NAME]")
		return errUsage
	}
	if *object == "" {
		*object = filepath.Base(*file)
	}

	return source.UploadFile(ctx, *bucket, *object, *file)
}

func openSource(cfg *config.Config, uri string) (source.Source, error) {
	src, err := source.Open(uri, source.Options{
		GCPProject:            cfg.GCPProject,
		SheetsCredentialsFile: cfg.SheetsCredentialsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("open source %q: %w", uri, err)
	}
	return src, nil
}

func loadTransactions(ctx context.Context, cfg *config.Config, uri string) ([]domain.Transaction, error) {
	src, err := openSource(cfg, uri)
	if err != nil {
		return nil, err
	}
	return src.Load(ctx)
}

// writeJSON prints v indented, keeping Cyrillic text readable.
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
