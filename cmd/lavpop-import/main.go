// lavpop-import uploads POS CSV exports to Supabase from the command
// line. It runs the same parsing pipeline as the HTTP ingest endpoints
// but batches the upserts itself so progress can be reported per batch.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/config"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/domain"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/observability"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/resilience"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/infra/supabase"
	"github.com/lucaslopezpuerta/lavpop-bi-go/internal/ingest"
)

var (
	flagSource    string
	flagBatchSize int
	flagDryRun    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "lavpop-import",
		Short:         "Upload Lavpop POS CSV exports to Supabase",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagSource, "source", "cli_upload", "Source label recorded in the upload history")
	rootCmd.PersistentFlags().IntVar(&flagBatchSize, "batch-size", 100, "Rows per upsert request")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "Parse and report without writing to Supabase")

	salesCmd := &cobra.Command{
		Use:   "sales <file.csv>",
		Short: "Upload a sales export (Data_Hora / Maquinas columns)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSales(cmd.Context(), args[0])
		},
	}

	customersCmd := &cobra.Command{
		Use:   "customers <file.csv>",
		Short: "Upload a customer export (Documento / Saldo_Carteira columns)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCustomers(cmd.Context(), args[0])
		},
	}

	rootCmd.AddCommand(salesCmd, customersCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newStore() (*supabase.Client, error) {
	_ = config.LoadDotEnv(".env")
	cfg := config.Load()
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}

	logger := observability.NewLogger("warn")
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	return supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	), nil
}

func runSales(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	if ft := ingest.DetectFileType(string(data)); ft != ingest.FileTypeSales {
		return fmt.Errorf("%s does not look like a sales export (detected %q)", path, ft)
	}

	store, err := newStore()
	if err != nil {
		return err
	}

	settings := loadSettings(ctx, store)
	cashbackStart, err := time.Parse("2006-01-02", settings.CashbackStartDate)
	if err != nil {
		cashbackStart = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	}

	parsed := ingest.ParseSales(string(data), ingest.SalesOptions{
		CashbackRate:  settings.CashbackPercent / 100,
		CashbackStart: cashbackStart,
		SourceFile:    path,
	})

	fmt.Printf("Parsed %d rows: %d valid, %d skipped, %d duplicates\n",
		parsed.Total, len(parsed.Transactions), parsed.Skipped, parsed.Duplicates)
	for _, rowErr := range parsed.Errors {
		fmt.Printf("  warn: %s\n", rowErr)
	}

	if flagDryRun || len(parsed.Transactions) == 0 {
		return nil
	}

	start := time.Now()
	result := &domain.UploadResult{
		FileType: ingest.FileTypeSales,
		Total:    parsed.Total,
		Skipped:  parsed.Skipped + parsed.Duplicates,
		Errors:   parsed.Errors,
	}

	bar := progressbar.Default(int64(len(parsed.Transactions)), "uploading")
	for i := 0; i < len(parsed.Transactions); i += flagBatchSize {
		end := i + flagBatchSize
		if end > len(parsed.Transactions) {
			end = len(parsed.Transactions)
		}
		batch := parsed.Transactions[i:end]

		n, err := store.UpsertTransactions(ctx, batch)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("batch %d: %v", i/flagBatchSize+1, err))
			continue
		}
		result.Inserted += n
		bar.Add(len(batch))
	}

	recordHistory(ctx, store, path, result, time.Since(start))
	printResult(result)
	return nil
}

func runCustomers(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	if ft := ingest.DetectFileType(string(data)); ft != ingest.FileTypeCustomers {
		return fmt.Errorf("%s does not look like a customer export (detected %q)", path, ft)
	}

	store, err := newStore()
	if err != nil {
		return err
	}

	parsed := ingest.ParseCustomers(string(data))
	fmt.Printf("Parsed %d rows: %d customers, %d skipped\n",
		parsed.Total, len(parsed.Customers), parsed.Skipped)
	for _, rowErr := range parsed.Errors {
		fmt.Printf("  warn: %s\n", rowErr)
	}

	if flagDryRun || len(parsed.Customers) == 0 {
		return nil
	}

	start := time.Now()
	result := &domain.UploadResult{
		FileType: ingest.FileTypeCustomers,
		Total:    parsed.Total,
		Skipped:  parsed.Skipped,
		Errors:   parsed.Errors,
	}

	bar := progressbar.Default(int64(len(parsed.Customers)), "uploading")
	for i := 0; i < len(parsed.Customers); i += flagBatchSize {
		end := i + flagBatchSize
		if end > len(parsed.Customers) {
			end = len(parsed.Customers)
		}
		batch := parsed.Customers[i:end]

		n, err := store.UpsertCustomers(ctx, batch)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("batch %d: %v", i/flagBatchSize+1, err))
			continue
		}
		result.Updated += n
		bar.Add(len(batch))
	}

	recordHistory(ctx, store, path, result, time.Since(start))
	printResult(result)
	return nil
}

func loadSettings(ctx context.Context, store *supabase.Client) *domain.AppSettings {
	settings, err := store.GetAppSettings(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warn: app settings unavailable, using defaults: %v\n", err)
		return &domain.AppSettings{CashbackPercent: 7.5, CashbackStartDate: "2024-06-01"}
	}
	return settings
}

func recordHistory(ctx context.Context, store *supabase.Client, path string, result *domain.UploadResult, elapsed time.Duration) {
	status := "partial"
	if result.Success() {
		status = "success"
	}
	entry := &domain.UploadHistoryEntry{
		FileType:        result.FileType,
		FileName:        path,
		RecordsTotal:    result.Total,
		RecordsInserted: result.Inserted,
		RecordsUpdated:  result.Updated,
		RecordsSkipped:  result.Skipped,
		Errors:          result.Errors,
		Source:          flagSource,
		DurationMs:      elapsed.Milliseconds(),
		Status:          status,
	}
	if err := store.RecordUpload(ctx, entry); err != nil {
		fmt.Fprintf(os.Stderr, "warn: upload history not recorded: %v\n", err)
	}
}

func printResult(result *domain.UploadResult) {
	fmt.Printf("\nDone: %d inserted, %d updated, %d skipped", result.Inserted, result.Updated, result.Skipped)
	if len(result.Errors) > 0 {
		fmt.Printf(", %d errors", len(result.Errors))
	}
	fmt.Println()
}
