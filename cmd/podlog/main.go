package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olegiv/go-logger"

	"github.com/avionworks/podlog-go/internal/batch"
	"github.com/avionworks/podlog-go/internal/config"
	"github.com/avionworks/podlog-go/internal/fleet"
	"github.com/avionworks/podlog-go/internal/logging"
	"github.com/avionworks/podlog-go/internal/notification"
	"github.com/avionworks/podlog-go/internal/report"
	"github.com/avionworks/podlog-go/internal/storage"
)

const (
	exitSuccess = 0
	exitFailure = 1
)

// Version information - injected at build time via ldflags
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse CLI arguments first
	cli := config.ParseCLI()

	if cli.ShowHelp {
		config.PrintUsage()
		return exitSuccess
	}

	if cli.ShowVersion {
		fmt.Printf("podlog %s\n", version)
		if gitCommit != "unknown" {
			fmt.Printf("  commit: %s\n", gitCommit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
		return exitSuccess
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Load configuration with CLI overrides
	cfg, err := config.LoadWithCLI(cli)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return exitFailure
	}

	// Initialize logger with credential sanitization
	baseLog := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		LogDir:     "./logs",
		MaxSizeMB:  10,
		MaxBackups: 5,
		Console:    true,
	})
	log := logging.NewSecure(baseLog)
	defer func() {
		if err := log.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close logger: %v\n", err)
		}
	}()

	switch {
	case cli.Inspect != "":
		err = runInspect(cli.Inspect)
	case cli.Mode:
		err = runMode(flag.Args())
	case cli.History:
		err = runHistory(cfg)
	case cli.Batch:
		err = runBatch(ctx, cfg, cli, baseLog, log)
	default:
		config.PrintUsage()
		return exitFailure
	}

	if err != nil {
		log.Error().Err(err).Msg("Command failed")
		return exitFailure
	}
	return exitSuccess
}

// runBatch discovers, normalizes and renames log files, then reports,
// persists and optionally notifies the outcome.
func runBatch(ctx context.Context, cfg *config.Config, cli *config.CLIOptions, baseLog *logger.Logger, log *logging.SecureLogger) error {
	if len(cfg.SourceDirs) == 0 {
		return fmt.Errorf("no source directories configured (use -source-dirs or SOURCE_DIRS)")
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("no output directory configured (use -output-dir or OUTPUT_DIR)")
	}

	log.Info().
		Int("dirs", len(cfg.SourceDirs)).
		Str("output", cfg.OutputDir).
		Bool("clean", cfg.Clean).
		Msg("Starting batch run")

	startTime := time.Now()

	orchestrator := batch.New(baseLog.Logger)
	progress := func(current, total int, name string) {
		if current == 0 {
			log.Info().Int("total", total).Msg("Batch processing started")
			return
		}
		log.Debug().Int("current", current).Int("total", total).Str("file", name).Msg("Processing")
	}

	results, err := orchestrator.Run(ctx, batch.Options{
		SourceDirs:   cfg.SourceDirs,
		OutputDir:    cfg.OutputDir,
		Recursive:    cfg.Recursive,
		Clean:        cfg.Clean,
		KeepOriginal: cfg.KeepOriginal,
	}, progress)
	if err != nil {
		return fmt.Errorf("batch run failed: %w", err)
	}

	duration := time.Since(startTime)
	counts := batch.CountResults(results)
	log.Info().
		Int("total", counts.Total).
		Int("success", counts.Success).
		Int("warning", counts.Warning).
		Int("error", counts.Error).
		Float64("duration_s", duration.Seconds()).
		Msg("Batch completed")

	fmt.Printf("Processed %d files: %d ok, %d warnings, %d errors (%.1fs)\n",
		counts.Total, counts.Success, counts.Warning, counts.Error, duration.Seconds())

	if cli.CSVPath != "" {
		if err := writeCSV(cli.CSVPath, results); err != nil {
			return err
		}
		log.Info().Str("path", cli.CSVPath).Msg("Wrote result table")
	}

	if cfg.EnableDatabase {
		if err := saveHistory(cfg, results, duration, startTime); err != nil {
			// History is bookkeeping; a failed save should not fail the batch.
			log.Warn().Err(err).Msg("Failed to save batch history")
		}
	}

	if cfg.NotificationsEnabled() {
		client, err := notification.NewTelegramClient(cfg.TelegramBotToken,
			cfg.TelegramArchiveChannel, cfg.TelegramAlertsChannel)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create Telegram client")
		} else if err := client.SendBatchReport(results, cfg.SourceDirs, duration); err != nil {
			log.Warn().Err(err).Msg("Failed to send batch report")
		}
	}

	return nil
}

func writeCSV(path string, results []batch.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := batch.WriteCSV(f, results); err != nil {
		return err
	}
	return f.Close()
}

func saveHistory(cfg *config.Config, results []batch.Result, duration time.Duration, startTime time.Time) error {
	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	counts := batch.CountResults(results)
	return store.SaveBatch(&storage.BatchRecord{
		Timestamp:       startTime,
		SourceDirs:      cfg.SourceDirs,
		OutputDir:       cfg.OutputDir,
		Total:           counts.Total,
		Success:         counts.Success,
		Warning:         counts.Warning,
		Error:           counts.Error,
		DurationSeconds: duration.Seconds(),
		Results:         results,
	})
}

// runMode classifies a file selection as single-unit or fleet analysis.
func runMode(files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("no files listed (usage: -mode file1 file2 ...)")
	}

	mode := fleet.Classify(files)
	fmt.Printf("Mode:  %s\n", mode.Kind)
	fmt.Printf("Units: %d\n", mode.Count)
	for _, id := range mode.UnitIDs {
		fmt.Printf("  - sensor %s\n", id)
	}
	return nil
}

// runInspect prints the structured record of one log file.
func runInspect(path string) error {
	rep, err := report.Build(path)
	if err != nil {
		return err
	}
	return rep.WriteText(os.Stdout)
}

// runHistory lists recent batch runs from the history database.
func runHistory(cfg *config.Config) error {
	if !cfg.EnableDatabase {
		return fmt.Errorf("history database is disabled (set ENABLE_DATABASE=true)")
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.RecentBatches(cfg.HistoryDays)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Printf("No batch runs in the last %d days\n", cfg.HistoryDays)
		return nil
	}

	for _, rec := range records {
		fmt.Printf("#%d  %s  %d files (%d ok, %d warn, %d err)  %.1fs  -> %s\n",
			rec.ID, rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.Total, rec.Success, rec.Warning, rec.Error,
			rec.DurationSeconds, rec.OutputDir)
	}
	return nil
}
