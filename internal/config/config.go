// Package config loads tool configuration from CLI flags, a .env file and
// OS environment variables. Priority: CLI args > .env file > environment.
package config

import (
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// CLIOptions holds command-line argument overrides
type CLIOptions struct {
	Batch        bool   // -batch: discover, normalize and rename log files
	Mode         bool   // -mode: classify analysis mode of the listed files
	Inspect      string // -inspect: print the structured record of one log file
	History      bool   // -history: list recent batch runs from the database
	SourceDirs   string // -source-dirs: comma-separated source directories
	OutputDir    string // -output-dir: destination directory for renamed files
	Recursive    bool   // -recursive: recurse into source subdirectories
	Clean        bool   // -clean: normalize log text while renaming
	KeepOriginal bool   // -keep-original: retain prefixed copies of source files
	CSVPath      string // -csv: write the batch result table to this file
	Verbose      bool   // -verbose: debug-level logging
	ShowHelp     bool   // -help: show usage
	ShowVersion  bool   // -version: show version
}

// ParseCLI parses command-line arguments and returns CLIOptions
func ParseCLI() *CLIOptions {
	opts := &CLIOptions{}

	flag.BoolVar(&opts.Batch, "batch", false, "Discover, normalize and rename pod log files")
	flag.BoolVar(&opts.Mode, "mode", false, "Classify the analysis mode (single-unit vs fleet) of the listed files")
	flag.StringVar(&opts.Inspect, "inspect", "", "Print the structured record (milestones, self-tests) of one log file")
	flag.BoolVar(&opts.History, "history", false, "List recent batch runs from the history database")
	flag.StringVar(&opts.SourceDirs, "source-dirs", "", "Comma-separated source directories (overrides config)")
	flag.StringVar(&opts.OutputDir, "output-dir", "", "Destination directory for renamed files (overrides config)")
	flag.BoolVar(&opts.Recursive, "recursive", false, "Recurse into source subdirectories")
	flag.BoolVar(&opts.Clean, "clean", false, "Normalize log text (merge continuations, expand contractions)")
	flag.BoolVar(&opts.KeepOriginal, "keep-original", false, "Retain a prefixed copy of each original file")
	flag.StringVar(&opts.CSVPath, "csv", "", "Write the batch result table to this CSV file")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Enable debug-level logging")
	flag.BoolVar(&opts.ShowHelp, "help", false, "Show usage information")
	flag.BoolVar(&opts.ShowVersion, "version", false, "Show version information")

	// Custom usage message
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "podlog - Pod diagnostic log normalization and extraction\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options] [files...]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nExamples:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  %s -batch -source-dirs /data/raw -output-dir /data/renamed -clean\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "  %s -mode /data/renamed/TypeB_100_20250128_M1.log /data/renamed/TypeB_100_20250201_M2.log\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "  %s -inspect /data/renamed/TypeA_12_20250128_MISSION-A.log\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment variables can be set in .env file or exported directly.\n")
		_, _ = fmt.Fprintf(os.Stderr, "CLI arguments override environment variables.\n")
	}

	flag.Parse()

	return opts
}

// PrintUsage prints the command-line usage information
func PrintUsage() {
	flag.Usage()
}

// Config holds all application configuration
type Config struct {
	// Batch pipeline
	SourceDirs   []string
	OutputDir    string
	Recursive    bool
	Clean        bool
	KeepOriginal bool

	// Application
	LogLevel string
	Verbose  bool

	// History database
	EnableDatabase bool
	DatabasePath   string
	HistoryDays    int

	// Telegram notifications (optional, active when the token is set)
	TelegramBotToken       string
	TelegramArchiveChannel int64
	TelegramAlertsChannel  int64
}

// NotificationsEnabled reports whether batch reports should go to Telegram.
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramBotToken != ""
}

// Load loads configuration from .env file and environment variables
// Priority: .env file > OS environment variables
// For CLI overrides, use LoadWithCLI instead
func Load() (*Config, error) {
	return LoadWithCLI(nil)
}

// LoadWithCLI loads configuration with CLI argument overrides
// Priority: CLI args > .env file > OS environment variables
func LoadWithCLI(cli *CLIOptions) (*Config, error) {
	// Set up viper first to read OS environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Load .env file to override OS environment variables
	// godotenv.Load() sets OS env vars from .env, which viper will then read
	_ = godotenv.Load()

	// Set defaults
	setDefaults()

	config := &Config{
		SourceDirs:   splitDirs(viper.GetString("SOURCE_DIRS")),
		OutputDir:    viper.GetString("OUTPUT_DIR"),
		Recursive:    viper.GetBool("RECURSIVE"),
		Clean:        viper.GetBool("CLEAN_LOGS"),
		KeepOriginal: viper.GetBool("KEEP_ORIGINAL"),

		LogLevel: viper.GetString("LOG_LEVEL"),

		EnableDatabase: viper.GetBool("ENABLE_DATABASE"),
		DatabasePath:   viper.GetString("DATABASE_PATH"),
		HistoryDays:    viper.GetInt("HISTORY_DAYS"),

		TelegramBotToken:       viper.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramArchiveChannel: viper.GetInt64("TELEGRAM_CHANNEL_ARCHIVE_ID"),
		TelegramAlertsChannel:  viper.GetInt64("TELEGRAM_CHANNEL_ALERTS_ID"),
	}

	// Apply CLI overrides (highest priority)
	if cli != nil {
		if cli.SourceDirs != "" {
			config.SourceDirs = splitDirs(cli.SourceDirs)
		}
		if cli.OutputDir != "" {
			config.OutputDir = cli.OutputDir
		}
		if cli.Recursive {
			config.Recursive = true
		}
		if cli.Clean {
			config.Clean = true
		}
		if cli.KeepOriginal {
			config.KeepOriginal = true
		}
		if cli.Verbose {
			config.Verbose = true
			config.LogLevel = "debug"
		}
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// splitDirs splits a comma-separated directory list, dropping empty entries.
func splitDirs(s string) []string {
	var dirs []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			dirs = append(dirs, part)
		}
	}
	return dirs
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("SOURCE_DIRS", "")
	viper.SetDefault("OUTPUT_DIR", "./renamed")
	viper.SetDefault("RECURSIVE", false)
	viper.SetDefault("CLEAN_LOGS", false)
	viper.SetDefault("KEEP_ORIGINAL", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ENABLE_DATABASE", true)
	viper.SetDefault("DATABASE_PATH", "./data/podlog.db")
	viper.SetDefault("HISTORY_DAYS", 30)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate log level
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	// Validate database settings
	if c.EnableDatabase && c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required when ENABLE_DATABASE is true")
	}
	if c.HistoryDays <= 0 {
		return fmt.Errorf("HISTORY_DAYS must be positive")
	}

	// Telegram settings are validated only when notifications are enabled
	if c.TelegramBotToken != "" {
		telegramTokenRegex := regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)
		if !telegramTokenRegex.MatchString(c.TelegramBotToken) {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN has invalid format (expected: 'number:token')")
		}
		if c.TelegramArchiveChannel == 0 {
			return fmt.Errorf("TELEGRAM_CHANNEL_ARCHIVE_ID is required when TELEGRAM_BOT_TOKEN is set")
		}
		if c.TelegramArchiveChannel > -100 {
			return fmt.Errorf("TELEGRAM_CHANNEL_ARCHIVE_ID must be a supergroup/channel ID (starts with -100)")
		}
		if c.TelegramAlertsChannel != 0 && c.TelegramAlertsChannel > -100 {
			return fmt.Errorf("TELEGRAM_CHANNEL_ALERTS_ID must be a supergroup/channel ID (starts with -100)")
		}
	}

	return nil
}
