package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/username/hotel-booking-calendar/internal/availability"
	"github.com/username/hotel-booking-calendar/internal/booking"
	"github.com/username/hotel-booking-calendar/internal/config"
	"github.com/username/hotel-booking-calendar/internal/ledger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configPath string
	teeOutput  string
	logger     *zap.Logger
	outWriter  io.Writer = os.Stdout
)

func main() {
	// Amounts are written as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	var teeFile *os.File

	rootCmd := &cobra.Command{
		Use:   "booking-calendar",
		Short: "Hotel booking calendar",
		Long:  "Validate and price date selections against room availability, and manage bookings",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load config to get log file path
			cfg, err := config.Load(configPath)
			if err == nil && cfg.Log.File != "" {
				logger, err = initFileLogger(cfg.Log.File, cfg.Log.Level)
				if err != nil {
					initLogger(cfg.Log.Level) // Fallback to console
				}
			} else if err == nil {
				initLogger(cfg.Log.Level)
			} else {
				initLogger("info") // Default console logger
			}

			if teeOutput != "" {
				if err := os.MkdirAll(filepath.Dir(teeOutput), 0o755); err != nil {
					return fmt.Errorf("failed to create tee path: %w", err)
				}
				teeFile, err = os.OpenFile(teeOutput, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
				if err != nil {
					return fmt.Errorf("failed to open tee-output file: %w", err)
				}
				outWriter = io.MultiWriter(os.Stdout, teeFile)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if teeFile != nil {
				teeFile.Close()
				outWriter = os.Stdout
			}
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: ./config.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&teeOutput, "tee-output", "", "Mirror command output to file")

	rootCmd.AddCommand(
		quoteCmd(),
		monthCmd(),
		bookCmd(),
		cancelCmd(),
		bookingsCmd(),
		dashboardCmd(),
		occurrencesCmd(),
		serveCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func outPrintf(format string, a ...interface{}) {
	fmt.Fprintf(outWriter, format, a...)
}

func outPrintln(a ...interface{}) {
	fmt.Fprintln(outWriter, a...)
}

// loadConfig loads config and builds the booking service
func loadConfig() (*config.Config, *booking.Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	svc, err := initializeService(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, svc, nil
}

func initializeService(cfg *config.Config) (*booking.Service, error) {
	// Initialize availability source based on type
	var source availability.Source

	switch cfg.Availability.GetType() {
	case "file":
		logger.Info("Using file availability", zap.String("file", cfg.Availability.File))
		fs := availability.NewFileSource(cfg.Availability.File, logger)
		if err := fs.Load(); err != nil {
			return nil, fmt.Errorf("failed to load availability: %w", err)
		}
		source = fs

	case "http":
		logger.Info("Using HTTP availability", zap.String("url", cfg.Availability.URL))
		source = availability.NewHTTPSource(cfg.Availability.URL, cfg.Availability.GetCacheTTL(), logger)

	case "composite":
		logger.Info("Using HTTP availability with file fallback",
			zap.String("url", cfg.Availability.URL),
			zap.String("fallback", cfg.Availability.File))
		primary := availability.NewHTTPSource(cfg.Availability.URL, cfg.Availability.GetCacheTTL(), logger)
		fallback := availability.NewFileSource(cfg.Availability.File, logger)
		composite := availability.NewCompositeSource(primary, fallback, logger)

		// Load fallback availability
		if err := composite.LoadFallback(); err != nil {
			logger.Warn("Failed to load fallback availability, continuing with HTTP only",
				zap.Error(err))
		}
		source = composite

	default:
		return nil, fmt.Errorf("unknown availability type: %s", cfg.Availability.Type)
	}

	// Initialize booking ledger
	bookings := ledger.New(cfg.Ledger.File, logger)
	if err := bookings.Load(); err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	engine, err := cfg.Engine(time.Time{})
	if err != nil {
		return nil, fmt.Errorf("invalid pricing config: %w", err)
	}

	return booking.NewService(source, bookings, engine, cfg.Rooms, logger), nil
}

func initLogger(level string) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		config.Level = lvl
	}

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,  // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	// Setup encoder
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Parse log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	// Create core with lumberjack writer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}
