package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/username/hotel-booking-calendar/internal/dashboard"
	"github.com/username/hotel-booking-calendar/internal/selection"
	"github.com/username/hotel-booking-calendar/pkg/dateutil"
	"golang.org/x/text/language"
)

// Config represents application configuration
type Config struct {
	Pricing      PricingConfig      `mapstructure:"pricing"`
	Selection    SelectionConfig    `mapstructure:"selection"`
	Availability AvailabilityConfig `mapstructure:"availability"`
	Ledger       LedgerConfig       `mapstructure:"ledger"`
	Rooms        []dashboard.Room   `mapstructure:"rooms"`
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
}

// PricingConfig represents nightly pricing and adjustments.
// Amounts are strings so they are parsed as exact decimals.
type PricingConfig struct {
	BasePrice  string          `mapstructure:"base_price"`
	Currency   string          `mapstructure:"currency"`
	TaxPercent string          `mapstructure:"tax_percent"`
	ServiceFee string          `mapstructure:"service_fee"`
	LongStay   *LongStayConfig `mapstructure:"long_stay"`
}

// LongStayConfig represents the long-stay discount
type LongStayConfig struct {
	MinNights int    `mapstructure:"min_nights"`
	Percent   string `mapstructure:"percent"`
}

// SelectionConfig represents date selection rules
type SelectionConfig struct {
	AllowSingleDay       bool   `mapstructure:"allow_single_day"`
	DisablePastDates     bool   `mapstructure:"disable_past_dates"`
	ShowSelectionErrors  bool   `mapstructure:"show_selection_errors"`
	ShowPriceCalculation bool   `mapstructure:"show_price_calculation"`
	MinDate              string `mapstructure:"min_date"`
	MaxDate              string `mapstructure:"max_date"`
	WeekStart            string `mapstructure:"week_start"` // "sunday" or "monday"
	Locale               string `mapstructure:"locale"`
}

// AvailabilityConfig represents where availability data comes from
type AvailabilityConfig struct {
	Type     string `mapstructure:"type"` // "file", "http" or "composite"
	File     string `mapstructure:"file"`
	URL      string `mapstructure:"url"` // may contain {from} and {to}
	CacheTTL string `mapstructure:"cache_ttl"`
}

// LedgerConfig represents booking storage
type LedgerConfig struct {
	File string `mapstructure:"file"`
}

// ServerConfig represents the HTTP server
type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	ReadTimeout     string `mapstructure:"read_timeout"`
	WriteTimeout    string `mapstructure:"write_timeout"`
	RequestTimeout  string `mapstructure:"request_timeout"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
}

// LogConfig represents logging
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Load loads configuration from file and BOOKING_* environment variables.
// Without an explicit path a missing config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.booking-calendar")
		v.AddConfigPath("/etc/booking-calendar")
	}

	setDefaults(v)

	// Read environment variables, e.g. BOOKING_PRICING_BASE_PRICE
	v.SetEnvPrefix("BOOKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.ExpandEnvVars()

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pricing.base_price", "100")
	v.SetDefault("pricing.currency", "USD")
	v.SetDefault("selection.disable_past_dates", true)
	v.SetDefault("selection.show_selection_errors", true)
	v.SetDefault("selection.show_price_calculation", true)
	v.SetDefault("selection.week_start", "sunday")
	v.SetDefault("selection.locale", "en-US")
	v.SetDefault("availability.type", "file")
	v.SetDefault("availability.file", "availability.yaml")
	v.SetDefault("availability.url", "")
	v.SetDefault("availability.cache_ttl", "5m")
	v.SetDefault("ledger.file", "bookings.json")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate Pricing config
	base, err := parseAmount("pricing.base_price", c.Pricing.BasePrice)
	if err != nil {
		return err
	}
	if base.IsNegative() {
		return fmt.Errorf("pricing.base_price must not be negative")
	}
	if _, err := selection.ParseCurrency(c.Pricing.Currency); err != nil {
		return fmt.Errorf("pricing.currency: %w", err)
	}
	if _, err := parseAmount("pricing.tax_percent", c.Pricing.TaxPercent); err != nil {
		return err
	}
	if _, err := parseAmount("pricing.service_fee", c.Pricing.ServiceFee); err != nil {
		return err
	}
	if ls := c.Pricing.LongStay; ls != nil {
		if ls.MinNights <= 0 {
			return fmt.Errorf("pricing.long_stay.min_nights must be positive")
		}
		pct, err := parseAmount("pricing.long_stay.percent", ls.Percent)
		if err != nil {
			return err
		}
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("pricing.long_stay.percent must be between 0 and 100")
		}
	}

	// Validate Selection config
	minDate, err := parseDate("selection.min_date", c.Selection.MinDate)
	if err != nil {
		return err
	}
	maxDate, err := parseDate("selection.max_date", c.Selection.MaxDate)
	if err != nil {
		return err
	}
	if !minDate.IsZero() && !maxDate.IsZero() && maxDate.Before(minDate) {
		return fmt.Errorf("selection.max_date must not be before selection.min_date")
	}
	if _, err := c.Selection.GetWeekStart(); err != nil {
		return err
	}
	if _, err := language.Parse(c.Selection.GetLocale()); err != nil {
		return fmt.Errorf("selection.locale: %w", err)
	}

	// Validate Availability config
	switch c.Availability.GetType() {
	case "file":
		if c.Availability.File == "" {
			return fmt.Errorf("availability.file is required for file type")
		}
	case "http":
		if c.Availability.URL == "" {
			return fmt.Errorf("availability.url is required for http type")
		}
	case "composite":
		if c.Availability.URL == "" || c.Availability.File == "" {
			return fmt.Errorf("availability.url and availability.file are required for composite type")
		}
	default:
		return fmt.Errorf("availability.type must be 'file', 'http' or 'composite', got '%s'", c.Availability.Type)
	}

	// Validate Rooms
	seen := make(map[string]bool)
	for _, r := range c.Rooms {
		if r.ID == "" {
			return fmt.Errorf("rooms: id is required")
		}
		if seen[r.ID] {
			return fmt.Errorf("rooms: duplicate id %q", r.ID)
		}
		seen[r.ID] = true
	}

	return nil
}

func parseAmount(key, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid amount %q", key, s)
	}
	return d, nil
}

func parseDate(key, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := dateutil.ParseISODate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return t, nil
}

// Engine returns the selection settings. today fixes the reference date; zero means the current date.
func (c *Config) Engine(today time.Time) (selection.Config, error) {
	base, err := parseAmount("pricing.base_price", c.Pricing.BasePrice)
	if err != nil {
		return selection.Config{}, err
	}
	currency, err := selection.ParseCurrency(c.Pricing.Currency)
	if err != nil {
		return selection.Config{}, fmt.Errorf("pricing.currency: %w", err)
	}
	tax, err := parseAmount("pricing.tax_percent", c.Pricing.TaxPercent)
	if err != nil {
		return selection.Config{}, err
	}
	fee, err := parseAmount("pricing.service_fee", c.Pricing.ServiceFee)
	if err != nil {
		return selection.Config{}, err
	}
	minDate, err := parseDate("selection.min_date", c.Selection.MinDate)
	if err != nil {
		return selection.Config{}, err
	}
	maxDate, err := parseDate("selection.max_date", c.Selection.MaxDate)
	if err != nil {
		return selection.Config{}, err
	}

	cfg := selection.Config{
		BasePrice:        base,
		Currency:         currency,
		AllowSingleDay:   c.Selection.AllowSingleDay,
		DisablePastDates: c.Selection.DisablePastDates,
		Today:            today,
		MinDate:          minDate,
		MaxDate:          maxDate,
		Adjustments: selection.Adjustments{
			TaxPercent: tax,
			ServiceFee: fee,
		},
	}

	if ls := c.Pricing.LongStay; ls != nil {
		pct, err := parseAmount("pricing.long_stay.percent", ls.Percent)
		if err != nil {
			return selection.Config{}, err
		}
		cfg.Adjustments.LongStay = &selection.LongStayDiscount{MinNights: ls.MinNights, Percent: pct}
	}

	return cfg, nil
}

// GetWeekStart returns the first day of the calendar week. Default: Sunday
func (c *SelectionConfig) GetWeekStart() (time.Weekday, error) {
	switch strings.ToLower(c.WeekStart) {
	case "", "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	default:
		return time.Sunday, fmt.Errorf("selection.week_start must be 'sunday' or 'monday', got '%s'", c.WeekStart)
	}
}

// GetLocale returns the BCP 47 locale used for formatting. Default: en-US
func (c *SelectionConfig) GetLocale() string {
	if c.Locale == "" {
		return "en-US"
	}
	return c.Locale
}

// GetLanguage returns the parsed locale, falling back to American English
func (c *SelectionConfig) GetLanguage() language.Tag {
	tag, err := language.Parse(c.GetLocale())
	if err != nil {
		return language.AmericanEnglish
	}
	return tag
}

// GetType returns the availability source type. Default: file
func (c *AvailabilityConfig) GetType() string {
	if c.Type == "" {
		return "file"
	}
	return c.Type
}

// GetCacheTTL returns cache TTL duration
func (c *AvailabilityConfig) GetCacheTTL() time.Duration {
	return parseDuration(c.CacheTTL, 5*time.Minute)
}

// GetReadTimeout returns the HTTP read timeout
func (c *ServerConfig) GetReadTimeout() time.Duration {
	return parseDuration(c.ReadTimeout, 10*time.Second)
}

// GetWriteTimeout returns the HTTP write timeout
func (c *ServerConfig) GetWriteTimeout() time.Duration {
	return parseDuration(c.WriteTimeout, 10*time.Second)
}

// GetRequestTimeout returns the per-request handler timeout
func (c *ServerConfig) GetRequestTimeout() time.Duration {
	return parseDuration(c.RequestTimeout, 30*time.Second)
}

// GetShutdownTimeout returns how long graceful shutdown may take
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	return parseDuration(c.ShutdownTimeout, 15*time.Second)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	duration, err := time.ParseDuration(s)
	if err != nil || duration <= 0 {
		return def
	}
	return duration
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.Availability.URL = os.ExpandEnv(c.Availability.URL)
	c.Availability.File = os.ExpandEnv(c.Availability.File)
	c.Ledger.File = os.ExpandEnv(c.Ledger.File)
	c.Log.File = os.ExpandEnv(c.Log.File)
}
