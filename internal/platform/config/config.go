package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/enersync/utility_sync_app/internal/utils/templating"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default entity display-name formats. Overridable per deployment.
const (
	DefaultAccountNameFormat = "Utility Account {code}"
	DefaultMeterNameFormat   = "Utility Meter {code}"
	DefaultInvoiceNameFormat = "Utility Invoice {code}"
)

// MeterFilter restricts which meter codes of one account are materialized.
// All means every meter; otherwise only Codes are considered.
type MeterFilter struct {
	All   bool
	Codes []string
}

// Allows reports whether a meter code passes the filter.
func (f MeterFilter) Allows(meterCode string) bool {
	if f.All {
		return true
	}
	for _, code := range f.Codes {
		if code == meterCode {
			return true
		}
	}
	return false
}

// Invoice filter modes. "all" tracks invoices for every account, "none"
// disables invoice tracking, "list" tracks only the listed account codes.
const (
	InvoiceModeAll  = "all"
	InvoiceModeNone = "none"
	InvoiceModeList = "list"
)

// InvoiceFilter is the three-state invoice tracking configuration.
type InvoiceFilter struct {
	Mode  string
	Codes []string
}

// EnabledFor reports whether invoice tracking is active for an account code.
func (f InvoiceFilter) EnabledFor(accountCode string) bool {
	switch f.Mode {
	case InvoiceModeNone:
		return false
	case InvoiceModeList:
		for _, code := range f.Codes {
			if code == accountCode {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// ProviderConfig locates the remote billing provider for the managed account.
type ProviderConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// KafkaConfig configures the optional event forwarding sink.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// Config holds application configuration.
type Config struct {
	Port         string
	IsProduction bool
	APIToken     string
	RateLimit    string // ulule/limiter formatted rate, e.g. "30-M"

	ScanInterval time.Duration
	LoginTimeout time.Duration

	AccountNameFormat string
	MeterNameFormat   string
	InvoiceNameFormat string

	Provider ProviderConfig
	Kafka    KafkaConfig

	// MeterFilters is keyed by account code; an empty map means no
	// filtering at all. Accounts missing from a non-empty map are treated
	// as unfiltered.
	MeterFilters map[string]MeterFilter
	Invoices     InvoiceFilter
}

// MeterFilterFor returns the effective filter for an account code.
func (c *Config) MeterFilterFor(accountCode string) MeterFilter {
	if f, ok := c.MeterFilters[accountCode]; ok {
		return f
	}
	return MeterFilter{All: true}
}

// LoadConfig loads configuration from environment variables, an optional
// .env file and an optional YAML config file (USYNC_CONFIG_FILE) that
// carries the account filters.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("API_TOKEN", "")
	viper.SetDefault("RATE_LIMIT", "30-M")
	viper.SetDefault("SCAN_INTERVAL", "1h")
	viper.SetDefault("LOGIN_TIMEOUT", "1h")
	viper.SetDefault("ACCOUNT_NAME_FORMAT", DefaultAccountNameFormat)
	viper.SetDefault("METER_NAME_FORMAT", DefaultMeterNameFormat)
	viper.SetDefault("INVOICE_NAME_FORMAT", DefaultInvoiceNameFormat)
	viper.SetDefault("PROVIDER_BASE_URL", "")
	viper.SetDefault("PROVIDER_USERNAME", "")
	viper.SetDefault("PROVIDER_PASSWORD", "")
	viper.SetDefault("PROVIDER_TIMEOUT", "30s")
	viper.SetDefault("KAFKA_ENABLED", false)
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_TOPIC", "usync.events")

	viper.AutomaticEnv()

	cfg := &Config{
		Port:         viper.GetString("PORT"),
		IsProduction: viper.GetBool("IS_PRODUCTION"),
		APIToken:     viper.GetString("API_TOKEN"),
		RateLimit:    viper.GetString("RATE_LIMIT"),
		MeterFilters: map[string]MeterFilter{},
		Invoices:     InvoiceFilter{Mode: InvoiceModeAll},
	}

	if cfg.APIToken == "" {
		log.Println("Warning: API_TOKEN not set. Indication endpoints will reject all callers.")
	}

	cfg.ScanInterval = durationOrDefault("SCAN_INTERVAL", time.Hour)
	cfg.LoginTimeout = durationOrDefault("LOGIN_TIMEOUT", time.Hour)

	cfg.AccountNameFormat = nameFormatOrDefault("ACCOUNT_NAME_FORMAT", DefaultAccountNameFormat)
	cfg.MeterNameFormat = nameFormatOrDefault("METER_NAME_FORMAT", DefaultMeterNameFormat)
	cfg.InvoiceNameFormat = nameFormatOrDefault("INVOICE_NAME_FORMAT", DefaultInvoiceNameFormat)

	cfg.Provider = ProviderConfig{
		BaseURL:  viper.GetString("PROVIDER_BASE_URL"),
		Username: viper.GetString("PROVIDER_USERNAME"),
		Password: viper.GetString("PROVIDER_PASSWORD"),
		Timeout:  durationOrDefault("PROVIDER_TIMEOUT", 30*time.Second),
	}
	if cfg.Provider.BaseURL == "" {
		log.Println("Warning: PROVIDER_BASE_URL not set.")
	}
	if cfg.Provider.Username == "" {
		log.Println("Warning: PROVIDER_USERNAME not set.")
	}

	cfg.Kafka = KafkaConfig{
		Enabled: viper.GetBool("KAFKA_ENABLED"),
		Topic:   viper.GetString("KAFKA_TOPIC"),
	}
	if brokers := viper.GetString("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("KAFKA_ENABLED is set but KAFKA_BROKERS is empty")
	}

	if err := loadFilters(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}

func nameFormatOrDefault(key, fallback string) string {
	format := viper.GetString(key)
	probe := map[string]string{"code": "", "service_name": "", "provider_name": ""}
	if _, err := templating.Render(format, probe); err != nil {
		log.Printf("Warning: Invalid value for %s ('%s'): %v. Defaulting to %q.\n", key, format, err, fallback)
		return fallback
	}
	return format
}

// loadFilters reads the optional YAML config file carrying the per-account
// meter allow-list and the three-state invoice filter:
//
//	accounts:
//	  "1234567890": true
//	  "0987654321": ["M1", "M2"]
//	invoices: true | false | ["1234567890"]
func loadFilters(cfg *Config) error {
	path := viper.GetString("USYNC_CONFIG_FILE")
	if path == "" {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if raw := v.Get("accounts"); raw != nil {
		filters, err := parseMeterFilters(raw)
		if err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		cfg.MeterFilters = filters
	}
	if raw := v.Get("invoices"); raw != nil {
		filter, err := parseInvoiceFilter(raw)
		if err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		cfg.Invoices = filter
	}
	return nil
}

func parseMeterFilters(raw any) (map[string]MeterFilter, error) {
	entries, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("accounts must map account codes to true or meter code lists")
	}
	filters := make(map[string]MeterFilter, len(entries))
	for code, value := range entries {
		switch v := value.(type) {
		case bool:
			if !v {
				return nil, fmt.Errorf("accounts.%s: false is not allowed, omit the account instead", code)
			}
			filters[code] = MeterFilter{All: true}
		default:
			codes, err := toStringSlice(value)
			if err != nil {
				return nil, fmt.Errorf("accounts.%s: %w", code, err)
			}
			filters[code] = MeterFilter{Codes: codes}
		}
	}
	return filters, nil
}

func parseInvoiceFilter(raw any) (InvoiceFilter, error) {
	switch v := raw.(type) {
	case bool:
		if v {
			return InvoiceFilter{Mode: InvoiceModeAll}, nil
		}
		return InvoiceFilter{Mode: InvoiceModeNone}, nil
	default:
		codes, err := toStringSlice(raw)
		if err != nil {
			return InvoiceFilter{}, fmt.Errorf("invoices: %w", err)
		}
		return InvoiceFilter{Mode: InvoiceModeList, Codes: codes}, nil
	}
}

func toStringSlice(raw any) ([]string, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of codes")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			s = fmt.Sprintf("%v", item)
		}
		out = append(out, s)
	}
	return out, nil
}
