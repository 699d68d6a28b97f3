package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
)

// Room is a dining room and how many tables it seats.
type Room struct {
	ID     string `toml:"id" json:"id"`
	Tables int    `toml:"tables" json:"tables"`
}

type Config struct {
	Port            string
	ERPBaseURL      string
	JWTSecret       string
	SessionTTL      time.Duration
	RequestTimeout  time.Duration
	MenuCacheTTL    time.Duration
	Warehouse       string
	DefaultCustomer string
	ApprovalPolicy  string
	ApprovalLedger  string
	DatabaseURL     string
	AMQPURL         string
	SlipExchange    string
	TaxRate         decimal.Decimal
	ServiceFeeRate  decimal.Decimal
	AllowedOrigins  []string
	LogLevel        string
	Rooms           []Room
}

// fileConfig is the TOML shape. Durations and rates are strings so the file
// reads the same as the environment.
type fileConfig struct {
	Port            string   `toml:"port"`
	ERPBaseURL      string   `toml:"erp_base_url"`
	JWTSecret       string   `toml:"jwt_secret"`
	SessionTTL      string   `toml:"session_ttl"`
	RequestTimeout  string   `toml:"request_timeout"`
	MenuCacheTTL    string   `toml:"menu_cache_ttl"`
	Warehouse       string   `toml:"warehouse"`
	DefaultCustomer string   `toml:"default_customer"`
	ApprovalPolicy  string   `toml:"approval_policy"`
	ApprovalLedger  string   `toml:"approval_ledger"`
	DatabaseURL     string   `toml:"database_url"`
	AMQPURL         string   `toml:"amqp_url"`
	SlipExchange    string   `toml:"slip_exchange"`
	TaxRate         string   `toml:"tax_rate"`
	ServiceFeeRate  string   `toml:"service_fee_rate"`
	AllowedOrigins  []string `toml:"allowed_origins"`
	LogLevel        string   `toml:"log_level"`
	Rooms           []Room   `toml:"rooms"`
}

var defaultRooms = []Room{
	{ID: "VIP-1", Tables: 10},
	{ID: "VIP-2", Tables: 10},
	{ID: "Standard", Tables: 30},
}

// Load reads CONFIG_FILE (when set) and then lets environment variables
// override individual keys.
func Load() (*Config, error) {
	var file fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadToml(path, &file); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Port:            getEnv("PORT", or(file.Port, "8081")),
		ERPBaseURL:      getEnv("ERP_BASE_URL", or(file.ERPBaseURL, "http://localhost:8000")),
		JWTSecret:       getEnv("JWT_SECRET", or(file.JWTSecret, "dev-secret-change-in-production")),
		Warehouse:       getEnv("WAREHOUSE", or(file.Warehouse, "Finished Goods")),
		DefaultCustomer: getEnv("DEFAULT_CUSTOMER", or(file.DefaultCustomer, "Walk-in Customer")),
		ApprovalPolicy:  getEnv("APPROVAL_POLICY", or(file.ApprovalPolicy, "station")),
		ApprovalLedger:  getEnv("APPROVAL_LEDGER", or(file.ApprovalLedger, "erp")),
		DatabaseURL:     getEnv("DATABASE_URL", file.DatabaseURL),
		AMQPURL:         getEnv("AMQP_URL", file.AMQPURL),
		SlipExchange:    getEnv("SLIP_EXCHANGE", or(file.SlipExchange, "pos.slips")),
		LogLevel:        getEnv("LOG_LEVEL", or(file.LogLevel, "info")),
		Rooms:           file.Rooms,
	}
	if len(cfg.Rooms) == 0 {
		cfg.Rooms = append([]Room(nil), defaultRooms...)
	}

	origins := file.AllowedOrigins
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins = splitList(v)
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	cfg.AllowedOrigins = origins

	var err error
	if cfg.SessionTTL, err = durationVar("SESSION_TTL", file.SessionTTL, 12*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = durationVar("REQUEST_TIMEOUT", file.RequestTimeout, 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.MenuCacheTTL, err = durationVar("MENU_CACHE_TTL", file.MenuCacheTTL, 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.TaxRate, err = decimalVar("TAX_RATE", file.TaxRate, "15"); err != nil {
		return nil, err
	}
	if cfg.ServiceFeeRate, err = decimalVar("SERVICE_FEE_RATE", file.ServiceFeeRate, "10"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.ApprovalPolicy {
	case "station", "any-two":
	default:
		errs = append(errs, fmt.Errorf("approval_policy: unknown value %q", c.ApprovalPolicy))
	}
	switch c.ApprovalLedger {
	case "erp", "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("database_url is required when approval_ledger is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("approval_ledger: unknown value %q", c.ApprovalLedger))
	}
	if c.TaxRate.IsNegative() {
		errs = append(errs, errors.New("tax_rate must not be negative"))
	}
	if c.ServiceFeeRate.IsNegative() {
		errs = append(errs, errors.New("service_fee_rate must not be negative"))
	}
	for _, r := range c.Rooms {
		if r.ID == "" {
			errs = append(errs, errors.New("rooms: id is required"))
		}
		if r.Tables <= 0 {
			errs = append(errs, fmt.Errorf("rooms: %s must have at least one table", r.ID))
		}
	}
	return errors.Join(errs...)
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func durationVar(key, fileValue string, fallback time.Duration) (time.Duration, error) {
	s := getEnv(key, fileValue)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", strings.ToLower(key), err)
	}
	return d, nil
}

func decimalVar(key, fileValue, fallback string) (decimal.Decimal, error) {
	s := getEnv(key, or(fileValue, fallback))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", strings.ToLower(key), err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
