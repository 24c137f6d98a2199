package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingCredentials = errors.New("CARDMARKET_EMAIL and CARDMARKET_PASSWORD are required")

type Config struct {
	Account AccountConfig
	Market  MarketConfig
	Pricing PricingConfig
	Scraper ScraperConfig
	Browser BrowserConfig
	Logging LoggingConfig
}

type AccountConfig struct {
	Email    string
	Password string
}

type MarketConfig struct {
	BaseURL    string
	LoginURL   string
	ListingURL string
}

type PricingConfig struct {
	// MarkupPercent is added on top of the price trend, e.g. 5 for +5%.
	MarkupPercent float64
}

type ScraperConfig struct {
	MaxAttempts      int
	RetryDelay       time.Duration
	ChallengeProbe   time.Duration
	ChallengeTimeout time.Duration
	ItemDelay        time.Duration
	DryRun           bool
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// LoadEnvFile loads variables from path into the process environment without
// overriding ones that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func Load() (*Config, error) {
	baseURL := getEnvOrDefault("CARDMARKET_BASE_URL", "https://www.cardmarket.com")

	cfg := &Config{
		Account: AccountConfig{
			Email:    os.Getenv("CARDMARKET_EMAIL"),
			Password: os.Getenv("CARDMARKET_PASSWORD"),
		},
		Market: MarketConfig{
			BaseURL:    baseURL,
			LoginURL:   getEnvOrDefault("CARDMARKET_LOGIN_URL", baseURL+"/es/Magic"),
			ListingURL: getEnvOrDefault("CARDMARKET_LISTING_URL", baseURL+"/en/Magic/Stock/Offers/Singles"),
		},
		Pricing: PricingConfig{
			MarkupPercent: getFloatOrDefault("MARKUP_PERCENT", 0),
		},
		Scraper: ScraperConfig{
			MaxAttempts:      getIntOrDefault("SCRAPER_MAX_ATTEMPTS", 3),
			RetryDelay:       getDurationOrDefault("SCRAPER_RETRY_DELAY", 2*time.Second),
			ChallengeProbe:   getDurationOrDefault("SCRAPER_CHALLENGE_PROBE", 5*time.Second),
			ChallengeTimeout: getDurationOrDefault("SCRAPER_CHALLENGE_TIMEOUT", 60*time.Second),
			ItemDelay:        getDurationOrDefault("SCRAPER_ITEM_DELAY", 0),
			DryRun:           getBoolOrDefault("SCRAPER_DRY_RUN", false),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", false),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-GB,en;q=0.9,es;q=0.8"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "Europe/Madrid"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "en-GB"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Account.Email == "" || c.Account.Password == "" {
		return ErrMissingCredentials
	}

	if c.Market.LoginURL == "" || c.Market.ListingURL == "" {
		return fmt.Errorf("login and listing URLs must not be empty")
	}

	if c.Scraper.MaxAttempts < 1 {
		return fmt.Errorf("SCRAPER_MAX_ATTEMPTS must be at least 1")
	}

	if c.Scraper.RetryDelay < 0 || c.Scraper.ItemDelay < 0 {
		return fmt.Errorf("scraper delays cannot be negative")
	}

	if c.Pricing.MarkupPercent <= -100 {
		return fmt.Errorf("MARKUP_PERCENT must be greater than -100, got %v", c.Pricing.MarkupPercent)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
