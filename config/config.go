package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/papertrade/internal/domain"
	"github.com/vadiminshakov/papertrade/internal/storage/kvstore"
	"gopkg.in/yaml.v3"
)

const (
	ProviderBackend = "backend"
	ProviderYahoo   = "yahoo"
	ProviderStatic  = "static"

	EnvPrefix = "papertrade"

	defaultStateDir     = "./data/state"
	defaultJournalDir   = "./data/journal"
	defaultDiaryDir     = "./data/diary"
	defaultTLSCacheDir  = "./data/certs"
	defaultHTTPAddr     = ":8080"
	defaultPollInterval = 3 * time.Minute
	defaultFetchTimeout = 15 * time.Second
)

// DefaultWatchlist symbols polled when none are configured.
var DefaultWatchlist = []string{"AAPL", "GOOGL", "TSLA", "JNJ", "KO", "NVDA"}

type Config struct {
	StateDir       string
	Storage        kvstore.Kind
	QuoteProvider  string
	BackendURL     string
	YahooURL       string
	PollInterval   time.Duration
	FetchTimeout   time.Duration
	InitialCapital domain.Capital
	Watchlist      []string
	HTTPAddr       string
	TLSDomains     []string
	TLSCacheDir    string
	JournalDir     string
	DiaryDir       string
}

// ConfigTmp YAML form of Config. Decimals are kept as strings.
type ConfigTmp struct {
	StateDir          string        `yaml:"state_dir,omitempty"`
	Storage           string        `yaml:"storage,omitempty"`
	QuoteProvider     string        `yaml:"quote_provider,omitempty"`
	BackendURL        string        `yaml:"backend_url,omitempty"`
	YahooURL          string        `yaml:"yahoo_url,omitempty"`
	PollInterval      time.Duration `yaml:"poll_interval,omitempty"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout,omitempty"`
	InitialCapitalUSD string        `yaml:"initial_capital_usd,omitempty"`
	InitialCapitalKRW string        `yaml:"initial_capital_krw,omitempty"`
	Watchlist         []string      `yaml:"watchlist,omitempty"`
	HTTPAddr          string        `yaml:"http_addr,omitempty"`
	TLSDomains        []string      `yaml:"tls_domains,omitempty"`
	TLSCacheDir       string        `yaml:"tls_cache_dir,omitempty"`
	JournalDir        string        `yaml:"journal_dir,omitempty"`
	DiaryDir          string        `yaml:"diary_dir,omitempty"`
}

// envOverrides values read from PAPERTRADE_* variables. Empty values leave the config as is.
type envOverrides struct {
	StateDir          string        `envconfig:"STATE_DIR"`
	Storage           string        `envconfig:"STORAGE"`
	QuoteProvider     string        `envconfig:"QUOTE_PROVIDER"`
	BackendURL        string        `envconfig:"BACKEND_URL"`
	YahooURL          string        `envconfig:"YAHOO_URL"`
	PollInterval      time.Duration `envconfig:"POLL_INTERVAL"`
	FetchTimeout      time.Duration `envconfig:"FETCH_TIMEOUT"`
	InitialCapitalUSD string        `envconfig:"INITIAL_CAPITAL_USD"`
	InitialCapitalKRW string        `envconfig:"INITIAL_CAPITAL_KRW"`
	Watchlist         []string      `envconfig:"WATCHLIST"`
	HTTPAddr          string        `envconfig:"HTTP_ADDR"`
	TLSDomains        []string      `envconfig:"TLS_DOMAINS"`
	TLSCacheDir       string        `envconfig:"TLS_CACHE_DIR"`
	JournalDir        string        `envconfig:"JOURNAL_DIR"`
	DiaryDir          string        `envconfig:"DIARY_DIR"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	watchlist := make([]string, len(DefaultWatchlist))
	copy(watchlist, DefaultWatchlist)

	return Config{
		StateDir:       defaultStateDir,
		Storage:        kvstore.KindFile,
		QuoteProvider:  ProviderStatic,
		PollInterval:   defaultPollInterval,
		FetchTimeout:   defaultFetchTimeout,
		InitialCapital: domain.DefaultCapital,
		Watchlist:      watchlist,
		HTTPAddr:       defaultHTTPAddr,
		TLSCacheDir:    defaultTLSCacheDir,
		JournalDir:     defaultJournalDir,
		DiaryDir:       defaultDiaryDir,
	}
}

// Load reads the YAML file at path (defaults when path is empty), applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}
		cfg, err = FromYAML(data)
		if err != nil {
			return Config{}, err
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromYAML parses a YAML document, filling unset keys with defaults.
func FromYAML(data []byte) (Config, error) {
	var tmp ConfigTmp
	if err := yaml.Unmarshal(data, &tmp); err != nil {
		return Config{}, errors.Wrap(err, "parse yaml config")
	}
	return tmp.toConfig()
}

func (c ConfigTmp) toConfig() (Config, error) {
	cfg := Default()

	if c.StateDir != "" {
		cfg.StateDir = c.StateDir
	}
	if c.Storage != "" {
		cfg.Storage = kvstore.Kind(strings.ToLower(c.Storage))
	}
	if c.QuoteProvider != "" {
		cfg.QuoteProvider = strings.ToLower(c.QuoteProvider)
	}
	cfg.BackendURL = c.BackendURL
	cfg.YahooURL = c.YahooURL
	if c.PollInterval != 0 {
		cfg.PollInterval = c.PollInterval
	}
	if c.FetchTimeout != 0 {
		cfg.FetchTimeout = c.FetchTimeout
	}

	if c.InitialCapitalUSD != "" {
		usd, err := decimal.NewFromString(c.InitialCapitalUSD)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'initial_capital_usd' param in yaml config (must be a decimal), error: %w", err)
		}
		cfg.InitialCapital.USD = usd
	}
	if c.InitialCapitalKRW != "" {
		krw, err := decimal.NewFromString(c.InitialCapitalKRW)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'initial_capital_krw' param in yaml config (must be a decimal), error: %w", err)
		}
		cfg.InitialCapital.KRW = krw
	}

	if len(c.Watchlist) > 0 {
		cfg.Watchlist = c.Watchlist
	}
	if c.HTTPAddr != "" {
		cfg.HTTPAddr = c.HTTPAddr
	}
	cfg.TLSDomains = c.TLSDomains
	if c.TLSCacheDir != "" {
		cfg.TLSCacheDir = c.TLSCacheDir
	}
	if c.JournalDir != "" {
		cfg.JournalDir = c.JournalDir
	}
	if c.DiaryDir != "" {
		cfg.DiaryDir = c.DiaryDir
	}

	return cfg, nil
}

// ToTmp returns the YAML form of the config.
func (c Config) ToTmp() ConfigTmp {
	return ConfigTmp{
		StateDir:          c.StateDir,
		Storage:           string(c.Storage),
		QuoteProvider:     c.QuoteProvider,
		BackendURL:        c.BackendURL,
		YahooURL:          c.YahooURL,
		PollInterval:      c.PollInterval,
		FetchTimeout:      c.FetchTimeout,
		InitialCapitalUSD: c.InitialCapital.USD.String(),
		InitialCapitalKRW: c.InitialCapital.KRW.String(),
		Watchlist:         c.Watchlist,
		HTTPAddr:          c.HTTPAddr,
		TLSDomains:        c.TLSDomains,
		TLSCacheDir:       c.TLSCacheDir,
		JournalDir:        c.JournalDir,
		DiaryDir:          c.DiaryDir,
	}
}

// ApplyEnv overrides cfg with PAPERTRADE_* variables. A .env file in the working
// directory is loaded first when present.
func ApplyEnv(cfg *Config) error {
	_ = godotenv.Load()

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return errors.Wrap(err, "process environment")
	}

	if env.StateDir != "" {
		cfg.StateDir = env.StateDir
	}
	if env.Storage != "" {
		cfg.Storage = kvstore.Kind(strings.ToLower(env.Storage))
	}
	if env.QuoteProvider != "" {
		cfg.QuoteProvider = strings.ToLower(env.QuoteProvider)
	}
	if env.BackendURL != "" {
		cfg.BackendURL = env.BackendURL
	}
	if env.YahooURL != "" {
		cfg.YahooURL = env.YahooURL
	}
	if env.PollInterval != 0 {
		cfg.PollInterval = env.PollInterval
	}
	if env.FetchTimeout != 0 {
		cfg.FetchTimeout = env.FetchTimeout
	}
	if env.InitialCapitalUSD != "" {
		usd, err := decimal.NewFromString(env.InitialCapitalUSD)
		if err != nil {
			return errors.Wrap(err, "decode PAPERTRADE_INITIAL_CAPITAL_USD")
		}
		cfg.InitialCapital.USD = usd
	}
	if env.InitialCapitalKRW != "" {
		krw, err := decimal.NewFromString(env.InitialCapitalKRW)
		if err != nil {
			return errors.Wrap(err, "decode PAPERTRADE_INITIAL_CAPITAL_KRW")
		}
		cfg.InitialCapital.KRW = krw
	}
	if len(env.Watchlist) > 0 {
		cfg.Watchlist = env.Watchlist
	}
	if env.HTTPAddr != "" {
		cfg.HTTPAddr = env.HTTPAddr
	}
	if len(env.TLSDomains) > 0 {
		cfg.TLSDomains = env.TLSDomains
	}
	if env.TLSCacheDir != "" {
		cfg.TLSCacheDir = env.TLSCacheDir
	}
	if env.JournalDir != "" {
		cfg.JournalDir = env.JournalDir
	}
	if env.DiaryDir != "" {
		cfg.DiaryDir = env.DiaryDir
	}

	return nil
}

// Validate checks the config for values the application cannot start with.
func (c Config) Validate() error {
	switch c.Storage {
	case kvstore.KindFile, kvstore.KindSQLite, kvstore.KindMemory:
	default:
		return fmt.Errorf("unsupported storage %q", c.Storage)
	}

	switch c.QuoteProvider {
	case ProviderStatic, ProviderYahoo:
	case ProviderBackend:
		if c.BackendURL == "" {
			return errors.New("backend_url is required for the backend quote provider")
		}
	default:
		return fmt.Errorf("unsupported quote provider %q", c.QuoteProvider)
	}

	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("fetch_timeout must be positive")
	}
	if c.InitialCapital.USD.IsNegative() || c.InitialCapital.KRW.IsNegative() {
		return errors.New("initial capital must not be negative")
	}
	return nil
}
