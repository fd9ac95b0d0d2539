package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ProjectDir   string `json:"project_dir"`
	ResultsDir   string `json:"results_dir"`
	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`

	// Scoring backend selection: "rule", "openai" or "deepseek".
	ScoringBackend string        `json:"scoring_backend"`
	OpenAIAPIKey   string        `json:"openai_api_key"`
	OpenAIModel    string        `json:"openai_model"`
	DeepSeekAPIKey string        `json:"deepseek_api_key"`
	DeepSeekModel  string        `json:"deepseek_model"`
	BackendURL     string        `json:"backend_url"`
	BackendTimeout time.Duration `json:"backend_timeout"`

	// Statement provider (DART open API) and scraper fallback.
	DartAPIKey     string `json:"dart_api_key"`
	DartBaseURL    string `json:"dart_base_url"`
	FundamentalURL string `json:"fundamental_url"`

	// Longport market data credentials.
	LongportAppKey      string `json:"longport_app_key"`
	LongportAppSecret   string `json:"longport_app_secret"`
	LongportAccessToken string `json:"longport_access_token"`

	// Indicator engine parameters.
	SMAWindows      []int   `json:"sma_windows"`
	RSIWindow       int     `json:"rsi_window"`
	MACDFast        int     `json:"macd_fast"`
	MACDSlow        int     `json:"macd_slow"`
	MACDSignal      int     `json:"macd_signal"`
	BollingerWindow int     `json:"bollinger_window"`
	BollingerStdDev float64 `json:"bollinger_stddev"`

	// Synthesis parameters. RSI cutoffs and the dominance threshold are
	// configurable rather than hard-coded.
	RSIOverbought      float64 `json:"rsi_overbought"`
	RSIOversold        float64 `json:"rsi_oversold"`
	DominanceThreshold float64 `json:"dominance_threshold"`

	CacheEnabled     bool `json:"cache_enabled"`
	Debug            bool `json:"debug"`
	EinoDebugEnabled bool `json:"eino_debug_enabled"`
	EinoDebugPort    int  `json:"eino_debug_port"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	return &Config{
		ProjectDir:   currentDir,
		ResultsDir:   filepath.Join(currentDir, "results"),
		DataDir:      filepath.Join(currentDir, "data"),
		DataCacheDir: filepath.Join(currentDir, "data", "cache"),

		ScoringBackend: "rule",
		OpenAIModel:    "gpt-4o-mini",
		DeepSeekModel:  "deepseek-chat",
		BackendURL:     "https://api.openai.com/v1",
		BackendTimeout: 60 * time.Second,

		DartBaseURL: "https://opendart.fss.or.kr/api",

		SMAWindows:      []int{5, 20, 60},
		RSIWindow:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerWindow: 20,
		BollingerStdDev: 2.0,

		RSIOverbought:      70,
		RSIOversold:        30,
		DominanceThreshold: 0.6,

		CacheEnabled:     true,
		Debug:            false,
		EinoDebugEnabled: false,
		EinoDebugPort:    52538,
	}
}

// LoadFromEnv applies environment overrides on top of defaults. A .env file
// in the working directory is honored when present.
func LoadFromEnv() *Config {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	cfg.OpenAIAPIKey = getenv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.DeepSeekAPIKey = getenv("DEEPSEEK_API_KEY", cfg.DeepSeekAPIKey)
	cfg.DartAPIKey = getenv("DART_API_KEY", cfg.DartAPIKey)
	cfg.LongportAppKey = getenv("LONGPORT_APP_KEY", cfg.LongportAppKey)
	cfg.LongportAppSecret = getenv("LONGPORT_APP_SECRET", cfg.LongportAppSecret)
	cfg.LongportAccessToken = getenv("LONGPORT_ACCESS_TOKEN", cfg.LongportAccessToken)

	cfg.ScoringBackend = getenv("STOCKLENS_BACKEND", cfg.ScoringBackend)
	cfg.BackendURL = getenv("STOCKLENS_BACKEND_URL", cfg.BackendURL)
	cfg.OpenAIModel = getenv("STOCKLENS_OPENAI_MODEL", cfg.OpenAIModel)
	cfg.DeepSeekModel = getenv("STOCKLENS_DEEPSEEK_MODEL", cfg.DeepSeekModel)
	cfg.FundamentalURL = getenv("STOCKLENS_FUNDAMENTAL_URL", cfg.FundamentalURL)

	if v := os.Getenv("STOCKLENS_BACKEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.BackendTimeout = d
		}
	}
	if v := os.Getenv("STOCKLENS_RESULTS_DIR"); v != "" {
		cfg.ResultsDir = v
	}
	if v := os.Getenv("STOCKLENS_DEBUG"); v != "" {
		cfg.Debug, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("STOCKLENS_EINO_DEBUG"); v != "" {
		cfg.EinoDebugEnabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("STOCKLENS_CACHE_ENABLED"); v != "" {
		cfg.CacheEnabled, _ = strconv.ParseBool(v)
	}

	return cfg
}

// DefaultConfigWithRoot anchors every directory under root instead of the
// working directory.
func DefaultConfigWithRoot(root string) *Config {
	cfg := DefaultConfig()
	cfg.ProjectDir = root
	cfg.ResultsDir = filepath.Join(root, "results")
	cfg.DataDir = filepath.Join(root, "data")
	cfg.DataCacheDir = filepath.Join(root, "data", "cache")
	return cfg
}

// Validate rejects configurations the engines cannot run with.
func (c *Config) Validate() error {
	if c.ResultsDir == "" || c.DataDir == "" || c.DataCacheDir == "" {
		return fmt.Errorf("results, data and cache directories are required")
	}
	for _, w := range c.SMAWindows {
		if w <= 0 {
			return fmt.Errorf("sma window must be positive, got %d", w)
		}
	}
	if c.RSIWindow <= 0 || c.MACDFast <= 0 || c.MACDSignal <= 0 || c.BollingerWindow <= 0 {
		return fmt.Errorf("indicator windows must be positive")
	}
	if c.MACDFast >= c.MACDSlow {
		return fmt.Errorf("macd fast window %d must be shorter than slow window %d", c.MACDFast, c.MACDSlow)
	}
	if c.BollingerStdDev <= 0 {
		return fmt.Errorf("bollinger stddev multiplier must be positive")
	}
	if c.RSIOversold >= c.RSIOverbought {
		return fmt.Errorf("rsi oversold cutoff %.1f must be below overbought cutoff %.1f", c.RSIOversold, c.RSIOverbought)
	}
	if c.DominanceThreshold < 0 {
		return fmt.Errorf("dominance threshold must not be negative")
	}
	if c.BackendTimeout < 0 {
		return fmt.Errorf("backend timeout must not be negative")
	}
	return nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ResultsDir, c.DataDir, c.DataCacheDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// MaxLookback returns the longest lookback window any configured indicator
// needs before its first defined value.
func (c *Config) MaxLookback() int {
	max := c.BollingerWindow
	for _, w := range c.SMAWindows {
		if w > max {
			max = w
		}
	}
	if c.RSIWindow+1 > max {
		max = c.RSIWindow + 1
	}
	if c.MACDSlow+c.MACDSignal > max {
		max = c.MACDSlow + c.MACDSignal
	}
	return max
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
