package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Data        DataConfig        `mapstructure:"data"`
	Board       BoardConfig       `mapstructure:"board"`
	Matching    MatchingConfig    `mapstructure:"matching"`
	Scan        ScanConfig        `mapstructure:"scan"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	Log         LogConfig         `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DataConfig says where the planogram CSVs come from.
type DataConfig struct {
	Source            string        `mapstructure:"source"` // "dir" or "http"
	Dir               string        `mapstructure:"dir"`
	BaseURL           string        `mapstructure:"base_url"`
	Files             FilesConfig   `mapstructure:"files"`
	Watch             bool          `mapstructure:"watch"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// FilesConfig names the individual data files.
type FilesConfig struct {
	Planogram    string `mapstructure:"planogram"`
	StoreMapping string `mapstructure:"store_mapping"`
	FileIndex    string `mapstructure:"file_index"`
	DeleteList   string `mapstructure:"delete_list"`
}

// BoardConfig is the physical pegboard and its render padding.
type BoardConfig struct {
	WidthInches  float64 `mapstructure:"width_inches"`
	HeightInches float64 `mapstructure:"height_inches"`
	PaddingPx    float64 `mapstructure:"padding_px"`
}

// MatchingConfig tunes barcode resolution.
type MatchingConfig struct {
	FuzzyMaxDigits     int  `mapstructure:"fuzzy_max_digits"`
	AutoCompleteOnScan bool `mapstructure:"auto_complete_on_scan"`
}

// ScanConfig holds scanner input settings
type ScanConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// PersistenceConfig selects the key-value store for session state.
type PersistenceConfig struct {
	Driver string `mapstructure:"driver"` // "memory", "sqlite" or "badger"
	Path   string `mapstructure:"path"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/harpa/")

	v.SetEnvPrefix("HARPA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := validate(&config); err != nil {
		return nil, eris.Wrap(err, "invalid configuration")
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	v.SetDefault("data.source", "dir")
	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.base_url", "")
	v.SetDefault("data.files.planogram", "allplanogramdata.csv")
	v.SetDefault("data.files.store_mapping", "Store_POG_Mapping.csv")
	v.SetDefault("data.files.file_index", "githubfiles.csv")
	v.SetDefault("data.files.delete_list", "deletelist.csv")
	v.SetDefault("data.watch", false)
	v.SetDefault("data.timeout", "30s")
	v.SetDefault("data.requests_per_second", 5)

	v.SetDefault("board.width_inches", 46)
	v.SetDefault("board.height_inches", 64)
	v.SetDefault("board.padding_px", 20)

	v.SetDefault("matching.fuzzy_max_digits", 4)
	v.SetDefault("matching.auto_complete_on_scan", true)

	v.SetDefault("scan.debounce", "2s")

	v.SetDefault("persistence.driver", "sqlite")
	v.SetDefault("persistence.path", "harpa.db")

	v.SetDefault("ratelimit.per_ip", 600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Data.Source {
	case "dir":
		if config.Data.Dir == "" {
			return eris.New("data dir is required when data source is 'dir'")
		}
	case "http":
		if config.Data.BaseURL == "" {
			return eris.New("data base URL is required when data source is 'http' (set HARPA_DATA_BASE_URL)")
		}
		if config.Data.Watch {
			return eris.New("data watch is only supported for data source 'dir'")
		}
	default:
		return eris.Errorf("data source must be 'dir' or 'http', got: %s", config.Data.Source)
	}

	if config.Data.Files.Planogram == "" || config.Data.Files.StoreMapping == "" {
		return eris.New("planogram and store mapping file names are required")
	}

	if config.Board.WidthInches <= 0 || config.Board.HeightInches <= 0 {
		return eris.Errorf("board size must be positive, got %gx%g", config.Board.WidthInches, config.Board.HeightInches)
	}
	if config.Board.PaddingPx < 0 {
		return eris.Errorf("board padding must not be negative, got %g", config.Board.PaddingPx)
	}

	if config.Matching.FuzzyMaxDigits < 0 {
		return eris.Errorf("fuzzy max digits must not be negative, got %d", config.Matching.FuzzyMaxDigits)
	}

	switch config.Persistence.Driver {
	case "memory":
	case "sqlite", "badger":
		if config.Persistence.Path == "" {
			return eris.Errorf("persistence path is required for driver '%s'", config.Persistence.Driver)
		}
	default:
		return eris.Errorf("persistence driver must be 'memory', 'sqlite' or 'badger', got: %s", config.Persistence.Driver)
	}

	if config.RateLimit.PerIP < 0 {
		return eris.Errorf("rate limit must not be negative, got %d", config.RateLimit.PerIP)
	}

	return nil
}

// InitLogger builds the global zap logger and returns it.
func InitLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return logger, nil
}
