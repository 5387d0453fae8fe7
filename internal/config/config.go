package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/garyjia/billwatch/internal/extraction"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Store backends
const (
	StoreSQLite   = "sqlite"
	StoreWorkbook = "workbook"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Store      StoreConfig      `mapstructure:"store"`
	PDF        PDFConfig        `mapstructure:"pdf"`
	Extraction extraction.Rules `mapstructure:"extraction"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Summary    SummaryConfig    `mapstructure:"summary"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
}

// StoreConfig selects where bill rows are appended
type StoreConfig struct {
	Backend      string `mapstructure:"backend"` // sqlite or workbook
	WorkbookPath string `mapstructure:"workbook_path"`
	SheetName    string `mapstructure:"sheet_name"`
}

// PDFConfig holds page text extraction settings
type PDFConfig struct {
	Engine      string `mapstructure:"engine"` // fitz or plain
	MaxPages    int    `mapstructure:"max_pages"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
}

// ArchiveConfig controls on-disk copies of accepted PDFs
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PromptsPath string        `mapstructure:"prompts_path"`
}

// SummaryConfig holds bill summary settings
type SummaryConfig struct {
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	MaxTextChars int           `mapstructure:"max_text_chars"`
}

// KafkaConfig holds record event publishing configuration
type KafkaConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Brokers          []string      `mapstructure:"brokers"`
	Topic            string        `mapstructure:"topic"`
	ClientID         string        `mapstructure:"client_id"`
	RequiredAcks     string        `mapstructure:"required_acks"`
	CompressionCodec string        `mapstructure:"compression"`
	RetryMax         int           `mapstructure:"retry_max"`
	RetryBackoff     time.Duration `mapstructure:"retry_backoff"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// SummaryEnabled reports whether an LLM key is configured
func (c *Config) SummaryEnabled() bool {
	return c.OpenAI.APIKey != ""
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error; variables already set are kept.
func LoadEnvFile(path string) error {
	if err := gotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load loads configuration from file and environment variables. An empty
// configPath uses defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BILLWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Extraction = cfg.Extraction.WithDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/billwatch.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.busy_timeout", 5*time.Second)

	// Store defaults
	v.SetDefault("store.backend", StoreSQLite)
	v.SetDefault("store.workbook_path", "data/bills.xlsx")
	v.SetDefault("store.sheet_name", "Bills")

	// PDF defaults
	v.SetDefault("pdf.engine", "fitz")
	v.SetDefault("pdf.max_pages", 0)
	v.SetDefault("pdf.max_file_size", 20<<20)

	// Extraction defaults
	v.SetDefault("extraction.emit_zero_amounts", false)

	// Archive defaults
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.dir", "data/archive")

	// OpenAI defaults
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", 60*time.Second)

	// Summary defaults
	v.SetDefault("summary.cache_ttl", time.Hour)
	v.SetDefault("summary.max_text_chars", 12000)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.topic", "billwatch.records")
	v.SetDefault("kafka.client_id", "billwatch")
	v.SetDefault("kafka.required_acks", "all")
	v.SetDefault("kafka.compression", "snappy")
	v.SetDefault("kafka.retry_max", 3)
	v.SetDefault("kafka.retry_backoff", 250*time.Millisecond)
	v.SetDefault("kafka.timeout", 10*time.Second)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string]string{
		"openai.api_key":  "OPENAI_API_KEY",
		"openai.base_url": "OPENAI_BASE_URL",
		"kafka.brokers":   "KAFKA_BROKERS",
		"database.path":   "BILLWATCH_DB_PATH",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch c.Store.Backend {
	case StoreSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite store")
		}
	case StoreWorkbook:
		if c.Store.WorkbookPath == "" {
			return fmt.Errorf("store.workbook_path is required for the workbook store")
		}
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", StoreSQLite, StoreWorkbook, c.Store.Backend)
	}

	if c.PDF.Engine != "fitz" && c.PDF.Engine != "plain" {
		return fmt.Errorf("pdf.engine must be \"fitz\" or \"plain\", got %q", c.PDF.Engine)
	}
	if c.PDF.MaxFileSize <= 0 {
		return fmt.Errorf("pdf.max_file_size must be positive")
	}

	if c.Archive.Enabled && c.Archive.Dir == "" {
		return fmt.Errorf("archive.dir is required when the archive is enabled")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}

	return nil
}
