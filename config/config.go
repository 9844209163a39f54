package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	SummarizerScript = "script"
	SummarizerGemini = "gemini"
	SummarizerEcho   = "echo"
)

type Config struct {
	ServerPort       string        `yaml:"server_port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	SummarizeTimeout time.Duration `yaml:"summarize_timeout"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`

	RateLimit         int           `yaml:"rate_limit"`
	RateLimitInterval time.Duration `yaml:"rate_limit_interval"`

	LogDir    string `yaml:"log_dir"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	MaxChunkLength   int `yaml:"max_chunk_length"`
	MinChunkLength   int `yaml:"min_chunk_length"`
	SummaryMaxLength int `yaml:"summary_max_length"`
	SummaryMinLength int `yaml:"summary_min_length"`

	Summarizer  string `yaml:"summarizer"`
	ModelName   string `yaml:"model_name"`
	PythonPath  string `yaml:"python_path"`
	ScriptsPath string `yaml:"scripts_path"`

	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`

	TranscriptLanguages []string `yaml:"transcript_languages"`
	MaxUploadSize       int64    `yaml:"max_upload_size"`

	CacheEnabled bool   `yaml:"cache_enabled"`
	DBPath       string `yaml:"db_path"`
}

func Default() *Config {
	return &Config{
		ServerPort:          "8080",
		ReadTimeout:         30 * time.Second,
		WriteTimeout:        10 * time.Minute,
		IdleTimeout:         60 * time.Second,
		SummarizeTimeout:    10 * time.Minute,
		ShutdownTimeout:     5 * time.Second,
		RateLimit:           5,
		RateLimitInterval:   1 * time.Second,
		LogLevel:            "info",
		LogFormat:           "text",
		MaxChunkLength:      500,
		MinChunkLength:      50,
		SummaryMaxLength:    130,
		SummaryMinLength:    30,
		Summarizer:          SummarizerScript,
		ModelName:           "facebook/bart-large-cnn",
		PythonPath:          "python3",
		ScriptsPath:         "./scripts",
		GeminiModel:         "gemini-2.5-flash",
		TranscriptLanguages: []string{"en"},
		MaxUploadSize:       5 << 20,
		DBPath:              "./data/summaries.db",
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by CONFIG_FILE, and then environment variables, in that order.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := GetEnv("CONFIG_FILE", ""); path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ServerPort = GetEnv("SERVER_PORT", cfg.ServerPort)
	cfg.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.IdleTimeout = getEnvAsDuration("IDLE_TIMEOUT", cfg.IdleTimeout)
	cfg.SummarizeTimeout = getEnvAsDuration("SUMMARIZE_TIMEOUT", cfg.SummarizeTimeout)
	cfg.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.RateLimit = getEnvAsInt("RATE_LIMIT", cfg.RateLimit)
	cfg.RateLimitInterval = getEnvAsDuration("RATE_LIMIT_INTERVAL", cfg.RateLimitInterval)
	cfg.LogDir = GetEnv("LOG_DIR", cfg.LogDir)
	cfg.LogLevel = GetEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = GetEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.MaxChunkLength = getEnvAsInt("MAX_CHUNK_LENGTH", cfg.MaxChunkLength)
	cfg.MinChunkLength = getEnvAsInt("MIN_CHUNK_LENGTH", cfg.MinChunkLength)
	cfg.SummaryMaxLength = getEnvAsInt("SUMMARY_MAX_LENGTH", cfg.SummaryMaxLength)
	cfg.SummaryMinLength = getEnvAsInt("SUMMARY_MIN_LENGTH", cfg.SummaryMinLength)
	cfg.Summarizer = strings.ToLower(GetEnv("SUMMARIZER", cfg.Summarizer))
	cfg.ModelName = GetEnv("MODEL_NAME", cfg.ModelName)
	cfg.PythonPath = GetEnv("PYTHON_PATH", cfg.PythonPath)
	cfg.ScriptsPath = GetEnv("SCRIPTS_PATH", cfg.ScriptsPath)
	cfg.GeminiAPIKey = GetEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = GetEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.TranscriptLanguages = getEnvAsStringSlice("TRANSCRIPT_LANGUAGES", cfg.TranscriptLanguages)
	cfg.MaxUploadSize = getEnvAsInt64("MAX_UPLOAD_SIZE", cfg.MaxUploadSize)
	cfg.CacheEnabled = getEnvAsBool("CACHE_ENABLED", cfg.CacheEnabled)
	cfg.DBPath = GetEnv("DB_PATH", cfg.DBPath)

	return cfg, nil
}

// LoadFile decodes a YAML file over cfg. Keys absent from the file keep
// their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config file %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parse config file %s", path)
	}
	return nil
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid boolean, using default")
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func ValidateConfig(cfg *Config) error {
	if cfg.ServerPort == "" {
		return errors.New("server port is required")
	}
	if cfg.SummarizeTimeout <= 0 {
		return errors.New("summarize timeout must be greater than 0")
	}
	if cfg.ReadTimeout <= 0 {
		return errors.New("read timeout must be greater than 0")
	}
	if cfg.WriteTimeout <= 0 {
		return errors.New("write timeout must be greater than 0")
	}
	if cfg.IdleTimeout <= 0 {
		return errors.New("idle timeout must be greater than 0")
	}
	if cfg.RateLimit <= 0 || cfg.RateLimitInterval <= 0 {
		return errors.New("rate limit and interval must be greater than 0")
	}
	if cfg.MaxChunkLength < 1 {
		return errors.New("max chunk length must be at least 1")
	}
	if cfg.MinChunkLength < 0 {
		return errors.New("min chunk length cannot be negative")
	}
	if cfg.SummaryMinLength < 0 || cfg.SummaryMaxLength <= 0 {
		return errors.New("summary length bounds must be positive")
	}
	if cfg.SummaryMinLength > cfg.SummaryMaxLength {
		return errors.New("summary min length cannot be greater than max length")
	}
	switch cfg.Summarizer {
	case SummarizerScript, SummarizerEcho:
	case SummarizerGemini:
		if cfg.GeminiAPIKey == "" {
			return errors.New("gemini summarizer requires GEMINI_API_KEY")
		}
	default:
		return errors.Errorf("unknown summarizer %q", cfg.Summarizer)
	}
	if cfg.CacheEnabled && cfg.DBPath == "" {
		return errors.New("database path is required when the cache is enabled")
	}
	return nil
}
