package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Application settings
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	AI      AIConfig      `yaml:"ai"`
	Export  ExportConfig  `yaml:"export"`
}

// Server settings
type ServerConfig struct {
	Port           string        `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Storage backends: memory, sqlite or dynamodb.
type StorageConfig struct {
	Backend       string `yaml:"backend"`
	SQLitePath    string `yaml:"sqlite_path"`
	DynamoTable   string `yaml:"dynamo_table"`
	DynamoRegion  string `yaml:"dynamo_region"`
	DynamoProfile string `yaml:"dynamo_profile"`
}

// Redis rollup cache; disabled when RedisAddr is empty.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// Report generation provider: bedrock, gemini or none.
type AIConfig struct {
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"api_key"`
	Region            string        `yaml:"region"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

type ExportConfig struct {
	SinkURL            string        `yaml:"sink_url"`
	SinkSecret         string        `yaml:"sink_secret"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	RateLimitPerSecond int           `yaml:"rate_limit_per_second"`
}

// Logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in settings used before the file and env overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			RequestTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			Backend:      "memory",
			SQLitePath:   "data/marketingops.db",
			DynamoTable:  "marketingops",
			DynamoRegion: "us-east-1",
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		AI: AIConfig{
			Provider:          "none",
			Region:            "us-east-1",
			RequestTimeout:    60 * time.Second,
			RequestsPerMinute: 30,
		},
		Export: ExportConfig{
			RequestTimeout:     30 * time.Second,
			RateLimitPerSecond: 10,
		},
	}
}

// Load reads CONFIG_FILE when set and then applies environment overrides.
func Load() (*Config, error) {
	config := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.RequestTimeout = getDurationEnv("REQUEST_TIMEOUT", c.Server.RequestTimeout)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)

	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.SQLitePath = getEnv("SQLITE_PATH", c.Storage.SQLitePath)
	c.Storage.DynamoTable = getEnv("DYNAMO_TABLE", c.Storage.DynamoTable)
	c.Storage.DynamoRegion = getEnv("AWS_REGION", c.Storage.DynamoRegion)
	c.Storage.DynamoProfile = getEnv("AWS_PROFILE", c.Storage.DynamoProfile)

	c.Cache.RedisAddr = getEnv("REDIS_ADDR", c.Cache.RedisAddr)
	c.Cache.RedisPassword = getEnv("REDIS_PASSWORD", c.Cache.RedisPassword)
	c.Cache.RedisDB = getIntEnv("REDIS_DB", c.Cache.RedisDB)
	c.Cache.TTL = getDurationEnv("CACHE_TTL", c.Cache.TTL)

	c.AI.Provider = getEnv("AI_PROVIDER", c.AI.Provider)
	c.AI.Model = getEnv("AI_MODEL", c.AI.Model)
	c.AI.APIKey = getEnv("AI_API_KEY", c.AI.APIKey)
	c.AI.Region = getEnv("AI_REGION", c.AI.Region)
	c.AI.RequestTimeout = getDurationEnv("AI_REQUEST_TIMEOUT", c.AI.RequestTimeout)
	c.AI.RequestsPerMinute = getIntEnv("AI_REQUESTS_PER_MINUTE", c.AI.RequestsPerMinute)

	c.Export.SinkURL = getEnv("SINK_URL", c.Export.SinkURL)
	c.Export.SinkSecret = getEnv("SINK_SECRET", c.Export.SinkSecret)
	c.Export.RequestTimeout = getDurationEnv("EXPORT_TIMEOUT", c.Export.RequestTimeout)
	c.Export.RateLimitPerSecond = getIntEnv("RATE_LIMIT_PER_SECOND", c.Export.RateLimitPerSecond)
}

// Validate rejects backend and provider names the server cannot wire.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "sqlite", "dynamodb":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.AI.Provider {
	case "none", "bedrock", "gemini":
	default:
		return fmt.Errorf("unknown AI provider %q", c.AI.Provider)
	}
	if c.AI.Provider == "gemini" && c.AI.APIKey == "" {
		return fmt.Errorf("AI_API_KEY is required for the gemini provider")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
