package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Redis     RedisConfig     `yaml:"redis"`
	Minio     MinioConfig     `yaml:"minio"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Breaker   BreakerConfig   `yaml:"breaker"`
	Cache     CacheConfig     `yaml:"cache"`
	Live      LiveConfig      `yaml:"live"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Upload    UploadConfig    `yaml:"upload"`
	CORS      CORSConfig      `yaml:"cors"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StoreConfig selects the medium collections are persisted to.
type StoreConfig struct {
	Driver       string `yaml:"driver"` // memory, sqlite, redis, minio
	SQLitePath   string `yaml:"sqlite_path"`
	MaxContracts int    `yaml:"max_contracts"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix"`
}

type GeminiConfig struct {
	APIURL         string `yaml:"api_url"`
	LiveURL        string `yaml:"live_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	LiveModel      string `yaml:"live_model"`
	Voice          string `yaml:"voice"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	ThinkingBudget int    `yaml:"thinking_budget"`
}

type BreakerConfig struct {
	MaxRequests     uint32  `yaml:"max_requests"`
	IntervalSeconds int     `yaml:"interval_seconds"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
	FailureRatio    float64 `yaml:"failure_ratio"`
	MinRequests     uint32  `yaml:"min_requests"`
}

type CacheConfig struct {
	CompanySize       int `yaml:"company_size"`
	CompanyTTLMinutes int `yaml:"company_ttl_minutes"`
}

type LiveConfig struct {
	TicketSecret     string `yaml:"ticket_secret"`
	TicketTTLMinutes int    `yaml:"ticket_ttl_minutes"`
}

type RateLimitConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

type UploadConfig struct {
	MaxSizeMB int `yaml:"max_size_mb"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

var GlobalConfig *Config

// Load reads the YAML file at path, applies defaults and environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	GlobalConfig = &cfg
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "contractguard.db"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Minio.Bucket == "" {
		c.Minio.Bucket = "contractguard"
	}
	if c.Gemini.APIURL == "" {
		c.Gemini.APIURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.Gemini.LiveURL == "" {
		c.Gemini.LiveURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-3-pro-preview"
	}
	if c.Gemini.LiveModel == "" {
		c.Gemini.LiveModel = "gemini-2.5-flash-native-audio-preview-09-2025"
	}
	if c.Gemini.Voice == "" {
		c.Gemini.Voice = "Kore"
	}
	if c.Gemini.TimeoutSeconds == 0 {
		c.Gemini.TimeoutSeconds = 120
	}
	if c.Gemini.ThinkingBudget == 0 {
		c.Gemini.ThinkingBudget = 2048
	}
	if c.Breaker.MaxRequests == 0 {
		c.Breaker.MaxRequests = 1
	}
	if c.Breaker.IntervalSeconds == 0 {
		c.Breaker.IntervalSeconds = 60
	}
	if c.Breaker.TimeoutSeconds == 0 {
		c.Breaker.TimeoutSeconds = 30
	}
	if c.Breaker.FailureRatio == 0 {
		c.Breaker.FailureRatio = 0.6
	}
	if c.Breaker.MinRequests == 0 {
		c.Breaker.MinRequests = 5
	}
	if c.Cache.CompanySize == 0 {
		c.Cache.CompanySize = 256
	}
	if c.Cache.CompanyTTLMinutes == 0 {
		c.Cache.CompanyTTLMinutes = 60
	}
	if c.Live.TicketTTLMinutes == 0 {
		c.Live.TicketTTLMinutes = 15
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 30
	}
	if c.RateLimit.WindowSeconds == 0 {
		c.RateLimit.WindowSeconds = 60
	}
	if c.Upload.MaxSizeMB == 0 {
		c.Upload.MaxSizeMB = 10
	}
	if len(c.CORS.AllowOrigins) == 0 {
		c.CORS.AllowOrigins = []string{"http://localhost:3000"}
	}
}

// applyEnv lets credentials come from the environment instead of the file.
func (c *Config) applyEnv() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	} else if key := os.Getenv("API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if secret := os.Getenv("LIVE_TICKET_SECRET"); secret != "" {
		c.Live.TicketSecret = secret
	}
}

func (g GeminiConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

func (l LiveConfig) TicketTTL() time.Duration {
	return time.Duration(l.TicketTTLMinutes) * time.Minute
}

func (c CacheConfig) CompanyTTL() time.Duration {
	return time.Duration(c.CompanyTTLMinutes) * time.Minute
}

// MaxUploadBytes is the upload limit in bytes.
func (u UploadConfig) MaxUploadBytes() int64 {
	return int64(u.MaxSizeMB) << 20
}
