package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Dev struct {
		Mode bool `yaml:"mode"`
	} `yaml:"dev"`
	Gateway struct {
		Provider    string        `yaml:"provider"` // openai / noop
		Model       string        `yaml:"model"`
		OpenAIKey   string        `yaml:"openai_key"`
		MaxAttempts int           `yaml:"max_attempts"`
		BaseBackoff time.Duration `yaml:"base_backoff"`
	} `yaml:"gateway"`
	Sessions struct {
		Backend string        `yaml:"backend"` // memory / redis
		TTL     time.Duration `yaml:"ttl"`
	} `yaml:"sessions"`
	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`
	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	Translate struct {
		Provider string `yaml:"provider"` // gateway / passthrough
	} `yaml:"translate"`
	Security struct {
		APIKey         string `yaml:"api_key"`
		RequestsPerMin int    `yaml:"requests_per_min"`
	} `yaml:"security"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Default() Config {
	var cfg Config
	cfg.HTTP.Addr = ":8090"
	cfg.Dev.Mode = true
	cfg.Gateway.Provider = "noop"
	cfg.Gateway.MaxAttempts = 3
	cfg.Gateway.BaseBackoff = 200 * time.Millisecond
	cfg.Sessions.Backend = "memory"
	cfg.Sessions.TTL = 24 * time.Hour
	cfg.Translate.Provider = "passthrough"
	cfg.Security.RequestsPerMin = 60
	cfg.Log.Level = "info"
	return cfg
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, err
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	applyEnv(&cfg)

	if cfg.Gateway.MaxAttempts < 1 {
		cfg.Gateway.MaxAttempts = 1
	}
	if cfg.Sessions.TTL <= 0 {
		cfg.Sessions.TTL = 24 * time.Hour
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("AROGYA_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("AROGYA_DEV_MODE"); v != "" {
		cfg.Dev.Mode = parseBool(v, cfg.Dev.Mode)
	}
	if v := os.Getenv("AROGYA_GATEWAY_PROVIDER"); v != "" {
		cfg.Gateway.Provider = v
	}
	if v := os.Getenv("AROGYA_GATEWAY_MODEL"); v != "" {
		cfg.Gateway.Model = v
	}
	if v := os.Getenv("AROGYA_OPENAI_KEY"); v != "" {
		cfg.Gateway.OpenAIKey = v
	}
	if v := os.Getenv("AROGYA_GATEWAY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.MaxAttempts = n
		}
	}
	if v := os.Getenv("AROGYA_GATEWAY_BASE_BACKOFF"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Gateway.BaseBackoff = d
		}
	}
	if v := os.Getenv("AROGYA_SESSIONS_BACKEND"); v != "" {
		cfg.Sessions.Backend = v
	}
	if v := os.Getenv("AROGYA_SESSIONS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sessions.TTL = d
		}
	}
	if v := os.Getenv("AROGYA_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("AROGYA_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("AROGYA_TRANSLATE_PROVIDER"); v != "" {
		cfg.Translate.Provider = v
	}
	if v := os.Getenv("AROGYA_API_KEY"); v != "" {
		cfg.Security.APIKey = v
	}
	if v := os.Getenv("AROGYA_REQUESTS_PER_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Security.RequestsPerMin = n
		}
	}
	if v := os.Getenv("AROGYA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func parseBool(value string, fallback bool) bool {
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
