// Package config loads gconnect's runtime configuration by merging
// defaults, an optional config.* file, environment variables (GCONNECT_*)
// and explicitly set flags, highest precedence last.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CORSConfig groups the CORS behavior and lists.
type CORSConfig struct {
	EnableCORS           bool     `mapstructure:"enable_cors"`
	CORSAllowedOrigins   []string `mapstructure:"cors_allowed_origins"`
	CORSAllowedMethods   []string `mapstructure:"cors_allowed_methods"`
	CORSAllowedHeaders   []string `mapstructure:"cors_allowed_headers"`
	CORSAllowCredentials bool     `mapstructure:"cors_allow_credentials"`
	CORSMaxAge           int      `mapstructure:"cors_max_age"`
}

// Config holds everything the gconnect process needs.
type Config struct {
	// runtime
	Env      string `mapstructure:"env"`       // "dev" | "prod"
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error …

	// HTTP surface
	HTTPPort            int   `mapstructure:"http_port"`
	MaxRequestBodyBytes int64 `mapstructure:"max_request_body_bytes"`
	CORS                CORSConfig `mapstructure:",squash"`

	// Upstream portal behavior
	UpstreamTimeout time.Duration `mapstructure:"upstream_timeout"`

	// DateShiftDays is added to every YYYY-MM-DD homework due date to
	// compensate the portal's off-by-one artifact. 0 disables the shift
	// for schools where the artifact doesn't reproduce.
	DateShiftDays int `mapstructure:"date_shift_days"`

	// SealKey derives the key used to seal credentials returned to
	// clients for the re-authentication path. Required in prod.
	SealKey string `mapstructure:"seal_key"`

	// Login rate limiting, per client IP. Every login request costs a
	// full upstream authentication flow, so the default is deliberately
	// tight. 0 disables the limiter.
	LoginRatePerMinute int `mapstructure:"login_rate_per_minute"`
	LoginBurst         int `mapstructure:"login_burst"`
}

// Dump returns a pretty, redacted JSON string of the config for debugging.
// Never logs secrets; use at debug level only.
func (c Config) Dump() string {
	cp := c
	if cp.SealKey != "" {
		cp.SealKey = "[redacted]"
	}
	b, _ := json.MarshalIndent(cp, "", "  ")
	return string(b)
}

// Load merges defaults → config.* file → env vars → explicit flags into one
// Config. Final precedence (highest wins): flags(explicit) > env > file >
// defaults.
func Load(logger *zap.Logger) (*Config, error) {
	// Optionally load .env (safe: real env still wins over .env).
	if err := godotenv.Load(); err == nil && logger != nil {
		logger.Info("Loaded .env file")
	}

	pflag.String("env", "dev", `Runtime environment "dev"|"prod"`)
	pflag.String("log_level", "debug", "Log level")
	pflag.Int("http_port", 8080, "HTTP port")
	pflag.Int64("max_request_body_bytes", 1<<20, "Max HTTP request body size in bytes (0 = unlimited)")
	pflag.String("upstream_timeout", "10s", `Timeout per upstream portal call (e.g., "5s", "15s")`)
	pflag.Int("date_shift_days", 1, "Days added to homework due dates (0 disables)")
	pflag.String("seal_key", "", "Key for sealing stored credentials")
	pflag.Int("login_rate_per_minute", 6, "Per-IP login attempts refilled per minute (0 disables limiting)")
	pflag.Int("login_burst", 3, "Per-IP login attempt burst size")

	pflag.Bool("enable_cors", false, "Enable CORS")
	pflag.String("cors_allowed_origins", "", `JSON array of origins, e.g. '["https://app.example"]'`)
	pflag.String("cors_allowed_methods", "", `JSON array of methods, e.g. '["GET","POST"]'`)
	pflag.String("cors_allowed_headers", "", `JSON array of headers, e.g. '["Accept","Content-Type"]'`)
	pflag.Bool("cors_allow_credentials", false, "CORS: allow credentials")
	pflag.Int("cors_max_age", 0, "CORS: max age seconds (0 disables cache)")
	pflag.Parse()

	v := viper.New()
	v.SetEnvPrefix("GCONNECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Bind env for all keys so Unmarshal sees them.
	for _, k := range allKeys() {
		_ = v.BindEnv(k)
	}

	// Optional config.* file (yaml|yml|json|toml).
	for _, ext := range [...]string{"yaml", "yml", "json", "toml"} {
		file := "config." + ext
		b, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		v.SetConfigType(ext)
		if err := v.MergeConfig(strings.NewReader(string(b))); err != nil {
			if logger != nil {
				logger.Warn("cannot decode config file", zap.String("file", file), zap.Error(err))
			}
			continue
		}
		if logger != nil {
			logger.Info("Loaded config file", zap.String("file", file))
		}
	}

	setDefaults(v)

	// Apply *explicit* flags (highest precedence).
	pflag.CommandLine.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	if err := normalizeListKeys(logger, v,
		"cors_allowed_origins",
		"cors_allowed_methods",
		"cors_allowed_headers",
	); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	dur, err := parseDurationFlexible(v.Get("upstream_timeout"), 10*time.Second)
	if err != nil && logger != nil {
		logger.Warn("invalid upstream_timeout; using default 10s",
			zap.Any("value", v.Get("upstream_timeout")), zap.Error(err))
	}
	cfg.UpstreamTimeout = dur

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func allKeys() []string {
	return []string{
		"env", "log_level",
		"http_port", "max_request_body_bytes",
		"upstream_timeout", "date_shift_days", "seal_key",
		"login_rate_per_minute", "login_burst",
		"enable_cors",
		"cors_allowed_origins", "cors_allowed_methods", "cors_allowed_headers",
		"cors_allow_credentials", "cors_max_age",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "debug")

	v.SetDefault("http_port", 8080)
	v.SetDefault("max_request_body_bytes", int64(1<<20))

	v.SetDefault("upstream_timeout", "10s")
	v.SetDefault("date_shift_days", 1)
	v.SetDefault("seal_key", "")
	v.SetDefault("login_rate_per_minute", 6)
	v.SetDefault("login_burst", 3)

	v.SetDefault("enable_cors", false)
	v.SetDefault("cors_allowed_origins", []string{})
	v.SetDefault("cors_allowed_methods", []string{})
	v.SetDefault("cors_allowed_headers", []string{})
	v.SetDefault("cors_allow_credentials", false)
	v.SetDefault("cors_max_age", 0)
}

// normalizeListKeys coerces JSON-string values into []string for the given keys.
func normalizeListKeys(logger *zap.Logger, v *viper.Viper, keys ...string) error {
	for _, key := range keys {
		val := v.Get(key)
		switch t := val.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				continue
			}
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err != nil {
				return fmt.Errorf("config key %q expects a JSON array string, got %q: %w", key, s, err)
			}
			v.Set(key, arr)
		case []interface{}:
			arr := make([]string, 0, len(t))
			for _, e := range t {
				arr = append(arr, fmt.Sprint(e))
			}
			v.Set(key, arr)
		case []string, nil:
			// already correct or unset
		default:
			if logger != nil {
				logger.Warn("unexpected type for list key; expected JSON array/string",
					zap.String("key", key), zap.Any("value", t))
			}
		}
	}
	return nil
}

// parseDurationFlexible accepts strings like "90s"/"2m", plain seconds
// ("120"), numeric seconds, or a time.Duration. Returns def on empty input;
// def plus an error on anything unparsable.
func parseDurationFlexible(raw any, def time.Duration) (time.Duration, error) {
	switch t := raw.(type) {
	case time.Duration:
		if t <= 0 {
			return def, fmt.Errorf("duration must be >0")
		}
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return def, nil
		}
		if d, err := time.ParseDuration(s); err == nil {
			if d <= 0 {
				return def, fmt.Errorf("duration must be >0")
			}
			return d, nil
		}
		if d, err := time.ParseDuration(s + "s"); err == nil && d > 0 {
			return d, nil
		}
		return def, fmt.Errorf("cannot parse duration %q", s)
	case int:
		if t <= 0 {
			return def, fmt.Errorf("seconds must be >0")
		}
		return time.Duration(t) * time.Second, nil
	case int64:
		if t <= 0 {
			return def, fmt.Errorf("seconds must be >0")
		}
		return time.Duration(t) * time.Second, nil
	case float64:
		if t <= 0 {
			return def, fmt.Errorf("seconds must be >0")
		}
		return time.Duration(t * float64(time.Second)), nil
	case nil:
		return def, nil
	default:
		return def, fmt.Errorf("unsupported duration type %T", raw)
	}
}

func validate(cfg Config) error {
	var missing []string
	var invalid []string

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, "http_port must be in 1..65535")
	}
	if cfg.DateShiftDays < -1 || cfg.DateShiftDays > 1 {
		invalid = append(invalid, "date_shift_days must be -1, 0 or 1")
	}
	if cfg.LoginRatePerMinute < 0 || cfg.LoginBurst < 0 {
		invalid = append(invalid, "login_rate_per_minute and login_burst must be >= 0")
	}
	if cfg.Env == "prod" && strings.TrimSpace(cfg.SealKey) == "" {
		missing = append(missing, "GCONNECT_SEAL_KEY (or --seal_key) in prod")
	}

	if cfg.CORS.EnableCORS {
		if len(cfg.CORS.CORSAllowedOrigins) == 0 {
			missing = append(missing, "cors_allowed_origins (JSON array) required when enable_cors=true")
		}
		for _, o := range cfg.CORS.CORSAllowedOrigins {
			if o == "*" && cfg.CORS.CORSAllowCredentials {
				invalid = append(invalid, `CORS: cannot use "*" in cors_allowed_origins when cors_allow_credentials=true`)
				break
			}
		}
		if cfg.CORS.CORSMaxAge < 0 {
			invalid = append(invalid, "CORS: cors_max_age must be >= 0")
		}
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return fmt.Errorf("configuration errors: %s", strings.Join(parts, " | "))
}
