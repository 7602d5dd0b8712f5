package config

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenAddr     string
	AllowedOrigins []string
	// RateLimitPerMinute is per client IP; zero disables limiting.
	RateLimitPerMinute int

	// target site
	BaseURL     string
	Referer     string
	PhoneRegion string
	DryRun      bool

	// browser
	Headless          bool
	InstallBrowsers   bool
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	OptionalTimeout   time.Duration
	SettleTimeout     time.Duration

	// journal, enabled when DatabaseURL is set
	DatabaseURL      string
	JournalRetention time.Duration
	SweepInterval    time.Duration

	// client tokens, enabled when both keys are set
	TokenHashKey  []byte
	TokenBlockKey []byte

	LogLevel slog.Level
}

func FromEnv() (Config, error) {
	cfg := Config{
		ListenAddr:     getenv("LISTEN_ADDR", ":8080"),
		AllowedOrigins: splitList(getenv("ALLOWED_ORIGINS", "*")),
		BaseURL:        getenv("FIDY_BASE_URL", "https://rione.fidy.app/prenew.php"),
		Referer:        getenv("DEFAULT_REFERER", "AI"),
		PhoneRegion:    strings.ToUpper(getenv("PHONE_DEFAULT_REGION", "IT")),
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.ListenAddr = ":" + port
	}

	var err error
	if cfg.DryRun, err = getbool("DRY_RUN", true); err != nil {
		return Config{}, err
	}
	if cfg.Headless, err = getbool("PW_HEADLESS", true); err != nil {
		return Config{}, err
	}
	if cfg.InstallBrowsers, err = getbool("PW_INSTALL", false); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitPerMinute, err = getint("RATE_LIMIT_PER_MINUTE", 30, 0); err != nil {
		return Config{}, err
	}

	durations := []struct {
		key  string
		def  int
		unit time.Duration
		dst  *time.Duration
	}{
		{"PW_NAV_TIMEOUT_MS", 30000, time.Millisecond, &cfg.NavigationTimeout},
		{"PW_ACTION_TIMEOUT_MS", 20000, time.Millisecond, &cfg.ActionTimeout},
		{"PW_OPTIONAL_TIMEOUT_MS", 1500, time.Millisecond, &cfg.OptionalTimeout},
		{"PW_SETTLE_TIMEOUT_MS", 2000, time.Millisecond, &cfg.SettleTimeout},
		{"JOURNAL_RETENTION_DAYS", 30, 24 * time.Hour, &cfg.JournalRetention},
		{"JOURNAL_SWEEP_MINUTES", 60, time.Minute, &cfg.SweepInterval},
	}
	for _, d := range durations {
		n, err := getint(d.key, d.def, 1)
		if err != nil {
			return Config{}, err
		}
		*d.dst = time.Duration(n) * d.unit
	}

	hashKey := strings.TrimSpace(os.Getenv("TOKEN_HASH_KEY"))
	blockKey := strings.TrimSpace(os.Getenv("TOKEN_BLOCK_KEY"))
	switch {
	case hashKey == "" && blockKey == "":
	case hashKey == "" || blockKey == "":
		return Config{}, fmt.Errorf("TOKEN_HASH_KEY and TOKEN_BLOCK_KEY must be set together")
	default:
		if cfg.TokenHashKey, err = decodeB64(hashKey); err != nil {
			return Config{}, fmt.Errorf("TOKEN_HASH_KEY: %w", err)
		}
		if cfg.TokenBlockKey, err = decodeB64(blockKey); err != nil {
			return Config{}, fmt.Errorf("TOKEN_BLOCK_KEY: %w", err)
		}
		switch len(cfg.TokenBlockKey) {
		case 16, 24, 32:
		default:
			return Config{}, fmt.Errorf("TOKEN_BLOCK_KEY must decode to 16, 24 or 32 bytes (got %d)", len(cfg.TokenBlockKey))
		}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "INFO"))); err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// TokensEnabled reports whether webhook calls must carry a client token.
func (c Config) TokensEnabled() bool { return len(c.TokenHashKey) > 0 }

func (c Config) JournalEnabled() bool { return c.DatabaseURL != "" }

func decodeB64(s string) ([]byte, error) {
	if b, err := os.ReadFile(s); err == nil {
		// allow pointing to file path for k8s secret mounts
		s = strings.TrimSpace(string(b))
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func getbool(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", k, v)
	}
	return b, nil
}

func getint(k string, def, min int) (int, error) {
	v := getenv(k, strconv.Itoa(def))
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return 0, fmt.Errorf("invalid %s: %q", k, v)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
