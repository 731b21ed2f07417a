package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "RPCCONSOLE_"

// Degrade source kinds.
const (
	DegradeSourceNone  = "none"
	DegradeSourceRedis = "redis"
	DegradeSourceFile  = "file"
)

type Config struct {
	AppName string // application name shown by the `client` command
	LocalIP string // address shown in the prompt (default: first non-loopback IPv4)

	// Console
	ConsoleAddr         string        // ex: ":9999"
	ConsoleMaxLine      int           // longest accepted input line in bytes
	ConsoleIdleTimeout  time.Duration // read deadline per line, 0 = none
	ConsoleWriteTimeout time.Duration // write deadline per response, 0 = none
	ConsoleAllowedCIDRS []string      // optional, restrict which peers may connect
	ConsoleConnRate     float64       // new connections per second per IP, 0 = unlimited
	ConsoleConnBurst    int           // burst for ConsoleConnRate

	// HTTP ops endpoint (healthz, readyz, metrics)
	HTTPAddr         string        // ex: ":9090", empty disables
	HTTPAllowedCIDRS []string      // optional, restrict /infra, /readyz and the pull trigger
	HTTPTrustProxy   bool          // resolve client IPs from proxy headers
	ShutdownTimeout  time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	DescriptorFile string // optional YAML of references and services

	// Degrade list
	DegradeSource       string        // none | redis | file
	DegradeFile         string        // path used when DegradeSource=file
	DegradePullInterval time.Duration // 0 = pull on demand only
	DegradeSeed         []string      // written to the redis set at startup
	DegradeUnseed       []string      // removed from the redis set at startup

	// Redis
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration
	RedisWarnThreshold  int
	RedisDegradeKey     string

	// Metadata cache
	CachePolicy string // lru | arc
	CacheSize   int
}

// Load reads the configuration from the environment and panics on values
// the node cannot start with.
func Load() *Config {
	cfg := &Config{
		AppName: requireEnv("APP_NAME"),
		LocalIP: getenv("LOCAL_IP", ""),

		ConsoleAddr:         getenv("CONSOLE_ADDR", ":9999"),
		ConsoleMaxLine:      getenvInt("CONSOLE_MAX_LINE", 4096),
		ConsoleIdleTimeout:  mustDuration("CONSOLE_IDLE_TIMEOUT", 30*time.Minute),
		ConsoleWriteTimeout: mustDuration("CONSOLE_WRITE_TIMEOUT", 10*time.Second),
		ConsoleAllowedCIDRS: splitAndTrim(getenv("CONSOLE_ALLOWED_CIDRS", "")),
		ConsoleConnRate:     getenvFloat("CONSOLE_CONN_RATE", 0),
		ConsoleConnBurst:    getenvInt("CONSOLE_CONN_BURST", 5),

		HTTPAddr:         getenvAllowEmpty("HTTP_ADDR", ":9090"),
		HTTPAllowedCIDRS: splitAndTrim(getenv("HTTP_ALLOWED_CIDRS", "")),
		HTTPTrustProxy:   mustBool("HTTP_TRUST_PROXY", false),
		ShutdownTimeout:  mustDuration("SHUTDOWN_TIMEOUT", 5*time.Second),

		LogLevel:  getenv("LOG_LEVEL", "info"),
		PrettyLog: mustBool("PRETTY_LOG", true),

		DescriptorFile: getenv("DESCRIPTOR_FILE", ""),

		DegradeSource:       strings.ToLower(getenv("DEGRADE_SOURCE", DegradeSourceNone)),
		DegradeFile:         getenv("DEGRADE_FILE", ""),
		DegradePullInterval: mustDuration("DEGRADE_PULL_INTERVAL", 0),
		DegradeSeed:         splitAndTrim(getenv("DEGRADE_SEED", "")),
		DegradeUnseed:       splitAndTrim(getenv("DEGRADE_UNSEED", "")),

		RedisAddr:           getenv("REDIS_ADDR", "localhost:6379"),
		RedisUser:           getenv("REDIS_USERNAME", ""),
		RedisPassword:       getenv("REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
		RedisDegradeKey:     getenv("REDIS_DEGRADE_KEY", "degrades"),

		CachePolicy: strings.ToLower(getenv("CACHE_POLICY", "lru")),
		CacheSize:   getenvInt("CACHE_SIZE", 1024),
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// Validate rejects combinations the node cannot run with.
func (c *Config) Validate() error {
	switch c.DegradeSource {
	case DegradeSourceNone, DegradeSourceRedis:
	case DegradeSourceFile:
		if c.DegradeFile == "" {
			return fmt.Errorf("%sDEGRADE_FILE is required when %sDEGRADE_SOURCE=file", envPrefix, envPrefix)
		}
	default:
		return fmt.Errorf("invalid %sDEGRADE_SOURCE %q (want none, redis or file)", envPrefix, c.DegradeSource)
	}

	switch c.CachePolicy {
	case "lru", "arc":
	default:
		return fmt.Errorf("invalid %sCACHE_POLICY %q (want lru or arc)", envPrefix, c.CachePolicy)
	}

	if c.ConsoleMaxLine < 64 {
		return fmt.Errorf("%sCONSOLE_MAX_LINE must be >= 64, got %d", envPrefix, c.ConsoleMaxLine)
	}
	if c.ConsoleConnRate < 0 {
		return fmt.Errorf("%sCONSOLE_CONN_RATE must be >= 0, got %v", envPrefix, c.ConsoleConnRate)
	}
	if c.DegradePullInterval < 0 {
		return fmt.Errorf("%sDEGRADE_PULL_INTERVAL must be >= 0, got %v", envPrefix, c.DegradePullInterval)
	}
	return nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return def
}

// getenvAllowEmpty returns def only when key is unset, so an explicit
// empty value can disable a feature.
func getenvAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s%s is not set", envPrefix, key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(envPrefix + key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(envPrefix + key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(envPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
