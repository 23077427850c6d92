// file: config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config enumerates every recognized option. It is built once at process
// start and never mutated afterwards.
type Config struct {
	Development bool
	ListenAddr  string

	DBDSN     string
	RedisAddr string // optional; empty disables Redis-backed state

	DockerHost    string // empty means the system default docker socket
	DockerTimeout time.Duration

	Flag                 string // flag prefix, e.g. C0D -> C0D{...}
	MaxContainersPerTeam int
	MaxMembersPerTeam    int
	PortLow              int
	PortHigh             int
	ContainerTTL         time.Duration
	SweepInterval        time.Duration

	JWTSecret        string
	JWTValidDuration time.Duration
	HintPenalty      int
}

// Load reads .env (if present) and the environment into a validated Config.
// A value that is set but unparseable is an error, never silently the default.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var env envLoader
	cfg := &Config{
		Development:          env.Bool("PWNCORE_DEVELOPMENT", false),
		ListenAddr:           env.String("PWNCORE_LISTEN_ADDR", ":8080"),
		DBDSN:                env.String("DATABASE_URL", ""),
		RedisAddr:            env.String("REDIS_ADDR", ""),
		DockerHost:           env.String("DOCKER_URL", ""),
		DockerTimeout:        env.Duration("PWNCORE_DOCKER_TIMEOUT", 30*time.Second),
		Flag:                 env.String("PWNCORE_FLAG_PREFIX", "C0D"),
		MaxContainersPerTeam: env.Int("PWNCORE_MAX_CONTAINERS_PER_TEAM", 3),
		MaxMembersPerTeam:    env.Int("PWNCORE_MAX_MEMBERS_PER_TEAM", 3),
		ContainerTTL:         env.Duration("PWNCORE_CONTAINER_TTL", time.Hour),
		SweepInterval:        env.Duration("PWNCORE_SWEEP_INTERVAL", 5*time.Minute),
		JWTSecret:            env.String("PWNCORE_JWT_SECRET", ""),
		JWTValidDuration:     time.Duration(env.Int("PWNCORE_JWT_VALID_HOURS", 12)) * time.Hour,
		HintPenalty:          env.Int("PWNCORE_HINT_PENALTY", 50),
	}
	if env.err != nil {
		return nil, env.err
	}

	var err error
	cfg.PortLow, cfg.PortHigh, err = parsePortRange(env.String("PWNCORE_PORT_RANGE", "30000-34000"))
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on missing or inconsistent values so a misconfigured
// process never serves a single request.
func (c *Config) Validate() error {
	if c.DBDSN == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: PWNCORE_JWT_SECRET is required")
	}
	if c.Flag == "" {
		return fmt.Errorf("config: PWNCORE_FLAG_PREFIX must not be empty")
	}
	if c.MaxContainersPerTeam < 1 {
		return fmt.Errorf("config: PWNCORE_MAX_CONTAINERS_PER_TEAM must be at least 1, got %d", c.MaxContainersPerTeam)
	}
	if c.MaxMembersPerTeam < 1 {
		return fmt.Errorf("config: PWNCORE_MAX_MEMBERS_PER_TEAM must be at least 1, got %d", c.MaxMembersPerTeam)
	}
	if c.PortLow < 1 || c.PortHigh > 65535 || c.PortLow > c.PortHigh {
		return fmt.Errorf("config: invalid port range %d-%d", c.PortLow, c.PortHigh)
	}
	if c.DockerTimeout <= 0 {
		return fmt.Errorf("config: PWNCORE_DOCKER_TIMEOUT must be positive")
	}
	if c.ContainerTTL <= 0 {
		return fmt.Errorf("config: PWNCORE_CONTAINER_TTL must be positive")
	}
	if c.HintPenalty < 0 {
		return fmt.Errorf("config: PWNCORE_HINT_PENALTY must not be negative")
	}
	return nil
}

func parsePortRange(s string) (int, int, error) {
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("config: PWNCORE_PORT_RANGE %q must look like 30000-34000", s)
	}
	low, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("config: bad low port in %q: %w", s, err)
	}
	high, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, fmt.Errorf("config: bad high port in %q: %w", s, err)
	}
	return low, high, nil
}

// envLoader reads typed env values and remembers the first parse failure,
// so Load can report it instead of starting with a half-default config.
type envLoader struct {
	err error
}

func (l *envLoader) fail(key, value string, err error) {
	if l.err == nil {
		l.err = fmt.Errorf("config: bad %s value %q: %v", key, value, err)
	}
}

func (l *envLoader) String(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (l *envLoader) Int(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.fail(key, v, err)
		return def
	}
	return n
}

func (l *envLoader) Bool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		l.fail(key, v, err)
		return def
	}
	return b
}

func (l *envLoader) Duration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.fail(key, v, err)
		return def
	}
	return d
}
