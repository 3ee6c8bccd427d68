package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	builderr "github.com/alexjbarnes/build-cli/internal/errors"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Token store backends.
const (
	TokenStoreFile = "file"
	TokenStoreBolt = "bolt"
)

// DefaultIdentity is the reserved identity path. When ssh or mosh is asked
// to use it and no public key exists yet, a keypair is generated and
// registered with the machine on the fly.
const DefaultIdentity = "~/.ssh/id_build_ecdsa"

// Available machine regions and sizes. The first entry of each is the default.
var (
	Regions = []string{"fra1", "nyc3", "sfo3"}
	Sizes   = []string{"s-1vcpu-2gb"}
)

// Config holds all environment-based configuration for the build CLI.
type Config struct {
	// Control plane base URL.
	APIURL string `env:"BUILD_API_URL" envDefault:"https://api-staging.blink.build"`

	// Identity provider (Auth0) device flow settings.
	Auth0ClientID string `env:"BUILD_AUTH0_CLIENT_ID" envDefault:"x7RQ8NR862VscbotFSfu2VO7PEj55ExK"`
	Auth0Domain   string `env:"BUILD_AUTH0_DOMAIN" envDefault:"dev-i8bp-l6b.us.auth0.com"`
	Auth0Scope    string `env:"BUILD_AUTH0_SCOPE" envDefault:"offline_access openid profile read:build write:build"`
	Auth0Audience string `env:"BUILD_AUTH0_AUDIENCE" envDefault:"blink.build"`

	// Token persistence. "file" keeps the raw token JSON at TokenPath,
	// "bolt" keeps it inside the bbolt database at StatePath.
	TokenStore string `env:"BUILD_TOKEN_STORE" envDefault:"file"`
	TokenPath  string `env:"BUILD_TOKEN_PATH" envDefault:"~/.build.token"`
	StatePath  string `env:"BUILD_STATE_PATH" envDefault:"~/.build/state.db"`

	// SSH connection parameters.
	SSHUser     string `env:"BUILD_SSH_USER" envDefault:"blink"`
	SSHPort     int    `env:"BUILD_SSH_PORT" envDefault:"22"`
	SSHIdentity string `env:"BUILD_SSH_IDENTITY" envDefault:"~/.ssh/id_build_ecdsa"`

	IPCacheTTL         time.Duration `env:"BUILD_IP_CACHE_TTL" envDefault:"30m"`
	DevicePollInterval time.Duration `env:"BUILD_DEVICE_POLL_INTERVAL" envDefault:"5s"`
	DevicePollAttempts int           `env:"BUILD_DEVICE_POLL_ATTEMPTS" envDefault:"5"`
	MachineStartGrace  time.Duration `env:"BUILD_MACHINE_START_GRACE" envDefault:"3s"`
	HTTPTimeout        time.Duration `env:"BUILD_HTTP_TIMEOUT" envDefault:"60s"`

	Region string `env:"BUILD_REGION" envDefault:"fra1"`
	Size   string `env:"BUILD_SIZE" envDefault:"s-1vcpu-2gb"`

	// Environment controls log format
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing credentials to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from environment variables.
// It first attempts to load a .env file if present, then parses env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	for _, p := range []*string{&cfg.TokenPath, &cfg.StatePath} {
		expanded, err := ExpandHome(*p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", *p, err)
		}

		*p = expanded
	}

	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BUILD_API_URL must be an absolute http(s) URL, got %q", c.APIURL)
	}

	if c.Auth0ClientID == "" || c.Auth0Domain == "" {
		return fmt.Errorf("BUILD_AUTH0_CLIENT_ID and BUILD_AUTH0_DOMAIN are required")
	}

	switch c.TokenStore {
	case TokenStoreFile, TokenStoreBolt:
	default:
		return fmt.Errorf("BUILD_TOKEN_STORE must be %q or %q, got %q", TokenStoreFile, TokenStoreBolt, c.TokenStore)
	}

	if c.SSHPort < 1 || c.SSHPort > 65535 {
		return fmt.Errorf("BUILD_SSH_PORT must be between 1 and 65535, got %d", c.SSHPort)
	}

	if c.SSHUser == "" {
		return fmt.Errorf("BUILD_SSH_USER is required")
	}

	if c.IPCacheTTL <= 0 {
		return fmt.Errorf("BUILD_IP_CACHE_TTL must be positive")
	}

	if c.DevicePollAttempts < 1 {
		return fmt.Errorf("BUILD_DEVICE_POLL_ATTEMPTS must be at least 1, got %d", c.DevicePollAttempts)
	}

	if c.DevicePollInterval < 0 || c.MachineStartGrace < 0 || c.HTTPTimeout <= 0 {
		return fmt.Errorf("BUILD_DEVICE_POLL_INTERVAL, BUILD_MACHINE_START_GRACE and BUILD_HTTP_TIMEOUT must not be negative")
	}

	if err := ValidateRegion(c.Region); err != nil {
		return fmt.Errorf("BUILD_REGION: %w", err)
	}

	if err := ValidateSize(c.Size); err != nil {
		return fmt.Errorf("BUILD_SIZE: %w", err)
	}

	return nil
}

// ValidateRegion checks region against the available list.
func ValidateRegion(region string) error {
	if !slices.Contains(Regions, region) {
		return builderr.Invalid("region", region, "possible region values: "+strings.Join(Regions, ", "))
	}

	return nil
}

// ValidateSize checks size against the available list.
func ValidateSize(size string) error {
	if !slices.Contains(Sizes, size) {
		return builderr.Invalid("size", size, "possible size values: "+strings.Join(Sizes, ", "))
	}

	return nil
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ExpandHome replaces a leading "~/" (or a bare "~") with the user's home
// directory. Other paths are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}

	if path == "~" {
		return home, nil
	}

	return filepath.Join(home, path[2:]), nil
}
