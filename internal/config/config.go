package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jimezsa/usajobsfn/internal/usajobs"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const (
	DirName         = "usajobsfn"
	ConfigFileName  = "config.json"
	ProxiesFileName = "proxies.txt"

	DefaultSecretName = "USAJOBS_API_KEY"
	DefaultPort       = "8080"
)

// Config contains the function's runtime settings. File values are read
// first and environment variables override them.
type Config struct {
	ProjectID      string `json:"project_id"`
	SecretName     string `json:"secret_name"`
	SecretsDir     string `json:"secrets_dir"`
	Endpoint       string `json:"endpoint"`
	UserAgent      string `json:"user_agent"`
	Location       string `json:"location"`
	WhoMayApply    string `json:"who_may_apply"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	Concurrency    int    `json:"concurrency"`
	Port           string `json:"port"`
}

func DefaultConfig() Config {
	return Config{
		SecretName:     DefaultSecretName,
		Endpoint:       usajobs.DefaultEndpoint,
		UserAgent:      usajobs.DefaultUserAgent,
		Location:       usajobs.DefaultLocation,
		WhoMayApply:    usajobs.DefaultWhoMayApply,
		TimeoutSeconds: 30,
		Concurrency:    1,
		Port:           DefaultPort,
	}
}

func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

// ConfigPath honours USAJOBSFN_CONFIG before the user config dir.
func ConfigPath() (string, error) {
	if path := strings.TrimSpace(os.Getenv("USAJOBSFN_CONFIG")); path != "" {
		return path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func ProxiesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ProxiesFileName), nil
}

// Load reads the config file when present and applies env overrides.
// Cloud Functions have no user config dir, so a missing file or dir is fine.
func Load() (Config, error) {
	cfg := DefaultConfig()
	path, err := ConfigPath()
	if err != nil {
		return applyEnv(cfg), nil
	}
	cfg, err = LoadFile(path, cfg)
	return applyEnv(cfg), err
}

// LoadFile decodes a JSON5 config file on top of base.
func LoadFile(path string, base Config) (Config, error) {
	cfg := base
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}

	if err := json5.Unmarshal(data, &cfg); err != nil {
		return base, err
	}

	return cfg, nil
}

func applyEnv(cfg Config) Config {
	cfg.ProjectID = envString("GCP_PROJECT", envString("GOOGLE_CLOUD_PROJECT", cfg.ProjectID))
	cfg.SecretName = envString("USAJOBSFN_SECRET_NAME", cfg.SecretName)
	cfg.SecretsDir = envString("USAJOBSFN_SECRETS_DIR", cfg.SecretsDir)
	cfg.Endpoint = envString("USAJOBSFN_ENDPOINT", cfg.Endpoint)
	cfg.UserAgent = envString("USAJOBSFN_USER_AGENT", cfg.UserAgent)
	cfg.Location = envString("USAJOBSFN_LOCATION", cfg.Location)
	cfg.WhoMayApply = envString("USAJOBSFN_WHO_MAY_APPLY", cfg.WhoMayApply)
	cfg.TimeoutSeconds = envInt("USAJOBSFN_TIMEOUT", cfg.TimeoutSeconds)
	cfg.Concurrency = envInt("USAJOBSFN_CONCURRENCY", cfg.Concurrency)
	cfg.Port = envString("PORT", cfg.Port)
	return cfg
}

// Init writes default config.json and proxies.txt if they don't already exist.
func Init() ([]string, error) {
	var created []string

	dir, err := ConfigDir()
	if err != nil {
		return created, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return created, err
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := writeConfig(configPath, DefaultConfig()); err != nil {
			return created, err
		}
		created = append(created, configPath)
	}

	proxiesPath := filepath.Join(dir, ProxiesFileName)
	if _, err := os.Stat(proxiesPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(proxiesPath, []byte(""), 0o644); err != nil {
			return created, err
		}
		created = append(created, proxiesPath)
	}

	return created, nil
}

func writeConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadProxies resolves proxies from the flag, USAJOBSFN_PROXIES, then the
// proxies file. Lines starting with # are comments.
func LoadProxies(flagValue string) ([]string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return splitCSV(flagValue), nil
	}

	if env := strings.TrimSpace(os.Getenv("USAJOBSFN_PROXIES")); env != "" {
		return splitCSV(env), nil
	}

	path, err := ProxiesPath()
	if err != nil {
		return nil, nil
	}
	return readProxiesFile(path)
}

func readProxiesFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var proxies []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	return proxies, nil
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
