package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the resolved runtime configuration of the dashboard client.
type Settings struct {
	WsURL         string
	BaseURL       string
	Instruments   []string
	Ping          time.Duration
	RESTTimeout   time.Duration
	DashboardPort int
	MetricsPort   int
	LogLevel      string
	ConsoleLog    bool
}

// ConfigFile mirrors the optional YAML configuration file.
type ConfigFile struct {
	Backend struct {
		WsURL        string `yaml:"wsURL"`
		BaseURL      string `yaml:"baseURL"`
		PingInterval string `yaml:"pingInterval"`
		RESTTimeout  string `yaml:"restTimeout"`
	} `yaml:"backend"`

	Dashboard struct {
		Instruments []string `yaml:"instruments"`
		Port        int      `yaml:"port"`
	} `yaml:"dashboard"`

	System struct {
		MetricsPort int    `yaml:"metricsPort"`
		LogLevel    string `yaml:"logLevel"`
		ConsoleLog  bool   `yaml:"consoleLog"`
	} `yaml:"system"`
}

// Load resolves settings from a YAML file named by CONFIG_FILE, falling
// back to environment variables. Env vars override file values either way.
func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	ping, err := time.ParseDuration(config.Backend.PingInterval)
	if err != nil {
		ping = 15 * time.Second
	}

	restTimeout, err := time.ParseDuration(config.Backend.RESTTimeout)
	if err != nil {
		restTimeout = 5 * time.Second
	}

	settings := Settings{
		WsURL:         getEnvOrDefault("BACKEND_WS_URL", config.Backend.WsURL),
		BaseURL:       getEnvOrDefault("BACKEND_BASE_URL", config.Backend.BaseURL),
		Instruments:   getInstrumentsFromEnvOrConfig(config.Dashboard.Instruments),
		Ping:          ping,
		RESTTimeout:   restTimeout,
		DashboardPort: getIntFromEnvOrConfig("DASHBOARD_PORT", config.Dashboard.Port, 8090),
		MetricsPort:   getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort, 8080),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", config.System.LogLevel),
		ConsoleLog:    getBoolFromEnvOrConfig("CONSOLE_LOG", config.System.ConsoleLog),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		WsURL:         getEnvOrDefault("BACKEND_WS_URL", "ws://localhost:5000/ws"),
		BaseURL:       getEnvOrDefault("BACKEND_BASE_URL", "http://localhost:5000"),
		Instruments:   splitOrDefault(os.Getenv("INSTRUMENTS"), []string{"EUR_USD", "USD_JPY", "GBP_USD"}),
		Ping:          getDurationOrDefault("PING_INTERVAL", 15*time.Second),
		RESTTimeout:   getDurationOrDefault("REST_TIMEOUT", 5*time.Second),
		DashboardPort: getIntOrDefault("DASHBOARD_PORT", 8090),
		MetricsPort:   getIntOrDefault("METRICS_PORT", 8080),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		ConsoleLog:    getBoolOrDefault("CONSOLE_LOG", true),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitOrDefault(v string, def []string) []string {
	if v == "" {
		return def
	}
	return strings.Split(v, ",")
}

func getInstrumentsFromEnvOrConfig(configInstruments []string) []string {
	if env := os.Getenv("INSTRUMENTS"); env != "" {
		return strings.Split(env, ",")
	}
	if len(configInstruments) > 0 {
		return configInstruments
	}
	return []string{"EUR_USD", "USD_JPY", "GBP_USD"}
}

func getIntFromEnvOrConfig(key string, configValue, def int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return def
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings performs range checks on resolved configuration values.
func validateSettings(settings *Settings) error {
	if settings.WsURL == "" {
		return fmt.Errorf("backend websocket URL cannot be empty")
	}
	if settings.BaseURL == "" {
		return fmt.Errorf("backend base URL cannot be empty")
	}
	if len(settings.Instruments) == 0 {
		return fmt.Errorf("at least one instrument must be specified")
	}
	for _, inst := range settings.Instruments {
		if strings.TrimSpace(inst) == "" {
			return fmt.Errorf("instrument names cannot be blank")
		}
	}
	if settings.Ping < time.Second || settings.Ping > 5*time.Minute {
		return fmt.Errorf("ping interval must be between 1s and 5m, got %v", settings.Ping)
	}
	if settings.RESTTimeout < time.Second || settings.RESTTimeout > time.Minute {
		return fmt.Errorf("REST timeout must be between 1s and 1m, got %v", settings.RESTTimeout)
	}
	if settings.DashboardPort < 1024 || settings.DashboardPort > 65535 {
		return fmt.Errorf("dashboard port must be between 1024 and 65535, got %d", settings.DashboardPort)
	}
	if settings.MetricsPort < 1024 || settings.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", settings.MetricsPort)
	}
	if settings.DashboardPort == settings.MetricsPort {
		return fmt.Errorf("dashboard and metrics ports must differ, both are %d", settings.DashboardPort)
	}
	switch settings.LogLevel {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}
	return nil
}
