package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Telegram TelegramConfig
	Cobalt   CobaltConfig

	// Largest media the bot will try to send, in bytes
	MaxFileBytes int64

	PostgresURL     string
	HealthcheckPort int

	LogLevel        log.Level
	LogFormat       LogFormat
	TestModeEnabled bool
}

type TelegramConfig struct {
	Token      string
	SecretPath string
}

type CobaltConfig struct {
	ApiURL          url.URL
	ApiKey          string
	Timeout         time.Duration
	ProbeTimeout    time.Duration
	FollowRedirects bool
}

type LogFormat string

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

const (
	defaultMaxFileMB       = 49
	defaultCobaltTimeout   = 60 * time.Second
	defaultProbeTimeout    = 20 * time.Second
	defaultHealthcheckPort = 8080
)

type EnvfileKey string

const (
	// Telegram bot token
	EnvfileKeyBotToken = "BOT_TOKEN"
	// AWS Secrets Manager path where the bot token can be found, used when BOT_TOKEN is empty
	EnvfileKeyBotSecretsPath = "BOT_SECRETS_PATH"

	// Base URL of the resolution API, without "/api/json"
	EnvfileKeyCobaltAPI = "COBALT_API_URL"
	// API key for instances that require one
	EnvfileKeyCobaltAPIKey = "COBALT_API_KEY"
	// Timeout of the resolution call, in seconds
	EnvfileKeyCobaltTimeout = "COBALT_TIMEOUT"
	// Whether the HTTP client follows redirects
	EnvfileKeyCobaltFollowRedirects = "COBALT_FOLLOW_REDIRECTS"
	// Timeout of the HEAD request used to size media, in seconds
	EnvfileKeyProbeTimeout = "PROBE_TIMEOUT"
	// Largest media the bot will send itself, in megabytes
	EnvfileKeyMaxFileMB = "MAX_FILE_MB"

	// Postgres connection string for the relay log; the log is off when empty
	EnvfileKeyPostgresURL = "POSTGRES_URL"
	// Port for the healthcheck and metrics server
	EnvfileKeyHealthcheckPort = "HEALTHCHECK_PORT"

	// Log level (e.g. "debug", "info", "warn", "error")
	EnvfileKeyLogLevel = "LOG_LEVEL"
	// Log output format (e.g. "text", "json")
	EnvfileKeyLogFormat = "LOG_FORMAT"
	// Enables "test mode" (media sends are simulated)
	EnvfileKeyTestMode = "TEST_MODE"
)

var ErrMissingAPIURL = errors.New("COBALT_API_URL is not set")

// FromEnvfile loads the config and exits the process if it is unusable.
func FromEnvfile() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("error reading config: %v", err)
	}
	return cfg
}

// Load reads an optional .env file in the working directory; environment
// variables take precedence over it.
func Load() (Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("dotenv")
	viper.SetDefault(EnvfileKeyCobaltFollowRedirects, true)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
		log.Debug("no .env file found, using environment only")
	}

	rawAPIURL := strings.TrimRight(strings.TrimSpace(getConfigString(EnvfileKeyCobaltAPI)), "/")
	if rawAPIURL == "" {
		return Config{}, ErrMissingAPIURL
	}
	cobaltURL, err := url.Parse(rawAPIURL)
	if err != nil {
		return Config{}, fmt.Errorf("error parsing %s: %w", EnvfileKeyCobaltAPI, err)
	}
	if cobaltURL.Scheme == "" || cobaltURL.Host == "" {
		return Config{}, fmt.Errorf("%s must be an absolute URL: %s", EnvfileKeyCobaltAPI, rawAPIURL)
	}

	maxFileMB := defaultMaxFileMB
	if raw := strings.TrimSpace(getConfigString(EnvfileKeyMaxFileMB)); raw != "" {
		maxFileMB, err = strconv.Atoi(raw)
		if err != nil || maxFileMB <= 0 {
			return Config{}, fmt.Errorf("%s must be a positive number of megabytes: %s", EnvfileKeyMaxFileMB, raw)
		}
	}

	healthcheckPort := getConfigInt(EnvfileKeyHealthcheckPort)
	if healthcheckPort == 0 {
		healthcheckPort = defaultHealthcheckPort
	}

	logLevel, err := log.ParseLevel(getConfigString(EnvfileKeyLogLevel))
	if err != nil {
		// Default to info level but log a warning
		log.Warnf("unable to parse log level: %v", err)
		logLevel = log.InfoLevel
	}

	logFormat, err := parseLogFormat(getConfigString(EnvfileKeyLogFormat))
	if err != nil {
		// Default to text formatter but log a warning
		log.Warnf("unable to parse log format: %v", err)
		logFormat = LogFormatText
	}

	return Config{
		Telegram: TelegramConfig{
			Token:      strings.TrimSpace(getConfigString(EnvfileKeyBotToken)),
			SecretPath: getConfigString(EnvfileKeyBotSecretsPath),
		},
		Cobalt: CobaltConfig{
			ApiURL:          *cobaltURL,
			ApiKey:          getConfigString(EnvfileKeyCobaltAPIKey),
			Timeout:         getConfigSeconds(EnvfileKeyCobaltTimeout, defaultCobaltTimeout),
			ProbeTimeout:    getConfigSeconds(EnvfileKeyProbeTimeout, defaultProbeTimeout),
			FollowRedirects: getConfigBool(EnvfileKeyCobaltFollowRedirects),
		},
		MaxFileBytes:    int64(maxFileMB) * 1024 * 1024,
		PostgresURL:     getConfigString(EnvfileKeyPostgresURL),
		HealthcheckPort: healthcheckPort,
		LogLevel:        logLevel,
		LogFormat:       logFormat,
		TestModeEnabled: getConfigBool(EnvfileKeyTestMode),
	}, nil
}

// ConfigureLogging applies the configured level and formatter to the global logger.
func (c Config) ConfigureLogging() {
	log.SetLevel(c.LogLevel)
	switch c.LogFormat {
	case LogFormatJSON:
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{})
	}
}

func parseLogFormat(raw string) (LogFormat, error) {
	switch strings.ToLower(raw) {
	case LogFormatJSON:
		return LogFormatJSON, nil
	case LogFormatText:
		return LogFormatText, nil
	default:
		return "", fmt.Errorf("unidentified log format: %s", raw)
	}
}

// Gets a config value as a string from env vars or a .env file
func getConfigString(key string) string {
	value := os.Getenv(key)
	if value == "" {
		value = viper.GetString(key)
	}
	return value
}

// Gets a config value as an int from env vars or a .env file
func getConfigInt(key string) int {
	envVarValue := os.Getenv(key)
	if envVarValue == "" {
		return viper.GetInt(key)
	}
	value, err := strconv.Atoi(envVarValue)
	if err != nil {
		return 0
	}
	return value
}

// Gets a config value as a bool from env vars or a .env file
func getConfigBool(key string) bool {
	envVarValue := os.Getenv(key)
	if envVarValue == "" {
		return viper.GetBool(key)
	}
	value, err := strconv.ParseBool(envVarValue)
	if err != nil {
		return false
	}
	return value
}

func getConfigSeconds(key string, fallback time.Duration) time.Duration {
	seconds := getConfigInt(key)
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
