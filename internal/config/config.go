package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	DefaultPort          = "8800"
	DefaultAccessLogPath = "access.log"
	DefaultEnv           = "development"
	DefaultLogLevel      = "info"
	DefaultServiceName   = "userapi"
)

// ErrMissingEnv is returned when a variable listed in the example env file is unset.
var ErrMissingEnv = errors.New("missing required environment variables")

type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port          string `koanf:"port" validate:"required,numeric"`
	AccessLogPath string `koanf:"access_log_path" validate:"required"`
	ReadTimeout   int    `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout  int    `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout   int    `koanf:"idle_timeout" validate:"gte=0"`
}

type DatabaseConfig struct {
	URL string `koanf:"url" validate:"required"`
}

type ObservabilityConfig struct {
	ServiceName string         `koanf:"service_name"`
	Environment string         `koanf:"environment"`
	LogLevel    string         `koanf:"log_level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	NewRelic    NewRelicConfig `koanf:"new_relic"`
}

type NewRelicConfig struct {
	LicenseKey string `koanf:"license_key"`
	AppName    string `koanf:"app_name"`
}

// Enabled reports whether a New Relic agent should be started.
func (c NewRelicConfig) Enabled() bool {
	return c.LicenseKey != ""
}

func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{
		LogLevel: DefaultLogLevel,
	}
}

// envKeys maps the process environment onto koanf keys. Anything not listed is ignored.
var envKeys = map[string]string{
	"MONGO_URL":             "database.url",
	"PORT":                  "server.port",
	"ACCESS_LOG_PATH":       "server.access_log_path",
	"SERVER_READ_TIMEOUT":   "server.read_timeout",
	"SERVER_WRITE_TIMEOUT":  "server.write_timeout",
	"SERVER_IDLE_TIMEOUT":   "server.idle_timeout",
	"APP_ENV":               "primary.env",
	"LOG_LEVEL":             "observability.log_level",
	"NEW_RELIC_LICENSE_KEY": "observability.new_relic.license_key",
	"NEW_RELIC_APP_NAME":    "observability.new_relic.app_name",
}

// Files names the dotenv files consulted before the environment is read.
// Empty fields skip the corresponding step.
type Files struct {
	Env     string
	Example string
}

// DefaultFiles mirrors the usual layout: .env next to the binary, .env.example as the contract.
func DefaultFiles() Files {
	return Files{Env: ".env", Example: ".env.example"}
}

// Load reads configuration from the environment using koanf, after merging the
// optional .env file and checking the example file's keys are all present.
func Load(files Files) (*Config, error) {
	if err := loadDotenv(files.Env); err != nil {
		return nil, err
	}
	if err := checkExample(files.Example); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	applyDefaults(mainConfig)

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return mainConfig, nil
}

func applyDefaults(c *Config) {
	if c.Primary.Env == "" {
		c.Primary.Env = DefaultEnv
	}
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Server.AccessLogPath == "" {
		c.Server.AccessLogPath = DefaultAccessLogPath
	}

	// Observability is a pointer so an entirely unset section can be told apart.
	if c.Observability == nil {
		c.Observability = DefaultObservabilityConfig()
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = DefaultLogLevel
	}
	c.Observability.ServiceName = DefaultServiceName
	c.Observability.Environment = c.Primary.Env
	if c.Observability.NewRelic.AppName == "" {
		c.Observability.NewRelic.AppName = DefaultServiceName
	}
}

// loadDotenv merges the file into the process environment. Variables that are
// already set win, and a missing file is not an error.
func loadDotenv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not load %s: %w", path, err)
	}
	return nil
}

// checkExample requires every key named in the example file to be set to a
// non-empty value.
func checkExample(path string) error {
	if path == "" {
		return nil
	}
	example, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}

	var missing []string
	for key := range example {
		if v, ok := os.LookupEnv(key); !ok || v == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return nil
}
