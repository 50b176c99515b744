package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/constellation-lab/constellation-zkevm/libs/log"
)

// NOTE: Any change to the structs or their mapstructure tags must be
// reflected in defaultConfigTemplate in config/toml.go.
var (
	DefaultConstellationDir = ".constellation"
	defaultConfigDir        = "config"
	defaultDataDir          = "data"

	defaultConfigFileName   = "config.toml"
	defaultAppStateFileName = "app_state.json"

	defaultConfigFilePath   = filepath.Join(defaultConfigDir, defaultConfigFileName)
	defaultAppStateFilePath = filepath.Join(defaultConfigDir, defaultAppStateFileName)
)

// Config defines the top level configuration of a constellationd node.
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	App             *AppConfig             `mapstructure:"app"`
	EventSink       *EventSinkConfig       `mapstructure:"event-sink"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		App:             DefaultAppConfig(),
		EventSink:       DefaultEventSinkConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing.
func TestConfig() *Config {
	return &Config{
		BaseConfig:      TestBaseConfig(),
		App:             TestAppConfig(),
		EventSink:       TestEventSinkConfig(),
		Instrumentation: TestInstrumentationConfig(),
	}
}

// SetRoot sets the RootDir for all Config structs.
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.App.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [app] section: %w", err)
	}
	if err := cfg.EventSink.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [event-sink] section: %w", err)
	}
	if err := cfg.Instrumentation.ValidateBasic(); err != nil {
		return fmt.Errorf("error in [instrumentation] section: %w", err)
	}
	return nil
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration of a node.
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// TCP or UNIX socket address the ABCI server listens on for Tendermint
	ProxyApp string `mapstructure:"proxy-app"`

	// Mechanism to connect to the ABCI application: socket | grpc
	ABCI string `mapstructure:"abci"`

	// Database backend: goleveldb | memdb
	DBBackend string `mapstructure:"db-backend"`

	// Database directory
	DBPath string `mapstructure:"db-dir"`

	// Output level for logging
	LogLevel string `mapstructure:"log-level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log-format"`

	// Path to the JSON file holding the genesis application state
	AppState string `mapstructure:"app-state-file"`
}

// DefaultBaseConfig returns a default base configuration.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		ProxyApp:  "tcp://127.0.0.1:26658",
		ABCI:      "socket",
		DBBackend: "goleveldb",
		DBPath:    defaultDataDir,
		LogLevel:  log.LogLevelInfo,
		LogFormat: log.LogFormatPlain,
		AppState:  defaultAppStateFilePath,
	}
}

// TestBaseConfig returns a base configuration for testing.
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.ProxyApp = "tcp://127.0.0.1:0"
	cfg.DBBackend = "memdb"
	cfg.LogLevel = log.LogLevelDebug
	return cfg
}

// DBDir returns the full path to the database directory.
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// AppStateFile returns the full path to the genesis application state file.
func (cfg BaseConfig) AppStateFile() string {
	return rootify(cfg.AppState, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case log.LogFormatPlain, log.LogFormatText, log.LogFormatJSON:
	default:
		return errors.New("unknown log-format (must be 'plain', 'text' or 'json')")
	}
	switch cfg.LogLevel {
	case log.LogLevelDebug, log.LogLevelInfo, log.LogLevelWarn, log.LogLevelError:
	default:
		return fmt.Errorf("unknown log-level %q", cfg.LogLevel)
	}
	switch cfg.ABCI {
	case "socket", "grpc":
	default:
		return fmt.Errorf("unknown abci transport %q (must be 'socket' or 'grpc')", cfg.ABCI)
	}
	if cfg.ProxyApp == "" {
		return errors.New("proxy-app can't be empty")
	}
	return nil
}

//-----------------------------------------------------------------------------
// AppConfig

// AppConfig defines the behaviour of the option engine.
type AppConfig struct {
	// Number of random words requested from the oracle per settlement.
	OracleWords uint32 `mapstructure:"oracle-words"`
}

// DefaultAppConfig returns a default configuration for the option engine.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{OracleWords: 1}
}

// TestAppConfig returns a configuration for testing the option engine.
func TestAppConfig() *AppConfig {
	return DefaultAppConfig()
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *AppConfig) ValidateBasic() error {
	if cfg.OracleWords == 0 {
		return errors.New("oracle-words must be positive")
	}
	return nil
}

//-----------------------------------------------------------------------------
// EventSinkConfig

// EventSinkConfig defines where committed events are mirrored.
type EventSinkConfig struct {
	// Event sinks to mirror committed events into.
	//
	// Options:
	//   1) "null" (default)
	//   2) "psql" - PostgreSQL, connection string in psql-conn
	//   3) "kafka" - Kafka, brokers in kafka-brokers
	Sinks []string `mapstructure:"sinks"`

	// The PostgreSQL connection configuration, the connection format:
	//   postgresql://<user>:<password>@<host>:<port>/<db>?<opts>
	PsqlConn string `mapstructure:"psql-conn"`

	// Kafka bootstrap brokers, host:port.
	KafkaBrokers []string `mapstructure:"kafka-brokers"`

	// Kafka topic events are written to.
	KafkaTopic string `mapstructure:"kafka-topic"`
}

// DefaultEventSinkConfig returns a default configuration for the event sinks.
func DefaultEventSinkConfig() *EventSinkConfig {
	return &EventSinkConfig{
		Sinks:      []string{"null"},
		KafkaTopic: "constellation.events",
	}
}

// TestEventSinkConfig returns a configuration for testing the event sinks.
func TestEventSinkConfig() *EventSinkConfig {
	return DefaultEventSinkConfig()
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *EventSinkConfig) ValidateBasic() error {
	seen := make(map[string]struct{}, len(cfg.Sinks))
	for _, s := range cfg.Sinks {
		s = strings.ToLower(s)
		if _, ok := seen[s]; ok {
			return fmt.Errorf("duplicated sink %q", s)
		}
		seen[s] = struct{}{}

		switch s {
		case "null":
		case "psql":
			if cfg.PsqlConn == "" {
				return errors.New("the psql connection settings cannot be empty")
			}
			if _, err := url.Parse(cfg.PsqlConn); err != nil {
				return fmt.Errorf("invalid psql-conn: %w", err)
			}
		case "kafka":
			if len(cfg.KafkaBrokers) == 0 {
				return errors.New("kafka-brokers cannot be empty")
			}
			if cfg.KafkaTopic == "" {
				return errors.New("kafka-topic cannot be empty")
			}
		default:
			return fmt.Errorf("unsupported event sink type %q", s)
		}
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are served under /metrics on
	// PrometheusListenAddr.
	Prometheus bool `mapstructure:"prometheus"`

	// Address to listen for Prometheus collector(s) connections.
	PrometheusListenAddr string `mapstructure:"prometheus-listen-addr"`

	// Instrumentation namespace.
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:           false,
		PrometheusListenAddr: ":26670",
		Namespace:            "constellation",
	}
}

// TestInstrumentationConfig returns a default configuration for metrics
// reporting.
func TestInstrumentationConfig() *InstrumentationConfig {
	return DefaultInstrumentationConfig()
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.Prometheus && cfg.PrometheusListenAddr == "" {
		return errors.New("prometheus-listen-addr can't be empty when prometheus is enabled")
	}
	if cfg.Namespace == "" {
		return errors.New("namespace can't be empty")
	}
	return nil
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
