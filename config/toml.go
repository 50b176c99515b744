package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/creachadair/atomicfile"
	tmos "github.com/tendermint/tendermint/libs/os"
)

// defaultDirPerm is the default permissions used when creating directories.
const defaultDirPerm = 0700

var configTemplate *template.Template

func init() {
	var err error
	tmpl := template.New("configFileTemplate").Funcs(template.FuncMap{
		"StringsJoin": strings.Join,
	})
	if configTemplate, err = tmpl.Parse(defaultConfigTemplate); err != nil {
		panic(err)
	}
}

// EnsureRoot creates the root, config, and data directories if they don't
// exist.
func EnsureRoot(rootDir string) error {
	for _, dir := range []string{
		rootDir,
		filepath.Join(rootDir, defaultConfigDir),
		filepath.Join(rootDir, defaultDataDir),
	} {
		if err := tmos.EnsureDir(dir, defaultDirPerm); err != nil {
			return err
		}
	}
	return nil
}

// ConfigFile returns the path of the config file under rootDir.
func ConfigFile(rootDir string) string {
	return filepath.Join(rootDir, defaultConfigFilePath)
}

// WriteConfigFile renders config using the template and writes it into
// rootDir.
func WriteConfigFile(rootDir string, config *Config) error {
	return config.WriteToTemplate(ConfigFile(rootDir))
}

// WriteToTemplate writes the config to the exact file specified by the path,
// in the default toml template. The file is replaced atomically.
func (cfg *Config) WriteToTemplate(path string) error {
	var buffer bytes.Buffer
	if err := configTemplate.Execute(&buffer, cfg); err != nil {
		return err
	}
	_, err := atomicfile.WriteAll(path, &buffer, 0644)
	return err
}

// WriteDefaultConfigFileIfNone writes the default config into rootDir unless
// a config file is already there.
func WriteDefaultConfigFileIfNone(rootDir string) error {
	if _, err := os.Stat(ConfigFile(rootDir)); err == nil {
		return nil
	}
	return WriteConfigFile(rootDir, DefaultConfig())
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go
const defaultConfigTemplate = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

# NOTE: Any path below can be absolute (e.g. "/var/constellation/data") or
# relative to the home directory (e.g. "data"). The home directory is
# "$HOME/.constellation" by default, but could be changed via $CSTL_HOME env
# variable or --home cmd flag.

#######################################################################
###                   Main Base Config Options                      ###
#######################################################################

# TCP or UNIX socket address the ABCI server listens on
proxy-app = "{{ .BaseConfig.ProxyApp }}"

# Mechanism to connect to the ABCI application: socket | grpc
abci = "{{ .BaseConfig.ABCI }}"

# Database backend: goleveldb | memdb
db-backend = "{{ .BaseConfig.DBBackend }}"

# Database directory
db-dir = "{{ js .BaseConfig.DBPath }}"

# Output level for logging: debug | info | warn | error
log-level = "{{ .BaseConfig.LogLevel }}"

# Output format: 'plain' (colored text), 'text' or 'json'
log-format = "{{ .BaseConfig.LogFormat }}"

# Path to the JSON file holding the genesis application state
app-state-file = "{{ js .BaseConfig.AppState }}"

#######################################################################
###                  Option Engine Configuration                    ###
#######################################################################
[app]

# Number of random words requested from the oracle per settlement
oracle-words = {{ .App.OracleWords }}

#######################################################################
###                   Event Sink Configuration                      ###
#######################################################################
[event-sink]

# Event sinks committed events are mirrored into.
#
# Options:
#   1) "null" (default)
#   2) "psql" - PostgreSQL, connection string in psql-conn
#   3) "kafka" - Kafka, brokers in kafka-brokers
sinks = [{{ range $i, $s := .EventSink.Sinks }}{{ if $i }}, {{ end }}"{{ $s }}"{{ end }}]

# The PostgreSQL connection configuration, the connection format:
#   postgresql://<user>:<password>@<host>:<port>/<db>?<opts>
psql-conn = "{{ js .EventSink.PsqlConn }}"

# Kafka bootstrap brokers, host:port
kafka-brokers = [{{ range $i, $b := .EventSink.KafkaBrokers }}{{ if $i }}, {{ end }}"{{ $b }}"{{ end }}]

# Kafka topic events are written to
kafka-topic = "{{ .EventSink.KafkaTopic }}"

#######################################################################
###                 Instrumentation Configuration                   ###
#######################################################################
[instrumentation]

# When true, Prometheus metrics are served under /metrics on
# PrometheusListenAddr.
prometheus = {{ .Instrumentation.Prometheus }}

# Address to listen for Prometheus collector(s) connections
prometheus-listen-addr = "{{ .Instrumentation.PrometheusListenAddr }}"

# Instrumentation namespace
namespace = "{{ .Instrumentation.Namespace }}"
`
