// Ininicializing common application configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	App    AppConfig    `mapstructure:"app"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
}

type ServerConfig struct {
	AppVersion     string        `mapstructure:"appVersion"`
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Idle_timeout   time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Env            string        `mapstructure:"environment"`
	Mode           string        `mapstructure:"mode"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AppConfig struct {
	// directory served under /assets, diff artifacts are written here
	StaticDir string `mapstructure:"static_dir"`
	// prefix of every result_url, used verbatim
	HostInfo string `mapstructure:"host_info"`
	DiffMode string `mapstructure:"diff_mode"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// Addr returns host:port for the http listener.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// LoadConfig builds a viper instance from defaults, ./config/config.yaml (optional),
// the environment and the command line, in increasing priority.
func LoadConfig(args []string) (*viper.Viper, error) {

	viperInstance := viper.New()
	setDefaults(viperInstance)

	flags := NewFlagSet()
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	for key, name := range flagBindings {
		if err := viperInstance.BindPFlag(key, flags.Lookup(name)); err != nil {
			return nil, err
		}
	}

	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()
	for key, env := range envBindings {
		if err := viperInstance.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	err := viperInstance.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return viperInstance, nil
}

// ErrTimeoutOrder is returned when a request may outlive the write deadline
// of its connection.
var ErrTimeoutOrder = errors.New("server.request_timeout must be set and shorter than server.timeout")

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, err
	}

	// a pipeline still running when the write deadline passes would store an
	// artifact whose url never reaches the client
	if c.Server.Timeout > 0 && (c.Server.RequestTimeout <= 0 || c.Server.RequestTimeout >= c.Server.Timeout) {
		return nil, fmt.Errorf("%w: request_timeout=%s timeout=%s", ErrTimeoutOrder, c.Server.RequestTimeout, c.Server.Timeout)
	}
	return &c, nil
}

// NewFlagSet declares the command line surface of the server.
func NewFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("png-diff-server", pflag.ContinueOnError)
	flags.StringP("log", "l", "info", "set the log level")
	flags.StringP("addr", "a", "0.0.0.0", "set the listen addr")
	flags.StringP("port", "p", "8080", "set the listen port")
	flags.String("static-dir", "./assets", "set the directory where static files are to be found")
	flags.String("host-info", "http://localhost:8080/", "base url prepended to generated artifact paths")
	flags.String("diff-mode", "lcs", "diff engine: lcs or pixel")
	return flags
}

var flagBindings = map[string]string{
	"log.level":      "log",
	"server.host":    "addr",
	"server.port":    "port",
	"app.static_dir": "static-dir",
	"app.host_info":  "host-info",
	"app.diff_mode":  "diff-mode",
}

var envBindings = map[string]string{
	"log.level":      "LOG_LEVEL",
	"app.static_dir": "STATIC_DIR",
	"app.host_info":  "HOST_INFO",
	"app.diff_mode":  "DIFF_MODE",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.appVersion", "1.0.0")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 25*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "release")

	v.SetDefault("log.level", "info")

	v.SetDefault("app.static_dir", "./assets")
	v.SetDefault("app.host_info", "http://localhost:8080/")
	v.SetDefault("app.diff_mode", "lcs")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "diff-created")
	v.SetDefault("kafka.group_id", "png-diff-events")
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
