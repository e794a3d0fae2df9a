package config

import (
	"errors"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	DefaultPort         = 3000
	DefaultMaxBodyBytes = 1_000_000
)

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Environment  string        `mapstructure:"environment"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// Address returns the host:port the public listener binds to.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// CSPConfig lists the sources for the Content-Security-Policy header sent
// with static files. All lists empty means no header.
type CSPConfig struct {
	DefaultSrc []string `mapstructure:"default_src"`
	ScriptSrc  []string `mapstructure:"script_src"`
	StyleSrc   []string `mapstructure:"style_src"`
	ImgSrc     []string `mapstructure:"img_src"`
	FontSrc    []string `mapstructure:"font_src"`
}

// Empty reports whether no directive is configured.
func (c CSPConfig) Empty() bool {
	return len(c.DefaultSrc)+len(c.ScriptSrc)+len(c.StyleSrc)+len(c.ImgSrc)+len(c.FontSrc) == 0
}

type StaticConfig struct {
	Root string    `mapstructure:"root"`
	CSP  CSPConfig `mapstructure:"csp"`
}

type StorageConfig struct {
	DataDir     string `mapstructure:"data_dir"`
	FileName    string `mapstructure:"file_name"`
	FallbackDir string `mapstructure:"fallback_dir"`
}

type ContactConfig struct {
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

type MetricsConfig struct {
	Address    string `mapstructure:"address"`
	BufferSize int    `mapstructure:"buffer_size"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Static  StaticConfig  `mapstructure:"static"`
	Storage StorageConfig `mapstructure:"storage"`
	Contact ContactConfig `mapstructure:"contact"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load builds the configuration. Precedence, highest first: changed flags,
// environment, config file, defaults. configFile may be empty, in which case
// config.yaml is looked up in ./config and the working directory. flags may
// be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", "PORT"); err != nil {
		return nil, err
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Debug("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("static.root", "./public")
	v.SetDefault("static.csp.default_src", []string{})
	v.SetDefault("static.csp.script_src", []string{})
	v.SetDefault("static.csp.style_src", []string{})
	v.SetDefault("static.csp.img_src", []string{})
	v.SetDefault("static.csp.font_src", []string{})
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.file_name", "contact-submissions.csv")
	v.SetDefault("storage.fallback_dir", "solar-energy-morocco")
	v.SetDefault("contact.max_body_bytes", DefaultMaxBodyBytes)
	v.SetDefault("metrics.address", "")
	v.SetDefault("metrics.buffer_size", 1000)
	v.SetDefault("logging.level", LogLevelInfo)
}

// flag name -> config key
var flagKeys = map[string]string{
	"port":      "server.port",
	"host":      "server.host",
	"root":      "static.root",
	"data-dir":  "storage.data_dir",
	"log-level": "logging.level",
	"metrics":   "metrics.address",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Static),
		validation.Field(&c.Storage),
		validation.Field(&c.Contact),
		validation.Field(&c.Metrics),
		validation.Field(&c.Logging),
	)
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Host, validation.Required, is.Host),
		validation.Field(&s.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&s.Environment,
			validation.Required,
			validation.In(EnvDev, EnvStaging, EnvProd),
		),
		validation.Field(&s.ReadTimeout, validation.Required),
		validation.Field(&s.WriteTimeout, validation.Required),
		validation.Field(&s.IdleTimeout, validation.Required),
	)
}

func (s StaticConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Root, validation.Required),
	)
}

func (s StorageConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.DataDir, validation.Required),
		validation.Field(&s.FileName, validation.Required, validation.By(validateBaseName)),
		validation.Field(&s.FallbackDir, validation.Required, validation.By(validateBaseName)),
	)
}

func (c ContactConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxBodyBytes, validation.Required, validation.Min(int64(1))),
	)
}

func (m MetricsConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Address, validation.By(validateHostPort)),
		validation.Field(&m.BufferSize, validation.Required, validation.Min(1)),
	)
}

func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level,
			validation.Required,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
		),
	)
}

// validateHostPort accepts an empty value; the caller adds Required when the
// address is mandatory.
func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	if addr == "" {
		return nil
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateBaseName(value interface{}) error {
	name, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	if name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return validation.NewError("validation_invalid_name", "must be a plain file name without separators")
	}
	return nil
}
