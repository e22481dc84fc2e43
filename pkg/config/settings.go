package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abdhe/inspirai/pkg/provider"
)

// EnvPrefix is prepended to every settings key when read from the environment,
// e.g. http.addr -> INSPIRAI_HTTP_ADDR.
const EnvPrefix = "INSPIRAI"

// Settings configures the service shell. The provider credential is not part
// of it; see Resolver.
type Settings struct {
	HTTP    HTTPSettings    `mapstructure:"http"`
	GRPC    GRPCSettings    `mapstructure:"grpc"`
	Gemini  GeminiSettings  `mapstructure:"gemini"`
	Server  ServerSettings  `mapstructure:"server"`
	Busy    BusySettings    `mapstructure:"busy"`
	Redis   RedisSettings   `mapstructure:"redis"`
	Log     LogSettings     `mapstructure:"log"`
	Tracing TracingSettings `mapstructure:"tracing"`
	CORS    CORSSettings    `mapstructure:"cors"`
}

type HTTPSettings struct {
	Addr string `mapstructure:"addr"`
}

type GRPCSettings struct {
	Addr string `mapstructure:"addr"`
}

type GeminiSettings struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// ServerSettings holds caller-side limits. A zero RequestTimeout means the
// generation call runs until the provider answers.
type ServerSettings struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type BusySettings struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RedisSettings configures the busy guard backend. An empty Addr selects the
// in-process guard.
type RedisSettings struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingSettings configures OTLP export. An empty Endpoint disables it.
type TracingSettings struct {
	Endpoint   string  `mapstructure:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

type CORSSettings struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads settings in order: defaults, optional YAML file, environment.
// envFile, when non-empty and present, is loaded into the process environment
// first without overriding variables that are already set.
func Load(envFile, configFile string) (*Settings, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("grpc.addr", ":50051")
	v.SetDefault("gemini.base_url", provider.DefaultBaseURL)
	v.SetDefault("gemini.model", provider.DefaultModel)
	v.SetDefault("server.request_timeout", time.Duration(0))
	v.SetDefault("busy.ttl", 2*time.Minute)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("cors.allowed_origins", []string{"*"})
}
