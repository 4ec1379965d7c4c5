package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Postgres struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns" validate:"gte=0"`
}

type Config struct {
	Mode       string        `mapstructure:"mode" validate:"oneof=debug release test"`
	Port       int           `mapstructure:"port" validate:"min=1,max=65535"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit" validate:"gt=0"`
	PingPeriod time.Duration `mapstructure:"ping_period" validate:"gt=0"`
	Secret     string        `mapstructure:"secret" validate:"required,min=16"`
	LogLevel   string        `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`

	SendBuffer      int           `mapstructure:"send_buffer" validate:"gt=0"`
	LookupTimeout   time.Duration `mapstructure:"lookup_timeout" validate:"gt=0"`
	ConnectLimit    int           `mapstructure:"connect_limit" validate:"gte=0"`
	ConnectInterval time.Duration `mapstructure:"connect_interval" validate:"gte=0"`

	// UsersFile seeds the in-memory user directory; ignored when
	// Postgres.DSN is set.
	UsersFile string   `mapstructure:"users_file"`
	Postgres  Postgres `mapstructure:"postgres"`
}

func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile reads fileName over the defaults. A missing file is not an
// error. NTC_* environment variables override both.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("ntc")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("lookup_timeout", "5s")
	v.SetDefault("connect_limit", 10)
	v.SetDefault("connect_interval", "10s")
	v.SetDefault("users_file", "config/users.yaml")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 4)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Bool("postgres", cfg.Postgres.DSN != "").Msg("config ready")
	return &cfg, nil
}
