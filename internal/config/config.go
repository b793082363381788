package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	API      API      `mapstructure:"api"`
	Metrics  Metrics  `mapstructure:"metrics"`
	Database Database `mapstructure:"database"`
	RabbitMQ RabbitMQ `mapstructure:"rabbitmq"`
	Gateway  Gateway  `mapstructure:"gateway"`
	Topup    Topup    `mapstructure:"topup"`
}

type API struct {
	Port string `mapstructure:"port"`
}

type Metrics struct {
	Port string `mapstructure:"port"`
}

type Database struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type RabbitMQ struct {
	Enable bool   `mapstructure:"enable"`
	URL    string `mapstructure:"url"`
	Queue  string `mapstructure:"queue"`
}

// Gateway holds transport settings for the Tripay client. Credentials and
// mode are runtime settings stored in the database, not here.
type Gateway struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	ReturnURL string        `mapstructure:"return_url"`
}

type Topup struct {
	// MinAmount is the fallback when the min_topup_amount setting is unset.
	MinAmount int64 `mapstructure:"min_amount"`
}

func Load() (cfg *Config, err error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath("./config")

	viper.SetDefault("api.port", ":8080")
	viper.SetDefault("metrics.port", ":9100")
	viper.SetDefault("gateway.timeout", "10s")
	viper.SetDefault("topup.min_amount", 10000)
	viper.SetDefault("rabbitmq.queue", "payment.notify")

	err = viper.ReadInConfig()
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
