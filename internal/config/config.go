package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	Telegram struct {
		ApiKey        string `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
		AdminId       int64  `yaml:"admin_id" env:"TELEGRAM_ADMIN_ID" env-default:"0"`
		BotName       string `yaml:"bot_name" env-default:"HouseBookingBot"`
		Enabled       bool   `yaml:"enabled" env-default:"false"`
		Mode          string `yaml:"mode" env-default:"webhook"`
		WebhookURL    string `yaml:"webhook_url" env:"TELEGRAM_WEBHOOK_URL" env-default:""`
		WebhookSecret string `yaml:"webhook_secret" env:"TELEGRAM_WEBHOOK_SECRET" env-default:""`
	} `yaml:"telegram"`
	Session struct {
		Driver     string        `yaml:"driver" env-default:"redis"`
		TTL        time.Duration `yaml:"ttl" env-default:"10h"`
		Prefix     string        `yaml:"prefix" env-default:"housebot:session:"`
		MemorySize int           `yaml:"memory_size" env-default:"10000"`
	} `yaml:"session"`
	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
		Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
		DB       int    `yaml:"db" env-default:"0"`
	} `yaml:"redis"`
	Mongo struct {
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:""`
		Password string `yaml:"password" env-default:""`
		Database string `yaml:"database" env-default:"housebot"`
	} `yaml:"mongo"`
	SQL struct {
		DSN         string `yaml:"dsn" env:"DATABASE_URL" env-default:"housebot.db"`
		AutoMigrate bool   `yaml:"auto_migrate" env-default:"true"`
	} `yaml:"sql"`
	Listen struct {
		BindIP  string        `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port    string        `yaml:"port" env-default:"9100"`
		ApiKey  string        `yaml:"key" env:"API_KEY" env-default:""`
		Timeout time.Duration `yaml:"timeout" env-default:"10s"`
	} `yaml:"listen"`
	Booking struct {
		PageSize int    `yaml:"page_size" env-default:"8"`
		Location string `yaml:"location" env-default:"UTC"`
	} `yaml:"booking"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}

// TimeLocation resolves the booking time zone, falling back to UTC.
func (c *Config) TimeLocation() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Location)
	if err != nil {
		return time.UTC
	}
	return loc
}
