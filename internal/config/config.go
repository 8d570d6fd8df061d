package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format"`
	HTTP      HTTPConfig     `yaml:"http"`
	Schedule  ScheduleConfig `yaml:"schedule"`
	Fetch     FetchConfig    `yaml:"fetch"`
	Tables    TablesConfig   `yaml:"tables"`
	Ranker    RankerConfig   `yaml:"ranker"`
	Habr      RESTConfig     `yaml:"habr"`
	VC        RESTConfig     `yaml:"vc"`
	Telegram  TelegramConfig `yaml:"telegram"`
	RabbitMQ  RabbitMQConfig `yaml:"rabbitmq"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// Timeout applies to every outbound HTTP request.
	Timeout time.Duration `yaml:"timeout"`
}

type ScheduleConfig struct {
	Cron string `yaml:"cron"`
}

type FetchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type TablesConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	PageSize  int           `yaml:"page_size"`
	PageDelay time.Duration `yaml:"page_delay"`
	Posts     SheetConfig   `yaml:"posts"`
	Comments  SheetConfig   `yaml:"comments"`
}

type SheetConfig struct {
	DatasheetID string `yaml:"datasheet_id"`
	ViewID      string `yaml:"view_id"`
}

type RankerConfig struct {
	// URL of the sentiment classification endpoint. Empty selects the
	// built-in VADER ranker.
	URL string `yaml:"url"`
}

type RESTConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	User    string `yaml:"user"`
}

type TelegramConfig struct {
	Enabled     bool   `yaml:"enabled"`
	APIID       int    `yaml:"api_id"`
	APIHash     string `yaml:"api_hash"`
	Phone       string `yaml:"phone"`
	Password    string `yaml:"password"`
	SessionFile string `yaml:"session_file"`
	Channel     string `yaml:"channel"`
	MaxPages    int    `yaml:"max_pages"`
	PageSize    int    `yaml:"page_size"`
}

type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

// Enabled reports whether harvest reports should be published.
func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":3000"
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = 30 * time.Second
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "0 * * * *"
	}
	if c.Fetch.Concurrency == 0 {
		c.Fetch.Concurrency = 10
	}
	if c.Tables.BaseURL == "" {
		c.Tables.BaseURL = "https://tables.mws.ru/fusion/v1/datasheets/"
	}
	if c.Tables.PageSize == 0 {
		c.Tables.PageSize = 1000
	}
	if c.Tables.PageDelay == 0 {
		c.Tables.PageDelay = 200 * time.Millisecond
	}
	if c.Habr.BaseURL == "" {
		c.Habr.BaseURL = "https://habr.com/kek/v2/"
	}
	if c.VC.BaseURL == "" {
		c.VC.BaseURL = "https://api.vc.ru/v2.10/"
	}
	if c.Telegram.SessionFile == "" {
		c.Telegram.SessionFile = "telegram.session"
	}
	if c.Telegram.MaxPages == 0 {
		c.Telegram.MaxPages = 10
	}
	if c.Telegram.PageSize == 0 {
		c.Telegram.PageSize = 100
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "content_harvester"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "harvest_reports"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "harvest_reports"
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	require := func(ok bool, field string) {
		if !ok {
			errs = append(errs, fmt.Errorf("%s is required", field))
		}
	}

	require(c.Tables.APIKey != "", "tables.api_key")
	require(c.Tables.Posts.DatasheetID != "", "tables.posts.datasheet_id")
	require(c.Tables.Posts.ViewID != "", "tables.posts.view_id")
	require(c.Tables.Comments.DatasheetID != "", "tables.comments.datasheet_id")
	require(c.Tables.Comments.ViewID != "", "tables.comments.view_id")

	if c.Habr.Enabled {
		require(c.Habr.User != "", "habr.user")
	}
	if c.VC.Enabled {
		require(c.VC.User != "", "vc.user")
	}
	if c.Telegram.Enabled {
		require(c.Telegram.APIID != 0, "telegram.api_id")
		require(c.Telegram.APIHash != "", "telegram.api_hash")
		require(c.Telegram.Channel != "", "telegram.channel")
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("log_format must be json or text, got %q", c.LogFormat))
	}
	if c.Fetch.Concurrency < 0 {
		errs = append(errs, errors.New("fetch.concurrency must not be negative"))
	}

	return errors.Join(errs...)
}
