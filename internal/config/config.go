package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel string `yaml:"log_level"`
	HTTPPort string `yaml:"http_port"`

	Lengow LengowConfig `yaml:"lengow"`
	MWS    MWSConfig    `yaml:"mws"`
	Ledger LedgerConfig `yaml:"ledger"`
	Kafka  KafkaConfig  `yaml:"kafka"`

	DisallowedMarketplaces []string `yaml:"disallowed_marketplaces"`
	OrderComment           string   `yaml:"order_comment"`

	CancelPollAttempts int           `yaml:"cancel_poll_attempts"`
	CancelPollDelay    time.Duration `yaml:"cancel_poll_delay"`

	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

type LengowConfig struct {
	BaseURL     string  `yaml:"base_url"`
	AccountID   int     `yaml:"account_id"`
	GroupID     int     `yaml:"group_id"`
	FluxID      string  `yaml:"flux_id"`
	OrderStatus string  `yaml:"order_status"`
	RatePerSec  float64 `yaml:"rate_per_sec"`
}

type MWSConfig struct {
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	MerchantID string `yaml:"merchant_id"`
	Region     string `yaml:"region"`
	Endpoint   string `yaml:"endpoint"`
}

// LedgerConfig selects where processed order ids are kept. Backend is one
// of "file", "sqlite", "postgres", "redis", "s3".
type LedgerConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	DBString   string `yaml:"db_string"`
	RedisAddr  string `yaml:"redis_addr"`
	Key        string `yaml:"key"`
	AWSRegion  string `yaml:"aws_region"`
	Bucket     string `yaml:"bucket"`
	S3Endpoint string `yaml:"s3_endpoint"`
}

type KafkaConfig struct {
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
}

const defaultComment = "Merci pour votre commande. Pour les retours, veuillez prendre contact avec nous " +
	"et retourner le produit dans son emballage d'origine"

func defaults() *Config {
	return &Config{
		LogLevel: "info",
		HTTPPort: "8080",
		Lengow: LengowConfig{
			BaseURL:     "http://api.lengow.com/V2",
			FluxID:      "orders",
			OrderStatus: "all",
			RatePerSec:  2,
		},
		MWS: MWSConfig{Region: "FR"},
		Ledger: LedgerConfig{
			Backend: "file",
			Path:    "data/fulfilled_orders.json",
			Key:     "fulfilled_orders",
		},
		Kafka:                  KafkaConfig{Topic: "fulfillment.submitted"},
		DisallowedMarketplaces: []string{"amazon"},
		OrderComment:           defaultComment,
		CancelPollAttempts:     10,
		CancelPollDelay:        5 * time.Second,
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file named
// by CONFIG_FILE (if any), then environment variables.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var errs []error

	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.HTTPPort, "HTTP_PORT")

	setString(&cfg.Lengow.BaseURL, "LENGOW_BASE_URL")
	errs = append(errs, setInt(&cfg.Lengow.AccountID, "LENGOW_ACCOUNT_ID"))
	errs = append(errs, setInt(&cfg.Lengow.GroupID, "LENGOW_GROUP_ID"))
	setString(&cfg.Lengow.FluxID, "LENGOW_FLUX_ID")
	setString(&cfg.Lengow.OrderStatus, "LENGOW_ORDER_STATUS")
	if v := os.Getenv("FEED_RATE_PER_SEC"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("FEED_RATE_PER_SEC: %w", err))
		} else {
			cfg.Lengow.RatePerSec = f
		}
	}

	setString(&cfg.MWS.AccessKey, "MWS_ACCESS_KEY")
	setString(&cfg.MWS.SecretKey, "MWS_SECRET_KEY")
	setString(&cfg.MWS.MerchantID, "MWS_MERCHANT_ID")
	setString(&cfg.MWS.Region, "MWS_REGION")
	setString(&cfg.MWS.Endpoint, "MWS_ENDPOINT")

	setString(&cfg.Ledger.Backend, "LEDGER_BACKEND")
	setString(&cfg.Ledger.Path, "LEDGER_PATH")
	setString(&cfg.Ledger.DBString, "DB_STRING")
	setString(&cfg.Ledger.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Ledger.Key, "LEDGER_KEY")
	setString(&cfg.Ledger.AWSRegion, "AWS_REGION")
	setString(&cfg.Ledger.Bucket, "AWS_BUCKET")
	setString(&cfg.Ledger.S3Endpoint, "AWS_S3_ENDPOINT")

	setString(&cfg.Kafka.Brokers, "KAFKA_BROKERS")
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")

	if v, ok := os.LookupEnv("DISALLOWED_MARKETPLACES"); ok {
		cfg.DisallowedMarketplaces = splitList(v)
	}
	setString(&cfg.OrderComment, "ORDER_COMMENT")

	errs = append(errs, setInt(&cfg.CancelPollAttempts, "CANCEL_POLL_ATTEMPTS"))
	if v := os.Getenv("CANCEL_POLL_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("CANCEL_POLL_DELAY: %w", err))
		} else {
			cfg.CancelPollDelay = d
		}
	}

	setString(&cfg.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")

	return errors.Join(errs...)
}

// Validate reports every missing value the fulfillment run needs.
func (c *Config) Validate() error {
	var errs []error
	if c.Lengow.AccountID <= 0 {
		errs = append(errs, errors.New("LENGOW_ACCOUNT_ID is required"))
	}
	if c.Lengow.GroupID <= 0 {
		errs = append(errs, errors.New("LENGOW_GROUP_ID is required"))
	}
	if c.MWS.AccessKey == "" {
		errs = append(errs, errors.New("MWS_ACCESS_KEY is required"))
	}
	if c.MWS.SecretKey == "" {
		errs = append(errs, errors.New("MWS_SECRET_KEY is required"))
	}
	if c.MWS.MerchantID == "" {
		errs = append(errs, errors.New("MWS_MERCHANT_ID is required"))
	}
	if c.CancelPollAttempts <= 0 {
		errs = append(errs, errors.New("CANCEL_POLL_ATTEMPTS must be positive"))
	}
	switch c.Ledger.Backend {
	case "file", "sqlite":
		if c.Ledger.Path == "" {
			errs = append(errs, errors.New("LEDGER_PATH is required"))
		}
	case "postgres":
		if c.Ledger.DBString == "" {
			errs = append(errs, errors.New("DB_STRING is required for the postgres ledger"))
		}
	case "redis":
		if c.Ledger.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis ledger"))
		}
	case "s3":
		if c.Ledger.Bucket == "" {
			errs = append(errs, errors.New("AWS_BUCKET is required for the s3 ledger"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LEDGER_BACKEND %q", c.Ledger.Backend))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToLower(s))
		}
	}
	return out
}
