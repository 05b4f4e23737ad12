// Package config loads runtime settings for the GreenWay backend and the
// signal simulator. Values come from defaults, an optional YAML file and the
// environment, in that order, and are validated before use.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Code store backends.
const (
	CodeStoreMemory = "memory"
	CodeStoreRedis  = "redis"
)

// Config is the root configuration structure.
type Config struct {
	Port           string `yaml:"port" validate:"required,numeric"`
	Environment    string `yaml:"environment" validate:"omitempty,oneof=development production test"`
	PublicURL      string `yaml:"publicURL" validate:"required,url"`
	UseMemoryStore bool   `yaml:"useMemoryStore"`
	DeviceSecret   string `yaml:"deviceSecret"`

	Database  DatabaseConfig  `yaml:"database"`
	OTP       OTPConfig       `yaml:"otp"`
	Redis     RedisConfig     `yaml:"redis"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	Stream    StreamConfig    `yaml:"stream"`
	Hospitals HospitalsConfig `yaml:"hospitals"`
	Simulator SimulatorConfig `yaml:"simulator"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	User                   string `yaml:"user"`
	Password               string `yaml:"password"`
	Name                   string `yaml:"name"`
	Host                   string `yaml:"host"`
	Port                   string `yaml:"port" validate:"omitempty,numeric"`
	InstanceConnectionName string `yaml:"instanceConnectionName"`
}

// OTPConfig controls verification codes.
type OTPConfig struct {
	TTL   time.Duration `yaml:"ttl" validate:"gt=0"`
	Store string        `yaml:"store" validate:"oneof=memory redis"`
}

// RedisConfig is only used when OTP.Store is "redis".
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
}

// SMTPConfig configures the e-mail transport. An empty host disables it.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port" validate:"omitempty,numeric"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// TwilioConfig configures SMS / WhatsApp delivery. Empty credentials disable it.
type TwilioConfig struct {
	AccountSID string `yaml:"accountSID"`
	AuthToken  string `yaml:"authToken"`
	From       string `yaml:"from"`
}

// StreamConfig controls server-sent event streams. A client that went away
// is dropped after a few Heartbeat periods.
type StreamConfig struct {
	KeepAlive        time.Duration `yaml:"keepAlive" validate:"gt=0"`
	Heartbeat        time.Duration `yaml:"heartbeat" validate:"gt=0"`
	SubscriberBuffer int           `yaml:"subscriberBuffer" validate:"gt=0"`
}

// HospitalsConfig controls the hospital directory.
type HospitalsConfig struct {
	NearbyRadiusKM    float64 `yaml:"nearbyRadiusKM" validate:"gt=0"`
	SeedAdminPassword string  `yaml:"seedAdminPassword"`
}

// SimulatorConfig drives the external signal simulator binary.
type SimulatorConfig struct {
	ServerURL     string        `yaml:"serverURL" validate:"required,url"`
	Interval      time.Duration `yaml:"interval" validate:"gt=0"`
	GreenDuration time.Duration `yaml:"greenDuration" validate:"gte=0"`
}

// Defaults returns the development configuration.
func Defaults() *Config {
	return &Config{
		Port:        "5001",
		Environment: "development",
		PublicURL:   "http://localhost:5001",
		Database: DatabaseConfig{
			User: "postgres",
			Name: "greenway",
			Host: "localhost",
			Port: "5432",
		},
		OTP: OTPConfig{
			TTL:   5 * time.Minute,
			Store: CodeStoreMemory,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		SMTP:  SMTPConfig{Port: "465"},
		Stream: StreamConfig{
			KeepAlive:        15 * time.Second,
			Heartbeat:        time.Second,
			SubscriberBuffer: 16,
		},
		Hospitals: HospitalsConfig{NearbyRadiusKM: 10},
		Simulator: SimulatorConfig{
			ServerURL:     "http://localhost:5001",
			Interval:      30 * time.Second,
			GreenDuration: 20 * time.Second,
		},
	}
}

// Load builds the configuration: defaults, then CONFIG_FILE (YAML) if set,
// then environment variables.
func Load() (*Config, error) {
	// Local development keeps secrets in .env; production injects them directly.
	if err := godotenv.Load(".env"); err != nil {
		_ = godotenv.Load("environments/.env.development")
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.OTP.Store == CodeStoreRedis && c.Redis.Addr == "" {
		return fmt.Errorf("invalid config: redis code store requires REDIS_ADDR")
	}
	return nil
}

// IsDevelopment reports whether the service runs locally.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// SMTPEnabled reports whether an e-mail transport is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTP.Host != "" && c.SMTP.User != ""
}

// TwilioEnabled reports whether Twilio credentials are present.
func (c *Config) TwilioEnabled() bool {
	return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != "" && c.Twilio.From != ""
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.Environment, "ENVIRONMENT")
	setString(&c.PublicURL, "PUBLIC_URL")
	setString(&c.DeviceSecret, "DEVICE_SECRET")

	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASS")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.InstanceConnectionName, "INSTANCE_CONNECTION_NAME")

	setString(&c.OTP.Store, "CODE_STORE")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	setString(&c.SMTP.Host, "SMTP_HOST")
	setString(&c.SMTP.Port, "SMTP_PORT")
	setString(&c.SMTP.User, "EMAIL_USER")
	setString(&c.SMTP.Password, "EMAIL_PASS")

	setString(&c.Twilio.AccountSID, "TWILIO_ACCOUNT_SID")
	setString(&c.Twilio.AuthToken, "TWILIO_AUTH_TOKEN")
	setString(&c.Twilio.From, "TWILIO_FROM")

	setString(&c.Hospitals.SeedAdminPassword, "SEED_ADMIN_PASSWORD")
	setString(&c.Simulator.ServerURL, "SIMULATOR_SERVER_URL")

	if err := setBool(&c.UseMemoryStore, "USE_MEMORY_STORE"); err != nil {
		return err
	}
	if err := setInt(&c.Stream.SubscriberBuffer, "SUBSCRIBER_BUFFER"); err != nil {
		return err
	}
	if err := setFloat(&c.Hospitals.NearbyRadiusKM, "NEARBY_RADIUS_KM"); err != nil {
		return err
	}

	durations := []struct {
		dst *time.Duration
		key string
	}{
		{&c.OTP.TTL, "OTP_TTL"},
		{&c.Stream.KeepAlive, "STREAM_KEEPALIVE"},
		{&c.Stream.Heartbeat, "STREAM_HEARTBEAT"},
		{&c.Simulator.Interval, "SIMULATOR_INTERVAL"},
		{&c.Simulator.GreenDuration, "SIMULATOR_GREEN_DURATION"},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.key); err != nil {
			return err
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
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

func setFloat(dst *float64, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
