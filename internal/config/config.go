package config

import (
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	RabbitMQ    RabbitMQConfig    `yaml:"rabbitmq"`
	Redis       RedisConfig       `yaml:"redis"`
	Cache       CacheConfig       `yaml:"cache"`
	Transaction TransactionConfig `yaml:"transaction"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

type TransactionConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

func (c TransactionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func defaults() Config {
	return Config{
		Server:      ServerConfig{Port: 3000},
		Database:    DatabaseConfig{Port: 5432, SSLMode: "disable", MaxConns: 10},
		RabbitMQ:    RabbitMQConfig{Port: 5672, VHost: "/"},
		Redis:       RedisConfig{Port: 6379},
		Cache:       CacheConfig{TTLSeconds: 300},
		Transaction: TransactionConfig{TimeoutSeconds: 10},
	}
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := defaults()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Database.Host == "" || cfg.Database.User == "" || cfg.Database.Database == "" {
		return Config{}, fmt.Errorf("database config incomplete")
	}
	if cfg.RabbitMQ.Host == "" || cfg.RabbitMQ.User == "" {
		return Config{}, fmt.Errorf("rabbitmq config incomplete")
	}
	if cfg.Redis.Host == "" {
		return Config{}, fmt.Errorf("redis config incomplete")
	}
	return cfg, nil
}

// FindConfig picks the first config file present, so local runs work off
// the example file without copying it.
func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}
