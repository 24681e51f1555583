package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Port     string `yaml:"port"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	JWT struct {
		Secret     string `yaml:"secret"`
		Expiration string `yaml:"expiration"`
	} `yaml:"jwt"`
	Notification struct {
		Email struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
			From     string `yaml:"from"`
		} `yaml:"email"`
		Telegram struct {
			Enabled  bool   `yaml:"enabled"`
			BotToken string `yaml:"bot_token"`
		} `yaml:"telegram"`
		Workers          int `yaml:"workers"`           // 投递工作协程数
		MaxRetries       int `yaml:"max_retries"`       // 投递重试次数
		RetryBackoffSec  int `yaml:"retry_backoff_sec"` // 重试间隔（秒）
		DeliveryTimeoutSec int `yaml:"delivery_timeout_sec"` // 单次投递超时（秒）
	} `yaml:"notification"`
	Monitoring struct {
		// 为真时升级通知覆盖所有不高于当前级别的层级，
		// 为假时只通知新到达的层级
		NotifyLowerTiers     bool `yaml:"notify_lower_tiers"`
		LivenessSweepMinutes int  `yaml:"liveness_sweep_minutes"` // 离线巡检周期（分钟）
	} `yaml:"monitoring"`
}

func LoadConfig(filePath string) (*Config, error) {
	config := &Config{}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, err
	}

	config.applyDefaults()
	return config, nil
}

func InitConfig() *Config {
	config, err := LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	return config
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data.db"
	}
	if c.Notification.Workers <= 0 {
		c.Notification.Workers = 4
	}
	if c.Notification.MaxRetries <= 0 {
		c.Notification.MaxRetries = 3
	}
	if c.Notification.RetryBackoffSec <= 0 {
		c.Notification.RetryBackoffSec = 30
	}
	if c.Notification.DeliveryTimeoutSec <= 0 {
		c.Notification.DeliveryTimeoutSec = 10
	}
	if c.Monitoring.LivenessSweepMinutes <= 0 {
		c.Monitoring.LivenessSweepMinutes = 5
	}
}
