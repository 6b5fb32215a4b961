// Package config собирает конфигурацию ретранслятора из значений по умолчанию,
// JSON файла, флагов командной строки и переменных окружения.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Значения по умолчанию
const (
	DefaultServerAddress     = ":3000"
	DefaultDownstreamURL     = "http://localhost:8000"
	DefaultDownstreamTimeout = 15 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultTLSCertFile       = "server.crt"
	DefaultTLSKeyFile        = "server.key"
)

// Config хранит конфигурацию приложения.
type Config struct {
	ServerAddress     string        `env:"SERVER_ADDRESS"`     // Адрес для запуска HTTP-сервера
	DownstreamURL     string        `env:"LOOKUP_API_URL"`     // Базовый адрес сервиса поиска номеров
	DownstreamTimeout time.Duration `env:"DOWNSTREAM_TIMEOUT"` // Таймаут исходящего запроса
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT"`   // Время на корректную остановку сервера
	EnableHTTPS       bool          `env:"ENABLE_HTTPS"`
	TLSCertFile       string        `env:"TLS_CERT_FILE"`
	TLSKeyFile        string        `env:"TLS_KEY_FILE"`
	ConfigFile        string        `env:"CONFIG"` // Путь к JSON файлу конфигурации
}

// JSONConfig описывает файл конфигурации. Указатели позволяют отличить
// отсутствующее поле от пустого значения.
type JSONConfig struct {
	ServerAddress     *string `json:"server_address,omitempty"`
	DownstreamURL     *string `json:"lookup_api_url,omitempty"`
	DownstreamTimeout *string `json:"downstream_timeout,omitempty"`
	ShutdownTimeout   *string `json:"shutdown_timeout,omitempty"`
	EnableHTTPS       *bool   `json:"enable_https,omitempty"`
	TLSCertFile       *string `json:"tls_cert_file,omitempty"`
	TLSKeyFile        *string `json:"tls_key_file,omitempty"`
}

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() *Config {
	return &Config{
		ServerAddress:     DefaultServerAddress,
		DownstreamURL:     DefaultDownstreamURL,
		DownstreamTimeout: DefaultDownstreamTimeout,
		ShutdownTimeout:   DefaultShutdownTimeout,
		TLSCertFile:       DefaultTLSCertFile,
		TLSKeyFile:        DefaultTLSKeyFile,
	}
}

// NewConfig инициализирует конфигурацию, читая флаги, JSON файл и переменные окружения.
// Приоритет: значения по умолчанию < JSON файл < флаги < переменные окружения.
func NewConfig() (*Config, error) {
	cfg := Default()
	flags := *cfg

	// 1. Определение флагов командной строки
	flag.StringVar(&flags.ServerAddress, "a", flags.ServerAddress, "Адрес запуска HTTP-сервера (env: SERVER_ADDRESS)")
	flag.StringVar(&flags.DownstreamURL, "d", flags.DownstreamURL, "Базовый адрес сервиса поиска номеров (env: LOOKUP_API_URL)")
	flag.DurationVar(&flags.DownstreamTimeout, "t", flags.DownstreamTimeout, "Таймаут запроса к сервису поиска номеров (env: DOWNSTREAM_TIMEOUT)")
	flag.BoolVar(&flags.EnableHTTPS, "s", flags.EnableHTTPS, "Включить HTTPS (env: ENABLE_HTTPS)")
	flag.StringVar(&flags.ConfigFile, "c", flags.ConfigFile, "Путь к JSON файлу конфигурации (env: CONFIG)")

	// 2. Парсинг флагов командной строки
	flag.Parse()

	configFile := flags.ConfigFile
	if v, ok := os.LookupEnv("CONFIG"); ok {
		configFile = v
	}

	// 3. JSON файл (низший приоритет после значений по умолчанию)
	jsonCfg, err := loadJSONConfig(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyJSONConfig(jsonCfg); err != nil {
		return nil, err
	}

	// 4. Явно заданные флаги
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			cfg.ServerAddress = flags.ServerAddress
		case "d":
			cfg.DownstreamURL = flags.DownstreamURL
		case "t":
			cfg.DownstreamTimeout = flags.DownstreamTimeout
		case "s":
			cfg.EnableHTTPS = flags.EnableHTTPS
		case "c":
			cfg.ConfigFile = flags.ConfigFile
		}
	})

	// 5. Парсинг переменных окружения (имеет наивысший приоритет)
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadJSONConfig читает файл конфигурации. Пустое имя и отсутствующий файл
// дают пустую конфигурацию.
func loadJSONConfig(filename string) (*JSONConfig, error) {
	cfg := &JSONConfig{}
	if filename == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file %s: %w", filename, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", filename, err)
	}

	return cfg, nil
}

// applyJSONConfig переносит заданные в файле значения в конфигурацию.
func (c *Config) applyJSONConfig(j *JSONConfig) error {
	if j == nil {
		return nil
	}
	if j.ServerAddress != nil {
		c.ServerAddress = *j.ServerAddress
	}
	if j.DownstreamURL != nil {
		c.DownstreamURL = *j.DownstreamURL
	}
	if j.DownstreamTimeout != nil {
		d, err := time.ParseDuration(*j.DownstreamTimeout)
		if err != nil {
			return fmt.Errorf("invalid downstream_timeout: %w", err)
		}
		c.DownstreamTimeout = d
	}
	if j.ShutdownTimeout != nil {
		d, err := time.ParseDuration(*j.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown_timeout: %w", err)
		}
		c.ShutdownTimeout = d
	}
	if j.EnableHTTPS != nil {
		c.EnableHTTPS = *j.EnableHTTPS
	}
	if j.TLSCertFile != nil {
		c.TLSCertFile = *j.TLSCertFile
	}
	if j.TLSKeyFile != nil {
		c.TLSKeyFile = *j.TLSKeyFile
	}
	return nil
}

// Validate проверяет адрес сервиса поиска номеров и таймауты.
// Завершающий "/" у адреса отбрасывается.
func (c *Config) Validate() error {
	c.DownstreamURL = strings.TrimRight(c.DownstreamURL, "/")

	u, err := url.Parse(c.DownstreamURL)
	if err != nil {
		return fmt.Errorf("invalid downstream URL %q: %w", c.DownstreamURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid downstream URL %q: expected http(s)://host[:port]", c.DownstreamURL)
	}
	if c.DownstreamTimeout <= 0 {
		return fmt.Errorf("downstream timeout must be positive, got %s", c.DownstreamTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

// IsHTTPSEnabled сообщает, нужно ли запускать сервер с TLS.
func (c *Config) IsHTTPSEnabled() bool {
	return c.EnableHTTPS
}
