package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults shared with the command-line layer.
const (
	DefaultConfigFile = "config.json"
	DefaultLogDir     = "logs"

	defaultBaseURL     = "https://api.groq.com/openai/v1"
	defaultModel       = "llama-3.1-8b-instant"
	defaultTemperature = 0.7
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	Groq   GroqConfig
	Log    LogConfig
}

// Load reads the credential file and applies environment overrides.
// A missing or empty GROQ_API_KEY is fatal: the server must not start
// without a usable provider credential.
func Load(configFile string) (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	groq, err := loadGroqConfig(configFile)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		Groq:   groq,
		Log:    LogConfig{Dir: getEnvOrDefault("CHAT_LOG_DIR", DefaultLogDir)},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8000" 或 "127.0.0.1:8000"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig 描述会话日志配置。
type LogConfig struct {
	Dir string
}

// GroqConfig describes the outbound completion provider.
type GroqConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	// Timeout overrides the HTTP client default when positive.
	Timeout time.Duration
}

func loadGroqConfig(configFile string) (GroqConfig, error) {
	raw, err := os.ReadFile(configFile)
	if err != nil {
		return GroqConfig{}, fmt.Errorf("read config file %s: %w", configFile, err)
	}

	var file struct {
		GroqAPIKey string `json:"GROQ_API_KEY"`
	}
	if err := json.Unmarshal(raw, &file); err != nil {
		return GroqConfig{}, fmt.Errorf("parse config file %s: %w", configFile, err)
	}

	apiKey := strings.TrimSpace(file.GroqAPIKey)
	if apiKey == "" {
		return GroqConfig{}, fmt.Errorf("missing GROQ_API_KEY in %s", configFile)
	}

	temperature := float32(defaultTemperature)
	if override, err := parseOptionalFloat32Env("GROQ_TEMPERATURE"); err != nil {
		return GroqConfig{}, err
	} else if override != nil {
		temperature = *override
	}

	var timeout time.Duration
	if seconds, err := parseOptionalIntEnv("GROQ_TIMEOUT"); err != nil {
		return GroqConfig{}, err
	} else if seconds != nil {
		timeout = time.Duration(*seconds) * time.Second
	}

	return GroqConfig{
		APIKey:      apiKey,
		BaseURL:     getEnvOrDefault("GROQ_BASE_URL", defaultBaseURL),
		Model:       getEnvOrDefault("GROQ_MODEL", defaultModel),
		Temperature: temperature,
		Timeout:     timeout,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloat32Env(key string) (*float32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := float32(val)
	return &result, nil
}
