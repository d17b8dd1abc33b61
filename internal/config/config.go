package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the service reads at startup. It is loaded
// once and treated as immutable for the process lifetime.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Webhook   WebhookConfig
	Journal   JournalConfig
	Interview InterviewConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	webhook, err := loadWebhookConfig()
	if err != nil {
		return nil, err
	}

	interview, err := loadInterviewConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		AI:        ai,
		Webhook:   webhook,
		Journal:   loadJournalConfig(),
		Interview: interview,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the chat completion provider. The endpoint is
// OpenAI-compatible, which covers both providers the product has used.
type AIConfig struct {
	APIKey         string
	Model          string
	BaseURL        string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	Timeout        time.Duration
	StreamResponse bool
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

// NewChatModel builds a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("missing chat model credentials: set OPENAI_API_KEY and OPENAI_MODEL")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &openai.ChatModelConfig{
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
		Timeout:     c.Timeout,
	}

	return openai.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("OPENAI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("OPENAI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("OPENAI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("OPENAI_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	timeoutSeconds := 60
	if override, err := parseOptionalIntEnv("OPENAI_TIMEOUT_SECONDS"); err != nil {
		return AIConfig{}, err
	} else if override != nil && *override > 0 {
		timeoutSeconds = *override
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Model:          getEnvOrDefault("OPENAI_MODEL", "gpt-5-mini"),
		BaseURL:        strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		Timeout:        time.Duration(timeoutSeconds) * time.Second,
		StreamResponse: stream,
	}, nil
}

// WebhookConfig holds the workflow-automation endpoints. Either may be left
// unset; the affected operation reports a configuration error at call time.
type WebhookConfig struct {
	FetchQuestionsURL string
	SaveAnswerURL     string
	SaveSessionURL    string
	Timeout           time.Duration
}

func loadWebhookConfig() (WebhookConfig, error) {
	timeoutSeconds := 10
	if override, err := parseOptionalIntEnv("WEBHOOK_TIMEOUT_SECONDS"); err != nil {
		return WebhookConfig{}, err
	} else if override != nil && *override > 0 {
		timeoutSeconds = *override
	}

	return WebhookConfig{
		FetchQuestionsURL: strings.TrimSpace(os.Getenv("WEBHOOK_FETCH_QUESTIONS_URL")),
		SaveAnswerURL:     strings.TrimSpace(os.Getenv("WEBHOOK_SAVE_ANSWER_URL")),
		SaveSessionURL:    strings.TrimSpace(os.Getenv("WEBHOOK_SAVE_SESSION_URL")),
		Timeout:           time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// JournalConfig controls the local answer journal.
type JournalConfig struct {
	Path    string
	Enabled bool
}

func loadJournalConfig() JournalConfig {
	path := strings.TrimSpace(os.Getenv("JOURNAL_PATH"))
	return JournalConfig{
		Path:    path,
		Enabled: path != "",
	}
}

// InterviewConfig carries interview-flow settings sourced from env.
type InterviewConfig struct {
	DefaultUserID string
	ConfigFile    string
}

func loadInterviewConfig() (InterviewConfig, error) {
	return InterviewConfig{
		DefaultUserID: getEnvOrDefault("DEFAULT_USER_ID", "TEST_USER_A"),
		ConfigFile:    strings.TrimSpace(os.Getenv("INTERVIEW_CONFIG_FILE")),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
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
