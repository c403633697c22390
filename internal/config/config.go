package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

const (
	DefaultLLMModelURL = "https://huggingface.co/Qwen/Qwen2.5-0.5B-Instruct-GGUF/resolve/main/qwen2.5-0.5b-instruct-q4_k_m.gguf"
	DefaultLlamaCppURL = "https://github.com/ggml-org/llama.cpp/archive/refs/heads/master.tar.gz"
	DefaultVoskURL     = "https://github.com/alphacep/vosk-api/releases/download/v0.3.45/vosk-linux-x86_64-0.3.45.zip"
)

const defaultExternalHTTPTimeoutSeconds = 20

type Config struct {
	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	LLMBaseURL      string `yaml:"llm_base_url"`
	GeminiAPIKey    string `yaml:"gemini_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`

	ExternalHTTPTimeoutSeconds int `yaml:"external_http_timeout_seconds"`

	CatalogPath        string `yaml:"catalog_path"`
	KeywordsOutputPath string `yaml:"keywords_output_path"`
	TaxonomyPath       string `yaml:"taxonomy_path"`
	FlagTermsPath      string `yaml:"flag_terms_path"`
	StrictTaxonomy     bool   `yaml:"strict_taxonomy"`

	RequestFailureBackoffMS int `yaml:"request_failure_backoff_ms"`
	ParseFailureBackoffMS   int `yaml:"parse_failure_backoff_ms"`
	SuccessPacingMS         int `yaml:"success_pacing_ms"`

	HistoryDBPath   string `yaml:"history_db_path"`
	MetricsTextfile string `yaml:"metrics_textfile"`
	SlackBotToken   string `yaml:"slack_bot_token"`
	SlackChannelID  string `yaml:"slack_channel_id"`
	SlackAPIURL     string `yaml:"slack_api_url"`
	LogMode         string `yaml:"log_mode"`

	LLMModelURL string `yaml:"llm_model_url"`
	LlamaCppURL string `yaml:"llama_cpp_url"`
	VoskURL     string `yaml:"vosk_url"`
	AssetsRoot  string `yaml:"assets_root"`
}

// Load reads catalogtool.yaml (or CONFIG_PATH) when present, applies
// environment overrides and defaults, and validates the result. Credentials
// are not required here; subcommands that call the LLM check them with
// RequireLLMCredential.
func Load() (Config, error) {
	var cfg Config

	configPath := "catalogtool.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}

	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.LLMBaseURL, "LLM_BASE_URL")
	envOverride(&cfg.GeminiAPIKey, "GEMINI_API_KEY")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.CatalogPath, "CATALOG_PATH")
	envOverride(&cfg.KeywordsOutputPath, "KEYWORDS_OUTPUT_PATH")
	envOverride(&cfg.TaxonomyPath, "TAXONOMY_PATH")
	envOverride(&cfg.FlagTermsPath, "FLAG_TERMS_PATH")
	envOverrideBool(&cfg.StrictTaxonomy, "STRICT_TAXONOMY")
	envOverride(&cfg.HistoryDBPath, "HISTORY_DB_PATH")
	envOverride(&cfg.MetricsTextfile, "METRICS_TEXTFILE")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.SlackAPIURL, "SLACK_API_URL")
	envOverride(&cfg.LogMode, "LOG_MODE")
	envOverride(&cfg.LLMModelURL, "LLM_MODEL_URL")
	envOverride(&cfg.LlamaCppURL, "LLAMA_CPP_URL")
	envOverride(&cfg.VoskURL, "VOSK_URL")
	envOverride(&cfg.AssetsRoot, "ASSETS_ROOT")
	for _, o := range []struct {
		field *int
		key   string
	}{
		{&cfg.ExternalHTTPTimeoutSeconds, "EXTERNAL_HTTP_TIMEOUT_SECONDS"},
		{&cfg.RequestFailureBackoffMS, "REQUEST_FAILURE_BACKOFF_MS"},
		{&cfg.ParseFailureBackoffMS, "PARSE_FAILURE_BACKOFF_MS"},
		{&cfg.SuccessPacingMS, "SUCCESS_PACING_MS"},
	} {
		if err := envOverrideInt(o.field, o.key); err != nil {
			return Config{}, err
		}
	}

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = ProviderGemini
	}
	if cfg.ExternalHTTPTimeoutSeconds == 0 {
		cfg.ExternalHTTPTimeoutSeconds = defaultExternalHTTPTimeoutSeconds
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = "lib/data/seed/exercise_catalog_seed.json"
	}
	if cfg.KeywordsOutputPath == "" {
		cfg.KeywordsOutputPath = "lib/core/voice/transcript_keywords.json"
	}
	if cfg.RequestFailureBackoffMS == 0 {
		cfg.RequestFailureBackoffMS = 1000
	}
	if cfg.ParseFailureBackoffMS == 0 {
		cfg.ParseFailureBackoffMS = 500
	}
	if cfg.SuccessPacingMS == 0 {
		cfg.SuccessPacingMS = 250
	}
	if cfg.LogMode == "" {
		cfg.LogMode = "development"
	}
	if cfg.LLMModelURL == "" {
		cfg.LLMModelURL = DefaultLLMModelURL
	}
	if cfg.LlamaCppURL == "" {
		cfg.LlamaCppURL = DefaultLlamaCppURL
	}
	if cfg.VoskURL == "" {
		cfg.VoskURL = DefaultVoskURL
	}
	if cfg.AssetsRoot == "" {
		cfg.AssetsRoot = "."
	}

	switch cfg.LLMProvider {
	case ProviderGemini, ProviderAnthropic, ProviderOpenAI:
	default:
		return Config{}, fmt.Errorf("llm_provider must be 'gemini', 'anthropic' or 'openai', got '%s'", cfg.LLMProvider)
	}
	if cfg.ExternalHTTPTimeoutSeconds < 1 {
		return Config{}, fmt.Errorf("invalid external_http_timeout_seconds '%d': must be >= 1", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.RequestFailureBackoffMS < 0 || cfg.ParseFailureBackoffMS < 0 || cfg.SuccessPacingMS < 0 {
		return Config{}, fmt.Errorf("pacing delays must be >= 0")
	}
	if (cfg.SlackBotToken == "") != (cfg.SlackChannelID == "") {
		return Config{}, fmt.Errorf("slack_bot_token and slack_channel_id must be set together")
	}

	return cfg, nil
}

// LLMAPIKey returns the credential for the configured provider.
func (c Config) LLMAPIKey() string {
	switch c.LLMProvider {
	case ProviderAnthropic:
		return strings.TrimSpace(c.AnthropicAPIKey)
	case ProviderOpenAI:
		return strings.TrimSpace(c.OpenAIAPIKey)
	default:
		return strings.TrimSpace(c.GeminiAPIKey)
	}
}

// RequireLLMCredential fails when the configured provider has no API key.
func (c Config) RequireLLMCredential() error {
	if c.LLMAPIKey() != "" {
		return nil
	}
	return fmt.Errorf("missing %s_API_KEY in environment (or %s_api_key in config)",
		strings.ToUpper(c.LLMProvider), c.LLMProvider)
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.SlackChannelID != ""
}

func (c Config) RequestFailureBackoff() time.Duration {
	return time.Duration(c.RequestFailureBackoffMS) * time.Millisecond
}

func (c Config) ParseFailureBackoff() time.Duration {
	return time.Duration(c.ParseFailureBackoffMS) * time.Millisecond
}

func (c Config) SuccessPacing() time.Duration {
	return time.Duration(c.SuccessPacingMS) * time.Millisecond
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideBool(field *bool, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = strings.EqualFold(val, "true") || val == "1"
	}
}
