package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL", "GEMINI_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY",
		"CATALOG_PATH", "KEYWORDS_OUTPUT_PATH", "TAXONOMY_PATH", "FLAG_TERMS_PATH", "STRICT_TAXONOMY",
		"HISTORY_DB_PATH", "METRICS_TEXTFILE", "SLACK_BOT_TOKEN", "SLACK_CHANNEL_ID", "SLACK_API_URL", "LOG_MODE",
		"LLM_MODEL_URL", "LLAMA_CPP_URL", "VOSK_URL", "ASSETS_ROOT", "EXTERNAL_HTTP_TIMEOUT_SECONDS",
		"REQUEST_FAILURE_BACKOFF_MS", "PARSE_FAILURE_BACKOFF_MS", "SUCCESS_PACING_MS",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing-config.yaml"))
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLMProvider != ProviderGemini {
		t.Fatalf("unexpected provider default: %q", cfg.LLMProvider)
	}
	if cfg.CatalogPath != "lib/data/seed/exercise_catalog_seed.json" {
		t.Fatalf("unexpected catalog path default: %q", cfg.CatalogPath)
	}
	if cfg.KeywordsOutputPath != "lib/core/voice/transcript_keywords.json" {
		t.Fatalf("unexpected keywords output default: %q", cfg.KeywordsOutputPath)
	}
	if cfg.ExternalHTTPTimeoutSeconds != 20 {
		t.Fatalf("unexpected timeout default: %d", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.RequestFailureBackoff() != time.Second || cfg.ParseFailureBackoff() != 500*time.Millisecond || cfg.SuccessPacing() != 250*time.Millisecond {
		t.Fatalf("unexpected pacing defaults: %s %s %s", cfg.RequestFailureBackoff(), cfg.ParseFailureBackoff(), cfg.SuccessPacing())
	}
	if cfg.LLMModelURL != DefaultLLMModelURL || cfg.LlamaCppURL != DefaultLlamaCppURL || cfg.VoskURL != DefaultVoskURL {
		t.Fatalf("unexpected asset URL defaults: %+v", cfg)
	}
	if cfg.SlackConfigured() {
		t.Fatal("slack must not be configured by default")
	}
}

func TestLoadConfigYAMLAndEnvOverride(t *testing.T) {
	clearConfigEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "catalogtool.yaml")
	content := `
llm_provider: "anthropic"
anthropic_api_key: "yaml-anthropic"
catalog_path: "/tmp/yaml-catalog.json"
strict_taxonomy: true
success_pacing_ms: 10
external_http_timeout_seconds: 30
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_PATH", cfgPath)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("EXTERNAL_HTTP_TIMEOUT_SECONDS", "45")
	t.Setenv("LLAMA_CPP_URL", "https://example.test/llama.tar.gz")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLMProvider != ProviderOpenAI {
		t.Fatalf("expected provider from env override, got %q", cfg.LLMProvider)
	}
	if cfg.LLMAPIKey() != "sk-env" {
		t.Fatalf("expected openai key from env override, got %q", cfg.LLMAPIKey())
	}
	if cfg.AnthropicAPIKey != "yaml-anthropic" {
		t.Fatalf("expected anthropic key from yaml, got %q", cfg.AnthropicAPIKey)
	}
	if cfg.CatalogPath != "/tmp/yaml-catalog.json" {
		t.Fatalf("expected catalog path from yaml, got %q", cfg.CatalogPath)
	}
	if !cfg.StrictTaxonomy {
		t.Fatal("expected strict_taxonomy from yaml")
	}
	if cfg.SuccessPacing() != 10*time.Millisecond {
		t.Fatalf("expected success pacing from yaml, got %s", cfg.SuccessPacing())
	}
	if cfg.ExternalHTTPTimeoutSeconds != 45 {
		t.Fatalf("expected timeout from env override, got %d", cfg.ExternalHTTPTimeoutSeconds)
	}
	if cfg.LlamaCppURL != "https://example.test/llama.tar.gz" {
		t.Fatalf("expected llama.cpp URL from env, got %q", cfg.LlamaCppURL)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "provider", env: map[string]string{"LLM_PROVIDER": "bard"}, want: "llm_provider"},
		{name: "timeout", env: map[string]string{"EXTERNAL_HTTP_TIMEOUT_SECONDS": "-3"}, want: "external_http_timeout_seconds"},
		{name: "non numeric", env: map[string]string{"SUCCESS_PACING_MS": "fast"}, want: "SUCCESS_PACING_MS"},
		{name: "partial slack", env: map[string]string{"SLACK_BOT_TOKEN": "xoxb-1"}, want: "slack"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatalf("expected Load to fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	clearConfigEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "catalogtool.yaml")
	if err := os.WriteFile(cfgPath, []byte("llm_provider: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", cfgPath)
	if _, err := Load(); err == nil {
		t.Fatal("expected malformed yaml to fail")
	}
}

func TestRequireLLMCredential(t *testing.T) {
	cfg := Config{LLMProvider: ProviderGemini}
	err := cfg.RequireLLMCredential()
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("expected missing GEMINI_API_KEY error, got %v", err)
	}
	cfg.GeminiAPIKey = "  key  "
	if err := cfg.RequireLLMCredential(); err != nil {
		t.Fatalf("unexpected error with key set: %v", err)
	}
	if cfg.LLMAPIKey() != "key" {
		t.Fatalf("expected trimmed key, got %q", cfg.LLMAPIKey())
	}
}

func TestEnvOverrideHelpers(t *testing.T) {
	s := "initial"
	t.Setenv("CT_TEST_STR", "value")
	envOverride(&s, "CT_TEST_STR")
	if s != "value" {
		t.Fatalf("envOverride failed, got %q", s)
	}

	i := 1
	t.Setenv("CT_TEST_INT", "42")
	if err := envOverrideInt(&i, "CT_TEST_INT"); err != nil || i != 42 {
		t.Fatalf("envOverrideInt failed, got %d err=%v", i, err)
	}

	b := false
	t.Setenv("CT_TEST_BOOL", "1")
	envOverrideBool(&b, "CT_TEST_BOOL")
	if !b {
		t.Fatalf("envOverrideBool failed, got %v", b)
	}
}
