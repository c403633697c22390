package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"catalogtool/internal/config"
	"catalogtool/internal/logger"
)

// GenerateFunc turns a prompt into free-form model output.
type GenerateFunc func(ctx context.Context, prompt string) (string, error)

type LLMUsage struct {
	InputTokens  int64
	OutputTokens int64
}

func (u LLMUsage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

func (u *LLMUsage) Add(other LLMUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

const (
	defaultGeminiModel    = "gemini-2.5-pro"
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	defaultOpenAIModel    = "gpt-4o-mini"

	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"

	maxOutputTokens = 128
	maxErrorBody    = 512
)

// Client sends single-prompt, zero-temperature requests to the configured provider.
type Client struct {
	provider   string
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	anthropic  anthropic.Client
	usage      LLMUsage
	log        *logger.Logger
}

func New(cfg config.Config, httpClient *http.Client, log *logger.Logger) (*Client, error) {
	if err := cfg.RequireLLMCredential(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	c := &Client{
		provider:   cfg.LLMProvider,
		model:      strings.TrimSpace(cfg.LLMModel),
		apiKey:     cfg.LLMAPIKey(),
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.LLMBaseURL), "/"),
		httpClient: httpClient,
		log:        log,
	}
	switch c.provider {
	case config.ProviderAnthropic:
		if c.model == "" {
			c.model = defaultAnthropicModel
		}
		opts := []option.RequestOption{
			option.WithAPIKey(c.apiKey),
			option.WithHTTPClient(httpClient),
			// Failed items are retried by the next run, not by the SDK.
			option.WithMaxRetries(0),
		}
		if c.baseURL != "" {
			opts = append(opts, option.WithBaseURL(c.baseURL))
		}
		c.anthropic = anthropic.NewClient(opts...)
	case config.ProviderOpenAI:
		if c.model == "" {
			c.model = defaultOpenAIModel
		}
		if c.baseURL == "" {
			c.baseURL = defaultOpenAIBaseURL
		}
	case config.ProviderGemini:
		if c.model == "" {
			c.model = defaultGeminiModel
		}
		if c.baseURL == "" {
			c.baseURL = defaultGeminiBaseURL
		}
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", c.provider)
	}
	return c, nil
}

func (c *Client) Provider() string { return c.provider }
func (c *Client) Model() string    { return c.model }

// Usage is the token usage accumulated over every successful call.
func (c *Client) Usage() LLMUsage { return c.usage }

// Generate satisfies GenerateFunc.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var (
		text  string
		usage LLMUsage
		err   error
	)
	switch c.provider {
	case config.ProviderAnthropic:
		text, usage, err = c.callAnthropic(ctx, prompt)
	case config.ProviderOpenAI:
		text, usage, err = c.callOpenAI(ctx, prompt)
	default:
		text, usage, err = c.callGemini(ctx, prompt)
	}
	c.usage.Add(usage)
	return text, err
}

func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + fmt.Sprintf("... [truncated, total_length=%d]", len(s))
	}
	return s
}
