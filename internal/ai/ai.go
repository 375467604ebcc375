package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Generator turns a prompt into free text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	Provider string // gemini, claude or openai
	Model    string
	APIKey   string
	// BaseURL overrides the provider endpoint.
	BaseURL string
	Timeout time.Duration
}

// New creates a Generator for the configured provider.
func New(opts Options) (Generator, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("AI not configured")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	switch opts.Provider {
	case "", "gemini":
		model := opts.Model
		if model == "" {
			model = "gemini-2.0-flash"
		}
		c := newClient(opts, "https://generativelanguage.googleapis.com").
			SetHeader("x-goog-api-key", opts.APIKey)
		return &geminiProvider{model: model, client: c}, nil
	case "claude":
		model := opts.Model
		if model == "" {
			model = "claude-haiku-4-5-20251001"
		}
		c := newClient(opts, "https://api.anthropic.com").
			SetHeader("x-api-key", opts.APIKey).
			SetHeader("anthropic-version", "2023-06-01")
		return &claudeProvider{model: model, client: c}, nil
	case "openai":
		model := opts.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		c := newClient(opts, "https://api.openai.com").
			SetAuthToken(opts.APIKey)
		return &openaiProvider{model: model, client: c}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %q (valid: gemini, claude, openai)", opts.Provider)
	}
}

func newClient(opts Options, defaultURL string) *resty.Client {
	base := opts.BaseURL
	if base == "" {
		base = defaultURL
	}
	return resty.New().
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetTimeout(opts.Timeout)
}

func post(ctx context.Context, c *resty.Client, name, path string, body, out any) error {
	resp, err := c.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("%s API error: %w", name, err)
	}
	if resp.StatusCode() != http.StatusOK {
		b := resp.String()
		if len(b) > 1024 {
			b = b[:1024]
		}
		return fmt.Errorf("%s API %d: %s", name, resp.StatusCode(), b)
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s response: %w", name, err)
	}
	return nil
}

// --- Gemini provider ---

type geminiProvider struct {
	model  string
	client *resty.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *geminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	req := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}}}
	path := "/v1beta/models/" + g.model + ":generateContent"

	var gr geminiResponse
	if err := post(ctx, g.client, "gemini", path, req, &gr); err != nil {
		return "", err
	}
	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("empty gemini response")
	}
	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return nonEmpty("gemini", sb.String())
}

// --- Claude provider ---

type claudeProvider struct {
	model  string
	client *resty.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *claudeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	req := claudeRequest{
		Model:     c.model,
		MaxTokens: 1024,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	}
	var cr claudeResponse
	if err := post(ctx, c.client, "claude", "/v1/messages", req, &cr); err != nil {
		return "", err
	}
	if len(cr.Content) == 0 {
		return "", fmt.Errorf("empty claude response")
	}
	return nonEmpty("claude", cr.Content[0].Text)
}

// --- OpenAI provider ---

type openaiProvider struct {
	model  string
	client *resty.Client
}

type openaiRequest struct {
	Model    string          `json:"model"`
	Messages []openaiMessage `json:"messages"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *openaiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	req := openaiRequest{
		Model:    o.model,
		Messages: []openaiMessage{{Role: "user", Content: prompt}},
	}
	var or openaiResponse
	if err := post(ctx, o.client, "openai", "/v1/chat/completions", req, &or); err != nil {
		return "", err
	}
	if len(or.Choices) == 0 {
		return "", fmt.Errorf("empty openai response")
	}
	return nonEmpty("openai", or.Choices[0].Message.Content)
}

func nonEmpty(name, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("blank %s response", name)
	}
	return text, nil
}
