// Package openai generates listing copy with the OpenAI chat completions API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artisansally/ally/config"
	"github.com/artisansally/ally/pkg/http"
	"github.com/artisansally/ally/pkg/metrics"
)

var (
	ErrNotConfigured = errors.New("openai: api key not configured")
	ErrUpstream      = errors.New("openai: upstream error")
)

const systemPrompt = "You are a helpful assistant designed to output JSON."

type Config struct {
	APIKey string
	Model  string
	Base   string
}

func ConfigFromEnv() Config {
	return Config{APIKey: config.OpenAIAPIKey(), Model: config.OpenAIModel(), Base: config.OpenAIBase()}
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client { return &Client{cfg: cfg} }

// Content is the generated copy for one listing.
type Content struct {
	Titles      []string `json:"titles"`
	Description string   `json:"description"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func prompt(keywords []string) string {
	return fmt.Sprintf(`You are an expert marketplace SEO copywriter for handmade goods.
Using these keywords: %s
write five listing titles (each under 140 characters, most important keyword first)
and one product description of two or three short paragraphs.
Reply with a JSON object: {"titles": ["..."], "description": "..."}`, strings.Join(keywords, ", "))
}

// Generate asks the model for titles and a description built around keywords.
func (c *Client) Generate(ctx context.Context, keywords []string) (content *Content, err error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	defer metrics.ObserveUpstream("openai", "chat_completion", time.Now(), &err)

	resp, err := http.Post(c.cfg.Base+"/chat/completions").
		WithContext(ctx).
		Bearer(c.cfg.APIKey).
		Timeout(60 * time.Second).
		Body(chatRequest{
			Model: c.cfg.Model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: prompt(keywords)},
			},
			ResponseFormat: map[string]string{"type": "json_object"},
		}).
		Send()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, resp.Text())
	}

	var body chatResponse
	if err := resp.JSON(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(body.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in reply", ErrUpstream)
	}

	var out Content
	if err := json.Unmarshal([]byte(body.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("%w: model reply is not JSON: %v", ErrUpstream, err)
	}
	return &out, nil
}
