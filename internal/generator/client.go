// Package generator drafts reply text through an OpenAI compatible chat
// completions endpoint.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hal9000y/gmail-reply-mcp/internal/observability"
)

// Defaults used when Options leaves a field empty.
const (
	DefaultEndpoint    = "https://api.openai.com/v1/chat/completions"
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.7
	DefaultTimeout     = 60 * time.Second
)

const maxErrorBody = 4 << 10

// SystemPrompt tells the model how to lay out its answer so the draft can be
// extracted reliably.
const SystemPrompt = `You write email replies on behalf of the user.
Use only the facts in the provided context. Keep the tone professional and friendly.
Return the reply body inside a fenced block:

` + "```email" + `
<reply body>
` + "```" + `

If you want a subject other than "Re: <original subject>", put a line "Subject: <subject>" as the first line inside the block.`

// ErrEmptyCompletion is returned when the service answers without any choice.
var ErrEmptyCompletion = errors.New("generator: empty completion")

// Options configures a Client.
type Options struct {
	Endpoint string
	Model    string
	APIKey   string
	// Temperature defaults to DefaultTemperature when nil. Zero is honored.
	Temperature *float64
	Timeout     time.Duration
	// HTTPClient overrides the default instrumented client.
	HTTPClient *http.Client
}

// Client calls the chat completions API.
type Client struct {
	endpoint    string
	model       string
	apiKey      string
	temperature float64
	http        *http.Client
}

// NewClient creates a client, filling unset options with defaults.
func NewClient(opts Options) *Client {
	c := &Client{
		endpoint:    opts.Endpoint,
		model:       opts.Model,
		apiKey:      opts.APIKey,
		temperature: DefaultTemperature,
		http:        opts.HTTPClient,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if opts.Temperature != nil {
		c.temperature = *opts.Temperature
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.http = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate returns the raw model output for the compiled context and the
// user's instructions.
func (c *Client) Generate(ctx context.Context, compiled, instructions string) (string, error) {
	ctx, span := observability.Tracer().Start(ctx, "generator.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("generator.model", c.model))

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: userPrompt(compiled, instructions)},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("json.Marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("http.NewRequestWithContext failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("http.Do failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("generator: status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("generator: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("json.Decode failed: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return out.Choices[0].Message.Content, nil
}

func userPrompt(compiled, instructions string) string {
	var b strings.Builder
	b.WriteString("Instructions from the user:\n")
	b.WriteString(strings.TrimSpace(instructions))
	b.WriteString("\n\nContext:\n")
	b.WriteString(compiled)
	return b.String()
}
