// Package relay calls OpenAI-compatible chat-completion endpoints on behalf
// of users, either buffered or streamed over server-sent events.
//
// All requests share one process-wide pooled HTTP client so keepalive
// connections are reused across users and requests.
package relay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultModel   = "default"
	maxIdleConns   = 100
	keepaliveConns = 20
	idleExpiry     = 30 * time.Second
)

var (
	sharedOnce      sync.Once
	sharedTransport *http.Transport
)

// sharedHTTPTransport is the lazily-initialized outbound connection pool.
func sharedHTTPTransport() *http.Transport {
	sharedOnce.Do(func() {
		sharedTransport = &http.Transport{
			MaxIdleConns:        maxIdleConns,
			MaxIdleConnsPerHost: keepaliveConns,
			IdleConnTimeout:     idleExpiry,
		}
	})
	return sharedTransport
}

// Message mirrors the completion API message shape. Content is raw JSON:
// either a string or an array of content parts.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// Request describes one completion call. Params are passed through to the
// request body untouched (temperature, max_tokens, ...).
type Request struct {
	BaseURL  string
	Model    string
	APIKey   string
	Messages []Message
	Params   map[string]any
}

type Client struct {
	http *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: sharedHTTPTransport(),
		},
	}
}

// Complete performs a buffered completion and returns the assistant text.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.post(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("completion response has no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// Stream performs a streaming completion and invokes fn for every non-empty
// content delta. Returning an error from fn aborts the stream.
func (c *Client) Stream(ctx context.Context, req Request, fn func(delta string) error) error {
	resp, err := c.post(ctx, req, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			return nil
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return fmt.Errorf("decoding stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}

		if err := fn(chunk.Choices[0].Delta.Content); err != nil {
			return err
		}
	}

	return scanner.Err()
}

func (c *Client) post(ctx context.Context, req Request, stream bool) (*http.Response, error) {
	body := map[string]any{
		"model":    req.Model,
		"messages": req.Messages,
	}
	if req.Model == "" {
		body["model"] = defaultModel
	}
	if stream {
		body["stream"] = true
	}
	for k, v := range req.Params {
		body[k] = v
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding completion request: %w", err)
	}

	url := strings.TrimSuffix(req.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling completion endpoint: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return resp, nil
}
