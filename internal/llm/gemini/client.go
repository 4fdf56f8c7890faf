// Package gemini calls Google's Generative Language API (generateContent).
//
// Every call transmits the full payload, which may contain the user's topic
// or text extracted from an uploaded document, to Google.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"study-planner/internal/llm"
	"study-planner/internal/shared/telemetry"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultTimeout = 120 * time.Second
	maxErrorBody   = 512
)

// Config configures the client. It is built once at startup.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements llm.Client against the generateContent endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client from cfg.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    base,
		httpClient: httpClient,
	}, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata,omitempty"`
	ModelVersion string    `json:"modelVersion"`
	Error        *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Generate sends one generateContent request. It never retries.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	if strings.TrimSpace(req.Model) == "" {
		return "", &llm.Error{Kind: llm.KindMalformed, Message: "generation model is required"}
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Payload}}}},
	})
	if err != nil {
		return "", &llm.Error{Kind: llm.KindMalformed, Message: "encode request", Err: err}
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(req.Model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &llm.Error{Kind: llm.KindTransport, Message: "build request", Err: err}
	}
	httpReq.Header.Set("x-goog-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", &llm.Error{Kind: llm.KindTransport, Message: "gemini request timeout", Err: err}
		}
		return "", &llm.Error{Kind: llm.KindTransport, Message: "gemini request failed: " + err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &llm.Error{Kind: llm.KindTransport, StatusCode: resp.StatusCode, Message: "read gemini response", Err: err}
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", statusError(resp.StatusCode, "", truncate(strings.TrimSpace(string(body))))
		}
		return "", &llm.Error{Kind: llm.KindMalformed, StatusCode: resp.StatusCode, Message: "gemini response parse", Err: err}
	}
	if parsed.Error != nil {
		return "", statusError(resp.StatusCode, parsed.Error.Status, parsed.Error.Message)
	}
	if resp.StatusCode >= 400 {
		return "", statusError(resp.StatusCode, "", truncate(strings.TrimSpace(string(body))))
	}

	logUsage(req.Model, &parsed, time.Since(start))

	if len(parsed.Candidates) == 0 {
		if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
			return "", &llm.Error{Kind: llm.KindBlocked, StatusCode: resp.StatusCode, Message: "prompt blocked: " + parsed.PromptFeedback.BlockReason}
		}
		return "", llm.ErrEmptyResult
	}

	var text strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", llm.ErrEmptyResult
	}
	return text.String(), nil
}

func statusError(code int, status, message string) error {
	kind := llm.KindRemote
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden || status == "UNAUTHENTICATED" || status == "PERMISSION_DENIED":
		kind = llm.KindAuth
	case code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED":
		kind = llm.KindQuota
	}
	if message == "" {
		message = http.StatusText(code)
	}
	return &llm.Error{Kind: kind, StatusCode: code, Message: message}
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody]
}

func logUsage(model string, resp *generateResponse, latency time.Duration) {
	fields := map[string]any{
		"model":         model,
		"model_version": resp.ModelVersion,
		"candidates":    len(resp.Candidates),
		"duration_ms":   float64(latency.Microseconds()) / 1000.0,
	}
	if len(resp.Candidates) > 0 {
		fields["finish_reason"] = resp.Candidates[0].FinishReason
	}
	if u := resp.UsageMetadata; u != nil {
		fields["prompt_tokens"] = u.PromptTokenCount
		fields["completion_tokens"] = u.CandidatesTokenCount
		fields["total_tokens"] = u.TotalTokenCount
	}
	telemetry.Info("llm.response", fields)
}

var _ llm.Client = (*Client)(nil)
