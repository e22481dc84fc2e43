package provider

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
)

const (
	// DefaultBaseURL is the public Gemini REST endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultModel is the model the generator talks to unless configured otherwise.
	DefaultModel = "gemini-2.0-flash"
)

// GenerateContentRequest is the Gemini generateContent request body.
type GenerateContentRequest struct {
	Contents []Content `json:"contents"`
}

// Content is one turn of the conversation.
type Content struct {
	Parts []Part `json:"parts"`
}

// Part carries a single text fragment.
type Part struct {
	Text string `json:"text"`
}

// Candidate is one produced alternative.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// UsageMetadata reports token accounting for a call.
type UsageMetadata struct {
	PromptTokenCount     int32 `json:"promptTokenCount"`
	CandidatesTokenCount int32 `json:"candidatesTokenCount"`
}

// PromptFeedback is set when the provider refuses the prompt.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// GenerateContentResponse is the Gemini generateContent response body.
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	UsageMetadata  UsageMetadata   `json:"usageMetadata"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
}

// NewTextRequest wraps a single prompt in the generateContent envelope.
func NewTextRequest(prompt string) GenerateContentRequest {
	return GenerateContentRequest{
		Contents: []Content{
			{Parts: []Part{{Text: prompt}}},
		},
	}
}

// GenerateContentURL builds the generateContent endpoint for model, passing
// the credential as the key query parameter.
func GenerateContentURL(baseURL, model, key string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	q := url.Values{}
	q.Set("key", key)
	return fmt.Sprintf("%s/models/%s:generateContent?%s",
		strings.TrimRight(baseURL, "/"), url.PathEscape(model), q.Encode())
}

// DecodeResponse parses a generateContent response body.
func DecodeResponse(body []byte) (GenerateContentResponse, error) {
	var resp GenerateContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return GenerateContentResponse{}, fmt.Errorf("gemini: decode response: %w", err)
	}
	return resp, nil
}

// HTTPTransport implements Transport over net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport. A nil client means a fresh
// http.Client with no timeout; deadlines come from the caller's context.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{client: client}
}

// Send performs the request and reads the whole body.
func (t *HTTPTransport) Send(ctx context.Context, req Request) (Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return Response{}, fmt.Errorf("gemini: create request: %w", redactURL(err))
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("gemini: do request: %w", redactURL(err))
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("gemini: read response: %w", err)
	}

	return Response{StatusCode: httpResp.StatusCode, Body: body}, nil
}

// redactURL drops the request URL from net/http errors. The URL carries the
// credential in its query string.
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
