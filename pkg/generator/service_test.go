package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdhe/inspirai/pkg/config"
	"github.com/abdhe/inspirai/pkg/provider"
)

type fakeTransport struct {
	mu       sync.Mutex
	calls    int
	requests []provider.Request

	status int
	body   string
	err    error
}

func (f *fakeTransport) Send(_ context.Context, req provider.Request) (provider.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.requests = append(f.requests, req)
	if f.err != nil {
		return provider.Response{}, f.err
	}
	return provider.Response{StatusCode: f.status, Body: []byte(f.body)}, nil
}

func staticKey(key string) CredentialResolver {
	return config.NewResolverFrom(key, nil)
}

func newTestService(tr provider.Transport, key string) *Service {
	return NewService(Config{
		Resolver:  staticKey(key),
		Transport: tr,
		BaseURL:   "https://gemini.test/v1beta",
		Model:     "gemini-2.0-flash",
	})
}

var autumn = Params{Theme: "autumn", Format: FormatPoem, Tone: "casual", Style: "haiku", WordCount: 100}

func TestGenerateMissingCredentialMakesNoCall(t *testing.T) {
	tr := &fakeTransport{status: http.StatusOK, body: `{}`}
	svc := newTestService(tr, "")

	text, err := svc.Generate(context.Background(), autumn)

	var cfgErr *config.ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Empty(t, text)
	assert.Equal(t, 0, tr.calls)
}

func TestGenerateSuccess(t *testing.T) {
	tr := &fakeTransport{
		status: http.StatusOK,
		body:   `{"candidates":[{"content":{"parts":[{"text":"Sample poem"}]}}]}`,
	}
	svc := newTestService(tr, "test-key")

	text, err := svc.Generate(context.Background(), autumn)
	require.NoError(t, err)
	assert.Equal(t, "Sample poem", text)
	assert.Equal(t, 1, tr.calls)
}

func TestGenerateResultCarriesUsage(t *testing.T) {
	tr := &fakeTransport{
		status: http.StatusOK,
		body: `{"candidates":[{"content":{"parts":[{"text":"  leaves fall\n"}]},"finishReason":"STOP"}],
			"usageMetadata":{"promptTokenCount":40,"candidatesTokenCount":9}}`,
	}
	res, err := newTestService(tr, "k").GenerateResult(context.Background(), autumn)
	require.NoError(t, err)
	assert.Equal(t, "  leaves fall\n", res.Text, "text is returned untouched")
	assert.Equal(t, "STOP", res.FinishReason)
	assert.Equal(t, int32(40), res.PromptTokens)
	assert.Equal(t, int32(9), res.OutputTokens)
}

func TestGenerateOutboundRequest(t *testing.T) {
	tr := &fakeTransport{status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[{"text":"x"}]}}]}`}
	_, err := newTestService(tr, "test-key").Generate(context.Background(), autumn)
	require.NoError(t, err)
	require.Len(t, tr.requests, 1)

	req := tr.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	u, err := url.Parse(req.URL)
	require.NoError(t, err)
	assert.Equal(t, "gemini.test", u.Host)
	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", u.Path)
	assert.Equal(t, "test-key", u.Query().Get("key"))

	var body provider.GenerateContentRequest
	require.NoError(t, json.Unmarshal(req.Body, &body))
	require.Len(t, body.Contents, 1)
	require.Len(t, body.Contents[0].Parts, 1)
	assert.Equal(t, RenderPrompt(autumn), body.Contents[0].Parts[0].Text)
}

func TestGenerateRequestBodyIsReproducible(t *testing.T) {
	tr := &fakeTransport{status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[{"text":"x"}]}}]}`}
	svc := newTestService(tr, "k")

	for i := 0; i < 2; i++ {
		_, err := svc.Generate(context.Background(), autumn)
		require.NoError(t, err)
	}
	require.Len(t, tr.requests, 2)
	assert.Equal(t, tr.requests[0].Body, tr.requests[1].Body)
	assert.Equal(t, tr.requests[0].URL, tr.requests[1].URL)
}

func TestGenerateEmptyCandidates(t *testing.T) {
	for name, body := range map[string]string{
		"empty list":    `{"candidates":[]}`,
		"absent list":   `{}`,
		"no parts":      `{"candidates":[{"content":{"parts":[]}}]}`,
		"empty text":    `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`,
		"missing parts": `{"candidates":[{"finishReason":"SAFETY"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			tr := &fakeTransport{status: http.StatusOK, body: body}
			_, err := newTestService(tr, "k").Generate(context.Background(), autumn)

			var emptyErr *EmptyResultError
			require.True(t, errors.As(err, &emptyErr), "got %v", err)
			var provErr *ProviderError
			assert.False(t, errors.As(err, &provErr))
		})
	}
}

func TestGenerateBlockedPrompt(t *testing.T) {
	tr := &fakeTransport{status: http.StatusOK, body: `{"promptFeedback":{"blockReason":"SAFETY"}}`}
	_, err := newTestService(tr, "k").Generate(context.Background(), autumn)

	var emptyErr *EmptyResultError
	require.True(t, errors.As(err, &emptyErr))
	assert.Equal(t, "SAFETY", emptyErr.BlockReason)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGenerateServerError(t *testing.T) {
	tr := &fakeTransport{status: http.StatusInternalServerError, body: `{"error":{"message":"boom"}}`}
	_, err := newTestService(tr, "k").Generate(context.Background(), autumn)

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr), "got %v", err)
	assert.Equal(t, http.StatusInternalServerError, provErr.StatusCode)
	assert.Contains(t, provErr.Body, "boom")
	assert.Nil(t, provErr.Err)
	assert.Contains(t, err.Error(), "500")
}

func TestGenerateNonOKBodyLooksLikeSuccess(t *testing.T) {
	// A 4xx is a provider error even if its body has candidates.
	tr := &fakeTransport{status: http.StatusTooManyRequests, body: `{"candidates":[{"content":{"parts":[{"text":"nope"}]}}]}`}
	_, err := newTestService(tr, "k").Generate(context.Background(), autumn)

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, http.StatusTooManyRequests, provErr.StatusCode)
}

func TestGenerateTransportFailure(t *testing.T) {
	tr := &fakeTransport{err: context.DeadlineExceeded}
	_, err := newTestService(tr, "k").Generate(context.Background(), autumn)

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Zero(t, provErr.StatusCode)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, tr.calls)
}

func TestGenerateMalformedEnvelope(t *testing.T) {
	tr := &fakeTransport{status: http.StatusOK, body: `<html>not json</html>`}
	_, err := newTestService(tr, "k").Generate(context.Background(), autumn)

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, http.StatusOK, provErr.StatusCode)
	assert.Error(t, provErr.Err)
	assert.Equal(t, `<html>not json</html>`, provErr.Body)
}

func TestGenerateOutOfGridParamsDoNotPanic(t *testing.T) {
	tr := &fakeTransport{status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`}
	svc := newTestService(tr, "k")

	assert.NotPanics(t, func() {
		text, err := svc.Generate(context.Background(), Params{Format: "limerick", WordCount: -7})
		assert.NoError(t, err)
		assert.Equal(t, "ok", text)
	})
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "configuration_error", Outcome(&config.ConfigurationError{Variable: "X"}))
	assert.Equal(t, "empty_result", Outcome(&EmptyResultError{}))
	assert.Equal(t, "provider_error", Outcome(&ProviderError{StatusCode: 502}))
}
