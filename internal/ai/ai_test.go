package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOpenRouter(t *testing.T, handler http.HandlerFunc) *OpenRouterClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOpenRouterClient(OpenRouterConfig{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		Model:        "test/model",
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestOpenRouter_GenerateJSON(t *testing.T) {
	c := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "FitCoach", r.Header.Get("X-Title"))

		var req openRouterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test/model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" {\"ok\":true} "}}]}`))
	})

	out, err := c.GenerateJSON(context.Background(), "be terse", "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
}

func TestOpenRouter_RateLimitRetriesThenQuota(t *testing.T) {
	var calls int32
	c := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"slow down"}}`))
	})

	_, err := c.GenerateJSON(context.Background(), "", "hello")
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestOpenRouter_RateLimitRecovers(t *testing.T) {
	var calls int32
	c := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	})

	out, err := c.GenerateJSON(context.Background(), "", "hello")
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
}

func TestOpenRouter_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		c := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		_, err := c.GenerateJSON(context.Background(), "", "x")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrQuotaExceeded)
	})

	t.Run("no choices", func(t *testing.T) {
		c := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		})
		_, err := c.GenerateJSON(context.Background(), "", "x")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := NewOpenRouterClient(OpenRouterConfig{})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

type fakeGenerator struct {
	name  string
	out   string
	err   error
	calls int
}

func (f *fakeGenerator) Name() string { return f.name }

func (f *fakeGenerator) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	f.calls++
	return f.out, f.err
}

func TestChain_FallsThroughOnQuota(t *testing.T) {
	first := &fakeGenerator{name: "gemini", err: ErrQuotaExceeded}
	second := &fakeGenerator{name: "openrouter", out: `{"a":1}`}

	chain := NewChain(zap.NewNop(), first, nil, second)
	out, err := chain.GenerateJSON(context.Background(), "", "p")

	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 2, chain.Len())
	assert.Equal(t, "chain(gemini,openrouter)", chain.Name())
}

func TestChain_ReturnsLastError(t *testing.T) {
	boom := errors.New("boom")
	chain := NewChain(zap.NewNop(),
		&fakeGenerator{name: "a", err: errors.New("first")},
		&fakeGenerator{name: "b", err: boom},
	)

	_, err := chain.GenerateJSON(context.Background(), "", "p")
	assert.ErrorIs(t, err, boom)
}

func TestChain_Empty(t *testing.T) {
	_, err := NewChain(zap.NewNop()).GenerateJSON(context.Background(), "", "p")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`},
		{"prose", "Here you go: {\"a\":\"}\"} hope it helps {x}", `{"a":"}"}`},
		{"escaped quote", `{"a":"say \"{hi\""}`, `{"a":"say \"{hi\""}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ExtractJSON("no json here")
	assert.ErrorIs(t, err, ErrNoJSON)
	_, err = ExtractJSON(`{"unterminated": 1`)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestDecodeJSON_RequiredKeys(t *testing.T) {
	var v struct {
		Days []int `json:"days"`
	}

	require.NoError(t, DecodeJSON("```json\n{\"days\":[1,2]}\n```", &v, "days"))
	assert.Equal(t, []int{1, 2}, v.Days)

	err := DecodeJSON(`{"name":"x"}`, &v, "days")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"days"`)
}
