package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) *Config {
	return &Config{
		APIURL:      url,
		Model:       "local-model",
		MaxTokens:   100,
		Temperature: 0.3,
		Timeout:     30,
	}
}

func TestNewClient(t *testing.T) {
	config := testConfig("http://localhost:1234/v1/")

	client, err := NewClient(config)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:1234/v1", client.BaseURL())
	assert.Nil(t, client.limiter)

	config.RateLimit = 2
	client, err = NewClient(config)
	require.NoError(t, err)
	assert.NotNil(t, client.limiter)

	_, err = NewClient(&Config{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid without key", func(c *Config) {}, ""},
		{"missing url", func(c *Config) { c.APIURL = "" }, "API URL"},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, "max tokens"},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, "temperature"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig("http://localhost:1234/v1")
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetHeaders(t *testing.T) {
	c := testConfig("x")
	headers := c.GetHeaders()
	assert.Equal(t, "application/json", headers["Content-Type"])
	_, hasAuth := headers["Authorization"]
	assert.False(t, hasAuth)

	c.APIKey = "secret"
	c.AppName = "subs"
	headers = c.GetHeaders()
	assert.Equal(t, "Bearer secret", headers["Authorization"])
	assert.Equal(t, "subs", headers["X-Title"])
}

func TestChatCompletion(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "test-id",
			"object": "chat.completion",
			"model": "qwen",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "Merhaba"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12}
		}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL + "/v1"))
	require.NoError(t, err)

	opts := NewChatCompletionOptions().
		WithSystemPrompt("translate").
		WithModel("qwen").
		WithMaxTokens(50).
		WithTemperature(0)
	resp, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "Hello"}}, opts)
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "Merhaba", resp.Choices[0].Message.Content)
	assert.False(t, resp.Choices[0].Truncated())
	assert.Equal(t, 12, resp.Usage.TotalTokens)

	assert.Equal(t, "qwen", got.Model)
	assert.Equal(t, 50, got.MaxTokens)
	assert.Equal(t, 0.0, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, Message{Role: "system", Content: "translate"}, got.Messages[0])
	assert.Equal(t, Message{Role: "user", Content: "Hello"}, got.Messages[1])
}

func TestChatCompletion_DefaultsFromConfig(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"},"finish_reason":"length"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	resp, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "x"}}, nil)
	require.NoError(t, err)
	assert.True(t, resp.Choices[0].Truncated())
	assert.Equal(t, "local-model", got.Model)
	assert.Equal(t, 100, got.MaxTokens)
	assert.Equal(t, 0.3, got.Temperature)
	assert.Len(t, got.Messages, 1)
}

func TestChatCompletion_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API key","type":"authentication_error","code":"401"}}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "x"}}, nil)
	require.Error(t, err)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid API key", apiErr.Message)
}

func TestChatCompletion_ServerErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "x"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestChatCompletion_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "x"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestGetModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"qwen2.5-7b","object":"model","owned_by":"organization_owner"},{"id":"gemma-3"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	models, err := client.GetModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "qwen2.5-7b", models[0].ID)
	assert.Equal(t, "gemma-3", models[1].ID)
}

func TestGetModels_MissingData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"object":"list"}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	_, err = client.GetModels(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data")
}

func TestPing(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)
	assert.NoError(t, client.Ping(context.Background()))

	status.Store(http.StatusNotFound)
	assert.Error(t, client.Ping(context.Background()))

	server.Close()
	assert.Error(t, client.Ping(context.Background()))
}

func TestRateLimitHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	config := testConfig(server.URL)
	config.RateLimit = 0.01
	client, err := NewClient(config)
	require.NoError(t, err)

	_, err = client.GetModels(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.GetModels(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestClientConcurrentRequests(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.ChatCompletion(context.Background(), []Message{{Role: "user", Content: "x"}}, nil)
			assert.NoError(t, err)
			assert.Equal(t, "ok", resp.Choices[0].Message.Content)
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, calls)
}
