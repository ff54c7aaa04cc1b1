package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient creates an sdkClient pointing at a local test server.
func newTestClient(baseURL string) *sdkClient {
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey("test-key"),
			option.WithBaseURL(baseURL),
		),
	}
}

func TestSDKClient_CreateMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":   "msg_test_001",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": "The candidate appears authentic."},
			},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage": map[string]any{
				"input_tokens":  42,
				"output_tokens": 7,
			},
		})
	}))
	defer ts.Close()

	client := newTestClient(ts.URL)
	resp, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:      "claude-haiku-4-5-20251001",
		MaxTokens:  300,
		System:     "You summarize assessment results.",
		UserPrompt: "Summarize: authenticity 0.73, spam 0.20.",
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "msg_test_001", resp.ID)
	assert.Equal(t, "claude-haiku-4-5-20251001", resp.Model)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, "The candidate appears authentic.", resp.Text)
	assert.Equal(t, int64(42), resp.Usage.InputTokens)
	assert.Equal(t, int64(7), resp.Usage.OutputTokens)
}

func TestSDKClient_CreateMessage_FlattensTextBlocks(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":   "msg_multi",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": "First part. "},
				{"type": "text", "text": "Second part."},
			},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage": map[string]any{
				"input_tokens":  10,
				"output_tokens": 5,
			},
		})
	}))
	defer ts.Close()

	client := newTestClient(ts.URL)
	resp, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:      "claude-haiku-4-5-20251001",
		MaxTokens:  300,
		UserPrompt: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "First part. Second part.", resp.Text)
}

func TestNewClient_WithTimeout(t *testing.T) {
	c := NewClient("test-key", WithTimeout(5*time.Second)).(*sdkClient)
	assert.Equal(t, 5*time.Second, c.timeout)
}

func TestSDKClient_CreateMessage_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer ts.Close()
	defer close(release)

	client := &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey("test-key"),
			option.WithBaseURL(ts.URL),
			option.WithMaxRetries(0),
		),
		timeout: 50 * time.Millisecond,
	}

	_, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:      "claude-haiku-4-5-20251001",
		MaxTokens:  300,
		UserPrompt: "hello",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context deadline exceeded")
}

func TestSDKClient_CreateMessage_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"invalid_request_error","message":"bad model"}}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	client := newTestClient(ts.URL)
	_, err := client.CreateMessage(context.Background(), MessageRequest{
		Model:      "not-a-model",
		MaxTokens:  300,
		UserPrompt: "hello",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claude: create message")
}
