package copywriter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockMessagesServer fakes the Anthropic messages endpoint, returning the
// given text as the single content block.
func mockMessagesServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req["model"])
		assert.NotEmpty(t, req["system"])

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":    "msg_test",
			"type":  "message",
			"role":  "assistant",
			"model": req["model"],
			"content": []map[string]any{
				{"type": "text", "text": text},
			},
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 20},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestWriter(t *testing.T, responseText string) *Writer {
	server := mockMessagesServer(t, responseText)
	return New("test-key", "claude-sonnet-4-5-20250929", option.WithBaseURL(server.URL))
}

func TestOptimizeMetadata(t *testing.T) {
	w := newTestWriter(t, `{"title":"Luxury Dallas Apartments | Example","meta_description":"Tour luxury apartments in Dallas with resort-style amenities."}`)

	suggestion, err := w.OptimizeMetadata(context.Background(), Page{
		URL:   "https://example-apartments.com/",
		Title: "Home",
	}, []string{"apartments in dallas", "luxury apartments dallas"})
	require.NoError(t, err)

	assert.Equal(t, "Luxury Dallas Apartments | Example", suggestion.Title)
	assert.Contains(t, suggestion.MetaDescription, "Dallas")
}

func TestOptimizeMetadataFencedJSON(t *testing.T) {
	w := newTestWriter(t, "```json\n{\"title\":\"Fenced Title\",\"meta_description\":\"Fenced description.\"}\n```")

	suggestion, err := w.OptimizeMetadata(context.Background(), Page{URL: "https://example.com"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Fenced Title", suggestion.Title)
}

func TestOptimizeMetadataUnparseable(t *testing.T) {
	w := newTestWriter(t, "Sure! Here is a great title for your page.")

	suggestion, err := w.OptimizeMetadata(context.Background(), Page{URL: "https://example.com"}, nil)
	require.Error(t, err)
	require.NotNil(t, suggestion)
	assert.Empty(t, suggestion.Title, "caller gets a zero-value suggestion it can log and skip")
}

func TestOptimizeOnPage(t *testing.T) {
	w := newTestWriter(t, `{"h1":"Luxury Apartments in Dallas","content":"Discover elevated living in the heart of Dallas."}`)

	suggestion, err := w.OptimizeOnPage(context.Background(), Page{
		URL:          "https://example-apartments.com/",
		H1:           "Welcome Home",
		IntroContent: "Come live with us.",
	}, "apartments in dallas")
	require.NoError(t, err)

	assert.Equal(t, "Luxury Apartments in Dallas", suggestion.H1)
	assert.Contains(t, suggestion.Content, "Dallas")
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid key"}}`)
	}))
	t.Cleanup(server.Close)

	w := New("bad-key", "claude-sonnet-4-5-20250929", option.WithBaseURL(server.URL))
	_, err := w.OptimizeOnPage(context.Background(), Page{URL: "https://example.com"}, "kw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic request failed")
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}\n", `{"a":1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripFences(tc.in))
		})
	}
}
