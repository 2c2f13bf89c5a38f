package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/campaign-intel-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestCreateChatCompletionSendsToolsAndParsesToolCalls(t *testing.T) {
	var captured ChatRequest
	var auth string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/v1/chat/completions", req.URL.Path)
		auth = req.Header.Get("Authorization")
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		return response(http.StatusOK, `{
			"id":"chatcmpl-1",
			"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"tool_calls","message":{
				"role":"assistant","content":null,
				"tool_calls":[{"id":"call_1","type":"function","function":{"name":"get_top_products","arguments":"{\"n\":3}"}}]
			}}]
		}`), nil
	})

	client, err := NewClient("sk-test", WithBaseURL("http://llm.test/v1"), WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	resp, err := client.CreateChatCompletion(context.Background(), ChatRequest{
		Model:       "gpt-4o-mini",
		Temperature: 0.1,
		Messages:    []Message{{Role: RoleUser, Content: "hi"}},
		Tools:       []Tool{FunctionTool("get_top_products", "Return the top N products by sales proxy.", json.RawMessage(`{"type":"object"}`))},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.InDelta(t, 0.1, captured.Temperature, 1e-9)
	require.Len(t, captured.Tools, 1)
	assert.Equal(t, "function", captured.Tools[0].Type)

	require.Len(t, resp.Choices, 1)
	msg := resp.Choices[0].Message
	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Empty(t, msg.Content)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "get_top_products", msg.ToolCalls[0].Function.Name)
	assert.Equal(t, `{"n":3}`, msg.ToolCalls[0].Function.Arguments)
}

func TestCreateChatCompletionQuotaError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return response(http.StatusTooManyRequests, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`), nil
	})
	client, err := NewClient("sk-test", WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	_, err = client.CreateChatCompletion(context.Background(), ChatRequest{Model: "gpt-4o-mini", Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeQuotaExceeded))
	assert.Contains(t, err.Error(), "You exceeded your current quota")
}

func TestCreateChatCompletionOtherErrorIsDependency(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return response(http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`), nil
	})
	client, err := NewClient("sk-test", WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	_, err = client.CreateChatCompletion(context.Background(), ChatRequest{Model: "gpt-4o-mini", Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	assert.False(t, pkgerrors.HasCode(err, pkgerrors.CodeQuotaExceeded))

	var statusErr *pkgerrors.UpstreamError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "Incorrect API key provided", statusErr.Body)
}

func TestCreateChatCompletionRejectsEmptyChoices(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return response(http.StatusOK, `{"id":"x","choices":[]}`), nil
	})
	client, err := NewClient("sk-test", WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	_, err = client.CreateChatCompletion(context.Background(), ChatRequest{Model: "gpt-4o-mini", Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.Error(t, err)
}
