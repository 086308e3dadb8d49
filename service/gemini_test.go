package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hmmmm3247/ContractGuard/config"
	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiClient(&config.GeminiConfig{
		APIURL:         srv.URL + "/v1beta",
		APIKey:         "test-key",
		Model:          "gemini-test",
		TimeoutSeconds: 5,
	})
}

func TestGeminiGenerate(t *testing.T) {
	requests := make(chan GeminiRequest, 1)
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		body, _ := io.ReadAll(r.Body)
		var req GeminiRequest
		assert.NoError(t, json.Unmarshal(body, &req))
		requests <- req

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"parts": [
					{"text": "thinking about it", "thought": true},
					{"text": "Hello "},
					{"text": "world"}
				]},
				"finishReason": "STOP",
				"groundingMetadata": {"groundingChunks": [
					{"web": {"uri": "https://example.org/a", "title": "A"}},
					{}
				]}
			}]
		}`))
	})

	res, err := client.Generate(context.Background(), &GenerateRequest{
		Purpose:           "test",
		SystemInstruction: "be brief",
		History:           []Turn{{Role: model.RoleModel, Parts: []Part{TextPart("earlier")}}},
		Parts:             []Part{TextPart("hi"), {MimeType: MimePNG, Data: []byte{1, 2, 3}}},
		Search:            true,
		JSON:              true,
		Schema:            map[string]any{"type": "OBJECT"},
		ThinkingBudget:    1024,
	})
	require.NoError(t, err)
	got := <-requests
	assert.Equal(t, "Hello world", res.Text)
	assert.Equal(t, "STOP", res.FinishReason)
	assert.Equal(t, []model.GroundingSource{{Title: "A", URI: "https://example.org/a"}}, res.Sources)

	require.NotNil(t, got.SystemInstruction)
	assert.Equal(t, "be brief", got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 2)
	assert.Equal(t, "model", got.Contents[0].Role)
	assert.Equal(t, "user", got.Contents[1].Role)
	require.Len(t, got.Contents[1].Parts, 2)
	require.NotNil(t, got.Contents[1].Parts[1].InlineData)
	assert.Equal(t, "AQID", got.Contents[1].Parts[1].InlineData.Data)
	require.Len(t, got.Tools, 1)
	assert.NotNil(t, got.Tools[0].GoogleSearch)
	require.NotNil(t, got.GenerationConfig)
	assert.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
	assert.Equal(t, 1024, got.GenerationConfig.ThinkingConfig.ThinkingBudget)
}

func TestGeminiFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":{"code":500,"message":"internal"}}`, message: "AI service unavailable."},
		{name: "non json error", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, message: "AI service unavailable."},
		{name: "blocked", status: http.StatusOK, body: `{"promptFeedback":{"blockReason":"SAFETY"}}`, message: "Content blocked by safety filters."},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`, message: "No response from AI."},
		{name: "only thoughts", status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[{"text":"hmm","thought":true}]}}]}`, message: "No response from AI."},
		{name: "garbage", status: http.StatusOK, body: `not json`, message: "AI service returned an unreadable reply."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Generate(context.Background(), &GenerateRequest{Purpose: "test", Parts: []Part{TextPart("hi")}})
			require.Error(t, err)
			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindServiceUnavailable, e.Kind)
			assert.Equal(t, tt.message, e.Message)
		})
	}
}

func TestGeminiMissingKey(t *testing.T) {
	client := NewGeminiClient(&config.GeminiConfig{APIURL: "http://127.0.0.1:1", Model: "m"})

	_, err := client.Generate(context.Background(), &GenerateRequest{Purpose: "test"})
	assert.ErrorIs(t, err, apperr.ServiceUnavailable)
}

func TestBuildGeminiRequestMinimal(t *testing.T) {
	body := buildGeminiRequest(&GenerateRequest{Parts: []Part{TextPart("hi")}, CodeExecution: true})

	assert.Nil(t, body.SystemInstruction)
	assert.Nil(t, body.GenerationConfig)
	require.Len(t, body.Tools, 1)
	assert.NotNil(t, body.Tools[0].CodeExecution)
	require.Len(t, body.Contents, 1)
	assert.Equal(t, "hi", body.Contents[0].Parts[0].Text)
}
