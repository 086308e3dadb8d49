package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Hmmmm3247/ContractGuard/config"
	"github.com/Hmmmm3247/ContractGuard/model"
	"github.com/Hmmmm3247/ContractGuard/pkg/apperr"
	"github.com/Hmmmm3247/ContractGuard/pkg/ingest"
	"github.com/Hmmmm3247/ContractGuard/pkg/logger"
)

// Part is one piece of a turn: text, or inline binary data with its mime type.
type Part struct {
	Text     string
	MimeType string
	Data     []byte
}

func TextPart(s string) Part { return Part{Text: s} }

// Turn is a prior exchange replayed as conversation history.
type Turn struct {
	Role  model.ChatRole
	Parts []Part
}

// GenerateRequest describes one call to the AI service. Purpose only labels
// logs and metrics.
type GenerateRequest struct {
	Purpose           string
	SystemInstruction string
	History           []Turn
	Parts             []Part
	Search            bool
	CodeExecution     bool
	JSON              bool
	Schema            map[string]any
	ThinkingBudget    int
}

// GenerateResult carries the concatenated text and raw grounding citations.
type GenerateResult struct {
	Text         string
	Sources      []model.GroundingSource
	FinishReason string
}

// Generator is the AI service capability used by every feature.
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)
}

// GeminiClient calls the generateContent REST endpoint.
type GeminiClient struct {
	config     *config.GeminiConfig
	httpClient *http.Client
}

func NewGeminiClient(cfg *config.GeminiConfig) *GeminiClient {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &GeminiClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type geminiBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inlineData,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiTool struct {
	GoogleSearch  *struct{} `json:"googleSearch,omitempty"`
	CodeExecution *struct{} `json:"codeExecution,omitempty"`
}

type geminiThinking struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any  `json:"responseSchema,omitempty"`
	ThinkingConfig   *geminiThinking `json:"thinkingConfig,omitempty"`
}

// GeminiRequest is the generateContent request body
type GeminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	Tools             []geminiTool            `json:"tools,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

// GeminiResponse is the subset of a generateContent response we read
type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text    string `json:"text"`
				Thought bool   `json:"thought,omitempty"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason      string `json:"finishReason"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web *struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web,omitempty"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata,omitempty"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func toGeminiParts(parts []Part) []geminiPart {
	out := make([]geminiPart, 0, len(parts))
	for _, p := range parts {
		if len(p.Data) > 0 {
			out = append(out, geminiPart{InlineData: &geminiBlob{
				MimeType: p.MimeType,
				Data:     base64.StdEncoding.EncodeToString(p.Data),
			}})
			continue
		}
		out = append(out, geminiPart{Text: p.Text})
	}
	return out
}

func buildGeminiRequest(req *GenerateRequest) *GeminiRequest {
	body := &GeminiRequest{}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemInstruction}}}
	}
	for _, t := range req.History {
		body.Contents = append(body.Contents, geminiContent{Role: string(t.Role), Parts: toGeminiParts(t.Parts)})
	}
	body.Contents = append(body.Contents, geminiContent{Role: string(model.RoleUser), Parts: toGeminiParts(req.Parts)})

	if req.Search {
		body.Tools = append(body.Tools, geminiTool{GoogleSearch: &struct{}{}})
	}
	if req.CodeExecution {
		body.Tools = append(body.Tools, geminiTool{CodeExecution: &struct{}{}})
	}

	gc := &geminiGenerationConfig{}
	if req.JSON {
		gc.ResponseMimeType = "application/json"
		gc.ResponseSchema = req.Schema
	}
	if req.ThinkingBudget > 0 {
		gc.ThinkingConfig = &geminiThinking{ThinkingBudget: req.ThinkingBudget}
	}
	if gc.ResponseMimeType != "" || gc.ThinkingConfig != nil {
		body.GenerationConfig = gc
	}
	return body
}

// Generate sends req and returns the model's text. Transport failures,
// non-2xx statuses, blocked prompts and empty replies are ServiceUnavailable.
func (c *GeminiClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	start := time.Now()
	res, err := c.generate(ctx, req)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	aiCallsTotal.WithLabelValues(req.Purpose, outcome).Inc()
	aiCallDuration.WithLabelValues(req.Purpose).Observe(time.Since(start).Seconds())

	log := logger.WithContext(ctx).With(
		"purpose", req.Purpose,
		"model", c.config.Model,
		"latency_ms", time.Since(start).Milliseconds(),
		"outcome", outcome,
	)
	if err != nil {
		log.Warn("ai call failed", "error", err)
		return nil, err
	}
	log.Info("ai call completed")
	return res, nil
}

func (c *GeminiClient) generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	if c.config.APIKey == "" {
		return nil, apperr.NewUnavailable("AI service is not configured.", errors.New("missing api key"))
	}

	jsonData, err := json.Marshal(buildGeminiRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.config.APIURL, "/"), c.config.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-goog-api-key", c.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperr.NewUnavailable("AI service unavailable.", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.NewUnavailable("AI service unavailable.", fmt.Errorf("failed to read response: %w", err))
	}

	var result GeminiResponse
	if err := json.Unmarshal(body, &result); err != nil && resp.StatusCode < 300 {
		return nil, apperr.NewUnavailable("AI service returned an unreadable reply.", err)
	}
	if resp.StatusCode >= 300 {
		msg := ingest.Preview(string(body), 512)
		if result.Error != nil {
			msg = result.Error.Message
		}
		return nil, apperr.NewUnavailable("AI service unavailable.", fmt.Errorf("gemini API status %d: %s", resp.StatusCode, msg))
	}
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return nil, apperr.NewUnavailable("Content blocked by safety filters.", fmt.Errorf("block reason %s", result.PromptFeedback.BlockReason))
	}
	if len(result.Candidates) == 0 {
		return nil, apperr.NewUnavailable("No response from AI.", errors.New("empty candidates"))
	}

	cand := result.Candidates[0]
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		if p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	out := &GenerateResult{Text: sb.String(), FinishReason: cand.FinishReason}
	if strings.TrimSpace(out.Text) == "" {
		return nil, apperr.NewUnavailable("No response from AI.", fmt.Errorf("empty text, finish reason %s", cand.FinishReason))
	}
	if cand.GroundingMetadata != nil {
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil {
				continue
			}
			out.Sources = append(out.Sources, model.GroundingSource{Title: chunk.Web.Title, URI: chunk.Web.URI})
		}
	}
	return out, nil
}
