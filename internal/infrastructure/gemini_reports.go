package infrastructure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketingops/internal/domain"
	"marketingops/pkg/logger"
	"marketingops/pkg/metrics"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// generateContentFunc matches (*genai.Models).GenerateContent.
type generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// GeminiReports generates reports with Google's Gemini API.
type GeminiReports struct {
	generate    generateContentFunc
	model       string
	logger      *logger.Logger
	metrics     *metrics.Metrics
	rateLimiter *rate.Limiter
}

func NewGeminiReports(ctx context.Context, apiKey, model string, requestsPerMinute int, logger *logger.Logger, metrics *metrics.Metrics) (*GeminiReports, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newGeminiReports(client.Models.GenerateContent, model, requestsPerMinute, logger, metrics), nil
}

func newGeminiReports(generate generateContentFunc, model string, requestsPerMinute int, logger *logger.Logger, metrics *metrics.Metrics) *GeminiReports {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiReports{
		generate:    generate,
		model:       model,
		logger:      logger,
		metrics:     metrics,
		rateLimiter: newMinuteLimiter(requestsPerMinute),
	}
}

func (g *GeminiReports) Model() string { return g.model }

func (g *GeminiReports) Generate(ctx context.Context, prompt domain.ReportPrompt) (string, error) {
	if err := g.rateLimiter.Wait(ctx); err != nil {
		g.metrics.RecordExternalAPIFailure("gemini", "rate_limit")
		return "", fmt.Errorf("rate limit exceeded: %w", err)
	}

	var config *genai.GenerateContentConfig
	if prompt.System != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		}
	}
	contents := []*genai.Content{
		genai.NewContentFromText(userMessage(prompt), genai.RoleUser),
	}

	start := time.Now()
	resp, err := g.generate(ctx, g.model, contents, config)
	duration := time.Since(start)
	if err != nil {
		g.metrics.RecordExternalAPIFailure("gemini", "generate")
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		g.metrics.RecordExternalAPIFailure("gemini", "empty_response")
		return "", fmt.Errorf("gemini returned no text")
	}

	g.metrics.RecordExternalAPICall("gemini", "success", duration)
	g.logger.WithContext(ctx).WithFields(map[string]any{
		"model":    g.model,
		"duration": duration,
	}).Info("Generated report with Gemini")

	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
