package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"marketingops/internal/domain"
	"marketingops/pkg/logger"
	"marketingops/pkg/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"golang.org/x/time/rate"
)

const defaultBedrockModel = "anthropic.claude-3-sonnet-20240229-v1:0"

// BedrockInvoker is the part of *bedrockruntime.Client the generator uses.
type BedrockInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type bedrockContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type bedrockMessage struct {
	Role    string                `json:"role"`
	Content []bedrockContentBlock `json:"content"`
}

type bedrockRequest struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	System           string           `json:"system,omitempty"`
	Messages         []bedrockMessage `json:"messages"`
	Temperature      float64          `json:"temperature,omitempty"`
}

type bedrockResponse struct {
	Content    []bedrockContentBlock `json:"content"`
	StopReason string                `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// BedrockReports generates reports with an Anthropic model on AWS Bedrock.
type BedrockReports struct {
	client      BedrockInvoker
	modelID     string
	logger      *logger.Logger
	metrics     *metrics.Metrics
	rateLimiter *rate.Limiter
}

// NewBedrockClient loads the default AWS chain for region.
func NewBedrockClient(ctx context.Context, region string) (*bedrockruntime.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return bedrockruntime.NewFromConfig(cfg), nil
}

func NewBedrockReports(client BedrockInvoker, modelID string, requestsPerMinute int, logger *logger.Logger, metrics *metrics.Metrics) *BedrockReports {
	if modelID == "" {
		modelID = defaultBedrockModel
	}
	return &BedrockReports{
		client:      client,
		modelID:     modelID,
		logger:      logger,
		metrics:     metrics,
		rateLimiter: newMinuteLimiter(requestsPerMinute),
	}
}

func (b *BedrockReports) Model() string { return b.modelID }

func (b *BedrockReports) Generate(ctx context.Context, prompt domain.ReportPrompt) (string, error) {
	if err := b.rateLimiter.Wait(ctx); err != nil {
		b.metrics.RecordExternalAPIFailure("bedrock", "rate_limit")
		return "", fmt.Errorf("rate limit exceeded: %w", err)
	}

	requestBody, err := json.Marshal(bedrockRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        4000,
		System:           prompt.System,
		Messages: []bedrockMessage{{
			Role:    "user",
			Content: []bedrockContentBlock{{Type: "text", Text: userMessage(prompt)}},
		}},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()
	output, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        requestBody,
	})
	duration := time.Since(start)
	if err != nil {
		b.metrics.RecordExternalAPIFailure("bedrock", "invoke")
		return "", fmt.Errorf("bedrock API error: %w", err)
	}

	var response bedrockResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		b.metrics.RecordExternalAPIFailure("bedrock", "json_parse")
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	var text strings.Builder
	for _, content := range response.Content {
		if content.Type == "text" {
			text.WriteString(content.Text)
		}
	}

	b.metrics.RecordExternalAPICall("bedrock", "success", duration)
	b.logger.WithContext(ctx).WithFields(map[string]any{
		"model":         b.modelID,
		"duration":      duration,
		"input_tokens":  response.Usage.InputTokens,
		"output_tokens": response.Usage.OutputTokens,
	}).Info("Generated report with Bedrock")

	if text.Len() == 0 {
		return "", fmt.Errorf("bedrock returned no text (stop reason %q)", response.StopReason)
	}
	return text.String(), nil
}

// userMessage puts the data context ahead of the instruction.
func userMessage(prompt domain.ReportPrompt) string {
	var b strings.Builder
	b.WriteString("Marketing data (JSON):\n")
	b.Write(prompt.Context)
	b.WriteString("\n\nRequest: ")
	b.WriteString(prompt.Instruction)
	return b.String()
}

// newMinuteLimiter allows perMinute calls per minute with a burst of one.
// A non-positive rate disables limiting.
func newMinuteLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}
