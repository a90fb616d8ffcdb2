package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"marketingops/internal/domain"
	"marketingops/pkg/logger"
	"marketingops/pkg/metrics"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeBedrock struct {
	request bedrockRequest
	modelID string
	body    string
	err     error
}

func (f *fakeBedrock) InvokeModel(ctx context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.modelID = *in.ModelId
	if err := json.Unmarshal(in.Body, &f.request); err != nil {
		return nil, err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

var testPrompt = domain.ReportPrompt{
	System:      "You are a marketing analyst.",
	Context:     []byte(`{"summary":{"leads":4}}`),
	Instruction: "Summarize the funnel",
}

func TestBedrockReports_Generate(t *testing.T) {
	fake := &fakeBedrock{body: `{"content":[{"type":"text","text":"## Funnel\n"},{"type":"text","text":"4 leads"}],"usage":{"input_tokens":10,"output_tokens":5}}`}
	gen := NewBedrockReports(fake, "", 0, logger.Discard(), metrics.NewIsolated())

	out, err := gen.Generate(context.Background(), testPrompt)
	require.NoError(t, err)

	assert.Equal(t, "## Funnel\n4 leads", out)
	assert.Equal(t, defaultBedrockModel, fake.modelID)
	assert.Equal(t, "bedrock-2023-05-31", fake.request.AnthropicVersion)
	assert.Equal(t, testPrompt.System, fake.request.System)
	require.Len(t, fake.request.Messages, 1)
	assert.Contains(t, fake.request.Messages[0].Content[0].Text, `{"summary":{"leads":4}}`)
	assert.Contains(t, fake.request.Messages[0].Content[0].Text, "Summarize the funnel")
}

func TestBedrockReports_Errors(t *testing.T) {
	gen := NewBedrockReports(&fakeBedrock{err: errors.New("throttled")}, "m", 0, logger.Discard(), metrics.NewIsolated())
	_, err := gen.Generate(context.Background(), testPrompt)
	assert.ErrorContains(t, err, "throttled")

	gen = NewBedrockReports(&fakeBedrock{body: `{"content":[],"stop_reason":"max_tokens"}`}, "m", 0, logger.Discard(), metrics.NewIsolated())
	_, err = gen.Generate(context.Background(), testPrompt)
	assert.ErrorContains(t, err, "max_tokens")
}

func TestGeminiReports_Generate(t *testing.T) {
	var gotModel string
	var gotConfig *genai.GenerateContentConfig
	generate := func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		gotModel = model
		gotConfig = config
		return &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "thinking...", Thought: true},
					{Text: "Revenue is up."},
				}},
			}},
		}, nil
	}

	gen := newGeminiReports(generate, "", 0, logger.Discard(), metrics.NewIsolated())
	out, err := gen.Generate(context.Background(), testPrompt)
	require.NoError(t, err)

	assert.Equal(t, "Revenue is up.", out)
	assert.Equal(t, defaultGeminiModel, gotModel)
	require.NotNil(t, gotConfig)
	assert.Equal(t, testPrompt.System, gotConfig.SystemInstruction.Parts[0].Text)
}

func TestGeminiReports_EmptyResponse(t *testing.T) {
	generate := func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{}, nil
	}
	gen := newGeminiReports(generate, "gemini-x", 0, logger.Discard(), metrics.NewIsolated())
	_, err := gen.Generate(context.Background(), testPrompt)
	assert.Error(t, err)
	assert.Equal(t, "gemini-x", gen.Model())
}

func TestNewGeminiReports_RequiresKey(t *testing.T) {
	_, err := NewGeminiReports(context.Background(), "", "", 0, logger.Discard(), metrics.NewIsolated())
	assert.Error(t, err)
}
