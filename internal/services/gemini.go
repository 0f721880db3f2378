package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// probePrompt is the minimal request used by startup and health probes.
const probePrompt = "Test"

// Generation is the provider's answer to a single prompt.
type Generation struct {
	Text string
	// Feedback describes prompt feedback metadata; empty when the provider sent none.
	Feedback     string
	FinishReason string
}

// Generator produces text for a prompt. Implementations must be safe for
// concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Generation, error)
}

// Prober issues a minimal request to check the provider is reachable.
type Prober interface {
	Probe(ctx context.Context) error
}

// GeminiService is the immutable Gemini client shared by all requests.
type GeminiService struct {
	client     *genai.Client
	chatModel  *genai.GenerativeModel
	probeModel *genai.GenerativeModel
	modelName  string
}

func NewGeminiService(ctx context.Context, apiKey, modelName string) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	chatModel := client.GenerativeModel(modelName)
	chatModel.SafetySettings = []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockMediumAndAbove,
		},
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockMediumAndAbove,
		},
	}

	return &GeminiService{
		client:     client,
		chatModel:  chatModel,
		probeModel: client.GenerativeModel(modelName),
		modelName:  modelName,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

func (s *GeminiService) Model() string {
	return s.modelName
}

// Generate sends prompt with the chat safety thresholds. Provider errors,
// including *genai.BlockedError, are returned unchanged for Classify.
func (s *GeminiService) Generate(ctx context.Context, prompt string) (*Generation, error) {
	resp, err := s.chatModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}
	return toGeneration(resp), nil
}

func (s *GeminiService) Probe(ctx context.Context) error {
	_, err := s.probeModel.GenerateContent(ctx, genai.Text(probePrompt))
	return err
}

// Helper functions

func toGeneration(resp *genai.GenerateContentResponse) *Generation {
	gen := &Generation{
		Text:     extractText(resp),
		Feedback: describeFeedback(resp.PromptFeedback),
	}
	if len(resp.Candidates) > 0 {
		gen.FinishReason = resp.Candidates[0].FinishReason.String()
	}
	return gen
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

func describeFeedback(pf *genai.PromptFeedback) string {
	if pf == nil {
		return ""
	}

	var parts []string
	if pf.BlockReason != genai.BlockReasonUnspecified {
		parts = append(parts, "block_reason: "+pf.BlockReason.String())
	}
	for _, rating := range pf.SafetyRatings {
		if rating == nil {
			continue
		}
		entry := fmt.Sprintf("%s: %s", rating.Category, rating.Probability)
		if rating.Blocked {
			entry += " (blocked)"
		}
		parts = append(parts, entry)
	}
	return strings.Join(parts, ", ")
}
