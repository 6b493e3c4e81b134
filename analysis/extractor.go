package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"medtracker"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-sonnet-4-20250514-v1:0"

	// Extraction responses stay small, but multi-product commands need headroom.
	defaultMaxTokens = 2500

	// Low temperature keeps the structured output deterministic.
	defaultTemperature = 0.1

	defaultTopP = 0.9
)

// ErrExtractionUnavailable is returned when the language-model call fails or
// returns unparsable content. It is fatal for the whole command; no partial
// extraction results are usable. Retry policy belongs to the SDK transport,
// not this package.
var ErrExtractionUnavailable = errors.New("extraction unavailable")

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type Options struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// Extractor sends free-form text to Bedrock and converts the response into
// candidate inventory operations, resolving product names to item ids along
// the way. Stateless between calls.
type Extractor struct {
	brc      bedrockRuntimeClient
	resolver *Resolver
	opts     Options
}

func NewExtractor(brc bedrockRuntimeClient, resolver *Resolver, opts Options) *Extractor {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &Extractor{
		brc:      brc,
		resolver: resolver,
		opts:     opts,
	}
}

// Extract implements medtracker.Extractor. Candidates come back in the order
// the model produced them.
func (e *Extractor) Extract(ctx context.Context, text string) ([]medtracker.CandidateOperation, error) {
	prompt, err := NewPrompt(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionUnavailable, err)
	}

	in := &bedrockruntime.ConverseInput{
		ModelId: &e.opts.ModelID,
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: prompt},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(e.opts.MaxTokens),
			Temperature: aws.Float32(e.opts.Temperature),
			TopP:        aws.Float32(e.opts.TopP),
		},
	}

	out, err := e.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("EXTRACTOR: Bedrock invoke failed", "error", err, "model_id", e.opts.ModelID)
		return nil, fmt.Errorf("%w: %v", ErrExtractionUnavailable, err)
	}

	slog.Info("EXTRACTOR: Bedrock invoke succeeded",
		"stop_reason", out.StopReason,
		"latency_ms", func() int64 {
			if out.Metrics != nil {
				return aws.ToInt64(out.Metrics.LatencyMs)
			}
			return 0
		}(),
	)

	responseText := textFromOutput(out)
	raw, ok := extractJSON(responseText)
	if !ok {
		slog.Error("EXTRACTOR: No JSON object in model response", "response_len", len(responseText))
		return nil, fmt.Errorf("%w: no JSON object in model response", ErrExtractionUnavailable)
	}

	items, err := parseWireResponse(raw)
	if err != nil {
		slog.Error("EXTRACTOR: Malformed extraction response", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrExtractionUnavailable, err)
	}

	candidates := make([]medtracker.CandidateOperation, 0, len(items))
	for _, item := range items {
		var itemID string
		if item.hasProductName() {
			itemID = e.resolver.ResolveName(ctx, item.PossibleProductName)
		}
		candidates = append(candidates, toCandidate(item, itemID))
	}

	slog.Info("EXTRACTOR: Extracted candidates", "count", len(candidates))
	return candidates, nil
}

// textFromOutput joins the assistant's text blocks, preferring the last block
// that looks like a single JSON object.
func textFromOutput(out *bedrockruntime.ConverseOutput) string {
	if out == nil || out.Output == nil {
		return ""
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || len(msg.Value.Content) == 0 {
		return ""
	}

	texts := make([]string, 0, len(msg.Value.Content))
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}

	for i := len(texts) - 1; i >= 0; i-- {
		s := strings.TrimSpace(texts[i])
		if len(s) > 1 && s[0] == '{' && s[len(s)-1] == '}' {
			return s
		}
	}
	return strings.Join(texts, "\n")
}

// extractJSON finds the first balanced top-level JSON object in s. Models
// occasionally wrap the object in prose despite instructions.
func extractJSON(s string) ([]byte, bool) {
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					return []byte(s[start : i+1]), true
				}
			}
		}
	}
	return nil, false
}
